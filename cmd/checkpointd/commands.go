package main

import (
	"context"
	"fmt"

	"github.com/arkade-os/checkpointd/internal/core/application"
	"github.com/arkade-os/checkpointd/internal/core/domain"
	"github.com/urfave/cli/v2"
)

func commands() cli.Commands {
	return cli.Commands{
		{
			Name:   "init",
			Usage:  "Create the checkpoint store and seed the hardcoded checkpoints",
			Action: initAction,
		},
		{
			Name:   "add",
			Usage:  "Add a hardcoded checkpoint",
			Flags:  []cli.Flag{heightFlag(), hashFlag()},
			Action: addAction,
		},
		{
			Name:   "import",
			Usage:  "Import hardcoded checkpoints from a json file",
			Flags:  []cli.Flag{fileFlag()},
			Action: importAction,
		},
		{
			Name:   "get",
			Usage:  "Get the checkpoint at the given height",
			Flags:  []cli.Flag{heightFlag()},
			Action: getAction,
		},
		{
			Name:   "list",
			Usage:  "List the stored checkpoints",
			Flags:  []cli.Flag{fromFlag(), toFlag(), typeFlag()},
			Action: listAction,
		},
		{
			Name:   "top",
			Usage:  "Get the height of the top checkpoint",
			Action: topAction,
		},
		{
			Name:   "check",
			Usage:  "Check a block hash against the checkpoint at its height",
			Flags:  []cli.Flag{heightFlag(), hashFlag()},
			Action: checkAction,
		},
		{
			Name:  "block-added",
			Usage: "Notify a new block, culling old checkpoints",
			Flags: []cli.Flag{
				heightFlag(), hashFlag(), versionFlag(), serviceNodeFlag(),
			},
			Action: blockAddedAction,
		},
		{
			Name:   "detach",
			Usage:  "Drop the checkpoints at or above the given height after a rollback",
			Flags:  []cli.Flag{heightFlag()},
			Action: detachAction,
		},
		{
			Name:   "alt-allowed",
			Usage:  "Check whether an alternative branch is allowed to replace the chain",
			Flags:  []cli.Flag{blockchainHeightFlag(), candidateHeightFlag()},
			Action: altAllowedAction,
		},
		{
			Name:   "newest-hardcoded",
			Usage:  "Get the newest hardcoded checkpoint of the network",
			Action: newestHardcodedAction,
		},
	}
}

func initAction(c *cli.Context) error {
	return withManager(c, func(ctx context.Context, mgr *application.CheckpointManager) error {
		return printJSON(map[string]interface{}{
			"network":    mgr.Network().String(),
			"max_height": mgr.GetMaxHeight(ctx),
		})
	})
}

func addAction(c *cli.Context) error {
	height := c.Uint64(heightFlagName)
	hash := c.String(hashFlagName)

	return withManager(c, func(ctx context.Context, mgr *application.CheckpointManager) error {
		if err := mgr.AddCheckpoint(ctx, height, hash); err != nil {
			return err
		}
		checkpoint, _ := mgr.GetCheckpoint(ctx, height)
		if checkpoint == nil {
			return fmt.Errorf("checkpoint at height %d not found after add", height)
		}
		return printJSON(toCheckpointInfo(*checkpoint))
	})
}

func importAction(c *cli.Context) error {
	path := c.String(fileFlagName)

	return withManager(c, func(ctx context.Context, mgr *application.CheckpointManager) error {
		count, err := mgr.ImportCheckpoints(ctx, path)
		if err != nil {
			return err
		}
		return printJSON(map[string]interface{}{
			"imported": count,
		})
	})
}

func getAction(c *cli.Context) error {
	height := c.Uint64(heightFlagName)

	return withManager(c, func(ctx context.Context, mgr *application.CheckpointManager) error {
		checkpoint, ok := mgr.GetCheckpoint(ctx, height)
		if !ok {
			return fmt.Errorf("no checkpoint at height %d", height)
		}
		return printJSON(toCheckpointInfo(*checkpoint))
	})
}

func listAction(c *cli.Context) error {
	from := c.Uint64(fromFlagName)
	to := c.Uint64(toFlagName)
	var filter *domain.CheckpointType
	if c.IsSet(typeFlagName) {
		typ, err := domain.ParseCheckpointType(c.String(typeFlagName))
		if err != nil {
			return err
		}
		filter = &typ
	}

	return withManager(c, func(ctx context.Context, mgr *application.CheckpointManager) error {
		if !c.IsSet(toFlagName) {
			to = mgr.GetMaxHeight(ctx)
		}
		if from > to {
			return fmt.Errorf("--%s must not be greater than --%s", fromFlagName, toFlagName)
		}

		checkpoints, err := mgr.ListCheckpoints(ctx, from, to)
		if err != nil {
			return err
		}
		list := make([]checkpointInfo, 0, len(checkpoints))
		for _, checkpoint := range checkpoints {
			if filter != nil && checkpoint.Type != *filter {
				continue
			}
			list = append(list, toCheckpointInfo(checkpoint))
		}
		return printJSON(list)
	})
}

func topAction(c *cli.Context) error {
	return withManager(c, func(ctx context.Context, mgr *application.CheckpointManager) error {
		return printJSON(map[string]interface{}{
			"max_height": mgr.GetMaxHeight(ctx),
		})
	})
}

func checkAction(c *cli.Context) error {
	height := c.Uint64(heightFlagName)
	hash, err := domain.ParseHash(c.String(hashFlagName))
	if err != nil {
		return err
	}

	return withManager(c, func(ctx context.Context, mgr *application.CheckpointManager) error {
		passed, isCheckpoint, isServiceNode := mgr.CheckBlock(ctx, height, hash)
		return printJSON(map[string]interface{}{
			"passed":          passed,
			"is_checkpoint":   isCheckpoint,
			"is_service_node": isServiceNode,
		})
	})
}

func blockAddedAction(c *cli.Context) error {
	hash, err := domain.ParseHash(c.String(hashFlagName))
	if err != nil {
		return err
	}
	version := c.Uint(versionFlagName)
	if version > 255 {
		return fmt.Errorf("invalid --%s %d", versionFlagName, version)
	}
	block := domain.Block{
		Height:       c.Uint64(heightFlagName),
		MajorVersion: uint8(version),
		Hash:         hash,
	}

	var checkpoint *domain.Checkpoint
	if c.Bool(serviceNodeFlagName) {
		cp := domain.NewServiceNodeCheckpoint(block.Height, block.Hash)
		checkpoint = &cp
	}

	return withManager(c, func(ctx context.Context, mgr *application.CheckpointManager) error {
		if err := mgr.BlockAdded(ctx, block, checkpoint); err != nil {
			return err
		}
		return printJSON(map[string]interface{}{
			"max_height":       mgr.GetMaxHeight(ctx),
			"last_cull_height": mgr.LastCullHeight(),
		})
	})
}

func detachAction(c *cli.Context) error {
	height := c.Uint64(heightFlagName)

	return withManager(c, func(ctx context.Context, mgr *application.CheckpointManager) error {
		mgr.BlockchainDetached(ctx, height)
		return printJSON(map[string]interface{}{
			"max_height": mgr.GetMaxHeight(ctx),
		})
	})
}

func altAllowedAction(c *cli.Context) error {
	blockchainHeight := c.Uint64(blockchainHeightFlagName)
	candidateHeight := c.Uint64(candidateHeightFlagName)

	return withManager(c, func(ctx context.Context, mgr *application.CheckpointManager) error {
		allowed, isServiceNode := mgr.IsAlternativeBlockAllowed(
			ctx, blockchainHeight, candidateHeight,
		)
		return printJSON(map[string]interface{}{
			"allowed":          allowed,
			"is_service_node":  isServiceNode,
			"immutable_height": mgr.ImmutableHeight(),
		})
	})
}

func newestHardcodedAction(c *cli.Context) error {
	return withManager(c, func(_ context.Context, mgr *application.CheckpointManager) error {
		hash, height := domain.NewestHardcodedCheckpoint(mgr.Network())
		if hash.IsNull() {
			return fmt.Errorf("no hardcoded checkpoints for %s", mgr.Network())
		}
		return printJSON(map[string]interface{}{
			"height": height,
			"hash":   hash,
		})
	})
}
