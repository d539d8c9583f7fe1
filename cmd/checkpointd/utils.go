package main

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/arkade-os/checkpointd/internal/config"
	"github.com/arkade-os/checkpointd/internal/core/application"
	"github.com/arkade-os/checkpointd/internal/core/domain"
	"github.com/arkade-os/checkpointd/internal/telemetry"
	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
)

type checkpointInfo struct {
	Height uint64      `json:"height"`
	Hash   domain.Hash `json:"hash"`
	Type   string      `json:"type"`
}

func toCheckpointInfo(checkpoint domain.Checkpoint) checkpointInfo {
	return checkpointInfo{
		Height: checkpoint.Height,
		Hash:   checkpoint.Hash,
		Type:   checkpoint.Type.String(),
	}
}

// withManager loads the config, opens the store and seeds the hardcoded
// checkpoints before handing the manager to the given command.
func withManager(
	c *cli.Context, fn func(ctx context.Context, mgr *application.CheckpointManager) error,
) error {
	cfg, err := config.LoadConfig(c)
	if err != nil {
		return fmt.Errorf("invalid config: %s", err)
	}

	log.SetLevel(log.Level(cfg.LogLevel))

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %s", err)
	}
	log.Debugf("checkpointd config: %s", cfg)

	repoManager := cfg.RepoManager()
	closeRepo := sync.OnceFunc(repoManager.Close)
	defer closeRepo()
	log.RegisterExitHandler(closeRepo)

	ctx := c.Context
	if ctx == nil {
		ctx = context.Background()
	}

	if cfg.OtelCollectorEndpoint != "" {
		pushInterval := time.Duration(cfg.OtelPushInterval) * time.Second
		shutdown, err := telemetry.InitOtelSDK(ctx, cfg.OtelCollectorEndpoint, pushInterval)
		if err != nil {
			return err
		}
		flushMetrics := sync.OnceFunc(func() {
			if err := shutdown(ctx); err != nil {
				log.WithError(err).Warn("failed to flush metrics")
			}
		})
		defer flushMetrics()
		log.RegisterExitHandler(flushMetrics)
	}

	mgr := cfg.CheckpointManager()
	if err := mgr.Init(ctx, cfg.NetworkType(), repoManager.Checkpoints()); err != nil {
		// The node can't run without its trust anchors.
		log.WithError(err).Fatal("failed to seed hardcoded checkpoints")
		return err
	}

	return fn(ctx, mgr)
}

func printJSON(resp interface{}) error {
	jsonBytes, err := json.MarshalIndent(resp, "", "\t")
	if err != nil {
		return err
	}
	fmt.Println(string(jsonBytes))
	return nil
}
