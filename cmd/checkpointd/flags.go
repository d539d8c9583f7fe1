package main

import (
	"github.com/arkade-os/checkpointd/internal/core/application"
	"github.com/urfave/cli/v2"
)

const (
	heightFlagName           = "height"
	hashFlagName             = "hash"
	fileFlagName             = "file"
	fromFlagName             = "from"
	toFlagName               = "to"
	versionFlagName          = "major-version"
	serviceNodeFlagName      = "service-node"
	blockchainHeightFlagName = "blockchain-height"
	candidateHeightFlagName  = "candidate-height"
	typeFlagName             = "type"
)

func heightFlag() cli.Flag {
	return &cli.Uint64Flag{
		Name:     heightFlagName,
		Usage:    "block height",
		Required: true,
	}
}

func hashFlag() cli.Flag {
	return &cli.StringFlag{
		Name:     hashFlagName,
		Usage:    "block hash in hex format",
		Required: true,
	}
}

func fileFlag() cli.Flag {
	return &cli.StringFlag{
		Name:     fileFlagName,
		Usage:    "path of the json file with the checkpoints to import",
		Required: true,
	}
}

func fromFlag() cli.Flag {
	return &cli.Uint64Flag{
		Name:  fromFlagName,
		Usage: "lowest height of the listed checkpoints",
	}
}

func toFlag() cli.Flag {
	return &cli.Uint64Flag{
		Name:  toFlagName,
		Usage: "highest height of the listed checkpoints, defaults to the top checkpoint",
	}
}

func versionFlag() cli.Flag {
	return &cli.UintFlag{
		Name:  versionFlagName,
		Usage: "major version of the block",
		Value: application.DefaultCheckpointingVersion,
	}
}

func serviceNodeFlag() cli.Flag {
	return &cli.BoolFlag{
		Name:  serviceNodeFlagName,
		Usage: "store the block hash as a service node checkpoint",
	}
}

func blockchainHeightFlag() cli.Flag {
	return &cli.Uint64Flag{
		Name:     blockchainHeightFlagName,
		Usage:    "current height of the blockchain",
		Required: true,
	}
}

func candidateHeightFlag() cli.Flag {
	return &cli.Uint64Flag{
		Name:     candidateHeightFlagName,
		Usage:    "height where the alternative branch forks",
		Required: true,
	}
}

func typeFlag() cli.Flag {
	return &cli.StringFlag{
		Name:  typeFlagName,
		Usage: "only list checkpoints of the given type (hardcoded, service_node)",
	}
}
