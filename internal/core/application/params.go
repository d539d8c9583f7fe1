package application

import (
	"github.com/arkade-os/checkpointd/pkg/errors"
)

const (
	DefaultCheckpointInterval   = 4
	DefaultPersistentInterval   = 60
	DefaultCheckpointingVersion = 12
)

// Params tunes the culling and activation rules of the checkpoint manager.
type Params struct {
	// CheckpointInterval is the distance between two consecutive service node checkpoints.
	CheckpointInterval uint64
	// PersistentInterval marks the heights whose checkpoints are never culled.
	PersistentInterval uint64
	// RetentionWindow is how many blocks below the immutable checkpoint are kept.
	RetentionWindow uint64
	// MinCullHeight is the lowest block height that triggers culling.
	MinCullHeight uint64
	// CheckpointingVersion is the first block major version with checkpointing.
	CheckpointingVersion uint8
}

func DefaultParams() Params {
	return Params{
		CheckpointInterval:   DefaultCheckpointInterval,
		PersistentInterval:   DefaultPersistentInterval,
		RetentionWindow:      DefaultPersistentInterval,
		MinCullHeight:        DefaultPersistentInterval,
		CheckpointingVersion: DefaultCheckpointingVersion,
	}
}

func (p Params) Validate() error {
	metadata := errors.InvalidParamsMetadata{
		CheckpointInterval: p.CheckpointInterval,
		PersistentInterval: p.PersistentInterval,
	}
	if p.CheckpointInterval == 0 || p.PersistentInterval == 0 {
		return errors.INVALID_PARAMS.New(
			"checkpoint and persistent intervals must be greater than 0",
		).WithMetadata(metadata)
	}
	// Culling steps by CheckpointInterval and must land on every persistent height.
	if p.PersistentInterval%p.CheckpointInterval != 0 {
		return errors.INVALID_PARAMS.New(
			"persistent interval %d must be a multiple of checkpoint interval %d",
			p.PersistentInterval, p.CheckpointInterval,
		).WithMetadata(metadata)
	}
	return nil
}
