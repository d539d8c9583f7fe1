package domain

import "context"

// CheckpointRepository is the durable owner of checkpoints, keyed by height.
// Every access goes through a scope that is released on all exit paths.
type CheckpointRepository interface {
	// ReadTx runs fn against a consistent snapshot of the store.
	ReadTx(ctx context.Context, fn func(CheckpointTx) error) error
	// WriteTx runs fn in a single transaction that is committed only if fn returns nil.
	WriteTx(ctx context.Context, fn func(CheckpointTx) error) error
	IsReadOnly() bool
	Close()
}

type CheckpointTx interface {
	// Get returns nil, nil if there's no checkpoint at the given height.
	Get(ctx context.Context, height uint64) (*Checkpoint, error)
	Put(ctx context.Context, checkpoint Checkpoint) error
	// Remove is a no-op if there's no checkpoint at the given height.
	Remove(ctx context.Context, height uint64) error
	// Top returns the checkpoint with the highest height, nil if the store is empty.
	Top(ctx context.Context) (*Checkpoint, error)
	// ImmutableAtOrBefore returns the most recent checkpoint at or before height
	// that can no longer be reorganized away.
	ImmutableAtOrBefore(ctx context.Context, height uint64) (*Checkpoint, error)
	// Range returns checkpoints with lo <= height <= hi in ascending order.
	// A limit <= 0 means unbounded.
	Range(ctx context.Context, lo, hi uint64, limit int) ([]Checkpoint, error)
}

// RepoOptions is the common configuration shared by all checkpoint stores.
type RepoOptions struct {
	ReadOnly bool
	Finality FinalityRule
}
