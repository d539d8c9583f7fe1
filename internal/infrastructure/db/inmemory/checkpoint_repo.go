package inmemorydb

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"sync"

	"github.com/arkade-os/checkpointd/internal/core/domain"
)

type checkpointRepository struct {
	lock        *sync.RWMutex
	checkpoints map[uint64]domain.Checkpoint
	opts        domain.RepoOptions
}

func NewCheckpointRepository(config ...interface{}) (domain.CheckpointRepository, error) {
	var opts domain.RepoOptions
	if len(config) > 1 {
		return nil, fmt.Errorf("invalid config")
	}
	if len(config) == 1 {
		var ok bool
		opts, ok = config[0].(domain.RepoOptions)
		if !ok {
			return nil, fmt.Errorf("invalid repo options")
		}
	}

	return &checkpointRepository{
		lock:        &sync.RWMutex{},
		checkpoints: make(map[uint64]domain.Checkpoint),
		opts:        opts,
	}, nil
}

func (r *checkpointRepository) ReadTx(
	ctx context.Context, fn func(domain.CheckpointTx) error,
) error {
	r.lock.RLock()
	defer r.lock.RUnlock()

	return fn(&checkpointTx{checkpoints: r.checkpoints, finality: r.opts.Finality})
}

func (r *checkpointRepository) WriteTx(
	ctx context.Context, fn func(domain.CheckpointTx) error,
) error {
	if r.opts.ReadOnly {
		return domain.ErrReadOnly
	}

	r.lock.Lock()
	defer r.lock.Unlock()

	// Mutations are applied to a copy that replaces the current state only on success.
	tx := &checkpointTx{
		checkpoints: maps.Clone(r.checkpoints),
		finality:    r.opts.Finality,
		writable:    true,
	}
	if err := fn(tx); err != nil {
		return err
	}
	r.checkpoints = tx.checkpoints
	return nil
}

func (r *checkpointRepository) IsReadOnly() bool {
	return r.opts.ReadOnly
}

func (r *checkpointRepository) Close() {}

type checkpointTx struct {
	checkpoints map[uint64]domain.Checkpoint
	finality    domain.FinalityRule
	writable    bool
}

func (t *checkpointTx) Get(_ context.Context, height uint64) (*domain.Checkpoint, error) {
	cp, ok := t.checkpoints[height]
	if !ok {
		return nil, nil
	}
	return &cp, nil
}

func (t *checkpointTx) Put(_ context.Context, checkpoint domain.Checkpoint) error {
	if !t.writable {
		return domain.ErrReadOnly
	}
	t.checkpoints[checkpoint.Height] = checkpoint
	return nil
}

func (t *checkpointTx) Remove(_ context.Context, height uint64) error {
	if !t.writable {
		return domain.ErrReadOnly
	}
	delete(t.checkpoints, height)
	return nil
}

func (t *checkpointTx) Top(_ context.Context) (*domain.Checkpoint, error) {
	if len(t.checkpoints) <= 0 {
		return nil, nil
	}
	top := slices.Max(slices.Collect(maps.Keys(t.checkpoints)))
	cp := t.checkpoints[top]
	return &cp, nil
}

func (t *checkpointTx) ImmutableAtOrBefore(
	_ context.Context, height uint64,
) (*domain.Checkpoint, error) {
	heights := t.sortedHeights()
	desc := make([]domain.Checkpoint, 0, t.finality.Depth())
	for i := len(heights) - 1; i >= 0 && len(desc) < t.finality.Depth(); i-- {
		if heights[i] > height {
			continue
		}
		desc = append(desc, t.checkpoints[heights[i]])
	}
	return t.finality.Select(desc), nil
}

func (t *checkpointTx) Range(
	_ context.Context, lo, hi uint64, limit int,
) ([]domain.Checkpoint, error) {
	checkpoints := make([]domain.Checkpoint, 0)
	for _, height := range t.sortedHeights() {
		if height < lo || height > hi {
			continue
		}
		checkpoints = append(checkpoints, t.checkpoints[height])
		if limit > 0 && len(checkpoints) >= limit {
			break
		}
	}
	return checkpoints, nil
}

func (t *checkpointTx) sortedHeights() []uint64 {
	return slices.Sorted(maps.Keys(t.checkpoints))
}
