package badgerdb

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/arkade-os/checkpointd/internal/core/domain"
	"github.com/dgraph-io/badger/v4"
	log "github.com/sirupsen/logrus"
	"github.com/timshannon/badgerhold/v4"
)

const checkpointStoreDir = "checkpoints"

type checkpointRepository struct {
	store *badgerhold.Store
	opts  domain.RepoOptions
}

func NewCheckpointRepository(config ...interface{}) (domain.CheckpointRepository, error) {
	if len(config) != 2 && len(config) != 3 {
		return nil, fmt.Errorf("invalid config")
	}
	baseDir, ok := config[0].(string)
	if !ok {
		return nil, fmt.Errorf("invalid base directory")
	}
	var logger badger.Logger
	if config[1] != nil {
		logger, ok = config[1].(badger.Logger)
		if !ok {
			return nil, fmt.Errorf("invalid logger")
		}
	}
	var opts domain.RepoOptions
	if len(config) == 3 {
		opts, ok = config[2].(domain.RepoOptions)
		if !ok {
			return nil, fmt.Errorf("invalid repo options")
		}
	}

	var dir string
	if len(baseDir) > 0 {
		dir = filepath.Join(baseDir, checkpointStoreDir)
	}
	store, err := createDB(dir, logger, opts.ReadOnly)
	if err != nil {
		return nil, fmt.Errorf("failed to open checkpoint store: %s", err)
	}

	return &checkpointRepository{store, opts}, nil
}

func (r *checkpointRepository) ReadTx(
	ctx context.Context, fn func(domain.CheckpointTx) error,
) error {
	tx := r.store.Badger().NewTransaction(false)
	defer tx.Discard()

	return fn(&checkpointTx{r.store, tx, r.opts.Finality, false})
}

func (r *checkpointRepository) WriteTx(
	ctx context.Context, fn func(domain.CheckpointTx) error,
) error {
	if r.opts.ReadOnly {
		return domain.ErrReadOnly
	}

	var err error
	for range maxRetries {
		err = func() error {
			tx := r.store.Badger().NewTransaction(true)
			defer tx.Discard()

			if err := fn(&checkpointTx{r.store, tx, r.opts.Finality, true}); err != nil {
				return err
			}
			return tx.Commit()
		}()
		if err == nil {
			return nil
		}

		if errors.Is(err, badger.ErrConflict) {
			log.WithError(err).Debug("checkpoint store write conflict, retrying")
			time.Sleep(100 * time.Millisecond)
			continue
		}
		return err
	}
	return err
}

func (r *checkpointRepository) IsReadOnly() bool {
	return r.opts.ReadOnly
}

func (r *checkpointRepository) Close() {
	// nolint:all
	r.store.Close()
}

type checkpointTx struct {
	store    *badgerhold.Store
	tx       *badger.Txn
	finality domain.FinalityRule
	writable bool
}

func (t *checkpointTx) Get(_ context.Context, height uint64) (*domain.Checkpoint, error) {
	var dto checkpointDTO
	err := t.store.TxGet(t.tx, height, &dto)
	if errors.Is(err, badgerhold.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get checkpoint at height %d: %w", height, err)
	}
	cp := dto.toCheckpoint()
	return &cp, nil
}

func (t *checkpointTx) Put(_ context.Context, checkpoint domain.Checkpoint) error {
	if !t.writable {
		return domain.ErrReadOnly
	}
	dto := newCheckpointDTO(checkpoint)
	if err := t.store.TxUpsert(t.tx, checkpoint.Height, &dto); err != nil {
		return fmt.Errorf("failed to put checkpoint at height %d: %w", checkpoint.Height, err)
	}
	return nil
}

func (t *checkpointTx) Remove(_ context.Context, height uint64) error {
	if !t.writable {
		return domain.ErrReadOnly
	}
	if err := t.store.TxDelete(t.tx, height, checkpointDTO{}); err != nil {
		if errors.Is(err, badgerhold.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("failed to remove checkpoint at height %d: %w", height, err)
	}
	return nil
}

func (t *checkpointTx) Top(_ context.Context) (*domain.Checkpoint, error) {
	query := badgerhold.Where("Height").Ge(uint64(0)).SortBy("Height").Reverse().Limit(1)
	checkpoints, err := t.find(query)
	if err != nil {
		return nil, err
	}
	if len(checkpoints) <= 0 {
		return nil, nil
	}
	return &checkpoints[0], nil
}

func (t *checkpointTx) ImmutableAtOrBefore(
	_ context.Context, height uint64,
) (*domain.Checkpoint, error) {
	query := badgerhold.Where("Height").Le(height).
		SortBy("Height").Reverse().Limit(t.finality.Depth())
	desc, err := t.find(query)
	if err != nil {
		return nil, err
	}
	return t.finality.Select(desc), nil
}

func (t *checkpointTx) Range(
	_ context.Context, lo, hi uint64, limit int,
) ([]domain.Checkpoint, error) {
	query := badgerhold.Where("Height").Ge(lo).And("Height").Le(hi).SortBy("Height")
	if limit > 0 {
		query = query.Limit(limit)
	}
	return t.find(query)
}

func (t *checkpointTx) find(query *badgerhold.Query) ([]domain.Checkpoint, error) {
	var dtos []checkpointDTO
	if err := t.store.TxFind(t.tx, &dtos, query); err != nil &&
		!errors.Is(err, badgerhold.ErrNotFound) {
		return nil, fmt.Errorf("failed to query checkpoints: %w", err)
	}
	checkpoints := make([]domain.Checkpoint, 0, len(dtos))
	for _, dto := range dtos {
		checkpoints = append(checkpoints, dto.toCheckpoint())
	}
	return checkpoints, nil
}

type checkpointDTO struct {
	Height    uint64
	Hash      domain.Hash
	Type      domain.CheckpointType
	UpdatedAt int64
}

func newCheckpointDTO(cp domain.Checkpoint) checkpointDTO {
	return checkpointDTO{
		Height:    cp.Height,
		Hash:      cp.Hash,
		Type:      cp.Type,
		UpdatedAt: time.Now().Unix(),
	}
}

func (d checkpointDTO) toCheckpoint() domain.Checkpoint {
	return domain.Checkpoint{
		Height: d.Height,
		Hash:   d.Hash,
		Type:   d.Type,
	}
}
