package pgdb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/arkade-os/checkpointd/internal/core/domain"
	"github.com/arkade-os/checkpointd/internal/infrastructure/db/postgres/sqlc/queries"
	log "github.com/sirupsen/logrus"
)

type checkpointRepository struct {
	db   *sql.DB
	opts domain.RepoOptions
}

func NewCheckpointRepository(config ...interface{}) (domain.CheckpointRepository, error) {
	if len(config) != 1 && len(config) != 2 {
		return nil, fmt.Errorf("invalid config: expected 1 or 2 arguments, got %d", len(config))
	}
	db, ok := config[0].(*sql.DB)
	if !ok {
		return nil, fmt.Errorf(
			"cannot open checkpoint repository: expected *sql.DB but got %T", config[0],
		)
	}
	var opts domain.RepoOptions
	if len(config) == 2 {
		opts, ok = config[1].(domain.RepoOptions)
		if !ok {
			return nil, fmt.Errorf("invalid repo options")
		}
	}

	return &checkpointRepository{db, opts}, nil
}

func (r *checkpointRepository) ReadTx(
	ctx context.Context, fn func(domain.CheckpointTx) error,
) error {
	return readTx(ctx, r.db, func(q *queries.Queries) error {
		return fn(&checkpointTx{querier: q, finality: r.opts.Finality})
	})
}

func (r *checkpointRepository) WriteTx(
	ctx context.Context, fn func(domain.CheckpointTx) error,
) error {
	if r.opts.ReadOnly {
		return domain.ErrReadOnly
	}
	return execTx(ctx, r.db, func(tx *sql.Tx, q *queries.Queries) error {
		return fn(&checkpointTx{tx: tx, querier: q, finality: r.opts.Finality, writable: true})
	})
}

func (r *checkpointRepository) IsReadOnly() bool {
	return r.opts.ReadOnly
}

func (r *checkpointRepository) Close() {
	_ = r.db.Close()
}

// removeSavepoint scopes a single removal so that a failed delete doesn't
// abort the rest of the transaction.
const removeSavepoint = "remove_checkpoint"

type checkpointTx struct {
	tx       *sql.Tx
	querier  *queries.Queries
	finality domain.FinalityRule
	writable bool
}

func (t *checkpointTx) Get(ctx context.Context, height uint64) (*domain.Checkpoint, error) {
	row, err := t.querier.SelectCheckpoint(ctx, int64(height))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get checkpoint at height %d: %w", height, err)
	}
	return rowToCheckpoint(row)
}

func (t *checkpointTx) Put(ctx context.Context, checkpoint domain.Checkpoint) error {
	if !t.writable {
		return domain.ErrReadOnly
	}
	if checkpoint.Height > math.MaxInt64 {
		return fmt.Errorf("checkpoint height %d out of range", checkpoint.Height)
	}
	return t.querier.UpsertCheckpoint(ctx, queries.UpsertCheckpointParams{
		Height:    int64(checkpoint.Height),
		Hash:      checkpoint.Hash.String(),
		Type:      int32(checkpoint.Type),
		UpdatedAt: time.Now().Unix(),
	})
}

func (t *checkpointTx) Remove(ctx context.Context, height uint64) error {
	if !t.writable {
		return domain.ErrReadOnly
	}
	if height > math.MaxInt64 {
		return nil
	}
	if _, err := t.tx.ExecContext(ctx, "SAVEPOINT "+removeSavepoint); err != nil {
		return fmt.Errorf("failed to remove checkpoint at height %d: %w", height, err)
	}
	if err := t.querier.DeleteCheckpoint(ctx, int64(height)); err != nil {
		if _, rbErr := t.tx.ExecContext(
			ctx, "ROLLBACK TO SAVEPOINT "+removeSavepoint,
		); rbErr != nil {
			log.WithError(rbErr).Warn("failed to roll back checkpoint removal")
		}
		return fmt.Errorf("failed to remove checkpoint at height %d: %w", height, err)
	}
	_, err := t.tx.ExecContext(ctx, "RELEASE SAVEPOINT "+removeSavepoint)
	return err
}

func (t *checkpointTx) Top(ctx context.Context) (*domain.Checkpoint, error) {
	row, err := t.querier.SelectTopCheckpoint(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get top checkpoint: %w", err)
	}
	return rowToCheckpoint(row)
}

func (t *checkpointTx) ImmutableAtOrBefore(
	ctx context.Context, height uint64,
) (*domain.Checkpoint, error) {
	rows, err := t.querier.SelectCheckpointsAtOrBefore(
		ctx, queries.SelectCheckpointsAtOrBeforeParams{
			Height:  clampHeight(height),
			MaxRows: int64(t.finality.Depth()),
		},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get checkpoints before height %d: %w", height, err)
	}
	desc, err := rowsToCheckpoints(rows)
	if err != nil {
		return nil, err
	}
	return t.finality.Select(desc), nil
}

func (t *checkpointTx) Range(
	ctx context.Context, lo, hi uint64, limit int,
) ([]domain.Checkpoint, error) {
	maxRows := int64(math.MaxInt64)
	if limit > 0 {
		maxRows = int64(limit)
	}
	rows, err := t.querier.SelectCheckpointsInRange(ctx, queries.SelectCheckpointsInRangeParams{
		Lo:      clampHeight(lo),
		Hi:      clampHeight(hi),
		MaxRows: maxRows,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get checkpoints in range [%d, %d]: %w", lo, hi, err)
	}
	return rowsToCheckpoints(rows)
}

// clampHeight keeps unbounded upper limits within the signed column range.
func clampHeight(height uint64) int64 {
	if height > math.MaxInt64 {
		return math.MaxInt64
	}
	return int64(height)
}

func rowToCheckpoint(row queries.Checkpoint) (*domain.Checkpoint, error) {
	hash, err := domain.ParseHash(row.Hash)
	if err != nil {
		return nil, fmt.Errorf("corrupted checkpoint at height %d: %w", row.Height, err)
	}
	return &domain.Checkpoint{
		Height: uint64(row.Height),
		Hash:   hash,
		Type:   domain.CheckpointType(row.Type),
	}, nil
}

func rowsToCheckpoints(rows []queries.Checkpoint) ([]domain.Checkpoint, error) {
	checkpoints := make([]domain.Checkpoint, 0, len(rows))
	for _, row := range rows {
		cp, err := rowToCheckpoint(row)
		if err != nil {
			return nil, err
		}
		checkpoints = append(checkpoints, *cp)
	}
	return checkpoints, nil
}
