package application

import (
	"context"
	"fmt"

	"github.com/arkade-os/checkpointd/internal/core/domain"
	"github.com/arkade-os/checkpointd/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// CheckpointManager pins block heights to hashes and decides whether a
// competing branch may replace the current chain.
//
// The manager holds no lock of its own: its owner must serialize every call,
// typically under the same lock that guards block addition and detachment.
type CheckpointManager struct {
	params  Params
	repo    domain.CheckpointRepository
	network domain.Network
	metrics *managerMetrics

	lastCullHeight  uint64
	immutableHeight uint64
}

func NewCheckpointManager(params Params) (*CheckpointManager, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	return &CheckpointManager{
		params:  params,
		metrics: newManagerMetrics(),
	}, nil
}

// Init resets the manager cursors and seeds the hardcoded checkpoints of
// the given network. Seeding failures are fatal, the node can't start
// without its trust anchors.
func (m *CheckpointManager) Init(
	ctx context.Context, network domain.Network, repo domain.CheckpointRepository,
) error {
	m.repo = repo
	m.network = network
	m.lastCullHeight = 0
	m.immutableHeight = 0

	if repo.IsReadOnly() {
		return nil
	}
	if !domain.SeedHardcodedCheckpoints {
		return nil
	}

	for _, line := range domain.HardcodedCheckpoints(network) {
		if err := m.AddCheckpoint(ctx, line.Height, line.Hash); err != nil {
			return fmt.Errorf(
				"failed to add hardcoded checkpoint at height %d: %w", line.Height, err,
			)
		}
	}

	log.Debugf("seeded %d hardcoded checkpoints for %s",
		len(domain.HardcodedCheckpoints(network)), network)
	return nil
}

func (m *CheckpointManager) Network() domain.Network {
	return m.network
}

// GetCheckpoint reports store failures as a missing checkpoint.
func (m *CheckpointManager) GetCheckpoint(
	ctx context.Context, height uint64,
) (*domain.Checkpoint, bool) {
	var checkpoint *domain.Checkpoint
	if err := m.repo.ReadTx(ctx, func(tx domain.CheckpointTx) error {
		var err error
		checkpoint, err = tx.Get(ctx, height)
		return err
	}); err != nil {
		m.metrics.addStoreFailure(ctx, "get_checkpoint")
		log.WithError(err).Warnf("failed to get checkpoint at height %d", height)
		return nil, false
	}
	return checkpoint, checkpoint != nil
}

// AddCheckpoint registers a hardcoded checkpoint. Re-adding the same
// checkpoint is a no-op, while a different hash at the same height is rejected.
// The lookup and the write share one scope, so a height's hash never changes.
func (m *CheckpointManager) AddCheckpoint(
	ctx context.Context, height uint64, hashStr string,
) error {
	hash, err := domain.ParseHash(hashStr)
	if err != nil {
		return errors.INVALID_HASH.Wrap(err).WithMetadata(errors.HashMetadata{
			Height: height,
			Hash:   hashStr,
		})
	}

	if err := m.repo.WriteTx(ctx, func(tx domain.CheckpointTx) error {
		existing, err := tx.Get(ctx, height)
		if err != nil {
			return err
		}
		if existing != nil {
			if existing.Hash != hash {
				return errors.CHECKPOINT_CONFLICT.New(
					"checkpoint at height %d already exists with a different hash", height,
				).WithMetadata(errors.CheckpointConflictMetadata{
					Height:       height,
					ExistingHash: existing.Hash.String(),
					GivenHash:    hash.String(),
				})
			}
			return nil
		}
		return tx.Put(ctx, domain.NewHardcodedCheckpoint(height, hash))
	}); err != nil {
		if errors.CHECKPOINT_CONFLICT.Is(err) {
			return err
		}
		m.metrics.addStoreFailure(ctx, "add_checkpoint")
		log.WithError(err).Errorf("failed to add checkpoint at height %d", height)
		return errors.STORE_FAILURE.Wrap(err).WithMetadata(errors.StoreFailureMetadata{
			Operation: "add_checkpoint",
			Height:    height,
		})
	}
	return nil
}

// UpdateCheckpoint unconditionally stores the given checkpoint.
func (m *CheckpointManager) UpdateCheckpoint(
	ctx context.Context, checkpoint domain.Checkpoint,
) error {
	if err := m.repo.WriteTx(ctx, func(tx domain.CheckpointTx) error {
		return tx.Put(ctx, checkpoint)
	}); err != nil {
		m.metrics.addStoreFailure(ctx, "update_checkpoint")
		log.WithError(err).Errorf(
			"failed to update checkpoint at height %d", checkpoint.Height,
		)
		return errors.STORE_FAILURE.Wrap(err).WithMetadata(errors.StoreFailureMetadata{
			Operation: "update_checkpoint",
			Height:    checkpoint.Height,
		})
	}
	return nil
}

// BlockAdded prunes the checkpoints that fell out of the retention window
// and stores the service node checkpoint of the block, if any.
func (m *CheckpointManager) BlockAdded(
	ctx context.Context, block domain.Block, checkpoint *domain.Checkpoint,
) error {
	if block.Height < m.params.MinCullHeight ||
		block.MajorVersion < m.params.CheckpointingVersion {
		return nil
	}

	interval := m.params.CheckpointInterval
	var cursor uint64
	var culled int
	if err := m.repo.WriteTx(ctx, func(tx domain.CheckpointTx) error {
		culled = 0

		var endCullHeight uint64
		immutable, err := tx.ImmutableAtOrBefore(ctx, block.Height+1)
		if err != nil {
			return err
		}
		if immutable != nil {
			endCullHeight = immutable.Height
		}

		var startCullHeight uint64
		if endCullHeight > m.params.RetentionWindow {
			startCullHeight = endCullHeight - m.params.RetentionWindow
		}
		if rem := startCullHeight % interval; rem > 0 {
			startCullHeight += interval - rem
		}

		cursor = max(m.lastCullHeight, startCullHeight)
		for ; cursor < endCullHeight; cursor += interval {
			if cursor%m.params.PersistentInterval == 0 {
				continue
			}
			if err := tx.Remove(ctx, cursor); err != nil {
				log.WithError(err).Warnf("failed to cull checkpoint at height %d", cursor)
				continue
			}
			culled++
		}

		if checkpoint != nil {
			return tx.Put(ctx, *checkpoint)
		}
		return nil
	}); err != nil {
		m.metrics.addStoreFailure(ctx, "block_added")
		log.WithError(err).Errorf("failed to process checkpoints for block %d", block.Height)
		return errors.STORE_FAILURE.Wrap(err).WithMetadata(errors.StoreFailureMetadata{
			Operation: "block_added",
			Height:    block.Height,
		})
	}

	m.lastCullHeight = cursor
	m.metrics.addCulled(ctx, culled)
	return nil
}

// BlockchainDetached drops every checkpoint at or above the given height
// after the chain rolled back to it.
func (m *CheckpointManager) BlockchainDetached(ctx context.Context, height uint64) {
	m.lastCullHeight = min(m.lastCullHeight, height)

	interval := m.params.CheckpointInterval
	var removed int
	if err := m.repo.WriteTx(ctx, func(tx domain.CheckpointTx) error {
		removed = 0

		checkpoints, err := tx.Range(ctx, max(height, interval), ^uint64(0), 0)
		if err != nil {
			return err
		}
		for i := len(checkpoints) - 1; i >= 0; i-- {
			cpHeight := checkpoints[i].Height
			if err := tx.Remove(ctx, cpHeight); err != nil {
				log.WithError(err).Warnf(
					"failed to remove checkpoint at height %d on detach", cpHeight,
				)
				continue
			}
			removed++
		}
		return nil
	}); err != nil {
		m.metrics.addStoreFailure(ctx, "blockchain_detached")
		log.WithError(err).Errorf("failed to remove checkpoints above height %d", height)
		return
	}

	m.metrics.addDetached(ctx, removed)
}

// IsInCheckpointZone returns whether height is at or below the top checkpoint.
func (m *CheckpointManager) IsInCheckpointZone(ctx context.Context, height uint64) bool {
	return height <= m.GetMaxHeight(ctx)
}

// CheckBlock verifies the hash of a block against the checkpoint at its
// height. Blocks without a checkpoint always pass.
func (m *CheckpointManager) CheckBlock(
	ctx context.Context, height uint64, hash domain.Hash,
) (passed, isCheckpoint, isServiceNode bool) {
	checkpoint, ok := m.GetCheckpoint(ctx, height)
	if !ok {
		return true, false, false
	}

	passed = checkpoint.Check(hash)
	isServiceNode = checkpoint.IsServiceNode()
	m.metrics.addCheck(ctx, passed, isServiceNode)
	return passed, true, isServiceNode
}

// ValidateBlock is CheckBlock returning a typed error on mismatch.
func (m *CheckpointManager) ValidateBlock(
	ctx context.Context, height uint64, hash domain.Hash,
) error {
	passed, _, _ := m.CheckBlock(ctx, height, hash)
	if passed {
		return nil
	}

	var expected string
	if checkpoint, ok := m.GetCheckpoint(ctx, height); ok {
		expected = checkpoint.Hash.String()
	}
	return errors.CHECKPOINT_MISMATCH.New(
		"block hash doesn't match checkpoint at height %d", height,
	).WithMetadata(errors.CheckpointMismatchMetadata{
		Height:       height,
		ExpectedHash: expected,
		GotHash:      hash.String(),
	})
}

// IsAlternativeBlockAllowed returns whether a branch forking at
// candidateHeight may replace the chain currently at blockchainHeight.
// A branch can never fork at or below the immutable height.
func (m *CheckpointManager) IsAlternativeBlockAllowed(
	ctx context.Context, blockchainHeight, candidateHeight uint64,
) (allowed, isServiceNode bool) {
	if candidateHeight == 0 {
		return false, false
	}

	var hasCheckpoints bool
	var immutable *domain.Checkpoint
	if err := m.repo.ReadTx(ctx, func(tx domain.CheckpointTx) error {
		first, err := tx.Range(ctx, 0, blockchainHeight, 1)
		if err != nil {
			return err
		}
		if len(first) <= 0 {
			return nil
		}
		hasCheckpoints = true

		immutable, err = tx.ImmutableAtOrBefore(ctx, blockchainHeight)
		return err
	}); err != nil {
		// Fall back to the cached immutable height, never below it.
		m.metrics.addStoreFailure(ctx, "is_alternative_block_allowed")
		log.WithError(err).Warn("failed to get immutable checkpoint")
		return candidateHeight > m.immutableHeight, false
	}

	if !hasCheckpoints {
		return true, false
	}

	if immutable != nil {
		isServiceNode = immutable.IsServiceNode()
		if immutable.Height > m.immutableHeight {
			m.immutableHeight = immutable.Height
			m.metrics.setImmutableHeight(ctx, m.immutableHeight)
		}
	}

	return candidateHeight > m.immutableHeight, isServiceNode
}

// GetMaxHeight returns the height of the top checkpoint, 0 if there's none.
func (m *CheckpointManager) GetMaxHeight(ctx context.Context) uint64 {
	var top *domain.Checkpoint
	if err := m.repo.ReadTx(ctx, func(tx domain.CheckpointTx) error {
		var err error
		top, err = tx.Top(ctx)
		return err
	}); err != nil {
		m.metrics.addStoreFailure(ctx, "get_max_height")
		log.WithError(err).Warn("failed to get top checkpoint")
		return 0
	}
	if top == nil {
		return 0
	}
	return top.Height
}

func (m *CheckpointManager) ImmutableHeight() uint64 {
	return m.immutableHeight
}

func (m *CheckpointManager) LastCullHeight() uint64 {
	return m.lastCullHeight
}

// ListCheckpoints returns the checkpoints with lo <= height <= hi in
// ascending height order.
func (m *CheckpointManager) ListCheckpoints(
	ctx context.Context, lo, hi uint64,
) ([]domain.Checkpoint, error) {
	var checkpoints []domain.Checkpoint
	if err := m.repo.ReadTx(ctx, func(tx domain.CheckpointTx) error {
		var err error
		checkpoints, err = tx.Range(ctx, lo, hi, 0)
		return err
	}); err != nil {
		m.metrics.addStoreFailure(ctx, "list_checkpoints")
		return nil, errors.STORE_FAILURE.Wrap(err).WithMetadata(errors.StoreFailureMetadata{
			Operation: "list_checkpoints",
			Height:    lo,
		})
	}
	return checkpoints, nil
}
