package application

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/arkade-os/checkpointd/internal/core/domain"
	inmemorydb "github.com/arkade-os/checkpointd/internal/infrastructure/db/inmemory"
	"github.com/arkade-os/checkpointd/pkg/errors"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const (
	hash100000 = "60994e731f25a6b72fe51afff5154d341ce80eabc16b4bb629bbd49dc19a04b8"
	hash300000 = "e43d66327833259a18f6a1003262d09566e97a75368476294b7ac5a9a88a47f2"
	randomHash = "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"
)

// Mock implementations for store failures

type mockCheckpointRepository struct {
	mock.Mock
}

func (m *mockCheckpointRepository) ReadTx(
	ctx context.Context, fn func(domain.CheckpointTx) error,
) error {
	args := m.Called(ctx, fn)
	return args.Error(0)
}

func (m *mockCheckpointRepository) WriteTx(
	ctx context.Context, fn func(domain.CheckpointTx) error,
) error {
	args := m.Called(ctx, fn)
	return args.Error(0)
}

func (m *mockCheckpointRepository) IsReadOnly() bool {
	args := m.Called()
	return args.Bool(0)
}

func (m *mockCheckpointRepository) Close() {}

// faultyRepository wraps a working store and fails selected tx operations.
type faultyRepository struct {
	domain.CheckpointRepository
	failGet      bool
	failRemoveAt map[uint64]bool
}

func (r *faultyRepository) ReadTx(
	ctx context.Context, fn func(domain.CheckpointTx) error,
) error {
	return r.CheckpointRepository.ReadTx(ctx, func(tx domain.CheckpointTx) error {
		return fn(&faultyTx{tx, r})
	})
}

func (r *faultyRepository) WriteTx(
	ctx context.Context, fn func(domain.CheckpointTx) error,
) error {
	return r.CheckpointRepository.WriteTx(ctx, func(tx domain.CheckpointTx) error {
		return fn(&faultyTx{tx, r})
	})
}

type faultyTx struct {
	domain.CheckpointTx
	repo *faultyRepository
}

func (t *faultyTx) Get(ctx context.Context, height uint64) (*domain.Checkpoint, error) {
	if t.repo.failGet {
		return nil, fmt.Errorf("io error")
	}
	return t.CheckpointTx.Get(ctx, height)
}

func (t *faultyTx) Remove(ctx context.Context, height uint64) error {
	if t.repo.failRemoveAt[height] {
		return fmt.Errorf("io error")
	}
	return t.CheckpointTx.Remove(ctx, height)
}

func TestParamsValidate(t *testing.T) {
	require.NoError(t, DefaultParams().Validate())

	fixtures := []struct {
		name   string
		params Params
	}{
		{"zero checkpoint interval", Params{CheckpointInterval: 0, PersistentInterval: 60}},
		{"zero persistent interval", Params{CheckpointInterval: 4, PersistentInterval: 0}},
		{"not a multiple", Params{CheckpointInterval: 7, PersistentInterval: 60}},
	}
	for _, f := range fixtures {
		t.Run(f.name, func(t *testing.T) {
			err := f.params.Validate()
			require.Error(t, err)
			require.True(t, errors.INVALID_PARAMS.Is(err))

			_, err = NewCheckpointManager(f.params)
			require.Error(t, err)
		})
	}
}

func TestInit(t *testing.T) {
	ctx := context.Background()

	t.Run("mainnet", func(t *testing.T) {
		mgr, _ := newTestManager(t, DefaultParams(), domain.NetworkMainnet)

		require.Equal(t, uint64(300000), mgr.GetMaxHeight(ctx))
		for _, line := range domain.HardcodedCheckpoints(domain.NetworkMainnet) {
			cp, ok := mgr.GetCheckpoint(ctx, line.Height)
			require.True(t, ok)
			require.Equal(t, line.Hash, cp.Hash.String())
			require.Equal(t, domain.CheckpointTypeHardcoded, cp.Type)
		}

		passed, isCheckpoint, isServiceNode := mgr.CheckBlock(ctx, 100000, mustHash(t, hash100000))
		require.True(t, passed)
		require.True(t, isCheckpoint)
		require.False(t, isServiceNode)

		// seeding again over the same store is idempotent
		require.NoError(t, mgr.Init(ctx, domain.NetworkMainnet, mgr.repo))
		require.Equal(t, uint64(300000), mgr.GetMaxHeight(ctx))
	})

	t.Run("other networks", func(t *testing.T) {
		for _, network := range []domain.Network{
			domain.NetworkTestnet, domain.NetworkStagenet, domain.NetworkFakechain,
		} {
			mgr, _ := newTestManager(t, DefaultParams(), network)
			require.Zero(t, mgr.GetMaxHeight(ctx))
			require.Equal(t, network, mgr.Network())
		}
	})

	t.Run("resets cursors", func(t *testing.T) {
		mgr, repo := newTestManager(t, DefaultParams(), domain.NetworkFakechain)
		addServiceNodeCheckpoint(t, mgr, 400)
		allowed, _ := mgr.IsAlternativeBlockAllowed(ctx, 1000, 400)
		require.False(t, allowed)
		require.Equal(t, uint64(400), mgr.ImmutableHeight())

		require.NoError(t, mgr.Init(ctx, domain.NetworkFakechain, repo))
		require.Zero(t, mgr.ImmutableHeight())
		require.Zero(t, mgr.LastCullHeight())
	})

	t.Run("read-only store", func(t *testing.T) {
		repo, err := inmemorydb.NewCheckpointRepository(domain.RepoOptions{ReadOnly: true})
		require.NoError(t, err)

		mgr, err := NewCheckpointManager(DefaultParams())
		require.NoError(t, err)
		require.NoError(t, mgr.Init(ctx, domain.NetworkMainnet, repo))
		require.Zero(t, mgr.GetMaxHeight(ctx))
	})

	t.Run("conflicting store", func(t *testing.T) {
		repo, err := inmemorydb.NewCheckpointRepository()
		require.NoError(t, err)
		err = repo.WriteTx(ctx, func(tx domain.CheckpointTx) error {
			return tx.Put(ctx, domain.NewServiceNodeCheckpoint(1000, mustHash(t, randomHash)))
		})
		require.NoError(t, err)

		mgr, err := NewCheckpointManager(DefaultParams())
		require.NoError(t, err)
		err = mgr.Init(ctx, domain.NetworkMainnet, repo)
		require.Error(t, err)
		require.True(t, errors.CHECKPOINT_CONFLICT.Is(err))
	})
}

func TestAddCheckpoint(t *testing.T) {
	ctx := context.Background()
	mgr, _ := newTestManager(t, DefaultParams(), domain.NetworkTestnet)

	t.Run("invalid hash", func(t *testing.T) {
		for _, hash := range []string{"", "abc", hash100000[:63] + "z", hash100000 + "0"} {
			err := mgr.AddCheckpoint(ctx, 10, hash)
			require.Error(t, err)
			require.True(t, errors.INVALID_HASH.Is(err))
			require.ErrorIs(t, err, domain.ErrInvalidHash)
		}
		_, ok := mgr.GetCheckpoint(ctx, 10)
		require.False(t, ok)
	})

	t.Run("valid", func(t *testing.T) {
		require.NoError(t, mgr.AddCheckpoint(ctx, 10, hash100000))
		cp, ok := mgr.GetCheckpoint(ctx, 10)
		require.True(t, ok)
		require.Equal(t, hash100000, cp.Hash.String())
		require.Equal(t, domain.CheckpointTypeHardcoded, cp.Type)

		// same checkpoint again
		require.NoError(t, mgr.AddCheckpoint(ctx, 10, hash100000))
	})

	t.Run("conflict", func(t *testing.T) {
		err := mgr.AddCheckpoint(ctx, 10, hash300000)
		require.Error(t, err)
		require.True(t, errors.CHECKPOINT_CONFLICT.Is(err))

		cp, ok := mgr.GetCheckpoint(ctx, 10)
		require.True(t, ok)
		require.Equal(t, hash100000, cp.Hash.String())
	})

	t.Run("store failure keeps binding", func(t *testing.T) {
		faulty := &faultyRepository{CheckpointRepository: mgr.repo, failGet: true}
		faultyMgr := newFaultyManager(t, faulty)

		err := faultyMgr.AddCheckpoint(ctx, 10, hash300000)
		require.Error(t, err)
		require.True(t, errors.STORE_FAILURE.Is(err))

		cp, ok := mgr.GetCheckpoint(ctx, 10)
		require.True(t, ok)
		require.Equal(t, hash100000, cp.Hash.String())
	})

	t.Run("update overrides", func(t *testing.T) {
		err := mgr.UpdateCheckpoint(
			ctx, domain.NewServiceNodeCheckpoint(10, mustHash(t, hash300000)),
		)
		require.NoError(t, err)

		cp, ok := mgr.GetCheckpoint(ctx, 10)
		require.True(t, ok)
		require.Equal(t, hash300000, cp.Hash.String())
		require.True(t, cp.IsServiceNode())
	})
}

func TestCheckBlock(t *testing.T) {
	ctx := context.Background()
	mgr, _ := newTestManager(t, DefaultParams(), domain.NetworkFakechain)
	addServiceNodeCheckpoint(t, mgr, 8)

	passed, isCheckpoint, isServiceNode := mgr.CheckBlock(ctx, 9, mustHash(t, randomHash))
	require.True(t, passed)
	require.False(t, isCheckpoint)
	require.False(t, isServiceNode)
	require.NoError(t, mgr.ValidateBlock(ctx, 9, mustHash(t, randomHash)))

	passed, isCheckpoint, isServiceNode = mgr.CheckBlock(ctx, 8, mustHash(t, hash100000))
	require.True(t, passed)
	require.True(t, isCheckpoint)
	require.True(t, isServiceNode)

	passed, isCheckpoint, isServiceNode = mgr.CheckBlock(ctx, 8, mustHash(t, randomHash))
	require.False(t, passed)
	require.True(t, isCheckpoint)
	require.True(t, isServiceNode)

	err := mgr.ValidateBlock(ctx, 8, mustHash(t, randomHash))
	require.Error(t, err)
	require.True(t, errors.CHECKPOINT_MISMATCH.Is(err))
	var typed errors.Error
	require.ErrorAs(t, err, &typed)
	require.Equal(t, hash100000, typed.Metadata()["expected_hash"])
	require.Equal(t, randomHash, typed.Metadata()["got_hash"])
}

func TestIsAlternativeBlockAllowed(t *testing.T) {
	ctx := context.Background()

	t.Run("fork choice", func(t *testing.T) {
		mgr, _ := newTestManager(t, DefaultParams(), domain.NetworkFakechain)

		allowed, isServiceNode := mgr.IsAlternativeBlockAllowed(ctx, 1000, 500)
		require.True(t, allowed)
		require.False(t, isServiceNode)

		allowed, _ = mgr.IsAlternativeBlockAllowed(ctx, 1000, 0)
		require.False(t, allowed)

		addServiceNodeCheckpoint(t, mgr, 400)

		allowed, isServiceNode = mgr.IsAlternativeBlockAllowed(ctx, 1000, 400)
		require.False(t, allowed)
		require.True(t, isServiceNode)

		allowed, _ = mgr.IsAlternativeBlockAllowed(ctx, 1000, 401)
		require.True(t, allowed)

		// all checkpoints are above the chain height
		allowed, _ = mgr.IsAlternativeBlockAllowed(ctx, 399, 10)
		require.True(t, allowed)
	})

	t.Run("immutable height never decreases", func(t *testing.T) {
		mgr, _ := newTestManager(t, DefaultParams(), domain.NetworkFakechain)
		addServiceNodeCheckpoint(t, mgr, 100)
		addServiceNodeCheckpoint(t, mgr, 400)

		allowed, _ := mgr.IsAlternativeBlockAllowed(ctx, 1000, 300)
		require.False(t, allowed)
		require.Equal(t, uint64(400), mgr.ImmutableHeight())

		// a lower chain height resolves an older immutable checkpoint
		allowed, _ = mgr.IsAlternativeBlockAllowed(ctx, 200, 300)
		require.False(t, allowed)
		require.Equal(t, uint64(400), mgr.ImmutableHeight())

		allowed, _ = mgr.IsAlternativeBlockAllowed(ctx, 200, 401)
		require.True(t, allowed)
	})

	t.Run("deeper finality", func(t *testing.T) {
		repo, err := inmemorydb.NewCheckpointRepository(domain.RepoOptions{
			Finality: domain.FinalityRule{ServiceNodeDepth: 2},
		})
		require.NoError(t, err)
		mgr, err := NewCheckpointManager(DefaultParams())
		require.NoError(t, err)
		require.NoError(t, mgr.Init(ctx, domain.NetworkFakechain, repo))

		addServiceNodeCheckpoint(t, mgr, 400)
		// a single service node checkpoint is not final yet
		allowed, _ := mgr.IsAlternativeBlockAllowed(ctx, 1000, 400)
		require.True(t, allowed)

		addServiceNodeCheckpoint(t, mgr, 404)
		allowed, _ = mgr.IsAlternativeBlockAllowed(ctx, 1000, 400)
		require.False(t, allowed)
		allowed, _ = mgr.IsAlternativeBlockAllowed(ctx, 1000, 401)
		require.True(t, allowed)
	})
}

func TestBlockAdded(t *testing.T) {
	ctx := context.Background()

	t.Run("culls outside of persistent heights", func(t *testing.T) {
		params := Params{
			CheckpointInterval:   5000,
			PersistentInterval:   10000,
			RetentionWindow:      10000,
			MinCullHeight:        10000,
			CheckpointingVersion: DefaultCheckpointingVersion,
		}
		mgr, _ := newTestManager(t, params, domain.NetworkFakechain)
		for _, height := range []uint64{0, 5000, 10000} {
			addServiceNodeCheckpoint(t, mgr, height)
		}

		err := mgr.BlockAdded(ctx, domain.Block{
			Height:       10000,
			MajorVersion: DefaultCheckpointingVersion,
		}, nil)
		require.NoError(t, err)

		require.Equal(t, []uint64{0, 10000}, storedHeights(t, mgr))
	})

	t.Run("below threshold or version", func(t *testing.T) {
		mgr, _ := newTestManager(t, DefaultParams(), domain.NetworkFakechain)
		for height := uint64(0); height <= 120; height += 4 {
			addServiceNodeCheckpoint(t, mgr, height)
		}
		before := storedHeights(t, mgr)
		cp := domain.NewServiceNodeCheckpoint(124, mustHash(t, randomHash))

		err := mgr.BlockAdded(ctx, domain.Block{
			Height: 59, MajorVersion: DefaultCheckpointingVersion,
		}, &cp)
		require.NoError(t, err)
		err = mgr.BlockAdded(ctx, domain.Block{Height: 124, MajorVersion: 11}, &cp)
		require.NoError(t, err)

		require.Equal(t, before, storedHeights(t, mgr))
		require.Zero(t, mgr.LastCullHeight())
	})

	t.Run("default params", func(t *testing.T) {
		mgr, _ := newTestManager(t, DefaultParams(), domain.NetworkFakechain)
		for height := uint64(0); height <= 200; height += 4 {
			addServiceNodeCheckpoint(t, mgr, height)
		}

		err := mgr.BlockAdded(ctx, domain.Block{
			Height: 200, MajorVersion: DefaultCheckpointingVersion,
		}, nil)
		require.NoError(t, err)

		heights := storedHeights(t, mgr)
		// [140, 200) is culled except for the persistent height 180
		for height := uint64(140); height < 200; height += 4 {
			if height == 180 {
				require.Contains(t, heights, height)
				continue
			}
			require.NotContains(t, heights, height)
		}
		require.Contains(t, heights, uint64(136))
		require.Contains(t, heights, uint64(200))
		require.Equal(t, uint64(200), mgr.LastCullHeight())

		cp := domain.NewServiceNodeCheckpoint(204, mustHash(t, randomHash))
		err = mgr.BlockAdded(ctx, domain.Block{
			Height: 204, MajorVersion: DefaultCheckpointingVersion,
		}, &cp)
		require.NoError(t, err)

		heights = storedHeights(t, mgr)
		// the checkpoint of the new block is stored after culling
		require.Contains(t, heights, uint64(204))
		require.Contains(t, heights, uint64(200))
		require.Equal(t, uint64(200), mgr.LastCullHeight())

		err = mgr.BlockAdded(ctx, domain.Block{
			Height: 208, MajorVersion: DefaultCheckpointingVersion,
		}, nil)
		require.NoError(t, err)

		heights = storedHeights(t, mgr)
		require.Contains(t, heights, uint64(204))
		require.NotContains(t, heights, uint64(200))
		require.Equal(t, uint64(204), mgr.LastCullHeight())

		// persistent heights are never culled
		for _, height := range []uint64{0, 60, 120, 180} {
			require.Contains(t, heights, height)
		}
	})

	t.Run("failed removal is skipped", func(t *testing.T) {
		repo, err := inmemorydb.NewCheckpointRepository()
		require.NoError(t, err)
		faulty := &faultyRepository{
			CheckpointRepository: repo,
			failRemoveAt:         map[uint64]bool{148: true},
		}
		mgr := newFaultyManager(t, faulty)
		for height := uint64(0); height <= 200; height += 4 {
			addServiceNodeCheckpoint(t, mgr, height)
		}

		cp := domain.NewServiceNodeCheckpoint(204, mustHash(t, randomHash))
		err = mgr.BlockAdded(ctx, domain.Block{
			Height: 204, MajorVersion: DefaultCheckpointingVersion,
		}, &cp)
		require.NoError(t, err)

		heights := storedHeights(t, mgr)
		for height := uint64(140); height < 200; height += 4 {
			if height == 148 || height == 180 {
				require.Contains(t, heights, height)
				continue
			}
			require.NotContains(t, heights, height)
		}
		require.Contains(t, heights, uint64(200))
		require.Contains(t, heights, uint64(204))
		require.Equal(t, uint64(200), mgr.LastCullHeight())
	})

	t.Run("store failure", func(t *testing.T) {
		repo := &mockCheckpointRepository{}
		repo.On("IsReadOnly").Return(false)
		repo.On("WriteTx", mock.Anything, mock.Anything).Return(fmt.Errorf("disk full"))

		mgr, err := NewCheckpointManager(DefaultParams())
		require.NoError(t, err)
		require.NoError(t, mgr.Init(ctx, domain.NetworkFakechain, repo))

		err = mgr.BlockAdded(ctx, domain.Block{
			Height: 200, MajorVersion: DefaultCheckpointingVersion,
		}, nil)
		require.Error(t, err)
		require.True(t, errors.STORE_FAILURE.Is(err))
		require.Zero(t, mgr.LastCullHeight())
		repo.AssertExpectations(t)
	})
}

func TestBlockchainDetached(t *testing.T) {
	ctx := context.Background()
	mgr, _ := newTestManager(t, DefaultParams(), domain.NetworkFakechain)
	for height := uint64(0); height <= 200; height += 4 {
		addServiceNodeCheckpoint(t, mgr, height)
	}
	// an off-interval checkpoint must be removed too
	addServiceNodeCheckpoint(t, mgr, 202)

	err := mgr.BlockAdded(ctx, domain.Block{
		Height: 200, MajorVersion: DefaultCheckpointingVersion,
	}, nil)
	require.NoError(t, err)
	require.Equal(t, uint64(200), mgr.LastCullHeight())

	mgr.BlockchainDetached(ctx, 101)
	require.Equal(t, uint64(101), mgr.LastCullHeight())
	require.Equal(t, uint64(100), mgr.GetMaxHeight(ctx))
	for _, height := range storedHeights(t, mgr) {
		require.Less(t, height, uint64(101))
	}

	// the genesis checkpoint survives a full rollback
	mgr.BlockchainDetached(ctx, 0)
	require.Equal(t, []uint64{0}, storedHeights(t, mgr))
	require.Zero(t, mgr.LastCullHeight())
	require.True(t, mgr.IsInCheckpointZone(ctx, 0))
	require.False(t, mgr.IsInCheckpointZone(ctx, 1))
}

func TestBlockchainDetachedFailedRemoval(t *testing.T) {
	ctx := context.Background()
	repo, err := inmemorydb.NewCheckpointRepository()
	require.NoError(t, err)
	faulty := &faultyRepository{
		CheckpointRepository: repo,
		failRemoveAt:         map[uint64]bool{160: true},
	}
	mgr := newFaultyManager(t, faulty)
	for height := uint64(0); height <= 200; height += 4 {
		addServiceNodeCheckpoint(t, mgr, height)
	}

	mgr.BlockchainDetached(ctx, 101)

	for _, height := range storedHeights(t, mgr) {
		if height == 160 {
			continue
		}
		require.Less(t, height, uint64(101))
	}
	require.Contains(t, storedHeights(t, mgr), uint64(160))
	require.Contains(t, storedHeights(t, mgr), uint64(100))
	require.Equal(t, uint64(160), mgr.GetMaxHeight(ctx))
}

func TestStoreFailures(t *testing.T) {
	ctx := context.Background()
	repo := &mockCheckpointRepository{}
	repo.On("IsReadOnly").Return(false)
	repo.On("ReadTx", mock.Anything, mock.Anything).Return(fmt.Errorf("io error"))
	repo.On("WriteTx", mock.Anything, mock.Anything).Return(fmt.Errorf("io error"))

	mgr, err := NewCheckpointManager(DefaultParams())
	require.NoError(t, err)
	require.NoError(t, mgr.Init(ctx, domain.NetworkFakechain, repo))

	_, ok := mgr.GetCheckpoint(ctx, 10)
	require.False(t, ok)
	require.Zero(t, mgr.GetMaxHeight(ctx))
	require.False(t, mgr.IsInCheckpointZone(ctx, 1))

	passed, isCheckpoint, _ := mgr.CheckBlock(ctx, 10, mustHash(t, randomHash))
	require.True(t, passed)
	require.False(t, isCheckpoint)

	err = mgr.UpdateCheckpoint(ctx, domain.NewServiceNodeCheckpoint(10, mustHash(t, randomHash)))
	require.Error(t, err)
	require.True(t, errors.STORE_FAILURE.Is(err))

	err = mgr.AddCheckpoint(ctx, 10, randomHash)
	require.True(t, errors.STORE_FAILURE.Is(err))

	_, err = mgr.ListCheckpoints(ctx, 0, 100)
	require.True(t, errors.STORE_FAILURE.Is(err))

	// no panic, cursor still pulled back
	mgr.lastCullHeight = 100
	mgr.BlockchainDetached(ctx, 50)
	require.Equal(t, uint64(50), mgr.LastCullHeight())

	mgr.immutableHeight = 400
	allowed, _ := mgr.IsAlternativeBlockAllowed(ctx, 1000, 400)
	require.False(t, allowed)
	allowed, _ = mgr.IsAlternativeBlockAllowed(ctx, 1000, 401)
	require.True(t, allowed)
}

func TestListCheckpoints(t *testing.T) {
	ctx := context.Background()
	mgr, _ := newTestManager(t, DefaultParams(), domain.NetworkFakechain)

	for _, height := range []uint64{12, 4, 8, 20} {
		addServiceNodeCheckpoint(t, mgr, height)
	}

	checkpoints, err := mgr.ListCheckpoints(ctx, 5, 20)
	require.NoError(t, err)
	require.Len(t, checkpoints, 3)
	require.Equal(t, uint64(8), checkpoints[0].Height)
	require.Equal(t, uint64(12), checkpoints[1].Height)
	require.Equal(t, uint64(20), checkpoints[2].Height)

	checkpoints, err = mgr.ListCheckpoints(ctx, 21, 100)
	require.NoError(t, err)
	require.Empty(t, checkpoints)

	require.Equal(t, uint64(20), mgr.GetMaxHeight(ctx))
	require.True(t, mgr.IsInCheckpointZone(ctx, 20))
	require.False(t, mgr.IsInCheckpointZone(ctx, 21))
}

func TestImportCheckpoints(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	t.Run("missing file", func(t *testing.T) {
		lines, err := LoadCheckpointsFromJSON(filepath.Join(dir, "missing.json"))
		require.NoError(t, err)
		require.Empty(t, lines)
	})

	t.Run("malformed file", func(t *testing.T) {
		path := filepath.Join(dir, "malformed.json")
		require.NoError(t, os.WriteFile(path, []byte(`{"hashlines": [`), 0o644))
		_, err := LoadCheckpointsFromJSON(path)
		require.Error(t, err)
	})

	t.Run("valid file", func(t *testing.T) {
		path := filepath.Join(dir, "checkpoints.json")
		content := fmt.Sprintf(
			`{"hashlines": [{"height": 10, "hash": %q}, {"height": 20, "hash": %q}]}`,
			hash100000, hash300000,
		)
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

		lines, err := LoadCheckpointsFromJSON(path)
		require.NoError(t, err)
		require.Equal(t, []domain.HeightToHash{
			{Height: 10, Hash: hash100000},
			{Height: 20, Hash: hash300000},
		}, lines)

		mgr, _ := newTestManager(t, DefaultParams(), domain.NetworkTestnet)
		count, err := mgr.ImportCheckpoints(ctx, path)
		require.NoError(t, err)
		require.Equal(t, 2, count)
		require.Equal(t, uint64(20), mgr.GetMaxHeight(ctx))
	})

	t.Run("invalid hash", func(t *testing.T) {
		path := filepath.Join(dir, "invalid.json")
		content := `{"hashlines": [{"height": 10, "hash": "abc"}]}`
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

		mgr, _ := newTestManager(t, DefaultParams(), domain.NetworkTestnet)
		_, err := mgr.ImportCheckpoints(ctx, path)
		require.True(t, errors.INVALID_HASH.Is(err))
		require.Zero(t, mgr.GetMaxHeight(ctx))
	})
}

func newTestManager(
	t *testing.T, params Params, network domain.Network,
) (*CheckpointManager, domain.CheckpointRepository) {
	repo, err := inmemorydb.NewCheckpointRepository()
	require.NoError(t, err)

	mgr, err := NewCheckpointManager(params)
	require.NoError(t, err)
	require.NoError(t, mgr.Init(context.Background(), network, repo))
	return mgr, repo
}

func newFaultyManager(t *testing.T, repo domain.CheckpointRepository) *CheckpointManager {
	mgr, err := NewCheckpointManager(DefaultParams())
	require.NoError(t, err)
	require.NoError(t, mgr.Init(context.Background(), domain.NetworkFakechain, repo))
	return mgr
}

func addServiceNodeCheckpoint(t *testing.T, mgr *CheckpointManager, height uint64) {
	cp := domain.NewServiceNodeCheckpoint(height, mustHash(t, hash100000))
	require.NoError(t, mgr.UpdateCheckpoint(context.Background(), cp))
}

func storedHeights(t *testing.T, mgr *CheckpointManager) []uint64 {
	ctx := context.Background()
	var heights []uint64
	err := mgr.repo.ReadTx(ctx, func(tx domain.CheckpointTx) error {
		cps, err := tx.Range(ctx, 0, ^uint64(0), 0)
		if err != nil {
			return err
		}
		for _, cp := range cps {
			heights = append(heights, cp.Height)
		}
		return nil
	})
	require.NoError(t, err)
	return heights
}

func mustHash(t *testing.T, s string) domain.Hash {
	h, err := domain.ParseHash(s)
	require.NoError(t, err)
	return h
}
