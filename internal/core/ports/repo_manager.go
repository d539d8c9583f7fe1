package ports

import "github.com/arkade-os/checkpointd/internal/core/domain"

type RepoManager interface {
	Checkpoints() domain.CheckpointRepository
	Close()
}
