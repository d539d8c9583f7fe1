package application

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/arkade-os/checkpointd/internal/core/domain"
	log "github.com/sirupsen/logrus"
)

// LoadCheckpointsFromJSON reads a {"hashlines": [...]} file. A missing file
// is not an error and yields no checkpoints.
func LoadCheckpointsFromJSON(path string) ([]domain.HeightToHash, error) {
	buf, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			log.Debugf("checkpoints file %s not found", path)
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read checkpoints file: %w", err)
	}

	var lines domain.HashLines
	if err := json.Unmarshal(buf, &lines); err != nil {
		return nil, fmt.Errorf("failed to parse checkpoints file %s: %w", path, err)
	}
	return lines.Lines, nil
}

// ImportCheckpoints adds every checkpoint of the given json file, stopping
// at the first invalid or conflicting one. It returns the number of lines read.
func (m *CheckpointManager) ImportCheckpoints(ctx context.Context, path string) (int, error) {
	lines, err := LoadCheckpointsFromJSON(path)
	if err != nil {
		return 0, err
	}

	for _, line := range lines {
		if err := m.AddCheckpoint(ctx, line.Height, line.Hash); err != nil {
			return 0, err
		}
	}

	log.Infof("imported %d checkpoints from %s", len(lines), path)
	return len(lines), nil
}
