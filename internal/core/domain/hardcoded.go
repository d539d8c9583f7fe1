package domain

import (
	_ "embed"
	"encoding/json"
	"fmt"
)

// HeightToHash is the textual form of a checkpoint, as found in the compiled
// table and in checkpoint json files.
type HeightToHash struct {
	Height uint64 `json:"height"`
	Hash   string `json:"hash"`
}

type HashLines struct {
	Lines []HeightToHash `json:"hashlines"`
}

var (
	//go:embed checkpoints/mainnet.json
	mainnetCheckpointsJSON []byte

	mainnetCheckpoints []HeightToHash
)

func init() {
	var lines HashLines
	if err := json.Unmarshal(mainnetCheckpointsJSON, &lines); err != nil {
		panic(fmt.Sprintf("failed to decode mainnet checkpoints: %v", err))
	}
	if err := ValidateHashLines(lines.Lines); err != nil {
		panic(fmt.Sprintf("invalid mainnet checkpoints: %v", err))
	}
	mainnetCheckpoints = lines.Lines
}

// ValidateHashLines makes sure heights are strictly ascending and hashes well formed.
func ValidateHashLines(lines []HeightToHash) error {
	for i, line := range lines {
		if _, err := ParseHash(line.Hash); err != nil {
			return fmt.Errorf("checkpoint at height %d: %w", line.Height, err)
		}
		if i > 0 && line.Height <= lines[i-1].Height {
			return fmt.Errorf(
				"checkpoint heights must be ascending, got %d after %d",
				line.Height, lines[i-1].Height,
			)
		}
	}
	return nil
}

// HardcodedCheckpoints returns the trust anchors compiled in for the given network.
func HardcodedCheckpoints(network Network) []HeightToHash {
	if network != NetworkMainnet {
		return nil
	}
	lines := make([]HeightToHash, len(mainnetCheckpoints))
	copy(lines, mainnetCheckpoints)
	return lines
}

// NewestHardcodedCheckpoint returns the highest compiled in checkpoint, or the
// null hash at height 0 for networks that don't have any.
func NewestHardcodedCheckpoint(network Network) (Hash, uint64) {
	lines := HardcodedCheckpoints(network)
	if len(lines) <= 0 {
		return NullHash, 0
	}
	newest := lines[len(lines)-1]
	// nolint:all
	hash, _ := ParseHash(newest.Hash)
	return hash, newest.Height
}
