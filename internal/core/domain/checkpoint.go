package domain

import (
	"errors"
	"fmt"

	log "github.com/sirupsen/logrus"
)

var (
	ErrInvalidHash = errors.New("invalid hash")
	ErrReadOnly    = errors.New("checkpoint store is read-only")
)

type CheckpointType uint8

const (
	// CheckpointTypeHardcoded is a trust anchor compiled into the binary.
	CheckpointTypeHardcoded CheckpointType = iota
	// CheckpointTypeServiceNode is produced at runtime by a service node quorum.
	CheckpointTypeServiceNode
)

func (t CheckpointType) String() string {
	switch t {
	case CheckpointTypeHardcoded:
		return "hardcoded"
	case CheckpointTypeServiceNode:
		return "service_node"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(t))
	}
}

func ParseCheckpointType(s string) (CheckpointType, error) {
	switch s {
	case "hardcoded":
		return CheckpointTypeHardcoded, nil
	case "service_node":
		return CheckpointTypeServiceNode, nil
	default:
		return 0, fmt.Errorf("unknown checkpoint type %q", s)
	}
}

// Checkpoint binds a block height to the hash every node must agree on.
type Checkpoint struct {
	Height uint64
	Hash   Hash
	Type   CheckpointType
}

func NewHardcodedCheckpoint(height uint64, hash Hash) Checkpoint {
	return Checkpoint{Height: height, Hash: hash, Type: CheckpointTypeHardcoded}
}

func NewServiceNodeCheckpoint(height uint64, hash Hash) Checkpoint {
	return Checkpoint{Height: height, Hash: hash, Type: CheckpointTypeServiceNode}
}

func (c Checkpoint) IsServiceNode() bool {
	return c.Type == CheckpointTypeServiceNode
}

// Check returns whether the given block hash matches the checkpointed one.
func (c Checkpoint) Check(hash Hash) bool {
	if c.Hash != hash {
		log.Warnf(
			"checkpoint failed for height %d, expected hash %s, given hash %s",
			c.Height, c.Hash, hash,
		)
		return false
	}
	log.Infof("checkpoint passed for height %d %s", c.Height, hash)
	return true
}

// Block is the subset of a chain block the checkpoint manager reacts to.
type Block struct {
	Height       uint64
	MajorVersion uint8
	Hash         Hash
	Txs          []Hash
}
