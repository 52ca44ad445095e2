// Package persist stores encoded save streams in named slots, either as
// files or in PostgreSQL.
package persist

import (
	"context"
	"encoding/binary"
	"errors"
	"time"
)

var (
	ErrSlotNotFound = errors.New("save slot not found")
	ErrInvalidSlot  = errors.New("invalid save slot name")
)

// SlotInfo describes a stored save without loading it.
type SlotInfo struct {
	Slot      string
	Version   int32
	Size      int
	UpdatedAt time.Time
}

// Storage moves encoded save streams in and out of named slots. Slot names
// are normalised with NormalizeSlot by every implementation.
type Storage interface {
	Save(ctx context.Context, slot string, data []byte) error
	Load(ctx context.Context, slot string) ([]byte, error)
	List(ctx context.Context) ([]SlotInfo, error)
	Delete(ctx context.Context, slot string) error
}

// StreamVersion peeks at the format version in a save stream's header.
// Legacy streams report zero or less.
func StreamVersion(data []byte) int32 {
	if len(data) < 4 {
		return 0
	}
	return -int32(binary.LittleEndian.Uint32(data))
}
