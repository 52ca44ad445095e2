package persist

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// SlotRepo stores save slots in the save_slots table.
type SlotRepo struct {
	db *DB
}

func NewSlotRepo(db *DB) *SlotRepo {
	return &SlotRepo{db: db}
}

func (r *SlotRepo) Save(ctx context.Context, slot string, data []byte) error {
	key, err := NormalizeSlot(slot)
	if err != nil {
		return err
	}
	_, err = r.db.Pool.Exec(ctx,
		`INSERT INTO save_slots (slot, version, data, checksum, size_bytes)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (slot) DO UPDATE SET
		     version = EXCLUDED.version,
		     data = EXCLUDED.data,
		     checksum = EXCLUDED.checksum,
		     size_bytes = EXCLUDED.size_bytes,
		     updated_at = NOW()`,
		key, StreamVersion(data), data, Checksum(data), len(data),
	)
	if err != nil {
		return fmt.Errorf("save slot %s: %w", key, err)
	}
	return nil
}

func (r *SlotRepo) Load(ctx context.Context, slot string) ([]byte, error) {
	key, err := NormalizeSlot(slot)
	if err != nil {
		return nil, err
	}
	var data, checksum []byte
	err = r.db.Pool.QueryRow(ctx,
		`SELECT data, checksum FROM save_slots WHERE slot = $1`, key,
	).Scan(&data, &checksum)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrSlotNotFound, key)
	}
	if err != nil {
		return nil, fmt.Errorf("load slot %s: %w", key, err)
	}
	if _, err := Open(append(data, checksum...)); err != nil {
		return nil, fmt.Errorf("load slot %s: %w", key, err)
	}
	return data, nil
}

func (r *SlotRepo) List(ctx context.Context) ([]SlotInfo, error) {
	rows, err := r.db.Pool.Query(ctx,
		`SELECT slot, version, size_bytes, updated_at FROM save_slots ORDER BY updated_at DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("list slots: %w", err)
	}
	defer rows.Close()

	var out []SlotInfo
	for rows.Next() {
		var si SlotInfo
		if err := rows.Scan(&si.Slot, &si.Version, &si.Size, &si.UpdatedAt); err != nil {
			return nil, fmt.Errorf("list slots: %w", err)
		}
		out = append(out, si)
	}
	return out, rows.Err()
}

func (r *SlotRepo) Delete(ctx context.Context, slot string) error {
	key, err := NormalizeSlot(slot)
	if err != nil {
		return err
	}
	tag, err := r.db.Pool.Exec(ctx, `DELETE FROM save_slots WHERE slot = $1`, key)
	if err != nil {
		return fmt.Errorf("delete slot %s: %w", key, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s", ErrSlotNotFound, key)
	}
	return nil
}
