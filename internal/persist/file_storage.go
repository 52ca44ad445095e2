package persist

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"go.uber.org/zap"
)

const saveExt = ".save"

// FileStorage keeps one sealed file per slot in a directory. Writes go to a
// temporary file that is renamed over the slot, so a crash never leaves a
// half-written save behind.
type FileStorage struct {
	dir string
	log *zap.Logger
}

func NewFileStorage(dir string, log *zap.Logger) (*FileStorage, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create save dir: %w", err)
	}
	return &FileStorage{dir: dir, log: log}, nil
}

func (s *FileStorage) path(slot string) (string, string, error) {
	key, err := NormalizeSlot(slot)
	if err != nil {
		return "", "", err
	}
	return key, filepath.Join(s.dir, key+saveExt), nil
}

func (s *FileStorage) Save(ctx context.Context, slot string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	key, path, err := s.path(slot)
	if err != nil {
		return err
	}
	tmp, err := os.CreateTemp(s.dir, key+".*.tmp")
	if err != nil {
		return fmt.Errorf("save %s: %w", key, err)
	}
	defer os.Remove(tmp.Name()) // no-op after a successful rename

	if _, err := tmp.Write(Seal(data)); err != nil {
		tmp.Close()
		return fmt.Errorf("save %s: %w", key, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("save %s: %w", key, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("save %s: %w", key, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("save %s: %w", key, err)
	}
	s.log.Debug("save written",
		zap.String("slot", key),
		zap.Int32("version", StreamVersion(data)),
		zap.Int("bytes", len(data)),
	)
	return nil
}

func (s *FileStorage) Load(ctx context.Context, slot string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	key, path, err := s.path(slot)
	if err != nil {
		return nil, err
	}
	raw, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrSlotNotFound, key)
	}
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", key, err)
	}
	data, err := Open(raw)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", key, err)
	}
	return data, nil
}

// List returns every slot, newest first.
func (s *FileStorage) List(ctx context.Context) ([]SlotInfo, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("list saves: %w", err)
	}
	var out []SlotInfo
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != saveExt {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		slot := strings.TrimSuffix(e.Name(), saveExt)
		si := SlotInfo{Slot: slot, UpdatedAt: info.ModTime()}
		if data, err := s.Load(ctx, slot); err == nil {
			si.Version = StreamVersion(data)
			si.Size = len(data)
		} else {
			s.log.Warn("unreadable save", zap.String("slot", slot), zap.Error(err))
		}
		out = append(out, si)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UpdatedAt.After(out[j].UpdatedAt) })
	return out, nil
}

func (s *FileStorage) Delete(ctx context.Context, slot string) error {
	key, path, err := s.path(slot)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%w: %s", ErrSlotNotFound, key)
		}
		return fmt.Errorf("delete %s: %w", key, err)
	}
	return nil
}
