// Package filemirror keeps tracker rows in JSON files, one per tenant, for
// deployments that do not want them in the database.
package filemirror

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/rpggio/haulboard/internal/domain/tracker"
	"github.com/rpggio/haulboard/internal/repository"
)

// Mirror implements tracker.Mirror on the filesystem.
type Mirror struct {
	dir string
}

// New returns a mirror rooted at dir.
func New(dir string) (*Mirror, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating mirror dir: %w", err)
	}
	return &Mirror{dir: dir}, nil
}

// Load reads the tenant's slot file.
func (m *Mirror) Load(ctx context.Context, tenantID string) ([]tracker.TrackingRow, error) {
	data, err := os.ReadFile(m.path(tenantID))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("reading mirror slot: %w", err)
	}

	var rows []tracker.TrackingRow
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, fmt.Errorf("decoding mirror slot: %w: %v", tracker.ErrMalformedInput, err)
	}
	return rows, nil
}

// Save replaces the tenant's slot file atomically.
func (m *Mirror) Save(ctx context.Context, tenantID string, rows []tracker.TrackingRow) error {
	if rows == nil {
		rows = []tracker.TrackingRow{}
	}
	data, err := json.Marshal(rows)
	if err != nil {
		return fmt.Errorf("encoding mirror slot: %w", err)
	}

	path := m.path(tenantID)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating tenant dir: %w", err)
	}
	return writeFileAtomic(path, data)
}

func (m *Mirror) path(tenantID string) string {
	return filepath.Join(m.dir, safeName(tenantID), tracker.SlotName+".json")
}

// safeName maps a tenant id onto a single path element. Hex keeps
// distinct ids distinct, even on case-insensitive filesystems.
func safeName(s string) string {
	if s == "" {
		return "_"
	}
	return hex.EncodeToString([]byte(s))
}

func writeFileAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".slot-*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("writing temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("replacing mirror slot: %w", err)
	}
	return nil
}
