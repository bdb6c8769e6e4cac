// Package checkpoint persists the crawl state to a durable JSON file
// and restores it on resume.
//
// Saves are atomic from the perspective of a later load: the state is
// written to a temporary file in the same directory and renamed over
// the checkpoint path, so a crash mid-write never leaves a half-written
// file that would silently discard a run's progress.
package checkpoint

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/mdcrawl/mdcrawl/internal/model"
)

// Sentinel errors returned by Load. Callers distinguish them with
// errors.Is: a missing file is only an error under --resume, while a
// corrupt file or fingerprint mismatch is always fatal before any
// network request is made.
var (
	// ErrNotFound means no checkpoint file exists at the path.
	ErrNotFound = errors.New("checkpoint not found")

	// ErrCorrupt means the checkpoint file exists but cannot be parsed
	// or has an unknown schema version.
	ErrCorrupt = errors.New("checkpoint corrupt or unreadable")

	// ErrFingerprintMismatch means the checkpoint was written under
	// different run parameters (root domain, page limit). Resuming it
	// would crawl under mismatched assumptions.
	ErrFingerprintMismatch = errors.New("checkpoint config fingerprint mismatch")
)

// Manager reads and writes crawl state snapshots at a fixed path.
type Manager struct {
	path string
}

// NewManager creates a Manager for the given checkpoint path.
func NewManager(path string) *Manager {
	return &Manager{path: path}
}

// Path returns the checkpoint file location.
func (m *Manager) Path() string {
	return m.path
}

// Save atomically writes the state as indented JSON. The temporary file
// is created in the checkpoint's directory so the final rename never
// crosses a filesystem boundary.
func (m *Manager) Save(state *model.CrawlState) error {
	state.SchemaVersion = model.CheckpointSchemaVersion
	state.SavedAt = time.Now().UTC()

	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal crawl state: %w", err)
	}

	dir := filepath.Dir(m.path)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return fmt.Errorf("create checkpoint directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".crawl_state-*.tmp")
	if err != nil {
		return fmt.Errorf("create temporary checkpoint: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()        //nolint:errcheck // Best effort cleanup
		_ = os.Remove(tmpName) //nolint:errcheck // Best effort cleanup
		return fmt.Errorf("write temporary checkpoint: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName) //nolint:errcheck // Best effort cleanup
		return fmt.Errorf("close temporary checkpoint: %w", err)
	}

	if err := os.Rename(tmpName, m.path); err != nil {
		_ = os.Remove(tmpName) //nolint:errcheck // Best effort cleanup
		return fmt.Errorf("replace checkpoint: %w", err)
	}
	return nil
}

// Load reads and validates the checkpoint. wantFingerprint must match
// the stored config fingerprint; pass the current Config.Fingerprint().
func (m *Manager) Load(wantFingerprint string) (*model.CrawlState, error) {
	data, err := os.ReadFile(m.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, m.path)
		}
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}

	var state model.CrawlState
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}

	if state.SchemaVersion != model.CheckpointSchemaVersion {
		return nil, fmt.Errorf("%w: schema version %d (want %d)",
			ErrCorrupt, state.SchemaVersion, model.CheckpointSchemaVersion)
	}

	if state.ConfigFingerprint != wantFingerprint {
		return nil, fmt.Errorf("%w: checkpoint %q, current run %q (clear the checkpoint or drop --resume)",
			ErrFingerprintMismatch, state.ConfigFingerprint, wantFingerprint)
	}

	if state.Titles == nil {
		state.Titles = make(map[string]string)
	}
	return &state, nil
}

// Exists reports whether a checkpoint file is present at the path.
func (m *Manager) Exists() bool {
	_, err := os.Stat(m.path)
	return err == nil
}
