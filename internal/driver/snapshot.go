package driver

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/vmihailenco/msgpack/v5"

	"hdlelab/internal/paramenv"
)

// Current schema version - increment when Snapshot format changes
const snapshotSchemaVersion uint16 = 1

// ErrSnapshotSchema is returned when a snapshot was written by an
// incompatible version.
var ErrSnapshotSchema = errors.New("snapshot schema mismatch")

// Snapshot is the serialized form of an elaboration's environment table.
// Envs[i] is the content of handle i+1. Labels names every node referenced
// by a binding so the file can be read without the design.
type Snapshot struct {
	Schema    uint16
	Dialect   string
	Envs      []paramenv.Data
	Labels    map[uint32]string
	Instances []SnapshotInstance
}

// SnapshotInstance records one instance's environment handle; 0 when it
// failed to resolve.
type SnapshotInstance struct {
	Name   string
	Module string
	Env    uint32
}

// Snapshot captures the current environment table.
func (res *Result) Snapshot() *Snapshot {
	snap := &Snapshot{
		Schema:  snapshotSchemaVersion,
		Dialect: res.Dialect.String(),
		Envs:    res.Session.Envs().Snapshot(),
		Labels:  make(map[uint32]string),
	}
	label := func(bindings []paramenv.Binding) {
		for _, b := range bindings {
			snap.Labels[uint32(b.Param)] = res.nodeLabel(b.Param)
			snap.Labels[uint32(b.Arg)] = res.nodeLabel(b.Arg)
		}
	}
	for _, d := range snap.Envs {
		label(d.Types)
		label(d.Values)
	}
	for _, inst := range res.Instances {
		snap.Instances = append(snap.Instances, SnapshotInstance{
			Name:   inst.Name,
			Module: inst.Module,
			Env:    uint32(inst.Env),
		})
	}
	return snap
}

// WriteSnapshot serializes the environment table to path. The file is
// replaced atomically.
func (res *Result) WriteSnapshot(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	f, err := os.CreateTemp(dir, "tmp-*.mp")
	if err != nil {
		return err
	}
	defer func() {
		// after a successful rename the temp name is gone
		if rmErr := os.Remove(f.Name()); rmErr != nil && !errors.Is(rmErr, os.ErrNotExist) {
			fmt.Fprintf(os.Stderr, "failed to remove temp file: %v\n", rmErr)
		}
	}()

	enc := msgpack.NewEncoder(f)
	if err := enc.Encode(res.Snapshot()); err != nil {
		_ = f.Close()
		return fmt.Errorf("encode snapshot: %w", err)
	}
	if err := f.Close(); err != nil {
		return err
	}
	// Атомарная замена
	return os.Rename(f.Name(), path)
}

// ReadSnapshot decodes a snapshot written by WriteSnapshot.
func ReadSnapshot(path string) (*Snapshot, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil {
			fmt.Fprintf(os.Stderr, "failed to close %s: %v\n", path, closeErr)
		}
	}()
	var snap Snapshot
	if err := msgpack.NewDecoder(f).Decode(&snap); err != nil {
		return nil, fmt.Errorf("decode snapshot %s: %w", path, err)
	}
	if snap.Schema != snapshotSchemaVersion {
		return nil, fmt.Errorf("%s: %w: got %d, want %d", path, ErrSnapshotSchema, snap.Schema, snapshotSchemaVersion)
	}
	return &snap, nil
}
