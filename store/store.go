// Package store holds the persistence providers and the snapshot codec.
//
// A provider is a key/value store of opaque JSON documents. The ListStore
// keeps two keys: model.ListsKey with the snapshot of every list and
// model.ActiveKey with the bare id of the active list.
package store

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"todolists/model"
)

var (
	// ErrNotFound is returned by Load when the key has never been saved.
	ErrNotFound = errors.New("key not found")
	// ErrNoBackup is returned by Recover when no usable backup exists.
	ErrNoBackup = errors.New("no valid backup found")
	// ErrUnsupportedVersion means the snapshot was written by a newer build.
	ErrUnsupportedVersion = errors.New("unsupported snapshot version")
)

// Provider stores and retrieves JSON documents by key.
type Provider interface {
	Load(ctx context.Context, key string) ([]byte, error)
	Save(ctx context.Context, key string, data []byte) error
}

// Recoverer is implemented by providers that keep backups of earlier saves.
// Recover returns the newest backup accepted by valid, restores it as the
// current value and reports where it came from.
type Recoverer interface {
	Recover(ctx context.Context, key string, valid func([]byte) error) ([]byte, string, error)
}

// EncodeSnapshot renders the versioned snapshot document.
func EncodeSnapshot(snap model.Snapshot) ([]byte, error) {
	if snap.Version == 0 {
		snap.Version = model.SnapshotVersion
	}
	if snap.Lists == nil {
		snap.Lists = []model.List{}
	}
	for i := range snap.Lists {
		if snap.Lists[i].Items == nil {
			snap.Lists[i].Items = []model.Item{}
		}
	}
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode snapshot: %w", err)
	}
	return append(data, '\n'), nil
}

// DecodeSnapshot parses either the versioned document or the older bare
// array of lists.
func DecodeSnapshot(data []byte) (model.Snapshot, error) {
	trimmed := bytes.TrimSpace(data)

	var snap model.Snapshot
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var lists []model.List
		if err := json.Unmarshal(trimmed, &lists); err != nil {
			return model.Snapshot{}, err
		}
		snap = model.Snapshot{Version: model.SnapshotVersion, Lists: lists}
	} else {
		if err := json.Unmarshal(trimmed, &snap); err != nil {
			return model.Snapshot{}, err
		}
		if snap.Version == 0 {
			snap.Version = model.SnapshotVersion
		}
		if snap.Version > model.SnapshotVersion {
			return model.Snapshot{}, fmt.Errorf("%w: %d", ErrUnsupportedVersion, snap.Version)
		}
	}

	if snap.Lists == nil {
		snap.Lists = []model.List{}
	}
	for i := range snap.Lists {
		if snap.Lists[i].Items == nil {
			snap.Lists[i].Items = []model.Item{}
		}
		for j := range snap.Lists[i].Items {
			if !snap.Lists[i].Items[j].Status.Valid() {
				snap.Lists[i].Items[j].Status = model.StatusActive
			}
		}
	}
	return snap, nil
}

// EncodeActive renders the active list id as a bare JSON number.
func EncodeActive(id int64) ([]byte, error) {
	return json.Marshal(id)
}

// DecodeActive parses the active list id.
func DecodeActive(data []byte) (int64, error) {
	var id int64
	if err := json.Unmarshal(bytes.TrimSpace(data), &id); err != nil {
		return 0, err
	}
	return id, nil
}

// IsCorrupt reports whether err came from undecodable JSON.
func IsCorrupt(err error) bool {
	var syntaxErr *json.SyntaxError
	if errors.As(err, &syntaxErr) {
		return true
	}
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		return true
	}
	return errors.Is(err, io.ErrUnexpectedEOF)
}
