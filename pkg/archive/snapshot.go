package archive

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/vango-dev/writdesk/pkg/writ"
)

// SnapshotPrefix starts every snapshot key.
const SnapshotPrefix = "snapshot-"

// Source is where snapshot writs come from; *writ.Client satisfies it.
type Source interface {
	Query(ctx context.Context, q writ.Query) ([]writ.Writ, error)
}

// Snapshot is the stored document.
type Snapshot struct {
	Taken time.Time   `json:"taken"`
	Writs []writ.Writ `json:"writs"`
}

// SnapshotKey names the snapshot taken at t.
func SnapshotKey(t time.Time) string {
	return SnapshotPrefix + t.UTC().Format("20060102T150405Z") + ".json"
}

// Export queries every writ, private ones included, and stores a snapshot.
// It returns the snapshot key and the number of writs.
func Export(ctx context.Context, src Source, store Store, now time.Time) (string, int, error) {
	writs, err := src.Query(ctx, writ.EditorQuery(writ.Query{}))
	if err != nil {
		return "", 0, fmt.Errorf("archive: export: %w", err)
	}
	snap := Snapshot{Taken: now.UTC(), Writs: writs}
	if snap.Writs == nil {
		snap.Writs = []writ.Writ{}
	}
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return "", 0, fmt.Errorf("archive: encode snapshot: %w", err)
	}

	key := SnapshotKey(now)
	if err := store.Put(ctx, key, "application/json", bytes.NewReader(data)); err != nil {
		return "", 0, err
	}
	return key, len(writs), nil
}

// Load reads a snapshot back.
func Load(ctx context.Context, store Store, key string) (*Snapshot, error) {
	rc, err := store.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	var snap Snapshot
	if err := json.NewDecoder(rc).Decode(&snap); err != nil {
		return nil, fmt.Errorf("archive: decode %s: %w", key, err)
	}
	return &snap, nil
}

// Snapshots lists stored snapshots, oldest first.
func Snapshots(ctx context.Context, store Store) ([]Object, error) {
	objs, err := store.List(ctx, SnapshotPrefix)
	if err != nil {
		return nil, err
	}
	out := objs[:0]
	for _, o := range objs {
		if strings.HasSuffix(o.Key, ".json") {
			out = append(out, o)
		}
	}
	return out, nil
}
