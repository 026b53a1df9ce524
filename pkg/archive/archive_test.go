package archive

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/vango-dev/writdesk/pkg/writ"
)

type fakeSource struct {
	writs []writ.Writ
	err   error
	got   writ.Query
}

func (f *fakeSource) Query(_ context.Context, q writ.Query) ([]writ.Writ, error) {
	f.got = q
	return f.writs, f.err
}

func TestDiskStorePutGetList(t *testing.T) {
	ctx := context.Background()
	store, err := NewDiskStore(filepath.Join(t.TempDir(), "nested"))
	if err != nil {
		t.Fatalf("NewDiskStore: %v", err)
	}

	if err := store.Put(ctx, "b.json", "application/json", bytes.NewReader([]byte("bb"))); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if err := store.Put(ctx, "a.json", "application/json", bytes.NewReader([]byte("a"))); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if err := store.Put(ctx, "b.json", "application/json", bytes.NewReader([]byte("bbb"))); err != nil {
		t.Fatalf("Put overwrite: %v", err)
	}

	rc, err := store.Get(ctx, "b.json")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	data, _ := io.ReadAll(rc)
	rc.Close()
	if string(data) != "bbb" {
		t.Errorf("Get = %q, want bbb", data)
	}

	objs, err := store.List(ctx, "")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(objs) != 2 || objs[0].Key != "a.json" || objs[1].Size != 3 {
		t.Errorf("List = %+v", objs)
	}

	if _, err := store.Get(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get(missing) = %v, want ErrNotFound", err)
	}
}

func TestDiskStoreRejectsPathKeys(t *testing.T) {
	store, err := NewDiskStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewDiskStore: %v", err)
	}
	for _, key := range []string{"", "..", "../x", "a/b"} {
		if err := store.Put(context.Background(), key, "", bytes.NewReader(nil)); err == nil {
			t.Errorf("Put(%q) should fail", key)
		}
	}
}

func TestDiskStoreListSkipsTempFiles(t *testing.T) {
	dir := t.TempDir()
	store, _ := NewDiskStore(dir)
	os.WriteFile(filepath.Join(dir, ".put-123"), []byte("x"), 0o644)
	os.WriteFile(filepath.Join(dir, "snapshot-1.json"), []byte("{}"), 0o644)

	objs, err := store.List(context.Background(), SnapshotPrefix)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(objs) != 1 || objs[0].Key != "snapshot-1.json" {
		t.Errorf("List = %+v", objs)
	}
}

func TestExportAndLoad(t *testing.T) {
	ctx := context.Background()
	store, _ := NewDiskStore(t.TempDir())
	src := &fakeSource{writs: []writ.Writ{
		{Key: "w1", Title: "First", Tags: []string{"go"}},
		{Key: "w2", Title: "Draft"},
	}}
	now := time.Date(2026, 3, 4, 5, 6, 7, 0, time.UTC)

	key, n, err := Export(ctx, src, store, now)
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	if key != "snapshot-20260304T050607Z.json" || n != 2 {
		t.Errorf("Export = %q, %d", key, n)
	}
	if !src.got.IncludePrivate {
		t.Error("export should include private writs")
	}

	snap, err := Load(ctx, store, key)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !snap.Taken.Equal(now) || len(snap.Writs) != 2 || snap.Writs[1].Title != "Draft" {
		t.Errorf("snapshot = %+v", snap)
	}

	list, err := Snapshots(ctx, store)
	if err != nil || len(list) != 1 || list[0].Key != key {
		t.Errorf("Snapshots = %+v, %v", list, err)
	}
}

func TestExportSourceError(t *testing.T) {
	store, _ := NewDiskStore(t.TempDir())
	boom := errors.New("backend down")
	_, _, err := Export(context.Background(), &fakeSource{err: boom}, store, time.Now())
	if !errors.Is(err, boom) {
		t.Errorf("Export = %v, want wrapped backend error", err)
	}
	objs, _ := store.List(context.Background(), "")
	if len(objs) != 0 {
		t.Error("failed export must not store anything")
	}
}

func TestNewS3Store(t *testing.T) {
	client := NewS3Client(S3Config{
		Region:          "us-east-1",
		Endpoint:        "http://127.0.0.1:9000",
		AccessKeyID:     "id",
		SecretAccessKey: "secret",
	})
	s := NewS3Store(client, "bucket", "writdesk")
	if got := s.objectKey("snapshot-1.json"); got != "writdesk/snapshot-1.json" {
		t.Errorf("objectKey = %q", got)
	}
	if got := NewS3Store(client, "bucket", "").objectKey("k"); got != "k" {
		t.Errorf("objectKey without prefix = %q", got)
	}
}
