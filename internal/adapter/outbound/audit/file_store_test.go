package audit

import (
	"bufio"
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"go.uber.org/goleak"

	"github.com/hookwarden/hookwarden/internal/domain/audit"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func testStore(t *testing.T) *FileStore {
	t.Helper()
	s, err := NewFileStore(FileStoreConfig{Dir: t.TempDir()}, slog.New(slog.NewTextHandler(os.Stderr, nil)))
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func sampleRecord(id string) audit.Record {
	return audit.Record{
		ID:       id,
		Time:     time.Now().UTC(),
		Tool:     "Bash",
		Command:  "git push",
		Decision: "ask",
		Check:    "git_push_pull_ask",
		Reason:   "Git push requires your approval.",
	}
}

func TestFileStore_AppendAndReadBack(t *testing.T) {
	s := testStore(t)

	if err := s.Append(context.Background(), sampleRecord("a"), sampleRecord("b")); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if err := s.Flush(context.Background()); err != nil {
		t.Fatalf("Flush: %v", err)
	}

	name := trailFilename(time.Now().UTC().Format("2006-01-02"))
	f, err := os.Open(filepath.Join(s.dir, name))
	if err != nil {
		t.Fatalf("open trail file: %v", err)
	}
	defer func() { _ = f.Close() }()

	var got []audit.Record
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var rec audit.Record
		if err := json.Unmarshal(scanner.Bytes(), &rec); err != nil {
			t.Fatalf("unmarshal line: %v", err)
		}
		got = append(got, rec)
	}
	if len(got) != 2 {
		t.Fatalf("read %d records, want 2", len(got))
	}
	if got[0].ID != "a" || got[1].ID != "b" {
		t.Errorf("records out of order: %q, %q", got[0].ID, got[1].ID)
	}
	if got[0].Decision != "ask" || got[0].Check != "git_push_pull_ask" {
		t.Errorf("record fields lost: %+v", got[0])
	}
}

func TestFileStore_RecentNewestFirst(t *testing.T) {
	s := testStore(t)

	for _, id := range []string{"1", "2", "3"} {
		if err := s.Append(context.Background(), sampleRecord(id)); err != nil {
			t.Fatal(err)
		}
	}

	recent := s.Recent(2)
	if len(recent) != 2 {
		t.Fatalf("Recent(2) returned %d records", len(recent))
	}
	if recent[0].ID != "3" || recent[1].ID != "2" {
		t.Errorf("Recent order = %q, %q; want 3, 2", recent[0].ID, recent[1].ID)
	}
}

func TestFileStore_CacheWarmup(t *testing.T) {
	dir := t.TempDir()
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	s1, err := NewFileStore(FileStoreConfig{Dir: dir}, logger)
	if err != nil {
		t.Fatal(err)
	}
	if err := s1.Append(context.Background(), sampleRecord("persisted")); err != nil {
		t.Fatal(err)
	}
	if err := s1.Close(); err != nil {
		t.Fatal(err)
	}

	s2, err := NewFileStore(FileStoreConfig{Dir: dir}, logger)
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = s2.Close() }()

	recent := s2.Recent(1)
	if len(recent) != 1 || recent[0].ID != "persisted" {
		t.Errorf("warmup did not recover records: %+v", recent)
	}
}

func TestFileStore_RetentionCleanup(t *testing.T) {
	dir := t.TempDir()
	old := filepath.Join(dir, trailFilename("2020-01-01"))
	if err := os.WriteFile(old, []byte("{}\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	unrelated := filepath.Join(dir, "notes.txt")
	if err := os.WriteFile(unrelated, []byte("keep me"), 0o600); err != nil {
		t.Fatal(err)
	}

	s, err := NewFileStore(FileStoreConfig{Dir: dir, RetentionDays: 7}, slog.New(slog.NewTextHandler(os.Stderr, nil)))
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = s.Close() }()

	if _, err := os.Stat(old); !os.IsNotExist(err) {
		t.Error("stale trail file should have been deleted")
	}
	if _, err := os.Stat(unrelated); err != nil {
		t.Error("unrelated file must survive cleanup")
	}
}

func TestFileStore_AppendAfterClose(t *testing.T) {
	s, err := NewFileStore(FileStoreConfig{Dir: t.TempDir()}, slog.New(slog.NewTextHandler(os.Stderr, nil)))
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}
	if err := s.Append(context.Background(), sampleRecord("late")); err == nil {
		t.Error("Append after Close should fail")
	}
	// Close is idempotent.
	if err := s.Close(); err != nil {
		t.Errorf("second Close: %v", err)
	}
}

func TestRecordCacheRing(t *testing.T) {
	c := newRecordCache(2)
	for _, id := range []string{"a", "b", "c"} {
		c.Add(audit.Record{ID: id})
	}
	recent := c.Recent(10)
	if len(recent) != 2 {
		t.Fatalf("ring of 2 holds %d", len(recent))
	}
	if recent[0].ID != "c" || recent[1].ID != "b" {
		t.Errorf("ring eviction wrong: %q, %q", recent[0].ID, recent[1].ID)
	}
}
