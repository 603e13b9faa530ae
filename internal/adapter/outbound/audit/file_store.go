// Package audit persists the decision trail as JSON Lines files with daily
// rotation, retention cleanup, and a small in-memory cache of recent records.
package audit

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"sync"
	"time"

	"github.com/hookwarden/hookwarden/internal/domain/audit"
)

// decisionFilePattern matches trail filenames: decisions-YYYY-MM-DD.jsonl
var decisionFilePattern = regexp.MustCompile(`^decisions-(\d{4}-\d{2}-\d{2})\.jsonl$`)

// FileStoreConfig holds configuration for the file-based trail store.
type FileStoreConfig struct {
	// Dir is the directory where trail files are stored.
	Dir string
	// RetentionDays is the number of days to keep trail files (default 7).
	RetentionDays int
	// CacheSize is the number of recent records kept in memory (default 256).
	CacheSize int
}

// FileStore implements audit.Store with daily files, retention, and a cache.
type FileStore struct {
	dir           string
	retentionDays int

	mu          sync.Mutex
	currentFile *os.File
	currentDate string
	closed      bool

	cache  *recordCache
	logger *slog.Logger
	cancel context.CancelFunc
}

// NewFileStore creates the store, opening today's file, running retention
// cleanup, warming the cache from the most recent file, and starting the
// hourly cleanup goroutine.
func NewFileStore(cfg FileStoreConfig, logger *slog.Logger) (*FileStore, error) {
	if cfg.RetentionDays <= 0 {
		cfg.RetentionDays = 7
	}
	if cfg.CacheSize <= 0 {
		cfg.CacheSize = 256
	}
	if logger == nil {
		logger = slog.Default()
	}

	if err := os.MkdirAll(cfg.Dir, 0700); err != nil {
		return nil, fmt.Errorf("create trail directory: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := &FileStore{
		dir:           cfg.Dir,
		retentionDays: cfg.RetentionDays,
		cache:         newRecordCache(cfg.CacheSize),
		logger:        logger,
		cancel:        cancel,
	}

	today := time.Now().UTC().Format("2006-01-02")
	if err := s.openFileLocked(today); err != nil {
		cancel()
		return nil, fmt.Errorf("open trail file: %w", err)
	}

	s.runCleanup()
	s.warmCache()
	go s.cleanupLoop(ctx)

	return s, nil
}

// Append writes records as JSON lines, rotating when the date changes.
func (s *FileStore) Append(_ context.Context, records ...audit.Record) error {
	if len(records) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return fmt.Errorf("trail store is closed")
	}

	for _, rec := range records {
		dateStr := rec.Time.UTC().Format("2006-01-02")
		if dateStr != s.currentDate {
			if err := s.rotateLocked(dateStr); err != nil {
				return fmt.Errorf("rotate trail file: %w", err)
			}
		}

		data, err := json.Marshal(rec)
		if err != nil {
			return fmt.Errorf("marshal trail record: %w", err)
		}
		if _, err := s.currentFile.Write(append(data, '\n')); err != nil {
			return fmt.Errorf("write trail record: %w", err)
		}
		s.cache.Add(rec)
	}
	return nil
}

// Flush syncs the current file to disk.
func (s *FileStore) Flush(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.currentFile != nil {
		return s.currentFile.Sync()
	}
	return nil
}

// Close stops the cleanup goroutine and closes the current file.
func (s *FileStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	s.cancel()

	if s.currentFile != nil {
		_ = s.currentFile.Sync()
		err := s.currentFile.Close()
		s.currentFile = nil
		return err
	}
	return nil
}

// Recent returns the last n records from the cache, newest first.
func (s *FileStore) Recent(n int) []audit.Record {
	return s.cache.Recent(n)
}

func trailFilename(dateStr string) string {
	return fmt.Sprintf("decisions-%s.jsonl", dateStr)
}

// openFileLocked opens or creates the trail file for the given date.
func (s *FileStore) openFileLocked(dateStr string) error {
	path := filepath.Join(s.dir, trailFilename(dateStr))
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	s.currentFile = f
	s.currentDate = dateStr
	return nil
}

// rotateLocked closes the current file and opens the one for dateStr.
func (s *FileStore) rotateLocked(dateStr string) error {
	if s.currentFile != nil {
		_ = s.currentFile.Sync()
		_ = s.currentFile.Close()
		s.currentFile = nil
	}
	return s.openFileLocked(dateStr)
}

// runCleanup deletes trail files older than the retention period.
func (s *FileStore) runCleanup() {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		s.logger.Error("trail cleanup failed", "dir", s.dir, "error", err)
		return
	}

	cutoff := time.Now().UTC().AddDate(0, 0, -s.retentionDays)
	deleted := 0
	for _, e := range entries {
		m := decisionFilePattern.FindStringSubmatch(e.Name())
		if m == nil {
			continue
		}
		fileDate, err := time.Parse("2006-01-02", m[1])
		if err != nil {
			continue
		}
		if fileDate.Before(cutoff) {
			if err := os.Remove(filepath.Join(s.dir, e.Name())); err != nil {
				s.logger.Error("trail cleanup: delete failed", "file", e.Name(), "error", err)
			} else {
				deleted++
			}
		}
	}
	if deleted > 0 {
		s.logger.Info("trail cleanup completed", "deleted", deleted)
	}
}

// cleanupLoop runs retention cleanup every hour until cancelled.
func (s *FileStore) cleanupLoop(ctx context.Context) {
	ticker := time.NewTicker(1 * time.Hour)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.runCleanup()
		}
	}
}

// warmCache fills the cache from the most recent trail file.
func (s *FileStore) warmCache() {
	name := s.mostRecentFile()
	if name == "" {
		return
	}

	f, err := os.Open(filepath.Join(s.dir, name))
	if err != nil {
		s.logger.Warn("trail cache warmup failed", "file", name, "error", err)
		return
	}
	defer func() { _ = f.Close() }()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var rec audit.Record
		if err := json.Unmarshal(line, &rec); err != nil {
			s.logger.Warn("trail cache: skipping malformed line", "file", name, "error", err)
			continue
		}
		s.cache.Add(rec)
	}
	if err := scanner.Err(); err != nil {
		s.logger.Warn("trail cache warmup incomplete", "file", name, "error", err)
	}
}

// mostRecentFile returns the newest non-empty trail file name, if any.
func (s *FileStore) mostRecentFile() string {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return ""
	}

	best := ""
	for _, e := range entries {
		if decisionFilePattern.FindStringSubmatch(e.Name()) == nil {
			continue
		}
		info, err := e.Info()
		if err != nil || info.Size() == 0 {
			continue
		}
		// Date-stamped names sort chronologically.
		if e.Name() > best {
			best = e.Name()
		}
	}
	return best
}

// Compile-time interface verification.
var _ audit.Store = (*FileStore)(nil)

// recordCache is a ring buffer of recent records.
type recordCache struct {
	mu      sync.RWMutex
	entries []audit.Record
	size    int
	head    int
	count   int
}

func newRecordCache(size int) *recordCache {
	return &recordCache{entries: make([]audit.Record, size), size: size}
}

func (c *recordCache) Add(rec audit.Record) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[c.head] = rec
	c.head = (c.head + 1) % c.size
	if c.count < c.size {
		c.count++
	}
}

// Recent returns the last n entries, newest first.
func (c *recordCache) Recent(n int) []audit.Record {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if n <= 0 || c.count == 0 {
		return nil
	}
	if n > c.count {
		n = c.count
	}
	out := make([]audit.Record, n)
	for i := 0; i < n; i++ {
		idx := (c.head - 1 - i + c.size) % c.size
		out[i] = c.entries[idx]
	}
	return out
}
