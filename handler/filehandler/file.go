package filehandler

import (
	"bufio"
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/stjordanis/lager/core"
	"github.com/stjordanis/lager/formatter"
	"github.com/stjordanis/lager/handler"
)

// FileConfig holds configuration for the file handler
type FileConfig struct {
	// Filename is the path to the log file
	Filename string
	// Formatter to use (default: TextFormatter)
	Formatter formatter.Formatter
	// Level is the initial threshold (default: info)
	Level core.Level
	// MaxSize is the maximum size in bytes before rotation (0 = no rotation)
	MaxSize int64
	// MaxBackups is the maximum number of rotated files to retain (0 = keep all)
	MaxBackups int
}

// FileHandler writes formatted envelopes to a file through a buffered
// writer, rotating by size when configured. Delivery is synchronous;
// buffered bytes are flushed on Terminate.
type FileHandler struct {
	handler.AtomicThreshold

	mu          sync.Mutex
	cfg         FileConfig
	file        *os.File
	bufWriter   *bufio.Writer
	fmtr        formatter.Formatter
	bufFmtr     formatter.BufferFormatter
	syncBuf     bytes.Buffer
	currentSize int64
	stats       *handler.Stats
}

// New creates a file handler from explicit configuration. The file is
// opened by Init, not here, so a bad path surfaces as an install error.
func New(cfg FileConfig) *FileHandler {
	h := &FileHandler{cfg: cfg, stats: handler.NewStats()}
	level := cfg.Level
	if level == 0 {
		level = core.LevelInfo
	}
	h.StoreLevel(level)
	h.syncBuf.Grow(256)
	return h
}

// Init opens the log file and applies opaque install arguments.
// Recognized keys:
//
//	path: log file path (required unless set via FileConfig)
//	level: initial threshold name
//	format: "text" (default), "json"
//	max_size: rotation size in bytes
//	max_backups: rotated files to retain
func (h *FileHandler) Init(args handler.Args) error {
	if h.cfg.Filename == "" {
		h.cfg.Filename = args.Str("path", "")
	}
	if h.cfg.Filename == "" {
		return fmt.Errorf("file handler requires a path")
	}
	if h.cfg.MaxSize == 0 {
		h.cfg.MaxSize = int64(args.Int("max_size", 0))
	}
	if h.cfg.MaxBackups == 0 {
		h.cfg.MaxBackups = args.Int("max_backups", 0)
	}

	if h.cfg.Formatter == nil {
		cfg := formatter.Config{TimestampFormat: args.Str("timestamp_format", "")}
		switch format := args.Str("format", "text"); format {
		case "text":
			h.cfg.Formatter = formatter.NewTextFormatter(cfg)
		case "json":
			h.cfg.Formatter = formatter.NewJSONFormatter(cfg)
		default:
			return fmt.Errorf("unknown file format %q", format)
		}
	}
	h.fmtr = h.cfg.Formatter
	h.bufFmtr, _ = h.fmtr.(formatter.BufferFormatter)

	level, err := args.Level("level", h.Threshold())
	if err != nil {
		return err
	}
	h.StoreLevel(level)

	file, err := os.OpenFile(h.cfg.Filename, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	info, err := file.Stat()
	if err != nil {
		file.Close()
		return fmt.Errorf("stat log file: %w", err)
	}

	h.file = file
	h.currentSize = info.Size()
	h.bufWriter = bufio.NewWriter(file)
	return nil
}

// Handle formats and writes one envelope if it passes the threshold.
func (h *FileHandler) Handle(entry *core.Entry) error {
	if !h.Enabled(entry.Level) {
		h.stats.IncrementFiltered()
		return nil
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if h.file == nil {
		h.stats.IncrementFailed()
		return fmt.Errorf("file handler is not initialized")
	}

	if err := h.rotateIfNeeded(); err != nil {
		h.stats.IncrementFailed()
		return err
	}

	h.syncBuf.Reset()
	if h.bufFmtr != nil {
		h.bufFmtr.FormatEntry(entry, &h.syncBuf)
	} else {
		data, err := h.fmtr.Format(entry)
		if err != nil {
			h.stats.IncrementFailed()
			return err
		}
		h.syncBuf.Write(data)
	}

	n, err := h.bufWriter.Write(h.syncBuf.Bytes())
	if err != nil {
		h.stats.IncrementFailed()
		return err
	}
	h.currentSize += int64(n)
	h.stats.IncrementProcessed()
	return nil
}

// rotateIfNeeded rotates when the current file has reached MaxSize.
// Called with mu held.
func (h *FileHandler) rotateIfNeeded() error {
	if h.cfg.MaxSize <= 0 || h.currentSize < h.cfg.MaxSize {
		return nil
	}
	return h.rotate()
}

// rotate renames the current file with a timestamp suffix and opens a
// fresh one. Called with mu held.
func (h *FileHandler) rotate() error {
	if err := h.bufWriter.Flush(); err != nil {
		return err
	}
	if err := h.file.Sync(); err != nil {
		return err
	}
	if err := h.file.Close(); err != nil {
		return err
	}

	timestamp := time.Now().Format("2006-01-02T15-04-05.000000000")
	rotatedName := fmt.Sprintf("%s.%s", h.cfg.Filename, timestamp)

	if err := os.Rename(h.cfg.Filename, rotatedName); err != nil {
		// If rename fails, try to reopen the original file
		file, openErr := os.OpenFile(h.cfg.Filename, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if openErr != nil {
			return fmt.Errorf("rotation failed: %v, reopen failed: %v", err, openErr)
		}
		h.file = file
		h.bufWriter.Reset(file)
		return err
	}

	if h.cfg.MaxBackups > 0 {
		h.cleanupOldBackups()
	}

	file, err := os.OpenFile(h.cfg.Filename, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return err
	}

	h.file = file
	h.bufWriter.Reset(file)
	h.currentSize = 0
	return nil
}

// cleanupOldBackups removes the oldest rotated files beyond MaxBackups
func (h *FileHandler) cleanupOldBackups() {
	dir := filepath.Dir(h.cfg.Filename)
	base := filepath.Base(h.cfg.Filename)

	pattern := filepath.Join(dir, base+".*")
	matches, err := filepath.Glob(pattern)
	if err != nil {
		return
	}

	var backups []string
	for _, match := range matches {
		if strings.HasPrefix(filepath.Base(match), base+".") {
			backups = append(backups, match)
		}
	}

	// Sort by modification time (oldest first)
	sort.Slice(backups, func(i, j int) bool {
		infoI, errI := os.Stat(backups[i])
		infoJ, errJ := os.Stat(backups[j])
		if errI != nil || errJ != nil {
			return false
		}
		return infoI.ModTime().Before(infoJ.ModTime())
	})

	if len(backups) > h.cfg.MaxBackups {
		for _, file := range backups[:len(backups)-h.cfg.MaxBackups] {
			if err := os.Remove(file); err != nil {
				return
			}
		}
	}
}

// Flush forces buffered output to disk
func (h *FileHandler) Flush() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.bufWriter == nil {
		return nil
	}
	if err := h.bufWriter.Flush(); err != nil {
		return err
	}
	return h.file.Sync()
}

// Terminate flushes, syncs and closes the underlying file.
func (h *FileHandler) Terminate() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.file == nil {
		return nil
	}

	if err := h.bufWriter.Flush(); err != nil {
		h.file.Close()
		h.file = nil
		return err
	}
	if err := h.file.Sync(); err != nil {
		h.file.Close()
		h.file = nil
		return err
	}
	err := h.file.Close()
	h.file = nil
	return err
}

// Stats returns the handler's counters
func (h *FileHandler) Stats() *handler.Stats {
	return h.stats
}
