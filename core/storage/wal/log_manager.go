// Package wal provides the minimal write-ahead-log collaborator the buffer
// pool's FlushPage invokes before a dirty write-back. It is grounded on the
// teacher's core/write_engine/wal.LogManager, reduced to the single hook
// this core's contract actually exercises: Flush must precede write-back.
// Log record format, replay, and crash recovery are out of scope (§1).
package wal

import (
	"fmt"
	"os"
	"sync"

	"go.uber.org/zap"
)

// LogManager appends opaque records to a single append-only file and
// exposes Flush, which the buffer pool calls before writing a dirty page
// back to disk.
type LogManager struct {
	mu   sync.Mutex
	file *os.File
	log  *zap.Logger
}

// Open opens (creating if necessary) an append-only log file at path.
func Open(path string, log *zap.Logger) (*LogManager, error) {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("opening wal file %s: %w", path, err)
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &LogManager{file: f, log: log}, nil
}

// Append writes a record's bytes to the log without flushing.
func (lm *LogManager) Append(record []byte) error {
	lm.mu.Lock()
	defer lm.mu.Unlock()
	if _, err := lm.file.Write(record); err != nil {
		return fmt.Errorf("appending wal record: %w", err)
	}
	return nil
}

// Flush fsyncs the log file, making every record appended so far durable.
// The buffer pool calls this immediately before flushing a dirty page,
// per the write-ahead rule: log before data.
func (lm *LogManager) Flush() error {
	lm.mu.Lock()
	defer lm.mu.Unlock()
	if err := lm.file.Sync(); err != nil {
		return fmt.Errorf("flushing wal: %w", err)
	}
	lm.log.Debug("wal flushed")
	return nil
}

// Close flushes and closes the log file.
func (lm *LogManager) Close() error {
	if err := lm.Flush(); err != nil {
		return err
	}
	lm.mu.Lock()
	defer lm.mu.Unlock()
	return lm.file.Close()
}
