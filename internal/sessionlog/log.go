// Package sessionlog mirrors a session transcript to an append-only file,
// one JSON object per line so the file stays both human-readable and
// machine-recoverable.
package sessionlog

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Entry is one logged transcript line.
type Entry struct {
	Role     string    `json:"role"`
	Content  string    `json:"content"`
	LoggedAt time.Time `json:"loggedAt"`
}

// Log is the durable per-session mirror of a transcript.
type Log struct {
	mu   sync.Mutex
	path string
	file *os.File
}

// Open creates the log file for a session under dir, creating dir if needed.
func Open(dir, sessionID string) (*Log, error) {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("create log directory %s: %w", dir, err)
	}

	short := sessionID
	if len(short) > 8 {
		short = short[:8]
	}
	name := fmt.Sprintf("session_%s_%s.log", time.Now().Format("20060102_150405"), short)
	path := filepath.Join(dir, name)

	file, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY|os.O_CREATE, 0600)
	if err != nil {
		return nil, fmt.Errorf("open session log %s: %w", path, err)
	}

	return &Log{path: path, file: file}, nil
}

// Path returns the location of the log file.
func (l *Log) Path() string {
	return l.path
}

// Append writes one transcript line and flushes it to disk.
func (l *Log) Append(role, content string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.file == nil {
		return fmt.Errorf("session log %s is closed", l.path)
	}

	data, err := json.Marshal(Entry{Role: role, Content: content, LoggedAt: time.Now().UTC()})
	if err != nil {
		return fmt.Errorf("encode session log entry: %w", err)
	}

	if _, err := l.file.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("write session log %s: %w", l.path, err)
	}
	return nil
}

// Close releases the underlying file. Further appends fail.
func (l *Log) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.file == nil {
		return nil
	}
	err := l.file.Close()
	l.file = nil
	return err
}

// Read reconstructs the ordered entries of a previously written log file.
func Read(path string) ([]Entry, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open session log %s: %w", path, err)
	}
	defer file.Close()

	var entries []Entry
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var entry Entry
		if err := json.Unmarshal(line, &entry); err != nil {
			return nil, fmt.Errorf("parse session log %s: %w", path, err)
		}
		entries = append(entries, entry)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read session log %s: %w", path, err)
	}
	return entries, nil
}
