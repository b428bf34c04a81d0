package logger

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Transcript appends a plain-text record of an interview session to a
// per-day log file. Files rotate when the date changes so a long-running
// session never grows a single unbounded file.
type Transcript struct {
	baseDir     string
	mu          sync.Mutex
	file        *os.File
	currentDate string
}

func NewTranscript(baseDir string) *Transcript {
	if baseDir == "" {
		baseDir = filepath.Join("logs", "sessions")
	}
	return &Transcript{baseDir: baseDir}
}

// writer returns the open file for today, rotating if the date changed.
func (t *Transcript) writer() *os.File {
	date := time.Now().Format("2006-01-02")
	if t.file != nil && date == t.currentDate {
		return t.file
	}

	if t.file != nil {
		t.file.Close()
		t.file = nil
	}

	if err := os.MkdirAll(t.baseDir, 0755); err != nil {
		Errorf("Failed to create transcript directory: %v", err)
		return nil
	}

	path := filepath.Join(t.baseDir, fmt.Sprintf("%s.log", date))
	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		Errorf("Failed to open transcript file %s: %v", path, err)
		return nil
	}

	t.file = file
	t.currentDate = date
	return file
}

func (t *Transcript) append(entry string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	writer := t.writer()
	if writer == nil {
		return
	}

	timestamp := time.Now().Format("15:04:05")
	if _, err := writer.WriteString(fmt.Sprintf("[%s] %s\n", timestamp, entry)); err != nil {
		Errorf("Failed to write transcript entry: %v", err)
	}
}

// User records a message typed by the interviewer.
func (t *Transcript) User(text string) {
	t.append(fmt.Sprintf("<user> %s", text))
}

// Assistant records the agent's reply.
func (t *Transcript) Assistant(text string) {
	t.append(fmt.Sprintf("<assistant> %s", text))
}

// Event records session-level events such as history clears.
func (t *Transcript) Event(text string) {
	t.append(fmt.Sprintf("* %s", text))
}

// Close flushes and closes the current transcript file.
func (t *Transcript) Close() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.file != nil {
		t.file.Close()
		t.file = nil
	}
}
