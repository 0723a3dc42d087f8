// Package logger provides a thread-safe in-memory feed of user-visible
// notices. Every failure the user must see (rejected wallet, reverted
// transaction, unreachable ledger) lands here and is streamed to the page.
package logger

import (
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Message represents a single notice
type Message struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	Text      string    `json:"text"`
	Level     string    `json:"level"` // info, warning, error
}

// Logger manages in-memory notices
type Logger struct {
	mu       sync.RWMutex
	messages []Message
	maxSize  int
	echo     bool
}

// New creates a new logger with specified max message count
func New(maxSize int) *Logger {
	if maxSize <= 0 {
		maxSize = 1
	}
	return &Logger{
		messages: make([]Message, 0, maxSize),
		maxSize:  maxSize,
		echo:     true,
	}
}

// Quiet stops notices from being echoed to the process log.
func (l *Logger) Quiet() *Logger {
	l.mu.Lock()
	l.echo = false
	l.mu.Unlock()
	return l
}

// Log adds a new message to the logger
func (l *Logger) Log(level, text string) Message {
	l.mu.Lock()
	defer l.mu.Unlock()

	msg := Message{
		ID:        uuid.NewString(),
		Timestamp: time.Now(),
		Text:      text,
		Level:     level,
	}

	l.messages = append(l.messages, msg)

	// Keep only the last maxSize messages
	if len(l.messages) > l.maxSize {
		l.messages = l.messages[len(l.messages)-l.maxSize:]
	}

	if l.echo {
		log.Printf("notice [%s]: %s", level, text)
	}
	return msg
}

// Info logs an info-level message
func (l *Logger) Info(text string) {
	l.Log("info", text)
}

// Warning logs a warning-level message
func (l *Logger) Warning(text string) {
	l.Log("warning", text)
}

// Error logs an error-level message
func (l *Logger) Error(text string) {
	l.Log("error", text)
}

// GetRecent returns the most recent n messages (newest first)
func (l *Logger) GetRecent(n int) []Message {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if n > len(l.messages) {
		n = len(l.messages)
	}

	result := make([]Message, n)
	for i := 0; i < n; i++ {
		result[i] = l.messages[len(l.messages)-1-i]
	}

	return result
}

// GetAll returns all messages (newest first)
func (l *Logger) GetAll() []Message {
	l.mu.RLock()
	n := len(l.messages)
	l.mu.RUnlock()
	return l.GetRecent(n)
}

// After returns the messages logged after the one with the given id,
// oldest first. An unknown or empty id (for example one already evicted)
// returns everything held.
func (l *Logger) After(id string) []Message {
	l.mu.RLock()
	defer l.mu.RUnlock()

	start := 0
	for i := len(l.messages) - 1; i >= 0; i-- {
		if l.messages[i].ID == id {
			start = i + 1
			break
		}
	}

	out := make([]Message, len(l.messages)-start)
	copy(out, l.messages[start:])
	return out
}
