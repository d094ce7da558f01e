// Package notify carries short user-facing messages (the outcome of a create
// or delete) from the mutation handlers to whatever front end shows them.
package notify

import (
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Level classifies a notification.
type Level string

const (
	LevelSuccess Level = "success"
	LevelError   Level = "error"
	LevelInfo    Level = "info"
)

// Notification is one transient message for the user.
type Notification struct {
	Level   Level
	Message string
	At      time.Time
}

// Notifier receives notifications.
type Notifier interface {
	Notify(n Notification)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(Notification)

// Notify calls f(n).
func (f NotifierFunc) Notify(n Notification) { f(n) }

// Success builds a success notification stamped now.
func Success(msg string) Notification {
	return Notification{Level: LevelSuccess, Message: msg, At: time.Now()}
}

// Error builds an error notification stamped now.
func Error(msg string) Notification {
	return Notification{Level: LevelError, Message: msg, At: time.Now()}
}

// Queue buffers notifications until drained. Safe for concurrent use.
type Queue struct {
	mu    sync.Mutex
	items []Notification
}

// Notify appends n.
func (q *Queue) Notify(n Notification) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.items = append(q.items, n)
}

// Drain returns and clears the buffered notifications.
func (q *Queue) Drain() []Notification {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := q.items
	q.items = nil
	return out
}

// Len reports how many notifications are buffered.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Log writes notifications to a zerolog logger: errors at error level,
// everything else at info.
type Log struct {
	Logger zerolog.Logger
}

// Notify logs n.
func (l Log) Notify(n Notification) {
	ev := l.Logger.Info()
	if n.Level == LevelError {
		ev = l.Logger.Error()
	}
	ev.Str("level_hint", string(n.Level)).Time("at", n.At).Msg(n.Message)
}

// Multi fans a notification out to every notifier.
type Multi []Notifier

// Notify forwards n to each notifier in order.
func (m Multi) Notify(n Notification) {
	for _, target := range m {
		if target != nil {
			target.Notify(n)
		}
	}
}
