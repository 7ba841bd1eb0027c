// Package notify is the user-facing notification sink. The API layer is the
// single place that emits one notification per failure; feature code may
// still inspect the returned error but must not notify again.
package notify

import (
	"sync"

	"github.com/rs/zerolog"
)

// Notifier receives user-visible messages.
type Notifier interface {
	Success(message string)
	Error(message string)
}

// LogNotifier writes notifications through a zerolog logger.
type LogNotifier struct {
	logger zerolog.Logger
}

// NewLogNotifier creates a Notifier backed by the given logger.
func NewLogNotifier(logger zerolog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) Success(message string) {
	n.logger.Info().Str("kind", "success").Msg(message)
}

func (n *LogNotifier) Error(message string) {
	n.logger.Error().Str("kind", "error").Msg(message)
}

// Recorder captures notifications for assertions in tests.
type Recorder struct {
	mu        sync.Mutex
	successes []string
	errors    []string
}

func NewRecorder() *Recorder {
	return &Recorder{}
}

func (r *Recorder) Success(message string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.successes = append(r.successes, message)
}

func (r *Recorder) Error(message string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.errors = append(r.errors, message)
}

func (r *Recorder) Successes() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.successes...)
}

func (r *Recorder) Errors() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.errors...)
}
