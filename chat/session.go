package chat

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/google/uuid"

	"github.com/spetersoncode/gemlink"
)

// Option configures a Session.
type Option func(*sessionConfig)

type sessionConfig struct {
	history  []gemlink.HistoryEntry
	maxTurns int
	opts     []gemlink.Option
}

// WithHistory seeds the session with prior turns. Entries must carry the user
// or model role.
func WithHistory(entries []gemlink.HistoryEntry) Option {
	return func(c *sessionConfig) {
		c.history = slices.Clone(entries)
	}
}

// WithMaxTurns keeps only the last n user/model pairs in the transcript.
// Zero keeps everything.
func WithMaxTurns(n int) Option {
	return func(c *sessionConfig) {
		c.maxTurns = n
	}
}

// WithModel sets the model used for every turn.
func WithModel(model string) Option {
	return func(c *sessionConfig) {
		c.opts = append(c.opts, gemlink.WithModel(model))
	}
}

// WithGenerationConfig sets call-override generation parameters for every
// turn.
func WithGenerationConfig(cfg map[string]any) Option {
	return func(c *sessionConfig) {
		c.opts = append(c.opts, gemlink.WithGenerationConfig(cfg))
	}
}

// WithSystemInstruction sets the system instruction for every turn.
func WithSystemInstruction(text string) Option {
	return func(c *sessionConfig) {
		c.opts = append(c.opts, gemlink.WithSystemInstruction(text))
	}
}

// Session is a single conversation. Sends are serialized, so the transcript
// always reflects call order, even with concurrent callers.
type Session struct {
	id       string
	gen      Generator
	opts     []gemlink.Option
	maxTurns int

	mu      sync.Mutex
	history []gemlink.HistoryEntry
}

// New creates a session that generates through gen.
func New(gen Generator, opts ...Option) (*Session, error) {
	if gen == nil {
		return nil, errors.New("chat: generator is required")
	}

	var cfg sessionConfig
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.maxTurns < 0 {
		return nil, &gemlink.ValidationError{Field: "max turns", Reason: fmt.Sprintf("must not be negative, got %d", cfg.maxTurns)}
	}
	if err := gemlink.ValidateHistory(cfg.history); err != nil {
		return nil, err
	}

	s := &Session{
		id:       uuid.NewString(),
		gen:      gen,
		opts:     cfg.opts,
		maxTurns: cfg.maxTurns,
		history:  cfg.history,
	}
	s.trim()
	return s, nil
}

// ID returns the session identifier.
func (s *Session) ID() string {
	return s.id
}

// SendMessage sends text with the transcript and records both turns on
// success. On failure the transcript is left unchanged.
func (s *Session) SendMessage(ctx context.Context, text string) (*Reply, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	resp, err := s.gen.GenerateTurns(ctx, slices.Clone(s.history), text, s.opts...)
	if err != nil {
		return nil, err
	}

	s.history = append(s.history, gemlink.UserEntry(text), gemlink.ModelEntry(resp.Text()))
	s.trim()
	return &Reply{Response: resp}, nil
}

// History returns a copy of the transcript.
func (s *Session) History() []gemlink.HistoryEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.history)
}

// Len returns the number of recorded turns.
func (s *Session) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.history)
}

// Reset clears the transcript.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.history = nil
}

// trim applies the window. Callers hold mu, except New.
func (s *Session) trim() {
	if s.maxTurns == 0 {
		return
	}
	if keep := 2 * s.maxTurns; len(s.history) > keep {
		s.history = slices.Clone(s.history[len(s.history)-keep:])
	}
}
