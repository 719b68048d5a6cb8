package advice

import (
	"context"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// Options configures a Session. Zero values fall back to the defaults.
type Options struct {
	Greeting        string
	NoAdviceMessage string
	FallbackMessage string
	Generation      GenerationConfig
	Logger          logrus.FieldLogger
}

// Session owns one chat transcript and mediates at most one outstanding provider call.
//
// The transcript starts with the greeting and only grows. Submit is rejected while a call is in
// flight; nothing is queued.
type Session struct {
	ID string

	provider   Provider
	grounding  string
	noAdvice   string
	fallback   string
	generation GenerationConfig
	log        logrus.FieldLogger

	mu    sync.Mutex
	busy  bool
	turns []Turn
}

// NewSession creates a session seeded with the greeting turn.
// grounding is the system instruction sent with every request.
func NewSession(provider Provider, grounding string, opts Options) *Session {
	if opts.Greeting == "" {
		opts.Greeting = DefaultGreeting
	}
	if opts.NoAdviceMessage == "" {
		opts.NoAdviceMessage = DefaultNoAdviceMessage
	}
	if opts.FallbackMessage == "" {
		opts.FallbackMessage = DefaultFallbackMessage
	}
	if opts.Generation == (GenerationConfig{}) {
		opts.Generation = DefaultGenerationConfig()
	}
	if opts.Logger == nil {
		opts.Logger = logrus.StandardLogger()
	}

	id := uuid.New().String()
	return &Session{
		ID:         id,
		provider:   provider,
		grounding:  grounding,
		noAdvice:   opts.NoAdviceMessage,
		fallback:   opts.FallbackMessage,
		generation: opts.Generation,
		log:        opts.Logger.WithField("session", id),
		turns:      []Turn{{Speaker: SpeakerAssistant, Text: opts.Greeting}},
	}
}

// Submit appends text as a user turn, calls the provider and appends its reply.
// It blocks until the reply (or fallback) has been appended.
//
// Returns false without touching the transcript when text is blank or another call is in flight.
func (s *Session) Submit(ctx context.Context, text string) bool {
	req, ok := s.begin(text)
	if !ok {
		return false
	}
	s.complete(ctx, req)
	return true
}

// SubmitAsync is Submit without waiting. The gate is checked and set before it returns;
// the returned channel is closed once the reply has been appended.
//
// The provider call does not inherit ctx's cancellation, so a caller going away never leaves
// the session busy.
func (s *Session) SubmitAsync(ctx context.Context, text string) (<-chan struct{}, bool) {
	req, ok := s.begin(text)
	if !ok {
		return nil, false
	}

	done := make(chan struct{})
	callCtx := context.WithoutCancel(ctx)
	go func() {
		defer close(done)
		s.complete(callCtx, req)
	}()
	return done, true
}

// Transcript returns a copy of the turns appended so far.
func (s *Session) Transcript() []Turn {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Turn, len(s.turns))
	copy(out, s.turns)
	return out
}

// Snapshot returns a copy of the transcript together with the busy flag, read atomically.
func (s *Session) Snapshot() ([]Turn, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Turn, len(s.turns))
	copy(out, s.turns)
	return out, s.busy
}

// IsBusy reports whether a provider call is in flight.
func (s *Session) IsBusy() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.busy
}

// Grounding returns the system instruction sent with every request.
func (s *Session) Grounding() string {
	return s.grounding
}

func (s *Session) begin(text string) (Request, bool) {
	if strings.TrimSpace(text) == "" {
		return Request{}, false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.busy {
		s.log.Debug("submit ignored, request already in flight")
		return Request{}, false
	}

	s.turns = append(s.turns, Turn{Speaker: SpeakerUser, Text: text})
	s.busy = true
	return BuildRequest(s.turns, s.grounding, s.generation), true
}

func (s *Session) complete(ctx context.Context, req Request) {
	reply, err := s.generate(ctx, req)

	var text string
	switch {
	case err != nil:
		s.log.WithError(err).Error("advice provider call failed")
		text = s.fallback
	case strings.TrimSpace(reply) == "":
		s.log.Warn("advice provider returned no text")
		text = s.noAdvice
	default:
		text = reply
	}

	s.mu.Lock()
	s.turns = append(s.turns, Turn{Speaker: SpeakerAssistant, Text: text})
	s.busy = false
	s.mu.Unlock()
}

// generate converts provider panics into errors so a misbehaving provider cannot leave the
// session busy.
func (s *Session) generate(ctx context.Context, req Request) (reply string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.Errorf("provider panic: %v", r)
		}
	}()

	s.log.WithField("messages", len(req.Messages)).Debug("sending advice request")
	reply, err = s.provider.Generate(ctx, req)
	if err != nil {
		return "", errors.Wrap(err, "generate advice")
	}
	return reply, nil
}
