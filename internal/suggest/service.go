package suggest

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redmonkez12/anonify/internal/logging"
)

var ErrEmptyCompletion = errors.New("no text generated")

// Outcomes reported to the Recorder.
const (
	OutcomeGenerated = "generated"
	OutcomeFallback  = "fallback"
)

// Generator produces free text for a prompt.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Recorder counts how suggestions were served. A nil Recorder is allowed.
type Recorder interface {
	SuggestionServed(outcome string)
}

type Service struct {
	generator Generator
	processor *Processor
	timeout   time.Duration
	logger    *logging.Logger
	recorder  Recorder
}

func NewService(generator Generator, processor *Processor, timeout time.Duration, logger *logging.Logger, recorder Recorder) *Service {
	return &Service{
		generator: generator,
		processor: processor,
		timeout:   timeout,
		logger:    logger,
		recorder:  recorder,
	}
}

// Suggest always returns exactly three suggestions. Generation failures and
// panics are absorbed into the fixed fallback set.
func (s *Service) Suggest(ctx context.Context, message string) (suggestions []string) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("suggestion generation panicked", "panic", fmt.Sprint(r))
			suggestions = Fallback()
			s.record(OutcomeFallback)
		}
	}()

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	text, err := s.generator.Generate(ctx, s.processor.Prompt(message))
	if err == nil && strings.TrimSpace(text) == "" {
		err = ErrEmptyCompletion
	}
	if err != nil {
		s.logger.Warn("suggestion generation failed, serving fallback", "error", err.Error())
		s.record(OutcomeFallback)
		return Fallback()
	}

	s.record(OutcomeGenerated)
	return s.processor.Process(text)
}

// Throttled serves the fallback set without calling the generator.
func (s *Service) Throttled() []string {
	s.record(OutcomeFallback)
	return Fallback()
}

func (s *Service) record(outcome string) {
	if s.recorder != nil {
		s.recorder.SuggestionServed(outcome)
	}
}
