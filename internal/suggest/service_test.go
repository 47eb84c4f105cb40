package suggest

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/redmonkez12/anonify/internal/logging"
	"github.com/redmonkez12/anonify/internal/ratelimit"
)

type fakeGenerator struct {
	text       string
	err        error
	panicWith  any
	lastPrompt string
	deadline   bool
}

func (f *fakeGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	f.lastPrompt = prompt
	_, f.deadline = ctx.Deadline()
	if f.panicWith != nil {
		panic(f.panicWith)
	}
	return f.text, f.err
}

type fakeRecorder struct{ outcomes []string }

func (f *fakeRecorder) SuggestionServed(outcome string) { f.outcomes = append(f.outcomes, outcome) }

func newTestService(gen Generator, rec Recorder) *Service {
	return NewService(gen, newTestProcessor(), 5*time.Second, logging.NewDiscardLogger(), rec)
}

func TestSuggest_Generated(t *testing.T) {
	gen := &fakeGenerator{text: "walking by the river||reading until midnight||watching the sunrise"}
	rec := &fakeRecorder{}
	svc := newTestService(gen, rec)

	got := svc.Suggest(context.Background(), "Tonight I feel like")
	assert.Equal(t, []string{"walking by the river", "reading until midnight", "watching the sunrise"}, got)
	assert.Contains(t, gen.lastPrompt, `"Tonight I feel like"`)
	assert.True(t, gen.deadline, "generation runs under a timeout")
	assert.Equal(t, []string{OutcomeGenerated}, rec.outcomes)
}

func TestSuggest_FallbackPaths(t *testing.T) {
	tests := []struct {
		name string
		gen  *fakeGenerator
	}{
		{"upstream error", &fakeGenerator{err: errors.New("503 from upstream")}},
		{"missing key", &fakeGenerator{err: ErrMissingAPIKey}},
		{"empty text", &fakeGenerator{text: "   "}},
		{"panic", &fakeGenerator{panicWith: "boom"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := &fakeRecorder{}
			got := newTestService(tt.gen, rec).Suggest(context.Background(), "hello")
			assert.Equal(t, Fallback(), got)
			assert.Equal(t, []string{OutcomeFallback}, rec.outcomes)
		})
	}
}

func TestGeminiGenerator_MissingKey(t *testing.T) {
	_, err := NewGeminiGenerator("", "gemini-2.0-flash").Generate(context.Background(), "prompt")
	assert.ErrorIs(t, err, ErrMissingAPIKey)
}

func TestHandler_SuggestMessages(t *testing.T) {
	limiter := ratelimit.NewLimiter(ratelimit.NewMemoryBackend(), 100, time.Minute)

	tests := []struct {
		name   string
		gen    *fakeGenerator
		body   string
		status int
		want   string
	}{
		{"generated", &fakeGenerator{text: "1. walking by the river||2. reading until midnight"}, `{"message":"Tonight"}`, http.StatusOK,
			"walking by the river||reading until midnight||" + topUpPool[0]},
		{"upstream down", &fakeGenerator{err: errors.New("down")}, `{"message":"Tonight"}`, http.StatusOK, Join(Fallback())},
		{"empty message", &fakeGenerator{}, `{"message":""}`, http.StatusBadRequest, "Message is required"},
		{"bad body", &fakeGenerator{}, `{`, http.StatusBadRequest, "Message is required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewHandler(newTestService(tt.gen, nil), limiter)
			rec := httptest.NewRecorder()
			h.SuggestMessages(rec, httptest.NewRequest(http.MethodPost, "/api/suggest-messages", strings.NewReader(tt.body)))

			require.Equal(t, tt.status, rec.Code)
			assert.Equal(t, tt.want, rec.Body.String())
			assert.Equal(t, "text/plain; charset=utf-8", rec.Header().Get("Content-Type"))
			assert.Equal(t, "no-cache, no-store, must-revalidate", rec.Header().Get("Cache-Control"))
		})
	}
}

func TestHandler_SuggestMessages_OverBudgetServesFallback(t *testing.T) {
	limiter := ratelimit.NewLimiter(ratelimit.NewMemoryBackend(), 1, time.Minute)
	gen := &fakeGenerator{text: "walking by the river||reading until midnight||watching the sunrise"}
	outcomes := &fakeRecorder{}
	h := NewHandler(newTestService(gen, outcomes), limiter)

	send := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/suggest-messages", strings.NewReader(`{"message":"Tonight"}`))
		req.RemoteAddr = "203.0.113.7:4242"
		rec := httptest.NewRecorder()
		h.SuggestMessages(rec, req)
		return rec
	}

	first := send()
	require.Equal(t, http.StatusOK, first.Code)
	assert.Equal(t, "walking by the river||reading until midnight||watching the sunrise", first.Body.String())

	gen.lastPrompt = ""
	second := send()
	require.Equal(t, http.StatusOK, second.Code)
	assert.Len(t, strings.Split(second.Body.String(), "||"), 3)
	assert.Equal(t, Join(Fallback()), second.Body.String())
	assert.Empty(t, gen.lastPrompt, "generator is not called once the budget is spent")
	assert.Equal(t, []string{OutcomeGenerated, OutcomeFallback}, outcomes.outcomes)
}
