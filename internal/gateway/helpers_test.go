package gateway

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/matthewhand/hivepace/internal/history"
)

// stubStatus is a fixed-value StatusSource.
type stubStatus struct {
	active  int
	tracked int
}

func (s stubStatus) ActiveChannels() int  { return s.active }
func (s stubStatus) TrackedChannels() int { return s.tracked }

// stubStore is an in-memory HistoryReader.
type stubStore struct {
	entries map[string][]history.Entry
	err     error
}

func (s *stubStore) Conversations(_ context.Context) ([]string, error) {
	if s.err != nil {
		return nil, s.err
	}
	keys := make([]string, 0, len(s.entries))
	for k := range s.entries {
		keys = append(keys, k)
	}
	return keys, nil
}

func (s *stubStore) Recent(_ context.Context, conversation string, n int) ([]history.Entry, error) {
	if s.err != nil {
		return nil, s.err
	}
	entries := s.entries[conversation]
	if len(entries) > n {
		entries = entries[len(entries)-n:]
	}
	return entries, nil
}

func (s *stubStore) Count(_ context.Context, conversation string) (int, error) {
	if s.err != nil {
		return 0, s.err
	}
	return len(s.entries[conversation]), nil
}

func (s *stubStore) CountSince(_ context.Context, since time.Time) (int, error) {
	if s.err != nil {
		return 0, s.err
	}
	n := 0
	for _, entries := range s.entries {
		for _, e := range entries {
			if !e.CreatedAt.Before(since) {
				n++
			}
		}
	}
	return n, nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// serve routes a request through the gateway's router and returns the
// recorded response.
func serve(t *testing.T, g *Gateway, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	rr := httptest.NewRecorder()
	g.buildRouter().ServeHTTP(rr, req)
	return rr
}
