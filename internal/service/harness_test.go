package service

import (
	"context"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"uml-nli-be/internal/pkg/logger"
	"uml-nli-be/internal/repository/memory"
	"uml-nli-be/pkg/dispatch"
	"uml-nli-be/pkg/navigation"
	"uml-nli-be/pkg/nli"
	"uml-nli-be/pkg/operation"
)

// fakeNli stands in for the classification service.
type fakeNli struct {
	mu     sync.Mutex
	label  string
	slots  map[string]interface{}
	paths  []string
	server *httptest.Server
}

func newFakeNli(t *testing.T, label string) *fakeNli {
	t.Helper()
	f := &fakeNli{label: label, slots: map[string]interface{}{}}
	f.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.paths = append(f.paths, r.URL.Path)
		label, slots := f.label, f.slots
		f.mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/ping":
			w.WriteHeader(http.StatusNoContent)
		case "/intent/":
			json.NewEncoder(w).Encode(map[string]string{"intent": label})
		case "/find-id":
			json.NewEncoder(w).Encode(map[string]string{"id": "root-1"})
		default:
			json.NewEncoder(w).Encode(slots)
		}
	}))
	t.Cleanup(f.server.Close)
	return f
}

func (f *fakeNli) set(label string, slots map[string]interface{}) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.label = label
	f.slots = slots
}

// recordingEmitter keeps every message per session.
type recordingEmitter struct {
	mu   sync.Mutex
	msgs map[string][]operation.Message
}

func newRecordingEmitter() *recordingEmitter {
	return &recordingEmitter{msgs: map[string][]operation.Message{}}
}

func (e *recordingEmitter) Emit(_ context.Context, sessionID string, msg operation.Message) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.msgs[sessionID] = append(e.msgs[sessionID], msg)
	return nil
}

func (e *recordingEmitter) kinds(sessionID string) []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	var out []string
	for _, m := range e.msgs[sessionID] {
		out = append(out, m.Kind())
	}
	return out
}

type alwaysConnected struct{}

func (alwaysConnected) Connected(string) bool { return true }

type serviceHarness struct {
	nli      *fakeNli
	sessions *memory.SessionRepository
	emitter  *recordingEmitter
	svc      ISessionService
}

func newServiceHarness(t *testing.T, label string) *serviceHarness {
	t.Helper()
	fake := newFakeNli(t, label)
	client := nli.NewClient(fake.server.URL, 5*time.Second)
	sessions := memory.NewSessionRepository(time.Hour)
	emitter := newRecordingEmitter()

	d := dispatch.New(
		client,
		sessions,
		memory.NewQueryHistoryRepository(time.Hour),
		navigation.NewHistory(),
		emitter,
		dispatch.Config{PingTimeout: time.Second, RefreshDelay: time.Hour},
		log.New(io.Discard, "", 0),
	)
	t.Cleanup(d.Close)

	return &serviceHarness{
		nli:      fake,
		sessions: sessions,
		emitter:  emitter,
		svc:      NewSessionService(d, sessions, alwaysConnected{}, client, logger.NewNopLogger()),
	}
}
