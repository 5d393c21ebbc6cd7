package dispatch

import (
	"context"
	"io"
	"log"
	"strconv"
	"sync"
	"testing"
	"time"

	"uml-nli-be/pkg/intent"
	"uml-nli-be/pkg/navigation"
	"uml-nli-be/pkg/nli"
	"uml-nli-be/pkg/operation"
	"uml-nli-be/pkg/store"
)

const testServerURL = "http://nli.test"

type fakeService struct {
	mu          sync.Mutex
	live        bool
	label       string
	classifyErr error
	slots       map[intent.Intent]intent.Slots
	extractErr  error
	ids         map[string]string
	calls       []string
	onClassify  func()
}

func newFakeService(label string) *fakeService {
	return &fakeService{
		live:  true,
		label: label,
		slots: map[intent.Intent]intent.Slots{},
		ids:   map[string]string{"root": "root-1"},
	}
}

func (f *fakeService) record(call string) {
	f.mu.Lock()
	f.calls = append(f.calls, call)
	f.mu.Unlock()
}

func (f *fakeService) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func (f *fakeService) BaseURL() string { return testServerURL }

func (f *fakeService) Ping(context.Context, time.Duration) bool {
	f.record("ping")
	return f.live
}

func (f *fakeService) Classify(context.Context, string) (nli.Classification, error) {
	f.record("classify")
	if f.onClassify != nil {
		f.onClassify()
	}
	if f.classifyErr != nil {
		return nli.Classification{}, f.classifyErr
	}
	return nli.Classification{Intent: intent.Parse(f.label), Label: f.label}, nil
}

func (f *fakeService) ExtractSlots(_ context.Context, _ string, in intent.Intent, _ *store.ModelSnapshot) (intent.Slots, error) {
	f.record("extract:" + in.String())
	if f.extractErr != nil {
		return nil, f.extractErr
	}
	if s, ok := f.slots[in]; ok {
		return s, nil
	}
	return intent.Slots{}, nil
}

func (f *fakeService) FindID(_ context.Context, name, category string, _ *store.ModelSnapshot) (string, error) {
	f.record("find:" + category + ":" + name)
	return f.ids[name], nil
}

type fakeSessions struct {
	mu       sync.Mutex
	sessions map[string]*store.Session
}

func (s *fakeSessions) Get(id string) (*store.Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	return sess, ok
}

func (s *fakeSessions) Delete(id string) {
	s.mu.Lock()
	delete(s.sessions, id)
	s.mu.Unlock()
}

type fakeHistory struct {
	mu      sync.Mutex
	entries map[string][]store.QueryHistoryEntry
}

func (h *fakeHistory) Append(_ context.Context, sid string, e store.QueryHistoryEntry) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.entries[sid] = append(h.entries[sid], e)
	return nil
}

func (h *fakeHistory) List(_ context.Context, sid string) ([]store.QueryHistoryEntry, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]store.QueryHistoryEntry(nil), h.entries[sid]...), nil
}

type recordingEmitter struct {
	mu   sync.Mutex
	sent []operation.Envelope
	// reject, when set, refuses a message before it is recorded.
	reject func(msg operation.Message) error
}

func (e *recordingEmitter) Emit(_ context.Context, sid string, msg operation.Message) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.reject != nil {
		if err := e.reject(msg); err != nil {
			return err
		}
	}
	e.sent = append(e.sent, operation.Envelope{SessionID: sid, Message: msg})
	return nil
}

func (e *recordingEmitter) Operations() []operation.Operation {
	e.mu.Lock()
	defer e.mu.Unlock()
	var out []operation.Operation
	for _, env := range e.sent {
		if op, ok := env.Message.(operation.Operation); ok {
			out = append(out, op)
		}
	}
	return out
}

func (e *recordingEmitter) OfKind(kind string) []operation.Message {
	e.mu.Lock()
	defer e.mu.Unlock()
	var out []operation.Message
	for _, env := range e.sent {
		if env.Message.Kind() == kind {
			out = append(out, env.Message)
		}
	}
	return out
}

type harness struct {
	svc      *fakeService
	sessions *fakeSessions
	history  *fakeHistory
	nav      *navigation.History
	emitter  *recordingEmitter
	d        *Dispatcher
	sess     *store.Session
}

func newHarness(t *testing.T, svc *fakeService, refreshDelay time.Duration) *harness {
	t.Helper()

	sess := store.NewSession("s-1", time.Now())
	h := &harness{
		svc:      svc,
		sessions: &fakeSessions{sessions: map[string]*store.Session{"s-1": sess}},
		history:  &fakeHistory{entries: map[string][]store.QueryHistoryEntry{}},
		nav:      navigation.NewHistory(),
		emitter:  &recordingEmitter{},
		sess:     sess,
	}

	ids := 0
	h.d = New(svc, h.sessions, h.history, h.nav, h.emitter,
		Config{PingTimeout: time.Second, RefreshDelay: refreshDelay},
		log.New(io.Discard, "", 0),
		WithIDGenerator(func() string {
			ids++
			return "q-" + strconv.Itoa(ids)
		}),
	)
	t.Cleanup(h.d.Close)
	return h
}

func focusOn(id, kind string) *store.FocusState {
	return &store.FocusState{ElementID: id, ElementKind: kind}
}
