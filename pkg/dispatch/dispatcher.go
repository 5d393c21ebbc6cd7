package dispatch

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"uml-nli-be/pkg/history"
	"uml-nli-be/pkg/intent"
	"uml-nli-be/pkg/navigation"
	"uml-nli-be/pkg/nli"
	"uml-nli-be/pkg/operation"
	"uml-nli-be/pkg/resolver"
	"uml-nli-be/pkg/store"

	"github.com/google/uuid"
)

// IntentService is the classification service as seen by the dispatcher.
type IntentService interface {
	resolver.Finder
	Ping(ctx context.Context, timeout time.Duration) bool
	Classify(ctx context.Context, text string) (nli.Classification, error)
	ExtractSlots(ctx context.Context, text string, in intent.Intent, snap *store.ModelSnapshot) (intent.Slots, error)
	BaseURL() string
}

type SessionStore interface {
	Get(sessionID string) (*store.Session, bool)
	Delete(sessionID string)
}

type HistoryStore interface {
	Append(ctx context.Context, sessionID string, entry store.QueryHistoryEntry) error
	List(ctx context.Context, sessionID string) ([]store.QueryHistoryEntry, error)
}

type Config struct {
	PingTimeout  time.Duration
	RefreshDelay time.Duration
}

// Outcome describes one finished cycle.
type Outcome struct {
	QueryID    string                `json:"query_id"`
	Intent     string                `json:"intent,omitempty"`
	States     []State               `json:"states"`
	Operations []operation.Operation `json:"-"`
	ErrorKind  ErrorKind             `json:"error_kind,omitempty"`
}

// Dispatcher turns a natural-language query into diagram operations for the
// session it was submitted to.
type Dispatcher struct {
	svc       IntentService
	resolver  *resolver.ReferenceResolver
	sessions  SessionStore
	history   HistoryStore
	nav       *navigation.History
	emitter   operation.Emitter
	refresher *Refresher
	logger    *log.Logger
	cfg       Config

	now   func() time.Time
	newID func() string
}

type Option func(*Dispatcher)

func WithClock(now func() time.Time) Option {
	return func(d *Dispatcher) { d.now = now }
}

func WithIDGenerator(newID func() string) Option {
	return func(d *Dispatcher) { d.newID = newID }
}

func New(
	svc IntentService,
	sessions SessionStore,
	historyStore HistoryStore,
	nav *navigation.History,
	emitter operation.Emitter,
	cfg Config,
	logger *log.Logger,
	opts ...Option,
) *Dispatcher {
	d := &Dispatcher{
		svc:       svc,
		resolver:  resolver.NewReferenceResolver(svc),
		sessions:  sessions,
		history:   historyStore,
		nav:       nav,
		emitter:   emitter,
		refresher: NewRefresher(emitter, cfg.RefreshDelay, logger),
		logger:    logger,
		cfg:       cfg,
		now:       time.Now,
		newID:     uuid.NewString,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

func (d *Dispatcher) session(sessionID string) (*store.Session, error) {
	sess, ok := d.sessions.Get(sessionID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, sessionID)
	}
	return sess, nil
}

// Submit runs one query cycle for typed text.
func (d *Dispatcher) Submit(ctx context.Context, sessionID, text string) (*Outcome, error) {
	sess, err := d.session(sessionID)
	if err != nil {
		return nil, err
	}
	return d.submit(ctx, sess, text, d.newID())
}

// SubmitTranscript runs a cycle for transcribed speech. The recording id
// becomes the history entry id so the audio and the query can be matched.
func (d *Dispatcher) SubmitTranscript(ctx context.Context, sessionID, recordingID, text string) (*Outcome, error) {
	sess, err := d.session(sessionID)
	if err != nil {
		return nil, err
	}
	if recordingID == "" {
		recordingID = d.newID()
	}
	return d.submit(ctx, sess, text, recordingID)
}

// Resubmit runs a cycle for a query taken from the session's history.
func (d *Dispatcher) Resubmit(ctx context.Context, sessionID, entryID string) (*Outcome, error) {
	sess, err := d.session(sessionID)
	if err != nil {
		return nil, err
	}
	entries, err := d.history.List(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	entry, ok := history.Lookup(entries, entryID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrEntryNotFound, entryID)
	}
	return d.submit(ctx, sess, entry.Text, d.newID())
}

func (d *Dispatcher) submit(ctx context.Context, sess *store.Session, text, queryID string) (*Outcome, error) {
	recordedAt := d.now()
	if !sess.BeginQuery(store.PendingQuery{ID: queryID, SessionID: sess.ID, Text: text, RecordedAt: recordedAt}) {
		return nil, ErrQueryInFlight
	}
	defer sess.EndQuery()

	m := newMachine(sess.ID, d.logger)
	out := &Outcome{QueryID: queryID}

	// Guard failures go from Idle straight to Errored.
	if strings.TrimSpace(text) == "" {
		return d.fail(ctx, sess, m, out, ErrInputEmpty, false)
	}
	if !d.svc.Ping(ctx, d.cfg.PingTimeout) {
		return d.fail(ctx, sess, m, out, fmt.Errorf("%w: ping failed", nli.ErrServiceUnavailable), false)
	}
	m.mustTo(StateSubmitting)

	entry := store.QueryHistoryEntry{ID: queryID, Timestamp: recordedAt, Text: text}
	if err := d.history.Append(ctx, sess.ID, entry); err != nil {
		d.logger.Printf("[DISPATCH] %s: failed to record history entry: %v", sess.ID, err)
	}

	m.mustTo(StateClassifying)
	cls, err := d.svc.Classify(ctx, text)
	if err != nil {
		return d.fail(ctx, sess, m, out, err, true)
	}
	out.Intent = cls.Intent.String()

	if cls.Intent == intent.Unknown {
		d.logger.Printf("[DISPATCH] %s: discarding unknown intent %q", sess.ID, cls.Label)
		out.ErrorKind = KindUnknownIntent
		m.mustTo(StateIdle)
		d.finishCycle(ctx, sess, true)
		out.States = m.Trace()
		return out, nil
	}

	focus := sess.Focus()
	if cls.Intent.NeedsFocus() && focus == nil {
		return d.fail(ctx, sess, m, out, fmt.Errorf("%w: %s", ErrPreconditionUnmet, cls.Intent), true)
	}

	ops, err := d.handle(ctx, m, cls.Intent, text, focus, sess.Snapshot())
	if err != nil {
		return d.fail(ctx, sess, m, out, err, true)
	}

	m.mustTo(StateEmitting)
	for _, op := range ops {
		if err := d.emitter.Emit(ctx, sess.ID, op); err != nil {
			// The model may already have changed.
			if len(out.Operations) > 0 {
				d.refresher.Schedule(sess.ID)
			}
			return d.fail(ctx, sess, m, out, fmt.Errorf("%w: %s: %v", ErrEmitFailed, op.Kind(), err), true)
		}
		out.Operations = append(out.Operations, op)
	}
	d.applyOptimisticFocus(sess, focus, ops)

	m.mustTo(StateRefreshing)
	d.refresher.Schedule(sess.ID)
	m.mustTo(StateIdle)

	d.finishCycle(ctx, sess, true)
	out.States = m.Trace()
	return out, nil
}

// handle maps a classified intent to its operations. Intents that need an id
// the focus cannot provide move the cycle into Resolving.
func (d *Dispatcher) handle(ctx context.Context, m *machine, in intent.Intent, text string, focus *store.FocusState, snap *store.ModelSnapshot) ([]operation.Operation, error) {
	switch in {
	case intent.CreateContainer:
		m.mustTo(StateResolving)
		root, err := d.resolver.ResolveRoot(ctx, snap)
		if err != nil {
			return nil, err
		}
		slots, err := d.svc.ExtractSlots(ctx, text, in, snap)
		if err != nil {
			return nil, err
		}
		c, err := intent.DecodeCreateContainer(slots)
		if err != nil {
			return nil, err
		}
		typeID, known := lookupContainerType(c.ElementType)
		if !known {
			d.logger.Printf("[DISPATCH] %s: unknown container type %q, using %s", m.sessionID, c.ElementType, typeID)
		}
		return []operation.Operation{operation.CreateNode{
			ElementTypeID: typeID,
			ContainerID:   root.ID,
			Location:      &operation.Point{X: 0, Y: 0},
			Args: map[string]interface{}{
				"name":        c.ElementName,
				"is_abstract": c.IsAbstract,
			},
		}}, nil

	case intent.AddAttribute:
		v, err := d.extractValue(ctx, in, text, snap)
		if err != nil {
			return nil, err
		}
		return attributeNodes(focus.ElementID, focus.ElementKind, v), nil

	case intent.AddMethod:
		v, err := d.extractValue(ctx, in, text, snap)
		if err != nil {
			return nil, err
		}
		return []operation.Operation{operation.CreateNode{
			ElementTypeID: ElementOperation,
			ContainerID:   focus.ElementID,
			Args: map[string]interface{}{
				"name":       v.ElementName,
				"visibility": v.ValueVisibility,
			},
		}}, nil

	case intent.ChangeName, intent.ChangeVisibility:
		u, err := d.extractUpdate(ctx, in, text, snap)
		if err != nil {
			return nil, err
		}
		property := PropertyName
		if in == intent.ChangeVisibility {
			property = PropertyVisibility
		}
		return []operation.Operation{operation.UpdateProperty{
			ElementID:  focus.ElementID,
			PropertyID: property,
			Value:      u.NewValue,
		}}, nil

	case intent.ChangeDatatype:
		u, err := d.extractUpdate(ctx, in, text, snap)
		if err != nil {
			return nil, err
		}
		m.mustTo(StateResolving)
		typeRef, err := d.resolver.ResolveID(ctx, u.NewValue, resolver.CategoryClass, snap)
		if err != nil {
			return nil, err
		}
		return []operation.Operation{operation.UpdateProperty{
			ElementID:  focus.ElementID,
			PropertyID: PropertyType,
			Value:      typeRef.ID,
		}}, nil

	case intent.AddRelation:
		slots, err := d.svc.ExtractSlots(ctx, text, in, snap)
		if err != nil {
			return nil, err
		}
		r, err := intent.DecodeRelation(slots)
		if err != nil {
			return nil, err
		}
		return []operation.Operation{operation.CreateEdge{
			ElementTypeID:   EdgeType(r.RelationType),
			SourceElementID: r.ClassFromID,
			TargetElementID: r.ClassToID,
			Args:            map[string]interface{}{"name": r.RelationName},
		}}, nil

	case intent.Delete:
		m.mustTo(StateResolving)
		slots, err := d.svc.ExtractSlots(ctx, text, in, snap)
		if err != nil {
			return nil, err
		}
		target := intent.DecodeFocus(slots).ElementID
		if target == "" && focus != nil {
			target = focus.ElementID
		}
		ids := []string{}
		if target != "" {
			ids = append(ids, target)
		}
		return []operation.Operation{operation.DeleteElement{ElementIDs: ids}}, nil

	case intent.Focus:
		m.mustTo(StateResolving)
		slots, err := d.svc.ExtractSlots(ctx, text, in, snap)
		if err != nil {
			return nil, err
		}
		target := intent.DecodeFocus(slots).ElementID
		if target == "" {
			return nil, fmt.Errorf("%w: query matched no element", resolver.ErrResolutionFailed)
		}
		return []operation.Operation{operation.SelectElement{
			SelectedIDs: []string{target},
			DeselectAll: true,
		}}, nil

	case intent.Move:
		slots, err := d.svc.ExtractSlots(ctx, text, in, snap)
		if err != nil {
			return nil, err
		}
		mv, err := intent.DecodeMove(slots)
		if err != nil {
			return nil, err
		}
		return []operation.Operation{operation.ChangeBounds{NewBounds: []operation.ElementAndBounds{{
			ElementID:   focus.ElementID,
			NewSize:     operation.EmptyDimension,
			NewPosition: operation.Point{X: *mv.X, Y: *mv.Y},
		}}}}, nil

	case intent.Undo:
		return []operation.Operation{operation.Undo{}}, nil
	}

	return nil, fmt.Errorf("%w: %s", ErrUnknownIntent, in)
}

func (d *Dispatcher) extractValue(ctx context.Context, in intent.Intent, text string, snap *store.ModelSnapshot) (intent.ValueSlots, error) {
	slots, err := d.svc.ExtractSlots(ctx, text, in, snap)
	if err != nil {
		return intent.ValueSlots{}, err
	}
	return intent.DecodeValue(in, slots)
}

func (d *Dispatcher) extractUpdate(ctx context.Context, in intent.Intent, text string, snap *store.ModelSnapshot) (intent.UpdateValueSlots, error) {
	slots, err := d.svc.ExtractSlots(ctx, text, in, snap)
	if err != nil {
		return intent.UpdateValueSlots{}, err
	}
	return intent.DecodeUpdateValue(in, slots)
}

// applyOptimisticFocus mirrors selection changes the editor is about to
// report, so a follow-up query can target the new element right away.
func (d *Dispatcher) applyOptimisticFocus(sess *store.Session, prev *store.FocusState, ops []operation.Operation) {
	for _, op := range ops {
		switch o := op.(type) {
		case operation.SelectElement:
			if len(o.SelectedIDs) == 0 {
				continue
			}
			to := store.ElementRef{ID: o.SelectedIDs[0]}
			var from *store.ElementRef
			if prev != nil {
				r := prev.Ref()
				from = &r
			}
			d.nav.RecordTransition(sess.ID, from, to)
			sess.SetFocus(&store.FocusState{ElementID: to.ID})
		case operation.DeleteElement:
			if prev == nil {
				continue
			}
			for _, id := range o.ElementIDs {
				if id == prev.ElementID {
					sess.SetFocus(nil)
					d.nav.ResetIfFocusChanged(sess.ID, nil)
				}
			}
		}
	}
}

func (d *Dispatcher) fail(ctx context.Context, sess *store.Session, m *machine, out *Outcome, err error, passedGuards bool) (*Outcome, error) {
	kind := KindOf(err)
	m.mustTo(StateErrored)
	out.ErrorKind = kind
	d.logger.Printf("[DISPATCH] %s: cycle failed (%s): %v", sess.ID, kind, err)

	if kind != KindUnknownIntent {
		d.notify(ctx, sess.ID, operation.NliError{Message: userMessage(kind, d.svc.BaseURL())})
	}

	m.mustTo(StateIdle)
	d.finishCycle(ctx, sess, passedGuards)
	out.States = m.Trace()
	return out, err
}

// finishCycle exports the history and resets the recording indicator. A cycle
// rejected by the submission guards leaves the history alone.
func (d *Dispatcher) finishCycle(ctx context.Context, sess *store.Session, passedGuards bool) {
	if !passedGuards {
		if sess.Recording() {
			sess.SetRecording(false)
			d.notify(ctx, sess.ID, operation.RecordingStatus{Recording: false})
		}
		return
	}

	entries, err := d.history.List(ctx, sess.ID)
	if err != nil {
		d.logger.Printf("[DISPATCH] %s: failed to load history for export: %v", sess.ID, err)
	} else {
		d.notify(ctx, sess.ID, operation.ExportHistory{Entries: history.Items(entries)})
	}
	sess.SetRecording(false)
	d.notify(ctx, sess.ID, operation.RecordingStatus{Recording: false})
}

func (d *Dispatcher) notify(ctx context.Context, sessionID string, msg operation.Message) {
	if err := d.emitter.Emit(ctx, sessionID, msg); err != nil {
		d.logger.Printf("[DISPATCH] %s: failed to emit %s: %v", sessionID, msg.Kind(), err)
	}
}
