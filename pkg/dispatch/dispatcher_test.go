package dispatch

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"uml-nli-be/pkg/intent"
	"uml-nli-be/pkg/nli"
	"uml-nli-be/pkg/operation"
	"uml-nli-be/pkg/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const noRefresh = time.Hour

func TestSubmit_IntentTable(t *testing.T) {
	tests := []struct {
		name   string
		label  string
		focus  *store.FocusState
		slots  intent.Slots
		ids    map[string]string
		want   []operation.Operation
		states []State
	}{
		{
			name:  "create container under root",
			label: "CreateContainer",
			slots: intent.Slots{"element_type": "Interface", "element_name": "Drivable", "is_abstract": false},
			want: []operation.Operation{operation.CreateNode{
				ElementTypeID: ElementInterface,
				ContainerID:   "root-1",
				Location:      &operation.Point{X: 0, Y: 0},
				Args:          map[string]interface{}{"name": "Drivable", "is_abstract": false},
			}},
			states: []State{StateIdle, StateSubmitting, StateClassifying, StateResolving, StateEmitting, StateRefreshing, StateIdle},
		},
		{
			name:  "unknown container type defaults to class",
			label: "CreateContainer",
			slots: intent.Slots{"element_type": "gizmo", "element_name": "Car", "is_abstract": "true"},
			want: []operation.Operation{operation.CreateNode{
				ElementTypeID: ElementClass,
				ContainerID:   "root-1",
				Location:      &operation.Point{X: 0, Y: 0},
				Args:          map[string]interface{}{"name": "Car", "is_abstract": true},
			}},
		},
		{
			name:  "add attribute to a class",
			label: "AddAttribute",
			focus: focusOn("cls-1", ElementClass),
			slots: intent.Slots{"element_name": "speed", "value_datatype": "int", "value_visibility": "private"},
			want: []operation.Operation{operation.CreateNode{
				ElementTypeID: ElementProperty,
				ContainerID:   "cls-1",
				Args:          map[string]interface{}{"name": "speed", "type_id": "int", "visibility": "private"},
			}},
			states: []State{StateIdle, StateSubmitting, StateClassifying, StateEmitting, StateRefreshing, StateIdle},
		},
		{
			name:  "add attribute to an operation",
			label: "AddAttribute",
			focus: focusOn("op-1", ElementOperation),
			slots: intent.Slots{"element_name": "amount", "value_datatype": "double"},
			want: []operation.Operation{operation.CreateNode{
				ElementTypeID: ElementParameter,
				ContainerID:   "op-1",
				Args:          map[string]interface{}{"name": "amount", "type_id": "double"},
			}},
		},
		{
			name:  "add attribute to an enumeration",
			label: "AddAttribute",
			focus: focusOn("enum-1", ElementEnumeration),
			slots: intent.Slots{"element_name": "RED"},
			want: []operation.Operation{operation.CreateNode{
				ElementTypeID: ElementEnumerationLiteral,
				ContainerID:   "enum-1",
				Args:          map[string]interface{}{"name": "RED"},
			}},
		},
		{
			name:  "add attribute to an element of unknown kind",
			label: "AddAttribute",
			focus: focusOn("x-1", ""),
			slots: intent.Slots{"element_name": "v", "value_datatype": "t", "value_visibility": "public"},
			want: []operation.Operation{
				operation.CreateNode{ElementTypeID: ElementProperty, ContainerID: "x-1", Args: map[string]interface{}{"name": "v", "type_id": "t", "visibility": "public"}},
				operation.CreateNode{ElementTypeID: ElementParameter, ContainerID: "x-1", Args: map[string]interface{}{"name": "v", "type_id": "t"}},
				operation.CreateNode{ElementTypeID: ElementEnumerationLiteral, ContainerID: "x-1", Args: map[string]interface{}{"name": "v"}},
			},
		},
		{
			name:  "add method",
			label: "AddMethod",
			focus: focusOn("cls-1", ElementClass),
			slots: intent.Slots{"element_name": "drive", "value_visibility": "public"},
			want: []operation.Operation{operation.CreateNode{
				ElementTypeID: ElementOperation,
				ContainerID:   "cls-1",
				Args:          map[string]interface{}{"name": "drive", "visibility": "public"},
			}},
		},
		{
			name:  "change name",
			label: "ChangeName",
			focus: focusOn("cls-1", ElementClass),
			slots: intent.Slots{"new_value": "Truck"},
			want:  []operation.Operation{operation.UpdateProperty{ElementID: "cls-1", PropertyID: "name", Value: "Truck"}},
		},
		{
			name:  "change visibility",
			label: "ChangeVisibility",
			focus: focusOn("prop-1", ElementProperty),
			slots: intent.Slots{"new_value": "protected"},
			want:  []operation.Operation{operation.UpdateProperty{ElementID: "prop-1", PropertyID: "visibilityKind", Value: "protected"}},
		},
		{
			name:   "change datatype resolves the type",
			label:  "ChangeDatatype",
			focus:  focusOn("prop-1", ElementProperty),
			slots:  intent.Slots{"new_value": "Engine"},
			ids:    map[string]string{"Engine": "cls-9"},
			want:   []operation.Operation{operation.UpdateProperty{ElementID: "prop-1", PropertyID: "type", Value: "cls-9"}},
			states: []State{StateIdle, StateSubmitting, StateClassifying, StateResolving, StateEmitting, StateRefreshing, StateIdle},
		},
		{
			name:  "strong aggregation becomes association",
			label: "AddRelation",
			slots: intent.Slots{"relation_type": "Strong aggregation", "relation_name": "has", "class_from_id": "a", "class_to_id": "b"},
			want: []operation.Operation{operation.CreateEdge{
				ElementTypeID:   "CLASS__Association",
				SourceElementID: "a",
				TargetElementID: "b",
				Args:            map[string]interface{}{"name": "has"},
			}},
		},
		{
			name:  "delete named element",
			label: "Delete",
			focus: focusOn("cls-1", ElementClass),
			slots: intent.Slots{"element_id": "cls-2"},
			want:  []operation.Operation{operation.DeleteElement{ElementIDs: []string{"cls-2"}}},
		},
		{
			name:  "delete falls back to focus",
			label: "Delete",
			focus: focusOn("cls-1", ElementClass),
			want:  []operation.Operation{operation.DeleteElement{ElementIDs: []string{"cls-1"}}},
		},
		{
			name:  "delete with nothing to delete",
			label: "Delete",
			want:  []operation.Operation{operation.DeleteElement{ElementIDs: []string{}}},
		},
		{
			name:  "focus selects and deselects others",
			label: "Focus",
			slots: intent.Slots{"element_id": "cls-3"},
			want:  []operation.Operation{operation.SelectElement{SelectedIDs: []string{"cls-3"}, DeselectAll: true}},
		},
		{
			name:  "move keeps size",
			label: "Move",
			focus: focusOn("cls-1", ElementClass),
			slots: intent.Slots{"x_coord": 120.0, "y_coord": 80.0},
			want: []operation.Operation{operation.ChangeBounds{NewBounds: []operation.ElementAndBounds{{
				ElementID:   "cls-1",
				NewSize:     operation.EmptyDimension,
				NewPosition: operation.Point{X: 120, Y: 80},
			}}}},
		},
		{
			name:  "undo",
			label: "Undo",
			want:  []operation.Operation{operation.Undo{}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newFakeService(tt.label)
			svc.slots[intent.Parse(tt.label)] = tt.slots
			for k, v := range tt.ids {
				svc.ids[k] = v
			}
			h := newHarness(t, svc, noRefresh)
			h.sess.SetFocus(tt.focus)

			out, err := h.d.Submit(context.Background(), "s-1", "some query")
			require.NoError(t, err)

			assert.Equal(t, tt.want, h.emitter.Operations())
			assert.Equal(t, tt.want, out.Operations)
			assert.Empty(t, h.emitter.OfKind("nliError"))
			assert.Equal(t, KindNone, out.ErrorKind)
			if tt.states != nil {
				assert.Equal(t, tt.states, out.States)
			}
			assert.Equal(t, 1, h.d.refresher.Pending())
		})
	}
}

func TestSubmit_EveryIntentIsHandled(t *testing.T) {
	slots := intent.Slots{
		"element_type": "class", "element_name": "n", "new_value": "Engine",
		"relation_type": "Association", "class_from_id": "a", "class_to_id": "b",
		"element_id": "e", "x_coord": 1.0, "y_coord": 2.0,
	}
	for _, in := range intent.All() {
		t.Run(in.String(), func(t *testing.T) {
			svc := newFakeService(in.String())
			svc.slots[in] = slots
			svc.ids["Engine"] = "cls-9"
			h := newHarness(t, svc, noRefresh)
			h.sess.SetFocus(focusOn("cls-1", ElementClass))

			out, err := h.d.Submit(context.Background(), "s-1", "query")
			require.NoError(t, err)
			assert.NotEmpty(t, out.Operations)
		})
	}
}

func TestSubmit_EmptyInput(t *testing.T) {
	for _, text := range []string{"", "   \t"} {
		svc := newFakeService("Undo")
		h := newHarness(t, svc, noRefresh)

		out, err := h.d.Submit(context.Background(), "s-1", text)
		assert.ErrorIs(t, err, ErrInputEmpty)
		assert.Equal(t, KindInputEmpty, out.ErrorKind)
		assert.Equal(t, []State{StateIdle, StateErrored, StateIdle}, out.States)

		assert.Empty(t, svc.Calls())
		assert.Equal(t, []operation.Message{operation.NliError{Message: "Input text is empty, nothing todo"}}, h.emitter.OfKind("nliError"))
		assert.Empty(t, h.history.entries["s-1"])
		assert.Empty(t, h.emitter.OfKind("exportHistory"))
		assert.Equal(t, 0, h.d.refresher.Pending())
	}
}

func TestSubmit_ServiceNotLive(t *testing.T) {
	svc := newFakeService("Undo")
	svc.live = false
	h := newHarness(t, svc, noRefresh)

	out, err := h.d.Submit(context.Background(), "s-1", "undo that")
	assert.ErrorIs(t, err, nli.ErrServiceUnavailable)
	assert.Equal(t, KindServiceUnavailable, out.ErrorKind)
	assert.Equal(t, []State{StateIdle, StateErrored, StateIdle}, out.States)

	assert.Equal(t, []string{"ping"}, svc.Calls())
	assert.Equal(t,
		[]operation.Message{operation.NliError{Message: "NLI Server not ready, make sure it is running at " + testServerURL}},
		h.emitter.OfKind("nliError"))
	assert.Empty(t, h.history.entries["s-1"])
	assert.Empty(t, h.emitter.Operations())
	assert.Equal(t, 0, h.d.refresher.Pending())
}

func TestSubmit_PreconditionUnmet(t *testing.T) {
	for _, label := range []string{"AddAttribute", "AddMethod", "ChangeName", "ChangeVisibility", "ChangeDatatype", "Move"} {
		t.Run(label, func(t *testing.T) {
			svc := newFakeService(label)
			h := newHarness(t, svc, noRefresh)

			out, err := h.d.Submit(context.Background(), "s-1", "do something")
			assert.ErrorIs(t, err, ErrPreconditionUnmet)
			assert.Equal(t, KindPreconditionUnmet, out.ErrorKind)

			assert.Equal(t, []string{"ping", "classify"}, svc.Calls())
			assert.Equal(t,
				[]operation.Message{operation.NliError{Message: "Nothing selected, please make sure to select an element"}},
				h.emitter.OfKind("nliError"))
			assert.Empty(t, h.emitter.Operations())
			assert.Len(t, h.history.entries["s-1"], 1)
			assert.Len(t, h.emitter.OfKind("exportHistory"), 1)
		})
	}
}

func TestSubmit_QueryInFlightIsRejected(t *testing.T) {
	svc := newFakeService("Undo")
	h := newHarness(t, svc, noRefresh)
	require.True(t, h.sess.BeginQuery(store.PendingQuery{ID: "busy"}))

	out, err := h.d.Submit(context.Background(), "s-1", "undo")
	assert.ErrorIs(t, err, ErrQueryInFlight)
	assert.Nil(t, out)
	assert.Empty(t, svc.Calls())
	assert.Empty(t, h.emitter.sent)
	assert.Equal(t, "busy", h.sess.Pending().ID)
}

func TestSubmit_PendingSlotReleased(t *testing.T) {
	svc := newFakeService("Undo")
	h := newHarness(t, svc, noRefresh)

	_, err := h.d.Submit(context.Background(), "s-1", "undo")
	require.NoError(t, err)
	assert.Nil(t, h.sess.Pending())

	_, err = h.d.Submit(context.Background(), "s-1", "")
	require.Error(t, err)
	assert.Nil(t, h.sess.Pending())
}

func TestSubmit_HistoryAppendedBeforeClassification(t *testing.T) {
	svc := newFakeService("Undo")
	h := newHarness(t, svc, noRefresh)

	var seen int
	svc.onClassify = func() {
		entries, _ := h.history.List(context.Background(), "s-1")
		seen = len(entries)
	}
	svc.classifyErr = fmt.Errorf("%w: boom", nli.ErrRequestFailed)

	_, err := h.d.Submit(context.Background(), "s-1", "undo")
	assert.ErrorIs(t, err, nli.ErrRequestFailed)
	assert.Equal(t, 1, seen)
	assert.Equal(t, "q-1", h.history.entries["s-1"][0].ID)
}

func TestSubmit_UnknownIntentIsSilent(t *testing.T) {
	svc := newFakeService("Sing")
	h := newHarness(t, svc, noRefresh)

	out, err := h.d.Submit(context.Background(), "s-1", "sing a song")
	require.NoError(t, err)
	assert.Equal(t, KindUnknownIntent, out.ErrorKind)
	assert.Equal(t, []State{StateIdle, StateSubmitting, StateClassifying, StateIdle}, out.States)

	assert.Empty(t, h.emitter.Operations())
	assert.Empty(t, h.emitter.OfKind("nliError"))
	assert.Equal(t, 0, h.d.refresher.Pending())
	assert.Len(t, h.emitter.OfKind("exportHistory"), 1)
}

func TestSubmit_ExternalErrors(t *testing.T) {
	tests := []struct {
		name     string
		label    string
		focus    *store.FocusState
		classify error
		extract  error
		slots    intent.Slots
		wantKind ErrorKind
		wantErr  error
	}{
		{name: "classify timeout", label: "Undo", classify: fmt.Errorf("%w: slow", nli.ErrTimeout), wantKind: KindTimeout, wantErr: nli.ErrTimeout},
		{name: "classify refused", label: "Undo", classify: fmt.Errorf("%w: refused", nli.ErrServiceUnavailable), wantKind: KindServiceUnavailable, wantErr: nli.ErrServiceUnavailable},
		{name: "extract fails", label: "AddRelation", extract: fmt.Errorf("%w: 500", nli.ErrRequestFailed), wantKind: KindRequestFailed, wantErr: nli.ErrRequestFailed},
		{name: "slots malformed", label: "Move", focus: focusOn("c", ElementClass), slots: intent.Slots{"x_coord": "left"}, wantKind: KindRequestFailed, wantErr: intent.ErrInvalidSlots},
		{name: "datatype not found", label: "ChangeDatatype", focus: focusOn("p", ElementProperty), slots: intent.Slots{"new_value": "Ghost"}, wantKind: KindResolutionFailed},
		{name: "focus target not found", label: "Focus", slots: intent.Slots{}, wantKind: KindResolutionFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newFakeService(tt.label)
			svc.classifyErr = tt.classify
			svc.extractErr = tt.extract
			if tt.slots != nil {
				svc.slots[intent.Parse(tt.label)] = tt.slots
			}
			h := newHarness(t, svc, noRefresh)
			h.sess.SetFocus(tt.focus)

			out, err := h.d.Submit(context.Background(), "s-1", "query")
			require.Error(t, err)
			if tt.wantErr != nil {
				assert.True(t, errors.Is(err, tt.wantErr))
			}
			assert.Equal(t, tt.wantKind, out.ErrorKind)
			assert.Equal(t, StateErrored, out.States[len(out.States)-2])
			assert.Equal(t, StateIdle, out.States[len(out.States)-1])

			assert.Len(t, h.emitter.OfKind("nliError"), 1)
			assert.Empty(t, h.emitter.Operations())
			assert.Equal(t, 0, h.d.refresher.Pending())
		})
	}
}

func TestSubmit_RefreshRequestedAfterDelay(t *testing.T) {
	svc := newFakeService("Undo")
	h := newHarness(t, svc, 20*time.Millisecond)

	_, err := h.d.Submit(context.Background(), "s-1", "undo")
	require.NoError(t, err)
	assert.Empty(t, h.emitter.OfKind("requestModelResources"))

	assert.Eventually(t, func() bool {
		return len(h.emitter.OfKind("requestModelResources")) == 1
	}, time.Second, 5*time.Millisecond)
}

func TestSubmit_CycleExportsHistoryAndResetsRecording(t *testing.T) {
	svc := newFakeService("Undo")
	h := newHarness(t, svc, noRefresh)
	h.sess.SetRecording(true)

	_, err := h.d.Submit(context.Background(), "s-1", "first")
	require.NoError(t, err)
	_, err = h.d.Submit(context.Background(), "s-1", "second")
	require.NoError(t, err)

	exports := h.emitter.OfKind("exportHistory")
	require.Len(t, exports, 2)
	last := exports[1].(operation.ExportHistory)
	require.Len(t, last.Entries, 2)
	assert.Equal(t, "first", last.Entries[0].Text)
	assert.Equal(t, "second", last.Entries[1].Text)

	assert.False(t, h.sess.Recording())
	assert.Contains(t, h.emitter.OfKind("recordingStatus"), operation.RecordingStatus{Recording: false})
}

func TestSubmit_UnknownSession(t *testing.T) {
	h := newHarness(t, newFakeService("Undo"), noRefresh)
	_, err := h.d.Submit(context.Background(), "nope", "undo")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestSubmit_SessionsAreIndependent(t *testing.T) {
	svc := newFakeService("Undo")
	h := newHarness(t, svc, noRefresh)
	other := store.NewSession("s-2", time.Now())
	h.sessions.sessions["s-2"] = other
	require.True(t, h.sess.BeginQuery(store.PendingQuery{ID: "busy"}))

	_, err := h.d.Submit(context.Background(), "s-2", "undo")
	require.NoError(t, err)
	assert.Empty(t, h.history.entries["s-1"])
	assert.Len(t, h.history.entries["s-2"], 1)
}

func TestSubmit_PartialEmitStillSchedulesRefresh(t *testing.T) {
	svc := newFakeService("AddAttribute")
	svc.slots[intent.AddAttribute] = intent.Slots{"element_name": "v", "value_datatype": "t"}
	h := newHarness(t, svc, noRefresh)
	h.sess.SetFocus(focusOn("x-1", ""))

	created := 0
	h.emitter.reject = func(msg operation.Message) error {
		if _, ok := msg.(operation.CreateNode); !ok {
			return nil
		}
		created++
		if created == 2 {
			return errors.New("socket closed")
		}
		return nil
	}

	out, err := h.d.Submit(context.Background(), "s-1", "add value v")
	assert.ErrorIs(t, err, ErrEmitFailed)
	assert.Equal(t, KindRequestFailed, out.ErrorKind)
	require.Len(t, out.Operations, 1)
	assert.Equal(t, ElementProperty, out.Operations[0].(operation.CreateNode).ElementTypeID)
	assert.Equal(t, []State{StateIdle, StateSubmitting, StateClassifying, StateEmitting, StateErrored, StateIdle}, out.States)
	assert.Equal(t, 1, h.d.refresher.Pending())
	assert.Len(t, h.emitter.OfKind("nliError"), 1)
}

func TestSubmit_FirstEmitFailureSkipsRefresh(t *testing.T) {
	h := newHarness(t, newFakeService("Undo"), noRefresh)
	h.emitter.reject = func(msg operation.Message) error {
		if _, ok := msg.(operation.Undo); ok {
			return errors.New("socket closed")
		}
		return nil
	}

	out, err := h.d.Submit(context.Background(), "s-1", "undo")
	assert.ErrorIs(t, err, ErrEmitFailed)
	assert.Empty(t, out.Operations)
	assert.Equal(t, 0, h.d.refresher.Pending())
}
