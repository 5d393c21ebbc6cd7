package dispatch

import (
	"context"
	"fmt"

	"uml-nli-be/pkg/history"
	"uml-nli-be/pkg/navigation"
	"uml-nli-be/pkg/nli"
	"uml-nli-be/pkg/operation"
	"uml-nli-be/pkg/store"
)

// StartRecording checks the service is live and asks the host to start
// capturing audio. The returned id is reused when the transcript arrives.
func (d *Dispatcher) StartRecording(ctx context.Context, sessionID string) (string, error) {
	sess, err := d.session(sessionID)
	if err != nil {
		return "", err
	}

	if !d.svc.Ping(ctx, d.cfg.PingTimeout) {
		d.notify(ctx, sessionID, operation.NliError{Message: userMessage(KindServiceUnavailable, d.svc.BaseURL())})
		return "", fmt.Errorf("%w: ping failed", nli.ErrServiceUnavailable)
	}

	recordingID := d.newID()
	sess.SetRecording(true)
	d.notify(ctx, sessionID, operation.StartRecording{RecordingID: recordingID})
	d.notify(ctx, sessionID, operation.RecordingStatus{Recording: true})
	d.logger.Printf("[RECORDING] %s: started %s", sessionID, recordingID)
	return recordingID, nil
}

// ObserveFocus records a selection reported by the editor. Navigation history
// is dropped when the selection moved somewhere the dispatcher did not take it.
func (d *Dispatcher) ObserveFocus(sessionID string, focus *store.FocusState) error {
	sess, err := d.session(sessionID)
	if err != nil {
		return err
	}

	var ref *store.ElementRef
	if focus != nil && focus.ElementID != "" {
		r := focus.Ref()
		ref = &r
	} else {
		focus = nil
	}
	if d.nav.ResetIfFocusChanged(sessionID, ref) {
		d.logger.Printf("[NAV] %s: focus moved outside navigation, history reset", sessionID)
	}
	sess.SetFocus(focus)
	return nil
}

// ObserveSnapshot stores the model content the editor sent.
func (d *Dispatcher) ObserveSnapshot(sessionID string, snap store.ModelSnapshot) (*store.ModelSnapshot, error) {
	sess, err := d.session(sessionID)
	if err != nil {
		return nil, err
	}
	if snap.ReceivedAt.IsZero() {
		snap.ReceivedAt = d.now()
	}
	return sess.SetSnapshot(snap), nil
}

// RequestSnapshot asks the host for its model content right away.
func (d *Dispatcher) RequestSnapshot(ctx context.Context, sessionID string) error {
	if _, err := d.session(sessionID); err != nil {
		return err
	}
	return d.emitter.Emit(ctx, sessionID, operation.RequestModelResources{})
}

// History lists the session's queries, newest first, optionally fuzzy-filtered.
func (d *Dispatcher) History(ctx context.Context, sessionID, pattern string) ([]store.QueryHistoryEntry, error) {
	if _, err := d.session(sessionID); err != nil {
		return nil, err
	}
	entries, err := d.history.List(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return history.Recall(entries, pattern), nil
}

func (d *Dispatcher) Navigation(sessionID string) ([]navigation.Step, error) {
	if _, err := d.session(sessionID); err != nil {
		return nil, err
	}
	return d.nav.Steps(sessionID), nil
}

// CloseSession drops everything the dispatcher holds for the session.
func (d *Dispatcher) CloseSession(sessionID string) {
	d.nav.Forget(sessionID)
	d.sessions.Delete(sessionID)
	d.logger.Printf("[SESSION] %s: closed", sessionID)
}

// Close cancels armed snapshot refreshes.
func (d *Dispatcher) Close() {
	d.refresher.Close()
}
