package history

import (
	"strings"

	"uml-nli-be/pkg/operation"
	"uml-nli-be/pkg/store"

	"github.com/sahilm/fuzzy"
)

type entrySource []store.QueryHistoryEntry

func (s entrySource) String(i int) string { return s[i].Text }
func (s entrySource) Len() int            { return len(s) }

// Recall lists entries newest first. A non-blank pattern filters them with
// fuzzy matching and orders them by match quality instead.
func Recall(entries []store.QueryHistoryEntry, pattern string) []store.QueryHistoryEntry {
	newest := make([]store.QueryHistoryEntry, len(entries))
	for i, e := range entries {
		newest[len(entries)-1-i] = e
	}

	pattern = strings.TrimSpace(pattern)
	if pattern == "" {
		return newest
	}

	matches := fuzzy.FindFrom(pattern, entrySource(newest))
	out := make([]store.QueryHistoryEntry, 0, len(matches))
	for _, m := range matches {
		out = append(out, newest[m.Index])
	}
	return out
}

// Lookup finds an entry by id.
func Lookup(entries []store.QueryHistoryEntry, id string) (store.QueryHistoryEntry, bool) {
	for i := len(entries) - 1; i >= 0; i-- {
		if entries[i].ID == id {
			return entries[i], true
		}
	}
	return store.QueryHistoryEntry{}, false
}

// Items converts entries to the wire shape used by the history export.
func Items(entries []store.QueryHistoryEntry) []operation.HistoryItem {
	out := make([]operation.HistoryItem, len(entries))
	for i, e := range entries {
		out[i] = operation.HistoryItem{ID: e.ID, Timestamp: e.Timestamp, Text: e.Text}
	}
	return out
}
