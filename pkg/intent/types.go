package intent

import (
	"fmt"
	"strings"
)

// Intent is the closed set of commands the classification service can return.
type Intent int

const (
	Unknown Intent = iota
	CreateContainer
	AddAttribute
	AddMethod
	ChangeName
	ChangeVisibility
	ChangeDatatype
	AddRelation
	Delete
	Focus
	Move
	Undo
)

// labels are the strings the classification service emits.
var labels = map[Intent]string{
	CreateContainer:  "CreateContainer",
	AddAttribute:     "AddAttribute",
	AddMethod:        "AddMethod",
	ChangeName:       "ChangeName",
	ChangeVisibility: "ChangeVisibility",
	ChangeDatatype:   "ChangeDatatype",
	AddRelation:      "AddRelation",
	Delete:           "Delete",
	Focus:            "Focus",
	Move:             "Move",
	Undo:             "Undo",
}

var byLabel = func() map[string]Intent {
	m := make(map[string]Intent, len(labels))
	for i, l := range labels {
		m[strings.ToLower(l)] = i
	}
	return m
}()

func (i Intent) String() string {
	if l, ok := labels[i]; ok {
		return l
	}
	if i == Unknown {
		return "Unknown"
	}
	return fmt.Sprintf("Intent(%d)", int(i))
}

// Parse maps a service label to an Intent. Unrecognised labels yield Unknown.
func Parse(label string) Intent {
	if i, ok := byLabel[strings.ToLower(strings.TrimSpace(label))]; ok {
		return i
	}
	return Unknown
}

// All returns every actionable intent, excluding Unknown.
func All() []Intent {
	return []Intent{
		CreateContainer, AddAttribute, AddMethod, ChangeName, ChangeVisibility,
		ChangeDatatype, AddRelation, Delete, Focus, Move, Undo,
	}
}

// NeedsFocus reports whether the intent operates on the selected element.
func (i Intent) NeedsFocus() bool {
	switch i {
	case AddAttribute, AddMethod, ChangeName, ChangeVisibility, ChangeDatatype, Move:
		return true
	}
	return false
}
