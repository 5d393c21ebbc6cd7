package intent

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
)

// ErrInvalidSlots is returned when an extraction payload does not have the
// shape its intent requires.
var ErrInvalidSlots = errors.New("invalid slot payload")

var validate = validator.New()

// Slots is the untyped key/value payload returned by slot extraction.
type Slots map[string]interface{}

func (s Slots) Has(key string) bool {
	v, ok := s[key]
	return ok && v != nil
}

// String coerces a slot to a string. Numbers are formatted, nil is "".
func (s Slots) String(key string) string {
	switch v := s[key].(type) {
	case nil:
		return ""
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	default:
		return fmt.Sprint(v)
	}
}

func (s Slots) Bool(key string) (bool, error) {
	switch v := s[key].(type) {
	case nil:
		return false, nil
	case bool:
		return v, nil
	case string:
		if v == "" {
			return false, nil
		}
		b, err := strconv.ParseBool(strings.ToLower(v))
		if err != nil {
			return false, fmt.Errorf("%w: %s is not a boolean", ErrInvalidSlots, key)
		}
		return b, nil
	case float64:
		return v != 0, nil
	default:
		return false, fmt.Errorf("%w: %s is not a boolean", ErrInvalidSlots, key)
	}
}

// Float returns nil when the slot is absent.
func (s Slots) Float(key string) (*float64, error) {
	switch v := s[key].(type) {
	case nil:
		return nil, nil
	case float64:
		return &v, nil
	case int:
		f := float64(v)
		return &f, nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return nil, fmt.Errorf("%w: %s is not a number", ErrInvalidSlots, key)
		}
		return &f, nil
	default:
		return nil, fmt.Errorf("%w: %s is not a number", ErrInvalidSlots, key)
	}
}

type CreateContainerSlots struct {
	ElementType string
	ElementName string `validate:"required"`
	IsAbstract  bool
}

// ValueSlots describe a new attribute or method of the focused element.
type ValueSlots struct {
	ElementName     string `validate:"required"`
	ValueDatatype   string
	ValueVisibility string
}

type UpdateValueSlots struct {
	NewValue string `validate:"required"`
}

type RelationSlots struct {
	RelationType string `validate:"required"`
	RelationName string
	ClassFromID  string `validate:"required"`
	ClassToID    string `validate:"required"`
}

// FocusSlots carry the element the query referred to, if any.
type FocusSlots struct {
	ElementID string
}

type MoveSlots struct {
	X *float64 `validate:"required"`
	Y *float64 `validate:"required"`
}

func check(intent Intent, v interface{}) error {
	if err := validate.Struct(v); err != nil {
		return fmt.Errorf("%w for %s: %v", ErrInvalidSlots, intent, err)
	}
	return nil
}

func DecodeCreateContainer(s Slots) (CreateContainerSlots, error) {
	abstract, err := s.Bool("is_abstract")
	if err != nil {
		return CreateContainerSlots{}, err
	}
	out := CreateContainerSlots{
		ElementType: s.String("element_type"),
		ElementName: s.String("element_name"),
		IsAbstract:  abstract,
	}
	return out, check(CreateContainer, out)
}

func DecodeValue(i Intent, s Slots) (ValueSlots, error) {
	out := ValueSlots{
		ElementName:     s.String("element_name"),
		ValueDatatype:   s.String("value_datatype"),
		ValueVisibility: s.String("value_visibility"),
	}
	return out, check(i, out)
}

func DecodeUpdateValue(i Intent, s Slots) (UpdateValueSlots, error) {
	out := UpdateValueSlots{NewValue: s.String("new_value")}
	return out, check(i, out)
}

func DecodeRelation(s Slots) (RelationSlots, error) {
	out := RelationSlots{
		RelationType: s.String("relation_type"),
		RelationName: s.String("relation_name"),
		ClassFromID:  s.String("class_from_id"),
		ClassToID:    s.String("class_to_id"),
	}
	return out, check(AddRelation, out)
}

func DecodeFocus(s Slots) FocusSlots {
	return FocusSlots{ElementID: s.String("element_id")}
}

func DecodeMove(s Slots) (MoveSlots, error) {
	x, err := s.Float("x_coord")
	if err != nil {
		return MoveSlots{}, err
	}
	y, err := s.Float("y_coord")
	if err != nil {
		return MoveSlots{}, err
	}
	out := MoveSlots{X: x, Y: y}
	return out, check(Move, out)
}
