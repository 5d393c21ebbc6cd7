package operation

// Message is anything the dispatcher sends to the host editor.
type Message interface {
	Kind() string
}

// Operation is a diagram mutation or selection change. The set is closed;
// values are never modified after emission.
type Operation interface {
	Message
	operation()
}

type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

type Dimension struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// EmptyDimension tells the editor to keep the element's current size.
var EmptyDimension = Dimension{Width: -1, Height: -1}

type CreateNode struct {
	ElementTypeID string                 `json:"elementTypeId"`
	ContainerID   string                 `json:"containerId,omitempty"`
	Location      *Point                 `json:"location,omitempty"`
	Args          map[string]interface{} `json:"args,omitempty"`
}

type CreateEdge struct {
	ElementTypeID   string                 `json:"elementTypeId"`
	SourceElementID string                 `json:"sourceElementId"`
	TargetElementID string                 `json:"targetElementId"`
	Args            map[string]interface{} `json:"args,omitempty"`
}

// DeleteElement with an empty id list is a no-op on the editor side.
type DeleteElement struct {
	ElementIDs []string `json:"elementIds"`
}

type UpdateProperty struct {
	ElementID  string `json:"elementId"`
	PropertyID string `json:"propertyId"`
	Value      string `json:"value"`
}

type ElementAndBounds struct {
	ElementID   string    `json:"elementId"`
	NewSize     Dimension `json:"newSize"`
	NewPosition Point     `json:"newPosition"`
}

type ChangeBounds struct {
	NewBounds []ElementAndBounds `json:"newBounds"`
}

type SelectElement struct {
	SelectedIDs []string `json:"selectedElementsIDs"`
	DeselectAll bool     `json:"deselectedElementsIDs"`
}

type Undo struct{}

func (CreateNode) Kind() string     { return "createNode" }
func (CreateEdge) Kind() string     { return "createEdge" }
func (DeleteElement) Kind() string  { return "deleteElement" }
func (UpdateProperty) Kind() string { return "updateElementProperty" }
func (ChangeBounds) Kind() string   { return "changeBounds" }
func (SelectElement) Kind() string  { return "elementSelected" }
func (Undo) Kind() string           { return "glspUndo" }

func (CreateNode) operation()     {}
func (CreateEdge) operation()     {}
func (DeleteElement) operation()  {}
func (UpdateProperty) operation() {}
func (ChangeBounds) operation()   {}
func (SelectElement) operation()  {}
func (Undo) operation()           {}
