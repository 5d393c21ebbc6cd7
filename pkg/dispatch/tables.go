package dispatch

import (
	"strings"

	"uml-nli-be/pkg/intent"
	"uml-nli-be/pkg/operation"
)

const (
	ElementClass              = "CLASS__Class"
	ElementInterface          = "CLASS__Interface"
	ElementDataType           = "CLASS__DataType"
	ElementEnumeration        = "CLASS__Enumeration"
	ElementInstance           = "CLASS__Instance"
	ElementPackage            = "CLASS__Package"
	ElementPrimitiveType      = "CLASS__PrimitiveType"
	ElementProperty           = "CLASS__Property"
	ElementParameter          = "CLASS__Parameter"
	ElementEnumerationLiteral = "CLASS__EnumerationLiteral"
	ElementOperation          = "CLASS__Operation"

	edgePrefix = "CLASS__"
)

// Property ids understood by the editor's property palette.
const (
	PropertyName       = "name"
	PropertyVisibility = "visibilityKind"
	PropertyType       = "type"
)

var containerTypes = map[string]string{
	"class":               ElementClass,
	"interface":           ElementInterface,
	"data type":           ElementDataType,
	"datatype":            ElementDataType,
	"type":                ElementDataType,
	"enumeration":         ElementEnumeration,
	"instance":            ElementInstance,
	"package":             ElementPackage,
	"primitive type":      ElementPrimitiveType,
	"primitive datatype":  ElementPrimitiveType,
	"primitive data type": ElementPrimitiveType,
}

// ContainerType maps a spoken container name to an element type id.
// Unrecognised names fall back to a class.
func ContainerType(name string) string {
	t, _ := lookupContainerType(name)
	return t
}

func lookupContainerType(name string) (string, bool) {
	key := strings.Join(strings.Fields(strings.ToLower(name)), " ")
	if t, ok := containerTypes[key]; ok {
		return t, true
	}
	return ElementClass, false
}

// NormalizeRelationType maps relation names the editor has no edge type for.
func NormalizeRelationType(relation string) string {
	if strings.EqualFold(strings.TrimSpace(relation), "Strong aggregation") {
		return "Association"
	}
	return strings.TrimSpace(relation)
}

// EdgeType returns the element type id of a relation edge.
func EdgeType(relation string) string {
	return edgePrefix + NormalizeRelationType(relation)
}

func kindKey(kind string) string {
	k := strings.TrimPrefix(kind, edgePrefix)
	return strings.ToLower(strings.ReplaceAll(k, " ", ""))
}

// attributeNodes builds the child node(s) for an add-attribute command. The
// focused element's kind picks a single child type; when the kind is unknown
// all candidates are emitted and the editor keeps the one its container accepts.
func attributeNodes(containerID, containerKind string, v intent.ValueSlots) []operation.Operation {
	property := operation.CreateNode{
		ElementTypeID: ElementProperty,
		ContainerID:   containerID,
		Args: map[string]interface{}{
			"name":       v.ElementName,
			"type_id":    v.ValueDatatype,
			"visibility": v.ValueVisibility,
		},
	}
	parameter := operation.CreateNode{
		ElementTypeID: ElementParameter,
		ContainerID:   containerID,
		Args: map[string]interface{}{
			"name":    v.ElementName,
			"type_id": v.ValueDatatype,
		},
	}
	literal := operation.CreateNode{
		ElementTypeID: ElementEnumerationLiteral,
		ContainerID:   containerID,
		Args:          map[string]interface{}{"name": v.ElementName},
	}

	switch kindKey(containerKind) {
	case "class", "interface", "datatype", "primitivetype":
		return []operation.Operation{property}
	case "operation":
		return []operation.Operation{parameter}
	case "enumeration":
		return []operation.Operation{literal}
	}
	return []operation.Operation{property, parameter, literal}
}
