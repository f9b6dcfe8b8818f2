// Package diag defines validation findings and the sinks that receive them.
//
// Validators never stop at the first problem. Each check that fails produces
// a [Violation]; the caller decides whether the offending API call proceeds.
package diag

import (
	"fmt"
	"strconv"
	"strings"
)

// Category classifies a violation.
type Category uint8

const (
	// CategoryCapability: a required optional capability is disabled.
	CategoryCapability Category = iota
	// CategoryStructural: malformed or self-contradictory batch or bind input.
	CategoryStructural
	// CategoryState: draw-time binding state incomplete or contradictory.
	CategoryState
	// CategoryCrossShader: simultaneously bound shaders disagree.
	CategoryCrossShader
	// CategoryQueueCapability: the command pool's queue cannot run the stage.
	CategoryQueueCapability
)

var categoryNames = [...]string{
	CategoryCapability:      "capability",
	CategoryStructural:      "structural",
	CategoryState:           "state",
	CategoryCrossShader:     "cross-shader",
	CategoryQueueCapability: "queue-capability",
}

func (c Category) String() string {
	if int(c) < len(categoryNames) {
		return categoryNames[c]
	}
	return "category(" + strconv.Itoa(int(c)) + ")"
}

// ObjectKind names the type of an object a violation refers to.
type ObjectKind uint8

const (
	ObjectDevice ObjectKind = iota
	ObjectShader
	ObjectCommandBuffer
	ObjectPipeline
)

func (k ObjectKind) String() string {
	switch k {
	case ObjectDevice:
		return "device"
	case ObjectShader:
		return "shader"
	case ObjectCommandBuffer:
		return "command buffer"
	case ObjectPipeline:
		return "pipeline"
	}
	return "object"
}

// Object is a typed handle attached to a violation.
type Object struct {
	Kind   ObjectKind
	Handle uint64
}

func (o Object) String() string {
	return fmt.Sprintf("%s 0x%x", o.Kind, o.Handle)
}

// Location points at the API function and parameter a violation is about,
// e.g. "vkCreateShadersEXT(): pCreateInfos[1].stage".
type Location struct {
	Function string
	// Path is the dotted parameter path within the call, empty for the
	// call itself.
	Path string
}

// At returns the location of the named API function.
func At(function string) Location {
	return Location{Function: function}
}

// Field returns l extended with a struct member or parameter name.
func (l Location) Field(name string) Location {
	if l.Path == "" {
		l.Path = name
	} else {
		l.Path += "." + name
	}
	return l
}

// Index returns l extended with an indexed array parameter.
func (l Location) Index(name string, i int) Location {
	return l.Field(name + "[" + strconv.Itoa(i) + "]")
}

func (l Location) String() string {
	if l.Path == "" {
		return l.Function + "()"
	}
	return l.Function + "(): " + l.Path
}

// Violation is one discovered rule violation.
type Violation struct {
	// ID is the stable rule identifier (a VUID string).
	ID       string
	Category Category
	Location Location
	// Indices are the offending array indices (descriptor or bind slot),
	// in the order the message names them.
	Indices []int
	Objects []Object
	Message string
}

// New returns a violation with a formatted message.
func New(id string, category Category, loc Location, format string, args ...any) Violation {
	return Violation{
		ID:       id,
		Category: category,
		Location: loc,
		Message:  fmt.Sprintf(format, args...),
	}
}

// WithIndices returns v with the offending indices attached.
func (v Violation) WithIndices(indices ...int) Violation {
	v.Indices = append([]int(nil), indices...)
	return v
}

// WithObjects returns v with subject objects attached.
func (v Violation) WithObjects(objects ...Object) Violation {
	v.Objects = append(append([]Object(nil), v.Objects...), objects...)
	return v
}

// Error implements the error interface.
func (v Violation) Error() string {
	var sb strings.Builder
	sb.WriteString(v.ID)
	sb.WriteString(": ")
	sb.WriteString(v.Location.String())
	if v.Message != "" {
		sb.WriteString(" ")
		sb.WriteString(v.Message)
	}
	return sb.String()
}

// IDs returns the rule identifiers of vs in order.
func IDs(vs []Violation) []string {
	if len(vs) == 0 {
		return nil
	}
	ids := make([]string, len(vs))
	for i, v := range vs {
		ids[i] = v.ID
	}
	return ids
}

// Filter returns the violations of vs in the given category.
func Filter(vs []Violation, category Category) []Violation {
	var out []Violation
	for _, v := range vs {
		if v.Category == category {
			out = append(out, v)
		}
	}
	return out
}
