// Package value implements the virtual machine's runtime value
// representation: a small tagged union over {nil, bool, number, object},
// the heap-object variants built on top of it, and the open-addressed
// string-interning table that gives those objects identity-based equality.
//
// Value Representation:
//
// A Value is a tagged variant over exactly four cases:
//
//	Nil            the absence of a value
//	Bool(b)        a boolean
//	Number(f64)    an IEEE-754 double
//	Obj(ref)       a non-owning reference into the VM's object heap
//
// Values of different tags are never equal, even when they'd coerce
// sensibly (no Nil == false, no 0 == false). Numbers compare with plain
// IEEE-754 ==, so NaN != NaN. Strings compare by identity: two ObjStrings
// are equal iff they are the same heap object, which is safe only because
// every string the VM manufactures is first run through the intern table
// (see Table.FindString below).
package value

import (
	"fmt"
	"math"
	"strconv"
)

// Kind identifies which variant of the tagged union a Value holds.
type Kind byte

const (
	KindNil Kind = iota
	KindBool
	KindNumber
	KindObj
)

// Value is the VM's tagged runtime value. The zero Value is Nil.
//
// Extractors (AsBool, AsNumber, AsObj) are only valid when the matching
// predicate (IsBool, IsNumber, IsObj) holds; callers must predicate-check
// first, exactly as spec.md §4.B requires.
type Value struct {
	kind   Kind
	b      bool
	n      float64
	obj    Object
}

// Nil is the singular nil value.
var Nil = Value{kind: KindNil}

// Bool constructs a boolean Value.
func Bool(b bool) Value { return Value{kind: KindBool, b: b} }

// Number constructs a numeric Value.
func Number(n float64) Value { return Value{kind: KindNumber, n: n} }

// Obj constructs a Value wrapping a heap object reference.
func Obj(o Object) Value { return Value{kind: KindObj, obj: o} }

// IsNil reports whether v holds the nil variant.
func (v Value) IsNil() bool { return v.kind == KindNil }

// IsBool reports whether v holds a boolean.
func (v Value) IsBool() bool { return v.kind == KindBool }

// IsNumber reports whether v holds a number.
func (v Value) IsNumber() bool { return v.kind == KindNumber }

// IsObj reports whether v holds a heap object reference.
func (v Value) IsObj() bool { return v.kind == KindObj }

// IsObjKind reports whether v holds an object of the given ObjType.
func (v Value) IsObjKind(kind ObjType) bool {
	return v.kind == KindObj && v.obj.ObjType() == kind
}

// AsBool extracts the boolean payload. Undefined if !IsBool(v).
func (v Value) AsBool() bool { return v.b }

// AsNumber extracts the numeric payload. Undefined if !IsNumber(v).
func (v Value) AsNumber() float64 { return v.n }

// AsObj extracts the object reference. Undefined if !IsObj(v).
func (v Value) AsObj() Object { return v.obj }

// AsString extracts the object reference as *ObjString. Undefined if
// !IsObjKind(v, ObjTypeString).
func (v Value) AsString() *ObjString { return v.obj.(*ObjString) }

// IsFalsey reports whether v is falsey: nil, or the boolean false.
// Every other value -- including 0 and the empty string -- is truthy.
func (v Value) IsFalsey() bool {
	return v.IsNil() || (v.IsBool() && !v.AsBool())
}

// Equal implements the VM's value-equality rule: different tags are never
// equal; numbers use IEEE-754 == (NaN != NaN); objects compare by identity
// (safe because strings -- the only object kind here -- are interned).
func Equal(a, b Value) bool {
	if a.kind != b.kind {
		return false
	}
	switch a.kind {
	case KindNil:
		return true
	case KindBool:
		return a.b == b.b
	case KindNumber:
		return a.n == b.n
	case KindObj:
		return a.obj == b.obj
	default:
		return false
	}
}

// Print formats v the way the VM's `print` statement does: nil -> "nil",
// booleans -> "true"/"false", numbers -> shortest round-trip decimal
// (%g-like), strings -> their raw bytes.
func Print(v Value) string {
	switch v.kind {
	case KindNil:
		return "nil"
	case KindBool:
		if v.b {
			return "true"
		}
		return "false"
	case KindNumber:
		return formatNumber(v.n)
	case KindObj:
		return v.obj.String()
	default:
		return fmt.Sprintf("<unknown value kind %d>", v.kind)
	}
}

// formatNumber renders a float64 the way C's "%g" does for clox's
// doubles: shortest representation that round-trips, integral values
// printed without a trailing ".0" unless they need the exponent form.
func formatNumber(n float64) string {
	if math.IsInf(n, 1) {
		return "inf"
	}
	if math.IsInf(n, -1) {
		return "-inf"
	}
	if math.IsNaN(n) {
		return "nan"
	}
	return strconv.FormatFloat(n, 'g', -1, 64)
}
