package value

// ObjType tags the variant of a heap Object. Only one variant exists in
// this core (ObjTypeString); the enum is kept open-ended the way
// _examples/original_source/clox/object.h's ObjType is, so a future
// variant (functions, instances, ...) has somewhere to go without
// disturbing the dispatch sites.
type ObjType byte

const (
	ObjTypeString ObjType = iota
)

// Object is the common interface every heap-allocated variant satisfies.
// It stands in for clox's "base struct first field" inheritance trick:
// instead of embedding a shared Obj header and reinterpret-casting, each
// variant is its own Go type and dispatches through this interface.
type Object interface {
	// ObjType reports which variant this object is.
	ObjType() ObjType
	// String formats the object's value the way `print` displays it.
	String() string
	// next returns the intrusive heap-list link.
	next() Object
	// setNext sets the intrusive heap-list link.
	setNext(o Object)
}

// objHeader is embedded in every Object variant. It carries the intrusive
// singly-linked list pointer used to free every heap object in one sweep
// at VM teardown (spec.md §4.C), without any reference counting.
type objHeader struct {
	nextObj Object
}

func (h *objHeader) next() Object       { return h.nextObj }
func (h *objHeader) setNext(o Object)   { h.nextObj = o }

// ObjString is an immutable, interned string. Two ObjStrings with equal
// byte content are always the same object (see Table.FindString), which
// is what lets the VM compare strings by pointer identity.
type ObjString struct {
	objHeader
	Chars string
	Hash  uint32
}

func (s *ObjString) ObjType() ObjType { return ObjTypeString }
func (s *ObjString) String() string   { return s.Chars }

// Heap owns every Object allocated during compilation and execution. It
// threads them onto a single intrusive list (objHeader.nextObj) purely so
// that FreeAll can walk and drop every reference in one pass; Go's garbage
// collector reclaims the backing memory once nothing (including the Heap
// itself) points at it anymore -- the list exists to make teardown a single
// well-defined operation, mirroring clox's malloc/free discipline, not to
// manage memory by hand.
type Heap struct {
	objects Object // head of the intrusive list, nil when empty
}

// Register pushes o onto the front of the heap's intrusive object list.
// Intern calls this for every new string (Concatenate goes through Intern).
func (h *Heap) Register(o Object) {
	o.setNext(h.objects)
	h.objects = o
}

// FreeAll drops every reference the heap holds. After this call the
// objects are only reachable if something outside the heap still
// references them (it shouldn't, per spec.md §5's ownership rule).
func (h *Heap) FreeAll() {
	h.objects = nil
}

// Count returns the number of objects currently registered, for tests
// that want to assert the intrusive list's shape without reaching into
// its internals.
func (h *Heap) Count() int {
	n := 0
	for o := h.objects; o != nil; o = o.next() {
		n++
	}
	return n
}

// FNV1a hashes a string with the 32-bit FNV-1a algorithm, matching
// clox's hashString (object.c) so that two implementations of this
// language hash identical source strings identically.
func FNV1a(s string) uint32 {
	var hash uint32 = 2166136261
	for i := 0; i < len(s); i++ {
		hash ^= uint32(s[i])
		hash *= 16777619
	}
	return hash
}
