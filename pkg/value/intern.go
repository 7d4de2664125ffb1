package value

// Intern returns the unique *ObjString for s, allocating and registering
// a new one only if strings doesn't already contain an equal string.
// Every string the compiler or VM manufactures -- literals, identifiers,
// concatenation results -- must go through Intern so that two equal-content
// strings are always the same object (spec.md §3's invariant, §9's "String
// interning at allocation time" note).
func Intern(heap *Heap, strings *Table, s string) *ObjString {
	hash := FNV1a(s)
	if existing := strings.FindString(s, hash); existing != nil {
		return existing
	}

	str := &ObjString{Chars: s, Hash: hash}
	heap.Register(str)
	strings.Set(str, Bool(true))
	return str
}

// Concatenate interns the byte-wise concatenation of a and b. Used by
// OP_ADD's string case; a deduping Intern call here is required even
// though the bytes are freshly built, because "foo"+"bar" may equal a
// string literal that already exists in the table.
func Concatenate(heap *Heap, strings *Table, a, b *ObjString) *ObjString {
	return Intern(heap, strings, a.Chars+b.Chars)
}
