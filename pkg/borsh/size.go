package borsh

// SizeOf returns the encoded size of s when every value of s encodes to the
// same number of bytes.
//
// Strings, byte vectors, sequences and options are variable sized. A union is
// statically sized only when all of its variants encode to the same length.
func SizeOf(s *Schema) (int, bool) {
	return schemaSize(s, make(map[*Schema]bool))
}

func schemaSize(s *Schema, visiting map[*Schema]bool) (int, bool) {
	if s == nil || visiting[s] {
		return 0, false
	}
	visiting[s] = true
	defer delete(visiting, s)

	if !s.IsUnion() {
		return fieldsSize(s.Fields, visiting)
	}

	size := -1
	for _, v := range s.Variants {
		n, ok := fieldsSize(v.Fields, visiting)
		if !ok {
			return 0, false
		}
		if size >= 0 && n != size {
			return 0, false
		}
		size = n
	}
	return int(s.tagWidth()) + size, true
}

func fieldsSize(fields []Field, visiting map[*Schema]bool) (int, bool) {
	var total int
	for _, f := range fields {
		n, ok := typeSize(f.Type, visiting)
		if !ok {
			return 0, false
		}
		total += n
	}
	return total, true
}

func typeSize(t Type, visiting map[*Schema]bool) (int, bool) {
	switch t.Kind {
	case KindU8, KindI8, KindBool:
		return 1, true
	case KindU16, KindI16:
		return 2, true
	case KindU32, KindI32, KindF32:
		return 4, true
	case KindU64, KindI64, KindF64:
		return 8, true
	case KindFixedBytes:
		if t.Size < 0 {
			return 0, false
		}
		return t.Size, true
	case KindComposite:
		return schemaSize(t.Schema, visiting)
	}
	return 0, false
}

// minSize returns the fewest bytes any value of t can encode to.
func minSize(t Type) int {
	return typeMinSize(t, make(map[*Schema]bool))
}

func typeMinSize(t Type, visiting map[*Schema]bool) int {
	switch t.Kind {
	case KindOption:
		return 1
	case KindString, KindBytes, KindSequence:
		return 4
	case KindFixedBytes:
		if t.Size < 0 {
			return 0
		}
		return t.Size
	case KindComposite:
		return schemaMinSize(t.Schema, visiting)
	}

	n, _ := typeSize(t, visiting)
	return n
}

func schemaMinSize(s *Schema, visiting map[*Schema]bool) int {
	if s == nil {
		return 0
	}
	// A schema that contains itself can never be fully encoded.
	if visiting[s] {
		return 1
	}
	visiting[s] = true
	defer delete(visiting, s)

	fieldsMin := func(fields []Field) int {
		var total int
		for _, f := range fields {
			total += typeMinSize(f.Type, visiting)
		}
		return total
	}

	if !s.IsUnion() {
		return fieldsMin(s.Fields)
	}

	smallest := -1
	for _, v := range s.Variants {
		if n := fieldsMin(v.Fields); smallest < 0 || n < smallest {
			smallest = n
		}
	}
	return int(s.tagWidth()) + smallest
}
