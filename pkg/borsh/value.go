package borsh

// Record is the value of a struct schema, keyed by field name. Every declared
// field must be present; absent options are stored as nil.
type Record map[string]any

// Enum is the value of a union schema.
type Enum struct {
	Discriminant uint32
	Fields       Record
}

// Get returns the named field value.
func (r Record) Get(name string) any {
	return r[name]
}
