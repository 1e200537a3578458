package borsh

import (
	"sort"

	"github.com/pkg/errors"
)

// Registry maps message names to their layouts.
//
// Schemas are expected to be registered during startup. Resolve is safe for
// concurrent use once registration is complete; Register is not.
type Registry struct {
	schemas map[string]*Schema
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		schemas: make(map[string]*Schema),
	}
}

// Register validates s and every schema nested within it, then stores it
// under s.Name.
func (r *Registry) Register(s *Schema) error {
	if err := Validate(s); err != nil {
		return err
	}

	if _, ok := r.schemas[s.Name]; ok {
		return errors.Wrapf(ErrDuplicateSchema, "%s", s.Name)
	}

	r.schemas[s.Name] = s
	return nil
}

// MustRegister is like Register but panics on error.
func (r *Registry) MustRegister(schemas ...*Schema) {
	for _, s := range schemas {
		if err := r.Register(s); err != nil {
			panic(err)
		}
	}
}

// Resolve returns the schema registered under name.
func (r *Registry) Resolve(name string) (*Schema, error) {
	s, ok := r.schemas[name]
	if !ok {
		return nil, errors.Wrapf(ErrUnknownSchema, "%s", name)
	}
	return s, nil
}

// SizeOf returns the static size of the named schema. It fails with
// ErrNotStaticallySized when the schema has variable-length content.
func (r *Registry) SizeOf(name string) (int, error) {
	s, err := r.Resolve(name)
	if err != nil {
		return 0, err
	}

	size, ok := SizeOf(s)
	if !ok {
		return 0, errors.Wrapf(ErrNotStaticallySized, "%s", name)
	}
	return size, nil
}

// Names returns the registered schema names in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.schemas))
	for name := range r.schemas {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Validate checks s for structural errors without registering it.
func Validate(s *Schema) error {
	return validateSchema(s, make(map[*Schema]bool))
}

func validateSchema(s *Schema, visiting map[*Schema]bool) error {
	if s == nil {
		return errors.Wrap(ErrInvalidSchema, "nil schema")
	}
	if s.Name == "" {
		return errors.Wrap(ErrInvalidSchema, "schema name is required")
	}
	if visiting[s] {
		return errors.Wrapf(ErrInvalidSchema, "%s: recursive schema", s.Name)
	}
	visiting[s] = true
	defer delete(visiting, s)

	if !s.IsUnion() {
		return validateFields(s.Fields, s.Name, visiting)
	}

	max, ok := s.tagWidth().maxDiscriminant()
	if !ok {
		return errors.Wrapf(ErrInvalidSchema, "%s: unsupported tag width %d", s.Name, s.TagWidth)
	}

	seen := make(map[uint32]string)
	names := make(map[string]struct{})
	for i, v := range s.Variants {
		if !v.declared {
			return errors.Wrapf(ErrMissingDiscriminant, "%s: variant %d (%q)", s.Name, i, v.Name)
		}
		if v.Name == "" {
			return errors.Wrapf(ErrInvalidSchema, "%s: variant %d has no name", s.Name, i)
		}
		if _, ok := names[v.Name]; ok {
			return errors.Wrapf(ErrInvalidSchema, "%s: duplicate variant name %q", s.Name, v.Name)
		}
		names[v.Name] = struct{}{}

		if v.Discriminant > max {
			return errors.Wrapf(ErrInvalidSchema, "%s: discriminant %d exceeds %d byte tag", s.Name, v.Discriminant, s.tagWidth())
		}
		if other, ok := seen[v.Discriminant]; ok {
			return errors.Wrapf(ErrDuplicateDiscriminant, "%s: %d used by %q and %q", s.Name, v.Discriminant, other, v.Name)
		}
		seen[v.Discriminant] = v.Name

		if err := validateFields(v.Fields, joinPath(s.Name, v.Name), visiting); err != nil {
			return err
		}
	}

	return nil
}

func validateFields(fields []Field, path string, visiting map[*Schema]bool) error {
	names := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		if f.Name == "" {
			return errors.Wrapf(ErrInvalidSchema, "%s: unnamed field", path)
		}
		if _, ok := names[f.Name]; ok {
			return errors.Wrapf(ErrInvalidSchema, "%s: duplicate field %q", path, f.Name)
		}
		names[f.Name] = struct{}{}

		if err := validateType(f.Type, joinPath(path, f.Name), visiting); err != nil {
			return err
		}
	}
	return nil
}

func validateType(t Type, path string, visiting map[*Schema]bool) error {
	switch t.Kind {
	case KindU8, KindU16, KindU32, KindU64,
		KindI8, KindI16, KindI32, KindI64,
		KindF32, KindF64, KindBool, KindString, KindBytes:
		return nil
	case KindFixedBytes:
		if t.Size <= 0 {
			return errors.Wrapf(ErrInvalidSchema, "%s: fixed byte array must have a positive length", path)
		}
		return nil
	case KindOption:
		if t.Elem == nil {
			return errors.Wrapf(ErrInvalidSchema, "%s: option without element type", path)
		}
		if t.Elem.Kind == KindOption {
			return errors.Wrapf(ErrInvalidSchema, "%s: nested options are not supported", path)
		}
		return validateType(*t.Elem, path, visiting)
	case KindSequence:
		if t.Elem == nil {
			return errors.Wrapf(ErrInvalidSchema, "%s: sequence without element type", path)
		}
		if minSize(*t.Elem) == 0 {
			return errors.Wrapf(ErrInvalidSchema, "%s: sequence element encodes to zero bytes", path)
		}
		return validateType(*t.Elem, path+"[]", visiting)
	case KindComposite:
		if t.Schema == nil {
			return errors.Wrapf(ErrInvalidSchema, "%s: composite without schema", path)
		}
		return validateSchema(t.Schema, visiting)
	}
	return errors.Wrapf(ErrInvalidSchema, "%s: unsupported kind %d", path, t.Kind)
}
