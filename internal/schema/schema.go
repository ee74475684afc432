// Package schema declares the shape of a correction configuration: its
// categories, leaf paths, value kinds, defaults and validation rules.
package schema

import (
	"fmt"
	"math"
	"slices"
	"strings"

	"github.com/hugo-lorenzo-mato/corrector/internal/core"
)

// Kind is the declared type of a leaf.
type Kind string

const (
	KindBoolean        Kind = "boolean"
	KindEnum           Kind = "enum"
	KindInteger        Kind = "integer"
	KindBoundedInteger Kind = "bounded_integer"
	KindNumber         Kind = "number"
	KindStringList     Kind = "string_list"
)

// Field describes one leaf.
//
// Integer leaves are counts and only enforce Min. Bounded integer and number
// leaves enforce both Min and Max.
type Field struct {
	Category    string   `json:"category"`
	Name        string   `json:"name"`
	Kind        Kind     `json:"kind"`
	Default     Value    `json:"default"`
	Nullable    bool     `json:"nullable,omitempty"`
	Options     []string `json:"options,omitempty"`
	Min         float64  `json:"min,omitempty"`
	Max         float64  `json:"max,omitempty"`
	Description string   `json:"description,omitempty"`
}

// Path returns the dotted leaf path.
func (f Field) Path() string {
	return f.Category + "." + f.Name
}

// Schema is an immutable set of fields. It is safe for concurrent use.
type Schema struct {
	fields     map[string]Field
	paths      []string
	categories []string
}

// New builds a schema. Paths keep declaration order; every default must
// validate against its own field.
func New(fields ...Field) (*Schema, error) {
	s := &Schema{fields: make(map[string]Field, len(fields))}
	for _, f := range fields {
		if f.Category == "" || f.Name == "" || strings.Contains(f.Name, ".") {
			return nil, fmt.Errorf("invalid field name %q.%q", f.Category, f.Name)
		}
		path := f.Path()
		if _, dup := s.fields[path]; dup {
			return nil, fmt.Errorf("duplicate field %s", path)
		}
		f.Options = slices.Clone(f.Options)
		s.fields[path] = f
		s.paths = append(s.paths, path)
		if !slices.Contains(s.categories, f.Category) {
			s.categories = append(s.categories, f.Category)
		}
		if err := s.Validate(path, f.Default); err != nil {
			return nil, fmt.Errorf("default for %s: %w", path, err)
		}
	}
	return s, nil
}

// MustNew is like New but panics on error.
func MustNew(fields ...Field) *Schema {
	s, err := New(fields...)
	if err != nil {
		panic(err)
	}
	return s
}

// SplitPath splits a leaf path into category and field name.
func SplitPath(path string) (category, name string, ok bool) {
	category, name, ok = strings.Cut(path, ".")
	if !ok || category == "" || name == "" || strings.Contains(name, ".") {
		return "", "", false
	}
	return category, name, true
}

// Paths returns all leaf paths in declaration order.
func (s *Schema) Paths() []string {
	return slices.Clone(s.paths)
}

// Categories returns category names in declaration order.
func (s *Schema) Categories() []string {
	return slices.Clone(s.categories)
}

// CategoryPaths returns the leaf paths of one category.
func (s *Schema) CategoryPaths(category string) []string {
	var out []string
	for _, p := range s.paths {
		if s.fields[p].Category == category {
			out = append(out, p)
		}
	}
	return out
}

// Has reports whether path is a known leaf.
func (s *Schema) Has(path string) bool {
	_, ok := s.fields[path]
	return ok
}

// Field returns the field declared at path.
func (s *Schema) Field(path string) (Field, error) {
	f, ok := s.fields[path]
	if !ok {
		return Field{}, unknownPath(path)
	}
	f.Options = slices.Clone(f.Options)
	f.Default = f.Default.Clone()
	return f, nil
}

// Default returns the canonical default of path.
func (s *Schema) Default(path string) (Value, error) {
	f, ok := s.fields[path]
	if !ok {
		return Value{}, unknownPath(path)
	}
	return f.Default.Clone(), nil
}

// Kind returns the declared kind of path.
func (s *Schema) Kind(path string) (Kind, error) {
	f, ok := s.fields[path]
	if !ok {
		return "", unknownPath(path)
	}
	return f.Kind, nil
}

// Validate checks v against the field at path. Out-of-range values are
// rejected, never clamped.
func (s *Schema) Validate(path string, v Value) error {
	f, ok := s.fields[path]
	if !ok {
		return unknownPath(path)
	}
	if !v.IsValid() {
		return typeMismatch(path, f.Kind, v)
	}
	if v.IsNull() {
		if f.Nullable {
			return nil
		}
		return core.ErrValidation(core.CodeTypeMismatch,
			fmt.Sprintf("%s is not nullable", path)).WithDetail("path", path)
	}

	switch f.Kind {
	case KindBoolean:
		if _, ok := v.AsBool(); !ok {
			return typeMismatch(path, f.Kind, v)
		}
	case KindEnum:
		str, ok := v.AsString()
		if !ok {
			return typeMismatch(path, f.Kind, v)
		}
		if !slices.Contains(f.Options, str) {
			return core.ErrValidation(core.CodeInvalidOption,
				fmt.Sprintf("%s must be one of [%s], got %q", path, strings.Join(f.Options, ", "), str)).
				WithDetail("path", path).
				WithDetail("options", slices.Clone(f.Options))
		}
	case KindInteger:
		i, ok := v.AsInt()
		if !ok {
			return typeMismatch(path, f.Kind, v)
		}
		if float64(i) < f.Min {
			return outOfRange(path, f, float64(i))
		}
	case KindBoundedInteger:
		i, ok := v.AsInt()
		if !ok {
			return typeMismatch(path, f.Kind, v)
		}
		if float64(i) < f.Min || float64(i) > f.Max {
			return outOfRange(path, f, float64(i))
		}
	case KindNumber:
		n, ok := v.AsNumber()
		if !ok || math.IsNaN(n) {
			return typeMismatch(path, f.Kind, v)
		}
		if n < f.Min || n > f.Max {
			return outOfRange(path, f, n)
		}
	case KindStringList:
		if _, ok := v.AsList(); !ok {
			return typeMismatch(path, f.Kind, v)
		}
	default:
		return core.ErrInternal(fmt.Sprintf("field %s has unknown kind %q", path, f.Kind))
	}
	return nil
}

// Coerce converts decoded data (JSON, YAML, TOML or a Value) into the kind
// declared at path and validates it. Integral numbers are accepted for
// number leaves and integral floats for integer leaves.
func (s *Schema) Coerce(path string, raw any) (Value, error) {
	f, ok := s.fields[path]
	if !ok {
		return Value{}, unknownPath(path)
	}
	v, err := FromAny(raw)
	if err != nil {
		return Value{}, core.ErrValidation(core.CodeTypeMismatch,
			fmt.Sprintf("%s: %v", path, err)).WithDetail("path", path)
	}
	switch f.Kind {
	case KindNumber:
		if i, ok := v.AsInt(); ok {
			v = Number(float64(i))
		}
	case KindInteger, KindBoundedInteger:
		if n, ok := v.AsNumber(); ok && v.tag == tagNumber && n == math.Trunc(n) {
			v = Int(int(n))
		}
	}
	if err := s.Validate(path, v); err != nil {
		return Value{}, err
	}
	return v, nil
}

func unknownPath(path string) error {
	return core.ErrValidation(core.CodeUnknownPath,
		fmt.Sprintf("unknown configuration path %q", path)).WithDetail("path", path)
}

func typeMismatch(path string, kind Kind, v Value) error {
	return core.ErrValidation(core.CodeTypeMismatch,
		fmt.Sprintf("%s expects %s, got %s", path, kind, v.kindName())).
		WithDetail("path", path)
}

func outOfRange(path string, f Field, got float64) error {
	var msg string
	if f.Kind == KindInteger {
		msg = fmt.Sprintf("%s must be at least %g, got %g", path, f.Min, got)
	} else {
		msg = fmt.Sprintf("%s must be between %g and %g, got %g", path, f.Min, f.Max, got)
	}
	return core.ErrValidation(core.CodeOutOfRange, msg).
		WithDetail("path", path).
		WithDetail("min", f.Min).
		WithDetail("max", f.Max)
}

func (v Value) kindName() string {
	switch v.tag {
	case tagNull:
		return "null"
	case tagBool:
		return "boolean"
	case tagInt:
		return "integer"
	case tagNumber:
		return "number"
	case tagString:
		return "string"
	case tagList:
		return "list"
	}
	return "invalid value"
}
