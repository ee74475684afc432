package layer

import (
	"fmt"

	"github.com/hugo-lorenzo-mato/corrector/internal/core"
)

// Stack is an ordered chain of layers from least to most specific. Several
// layers may share a Name (a built-in type layer followed by the user's
// override of it); the later one is more specific.
type Stack []*Layer

// NewStack builds a stack, skipping absent layers.
func NewStack(layers ...*Layer) Stack {
	out := make(Stack, 0, len(layers))
	for _, l := range layers {
		if l != nil {
			out = append(out, l)
		}
	}
	return out
}

// Validate checks that layers are ordered by specificity.
func (s Stack) Validate() error {
	for i := 1; i < len(s); i++ {
		if s[i] == nil || s[i-1] == nil {
			continue
		}
		if s[i].Name < s[i-1].Name {
			return core.ErrInternal(fmt.Sprintf("layer %s (%s) follows more specific layer %s (%s)",
				s[i].Name, s[i].SourceName, s[i-1].Name, s[i-1].SourceName))
		}
	}
	return nil
}

// Innermost returns the most specific layer with name, or nil.
func (s Stack) Innermost(name Name) *Layer {
	for i := len(s) - 1; i >= 0; i-- {
		if s[i] != nil && s[i].Name == name {
			return s[i]
		}
	}
	return nil
}

// Index returns the position of the most specific layer with name, or -1.
func (s Stack) Index(name Name) int {
	for i := len(s) - 1; i >= 0; i-- {
		if s[i] != nil && s[i].Name == name {
			return i
		}
	}
	return -1
}

// Without returns the stack minus every layer with name.
func (s Stack) Without(name Name) Stack {
	out := make(Stack, 0, len(s))
	for _, l := range s {
		if l != nil && l.Name != name {
			out = append(out, l)
		}
	}
	return out
}

// Outer returns the layers strictly less specific than name.
func (s Stack) Outer(name Name) Stack {
	out := make(Stack, 0, len(s))
	for _, l := range s {
		if l != nil && l.Name < name {
			out = append(out, l)
		}
	}
	return out
}

// Replace returns a stack where the innermost layer with l.Name is swapped
// for l, or l is inserted after every layer not more specific than it.
func (s Stack) Replace(l *Layer) Stack {
	out := make(Stack, 0, len(s)+1)
	out = append(out, s...)
	if i := out.Index(l.Name); i >= 0 {
		out[i] = l
		return out
	}
	pos := len(out)
	for i, existing := range out {
		if existing != nil && existing.Name > l.Name {
			pos = i
			break
		}
	}
	out = append(out, nil)
	copy(out[pos+1:], out[pos:])
	out[pos] = l
	return out
}

// Clone deep-copies every layer.
func (s Stack) Clone() Stack {
	out := make(Stack, 0, len(s))
	for _, l := range s {
		if l != nil {
			out = append(out, l.Clone())
		}
	}
	return out
}
