// Package designation parses IEC 81346 reference designation codes such as
// "===P.AH5" into their aspect and dot-separated path segments.
package designation

import (
	"errors"
	"fmt"
	"strings"
)

// Separator delimits the segments of a code body.
const Separator = "."

// ErrUnrecognizedAspect is returned when a code does not start with a known
// aspect prefix.
var ErrUnrecognizedAspect = errors.New("unrecognized aspect prefix")

// Code is the parsed form of a raw designation string.
type Code struct {
	Aspect   Aspect   `json:"aspect"`
	Prefix   string   `json:"prefix"`
	Segments []string `json:"segments"`
	// Raw is the string exactly as supplied. It is the lookup key, since two
	// aspects may share segment text.
	Raw string `json:"raw"`
	// Trailing is set when the code ends with a separator ("=A.B.").
	Trailing bool `json:"trailing,omitempty"`
}

// Parse turns a raw designation string into a Code. Surrounding whitespace is
// ignored for prefix detection but kept in Raw. Segment text is not validated.
func Parse(raw string) (Code, error) {
	s := strings.TrimSpace(raw)
	prefix, aspect := matchPrefix(s)
	if aspect == AspectUnknown {
		return Code{}, fmt.Errorf("parse %q: %w", raw, ErrUnrecognizedAspect)
	}

	body := s[len(prefix):]
	segments := make([]string, 0, strings.Count(body, Separator)+1)
	for _, seg := range strings.Split(body, Separator) {
		if seg != "" {
			segments = append(segments, seg)
		}
	}

	return Code{
		Aspect:   aspect,
		Prefix:   prefix,
		Segments: segments,
		Raw:      raw,
		Trailing: len(segments) > 0 && strings.HasSuffix(body, Separator),
	}, nil
}

// ParseLenient never fails. A code with no known prefix comes back with
// AspectUnknown and no segments, so Raw can still serve as an opaque key.
func ParseLenient(raw string) Code {
	c, err := Parse(raw)
	if err != nil {
		return Code{Aspect: AspectUnknown, Raw: raw}
	}
	return c
}

// Known reports whether the code carries a recognized aspect.
func (c Code) Known() bool {
	return c.Aspect != AspectUnknown && c.Aspect != ""
}

// String renders the canonical form of the code.
func (c Code) String() string {
	if !c.Known() {
		return c.Raw
	}
	s := c.Prefix + strings.Join(c.Segments, Separator)
	if c.Trailing {
		s += Separator
	}
	return s
}

// Level is the depth of the code in the entity/container hierarchy: each
// segment contributes an entity level and, when followed by a separator, a
// container level. "=A" is 1, "=A." is 2, "=A.B" is 3. A bare prefix is 0.
func (c Code) Level() int {
	if len(c.Segments) == 0 {
		return 0
	}
	level := len(c.Segments) * 2
	if !c.Trailing {
		level--
	}
	return level
}

// DerivedParent returns the parent code implied by the code text alone. A
// container ("=A.B.") belongs to its entity ("=A.B"); an entity ("=A.B")
// belongs to the preceding container ("=A."). Single-segment entities and bare
// prefixes have no derived parent.
func (c Code) DerivedParent() (string, bool) {
	if !c.Known() || len(c.Segments) == 0 {
		return "", false
	}
	if c.Trailing {
		return c.Prefix + strings.Join(c.Segments, Separator), true
	}
	if len(c.Segments) == 1 {
		return "", false
	}
	return c.Prefix + strings.Join(c.Segments[:len(c.Segments)-1], Separator) + Separator, true
}

// Expand returns the chain of entity and container codes from the aspect root
// down to raw. "=A.B" expands to "=A", "=A.", "=A.B".
func Expand(raw string) ([]Code, error) {
	c, err := Parse(raw)
	if err != nil {
		return nil, err
	}

	chain := make([]Code, 0, len(c.Segments)*2)
	for i := range c.Segments {
		segs := append([]string(nil), c.Segments[:i+1]...)
		entity := Code{Aspect: c.Aspect, Prefix: c.Prefix, Segments: segs}
		entity.Raw = entity.String()
		chain = append(chain, entity)

		if i < len(c.Segments)-1 || c.Trailing {
			container := entity
			container.Trailing = true
			container.Raw = container.String()
			chain = append(chain, container)
		}
	}
	return chain, nil
}
