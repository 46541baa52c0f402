package designation

import (
	"fmt"
	"strings"
)

// Aspect is one of the reference designation aspects a code can belong to.
type Aspect string

// Known aspects. AspectUnknown marks a code whose prefix matched nothing.
const (
	AspectFunction Aspect = "function"
	AspectLocation Aspect = "location"
	AspectPower    Aspect = "power"
	AspectUnknown  Aspect = "unknown"
)

// prefixes is ordered longest first so "===" is never read as "=".
var prefixes = []struct {
	symbol string
	aspect Aspect
}{
	{"===", AspectPower},
	{"++", AspectLocation},
	{"=", AspectFunction},
}

// Prefix returns the prefix symbol for the aspect, or "" for AspectUnknown.
func (a Aspect) Prefix() string {
	for _, p := range prefixes {
		if p.aspect == a {
			return p.symbol
		}
	}
	return ""
}

// Label returns a display label for the aspect.
func (a Aspect) Label() string {
	switch a {
	case AspectFunction:
		return "Function"
	case AspectLocation:
		return "Location"
	case AspectPower:
		return "Power"
	default:
		return "Unknown"
	}
}

// ParseAspect converts a user-supplied aspect name or prefix symbol into an
// Aspect. Matching is case-insensitive.
func ParseAspect(s string) (Aspect, error) {
	v := strings.ToLower(strings.TrimSpace(s))
	switch v {
	case string(AspectFunction), "=":
		return AspectFunction, nil
	case string(AspectLocation), "++":
		return AspectLocation, nil
	case string(AspectPower), "===":
		return AspectPower, nil
	}
	return AspectUnknown, fmt.Errorf("unknown aspect %q", s)
}

// Classify returns the aspect of a raw code from its leading prefix symbols.
func Classify(raw string) Aspect {
	_, a := matchPrefix(strings.TrimSpace(raw))
	return a
}

func matchPrefix(s string) (string, Aspect) {
	for _, p := range prefixes {
		if strings.HasPrefix(s, p.symbol) {
			return p.symbol, p.aspect
		}
	}
	return "", AspectUnknown
}
