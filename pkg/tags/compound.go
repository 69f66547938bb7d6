package tags

import (
	"slices"
	"strings"

	"github.com/matzehuels/wheeltag/pkg/errors"
)

// Separator joins the sub-tags of a compound tag.
const Separator = "."

// Compound is an order-insignificant set of sub-tags for one tag position.
// The zero value is an empty set.
type Compound struct {
	set map[string]struct{}
}

// NewCompound returns a compound containing the given sub-tags. Duplicates
// collapse; empty strings are ignored.
func NewCompound(subTags ...string) Compound {
	c := Compound{set: make(map[string]struct{}, len(subTags))}
	for _, t := range subTags {
		if t != "" {
			c.set[t] = struct{}{}
		}
	}
	return c
}

// ParseCompound splits s on "." into a set of sub-tags.
// It fails with MALFORMED_TAG if any sub-tag is empty.
func ParseCompound(s string) (Compound, error) {
	parts := strings.Split(s, Separator)
	for _, p := range parts {
		if p == "" {
			return Compound{}, errors.MalformedTag(s, "empty sub-tag in compound tag")
		}
	}
	return NewCompound(parts...), nil
}

// String serializes the set sorted lexicographically and joined with ".".
func (c Compound) String() string {
	return strings.Join(c.Sorted(), Separator)
}

// Sorted returns the sub-tags in lexicographic order.
func (c Compound) Sorted() []string {
	out := make([]string, 0, len(c.set))
	for t := range c.set {
		out = append(out, t)
	}
	slices.Sort(out)
	return out
}

// Len returns the number of sub-tags.
func (c Compound) Len() int { return len(c.set) }

// Has reports whether t is one of the sub-tags.
func (c Compound) Has(t string) bool {
	_, ok := c.set[t]
	return ok
}

// Equal reports whether both sets hold the same sub-tags.
func (c Compound) Equal(other Compound) bool {
	if len(c.set) != len(other.set) {
		return false
	}
	for t := range c.set {
		if !other.Has(t) {
			return false
		}
	}
	return true
}

// Union returns a new compound holding the sub-tags of c and adds.
// c is not modified.
func (c Compound) Union(adds ...string) Compound {
	out := Compound{set: make(map[string]struct{}, len(c.set)+len(adds))}
	for t := range c.set {
		out.set[t] = struct{}{}
	}
	for _, t := range adds {
		if t != "" {
			out.set[t] = struct{}{}
		}
	}
	return out
}

// Missing returns the sub-tags of adds that are not in c, in the order given.
func (c Compound) Missing(adds []string) []string {
	var out []string
	for _, t := range adds {
		if !c.Has(t) && !slices.Contains(out, t) {
			out = append(out, t)
		}
	}
	return out
}
