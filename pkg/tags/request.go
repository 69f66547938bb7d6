package tags

import (
	"fmt"
	"slices"
	"strings"

	"github.com/matzehuels/wheeltag/pkg/errors"
)

// Dual-architecture flavours accepted by [MacOSTags].
const (
	DualArchIntel      = "intel"
	DualArchUniversal2 = "universal2"
)

// DefaultDualArch is the dual-architecture flavour used when none is given.
const DefaultDualArch = DualArchIntel

// ValidDualArchs is the set of supported dual-architecture flavours.
var ValidDualArchs = map[string]bool{
	DualArchIntel:      true,
	DualArchUniversal2: true,
}

// Request is the ordered, duplicate-free list of platform sub-tags to add to
// an archive. The order is the order tags were first given and determines the
// order in which new manifest lines are appended.
type Request struct {
	subTags []string
}

// NewRequest validates subTags and returns them as a Request, dropping
// repeats. Each sub-tag must satisfy [errors.ValidateSubTag].
func NewRequest(subTags ...string) (Request, error) {
	var r Request
	for _, t := range subTags {
		t = strings.TrimSpace(t)
		if err := errors.ValidateSubTag(t); err != nil {
			return Request{}, err
		}
		if !slices.Contains(r.subTags, t) {
			r.subTags = append(r.subTags, t)
		}
	}
	return r, nil
}

// SubTags returns a copy of the requested sub-tags in request order.
func (r Request) SubTags() []string {
	return slices.Clone(r.subTags)
}

// Len returns the number of distinct requested sub-tags.
func (r Request) Len() int { return len(r.subTags) }

// Empty reports whether no sub-tags were requested.
func (r Request) Empty() bool { return len(r.subTags) == 0 }

// String joins the sub-tags with ",".
func (r Request) String() string {
	return strings.Join(r.subTags, ",")
}

// MacOSTags expands macOS versions into platform sub-tags. Each version
// "V" yields "macosx_V_{dualArch}" followed by "macosx_V_x86_64".
// An empty dualArch means [DefaultDualArch].
func MacOSTags(versions []string, dualArch string) ([]string, error) {
	if dualArch == "" {
		dualArch = DefaultDualArch
	}
	if !ValidDualArchs[dualArch] {
		return nil, errors.New(errors.ErrCodeInvalidInput,
			"invalid dual architecture type %q (must be %s or %s)", dualArch, DualArchIntel, DualArchUniversal2)
	}
	out := make([]string, 0, 2*len(versions))
	for _, v := range versions {
		if err := errors.ValidateMacOSVersion(v); err != nil {
			return nil, err
		}
		out = append(out,
			fmt.Sprintf("macosx_%s_%s", v, dualArch),
			fmt.Sprintf("macosx_%s_x86_64", v),
		)
	}
	return out, nil
}
