package tags

import (
	"strings"

	"github.com/matzehuels/wheeltag/pkg/errors"
)

// Pair is a distinct (python, abi) combination found in a manifest.
type Pair struct {
	Python string
	ABI    string
}

// Triple is one expanded compatibility tag as recorded on a manifest Tag line.
type Triple struct {
	Python   string
	ABI      string
	Platform string
}

// ParseTriple parses "python-abi-platform". Exactly three non-empty "-"
// separated parts are required.
func ParseTriple(s string) (Triple, error) {
	parts := strings.Split(s, "-")
	if len(parts) != 3 {
		return Triple{}, errors.MalformedTag(s, "expected python-abi-platform")
	}
	for _, p := range parts {
		if p == "" {
			return Triple{}, errors.MalformedTag(s, "empty component in tag")
		}
	}
	return Triple{Python: parts[0], ABI: parts[1], Platform: parts[2]}, nil
}

// String returns the "python-abi-platform" form.
func (t Triple) String() string {
	return t.Python + "-" + t.ABI + "-" + t.Platform
}

// Pair returns the (python, abi) projection of t.
func (t Triple) Pair() Pair {
	return Pair{Python: t.Python, ABI: t.ABI}
}

// With returns the triple formed by p and a platform sub-tag.
func (p Pair) With(platform string) Triple {
	return Triple{Python: p.Python, ABI: p.ABI, Platform: platform}
}
