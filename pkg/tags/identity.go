package tags

import (
	"path/filepath"
	"strings"

	"github.com/matzehuels/wheeltag/pkg/errors"
)

// PureTag is the platform sentinel of a platform-independent archive.
const PureTag = "any"

// identityParts is the number of "-" separated components in a canonical stem.
const identityParts = 5

// Identity is the package identity encoded in a wheel filename.
// Values are immutable; merge operations return modified copies.
type Identity struct {
	Name     string
	Version  string
	Python   string
	ABI      string
	Platform Compound
	Ext      string // including the leading dot, e.g. ".whl"
}

// ParseIdentity parses the base name of filename into an Identity.
//
// The stem (base name without its final extension) must split on "-" into
// exactly five non-empty components: name, version, python tag, abi tag and
// platform tag. The platform component is parsed with [ParseCompound].
func ParseIdentity(filename string) (Identity, error) {
	base := filepath.Base(filename)
	ext := filepath.Ext(base)
	stem := strings.TrimSuffix(base, ext)

	parts := strings.Split(stem, "-")
	if len(parts) != identityParts {
		return Identity{}, errors.MalformedFilename(filename,
			"expected %d '-' separated components in %q, got %d", identityParts, stem, len(parts))
	}
	for i, p := range parts {
		if p == "" {
			return Identity{}, errors.MalformedFilename(filename, "empty component %d in %q", i+1, stem)
		}
	}

	plat, err := ParseCompound(parts[4])
	if err != nil {
		return Identity{}, errors.WithPath(err, filename)
	}

	return Identity{
		Name:     parts[0],
		Version:  parts[1],
		Python:   parts[2],
		ABI:      parts[3],
		Platform: plat,
		Ext:      ext,
	}, nil
}

// Stem returns the canonical filename without its extension.
func (id Identity) Stem() string {
	return strings.Join([]string{id.Name, id.Version, id.Python, id.ABI, id.Platform.String()}, "-")
}

// Filename returns the canonical filename name-version-python-abi-platform.ext.
func (id Identity) Filename() string {
	return id.Stem() + id.Ext
}

// IsPure reports whether the platform tag is exactly {"any"}.
func (id Identity) IsPure() bool {
	return id.Platform.Len() == 1 && id.Platform.Has(PureTag)
}

// DistInfoDir returns the conventional metadata directory name, e.g.
// "pkg-1.0.dist-info".
func (id Identity) DistInfoDir() string {
	return id.Name + "-" + id.Version + ".dist-info"
}

// WithPlatform returns a copy of id with the platform tag replaced.
func (id Identity) WithPlatform(plat Compound) Identity {
	id.Platform = plat
	return id
}
