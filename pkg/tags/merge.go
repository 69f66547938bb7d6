package tags

import (
	"github.com/matzehuels/wheeltag/pkg/errors"
)

// MergeFilename unions req into the platform tag of id.
//
// It returns the merged identity and whether it differs from id. When every
// requested sub-tag is already present the original identity is returned
// unchanged. A pure identity with a non-empty request fails with
// PURE_ARCHIVE; an empty request never changes anything.
func MergeFilename(id Identity, req Request) (Identity, bool, error) {
	if req.Empty() {
		return id, false, nil
	}
	if id.IsPure() {
		return id, false, errors.PureArchive(id.Filename())
	}
	if len(id.Platform.Missing(req.subTags)) == 0 {
		return id, false, nil
	}
	return id.WithPlatform(id.Platform.Union(req.subTags...)), true, nil
}
