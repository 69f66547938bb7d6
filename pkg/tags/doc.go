// Package tags implements the wheel compatibility-tag grammar.
//
// # Overview
//
// A wheel filename carries three tag positions after the name and version:
//
//	name-version-{python}-{abi}-{platform}.whl
//
// Each position may be a compressed tag set: several sub-tags joined with
// ".", where the order carries no meaning. wheeltag only ever adds platform
// sub-tags, so the platform position is modelled as a [Compound] while the
// python and abi positions are kept as opaque strings.
//
// The same tags appear, fully expanded, in the archive's WHEEL manifest as
// one "Tag: {python}-{abi}-{platform}" line per combination. A single such
// combination is a [Triple].
//
// # Parsing
//
//	id, err := tags.ParseIdentity("pkg-1.0-py3-none-macosx_10_9_x86_64.whl")
//	id.Platform.String() // "macosx_10_9_x86_64"
//
// # Merging
//
// [MergeFilename] is the filename half of tag synchronization. It unions a
// [Request] into the platform position and reports whether the filename
// changes:
//
//	req, _ := tags.NewRequest("macosx_10_9_intel")
//	merged, changed, err := tags.MergeFilename(id, req)
//	merged.Filename() // "pkg-1.0-py3-none-macosx_10_9_intel.macosx_10_9_x86_64.whl"
//
// Pure (platform-independent) wheels, whose platform tag is exactly "any",
// cannot gain platform tags; MergeFilename rejects them.
//
// # Requests
//
// A [Request] is the ordered, duplicate-free list of sub-tags to add. Besides
// explicit tags it can be built from macOS versions with [MacOSTags], which
// expands "10_9" into the dual-architecture tag and the x86_64 tag.
package tags
