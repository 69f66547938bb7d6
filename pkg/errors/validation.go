package errors

import (
	"regexp"
	"strings"
	"unicode"
)

// subTagRegex matches a single compatibility sub-tag: lowercase or uppercase
// letters, digits and underscores (e.g. macosx_10_9_x86_64, cp39, abi3).
var subTagRegex = regexp.MustCompile(`^[A-Za-z0-9_]+$`)

// ValidateSubTag validates one platform sub-tag requested for addition.
//
// The validation rules keep the filename grammar intact:
//   - No empty tags
//   - No "." (it separates sub-tags of a compound tag)
//   - No "-" (it separates filename components)
//   - No whitespace or control characters
func ValidateSubTag(tag string) error {
	if tag == "" {
		return MalformedTag(tag, "platform tag cannot be empty")
	}
	if strings.Contains(tag, ".") {
		return MalformedTag(tag, "platform tag cannot contain '.'; pass each sub-tag separately")
	}
	if strings.Contains(tag, "-") {
		return MalformedTag(tag, "platform tag cannot contain '-'")
	}
	for _, r := range tag {
		if unicode.IsSpace(r) || unicode.IsControl(r) {
			return MalformedTag(tag, "platform tag contains invalid characters")
		}
	}
	if !subTagRegex.MatchString(tag) {
		return MalformedTag(tag, "invalid platform tag")
	}
	return nil
}

// macOSVersionRegex matches macOS versions written the way they appear inside
// platform tags: 10_9, 10_15, 11_0.
var macOSVersionRegex = regexp.MustCompile(`^[0-9]+_[0-9]+$`)

// ValidateMacOSVersion validates a version given to the --osx-ver expansion.
func ValidateMacOSVersion(ver string) error {
	if ver == "" {
		return New(ErrCodeInvalidInput, "macOS version cannot be empty")
	}
	if !macOSVersionRegex.MatchString(ver) {
		return New(ErrCodeInvalidInput, "invalid macOS version %q (expected MAJOR_MINOR, e.g. 10_9)", ver)
	}
	return nil
}

// ValidateEntryName validates an archive entry name selected for patching.
// Names must be relative, slash-separated and free of traversal sequences.
func ValidateEntryName(name string) error {
	if name == "" {
		return New(ErrCodeInvalidManifest, "entry name cannot be empty")
	}
	for _, r := range name {
		if r == '\x00' || unicode.IsControl(r) {
			return New(ErrCodeInvalidManifest, "entry name contains invalid characters")
		}
	}
	if strings.HasPrefix(name, "/") {
		return New(ErrCodeInvalidManifest, "entry name must be relative: %q", name)
	}
	if strings.Contains(name, "\\") {
		return New(ErrCodeInvalidManifest, "entry name cannot contain backslashes: %q", name)
	}
	for _, part := range strings.Split(name, "/") {
		if part == ".." {
			return New(ErrCodeInvalidManifest, "entry name cannot contain '..': %q", name)
		}
	}
	return nil
}
