// Package manifest reads and patches the WHEEL metadata file of a wheel.
//
// A WHEEL file is a block of "Key: Value" lines. The lines that matter here
// are the Tag lines, one per expanded (python, abi, platform) combination:
//
//	Wheel-Version: 1.0
//	Generator: bdist_wheel (0.37.1)
//	Root-Is-Purelib: false
//	Tag: cp39-cp39-macosx_10_9_x86_64
//
// [Parse] keeps every original line verbatim so that [Manifest.Bytes]
// reproduces the input exactly until [Manifest.Merge] appends new Tag lines.
// Merging is append-only: existing lines are never removed or reordered.
package manifest

import (
	"bytes"
	"strings"

	"github.com/matzehuels/wheeltag/pkg/errors"
	"github.com/matzehuels/wheeltag/pkg/tags"
)

// FileName is the base name of the manifest entry inside a wheel.
const FileName = "WHEEL"

// TagKey is the header key of compatibility tag lines.
const TagKey = "Tag"

// RootIsPurelibKey is the header declaring a platform-independent install root.
const RootIsPurelibKey = "Root-Is-Purelib"

// line is one physical line of the manifest, kept with its terminator.
type line struct {
	text string // content without terminator
	eol  string // "\n", "\r\n" or "" for an unterminated final line
	key  string // header key, empty for continuation or blank lines
	val  string
	tag  *tags.Triple
}

// Manifest is a parsed WHEEL file.
type Manifest struct {
	lines   []line
	seen    map[tags.Triple]bool
	lastTag int // index of the last Tag line, -1 when none
}

// Parse parses a WHEEL file. Every Tag value must be a well-formed
// python-abi-platform triple, otherwise Parse fails with MALFORMED_TAG.
func Parse(data []byte) (*Manifest, error) {
	m := &Manifest{seen: make(map[tags.Triple]bool), lastTag: -1}

	rest := data
	for len(rest) > 0 {
		var raw []byte
		if i := bytes.IndexByte(rest, '\n'); i >= 0 {
			raw, rest = rest[:i+1], rest[i+1:]
		} else {
			raw, rest = rest, nil
		}

		l := splitEOL(string(raw))
		if k, v, ok := header(l.text); ok {
			l.key, l.val = k, v
			if strings.EqualFold(k, TagKey) {
				tr, err := tags.ParseTriple(v)
				if err != nil {
					return nil, err
				}
				l.tag = &tr
				m.seen[tr] = true
				m.lastTag = len(m.lines)
			}
		}
		m.lines = append(m.lines, l)
	}
	return m, nil
}

func splitEOL(s string) line {
	switch {
	case strings.HasSuffix(s, "\r\n"):
		return line{text: s[:len(s)-2], eol: "\r\n"}
	case strings.HasSuffix(s, "\n"):
		return line{text: s[:len(s)-1], eol: "\n"}
	}
	return line{text: s}
}

// header splits "Key: Value". Continuation lines (leading whitespace) and
// lines without a colon are not headers.
func header(s string) (key, val string, ok bool) {
	if s == "" || s[0] == ' ' || s[0] == '\t' {
		return "", "", false
	}
	k, v, found := strings.Cut(s, ":")
	if !found || strings.TrimSpace(k) == "" {
		return "", "", false
	}
	return strings.TrimSpace(k), strings.TrimSpace(v), true
}

// Tags returns the Tag triples in file order.
func (m *Manifest) Tags() []tags.Triple {
	var out []tags.Triple
	for _, l := range m.lines {
		if l.tag != nil {
			out = append(out, *l.tag)
		}
	}
	return out
}

// Pairs returns the distinct (python, abi) pairs of the Tag lines in the
// order they are first seen.
func (m *Manifest) Pairs() []tags.Pair {
	var out []tags.Pair
	seen := make(map[tags.Pair]bool)
	for _, tr := range m.Tags() {
		p := tr.Pair()
		if !seen[p] {
			seen[p] = true
			out = append(out, p)
		}
	}
	return out
}

// Has reports whether the manifest records tr.
func (m *Manifest) Has(tr tags.Triple) bool {
	return m.seen[tr]
}

// Get returns the first value recorded for key (case-insensitive).
func (m *Manifest) Get(key string) (string, bool) {
	for _, l := range m.lines {
		if l.key != "" && strings.EqualFold(l.key, key) {
			return l.val, true
		}
	}
	return "", false
}

// Merge appends a Tag line for every (pair, sub-tag) combination the
// manifest does not already record and returns the added triples.
//
// Pairs are visited in first-seen order and, within a pair, sub-tags in
// request order. New lines go directly after the last existing Tag line. A
// manifest without Tag lines has no pairs, so nothing is added. A nil result
// means the manifest is unchanged.
func (m *Manifest) Merge(req tags.Request) []tags.Triple {
	if m.lastTag < 0 || req.Empty() {
		return nil
	}

	var added []tags.Triple
	for _, p := range m.Pairs() {
		for _, plat := range req.SubTags() {
			tr := p.With(plat)
			if m.seen[tr] {
				continue
			}
			m.seen[tr] = true
			added = append(added, tr)
		}
	}
	if len(added) == 0 {
		return nil
	}

	anchor := m.lines[m.lastTag]
	eol := anchor.eol
	if eol == "" {
		// The last tag line was unterminated; terminate it so appended lines
		// start on their own line.
		eol = m.defaultEOL()
		m.lines[m.lastTag].eol = eol
	}

	newLines := make([]line, 0, len(added))
	for i := range added {
		tr := added[i]
		newLines = append(newLines, line{
			text: TagKey + ": " + tr.String(),
			eol:  eol,
			key:  TagKey,
			val:  tr.String(),
			tag:  &tr,
		})
	}
	if m.lastTag == len(m.lines)-1 && anchor.eol == "" {
		// Keep the original lack of a trailing newline at end of file.
		newLines[len(newLines)-1].eol = ""
	}

	at := m.lastTag + 1
	m.lines = append(m.lines[:at], append(newLines, m.lines[at:]...)...)
	m.lastTag += len(newLines)
	return added
}

func (m *Manifest) defaultEOL() string {
	for _, l := range m.lines {
		if l.eol != "" {
			return l.eol
		}
	}
	return "\n"
}

// Bytes renders the manifest.
func (m *Manifest) Bytes() []byte {
	var buf bytes.Buffer
	for _, l := range m.lines {
		buf.WriteString(l.text)
		buf.WriteString(l.eol)
	}
	return buf.Bytes()
}

// MergeBytes parses data, merges req and returns the patched content. The
// returned content is nil when nothing was added.
func MergeBytes(data []byte, req tags.Request) ([]byte, []tags.Triple, error) {
	m, err := Parse(data)
	if err != nil {
		return nil, nil, err
	}
	added := m.Merge(req)
	if len(added) == 0 {
		return nil, nil, nil
	}
	return m.Bytes(), added, nil
}

// IsManifestPath reports whether name is a top-level "*.dist-info/WHEEL" entry.
func IsManifestPath(name string) bool {
	dir, base, ok := strings.Cut(name, "/")
	return ok && base == FileName && strings.HasSuffix(dir, ".dist-info") && dir != ".dist-info"
}

// Select picks the manifest entry among names. When several dist-info
// directories carry a WHEEL file the one named preferredDir wins; if none
// matches, the choice is ambiguous and Select fails with INVALID_MANIFEST.
func Select(names []string, preferredDir string) (string, error) {
	var candidates []string
	for _, n := range names {
		if IsManifestPath(n) {
			candidates = append(candidates, n)
		}
	}
	switch len(candidates) {
	case 0:
		return "", errors.New(errors.ErrCodeInvalidManifest, "no *.dist-info/%s entry in archive", FileName)
	case 1:
		return candidates[0], nil
	}
	want := preferredDir + "/" + FileName
	for _, c := range candidates {
		if c == want {
			return c, nil
		}
	}
	return "", errors.New(errors.ErrCodeInvalidManifest,
		"multiple %s entries and none in %s: %s", FileName, preferredDir, strings.Join(candidates, ", "))
}
