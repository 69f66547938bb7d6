package manifest

import (
	"bytes"
	"crypto/sha256"
	"encoding/base64"
	"encoding/csv"
	"fmt"
	"strconv"
	"strings"
)

// RecordFileName is the base name of the RECORD entry inside a wheel.
const RecordFileName = "RECORD"

// RecordHash returns the RECORD hash field for content: "sha256=" followed by
// the URL-safe, unpadded base64 digest.
func RecordHash(content []byte) string {
	sum := sha256.Sum256(content)
	return "sha256=" + base64.RawURLEncoding.EncodeToString(sum[:])
}

// RecordPathFor returns the RECORD entry that sits next to a manifest entry.
func RecordPathFor(manifestPath string) string {
	dir, _, _ := strings.Cut(manifestPath, "/")
	return dir + "/" + RecordFileName
}

// RefreshRecord rewrites the RECORD row for path with the hash and size of
// content. All other rows are kept byte-for-byte. found is false, and record
// is returned as is, when no row names path.
func RefreshRecord(record []byte, path string, content []byte) (out []byte, found bool, err error) {
	var buf bytes.Buffer
	rest := record
	for len(rest) > 0 {
		var raw []byte
		if i := bytes.IndexByte(rest, '\n'); i >= 0 {
			raw, rest = rest[:i+1], rest[i+1:]
		} else {
			raw, rest = rest, nil
		}

		l := splitEOL(string(raw))
		if l.text == "" {
			buf.Write(raw)
			continue
		}
		fields, err := csv.NewReader(strings.NewReader(l.text)).Read()
		if err != nil {
			return nil, false, fmt.Errorf("parse RECORD row %q: %w", l.text, err)
		}
		if len(fields) == 0 || fields[0] != path {
			buf.Write(raw)
			continue
		}

		found = true
		row, err := encodeRow(path, RecordHash(content), strconv.Itoa(len(content)))
		if err != nil {
			return nil, false, err
		}
		buf.WriteString(row)
		buf.WriteString(l.eol)
	}
	if !found {
		return record, false, nil
	}
	return buf.Bytes(), true, nil
}

func encodeRow(fields ...string) (string, error) {
	var b strings.Builder
	w := csv.NewWriter(&b)
	if err := w.Write(fields); err != nil {
		return "", err
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", err
	}
	return strings.TrimRight(b.String(), "\n"), nil
}
