package adapters

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/bittoy/corpuspipe/schedule"
)

// Span is one (start, end) byte offset pair into the source file, per spec
// §6 "work/<file>/<span-ref>/_span (span offsets)".
type Span struct {
	Start, End int
}

// ReadSpans reads a _span file: one "start\tend" pair per line.
func ReadSpans(path string) ([]Span, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var spans []Span
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := sc.Text()
		if line == "" {
			continue
		}
		parts := strings.SplitN(line, "\t", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("adapters: malformed span line %q in %s", line, path)
		}
		start, err := strconv.Atoi(parts[0])
		if err != nil {
			return nil, err
		}
		end, err := strconv.Atoi(parts[1])
		if err != nil {
			return nil, err
		}
		spans = append(spans, Span{Start: start, End: end})
	}
	return spans, sc.Err()
}

// WriteSpans writes spans atomically, one "start\tend" pair per line, per
// spec §3 invariant "A rule's outputs are written atomically."
func WriteSpans(path string, spans []Span) error {
	var b strings.Builder
	for _, s := range spans {
		fmt.Fprintf(&b, "%d\t%d\n", s.Start, s.End)
	}
	return schedule.AtomicWriteFile(path, []byte(b.String()), 0o644)
}

// ReadAttrs reads an attribute annotation file: one value per span, per
// spec §6 "work/<file>/<span-ref>/<attr-ref> (one line per span)". A
// backslash-escaped newline within a value (\n) is unescaped on read.
func ReadAttrs(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var out []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		out = append(out, unescapeAttr(sc.Text()))
	}
	return out, sc.Err()
}

// WriteAttrs writes one escaped value per line, atomically.
func WriteAttrs(path string, values []string) error {
	var b strings.Builder
	for _, v := range values {
		b.WriteString(escapeAttr(v))
		b.WriteByte('\n')
	}
	return schedule.AtomicWriteFile(path, []byte(b.String()), 0o644)
}

func escapeAttr(v string) string {
	v = strings.ReplaceAll(v, "\\", "\\\\")
	v = strings.ReplaceAll(v, "\n", "\\n")
	return v
}

func unescapeAttr(v string) string {
	var b strings.Builder
	for i := 0; i < len(v); i++ {
		if v[i] == '\\' && i+1 < len(v) {
			switch v[i+1] {
			case 'n':
				b.WriteByte('\n')
				i++
				continue
			case '\\':
				b.WriteByte('\\')
				i++
				continue
			}
		}
		b.WriteByte(v[i])
	}
	return b.String()
}

// ReadCorpusData reads a corpus-level opaque payload (work/<corpus-data-ref>),
// returned as raw bytes: the engine never interprets annotation content
// per spec §1 Non-goals.
func ReadCorpusData(path string) ([]byte, error) {
	return os.ReadFile(path)
}

// WriteCorpusData writes a corpus-level opaque payload atomically.
func WriteCorpusData(path string, data []byte) error {
	return schedule.AtomicWriteFile(path, data, 0o644)
}

// Marker creates a zero-length sentinel file for an (un)installer, per
// spec §6 "Marker files for (un)installers: zero-length sentinel at a
// declared path."
func Marker(path string) error {
	return schedule.AtomicWriteFile(path, nil, 0o644)
}

// HasMarker reports whether a marker sentinel exists.
func HasMarker(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// RemoveMarker deletes an (un)installer's sentinel file, used by `uninstall`.
func RemoveMarker(path string) error {
	err := os.Remove(path)
	if os.IsNotExist(err) {
		return nil
	}
	return err
}
