// Package resolve expands abstract annotation references into concrete file
// paths: component C of the pipeline engine ("who produces this reference?").
package resolve

import "regexp"

var (
	classPattern  = regexp.MustCompile(`<([a-z0-9_.\-]+)(?::([a-z0-9_.\-]+))?>`)
	wildPattern   = regexp.MustCompile(`\{([a-z0-9_\-]+)\}`)
	configPattern = regexp.MustCompile(`\[([a-z0-9_.\-]+)\]`)
	// refPattern splits a fully expanded reference into base and optional
	// attribute, per spec §3 "Span references have no colon; attribute
	// references do."
	refPattern = regexp.MustCompile(`^([a-z0-9_.\-]+)(?::([a-z0-9_.\-]+))?$`)
)

// Reference is a parsed annotation reference literal, e.g. "<token:word>",
// "{annotation}:misc.number_position", "[wsd.sense_model].sense".
type Reference struct {
	Literal string
}

func NewReference(literal string) Reference {
	return Reference{Literal: literal}
}

// Classes returns every <class> / <class:attr> token in the reference.
func (r Reference) Classes() [][3]string {
	matches := classPattern.FindAllStringSubmatch(r.Literal, -1)
	out := make([][3]string, len(matches))
	for i, m := range matches {
		out[i] = [3]string{m[0], m[1], m[2]}
	}
	return out
}

// Wildcards returns every {name} token in the reference.
func (r Reference) Wildcards() []string {
	matches := wildPattern.FindAllStringSubmatch(r.Literal, -1)
	out := make([]string, len(matches))
	for i, m := range matches {
		out[i] = m[1]
	}
	return out
}

// ConfigPlaceholders returns every [dotted.key] token in the reference.
func (r Reference) ConfigPlaceholders() []string {
	matches := configPattern.FindAllStringSubmatch(r.Literal, -1)
	out := make([]string, len(matches))
	for i, m := range matches {
		out[i] = m[1]
	}
	return out
}

// IsSpan reports whether the (fully expanded) reference has no attribute
// part, per spec §3.
func (r Reference) IsSpan() bool {
	m := refPattern.FindStringSubmatch(r.Literal)
	return m != nil && m[2] == ""
}

// BaseAttr splits a fully expanded reference into its base and attribute
// parts. Attr is empty for span references.
func (r Reference) BaseAttr() (base, attr string, ok bool) {
	m := refPattern.FindStringSubmatch(r.Literal)
	if m == nil {
		return "", "", false
	}
	return m[1], m[2], true
}
