// Package rebrand rewrites openclaw's captured help output to present it as
// chitin's own.
//
// The rewrite is purely cosmetic and deliberately narrow: the brand name is
// replaced only on the version banner, the Usage line, and inside the
// Examples section. Command names, flag names, and unrelated prose are left
// untouched, and applying the transform twice yields the same text as
// applying it once.
package rebrand

import "strings"

const (
	wrappedBrand = "openclaw"
	shimBrand    = "chitin"
)

// Rebrander rewrites captured text for one version pair.
type Rebrander struct {
	chitinVersion   string
	openclawVersion string
}

// New returns a Rebrander that stamps the given versions into the banner.
func New(chitinVersion, openclawVersion string) *Rebrander {
	return &Rebrander{chitinVersion: chitinVersion, openclawVersion: openclawVersion}
}

// Apply rewrites text line by line. The Examples section runs from an
// "Examples:" heading to the next "Docs:" heading, matching openclaw's help
// layout.
func (r *Rebrander) Apply(text string) string {
	var b strings.Builder
	b.Grow(len(text))

	inExamples := false
	for _, line := range strings.Split(text, "\n") {
		switch {
		case isVersionBanner(line):
			b.WriteString(r.banner())
		case strings.HasPrefix(line, "Usage:"):
			b.WriteString(strings.ReplaceAll(line, wrappedBrand, shimBrand))
		case strings.HasPrefix(line, "Examples:"):
			inExamples = true
			b.WriteString(line)
		case strings.HasPrefix(line, "Docs:"):
			inExamples = false
			b.WriteString(line)
		case inExamples:
			b.WriteString(strings.ReplaceAll(line, wrappedBrand, shimBrand))
		default:
			b.WriteString(line)
		}
		b.WriteString("\n")
	}

	out := b.String()
	// Split/join adds a trailing newline the input may not have had.
	if !strings.HasSuffix(text, "\n") {
		out = strings.TrimSuffix(out, "\n")
	}
	return out
}

// banner is the replacement version line.
func (r *Rebrander) banner() string {
	return shimBrand + " " + r.chitinVersion + " (" + wrappedBrand + " " + r.openclawVersion + ")"
}

// isVersionBanner matches openclaw's version line, with or without the
// emoji prefix it sometimes carries.
func isVersionBanner(line string) bool {
	return strings.HasPrefix(line, "OpenClaw") || strings.HasPrefix(line, "🦞 OpenClaw")
}
