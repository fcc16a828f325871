package gcode

import (
	"fmt"
	"regexp"

	"github.com/printforge/slicer/internal/config"
)

// FindReplace applies the profile's textual substitutions to each layer's
// instruction text. Patterns compile once at construction; a bad pattern
// fails the whole job rather than silently printing unsubstituted output.
type FindReplace struct {
	subs []substitution
}

type substitution struct {
	re          *regexp.Regexp
	replacement string
	regex       bool
}

// NewFindReplace compiles the substitution list.
func NewFindReplace(rules []config.Replace) (*FindReplace, error) {
	fr := &FindReplace{}
	for _, r := range rules {
		pattern := r.Pattern
		if !r.Regexp {
			pattern = regexp.QuoteMeta(pattern)
		}
		if r.WholeWord {
			pattern = `\b(?:` + pattern + `)\b`
		}
		if r.CaseFold {
			pattern = `(?i)` + pattern
		}
		re, err := regexp.Compile(pattern)
		if err != nil {
			return nil, fmt.Errorf("find_replace pattern %q: %w", r.Pattern, err)
		}
		fr.subs = append(fr.subs, substitution{re: re, replacement: r.Replacement, regex: r.Regexp})
	}
	return fr, nil
}

// Process implements Filter.
func (f *FindReplace) Process(res *LayerResult) []*LayerResult {
	if !res.Nop && len(f.subs) > 0 {
		res.Text = f.Apply(res.Text)
	}
	return []*LayerResult{res}
}

// Flush implements Filter.
func (f *FindReplace) Flush() []*LayerResult { return nil }

// Apply runs every substitution over arbitrary text. Literal rules use the
// replacement verbatim; regexp rules may reference capture groups.
func (f *FindReplace) Apply(text string) string {
	for _, s := range f.subs {
		if s.regex {
			text = s.re.ReplaceAllString(text, s.replacement)
		} else {
			text = s.re.ReplaceAllLiteralString(text, s.replacement)
		}
	}
	return text
}

// HasRules reports whether any substitution is configured.
func (f *FindReplace) HasRules() bool { return len(f.subs) > 0 }
