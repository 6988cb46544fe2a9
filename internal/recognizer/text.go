package recognizer

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// CleanOptions controls text post-processing.
type CleanOptions struct {
	NormalizeForm      string            // "NFC" (default), "NFKC", "NFD", "NFKD", "none"
	CollapseWhitespace bool              // collapse runs of whitespace to a single space
	Trim               bool              // trim leading/trailing whitespace
	RemoveControlChars bool              // remove non-printable control characters
	ReplaceMap         map[string]string // replacements applied after normalization
	Language           string            // selects a default ReplaceMap when ReplaceMap is nil
}

// DefaultCleanOptions returns the defaults for OCR output.
func DefaultCleanOptions() CleanOptions {
	return CleanOptions{
		NormalizeForm:      "NFC",
		CollapseWhitespace: true,
		Trim:               true,
		RemoveControlChars: true,
	}
}

var wsRe = regexp.MustCompile(`\s+`)

// PostProcessText applies normalization and cleaning to recognized text.
func PostProcessText(s string, opts CleanOptions) string {
	if s == "" {
		return s
	}
	switch strings.ToUpper(opts.NormalizeForm) {
	case "NFC", "":
		s = norm.NFC.String(s)
	case "NFKC":
		s = norm.NFKC.String(s)
	case "NFD":
		s = norm.NFD.String(s)
	case "NFKD":
		s = norm.NFKD.String(s)
	}
	if opts.RemoveControlChars {
		s = strings.Map(func(r rune) rune {
			switch {
			case r == '\t' || r == '\n' || r == '\r':
				return r
			case unicode.IsControl(r), r == '\u200B', r == '\u200C', r == '\u200D', r == '\uFEFF':
				return -1
			}
			return r
		}, s)
	}
	replace := opts.ReplaceMap
	if replace == nil && opts.Language != "" {
		replace = DefaultReplaceMap(opts.Language)
	}
	for _, k := range sortedKeysByLength(replace) {
		s = strings.ReplaceAll(s, k, replace[k])
	}
	if opts.CollapseWhitespace {
		s = wsRe.ReplaceAllString(s, " ")
	}
	if opts.Trim {
		s = strings.TrimSpace(s)
	}
	return s
}

// DefaultReplaceMap folds typographic variants that show up on embossed
// and printed cards into the ASCII forms the field patterns expect.
func DefaultReplaceMap(lang string) map[string]string {
	m := map[string]string{
		"\u2010": "-", // hyphen
		"\u2011": "-", // non-breaking hyphen
		"\u2013": "-", // en dash
		"\u2014": "-", // em dash
		"\u2044": "/", // fraction slash
		"\u2215": "/", // division slash
		"\u00A0": " ", // no-break space
		"\u2009": " ", // thin space
	}
	if strings.ToLower(lang) == "de" {
		m["\u201E"] = "\""
	}
	return m
}

func sortedKeysByLength(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	for i := 1; i < len(keys); i++ {
		for j := i; j > 0 && len(keys[j]) > len(keys[j-1]); j-- {
			keys[j], keys[j-1] = keys[j-1], keys[j]
		}
	}
	return keys
}
