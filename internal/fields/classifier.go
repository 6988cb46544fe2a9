// Package fields classifies recognized text lines into card fields and
// assembles them into a scan result.
package fields

import (
	"image"
	"regexp"
	"strings"
	"unicode"
)

// FieldKind identifies what a recognized line contains.
type FieldKind int

const (
	Unclassified FieldKind = iota
	CardNumber
	ExpiryDate
	CardHolderName
)

// String returns the lowercase name used in logs and JSON output.
func (k FieldKind) String() string {
	switch k {
	case CardNumber:
		return "card_number"
	case ExpiryDate:
		return "expiry_date"
	case CardHolderName:
		return "card_holder_name"
	default:
		return "unclassified"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (k FieldKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

var (
	// Anchored alternatives; a number embedded in a longer line does not match.
	cardNumberRe = regexp.MustCompile(`^(\d{4}-){3}\d{4}$|^(\d{4} ){3}\d{4}$|^\d{16}$`)
	expiryDateRe = regexp.MustCompile(`^((0[1-9])|(1[0-2]))/(\d{2})$`)
)

// IsCardNumber reports whether s is exactly a 16 digit card number, either
// ungrouped or in four groups of four separated by single hyphens or spaces.
func IsCardNumber(s string) bool {
	return cardNumberRe.MatchString(s)
}

// IsExpiryDate reports whether s is exactly an MM/YY expiry date.
func IsExpiryDate(s string) bool {
	return expiryDateRe.MatchString(s)
}

// IsCardHolderName reports whether s, once trimmed, is two space separated
// tokens of uppercase letters only.
func IsCardHolderName(s string) bool {
	tokens := strings.Split(strings.TrimSpace(s), " ")
	if len(tokens) != 2 {
		return false
	}
	for _, tok := range tokens {
		if tok == "" {
			return false
		}
		for _, r := range tok {
			if !unicode.IsLetter(r) || !unicode.IsUpper(r) {
				return false
			}
		}
	}
	return true
}

// Classify returns the first field kind whose predicate accepts s.
func Classify(s string) FieldKind {
	switch {
	case IsCardNumber(s):
		return CardNumber
	case IsExpiryDate(s):
		return ExpiryDate
	case IsCardHolderName(s):
		return CardHolderName
	default:
		return Unclassified
	}
}

// TextLine is a single recognized line: the top candidate string and its
// confidence in [0,1]. Box is the line's location in the recognized image
// when the backend reports one.
type TextLine struct {
	Text       string          `json:"text"`
	Confidence float64         `json:"confidence"`
	Box        image.Rectangle `json:"-"`
}

// ScanResult holds the fields extracted from one recognition pass.
type ScanResult struct {
	CardNumber string `json:"card_number,omitempty"`
	ExpiryDate string `json:"expiry_date,omitempty"`
	HolderName string `json:"holder_name,omitempty"`
}

// Complete reports whether both the card number and the expiry date were found.
func (r ScanResult) Complete() bool {
	return r.CardNumber != "" && r.ExpiryDate != ""
}

// DefaultMinConfidence only admits lines the recognizer is fully certain of.
const DefaultMinConfidence = 1.0

// Classifier turns recognized lines into a ScanResult.
type Classifier struct {
	// MinConfidence is the lowest line confidence that is classified at all.
	MinConfidence float64
	// CaptureHolderName fills ScanResult.HolderName when a name line is seen.
	CaptureHolderName bool
}

// NewClassifier returns a classifier with the strict default threshold.
func NewClassifier() *Classifier {
	return &Classifier{MinConfidence: DefaultMinConfidence}
}

// Accepts reports whether a line passes the confidence threshold.
func (c *Classifier) Accepts(line TextLine) bool {
	return line.Confidence >= c.MinConfidence
}

// Extract classifies every accepted line. A later line of the same kind
// replaces an earlier one, so the last match wins.
func (c *Classifier) Extract(lines []TextLine) ScanResult {
	var res ScanResult
	for _, line := range lines {
		if !c.Accepts(line) {
			continue
		}
		switch Classify(line.Text) {
		case CardNumber:
			res.CardNumber = line.Text
		case ExpiryDate:
			res.ExpiryDate = line.Text
		case CardHolderName:
			if c.CaptureHolderName {
				res.HolderName = strings.TrimSpace(line.Text)
			}
		case Unclassified:
		}
	}
	return res
}
