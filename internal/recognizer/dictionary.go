package recognizer

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"
)

// Charset maps model class indices to text. Class 0 is the CTC blank, so
// token i belongs to class i+1.
type Charset struct {
	Tokens []string
}

// LoadCharset loads a dictionary with one token per line. A UTF-8 BOM is
// removed and a trailing space token is added when missing, since card
// numbers are printed in space separated groups.
func LoadCharset(path string) (*Charset, error) {
	if path == "" {
		return nil, errors.New("dictionary path cannot be empty")
	}
	f, err := os.Open(path) //nolint:gosec // G304: dictionary path comes from configuration
	if err != nil {
		return nil, fmt.Errorf("failed to open dictionary: %w", err)
	}
	defer func() { _ = f.Close() }()

	var tokens []string
	hasSpace := false
	scanner := bufio.NewScanner(f)
	first := true
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r\n")
		if first {
			line = strings.TrimPrefix(line, "\uFEFF")
			first = false
		}
		if line == " " {
			hasSpace = true
			tokens = append(tokens, line)
			continue
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		tokens = append(tokens, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed reading dictionary: %w", err)
	}
	if len(tokens) == 0 {
		return nil, fmt.Errorf("dictionary is empty: %s", path)
	}
	if !hasSpace {
		tokens = append(tokens, " ")
	}
	return &Charset{Tokens: tokens}, nil
}

// Size returns the number of tokens.
func (c *Charset) Size() int { return len(c.Tokens) }

// Decode converts class indices to text, skipping unknown classes.
func (c *Charset) Decode(classes []int) string {
	var b strings.Builder
	for _, cls := range classes {
		if i := cls - 1; i >= 0 && i < len(c.Tokens) {
			b.WriteString(c.Tokens[i])
		}
	}
	return b.String()
}
