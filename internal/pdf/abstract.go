package pdf

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/matsen/abstractlab/internal/paper"
)

// ErrNoAbstract is returned when no abstract section can be located.
var ErrNoAbstract = errors.New("no abstract found")

var (
	abstractHeading = regexp.MustCompile(`(?i)^\s*(abstract|summary)\b[\s:.\-]*`)
	// Headings that usually follow the abstract. Structured abstracts carry
	// their own Background/Methods headings, so those are not terminators.
	sectionHeading = regexp.MustCompile(`(?i)^\s*(\d+\.?\s*)?(introduction|keywords?|key\s+words|main text)\b`)
)

// MaxAbstractLines bounds the abstract when no closing heading is found.
const MaxAbstractLines = 40

// Extracted is the result of reading a PDF.
type Extracted struct {
	Title    string
	DOI      string
	Abstract []string
}

func isAbstractHeading(line string) bool {
	return abstractHeading.MatchString(line)
}

// FindAbstract returns the text between an "Abstract" heading and the next
// section heading. Text on the heading line after the word itself is kept.
func FindAbstract(text string) (string, error) {
	lines := strings.Split(text, "\n")

	start := -1
	var parts []string
	for i, line := range lines {
		if loc := abstractHeading.FindStringIndex(line); loc != nil {
			start = i
			if rest := strings.TrimSpace(line[loc[1]:]); rest != "" {
				parts = append(parts, rest)
			}
			break
		}
	}
	if start < 0 {
		return "", ErrNoAbstract
	}

	for _, line := range lines[start+1:] {
		if sectionHeading.MatchString(line) || len(parts) >= MaxAbstractLines {
			break
		}
		if line = strings.TrimSpace(line); line != "" {
			parts = append(parts, line)
		}
	}

	abstract := dehyphenate(strings.Join(parts, "\n"))
	if strings.TrimSpace(abstract) == "" {
		return "", ErrNoAbstract
	}
	return abstract, nil
}

// dehyphenate joins words split across lines ("ran-\ndomised").
func dehyphenate(s string) string {
	s = strings.ReplaceAll(s, "-\n", "")
	return strings.ReplaceAll(s, "\n", " ")
}

// Parse pulls title, DOI and tokenized abstract out of extracted text.
func Parse(text string) (*Extracted, error) {
	abstract, err := FindAbstract(text)
	if err != nil {
		return nil, err
	}
	return &Extracted{
		Title:    FindTitle(text),
		DOI:      FindDOI(text),
		Abstract: paper.Tokenize(abstract),
	}, nil
}

// ExtractAbstract reads the leading pages of a PDF and parses them.
func ExtractAbstract(filePath string, maxPages int) (*Extracted, error) {
	if maxPages <= 0 {
		maxPages = DefaultMaxPages
	}
	text, err := ExtractText(filePath, maxPages)
	if err != nil {
		return nil, fmt.Errorf("reading PDF: %w", err)
	}
	ex, err := Parse(text)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filePath, err)
	}
	return ex, nil
}
