package main

import (
	"testing"

	"github.com/matsen/abstractlab/internal/paper"
)

func TestWrapText(t *testing.T) {
	tests := []struct {
		text  string
		width int
		want  string
	}{
		{"short", 10, "short"},
		{"one two three four", 9, "one two\n  three\n  four"},
		{"", 5, ""},
	}
	for _, tt := range tests {
		if got := wrapText(tt.text, tt.width, "  "); got != tt.want {
			t.Errorf("wrapText(%q, %d) = %q, want %q", tt.text, tt.width, got, tt.want)
		}
	}
}

func TestFormatShowHuman(t *testing.T) {
	got := formatShowHuman(ShowResult{
		DocID:          "sr1",
		Title:          "Statins: a meta-analysis",
		Year:           2010,
		Classification: paper.SystematicReview,
		Partition:      paper.Train,
		Unknown:        1,
		Abstract:       []string{"we", "pooled", "trials"},
	})
	want := "sr1\n" +
		"  Title: Statins: a meta-analysis\n" +
		"  Year: 2010\n" +
		"  Label: Systematic review (train)\n" +
		"  Unknown tokens: 1 of 3\n" +
		"  Abstract: we pooled trials\n"
	if got != want {
		t.Errorf("formatShowHuman() =\n%s\nwant\n%s", got, want)
	}
}
