package main

import (
	"fmt"
	"strings"

	"github.com/matsen/abstractlab/internal/paper"
	"github.com/spf13/cobra"
)

// DetailTextWrapWidth is the wrap width of the abstract in show output.
const DetailTextWrapWidth = 68

func init() {
	rootCmd.AddCommand(showCmd)
}

var showCmd = &cobra.Command{
	Use:   "show <doc-id>",
	Short: "Show a cached document",
	Long: `Show one document from the stats cache: its label, partition, unknown
token count and abstract. Run 'alab rebuild' first.

Examples:
  alab show train-12
  alab show smith-2011 --human`,
	Args: cobra.ExactArgs(1),
	RunE: runShow,
}

// ShowResult is the response for the show command.
type ShowResult struct {
	DocID          string          `json:"doc_id"`
	Title          string          `json:"title,omitempty"`
	Year           int             `json:"year,omitempty"`
	Classification string          `json:"classification"`
	Partition      paper.Partition `json:"partition"`
	Unknown        int             `json:"unknown"`
	Abstract       []string        `json:"abstract"`
}

func runShow(cmd *cobra.Command, args []string) error {
	repoRoot := mustFindRepository()
	db := mustOpenDatabase(repoRoot)
	defer db.Close()
	warnIfStale(repoRoot, db)

	r, err := db.GetDoc(args[0])
	if err != nil {
		exitWithError(ExitError, "%v", err)
	}
	if r == nil {
		exitWithError(ExitDataError, "document not found: %s", args[0])
	}

	res := ShowResult{
		DocID:          r.DocID,
		Title:          r.Paper.Title,
		Year:           r.Paper.Year,
		Classification: r.Paper.Classification,
		Partition:      r.Partition,
		Unknown:        r.Unknown,
		Abstract:       r.Paper.Abstract,
	}

	if humanOutput {
		fmt.Print(formatShowHuman(res))
	} else {
		outputJSON(res)
	}
	return nil
}

// formatShowHuman renders a document for the terminal.
func formatShowHuman(r ShowResult) string {
	var b strings.Builder
	b.WriteString(r.DocID)
	b.WriteString("\n")
	if r.Title != "" {
		fmt.Fprintf(&b, "  Title: %s\n", r.Title)
	}
	if r.Year != 0 {
		fmt.Fprintf(&b, "  Year: %d\n", r.Year)
	}
	fmt.Fprintf(&b, "  Label: %s (%s)\n", paper.DisplayLabel(r.Classification), r.Partition)
	fmt.Fprintf(&b, "  Unknown tokens: %d of %d\n", r.Unknown, len(r.Abstract))
	if len(r.Abstract) > 0 {
		fmt.Fprintf(&b, "  Abstract: %s\n", wrapText(strings.Join(r.Abstract, " "), DetailTextWrapWidth, "            "))
	}
	return b.String()
}

// wrapText wraps text to the specified width with indentation on subsequent lines.
func wrapText(text string, width int, indent string) string {
	if len(text) <= width {
		return text
	}

	var lines []string
	var currentLine strings.Builder
	for _, word := range strings.Fields(text) {
		if currentLine.Len() == 0 {
			currentLine.WriteString(word)
		} else if currentLine.Len()+1+len(word) <= width {
			currentLine.WriteString(" ")
			currentLine.WriteString(word)
		} else {
			lines = append(lines, currentLine.String())
			currentLine.Reset()
			currentLine.WriteString(word)
		}
	}
	if currentLine.Len() > 0 {
		lines = append(lines, currentLine.String())
	}
	return strings.Join(lines, "\n"+indent)
}
