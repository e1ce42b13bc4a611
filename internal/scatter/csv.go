package scatter

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/matsen/abstractlab/internal/classify"
	"github.com/matsen/abstractlab/internal/paper"
)

// Colors maps labels to the plot color codes. Other labels get 0.
var Colors = map[string]int{
	paper.SystematicReview: 6,
	paper.PrimaryStudy:     -6,
}

// Point is one projected document.
type Point struct {
	X, Y  float64
	Label string
}

// Points projects vectors to 2-D with PCA. Only the first limit vectors are
// used when limit > 0.
func Points(vectors []classify.Vector, labels []string, limit int) ([]Point, error) {
	if len(vectors) != len(labels) {
		return nil, fmt.Errorf("%d vectors, %d labels", len(vectors), len(labels))
	}
	if limit > 0 && len(vectors) > limit {
		vectors, labels = vectors[:limit], labels[:limit]
	}

	scores, err := Project(vectors, 2)
	if err != nil {
		return nil, err
	}

	points := make([]Point, len(vectors))
	for i := range vectors {
		points[i] = Point{X: scores.At(i, 0), Y: scores.At(i, 1), Label: labels[i]}
	}
	return points, nil
}

// WriteCSV writes points as x,y,label,color rows with a header.
func WriteCSV(w io.Writer, points []Point) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"x", "y", "label", "color"}); err != nil {
		return err
	}
	for _, p := range points {
		row := []string{
			strconv.FormatFloat(p.X, 'f', -1, 64),
			strconv.FormatFloat(p.Y, 'f', -1, 64),
			p.Label,
			strconv.Itoa(Colors[p.Label]),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteCSVFile writes points to path, replacing any existing file.
func WriteCSVFile(path string, points []Point) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating scatter file: %w", err)
	}
	defer f.Close()

	if err := WriteCSV(f, points); err != nil {
		return fmt.Errorf("writing scatter file: %w", err)
	}
	return nil
}
