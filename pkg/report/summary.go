package report

import (
	"fmt"
	"io"
	"strings"

	"fetalhealth/pkg/data"
	"fetalhealth/pkg/model"
)

const ruleWidth = 70

// Summary is everything the console report prints.
type Summary struct {
	Rows, Cols  int
	Classes     []data.Class
	ClassCounts []int
	Missing     int
	TrainRows   int
	TestRows    int
	Report      model.ClassificationReport
	Top         []model.FeatureImportance
	Artifacts   []string
}

// WriteSummary prints the dataset overview, accuracy and the per-class
// precision/recall/F1 table.
func WriteSummary(w io.Writer, s Summary) error {
	var b strings.Builder

	section(&b, "DATASET OVERVIEW")
	fmt.Fprintf(&b, "Dataset shape: %d samples, %d columns (%d features + label)\n", s.Rows, s.Cols, s.Cols-1)
	fmt.Fprintf(&b, "\nTarget variable distribution:\n")
	for i, c := range s.Classes {
		count := 0
		if i < len(s.ClassCounts) {
			count = s.ClassCounts[i]
		}
		fmt.Fprintf(&b, "%-14s (%d) %6d\n", c.Name, c.Code, count)
	}
	fmt.Fprintf(&b, "\nMissing values: %d\n", s.Missing)
	fmt.Fprintf(&b, "Train/test split: %d / %d rows\n", s.TrainRows, s.TestRows)

	b.WriteString("\n")
	section(&b, "MODEL EVALUATION")
	fmt.Fprintf(&b, "\nModel Accuracy: %.2f%%\n\n", s.Report.Accuracy*100)
	b.WriteString("Classification Report:\n")
	writeClassTable(&b, s.Classes, s.Report)

	if len(s.Top) > 0 {
		fmt.Fprintf(&b, "\nTop %d features:\n", len(s.Top))
		for i, fi := range s.Top {
			fmt.Fprintf(&b, "%3d. %-55s %.4f\n", i+1, fi.Name, fi.Score)
		}
	}

	b.WriteString("\n")
	section(&b, "MODEL TRAINING COMPLETE")
	fmt.Fprintf(&b, "Accuracy: %.2f%%\n", s.Report.Accuracy*100)
	if len(s.Artifacts) > 0 {
		fmt.Fprintf(&b, "Visualizations saved: %s\n", strings.Join(s.Artifacts, ", "))
	}

	_, err := io.WriteString(w, b.String())
	return err
}

func section(b *strings.Builder, title string) {
	rule := strings.Repeat("=", ruleWidth)
	fmt.Fprintf(b, "%s\n%s\n%s\n", rule, title, rule)
}

// writeClassTable lays the report out in fixed columns with 3 decimals.
func writeClassTable(b *strings.Builder, classes []data.Class, rep model.ClassificationReport) {
	width := len("weighted avg")
	for _, c := range classes {
		width = max(width, len(c.Name))
	}
	row := func(name string, m model.ClassMetrics) {
		fmt.Fprintf(b, "%*s %9.3f %9.3f %9.3f %9d\n", width, name, m.Precision, m.Recall, m.F1, m.Support)
	}

	fmt.Fprintf(b, "%*s %9s %9s %9s %9s\n\n", width, "", "precision", "recall", "f1-score", "support")
	for i, m := range rep.Classes {
		name := fmt.Sprint(m.Class)
		if i < len(classes) {
			name = classes[i].Name
		}
		row(name, m)
	}
	b.WriteString("\n")
	fmt.Fprintf(b, "%*s %9s %9s %9.3f %9d\n", width, "accuracy", "", "", rep.Accuracy, rep.Total)
	row("macro avg", rep.MacroAvg)
	row("weighted avg", rep.WeightedAvg)
}
