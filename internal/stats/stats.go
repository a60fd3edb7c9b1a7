// Package stats contains statistics calculations and reporting.
package stats

import (
	"fmt"
	"io"
	"math"
	"os"
	"sort"
	"strings"

	"golang.org/x/term"

	"github.com/verte-zerg/kewen/internal/model"
)

const (
	sparkChars          = " .:-=+*#%@"
	trendLabel          = "Trend "
	terminalWidthBackup = 80
)

// AttemptMetrics computes the score percentage and answer accuracy of an attempt.
func AttemptMetrics(a model.QuizAttempt) (percent, accuracy float64) {
	if a.MaxScore > 0 {
		percent = float64(a.Score) / float64(a.MaxScore) * 100
	}
	if a.TotalQuestions > 0 {
		accuracy = float64(a.CorrectCount) / float64(a.TotalQuestions)
	}
	return percent, accuracy
}

// MovingAverage computes a rolling mean over the provided window size.
func MovingAverage(values []float64, window int) []float64 {
	if window <= 1 || len(values) == 0 {
		out := make([]float64, len(values))
		copy(out, values)
		return out
	}
	out := make([]float64, len(values))
	var sum float64
	for i := 0; i < len(values); i++ {
		sum += values[i]
		if i >= window {
			sum -= values[i-window]
		}
		den := float64(i + 1)
		if i >= window {
			den = float64(window)
		}
		out[i] = sum / den
	}
	return out
}

// Sparkline renders a single-line ASCII sparkline for the values.
func Sparkline(values []float64) string {
	if len(values) == 0 {
		return ""
	}
	minVal := values[0]
	maxVal := values[0]
	for _, v := range values[1:] {
		minVal = math.Min(minVal, v)
		maxVal = math.Max(maxVal, v)
	}
	if math.Abs(maxVal-minVal) < 1e-9 {
		return strings.Repeat(string(sparkChars[len(sparkChars)/2]), len(values))
	}
	var b strings.Builder
	for _, v := range values {
		pos := (v - minVal) / (maxVal - minVal)
		idx := int(math.Round(pos * float64(len(sparkChars)-1)))
		idx = max(0, min(idx, len(sparkChars)-1))
		b.WriteByte(sparkChars[idx])
	}
	return b.String()
}

// RenderSummary prints a summary of quiz attempts.
func RenderSummary(w io.Writer, attempts []model.QuizAttempt) error {
	if len(attempts) == 0 {
		_, err := fmt.Fprintln(w, "No quiz attempts found.")
		return err
	}
	var totalPct, totalAcc, best float64
	correct, questions := 0, 0
	for _, a := range attempts {
		pct, acc := AttemptMetrics(a)
		totalPct += pct
		totalAcc += acc
		best = math.Max(best, pct)
		correct += a.CorrectCount
		questions += a.TotalQuestions
	}
	count := float64(len(attempts))
	lines := []string{
		"Summary",
		fmt.Sprintf("Quizzes: %d", len(attempts)),
		fmt.Sprintf("Questions: %d (%d correct)", questions, correct),
		fmt.Sprintf("Avg Score: %.1f%%", totalPct/count),
		fmt.Sprintf("Best Score: %.1f%%", best),
		fmt.Sprintf("Avg Accuracy: %.1f%%", totalAcc/count*100),
		"",
	}
	return writeLines(w, lines)
}

// RenderTrend prints a score sparkline smoothed over window attempts and
// clipped to the most recent attempts that fit totalWidth.
func RenderTrend(w io.Writer, attempts []model.QuizAttempt, window, totalWidth int) error {
	if len(attempts) < 2 {
		return nil
	}
	values := make([]float64, len(attempts))
	for i, a := range attempts {
		values[i], _ = AttemptMetrics(a)
	}
	values = MovingAverage(values, window)
	if totalWidth <= 0 {
		totalWidth = terminalWidth()
	}
	if room := totalWidth - len(trendLabel); room > 0 && len(values) > room {
		values = values[len(values)-room:]
	}
	first, last := values[0], values[len(values)-1]
	return writeLines(w, []string{
		trendLabel + Sparkline(values),
		fmt.Sprintf("%.1f%% -> %.1f%% over %d quizzes", first, last, len(values)),
		"",
	})
}

// RenderKindTable prints per-exercise-kind aggregates, weakest first.
func RenderKindTable(w io.Writer, aggs []model.KindAggregate) error {
	if len(aggs) == 0 {
		_, err := fmt.Fprintln(w, "No question results found.")
		return err
	}
	rows := make([]model.KindAggregate, len(aggs))
	copy(rows, aggs)
	sortByAccuracy(rows)

	tbl := newTextTable("Per Exercise Kind",
		column{title: "Kind"},
		column{title: "Accuracy", right: true},
		column{title: "Avg Time (s)", right: true},
		column{title: "Correct", right: true},
		column{title: "Incorrect", right: true},
	)
	for _, r := range rows {
		total := r.Correct + r.Incorrect
		avg := 0.0
		if total > 0 {
			avg = float64(r.TimeSumMs) / float64(total) / 1000
		}
		tbl.add(
			kindLabel(r.Kind),
			fmt.Sprintf("%.1f%%", accuracy(r)*100),
			fmt.Sprintf("%.1f", avg),
			fmt.Sprintf("%d", r.Correct),
			fmt.Sprintf("%d", r.Incorrect),
		)
	}
	return writeLines(w, append(tbl.lines(), ""))
}

// RenderMastery prints the best score and mastery date per exercise kind.
func RenderMastery(w io.Writer, rows []model.Mastery) error {
	if len(rows) == 0 {
		return nil
	}
	sorted := make([]model.Mastery, len(rows))
	copy(sorted, rows)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Kind < sorted[j].Kind })

	tbl := newTextTable("Mastery",
		column{title: "Kind"},
		column{title: "Best", right: true},
		column{title: "Attempts", right: true},
		column{title: "Mastered"},
	)
	for _, m := range sorted {
		mastered := "-"
		if m.MasteredAt != nil {
			mastered = m.MasteredAt.Local().Format("2006-01-02")
		}
		tbl.add(kindLabel(m.Kind), fmt.Sprintf("%d%%", m.BestScore), fmt.Sprintf("%d", m.Attempts), mastered)
	}
	return writeLines(w, append(tbl.lines(), ""))
}

// Render prints the full stats report.
func Render(w io.Writer, r Report, window, totalWidth int) error {
	if err := RenderSummary(w, r.Attempts); err != nil {
		return err
	}
	if len(r.Attempts) == 0 {
		return nil
	}
	if err := RenderTrend(w, r.Attempts, window, totalWidth); err != nil {
		return err
	}
	if err := RenderKindTable(w, r.Kinds); err != nil {
		return err
	}
	if err := RenderMastery(w, r.Mastery); err != nil {
		return err
	}
	if weak := WeakestKinds(r.Kinds, 1); len(weak) > 0 {
		_, err := fmt.Fprintf(w, "Practice next: %s\n", kindLabel(weak[0]))
		return err
	}
	return nil
}

func kindLabel(kind model.ExerciseKind) string {
	return strings.ReplaceAll(string(kind), "_", " ")
}

func writeLines(w io.Writer, lines []string) error {
	for _, line := range lines {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

func terminalWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width <= 0 {
		return terminalWidthBackup
	}
	return width
}
