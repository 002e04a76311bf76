//go:build !tinygo

package trace

import "fmt"

func formatSummary(s Summary) string {
	return fmt.Sprintf("events=%d flips=%d mean=%.1f sd=%.1f on=%.0f%%",
		s.Events, s.Flips, s.MeanDuty, s.StdDevDuty, 100*s.CompanionOn)
}

// String renders the summary on one line.
func (s Summary) String() string { return formatSummary(s) }
