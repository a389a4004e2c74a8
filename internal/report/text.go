package report

import (
	"fmt"
	"strings"

	"github.com/KaramelBytes/salestier-cli/internal/tier"
	"github.com/dustin/go-humanize"
)

// Rupiah formats v as "Rp 1,234,567.89".
func Rupiah(v float64) string {
	return "Rp " + humanize.FormatFloat("#,###.##", v)
}

// Text renders the console summary of a run.
func Text(run *tier.Run) string {
	var b strings.Builder
	b.WriteString("\nCluster Analysis Results:\n")
	for _, p := range run.Profiles {
		b.WriteString(fmt.Sprintf("\nCluster %d:\n", p.ClusterID))
		if p.HasData {
			b.WriteString(fmt.Sprintf("Average revenue: %s\n", Rupiah(p.AverageRevenue)))
		} else {
			b.WriteString(fmt.Sprintf("Average revenue: %s\n", NoData))
		}
		b.WriteString(fmt.Sprintf("Characteristic: %s\n", p.Characteristic))
		b.WriteString(fmt.Sprintf("Dominant products: %s\n", strings.Join(p.DominantProducts, ", ")))
	}

	s := run.Summary
	b.WriteString("\n")
	if s.MatchDefined {
		b.WriteString(fmt.Sprintf("Matching clusters: %d/%d (%.2f%%)\n", s.Matching, s.Total, s.MatchPercent))
	} else {
		b.WriteString(fmt.Sprintf("Matching clusters: %d/%d (%s)\n", s.Matching, s.Total, NoData))
	}
	if s.Unlabeled > 0 {
		b.WriteString(fmt.Sprintf("Records without an existing cluster: %d\n", s.Unlabeled))
	}
	if len(run.Warnings) > 0 {
		b.WriteString(fmt.Sprintf("\n⚠ %d record(s) with more than one cluster flag:\n", len(run.Warnings)))
		for _, w := range run.Warnings {
			b.WriteString(fmt.Sprintf("  - #%d (id %s): %s\n", w.Index+1, w.RecordID, w.Message))
		}
	}
	if len(run.Skipped) > 0 {
		b.WriteString(fmt.Sprintf("\n⚠ %d record(s) skipped:\n", len(run.Skipped)))
		for _, sk := range run.Skipped {
			b.WriteString(fmt.Sprintf("  - %s\n", sk.Reason))
		}
	}
	return b.String()
}
