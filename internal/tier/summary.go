package tier

// Summary holds the run-wide counts shown on the summary sheet.
type Summary struct {
	Total    int
	Matching int
	// MatchPercent is undefined (MatchDefined false) when Total is 0.
	MatchPercent float64
	MatchDefined bool
	Calculated   [NumClusters]int
	Existing     [NumClusters]int
	Unlabeled    int
	Ambiguous    int
	Skipped      int
}

// Summarize counts matches and per-tier totals. Records without a pre-labeled
// tier count toward Total but never toward Matching.
func Summarize(results []Result) Summary {
	s := Summary{Total: len(results)}
	for _, r := range results {
		if r.Matches() {
			s.Matching++
		}
		if r.Calculated >= 1 && r.Calculated <= NumClusters {
			s.Calculated[r.Calculated-1]++
		}
		if r.Existing >= 1 && r.Existing <= NumClusters {
			s.Existing[r.Existing-1]++
		} else {
			s.Unlabeled++
		}
		if r.AmbiguousLabel {
			s.Ambiguous++
		}
	}
	if s.Total > 0 {
		s.MatchPercent = 100 * float64(s.Matching) / float64(s.Total)
		s.MatchDefined = true
	}
	return s
}
