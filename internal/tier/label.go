package tier

// flagSet is the literal text that marks a pre-labeled tier.
const flagSet = "1"

// labelOrder is scanned front to back; the first set flag names the tier.
var labelOrder = [NumClusters]struct {
	flag    int
	cluster int
}{
	{0, 1},
	{1, 2},
	{2, 3},
}

// ExistingCluster returns the tier named by the flags, or 0 when none is set.
// Flags are compared as text. ambiguous reports that more than one flag is
// set; it never changes the returned tier.
func ExistingCluster(flags [NumClusters]string) (cluster int, ambiguous bool) {
	set := 0
	for _, l := range labelOrder {
		if flags[l.flag] != flagSet {
			continue
		}
		set++
		if cluster == 0 {
			cluster = l.cluster
		}
	}
	return cluster, set > 1
}
