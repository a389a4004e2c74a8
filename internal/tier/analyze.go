package tier

import (
	"math"
	"sort"
)

// TopProducts is how many dominant products a profile lists.
const TopProducts = 3

var characteristics = [NumClusters]string{
	"low/starting sales",
	"mid-stability sales",
	"high-performing sales",
}

// Characteristic returns the fixed description of a tier id, or "" for an id
// outside 1..NumClusters.
func Characteristic(cluster int) string {
	if cluster < 1 || cluster > NumClusters {
		return ""
	}
	return characteristics[cluster-1]
}

// Profile summarises the records assigned to one tier.
// An empty tier has HasData false and AverageRevenue NaN.
type Profile struct {
	ClusterID        int
	Count            int
	AverageRevenue   float64
	HasData          bool
	Characteristic   string
	DominantProducts []string
}

// Analyze builds a profile for every tier id, empty tiers included, from the
// calculated (not the pre-labeled) assignment.
func Analyze(results []Result) [NumClusters]Profile {
	var out [NumClusters]Profile
	for i := range out {
		id := i + 1
		var sum float64
		var products []string
		for _, r := range results {
			if r.Calculated != id {
				continue
			}
			sum += r.Revenue
			products = append(products, r.ProductName)
		}
		p := Profile{
			ClusterID:        id,
			Count:            len(products),
			AverageRevenue:   math.NaN(),
			Characteristic:   Characteristic(id),
			DominantProducts: TopN(products, TopProducts),
		}
		if p.Count > 0 {
			p.AverageRevenue = sum / float64(p.Count)
			p.HasData = true
		}
		out[i] = p
	}
	return out
}

// TopN returns up to n distinct names by descending frequency; equal counts
// keep first-occurrence order.
func TopN(names []string, n int) []string {
	type entry struct {
		name  string
		count int
		first int
	}
	index := make(map[string]int, len(names))
	var entries []entry
	for i, name := range names {
		if j, ok := index[name]; ok {
			entries[j].count++
			continue
		}
		index[name] = len(entries)
		entries = append(entries, entry{name: name, count: 1, first: i})
	}
	sort.SliceStable(entries, func(a, b int) bool {
		if entries[a].count != entries[b].count {
			return entries[a].count > entries[b].count
		}
		return entries[a].first < entries[b].first
	})
	if n >= 0 && len(entries) > n {
		entries = entries[:n]
	}
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.name
	}
	return out
}
