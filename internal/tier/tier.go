// Package tier assigns sales records to one of three fixed revenue tiers by
// nearest centroid and compares the assignment with the pre-labeled tier.
package tier

import (
	"errors"
	"fmt"
	"math"
)

// NumClusters is the fixed number of revenue tiers.
const NumClusters = 3

// ErrInvalidArgument is returned for empty centroid or distance lists.
var ErrInvalidArgument = errors.New("invalid argument")

// Centroids holds one reference revenue per tier, index 0 is tier 1.
// Tier descriptions assume ascending order; callers own that contract.
type Centroids [NumClusters]float64

// DefaultCentroids are the reference revenues of the sales export.
var DefaultCentroids = Centroids{424000.00, 915000.00, 689155580.85}

// NewCentroids builds a triple from exactly three values.
func NewCentroids(vals []float64) (Centroids, error) {
	var c Centroids
	if len(vals) != NumClusters {
		return c, fmt.Errorf("need exactly %d centroids, got %d: %w", NumClusters, len(vals), ErrInvalidArgument)
	}
	copy(c[:], vals)
	return c, nil
}

// Ascending reports whether the centroids are in non-decreasing order.
func (c Centroids) Ascending() bool {
	for i := 1; i < len(c); i++ {
		if c[i] < c[i-1] {
			return false
		}
	}
	return true
}

// Assign returns the distances from v to each centroid and the 1-based id of
// the nearest one.
func (c Centroids) Assign(v float64) ([NumClusters]float64, int) {
	var out [NumClusters]float64
	best := 0
	for i, centroid := range c {
		out[i] = math.Abs(v - centroid)
		if out[i] < out[best] {
			best = i
		}
	}
	return out, best + 1
}

// Distances returns abs(v - centroids[i]) for every centroid.
func Distances(v float64, centroids []float64) ([]float64, error) {
	if len(centroids) == 0 {
		return nil, fmt.Errorf("distances: empty centroid list: %w", ErrInvalidArgument)
	}
	out := make([]float64, len(centroids))
	for i, c := range centroids {
		out[i] = math.Abs(v - c)
	}
	return out, nil
}

// Assign returns argmin(distances)+1. On ties the lowest index wins.
func Assign(distances []float64) (int, error) {
	if len(distances) == 0 {
		return 0, fmt.Errorf("assign: empty distance list: %w", ErrInvalidArgument)
	}
	best := 0
	for i := 1; i < len(distances); i++ {
		if distances[i] < distances[best] {
			best = i
		}
	}
	return best + 1, nil
}
