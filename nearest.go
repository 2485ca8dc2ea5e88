package labdither

import "math"

// Nearest returns the index of the palette entry closest to pixel under
// method. Ties go to the earliest entry. A NaN distance is reported as a
// *ComparisonError rather than being treated as a tie or a miss.
func Nearest(pixel Lab, p Palette, method ColorDistanceMethod) (int, error) {
	if len(p) == 0 {
		return 0, ErrEmptyPalette
	}
	best := -1
	bestDist := math.Inf(1)
	for i, e := range p {
		d := method.Distance(pixel, e.Lab)
		if math.IsNaN(d) {
			return 0, &ComparisonError{X: -1, Y: -1, Index: i, Pixel: pixel}
		}
		if best < 0 || d < bestDist {
			best, bestDist = i, d
		}
	}
	return best, nil
}
