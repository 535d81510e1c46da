package sspdiag

import (
	"math"
	"sort"
)

// MaxPeaks bounds the number of candidate peaks returned by a search.
const MaxPeaks = 100

// SpacingPolicy fixes the peak-search sensitivity and the window of valid
// spacings between adjacent quantized peaks for one metric. The windows are
// detector policy constants with no derivation, kept as configuration.
type SpacingPolicy struct {
	Sigma     float64 // search sensitivity in bins
	Threshold float64 // minimum peak height relative to the highest peak
	Low       float64 // minimum accepted spacing
	High      float64 // maximum accepted spacing
}

// Reference calibration policies for the two pulse metrics.
var (
	AmplitudePolicy = SpacingPolicy{Sigma: 1.5, Threshold: 0.001, Low: 10, High: 20}
	ChargePolicy    = SpacingPolicy{Sigma: 2.5, Threshold: 0.001, Low: 1000, High: 1800}
)

// SearchPeaks finds local maxima of the distribution after smoothing with a
// gaussian kernel of width sigma bins. Candidates below threshold times the
// highest peak are dropped. Positions are returned ordered by descending
// peak height, capped at MaxPeaks.
func SearchPeaks(hist *Hist1D, sigma, threshold float64) []float64 {
	smoothed := gaussianSmooth(hist.Counts, sigma)

	var maxHeight float64
	for _, v := range smoothed {
		if v > maxHeight {
			maxHeight = v
		}
	}
	if maxHeight <= 0 {
		return nil
	}

	type peak struct {
		position float64
		height   float64
	}
	var peaks []peak
	for i := 1; i < len(smoothed)-1; i++ {
		if smoothed[i] <= smoothed[i-1] || smoothed[i] < smoothed[i+1] {
			continue
		}
		if smoothed[i] < threshold*maxHeight {
			continue
		}
		peaks = append(peaks, peak{position: hist.BinCenter(i), height: smoothed[i]})
	}

	sort.Slice(peaks, func(i, j int) bool { return peaks[i].height > peaks[j].height })
	if len(peaks) > MaxPeaks {
		peaks = peaks[:MaxPeaks]
	}

	positions := make([]float64, len(peaks))
	for i, p := range peaks {
		positions[i] = p.position
	}
	return positions
}

func gaussianSmooth(counts []float64, sigma float64) []float64 {
	if sigma <= 0 {
		out := make([]float64, len(counts))
		copy(out, counts)
		return out
	}

	halfWidth := int(math.Ceil(3 * sigma))
	kernel := make([]float64, 2*halfWidth+1)
	for k := -halfWidth; k <= halfWidth; k++ {
		kernel[k+halfWidth] = math.Exp(-float64(k*k) / (2 * sigma * sigma))
	}

	smoothed := make([]float64, len(counts))
	for i := range counts {
		var sum, weight float64
		for k := -halfWidth; k <= halfWidth; k++ {
			j := i + k
			if j < 0 || j >= len(counts) {
				continue
			}
			sum += counts[j] * kernel[k+halfWidth]
			weight += kernel[k+halfWidth]
		}
		if weight > 0 {
			smoothed[i] = sum / weight
		}
	}
	return smoothed
}

// QuantumScale estimates the single-photoelectron scale of a distribution
// as the mean spacing between adjacent quantized peaks. Candidate positions
// are sorted ascending first; the search routine orders them by height and
// differencing unsorted positions would pair non-adjacent peaks. Spacings
// involving the first and last extreme are excluded, and only spacings
// inside [Low, High] are accepted. NaN is returned when nothing qualifies.
func (p SpacingPolicy) QuantumScale(hist *Hist1D) float64 {
	peaks := SearchPeaks(hist, p.Sigma, p.Threshold)
	if len(peaks) < 3 {
		return math.NaN()
	}

	sorted := make([]float64, len(peaks))
	copy(sorted, peaks)
	sort.Float64s(sorted)

	var scale float64
	nDiffs := 0
	for i := 1; i < len(sorted)-1; i++ {
		diff := sorted[i+1] - sorted[i]
		if diff < p.Low || diff > p.High {
			continue
		}
		scale += diff
		nDiffs++
	}
	if nDiffs == 0 {
		return math.NaN()
	}
	return scale / float64(nDiffs)
}
