package energy

import "math"

// fullScale is the magnitude of a full-scale PCM-16 sample.
const fullScale = 32768.0

// RMS computes the root-mean-square energy of a window of PCM-16 samples,
// normalized to [0, 1] against full scale. An empty window has zero energy.
func RMS(samples []int16) float64 {
	if len(samples) == 0 {
		return 0
	}

	var sum float64
	for _, sample := range samples {
		v := float64(sample)
		sum += v * v
	}

	normalized := math.Sqrt(sum/float64(len(samples))) / fullScale
	if normalized > 1 {
		normalized = 1
	}

	return normalized
}
