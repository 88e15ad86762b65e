package grab

import (
	"github.com/LdDl/grabbed-go/mot"
)

// TrajectoryLength returns cumulative path length of the samples: sum of Euclidean
// distances between consecutive positions. Zero for less than two samples.
//
// Only retained samples are taken into account, so length of an object which moved and then
// stood still long enough shrinks when early samples leave the window.
func TrajectoryLength(samples []TrackSample) float64 {
	length := 0.0
	for i := 1; i < len(samples); i++ {
		length += mot.EuclideanDistance(samples[i-1].Position, samples[i].Position)
	}
	return length
}
