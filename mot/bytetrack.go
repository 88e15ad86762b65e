package mot

import (
	"fmt"

	"github.com/arthurkushman/go-hungarian"
	"github.com/google/uuid"
)

// MatchingAlgorithm is for algorithm type for matching detections to tracks
type MatchingAlgorithm uint16

const (
	// MatchingAlgorithmHungarian uses the Hungarian algorithm (Kuhn-Munkres) for optimal assignment
	MatchingAlgorithmHungarian MatchingAlgorithm = iota
	// MatchingAlgorithmGreedy uses a greedy algorithm for faster but potentially suboptimal assignment
	MatchingAlgorithmGreedy
)

func (algorithm MatchingAlgorithm) String() string {
	switch algorithm {
	case MatchingAlgorithmHungarian:
		return "hungarian"
	case MatchingAlgorithmGreedy:
		return "greedy"
	default:
		return fmt.Sprintf("MatchingAlgorithm(%d)", uint16(algorithm))
	}
}

// ParseMatchingAlgorithm converts name ("hungarian" or "greedy") to MatchingAlgorithm
func ParseMatchingAlgorithm(name string) (MatchingAlgorithm, error) {
	switch name {
	case "hungarian":
		return MatchingAlgorithmHungarian, nil
	case "greedy":
		return MatchingAlgorithmGreedy, nil
	default:
		return MatchingAlgorithmHungarian, fmt.Errorf("unknown matching algorithm '%s'", name)
	}
}

// ByteTracker is implementation of Multi-object tracker (MOT) called ByteTrack.
type ByteTracker struct {
	trackRegistry
	// Maximum number of frames an object can be missing before it is removed
	maxDisappeared int
	// Minimum IoU between track and detection to be considered the same object
	minIoU float64
	// High detection confidence threshold. New tracks are started only by high confidence detections
	highThresh float64
	// Low detection confidence threshold. Detections below are ignored
	lowThresh float64
	// Number of matched frames required before track gets an identity
	minConsecutiveFrames int
	// Algorithm to use for matching
	algorithm MatchingAlgorithm
}

// DefaultByteTracker creates a ByteTracker with default parameters.
func DefaultByteTracker() *ByteTracker {
	return &ByteTracker{
		trackRegistry:        newTrackRegistry(1.0),
		maxDisappeared:       30,
		minIoU:               0.3,
		highThresh:           0.25,
		lowThresh:            0.1,
		minConsecutiveFrames: 1,
		algorithm:            MatchingAlgorithmHungarian,
	}
}

// NewByteTracker creates a new instance of ByteTracker with specified parameters.
// minConsecutiveFrames less than 1 is treated as 1: identity is given on the first frame.
func NewByteTracker(maxDisappeared int, minIoU, highThresh, lowThresh float64, minConsecutiveFrames int, algorithm MatchingAlgorithm, dt float64) *ByteTracker {
	if minConsecutiveFrames < 1 {
		minConsecutiveFrames = 1
	}
	return &ByteTracker{
		trackRegistry:        newTrackRegistry(dt),
		maxDisappeared:       maxDisappeared,
		minIoU:               minIoU,
		highThresh:           highThresh,
		lowThresh:            lowThresh,
		minConsecutiveFrames: minConsecutiveFrames,
		algorithm:            algorithm,
	}
}

// bboxPair is a helper struct to pair track ID with its bounding box.
type bboxPair struct {
	ID   uuid.UUID
	BBox Rectangle
}

// Update matches detections of the current frame with existing tracks.
// Returns one TrackedDetection per detection, in the same order. Identity is nil for
// detections which are not matched to a confirmed track.
func (bt *ByteTracker) Update(detections []Detection) ([]TrackedDetection, error) {
	// Predict next positions for all existing tracks via Kalman filter
	for _, track := range bt.Objects {
		track.PredictNextPosition()
	}

	// Get active tracks
	activeTrackIDs := make([]uuid.UUID, 0)
	activeTrackBBoxes := make([]bboxPair, 0)
	for _, track := range bt.orderedTracks() {
		if track.GetNoMatchTimes() < bt.maxDisappeared {
			activeTrackIDs = append(activeTrackIDs, track.GetID())
			activeTrackBBoxes = append(activeTrackBBoxes, bboxPair{
				ID:   track.GetID(),
				BBox: track.GetPredictedBBox(),
			})
		}
	}

	// Set of matched tracks
	matchedTracks := make(map[uuid.UUID]struct{})
	// Detection index -> track it has been assigned to
	assigned := make(map[int]*Track)

	// 1. First stage: Match high confidence detections
	highDetectionIndices := make([]int, 0)
	for i, detection := range detections {
		if detection.Confidence >= bt.highThresh {
			highDetectionIndices = append(highDetectionIndices, i)
		}
	}
	if len(activeTrackBBoxes) > 0 && len(highDetectionIndices) > 0 {
		iouMatrix := bt.createIoUMatrix(activeTrackBBoxes, highDetectionIndices, detections)
		matches := bt.performMatching(iouMatrix, activeTrackBBoxes, highDetectionIndices)
		err := bt.processMatches(matches, activeTrackBBoxes, highDetectionIndices, iouMatrix, detections, matchedTracks, assigned)
		if err != nil {
			return nil, fmt.Errorf("error processing matches in stage 1: %w", err)
		}
	}

	// 2. Second stage: Match low confidence detections with remaining tracks
	unmatchedTrackBBoxes := make([]bboxPair, 0)
	for i, id := range activeTrackIDs {
		if _, found := matchedTracks[id]; !found {
			unmatchedTrackBBoxes = append(unmatchedTrackBBoxes, activeTrackBBoxes[i])
		}
	}
	lowDetectionIndices := make([]int, 0)
	for i, detection := range detections {
		if _, found := assigned[i]; found {
			continue
		}
		if detection.Confidence < bt.highThresh && detection.Confidence >= bt.lowThresh {
			lowDetectionIndices = append(lowDetectionIndices, i)
		}
	}
	if len(unmatchedTrackBBoxes) > 0 && len(lowDetectionIndices) > 0 {
		iouMatrix := bt.createIoUMatrix(unmatchedTrackBBoxes, lowDetectionIndices, detections)
		matches := bt.performMatching(iouMatrix, unmatchedTrackBBoxes, lowDetectionIndices)
		err := bt.processMatches(matches, unmatchedTrackBBoxes, lowDetectionIndices, iouMatrix, detections, matchedTracks, assigned)
		if err != nil {
			return nil, fmt.Errorf("error processing matches in stage 2: %w", err)
		}
	}

	// 3. Add new tracks for unmatched high confidence detections
	for _, detIdx := range highDetectionIndices {
		if _, found := assigned[detIdx]; found {
			continue
		}
		newTrack := bt.register(detections[detIdx])
		if newTrack.GetHits() >= bt.minConsecutiveFrames {
			bt.confirm(newTrack)
		}
		matchedTracks[newTrack.GetID()] = struct{}{}
		assigned[detIdx] = newTrack
	}

	// 4. Increment no_match_times for unmatched tracks
	for id, track := range bt.Objects {
		if _, found := matchedTracks[id]; !found {
			track.IncNoMatch()
		}
	}

	// 5. Remove tracks that have disappeared for too long
	for id, track := range bt.Objects {
		if track.GetNoMatchTimes() >= bt.maxDisappeared {
			delete(bt.Objects, id)
		}
	}

	return trackedOutput(detections, assigned), nil
}

// GetActiveTracks returns a slice of active tracks in order of their creation.
func (bt *ByteTracker) GetActiveTracks() []*Track {
	tracks := bt.orderedTracks()
	activeTracks := make([]*Track, 0, len(tracks))
	for _, track := range tracks {
		if track.GetNoMatchTimes() < bt.maxDisappeared {
			activeTracks = append(activeTracks, track)
		}
	}
	return activeTracks
}

// createIoUMatrix is helper function to create IoU matrix.
// trackBBoxes: a slice of structs containing track ID and its BBox.
// detectionIndices: a slice of original indices into the detections array.
// allDetections: the full slice of detections for the current frame.
func (bt *ByteTracker) createIoUMatrix(
	trackBBoxes []bboxPair,
	detectionIndices []int,
	allDetections []Detection,
) [][]float64 {
	iouMatrix := make([][]float64, len(trackBBoxes))
	for i, trkBox := range trackBBoxes {
		row := make([]float64, len(detectionIndices))
		for j, detIdx := range detectionIndices {
			row[j] = IoU(trkBox.BBox, allDetections[detIdx].BBox)
		}
		iouMatrix[i] = row
	}
	return iouMatrix
}

// performMatching is helper function to perform matching using Hungarian or Greedy algorithm.
// Returns: a slice of [2]int, where each element is {trackIndexInTrackBBoxes, detectionIndexInDetectionIndices}.
func (bt *ByteTracker) performMatching(
	iouMatrix [][]float64,
	trackBBoxes []bboxPair,
	detectionIndices []int,
) [][2]int {
	switch bt.algorithm {
	case MatchingAlgorithmHungarian:
		return bt.performHungarianMatching(iouMatrix, len(trackBBoxes), len(detectionIndices))
	default:
		return bt.performGreedyMatching(iouMatrix, len(trackBBoxes), len(detectionIndices))
	}
}

// performHungarianMatching solves assignment maximizing total IoU.
// Rectangular matrices are padded with zero IoU to make them square.
func (bt *ByteTracker) performHungarianMatching(iouMatrix [][]float64, numTracks, numDetections int) [][2]int {
	if numTracks == 0 || numDetections == 0 {
		return [][2]int{}
	}
	paddedMatrix := iouMatrix
	if numTracks != numDetections {
		paddedSize := maxInt(numTracks, numDetections)
		paddedMatrix = make([][]float64, paddedSize)
		for i := 0; i < paddedSize; i++ {
			paddedMatrix[i] = make([]float64, paddedSize)
			if i < numTracks {
				copy(paddedMatrix[i], iouMatrix[i])
			}
		}
	}
	assignmentsMap := hungarian.SolveMax(paddedMatrix)
	matches := make([][2]int, 0, len(assignmentsMap))
	for trackIndex := 0; trackIndex < numTracks; trackIndex++ {
		rowMap, ok := assignmentsMap[trackIndex]
		if !ok {
			continue
		}
		for detectionIndex := range rowMap {
			// Assignments to padding cells are not real matches
			if detectionIndex < numDetections {
				matches = append(matches, [2]int{trackIndex, detectionIndex})
			}
			break
		}
	}
	return matches
}

// performGreedyMatching is helper function for greedy matching.
func (bt *ByteTracker) performGreedyMatching(iouMatrix [][]float64, numTracks, numDetections int) [][2]int {
	matches := make([][2]int, 0)
	if numTracks == 0 || numDetections == 0 {
		return matches
	}
	// Keep track of detection indices that are already matched
	matchedDetIndicesInStage := make(map[int]struct{})
	for i := 0; i < numTracks; i++ {
		bestIoU := -1.0
		bestDetIdxInStage := -1
		for j := 0; j < numDetections; j++ {
			if _, found := matchedDetIndicesInStage[j]; found {
				continue
			}
			currentIoU := iouMatrix[i][j]
			if currentIoU > bestIoU && currentIoU >= bt.minIoU {
				bestIoU = currentIoU
				bestDetIdxInStage = j
			}
		}
		if bestDetIdxInStage != -1 {
			matches = append(matches, [2]int{i, bestDetIdxInStage})
			matchedDetIndicesInStage[bestDetIdxInStage] = struct{}{}
		}
	}
	return matches
}

// processMatches updates tracks and marks matched entities.
// matches: slice of (trackIndex, detectionIndex) pairs.
// matchedTracks: set to add matched track IDs to.
// assigned: detection index -> matched track.
func (bt *ByteTracker) processMatches(
	matches [][2]int,
	trackBBoxes []bboxPair,
	detectionIndices []int,
	iouMatrix [][]float64,
	allDetections []Detection,
	matchedTracks map[uuid.UUID]struct{},
	assigned map[int]*Track,
) error {
	for _, match := range matches {
		trackIdxInStage := match[0]
		detIdxInStage := match[1]
		if iouMatrix[trackIdxInStage][detIdxInStage] < bt.minIoU {
			continue
		}
		trackID := trackBBoxes[trackIdxInStage].ID
		originalDetIdx := detectionIndices[detIdxInStage]
		track, ok := bt.Objects[trackID]
		if !ok {
			continue
		}
		err := track.Update(allDetections[originalDetIdx])
		if err != nil {
			return fmt.Errorf("failed to update track %s: %w", trackID, err)
		}
		if track.GetHits() >= bt.minConsecutiveFrames {
			bt.confirm(track)
		}
		matchedTracks[trackID] = struct{}{}
		assigned[originalDetIdx] = track
	}
	return nil
}
