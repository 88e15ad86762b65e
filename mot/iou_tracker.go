package mot

import (
	"container/heap"
	"sort"

	"github.com/google/uuid"
)

// IoUTracker is a naive implementation of Multi-object tracker (MOT) with IoU matching.
// Uses hybrid IoU + distance matching for better recovery when IoU is zero.
// Every new track is confirmed immediately.
type IoUTracker struct {
	trackRegistry
	// Max no match (max number of frames when object could not be found again)
	maxNoMatch int
	// Score threshold for matching
	iouThreshold float64
}

// NewDefaultIoUTracker creates a default instance of IoUTracker.
// Default values: maxNoMatch=75, iouThreshold=0.0
func NewDefaultIoUTracker() *IoUTracker {
	return &IoUTracker{
		trackRegistry: newTrackRegistry(1.0),
		maxNoMatch:    75,
		iouThreshold:  0.0,
	}
}

// NewIoUTracker creates a new instance of IoUTracker with specified parameters.
func NewIoUTracker(maxNoMatch int, iouThreshold float64, dt float64) *IoUTracker {
	return &IoUTracker{
		trackRegistry: newTrackRegistry(dt),
		maxNoMatch:    maxNoMatch,
		iouThreshold:  iouThreshold,
	}
}

// iouCandidate holds a detection with its match score and target track for priority queue
type iouCandidate struct {
	score     float64
	trackID   uuid.UUID
	detection int
	index     int
}

// iouHeap implements heap.Interface for max-heap by score.
// Equal scores are popped in order of detections.
type iouHeap []*iouCandidate

func (h iouHeap) Len() int { return len(h) }

func (h iouHeap) Less(i, j int) bool {
	if h[i].score == h[j].score {
		return h[i].detection < h[j].detection
	}
	return h[i].score > h[j].score
}

func (h iouHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}

func (h *iouHeap) Push(x any) {
	n := len(*h)
	item := x.(*iouCandidate)
	item.index = n
	*h = append(*h, item)
}

func (h *iouHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	item.index = -1
	*h = old[0 : n-1]
	return item
}

// hybridScore combines IoU and distance between predicted box and detection into 0-1 similarity
func hybridScore(predictedBBox Rectangle, detection Rectangle) float64 {
	iouValue := IoU(detection, predictedBBox)
	distance := EuclideanDistance(predictedBBox.Center(), detection.Center())
	distanceScore := 1.0 / (1.0 + distance*0.01)
	// Favor IoU when available, fallback to distance with lower weight
	if iouValue > 0.05 {
		return iouValue*0.8 + distanceScore*0.2
	}
	return distanceScore * 0.5
}

// Update matches detections of the current frame to existing tracks using hybrid IoU + distance.
// Returns one TrackedDetection per detection, in the same order.
func (tracker *IoUTracker) Update(detections []Detection) ([]TrackedDetection, error) {
	tracks := tracker.orderedTracks()
	pq := &iouHeap{}
	heap.Init(pq)
	for i := range detections {
		var bestID uuid.UUID
		bestScore := 0.0
		for _, track := range tracks {
			score := hybridScore(track.GetPredictedBBox(), detections[i].BBox)
			if score > bestScore {
				bestScore = score
				bestID = track.GetID()
			}
		}
		heap.Push(pq, &iouCandidate{
			score:     bestScore,
			trackID:   bestID,
			detection: i,
		})
	}

	// Prevent double update of objects
	reservedObjects := make(map[uuid.UUID]bool)
	assigned := make(map[int]*Track)
	toRegister := make([]int, 0)

	// Process matches from highest score to lowest
	for pq.Len() > 0 {
		item := heap.Pop(pq).(*iouCandidate)
		existing, ok := tracker.Objects[item.trackID]
		if !ok || reservedObjects[item.trackID] || item.score <= tracker.iouThreshold {
			toRegister = append(toRegister, item.detection)
			continue
		}
		existing.PredictNextPosition()
		err := existing.Update(detections[item.detection])
		if err != nil {
			return nil, err
		}
		reservedObjects[item.trackID] = true
		assigned[item.detection] = existing
	}

	// Handle unmatched objects (predict forward for track maintenance)
	for id, object := range tracker.Objects {
		if !reservedObjects[id] {
			object.PredictNextPosition()
			object.IncNoMatch()
		}
	}

	// Clean up existing data - remove objects not found for a long time
	for id, object := range tracker.Objects {
		if object.GetNoMatchTimes() > tracker.maxNoMatch {
			delete(tracker.Objects, id)
		}
	}

	// Register new objects in order of detections so identities are deterministic
	sort.Ints(toRegister)
	for _, detIdx := range toRegister {
		newTrack := tracker.register(detections[detIdx])
		tracker.confirm(newTrack)
		assigned[detIdx] = newTrack
	}

	return trackedOutput(detections, assigned), nil
}
