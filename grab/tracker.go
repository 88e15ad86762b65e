package grab

import (
	"github.com/LdDl/grabbed-go/mot"
)

const (
	// DefaultFrameStart is index of the first frame processed by Tracker
	DefaultFrameStart = 1
)

// Tracker accumulates trajectories of tracked identities frame by frame and infers
// which object has been grabbed.
//
// Tracker is not safe for concurrent use: frames must be fed sequentially and each
// UpdateFrame call completes before the next one.
type Tracker struct {
	store      *HistoryStore
	lengths    map[int]float64
	selector   *Selector
	frameStart int
	// Index of the last processed frame
	frameIndex int
	grabbed    GrabbedItemRecord
	hasGrabbed bool
}

// NewTrackerDefault creates default instance of Tracker: history capacity 100,
// excluded class "hand", frames counted from 1 and no class names known.
func NewTrackerDefault() *Tracker {
	return NewTracker(DefaultHistoryCapacity, DefaultExcludedClass, DefaultFrameStart, nil)
}

// NewTracker creates new instance of Tracker
func NewTracker(historyCapacity int, excludedClass string, frameStart int, namer ClassNamer) *Tracker {
	return &Tracker{
		store:      NewHistoryStore(historyCapacity),
		lengths:    make(map[int]float64),
		selector:   NewSelector(namer, excludedClass),
		frameStart: frameStart,
		frameIndex: frameStart - 1,
	}
}

// UpdateFrame consumes tracked detections of the next frame.
//
// Frame counter advances by exactly one per call, even for empty input. Detections without
// identity or class are skipped. Histories of the whole frame are updated first, then
// the grabbed item is selected once.
func (tracker *Tracker) UpdateFrame(detections []mot.TrackedDetection) {
	tracker.frameIndex++
	for _, detection := range detections {
		if !detection.IsConfirmed() {
			continue
		}
		identity := *detection.TrackID
		if !tracker.store.Record(identity, tracker.frameIndex, detection.GetCenter(), *detection.ClassID) {
			continue
		}
		tracker.lengths[identity] = TrajectoryLength(tracker.store.view(identity))
	}
	tracker.grabbed, tracker.hasGrabbed = tracker.selector.Select(tracker.store, tracker.lengths)
}

// FrameIndex returns index of the last processed frame (frameStart-1 before the first one)
func (tracker *Tracker) FrameIndex() int {
	return tracker.frameIndex
}

// HistoryCapacity returns maximum number of samples per identity
func (tracker *Tracker) HistoryCapacity() int {
	return tracker.store.Capacity()
}

// HistoryOf returns samples of identity, oldest first
func (tracker *Tracker) HistoryOf(identity int) []TrackSample {
	return tracker.store.HistoryOf(identity)
}

// PointsOf returns positions of identity for drawing, oldest first
func (tracker *Tracker) PointsOf(identity int) []mot.Point {
	return tracker.store.PointsOf(identity)
}

// TrajectoryLengthOf returns trajectory length of identity. Zero for unknown identity
func (tracker *Tracker) TrajectoryLengthOf(identity int) float64 {
	return tracker.lengths[identity]
}

// Identities returns every identity seen during the session in order of first observation
func (tracker *Tracker) Identities() []int {
	return tracker.store.Identities()
}

// CurrentGrabbedItem returns grabbed item selected on the last frame.
// The second value is false when there is no candidate.
func (tracker *Tracker) CurrentGrabbedItem() (GrabbedItemRecord, bool) {
	return tracker.grabbed, tracker.hasGrabbed
}

// ClassName resolves class name the same way as it is done for exclusion
func (tracker *Tracker) ClassName(classID int) string {
	return tracker.selector.ClassName(classID)
}

// Snapshot returns state of every identity and grabbed item after the last frame
func (tracker *Tracker) Snapshot() FrameResult {
	result := FrameResult{
		FrameIndex: tracker.frameIndex,
		Tracks:     make([]TrackSummary, 0, tracker.store.Len()),
	}
	for _, identity := range tracker.store.order {
		last, ok := tracker.store.latest(identity)
		if !ok {
			continue
		}
		result.Tracks = append(result.Tracks, TrackSummary{
			TrackID:          identity,
			ClassID:          last.ClassID,
			ClassName:        tracker.selector.ClassName(last.ClassID),
			TrajectoryLength: tracker.lengths[identity],
			Samples:          len(tracker.store.view(identity)),
			Excluded:         tracker.selector.IsExcluded(last.ClassID),
		})
	}
	if tracker.hasGrabbed {
		grabbed := tracker.grabbed
		result.Grabbed = &grabbed
	}
	return result
}

// Reset starts new session: drops every history, grabbed item and restarts frame counter
func (tracker *Tracker) Reset() {
	tracker.store = NewHistoryStore(tracker.store.Capacity())
	tracker.lengths = make(map[int]float64)
	tracker.frameIndex = tracker.frameStart - 1
	tracker.grabbed = GrabbedItemRecord{}
	tracker.hasGrabbed = false
}
