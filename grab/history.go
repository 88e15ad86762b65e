package grab

import (
	"math"

	"github.com/LdDl/grabbed-go/mot"
)

const (
	// DefaultHistoryCapacity is default maximum number of samples kept per identity
	DefaultHistoryCapacity = 100
)

// TrackSample is one observation of one identity at one frame
type TrackSample struct {
	FrameIndex int
	Position   mot.Point
	ClassID    int
}

// HistoryStore keeps bounded (sliding window) history of samples per identity.
//
// Histories are never removed except by the sliding window: memory grows with the number
// of distinct identities seen during the session, not with elapsed time.
type HistoryStore struct {
	capacity  int
	histories map[int][]TrackSample
	// Identities in order of first observation
	order []int
}

// NewHistoryStore creates store keeping at most 'capacity' samples per identity.
// Non-positive capacity falls back to DefaultHistoryCapacity
func NewHistoryStore(capacity int) *HistoryStore {
	if capacity < 1 {
		capacity = DefaultHistoryCapacity
	}
	return &HistoryStore{
		capacity:  capacity,
		histories: make(map[int][]TrackSample),
		order:     make([]int, 0),
	}
}

// Capacity returns maximum number of samples per identity
func (store *HistoryStore) Capacity() int {
	return store.capacity
}

// Record appends sample to identity's history, creating the history if absent.
// The oldest sample is evicted when capacity is exceeded.
// Positions with NaN or infinite coordinates are ignored and false is returned.
func (store *HistoryStore) Record(identity, frameIndex int, position mot.Point, classID int) bool {
	if !isFinite(position.X) || !isFinite(position.Y) {
		return false
	}
	history, ok := store.histories[identity]
	if !ok {
		history = make([]TrackSample, 0, store.capacity)
		store.order = append(store.order, identity)
	}
	history = append(history, TrackSample{
		FrameIndex: frameIndex,
		Position:   position,
		ClassID:    classID,
	})
	if len(history) > store.capacity {
		history = history[len(history)-store.capacity:]
	}
	store.histories[identity] = history
	return true
}

// HistoryOf returns copy of identity's samples, oldest first. Empty for unknown identity
func (store *HistoryStore) HistoryOf(identity int) []TrackSample {
	history := store.histories[identity]
	samples := make([]TrackSample, len(history))
	copy(samples, history)
	return samples
}

// PointsOf returns identity's positions, oldest first. Empty for unknown identity
func (store *HistoryStore) PointsOf(identity int) []mot.Point {
	history := store.histories[identity]
	points := make([]mot.Point, len(history))
	for i := range history {
		points[i] = history[i].Position
	}
	return points
}

// Identities returns every identity seen so far in order of first observation
func (store *HistoryStore) Identities() []int {
	identities := make([]int, len(store.order))
	copy(identities, store.order)
	return identities
}

// Len returns number of identities in the store
func (store *HistoryStore) Len() int {
	return len(store.order)
}

// view returns underlying history without copying. Callers must not modify it
func (store *HistoryStore) view(identity int) []TrackSample {
	return store.histories[identity]
}

// latest returns the most recent sample of identity
func (store *HistoryStore) latest(identity int) (TrackSample, bool) {
	history := store.histories[identity]
	if len(history) == 0 {
		return TrackSample{}, false
	}
	return history[len(history)-1], true
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
