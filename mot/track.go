package mot

import (
	kalman_filter "github.com/LdDl/kalman-filter"
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

const (
	// DefaultMaxTrailLen is default number of smoothed centers kept by a track for drawing
	DefaultMaxTrailLen = 30
)

// Track is a tracked object using 8-D Kalman filter for full bounding box dynamics.
// State vector: [cx, cy, w, h, vx, vy, vw, vh] - center position, size, and velocities.
type Track struct {
	id uuid.UUID
	// Order of creation within the tracker. Used to make matching deterministic
	serial int
	// External identity. Zero until the track is confirmed
	trackID       int
	classID       int
	confidence    float64
	measuredBBox  Rectangle
	currentBBox   Rectangle
	predictedBBox Rectangle
	trail         []Point
	maxTrailLen   int
	hits          int
	noMatchTimes  int
	tracker       *kalman_filter.KalmanBBox
}

// NewTrackWithTime creates a new Track from detection with specified time step.
func NewTrackWithTime(detection Detection, dt float64) *Track {
	bbox := detection.BBox
	center := bbox.Center()

	// Kalman filter props
	uCx := 1.0
	uCy := 1.0
	uW := 0.0
	uH := 0.0
	stdDevA := 2.0
	stdDevMCx := 0.1
	stdDevMCy := 0.1
	stdDevMW := 0.1
	stdDevMH := 0.1
	kf := kalman_filter.NewKalmanBBox(
		dt, uCx, uCy, uW, uH,
		stdDevA, stdDevMCx, stdDevMCy, stdDevMW, stdDevMH,
		kalman_filter.WithStateBBox(center.X, center.Y, bbox.Width, bbox.Height),
	)

	track := Track{
		id:            uuid.New(),
		classID:       detection.ClassID,
		confidence:    detection.Confidence,
		measuredBBox:  bbox,
		currentBBox:   bbox,
		predictedBBox: bbox,
		trail:         make([]Point, 0, DefaultMaxTrailLen),
		maxTrailLen:   DefaultMaxTrailLen,
		hits:          1,
		tracker:       kf,
	}
	track.trail = append(track.trail, center)
	return &track
}

// NewTrack creates a new Track with default time step of 1.0.
func NewTrack(detection Detection) *Track {
	return NewTrackWithTime(detection, 1.0)
}

// GetID returns track's internal identifier
func (track *Track) GetID() uuid.UUID {
	return track.id
}

// GetTrackID returns external integer identity. Zero means track is not confirmed yet
func (track *Track) GetTrackID() int {
	return track.trackID
}

// IsConfirmed returns true if track has been given an external identity
func (track *Track) IsConfirmed() bool {
	return track.trackID > 0
}

func (track *Track) confirm(trackID int) {
	track.trackID = trackID
}

// GetClassID returns class of the last matched detection
func (track *Track) GetClassID() int {
	return track.classID
}

// GetConfidence returns confidence of the last matched detection
func (track *Track) GetConfidence() float64 {
	return track.confidence
}

// GetCenter returns track's current (smoothed) center
func (track *Track) GetCenter() Point {
	return track.currentBBox.Center()
}

// GetBBox returns track's current (smoothed) bounding box
func (track *Track) GetBBox() Rectangle {
	return track.currentBBox
}

// GetMeasuredBBox returns bounding box of the last matched detection as is
func (track *Track) GetMeasuredBBox() Rectangle {
	return track.measuredBBox
}

// GetPredictedBBox returns predicted bounding box from Kalman filter
func (track *Track) GetPredictedBBox() Rectangle {
	return track.predictedBBox
}

// GetTrail returns smoothed centers of the track. Be careful: this is not copy of trail, but reference to it
func (track *Track) GetTrail() []Point {
	return track.trail
}

// GetMaxTrailLen returns track's max trail length
func (track *Track) GetMaxTrailLen() int {
	return track.maxTrailLen
}

// SetMaxTrailLen sets track's max trail length
func (track *Track) SetMaxTrailLen(newMaxTrailLen int) {
	track.maxTrailLen = newMaxTrailLen
	if newMaxTrailLen > 0 && len(track.trail) > newMaxTrailLen {
		track.trail = track.trail[len(track.trail)-newMaxTrailLen:]
	}
}

// GetHits returns number of detections the track has been matched with (including the first one)
func (track *Track) GetHits() int {
	return track.hits
}

// GetNoMatchTimes returns track's no match times
func (track *Track) GetNoMatchTimes() int {
	return track.noMatchTimes
}

// IncNoMatch increases track's no match times
func (track *Track) IncNoMatch() {
	track.noMatchTimes++
}

// ResetNoMatch resets track's no match times
func (track *Track) ResetNoMatch() {
	track.noMatchTimes = 0
}

// PredictNextPosition executes Kalman filter prediction step
func (track *Track) PredictNextPosition() {
	track.tracker.Predict()
	cx, cy, w, h := track.tracker.GetState()
	track.predictedBBox = Rectangle{
		X:      cx - w/2.0,
		Y:      cy - h/2.0,
		Width:  w,
		Height: h,
	}
}

// Update corrects track with matched detection: executes Kalman filter update step,
// takes over detection's class and confidence.
func (track *Track) Update(detection Detection) error {
	bbox := detection.BBox
	center := bbox.Center()

	err := track.tracker.Update(center.X, center.Y, bbox.Width, bbox.Height)
	if err != nil {
		return errors.Wrap(err, "Can't update object tracker")
	}

	cx, cy, w, h := track.tracker.GetState()
	track.currentBBox = Rectangle{
		X:      cx - w/2.0,
		Y:      cy - h/2.0,
		Width:  w,
		Height: h,
	}
	track.measuredBBox = bbox
	track.classID = detection.ClassID
	track.confidence = detection.Confidence
	track.hits++
	track.noMatchTimes = 0

	track.trail = append(track.trail, Point{X: cx, Y: cy})
	if track.maxTrailLen > 0 && len(track.trail) > track.maxTrailLen {
		track.trail = track.trail[1:]
	}
	return nil
}
