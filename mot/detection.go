package mot

// Detection is a single object found by detector on a frame
type Detection struct {
	BBox       Rectangle
	ClassID    int
	Confidence float64
}

// NewDetection creates detection from bounding box, class and confidence
func NewDetection(bbox Rectangle, classID int, confidence float64) Detection {
	return Detection{
		BBox:       bbox,
		ClassID:    classID,
		Confidence: confidence,
	}
}

// TrackedDetection is a detection enriched by multi-object tracker.
// TrackID is nil when tracker has not confirmed the object (yet).
// ClassID is nil when class is not known for the detection.
type TrackedDetection struct {
	BBox       Rectangle
	Confidence float64
	TrackID    *int
	ClassID    *int
}

// NewTrackedDetection wraps detection with tracker's identity. Pass nil trackID for unconfirmed objects
func NewTrackedDetection(detection Detection, trackID *int) TrackedDetection {
	classID := detection.ClassID
	return TrackedDetection{
		BBox:       detection.BBox,
		Confidence: detection.Confidence,
		TrackID:    trackID,
		ClassID:    &classID,
	}
}

// GetCenter returns center of detection's bounding box
func (det TrackedDetection) GetCenter() Point {
	return det.BBox.Center()
}

// IsConfirmed returns true when both identity and class are known
func (det TrackedDetection) IsConfirmed() bool {
	return det.TrackID != nil && det.ClassID != nil
}
