package mot

import (
	"math"
	"testing"

	"github.com/google/uuid"
)

func TestNewTrack(t *testing.T) {
	bbox := Rectangle{X: 10, Y: 20, Width: 30, Height: 40}
	track := NewTrack(NewDetection(bbox, 2, 0.8))

	if track == nil {
		t.Fatal("NewTrack returned nil")
	}
	if track.GetID() == uuid.Nil {
		t.Error("Track ID should not be nil")
	}
	if track.IsConfirmed() {
		t.Error("Track should not be confirmed by default")
	}
	if track.GetBBox() != bbox {
		t.Errorf("Expected bbox %v, got %v", bbox, track.GetBBox())
	}
	expectedCenter := Point{X: 25, Y: 40}
	if track.GetCenter() != expectedCenter {
		t.Errorf("Expected center %v, got %v", expectedCenter, track.GetCenter())
	}
	if track.GetClassID() != 2 {
		t.Errorf("Expected class 2, got %d", track.GetClassID())
	}
	if track.GetHits() != 1 {
		t.Errorf("Expected 1 hit, got %d", track.GetHits())
	}
	if len(track.GetTrail()) != 1 {
		t.Errorf("Expected trail with 1 point, got %d", len(track.GetTrail()))
	}
}

func TestTrackNoMatchTimes(t *testing.T) {
	track := NewTrack(NewDetection(Rectangle{X: 0, Y: 0, Width: 10, Height: 10}, 0, 1.0))

	if track.GetNoMatchTimes() != 0 {
		t.Error("NoMatchTimes should be 0 initially")
	}
	track.IncNoMatch()
	track.IncNoMatch()
	if track.GetNoMatchTimes() != 2 {
		t.Errorf("Expected NoMatchTimes 2, got %d", track.GetNoMatchTimes())
	}
	track.ResetNoMatch()
	if track.GetNoMatchTimes() != 0 {
		t.Error("NoMatchTimes should be 0 after reset")
	}
}

func TestTrackUpdate(t *testing.T) {
	track := NewTrack(NewDetection(Rectangle{X: 10, Y: 20, Width: 30, Height: 40}, 1, 0.5))
	track.IncNoMatch()

	track.PredictNextPosition()
	measured := Rectangle{X: 12, Y: 22, Width: 30, Height: 40}
	err := track.Update(NewDetection(measured, 3, 0.9))
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if track.GetClassID() != 3 {
		t.Errorf("Expected class to follow detection (3), got %d", track.GetClassID())
	}
	if math.Abs(track.GetConfidence()-0.9) > eps {
		t.Errorf("Expected confidence 0.9, got %f", track.GetConfidence())
	}
	if track.GetMeasuredBBox() != measured {
		t.Errorf("Expected measured bbox %v, got %v", measured, track.GetMeasuredBBox())
	}
	if track.GetHits() != 2 {
		t.Errorf("Expected 2 hits, got %d", track.GetHits())
	}
	if track.GetNoMatchTimes() != 0 {
		t.Errorf("Expected NoMatchTimes reset after update, got %d", track.GetNoMatchTimes())
	}
	if len(track.GetTrail()) != 2 {
		t.Errorf("Expected trail with 2 points, got %d", len(track.GetTrail()))
	}
}

func TestTrackMaxTrailLen(t *testing.T) {
	track := NewTrack(NewDetection(Rectangle{X: 0, Y: 0, Width: 10, Height: 10}, 0, 1.0))
	track.SetMaxTrailLen(3)
	if track.GetMaxTrailLen() != 3 {
		t.Errorf("Expected max trail length 3, got %d", track.GetMaxTrailLen())
	}
	for i := 1; i <= 10; i++ {
		track.PredictNextPosition()
		err := track.Update(NewDetection(Rectangle{X: float64(i), Y: 0, Width: 10, Height: 10}, 0, 1.0))
		if err != nil {
			t.Fatalf("Update %d failed: %v", i, err)
		}
		if len(track.GetTrail()) > 3 {
			t.Fatalf("Trail exceeded max length: %d", len(track.GetTrail()))
		}
	}
	if len(track.GetTrail()) != 3 {
		t.Errorf("Expected trail with 3 points, got %d", len(track.GetTrail()))
	}
}
