package report

import (
	"bytes"
	"encoding/json"
	"math"
	"path/filepath"
	"strings"
	"testing"

	"github.com/LdDl/grabbed-go/grab"
	"github.com/LdDl/grabbed-go/mot"
	"github.com/google/go-cmp/cmp"
)

func resultWithGrabbed(frame, trackID int, length float64) grab.FrameResult {
	return grab.FrameResult{
		FrameIndex: frame,
		Grabbed: &grab.GrabbedItemRecord{
			TrackID:          trackID,
			ClassID:          2,
			ClassName:        "packet",
			TrajectoryLength: length,
			StartFrame:       1,
			EndFrame:         frame,
			DurationFrames:   frame,
		},
	}
}

func TestCSVWriter(t *testing.T) {
	buf := &bytes.Buffer{}
	sink := NewCSVWriter(buf)
	if err := sink.Write(grab.FrameResult{FrameIndex: 1}); err != nil {
		t.Fatal(err)
	}
	if err := sink.Write(resultWithGrabbed(2, 7, 12.5)); err != nil {
		t.Fatal(err)
	}
	if err := sink.Close(); err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("Expected 3 lines (header + 2 frames), got %d: %q", len(lines), buf.String())
	}
	if lines[0] != "frame;track_id;class_id;class_name;trajectory_length;start_frame;end_frame;duration_frames" {
		t.Errorf("Unexpected header: %s", lines[0])
	}
	if lines[1] != "1;;;;;;;" {
		t.Errorf("Unexpected row for frame without grabbed item: %s", lines[1])
	}
	if lines[2] != "2;7;2;packet;12.500;1;2;2" {
		t.Errorf("Unexpected row for frame with grabbed item: %s", lines[2])
	}
}

func TestJSONWriter(t *testing.T) {
	buf := &bytes.Buffer{}
	sink := NewJSONWriter(buf, false)
	if err := sink.Write(grab.FrameResult{FrameIndex: 1}); err != nil {
		t.Fatal(err)
	}
	if err := sink.Write(resultWithGrabbed(2, 7, 12.5)); err != nil {
		t.Fatal(err)
	}
	if err := sink.Close(); err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("Expected only frame with grabbed item, got %d lines", len(lines))
	}
	decoded := grab.FrameResult{}
	if err := json.Unmarshal([]byte(lines[0]), &decoded); err != nil {
		t.Fatal(err)
	}
	if decoded.FrameIndex != 2 || decoded.Grabbed == nil || decoded.Grabbed.TrackID != 7 {
		t.Errorf("Unexpected decoded result: %+v", decoded)
	}
}

func TestJSONWriterKeepEmpty(t *testing.T) {
	buf := &bytes.Buffer{}
	sink := NewJSONWriter(buf, true)
	if err := sink.Write(grab.FrameResult{FrameIndex: 1}); err != nil {
		t.Fatal(err)
	}
	if strings.Contains(buf.String(), "grabbed") {
		t.Errorf("Empty grabbed item should be omitted: %s", buf.String())
	}
	if !strings.Contains(buf.String(), `"frame":1`) {
		t.Errorf("Expected frame number in output: %s", buf.String())
	}
}

func TestWriteTrajectoriesCSV(t *testing.T) {
	tracker := grab.NewTracker(10, "hand", 1, grab.NewClassNames("background", "hand", "packet"))
	id := 3
	class := 2
	for _, x := range []float64{0, 3, 6} {
		tracker.UpdateFrame([]mot.TrackedDetection{{
			BBox:    mot.NewRect(x, 0, 0, 0),
			TrackID: &id,
			ClassID: &class,
		}})
	}
	buf := &bytes.Buffer{}
	if err := WriteTrajectoriesCSV(buf, tracker); err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("Expected 2 lines, got %d", len(lines))
	}
	expected := "3;packet;6.000;0.000000,0.000000|3.000000,0.000000|6.000000,0.000000"
	if lines[1] != expected {
		t.Errorf("Expected '%s', got '%s'", expected, lines[1])
	}
}

func TestSQLiteStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.db")
	store, err := OpenSQLiteStore(path, "test")
	if err != nil {
		t.Fatal(err)
	}

	if _, ok, err := store.LastEvent(); err != nil || ok {
		t.Fatalf("Expected no events in empty store (err: %v)", err)
	}

	results := []grab.FrameResult{
		{FrameIndex: 1},
		resultWithGrabbed(2, 7, 5.0),
		resultWithGrabbed(3, 7, 10.0),
		resultWithGrabbed(4, 9, 30.0),
	}
	for _, result := range results {
		if err := store.Write(result); err != nil {
			t.Fatal(err)
		}
	}

	counts, err := store.GrabbedCounts()
	if err != nil {
		t.Fatal(err)
	}
	if len(counts) != 2 {
		t.Fatalf("Expected 2 identities, got %d", len(counts))
	}
	if counts[0].TrackID != 7 || counts[0].Frames != 2 {
		t.Errorf("Expected identity 7 with 2 frames first, got %+v", counts[0])
	}
	if math.Abs(counts[0].MaxTrajectory-10.0) > 0.00001 {
		t.Errorf("Expected max trajectory 10.0, got %f", counts[0].MaxTrajectory)
	}

	last, ok, err := store.LastEvent()
	if err != nil || !ok {
		t.Fatalf("Expected last event (err: %v)", err)
	}
	if diff := cmp.Diff(*resultWithGrabbed(4, 9, 30.0).Grabbed, last); diff != "" {
		t.Errorf("Unexpected last event (-want +got):\n%s", diff)
	}
	if err := store.Close(); err != nil {
		t.Fatal(err)
	}

	// Reopening keeps data and does not rerun migrations
	store, err = OpenSQLiteStore(path, "test")
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()
	counts, err = store.GrabbedCounts()
	if err != nil {
		t.Fatal(err)
	}
	if len(counts) != 2 {
		t.Errorf("Expected data to survive reopening, got %d identities", len(counts))
	}
}
