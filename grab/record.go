package grab

import (
	"fmt"
)

// GrabbedItemRecord describes identity which is considered as grabbed one
type GrabbedItemRecord struct {
	TrackID          int     `json:"track_id"`
	ClassID          int     `json:"class_id"`
	ClassName        string  `json:"class_name"`
	TrajectoryLength float64 `json:"trajectory_length"`
	StartFrame       int     `json:"start_frame"`
	EndFrame         int     `json:"end_frame"`
	DurationFrames   int     `json:"duration_frames"`
}

// Lines returns overlay text for the record:
//
//	Grabbed: <class name> #<track id>
//	Trajectory: <length>px
//	Duration: <n> frames
func (record GrabbedItemRecord) Lines() []string {
	return []string{
		fmt.Sprintf("Grabbed: %s #%d", record.ClassName, record.TrackID),
		fmt.Sprintf("Trajectory: %.1fpx", record.TrajectoryLength),
		fmt.Sprintf("Duration: %d frames", record.DurationFrames),
	}
}

// TrackSummary is state of a single identity after a frame
type TrackSummary struct {
	TrackID          int     `json:"track_id"`
	ClassID          int     `json:"class_id"`
	ClassName        string  `json:"class_name"`
	TrajectoryLength float64 `json:"trajectory_length"`
	Samples          int     `json:"samples"`
	Excluded         bool    `json:"excluded"`
}

// FrameResult is snapshot of the tracker after a frame
type FrameResult struct {
	FrameIndex int                `json:"frame"`
	Tracks     []TrackSummary     `json:"tracks"`
	Grabbed    *GrabbedItemRecord `json:"grabbed,omitempty"`
}
