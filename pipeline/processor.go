package pipeline

import (
	"context"
	"io"
	"log"
	"time"

	"github.com/LdDl/grabbed-go/grab"
	"github.com/LdDl/grabbed-go/mot"
	"github.com/LdDl/grabbed-go/report"
	"github.com/pkg/errors"
)

const (
	// DefaultProgressEvery is how often (in frames) Processor logs its progress
	DefaultProgressEvery = 100
)

// Stats is summary of the processed stream
type Stats struct {
	FramesRead      int
	FramesProcessed int
	Elapsed         time.Duration
	// Grabbed item after the last processed frame
	Grabbed *grab.GrabbedItemRecord
}

// FPS returns processing rate
func (stats Stats) FPS() float64 {
	if stats.Elapsed <= 0 {
		return 0
	}
	return float64(stats.FramesProcessed) / stats.Elapsed.Seconds()
}

// Processor drives frames through detector, filter, associator and grabbed item tracker,
// then hands results over to the sinks
type Processor struct {
	detector      Detector
	filter        *Filter
	associator    Associator
	tracker       *grab.Tracker
	sinks         []report.Sink
	frameSkip     int
	progressEvery int
	logger        *log.Logger
}

// NewProcessor creates new instance of Processor.
// Filter could be nil (keep everything). Every frameSkip-th frame is processed, values less than 1 mean every frame.
// Logger could be nil (no logging).
func NewProcessor(detector Detector, filter *Filter, associator Associator, tracker *grab.Tracker, frameSkip int, logger *log.Logger, sinks ...report.Sink) *Processor {
	if frameSkip < 1 {
		frameSkip = 1
	}
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Processor{
		detector:      detector,
		filter:        filter,
		associator:    associator,
		tracker:       tracker,
		sinks:         sinks,
		frameSkip:     frameSkip,
		progressEvery: DefaultProgressEvery,
		logger:        logger,
	}
}

// SetProgressEvery sets how often progress is logged. Non-positive value disables progress logging
func (processor *Processor) SetProgressEvery(frames int) {
	processor.progressEvery = frames
}

// ProcessFrame runs single frame's detections through the pipeline.
// When association fails the grabbed item tracker is not touched.
func (processor *Processor) ProcessFrame(detections []mot.Detection) (grab.FrameResult, error) {
	if processor.filter != nil {
		detections = processor.filter.Apply(detections)
	}
	tracked, err := processor.associator.Update(detections)
	if err != nil {
		return grab.FrameResult{}, errors.Wrapf(err, "Can't associate detections on frame %d", processor.tracker.FrameIndex()+1)
	}
	processor.tracker.UpdateFrame(tracked)
	result := processor.tracker.Snapshot()
	for _, sink := range processor.sinks {
		err = sink.Write(result)
		if err != nil {
			return result, errors.Wrapf(err, "Can't write result of frame %d", result.FrameIndex)
		}
	}
	return result, nil
}

// Run processes frames until detector is exhausted or context is cancelled.
// Cancellation is checked between frames only.
func (processor *Processor) Run(ctx context.Context) (Stats, error) {
	stats := Stats{}
	start := time.Now()
	for {
		if err := ctx.Err(); err != nil {
			stats.Elapsed = time.Since(start)
			return stats, err
		}
		detections, err := processor.detector.Next(ctx)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			stats.Elapsed = time.Since(start)
			return stats, errors.Wrapf(err, "Can't get detections for frame %d", stats.FramesRead)
		}
		frameNum := stats.FramesRead
		stats.FramesRead++
		if frameNum%processor.frameSkip != 0 {
			continue
		}
		result, err := processor.ProcessFrame(detections)
		if err != nil {
			stats.Elapsed = time.Since(start)
			return stats, err
		}
		stats.FramesProcessed++
		stats.Grabbed = result.Grabbed
		if processor.progressEvery > 0 && stats.FramesProcessed%processor.progressEvery == 0 {
			elapsed := time.Since(start).Seconds()
			fps := 0.0
			if elapsed > 0 {
				fps = float64(stats.FramesProcessed) / elapsed
			}
			processor.logger.Printf("Processed %d frames, FPS: %.2f", stats.FramesProcessed, fps)
		}
	}
	stats.Elapsed = time.Since(start)
	return stats, nil
}
