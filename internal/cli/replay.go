package cli

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/LdDl/grabbed-go/grab"
	"github.com/LdDl/grabbed-go/mot"
	"github.com/LdDl/grabbed-go/pipeline"
	"github.com/LdDl/grabbed-go/report"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

// ReplayOptions holds settings of the 'replay' command
type ReplayOptions struct {
	LabelsFile string

	// Grabbed item inference
	HistoryCapacity int
	ExcludedClass   string
	FrameStart      int

	// Detection filtering
	Classes   []string
	MinSize   float64
	FrameSkip int

	// Identity assignment
	Tracker        string
	Matching       string
	TrackThresh    float64
	LowThresh      float64
	MinIoU         float64
	LostDelay      int
	MinConsecutive int
	FrameRate      float64

	// Outputs
	CSVFile          string
	JSONFile         string
	SQLiteFile       string
	Session          string
	TrajectoriesFile string
}

// DefaultReplayOptions returns options used when flags are not set
func DefaultReplayOptions() ReplayOptions {
	return ReplayOptions{
		HistoryCapacity: grab.DefaultHistoryCapacity,
		ExcludedClass:   grab.DefaultExcludedClass,
		FrameStart:      grab.DefaultFrameStart,
		Classes:         pipeline.DefaultClasses,
		FrameSkip:       1,
		Tracker:         "bytetrack",
		Matching:        mot.MatchingAlgorithmHungarian.String(),
		TrackThresh:     0.25,
		LowThresh:       0.1,
		MinIoU:          0.3,
		LostDelay:       30,
		MinConsecutive:  1,
		FrameRate:       30,
	}
}

// NewReplayCmd creates the 'replay' command which runs precomputed detections through the pipeline.
func NewReplayCmd() *cobra.Command {
	opts := DefaultReplayOptions()

	cmd := &cobra.Command{
		Use:   "replay",
		Short: "Replay detections from labels file and infer grabbed item",
		Long: `Reads per-frame detections from a JSON labels file, assigns identities to them,
accumulates trajectories and reports which object has been grabbed on every frame.`,
		Example: `  grabbed replay --labels video.json
  grabbed replay --labels video.json --csv grabbed.csv --sqlite events.db
  grabbed replay --labels video.json --tracker iou --exclude hand --history 50`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReplay(cmd.Context(), opts, cmd.OutOrStdout())
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&opts.LabelsFile, "labels", "l", "", "JSON file with per-frame detections")
	flags.IntVar(&opts.HistoryCapacity, "history", opts.HistoryCapacity, "Maximum number of positions kept per identity")
	flags.StringVar(&opts.ExcludedClass, "exclude", opts.ExcludedClass, "Class which can't be grabbed item (the manipulating agent)")
	flags.IntVar(&opts.FrameStart, "frame-start", opts.FrameStart, "Index of the first frame")
	flags.StringSliceVar(&opts.Classes, "classes", opts.Classes, "Classes of interest. Empty list keeps every class except background")
	flags.Float64Var(&opts.MinSize, "min-size", opts.MinSize, "Minimum width and height of detection in pixels (0 disables)")
	flags.IntVar(&opts.FrameSkip, "frame-skip", opts.FrameSkip, "Process every Nth frame")
	flags.StringVar(&opts.Tracker, "tracker", opts.Tracker, "Identity assignment: bytetrack or iou")
	flags.StringVar(&opts.Matching, "matching", opts.Matching, "ByteTrack matching algorithm: hungarian or greedy")
	flags.Float64Var(&opts.TrackThresh, "track-thresh", opts.TrackThresh, "Confidence required to start a new track")
	flags.Float64Var(&opts.LowThresh, "low-thresh", opts.LowThresh, "Detections below this confidence are ignored by ByteTrack")
	flags.Float64Var(&opts.MinIoU, "min-iou", opts.MinIoU, "Minimum IoU to associate detection with track")
	flags.IntVar(&opts.LostDelay, "lost-delay", opts.LostDelay, "Frames to wait before dropping a lost track")
	flags.IntVar(&opts.MinConsecutive, "min-consecutive", opts.MinConsecutive, "Matched frames required before track gets an identity")
	flags.Float64Var(&opts.FrameRate, "fps", opts.FrameRate, "Frame rate of the video (time step of Kalman filter)")
	flags.StringVar(&opts.CSVFile, "csv", "", "Write grabbed item of every frame to CSV file")
	flags.StringVar(&opts.JSONFile, "json", "", "Write frames with grabbed item to JSON lines file")
	flags.StringVar(&opts.SQLiteFile, "sqlite", "", "Store grabbed item events in SQLite database")
	flags.StringVar(&opts.Session, "session", "", "Session name for SQLite events (default: labels file name and start time)")
	flags.StringVar(&opts.TrajectoriesFile, "trajectories", "", "Write retained trajectories to CSV file after processing")
	cmd.MarkFlagRequired("labels")

	return cmd
}

// newAssociator creates identity assignment algorithm by options
func newAssociator(opts ReplayOptions) (pipeline.Associator, error) {
	dt := 1.0
	if opts.FrameRate > 0 {
		dt = 1.0 / opts.FrameRate
	}
	switch opts.Tracker {
	case "bytetrack":
		algorithm, err := mot.ParseMatchingAlgorithm(opts.Matching)
		if err != nil {
			return nil, err
		}
		return mot.NewByteTracker(opts.LostDelay, opts.MinIoU, opts.TrackThresh, opts.LowThresh, opts.MinConsecutive, algorithm, dt), nil
	case "iou":
		return mot.NewIoUTracker(opts.LostDelay, opts.MinIoU, dt), nil
	default:
		return nil, fmt.Errorf("unknown tracker '%s'", opts.Tracker)
	}
}

// openSinks opens report sinks requested by options. Already opened sinks are closed on error.
// SQLite store is returned separately too (nil when not requested) for the final summary
func openSinks(opts ReplayOptions) ([]report.Sink, *report.SQLiteStore, error) {
	sinks := make([]report.Sink, 0, 3)
	fail := func(err error) ([]report.Sink, *report.SQLiteStore, error) {
		closeSinks(sinks)
		return nil, nil, err
	}
	if opts.CSVFile != "" {
		file, err := os.Create(opts.CSVFile)
		if err != nil {
			return fail(errors.Wrapf(err, "Can't create CSV file '%s'", opts.CSVFile))
		}
		sinks = append(sinks, report.NewCSVWriter(file))
	}
	if opts.JSONFile != "" {
		file, err := os.Create(opts.JSONFile)
		if err != nil {
			return fail(errors.Wrapf(err, "Can't create JSON file '%s'", opts.JSONFile))
		}
		sinks = append(sinks, report.NewJSONWriter(file, false))
	}
	if opts.SQLiteFile != "" {
		session := opts.Session
		if session == "" {
			session = fmt.Sprintf("%s@%s", opts.LabelsFile, time.Now().Format(time.RFC3339))
		}
		store, err := report.OpenSQLiteStore(opts.SQLiteFile, session)
		if err != nil {
			return fail(err)
		}
		sinks = append(sinks, store)
		return sinks, store, nil
	}
	return sinks, nil, nil
}

func closeSinks(sinks []report.Sink) error {
	var firstErr error
	for _, sink := range sinks {
		if err := sink.Close(); err != nil {
			log.Printf("Warning: failed to close report: %v", err)
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

// runReplay runs labels file through the pipeline and prints summary to out
func runReplay(ctx context.Context, opts ReplayOptions, out io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}
	detector, err := pipeline.OpenLabelsDetector(opts.LabelsFile)
	if err != nil {
		return err
	}
	associator, err := newAssociator(opts)
	if err != nil {
		return err
	}
	sinks, store, err := openSinks(opts)
	if err != nil {
		return err
	}

	tracker := grab.NewTracker(opts.HistoryCapacity, opts.ExcludedClass, opts.FrameStart, detector)
	filter := pipeline.NewFilter(detector, opts.Classes, opts.MinSize)
	processor := pipeline.NewProcessor(detector, filter, associator, tracker, opts.FrameSkip, log.Default(), sinks...)

	log.Printf("Replaying %d frames from %s", detector.Len(), opts.LabelsFile)
	stats, err := processor.Run(ctx)
	var counts []report.GrabbedCount
	if err == nil && store != nil {
		counts, err = store.GrabbedCounts()
	}
	closeErr := closeSinks(sinks)
	if err != nil {
		return errors.Wrap(err, "Processing failed")
	}
	if closeErr != nil {
		return errors.Wrap(closeErr, "Can't finish reports")
	}

	if opts.TrajectoriesFile != "" {
		file, err := os.Create(opts.TrajectoriesFile)
		if err != nil {
			return errors.Wrapf(err, "Can't create trajectories file '%s'", opts.TrajectoriesFile)
		}
		err = report.WriteTrajectoriesCSV(file, tracker)
		file.Close()
		if err != nil {
			return errors.Wrap(err, "Can't write trajectories")
		}
	}

	fmt.Fprintln(out, "Processing complete!")
	fmt.Fprintf(out, "Input labels:           %s\n", opts.LabelsFile)
	fmt.Fprintf(out, "Frames read:            %d\n", stats.FramesRead)
	fmt.Fprintf(out, "Frames processed:       %d\n", stats.FramesProcessed)
	fmt.Fprintf(out, "Identities:             %d\n", len(tracker.Identities()))
	fmt.Fprintf(out, "Processing time:        %.2f seconds (%.2f FPS)\n", stats.Elapsed.Seconds(), stats.FPS())
	if stats.Grabbed == nil {
		fmt.Fprintln(out, "No grabbed item")
	} else {
		for _, line := range stats.Grabbed.Lines() {
			fmt.Fprintln(out, line)
		}
	}
	if len(counts) > 0 {
		fmt.Fprintln(out, "Frames as grabbed item:")
		for _, count := range counts {
			fmt.Fprintf(out, "  ID %d (%s): %d frames, max trajectory %.1f px\n", count.TrackID, count.ClassName, count.Frames, count.MaxTrajectory)
		}
	}
	return nil
}
