package pipeline

import (
	"context"
	"encoding/json"
	"io"
	"os"

	"github.com/LdDl/grabbed-go/grab"
	"github.com/LdDl/grabbed-go/mot"
	"github.com/pkg/errors"
)

// Detector produces detections frame by frame and knows names of its classes.
// Next returns io.EOF when the stream is over.
type Detector interface {
	grab.ClassNamer
	Next(ctx context.Context) ([]mot.Detection, error)
}

// Associator assigns identities to detections of a frame
type Associator interface {
	Update(detections []mot.Detection) ([]mot.TrackedDetection, error)
}

// LabelBox is a bounding box in labels file
type LabelBox struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// LabelObject is a single detection in labels file
type LabelObject struct {
	Class      int      `json:"class"`
	Confidence float64  `json:"confidence"`
	Box        LabelBox `json:"box"`
}

// LabelFrame is the set of detections of a single frame in labels file
type LabelFrame struct {
	Frame   int           `json:"frame"`
	Objects []LabelObject `json:"objects"`
}

// VideoLabels is content of labels file: detections precomputed for each video frame
type VideoLabels struct {
	Classes []string     `json:"classes"`
	Frames  []LabelFrame `json:"frames"`
}

// LabelsDetector replays detections from VideoLabels
type LabelsDetector struct {
	names  grab.ClassNames
	frames []LabelFrame
	cursor int
}

// NewLabelsDetector creates detector replaying given labels
func NewLabelsDetector(labels VideoLabels) *LabelsDetector {
	return &LabelsDetector{
		names:  grab.NewClassNames(labels.Classes...),
		frames: labels.Frames,
	}
}

// ReadLabels decodes VideoLabels from reader
func ReadLabels(r io.Reader) (VideoLabels, error) {
	labels := VideoLabels{}
	err := json.NewDecoder(r).Decode(&labels)
	if err != nil {
		return VideoLabels{}, errors.Wrap(err, "Can't decode labels")
	}
	return labels, nil
}

// OpenLabelsDetector reads labels file and creates detector replaying it
func OpenLabelsDetector(fileName string) (*LabelsDetector, error) {
	file, err := os.Open(fileName)
	if err != nil {
		return nil, errors.Wrapf(err, "Can't open labels file '%s'", fileName)
	}
	defer file.Close()
	labels, err := ReadLabels(file)
	if err != nil {
		return nil, errors.Wrapf(err, "Can't read labels file '%s'", fileName)
	}
	return NewLabelsDetector(labels), nil
}

// ClassName implements grab.ClassNamer
func (detector *LabelsDetector) ClassName(classID int) (string, bool) {
	return detector.names.ClassName(classID)
}

// ClassNames returns every known class
func (detector *LabelsDetector) ClassNames() grab.ClassNames {
	return detector.names
}

// Len returns number of frames in labels
func (detector *LabelsDetector) Len() int {
	return len(detector.frames)
}

// Next implements Detector
func (detector *LabelsDetector) Next(ctx context.Context) ([]mot.Detection, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if detector.cursor >= len(detector.frames) {
		return nil, io.EOF
	}
	frame := detector.frames[detector.cursor]
	detector.cursor++
	detections := make([]mot.Detection, len(frame.Objects))
	for i, object := range frame.Objects {
		bbox := mot.NewRect(object.Box.X, object.Box.Y, object.Box.Width, object.Box.Height)
		detections[i] = mot.NewDetection(bbox, object.Class, object.Confidence)
	}
	return detections, nil
}
