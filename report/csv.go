package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/LdDl/grabbed-go/grab"
	"github.com/pkg/errors"
)

var csvHeader = []string{"frame", "track_id", "class_id", "class_name", "trajectory_length", "start_frame", "end_frame", "duration_frames"}

// CSVWriter writes grabbed item of every frame as a row. Fields are separated by ';'.
// Frames without grabbed item have empty fields except the frame number.
type CSVWriter struct {
	writer        *csv.Writer
	closer        io.Closer
	headerWritten bool
}

// NewCSVWriter creates CSV sink. When w is also io.Closer it is closed on Close()
func NewCSVWriter(w io.Writer) *CSVWriter {
	writer := csv.NewWriter(w)
	writer.Comma = ';'
	closer, _ := w.(io.Closer)
	return &CSVWriter{
		writer: writer,
		closer: closer,
	}
}

// Write implements Sink
func (sink *CSVWriter) Write(result grab.FrameResult) error {
	if !sink.headerWritten {
		err := sink.writer.Write(csvHeader)
		if err != nil {
			return errors.Wrap(err, "Can't write CSV header")
		}
		sink.headerWritten = true
	}
	row := make([]string, len(csvHeader))
	row[0] = strconv.Itoa(result.FrameIndex)
	if grabbed := result.Grabbed; grabbed != nil {
		row[1] = strconv.Itoa(grabbed.TrackID)
		row[2] = strconv.Itoa(grabbed.ClassID)
		row[3] = grabbed.ClassName
		row[4] = strconv.FormatFloat(grabbed.TrajectoryLength, 'f', 3, 64)
		row[5] = strconv.Itoa(grabbed.StartFrame)
		row[6] = strconv.Itoa(grabbed.EndFrame)
		row[7] = strconv.Itoa(grabbed.DurationFrames)
	}
	err := sink.writer.Write(row)
	if err != nil {
		return errors.Wrapf(err, "Can't write CSV row for frame %d", result.FrameIndex)
	}
	return nil
}

// Close flushes buffered rows and closes underlying writer if possible
func (sink *CSVWriter) Close() error {
	sink.writer.Flush()
	if err := sink.writer.Error(); err != nil {
		return errors.Wrap(err, "Can't flush CSV")
	}
	if sink.closer != nil {
		return sink.closer.Close()
	}
	return nil
}

// WriteTrajectoriesCSV writes retained trajectory of every identity.
// Format: id;class_name;length;x,y|x,y|...
func WriteTrajectoriesCSV(w io.Writer, tracker *grab.Tracker) error {
	writer := csv.NewWriter(w)
	writer.Comma = ';'

	err := writer.Write([]string{"id", "class_name", "length", "track"})
	if err != nil {
		return err
	}
	for _, identity := range tracker.Identities() {
		history := tracker.HistoryOf(identity)
		if len(history) == 0 {
			continue
		}
		data := make([]string, len(history))
		for idx, sample := range history {
			data[idx] = fmt.Sprintf("%f,%f", sample.Position.X, sample.Position.Y)
		}
		className := tracker.ClassName(history[len(history)-1].ClassID)
		length := strconv.FormatFloat(tracker.TrajectoryLengthOf(identity), 'f', 3, 64)
		err = writer.Write([]string{strconv.Itoa(identity), className, length, strings.Join(data, "|")})
		if err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}
