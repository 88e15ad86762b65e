package report

import (
	"encoding/json"
	"io"

	"github.com/LdDl/grabbed-go/grab"
	"github.com/pkg/errors"
)

// JSONWriter writes every frame result as a single JSON line
type JSONWriter struct {
	encoder *json.Encoder
	closer  io.Closer
	// Write frames without grabbed item too
	keepEmpty bool
}

// NewJSONWriter creates JSON lines sink. When keepEmpty is false frames without
// grabbed item are skipped. When w is also io.Closer it is closed on Close()
func NewJSONWriter(w io.Writer, keepEmpty bool) *JSONWriter {
	closer, _ := w.(io.Closer)
	return &JSONWriter{
		encoder:   json.NewEncoder(w),
		closer:    closer,
		keepEmpty: keepEmpty,
	}
}

// Write implements Sink
func (sink *JSONWriter) Write(result grab.FrameResult) error {
	if result.Grabbed == nil && !sink.keepEmpty {
		return nil
	}
	err := sink.encoder.Encode(result)
	if err != nil {
		return errors.Wrapf(err, "Can't encode result of frame %d", result.FrameIndex)
	}
	return nil
}

// Close implements Sink
func (sink *JSONWriter) Close() error {
	if sink.closer != nil {
		return sink.closer.Close()
	}
	return nil
}
