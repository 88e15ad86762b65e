package report

import (
	"github.com/LdDl/grabbed-go/grab"
)

// Sink consumes per-frame results
type Sink interface {
	Write(result grab.FrameResult) error
	Close() error
}
