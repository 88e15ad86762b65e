package pipeline

import (
	"github.com/LdDl/grabbed-go/grab"
	"github.com/LdDl/grabbed-go/mot"
)

// BackgroundClass is never kept by Filter
const BackgroundClass = "background"

// DefaultClasses is default allowlist of classes
var DefaultClasses = []string{"hand", "packet", "tampon", "pad"}

// Filter drops detections of classes which are not of interest and too small boxes
type Filter struct {
	allowed map[string]struct{}
	minSize float64
	namer   grab.ClassNamer
}

// NewFilter creates filter keeping detections of given classes (by name) with both sides of
// bounding box not less than minSize. Empty classes list keeps every class except background.
// Zero minSize disables size check.
func NewFilter(namer grab.ClassNamer, classes []string, minSize float64) *Filter {
	allowed := make(map[string]struct{}, len(classes))
	for _, class := range classes {
		if class == BackgroundClass {
			continue
		}
		allowed[class] = struct{}{}
	}
	return &Filter{
		allowed: allowed,
		minSize: minSize,
		namer:   namer,
	}
}

// Keep returns true if detection passes the filter
func (filter *Filter) Keep(detection mot.Detection) bool {
	name := grab.ResolveClassName(filter.namer, detection.ClassID)
	if name == BackgroundClass {
		return false
	}
	if len(filter.allowed) > 0 {
		if _, ok := filter.allowed[name]; !ok {
			return false
		}
	}
	if filter.minSize > 0 && (detection.BBox.Width < filter.minSize || detection.BBox.Height < filter.minSize) {
		return false
	}
	return true
}

// Apply returns detections passing the filter, order is preserved
func (filter *Filter) Apply(detections []mot.Detection) []mot.Detection {
	kept := make([]mot.Detection, 0, len(detections))
	for _, detection := range detections {
		if filter.Keep(detection) {
			kept = append(kept, detection)
		}
	}
	return kept
}
