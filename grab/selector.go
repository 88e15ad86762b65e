package grab

const (
	// DefaultExcludedClass is the class of the manipulating agent which can't be the grabbed item
	DefaultExcludedClass = "hand"
)

// Selector picks grabbed item among identities by trajectory length ranking.
// Identities whose most recent class is the excluded one are not candidates.
type Selector struct {
	namer         ClassNamer
	excludedClass string
}

// NewSelector creates selector. Namer could be nil: then every class gets placeholder name
func NewSelector(namer ClassNamer, excludedClass string) *Selector {
	return &Selector{
		namer:         namer,
		excludedClass: excludedClass,
	}
}

// ExcludedClass returns name of the excluded class
func (sel *Selector) ExcludedClass() string {
	return sel.excludedClass
}

// ClassName resolves class name using selector's namer
func (sel *Selector) ClassName(classID int) string {
	return ResolveClassName(sel.namer, classID)
}

// IsExcluded returns true if class resolves to the excluded class name
func (sel *Selector) IsExcluded(classID int) bool {
	return sel.ClassName(classID) == sel.excludedClass
}

// Select returns identity with the strictly greatest trajectory length among candidates.
// Ties are resolved in favor of identity observed first. Returns false when there are no candidates.
func (sel *Selector) Select(store *HistoryStore, lengths map[int]float64) (GrabbedItemRecord, bool) {
	found := false
	bestID := 0
	bestLength := 0.0
	for _, identity := range store.order {
		last, ok := store.latest(identity)
		if !ok {
			continue
		}
		if sel.IsExcluded(last.ClassID) {
			continue
		}
		length := lengths[identity]
		if !found || length > bestLength {
			found = true
			bestID = identity
			bestLength = length
		}
	}
	if !found {
		return GrabbedItemRecord{}, false
	}
	history := store.view(bestID)
	first := history[0]
	last := history[len(history)-1]
	return GrabbedItemRecord{
		TrackID:          bestID,
		ClassID:          last.ClassID,
		ClassName:        sel.ClassName(last.ClassID),
		TrajectoryLength: bestLength,
		StartFrame:       first.FrameIndex,
		EndFrame:         last.FrameIndex,
		DurationFrames:   last.FrameIndex - first.FrameIndex + 1,
	}, true
}
