package mot

import (
	"sort"

	"github.com/google/uuid"
)

// trackRegistry is storage shared by trackers: tracks by internal ID plus counters for identities
type trackRegistry struct {
	// Main storage
	Objects map[uuid.UUID]*Track
	// Time step for Kalman filters of new tracks
	dt          float64
	nextSerial  int
	nextTrackID int
}

func newTrackRegistry(dt float64) trackRegistry {
	if dt <= 0 {
		dt = 1.0
	}
	return trackRegistry{
		Objects:     make(map[uuid.UUID]*Track),
		dt:          dt,
		nextTrackID: 1,
	}
}

// register creates and stores new track for the detection
func (registry *trackRegistry) register(detection Detection) *Track {
	track := NewTrackWithTime(detection, registry.dt)
	track.serial = registry.nextSerial
	registry.nextSerial++
	registry.Objects[track.GetID()] = track
	return track
}

// confirm gives track the next external identity. No-op for already confirmed tracks
func (registry *trackRegistry) confirm(track *Track) {
	if track.IsConfirmed() {
		return
	}
	track.confirm(registry.nextTrackID)
	registry.nextTrackID++
}

// orderedTracks returns tracks in order of their creation
func (registry *trackRegistry) orderedTracks() []*Track {
	tracks := make([]*Track, 0, len(registry.Objects))
	for _, track := range registry.Objects {
		tracks = append(tracks, track)
	}
	sort.Slice(tracks, func(i, j int) bool {
		return tracks[i].serial < tracks[j].serial
	})
	return tracks
}

// ConfirmedTracks returns tracks with external identity in order of their creation
func (registry *trackRegistry) ConfirmedTracks() []*Track {
	tracks := registry.orderedTracks()
	confirmed := tracks[:0]
	for _, track := range tracks {
		if track.IsConfirmed() {
			confirmed = append(confirmed, track)
		}
	}
	return confirmed
}

// Reset drops all tracks and restarts identity numbering
func (registry *trackRegistry) Reset() {
	registry.Objects = make(map[uuid.UUID]*Track)
	registry.nextSerial = 0
	registry.nextTrackID = 1
}

// trackedOutput builds tracker's output for the frame: one element per detection in input order
func trackedOutput(detections []Detection, assigned map[int]*Track) []TrackedDetection {
	output := make([]TrackedDetection, len(detections))
	for i, detection := range detections {
		var trackID *int
		if track, ok := assigned[i]; ok && track.IsConfirmed() {
			id := track.GetTrackID()
			trackID = &id
		}
		output[i] = NewTrackedDetection(detection, trackID)
	}
	return output
}
