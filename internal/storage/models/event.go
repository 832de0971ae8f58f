package models

// Default labels offered when scheduling a band event.
const (
	EventTypeRehearsal = "Próba"
	EventTypeOther     = "Egyéb esemény"
)

// Event is a scheduled band event on a single date.
type Event struct {
	ID   string  `json:"id"`
	Date DateKey `json:"date"`
	Type string  `json:"type"`
}

// Snapshot is the complete persisted state: availability per date and
// every event in insertion order.
type Snapshot struct {
	Availability map[DateKey]AvailabilityRecord `json:"availability"`
	Events       []Event                        `json:"events"`
}

// NewSnapshot returns an empty snapshot with non-nil collections.
func NewSnapshot() Snapshot {
	return Snapshot{
		Availability: make(map[DateKey]AvailabilityRecord),
		Events:       []Event{},
	}
}

// Clone returns a deep copy of the snapshot.
func (s Snapshot) Clone() Snapshot {
	out := Snapshot{
		Availability: make(map[DateKey]AvailabilityRecord, len(s.Availability)),
		Events:       make([]Event, len(s.Events)),
	}
	for d, rec := range s.Availability {
		out.Availability[d] = rec.Clone()
	}
	copy(out.Events, s.Events)
	return out
}

// Equal reports whether two snapshots hold the same records and the same
// event sequence.
func (s Snapshot) Equal(other Snapshot) bool {
	if len(s.Availability) != len(other.Availability) || len(s.Events) != len(other.Events) {
		return false
	}
	for d, rec := range s.Availability {
		otherRec, ok := other.Availability[d]
		if !ok || len(rec) != len(otherRec) {
			return false
		}
		for m, v := range rec {
			ov, ok := otherRec[m]
			if !ok || ov != v {
				return false
			}
		}
	}
	for i := range s.Events {
		if s.Events[i] != other.Events[i] {
			return false
		}
	}
	return true
}
