package entity

// TrackState classifies a detection's temporal track within a session.
type TrackState uint8

const (
	TrackOneOff TrackState = iota
	TrackPersistent
	TrackGrowing
)

var trackStateNames = map[TrackState]string{
	TrackOneOff:     "one_off",
	TrackPersistent: "persistent",
	TrackGrowing:    "growing",
}

func (t TrackState) String() string {
	return trackStateNames[t]
}
