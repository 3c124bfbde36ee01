package listener

// OutcomeKind classifies what happened to the previously playing track.
type OutcomeKind int

const (
	OutcomeIrrelevant OutcomeKind = iota // Seek, pause, stop, queue edit, noise
	OutcomePlayed                        // Track ran to completion
	OutcomeSkipped                       // Track was cut short by an advance
)

// String returns the string representation of the outcome kind.
func (k OutcomeKind) String() string {
	switch k {
	case OutcomeIrrelevant:
		return "irrelevant"
	case OutcomePlayed:
		return "played"
	case OutcomeSkipped:
		return "skipped"
	default:
		return "unknown"
	}
}

// Outcome is the classification emitted for one status transition. Track is
// only meaningful for Played and Skipped.
type Outcome struct {
	Kind  OutcomeKind
	Track TrackRef
}

// Irrelevant is the no-op outcome.
var Irrelevant = Outcome{Kind: OutcomeIrrelevant, Track: NoTrack}

func played(t TrackRef) Outcome {
	return Outcome{Kind: OutcomePlayed, Track: t}
}

func skipped(t TrackRef) Outcome {
	return Outcome{Kind: OutcomeSkipped, Track: t}
}
