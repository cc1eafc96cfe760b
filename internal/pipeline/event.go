package pipeline

// Event is one update from a transcription run. A run emits exactly one
// event per transcribed chunk followed by exactly one terminal event, then
// the channel closes.
//
// The terminal event is a success when Artifact is set (Preview holds the
// full transcript) or a failure when Err is set (Preview holds whatever was
// transcribed before the failure). The two are mutually exclusive.
type Event struct {
	Status   string // One-line state summary for display.
	Preview  string // Recent transcript lines; full text on terminal events.
	Artifact string // Path of the persisted transcript, success only.
	Err      error  // Failure cause, failure only.
}

// Terminal reports whether this event ends the run.
func (e Event) Terminal() bool {
	return e.Artifact != "" || e.Err != nil
}
