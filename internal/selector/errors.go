package selector

// SelectionAbortedError means the player session ended without a
// confirmed selection. Nothing was written to the options.
type SelectionAbortedError struct {
	Reason string
}

func (e *SelectionAbortedError) Error() string {
	if e.Reason == "" {
		return "selection aborted"
	}
	return "selection aborted: " + e.Reason
}
