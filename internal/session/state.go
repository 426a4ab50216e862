package session

// State is the edit session state.
type State int

const (
	Idle State = iota
	Ready
	Submitting
	Succeeded
	Failed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Ready:
		return "ready"
	case Submitting:
		return "submitting"
	case Succeeded:
		return "succeeded"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// Terminal reports whether s is Succeeded or Failed.
func (s State) Terminal() bool {
	return s == Succeeded || s == Failed
}

// Status lines set by the session side.
const (
	MsgWelcome          = "Drop in a photo and describe what you want to create."
	MsgNeedImage        = "Please add an image to edit."
	MsgNeedPrompt       = "A short prompt helps us understand your vision."
	MsgWorking          = "Smoothing pixels and dreaming up your edit..."
	MsgSucceeded        = "Here is your refreshed image ✨"
	MsgGenericFailure   = "Something went wrong. Please try again."
	MsgTransportFailure = "Unable to edit that image right now."
)
