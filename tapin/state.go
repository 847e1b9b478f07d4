package tapin

import "fmt"

// State is a session state.
type State uint32

const (
	// InvalidState is the state of a session that has not been started.
	InvalidState State = iota
	GettingConsoleStatus
	WaitingForLensAttachment
	PoweringOnLens
	GettingLensStatus
	GettingLensSetting
	PoweringOffLens
	LoopingLensStatus
)

// States lists every valid state in lifecycle order.
var States = []State{
	GettingConsoleStatus,
	WaitingForLensAttachment,
	PoweringOnLens,
	GettingLensStatus,
	GettingLensSetting,
	PoweringOffLens,
	LoopingLensStatus,
}

func (s State) String() string {
	switch s {
	case InvalidState:
		return "Invalid"
	case GettingConsoleStatus:
		return "GettingConsoleStatus"
	case WaitingForLensAttachment:
		return "WaitingForLensAttachment"
	case PoweringOnLens:
		return "PoweringOnLens"
	case GettingLensStatus:
		return "GettingLensStatus"
	case GettingLensSetting:
		return "GettingLensSetting"
	case PoweringOffLens:
		return "PoweringOffLens"
	case LoopingLensStatus:
		return "LoopingLensStatus"
	default:
		return fmt.Sprintf("State(%d)", uint32(s))
	}
}

// IsValid reports whether s is a state a session can be in after Start.
func (s State) IsValid() bool {
	_, ok := commandTable[s]
	return ok
}
