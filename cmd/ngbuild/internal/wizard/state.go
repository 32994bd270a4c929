package wizard

import "fmt"

// State identifies one screen of the wizard.
type State int

const (
	StateIntro State = iota
	StateBuildScope
	StateKernelConfigPolicy
	StateTargetBoard
	StateKernelBranch
	StateDistribution
	StateImageType
	StateSummary
	StateDone
)

var stateNames = [...]string{
	StateIntro:              "Intro",
	StateBuildScope:         "BuildScope",
	StateKernelConfigPolicy: "KernelConfigPolicy",
	StateTargetBoard:        "TargetBoard",
	StateKernelBranch:       "KernelBranch",
	StateDistribution:       "Distribution",
	StateImageType:          "ImageType",
	StateSummary:            "Summary",
	StateDone:               "Done",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return fmt.Sprintf("State(%d)", int(s))
	}
	return stateNames[s]
}

// IsDataEntry reports whether the state writes an option.
func (s State) IsDataEntry() bool {
	return s > StateIntro && s < StateSummary
}

// Next returns the following state in the chain. Done is terminal.
func (s State) Next() State {
	if s >= StateDone {
		return StateDone
	}
	return s + 1
}

// Prev returns the preceding state in the chain. Intro has no predecessor.
func (s State) Prev() State {
	if s <= StateIntro {
		return StateIntro
	}
	return s - 1
}

// DataStates returns the data-entry states in screen order.
func DataStates() []State {
	var states []State
	for s := StateBuildScope; s.IsDataEntry(); s++ {
		states = append(states, s)
	}
	return states
}
