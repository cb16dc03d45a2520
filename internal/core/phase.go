package core

// Phase is a state of the poll loop
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseFetching
	PhaseSkip
	PhaseClassifying
	PhaseAttachmentScan
	PhaseFusing
	PhasePersisting
	PhaseSideEffects
	PhaseSleeping
	PhaseStopped
)

var phaseNames = [...]string{
	"IDLE",
	"FETCHING",
	"SKIP",
	"CLASSIFYING",
	"ATTACHMENT_SCAN",
	"FUSING",
	"PERSISTING",
	"SIDE_EFFECTS",
	"SLEEPING",
	"STOPPED",
}

func (p Phase) String() string {
	if p < 0 || int(p) >= len(phaseNames) {
		return "UNKNOWN"
	}
	return phaseNames[p]
}

// PhaseObserver is notified on every phase transition
type PhaseObserver func(Phase)
