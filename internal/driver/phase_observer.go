package driver

import "time"

// PhaseStatus reports whether a phase started or finished.
type PhaseStatus int

const (
	// PhaseStart indicates that an elaboration phase has begun.
	PhaseStart PhaseStatus = iota
	PhaseEnd
)

func (s PhaseStatus) String() string {
	if s == PhaseEnd {
		return "end"
	}
	return "start"
}

// PhaseEvent describes a phase boundary: load, declare, scopes or params.
type PhaseEvent struct {
	Name    string
	Status  PhaseStatus
	Elapsed time.Duration // zero for PhaseStart
}

// PhaseObserver receives phase events emitted during Elaborate. It is
// called from the elaborating goroutine only.
type PhaseObserver func(PhaseEvent)

func (o PhaseObserver) notify(ev PhaseEvent) {
	if o != nil {
		o(ev)
	}
}
