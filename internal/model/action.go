package model

// Phase is a side-effecting step between interview stages.
type Phase string

const (
	PhaseAnalysis Phase = "analysis"
	PhaseSummary  Phase = "summary"
	PhaseDocGen   Phase = "docgen"
)

// ParsePhase validates a phase name from the wire.
func ParsePhase(s string) (Phase, bool) {
	switch p := Phase(s); p {
	case PhaseAnalysis, PhaseSummary, PhaseDocGen:
		return p, true
	}
	return "", false
}

// ActionKind tells the caller what to do next.
type ActionKind string

const (
	ActionAsk      ActionKind = "ask"
	ActionRunPhase ActionKind = "runPhase"
	ActionDone     ActionKind = "done"
)

// DoneReason distinguishes the two terminal states.
type DoneReason string

const (
	DoneTerminated DoneReason = "terminated" // negative gate, restart required
	DoneReady      DoneReason = "ready"      // all stages answered, PDF can be compiled
)

// Action is the sequencer's answer to "what next?".
type Action struct {
	Kind     ActionKind `json:"kind"`
	Question *Question  `json:"question,omitempty"`
	Phase    Phase      `json:"phase,omitempty"`
	Reason   DoneReason `json:"reason,omitempty"`
	Message  string     `json:"message,omitempty"`
}

func AskAction(q Question) Action {
	return Action{Kind: ActionAsk, Question: &q}
}

func RunPhaseAction(p Phase) Action {
	return Action{Kind: ActionRunPhase, Phase: p}
}

func DoneAction(reason DoneReason, message string) Action {
	return Action{Kind: ActionDone, Reason: reason, Message: message}
}

// CaseView is the client-facing snapshot of a case.
type CaseView struct {
	Session *Session   `json:"session"`
	Next    Action     `json:"next"`
	Queue   []Question `json:"queue"`
}
