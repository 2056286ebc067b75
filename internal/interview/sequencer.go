// Package interview decides what to ask next for an exclusion case and
// validates answers. Everything here is a pure function of the case record
// and the session flags.
package interview

import "voxllm/internal/model"

// TerminatedMessage is shown when the exclusion letter gate is answered "no".
const TerminatedMessage = "I'm sorry, but you must receive an exclusion letter first before we can proceed. " +
	"The letter must outline the reasons for the exclusion and whether it is permanent or fixed-term. " +
	"Please contact the school to request this letter and then return to continue."

// ReadyMessage accompanies the final done action.
const ReadyMessage = "All details are complete. The position statement can now be compiled to PDF."

// IsTerminated reports whether the case has hit the negative gate. Once true
// it stays true until the session is restarted.
func IsTerminated(r model.CaseRecord, f model.SessionFlags) bool {
	return f.Terminated || r.IsFalse(model.FieldExistsExclusionLetter)
}

// NextAction returns the single next step for the case. Each stage must be
// complete before the phase that follows it becomes due.
func NextAction(r model.CaseRecord, f model.SessionFlags) model.Action {
	if IsTerminated(r, f) {
		return model.DoneAction(model.DoneTerminated, TerminatedMessage)
	}
	if a, ok := ask(r, model.StageExclusion, Stage1Complete); ok {
		return a
	}
	if !f.AnalysisCompleted {
		return model.RunPhaseAction(model.PhaseAnalysis)
	}
	if a, ok := ask(r, model.StageYoungPerson, Stage2Complete); ok {
		return a
	}
	if !f.BackgroundSummaryComputed {
		return model.RunPhaseAction(model.PhaseSummary)
	}
	if a, ok := ask(r, model.StageProcedure, Stage3Complete); ok {
		return a
	}
	if !f.DocumentGenerated {
		return model.RunPhaseAction(model.PhaseDocGen)
	}
	if a, ok := ask(r, model.StageDocumentDetails, Stage4Complete); ok {
		return a
	}
	return model.DoneAction(model.DoneReady, ReadyMessage)
}

// ask returns the first pending question of an incomplete stage.
func ask(r model.CaseRecord, stage model.Stage, complete func(model.CaseRecord) bool) (model.Action, bool) {
	if complete(r) {
		return model.Action{}, false
	}
	if q := pending(r, stage); len(q) > 0 {
		return model.AskAction(q[0]), true
	}
	return model.Action{}, false
}

// BuildQueue rebuilds the list of questions that can be answered right now:
// the unanswered, eligible questions of the active stage in ask order. It is
// empty while a phase is due or the case is done.
func BuildQueue(r model.CaseRecord, f model.SessionFlags) []model.Question {
	stage := ActiveStage(r, f)
	if stage == 0 {
		return nil
	}
	return pending(r, stage)
}

// ActiveStage returns the stage whose questions are being asked, or 0 when
// no question is due.
func ActiveStage(r model.CaseRecord, f model.SessionFlags) model.Stage {
	a := NextAction(r, f)
	if a.Kind != model.ActionAsk {
		return 0
	}
	return a.Question.Stage
}

func pending(r model.CaseRecord, stage model.Stage) []model.Question {
	var out []model.Question
	for _, e := range catalog {
		if e.question.Stage != stage || r.IsSet(e.question.Field) {
			continue
		}
		if e.guard(r) {
			out = append(out, e.question)
		}
	}
	return out
}

// Stage1Complete requires the gate to be "yes" and every exclusion field set.
func Stage1Complete(r model.CaseRecord) bool {
	return r.IsTrue(model.FieldExistsExclusionLetter) && len(pending(r, model.StageExclusion)) == 0
}

// Stage2Complete honours the SEND sub-tree: follow-ups only count when isSend
// (and for the steps question, school awareness) was answered "yes".
func Stage2Complete(r model.CaseRecord) bool {
	return r.IsSet(model.FieldIsSend) && len(pending(r, model.StageYoungPerson)) == 0
}

func Stage3Complete(r model.CaseRecord) bool {
	return r.IsSet(model.FieldStage) && len(pending(r, model.StageProcedure)) == 0
}

func Stage4Complete(r model.CaseRecord) bool {
	return len(pending(r, model.StageDocumentDetails)) == 0
}
