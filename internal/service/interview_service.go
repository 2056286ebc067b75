package service

import (
	"context"
	"errors"
	"fmt"
	"time"
	"voxllm/internal/apperr"
	"voxllm/internal/cache"
	"voxllm/internal/interview"
	"voxllm/internal/logger"
	"voxllm/internal/model"
	"voxllm/internal/repository"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"
)

// InterviewService owns the case sessions: it applies answers, runs the
// phases between stages and reports the next action after every change.
type InterviewService struct {
	sessions    cache.SessionCache
	archive     repository.CaseRepo
	stats       cache.StatsCache
	analysis    *AnalysisService
	auth        *AuthService
	broadcaster Broadcaster
	log         *logger.Logger

	locks *sessionLocker
	group singleflight.Group
	now   func() time.Time
}

// NewInterviewService creates a new interview service
func NewInterviewService(sessions cache.SessionCache, archive repository.CaseRepo, stats cache.StatsCache, analysis *AnalysisService, auth *AuthService, log *logger.Logger) *InterviewService {
	if log == nil {
		log = logger.Nop()
	}
	return &InterviewService{
		sessions:    sessions,
		archive:     archive,
		stats:       stats,
		analysis:    analysis,
		auth:        auth,
		broadcaster: nopBroadcaster{},
		log:         log,
		locks:       newSessionLocker(),
		now:         time.Now,
	}
}

// SetBroadcaster sets the WebSocket broadcaster
func (s *InterviewService) SetBroadcaster(b Broadcaster) {
	s.broadcaster = b
}

// StartCase opens a new empty case and returns its token.
func (s *InterviewService) StartCase(ctx context.Context) (*model.StartCaseResponse, error) {
	session := model.NewSession(uuid.NewString(), s.now())
	if err := s.sessions.Set(ctx, session); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}
	token, err := s.auth.GenerateSessionToken(session.ID)
	if err != nil {
		return nil, fmt.Errorf("sign token: %w", err)
	}
	s.log.Info("case started", "session_id", session.ID)
	return &model.StartCaseResponse{
		SessionID: session.ID,
		Token:     token,
		Next:      interview.NextAction(session.Record, session.Flags),
	}, nil
}

// GetCase returns the session with its next action and answerable queue.
func (s *InterviewService) GetCase(ctx context.Context, id string) (*model.CaseView, error) {
	session, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	return &model.CaseView{
		Session: session,
		Next:    interview.NextAction(session.Record, session.Flags),
		Queue:   interview.BuildQueue(session.Record, session.Flags),
	}, nil
}

// NextAction reports what the client should do next for the case.
func (s *InterviewService) NextAction(ctx context.Context, id string) (model.Action, error) {
	session, err := s.load(ctx, id)
	if err != nil {
		return model.Action{}, err
	}
	return interview.NextAction(session.Record, session.Flags), nil
}

// SubmitAnswer records one answer. A "no" to the exclusion letter gate is
// stored and answered with the terminal done action rather than an error.
func (s *InterviewService) SubmitAnswer(ctx context.Context, id string, field model.Field, value interface{}) (model.Action, error) {
	unlock := s.locks.Lock(id)
	defer unlock()

	session, err := s.load(ctx, id)
	if err != nil {
		return model.Action{}, err
	}

	record, flags, err := interview.ApplyAnswer(session.Record, session.Flags, field, value)
	if err != nil {
		var ae *apperr.Error
		if !errors.As(err, &ae) || ae.Code != interview.CodeNoExclusionLetter {
			return model.Action{}, err
		}
		s.log.Info("case terminated at exclusion letter gate", "session_id", id)
	}

	session.Record = record
	session.Flags = flags
	session.UpdatedAt = s.now()
	if err := s.sessions.Set(ctx, session); err != nil {
		return model.Action{}, fmt.Errorf("save session: %w", err)
	}

	next := interview.NextAction(session.Record, session.Flags)
	s.broadcaster.BroadcastToSession(id, EventNextAction, next)
	return next, nil
}

// RunPhase runs the named phase if it is the one due. Concurrent calls for
// the same session and phase share one execution. A phase that already
// completed is not run again.
//
// Once started, the phase keeps running even if the caller that started it
// goes away; a cancelled caller only stops waiting for the result.
func (s *InterviewService) RunPhase(ctx context.Context, id string, phase model.Phase) (model.Action, error) {
	runCtx := context.WithoutCancel(ctx)
	ch := s.group.DoChan(id+":"+string(phase), func() (interface{}, error) {
		return s.runPhase(runCtx, id, phase)
	})

	select {
	case <-ctx.Done():
		s.log.Debug("caller stopped waiting for phase", "session_id", id, "phase", phase)
		return model.Action{}, ctx.Err()
	case res := <-ch:
		if res.Shared {
			s.log.Debug("phase call shared", "session_id", id, "phase", phase)
		}
		if res.Err != nil {
			return model.Action{}, res.Err
		}
		return res.Val.(model.Action), nil
	}
}

func (s *InterviewService) runPhase(ctx context.Context, id string, phase model.Phase) (model.Action, error) {
	unlock := s.locks.Lock(id)
	defer unlock()

	session, err := s.load(ctx, id)
	if err != nil {
		return model.Action{}, err
	}
	if phaseDone(session.Flags, phase) {
		return interview.NextAction(session.Record, session.Flags), nil
	}
	next := interview.NextAction(session.Record, session.Flags)
	if next.Kind != model.ActionRunPhase || next.Phase != phase {
		return model.Action{}, apperr.Conflict("phase_not_due", fmt.Sprintf("phase %s cannot run at this point", phase))
	}

	log := s.log.With("session_id", id, "phase", phase)
	log.Info("phase started")
	s.count(ctx, phase, cache.OutcomeStarted)
	s.broadcaster.BroadcastToSession(id, EventPhaseStarted, phaseEvent{Phase: phase})

	started := s.now()
	runErr := s.execute(ctx, session, phase)

	// Sub-step outputs are kept even when the phase fails.
	session.UpdatedAt = s.now()
	if runErr != nil {
		session.LastError = runErr.Error()
		if err := s.sessions.Set(ctx, session); err != nil {
			log.Error("failed to save session after phase failure", "error", err)
		}
		log.Warn("phase failed", "error", runErr)
		s.count(ctx, phase, cache.OutcomeFailed)
		s.broadcaster.BroadcastToSession(id, EventPhaseFailed, phaseEvent{
			Phase:     phase,
			Error:     runErr.Error(),
			Retryable: apperr.Is(runErr, apperr.KindExternalCall),
		})
		return model.Action{}, runErr
	}

	markDone(&session.Flags, phase)
	session.LastError = ""
	if err := s.sessions.Set(ctx, session); err != nil {
		return model.Action{}, fmt.Errorf("save session: %w", err)
	}
	log.Info("phase completed", "duration", s.now().Sub(started))
	s.count(ctx, phase, cache.OutcomeCompleted)

	if phase == model.PhaseDocGen {
		if err := s.archive.SaveSnapshot(ctx, session); err != nil {
			log.Warn("failed to archive case snapshot", "error", err)
		}
	}

	next = interview.NextAction(session.Record, session.Flags)
	s.broadcaster.BroadcastToSession(id, EventPhaseCompleted, phaseEvent{Phase: phase})
	s.broadcaster.BroadcastToSession(id, EventNextAction, next)
	return next, nil
}

func (s *InterviewService) execute(ctx context.Context, session *model.Session, phase model.Phase) error {
	switch phase {
	case model.PhaseAnalysis:
		return s.analysis.RunAnalysis(ctx, session)
	case model.PhaseSummary:
		s.analysis.RunSummary(session)
		return nil
	case model.PhaseDocGen:
		return s.analysis.RunDocGen(ctx, session)
	}
	return apperr.Validation("unknown_phase", fmt.Sprintf("unknown phase %q", phase))
}

// Restart clears every answer and output of the case, keeping its id and
// token.
func (s *InterviewService) Restart(ctx context.Context, id string) (model.Action, error) {
	unlock := s.locks.Lock(id)
	defer unlock()

	session, err := s.load(ctx, id)
	if err != nil {
		return model.Action{}, err
	}
	session.Reset(s.now())
	if err := s.sessions.Set(ctx, session); err != nil {
		return model.Action{}, fmt.Errorf("save session: %w", err)
	}
	s.log.Info("case restarted", "session_id", id)

	next := interview.NextAction(session.Record, session.Flags)
	s.broadcaster.BroadcastToSession(id, EventNextAction, next)
	return next, nil
}

// CloseCase deletes the session and disconnects its websocket watchers. The
// session's token stops working because the case no longer exists.
func (s *InterviewService) CloseCase(ctx context.Context, id string) error {
	unlock := s.locks.Lock(id)
	defer unlock()

	if _, err := s.load(ctx, id); err != nil {
		return err
	}
	if err := s.sessions.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	s.broadcaster.DisconnectSession(id)
	s.log.Info("case closed", "session_id", id)
	return nil
}

func (s *InterviewService) load(ctx context.Context, id string) (*model.Session, error) {
	session, err := s.sessions.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	if session == nil {
		return nil, apperr.NotFound("session_not_found", "case not found or expired")
	}
	return session, nil
}

func (s *InterviewService) count(ctx context.Context, phase model.Phase, outcome string) {
	if err := s.stats.Increment(ctx, string(phase), outcome); err != nil {
		s.log.Debug("stats increment failed", "error", err)
	}
}

type phaseEvent struct {
	Phase     model.Phase `json:"phase"`
	Error     string      `json:"error,omitempty"`
	Retryable bool        `json:"retryable,omitempty"`
}

func phaseDone(f model.SessionFlags, phase model.Phase) bool {
	switch phase {
	case model.PhaseAnalysis:
		return f.AnalysisCompleted
	case model.PhaseSummary:
		return f.BackgroundSummaryComputed
	case model.PhaseDocGen:
		return f.DocumentGenerated
	}
	return false
}

func markDone(f *model.SessionFlags, phase model.Phase) {
	switch phase {
	case model.PhaseAnalysis:
		f.AnalysisCompleted = true
	case model.PhaseSummary:
		f.BackgroundSummaryComputed = true
	case model.PhaseDocGen:
		f.DocumentGenerated = true
	}
}
