package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"connectrpc.com/connect"
	"github.com/google/uuid"
	"github.com/robwizzie/FantasyFlicks/go/internal/draft/engine"
	"github.com/robwizzie/FantasyFlicks/go/internal/draft/standings"
	"github.com/robwizzie/FantasyFlicks/go/internal/draft/store"
	"github.com/robwizzie/FantasyFlicks/go/internal/models"
	"github.com/rs/zerolog/log"
)

const DraftServiceName = "draft.v1.DraftService"

const (
	CreateDraftProcedure      = "/" + DraftServiceName + "/CreateDraft"
	ScheduleDraftProcedure    = "/" + DraftServiceName + "/ScheduleDraft"
	StartDraftProcedure       = "/" + DraftServiceName + "/StartDraft"
	MakePickProcedure         = "/" + DraftServiceName + "/MakePick"
	PauseDraftProcedure       = "/" + DraftServiceName + "/PauseDraft"
	ResumeDraftProcedure      = "/" + DraftServiceName + "/ResumeDraft"
	GetDraftProcedure         = "/" + DraftServiceName + "/GetDraft"
	ListPicksProcedure        = "/" + DraftServiceName + "/ListPicks"
	GetStandingsProcedure     = "/" + DraftServiceName + "/GetStandings"
	GetRemainingTimeProcedure = "/" + DraftServiceName + "/GetRemainingTime"
)

// DraftEngine defines what the service layer needs from the draft engine
type DraftEngine interface {
	Create(ctx context.Context, req engine.CreateDraftRequest) (*models.Draft, error)
	Schedule(ctx context.Context, id uuid.UUID, at time.Time) (*models.Draft, error)
	Start(ctx context.Context, id uuid.UUID, participantOrder []string) (*models.Draft, error)
	Apply(ctx context.Context, req engine.PickRequest) (*engine.PickResult, error)
	Pause(ctx context.Context, id uuid.UUID, reason string) (*models.Draft, error)
	Resume(ctx context.Context, id uuid.UUID) (*models.Draft, error)
	CurrentState(ctx context.Context, id uuid.UUID) (*models.Draft, error)
	ListPicks(ctx context.Context, id uuid.UUID) ([]models.DraftPick, error)
	RemainingTime(ctx context.Context, id uuid.UUID) (time.Duration, bool, error)
	Standings(ctx context.Context, id uuid.UUID, score standings.Scorer) ([]standings.Entry, error)
}

// ScorerSource chooses how a draft's picks are scored.
type ScorerSource interface {
	ScorerFor(ctx context.Context, d *models.Draft) (standings.Scorer, error)
}

// Service implements the DraftService procedures
type Service struct {
	engine DraftEngine
	rules  ScorerSource
}

// NewService creates a new draft service
func NewService(e DraftEngine, rules ScorerSource) *Service {
	if rules == nil {
		rules = standings.Rules{}
	}
	return &Service{engine: e, rules: rules}
}

// NewHandler mounts every procedure under the service path.
func NewHandler(svc *Service, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = append([]connect.HandlerOption{WithJSON()}, opts...)
	mux := http.NewServeMux()
	mux.Handle(CreateDraftProcedure, connect.NewUnaryHandler(CreateDraftProcedure, svc.CreateDraft, opts...))
	mux.Handle(ScheduleDraftProcedure, connect.NewUnaryHandler(ScheduleDraftProcedure, svc.ScheduleDraft, opts...))
	mux.Handle(StartDraftProcedure, connect.NewUnaryHandler(StartDraftProcedure, svc.StartDraft, opts...))
	mux.Handle(MakePickProcedure, connect.NewUnaryHandler(MakePickProcedure, svc.MakePick, opts...))
	mux.Handle(PauseDraftProcedure, connect.NewUnaryHandler(PauseDraftProcedure, svc.PauseDraft, opts...))
	mux.Handle(ResumeDraftProcedure, connect.NewUnaryHandler(ResumeDraftProcedure, svc.ResumeDraft, opts...))
	mux.Handle(GetDraftProcedure, connect.NewUnaryHandler(GetDraftProcedure, svc.GetDraft, opts...))
	mux.Handle(ListPicksProcedure, connect.NewUnaryHandler(ListPicksProcedure, svc.ListPicks, opts...))
	mux.Handle(GetStandingsProcedure, connect.NewUnaryHandler(GetStandingsProcedure, svc.GetStandings, opts...))
	mux.Handle(GetRemainingTimeProcedure, connect.NewUnaryHandler(GetRemainingTimeProcedure, svc.GetRemainingTime, opts...))
	return "/" + DraftServiceName + "/", mux
}

// CreateDraft creates a new draft in PENDING, or SCHEDULED when a time is given
func (s *Service) CreateDraft(ctx context.Context, req *connect.Request[CreateDraftRequest]) (*connect.Response[DraftResponse], error) {
	m := req.Msg
	d, err := s.engine.Create(ctx, engine.CreateDraftRequest{
		Mode: m.Mode,
		Settings: models.DraftSettings{
			TurnStyle:           m.TurnStyle,
			UnitsPerParticipant: m.UnitsPerParticipant,
			PickTimerSeconds:    m.PickTimerSeconds,
			Categories:          m.Categories,
		},
		ParticipantOrder: m.ParticipantOrder,
		ScheduledAt:      m.ScheduledAt,
	})
	if err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&DraftResponse{Draft: d}), nil
}

// ScheduleDraft sets the announced start time of a pending draft
func (s *Service) ScheduleDraft(ctx context.Context, req *connect.Request[ScheduleDraftRequest]) (*connect.Response[DraftResponse], error) {
	id, err := parseDraftID(req.Msg.DraftID)
	if err != nil {
		return nil, err
	}
	d, err := s.engine.Schedule(ctx, id, req.Msg.ScheduledAt)
	if err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&DraftResponse{Draft: d}), nil
}

// StartDraft fixes the participant order and puts the first picker on the clock
func (s *Service) StartDraft(ctx context.Context, req *connect.Request[StartDraftRequest]) (*connect.Response[DraftResponse], error) {
	id, err := parseDraftID(req.Msg.DraftID)
	if err != nil {
		return nil, err
	}
	d, err := s.engine.Start(ctx, id, req.Msg.ParticipantOrder)
	if err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&DraftResponse{Draft: d}), nil
}

// MakePick submits a manual pick for the requester
func (s *Service) MakePick(ctx context.Context, req *connect.Request[MakePickRequest]) (*connect.Response[MakePickResponse], error) {
	id, err := parseDraftID(req.Msg.DraftID)
	if err != nil {
		return nil, err
	}
	res, err := s.engine.Apply(ctx, engine.PickRequest{
		DraftID:             id,
		RequesterID:         req.Msg.RequesterID,
		SelectionID:         req.Msg.SelectionID,
		Category:            req.Msg.Category,
		ExpectedOverallPick: req.Msg.ExpectedOverallPick,
	})
	if err != nil {
		log.Debug().
			Err(err).
			Str("draft_id", id.String()).
			Str("requester_id", req.Msg.RequesterID).
			Msg("pick rejected")
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&MakePickResponse{Pick: res.Pick, Draft: res.Draft}), nil
}

// PauseDraft stops the clock
func (s *Service) PauseDraft(ctx context.Context, req *connect.Request[PauseDraftRequest]) (*connect.Response[DraftResponse], error) {
	id, err := parseDraftID(req.Msg.DraftID)
	if err != nil {
		return nil, err
	}
	d, err := s.engine.Pause(ctx, id, req.Msg.Reason)
	if err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&DraftResponse{Draft: d}), nil
}

// ResumeDraft restarts the clock with a full pick window
func (s *Service) ResumeDraft(ctx context.Context, req *connect.Request[DraftRequest]) (*connect.Response[DraftResponse], error) {
	id, err := parseDraftID(req.Msg.DraftID)
	if err != nil {
		return nil, err
	}
	d, err := s.engine.Resume(ctx, id)
	if err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&DraftResponse{Draft: d}), nil
}

// GetDraft retrieves the current snapshot of a draft
func (s *Service) GetDraft(ctx context.Context, req *connect.Request[DraftRequest]) (*connect.Response[DraftResponse], error) {
	id, err := parseDraftID(req.Msg.DraftID)
	if err != nil {
		return nil, err
	}
	d, err := s.engine.CurrentState(ctx, id)
	if err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&DraftResponse{Draft: d}), nil
}

// ListPicks returns the pick log in pick order
func (s *Service) ListPicks(ctx context.Context, req *connect.Request[DraftRequest]) (*connect.Response[ListPicksResponse], error) {
	id, err := parseDraftID(req.Msg.DraftID)
	if err != nil {
		return nil, err
	}
	picks, err := s.engine.ListPicks(ctx, id)
	if err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&ListPicksResponse{Picks: picks}), nil
}

func (s *Service) GetStandings(ctx context.Context, req *connect.Request[DraftRequest]) (*connect.Response[GetStandingsResponse], error) {
	id, err := parseDraftID(req.Msg.DraftID)
	if err != nil {
		return nil, err
	}
	d, err := s.engine.CurrentState(ctx, id)
	if err != nil {
		return nil, toConnectError(err)
	}
	score, err := s.rules.ScorerFor(ctx, d)
	if err != nil {
		return nil, connect.NewError(connect.CodeUnavailable, err)
	}
	entries, err := s.engine.Standings(ctx, id, score)
	if err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&GetStandingsResponse{Standings: entries}), nil
}

func (s *Service) GetRemainingTime(ctx context.Context, req *connect.Request[DraftRequest]) (*connect.Response[GetRemainingTimeResponse], error) {
	id, err := parseDraftID(req.Msg.DraftID)
	if err != nil {
		return nil, err
	}
	remaining, timed, err := s.engine.RemainingTime(ctx, id)
	if err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&GetRemainingTimeResponse{
		Timed:            timed,
		RemainingSeconds: remaining.Seconds(),
	}), nil
}

func parseDraftID(raw string) (uuid.UUID, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, connect.NewError(connect.CodeInvalidArgument, fmt.Errorf("invalid draft id %q: %w", raw, err))
	}
	return id, nil
}

// toConnectError maps engine and store sentinels to RPC codes.
func toConnectError(err error) error {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return connect.NewError(connect.CodeNotFound, err)
	case errors.Is(err, engine.ErrDraftNotActive), errors.Is(err, engine.ErrAlreadyStarted):
		return connect.NewError(connect.CodeFailedPrecondition, err)
	case errors.Is(err, engine.ErrNotYourTurn):
		return connect.NewError(connect.CodePermissionDenied, err)
	case errors.Is(err, engine.ErrStaleTurn):
		return connect.NewError(connect.CodeAborted, err)
	case errors.Is(err, engine.ErrDuplicateSelection), errors.Is(err, engine.ErrCategoryAlreadyPicked):
		return connect.NewError(connect.CodeAlreadyExists, err)
	case errors.Is(err, engine.ErrInvalidConfiguration), errors.Is(err, engine.ErrInvalidSelection):
		return connect.NewError(connect.CodeInvalidArgument, err)
	case errors.Is(err, context.Canceled):
		return connect.NewError(connect.CodeCanceled, err)
	case errors.Is(err, context.DeadlineExceeded):
		return connect.NewError(connect.CodeDeadlineExceeded, err)
	default:
		return connect.NewError(connect.CodeInternal, err)
	}
}
