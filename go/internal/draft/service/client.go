package service

import (
	"context"
	"errors"
	"strings"

	"connectrpc.com/connect"
	"github.com/robwizzie/FantasyFlicks/go/internal/draft/engine"
	"github.com/robwizzie/FantasyFlicks/go/internal/draft/store"
)

// Client is a typed DraftService client.
type Client struct {
	createDraft      *connect.Client[CreateDraftRequest, DraftResponse]
	scheduleDraft    *connect.Client[ScheduleDraftRequest, DraftResponse]
	startDraft       *connect.Client[StartDraftRequest, DraftResponse]
	makePick         *connect.Client[MakePickRequest, MakePickResponse]
	pauseDraft       *connect.Client[PauseDraftRequest, DraftResponse]
	resumeDraft      *connect.Client[DraftRequest, DraftResponse]
	getDraft         *connect.Client[DraftRequest, DraftResponse]
	listPicks        *connect.Client[DraftRequest, ListPicksResponse]
	getStandings     *connect.Client[DraftRequest, GetStandingsResponse]
	getRemainingTime *connect.Client[DraftRequest, GetRemainingTimeResponse]
}

// NewClient creates a client for the service rooted at baseURL.
func NewClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) *Client {
	baseURL = strings.TrimRight(baseURL, "/")
	opts = append([]connect.ClientOption{WithJSON()}, opts...)
	return &Client{
		createDraft:      connect.NewClient[CreateDraftRequest, DraftResponse](httpClient, baseURL+CreateDraftProcedure, opts...),
		scheduleDraft:    connect.NewClient[ScheduleDraftRequest, DraftResponse](httpClient, baseURL+ScheduleDraftProcedure, opts...),
		startDraft:       connect.NewClient[StartDraftRequest, DraftResponse](httpClient, baseURL+StartDraftProcedure, opts...),
		makePick:         connect.NewClient[MakePickRequest, MakePickResponse](httpClient, baseURL+MakePickProcedure, opts...),
		pauseDraft:       connect.NewClient[PauseDraftRequest, DraftResponse](httpClient, baseURL+PauseDraftProcedure, opts...),
		resumeDraft:      connect.NewClient[DraftRequest, DraftResponse](httpClient, baseURL+ResumeDraftProcedure, opts...),
		getDraft:         connect.NewClient[DraftRequest, DraftResponse](httpClient, baseURL+GetDraftProcedure, opts...),
		listPicks:        connect.NewClient[DraftRequest, ListPicksResponse](httpClient, baseURL+ListPicksProcedure, opts...),
		getStandings:     connect.NewClient[DraftRequest, GetStandingsResponse](httpClient, baseURL+GetStandingsProcedure, opts...),
		getRemainingTime: connect.NewClient[DraftRequest, GetRemainingTimeResponse](httpClient, baseURL+GetRemainingTimeProcedure, opts...),
	}
}

func (c *Client) CreateDraft(ctx context.Context, req *CreateDraftRequest) (*DraftResponse, error) {
	return call(ctx, c.createDraft, req)
}

func (c *Client) ScheduleDraft(ctx context.Context, req *ScheduleDraftRequest) (*DraftResponse, error) {
	return call(ctx, c.scheduleDraft, req)
}

func (c *Client) StartDraft(ctx context.Context, req *StartDraftRequest) (*DraftResponse, error) {
	return call(ctx, c.startDraft, req)
}

func (c *Client) MakePick(ctx context.Context, req *MakePickRequest) (*MakePickResponse, error) {
	return call(ctx, c.makePick, req)
}

func (c *Client) PauseDraft(ctx context.Context, req *PauseDraftRequest) (*DraftResponse, error) {
	return call(ctx, c.pauseDraft, req)
}

func (c *Client) ResumeDraft(ctx context.Context, req *DraftRequest) (*DraftResponse, error) {
	return call(ctx, c.resumeDraft, req)
}

func (c *Client) GetDraft(ctx context.Context, req *DraftRequest) (*DraftResponse, error) {
	return call(ctx, c.getDraft, req)
}

func (c *Client) ListPicks(ctx context.Context, req *DraftRequest) (*ListPicksResponse, error) {
	return call(ctx, c.listPicks, req)
}

func (c *Client) GetStandings(ctx context.Context, req *DraftRequest) (*GetStandingsResponse, error) {
	return call(ctx, c.getStandings, req)
}

func (c *Client) GetRemainingTime(ctx context.Context, req *DraftRequest) (*GetRemainingTimeResponse, error) {
	return call(ctx, c.getRemainingTime, req)
}

func call[Req, Res any](ctx context.Context, c *connect.Client[Req, Res], req *Req) (*Res, error) {
	resp, err := c.CallUnary(ctx, connect.NewRequest(req))
	if err != nil {
		return nil, FromConnectError(err)
	}
	return resp.Msg, nil
}

// FromConnectError restores the sentinel behind an RPC error so callers can
// use errors.Is as they would in process. The connect error stays wrapped.
func FromConnectError(err error) error {
	var ce *connect.Error
	if !errors.As(err, &ce) {
		return err
	}
	msg := ce.Message()
	var sentinel error
	switch ce.Code() {
	case connect.CodeNotFound:
		sentinel = store.ErrNotFound
	case connect.CodeFailedPrecondition:
		sentinel = engine.ErrDraftNotActive
		if strings.Contains(msg, engine.ErrAlreadyStarted.Error()) {
			sentinel = engine.ErrAlreadyStarted
		}
	case connect.CodePermissionDenied:
		sentinel = engine.ErrNotYourTurn
	case connect.CodeAborted:
		sentinel = engine.ErrStaleTurn
	case connect.CodeAlreadyExists:
		sentinel = engine.ErrDuplicateSelection
		if strings.Contains(msg, engine.ErrCategoryAlreadyPicked.Error()) {
			sentinel = engine.ErrCategoryAlreadyPicked
		}
	case connect.CodeInvalidArgument:
		switch {
		case strings.Contains(msg, engine.ErrInvalidSelection.Error()):
			sentinel = engine.ErrInvalidSelection
		case strings.Contains(msg, engine.ErrInvalidConfiguration.Error()):
			sentinel = engine.ErrInvalidConfiguration
		}
	}
	if sentinel == nil {
		return err
	}
	return errors.Join(sentinel, err)
}
