package gateway

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/robwizzie/FantasyFlicks/go/internal/draft/service"
	"github.com/robwizzie/FantasyFlicks/go/internal/draft/standings"
	"github.com/robwizzie/FantasyFlicks/go/internal/models"
)

// StateProvider interface defines methods for retrieving draft state
type StateProvider interface {
	GetDraftState(ctx context.Context, draftID uuid.UUID) (*DraftState, error)
	GetStandings(ctx context.Context, draftID uuid.UUID) ([]standings.Entry, error)
}

// DraftReader is the read side of the engine.
type DraftReader interface {
	CurrentState(ctx context.Context, id uuid.UUID) (*models.Draft, error)
	Standings(ctx context.Context, id uuid.UUID, score standings.Scorer) ([]standings.Entry, error)
}

// EngineStateProvider reads state from an in-process engine.
type EngineStateProvider struct {
	drafts DraftReader
	rules  service.ScorerSource
	now    func() time.Time
}

// NewEngineStateProvider creates a provider over drafts. now defaults to time.Now.
func NewEngineStateProvider(drafts DraftReader, rules service.ScorerSource, now func() time.Time) *EngineStateProvider {
	if rules == nil {
		rules = standings.Rules{}
	}
	if now == nil {
		now = time.Now
	}
	return &EngineStateProvider{drafts: drafts, rules: rules, now: now}
}

func (p *EngineStateProvider) GetDraftState(ctx context.Context, draftID uuid.UUID) (*DraftState, error) {
	d, err := p.drafts.CurrentState(ctx, draftID)
	if err != nil {
		return nil, err
	}
	return NewDraftState(d, p.now()), nil
}

func (p *EngineStateProvider) GetStandings(ctx context.Context, draftID uuid.UUID) ([]standings.Entry, error) {
	d, err := p.drafts.CurrentState(ctx, draftID)
	if err != nil {
		return nil, err
	}
	score, err := p.rules.ScorerFor(ctx, d)
	if err != nil {
		return nil, err
	}
	return p.drafts.Standings(ctx, draftID, score)
}

// DraftStateProvider implements StateProvider using the draft service client
type DraftStateProvider struct {
	client *service.Client
	now    func() time.Time
}

// NewDraftStateProvider creates a new draft state provider
func NewDraftStateProvider(client *service.Client) *DraftStateProvider {
	return &DraftStateProvider{client: client, now: time.Now}
}

// GetDraftState retrieves the complete state of a draft
func (p *DraftStateProvider) GetDraftState(ctx context.Context, draftID uuid.UUID) (*DraftState, error) {
	resp, err := p.client.GetDraft(ctx, &service.DraftRequest{DraftID: draftID.String()})
	if err != nil {
		return nil, fmt.Errorf("failed to get draft: %w", err)
	}
	return NewDraftState(resp.Draft, p.now()), nil
}

func (p *DraftStateProvider) GetStandings(ctx context.Context, draftID uuid.UUID) ([]standings.Entry, error) {
	resp, err := p.client.GetStandings(ctx, &service.DraftRequest{DraftID: draftID.String()})
	if err != nil {
		return nil, fmt.Errorf("failed to get standings: %w", err)
	}
	return resp.Standings, nil
}
