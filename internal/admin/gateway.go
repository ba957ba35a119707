// Package admin is the single authorization choke-point for privileged
// manifest mutations. Every action verifies the operator credential
// before any store call; an auth failure produces zero side effects.
package admin

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/devansh-kaila-006/neuron-ai-club-sub000/internal/apperr"
	"github.com/devansh-kaila-006/neuron-ai-club-sub000/internal/credential"
	"github.com/devansh-kaila-006/neuron-ai-club-sub000/internal/models"
)

// Manifest is the slice of the store the gateway dispatches to.
type Manifest interface {
	List(ctx context.Context) ([]models.Team, error)
	Save(ctx context.Context, t models.Team) (models.Team, error)
	FindByCode(ctx context.Context, code string) (*models.Team, error)
	UpdateCheckIn(ctx context.Context, id string, flag bool) error
	Delete(ctx context.Context, id string) error
	PurgeAll(ctx context.Context) error
	Stats(ctx context.Context) (models.Stats, error)
}

const (
	ActionUpdateCheckIn = "UPDATE_CHECKIN"
	ActionSaveTeam      = "SAVE_TEAM"
	ActionDeleteTeam    = "DELETE_TEAM"
	ActionPurgeAll      = "PURGE_ALL"
	ActionFindByCode    = "FIND_BY_CODE"
	ActionStats         = "STATS"
	ActionListTeams     = "LIST_TEAMS"
)

type Gateway struct {
	creds *credential.Service
	store Manifest
}

func New(creds *credential.Service, store Manifest) *Gateway {
	return &Gateway{creds: creds, store: store}
}

type checkInPayload struct {
	ID     string `json:"id"`
	Status bool   `json:"status"`
}

type idPayload struct {
	ID string `json:"id"`
}

// Execute verifies the token, then dispatches. Unknown actions are
// ErrBadRequest, distinct from the ErrUnauthorized of a bad token.
func (g *Gateway) Execute(ctx context.Context, token, action string, payload json.RawMessage) (any, error) {
	if _, err := g.creds.Verify(token); err != nil {
		return nil, apperr.ErrUnauthorized
	}

	switch action {
	case ActionUpdateCheckIn:
		var p checkInPayload
		if err := decode(payload, &p); err != nil {
			return nil, err
		}
		if p.ID == "" {
			return nil, &apperr.ValidationError{Fields: []string{"id: empty"}}
		}
		if err := g.store.UpdateCheckIn(ctx, p.ID, p.Status); err != nil {
			return nil, err
		}
		return p, nil

	case ActionSaveTeam:
		var t models.Team
		if err := decode(payload, &t); err != nil {
			return nil, err
		}
		return g.store.Save(ctx, t)

	case ActionDeleteTeam:
		var p idPayload
		if err := decode(payload, &p); err != nil {
			return nil, err
		}
		if p.ID == "" {
			return nil, &apperr.ValidationError{Fields: []string{"id: empty"}}
		}
		return nil, g.store.Delete(ctx, p.ID)

	case ActionPurgeAll:
		return nil, g.store.PurgeAll(ctx)

	case ActionFindByCode:
		var p struct {
			Code string `json:"code"`
		}
		if err := decode(payload, &p); err != nil {
			return nil, err
		}
		team, err := g.store.FindByCode(ctx, p.Code)
		if err != nil {
			return nil, err
		}
		if team == nil {
			return nil, fmt.Errorf("%w: no team for code %q", apperr.ErrNotFound, p.Code)
		}
		return team, nil

	case ActionStats:
		return g.store.Stats(ctx)

	case ActionListTeams:
		return g.store.List(ctx)

	default:
		return nil, fmt.Errorf("%w: unknown action %q", apperr.ErrBadRequest, action)
	}
}

func decode(raw json.RawMessage, into any) error {
	if len(raw) == 0 {
		return fmt.Errorf("%w: missing payload", apperr.ErrBadRequest)
	}
	if err := json.Unmarshal(raw, into); err != nil {
		return fmt.Errorf("%w: %v", apperr.ErrBadRequest, err)
	}
	return nil
}
