// Package manifest is the registration store: validated CRUD over Team
// records against the hosted row store, with a local badger cache that
// keeps reads available through remote outages.
//
// Consistency contract: write-through on reads (every successful remote
// read refreshes the cache), read-fallback on remote failure, no
// write-behind. The remote is the system of record.
package manifest

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/dgraph-io/badger/v3"

	"github.com/devansh-kaila-006/neuron-ai-club-sub000/internal/apperr"
	"github.com/devansh-kaila-006/neuron-ai-club-sub000/internal/models"
)

// Remote is the slice of the datastore client the store depends on.
type Remote interface {
	SelectAll(ctx context.Context) ([]models.Team, error)
	SelectEq(ctx context.Context, column, value string) ([]models.Team, error)
	Upsert(ctx context.Context, team models.Team, onConflict string) (models.Team, error)
	UpdateFields(ctx context.Context, id string, fields map[string]any) error
	Delete(ctx context.Context, id string) error
	DeleteAll(ctx context.Context) error
}

type Store struct {
	remote     Remote
	cache      *badger.DB
	entryFee   int
	codePrefix string
}

func New(remote Remote, cache *badger.DB, entryFee int, codePrefix string) *Store {
	return &Store{
		remote:     remote,
		cache:      cache,
		entryFee:   entryFee,
		codePrefix: codePrefix,
	}
}

// List returns all teams, remote-first. On remote failure the cached
// snapshot is served instead of an error.
func (s *Store) List(ctx context.Context) ([]models.Team, error) {
	teams, err := s.remote.SelectAll(ctx)
	if err != nil {
		log.Printf("manifest: remote list failed, serving cache: %v", err)
		return s.cacheSnapshot()
	}
	if err := s.cacheReplaceAll(teams); err != nil {
		log.Printf("manifest: cache refresh failed: %v", err)
	}
	return teams, nil
}

// Save validates, writes the cache, then upserts remote by id. A remote
// failure after the cache write surfaces as RemoteSyncError; the cache
// write stands (local-first durability, manual retry).
func (s *Store) Save(ctx context.Context, t models.Team) (models.Team, error) {
	if err := s.Validate(t); err != nil {
		return models.Team{}, err
	}
	if lead := t.Lead(); lead != nil {
		t.LeadEmail = lead.Email
	}
	if err := s.cachePut(t); err != nil {
		return models.Team{}, fmt.Errorf("cache write: %w", err)
	}
	saved, err := s.remote.Upsert(ctx, t, "id")
	if err != nil {
		return t, &apperr.RemoteSyncError{Op: "save", Err: err}
	}
	return saved, nil
}

// SavePaid persists a reconciled team through the gatewayPaymentId
// conflict key. No shape validation: the payment has already happened
// and the record must exist even when impoverished. The row returned is
// the authoritative one — pre-existing on conflict.
func (s *Store) SavePaid(ctx context.Context, t models.Team) (models.Team, error) {
	if t.GatewayPaymentID == "" {
		return models.Team{}, &apperr.ValidationError{Fields: []string{"gatewayPaymentId: empty"}}
	}
	saved, err := s.remote.Upsert(ctx, t, "gatewayPaymentId")
	if err != nil {
		return models.Team{}, fmt.Errorf("persist paid team: %w", err)
	}
	if err := s.cachePut(saved); err != nil {
		log.Printf("manifest: cache write after reconcile failed: %v", err)
	}
	return saved, nil
}

// FindByName does a case-insensitive exact match on team name.
func (s *Store) FindByName(ctx context.Context, name string) (*models.Team, error) {
	return s.findFunc(ctx, func(t models.Team) bool {
		return strings.EqualFold(strings.TrimSpace(t.TeamName), strings.TrimSpace(name))
	})
}

// FindByCode matches a team code, case-insensitively, accepting either
// the full PREFIX-XXXXXX form or the bare suffix.
func (s *Store) FindByCode(ctx context.Context, code string) (*models.Team, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	return s.findFunc(ctx, func(t models.Team) bool {
		full := strings.ToUpper(t.TeamCode)
		return full == code || strings.TrimPrefix(full, strings.ToUpper(s.codePrefix)+"-") == code
	})
}

// FindByPaymentID looks up the team holding a gateway payment id, nil
// when absent. Used by reconciliation as its idempotent short-circuit.
func (s *Store) FindByPaymentID(ctx context.Context, paymentID string) (*models.Team, error) {
	rows, err := s.remote.SelectEq(ctx, "gatewayPaymentId", paymentID)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return &rows[0], nil
}

// ClaimName reports whether a team name is free among non-deleted teams.
// This is a pre-flight read, not a reservation: two simultaneous
// claimants can both see the name as free. The datastore does not
// enforce name uniqueness; intended behavior under that race is
// unspecified upstream and left as-is.
func (s *Store) ClaimName(ctx context.Context, name string) (bool, error) {
	existing, err := s.FindByName(ctx, name)
	if err != nil {
		return false, err
	}
	return existing == nil, nil
}

// UpdateCheckIn flips the check-in flag: cache unconditionally, remote
// best-effort (a row missing remotely is a no-op).
func (s *Store) UpdateCheckIn(ctx context.Context, id string, flag bool) error {
	cached, err := s.cacheGet(id)
	if err != nil {
		return err
	}
	if cached != nil {
		cached.CheckedIn = flag
		if err := s.cachePut(*cached); err != nil {
			return err
		}
	}
	if err := s.remote.UpdateFields(ctx, id, map[string]any{"checkedIn": flag}); err != nil {
		return &apperr.RemoteSyncError{Op: "updateCheckIn", Err: err}
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, id string) error {
	if err := s.cacheDelete(id); err != nil {
		return err
	}
	if err := s.remote.Delete(ctx, id); err != nil {
		return &apperr.RemoteSyncError{Op: "delete", Err: err}
	}
	return nil
}

// PurgeAll irreversibly drops every team from both tiers. Confirmation
// is the calling layer's problem; authorization is the gateway's.
func (s *Store) PurgeAll(ctx context.Context) error {
	if err := s.cacheClear(); err != nil {
		return err
	}
	if err := s.remote.DeleteAll(ctx); err != nil {
		return &apperr.RemoteSyncError{Op: "purgeAll", Err: err}
	}
	return nil
}

// Stats derives the dashboard aggregate from List. Never materialized,
// so it is always consistent with the manifest at O(n) cost.
func (s *Store) Stats(ctx context.Context) (models.Stats, error) {
	teams, err := s.List(ctx)
	if err != nil {
		return models.Stats{}, err
	}
	st := models.Stats{Total: len(teams)}
	for _, t := range teams {
		if t.PaymentStatus == models.PaymentPaid {
			st.Paid++
		}
		if t.CheckedIn {
			st.CheckedIn++
		}
	}
	st.Revenue = st.Paid * s.entryFee
	return st, nil
}

func (s *Store) findFunc(ctx context.Context, match func(models.Team) bool) (*models.Team, error) {
	teams, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	for i := range teams {
		if match(teams[i]) {
			return &teams[i], nil
		}
	}
	return nil, nil
}
