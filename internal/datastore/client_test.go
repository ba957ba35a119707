package datastore

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/devansh-kaila-006/neuron-ai-club-sub000/internal/models"
)

// restFake speaks just enough of the row-store dialect: equality
// filters, Prefer-driven upserts, conflict collapse on a declared
// column.
type restFake struct {
	t    *testing.T
	rows []models.Team
}

func (f *restFake) handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(f.t, "test-key", r.Header.Get("apikey"))
		require.Equal(f.t, "Bearer test-key", r.Header.Get("Authorization"))
		require.True(f.t, strings.HasPrefix(r.URL.Path, "/rest/v1/registrations"))

		switch r.Method {
		case http.MethodGet:
			f.handleSelect(w, r)
		case http.MethodPost:
			f.handleUpsert(w, r)
		case http.MethodPatch:
			f.handlePatch(w, r)
		case http.MethodDelete:
			f.handleDelete(w, r)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	})
}

func (f *restFake) filtered(q map[string][]string) []models.Team {
	out := []models.Team{}
	for _, row := range f.rows {
		ok := true
		for col, vals := range q {
			if col == "select" || col == "on_conflict" {
				continue
			}
			want := strings.TrimPrefix(vals[0], "eq.")
			switch col {
			case "id":
				if vals[0] == "not.is.null" {
					continue
				}
				ok = ok && row.ID == want
			case "gatewayPaymentId":
				ok = ok && row.GatewayPaymentID == want
			}
		}
		if ok {
			out = append(out, row)
		}
	}
	return out
}

func (f *restFake) handleSelect(w http.ResponseWriter, r *http.Request) {
	_ = json.NewEncoder(w).Encode(f.filtered(r.URL.Query()))
}

func (f *restFake) handleUpsert(w http.ResponseWriter, r *http.Request) {
	var incoming []models.Team
	require.NoError(f.t, json.NewDecoder(r.Body).Decode(&incoming))
	require.Len(f.t, incoming, 1)
	team := incoming[0]

	conflictCol := r.URL.Query().Get("on_conflict")
	require.NotEmpty(f.t, conflictCol)
	prefer := r.Header.Get("Prefer")
	ignoreDuplicates := strings.Contains(prefer, "resolution=ignore-duplicates")
	if !ignoreDuplicates {
		require.Contains(f.t, prefer, "resolution=merge-duplicates")
	}

	collided := false
	for _, row := range f.rows {
		if (conflictCol == "id" && row.ID == team.ID) ||
			(conflictCol == "gatewayPaymentId" && row.GatewayPaymentID == team.GatewayPaymentID) {
			collided = true
			break
		}
	}
	if collided && ignoreDuplicates {
		// duplicate ignored: representation of inserted rows is empty
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte("[]"))
		return
	}
	// merge-duplicates replaces the conflicting row
	kept := f.rows[:0]
	for _, row := range f.rows {
		if row.ID != team.ID {
			kept = append(kept, row)
		}
	}
	f.rows = append(kept, team)
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode([]models.Team{team})
}

func (f *restFake) handlePatch(w http.ResponseWriter, r *http.Request) {
	var fields map[string]any
	require.NoError(f.t, json.NewDecoder(r.Body).Decode(&fields))
	id := strings.TrimPrefix(r.URL.Query().Get("id"), "eq.")
	for i := range f.rows {
		if f.rows[i].ID == id {
			if v, ok := fields["checkedIn"].(bool); ok {
				f.rows[i].CheckedIn = v
			}
		}
	}
	w.WriteHeader(http.StatusNoContent)
}

func (f *restFake) handleDelete(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if q.Get("id") == "not.is.null" {
		f.rows = nil
	} else {
		id := strings.TrimPrefix(q.Get("id"), "eq.")
		kept := f.rows[:0]
		for _, row := range f.rows {
			if row.ID != id {
				kept = append(kept, row)
			}
		}
		f.rows = kept
	}
	w.WriteHeader(http.StatusNoContent)
}

func newClientAndFake(t *testing.T) (*Client, *restFake) {
	t.Helper()
	fake := &restFake{t: t}
	srv := httptest.NewServer(fake.handler())
	t.Cleanup(srv.Close)
	return New(srv.URL, "test-key", "registrations"), fake
}

func team(id, paymentID string) models.Team {
	return models.Team{ID: id, TeamName: "Team " + id, GatewayPaymentID: paymentID}
}

func TestClient_SelectAllAndEq(t *testing.T) {
	c, fake := newClientAndFake(t)
	ctx := context.Background()
	fake.rows = []models.Team{team("t1", "pay_1"), team("t2", "pay_2")}

	all, err := c.SelectAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	got, err := c.SelectEq(ctx, "gatewayPaymentId", "pay_2")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "t2", got[0].ID)
}

func TestClient_UpsertInsertsThenCollapses(t *testing.T) {
	c, fake := newClientAndFake(t)
	ctx := context.Background()

	first, err := c.Upsert(ctx, team("t1", "pay_1"), "gatewayPaymentId")
	require.NoError(t, err)
	assert.Equal(t, "t1", first.ID)
	assert.Len(t, fake.rows, 1)

	// second insert carries the same payment id under a fresh row id;
	// the pre-existing row must come back untouched
	second, err := c.Upsert(ctx, team("t1-dupe", "pay_1"), "gatewayPaymentId")
	require.NoError(t, err)
	assert.Equal(t, "t1", second.ID)
	assert.Len(t, fake.rows, 1)
}

func TestClient_UpsertByIDReplacesExistingRow(t *testing.T) {
	c, fake := newClientAndFake(t)
	ctx := context.Background()

	original := team("t1", "pay_1")
	original.TeamName = "OldName"
	_, err := c.Upsert(ctx, original, "id")
	require.NoError(t, err)

	// a post-payment edit keyed by id must land remotely, not be
	// silently dropped as a duplicate
	edited := original
	edited.TeamName = "NewName"
	saved, err := c.Upsert(ctx, edited, "id")
	require.NoError(t, err)
	assert.Equal(t, "NewName", saved.TeamName)

	require.Len(t, fake.rows, 1)
	assert.Equal(t, "NewName", fake.rows[0].TeamName)
}

func TestClient_UpdateDelete(t *testing.T) {
	c, fake := newClientAndFake(t)
	ctx := context.Background()
	fake.rows = []models.Team{team("t1", "pay_1"), team("t2", "pay_2")}

	require.NoError(t, c.UpdateFields(ctx, "t1", map[string]any{"checkedIn": true}))
	assert.True(t, fake.rows[0].CheckedIn)

	require.NoError(t, c.Delete(ctx, "t1"))
	require.Len(t, fake.rows, 1)

	require.NoError(t, c.DeleteAll(ctx))
	assert.Empty(t, fake.rows)
}

func TestClient_ErrorStatusSurfaces(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"message":"permission denied"}`, http.StatusForbidden)
	}))
	t.Cleanup(srv.Close)
	c := New(srv.URL, "test-key", "registrations")

	_, err := c.SelectAll(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 403")
	assert.Contains(t, err.Error(), "permission denied")
}
