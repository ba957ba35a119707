// Package datastore is a thin client for the hosted row store holding
// the registration manifest. The store speaks a REST dialect: one table,
// rows as JSON objects, equality filters in the query string, and an
// upsert whose conflict target is a declared column.
package datastore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/devansh-kaila-006/neuron-ai-club-sub000/internal/models"
)

type Client struct {
	httpc   *http.Client
	baseURL string
	apiKey  string
	table   string
}

func New(baseURL, apiKey, table string) *Client {
	return &Client{
		httpc:   &http.Client{Timeout: 15 * time.Second},
		baseURL: baseURL,
		apiKey:  apiKey,
		table:   table,
	}
}

func (c *Client) do(ctx context.Context, method, rawquery string, body any, prefer string) ([]models.Team, error) {
	var rdr io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		rdr = bytes.NewReader(raw)
	}

	u := c.baseURL + "/rest/v1/" + c.table
	if rawquery != "" {
		u += "?" + rawquery
	}
	req, err := http.NewRequestWithContext(ctx, method, u, rdr)
	if err != nil {
		return nil, err
	}
	req.Header.Set("apikey", c.apiKey)
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")
	if prefer != "" {
		req.Header.Set("Prefer", prefer)
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("datastore %s %s: status %d: %s", method, c.table, resp.StatusCode, truncate(raw))
	}
	if len(raw) == 0 {
		return nil, nil
	}

	var rows []models.Team
	if err := json.Unmarshal(raw, &rows); err != nil {
		return nil, fmt.Errorf("datastore decode: %w", err)
	}
	return rows, nil
}

func (c *Client) SelectAll(ctx context.Context) ([]models.Team, error) {
	return c.do(ctx, http.MethodGet, "select=*", nil, "")
}

func (c *Client) SelectEq(ctx context.Context, column, value string) ([]models.Team, error) {
	q := "select=*&" + url.QueryEscape(column) + "=eq." + url.QueryEscape(value)
	return c.do(ctx, http.MethodGet, q, nil, "")
}

// Upsert writes one row keyed on onConflict. The conflict resolution
// follows the key: an id conflict is an insert-or-replace (post-payment
// edits must land), while a gatewayPaymentId conflict is collapsed and
// the pre-existing row wins untouched — that collapse is the store's
// only exactly-once mechanism.
func (c *Client) Upsert(ctx context.Context, team models.Team, onConflict string) (models.Team, error) {
	resolution := "merge-duplicates"
	if onConflict == "gatewayPaymentId" {
		resolution = "ignore-duplicates"
	}

	q := "on_conflict=" + url.QueryEscape(onConflict)
	rows, err := c.do(ctx, http.MethodPost, q, []models.Team{team},
		"resolution="+resolution+",return=representation")
	if err != nil {
		return models.Team{}, err
	}
	if len(rows) > 0 {
		return rows[0], nil
	}

	// Insert was ignored: the conflict row already exists. Read it back.
	existing, err := c.SelectEq(ctx, onConflict, conflictValue(team, onConflict))
	if err != nil {
		return models.Team{}, err
	}
	if len(existing) == 0 {
		return models.Team{}, fmt.Errorf("datastore upsert: conflict on %s but row not found", onConflict)
	}
	return existing[0], nil
}

// UpdateFields patches a single row by id. A missing row is a no-op.
func (c *Client) UpdateFields(ctx context.Context, id string, fields map[string]any) error {
	q := "id=eq." + url.QueryEscape(id)
	_, err := c.do(ctx, http.MethodPatch, q, fields, "return=minimal")
	return err
}

func (c *Client) Delete(ctx context.Context, id string) error {
	q := "id=eq." + url.QueryEscape(id)
	_, err := c.do(ctx, http.MethodDelete, q, nil, "return=minimal")
	return err
}

// DeleteAll wipes the table. The filter is required by the REST dialect;
// matching every non-null id matches every row.
func (c *Client) DeleteAll(ctx context.Context) error {
	_, err := c.do(ctx, http.MethodDelete, "id=not.is.null", nil, "return=minimal")
	return err
}

func conflictValue(t models.Team, column string) string {
	switch column {
	case "gatewayPaymentId":
		return t.GatewayPaymentID
	default:
		return t.ID
	}
}

func truncate(raw []byte) string {
	const max = 300
	if len(raw) > max {
		return string(raw[:max]) + "..."
	}
	return string(raw)
}
