// Package recon turns a gateway payment confirmation into exactly one
// persisted paid team. Two uncoordinated triggers exist for every
// payment — the in-browser redirect callback and the server-to-server
// webhook — and they race. Both converge here; whichever lands first
// wins and the other observes the already-persisted record.
package recon

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"fmt"
	"log"
	"math/big"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/devansh-kaila-006/neuron-ai-club-sub000/internal/apperr"
	"github.com/devansh-kaila-006/neuron-ai-club-sub000/internal/models"
	"github.com/devansh-kaila-006/neuron-ai-club-sub000/internal/util"
)

// Store is the slice of the manifest the engine writes through.
type Store interface {
	FindByPaymentID(ctx context.Context, paymentID string) (*models.Team, error)
	SavePaid(ctx context.Context, t models.Team) (models.Team, error)
}

type Engine struct {
	store Store
	// clientSecret signs orderId|paymentId for the redirect path. It is
	// necessarily exposed to the browser flow, so the webhook path must
	// trust a different key.
	clientSecret  string
	webhookSecret string
	codePrefix    string
}

func New(store Store, clientSecret, webhookSecret, codePrefix string) *Engine {
	return &Engine{
		store:         store,
		clientSecret:  clientSecret,
		webhookSecret: webhookSecret,
		codePrefix:    codePrefix,
	}
}

// Draft is the team data the client attached to the order as opaque
// metadata before paying.
type Draft struct {
	TeamName string              `json:"teamName"`
	Members  []models.TeamMember `json:"members"`
}

// ClientConfirmation is the redirect-path body.
type ClientConfirmation struct {
	OrderID   string          `json:"orderId"`
	PaymentID string          `json:"paymentId"`
	Signature string          `json:"signature"`
	TeamData  json.RawMessage `json:"teamData"`
}

// VerifyClientCallback handles the redirect path: the signature the
// gateway handed the browser is recomputed over orderId|paymentId with
// the shared client secret. A mismatch is a forged or corrupted
// confirmation and is never persisted.
func (e *Engine) VerifyClientCallback(ctx context.Context, cc ClientConfirmation) (models.Team, error) {
	if e.clientSecret == "" {
		return models.Team{}, apperr.ErrSystemUnconfigured
	}
	if cc.OrderID == "" || cc.PaymentID == "" {
		return models.Team{}, apperr.ErrBadRequest
	}
	expected := util.HMACSHA256Hex(e.clientSecret, cc.OrderID+"|"+cc.PaymentID)
	if !util.HMACValid(cc.Signature, expected) {
		return models.Team{}, &apperr.SecurityError{Reason: "client payment signature mismatch"}
	}
	return e.reconcile(ctx, cc.OrderID, cc.PaymentID, cc.TeamData)
}

// Gateway event names carried in the webhook envelope. Only
// capture-type events mint a paid record.
const (
	eventPaymentCaptured = "payment.captured"
	eventOrderPaid       = "order.paid"
	eventPaymentFailed   = "payment.failed"
)

// webhookEvent mirrors the gateway's event envelope. The draft team
// rides along in the payment entity's notes.
type webhookEvent struct {
	Event   string `json:"event"`
	Payload struct {
		Payment struct {
			Entity struct {
				ID      string          `json:"id"`
				OrderID string          `json:"order_id"`
				Notes   json.RawMessage `json:"notes"`
			} `json:"entity"`
		} `json:"payment"`
	} `json:"payload"`
}

// HandleWebhook handles the server-to-server path: the whole raw body
// is verified against the webhook secret before a single byte of it is
// parsed.
func (e *Engine) HandleWebhook(ctx context.Context, body []byte, signature string) (models.Team, error) {
	if e.webhookSecret == "" {
		return models.Team{}, apperr.ErrSystemUnconfigured
	}
	expected := util.HMACSHA256Hex(e.webhookSecret, string(body))
	if !util.HMACValid(signature, expected) {
		return models.Team{}, &apperr.SecurityError{Reason: "webhook signature mismatch"}
	}

	var ev webhookEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return models.Team{}, apperr.ErrBadRequest
	}
	entity := ev.Payload.Payment.Entity
	if entity.ID == "" {
		return models.Team{}, apperr.ErrBadRequest
	}

	switch ev.Event {
	case eventPaymentCaptured, eventOrderPaid:
		return e.reconcile(ctx, entity.OrderID, entity.ID, entity.Notes)
	case eventPaymentFailed:
		// signed and genuine, but no money moved: nothing to persist,
		// drafts never were
		log.Printf("recon: payment %s reported %s, not reconciling", entity.ID, models.PaymentFailed)
		return models.Team{}, fmt.Errorf("%w: payment %s", apperr.ErrBadRequest, models.PaymentFailed)
	default:
		return models.Team{}, fmt.Errorf("%w: unsupported event %q", apperr.ErrBadRequest, ev.Event)
	}
}

// reconcile is the single funnel both paths land in once their
// signature check has passed. The pre-flight lookup is an optimization;
// the gatewayPaymentId conflict key on the upsert is the real
// exactly-once guarantee, because two reconciliations can still race
// between lookup and write.
func (e *Engine) reconcile(ctx context.Context, orderID, paymentID string, draft json.RawMessage) (models.Team, error) {
	existing, err := e.store.FindByPaymentID(ctx, paymentID)
	if err != nil {
		// lookup unavailable: fall through, the conflict key still holds
		log.Printf("recon: payment lookup failed for %s: %v", paymentID, err)
	}
	if existing != nil {
		return *existing, nil
	}

	team := e.assemble(orderID, paymentID, draft)
	persisted, err := e.store.SavePaid(ctx, team)
	if err != nil {
		// never report paid without a persisted (or pre-existing) row
		return models.Team{}, err
	}
	return persisted, nil
}

// assemble builds the paid record from the draft metadata. Unparseable
// metadata degrades to a minimal record: the money has moved, so a team
// row must exist even if impoverished.
func (e *Engine) assemble(orderID, paymentID string, draft json.RawMessage) models.Team {
	team := models.Team{
		ID:               uuid.NewString(),
		TeamCode:         e.mintCode(),
		PaymentStatus:    models.PaymentPaid,
		GatewayOrderID:   orderID,
		GatewayPaymentID: paymentID,
		RegisteredAt:     util.NowISO(),
	}

	var d Draft
	if err := json.Unmarshal(draft, &d); err != nil || strings.TrimSpace(d.TeamName) == "" {
		log.Printf("recon: unusable draft metadata for %s, writing minimal record", paymentID)
		team.TeamName = "UNRESOLVED " + strings.TrimPrefix(orderID, "order_")
		return team
	}

	team.TeamName = strings.TrimSpace(d.TeamName)
	team.Members = d.Members
	if lead := team.Lead(); lead != nil {
		team.LeadEmail = lead.Email
	}
	return team
}

const codeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// mintCode generates a fresh PREFIX-XXXXXX check-in code.
func (e *Engine) mintCode() string {
	var b strings.Builder
	b.WriteString(e.codePrefix)
	b.WriteByte('-')
	for i := 0; i < 6; i++ {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(codeAlphabet))))
		if err != nil {
			// crypto/rand failure is unrecoverable noise; fall back to
			// a time-derived index rather than abort a paid registration
			b.WriteByte(codeAlphabet[time.Now().UnixNano()%int64(len(codeAlphabet))])
			continue
		}
		b.WriteByte(codeAlphabet[n.Int64()])
	}
	return b.String()
}
