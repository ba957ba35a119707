package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"

	"github.com/devansh-kaila-006/neuron-ai-club-sub000/internal/admin"
	"github.com/devansh-kaila-006/neuron-ai-club-sub000/internal/apperr"
	"github.com/devansh-kaila-006/neuron-ai-club-sub000/internal/config"
	"github.com/devansh-kaila-006/neuron-ai-club-sub000/internal/credential"
	"github.com/devansh-kaila-006/neuron-ai-club-sub000/internal/manifest"
	"github.com/devansh-kaila-006/neuron-ai-club-sub000/internal/models"
	"github.com/devansh-kaila-006/neuron-ai-club-sub000/internal/notify"
	"github.com/devansh-kaila-006/neuron-ai-club-sub000/internal/recon"
	"github.com/devansh-kaila-006/neuron-ai-club-sub000/internal/util"
)

// webhookSignatureHeader distinguishes the gateway's server-to-server
// POST from the client-redirect body on the shared verify endpoint.
const webhookSignatureHeader = "X-Razorpay-Signature"

type Deps struct {
	Store   *manifest.Store
	Creds   *credential.Service
	Engine  *recon.Engine
	Gateway *admin.Gateway
	Mail    notify.Sink
	Alert   notify.Sink
}

func New(cfg config.Config, d Deps) *http.Server {
	mux := http.NewServeMux()

	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})

	// Credential issuance
	mux.HandleFunc("/api/auth/login", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			writeError(w, http.StatusMethodNotAllowed, "POST only")
			return
		}
		var body struct {
			Password string `json:"password"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeError(w, http.StatusBadRequest, "bad json")
			return
		}
		token, err := d.Creds.Issue(body.Password)
		if err != nil {
			writeFailure(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "token": token})
	})

	// Privileged actions, token in Authorization: Bearer
	mux.HandleFunc("/api/admin/action", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			writeError(w, http.StatusMethodNotAllowed, "POST only")
			return
		}
		var body struct {
			Action  string          `json:"action"`
			Payload json.RawMessage `json:"payload"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeError(w, http.StatusBadRequest, "bad json")
			return
		}
		data, err := d.Gateway.Execute(r.Context(), bearerToken(r), body.Action, body.Payload)
		if err != nil {
			writeFailure(w, err)
			return
		}
		if body.Action == admin.ActionPurgeAll {
			notify.Async(d.Alert, "", "Manifest purged", "all registrations deleted by admin")
		}
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "data": data})
	})

	// Team-name claim check for the registration wizard. A taken name is
	// a distinct outcome from a remote failure so the client can prompt
	// for a new name instead of retrying blindly.
	mux.HandleFunc("/api/teams/claim", func(w http.ResponseWriter, r *http.Request) {
		name := strings.TrimSpace(r.URL.Query().Get("name"))
		if len(name) < 3 || len(name) > 20 {
			writeError(w, http.StatusBadRequest, "name must be 3-20 characters")
			return
		}
		free, err := d.Store.ClaimName(r.Context(), name)
		if err != nil {
			writeError(w, http.StatusBadGateway, "availability check failed, try again")
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "available": free})
	})

	// Payment verification: webhook when the gateway signature header is
	// present, client-redirect body otherwise. Both converge on the
	// reconciliation engine.
	mux.HandleFunc("/api/payments/verify", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			writeError(w, http.StatusMethodNotAllowed, "POST only")
			return
		}
		raw, err := io.ReadAll(r.Body)
		if err != nil {
			writeError(w, http.StatusBadRequest, "unreadable body")
			return
		}

		var team models.Team
		if sig := r.Header.Get(webhookSignatureHeader); sig != "" {
			team, err = d.Engine.HandleWebhook(r.Context(), raw, sig)
		} else {
			var cc recon.ClientConfirmation
			if jerr := json.Unmarshal(raw, &cc); jerr != nil {
				writeError(w, http.StatusBadRequest, "bad json")
				return
			}
			team, err = d.Engine.VerifyClientCallback(r.Context(), cc)
		}
		if err != nil {
			var serr *apperr.SecurityError
			if errors.As(err, &serr) {
				log.Printf("payments: %v (remote %s)", serr, r.RemoteAddr)
				notify.Async(d.Alert, "", "Payment signature rejected", serr.Reason)
			}
			writeFailure(w, err)
			return
		}

		if team.LeadEmail != "" {
			notify.Async(d.Mail, team.LeadEmail, "Registration confirmed",
				fmt.Sprintf("Team %s is registered. Check-in code: %s", team.TeamName, team.TeamCode))
		}
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "data": team})
	})

	// CSV export behind an HMAC link token
	mux.HandleFunc("/export/teams.csv", func(w http.ResponseWriter, r *http.Request) {
		token := r.URL.Query().Get("token")
		expected := util.HMACSHA256Hex(cfg.SessionSigningKey, "export:teams")
		if cfg.SessionSigningKey == "" || !util.HMACValid(token, expected) {
			http.Error(w, "invalid token", http.StatusForbidden)
			return
		}
		teams, err := d.Store.List(r.Context())
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "text/csv; charset=utf-8")
		w.Header().Set("Content-Disposition", `attachment; filename="teams.csv"`)
		_, _ = w.Write([]byte(BuildTeamsCSV(teams)))
	})

	return &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: mux,
	}
}

func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	return strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]any{"success": false, "error": msg})
}

// writeFailure maps the error taxonomy onto the wire. Auth failures are
// a generic denial on purpose: no hint whether the credential was
// malformed, forged or expired.
func writeFailure(w http.ResponseWriter, err error) {
	var verr *apperr.ValidationError
	var serr *apperr.SecurityError
	var rserr *apperr.RemoteSyncError

	switch {
	case errors.Is(err, apperr.ErrUnauthorized), errors.Is(err, apperr.ErrInvalidCredential):
		writeError(w, http.StatusUnauthorized, "unauthorized")
	case errors.Is(err, apperr.ErrSystemUnconfigured):
		writeError(w, http.StatusInternalServerError, "service unavailable")
	case errors.As(err, &verr):
		writeError(w, http.StatusBadRequest, verr.Error())
	case errors.As(err, &serr):
		writeError(w, http.StatusBadRequest, serr.Error())
	case errors.As(err, &rserr):
		writeError(w, http.StatusBadGateway, rserr.Error())
	case errors.Is(err, apperr.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, apperr.ErrBadRequest):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}
