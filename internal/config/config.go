package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

type Config struct {
	HTTPAddr string

	DatastoreURL    string
	DatastoreAPIKey string
	DatastoreTable  string

	AdminPasswordSHA256 string
	SessionSigningKey   string
	SessionTTLHours     int

	RazorpayKeySecret     string
	RazorpayWebhookSecret string

	EntryFee       int
	TeamCodePrefix string
	CacheDir       string

	MailAPIURL  string
	MailAPIKeys []string

	AdminAlertTGToken string
	AdminAlertTGChat  int64
}

func FromEnv() (Config, error) {
	var c Config

	c.HTTPAddr = strings.TrimSpace(os.Getenv("HTTP_ADDR"))
	if c.HTTPAddr == "" {
		c.HTTPAddr = ":8080"
	}

	c.DatastoreURL = strings.TrimRight(strings.TrimSpace(os.Getenv("DATASTORE_URL")), "/")
	c.DatastoreAPIKey = strings.TrimSpace(os.Getenv("DATASTORE_API_KEY"))
	c.DatastoreTable = strings.TrimSpace(os.Getenv("DATASTORE_TABLE"))
	if c.DatastoreTable == "" {
		c.DatastoreTable = "registrations"
	}

	c.AdminPasswordSHA256 = strings.TrimSpace(os.Getenv("ADMIN_PASSWORD_SHA256"))
	c.SessionSigningKey = strings.TrimSpace(os.Getenv("SESSION_SIGNING_KEY"))
	c.SessionTTLHours = intEnv("SESSION_TTL_HOURS", 12)
	// credential lifetime is fixed at issuance within a 12-24h band
	if c.SessionTTLHours < 12 {
		c.SessionTTLHours = 12
	}
	if c.SessionTTLHours > 24 {
		c.SessionTTLHours = 24
	}

	c.RazorpayKeySecret = strings.TrimSpace(os.Getenv("RAZORPAY_KEY_SECRET"))
	c.RazorpayWebhookSecret = strings.TrimSpace(os.Getenv("RAZORPAY_WEBHOOK_SECRET"))

	c.EntryFee = intEnv("ENTRY_FEE", 200)
	c.TeamCodePrefix = strings.TrimSpace(os.Getenv("TEAM_CODE_PREFIX"))
	if c.TeamCodePrefix == "" {
		c.TeamCodePrefix = "NEURON"
	}
	c.CacheDir = strings.TrimSpace(os.Getenv("CACHE_DIR"))
	if c.CacheDir == "" {
		c.CacheDir = "./cache"
	}

	c.MailAPIURL = strings.TrimSpace(os.Getenv("MAIL_API_URL"))
	c.MailAPIKeys = splitKeys(os.Getenv("MAIL_API_KEYS"))

	c.AdminAlertTGToken = strings.TrimSpace(os.Getenv("ADMIN_ALERT_TG_TOKEN"))
	c.AdminAlertTGChat, _ = strconv.ParseInt(strings.TrimSpace(os.Getenv("ADMIN_ALERT_TG_CHAT")), 10, 64)

	if c.DatastoreURL == "" {
		return c, fmt.Errorf("DATASTORE_URL is empty")
	}
	if c.DatastoreAPIKey == "" {
		return c, fmt.Errorf("DATASTORE_API_KEY is empty")
	}

	return c, nil
}

func intEnv(name string, def int) int {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return v
}

func splitKeys(raw string) []string {
	out := []string{}
	for _, p := range strings.Split(raw, ",") {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
