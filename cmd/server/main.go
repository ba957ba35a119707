package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/devansh-kaila-006/neuron-ai-club-sub000/internal/admin"
	"github.com/devansh-kaila-006/neuron-ai-club-sub000/internal/config"
	"github.com/devansh-kaila-006/neuron-ai-club-sub000/internal/credential"
	"github.com/devansh-kaila-006/neuron-ai-club-sub000/internal/datastore"
	"github.com/devansh-kaila-006/neuron-ai-club-sub000/internal/manifest"
	"github.com/devansh-kaila-006/neuron-ai-club-sub000/internal/notify"
	"github.com/devansh-kaila-006/neuron-ai-club-sub000/internal/recon"
	"github.com/devansh-kaila-006/neuron-ai-club-sub000/internal/server"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.FromEnv()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	cache, err := manifest.OpenCache(cfg.CacheDir)
	if err != nil {
		log.Fatalf("cache: %v", err)
	}
	defer cache.Close()

	remote := datastore.New(cfg.DatastoreURL, cfg.DatastoreAPIKey, cfg.DatastoreTable)
	store := manifest.New(remote, cache, cfg.EntryFee, cfg.TeamCodePrefix)
	creds := credential.New(cfg.SessionSigningKey, cfg.AdminPasswordSHA256,
		time.Duration(cfg.SessionTTLHours)*time.Hour)
	engine := recon.New(store, cfg.RazorpayKeySecret, cfg.RazorpayWebhookSecret, cfg.TeamCodePrefix)
	gateway := admin.New(creds, store)

	var mail notify.Sink
	if cfg.MailAPIURL != "" {
		mail = notify.NewMailSink(cfg.MailAPIURL, cfg.MailAPIKeys)
	}
	var alert notify.Sink
	if cfg.AdminAlertTGToken != "" {
		tg, err := notify.NewTelegramSink(cfg.AdminAlertTGToken, cfg.AdminAlertTGChat)
		if err != nil {
			log.Printf("telegram alerts disabled: %v", err)
		} else {
			alert = tg
		}
	}

	httpSrv := server.New(cfg, server.Deps{
		Store:   store,
		Creds:   creds,
		Engine:  engine,
		Gateway: gateway,
		Mail:    mail,
		Alert:   alert,
	})

	go func() {
		log.Printf("HTTP listening on %s", cfg.HTTPAddr)
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("http server: %v", err)
		}
	}()

	// Graceful shutdown
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	log.Println("shutting down...")

	ctxTimeout, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = httpSrv.Shutdown(ctxTimeout)

	log.Println("bye")
}
