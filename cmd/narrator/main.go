package main

import (
	"context"
	"log"
	"net/http"

	"github.com/pitabwire/frame"
	"github.com/pitabwire/frame/config"

	narratorconfig "github.com/kevsila/narrator/config"
	"github.com/kevsila/narrator/internal/audio"
	"github.com/kevsila/narrator/internal/httputil"
	"github.com/kevsila/narrator/internal/quota"
	"github.com/kevsila/narrator/internal/studio"
	studiohandler "github.com/kevsila/narrator/internal/studio/handler"
	"github.com/kevsila/narrator/internal/synth/registry"
	"github.com/kevsila/narrator/internal/voice"
	"github.com/kevsila/narrator/pkg/events"

	// Register synthesis backends via init().
	_ "github.com/kevsila/narrator/internal/synth/backends/gemini"
)

func main() {
	ctx := context.Background()

	cfg, err := config.LoadWithOIDC[narratorconfig.NarratorConfig](ctx)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	eventRef := cfg.GetEventsQueueName()
	eventURL := cfg.GetEventsQueueURL()

	serviceOpts := []frame.Option{
		frame.WithConfig(&cfg),
		frame.WithName("narrator"),
		frame.WithRegisterPublisher(eventRef, eventURL),
	}
	if cfg.UsageStoreBackend == "database" {
		serviceOpts = append(serviceOpts, frame.WithDatastore())
	}

	ctx, srv := frame.NewService(serviceOpts...)
	defer srv.Stop(ctx)

	pub := events.NewPublisher(srv.QueueManager(), "narrator", eventRef)

	var store quota.Store
	if cfg.UsageStoreBackend == "database" {
		store = quota.NewGormStore(
			srv.DatastoreManager().GetPool(ctx, "__default__pool_name__"),
		)
	} else {
		store, err = quota.NewFileStore(cfg.UsageStoreDir)
		if err != nil {
			log.Fatalf("opening usage store: %v", err)
		}
	}
	tracker := quota.NewTracker(ctx, store, cfg.DailyLimits())

	books := voice.NewLoader(cfg.ProfileDir)
	if err := books.LoadAll(); err != nil {
		log.Fatalf("loading book profiles: %v", err)
	}
	if cfg.ProfileDir != "" {
		go func() {
			if err := books.WatchAndReload(ctx.Done()); err != nil {
				log.Printf("book profile watcher stopped: %v", err)
			}
		}()
	}

	eng, err := registry.Engines.Create(cfg.EngineBackend, cfg.EngineConfig())
	if err != nil {
		log.Fatalf("creating synthesis engine: %v", err)
	}
	defer eng.Close()

	var dev audio.Device = audio.NewNullDevice()
	if cfg.PlaybackEnabled {
		dev = audio.NewPortAudioDevice()
	}
	player := audio.NewPlayer(dev)
	defer player.Close()

	st := studio.New(eng, tracker, player, books, pub)

	mux := http.NewServeMux()
	studiohandler.NewStudioHandler(st).Register(mux)

	srv.Init(ctx, frame.WithHTTPHandler(httputil.H2CHandler(mux)))

	if err := srv.Run(ctx, ""); err != nil {
		log.Fatalf("service exited: %v", err)
	}
}
