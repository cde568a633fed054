// README: Entry point; loads config, wires services, starts HTTP server and background schedulers.
package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"lifti/internal/ai"
	"lifti/internal/config"
	httptransport "lifti/internal/http"
	"lifti/internal/infra"
	"lifti/internal/logger"
	"lifti/internal/maps"
	"lifti/internal/modules/booking"
	"lifti/internal/modules/fare"
	"lifti/internal/modules/ledger"
	"lifti/internal/modules/location"
	"lifti/internal/modules/matching"
	"lifti/internal/modules/quota"
	"lifti/internal/modules/schedule"
	"lifti/internal/notify"
	"lifti/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}
	logg := logger.New(cfg.Log.Level, cfg.Log.Format)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Firebase.ProjectID == "" {
		log.Fatal("LIFTI_FIREBASE_PROJECT_ID is required")
	}
	firebaseApp, err := infra.NewFirebaseApp(ctx, cfg.Firebase.ProjectID, cfg.Firebase.CredentialsFile)
	if err != nil {
		log.Fatalf("firebase init: %v", err)
	}
	verifier, err := infra.NewFirebaseVerifier(ctx, firebaseApp)
	if err != nil {
		log.Fatalf("firebase auth init: %v", err)
	}

	dbPool, err := infra.NewDB(ctx, cfg.DB.DSN)
	if err != nil {
		log.Fatal(err)
	}
	redisClient := infra.NewRedis(cfg.Redis.Addr)

	fareSvc := fare.NewService(cfg.Fare.Currency)
	rates, err := fare.NewStore(dbPool).LoadRates(ctx)
	if err != nil {
		logg.WithError(err).Warn("fare rate overrides unavailable, using defaults")
	} else {
		fareSvc.ApplyOverrides(rates)
	}

	scheduleSvc := schedule.NewService(nil)

	ledgerSvc := ledger.NewService(ledger.NewStore(dbPool), logg)

	bookingStore := booking.NewStore(dbPool)
	bookingSvc := booking.NewService(bookingStore, fareSvc, scheduleSvc, ledgerSvc)

	notifySvc, err := notify.NewService(ctx, firebaseApp, redisClient, logg)
	if err != nil {
		logg.WithError(err).Warn("push notifications disabled")
		notifySvc = nil
	}

	matchingStore := matching.NewStore(redisClient)
	var notifier matching.Notifier
	if notifySvc != nil {
		notifier = notifySvc
	}
	matchingSvc := matching.NewService(matchingStore, bookingSvc, notifier, cfg.Matching, logg)

	locationSvc := location.NewService(location.NewStore(dbPool, redisClient))

	deps := httptransport.Deps{
		Verifier:       verifier,
		Log:            logg,
		Fare:           fareSvc,
		Schedule:       scheduleSvc,
		Booking:        bookingSvc,
		Matching:       matchingSvc,
		Location:       locationSvc,
		Ledger:         ledgerSvc,
		Notify:         notifySvc,
		NearbyRadiusKm: cfg.Matching.RadiusKm,
	}

	if cfg.Maps.APIKey != "" {
		router, err := maps.NewRouteService(cfg.Maps.APIKey)
		if err != nil {
			log.Fatalf("maps init: %v", err)
		}
		deps.Router = router

		// The concierge needs both maps and the Gemini key.
		if cfg.AI.GeminiKey != "" {
			parser, err := ai.NewGeminiParser(ctx, cfg.AI.GeminiKey)
			if err != nil {
				log.Fatalf("gemini init: %v", err)
			}
			defer parser.Close()
			finder, err := maps.NewPlacesService(cfg.Maps.APIKey)
			if err != nil {
				log.Fatalf("places init: %v", err)
			}
			quotaSvc := quota.NewService(quota.NewStore(dbPool))
			planner, err := service.NewErrandPlanner(parser, router, finder, quotaSvc, fareSvc, logg)
			if err != nil {
				log.Fatalf("errand planner init: %v", err)
			}
			deps.Planner = planner
		}
	}

	server := &http.Server{Addr: cfg.HTTP.Addr, Handler: httptransport.NewRouter(deps)}

	go matchingSvc.RunScheduler(ctx)
	go bookingSvc.RunExpiryMonitor(ctx)

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	logg.WithField("addr", cfg.HTTP.Addr).Info("lifti api listening")
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal(err)
	}
}
