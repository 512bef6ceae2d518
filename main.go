package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os/signal"
	"strings"
	"syscall"

	"github.com/banshee-data/overlay.router/internal/config"
	"github.com/banshee-data/overlay.router/internal/gesture"
	"github.com/banshee-data/overlay.router/internal/gesturedb"
	"github.com/banshee-data/overlay.router/internal/monitor"
	"github.com/banshee-data/overlay.router/internal/version"
)

var (
	listen        = flag.String("listen", ":8080", "Debug server listen address")
	dbFile        = flag.String("db", "gesture_events.db", "Event log sqlite path (empty disables logging)")
	configPath    = flag.String("config", "", "Tuning config JSON path")
	migrationsDir = flag.String("migrations", "migrations", "Versioned migrations directory")
	displays      = flag.String("displays", "main", "Comma-separated display IDs to register at startup")
)

func main() {
	flag.Parse()

	log.Printf("overlay router %s (%s, built %s)", version.Version, version.GitSHA, version.BuildTime)

	if *listen == "" {
		log.Fatal("Listen address is required")
	}

	tuning := config.EmptyTuningConfig()
	if *configPath != "" {
		var err error
		tuning, err = config.LoadTuningConfig(*configPath)
		if err != nil {
			log.Fatalf("failed to load tuning config: %v", err)
		}
	}

	var recorder gesture.Recorder
	var eventLog *gesturedb.DB
	if *dbFile != "" {
		var err error
		eventLog, err = gesturedb.NewDB(*dbFile)
		if err != nil {
			log.Fatalf("failed to open event log: %v", err)
		}
		if err := eventLog.MigrateUp(*migrationsDir); err != nil {
			// The bootstrap schema from NewDB is enough to run; versioned
			// migrations only matter across upgrades.
			log.Printf("warning: migrations not applied: %v", err)
		}
		recorder = eventLog
	}

	coord := gesture.NewCoordinator(gesture.CoordinatorConfig{
		AnimationDuration: tuning.GetAnimationDuration(),
		FrameInterval:     tuning.GetFrameInterval(),
		ReplayPolicy:      gesture.ReplayPolicy(tuning.GetSyncReplayPolicy()),
	}, gesture.LogRenderer{}, recorder)

	router := gesture.NewRouter(gesture.RouterConfig{
		Classifier: gesture.ClassifierConfig{
			SwipeThresholdPx:              tuning.GetSwipeThresholdPx(),
			VelocityThresholdPxPerSec:     tuning.GetVelocityThresholdPxPerSec(),
			EarlyClassificationMultiplier: tuning.GetEarlyClassificationMultiplier(),
		},
		Arbiter: gesture.ArbiterConfig{
			Window:              tuning.GetArbitrationWindow(),
			ConfidenceThreshold: tuning.GetConfidenceThreshold(),
		},
		SampleBufferCapacity:   tuning.GetSampleBufferCapacity(),
		ClassificationDeadline: tuning.GetClassificationDeadline(),
	}, coord, recorder)

	groups := tuning.GetSyncGroups()
	for _, displayID := range strings.Split(*displays, ",") {
		displayID = strings.TrimSpace(displayID)
		if displayID == "" {
			continue
		}
		coord.RegisterDisplay(displayID, groups[displayID])
		router.AttachDisplay(displayID)
	}
	for displayID, group := range groups {
		coord.RegisterDisplay(displayID, group)
		router.AttachDisplay(displayID)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go coord.Run(ctx)
	go router.Run(ctx)

	ws := monitor.NewWebServer(coord, eventLog)
	srv := &http.Server{Addr: *listen, Handler: ws.ServeMux()}
	go func() {
		<-ctx.Done()
		srv.Close()
	}()

	log.Printf("gesture core listening on %s (displays: %s)", *listen, *displays)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("debug server: %v", err)
	}
}
