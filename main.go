package main

import (
	"context"
	"embed"
	"flag"
	"fmt"
	"io/fs"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/banshee-data/presence.report/internal/api"
	"github.com/banshee-data/presence.report/internal/btserial"
	"github.com/banshee-data/presence.report/internal/config"
	"github.com/banshee-data/presence.report/internal/db"
	"github.com/banshee-data/presence.report/internal/scan"
	"github.com/banshee-data/presence.report/internal/sniff"
)

var (
	//go:embed static/*
	staticFiles embed.FS
	devMode     = flag.Bool("dev", false, "Run in dev mode (mock scan source, static files from disk)")
	listen      = flag.String("listen", "", "Listen address (overrides config)")
	configPath  = flag.String("config", "presence.json", "Path to the config file")
	sourceKind  = flag.String("source", "serial", "Scan source: serial, sniff, or mock")
	serialPort  = flag.String("serial-port", "/dev/ttyUSB0", "Serial port for the BLE module")
	sniffDevice = flag.String("sniff-device", "wlan0mon", "Capture interface for the sniff source")
)

func newSource() (scan.Source, func(), error) {
	if *devMode || *sourceKind == "mock" {
		return scan.NewSyntheticSource(), func() {}, nil
	}

	switch *sourceKind {
	case "serial":
		src, err := btserial.OpenSource(*serialPort, btserial.PortOptions{})
		if err != nil {
			return nil, nil, err
		}
		if err := src.Initialize(); err != nil {
			src.Close()
			return nil, nil, err
		}
		return src, func() { src.Close() }, nil
	case "sniff":
		return sniff.NewSource(*sniffDevice), func() {}, nil
	default:
		return nil, nil, fmt.Errorf("unknown source kind %q", *sourceKind)
	}
}

func main() {
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	// First run: persist the defaults so they can be edited in place.
	if _, err := os.Stat(*configPath); os.IsNotExist(err) {
		if err := cfg.Save(*configPath); err != nil {
			log.Fatalf("failed to write initial config: %v", err)
		}
	}
	if *listen != "" {
		cfg.Listen = *listen
	}
	cfgMgr := config.NewManager(*configPath, cfg)

	source, closeSource, err := newSource()
	if err != nil {
		log.Fatalf("failed to create scan source %q: %v", *sourceKind, err)
	}
	defer closeSource()

	database, err := db.NewDB(cfg.DBPath)
	if err != nil {
		log.Fatalf("failed to open database: %v", err)
	}
	defer database.Close()

	scanner := scan.NewScanner(source, scan.Cadence{
		SampleDuration:  cfg.ScanDurationValue(),
		PassInterval:    cfg.ScanIntervalValue(),
		PublishInterval: cfg.PublishIntervalValue(),
	})
	scanner.AddSink(database.InsertDetections)

	// Config updates retune the running scanner without a restart.
	cfgMgr.OnChange(func(c *config.Config) {
		scanner.SetCadence(scan.Cadence{
			SampleDuration:  c.ScanDurationValue(),
			PassInterval:    c.ScanIntervalValue(),
			PublishInterval: c.PublishIntervalValue(),
		})
	})

	var wg sync.WaitGroup
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// run the scan loop until shutdown
	wg.Add(1)
	go func() {
		defer wg.Done()
		scanner.Start()
		<-ctx.Done()
		scanner.Stop()
		log.Print("scan routine terminated")
	}()

	// HTTP server goroutine
	wg.Add(1)
	go func() {
		defer wg.Done()

		mux := http.NewServeMux()

		// mount the admin debugging routes
		if err := database.AttachAdminRoutes(mux); err != nil {
			log.Printf("failed to attach admin routes: %v", err)
		}

		srv := api.NewServer(database, scanner, cfgMgr)
		apiMux := srv.ServeMux()
		mux.Handle("/api/", apiMux)
		mux.Handle("/charts/", apiMux)

		// read static files from the embedded filesystem in production or from
		// the local ./static in dev for easier iteration without restarting the
		// server
		var staticHandler http.Handler
		if *devMode {
			staticHandler = http.FileServer(http.Dir("./static"))
		} else {
			staticFS, err := fs.Sub(staticFiles, "static")
			if err != nil {
				log.Fatalf("failed to mount embedded static files: %v", err)
			}
			staticHandler = http.FileServer(http.FS(staticFS))
		}
		mux.Handle("/", staticHandler)

		server := &http.Server{
			Addr:    cfgMgr.Current().Listen,
			Handler: api.LoggingMiddleware(mux),
		}

		// Start server in a goroutine so it doesn't block
		go func() {
			log.Printf("listening on %s", server.Addr)
			if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Fatalf("failed to start server: %v", err)
			}
		}()

		// Wait for context cancellation to shut down server
		<-ctx.Done()
		log.Println("shutting down HTTP server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Printf("HTTP server shutdown error: %v", err)
		}

		log.Printf("HTTP server routine stopped")
	}()

	wg.Wait()
	log.Printf("Graceful shutdown complete")
}
