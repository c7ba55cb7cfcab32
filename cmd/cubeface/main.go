package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/banshee-data/cubeface/internal/config"
	"github.com/banshee-data/cubeface/internal/db"
	"github.com/banshee-data/cubeface/internal/version"
)

var (
	listen      = flag.String("listen", ":8000", "Listen address")
	configPath  = flag.String("config", "", "Capture config JSON file (defaults to "+config.DefaultConfigPath+" when present)")
	source      = flag.String("source", "", "Capture source: synthetic, dir:<path> or mjpeg:<url>")
	dbPath      = flag.String("db", "cubeface.db", "SQLite database for presets and the session log (empty disables)")
	preset      = flag.String("preset", "", "Stored capture preset to apply")
	devMode     = flag.Bool("dev", false, "Run in dev mode with the synthetic source")
	showVersion = flag.Bool("version", false, "Print version information and exit")
)

func main() {
	flag.Parse()

	if *showVersion {
		fmt.Println(version.String())
		return
	}
	if *listen == "" {
		log.Fatal("Listen address is required")
	}

	base, err := loadBaseConfig(*configPath, config.DefaultConfigPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	var database *db.DB
	if *dbPath != "" {
		database, err = db.OpenDB(*dbPath)
		if err != nil {
			log.Fatalf("Failed to connect to database: %v", err)
		}
		defer database.Close()
	}

	cfg, err := resolveConfig(base, database, *preset, *source, *devMode)
	if err != nil {
		log.Fatalf("invalid capture configuration: %v", err)
	}

	ln, err := net.Listen("tcp", *listen)
	if err != nil {
		log.Fatalf("failed to listen on %s: %v", *listen, err)
	}
	log.Printf("cubeface %s listening on %s (source %s)", version.Version, ln.Addr(), cfg.GetSource())

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, ln, cfg, database, *preset); err != nil {
		log.Printf("cubeface stopped: %v", err)
		stop()
		os.Exit(1)
	}
	log.Printf("Graceful shutdown complete")
}
