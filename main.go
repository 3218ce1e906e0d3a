package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/petervdpas/notewatch/internal/app"
	"github.com/petervdpas/notewatch/internal/config"
)

// set via -ldflags "-X main.appVersion=..."
var appVersion = "dev"

func main() {
	showHelp := flag.Bool("h", false, "show help")
	showVersion := flag.Bool("version", false, "show version")
	addr := flag.String("addr", "", "override viewer listen address (host:port)")
	flag.Usage = showUsage
	flag.Parse()

	if *showHelp {
		showUsage()
		return
	}
	if *showVersion {
		fmt.Printf("notewatch %s\n", appVersion)
		return
	}

	dirArg := "."
	if flag.NArg() > 0 {
		dirArg = flag.Arg(0)
	}

	absDir, err := filepath.Abs(dirArg)
	if err != nil {
		log.Fatalf("Invalid directory: %v", err)
	}
	if stat, err := os.Stat(absDir); err != nil || !stat.IsDir() {
		log.Fatalf("Directory does not exist: %s", absDir)
	}

	cfgPath := filepath.Join(absDir, "notewatch.json")
	cfg, created, err := config.Ensure(cfgPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if created {
		log.Printf("Created default config: %s", cfgPath)
	}
	if *addr != "" {
		cfg.Viewer.HTTPAddr = *addr
		if err := cfg.Validate(); err != nil {
			log.Fatalf("Invalid -addr: %v", err)
		}
	}

	printBanner(absDir, cfgPath, cfg)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := app.Run(ctx, app.Options{
		DataDir: absDir,
		CfgPath: cfgPath,
		Cfg:     cfg,
	}); err != nil {
		log.Fatalf("Notewatch failed: %v", err)
	}
}

func showUsage() {
	fmt.Println("Notewatch - live markdown notes viewer and editor")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  notewatch [directory]")
	fmt.Println()
	fmt.Println("  The directory holds a notewatch.json configuration file; one is")
	fmt.Println("  created with defaults on first run. The notes tree and database")
	fmt.Println("  paths in the config resolve relative to this directory.")
	fmt.Println()
	fmt.Println("Options:")
	fmt.Println("  -addr     Override the viewer listen address (host:port)")
	fmt.Println("  -h        Show this help message")
	fmt.Println("  -version  Show version information")
	fmt.Println()
	fmt.Println("Examples:")
	fmt.Println("  # Serve the current directory")
	fmt.Println("  notewatch")
	fmt.Println()
	fmt.Println("  # Serve a specific notes workspace on another port")
	fmt.Println("  notewatch -addr 127.0.0.1:4444 ~/notes")
}

func printBanner(dir, cfgPath string, cfg config.Config) {
	fmt.Println("╔════════════════════════════════════════════════════════╗")
	fmt.Println("║                       Notewatch                        ║")
	fmt.Println("╚════════════════════════════════════════════════════════╝")
	fmt.Println()
	fmt.Printf("Workspace:    %s\n", dir)
	fmt.Printf("Config File:  %s\n", cfgPath)
	fmt.Printf("Notes Root:   %s\n", cfg.Paths.NotesRoot)
	fmt.Println()

	viewerURL := cfg.Viewer.HTTPAddr
	if viewerURL != "" && viewerURL[0] == ':' {
		viewerURL = "127.0.0.1" + viewerURL
	}
	fmt.Printf("🌐 Viewer:  http://%s\n", viewerURL)
	fmt.Println()
	fmt.Println("Starting... (Press Ctrl+C to stop)")
	fmt.Println("────────────────────────────────────────────────────────")
	fmt.Println()
}
