package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ironsheep/tattoo-studio/internal/app"
	"github.com/ironsheep/tattoo-studio/internal/config"
	"github.com/ironsheep/tattoo-studio/internal/web"
)

// Version information - set by ldflags during build
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	var configPath, addr string
	var initConfig bool
	args := os.Args[1:]
	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "--version", "-v", "version":
			fmt.Printf("tattoo-web %s\n", Version)
			fmt.Printf("  Build time: %s\n", BuildTime)
			fmt.Printf("  Git commit: %s\n", GitCommit)
			return
		case "--help", "-h", "help":
			printHelp()
			return
		case "--init-config":
			initConfig = true
		case "--config", "-c", "--addr":
			if i+1 >= len(args) {
				fmt.Fprintf(os.Stderr, "%s needs a value\n", args[i])
				os.Exit(2)
			}
			if args[i] == "--addr" {
				addr = args[i+1]
			} else {
				configPath = args[i+1]
			}
			i++
		default:
			fmt.Fprintf(os.Stderr, "unknown option %q (see --help)\n", args[i])
			os.Exit(2)
		}
	}

	log.SetOutput(os.Stderr)
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)

	if initConfig {
		path, err := app.InitConfig(configPath)
		if err != nil {
			log.Fatalf("Config error: %v", err)
		}
		fmt.Printf("Wrote default config to %s\n", path)
		return
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("Config error: %v", err)
	}
	if addr != "" {
		cfg.Web.Addr = addr
	}
	if cfg.Log.Debug() {
		log.Printf("Tattoo web server v%s (built %s, commit %s)", Version, BuildTime, GitCommit)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	services, err := app.Open(cfg)
	if err != nil {
		log.Fatalf("Startup error: %v", err)
	}
	defer services.Close()

	api := web.NewAPI(services.Generator, services.Designs(), services.Renders)
	srv := &http.Server{
		Addr:              cfg.Web.Addr,
		Handler:           web.NewRouter(api),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errc := make(chan error, 1)
	go func() {
		log.Printf("Listening on %s", cfg.Web.Addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if !errors.Is(err, http.ErrServerClosed) {
			services.Close()
			log.Fatalf("Server error: %v", err)
		}
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Printf("Shutdown error: %v", err)
		}
	}
}

func printHelp() {
	fmt.Println("tattoo-web - HTTP API for tattoo design and placement previews")
	fmt.Println()
	fmt.Println("Usage: tattoo-web [options]")
	fmt.Println()
	fmt.Println("Options:")
	fmt.Println("  --config, -c PATH    Read settings from PATH (TOML)")
	fmt.Println("  --addr ADDR          Listen address, overriding web.addr")
	fmt.Println("  --init-config        Write the default config (to --config PATH if given) and exit")
	fmt.Println("  --version, -v        Print version information")
	fmt.Println("  --help, -h           Print this help message")
	fmt.Println()
	fmt.Println("Environment variables:")
	fmt.Println("  STABILITY_API_KEY              Enable design generation")
	fmt.Println("  TATTOO_STUDIO_CONFIG           Config file used when --config is not given")
	fmt.Println("  TATTOO_STUDIO_LOG_LEVEL=debug  Enable debug and request logging")
	fmt.Println("  PORT                           Listen on :PORT")
	fmt.Println()
	fmt.Printf("Default config file: %s\n", config.DefaultPath())
}
