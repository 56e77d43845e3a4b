package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/ironsheep/tattoo-studio/internal/app"
	"github.com/ironsheep/tattoo-studio/internal/config"
	"github.com/ironsheep/tattoo-studio/internal/server"
)

// Version information - set by ldflags during build
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	var configPath string
	var initConfig bool
	args := os.Args[1:]
	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "--version", "-v", "version":
			fmt.Printf("tattoo-mcp %s\n", Version)
			fmt.Printf("  Build time: %s\n", BuildTime)
			fmt.Printf("  Git commit: %s\n", GitCommit)
			return
		case "--help", "-h", "help":
			printHelp()
			return
		case "--init-config":
			initConfig = true
		case "--config", "-c":
			if i+1 >= len(args) {
				fmt.Fprintln(os.Stderr, "--config needs a path")
				os.Exit(2)
			}
			i++
			configPath = args[i]
		default:
			fmt.Fprintf(os.Stderr, "unknown option %q (see --help)\n", args[i])
			os.Exit(2)
		}
	}

	// Configure logging to stderr (stdout is for MCP protocol)
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
	if cfg.Log.Debug() {
		log.Printf("Tattoo MCP Server v%s (built %s, commit %s)", Version, BuildTime, GitCommit)
	}

	services, err := app.Open(cfg)
	if err != nil {
		log.Fatalf("Startup error: %v", err)
	}
	defer services.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := server.New(
		server.WithGenerator(services.Generator),
		server.WithDesigns(services.Designs()),
		server.WithRenderCache(services.Renders),
		server.WithVersion(Version),
	)
	if err := srv.Run(ctx); err != nil && ctx.Err() == nil {
		services.Close()
		log.Fatalf("Server error: %v", err)
	}
}

func printHelp() {
	fmt.Println("tattoo-mcp - MCP server for tattoo design and placement previews")
	fmt.Println()
	fmt.Println("Usage: tattoo-mcp [options]")
	fmt.Println()
	fmt.Println("Options:")
	fmt.Println("  --config, -c PATH    Read settings from PATH (TOML)")
	fmt.Println("  --init-config        Write the default config (to --config PATH if given) and exit")
	fmt.Println("  --version, -v        Print version information")
	fmt.Println("  --help, -h           Print this help message")
	fmt.Println()
	fmt.Println("Environment variables:")
	fmt.Println("  STABILITY_API_KEY              Enable design generation")
	fmt.Println("  TATTOO_STUDIO_CONFIG           Config file used when --config is not given")
	fmt.Println("  TATTOO_STUDIO_LOG_LEVEL=debug  Enable debug logging")
	fmt.Println()
	fmt.Printf("Default config file: %s\n", config.DefaultPath())
	fmt.Println()
	fmt.Println("This server communicates via MCP protocol over stdin/stdout.")
	fmt.Println("Configure it in your MCP client (e.g., Claude Desktop).")
}
