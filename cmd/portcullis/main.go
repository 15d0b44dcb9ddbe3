package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/mattjoyce/portcullis/internal/config"
	"github.com/mattjoyce/portcullis/internal/event"
	"github.com/mattjoyce/portcullis/internal/githubapp"
	"github.com/mattjoyce/portcullis/internal/handlers"
	"github.com/mattjoyce/portcullis/internal/log"
	"github.com/mattjoyce/portcullis/internal/pipeline"
	"github.com/mattjoyce/portcullis/internal/webhook"
)

const version = "0.1.0"

const defaultConfigPath = "./config.yaml"

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	cmd := os.Args[1]
	args := os.Args[2:]

	switch cmd {
	// --- NOUNS ---
	case "system":
		os.Exit(runSystemNoun(args))
	case "config":
		os.Exit(runConfigNoun(args))

	// --- ROOT ALIASES ---
	case "start":
		os.Exit(runStart(args))
	case "doctor":
		os.Exit(runConfigCheck(args))
	case "version":
		fmt.Printf("portcullis version %s\n", version)
		os.Exit(0)
	case "help", "--help", "-h":
		printUsage()
		os.Exit(0)

	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", cmd)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Print(`portcullis - GitHub App webhook authentication gateway

Usage:
  portcullis <noun> <action> [flags]

System Commands:
  system start      Start the gateway in foreground
  start             Alias for 'system start'

Config Commands:
  config lock       Authorize current config (update integrity checksums)
  config check      Validate config syntax, credentials, and integrity
  doctor            Alias for 'config check'

General:
  version           Show version information
  help              Show this help message
`)
}

func isHelpToken(arg string) bool {
	return arg == "help" || arg == "--help" || arg == "-h"
}

// --- NOUN DISPATCHERS ---

func runSystemNoun(args []string) int {
	if len(args) < 1 || isHelpToken(args[0]) {
		printUsage()
		if len(args) < 1 {
			return 1
		}
		return 0
	}
	switch args[0] {
	case "start":
		return runStart(args[1:])
	default:
		fmt.Fprintf(os.Stderr, "Unknown system action: %s\n", args[0])
		return 1
	}
}

func runConfigNoun(args []string) int {
	if len(args) < 1 || isHelpToken(args[0]) {
		printUsage()
		if len(args) < 1 {
			return 1
		}
		return 0
	}
	switch args[0] {
	case "lock":
		return runConfigLock(args[1:])
	case "check":
		return runConfigCheck(args[1:])
	default:
		fmt.Fprintf(os.Stderr, "Unknown config action: %s\n", args[0])
		return 1
	}
}

// --- ACTIONS ---

func runStart(args []string) int {
	fs := flag.NewFlagSet("start", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "path to config file")
	fs.Parse(args)

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	log.Setup(cfg.Service.LogLevel, cfg.Service.LogFormat)
	logger := log.WithComponent("main")

	if err := config.Check(*configPath); err != nil {
		logger.Warn("config integrity not verified", "error", err)
	}

	creds, err := githubapp.LoadCredentials(cfg.GitHub)
	if err != nil {
		// Startup-fatal: a gateway that cannot sign assertions must not serve.
		logger.Error("failed to load app credentials", "error", err)
		return 1
	}

	webhookCfg, err := webhook.FromConfig(cfg.Webhook)
	if err != nil {
		logger.Error("invalid webhook config", "error", err)
		return 1
	}

	dispatcher := event.NewDispatcher(log.WithComponent("dispatch"))
	if label := cfg.Handlers.IssueLabel; label != "" {
		dispatcher.Register("issues", "opened", handlers.LabelOpenedIssues(label))
		logger.Info("registered built-in handler", "event", "issues", "action", "opened", "label", label)
	}

	p := pipeline.New(
		creds,
		githubapp.NewIssuer(creds),
		githubapp.NewExchanger(creds.APIBaseURL, cfg.GitHub.ExchangeTimeout),
		dispatcher,
		log.WithComponent("pipeline"),
		pipeline.WithRetryTransient(cfg.GitHub.RetryTransient),
	)

	server := webhook.New(webhookCfg, p, log.WithComponent("webhook"))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info("portcullis starting",
		"version", version,
		"app_id", cfg.GitHub.AppID,
		"listen", webhookCfg.Listen,
	)

	if err := server.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("server exited", "error", err)
		return 1
	}

	logger.Info("portcullis stopped")
	return 0
}

func runConfigLock(args []string) int {
	fs := flag.NewFlagSet("config lock", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "path to config file")
	fs.Parse(args)

	if err := config.Lock(*configPath); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	fmt.Printf("Locked %s\n", *configPath)
	return 0
}

func runConfigCheck(args []string) int {
	fs := flag.NewFlagSet("config check", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "path to config file")
	fs.Parse(args)

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config invalid: %v\n", err)
		return 1
	}

	// Prove the credentials usable, not just present.
	if _, err := githubapp.LoadCredentials(cfg.GitHub); err != nil {
		fmt.Fprintf(os.Stderr, "Credentials invalid: %v\n", err)
		return 1
	}

	if _, err := webhook.FromConfig(cfg.Webhook); err != nil {
		fmt.Fprintf(os.Stderr, "Webhook config invalid: %v\n", err)
		return 1
	}

	if err := config.Check(*configPath); err != nil {
		fmt.Fprintf(os.Stderr, "Integrity check failed: %v\n", err)
		return 1
	}

	fmt.Println("Config OK")
	return 0
}
