package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonathan/job-pilot/internal/config"
	"github.com/jonathan/job-pilot/internal/server"
)

var (
	servePort        int
	serveConfigPath  string
	serveFallbackGen bool
	serveUseBrowser  bool
	serveVerbose     bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the REST API server",
	Long:  `Start an HTTP server that exposes REST endpoints for the profile, skill, application and resume operations.`,
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 8080, "Port to listen on")
	serveCmd.Flags().StringVar(&serveConfigPath, "config", "", "Path to a JSON config file")
	serveCmd.Flags().BoolVar(&serveFallbackGen, "fallback-generator", false, "Use the deterministic template generator instead of the AI")
	serveCmd.Flags().BoolVar(&serveUseBrowser, "browser", false, "Render SPA job postings with a headless browser")
	serveCmd.Flags().BoolVar(&serveVerbose, "verbose", false, "Print detailed debug information")
	rootCmd.AddCommand(serveCmd)
}

func runServe(_ *cobra.Command, _ []string) error {
	cfg := config.FromEnv()
	if serveConfigPath != "" {
		fileCfg, err := config.Load(serveConfigPath)
		if err != nil {
			return err
		}
		merged := fileCfg.MergeWithDefaults(*cfg)
		cfg = &merged
	}
	if cfg.Port == 0 {
		cfg.Port = servePort
	}

	// Flags win over the config file for behavior toggles.
	if serveFallbackGen {
		cfg.UseFallbackGenerator = true
	}
	if serveUseBrowser {
		cfg.UseBrowser = true
	}
	if serveVerbose {
		cfg.Verbose = true
	}

	if err := cfg.Validate(); err != nil {
		return err
	}
	if cfg.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL environment variable is required")
	}

	srv, err := server.New(server.Config{
		Port:                 cfg.Port,
		DatabaseURL:          cfg.DatabaseURL,
		APIKey:               cfg.APIKey,
		UseFallbackGenerator: cfg.UseFallbackGenerator,
		UseBrowser:           cfg.UseBrowser,
		Verbose:              cfg.Verbose,
	})
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	return srv.Start()
}
