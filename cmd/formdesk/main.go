package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	formdesk "github.com/goliatone/go-formdesk"
	"github.com/goliatone/go-formdesk/internal/config"
	"github.com/goliatone/go-formdesk/internal/logging"
	"github.com/goliatone/go-formdesk/pkg/client"
	"github.com/goliatone/go-formdesk/pkg/orchestrator"
)

var (
	configPath string
	apiURL     string
	tokenFile  string
	logLevel   string
	jsonLogs   bool
	jsonOutput bool

	cfg    config.Config
	logger = logging.Nop()
	desk   *orchestrator.Orchestrator
)

var rootCmd = &cobra.Command{
	Use:           "formdesk <command>",
	Short:         "Build forms, collect submissions and report on responses",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return setup(cmd)
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logger.Sync()
	},
}

// setup resolves the configuration with flag overrides and connects the
// orchestrator to the store API.
func setup(cmd *cobra.Command) error {
	loaded, err := config.Load(configPath)
	if err != nil {
		return err
	}
	flags := cmd.Flags()
	if flags.Changed("api-url") {
		loaded.API.BaseURL = apiURL
	}
	if flags.Changed("token-file") {
		loaded.Credentials.TokenFile = tokenFile
	}
	if flags.Changed("log-level") {
		loaded.Log.Level = logLevel
	}
	if flags.Changed("json-logs") {
		loaded.Log.JSON = jsonLogs
	}
	if err := loaded.Validate(); err != nil {
		return err
	}
	cfg = loaded

	built, err := logging.New(cfg.Log.Level, cfg.Log.JSON)
	if err != nil {
		return err
	}
	logger = built

	loc, err := cfg.Location()
	if err != nil {
		return fmt.Errorf("export timezone: %w", err)
	}
	desk = formdesk.NewHTTP(cfg.API.BaseURL,
		[]client.Option{
			client.WithTimeout(cfg.API.Timeout),
			client.WithCredentials(cfg.CredentialProvider()),
			client.WithLogger(logger.Named("client")),
		},
		orchestrator.WithPageSize(cfg.Responses.PageSize),
		orchestrator.WithLocation(loc),
		orchestrator.WithPlaceholder(cfg.Export.Placeholder),
	)
	logger.Debug("configured",
		zap.String("api", cfg.API.BaseURL),
		zap.Duration("timeout", cfg.API.Timeout),
	)
	return nil
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&configPath, "config", "", "config file (default $FORMDESK_CONFIG or the user config dir)")
	flags.StringVar(&apiURL, "api-url", "", "store API base URL")
	flags.StringVar(&tokenFile, "token-file", "", "file holding the bearer token")
	flags.StringVar(&logLevel, "log-level", "", "log level: debug, info, warn or error")
	flags.BoolVar(&jsonLogs, "json-logs", false, "log as JSON")
	flags.BoolVar(&jsonOutput, "json", false, "output as JSON")

	rootCmd.AddGroup(
		&cobra.Group{ID: "forms", Title: "Forms:"},
		&cobra.Group{ID: "responses", Title: "Responses:"},
		&cobra.Group{ID: "system", Title: "System:"},
	)

	rootCmd.AddCommand(createCmd)
	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(contractCmd)

	rootCmd.AddCommand(fillCmd)
	rootCmd.AddCommand(submitCmd)
	rootCmd.AddCommand(responsesCmd)
	rootCmd.AddCommand(exportCmd)

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(configCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(1)
	}
}
