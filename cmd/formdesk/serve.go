package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/goliatone/go-formdesk/internal/config"
	"github.com/goliatone/go-formdesk/internal/server"
	"github.com/goliatone/go-formdesk/internal/store"
)

var serveCmd = &cobra.Command{
	Use:     "serve",
	Short:   "Run the reference store API backed by SQLite",
	GroupID: "system",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		flags := cmd.Flags()
		opts := cfg.Store
		if flags.Changed("listen") {
			opts.Listen, _ = flags.GetString("listen")
		}
		if flags.Changed("dsn") {
			opts.DSN, _ = flags.GetString("dsn")
		}
		if flags.Changed("upload-dir") {
			opts.UploadDir, _ = flags.GetString("upload-dir")
		}

		st, err := store.Open(cmd.Context(), opts.DSN)
		if err != nil {
			return err
		}
		defer st.Close()

		srv := server.New(st,
			server.WithLogger(logger.Named("server")),
			server.WithToken(opts.Token),
			server.WithUploadDir(opts.UploadDir),
			server.WithPublicURL(opts.PublicURL),
		)
		if opts.Token == "" {
			logger.Warn("store token is empty, API routes accept anonymous requests")
		}
		logger.Info("starting store",
			zap.String("dsn", opts.DSN),
			zap.String("upload_dir", opts.UploadDir),
		)
		return srv.ListenAndServe(cmd.Context(), opts.Listen)
	},
}

var configCmd = &cobra.Command{
	Use:     "config",
	Short:   "Inspect or initialise the configuration file",
	GroupID: "system",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration as TOML",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return cfg.Encode(cmd.OutOrStdout())
	},
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a default configuration file",
	Args:  cobra.NoArgs,
	// The file may not exist yet, so skip the root config loading.
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
	RunE: func(cmd *cobra.Command, args []string) error {
		path := configPath
		if path == "" {
			var err error
			if path, err = config.DefaultPath(); err != nil {
				return err
			}
		}
		force, _ := cmd.Flags().GetBool("force")
		if _, err := os.Stat(path); err == nil && !force {
			return fmt.Errorf("%s already exists (use --force to overwrite)", path)
		} else if err != nil && !errors.Is(err, os.ErrNotExist) {
			return err
		}
		if err := config.Default().Save(path); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", path)
		return nil
	},
}

var configFormatsCmd = &cobra.Command{
	Use:   "formats",
	Short: "List the export formats",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		formats := desk.Exporters().Formats()
		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), formats)
		}
		for _, info := range formats {
			fmt.Fprintf(cmd.OutOrStdout(), "%-5s  %-45s  %s\n", info.Name, info.Description, info.MIMEType)
		}
		return nil
	},
}

func init() {
	serveCmd.Flags().String("listen", "", "listen address (default store.listen)")
	serveCmd.Flags().String("dsn", "", "SQLite database path (default store.dsn)")
	serveCmd.Flags().String("upload-dir", "", "directory for uploaded files (default store.upload_dir)")

	configInitCmd.Flags().Bool("force", false, "overwrite an existing file")

	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configFormatsCmd)
}
