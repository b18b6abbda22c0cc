package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/aussiebroadwan/classrecord/internal/app"
	"github.com/aussiebroadwan/classrecord/pkg/classrecord"
	"github.com/aussiebroadwan/classrecord/pkg/slogx"
	"github.com/spf13/cobra"
)

var (
	flagDebug     bool
	flagLogLevel  string
	flagLogFormat string

	application *app.App
)

// NewRootCmd creates the root cobra command for the classrecord CLI.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "classrecord",
		Short: "Class record client",
		Long: "classrecord talks to the class record API: sign in, view loads and grades,\n" +
			"take attendance and enroll by scanning codes.\n\n" +
			"Configuration comes from .env and the environment (BASE_ENDPOINT, API_KEY, ...).",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// A failed run skips PersistentPostRunE.
			_ = closeApp()

			cfg, err := app.LoadConfig()
			if err != nil {
				return err
			}
			if flagLogLevel != "" {
				cfg.LogLevel = flagLogLevel
			}
			if flagDebug {
				cfg.LogLevel = "debug"
			}
			if flagLogFormat != "" {
				cfg.LogFormat = flagLogFormat
			}

			logger := slogx.New(slogx.Config{
				Service: "classrecord",
				Version: app.BuildVersion,
				Env:     cfg.Env,
				Level:   cfg.LogLevel,
				Format:  cfg.LogFormat,
				Writer:  cmd.ErrOrStderr(),
			})

			application, err = app.New(cmd.Context(), cfg,
				app.WithLogger(logger),
				app.WithSessionExpiredHook(func(ctx context.Context) {
					slogx.FromContext(ctx).Warn("session expired, log in again")
				}),
			)
			if err != nil {
				return err
			}
			cmd.SetContext(slogx.WithContext(cmd.Context(), logger))
			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return closeApp()
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().BoolVar(&flagDebug, "debug", false, "Enable debug logging")
	root.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "Log level (debug, info, warn, error); overrides LOG_LEVEL")
	root.PersistentFlags().StringVar(&flagLogFormat, "log-format", "", "Log format (text, json); overrides LOG_FORMAT")

	root.AddCommand(
		newLoginCmd(),
		newLogoutCmd(),
		newWhoamiCmd(),
		newRegisterCmd(),
		newTeacherCmd(),
		newStudentCmd(),
		newChoicesCmd(),
		newCompositionCmd(),
		newScanCmd(),
	)

	return root
}

// Execute runs the command tree and turns API failures into readable errors.
func Execute(ctx context.Context) error {
	err := NewRootCmd().ExecuteContext(ctx)
	_ = closeApp()
	return describe(err)
}

func closeApp() error {
	if application == nil {
		return nil
	}
	err := application.Close()
	application = nil
	return err
}

func describe(err error) error {
	if err == nil {
		return nil
	}
	if classrecord.IsSessionExpired(err) {
		return errors.New("session expired or not logged in; run `classrecord login`")
	}
	var apiErr *classrecord.APIError
	if errors.As(err, &apiErr) {
		return fmt.Errorf("%s (HTTP %d)", apiErr.Message, apiErr.StatusCode)
	}
	return err
}

func log(cmd *cobra.Command) *slog.Logger {
	return slogx.FromContext(cmd.Context())
}
