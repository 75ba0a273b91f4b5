// Package serve implements the HTTP server command: one session served over
// the JSON API until interrupted.
package serve

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/echemtools/cellcycle-go/internal/api"
	"github.com/echemtools/cellcycle-go/internal/colors"
	"github.com/echemtools/cellcycle-go/internal/conf"
	"github.com/echemtools/cellcycle-go/internal/ingest"
	"github.com/echemtools/cellcycle-go/internal/logging"
	"github.com/echemtools/cellcycle-go/internal/session"
)

// Command creates the serve command.
func Command(settings *conf.Settings) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the cycling analysis API",
		Long:  "Start the HTTP API serving one analysis session for the display layer.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(settings)
		},
	}

	if err := setupFlags(cmd, settings); err != nil {
		fmt.Printf("error setting up flags: %v\n", err)
		os.Exit(1)
	}

	return cmd
}

func setupFlags(cmd *cobra.Command, settings *conf.Settings) error {
	cmd.Flags().StringVar(&settings.WebServer.Host, "host", viper.GetString("webserver.host"), "Address to listen on")
	cmd.Flags().StringVar(&settings.WebServer.Port, "port", viper.GetString("webserver.port"), "Port to listen on")

	if err := viper.BindPFlags(cmd.Flags()); err != nil {
		return fmt.Errorf("error binding flags: %v", err)
	}

	return nil
}

func runServer(settings *conf.Settings) error {
	logger := logging.ForService("serve")

	// Server lifecycle events additionally go to the rotating log file when
	// file logging is enabled.
	if settings.Main.Log.Enabled {
		fileLogger, closeLog, err := logging.NewFileLogger(settings.Main.Log.Path, "serve", slog.LevelInfo)
		if err != nil {
			return err
		}
		defer func() {
			if err := closeLog(); err != nil {
				logger.Warn("failed to close log file", "error", err)
			}
		}()
		logger = fileLogger
	}

	s := session.New()
	s.SetShadeBand(settings.Plot.ShadeMinLightness, settings.Plot.ShadeMaxLightness)
	if base, err := colors.FromHex(settings.Plot.DefaultBaseColor); err == nil {
		s.SetDefaultBaseColor(base)
	} else {
		logger.Warn("invalid plot.defaultbasecolor, using palette", "value", settings.Plot.DefaultBaseColor)
	}

	// On a crash the whole session state goes to a numbered dump file for
	// post-mortem inspection before the panic propagates.
	defer func() {
		if r := recover(); r != nil {
			if path, err := s.WriteDump(settings.Session.DumpPath, fmt.Sprint(r)); err == nil {
				logger.Error("panic, session dumped", "dump", path, "panic", r)
			} else {
				logger.Error("panic, session dump failed", "error", err, "panic", r)
			}
			panic(r)
		}
	}()

	e := echo.New()
	e.HideBanner = true
	e.Debug = settings.WebServer.Debug

	parsers := ingest.RegisteredParsers()
	if len(parsers) == 0 {
		logger.Warn("no instrument parsers registered, uploads will be rejected")
	}
	api.New(e, settings, s, parsers)

	addr := net.JoinHostPort(settings.WebServer.Host, settings.WebServer.Port)
	errChan := make(chan error, 1)
	go func() {
		logger.Info("server starting", "addr", addr, "session", s.Token())
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			errChan <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errChan:
		return err
	case sig := <-quit:
		logger.Info("shutting down", "signal", sig.String())
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return e.Shutdown(ctx)
}
