package main

import (
	"context"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"strings"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/lorepo/lorepo/internal/config"
	"github.com/lorepo/lorepo/internal/console"
	"github.com/lorepo/lorepo/internal/database"
	"github.com/lorepo/lorepo/internal/logger"
	"github.com/lorepo/lorepo/internal/server"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	version  = "dev"
	revision = "none"
	date     = "unknown"

	cfg string
)

func main() {
	c := &cobra.Command{
		Use:           "lorepo",
		Short:         "Catalog of tagged items with dependencies",
		Version:       fmt.Sprintf("%s - build %.7s @ %s - %s", version, revision, date, runtime.Version()),
		Args:          cobra.ExactArgs(0),
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	c.PersistentFlags().StringVarP(&cfg, "config", "c", "", "Configuration file")

	c.AddCommand(migrateCmd)
	c.AddCommand(dropCmd)
	c.AddCommand(serverCmd)
	c.AddCommand(shellCmd)
	c.AddCommand(routesCmd)

	if err := c.Execute(); err != nil {
		log.Fatalf("%+v", err)
	}
}

func load() (*config.Config, error) {
	konf, err := config.Load(cfg)
	if err != nil {
		return nil, err
	}

	return konf, errors.Wrap(logger.Setup(konf.Log), "could not setup logger")
}

var (
	migrateCmd = &cobra.Command{
		Use:   "migrate",
		Short: "Create the database schema",
		Args:  cobra.ExactArgs(0),
		RunE: func(_ *cobra.Command, _ []string) error {
			konf, err := load()
			if err != nil {
				return err
			}

			if err = database.CreateSchema(konf.Database.DSN); err != nil {
				return err
			}
			logrus.Info("Schema created")
			return nil
		},
	}

	//
	dropCmd = &cobra.Command{
		Use:   "drop",
		Short: "Drop the database schema",
		Args:  cobra.ExactArgs(0),
		RunE: func(_ *cobra.Command, _ []string) error {
			konf, err := load()
			if err != nil {
				return err
			}

			if err = database.DropSchema(konf.Database.DSN); err != nil {
				return err
			}
			logrus.Info("Schema dropped")
			return nil
		},
	}

	//
	shellCmd = &cobra.Command{
		Use:   "shell",
		Short: "Interactive SQL shell on the database",
		Args:  cobra.ExactArgs(0),
		RunE: func(_ *cobra.Command, _ []string) error {
			konf, err := load()
			if err != nil {
				return err
			}

			db, err := database.Open(konf.Database)
			if err != nil {
				return err
			}
			defer db.Close()

			var history string
			if home, err := os.UserHomeDir(); err == nil {
				history = filepath.Join(home, ".lorepo_history")
			}

			return console.New(db, os.Stdout).Run(context.Background(), history)
		},
	}

	//
	routesCmd = &cobra.Command{
		Use:   "routes",
		Short: "Print the exposed routes",
		Args:  cobra.ExactArgs(0),
		RunE: func(_ *cobra.Command, _ []string) error {
			server.PrintRoutes(os.Stdout, server.EchoEngine(server.IOC{Version: version}))
			return nil
		},
	}

	//
	//
	serverCmd = &cobra.Command{
		Use:   "server",
		Short: "Start server",
		Args:  cobra.ExactArgs(0),
		RunE: func(_ *cobra.Command, _ []string) error {
			konf, err := load()
			if err != nil {
				return err
			}

			if err = database.CreateSchema(konf.Database.DSN); err != nil {
				return err
			}

			db, err := database.Open(konf.Database)
			if err != nil {
				return err
			}
			defer db.Close()

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if err = db.Ping(ctx); err != nil {
				return err
			}

			cyan := color.New(color.FgCyan)
			cyan.Printf("lorepo %s\n", version)
			gray := color.New(color.FgHiBlack)
			gray.Printf("    database: %s\n", konf.Database.DSN)
			gray.Printf("    page size: %d\n\n", konf.PageSize)

			if konf.NoAuth {
				logrus.Warnf("Authorization disabled, anonymous requests use the token %q", konf.FallbackToken)
			}

			engine := server.EchoEngine(server.IOC{
				Version:       version,
				Database:      db,
				Debug:         konf.Debug,
				PageSize:      konf.PageSize,
				NoAuth:        konf.NoAuth,
				FallbackToken: konf.FallbackToken,
			})
			server.PrintRoutes(logrus.StandardLogger().Writer(), engine)

			engine.Server = &http.Server{
				Handler:      engine,
				ReadTimeout:  konf.ReadTimeout,
				WriteTimeout: konf.WriteTimeout,
			}

			listener, err := listen(konf.Address)
			if err != nil {
				return err
			}

			go func() {
				<-ctx.Done()
				logrus.Info("Shutting down server")

				ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()
				if err := engine.Shutdown(ctx); err != nil {
					logrus.WithError(err).Error("Could not shutdown server")
				}
			}()

			logrus.Infof("Server listening on %s", konf.Address)
			err = engine.Server.Serve(listener)
			if errors.Is(err, http.ErrServerClosed) {
				return nil
			}
			return errors.Wrap(err, "could not run server")
		},
	}
)

// listen supports TCP addresses and `unix:/path/to/socket`.
func listen(address string) (net.Listener, error) {
	parts := strings.SplitN(address, ":", 2)
	if len(parts) == 2 && parts[0] == "unix" {
		socketFile := parts[1]
		if _, err := os.Stat(socketFile); err == nil {
			logrus.Infof("Removing existing %s", socketFile)
			os.Remove(socketFile)
		}

		listener, err := net.Listen(parts[0], socketFile)
		return listener, errors.Wrap(err, "could not listen on socket")
	}

	listener, err := net.Listen("tcp", address)
	return listener, errors.Wrap(err, "could not listen")
}
