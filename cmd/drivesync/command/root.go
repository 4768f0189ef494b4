// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Package command provides the root and sub-commands of drivesync.
// Commands are organized using the cobra library. The root command
// starts the web server itself while the "db" sub-command initializes
// the database and the "token" sub-command mints development tokens.
//
//	./drivesync [-c /path/of/config.yaml]           # start web server
//	./drivesync db init-dev [-c /path/of/config.yaml]
//	./drivesync db init-prod [-c /path/of/config.yaml]
//	./drivesync token --user UUID --role driver [-c /path/of/config.yaml]
package command

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rohandhobale/drivesync/pkg/adapter/config"
	"github.com/rohandhobale/drivesync/pkg/adapter/restful/gin/routes"
	"github.com/rohandhobale/drivesync/pkg/core/log"
	"github.com/rohandhobale/drivesync/pkg/core/repo"
	"github.com/rohandhobale/drivesync/pkg/core/usecase/shipmentuc"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 10 * time.Second

var cfgPath string

var rootCmd = &cobra.Command{
	Use:   "drivesync",
	Short: "Logistics marketplace for businesses and drivers",
	Long: `drivesync connects businesses which post shipments with the
drivers who carry them. Businesses create shipments, drivers request
them, and the business accepts one driver who reports the shipment
location and status until it is delivered. Every change is pushed to
the tracking websocket clients and optionally to Kafka and RabbitMQ.`,
	RunE: startWebServer,
	Args: cobra.NoArgs,
}

func startWebServer(_ *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(
		context.Background(), os.Interrupt, syscall.SIGTERM,
	)
	defer stop()
	c, err := config.LoadFile(cfgPath)
	if err != nil {
		return fmt.Errorf("config.LoadFile(%q): %w", cfgPath, err)
	}
	log.Info(ctx, "configs are loaded", log.Valuer("config", c))
	p, err := c.Database.ConnectionPool(ctx, repo.NormalRole)
	if err != nil {
		return fmt.Errorf("creating DB pool: %w", err)
	}
	defer p.Close()

	var closers []io.Closer
	defer func() {
		for _, cl := range closers {
			if err := cl.Close(); err != nil {
				log.Warn(ctx, "closing component", log.Err("err", err))
			}
		}
	}()
	hub := c.Events.WebSocket.NewHub()
	closers = append(closers, hub)
	opts := []shipmentuc.Option{shipmentuc.WithNotifier(hub)}
	cache, err := c.Cache.NewCache(ctx)
	if err != nil {
		return fmt.Errorf("creating shipments cache: %w", err)
	}
	if cache != nil {
		closers = append(closers, cache)
		opts = append(opts, shipmentuc.WithCache(cache))
	}
	if kp := c.Events.Kafka.NewPublisher(); kp != nil {
		closers = append(closers, kp)
		opts = append(opts, shipmentuc.WithNotifier(kp))
	}
	rp, err := c.Events.RabbitMQ.NewPublisher()
	if err != nil {
		return fmt.Errorf("creating rabbitmq publisher: %w", err)
	}
	if rp != nil {
		closers = append(closers, rp)
		opts = append(opts, shipmentuc.WithNotifier(rp))
	}
	uc, err := c.Usecases.Shipments.NewUseCase(p, opts...)
	if err != nil {
		return fmt.Errorf("creating shipments use case: %w", err)
	}
	auth, err := c.Auth.NewAuthenticator()
	if err != nil {
		return fmt.Errorf("creating authenticator: %w", err)
	}
	e := c.Gin.NewEngine()
	routes.Register(e, uc, auth, hub)
	return serve(ctx, &http.Server{Addr: c.Gin.Addr, Handler: e})
}

// serve runs `srv` until `ctx` is cancelled and then shuts it down
// gracefully.
func serve(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		log.Info(ctx, "listening", slog.String("addr", srv.Addr))
		errCh <- srv.ListenAndServe()
	}()
	select {
	case err := <-errCh:
		return fmt.Errorf("running http server: %w", err)
	case <-ctx.Done():
	}
	log.Info(ctx, "shutting down")
	sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(sctx); err != nil {
		return fmt.Errorf("shutting down http server: %w", err)
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("running http server: %w", err)
	}
	return nil
}

// Execute runs the rootCmd which in turn parses CLI arguments and
// flags and runs the most specific cobra command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(fixConfigPath)
	rootCmd.PersistentFlags().StringVarP(
		&cfgPath, "config", "c", "", "config file path",
	)
}

// fixConfigPath ensures that cfgPath is set respectively by either the
// CLI args, the CONFIG_FILE environment variable, or its default value.
func fixConfigPath() {
	if cfgPath != "" {
		return
	}
	var found bool
	if cfgPath, found = os.LookupEnv("CONFIG_FILE"); !found {
		cfgPath = "configs/sample-config.yaml"
	}
}
