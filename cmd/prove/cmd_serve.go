// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/AleutianProve/pkg/logging"
	"github.com/AleutianAI/AleutianProve/pkg/ux"
	"github.com/AleutianAI/AleutianProve/services/prover"
	"github.com/AleutianAI/AleutianProve/services/prover/config"
	"github.com/AleutianAI/AleutianProve/services/prover/telemetry"
)

var (
	servePort    int  // --port override
	serveNoWatch bool // --no-watch
)

// runServe starts the prover HTTP service and blocks until SIGINT or
// SIGTERM.
func runServe(cmd *cobra.Command, args []string) {
	ctx, cancel := signalContext()
	defer cancel()

	fc := config.Global

	logger := logging.New(logging.Config{
		Level:   logging.ParseLevel(fc.Logging.Level),
		LogDir:  fc.Logging.File,
		Service: "prover-service",
	})
	defer logger.Close()
	logger.SetAsDefault()

	tcfg := telemetry.DefaultConfig()
	tcfg.ServiceVersion = version
	shutdown, err := telemetry.Init(ctx, tcfg)
	if err != nil {
		ux.Error(fmt.Sprintf("Telemetry init failed: %v", err))
		os.Exit(1)
	}
	defer func() {
		sctx, scancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer scancel()
		_ = shutdown(sctx)
	}()

	scfg := prover.FromProveConfig(fc)
	if snapshotDir != "" {
		scfg.SnapshotDir = snapshotDir
	}
	if servePort != 0 {
		scfg.Port = servePort
	}
	if serveNoWatch {
		scfg.WatchEnabled = false
	}

	svc, err := prover.NewService(scfg)
	if err != nil {
		ux.Error(fmt.Sprintf("Service setup failed: %v", err))
		os.Exit(1)
	}
	if err := svc.Start(ctx); err != nil {
		ux.Error(fmt.Sprintf("Service start failed: %v", err))
		os.Exit(1)
	}
	defer svc.Stop()

	router := prover.NewRouter(prover.NewHandlers(svc), scfg)
	addr := net.JoinHostPort(scfg.Host, strconv.Itoa(scfg.Port))
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	ux.Success(fmt.Sprintf("Prover service listening on http://%s", addr))
	if snap := svc.Snapshot(); snap != nil {
		ux.Info(fmt.Sprintf("%d lemmas indexed (build %s)", snap.Index.Len(), snap.BuildID))
	}

	select {
	case <-ctx.Done():
		ux.Muted("Shutting down")
		sctx, scancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer scancel()
		if err := srv.Shutdown(sctx); err != nil {
			logger.Error("Server shutdown failed", "error", err)
		}
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			ux.Error(fmt.Sprintf("Server failed: %v", err))
			os.Exit(1)
		}
	}
}
