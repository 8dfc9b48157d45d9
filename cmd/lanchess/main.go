// Command lanchess is the terminal board client.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gdamore/tcell/v2"
	"go.uber.org/zap"

	"github.com/park285/lanchess/internal/config"
	"github.com/park285/lanchess/internal/feedback"
	"github.com/park285/lanchess/internal/obslog"
	"github.com/park285/lanchess/internal/session"
	"github.com/park285/lanchess/internal/tui"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}
	// The terminal belongs to the board, so logs go to file only.
	if err := obslog.InitFromEnv(obslog.Options{ConsoleDefault: false}); err != nil {
		log.Fatalf("logger init error: %v", err)
	}
	defer obslog.Sync()
	logger := obslog.L()

	screen, err := tcell.NewScreen()
	if err != nil {
		log.Fatalf("screen error: %v", err)
	}

	d, err := session.New(cfg, logger,
		session.WithPlayer(feedback.NewPlayer(cfg.CueMode, screen, nil, logger.Named("cue"))),
	)
	if err != nil {
		log.Fatalf("session init error: %v", err)
	}

	actions := &tui.SessionActions{Sess: d, Logger: logger.Named("tui")}
	ui := tui.New(screen, d.Catalog, actions)
	actions.Notify = ui.Notify
	d.OnFrame(ui.Push)

	cctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	if err := d.Start(cctx); err != nil {
		// Reconnects keep trying; the status bar shows the outage.
		logger.Warn("lanchess_start_degraded", zap.Error(err))
	}
	cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		ui.Stop()
	}()

	if err := ui.Run(); err != nil {
		logger.Error("lanchess_ui_failed", zap.Error(err))
	}

	sctx, scancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer scancel()
	if err := d.Close(sctx); err != nil {
		logger.Warn("lanchess_close", zap.Error(err))
	}
}
