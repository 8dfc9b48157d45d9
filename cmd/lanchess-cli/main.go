// Command lanchess-cli plays through a line prompt instead of the board UI.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/chzyer/readline"
	"go.uber.org/zap"

	"github.com/park285/lanchess/internal/config"
	"github.com/park285/lanchess/internal/console"
	"github.com/park285/lanchess/internal/feedback"
	"github.com/park285/lanchess/internal/obslog"
	"github.com/park285/lanchess/internal/session"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}
	if err := obslog.InitFromEnv(obslog.Options{ConsoleDefault: false}); err != nil {
		log.Fatalf("logger init error: %v", err)
	}
	defer obslog.Sync()
	logger := obslog.L()

	color := readline.DefaultIsTerminal() && os.Getenv("NO_COLOR") == ""
	rlCfg := &readline.Config{
		Prompt:          "lanchess > ",
		HistoryFile:     historyFile(),
		InterruptPrompt: "^C",
		EOFPrompt:       "quit",
	}
	rl, err := readline.NewEx(rlCfg)
	if err != nil {
		log.Fatalf("readline error: %v", err)
	}
	defer rl.Close()
	out := rl.Stdout()

	d, err := session.New(cfg, logger,
		session.WithPlayer(feedback.NewPlayer(cfg.CueMode, nil, out, logger.Named("cue"))),
	)
	if err != nil {
		log.Fatalf("session init error: %v", err)
	}

	notifier := console.NewNotifier(out, d.Catalog)
	d.OnFrame(notifier.Observe)

	backend := &console.SessionBackend{Sess: d, DragWait: cfg.QueryTimeout + 500*time.Millisecond}
	reg := console.NewRegistry(backend, out, d.Catalog, color)
	rlCfg.AutoComplete = console.Completer(reg)
	rl.SetConfig(rlCfg)

	cctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	if err := d.Start(cctx); err != nil {
		fmt.Fprintln(out, d.Catalog.Text("status.disconnected", nil))
		logger.Warn("lanchess_cli_start_degraded", zap.Error(err))
	}
	cancel()

	fmt.Fprint(out, d.Catalog.Text("console.help", nil))
	prompt := func() string {
		f, err := d.CurrentFrame()
		if err != nil {
			return "lanchess > "
		}
		return console.Prompt(f, color)
	}
	if err := console.Run(rl, reg, prompt, logger.Named("console")); err != nil {
		logger.Error("lanchess_cli_failed", zap.Error(err))
	}

	sctx, scancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer scancel()
	if err := d.Close(sctx); err != nil {
		logger.Warn("lanchess_cli_close", zap.Error(err))
	}
}

func historyFile() string {
	if v := strings.TrimSpace(os.Getenv("LANCHESS_HISTORY")); v != "" {
		return v
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".lanchess_history")
}
