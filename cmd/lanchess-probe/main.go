// Command lanchess-probe checks that the game server's query endpoint and
// event channel are reachable with the current configuration.
package main

import (
	"context"
	"log"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/park285/lanchess/internal/config"
	"github.com/park285/lanchess/internal/obslog"
	"github.com/park285/lanchess/internal/protocol"
	"github.com/park285/lanchess/internal/transport"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}
	if err := obslog.InitFromEnv(obslog.Options{ConsoleDefault: true}); err != nil {
		log.Fatalf("logger init error: %v", err)
	}
	defer obslog.Sync()
	logger := obslog.L().Named("probe")

	game := envOr("LANCHESS_PROBE_GAME", "probe")
	window := 10 * time.Second
	if v, err := time.ParseDuration(os.Getenv("LANCHESS_PROBE_WINDOW")); err == nil && v > 0 {
		window = v
	}

	headers := transport.ClientHeaders(transport.NewClientID())
	client := transport.NewClient(cfg.HTTPURL,
		transport.WithHeaderProvider(headers),
		transport.WithTimeout(cfg.QueryTimeout),
	)

	ctx, cancel := context.WithTimeout(context.Background(), cfg.QueryTimeout+time.Second)
	targets, err := client.LegalMoves(ctx, game, protocol.Coordinate("e2"))
	cancel()
	if err != nil {
		// Any HTTP answer proves the endpoint is up; an unknown game is expected.
		logger.Warn("probe_query_error", zap.String("url", cfg.HTTPURL), zap.Error(err))
	} else {
		logger.Info("probe_query_ok", zap.String("url", cfg.HTTPURL), zap.Any("targets", targets.Sorted()))
	}

	ws := transport.NewWebSocket(cfg.WSURL,
		transport.WithReconnect(0, 0),
		transport.WithHandshakeHeaders(headers),
		transport.WithLogger(logger.Named("ws")),
	)
	ws.OnStateChange(func(state transport.State) {
		logger.Info("probe_ws_state", zap.String("state", state.String()))
	})
	ws.OnMessage(func(env protocol.Envelope) {
		logger.Info("probe_ws_message", zap.String("event", env.Event), zap.ByteString("data", env.Data))
	})

	cctx, ccancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer ccancel()
	if err := ws.Connect(cctx); err != nil {
		logger.Error("probe_ws_connect_failed", zap.String("url", cfg.WSURL), zap.Error(err))
		os.Exit(1)
	}

	t := time.NewTimer(window)
	<-t.C

	_ = ws.Close(context.Background())
}

func envOr(k, def string) string {
	if v := strings.TrimSpace(os.Getenv(k)); v != "" {
		return v
	}
	return def
}
