// Package session wires the client core together: transport, loop, sync
// engine, interaction controller, feedback and archive. Front ends (the
// terminal UI and the line client) drive it through Do and render the
// Frames it publishes.
package session

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"

	"github.com/park285/lanchess/internal/archive"
	"github.com/park285/lanchess/internal/config"
	"github.com/park285/lanchess/internal/feedback"
	"github.com/park285/lanchess/internal/interaction"
	"github.com/park285/lanchess/internal/loop"
	"github.com/park285/lanchess/internal/msgcat"
	"github.com/park285/lanchess/internal/syncengine"
	"github.com/park285/lanchess/internal/transport"
	"github.com/park285/lanchess/internal/viewmodel"
)

type Deps struct {
	Config     *config.AppConfig
	Catalog    *msgcat.Catalog
	Loop       *loop.Loop
	Store      *viewmodel.Store
	Engine     *syncengine.Engine
	Controller *interaction.Controller
	Dispatcher *feedback.Dispatcher
	Recorder   *archive.Recorder
	WS         *transport.WebSocket
	Query      *transport.Client
	Journal    *archive.Journal
	Repo       *archive.Repository
	ClientID   string

	logger   *zap.Logger
	frameSeq uint64
	onFrame  []func(Frame)
	cancel   context.CancelFunc
}

type options struct {
	player  feedback.Player
	catalog *msgcat.Catalog
	sinks   []archive.Sink
}

type Option func(*options)

// WithPlayer sets the cue player. Without it cues follow cfg.CueMode and
// ring BEL on stdout.
func WithPlayer(p feedback.Player) Option { return func(o *options) { o.player = p } }

// WithCatalog overrides the message catalog loaded from cfg.MessageDir.
func WithCatalog(c *msgcat.Catalog) Option { return func(o *options) { o.catalog = c } }

// WithArchiveSinks adds sinks besides the configured journal and repository.
func WithArchiveSinks(s ...archive.Sink) Option {
	return func(o *options) { o.sinks = append(o.sinks, s...) }
}

// New builds the session. Optional stores (Redis, Postgres) that fail to
// open are logged and skipped.
func New(cfg *config.AppConfig, logger *zap.Logger, opts ...Option) (*Deps, error) {
	if cfg == nil {
		return nil, fmt.Errorf("nil config")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}

	cat := o.catalog
	if cat == nil {
		var err error
		cat, err = msgcat.New(cfg.MessageDir)
		if err != nil {
			return nil, fmt.Errorf("load messages: %w", err)
		}
	}

	d := &Deps{Config: cfg, Catalog: cat, ClientID: transport.NewClientID(), logger: logger}
	headers := transport.ClientHeaders(d.ClientID)

	d.Query = transport.NewClient(cfg.HTTPURL,
		transport.WithTimeout(cfg.QueryTimeout),
		transport.WithHeaderProvider(headers),
	)
	d.WS = transport.NewWebSocket(cfg.WSURL,
		transport.WithReconnect(cfg.ReconnectAttempts, cfg.ReconnectDelay),
		transport.WithHandshakeHeaders(headers),
		transport.WithLogger(logger.Named("ws")),
	)

	d.Loop = loop.New(256, logger.Named("loop"))
	d.Store = viewmodel.NewStore()
	d.Engine = syncengine.New(d.Store, d.WS, d.Query, d.Loop.Post,
		syncengine.WithQueryTimeout(cfg.QueryTimeout),
		syncengine.WithLogger(logger.Named("sync")),
	)
	d.Controller = interaction.New(d.Engine, logger.Named("interaction"))

	player := o.player
	if player == nil {
		player = feedback.NewPlayer(cfg.CueMode, nil, os.Stdout, logger)
	}
	d.Dispatcher = feedback.NewDispatcher(d.Engine, player, logger.Named("feedback"))

	sinks := append([]archive.Sink(nil), o.sinks...)
	if strings.TrimSpace(cfg.RedisURL) != "" {
		j, err := archive.NewJournal(cfg.RedisURL)
		if err != nil {
			logger.Warn("archive_journal_unavailable", zap.Error(err))
		} else {
			d.Journal = j
			sinks = append(sinks, j)
		}
	}
	if strings.TrimSpace(cfg.DatabaseURL) != "" {
		r, err := archive.NewRepository(cfg.DatabaseURL)
		if err != nil {
			logger.Warn("archive_repository_unavailable", zap.Error(err))
		} else {
			d.Repo = r
			sinks = append(sinks, r)
		}
	}
	d.Recorder = archive.NewRecorder(d.Engine, logger.Named("archive"), sinks...)

	d.Engine.Subscribe(d.Controller.HandleChange)
	d.Engine.Subscribe(d.Dispatcher.HandleChange)
	d.Engine.Subscribe(d.Recorder.HandleChange)
	d.Engine.Subscribe(func(syncengine.Change) { d.publish() })
	d.Controller.OnChange(d.publish)

	d.WS.OnMessage(d.Engine.OnMessage)
	d.WS.OnStateChange(d.Engine.OnState)
	return d, nil
}

// OnFrame registers fn to receive every frame. Register before Start. fn
// runs on the loop goroutine and must not block.
func (d *Deps) OnFrame(fn func(Frame)) {
	if fn != nil {
		d.onFrame = append(d.onFrame, fn)
	}
}

// Start runs the loop, publishes the first frame and dials the event
// channel. A dial error is returned but reconnects continue in the
// background.
func (d *Deps) Start(ctx context.Context) error {
	runCtx, cancel := context.WithCancel(context.Background())
	d.cancel = cancel
	go d.Loop.Run(runCtx)
	if err := d.Loop.Post(d.publish); err != nil {
		return err
	}
	if err := d.WS.Connect(ctx); err != nil {
		d.logger.Warn("session_connect_failed", zap.String("url", d.Config.WSURL), zap.Error(err))
		return err
	}
	d.logger.Info("session_started", zap.String("ws", d.Config.WSURL), zap.String("client_id", d.ClientID))
	return nil
}

// Do runs task on the loop.
func (d *Deps) Do(task func()) error { return d.Loop.Post(task) }

// Call runs task on the loop and waits for it.
func (d *Deps) Call(task func()) error { return d.Loop.Call(task) }

// CurrentFrame builds a frame on the loop and returns it.
func (d *Deps) CurrentFrame() (Frame, error) {
	var f Frame
	err := d.Loop.Call(func() { f = d.frame() })
	return f, err
}

func (d *Deps) publish() {
	f := d.frame()
	for _, fn := range d.onFrame {
		fn(f)
	}
}

// Close tears down in reverse order of Start. Pending archive saves are
// awaited.
func (d *Deps) Close(ctx context.Context) error {
	var errs []error
	if err := d.WS.Close(ctx); err != nil {
		errs = append(errs, fmt.Errorf("close ws: %w", err))
	}
	d.Loop.Stop()
	if d.cancel != nil {
		d.cancel()
		select {
		case <-d.Loop.Done():
		case <-ctx.Done():
		}
	}
	d.Recorder.Wait()
	if err := d.Journal.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close journal: %w", err))
	}
	if err := d.Repo.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close repository: %w", err))
	}
	return errors.Join(errs...)
}
