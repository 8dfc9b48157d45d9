package transport

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"nhooyr.io/websocket"

	"github.com/park285/lanchess/internal/protocol"
)

type callbackEntry struct {
	id       int
	callback MessageCallback
}

type stateCallbackEntry struct {
	id       int
	callback StateCallback
}

// WebSocket is the process-wide event channel to the authority.
// Writes go through a single writer goroutine; reads are dispatched to
// callbacks on the reader goroutine.
type WebSocket struct {
	wsURL  string
	logger *zap.Logger

	conn  *websocket.Conn
	connM sync.RWMutex

	state  State
	stateM sync.RWMutex

	msgCbs   []callbackEntry
	stateCbs []stateCallbackEntry
	nextID   int
	cbM      sync.RWMutex

	maxReconnectAttempts int
	reconnectDelay       time.Duration
	pingInterval         time.Duration
	writeTimeout         time.Duration

	out        chan outFrame
	writerOnce sync.Once
	stopCh     chan struct{}
	stopOnce   sync.Once
	wg         sync.WaitGroup
	rootCtx    context.Context
	rootCancel context.CancelFunc
	headerProv HeaderProvider
}

type WSOption func(*WebSocket)

// WithReconnect sets how many times and how quickly a dropped channel is redialled.
// Zero attempts disables reconnection.
func WithReconnect(attempts int, delay time.Duration) WSOption {
	return func(ws *WebSocket) {
		ws.maxReconnectAttempts = attempts
		if delay > 0 {
			ws.reconnectDelay = delay
		}
	}
}

func WithPingInterval(d time.Duration) WSOption {
	return func(ws *WebSocket) {
		if d > 0 {
			ws.pingInterval = d
		}
	}
}

func WithQueueSize(n int) WSOption {
	return func(ws *WebSocket) {
		if n > 0 {
			ws.out = make(chan outFrame, n)
		}
	}
}

func WithLogger(l *zap.Logger) WSOption {
	return func(ws *WebSocket) {
		if l != nil {
			ws.logger = l
		}
	}
}

func WithHandshakeHeaders(h HeaderProvider) WSOption {
	return func(ws *WebSocket) { ws.headerProv = h }
}

func NewWebSocket(wsURL string, opts ...WSOption) *WebSocket {
	ws := &WebSocket{
		wsURL:          wsURL,
		logger:         zap.NewNop(),
		state:          StateDisconnected,
		reconnectDelay: time.Second,
		pingInterval:   30 * time.Second,
		writeTimeout:   5 * time.Second,
		out:            make(chan outFrame, 64),
		stopCh:         make(chan struct{}),
	}
	for _, opt := range opts {
		opt(ws)
	}
	ws.rootCtx, ws.rootCancel = context.WithCancel(context.Background())
	return ws
}

// Connect dials once. On failure the reconnect schedule takes over and the
// dial error is returned.
func (ws *WebSocket) Connect(ctx context.Context) error {
	if ws.isStopping() {
		return ErrClosed
	}
	switch ws.State() {
	case StateConnected, StateConnecting, StateReconnecting:
		return nil
	}
	ws.writerOnce.Do(func() {
		ws.wg.Add(1)
		go ws.writer()
	})
	ws.setState(StateConnecting)

	conn, err := ws.dial(ctx)
	if err != nil {
		ws.logger.Warn("ws_dial_failed", zap.String("url", ws.wsURL), zap.Error(err))
		ws.setState(StateFailed)
		ws.scheduleReconnect()
		return fmt.Errorf("dial %s: %w", ws.wsURL, err)
	}
	ws.start(conn)
	return nil
}

func (ws *WebSocket) dial(ctx context.Context) (*websocket.Conn, error) {
	dialCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	conn, _, err := websocket.Dial(dialCtx, ws.wsURL, &websocket.DialOptions{
		CompressionMode: websocket.CompressionNoContextTakeover,
		HTTPHeader:      ws.buildHeaders(),
	})
	return conn, err
}

func (ws *WebSocket) start(conn *websocket.Conn) {
	ws.connM.Lock()
	ws.conn = conn
	ws.connM.Unlock()
	ws.logger.Info("ws_connected", zap.String("url", ws.wsURL))
	ws.setState(StateConnected)

	ws.wg.Add(2)
	go ws.listen(conn)
	go ws.pingLoop(conn)
}

func (ws *WebSocket) current() *websocket.Conn {
	ws.connM.RLock()
	defer ws.connM.RUnlock()
	return ws.conn
}

func (ws *WebSocket) listen(conn *websocket.Conn) {
	defer ws.wg.Done()
	for {
		typ, data, err := conn.Read(ws.rootCtx)
		if err != nil {
			if ws.isStopping() {
				return
			}
			ws.drop(conn, "read", err)
			return
		}
		if typ != websocket.MessageText {
			continue
		}
		env, err := protocol.DecodeEnvelope(data)
		if err != nil {
			ws.logger.Warn("ws_frame_dropped", zap.Error(err), zap.Int("bytes", len(data)))
			continue
		}

		ws.cbM.RLock()
		callbacks := make([]callbackEntry, len(ws.msgCbs))
		copy(callbacks, ws.msgCbs)
		ws.cbM.RUnlock()
		for _, entry := range callbacks {
			if entry.callback != nil {
				entry.callback(env)
			}
		}
	}
}

func (ws *WebSocket) pingLoop(conn *websocket.Conn) {
	defer ws.wg.Done()
	t := time.NewTicker(ws.pingInterval)
	defer t.Stop()
	failures := 0
	for {
		select {
		case <-ws.stopCh:
			return
		case <-t.C:
			if ws.current() != conn {
				return
			}
			ctx, cancel := context.WithTimeout(ws.rootCtx, 3*time.Second)
			err := conn.Ping(ctx)
			cancel()
			if err == nil {
				failures = 0
				continue
			}
			failures++
			if failures >= 2 {
				ws.drop(conn, "ping", err)
				return
			}
		}
	}
}

// outFrame is one encoded envelope waiting for the writer.
type outFrame struct {
	event string
	data  []byte
}

// writer serialises every outbound frame on one goroutine.
func (ws *WebSocket) writer() {
	defer ws.wg.Done()
	for {
		select {
		case <-ws.stopCh:
			return
		case f := <-ws.out:
			conn := ws.current()
			if conn == nil {
				ws.logger.Warn("ws_emit_dropped", zap.String("event", f.event), zap.String("reason", "no connection"))
				continue
			}
			ctx, cancel := context.WithTimeout(ws.rootCtx, ws.writeTimeout)
			err := conn.Write(ctx, websocket.MessageText, f.data)
			cancel()
			if err != nil {
				ws.logger.Warn("ws_write_failed", zap.String("event", f.event), zap.Error(err))
				continue
			}
			ws.logger.Debug("ws_emit", zap.String("event", f.event))
		}
	}
}

// Emit queues event for sending and returns immediately.
func (ws *WebSocket) Emit(event string, data any) error {
	if ws.isStopping() {
		return ErrClosed
	}
	if ws.State() != StateConnected {
		return ErrNotConnected
	}
	frame, err := protocol.Encode(event, data)
	if err != nil {
		return err
	}
	select {
	case ws.out <- outFrame{event: event, data: frame}:
		return nil
	default:
		return ErrQueueFull
	}
}

// drop tears down conn if it is still current and starts reconnecting.
// The reader and the pinger may both notice the same failure; only the
// first one acts.
func (ws *WebSocket) drop(conn *websocket.Conn, reason string, cause error) {
	ws.connM.Lock()
	if ws.conn != conn {
		ws.connM.Unlock()
		return
	}
	ws.conn = nil
	ws.connM.Unlock()

	ws.logger.Warn("ws_disconnected", zap.String("reason", reason), zap.Error(cause))
	_ = conn.Close(websocket.StatusGoingAway, reason)
	ws.setState(StateDisconnected)
	ws.scheduleReconnect()
}

func (ws *WebSocket) scheduleReconnect() {
	if ws.maxReconnectAttempts <= 0 || ws.isStopping() {
		return
	}
	ws.setState(StateReconnecting)

	ws.wg.Add(1)
	go func() {
		defer ws.wg.Done()
		for attempt := 1; attempt <= ws.maxReconnectAttempts; attempt++ {
			select {
			case <-ws.stopCh:
				return
			case <-time.After(ws.backoff(attempt)):
			}
			conn, err := ws.dial(ws.rootCtx)
			if err != nil {
				ws.logger.Debug("ws_reconnect_failed", zap.Int("attempt", attempt), zap.Error(err))
				continue
			}
			if ws.isStopping() {
				_ = conn.Close(websocket.StatusNormalClosure, "close")
				return
			}
			ws.start(conn)
			return
		}
		ws.logger.Warn("ws_reconnect_exhausted", zap.Int("attempts", ws.maxReconnectAttempts))
		ws.setState(StateFailed)
	}()
}

func (ws *WebSocket) backoff(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	if attempt > 6 {
		attempt = 6
	}
	return time.Duration(1<<uint(attempt-1)) * ws.reconnectDelay
}

func (ws *WebSocket) OnMessage(cb MessageCallback) int {
	ws.cbM.Lock()
	defer ws.cbM.Unlock()
	ws.nextID++
	ws.msgCbs = append(ws.msgCbs, callbackEntry{id: ws.nextID, callback: cb})
	return ws.nextID
}

func (ws *WebSocket) RemoveMessageCallback(id int) {
	ws.cbM.Lock()
	defer ws.cbM.Unlock()
	for i, cb := range ws.msgCbs {
		if cb.id == id {
			ws.msgCbs = append(ws.msgCbs[:i], ws.msgCbs[i+1:]...)
			break
		}
	}
}

func (ws *WebSocket) OnStateChange(cb StateCallback) int {
	ws.cbM.Lock()
	defer ws.cbM.Unlock()
	ws.nextID++
	ws.stateCbs = append(ws.stateCbs, stateCallbackEntry{id: ws.nextID, callback: cb})
	return ws.nextID
}

func (ws *WebSocket) RemoveStateCallback(id int) {
	ws.cbM.Lock()
	defer ws.cbM.Unlock()
	for i, cb := range ws.stateCbs {
		if cb.id == id {
			ws.stateCbs = append(ws.stateCbs[:i], ws.stateCbs[i+1:]...)
			break
		}
	}
}

func (ws *WebSocket) State() State {
	ws.stateM.RLock()
	defer ws.stateM.RUnlock()
	return ws.state
}

func (ws *WebSocket) setState(state State) {
	ws.stateM.Lock()
	changed := ws.state != state
	ws.state = state
	ws.stateM.Unlock()
	if !changed {
		return
	}

	ws.cbM.RLock()
	callbacks := make([]stateCallbackEntry, len(ws.stateCbs))
	copy(callbacks, ws.stateCbs)
	ws.cbM.RUnlock()
	for _, entry := range callbacks {
		if entry.callback != nil {
			entry.callback(state)
		}
	}
}

// Close stops every goroutine and closes the connection. It waits for
// them until ctx expires.
func (ws *WebSocket) Close(ctx context.Context) error {
	ws.stopOnce.Do(func() { close(ws.stopCh) })

	ws.connM.Lock()
	conn := ws.conn
	ws.conn = nil
	ws.connM.Unlock()
	if conn != nil {
		_ = conn.Close(websocket.StatusNormalClosure, "close")
	}
	ws.rootCancel()

	done := make(chan struct{})
	go func() {
		ws.wg.Wait()
		close(done)
	}()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-done:
		ws.setState(StateDisconnected)
		return nil
	}
}

func (ws *WebSocket) isStopping() bool {
	select {
	case <-ws.stopCh:
		return true
	default:
		return false
	}
}

func (ws *WebSocket) buildHeaders() http.Header {
	hdr := http.Header{}
	if ws.headerProv == nil {
		return hdr
	}
	for k, v := range ws.headerProv() {
		if strings.TrimSpace(k) == "" || strings.TrimSpace(v) == "" {
			continue
		}
		hdr.Set(k, v)
	}
	return hdr
}
