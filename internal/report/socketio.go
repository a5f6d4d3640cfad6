package report

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/vk/exrun/internal/ctxlog"
	"github.com/vk/exrun/internal/executor"
	"github.com/zishang520/engine.io-client-go/transports"
	"github.com/zishang520/engine.io/v2/types"
	"github.com/zishang520/socket.io-client-go/socket"
)

// Socket.io event names emitted by SocketIOSink.
const (
	EventBlock   = "block"
	EventSummary = "summary"
)

// DialTimeout bounds how long DialSocketIO waits for the connection.
var DialTimeout = 15 * time.Second

// SocketIOSink streams outcomes to a socket.io dashboard as they happen.
type SocketIOSink struct {
	runID string
	emit  func(event string, payload any)
	close func()
}

// DialSocketIO connects to the namespace in rawURL's path, e.g.
// http://localhost:3000/exrun, over websocket.
func DialSocketIO(ctx context.Context, rawURL, runID string) (*SocketIOSink, error) {
	logger := ctxlog.FromContext(ctx).With("sink", "socketio", "url", rawURL)
	logger.Info("Connecting report sink...")

	parsedURL, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse URL: %w", err)
	}
	if parsedURL.Scheme == "" || parsedURL.Host == "" {
		return nil, fmt.Errorf("socket.io URL %q needs a scheme and host", rawURL)
	}
	namespace := parsedURL.Path
	if namespace == "" {
		namespace = "/"
	}

	opts := socket.DefaultOptions()
	opts.SetTransports(types.NewSet(transports.WebSocket))

	connectChan := make(chan error, 1)

	baseURL := fmt.Sprintf("%s://%s", parsedURL.Scheme, parsedURL.Host)
	manager := socket.NewManager(baseURL, opts)
	io := manager.Socket(namespace, opts)

	io.Once(types.EventName("connect"), func(...any) {
		logger.Info("Report sink connected.", "sid", io.Id())
		connectChan <- nil
	})
	io.Once(types.EventName("connect_error"), func(errs ...any) {
		var err error = fmt.Errorf("connect_error")
		if len(errs) > 0 {
			if e, ok := errs[0].(error); ok {
				err = e
			}
		}
		connectChan <- err
	})

	io.Connect()

	select {
	case err := <-connectChan:
		if err != nil {
			io.Disconnect()
			return nil, fmt.Errorf("socket.io connection failed: %w", err)
		}
	case <-ctx.Done():
		io.Disconnect()
		return nil, fmt.Errorf("context cancelled while waiting for socket.io connection")
	case <-time.After(DialTimeout):
		io.Disconnect()
		return nil, fmt.Errorf("timed out after %s waiting for socket.io connection", DialTimeout)
	}

	return &SocketIOSink{
		runID: runID,
		emit: func(event string, payload any) {
			if !io.Connected() {
				logger.Debug("Report sink disconnected, dropping event.", "event", event)
				return
			}
			io.Emit(event, payload)
		},
		close: func() { io.Disconnect() },
	}, nil
}

type blockEvent struct {
	RunID string      `json:"run_id"`
	Block BlockRecord `json:"block"`
}

// BlockFinished implements executor.Observer.
func (s *SocketIOSink) BlockFinished(_ context.Context, o *executor.Outcome) {
	s.emit(EventBlock, blockEvent{RunID: s.runID, Block: NewBlockRecord(o)})
}

// RunFinished implements executor.Observer.
func (s *SocketIOSink) RunFinished(_ context.Context, sum *executor.Summary) {
	s.emit(EventSummary, NewRunRecord(sum))
}

// Close disconnects from the server.
func (s *SocketIOSink) Close() {
	if s.close != nil {
		s.close()
	}
}
