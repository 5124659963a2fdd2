package ingestion

import (
	"context"
	"errors"
	"net"
	"time"

	"github.com/gorilla/websocket"

	"github.com/femavibes/feedmaster/internal/domain"
	"github.com/femavibes/feedmaster/pkg/logger"
)

const (
	pingInterval = 20 * time.Second
	pongWait     = 20 * time.Second
	writeWait    = 10 * time.Second

	immediateReconnectDelay = 0
	closedConnReconnectDelay = 5 * time.Second
	genericErrorReconnectDelay = 10 * time.Second
)

// RawEvent is one undecoded firehose message, tagged with the feed it
// arrived on.
type RawEvent struct {
	FeedID  string
	Payload []byte
}

// Listener is a single feed's Contrails WebSocket client. It never
// transforms messages itself — undecoded RawEvents are handed to sink for
// the batcher to parse and buffer, keeping reconnect/backoff logic
// independent of parsing.
type Listener struct {
	feed   domain.Feed
	logger *logger.Logger
	sink   chan<- RawEvent

	conn   *websocket.Conn
	stopCh chan struct{}
	doneCh chan struct{}
}

// NewListener creates a Listener for one feed, emitting raw events to
// sink.
func NewListener(feed domain.Feed, log *logger.Logger, sink chan<- RawEvent) *Listener {
	return &Listener{
		feed:   feed,
		logger: log.WithField("feed", feed.Name),
		sink:   sink,
		stopCh: make(chan struct{}),
		doneCh: make(chan struct{}),
	}
}

// Start connects and runs the read/ping loops until ctx is cancelled or
// Stop is called.
func (l *Listener) Start(ctx context.Context) {
	go l.run(ctx)
}

// Stop closes the listener and waits for its goroutine to exit.
func (l *Listener) Stop() {
	close(l.stopCh)
	if l.conn != nil {
		_ = l.conn.Close()
	}
	<-l.doneCh
}

func (l *Listener) run(ctx context.Context) {
	defer close(l.doneCh)

	for {
		select {
		case <-l.stopCh:
			return
		case <-ctx.Done():
			return
		default:
		}

		conn, _, err := websocket.DefaultDialer.DialContext(ctx, l.feed.ContrailsWSURL, nil)
		if err != nil {
			l.logger.WithError(err).Warn("dial failed, retrying")
			if !l.sleepOrStop(genericErrorReconnectDelay) {
				return
			}
			continue
		}
		l.conn = conn

		reconnectDelay := l.readLoop(ctx)
		_ = conn.Close()

		if reconnectDelay < 0 {
			return // stopped deliberately
		}
		if !l.sleepOrStop(reconnectDelay) {
			return
		}
	}
}

// readLoop blocks reading messages until the connection fails or the
// listener is stopped. It returns the reconnect delay to apply, or a
// negative duration if the caller should stop entirely.
func (l *Listener) readLoop(ctx context.Context) time.Duration {
	_ = l.conn.SetReadDeadline(time.Now().Add(pongWait))
	l.conn.SetPongHandler(func(string) error {
		return l.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	stopPing := make(chan struct{})
	go l.pingLoop(stopPing)
	defer close(stopPing)

	for {
		select {
		case <-l.stopCh:
			return -1
		case <-ctx.Done():
			return -1
		default:
		}

		_, payload, err := l.conn.ReadMessage()
		if err != nil {
			select {
			case <-l.stopCh:
				return -1
			default:
			}

			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				l.logger.Debug("graceful close, reconnecting immediately")
				return immediateReconnectDelay
			}

			var netErr *net.OpError
			if errors.As(err, &netErr) {
				l.logger.WithError(err).Warn("connection closed, reconnecting")
				return closedConnReconnectDelay
			}

			l.logger.WithError(err).Warn("read error, reconnecting")
			return genericErrorReconnectDelay
		}

		select {
		case l.sink <- RawEvent{FeedID: l.feed.ID, Payload: payload}:
		case <-l.stopCh:
			return -1
		case <-ctx.Done():
			return -1
		}
	}
}

func (l *Listener) pingLoop(stop <-chan struct{}) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			_ = l.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := l.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (l *Listener) sleepOrStop(d time.Duration) bool {
	if d <= 0 {
		return true
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-l.stopCh:
		return false
	case <-t.C:
		return true
	}
}
