package bridge

import (
	"context"
	"fmt"
	"log"
	"net/url"
	"os"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	channerics "github.com/niceyeti/channerics/channels"
	"golang.org/x/sync/errgroup"

	"github.com/brinewood-games/worldstream/mirror"
	"github.com/brinewood-games/worldstream/protocol"
)

var logger = log.New(os.Stderr, "[bridge] ", log.LstdFlags)

const (
	writeWait      = 5 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 8192
)

// Config configures a Native bridge connection.
type Config struct {
	Endpoint      url.URL
	Session       string
	ParticipantID string
	EventBuffer   int
}

// Native is a desktop/server-process bridge: one goroutine reading frames
// off the wire and translating them to mirror Events, one goroutine
// draining an outbound intent queue onto the socket, using the line
// protocol's PUB/MSG/SUB frames (see protocol/lineproto.go).
type Native struct {
	cfg     Config
	conn    *websocket.Conn
	events  chan mirror.Event
	intents chan string
	nextSID uint32
}

// DialNative opens a WebSocket to the bus endpoint described by cfg. The
// CONNECT/SUB handshake happens once the server's INFO line arrives (see
// handshake), not here.
func DialNative(cfg Config) (*Native, error) {
	conn, _, err := websocket.DefaultDialer.Dial(cfg.Endpoint.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("bridge: dial %s: %w", cfg.Endpoint.String(), err)
	}
	bufSize := cfg.EventBuffer
	if bufSize <= 0 {
		bufSize = 1024
	}
	return &Native{
		cfg:     cfg,
		conn:    conn,
		events:  make(chan mirror.Event, bufSize),
		intents: make(chan string, 64),
	}, nil
}

// Events returns the channel of translated mirror Events. The caller feeds
// these into a mirror.Cache via Cache.Apply.
func (n *Native) Events() <-chan mirror.Event {
	return n.events
}

// QueueIntent builds and enqueues a PUB frame for subject with the given
// JSON payload.
func (n *Native) QueueIntent(subject string, payload []byte) {
	select {
	case n.intents <- protocol.PubFrame(subject, payload):
	default:
		logger.Printf("intent queue full, dropping publish to %s", subject)
	}
}

// Run drives the read and write pumps until ctx is cancelled or the
// connection drops, then emits a Disconnected event.
func (n *Native) Run(ctx context.Context) error {
	defer close(n.events)
	defer n.conn.Close()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return n.readPump(gctx) })
	g.Go(func() error { return n.writePump(gctx) })

	err := g.Wait()
	reason := "bridge closed"
	if err != nil {
		reason = err.Error()
	}
	select {
	case n.events <- mirror.Event{Kind: mirror.EventDisconnected, DisconnectReason: reason}:
	default:
	}
	return err
}

func (n *Native) readPump(ctx context.Context) error {
	n.conn.SetReadLimit(maxMessageSize)
	_ = n.conn.SetReadDeadline(time.Now().Add(pongWait))
	n.conn.SetPongHandler(func(string) error {
		_ = n.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		_, data, err := n.conn.ReadMessage()
		if err != nil {
			return fmt.Errorf("bridge: read: %w", err)
		}
		n.handleFrame(string(data))
	}
}

func (n *Native) handleFrame(text string) {
	ops, err := protocol.ParseFrame(text)
	if err != nil {
		logger.Printf("parse frame: %v", err)
		return
	}

	for _, op := range ops {
		switch op.Kind {
		case protocol.OpInfo:
			n.handshake()

		case protocol.OpPing:
			n.sendRaw(protocol.PongFrame())

		case protocol.OpMsg:
			for _, ev := range translateMessage(op.Subject, op.Payload) {
				select {
				case n.events <- ev:
				default:
					logger.Printf("event queue full, dropping %s", op.Subject)
				}
			}

		case protocol.OpErr:
			logger.Printf("bus error: %s", op.ErrMsg)
		}
	}
}

// handshake sends CONNECT, subscribes to world.> (the full event namespace),
// and announces participant join, once the server's first INFO line
// arrives.
func (n *Native) handshake() {
	connectPayload, _ := json.Marshal(map[string]interface{}{
		"verbose":      false,
		"pedantic":     false,
		"tls_required": false,
		"name":         n.cfg.ParticipantID,
		"lang":         "go",
	})
	n.sendRaw(protocol.ConnectFrame(string(connectPayload)))
	n.sendRaw(protocol.SubFrame("world.>", n.nextSubID()))

	join, _ := json.Marshal(protocol.ParticipantJoin{ID: n.cfg.ParticipantID})
	n.sendRaw(protocol.PubFrame(protocol.SubjectParticipantJoin, join))

	select {
	case n.events <- mirror.Event{Kind: mirror.EventConnected}:
	default:
	}
}

func (n *Native) nextSubID() string {
	return fmt.Sprintf("%d", atomic.AddUint32(&n.nextSID, 1))
}

func (n *Native) sendRaw(frame string) {
	select {
	case n.intents <- frame:
	default:
		logger.Printf("intent queue full, dropping frame")
	}
}

func (n *Native) writePump(ctx context.Context) error {
	ticker := channerics.NewTicker(ctx.Done(), pingPeriod)
	for {
		select {
		case <-ctx.Done():
			_ = n.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return ctx.Err()

		case frame, ok := <-n.intents:
			if !ok {
				return nil
			}
			_ = n.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := n.conn.WriteMessage(websocket.TextMessage, []byte(frame)); err != nil {
				return fmt.Errorf("bridge: write: %w", err)
			}

		case <-ticker:
			_ = n.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := n.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return fmt.Errorf("bridge: ping: %w", err)
			}
		}
	}
}
