//go:build js && wasm

package bridge

import (
	"syscall/js"

	"github.com/brinewood-games/worldstream/mirror"
	"github.com/brinewood-games/worldstream/protocol"
)

// Browser is the WASM bridge: a browser WebSocket driven from JS callbacks,
// serviced by a ~8ms cooperative poll loop rather than real goroutines. Its
// state is a single Go struct touched only from the JS event loop thread —
// WASM is single-threaded, so no locking is needed.
type Browser struct {
	cfg Config
	ws  js.Value

	incoming   []string
	intents    []string
	events     []mirror.Event
	subscribed bool
	closed     bool
	closeReason string

	onOpen    js.Func
	onMessage js.Func
	onError   js.Func
	onClose   js.Func
	interval  js.Value
}

// NewBrowser opens a browser WebSocket to cfg.Endpoint and starts the
// cooperative poll loop. Call DrainEvents from the render loop to collect
// translated events, and QueueIntent to enqueue outbound PUB frames.
func NewBrowser(cfg Config) *Browser {
	b := &Browser{cfg: cfg}
	b.ws = js.Global().Get("WebSocket").New(cfg.Endpoint.String())

	b.onOpen = js.FuncOf(func(this js.Value, args []js.Value) interface{} {
		connectPayload, _ := json.Marshal(map[string]interface{}{
			"verbose": false, "name": cfg.ParticipantID, "lang": "go-wasm",
		})
		b.ws.Call("send", protocol.ConnectFrame(string(connectPayload)))
		return nil
	})
	b.ws.Set("onopen", b.onOpen)

	b.onMessage = js.FuncOf(func(this js.Value, args []js.Value) interface{} {
		data := args[0].Get("data")
		if data.Type() == js.TypeString {
			b.incoming = append(b.incoming, data.String())
		}
		return nil
	})
	b.ws.Set("onmessage", b.onMessage)

	b.onError = js.FuncOf(func(this js.Value, args []js.Value) interface{} {
		b.closed = true
		b.closeReason = "WebSocket error"
		return nil
	})
	b.ws.Set("onerror", b.onError)

	b.onClose = js.FuncOf(func(this js.Value, args []js.Value) interface{} {
		b.closed = true
		if len(args) > 0 {
			b.closeReason = args[0].Get("reason").String()
		}
		return nil
	})
	b.ws.Set("onclose", b.onClose)

	tick := js.FuncOf(func(this js.Value, args []js.Value) interface{} {
		b.poll()
		return nil
	})
	b.interval = js.Global().Call("setInterval", tick, 8)

	return b
}

// poll runs one cooperative service cycle: drain incoming wire frames into
// events, drain queued intents onto the socket. Called every ~8ms by the
// JS interval timer set up in NewBrowser.
func (b *Browser) poll() {
	if b.closed {
		reason := b.closeReason
		if reason == "" {
			reason = "WebSocket closed"
		}
		b.events = append(b.events, mirror.Event{Kind: mirror.EventDisconnected, DisconnectReason: reason})
		return
	}

	frames := b.incoming
	b.incoming = nil
	for _, frame := range frames {
		b.processFrame(frame)
	}

	intents := b.intents
	b.intents = nil
	for _, frame := range intents {
		b.ws.Call("send", frame)
	}
}

func (b *Browser) processFrame(text string) {
	ops, err := protocol.ParseFrame(text)
	if err != nil {
		return
	}
	for _, op := range ops {
		switch op.Kind {
		case protocol.OpInfo:
			if !b.subscribed {
				b.ws.Call("send", protocol.SubFrame("world.>", "1"))
				join, _ := json.Marshal(protocol.ParticipantJoin{ID: b.cfg.ParticipantID})
				b.ws.Call("send", protocol.PubFrame(protocol.SubjectParticipantJoin, join))
				b.subscribed = true
				b.events = append(b.events, mirror.Event{Kind: mirror.EventConnected})
			}
		case protocol.OpPing:
			b.ws.Call("send", protocol.PongFrame())
		case protocol.OpMsg:
			b.events = append(b.events, translateMessage(op.Subject, op.Payload)...)
		}
	}
}

// QueueIntent enqueues a PUB frame sent on the next poll cycle.
func (b *Browser) QueueIntent(subject string, payload []byte) {
	b.intents = append(b.intents, protocol.PubFrame(subject, payload))
}

// DrainEvents returns and clears up to limit pending translated events.
func (b *Browser) DrainEvents(limit int) []mirror.Event {
	if limit <= 0 || limit > len(b.events) {
		limit = len(b.events)
	}
	out := b.events[:limit]
	b.events = b.events[limit:]
	return out
}

// IsAlive reports whether the WebSocket connection is still open.
func (b *Browser) IsAlive() bool {
	return !b.closed
}

// Close releases the JS callbacks and stops the poll interval.
func (b *Browser) Close() error {
	js.Global().Call("clearInterval", b.interval)
	b.ws.Set("onopen", js.Null())
	b.ws.Set("onmessage", js.Null())
	b.ws.Set("onerror", js.Null())
	b.ws.Set("onclose", js.Null())
	b.onOpen.Release()
	b.onMessage.Release()
	b.onError.Release()
	b.onClose.Release()
	b.ws.Call("close")
	return nil
}
