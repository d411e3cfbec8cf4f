package bus

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/finnbear/moderation"
	jsoniter "github.com/json-iterator/go"
	"golang.org/x/sync/errgroup"

	"github.com/brinewood-games/worldstream/engine"
	"github.com/brinewood-games/worldstream/protocol"
	"github.com/brinewood-games/worldstream/types"
)

var logger = log.New(os.Stderr, "[bus] ", log.LstdFlags)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

func vec3(x, y, z float32) types.Vec3 {
	return types.NewVec3(x, y, z)
}

// CommandResult is the structured reply every command handler returns.
type CommandResult struct {
	OK      bool   `json:"ok"`
	Error   string `json:"error,omitempty"`
}

func success() CommandResult { return CommandResult{OK: true} }

func failure(err error) CommandResult {
	return CommandResult{OK: false, Error: fmt.Sprintf("Invalid payload: %s", err)}
}

// Agent binds a streaming engine to a Broker: registers command handlers,
// runs the fixed-rate tick loop, and publishes event envelopes.
type Agent struct {
	broker  Broker
	engine  *engine.Engine
	session string
	tickHz  float64
}

// Config configures an Agent's session identity and tick rate. TickHz
// defaults to 30 if zero.
type Config struct {
	Session string
	TickHz  float64
}

func NewAgent(broker Broker, eng *engine.Engine, cfg Config) *Agent {
	tickHz := cfg.TickHz
	if tickHz <= 0 {
		tickHz = 30
	}
	return &Agent{
		broker:  broker,
		engine:  eng,
		session: cfg.Session,
		tickHz:  tickHz,
	}
}

// RegisterHandlers wires every command subject to the engine.
func (a *Agent) RegisterHandlers() {
	a.broker.RegisterHandler(protocol.SubjectParticipantJoin, a.handleParticipantJoin)
	a.broker.RegisterHandler(protocol.SubjectParticipantLeave, a.handleParticipantLeave)
	a.broker.RegisterHandler(protocol.SubjectCommandTeleport, a.handleCommandTeleport)
	a.broker.RegisterHandler(protocol.SubjectCommandStats, a.handleStats)
	a.broker.RegisterHandler(protocol.SubjectCmdStats, a.handleStats)
	a.broker.RegisterHandler(protocol.SubjectCmdSnapshot, a.handleSnapshot)

	// intent.* subjects: intent.teleport is the client-facing equivalent of
	// world.command.teleport, intent.interact gets its free-text verb
	// sanitized before being accepted, and intent.move / intent.view_radius
	// are acknowledged without effect until a future version tracks
	// per-entity dynamic bodies.
	a.broker.RegisterHandler(protocol.SubjectIntentTeleport, a.handleCommandTeleport)
	a.broker.RegisterHandler(protocol.SubjectIntentInteract, a.handleIntentInteract)
	a.broker.RegisterHandler(protocol.SubjectIntentMove, a.handleAcknowledgeOnly)
	a.broker.RegisterHandler(protocol.SubjectIntentViewRadius, a.handleAcknowledgeOnly)
}

func decodeAndReply(payload []byte, v interface{}, do func() error) ([]byte, error) {
	if err := json.Unmarshal(payload, v); err != nil {
		return json.Marshal(failure(err))
	}
	if err := do(); err != nil {
		return json.Marshal(failure(err))
	}
	return json.Marshal(success())
}

func (a *Agent) handleParticipantJoin(_ context.Context, payload []byte) ([]byte, error) {
	var msg protocol.ParticipantJoin
	return decodeAndReply(payload, &msg, func() error {
		a.engine.RegisterParticipant(msg.ID, vec3(msg.X, msg.Y, msg.Z))
		return nil
	})
}

func (a *Agent) handleParticipantLeave(_ context.Context, payload []byte) ([]byte, error) {
	var msg protocol.ParticipantLeave
	return decodeAndReply(payload, &msg, func() error {
		a.engine.UnregisterParticipant(msg.ID)
		return nil
	})
}

func (a *Agent) handleCommandTeleport(_ context.Context, payload []byte) ([]byte, error) {
	var msg protocol.CommandTeleport
	return decodeAndReply(payload, &msg, func() error {
		a.engine.RegisterParticipant(msg.ID, vec3(msg.X, msg.Y, msg.Z))
		return nil
	})
}

func (a *Agent) handleStats(_ context.Context, payload []byte) ([]byte, error) {
	stats := a.engine.Stats()
	return json.Marshal(protocol.WorldStats{
		ActiveCells:         stats.ActiveCells,
		TotalObjects:        stats.TotalObjects,
		TrackedParticipants: stats.TrackedParticipants,
		TotalTicks:          stats.TotalTicks,
	})
}

func (a *Agent) handleSnapshot(_ context.Context, payload []byte) ([]byte, error) {
	var msg protocol.CmdRequestSnapshot
	_ = json.Unmarshal(payload, &msg) // fields are advisory; snapshot covers all active state regardless
	return json.Marshal(a.engine.BuildSnapshot(a.session))
}

// handleIntentInteract sanitizes the one free-text field the protocol
// exposes to clients (verb) before accepting the intent.
func (a *Agent) handleIntentInteract(_ context.Context, payload []byte) ([]byte, error) {
	var msg protocol.IntentInteract
	return decodeAndReply(payload, &msg, func() error {
		if msg.Verb != "" && moderation.Scan(msg.Verb).Is(moderation.Inappropriate) {
			msg.Verb, _ = moderation.Censor(msg.Verb, moderation.Inappropriate)
		}
		return nil
	})
}

func (a *Agent) handleAcknowledgeOnly(_ context.Context, payload []byte) ([]byte, error) {
	return json.Marshal(success())
}

// Run starts the fixed-rate tick loop and blocks until ctx is cancelled or
// an interrupt signal arrives, supervising both goroutines with an
// errgroup so either one failing cancels and drains the other.
func (a *Agent) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error { return a.tickLoop(gctx) })
	g.Go(func() error { return waitForSignal(gctx) })

	return g.Wait()
}

func (a *Agent) tickLoop(ctx context.Context) error {
	period := time.Duration(float64(time.Second) / a.tickHz)
	ticker := time.NewTicker(period)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			a.tick(ctx)
		}
	}
}

func (a *Agent) tick(ctx context.Context) {
	events, err := a.engine.Tick(ctx)
	if err != nil {
		logger.Printf("tick: %v", err)
	}

	for _, ev := range events.Activated {
		a.publish(protocol.SubjectChunkActivated, events.Tick, ev)
	}
	for _, ev := range events.Deactivated {
		a.publish(protocol.SubjectChunkDeactivated, events.Tick, ev)
	}
	for _, ev := range events.EntityTransforms {
		a.publish(protocol.SubjectEntityTransform, events.Tick, ev)
	}
}

func (a *Agent) publish(subject string, frame uint64, payload interface{}) {
	env, err := protocol.Wrap(a.session, frame, payload)
	if err != nil {
		logger.Printf("publish %s: wrap: %v", subject, err)
		return
	}
	raw, err := json.Marshal(env)
	if err != nil {
		logger.Printf("publish %s: marshal: %v", subject, err)
		return
	}
	if err := a.broker.Publish(subject, raw); err != nil {
		logger.Printf("publish %s: %v", subject, err)
	}
}

func waitForSignal(ctx context.Context) error {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-sigCh:
		return fmt.Errorf("bus: received shutdown signal")
	}
}
