package protocol

import "testing"

func TestPubFrameRoundTrip(t *testing.T) {
	// S6: PUB intent.move 10\r\n{"dx":1.5}\r\n round-trips through MSG.
	payload := []byte(`{"dx":1.5}`)
	pub := PubFrame("intent.move", payload)
	want := "PUB intent.move 10\r\n{\"dx\":1.5}\r\n"
	if pub != want {
		t.Fatalf("PubFrame = %q, want %q", pub, want)
	}

	msgFrame := "MSG intent.move 99 10\r\n{\"dx\":1.5}\r\n"
	ops, err := ParseFrame(msgFrame)
	if err != nil {
		t.Fatalf("ParseFrame: %v", err)
	}
	if len(ops) != 1 {
		t.Fatalf("expected 1 op, got %d", len(ops))
	}
	op := ops[0]
	if op.Kind != OpMsg || op.Subject != "intent.move" || string(op.Payload) != string(payload) {
		t.Fatalf("unexpected op: %+v", op)
	}
}

func TestParseFrameMultipleOps(t *testing.T) {
	frame := "INFO {\"server\":\"x\"}\r\nPING\r\n+OK\r\nMSG world.chunk.activated 1 2\r\n{}\r\n"
	ops, err := ParseFrame(frame)
	if err != nil {
		t.Fatalf("ParseFrame: %v", err)
	}
	if len(ops) != 4 {
		t.Fatalf("expected 4 ops, got %d: %+v", len(ops), ops)
	}
	if ops[0].Kind != OpInfo || ops[1].Kind != OpPing || ops[2].Kind != OpOK || ops[3].Kind != OpMsg {
		t.Fatalf("unexpected op kinds: %+v", ops)
	}
}

func TestParseFrameMsgWithReply(t *testing.T) {
	frame := "MSG world.cmd.snapshot 5 reply.1 2\r\n{}\r\n"
	ops, err := ParseFrame(frame)
	if err != nil {
		t.Fatalf("ParseFrame: %v", err)
	}
	if len(ops) != 1 || ops[0].Reply != "reply.1" || ops[0].SID != "5" {
		t.Fatalf("unexpected op: %+v", ops)
	}
}

func TestParseFrameErrOp(t *testing.T) {
	ops, err := ParseFrame("-ERR Authorization Violation\r\n")
	if err != nil {
		t.Fatalf("ParseFrame: %v", err)
	}
	if len(ops) != 1 || ops[0].Kind != OpErr || ops[0].ErrMsg != "Authorization Violation" {
		t.Fatalf("unexpected op: %+v", ops)
	}
}

func TestParseFramePayloadTruncatedToDeclaredLength(t *testing.T) {
	// Declared length shorter than the line: only the declared bytes are kept.
	frame := "MSG intent.move 1 3\r\n{}garbage\r\n"
	ops, err := ParseFrame(frame)
	if err != nil {
		t.Fatalf("ParseFrame: %v", err)
	}
	if string(ops[0].Payload) != "{}g" {
		t.Fatalf("expected truncated payload %q, got %q", "{}g", ops[0].Payload)
	}
}

func TestConnectSubPongFrames(t *testing.T) {
	if ConnectFrame(`{"verbose":false}`) != "CONNECT {\"verbose\":false}\r\n" {
		t.Errorf("unexpected CONNECT frame")
	}
	if SubFrame("world.>", "1") != "SUB world.> 1\r\n" {
		t.Errorf("unexpected SUB frame")
	}
	if PongFrame() != "PONG\r\n" {
		t.Errorf("unexpected PONG frame")
	}
}
