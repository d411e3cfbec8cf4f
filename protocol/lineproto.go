package protocol

import (
	"fmt"
	"strconv"
	"strings"
)

// Frame builders for the browser sub-protocol's outbound operations. Both
// bridges build these via the shared helpers here rather than carrying
// their own copies.

func ConnectFrame(json string) string {
	return "CONNECT " + json + "\r\n"
}

func SubFrame(subject, sid string) string {
	return fmt.Sprintf("SUB %s %s\r\n", subject, sid)
}

func PubFrame(subject string, payload []byte) string {
	return fmt.Sprintf("PUB %s %d\r\n%s\r\n", subject, len(payload), payload)
}

func PongFrame() string {
	return "PONG\r\n"
}

// NatsOpKind identifies a parsed inbound line-protocol operation.
type NatsOpKind uint8

const (
	OpInfo NatsOpKind = iota
	OpMsg
	OpPing
	OpOK
	OpErr
)

// NatsOp is one parsed inbound operation. Only the fields relevant to its
// Kind are populated.
type NatsOp struct {
	Kind    NatsOpKind
	Info    string // raw JSON, OpInfo
	Subject string // OpMsg
	SID     string // OpMsg
	Reply   string // OpMsg, optional
	Payload []byte // OpMsg
	ErrMsg  string // OpErr
}

// ParseFrame splits one WebSocket text frame into its constituent
// operations. A frame may carry multiple operations separated by \r\n;
// MSG payload lines are truncated to their declared byte count.
func ParseFrame(text string) ([]NatsOp, error) {
	var ops []NatsOp
	lines := strings.Split(text, "\r\n")

	for i := 0; i < len(lines); i++ {
		line := lines[i]
		if line == "" {
			continue
		}

		switch {
		case strings.HasPrefix(line, "INFO "):
			ops = append(ops, NatsOp{Kind: OpInfo, Info: strings.TrimPrefix(line, "INFO ")})

		case line == "PING":
			ops = append(ops, NatsOp{Kind: OpPing})

		case line == "+OK":
			ops = append(ops, NatsOp{Kind: OpOK})

		case strings.HasPrefix(line, "-ERR "):
			ops = append(ops, NatsOp{Kind: OpErr, ErrMsg: strings.TrimPrefix(line, "-ERR ")})

		case strings.HasPrefix(line, "MSG "):
			fields := strings.Fields(strings.TrimPrefix(line, "MSG "))
			if len(fields) < 3 {
				return ops, fmt.Errorf("protocol: malformed MSG line: %q", line)
			}

			var subject, sid, reply string
			var declaredLen int
			var err error

			switch len(fields) {
			case 3:
				subject, sid = fields[0], fields[1]
				declaredLen, err = strconv.Atoi(fields[2])
			case 4:
				subject, sid, reply = fields[0], fields[1], fields[2]
				declaredLen, err = strconv.Atoi(fields[3])
			default:
				return ops, fmt.Errorf("protocol: malformed MSG line: %q", line)
			}
			if err != nil {
				return ops, fmt.Errorf("protocol: malformed MSG length: %q", line)
			}

			i++
			if i >= len(lines) {
				return ops, fmt.Errorf("protocol: MSG missing payload line")
			}
			payloadLine := lines[i]
			if declaredLen < 0 || declaredLen > len(payloadLine) {
				declaredLen = len(payloadLine)
			}

			ops = append(ops, NatsOp{
				Kind:    OpMsg,
				Subject: subject,
				SID:     sid,
				Reply:   reply,
				Payload: []byte(payloadLine[:declaredLen]),
			})

		default:
			// Unrecognised token; skip rather than fail the whole frame, so
			// one bad op doesn't stop processing the rest.
		}
	}

	return ops, nil
}
