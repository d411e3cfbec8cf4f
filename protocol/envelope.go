package protocol

import (
	"fmt"

	jsoniter "github.com/json-iterator/go"
)

// Decode unmarshals e.Payload into v.
func (e Envelope) Decode(v interface{}) error {
	if err := json.Unmarshal(e.Payload, v); err != nil {
		return fmt.Errorf("protocol: decode payload: %w", err)
	}
	return nil
}

// Unwrap extracts a frame and raw payload from an arbitrary inbound JSON
// object, tolerating both the enveloped {session,frame,payload} shape and a
// bare payload object (frame defaults to 0, payload is the whole object).
func Unwrap(raw []byte) (frame uint64, payload []byte, err error) {
	var probe struct {
		Frame   *uint64             `json:"frame"`
		Payload jsoniter.RawMessage `json:"payload"`
	}
	if err := json.Unmarshal(raw, &probe); err != nil {
		return 0, nil, fmt.Errorf("protocol: unwrap: %w", err)
	}
	if probe.Payload != nil {
		f := uint64(0)
		if probe.Frame != nil {
			f = *probe.Frame
		}
		return f, probe.Payload, nil
	}
	return 0, raw, nil
}
