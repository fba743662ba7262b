package telemetry

import (
	"encoding/json"
	"fmt"

	"github.com/fxamacker/cbor/v2"
	"github.com/gorilla/websocket"
)

// Supported encodings.
const (
	EncodingJSON = "json"
	EncodingCBOR = "cbor"
)

// cborEnc uses Core Deterministic Encoding so the same message always
// produces identical bytes. Field names come from the json tags.
var cborEnc cbor.EncMode

var cborDec cbor.DecMode

func init() {
	var err error
	cborEnc, err = cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic("telemetry: CBOR encoder initialization failed: " + err.Error())
	}
	cborDec, err = cbor.DecOptions{}.DecMode()
	if err != nil {
		panic("telemetry: CBOR decoder initialization failed: " + err.Error())
	}
}

// Codec encodes messages for one of the supported encodings.
type Codec struct {
	encoding string
}

// NewCodec returns the codec for encoding ("json" or "cbor").
func NewCodec(encoding string) (Codec, error) {
	switch encoding {
	case EncodingJSON, EncodingCBOR:
		return Codec{encoding: encoding}, nil
	default:
		return Codec{}, fmt.Errorf("unsupported telemetry encoding %q", encoding)
	}
}

// Encoding returns the codec's encoding name.
func (c Codec) Encoding() string {
	return c.encoding
}

// FrameType returns the WebSocket frame type carrying this encoding.
func (c Codec) FrameType() int {
	if c.encoding == EncodingCBOR {
		return websocket.BinaryMessage
	}
	return websocket.TextMessage
}

// Marshal encodes m.
func (c Codec) Marshal(m Message) ([]byte, error) {
	if c.encoding == EncodingCBOR {
		return cborEnc.Marshal(m)
	}
	return json.Marshal(m)
}

// Unmarshal decodes data into m.
func (c Codec) Unmarshal(data []byte, m *Message) error {
	if c.encoding == EncodingCBOR {
		return cborDec.Unmarshal(data, m)
	}
	return json.Unmarshal(data, m)
}

// DecodeFrame decodes a WebSocket frame, choosing the encoding from the
// frame type.
func DecodeFrame(frameType int, data []byte) (Message, error) {
	var m Message
	var err error
	switch frameType {
	case websocket.TextMessage:
		err = json.Unmarshal(data, &m)
	case websocket.BinaryMessage:
		err = cborDec.Unmarshal(data, &m)
	default:
		return m, fmt.Errorf("unexpected frame type %d", frameType)
	}
	if err != nil {
		return m, fmt.Errorf("failed to decode telemetry: %w", err)
	}
	return m, nil
}
