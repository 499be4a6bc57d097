package stream

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/golang/snappy"
	"go.nanomsg.org/mangos/v3"
	"go.nanomsg.org/mangos/v3/protocol/pub"

	// Register all transports
	_ "go.nanomsg.org/mangos/v3/transport/all"
)

// NNGPublisher broadcasts frame events over an NNG pub socket for
// out-of-process renderers. Messages are "<sessionId> " followed by a
// snappy-compressed JSON event, so subscribers can topic-filter on the
// session id prefix.
type NNGPublisher struct {
	sock    mangos.Socket
	mu      sync.Mutex
	closed  bool
	onError func(error)
}

// NewNNGPublisher listens on addr (e.g. "tcp://0.0.0.0:7411").
func NewNNGPublisher(addr string) (*NNGPublisher, error) {
	sock, err := pub.NewSocket()
	if err != nil {
		return nil, fmt.Errorf("failed to create pub socket: %w", err)
	}
	if err := sock.SetOption(mangos.OptionSendDeadline, 2*time.Second); err != nil {
		sock.Close()
		return nil, fmt.Errorf("failed to set send deadline: %w", err)
	}
	if err := sock.Listen(addr); err != nil {
		sock.Close()
		return nil, fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	return &NNGPublisher{sock: sock}, nil
}

// Publish sends one frame event. A full or dead peer never fails the frame;
// publishing is best-effort by design of the pub protocol.
func (p *NNGPublisher) Publish(event *FrameEvent) error {
	msg, err := encodeFrameMessage(event)
	if err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return fmt.Errorf("publisher is closed")
	}
	if err := p.sock.Send(msg); err != nil {
		return fmt.Errorf("failed to publish frame: %w", err)
	}
	return nil
}

func encodeFrameMessage(event *FrameEvent) ([]byte, error) {
	payload, err := json.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("failed to encode frame event: %w", err)
	}

	msg := make([]byte, 0, len(event.SessionID)+1+len(payload))
	msg = append(msg, event.SessionID...)
	msg = append(msg, ' ')
	msg = append(msg, snappy.Encode(nil, payload)...)
	return msg, nil
}

// DecodeFrameMessage splits and decodes a published message, for
// subscribers.
func DecodeFrameMessage(msg []byte) (*FrameEvent, error) {
	sep := -1
	for i, b := range msg {
		if b == ' ' {
			sep = i
			break
		}
	}
	if sep < 0 {
		return nil, fmt.Errorf("malformed frame message: no topic separator")
	}

	payload, err := snappy.Decode(nil, msg[sep+1:])
	if err != nil {
		return nil, fmt.Errorf("failed to decompress frame message: %w", err)
	}

	var event FrameEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		return nil, fmt.Errorf("failed to decode frame message: %w", err)
	}
	return &event, nil
}

// Close shuts the socket down.
func (p *NNGPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil
	}
	p.closed = true
	return p.sock.Close()
}
