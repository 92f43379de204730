package messaging

import (
	"context"
	"fmt"
	"time"

	"github.com/frahmantamala/gatepass/internal"
)

type Channel string

const (
	ChannelSMS      Channel = "sms"
	ChannelWhatsApp Channel = "whatsapp"
	ChannelPush     Channel = "push"
)

// Message is one delivery on one channel. To is a phone number for SMS and
// WhatsApp; push deliveries carry a Subscription instead.
type Message struct {
	Channel      Channel
	RequestID    int64
	To           string
	Title        string
	Body         string
	URL          string
	Subscription *Subscription
}

type Subscription struct {
	Endpoint string `json:"endpoint"`
	Keys     Keys   `json:"keys"`
}

type Keys struct {
	P256dh string `json:"p256dh"`
	Auth   string `json:"auth"`
}

// Sender delivers messages for a single channel.
type Sender interface {
	Channel() Channel
	Send(ctx context.Context, msg Message) error
}

const defaultTimeout = 10 * time.Second

func timeoutOr(d time.Duration) time.Duration {
	if d <= 0 {
		return defaultTimeout
	}
	return d
}

func channelFailure(ch Channel, format string, args ...any) error {
	return internal.ErrChannelFailure.Wrap(fmt.Errorf("%s: "+format, append([]any{ch}, args...)...))
}
