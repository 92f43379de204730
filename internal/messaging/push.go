package messaging

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"time"
)

type PushConfig struct {
	URL     string
	APIKey  string
	Timeout time.Duration
}

// PushClient hands web-push deliveries to a relay that holds the VAPID keys.
type PushClient struct {
	cfg    PushConfig
	client *http.Client
}

func NewPushClient(cfg PushConfig) *PushClient {
	cfg.Timeout = timeoutOr(cfg.Timeout)
	return &PushClient{cfg: cfg, client: &http.Client{Timeout: cfg.Timeout}}
}

func (c *PushClient) Channel() Channel { return ChannelPush }

type pushPayload struct {
	Title string `json:"title"`
	Body  string `json:"body"`
	URL   string `json:"url,omitempty"`
}

type pushEnvelope struct {
	Subscription *Subscription `json:"subscription"`
	Payload      pushPayload   `json:"payload"`
}

func (c *PushClient) Send(ctx context.Context, msg Message) error {
	if msg.Subscription == nil || msg.Subscription.Endpoint == "" {
		return channelFailure(ChannelPush, "missing subscription")
	}

	body, err := json.Marshal(pushEnvelope{
		Subscription: msg.Subscription,
		Payload:      pushPayload{Title: msg.Title, Body: msg.Body, URL: msg.URL},
	})
	if err != nil {
		return channelFailure(ChannelPush, "marshal payload: %v", err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.URL, bytes.NewReader(body))
	if err != nil {
		return channelFailure(ChannelPush, "build request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	}
	return do(c.client, req, ChannelPush)
}
