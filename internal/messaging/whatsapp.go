package messaging

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"time"
)

type WhatsAppConfig struct {
	URL     string
	APIKey  string
	Timeout time.Duration
}

type WhatsAppClient struct {
	cfg    WhatsAppConfig
	client *http.Client
}

func NewWhatsAppClient(cfg WhatsAppConfig) *WhatsAppClient {
	cfg.Timeout = timeoutOr(cfg.Timeout)
	return &WhatsAppClient{cfg: cfg, client: &http.Client{Timeout: cfg.Timeout}}
}

func (c *WhatsAppClient) Channel() Channel { return ChannelWhatsApp }

func (c *WhatsAppClient) Send(ctx context.Context, msg Message) error {
	if msg.To == "" {
		return channelFailure(ChannelWhatsApp, "recipient has no phone number")
	}

	payload, err := json.Marshal(map[string]string{
		"to":      msg.To,
		"message": msg.Body,
	})
	if err != nil {
		return channelFailure(ChannelWhatsApp, "marshal payload: %v", err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.URL, bytes.NewReader(payload))
	if err != nil {
		return channelFailure(ChannelWhatsApp, "build request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	return do(c.client, req, ChannelWhatsApp)
}
