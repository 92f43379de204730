package messaging

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

type SMSConfig struct {
	URL      string
	APIKey   string
	SenderID string
	Timeout  time.Duration
}

// SMSClient talks to a query-string SMS gateway: GET <url>?api_key=..&phone=..&message=..
type SMSClient struct {
	cfg    SMSConfig
	client *http.Client
}

func NewSMSClient(cfg SMSConfig) *SMSClient {
	cfg.Timeout = timeoutOr(cfg.Timeout)
	return &SMSClient{cfg: cfg, client: &http.Client{Timeout: cfg.Timeout}}
}

func (c *SMSClient) Channel() Channel { return ChannelSMS }

func (c *SMSClient) Send(ctx context.Context, msg Message) error {
	if msg.To == "" {
		return channelFailure(ChannelSMS, "recipient has no phone number")
	}

	u, err := url.Parse(c.cfg.URL)
	if err != nil {
		return channelFailure(ChannelSMS, "invalid provider url: %v", err)
	}
	q := u.Query()
	q.Set("api_key", c.cfg.APIKey)
	q.Set("phone", msg.To)
	q.Set("message", msg.Body)
	if c.cfg.SenderID != "" {
		q.Set("sender_id", c.cfg.SenderID)
	}
	u.RawQuery = q.Encode()

	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return channelFailure(ChannelSMS, "build request: %v", err)
	}
	return do(c.client, req, ChannelSMS)
}

func do(client *http.Client, req *http.Request, ch Channel) error {
	resp, err := client.Do(req)
	if err != nil {
		return channelFailure(ch, "request failed: %v", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4<<10))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return channelFailure(ch, "provider returned status %d", resp.StatusCode)
	}
	return nil
}

// Template renders the owner-facing text for a status change.
func Template(requestID int64, status string) string {
	return fmt.Sprintf("Gate pass #%d is now %s.", requestID, status)
}
