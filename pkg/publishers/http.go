package publishers

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-resty/resty/v2"
	"github.com/techbeetle/news-router/pkg/httpclient"
)

const maxErrorBody = 512

// webhookPublisher posts events as JSON. Static headers (auth tokens and the like) are set
// once on the client; per-event headers identify the event for the receiver.
type webhookPublisher struct {
	id     string
	method string
	url    string
	client *resty.Client
}

func newWebhookPublisher(_ context.Context, cfg SinkConfig, _ Logger) (Publisher, error) {
	hook := cfg.HTTP
	client := httpclient.NewRestyHTTPClient(httpclient.Options{Timeout: hook.timeout()}).
		SetHeaders(hook.Headers).
		SetHeader("Content-Type", "application/json")

	return &webhookPublisher{
		id:     cfg.ID,
		method: hook.Method,
		url:    hook.URL,
		client: client,
	}, nil
}

func (w *webhookPublisher) ID() string   { return w.id }
func (w *webhookPublisher) Type() string { return TypeHTTP }

func (w *webhookPublisher) Publish(ctx context.Context, evt Event) error {
	resp, err := w.client.R().
		SetContext(ctx).
		SetHeader("X-Event-Type", evt.Type).
		SetHeader("X-Run-ID", evt.RunID).
		SetBody(evt).
		Execute(w.method, w.url)
	if err != nil {
		return fmt.Errorf("%s webhook: %w", w.method, err)
	}
	if resp.IsError() {
		body := resp.Body()
		if len(body) > maxErrorBody {
			body = body[:maxErrorBody]
		}
		return fmt.Errorf("%s webhook: status %d: %s", w.method, resp.StatusCode(), strings.TrimSpace(string(body)))
	}
	return nil
}
