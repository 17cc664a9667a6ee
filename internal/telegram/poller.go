package telegram

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog/log"
)

// Poller feeds updates from getUpdates into a handler until ctx ends.
type Poller struct {
	client  *Client
	handler *UpdateHandler
	timeout time.Duration
	backoff time.Duration
}

func NewPoller(client *Client, handler *UpdateHandler, timeout time.Duration) *Poller {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Poller{client: client, handler: handler, timeout: timeout, backoff: 2 * time.Second}
}

func (p *Poller) Run(ctx context.Context) error {
	// A webhook left behind by an earlier deployment blocks getUpdates.
	if err := p.client.DeleteWebhook(ctx); err != nil {
		log.Warn().Err(err).Msg("deleteWebhook failed")
	}
	log.Info().Dur("timeout", p.timeout).Msg("polling for updates")

	var offset int64
	for {
		updates, err := p.client.GetUpdates(ctx, offset, p.timeout)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			var apiErr *APIError
			if errors.As(err, &apiErr) && apiErr.Code == 401 {
				return err
			}
			log.Warn().Err(err).Msg("getUpdates failed")
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(p.backoff):
			}
			continue
		}
		for _, upd := range updates {
			offset = upd.UpdateID + 1
			p.handler.Handle(ctx, upd)
		}
	}
}
