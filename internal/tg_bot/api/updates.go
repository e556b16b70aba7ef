package api

import (
	"context"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"
)

// UpdateFetcher is the long-polling part of the Telegram Bot API.
type UpdateFetcher interface {
	GetUpdates(config tgbotapi.UpdateConfig) ([]tgbotapi.Update, error)
}

// UpdatePoller long-polls Telegram until its context is cancelled.
type UpdatePoller struct {
	fetcher    UpdateFetcher
	buffer     int
	retryDelay time.Duration
}

// NewUpdatePoller creates a poller with the given channel buffer size.
func NewUpdatePoller(fetcher UpdateFetcher, buffer int) *UpdatePoller {
	return &UpdatePoller{fetcher: fetcher, buffer: buffer, retryDelay: 3 * time.Second}
}

// Updates starts polling and returns the updates channel. The channel is closed once ctx is done.
func (p *UpdatePoller) Updates(ctx context.Context, config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel {
	ch := make(chan tgbotapi.Update, p.buffer)

	go func() {
		defer close(ch)
		for {
			if ctx.Err() != nil {
				return
			}
			updates, err := p.fetcher.GetUpdates(config)
			if err != nil {
				logrus.WithError(err).Warnf("Failed to get updates, retrying in %s", p.retryDelay)
				select {
				case <-ctx.Done():
					return
				case <-time.After(p.retryDelay):
				}
				continue
			}

			for _, update := range updates {
				if update.UpdateID < config.Offset {
					continue
				}
				config.Offset = update.UpdateID + 1
				select {
				case <-ctx.Done():
					return
				case ch <- update:
				}
			}
		}
	}()

	return ch
}
