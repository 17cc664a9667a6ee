package telegram

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

const secretHeader = "X-Telegram-Bot-Api-Secret-Token"

// WebhookHandler accepts updates pushed by Telegram. Handling runs in the
// background so Telegram gets its 200 right away.
func WebhookHandler(h *UpdateHandler, secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if secret != "" && c.GetHeader(secretHeader) != secret {
			c.Status(http.StatusUnauthorized)
			return
		}
		var upd Update
		if err := c.ShouldBindJSON(&upd); err != nil {
			log.Debug().Err(err).Msg("bad webhook payload")
			c.Status(http.StatusBadRequest)
			return
		}
		go h.Handle(context.Background(), upd)
		c.Status(http.StatusOK)
	}
}

// RegisterWebhook points Telegram at url.
func RegisterWebhook(ctx context.Context, client *Client, url, secret string) error {
	if err := client.SetWebhook(ctx, url, secret); err != nil {
		return err
	}
	log.Info().Str("url", url).Msg("webhook registered")
	return nil
}
