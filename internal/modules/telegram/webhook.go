package telegram

import (
	"net/http"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/gin-gonic/gin"

	"cottage/internal/middleware"
	"cottage/internal/pkg/response"
)

const secretTokenHeader = "X-Telegram-Bot-Api-Secret-Token"

type WebhookHandler struct {
	bot    *Bot
	secret string
}

// NewWebhookHandler serves updates pushed by Telegram. Requests must carry
// the secret registered with setWebhook when one is configured.
func NewWebhookHandler(bot *Bot, secret string) *WebhookHandler {
	return &WebhookHandler{bot: bot, secret: secret}
}

func (h *WebhookHandler) RegisterRoutes(r *gin.RouterGroup) {
	r.POST("/telegram/webhook", h.Receive)
}

func (h *WebhookHandler) Receive(c *gin.Context) {
	if h.secret != "" && !middleware.KeyMatches(h.secret, c.GetHeader(secretTokenHeader)) {
		response.Error(c, http.StatusUnauthorized, "UNAUTHORIZED", "Invalid webhook secret")
		return
	}

	var update tgbotapi.Update
	if err := c.ShouldBindJSON(&update); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid update payload")
		return
	}

	h.bot.HandleUpdate(c.Request.Context(), update)
	c.JSON(http.StatusOK, gin.H{"ok": true})
}
