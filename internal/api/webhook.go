package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"whaticket-crm/internal/models"
	"whaticket-crm/internal/pipeline"
	"whaticket-crm/internal/webhook"
)

type WebhookHandler struct {
	Pipeline *pipeline.Pipeline
}

func NewWebhookHandler(pl *pipeline.Pipeline) *WebhookHandler {
	return &WebhookHandler{Pipeline: pl}
}

// Handle is the single webhook ingress. The body is decoded untyped; key
// casing is normalized downstream, not here.
func (h *WebhookHandler) Handle(c *gin.Context) {
	var payload webhook.Payload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   "Payload inválido",
			"message": "Corpo da requisição deve ser um objeto JSON válido",
		})
		return
	}

	if !payload.Has("sender") && !payload.Has("contact") && !payload.Has("action") && !payload.Has("acao") {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   "Payload incompleto",
			"message": "Payload deve conter pelo menos sender, contact ou action",
		})
		return
	}

	result, err := h.Pipeline.Process(c.Request.Context(), payload)
	if err != nil {
		log.Error().Err(err).Msg("Webhook processing failed")
		c.JSON(statusFor(err), gin.H{"success": false, "error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"action":  result.Action,
		"result":  result,
	})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, models.ErrUnsupportedAction),
		errors.Is(err, models.ErrMissingSubstructure),
		errors.Is(err, models.ErrValidation):
		return http.StatusUnprocessableEntity
	case errors.Is(err, models.ErrTicketNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
