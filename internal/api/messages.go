package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"whaticket-crm/internal/models"
)

type MessageHandler struct {
	DB *gorm.DB
}

func NewMessageHandler(db *gorm.DB) *MessageHandler {
	return &MessageHandler{DB: db}
}

func (h *MessageHandler) GetMessages(c *gin.Context) {
	query := h.DB.Model(&models.Message{})

	if ticketID := c.Query("ticketId"); ticketID != "" {
		query = query.Where("ticket_id = ?", ticketID)
	}
	if sender := c.Query("sender"); sender != "" {
		query = query.Where("sender = ?", sender)
	}
	if action := c.Query("action"); action != "" {
		query = query.Where("action = ?", action)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	page, limit := pagination(c)
	var messages []models.Message
	err := query.Order("created_at desc").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&messages).Error
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if messages == nil {
		messages = []models.Message{}
	}

	c.JSON(http.StatusOK, gin.H{"messages": messages, "total": total, "page": page, "limit": limit})
}
