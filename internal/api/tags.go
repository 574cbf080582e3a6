package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"whaticket-crm/internal/models"
)

type TagHandler struct {
	DB *gorm.DB
}

func NewTagHandler(db *gorm.DB) *TagHandler {
	return &TagHandler{DB: db}
}

func (h *TagHandler) GetTags(c *gin.Context) {
	query := h.DB.Model(&models.Tag{})
	if companyID := c.Query("companyId"); companyID != "" {
		query = query.Where("company_id = ?", companyID)
	}

	var tags []models.Tag
	if err := query.Order("prioridade desc, name asc").Find(&tags).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if tags == nil {
		tags = []models.Tag{}
	}

	c.JSON(http.StatusOK, tags)
}

func (h *TagHandler) GetTagEvents(c *gin.Context) {
	query := h.DB.Model(&models.TagEvent{})
	if ticketID := c.Query("ticketId"); ticketID != "" {
		id, err := strconv.Atoi(ticketID)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid ticket id"})
			return
		}
		query = query.Where("ticket_id = ?", id)
	}

	page, limit := pagination(c)
	var events []models.TagEvent
	err := query.Order("created_at desc").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&events).Error
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if events == nil {
		events = []models.TagEvent{}
	}

	c.JSON(http.StatusOK, events)
}
