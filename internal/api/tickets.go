package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"whaticket-crm/internal/models"
)

type TicketHandler struct {
	DB *gorm.DB
}

func NewTicketHandler(db *gorm.DB) *TicketHandler {
	return &TicketHandler{DB: db}
}

func (h *TicketHandler) GetTickets(c *gin.Context) {
	query := h.DB.Model(&models.Ticket{})

	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}
	if companyID := c.Query("companyId"); companyID != "" {
		query = query.Where("company_id = ?", companyID)
	}
	if contactID := c.Query("contactId"); contactID != "" {
		query = query.Where("contact_id = ?", contactID)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	page, limit := pagination(c)
	var tickets []models.Ticket
	err := query.Order("whaticket_updated_at desc").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&tickets).Error
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if tickets == nil {
		tickets = []models.Ticket{}
	}

	c.JSON(http.StatusOK, gin.H{"tickets": tickets, "total": total, "page": page, "limit": limit})
}

func (h *TicketHandler) GetTicket(c *gin.Context) {
	whaticketID, err := strconv.Atoi(c.Param("whaticketId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid ticket id"})
		return
	}

	var ticket models.Ticket
	if err := h.DB.Where("whaticket_id = ?", whaticketID).First(&ticket).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Ticket not found"})
		return
	}

	c.JSON(http.StatusOK, ticket)
}
