package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"whaticket-crm/internal/models"
)

type ContactHandler struct {
	DB *gorm.DB
}

func NewContactHandler(db *gorm.DB) *ContactHandler {
	return &ContactHandler{DB: db}
}

func (h *ContactHandler) GetContacts(c *gin.Context) {
	query := h.DB.Model(&models.Contact{})

	if search := c.Query("search"); search != "" {
		like := "%" + search + "%"
		query = query.Where("name LIKE ? OR number LIKE ?", like, like)
	}
	if active := c.Query("active"); active != "" {
		query = query.Where("active = ?", active == "true")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	page, limit := pagination(c)
	var contacts []models.Contact
	err := query.Order("updated_at desc").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&contacts).Error
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if contacts == nil {
		contacts = []models.Contact{}
	}

	c.JSON(http.StatusOK, gin.H{"contacts": contacts, "total": total, "page": page, "limit": limit})
}

func (h *ContactHandler) GetContact(c *gin.Context) {
	whaticketID, err := strconv.Atoi(c.Param("whaticketId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid contact id"})
		return
	}

	var contact models.Contact
	if err := h.DB.Where("whaticket_id = ?", whaticketID).First(&contact).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Contact not found"})
		return
	}

	c.JSON(http.StatusOK, contact)
}

// pagination reads page/limit query params with sane defaults.
func pagination(c *gin.Context) (page, limit int) {
	page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	if page < 1 {
		page = 1
	}
	limit, _ = strconv.Atoi(c.DefaultQuery("limit", "20"))
	if limit < 1 || limit > 100 {
		limit = 20
	}
	return page, limit
}
