package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"whaticket-crm/internal/auditlog"
	"whaticket-crm/internal/models"
)

// Reporter is the audit-report contract the stats API depends on.
type Reporter interface {
	BuildDailyReport(date string) (*auditlog.DailyReport, error)
}

type StatsHandler struct {
	DB      *gorm.DB
	Reports Reporter
}

func NewStatsHandler(db *gorm.DB, reports Reporter) *StatsHandler {
	return &StatsHandler{DB: db, Reports: reports}
}

func (h *StatsHandler) GetOverview(c *gin.Context) {
	var contacts, tickets, messages, tags int64
	h.DB.Model(&models.Contact{}).Count(&contacts)
	h.DB.Model(&models.Ticket{}).Count(&tickets)
	h.DB.Model(&models.Message{}).Count(&messages)
	h.DB.Model(&models.Tag{}).Count(&tags)

	byStatus := map[string]int64{}
	for _, status := range []string{models.TicketStatusPending, models.TicketStatusOpen, models.TicketStatusClosed} {
		var n int64
		h.DB.Model(&models.Ticket{}).Where("status = ?", status).Count(&n)
		byStatus[status] = n
	}

	var recentMessages int64
	h.DB.Model(&models.Message{}).
		Where("created_at >= ?", time.Now().Add(-24*time.Hour)).
		Count(&recentMessages)

	c.JSON(http.StatusOK, gin.H{
		"contacts":          contacts,
		"tickets":           tickets,
		"messages":          messages,
		"tags":              tags,
		"tickets_by_status": byStatus,
		"messages_24h":      recentMessages,
	})
}

// GetDailyReport tallies the day's raw audit artifacts. Defaults to today.
func (h *StatsHandler) GetDailyReport(c *gin.Context) {
	date := c.DefaultQuery("date", time.Now().Format("2006-01-02"))
	if _, err := time.Parse("2006-01-02", date); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Date must be YYYY-MM-DD"})
		return
	}

	report, err := h.Reports.BuildDailyReport(date)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, report)
}
