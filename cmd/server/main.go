package main

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"whaticket-crm/internal/api"
	"whaticket-crm/internal/auditlog"
	"whaticket-crm/internal/config"
	"whaticket-crm/internal/database"
	"whaticket-crm/internal/pipeline"
	"whaticket-crm/internal/reconcile"
	"whaticket-crm/internal/tagrules"
	"whaticket-crm/pkg/logger"
)

func main() {
	cfg := config.LoadConfig()
	logger.Init(cfg.LogLevel, cfg.LogFormat)

	db, err := database.Open(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open database")
	}
	if err := database.AutoMigrate(db); err != nil {
		log.Fatal().Err(err).Msg("Failed to run auto-migration")
	}

	audit, err := auditlog.NewWriter(cfg.LogDir)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create audit log directories")
	}

	store := reconcile.NewStore(db)
	tagEngine := tagrules.NewEngine(db)
	pl := pipeline.New(store, tagEngine, audit)

	webhookHandler := api.NewWebhookHandler(pl)
	contactHandler := api.NewContactHandler(db)
	ticketHandler := api.NewTicketHandler(db)
	messageHandler := api.NewMessageHandler(db)
	tagHandler := api.NewTagHandler(db)
	statsHandler := api.NewStatsHandler(db, audit)

	r := gin.Default()

	// CORS Middleware
	r.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	started := time.Now()
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status": "ok",
			"uptime": time.Since(started).String(),
		})
	})

	r.POST("/webhook", webhookHandler.Handle)

	apiGroup := r.Group("/api")
	{
		apiGroup.GET("/contacts", contactHandler.GetContacts)
		apiGroup.GET("/contacts/:whaticketId", contactHandler.GetContact)

		apiGroup.GET("/tickets", ticketHandler.GetTickets)
		apiGroup.GET("/tickets/:whaticketId", ticketHandler.GetTicket)

		apiGroup.GET("/messages", messageHandler.GetMessages)

		apiGroup.GET("/tags", tagHandler.GetTags)
		apiGroup.GET("/tags/events", tagHandler.GetTagEvents)

		apiGroup.GET("/stats/overview", statsHandler.GetOverview)
		apiGroup.GET("/logs/report", statsHandler.GetDailyReport)
	}

	log.Info().Str("port", cfg.Port).Msg("Server starting")
	if err := r.Run(":" + cfg.Port); err != nil {
		log.Fatal().Err(err).Msg("Failed to run server")
	}
}
