package reconcile

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"whaticket-crm/internal/models"
	"whaticket-crm/internal/webhook"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), fmt.Sprintf("reconcile_%d.db", time.Now().UnixNano()))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	if err := db.AutoMigrate(
		&models.Contact{}, &models.Ticket{}, &models.Message{},
		&models.Tag{}, &models.TagEvent{},
	); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	return db
}

func messagePayload() webhook.Payload {
	return webhook.Payload{
		"sender":    "5511989091838",
		"mensagem":  "Olá, preciso de ajuda",
		"acao":      "start",
		"companyid": 1.0,
		"chamadoid": 357.0,
		"ticketdata": map[string]any{
			"id":     357.0,
			"uuid":   "8a0e3f1c-2c55-4f0a-9b8e-0f39c4c2a111",
			"status": "pending",
			"contact": map[string]any{
				"id":     4192.0,
				"name":   "João Silva",
				"number": "5511989091838",
				"email":  "joao@example.com",
			},
			"queue":     map[string]any{"id": 3.0, "name": "Vendas", "color": "#00ff00"},
			"user":      map[string]any{"id": 7.0, "name": "Maria"},
			"createdat": "2025-05-01T10:00:00Z",
			"updatedat": "2025-05-01T10:05:00Z",
		},
	}
}

func TestUpsertContactIsIdempotent(t *testing.T) {
	db := newTestDB(t)
	store := NewStore(db)
	ctx := context.Background()
	p := messagePayload()

	first, err := store.UpsertContact(ctx, p)
	if err != nil {
		t.Fatalf("UpsertContact: %v", err)
	}
	second, err := store.UpsertContact(ctx, p)
	if err != nil {
		t.Fatalf("UpsertContact replay: %v", err)
	}

	if first.ID != second.ID {
		t.Errorf("replay created a new row: %d vs %d", first.ID, second.ID)
	}
	var count int64
	db.Model(&models.Contact{}).Count(&count)
	if count != 1 {
		t.Errorf("contact rows = %d, want 1", count)
	}
	if second.Name != "João Silva" || second.Number != "5511989091838" {
		t.Errorf("unexpected contact: %+v", second)
	}
	if second.CRM.LeadStatus != models.LeadStatusNovo {
		t.Errorf("lead status = %q", second.CRM.LeadStatus)
	}
}

func TestUpsertContactRefreshesLastInteraction(t *testing.T) {
	db := newTestDB(t)
	store := NewStore(db)
	ctx := context.Background()

	first, err := store.UpsertContact(ctx, messagePayload())
	if err != nil {
		t.Fatalf("UpsertContact: %v", err)
	}
	stale := time.Now().Add(-time.Hour)
	first.CRM.LastInteraction = stale
	if err := db.Save(first).Error; err != nil {
		t.Fatalf("backdate: %v", err)
	}

	second, err := store.UpsertContact(ctx, messagePayload())
	if err != nil {
		t.Fatalf("UpsertContact replay: %v", err)
	}
	if !second.CRM.LastInteraction.After(stale) {
		t.Error("lastInteraction was not refreshed")
	}
}

func TestUpsertContactCaseVariants(t *testing.T) {
	for _, key := range []string{"ticketdata", "ticketData", "TicketData"} {
		t.Run(key, func(t *testing.T) {
			db := newTestDB(t)
			store := NewStore(db)

			p := messagePayload()
			td := p["ticketdata"]
			delete(p, "ticketdata")
			p[key] = td

			contact, err := store.UpsertContact(context.Background(), p)
			if err != nil {
				t.Fatalf("UpsertContact with %q: %v", key, err)
			}
			if contact.WhaticketID != 4192 {
				t.Errorf("whaticket id = %d", contact.WhaticketID)
			}
		})
	}
}

func TestUpsertContactTopLevelFallback(t *testing.T) {
	db := newTestDB(t)
	store := NewStore(db)

	p := webhook.Payload{
		"contact": map[string]any{"id": 99.0, "name": "Ana", "number": "551100000000"},
	}
	contact, err := store.UpsertContact(context.Background(), p)
	if err != nil {
		t.Fatalf("UpsertContact: %v", err)
	}
	if contact.WhaticketID != 99 || contact.Name != "Ana" {
		t.Errorf("unexpected contact: %+v", contact)
	}
}

func TestUpsertContactMissingData(t *testing.T) {
	db := newTestDB(t)
	store := NewStore(db)

	_, err := store.UpsertContact(context.Background(), webhook.Payload{"sender": "x"})
	if !errors.Is(err, models.ErrMissingSubstructure) {
		t.Errorf("err = %v, want ErrMissingSubstructure", err)
	}
}

func TestUpsertTicketIsIdempotent(t *testing.T) {
	db := newTestDB(t)
	store := NewStore(db)
	ctx := context.Background()
	p := messagePayload()

	first, err := store.UpsertTicket(ctx, p)
	if err != nil {
		t.Fatalf("UpsertTicket: %v", err)
	}
	second, err := store.UpsertTicket(ctx, p)
	if err != nil {
		t.Fatalf("UpsertTicket replay: %v", err)
	}

	if first.ID != second.ID {
		t.Errorf("replay created a new row: %d vs %d", first.ID, second.ID)
	}
	var count int64
	db.Model(&models.Ticket{}).Count(&count)
	if count != 1 {
		t.Errorf("ticket rows = %d, want 1", count)
	}
	if second.Status != models.TicketStatusPending || second.UUID == "" {
		t.Errorf("unexpected ticket: %+v", second)
	}
	if second.Queue == nil || second.Queue.Name != "Vendas" {
		t.Errorf("queue snapshot missing: %+v", second.Queue)
	}
	if second.CRM.SLAStatus != models.SLAOnTrack {
		t.Errorf("fresh ticket SLA = %q, want on track", second.CRM.SLAStatus)
	}
}

func TestUpsertTicketMissingData(t *testing.T) {
	db := newTestDB(t)
	store := NewStore(db)

	_, err := store.UpsertTicket(context.Background(), webhook.Payload{"sender": "x"})
	if !errors.Is(err, models.ErrMissingSubstructure) {
		t.Errorf("err = %v, want ErrMissingSubstructure", err)
	}
}

func TestUpdateTicketStatus(t *testing.T) {
	db := newTestDB(t)
	store := NewStore(db)
	ctx := context.Background()

	if _, err := store.UpsertTicket(ctx, messagePayload()); err != nil {
		t.Fatalf("seed ticket: %v", err)
	}

	p := webhook.Payload{"acao": "Closed", "chamadoid": 357.0}
	ticket, err := store.UpdateTicketStatus(ctx, p)
	if err != nil {
		t.Fatalf("UpdateTicketStatus: %v", err)
	}
	if ticket.Status != models.TicketStatusClosed {
		t.Errorf("status = %q", ticket.Status)
	}
	if ticket.CRM.ResolvedAt == nil {
		t.Error("closing should stamp the resolution time")
	}

	// Re-closing must not move the resolution time.
	resolved := *ticket.CRM.ResolvedAt
	again, err := store.UpdateTicketStatus(ctx, p)
	if err != nil {
		t.Fatalf("UpdateTicketStatus replay: %v", err)
	}
	if !again.CRM.ResolvedAt.Equal(resolved) {
		t.Error("resolution time changed on replay")
	}
}

func TestUpdateTicketStatusNotFound(t *testing.T) {
	db := newTestDB(t)
	store := NewStore(db)

	_, err := store.UpdateTicketStatus(context.Background(), webhook.Payload{"acao": "open", "chamadoid": 1.0})
	if !errors.Is(err, models.ErrTicketNotFound) {
		t.Errorf("err = %v, want ErrTicketNotFound", err)
	}
}

func TestMarkFirstResponseStampsOnce(t *testing.T) {
	db := newTestDB(t)
	store := NewStore(db)
	ctx := context.Background()

	ticket, err := store.UpsertTicket(ctx, messagePayload())
	if err != nil {
		t.Fatalf("seed ticket: %v", err)
	}

	if err := store.MarkFirstResponse(ctx, ticket); err != nil {
		t.Fatalf("MarkFirstResponse: %v", err)
	}
	if ticket.CRM.FirstResponseAt == nil {
		t.Fatal("first response not stamped")
	}
	stamped := *ticket.CRM.FirstResponseAt

	if err := store.MarkFirstResponse(ctx, ticket); err != nil {
		t.Fatalf("MarkFirstResponse again: %v", err)
	}
	if !ticket.CRM.FirstResponseAt.Equal(stamped) {
		t.Error("first response time moved")
	}
}
