package reconcile

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"whaticket-crm/internal/models"
	"whaticket-crm/internal/webhook"
)

func TestCreateMessageAlwaysInsertsNewRow(t *testing.T) {
	db := newTestDB(t)
	store := NewStore(db)
	ctx := context.Background()
	p := messagePayload()

	ticket, err := store.UpsertTicket(ctx, p)
	if err != nil {
		t.Fatalf("seed ticket: %v", err)
	}
	contact, err := store.UpsertContact(ctx, p)
	if err != nil {
		t.Fatalf("seed contact: %v", err)
	}

	first, err := store.CreateMessage(ctx, p, models.MessageActionStart, ticket, contact)
	if err != nil {
		t.Fatalf("CreateMessage: %v", err)
	}
	second, err := store.CreateMessage(ctx, p, models.MessageActionStart, ticket, contact)
	if err != nil {
		t.Fatalf("CreateMessage replay: %v", err)
	}

	if first.ID == second.ID {
		t.Error("replay reused the message id")
	}
	var count int64
	db.Model(&models.Message{}).Count(&count)
	if count != 2 {
		t.Errorf("message rows = %d, want 2", count)
	}
	if first.Content != "Olá, preciso de ajuda" {
		t.Errorf("content = %q", first.Content)
	}
	if first.TicketSnapshot.QueueName != "Vendas" || first.TicketSnapshot.ContactName != "João Silva" {
		t.Errorf("snapshot = %+v", first.TicketSnapshot)
	}
	if first.CRM.Sentiment != "neutro" {
		t.Errorf("sentiment = %q", first.CRM.Sentiment)
	}
}

func TestCreateMessageContentFallback(t *testing.T) {
	db := newTestDB(t)
	store := NewStore(db)
	ctx := context.Background()

	p := messagePayload()
	delete(p, "mensagem")
	ticket, _ := store.UpsertTicket(ctx, p)
	contact, _ := store.UpsertContact(ctx, p)

	msg, err := store.CreateMessage(ctx, p, models.MessageActionStart, ticket, contact)
	if err != nil {
		t.Fatalf("CreateMessage: %v", err)
	}
	if msg.Content != "Conversa iniciada" {
		t.Errorf("content = %q, want the start placeholder", msg.Content)
	}
}

func TestCreateMessageResponseTime(t *testing.T) {
	db := newTestDB(t)
	store := NewStore(db)
	ctx := context.Background()
	p := messagePayload()

	ticket, _ := store.UpsertTicket(ctx, p)
	contact, _ := store.UpsertContact(ctx, p)

	// Customer message answered 125 seconds later.
	inbound := models.Message{
		ID:        uuid.NewString(),
		Sender:    "5511989091838",
		TicketID:  357,
		Action:    models.MessageActionMessage,
		Content:   "Qual o status do meu pedido?",
		FromMe:    false,
		CreatedAt: time.Now().Add(-125 * time.Second),
	}
	if err := db.Create(&inbound).Error; err != nil {
		t.Fatalf("seed inbound: %v", err)
	}

	reply := messagePayload()
	reply["fromme"] = true
	reply["mensagem"] = "Seu pedido saiu para entrega"

	msg, err := store.CreateMessage(ctx, reply, models.MessageActionMessage, ticket, contact)
	if err != nil {
		t.Fatalf("CreateMessage: %v", err)
	}
	if msg.CRM.ResponseTime == nil {
		t.Fatal("response time not derived for an outbound reply")
	}
	if got := *msg.CRM.ResponseTime; got < 124 || got > 126 {
		t.Errorf("response time = %ds, want ~125s", got)
	}
}

func TestCreateMessageResponseTimeUndefined(t *testing.T) {
	db := newTestDB(t)
	store := NewStore(db)
	ctx := context.Background()
	p := messagePayload()

	ticket, _ := store.UpsertTicket(ctx, p)
	contact, _ := store.UpsertContact(ctx, p)

	// No prior customer message on the ticket.
	reply := messagePayload()
	reply["fromme"] = true
	msg, err := store.CreateMessage(ctx, reply, models.MessageActionMessage, ticket, contact)
	if err != nil {
		t.Fatalf("CreateMessage: %v", err)
	}
	if msg.CRM.ResponseTime != nil {
		t.Errorf("response time = %v, want unset", *msg.CRM.ResponseTime)
	}

	// Start events never derive a response time, even outbound.
	msg, err = store.CreateMessage(ctx, reply, models.MessageActionStart, ticket, contact)
	if err != nil {
		t.Fatalf("CreateMessage: %v", err)
	}
	if msg.CRM.ResponseTime != nil {
		t.Error("response time derived for a start event")
	}
}

func TestSnapshotIsFrozen(t *testing.T) {
	db := newTestDB(t)
	store := NewStore(db)
	ctx := context.Background()
	p := messagePayload()

	ticket, _ := store.UpsertTicket(ctx, p)
	contact, _ := store.UpsertContact(ctx, p)
	msg, err := store.CreateMessage(ctx, p, models.MessageActionStart, ticket, contact)
	if err != nil {
		t.Fatalf("CreateMessage: %v", err)
	}

	// Move the ticket to another queue; the stored snapshot must not follow.
	moved := messagePayload()
	moved.GetMap("ticketdata")["queue"] = map[string]any{"id": 9.0, "name": "Suporte", "color": "#ff0000"}
	if _, err := store.UpsertTicket(ctx, moved); err != nil {
		t.Fatalf("UpsertTicket: %v", err)
	}

	var stored models.Message
	if err := db.First(&stored, "id = ?", msg.ID).Error; err != nil {
		t.Fatalf("reload message: %v", err)
	}
	if stored.TicketSnapshot.QueueName != "Vendas" {
		t.Errorf("snapshot queue = %q, want the queue at message time", stored.TicketSnapshot.QueueName)
	}
}

func TestCreateFileMessage(t *testing.T) {
	db := newTestDB(t)
	store := NewStore(db)
	ctx := context.Background()

	p := messagePayload()
	p["acao"] = "fila data"
	p["mediafolder"] = "company1"
	p["medianame"] = "comprovante.pdf"
	p["backendurl"] = "https://backend.example.com"
	delete(p.GetMap("ticketdata"), "lastmessage")

	ticket, _ := store.UpsertTicket(ctx, p)
	contact, _ := store.UpsertContact(ctx, p)

	msg, err := store.CreateFileMessage(ctx, p, ticket, contact)
	if err != nil {
		t.Fatalf("CreateFileMessage: %v", err)
	}
	if msg.Action != models.MessageActionMedia {
		t.Errorf("action = %q", msg.Action)
	}
	if msg.Content != "Arquivo enviado" {
		t.Errorf("content = %q", msg.Content)
	}
	if msg.Media == nil {
		t.Fatal("media descriptor missing")
	}
	if msg.Media.MediaType != "document" || msg.Media.Filename != "comprovante.pdf" {
		t.Errorf("media = %+v", msg.Media)
	}
}

func TestCreateStatusMessage(t *testing.T) {
	db := newTestDB(t)
	store := NewStore(db)
	ctx := context.Background()

	if _, err := store.UpsertTicket(ctx, messagePayload()); err != nil {
		t.Fatalf("seed ticket: %v", err)
	}
	p := webhook.Payload{"acao": "Closed", "chamadoid": 357.0, "sender": "5511989091838"}
	ticket, err := store.UpdateTicketStatus(ctx, p)
	if err != nil {
		t.Fatalf("UpdateTicketStatus: %v", err)
	}

	msg, err := store.CreateStatusMessage(ctx, p, ticket)
	if err != nil {
		t.Fatalf("CreateStatusMessage: %v", err)
	}
	if msg.Sender != "system" {
		t.Errorf("sender = %q", msg.Sender)
	}
	if msg.Content != "Status alterado para: closed" {
		t.Errorf("content = %q", msg.Content)
	}
	if msg.Action != models.MessageActionStatusChange {
		t.Errorf("action = %q", msg.Action)
	}
}
