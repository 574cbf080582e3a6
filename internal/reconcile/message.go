package reconcile

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"whaticket-crm/internal/models"
	"whaticket-crm/internal/webhook"
)

// CreateMessage records a new message for a start/message event. Messages are
// never deduplicated; each delivery creates a row. The ticket snapshot is
// frozen at this moment and the response time is derived for outbound replies.
func (s *Store) CreateMessage(ctx context.Context, p webhook.Payload, action string, ticket *models.Ticket, contact *models.Contact) (*models.Message, error) {
	content := p.GetString("mensagem")
	if content == "" {
		content = p.GetString("lastmessage")
	}
	if content == "" {
		content = "Conversa iniciada"
	}

	now := time.Now()
	msg := &models.Message{
		ID:             uuid.NewString(),
		Sender:         p.GetString("sender"),
		TicketID:       ticketID(p, ticket),
		Action:         action,
		Content:        content,
		CompanyID:      p.GetInt("companyid"),
		WhatsappID:     whatsappID(p),
		FromMe:         p.GetBool("fromme"),
		QueueID:        p.GetInt("queueid"),
		IsGroup:        p.GetBool("isgroup"),
		TicketSnapshot: snapshot(ticket, contact, p.GetString("sender")),
		CRM:            models.MessageCRM{Sentiment: "neutro"},
		RawPayload:     p,
		CreatedAt:      now,
	}

	if msg.FromMe && action == models.MessageActionMessage {
		if prev, err := s.lastInboundMessage(ctx, msg.TicketID, now); err != nil {
			return nil, err
		} else if prev != nil {
			rt := ResponseSeconds(now, prev.CreatedAt)
			msg.CRM.ResponseTime = &rt
		}
	}

	if err := s.db.WithContext(ctx).Create(msg).Error; err != nil {
		return nil, fmt.Errorf("create message: %w", err)
	}
	return msg, nil
}

// CreateFileMessage records a media message carrying the file descriptor
// fields of a fila-data event.
func (s *Store) CreateFileMessage(ctx context.Context, p webhook.Payload, ticket *models.Ticket, contact *models.Contact) (*models.Message, error) {
	content := ""
	if td := p.GetMap("ticketdata"); td != nil {
		content = td.GetString("lastmessage")
	}
	if content == "" {
		content = "Arquivo enviado"
	}

	filename := p.GetString("medianame")
	msg := &models.Message{
		ID:         uuid.NewString(),
		Sender:     p.GetString("sender"),
		TicketID:   ticketID(p, ticket),
		Action:     models.MessageActionMedia,
		Content:    content,
		CompanyID:  p.GetInt("companyid"),
		WhatsappID: whatsappID(p),
		FromMe:     p.GetBool("fromme"),
		QueueID:    p.GetInt("queueid"),
		IsGroup:    p.GetBool("isgroup"),
		Media: &models.MediaInfo{
			Folder:     p.GetString("mediafolder"),
			Filename:   filename,
			BackendURL: p.GetString("backendurl"),
			MediaType:  MediaTypeFromFilename(filename),
		},
		TicketSnapshot: snapshot(ticket, contact, p.GetString("sender")),
		CRM:            models.MessageCRM{Sentiment: "neutro"},
		RawPayload:     p,
		CreatedAt:      time.Now(),
	}

	if err := s.db.WithContext(ctx).Create(msg).Error; err != nil {
		return nil, fmt.Errorf("create file message: %w", err)
	}
	return msg, nil
}

// CreateStatusMessage records the system message documenting a status change.
func (s *Store) CreateStatusMessage(ctx context.Context, p webhook.Payload, ticket *models.Ticket) (*models.Message, error) {
	msg := &models.Message{
		ID:         uuid.NewString(),
		Sender:     "system",
		TicketID:   ticket.WhaticketID,
		Action:     models.MessageActionStatusChange,
		Content:    "Status alterado para: " + strings.ToLower(p.GetString("acao")),
		CompanyID:  p.GetInt("companyid"),
		WhatsappID: whatsappID(p),
		FromMe:     false,
		QueueID:    p.GetInt("queueid"),
		IsGroup:    p.GetBool("isgroup"),
		TicketSnapshot: models.TicketSnapshot{
			Status:        ticket.Status,
			ContactNumber: p.GetString("sender"),
		},
		CRM:            models.MessageCRM{Sentiment: "neutro"},
		RawPayload:     p,
		CreatedAt:      time.Now(),
	}

	if err := s.db.WithContext(ctx).Create(msg).Error; err != nil {
		return nil, fmt.Errorf("create status message: %w", err)
	}
	return msg, nil
}

// lastInboundMessage finds the latest customer message on a ticket strictly
// before the given instant, or nil when none exists.
func (s *Store) lastInboundMessage(ctx context.Context, ticketID int, before time.Time) (*models.Message, error) {
	var prev models.Message
	err := s.db.WithContext(ctx).
		Where("ticket_id = ? AND from_me = ? AND action = ? AND created_at < ?",
			ticketID, false, models.MessageActionMessage, before).
		Order("created_at desc").
		First(&prev).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find last inbound message: %w", err)
	}
	return &prev, nil
}

func ticketID(p webhook.Payload, ticket *models.Ticket) int {
	if id := p.GetInt("chamadoid"); id != 0 {
		return id
	}
	return ticket.WhaticketID
}

func whatsappID(p webhook.Payload) int {
	if id := p.GetInt("defaultwhatsappid"); id != 0 {
		return id
	}
	return p.GetInt("whatsappid")
}

func snapshot(ticket *models.Ticket, contact *models.Contact, sender string) models.TicketSnapshot {
	snap := models.TicketSnapshot{
		Status:        ticket.Status,
		ContactNumber: sender,
	}
	if contact != nil {
		snap.ContactName = contact.Name
	}
	if ticket.Queue != nil {
		snap.QueueName = ticket.Queue.Name
	}
	if ticket.User != nil {
		snap.UserName = ticket.User.Name
	}
	return snap
}
