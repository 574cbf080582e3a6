// Package reconcile is the entity reconciliation layer. Every upsert is keyed
// by the externally issued Whaticket id: find-or-create, overwrite the mutable
// fields, return the stored record. Replaying an identical event leaves the
// database in the same final state.
package reconcile

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"whaticket-crm/internal/models"
	"whaticket-crm/internal/webhook"
)

type Store struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// contactData locates the contact substructure: nested under the ticket data
// (any key casing) or at the top level.
func contactData(p webhook.Payload) webhook.Payload {
	if td := p.GetMap("ticketdata"); td != nil {
		if c := td.GetMap("contact"); c != nil {
			return c
		}
	}
	return p.GetMap("contact")
}

// UpsertContact reconciles the contact referenced by a message/file event.
// The last-interaction timestamp is refreshed on every successful upsert.
func (s *Store) UpsertContact(ctx context.Context, p webhook.Payload) (*models.Contact, error) {
	data := contactData(p)
	if data == nil {
		return nil, fmt.Errorf("contact data: %w", models.ErrMissingSubstructure)
	}
	return s.upsertContactFields(ctx, data, true)
}

// UpsertContactFromTagEvent reconciles the reduced contact snapshot carried
// by a tag-sync event.
func (s *Store) UpsertContactFromTagEvent(ctx context.Context, data webhook.Payload) (*models.Contact, error) {
	if data == nil {
		return nil, fmt.Errorf("contact data: %w", models.ErrMissingSubstructure)
	}
	return s.upsertContactFields(ctx, data, false)
}

func (s *Store) upsertContactFields(ctx context.Context, data webhook.Payload, full bool) (*models.Contact, error) {
	whaticketID := data.GetInt("id")

	var contact models.Contact
	err := s.db.WithContext(ctx).Where("whaticket_id = ?", whaticketID).First(&contact).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		contact = models.Contact{
			WhaticketID: whaticketID,
			CRM: models.ContactCRM{
				LeadStatus: models.LeadStatusNovo,
				Source:     "whaticket",
			},
		}
	case err != nil:
		return nil, fmt.Errorf("find contact %d: %w", whaticketID, err)
	}

	contact.Name = data.GetString("name")
	contact.Number = data.GetString("number")
	contact.Email = data.GetString("email")
	contact.ProfilePicURL = data.GetString("profilepicurl")
	if full {
		contact.AcceptAudioMessage = boolDefaultTrue(data, "acceptaudiomessage")
		contact.Active = boolDefaultTrue(data, "active")
		contact.DisableBot = data.GetBool("disablebot")
		contact.ExtraInfo = extraInfo(data.GetSlice("extrainfo"))
	} else {
		contact.Active = true
	}
	contact.CRM.LastInteraction = time.Now()

	if err := s.db.WithContext(ctx).Save(&contact).Error; err != nil {
		return nil, fmt.Errorf("save contact %d: %w", whaticketID, err)
	}
	return &contact, nil
}

// boolDefaultTrue treats a missing flag as true; only an explicit false
// turns it off. This matches how Whaticket sends optional booleans.
func boolDefaultTrue(p webhook.Payload, key string) bool {
	v, ok := p.Get(key)
	if !ok {
		return true
	}
	b, isBool := v.(bool)
	if isBool {
		return b
	}
	return true
}

func extraInfo(raw []any) []models.ExtraInfo {
	var out []models.ExtraInfo
	for _, item := range raw {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}
		entry := models.ExtraInfo{Value: m["value"]}
		if k, ok := m["key"].(string); ok {
			entry.Key = k
		}
		out = append(out, entry)
	}
	return out
}

// UpsertTicket reconciles the ticket substructure of an event and recomputes
// the SLA status against the record's creation time.
func (s *Store) UpsertTicket(ctx context.Context, p webhook.Payload) (*models.Ticket, error) {
	td := p.GetMap("ticketdata")
	if td == nil {
		return nil, fmt.Errorf("ticket data: %w", models.ErrMissingSubstructure)
	}
	whaticketID := td.GetInt("id")

	now := time.Now()
	var ticket models.Ticket
	err := s.db.WithContext(ctx).Where("whaticket_id = ?", whaticketID).First(&ticket).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		ticket = models.Ticket{
			WhaticketID: whaticketID,
			CreatedAt:   now,
			CRM: models.TicketCRM{
				Priority: models.PriorityNormal,
				Category: "geral",
			},
		}
	case err != nil:
		return nil, fmt.Errorf("find ticket %d: %w", whaticketID, err)
	}

	ticket.UUID = td.GetString("uuid")
	ticket.Status = td.GetString("status")
	ticket.UnreadMessages = td.GetInt("unreadmessages")
	ticket.LastMessage = td.GetString("lastmessage")
	ticket.IsGroup = td.GetBool("isgroup")
	ticket.ContactID = td.GetInt("contactid")
	ticket.UserID = td.GetInt("userid")
	ticket.WhatsappID = td.GetInt("whatsappid")
	ticket.QueueID = td.GetInt("queueid")
	ticket.QueueOptionID = td.GetInt("queueoptionid")
	ticket.CompanyID = td.GetInt("companyid")
	ticket.Chatbot = td.GetBool("chatbot")
	ticket.Channel = td.GetString("channel")
	if ticket.Channel == "" {
		ticket.Channel = "whatsapp"
	}
	ticket.Queue = queueInfo(td.GetMap("queue"))
	ticket.User = userInfo(td.GetMap("user"))
	ticket.Whatsapp = whatsappInfo(td.GetMap("whatsapp"))
	ticket.Company = companyInfo(td.GetMap("company"))
	ticket.WhaticketCreatedAt = parseTime(td.GetString("createdat"))
	ticket.WhaticketUpdatedAt = parseTime(td.GetString("updatedat"))

	created := ticket.CreatedAt
	if created.IsZero() {
		created = ticket.WhaticketCreatedAt
	}
	ticket.CRM.SLAStatus = ComputeSLAStatus(ticket.CRM.Priority, created, now)

	if err := s.db.WithContext(ctx).Save(&ticket).Error; err != nil {
		return nil, fmt.Errorf("save ticket %d: %w", whaticketID, err)
	}
	return &ticket, nil
}

// UpdateTicketStatus applies an open/closed status change to an existing
// ticket. Closing stamps the resolution time once.
func (s *Store) UpdateTicketStatus(ctx context.Context, p webhook.Payload) (*models.Ticket, error) {
	whaticketID := p.GetInt("chamadoid")

	var ticket models.Ticket
	err := s.db.WithContext(ctx).Where("whaticket_id = ?", whaticketID).First(&ticket).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return nil, fmt.Errorf("ticket %d: %w", whaticketID, models.ErrTicketNotFound)
	case err != nil:
		return nil, fmt.Errorf("find ticket %d: %w", whaticketID, err)
	}

	now := time.Now()
	ticket.Status = strings.ToLower(p.GetString("acao"))
	ticket.WhaticketUpdatedAt = now
	if ticket.Status == models.TicketStatusClosed && ticket.CRM.ResolvedAt == nil {
		ticket.CRM.ResolvedAt = &now
	}
	ticket.CRM.SLAStatus = ComputeSLAStatus(ticket.CRM.Priority, ticket.CreatedAt, now)

	if err := s.db.WithContext(ctx).Save(&ticket).Error; err != nil {
		return nil, fmt.Errorf("save ticket %d: %w", whaticketID, err)
	}
	return &ticket, nil
}

// MarkFirstResponse stamps the ticket's first-response time once.
func (s *Store) MarkFirstResponse(ctx context.Context, ticket *models.Ticket) error {
	if ticket.CRM.FirstResponseAt != nil {
		return nil
	}
	now := time.Now()
	ticket.CRM.FirstResponseAt = &now
	return s.db.WithContext(ctx).Save(ticket).Error
}

func queueInfo(m webhook.Payload) *models.QueueInfo {
	if m == nil {
		return nil
	}
	return &models.QueueInfo{
		WhaticketID: m.GetInt("id"),
		Name:        m.GetString("name"),
		Color:       m.GetString("color"),
	}
}

func userInfo(m webhook.Payload) *models.UserInfo {
	if m == nil {
		return nil
	}
	return &models.UserInfo{WhaticketID: m.GetInt("id"), Name: m.GetString("name")}
}

func whatsappInfo(m webhook.Payload) *models.WhatsappInfo {
	if m == nil {
		return nil
	}
	return &models.WhatsappInfo{
		WhaticketID: m.GetInt("id"),
		Name:        m.GetString("name"),
		Webhook:     m.GetString("webhook"),
	}
}

func companyInfo(m webhook.Payload) *models.CompanyInfo {
	if m == nil {
		return nil
	}
	return &models.CompanyInfo{WhaticketID: m.GetInt("id"), Name: m.GetString("name")}
}

// parseTime accepts the timestamp formats Whaticket emits. Unparseable input
// yields the zero time.
func parseTime(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02 15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
