package reconcile

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"whaticket-crm/internal/models"
	"whaticket-crm/internal/webhook"
)

var tagColorRe = regexp.MustCompile(`^#([A-Fa-f0-9]{6}|[A-Fa-f0-9]{3})$`)

// UpsertTag reconciles one tag from a sync event. The color must be a hex
// value. When the payload carries automatic rules they replace the stored
// rule set wholesale; usage counters are preserved.
func (s *Store) UpsertTag(ctx context.Context, data webhook.Payload) (*models.Tag, error) {
	whaticketID := data.GetInt("id")
	color := data.GetString("color")
	if !tagColorRe.MatchString(color) {
		return nil, fmt.Errorf("tag %d color %q: %w", whaticketID, color, models.ErrValidation)
	}

	var tag models.Tag
	err := s.db.WithContext(ctx).Where("whaticket_id = ?", whaticketID).First(&tag).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		tag = models.Tag{
			WhaticketID: whaticketID,
			CRM:         models.TagCRM{Category: "personalizada"},
		}
	case err != nil:
		return nil, fmt.Errorf("find tag %d: %w", whaticketID, err)
	}

	tag.Name = data.GetString("name")
	tag.Color = color
	tag.Kanban = data.GetInt("kanban")
	tag.Prioridade = data.GetInt("prioridade")
	tag.Conversao = data.GetString("conversao")
	if tag.Conversao == "" {
		tag.Conversao = "none"
	}
	tag.CompanyID = data.GetInt("companyid")
	tag.WhaticketCreatedAt = parseTime(data.GetString("createdat"))
	tag.WhaticketUpdatedAt = parseTime(data.GetString("updatedat"))

	if rules := data.GetMap("automaticrules"); rules != nil {
		tag.CRM.IsAutomatic = data.GetBool("isautomatic")
		tag.CRM.Rules = tagRules(rules)
	}

	if err := s.db.WithContext(ctx).Save(&tag).Error; err != nil {
		return nil, fmt.Errorf("save tag %d: %w", whaticketID, err)
	}
	return &tag, nil
}

// tagRules builds a fresh rule set from the payload. The stored rules are
// never merged field-by-field.
func tagRules(m webhook.Payload) models.TagRules {
	var rules models.TagRules
	for _, kw := range m.GetSlice("keywords") {
		if s, ok := kw.(string); ok {
			rules.Keywords = append(rules.Keywords, s)
		}
	}
	for _, item := range m.GetSlice("conditions") {
		cm, ok := item.(map[string]any)
		if !ok {
			continue
		}
		cond := webhook.Payload(cm)
		rules.Conditions = append(rules.Conditions, models.TagCondition{
			Field:    cond.GetString("field"),
			Operator: cond.GetString("operator"),
			Value:    cond.GetString("value"),
		})
	}
	return rules
}

// CreateTagEvent appends the record of a tag sync: the tag list and contact
// exactly as received. Tag events are never updated afterwards.
func (s *Store) CreateTagEvent(ctx context.Context, p webhook.Payload) (*models.TagEvent, error) {
	tags := p.GetMap("tags")
	if tags == nil {
		return nil, fmt.Errorf("tag list: %w", models.ErrMissingSubstructure)
	}
	contact := p.GetMap("contact")
	if contact == nil {
		return nil, fmt.Errorf("contact data: %w", models.ErrMissingSubstructure)
	}

	now := time.Now()
	event := &models.TagEvent{
		ID:       uuid.NewString(),
		Action:   "tag_sync",
		TicketID: tags.GetInt("ticketid"),
		Contact: models.ContactSnapshot{
			WhaticketID: contact.GetInt("id"),
			Name:        contact.GetString("name"),
			Number:      contact.GetString("number"),
			Email:       contact.GetString("email"),
		},
		Metadata:   models.EventMetadata{TriggeredBy: "webhook"},
		RawPayload: p,
	}
	for _, item := range tags.GetSlice("tags") {
		tm, ok := item.(map[string]any)
		if !ok {
			continue
		}
		tp := webhook.Payload(tm)
		applied := now
		event.Tags = append(event.Tags, models.AppliedTag{
			WhaticketID: tp.GetInt("id"),
			Name:        tp.GetString("name"),
			Color:       tp.GetString("color"),
			AppliedAt:   &applied,
		})
	}

	if err := s.db.WithContext(ctx).Create(event).Error; err != nil {
		return nil, fmt.Errorf("create tag event: %w", err)
	}
	return event, nil
}
