// Package pipeline orchestrates webhook processing: classify the payload,
// route it to the matching handler sequence, and hand input and output to the
// audit log. Primary entity writes complete before Process returns; audit
// writes and enrichment are best-effort and never fail the event.
package pipeline

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"whaticket-crm/internal/auditlog"
	"whaticket-crm/internal/models"
	"whaticket-crm/internal/reconcile"
	"whaticket-crm/internal/tagrules"
	"whaticket-crm/internal/webhook"
)

type Pipeline struct {
	store *reconcile.Store
	tags  *tagrules.Engine
	audit auditlog.Recorder
}

func New(store *reconcile.Store, tags *tagrules.Engine, audit auditlog.Recorder) *Pipeline {
	return &Pipeline{store: store, tags: tags, audit: audit}
}

// Result aggregates what a processed event produced.
type Result struct {
	Action    webhook.Action    `json:"action"`
	ContactID uint              `json:"contact_id,omitempty"`
	TicketID  uint              `json:"ticket_id,omitempty"`
	MessageID string            `json:"message_id,omitempty"`
	TagIDs    []uint            `json:"tag_ids,omitempty"`
	EventID   string            `json:"event_id,omitempty"`
	NewStatus string            `json:"new_status,omitempty"`
	Media     *models.MediaInfo `json:"media,omitempty"`
	AuditFile string            `json:"audit_file,omitempty"`
}

// Process runs one webhook event through the pipeline. Fatal errors are
// recorded as error artifacts and returned to the caller; the transport layer
// owns any retry behavior.
func (pl *Pipeline) Process(ctx context.Context, p webhook.Payload) (*Result, error) {
	action := webhook.Classify(p)
	if action == webhook.ActionUnknown {
		err := fmt.Errorf("classify payload: %w", models.ErrUnsupportedAction)
		pl.recordError(err, p, action)
		return nil, err
	}

	log.Info().Str("action", string(action)).Msg("Processing webhook")

	rawFile, err := pl.audit.RecordRaw(p, string(action))
	if err != nil {
		log.Error().Err(err).Str("action", string(action)).Msg("Failed to record raw artifact")
		rawFile = ""
	}

	var res *Result
	switch action {
	case webhook.ActionStart:
		res, err = pl.handleMessage(ctx, p, models.MessageActionStart)
	case webhook.ActionMessage:
		res, err = pl.handleMessage(ctx, p, models.MessageActionMessage)
	case webhook.ActionTagSync:
		res, err = pl.handleTagSync(ctx, p)
	case webhook.ActionStatusChange:
		res, err = pl.handleStatusChange(ctx, p)
	case webhook.ActionFile:
		res, err = pl.handleFile(ctx, p)
	}
	if err != nil {
		pl.recordError(err, p, action)
		return nil, err
	}

	res.Action = action
	res.AuditFile = rawFile
	if _, aerr := pl.audit.RecordProcessed(res, string(action), rawFile); aerr != nil {
		log.Error().Err(aerr).Str("action", string(action)).Msg("Failed to record processed artifact")
	}
	return res, nil
}

func (pl *Pipeline) handleMessage(ctx context.Context, p webhook.Payload, action string) (*Result, error) {
	contact, err := pl.store.UpsertContact(ctx, p)
	if err != nil {
		return nil, err
	}
	ticket, err := pl.store.UpsertTicket(ctx, p)
	if err != nil {
		return nil, err
	}
	msg, err := pl.store.CreateMessage(ctx, p, action, ticket, contact)
	if err != nil {
		return nil, err
	}

	if msg.FromMe && action == models.MessageActionMessage {
		if err := pl.store.MarkFirstResponse(ctx, ticket); err != nil {
			log.Warn().Err(err).Int("ticket", ticket.WhaticketID).Msg("Failed to stamp first response")
		}
	}

	pl.enrichAsync(msg.ID)

	tagIDs, err := pl.tags.Apply(ctx, p.GetInt("companyid"), msg.Content, p)
	if err != nil {
		// Rule evaluation is a side channel; it never fails the event.
		log.Error().Err(err).Msg("Automatic tag evaluation failed")
	}

	return &Result{
		ContactID: contact.ID,
		TicketID:  ticket.ID,
		MessageID: msg.ID,
		TagIDs:    tagIDs,
	}, nil
}

func (pl *Pipeline) handleTagSync(ctx context.Context, p webhook.Payload) (*Result, error) {
	contact, err := pl.store.UpsertContactFromTagEvent(ctx, p.GetMap("contact"))
	if err != nil {
		return nil, err
	}

	var tagIDs []uint
	if tags := p.GetMap("tags"); tags != nil {
		for _, item := range tags.GetSlice("tags") {
			tm, ok := item.(map[string]any)
			if !ok {
				continue
			}
			tag, err := pl.store.UpsertTag(ctx, webhook.Payload(tm))
			if err != nil {
				return nil, err
			}
			tagIDs = append(tagIDs, tag.ID)
		}
	}

	event, err := pl.store.CreateTagEvent(ctx, p)
	if err != nil {
		return nil, err
	}

	return &Result{
		ContactID: contact.ID,
		TagIDs:    tagIDs,
		EventID:   event.ID,
	}, nil
}

func (pl *Pipeline) handleStatusChange(ctx context.Context, p webhook.Payload) (*Result, error) {
	ticket, err := pl.store.UpdateTicketStatus(ctx, p)
	if err != nil {
		return nil, err
	}
	msg, err := pl.store.CreateStatusMessage(ctx, p, ticket)
	if err != nil {
		return nil, err
	}

	return &Result{
		TicketID:  ticket.ID,
		MessageID: msg.ID,
		NewStatus: ticket.Status,
	}, nil
}

func (pl *Pipeline) handleFile(ctx context.Context, p webhook.Payload) (*Result, error) {
	contact, err := pl.store.UpsertContact(ctx, p)
	if err != nil {
		return nil, err
	}
	ticket, err := pl.store.UpsertTicket(ctx, p)
	if err != nil {
		return nil, err
	}
	msg, err := pl.store.CreateFileMessage(ctx, p, ticket, contact)
	if err != nil {
		return nil, err
	}

	return &Result{
		ContactID: contact.ID,
		TicketID:  ticket.ID,
		MessageID: msg.ID,
		Media:     msg.Media,
	}, nil
}

// enrichAsync runs intent and keyword derivation off the request path.
// Failures are logged and never merged into the primary result.
func (pl *Pipeline) enrichAsync(messageID string) {
	go func() {
		if err := pl.store.EnrichMessage(context.Background(), messageID); err != nil {
			log.Warn().Err(err).Str("messageID", messageID).Msg("Message enrichment failed")
		}
	}()
}

func (pl *Pipeline) recordError(procErr error, p webhook.Payload, action webhook.Action) {
	if _, err := pl.audit.RecordError(procErr, p, string(action)); err != nil {
		log.Error().Err(err).Msg("Failed to record error artifact")
	}
}
