package models

import "time"

// Lead statuses for the sales funnel.
const (
	LeadStatusNovo        = "novo"
	LeadStatusContactado  = "contactado"
	LeadStatusQualificado = "qualificado"
	LeadStatusProposta    = "proposta"
	LeadStatusNegociacao  = "negociacao"
	LeadStatusFechado     = "fechado"
	LeadStatusPerdido     = "perdido"
)

// Ticket priorities.
const (
	PriorityBaixa   = "baixa"
	PriorityNormal  = "normal"
	PriorityAlta    = "alta"
	PriorityCritica = "critica"
)

// SLA statuses derived from priority and elapsed time.
const (
	SLAOnTrack     = "dentro_prazo"
	SLAApproaching = "proximo_vencimento"
	SLABreached    = "vencido"
)

// Detectable message intents.
const (
	IntentDuvida      = "duvida"
	IntentReclamacao  = "reclamacao"
	IntentElogio      = "elogio"
	IntentSolicitacao = "solicitacao"
	IntentInformacao  = "informacao"
	IntentVendas      = "vendas"
	IntentSuporte     = "suporte"
)

// ContactCRM holds the business-process metadata layered on a contact.
type ContactCRM struct {
	LeadStatus      string        `json:"lead_status"`
	Source          string        `json:"source"`
	LeadScore       int           `json:"lead_score"`
	LastInteraction time.Time     `json:"last_interaction"`
	AssignedTo      string        `json:"assigned_to,omitempty"`
	Notes           []ContactNote `json:"notes,omitempty"`
	CustomTags      []string      `json:"custom_tags,omitempty"`
}

// ContactNote is a free-form internal note on a contact.
type ContactNote struct {
	Content   string    `json:"content"`
	CreatedBy string    `json:"created_by"`
	CreatedAt time.Time `json:"created_at"`
}

// TicketCRM holds the business-process metadata layered on a ticket.
type TicketCRM struct {
	Priority            string        `json:"priority"`
	Category            string        `json:"category"`
	FirstResponseAt     *time.Time    `json:"first_response_at,omitempty"`
	ResolvedAt          *time.Time    `json:"resolved_at,omitempty"`
	Rating              *TicketRating `json:"rating,omitempty"`
	CloseReason         string        `json:"close_reason,omitempty"`
	SLAStatus           string        `json:"sla_status"`
	EstimatedResolution *time.Time    `json:"estimated_resolution,omitempty"`
}

// TicketRating is an end-of-service rating left by the contact.
type TicketRating struct {
	Score   int       `json:"score"`
	Comment string    `json:"comment,omitempty"`
	RatedAt time.Time `json:"rated_at"`
}

// MessageCRM holds derived analysis fields on a message. ResponseTime is in
// whole seconds and only set on outbound replies that follow an inbound
// customer message on the same ticket.
type MessageCRM struct {
	Sentiment        string   `json:"sentiment"`
	UrgencyScore     int      `json:"urgency_score"`
	Intent           string   `json:"intent,omitempty"`
	Keywords         []string `json:"keywords,omitempty"`
	AutoResponseSent bool     `json:"auto_response_sent"`
	ResponseTime     *int     `json:"response_time,omitempty"`
	Category         string   `json:"category,omitempty"`
}

// TagCRM holds the automatic-rule configuration and usage statistics of a tag.
type TagCRM struct {
	Category      string           `json:"category"`
	IsAutomatic   bool             `json:"is_automatic"`
	Rules         TagRules         `json:"automatic_rules"`
	Actions       TagActions       `json:"actions"`
	Usage         TagUsage         `json:"usage"`
	Notifications TagNotifications `json:"notifications"`
}

// TagRules is the rule set evaluated by the automatic tag engine. Keywords
// match as case-insensitive substrings (any one suffices); Conditions must
// all hold.
type TagRules struct {
	Keywords   []string       `json:"keywords,omitempty"`
	Conditions []TagCondition `json:"conditions,omitempty"`
}

// TagCondition is a single structured condition against a dot-path field.
type TagCondition struct {
	Field    string `json:"field"`
	Operator string `json:"operator"`
	Value    string `json:"value"`
}

// TagActions describes follow-up actions configured for a tag.
type TagActions struct {
	ChangeStatus string `json:"change_status,omitempty"`
	AssignToUser string `json:"assign_to_user,omitempty"`
	SendMessage  string `json:"send_message,omitempty"`
	CreateTask   bool   `json:"create_task,omitempty"`
}

// TagUsage tracks how often a tag has been applied.
type TagUsage struct {
	TotalApplications int        `json:"total_applications"`
	LastUsed          *time.Time `json:"last_used,omitempty"`
	ActiveTickets     int        `json:"active_tickets"`
}

// TagNotifications configures who is notified when a tag is applied.
type TagNotifications struct {
	NotifyOnApply bool     `json:"notify_on_apply"`
	NotifyUsers   []string `json:"notify_users,omitempty"`
}
