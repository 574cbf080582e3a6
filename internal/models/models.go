package models

import (
	"time"
)

// Ticket status values as issued by Whaticket.
const (
	TicketStatusPending = "pending"
	TicketStatusOpen    = "open"
	TicketStatusClosed  = "closed"
)

// Contact mirrors a Whaticket contact plus the CRM layer on top of it.
type Contact struct {
	ID                 uint        `gorm:"primaryKey" json:"id"`
	WhaticketID        int         `gorm:"uniqueIndex;not null" json:"whaticket_id"`
	Name               string      `gorm:"type:varchar(255);index" json:"name"`
	Number             string      `gorm:"type:varchar(50);index" json:"number"`
	Email              string      `gorm:"type:varchar(255)" json:"email"`
	ProfilePicURL      string      `gorm:"type:text" json:"profile_pic_url"`
	AcceptAudioMessage bool        `gorm:"default:true" json:"accept_audio_message"`
	Active             bool        `gorm:"default:true;index" json:"active"`
	DisableBot         bool        `gorm:"default:false" json:"disable_bot"`
	ExtraInfo          []ExtraInfo `gorm:"serializer:json" json:"extra_info"`
	CRM                ContactCRM  `gorm:"serializer:json" json:"crm_data"`
	CreatedAt          time.Time   `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt          time.Time   `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Contact) TableName() string {
	return "contacts"
}

// ExtraInfo is a free-form key/value pair attached to a contact by Whaticket.
type ExtraInfo struct {
	Key   string `json:"key"`
	Value any    `json:"value"`
}

// Ticket mirrors a Whaticket ticket with denormalized queue/user/whatsapp/company
// snapshots taken at the last sync.
type Ticket struct {
	ID                 uint          `gorm:"primaryKey" json:"id"`
	WhaticketID        int           `gorm:"uniqueIndex;not null" json:"whaticket_id"`
	UUID               string        `gorm:"type:char(36);uniqueIndex" json:"uuid"`
	Status             string        `gorm:"type:varchar(20);index" json:"status"`
	UnreadMessages     int           `gorm:"default:0" json:"unread_messages"`
	LastMessage        string        `gorm:"type:text" json:"last_message"`
	IsGroup            bool          `gorm:"default:false" json:"is_group"`
	ContactID          int           `gorm:"index" json:"contact_id"`
	UserID             int           `gorm:"index" json:"user_id"`
	WhatsappID         int           `gorm:"index" json:"whatsapp_id"`
	QueueID            int           `gorm:"index" json:"queue_id"`
	QueueOptionID      int           `json:"queue_option_id"`
	CompanyID          int           `gorm:"index" json:"company_id"`
	Chatbot            bool          `gorm:"default:false" json:"chatbot"`
	Channel            string        `gorm:"type:varchar(50);default:'whatsapp'" json:"channel"`
	Queue              *QueueInfo    `gorm:"serializer:json" json:"queue"`
	User               *UserInfo     `gorm:"serializer:json" json:"user"`
	Whatsapp           *WhatsappInfo `gorm:"serializer:json" json:"whatsapp"`
	Company            *CompanyInfo  `gorm:"serializer:json" json:"company"`
	CRM                TicketCRM     `gorm:"serializer:json" json:"crm_data"`
	Tags               []int         `gorm:"serializer:json" json:"tags"`
	WhaticketCreatedAt time.Time     `json:"whaticket_created_at"`
	WhaticketUpdatedAt time.Time     `json:"whaticket_updated_at"`
	CreatedAt          time.Time     `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt          time.Time     `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Ticket) TableName() string {
	return "tickets"
}

// QueueInfo is the queue snapshot embedded in a ticket.
type QueueInfo struct {
	WhaticketID int    `json:"whaticket_id"`
	Name        string `json:"name"`
	Color       string `json:"color"`
}

// UserInfo is the attending user snapshot embedded in a ticket.
type UserInfo struct {
	WhaticketID int    `json:"whaticket_id"`
	Name        string `json:"name"`
}

// WhatsappInfo is the WhatsApp channel snapshot embedded in a ticket.
type WhatsappInfo struct {
	WhaticketID int    `json:"whaticket_id"`
	Name        string `json:"name"`
	Webhook     string `json:"webhook,omitempty"`
}

// CompanyInfo is the company snapshot embedded in a ticket.
type CompanyInfo struct {
	WhaticketID int    `json:"whaticket_id"`
	Name        string `json:"name"`
}

// Message action kinds.
const (
	MessageActionStart          = "start"
	MessageActionMessage        = "message"
	MessageActionMedia          = "media"
	MessageActionStatusChange   = "status_change"
	MessageActionQueueChange    = "queue_change"
	MessageActionUserAssignment = "user_assignment"
)

// Message is a single webhook-delivered message. Messages are immutable after
// creation except for the CRM enrichment written by the same processing run.
// TicketSnapshot freezes the ticket state at the moment the message arrived,
// independent of later ticket mutation.
type Message struct {
	ID             string         `gorm:"type:char(36);primaryKey" json:"id"`
	Sender         string         `gorm:"type:varchar(50);index" json:"sender"`
	TicketID       int            `gorm:"index;not null" json:"ticket_id"`
	Action         string         `gorm:"type:varchar(30);index" json:"action"`
	Content        string         `gorm:"type:text" json:"content"`
	CompanyID      int            `gorm:"index" json:"company_id"`
	WhatsappID     int            `json:"whatsapp_id"`
	FromMe         bool           `gorm:"default:false;index" json:"from_me"`
	QueueID        int            `json:"queue_id"`
	IsGroup        bool           `gorm:"default:false" json:"is_group"`
	Media          *MediaInfo     `gorm:"serializer:json" json:"media,omitempty"`
	TicketSnapshot TicketSnapshot `gorm:"serializer:json" json:"ticket_snapshot"`
	CRM            MessageCRM     `gorm:"serializer:json" json:"crm_data"`
	RawPayload     map[string]any `gorm:"serializer:json" json:"raw_payload"`
	CreatedAt      time.Time      `gorm:"index" json:"created_at"`
	UpdatedAt      time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Message) TableName() string {
	return "messages"
}

// MediaInfo describes the attachment of a media message.
type MediaInfo struct {
	Folder     string `json:"folder"`
	Filename   string `json:"filename"`
	BackendURL string `json:"backend_url"`
	MediaType  string `json:"media_type"`
	FileSize   int64  `json:"file_size,omitempty"`
	MimeType   string `json:"mime_type,omitempty"`
}

// TicketSnapshot is the ticket state captured when a message was recorded.
type TicketSnapshot struct {
	Status        string `json:"status"`
	ContactName   string `json:"contact_name"`
	ContactNumber string `json:"contact_number"`
	QueueName     string `json:"queue_name"`
	UserName      string `json:"user_name"`
}

// Tag mirrors a Whaticket tag, unique per company, plus automatic-rule
// configuration and usage statistics in the CRM layer.
type Tag struct {
	ID                 uint      `gorm:"primaryKey" json:"id"`
	WhaticketID        int       `gorm:"uniqueIndex;not null" json:"whaticket_id"`
	Name               string    `gorm:"type:varchar(255);index" json:"name"`
	Color              string    `gorm:"type:varchar(7)" json:"color"`
	Kanban             int       `gorm:"default:0" json:"kanban"`
	Prioridade         int       `gorm:"default:0;index" json:"prioridade"`
	Conversao          string    `gorm:"type:varchar(20);default:'none'" json:"conversao"`
	CompanyID          int       `gorm:"index" json:"company_id"`
	CRM                TagCRM    `gorm:"serializer:json" json:"crm_data"`
	WhaticketCreatedAt time.Time `json:"whaticket_created_at"`
	WhaticketUpdatedAt time.Time `json:"whaticket_updated_at"`
	CreatedAt          time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt          time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Tag) TableName() string {
	return "tags"
}

// TagEvent is the append-only record of a tag sync. It is never updated
// after creation.
type TagEvent struct {
	ID         string          `gorm:"type:char(36);primaryKey" json:"id"`
	Action     string          `gorm:"type:varchar(20);index" json:"action"`
	TicketID   int             `gorm:"index" json:"ticket_id"`
	Tags       []AppliedTag    `gorm:"serializer:json" json:"tags"`
	Contact    ContactSnapshot `gorm:"serializer:json" json:"contact"`
	Metadata   EventMetadata   `gorm:"serializer:json" json:"metadata"`
	RawPayload map[string]any  `gorm:"serializer:json" json:"raw_payload"`
	CreatedAt  time.Time       `gorm:"autoCreateTime;index" json:"created_at"`
}

func (TagEvent) TableName() string {
	return "tag_events"
}

// AppliedTag is one tag as it appeared in a sync event.
type AppliedTag struct {
	WhaticketID int        `json:"whaticket_id"`
	Name        string     `json:"name"`
	Color       string     `json:"color"`
	AppliedAt   *time.Time `json:"applied_at,omitempty"`
	RemovedAt   *time.Time `json:"removed_at,omitempty"`
}

// ContactSnapshot is the contact state captured inside a tag event.
type ContactSnapshot struct {
	WhaticketID int    `json:"whaticket_id"`
	Name        string `json:"name"`
	Number      string `json:"number"`
	Email       string `json:"email"`
}

// EventMetadata records what triggered a tag event.
type EventMetadata struct {
	TriggeredBy string `json:"triggered_by"`
	UserID      string `json:"user_id,omitempty"`
	Reason      string `json:"reason,omitempty"`
}
