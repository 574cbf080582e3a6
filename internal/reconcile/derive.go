package reconcile

import (
	"math"
	"path/filepath"
	"strings"
	"time"

	"whaticket-crm/internal/models"
)

// slaThresholdHours returns the first-response threshold for a priority.
func slaThresholdHours(priority string) float64 {
	switch priority {
	case models.PriorityCritica:
		return 2
	case models.PriorityAlta:
		return 4
	case models.PriorityNormal:
		return 12
	default:
		return 24
	}
}

// ComputeSLAStatus derives the SLA classification of a ticket from its
// priority and the time elapsed since creation. At or past the threshold the
// ticket is breached; at or past 80% of it, approaching.
func ComputeSLAStatus(priority string, createdAt, now time.Time) string {
	threshold := slaThresholdHours(priority)
	elapsed := now.Sub(createdAt).Hours()

	switch {
	case elapsed >= threshold:
		return models.SLABreached
	case elapsed >= 0.8*threshold:
		return models.SLAApproaching
	default:
		return models.SLAOnTrack
	}
}

// ResponseSeconds returns the whole seconds between an outbound reply and the
// customer message it answers.
func ResponseSeconds(replyAt, lastInboundAt time.Time) int {
	return int(math.Round(replyAt.Sub(lastInboundAt).Seconds()))
}

var mediaTypeByExt = map[string]string{
	"jpg": "image", "jpeg": "image", "png": "image", "gif": "image",
	"mp3": "audio", "ogg": "audio", "wav": "audio", "aac": "audio",
	"mp4": "video", "avi": "video", "mov": "video", "wmv": "video",
	"pdf": "document", "doc": "document", "docx": "document", "xls": "document",
}

// MediaTypeFromFilename maps a filename extension to a coarse media type,
// defaulting to document.
func MediaTypeFromFilename(filename string) string {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(filename), "."))
	if t, ok := mediaTypeByExt[ext]; ok {
		return t
	}
	return "document"
}
