package webhook

import "strings"

// Action is the classified kind of an incoming webhook event.
type Action string

const (
	ActionStart        Action = "start"
	ActionMessage      Action = "message"
	ActionTagSync      Action = "tag_sync"
	ActionStatusChange Action = "status_change"
	ActionFile         Action = "file"
	ActionUnknown      Action = "unknown"
)

// Classify maps a raw payload to an action kind. It is pure and inspects only
// top-level fields, never the nested ticket data.
//
// Resolution order, first match wins:
//  1. action == "tag sync" (value compared exactly as received)
//  2. acao present: "start", "open"/"closed", "fila data" with a media folder,
//     anything else is a plain message
//  3. a message text or sender field present
//  4. unknown
func Classify(p Payload) Action {
	if v, ok := p.Get("action"); ok {
		if s, isStr := v.(string); isStr && s == "tag sync" {
			return ActionTagSync
		}
	}

	if acao := p.GetString("acao"); acao != "" {
		switch strings.ToLower(acao) {
		case "start":
			return ActionStart
		case "open", "closed":
			return ActionStatusChange
		case "fila data":
			if p.Has("mediafolder") {
				return ActionFile
			}
			return ActionMessage
		default:
			return ActionMessage
		}
	}

	if p.Has("mensagem") || p.Has("sender") {
		return ActionMessage
	}

	return ActionUnknown
}
