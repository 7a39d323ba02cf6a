package server

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/jrsteele09/go-punch-server/dispatch"
)

// telegramUpdate is the subset of the Bot API update payload the webhook
// cares about. Everything else is ignored.
type telegramUpdate struct {
	Message *struct {
		Text string `json:"text"`
		Chat struct {
			ID int64 `json:"id"`
		} `json:"chat"`
		From struct {
			ID        int64  `json:"id"`
			FirstName string `json:"first_name"`
			LastName  string `json:"last_name"`
			Username  string `json:"username"`
		} `json:"from"`
	} `json:"message"`
}

// WebhookHandler decodes a Telegram update into a typed inbound event and
// hands it to the dispatcher. It always answers 200 "ok": Telegram retries
// non-200 responses, and a retried break command would double-apply.
func (s *Server) WebhookHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var update telegramUpdate
		if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
			log.Warn().Err(err).Msg("undecodable webhook payload")
			writeOK(w)
			return
		}
		if update.Message == nil || strings.TrimSpace(update.Message.Text) == "" {
			writeOK(w)
			return
		}

		event := dispatch.InboundEvent{
			ChatID:   strconv.FormatInt(update.Message.Chat.ID, 10),
			MemberID: memberName(update),
			Text:     update.Message.Text,
		}
		s.dispatcher.Handle(r.Context(), event)
		writeOK(w)
	}
}

// memberName builds the stable display identity: full name, falling back to
// the username, then "Anonymous".
func memberName(update telegramUpdate) string {
	from := update.Message.From
	name := strings.TrimSpace(strings.TrimSpace(from.FirstName) + " " + strings.TrimSpace(from.LastName))
	if name != "" {
		return name
	}
	if from.Username != "" {
		return from.Username
	}
	return "Anonymous"
}

func writeOK(w http.ResponseWriter) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}
