package event

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidatePayload(t *testing.T) {
	tests := []struct {
		name    string
		payload any
		wantErr bool
	}{
		{"join ok", JoinPayload{ConversationID: "c1"}, false},
		{"join missing conversation", JoinPayload{}, true},
		{"typing ok", TypingPayload{ConversationID: "c1"}, false},
		{"message ok", MessagePayload{ConversationID: "c1", Text: "hi"}, false},
		{"message ok without client id", MessagePayload{ConversationID: "c1", Text: "hi", ClientID: ""}, false},
		{"message missing text", MessagePayload{ConversationID: "c1"}, true},
		{"message missing conversation", MessagePayload{Text: "hi"}, true},
		{"markRead ok", MarkReadPayload{ConversationID: "c1"}, false},
		{"markRead missing conversation", MarkReadPayload{}, true},
		{"historyPage ok", HistoryPagePayload{ConversationID: "c1", Page: 2, Limit: 30}, false},
		{"historyPage defaults allowed", HistoryPagePayload{ConversationID: "c1"}, false},
		{"historyPage page below one", HistoryPagePayload{ConversationID: "c1", Page: -1}, true},
		{"historyPage limit too large", HistoryPagePayload{ConversationID: "c1", Limit: 500}, true},
		{"ensureDM ok", EnsureDMPayload{UserID: "u1"}, false},
		{"ensureDM missing user", EnsureDMPayload{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePayload(tt.payload)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestOutboundWrapsPayload(t *testing.T) {
	req := require.New(t)

	ev, err := Outbound(EventTyping, TypingEvent{ConversationID: "c1", From: "alice"})
	req.NoError(err)
	req.Equal(EventTyping, ev.Event)

	var p TypingEvent
	req.NoError(json.Unmarshal(ev.Payload, &p))
	req.Equal("c1", p.ConversationID)
	req.Equal("alice", p.From)
}

func TestWsEventRoundTrip(t *testing.T) {
	req := require.New(t)

	raw := []byte(`{"event":"message","payload":{"conversationId":"c1","text":"hi"}}`)
	var ev WsEvent
	req.NoError(json.Unmarshal(raw, &ev))
	req.Equal(EventMessage, ev.Event)

	var p MessagePayload
	req.NoError(json.Unmarshal(ev.Payload, &p))
	req.Equal("hi", p.Text)
}
