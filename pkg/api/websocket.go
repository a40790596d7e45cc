package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rubiojr/postsearch/pkg/search"
)

const (
	wsMaxMessageSize = 4096
	wsWriteWait      = 10 * time.Second
	wsIdleTimeout    = 5 * time.Minute
)

// HandleAutocompleteWS serves autocomplete over a WebSocket so a search box
// can ask for suggestions on every keystroke without a request per query.
// Each text frame {"q": "..."} gets exactly one reply, in order.
func (s *Server) HandleAutocompleteWS(w http.ResponseWriter, r *http.Request) {
	l := s.logger.With("request_id", RequestID(r.Context())).With("path", r.URL.Path)

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote the HTTP error.
		l.Warnf("websocket upgrade failed: %v", err)
		return
	}
	defer func() { _ = conn.Close() }()

	conn.SetReadLimit(wsMaxMessageSize)
	l.Debugf("websocket client connected")

	for {
		if err := conn.SetReadDeadline(time.Now().Add(wsIdleTimeout)); err != nil {
			l.Warnf("set read deadline: %v", err)
			return
		}
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				l.Warnf("websocket read: %v", err)
			}
			return
		}

		reply := s.answerWS(r.Context(), data)
		if err := conn.SetWriteDeadline(time.Now().Add(wsWriteWait)); err != nil {
			l.Warnf("set write deadline: %v", err)
			return
		}
		if err := conn.WriteJSON(reply); err != nil {
			l.Warnf("websocket write: %v", err)
			return
		}
	}
}

func (s *Server) answerWS(parent context.Context, data []byte) any {
	var msg wsQuery
	if err := json.Unmarshal(data, &msg); err != nil {
		return wsError{Error: "Invalid message"}
	}

	ctx, cancel := context.WithTimeout(parent, s.timeout)
	defer cancel()

	titles, err := s.coordinator.Autocomplete(ctx, msg.Q)
	if errors.Is(err, search.ErrEmptyQuery) {
		return wsError{Q: msg.Q, Error: msgQueryRequired}
	}
	if err != nil {
		s.logger.With("request_id", RequestID(parent)).With("q", msg.Q).
			Errorf("websocket autocomplete failed: %v", err)
		return wsError{Q: msg.Q, Error: msgInternal}
	}
	if titles == nil {
		titles = []string{}
	}
	return wsSuggestions{Q: msg.Q, Suggestions: titles}
}
