package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strings"

	"backend-discoverudupi/internal/auth"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

var ErrNoSession = errors.New("not signed in")

// Events streams auth events for the signed-in user. The channel is closed
// when ctx is done or the connection drops.
func (c *Client) Events(ctx context.Context) (<-chan auth.Event, error) {
	s := c.Session()
	if s == nil {
		return nil, ErrNoSession
	}
	wsURL, err := c.streamURL(s.User.ID)
	if err != nil {
		return nil, err
	}
	header := http.Header{}
	header.Set("Authorization", "Bearer "+s.AccessToken)
	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, wsURL, header)
	if err != nil {
		if resp != nil {
			return nil, &APIError{Status: resp.StatusCode, Message: "event stream: " + http.StatusText(resp.StatusCode)}
		}
		return nil, err
	}

	out := make(chan auth.Event, 16)
	done := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		case <-done:
		}
		_ = conn.Close()
	}()
	go func() {
		defer close(out)
		defer close(done)
		for {
			_, msg, err := conn.ReadMessage()
			if err != nil {
				if ctx.Err() == nil && !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
					c.log.Warn("event stream closed", zap.Error(err))
				}
				return
			}
			var ev auth.Event
			if err := json.Unmarshal(msg, &ev); err != nil || ev.Type == "" {
				c.log.Warn("skipping malformed event", zap.ByteString("payload", msg))
				continue
			}
			select {
			case out <- ev:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}

func (c *Client) streamURL(userID string) (string, error) {
	u, err := url.Parse(c.base + "/stream/ws/" + url.PathEscape(userID))
	if err != nil {
		return "", err
	}
	switch strings.ToLower(u.Scheme) {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	return u.String(), nil
}
