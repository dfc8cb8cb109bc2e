package client

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"net/url"

	"github.com/chepyr/go-todo/internal/models"
	"github.com/gorilla/websocket"
)

// Subscribe follows the change feed and calls fn for every event until ctx
// is done or the connection drops. It returns nil when ctx ends it.
func (c *Client) Subscribe(ctx context.Context, fn func(models.Event)) error {
	wsURL, err := websocketURL(c.baseURL + "/ws")
	if err != nil {
		return &TransportError{Op: OpSubscribe, Err: err}
	}
	req, err := http.NewRequest(http.MethodGet, wsURL, nil)
	if err != nil {
		return &TransportError{Op: OpSubscribe, Err: err}
	}
	if err := c.authorize(OpSubscribe, req); err != nil {
		return err
	}

	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, wsURL, req.Header)
	if err != nil {
		if resp != nil {
			resp.Body.Close()
			if resp.StatusCode == http.StatusUnauthorized {
				if err := c.store.Clear(); err != nil {
					log.Printf("Failed to clear rejected session: %v", err)
				}
			}
			return &APIError{Op: OpSubscribe, Status: resp.StatusCode, Message: OpSubscribe.FallbackMessage()}
		}
		return &TransportError{Op: OpSubscribe, Err: err}
	}
	defer conn.Close()

	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil || websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return nil
			}
			return &TransportError{Op: OpSubscribe, Err: err}
		}
		var event models.Event
		if err := json.Unmarshal(data, &event); err != nil {
			if c.debug != nil {
				c.debug.Printf("skipping malformed event: %v", err)
			}
			continue
		}
		fn(event)
	}
}

func websocketURL(raw string) (string, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", err
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	return u.String(), nil
}
