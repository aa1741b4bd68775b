package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/coder/websocket"

	"github.com/smartmark/smartmark/internal/auth"
	"github.com/smartmark/smartmark/internal/cache"
	"github.com/smartmark/smartmark/internal/domain"
	"github.com/smartmark/smartmark/internal/httpserver/deps"
	"github.com/smartmark/smartmark/internal/logger"
	appsync "github.com/smartmark/smartmark/internal/sync"
)

// outboundBuffer bounds pending frames per connection. A client that
// cannot keep up gets disconnected rather than stalling the session.
const outboundBuffer = 32

type clientIntent struct {
	Op    string `json:"op"`
	Title string `json:"title,omitempty"`
	URL   string `json:"url,omitempty"`
	ID    string `json:"id,omitempty"`
}

type stateFrame struct {
	Type      string            `json:"type"`
	Bookmarks []domain.Bookmark `json:"bookmarks"`
}

type errorFrame struct {
	Type    string `json:"type"`
	Op      string `json:"op,omitempty"`
	Message string `json:"message"`
}

// Stream runs one live bookmark session per websocket connection: a
// local cache filled by a sync controller, re-sent to the client as a
// full state frame on every effective change. Client intents (add,
// delete) come back over the same socket.
func Stream(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, ok := auth.SessionFrom(r.Context())
		if !ok {
			http.Error(w, "authentication required", http.StatusUnauthorized)
			return
		}

		conn, err := websocket.Accept(w, r, nil)
		if err != nil {
			d.Logger.Debug("websocket accept failed", logger.Error(err))
			return
		}
		defer conn.CloseNow()

		ctx, cancel := context.WithCancel(r.Context())
		defer cancel()

		log := d.Logger.With(logger.String("user_id", sess.UserID))
		log.Info("websocket session opened")

		outbound := make(chan []byte, outboundBuffer)
		enqueue := func(frame any) {
			data, err := json.Marshal(frame)
			if err != nil {
				log.Error("failed to encode frame", logger.Error(err))
				return
			}
			select {
			case outbound <- data:
			default:
				// Client is not draining; drop the session, it can
				// reconnect and refetch.
				log.Warn("websocket client too slow, disconnecting")
				cancel()
			}
		}

		local := cache.New(func(records []domain.Bookmark) {
			enqueue(stateFrame{Type: "state", Bookmarks: records})
		})
		ctrl := appsync.New(d.Store, d.Events, local, sess.UserID, log, func(op string, err error) {
			enqueue(errorFrame{Type: "error", Op: op, Message: mutationMessage(op)})
		})

		// Single writer: all frames leave through this goroutine.
		writerDone := make(chan struct{})
		go func() {
			defer close(writerDone)
			for {
				select {
				case <-ctx.Done():
					return
				case data := <-outbound:
					if err := conn.Write(ctx, websocket.MessageText, data); err != nil {
						cancel()
						return
					}
				}
			}
		}()

		go ctrl.Run(ctx)

		// Read loop owns the connection lifetime. Mutations run inline,
		// so one session's intents apply in the order they were sent.
		for {
			_, data, err := conn.Read(ctx)
			if err != nil {
				break
			}

			var intent clientIntent
			if err := json.Unmarshal(data, &intent); err != nil {
				enqueue(errorFrame{Type: "error", Message: "malformed message"})
				continue
			}

			switch intent.Op {
			case "add":
				_ = ctrl.Add(ctx, intent.Title, intent.URL)
			case "delete":
				_ = ctrl.Delete(ctx, intent.ID)
			default:
				enqueue(errorFrame{Type: "error", Op: intent.Op, Message: "unknown operation"})
			}
		}

		cancel()
		<-writerDone
		log.Info("websocket session closed")
	}
}

func mutationMessage(op string) string {
	switch op {
	case "add":
		return "failed to save bookmark"
	case "delete":
		return "failed to delete bookmark, restored"
	default:
		return "operation failed"
	}
}
