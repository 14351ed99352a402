package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/ebogdum/hotfs/events"
	"github.com/ebogdum/hotfs/hotfolder"
)

const (
	wsWriteWait  = 10 * time.Second
	wsPongWait   = 60 * time.Second
	wsPingPeriod = wsPongWait * 9 / 10
)

var wsUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// V1HotfolderEvents streams the events of one hotfolder as JSON text
// messages on /v1/hotfolders/{id}/events, or of every hotfolder on
// /v1/events.
func V1HotfolderEvents(manager *hotfolder.Manager, broadcaster *events.Broadcaster, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		if id != "" {
			if _, ok := lookupHotfolder(w, r, manager, logger); !ok {
				return
			}
		}

		conn, err := wsUpgrader.Upgrade(w, r, nil)
		if err != nil {
			logger.Warn("Failed to upgrade websocket", zap.Error(err))
			return
		}
		defer conn.Close()

		ch := broadcaster.Subscribe(id)
		defer broadcaster.Unsubscribe(ch)

		logger.Debug("Event stream opened", zap.String("hotfolder", id))

		// The client never sends data; reading only services control frames
		// and notices the close.
		closed := make(chan struct{})
		go func() {
			defer close(closed)
			conn.SetReadLimit(512)
			_ = conn.SetReadDeadline(time.Now().Add(wsPongWait))
			conn.SetPongHandler(func(string) error {
				return conn.SetReadDeadline(time.Now().Add(wsPongWait))
			})
			for {
				if _, _, err := conn.NextReader(); err != nil {
					return
				}
			}
		}()

		ping := time.NewTicker(wsPingPeriod)
		defer ping.Stop()

		for {
			select {
			case <-closed:
				logger.Debug("Event stream closed by client", zap.String("hotfolder", id))
				return
			case event, ok := <-ch:
				if !ok {
					return
				}
				data, err := events.MarshalEvent(event)
				if err != nil {
					logger.Error("Failed to marshal event", zap.Error(err))
					continue
				}
				_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
				if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
					logger.Debug("Failed writing event", zap.Error(err))
					return
				}
			case <-ping.C:
				if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(wsWriteWait)); err != nil {
					return
				}
			}
		}
	}
}
