package websocket

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/rocketscienceinc/gridclash-backend/internal/entity"
	"github.com/rocketscienceinc/gridclash-backend/internal/session"
)

// handleConnect - upgrades the connection and serves it until either side goes away.
func (that *Server) handleConnect(writer http.ResponseWriter, req *http.Request) {
	log := that.logger.With("method", "handleConnect")

	playerID, header := identify(req)

	conn, err := that.upgrader.Upgrade(writer, req, header)
	if err != nil {
		// the upgrader has already replied with an HTTP error
		log.Warn("failed to upgrade connection", "error", err)
		return
	}

	ctx := req.Context()
	sess := session.New(uuid.NewString(), playerID, that.options.QueueSize, that.options.OverflowPolicy)
	log = log.With("session_id", sess.ID, "player_id", playerID)

	log.Info("WebSocket connection established")

	pumpDone := make(chan struct{})
	go func() {
		defer close(pumpDone)
		that.writePump(ctx, conn, sess)
	}()

	defer func() {
		that.sync.Disconnect(context.WithoutCancel(ctx), sess)
		<-pumpDone

		log.Info("WebSocket connection closed", "overflowed", sess.Overflowed(), "dropped", sess.Dropped())
	}()

	if err = that.sync.Connect(ctx, sess); err != nil {
		// a player that does not fit on the board waits for a free cell
		log.Warn("player was not placed", "error", err)
	}

	that.readLoop(ctx, conn, sess)
}

// readLoop - hands every inbound message to the synchronizer until the connection fails.
func (that *Server) readLoop(ctx context.Context, conn *websocket.Conn, sess *session.Session) {
	log := that.logger.With("method", "readLoop", "session_id", sess.ID)

	conn.SetReadLimit(that.options.MaxMessageSize)
	_ = conn.SetReadDeadline(time.Now().Add(that.options.PongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(that.options.PongWait))
	})

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Warn("error reading message", "error", err)
			}

			return
		}

		_ = conn.SetReadDeadline(time.Now().Add(that.options.PongWait))

		if err = that.sync.HandleMove(ctx, sess, data); err != nil {
			log.Debug("move rejected", "error", err)
		}
	}
}

// writePump - the only writer on conn. Drains the session queue and keeps the connection alive with pings.
func (that *Server) writePump(ctx context.Context, conn *websocket.Conn, sess *session.Session) {
	log := that.logger.With("method", "writePump", "session_id", sess.ID)

	ticker := time.NewTicker(that.options.pingPeriod())
	defer func() {
		ticker.Stop()
		_ = conn.Close()
	}()

	for {
		select {
		case payload, ok := <-sess.Outbound():
			_ = conn.SetWriteDeadline(time.Now().Add(that.options.WriteTimeout))

			if !ok {
				_ = conn.WriteMessage(websocket.CloseMessage, closeMessage(sess))
				return
			}

			if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				log.Warn("failed to write message", "error", err)
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(that.options.WriteTimeout))

			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				log.Warn("failed to write ping", "error", err)
				return
			}
		case <-ctx.Done():
			_ = conn.SetWriteDeadline(time.Now().Add(that.options.WriteTimeout))
			_ = conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"))
			return
		}
	}
}

func closeMessage(sess *session.Session) []byte {
	if sess.Overflowed() {
		return websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "client too slow")
	}

	return websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
}

// identify - the player id from the identity cookie, or a new one with the header that sets it.
func identify(req *http.Request) (string, http.Header) {
	if cookie, err := req.Cookie(entity.IdentityCookie); err == nil && cookie.Value != "" {
		return cookie.Value, nil
	}

	playerID := uuid.NewString()

	header := http.Header{}
	header.Add("Set-Cookie", (&http.Cookie{
		Name:  entity.IdentityCookie,
		Value: playerID,
		Path:  "/",
	}).String())

	return playerID, header
}
