// internal/handlers/session_ws.go
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"runtime/debug"
	"strings"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"github.com/jason-s-yu/gpcards/internal/game"
	"github.com/jason-s-yu/gpcards/internal/hub"
	"github.com/jason-s-yu/gpcards/internal/middleware"
	"github.com/jason-s-yu/gpcards/internal/models"
	"github.com/sirupsen/logrus"
)

const (
	pingInterval = 30 * time.Second
	pingTimeout  = 15 * time.Second
	writeTimeout = 5 * time.Second
	readLimit    = 64 << 10
)

// SessionWSHandler upgrades the request and runs the connection until the
// client goes away. Every connection gets a client ID in the hello handshake
// and joins at most one session.
func SessionWSHandler(srv *SessionServer) http.HandlerFunc {
	logger := srv.Logger
	return func(w http.ResponseWriter, r *http.Request) {
		c, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			OriginPatterns: srv.OriginPatterns,
		})
		if err != nil {
			logger.Warnf("websocket accept error: %v", err)
			return
		}
		defer c.Close(websocket.StatusInternalError, "handler finished")
		c.SetReadLimit(readLimit)

		ctx, cancel := context.WithCancel(r.Context())
		defer cancel()

		conn := hub.NewConnection(r.RemoteAddr, cancel)
		middleware.LogWebSocketConnect(logger, r.RemoteAddr, r.URL.Path, conn.ClientID.String())

		conn.Write(helloMessage(conn.ClientID, srv.ServerPort))
		go writePump(ctx, c, conn, logger)

		readErr := srv.readPump(ctx, c, conn)

		srv.handleDisconnect(conn)
		conn.Close()
		middleware.LogWebSocketDisconnect(logger, r.RemoteAddr, r.URL.Path, conn.ClientID.String(), readErr)
	}
}

// readPump reads frames until the connection fails. It returns the read
// error for abnormal closures and nil otherwise.
func (srv *SessionServer) readPump(ctx context.Context, c *websocket.Conn, conn *hub.Connection) error {
	logger := srv.Logger
	for {
		typ, data, err := c.Read(ctx)
		if err != nil {
			status := websocket.CloseStatus(err)
			switch {
			case status == websocket.StatusNormalClosure || status == websocket.StatusGoingAway:
				return nil
			case errors.Is(err, context.Canceled) || strings.Contains(err.Error(), "context canceled"):
				return nil
			default:
				logger.Warnf("Read error for client %v: %v (CloseStatus: %d)", conn.ClientID, err, status)
				return err
			}
		}

		if typ != websocket.MessageText {
			logger.Warnf("Received non-text message type %d from client %v. Ignoring.", typ, conn.ClientID)
			continue
		}

		srv.dispatch(conn, data)
	}
}

// internalErrorMessage is all a client learns about a server fault.
const internalErrorMessage = "internal error"

// dispatch decodes one client frame and routes it. A panic while handling
// the frame is reported to the sender as SERVER_ERROR; the connection stays up.
func (srv *SessionServer) dispatch(conn *hub.Connection, data []byte) {
	defer func() {
		if r := recover(); r != nil {
			srv.Logger.WithFields(logrus.Fields{
				"client": conn.ClientID,
				"stack":  string(debug.Stack()),
			}).Errorf("panic while handling message: %v", r)
			conn.WriteError(string(game.CodeInternal), internalErrorMessage)
		}
	}()

	var msg ClientMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		srv.malformed(conn, fmt.Sprintf("invalid JSON: %v", err))
		return
	}

	switch msg.Type {
	case TypeSessionCreate:
		srv.handleCreate(conn, msg)
	case TypeSessionJoin:
		srv.handleJoin(conn, msg)
	case TypeLobbyReady:
		srv.withSeat(conn, func(s *game.Session, playerID uuid.UUID) error {
			_, err := s.SetReady(playerID, msg.Ready)
			return err
		})
	case TypeGameStart:
		srv.withSeat(conn, func(s *game.Session, playerID uuid.UUID) error {
			_, err := s.Start(playerID)
			return err
		})
	case TypeTurnRoll:
		srv.withSeat(conn, func(s *game.Session, playerID uuid.UUID) error {
			_, err := s.Roll(playerID)
			return err
		})
	case TypeSubmitAnswer:
		var in game.AnswerInput
		if msg.Answer != nil {
			in = *msg.Answer
		}
		srv.withSeat(conn, func(s *game.Session, playerID uuid.UUID) error {
			_, err := s.SubmitAnswer(playerID, in)
			return err
		})
	case TypeAskQuestion:
		srv.withSeat(conn, func(s *game.Session, playerID uuid.UUID) error {
			_, err := s.AskQuestion(playerID, msg.Question)
			return err
		})
	case TypeVote:
		srv.withSeat(conn, func(s *game.Session, playerID uuid.UUID) error {
			_, err := s.CastVote(playerID, models.Verdict(msg.Vote), msg.Comment)
			return err
		})
	case TypePing:
		conn.Write(hub.Message{"type": TypePong})
	default:
		srv.malformed(conn, fmt.Sprintf("unknown message type %q", msg.Type))
	}
}

func (srv *SessionServer) handleCreate(conn *hub.Connection, msg ClientMessage) {
	settings := msg.SettingsOverrides.Apply(models.DefaultSettings())
	session := srv.Store.Create(settings)
	srv.Logger.WithFields(logrus.Fields{
		"client":  conn.ClientID,
		"session": session.ID,
	}).Info("Session created")
	conn.Write(createdMessage(session.Snapshot()))
}

func (srv *SessionServer) handleJoin(conn *hub.Connection, msg ClientMessage) {
	if sid, _, bound := conn.Binding(); bound {
		conn.WriteError(string(game.CodeWrongPhase), fmt.Sprintf("already joined session %s", sid))
		return
	}
	sessionID, err := uuid.Parse(msg.SessionID)
	if err != nil {
		conn.WriteError(string(game.CodeNotFound), "")
		return
	}
	session, err := srv.Store.Get(sessionID)
	if err != nil {
		srv.writeActionError(conn, err)
		return
	}

	_, _, err = session.Join(msg.Name, func(p models.Player) {
		conn.Bind(sessionID, p.ID)
		srv.Hub.Attach(sessionID, p.ID, conn)
		conn.Write(joinedMessage(sessionID, p.ID))
	})
	if err != nil {
		srv.writeActionError(conn, err)
		return
	}
	srv.Logger.WithFields(logrus.Fields{
		"client":  conn.ClientID,
		"session": sessionID,
	}).Info("Client joined session")
}

// withSeat resolves the connection's session and player and runs fn.
// Successful actions are broadcast by the session itself.
func (srv *SessionServer) withSeat(conn *hub.Connection, fn func(s *game.Session, playerID uuid.UUID) error) {
	sessionID, playerID, bound := conn.Binding()
	if !bound {
		conn.WriteError(string(game.CodeNotFound), "join a session first")
		return
	}
	session, err := srv.Store.Get(sessionID)
	if err != nil {
		srv.writeActionError(conn, err)
		return
	}
	if err := fn(session, playerID); err != nil {
		srv.writeActionError(conn, err)
	}
}

// handleDisconnect removes the connection's player from its session and
// drops the session once it is empty.
func (srv *SessionServer) handleDisconnect(conn *hub.Connection) {
	sessionID, playerID, bound := conn.Binding()
	if !bound {
		return
	}
	srv.Hub.Detach(sessionID, playerID)

	session, err := srv.Store.Get(sessionID)
	if err != nil {
		return
	}
	if _, empty := session.RemovePlayer(playerID); empty {
		srv.Store.Remove(sessionID)
	}
}

func (srv *SessionServer) writeActionError(conn *hub.Connection, err error) {
	var actionErr *game.ActionError
	if errors.As(err, &actionErr) {
		conn.WriteError(string(actionErr.Code), actionErr.Message)
		return
	}
	srv.Logger.WithField("client", conn.ClientID).Errorf("unexpected action error: %v", err)
	conn.WriteError(string(game.CodeInternal), internalErrorMessage)
}

// malformed drops the frame, or reports it when ReportMalformed is set.
func (srv *SessionServer) malformed(conn *hub.Connection, reason string) {
	srv.Logger.WithField("client", conn.ClientID).Debugf("Dropping malformed message: %s", reason)
	if srv.ReportMalformed {
		conn.WriteError(string(game.CodeBadMessage), reason)
	}
}

// writePump drains OutChan onto the socket and keeps the connection alive with pings.
func writePump(ctx context.Context, c *websocket.Conn, conn *hub.Connection, logger *logrus.Logger) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()
	defer c.Close(websocket.StatusGoingAway, "write pump stopping")

	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-conn.OutChan:
			if !ok {
				return
			}
			data, err := json.Marshal(msg)
			if err != nil {
				logger.Warnf("Failed to marshal outgoing %v for client %v: %v", msg["type"], conn.ClientID, err)
				continue
			}

			writeCtx, cancel := context.WithTimeout(ctx, writeTimeout)
			err = c.Write(writeCtx, websocket.MessageText, data)
			cancel()
			if err != nil {
				logger.Warnf("Failed to write to websocket for client %v: %v", conn.ClientID, err)
				conn.Cancel()
				return
			}
		case <-ticker.C:
			pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
			err := c.Ping(pingCtx)
			cancel()
			if err != nil {
				logger.Warnf("Failed to send ping to client %v: %v. Assuming disconnect.", conn.ClientID, err)
				conn.Cancel()
				return
			}
		}
	}
}
