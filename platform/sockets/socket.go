package socket

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/DedS3t/monopoly-engine/platform/game"
	"github.com/DedS3t/monopoly-engine/platform/identity"
	"github.com/DedS3t/monopoly-engine/platform/queries"
	"github.com/DedS3t/monopoly-engine/platform/session"
	socketio "github.com/googollee/go-socket.io"
	"github.com/rs/cors"
	log "github.com/sirupsen/logrus"
)

const submitTimeout = 10 * time.Second

// connState is what a socket is known as after it connected.
type connState struct {
	mu   sync.Mutex
	id   identity.Identity
	room string
}

func (c *connState) Room() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.room
}

func (c *connState) setRoom(room string) {
	c.mu.Lock()
	c.room = room
	c.mu.Unlock()
}

// Broadcaster sends room events to every socket in the room.
type Broadcaster struct {
	IO *socketio.Server
}

func (b *Broadcaster) Broadcast(roomId, event string, payload interface{}) {
	data, err := json.Marshal(payload)
	if err != nil {
		log.WithError(err).WithFields(log.Fields{"room": roomId, "event": event}).Error("broadcast payload not encodable")
		return
	}
	b.IO.BroadcastToRoom("/", roomId, event, string(data))
}

type Server struct {
	IO     *socketio.Server
	hub    *session.Hub
	secret []byte
}

func NewServer(io *socketio.Server, hub *session.Hub, secret []byte) *Server {
	srv := &Server{IO: io, hub: hub, secret: secret}

	io.OnConnect("/", func(s socketio.Conn) error {
		u := s.URL()
		id, err := identity.Parse(secret, tokenFrom(&u, s.RemoteHeader()))
		if err != nil {
			log.WithError(err).WithField("socket", s.ID()).Debug("connection refused")
			return err
		}
		s.SetContext(&connState{id: id})
		log.WithFields(log.Fields{"socket": s.ID(), "user": id.UserId}).Debug("connected")
		return nil
	})

	for _, event := range clientEvents {
		event := event
		io.OnEvent("/", event, func(s socketio.Conn, body string) {
			srv.handle(s, event, body)
		})
	}

	io.OnError("/", func(s socketio.Conn, e error) {
		log.WithError(e).Warn("socket error")
	})

	io.OnDisconnect("/", func(s socketio.Conn, reason string) {
		c, ok := s.Context().(*connState)
		if !ok || c.Room() == "" {
			return
		}
		room := c.Room()
		s.LeaveAll()
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), submitTimeout)
			defer cancel()
			actor := game.Actor{PlayerId: c.id.UserId, DisplayName: c.id.Name}
			if _, err := hub.Submit(ctx, room, actor, game.Leave{}); err != nil {
				log.WithError(err).WithFields(log.Fields{"room": room, "user": c.id.UserId}).Debug("leave on disconnect")
			}
		}()
	})
	return srv
}

func (srv *Server) handle(s socketio.Conn, event, body string) {
	c, ok := s.Context().(*connState)
	if !ok {
		s.Emit("error-message", errorBody("NotAuthenticated", "connect with a token first"))
		return
	}
	roomId, cmd, err := ParseCommand(event, body)
	if err != nil {
		s.Emit("error-message", errorBody("BadRequest", err.Error()))
		return
	}
	if roomId == "" {
		roomId = c.Room()
	}
	if roomId == "" {
		s.Emit("error-message", errorBody(string(game.NotInRoom), "join a game first"))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), submitTimeout)
	defer cancel()
	entry := log.WithFields(log.Fields{"room": roomId, "user": c.id.UserId, "event": event})
	room, err := srv.hub.Submit(ctx, roomId, game.Actor{PlayerId: c.id.UserId, DisplayName: c.id.Name}, cmd)
	if err != nil {
		if rej, ok := game.AsRejection(err); ok {
			s.Emit("error-message", errorBody(string(rej.Reason), rej.Msg))
			return
		}
		if errors.Is(err, queries.ErrGameNotFound) {
			s.Emit("error-message", errorBody(string(game.InvalidTarget), "Invalid game"))
			return
		}
		entry.WithError(err).Error("command failed")
		s.Emit("error-message", errorBody("Internal", "the game could not process this action"))
		return
	}

	switch event {
	case EventJoin:
		if old := c.Room(); old != "" && old != roomId {
			s.Leave(old)
		}
		s.Join(roomId)
		c.setRoom(roomId)
		if data, err := json.Marshal(room); err == nil {
			s.Emit(session.EventRoomUpdate, string(data))
		}
		entry.Info("joined room")
	case EventLeave:
		if room.Player(c.id.UserId) == nil {
			s.Leave(roomId)
			c.setRoom("")
		}
	}
	s.Emit("confirmed", event)
}

// Handler serves socket.io for the given browser origins.
func (srv *Server) Handler(origins []string) http.Handler {
	c := cors.New(cors.Options{
		AllowedOrigins:   origins,
		AllowCredentials: true,
	})
	mux := http.NewServeMux()
	mux.Handle("/socket.io/", srv.IO)
	return c.Handler(mux)
}

func tokenFrom(u *url.URL, header http.Header) string {
	if t := u.Query().Get("token"); t != "" {
		return t
	}
	auth := header.Get("Authorization")
	if strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimPrefix(auth, "Bearer ")
	}
	return ""
}

func errorBody(reason, msg string) string {
	data, _ := json.Marshal(map[string]string{"reason": reason, "message": msg})
	return string(data)
}
