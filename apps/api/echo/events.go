package echoapi

import (
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/sajili/core"
)

const (
	wsWriteWait  = 10 * time.Second
	wsPongWait   = 60 * time.Second
	wsPingPeriod = (wsPongWait * 9) / 10
)

type eventsApi struct {
	auth     *authenticator
	deps     ServerDeps
	upgrader websocket.Upgrader
}

// registerEventsAPI registers the websocket streaming change notifications.
// Browsers cannot set headers on websockets, so the JWT comes in the `token` query param.
func registerEventsAPI(g *echo.Group, auth *authenticator, deps ServerDeps) {
	api := eventsApi{
		auth: auth,
		deps: deps,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return origin == "" || origin == deps.Conf.FrontendBaseURL
			},
		},
	}
	g.GET("/events", api.stream)
}

// eventTopics returns the topics asked for in the `topic` query param (comma separated) the claims may watch.
// Students only watch sessions.
func eventTopics(ctx echo.Context, claims Claims) []string {
	var topics []string
	if raw := ctx.QueryParam("topic"); raw != "" {
		for _, t := range strings.Split(raw, ",") {
			if t = strings.TrimSpace(t); t != "" {
				topics = append(topics, t)
			}
		}
	}
	if !claims.IsStudent {
		return topics
	}
	return []string{core.TopicSessions}
}

func (api *eventsApi) stream(ctx echo.Context) error {
	claims, err := api.auth.parseToken(ctx.QueryParam("token"))
	if err != nil {
		return err
	}
	if !claims.IsAdmin && !claims.IsStudent {
		return errHttpForbidden
	}

	sub, err := api.deps.Bus.Subscribe(ctx.Request().Context(), eventTopics(ctx, claims)...)
	if err != nil {
		return errors.Wrap(err, "subscribing to events")
	}
	defer sub.Close()

	conn, err := api.upgrader.Upgrade(ctx.Response(), ctx.Request(), nil)
	if err != nil {
		// the upgrader already replied
		api.deps.Logger.Warn("upgrading to websocket", err)
		return nil
	}
	defer conn.Close()

	// read pump: only control frames are expected; any read error means the client is gone
	done := make(chan struct{})
	_ = conn.SetReadDeadline(time.Now().Add(wsPongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(wsPongWait))
	})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(wsPingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return nil
		case evt, ok := <-sub.C():
			if !ok {
				_ = conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, ""), time.Now().Add(wsWriteWait))
				return nil
			}
			_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := conn.WriteJSON(evt); err != nil {
				return nil
			}
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(wsWriteWait)); err != nil {
				return nil
			}
		}
	}
}
