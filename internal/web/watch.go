package web

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	log "github.com/sirupsen/logrus"

	"xconsole/internal/form"
	"xconsole/internal/model"
	"xconsole/internal/watch"
)

const writeTimeout = 10 * time.Second

type watchMessage struct {
	Type    string       `json:"type"`
	Items   []watch.Item `json:"items"`
	Added   []string     `json:"added,omitempty"`
	Removed []string     `json:"removed,omitempty"`
	Updated []string     `json:"updated,omitempty"`
	Error   string       `json:"error,omitempty"`
}

// watchOperation streams the items of a list operation. Query parameters of
// the upgrade request fill the operation's form.
func (s *Server) watchOperation(w http.ResponseWriter, r *http.Request) {
	op, ok := s.lookup(w, r)
	if !ok {
		return
	}
	req, err := s.assemble(op, r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: s.originPatterns(),
	})
	if err != nil {
		log.WithError(err).Warn("web: websocket accept")
		return
	}
	defer conn.CloseNow()

	// Clients only listen; CloseRead cancels ctx once they go away.
	ctx := conn.CloseRead(r.Context())
	logger := log.WithField("operation", op.ID)
	logger.Debug("web: watch started")

	p := watch.New(s.dispatcher, req, s.opts.PollInterval)
	err = p.Run(ctx, func(u watch.Update) {
		msg := watchMessage{Type: "snapshot", Items: u.Items}
		if msg.Items == nil {
			msg.Items = []watch.Item{}
		}
		msg.Added = keys(u.Diff.Added)
		msg.Removed = keys(u.Diff.Removed)
		msg.Updated = keys(u.Diff.Updated)
		if err := send(ctx, conn, msg); err != nil {
			logger.WithError(err).Debug("web: watch send")
		}
	})
	if err != nil {
		_ = send(ctx, conn, watchMessage{Type: "error", Items: []watch.Item{}, Error: err.Error()})
		conn.Close(websocket.StatusNormalClosure, "watch failed")
		return
	}
	logger.Debug("web: watch stopped")
	conn.Close(websocket.StatusNormalClosure, "")
}

func (s *Server) assemble(op model.Operation, r *http.Request) (model.Request, error) {
	var schema *model.Schema
	body, found, err := s.catalog.BodySchema(op)
	if err != nil {
		return model.Request{}, err
	}
	if found {
		schema = &body
	}
	state := model.FormState{}
	for k, v := range r.URL.Query() {
		if len(v) > 0 {
			state[k] = v[0]
		}
	}
	return form.Assemble(op, schema, state)
}

// originPatterns is nil for same-origin only. Patterns match the origin host.
func (s *Server) originPatterns() []string {
	if s.opts.OriginAllowed == "" {
		return nil
	}
	if u, err := url.Parse(s.opts.OriginAllowed); err == nil && u.Host != "" {
		return []string{u.Host}
	}
	return []string{s.opts.OriginAllowed}
}

func send(ctx context.Context, conn *websocket.Conn, msg watchMessage) error {
	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()
	return wsjson.Write(ctx, conn, msg)
}

func keys(items []watch.Item) []string {
	if len(items) == 0 {
		return nil
	}
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = watch.ItemKey(it)
	}
	return out
}
