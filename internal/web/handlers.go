package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	log "github.com/sirupsen/logrus"

	"xconsole/internal/catalog"
	"xconsole/internal/console"
	"xconsole/internal/form"
	"xconsole/internal/highlight"
	"xconsole/internal/model"
)

type operationView struct {
	ID          string `json:"id"`
	Summary     string `json:"summary,omitempty"`
	Description string `json:"description,omitempty"`
	Method      string `json:"method"`
	Path        string `json:"path"`
	Tag         string `json:"tag"`
	Body        string `json:"body,omitempty"`
}

type groupView struct {
	Tag        string          `json:"tag"`
	Operations []operationView `json:"operations"`
}

type propertyView struct {
	Name     string          `json:"name"`
	Kind     model.FieldKind `json:"kind"`
	Required bool            `json:"required"`
	Types    []string        `json:"types,omitempty"`
	Enum     []string        `json:"enum,omitempty"`
}

type schemaView struct {
	Name       string         `json:"name"`
	Title      string         `json:"title,omitempty"`
	Properties []propertyView `json:"properties"`
}

type describeResponse struct {
	Operation operationView `json:"operation"`
	Schema    *schemaView   `json:"schema"`
	Fields    []form.Field  `json:"fields"`
}

type dispatchResponse struct {
	Result     model.DispatchResult `json:"result"`
	HTML       string               `json:"html"`
	StatusText string               `json:"statusText"`
}

func viewOf(op model.Operation) operationView {
	v := operationView{
		ID:          op.ID,
		Summary:     op.Summary,
		Description: op.Description,
		Method:      op.Method,
		Path:        op.Path,
		Tag:         op.Tag(),
	}
	if op.Body != nil {
		v.Body = op.Body.Ref
	}
	return v
}

func schemaViewOf(s model.Schema) *schemaView {
	v := &schemaView{Name: s.Name, Title: s.Title, Properties: []propertyView{}}
	for _, p := range s.Properties {
		v.Properties = append(v.Properties, propertyView{
			Name:     p.Name,
			Kind:     form.Classify(p.Schema),
			Required: s.IsRequired(p.Name),
			Types:    p.Schema.Types,
			Enum:     p.Schema.Enum,
		})
	}
	return v
}

func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) listOperations(w http.ResponseWriter, _ *http.Request) {
	groups := s.catalog.Groups()
	out := make([]groupView, 0, len(groups))
	for _, g := range groups {
		gv := groupView{Tag: g.Tag}
		for _, op := range g.Operations {
			gv.Operations = append(gv.Operations, viewOf(op))
		}
		out = append(out, gv)
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) describeOperation(w http.ResponseWriter, r *http.Request) {
	op, ok := s.lookup(w, r)
	if !ok {
		return
	}
	resp := describeResponse{Operation: viewOf(op)}
	var schema *model.Schema
	if body, found, err := s.catalog.BodySchema(op); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	} else if found {
		schema = &body
		resp.Schema = schemaViewOf(body)
	}
	resp.Fields = form.Fields(op, schema)
	if resp.Fields == nil {
		resp.Fields = []form.Field{}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) dispatchOperation(w http.ResponseWriter, r *http.Request) {
	op, ok := s.lookup(w, r)
	if !ok {
		return
	}
	state, err := decodeState(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	c := console.New(s.catalog, s.dispatcher)
	if err := c.Select(op.ID); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	for name, value := range state {
		c.Set(name, value)
	}
	res, _ := c.Dispatch(r.Context())
	writeJSON(w, http.StatusOK, dispatchResponse{
		Result:     res,
		HTML:       highlight.HTMLValue(res.Data),
		StatusText: res.StatusText(),
	})
}

func (s *Server) lookup(w http.ResponseWriter, r *http.Request) (model.Operation, bool) {
	id := chi.URLParam(r, "id")
	op, err := s.catalog.Lookup(id)
	if errors.Is(err, catalog.ErrNotFound) {
		writeError(w, http.StatusNotFound, fmt.Sprintf("unknown operation %q", id))
		return model.Operation{}, false
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return model.Operation{}, false
	}
	return op, true
}

// decodeState reads a JSON object of field values. Non-string values are
// kept as their JSON text so booleans, numbers and objects can be sent
// natively; nulls are left out.
func decodeState(r *http.Request) (model.FormState, error) {
	defer r.Body.Close()
	var raw map[string]json.RawMessage
	if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("request body must be a JSON object: %w", err)
	}
	state := model.FormState{}
	for k, v := range raw {
		var s string
		switch {
		case string(v) == "null":
			continue
		case json.Unmarshal(v, &s) == nil:
			state[k] = s
		default:
			state[k] = string(v)
		}
	}
	return state, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.WithError(err).Warn("web: encode response")
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
