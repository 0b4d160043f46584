// Package console ties one operator's form to the catalog and dispatcher.
package console

import (
	"context"
	"errors"
	"net/http"
	"sync"

	log "github.com/sirupsen/logrus"

	"xconsole/internal/catalog"
	"xconsole/internal/form"
	"xconsole/internal/model"
)

const formErrorMessage = "Form parsing or API call failed"

type Dispatcher interface {
	Dispatch(ctx context.Context, req model.Request) model.DispatchResult
}

// Console is the state of one operator: the selected operation, its form and
// the latest result. Dispatches may overlap; only the most recently issued
// one is applied.
type Console struct {
	catalog    *catalog.Catalog
	dispatcher Dispatcher

	mu      sync.Mutex
	op      *model.Operation
	schema  *model.Schema
	state   model.FormState
	result  *model.DispatchResult
	seq     uint64
	pending int
}

func New(cat *catalog.Catalog, d Dispatcher) *Console {
	return &Console{catalog: cat, dispatcher: d, state: model.FormState{}}
}

func (c *Console) Catalog() *catalog.Catalog {
	return c.catalog
}

// Select switches to operation id. The form and the last result are reset and
// results of calls still in flight will be dropped.
func (c *Console) Select(id string) error {
	op, err := c.catalog.Lookup(id)
	if err != nil {
		return err
	}
	var schema *model.Schema
	s, ok, err := c.catalog.BodySchema(op)
	if err != nil {
		return err
	}
	if ok {
		schema = &s
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.op = &op
	c.schema = schema
	c.state = model.FormState{}
	c.result = nil
	c.seq++
	return nil
}

func (c *Console) Operation() (model.Operation, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.op == nil {
		return model.Operation{}, false
	}
	return *c.op, true
}

// Fields lists the inputs of the selected operation.
func (c *Console) Fields() []form.Field {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.op == nil {
		return nil
	}
	return form.Fields(*c.op, c.schema)
}

func (c *Console) Set(name, value string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state[name] = value
}

// Unset returns a field to its untouched state.
func (c *Console) Unset(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.state, name)
}

// Toggle flips a boolean field. Unknown names are ignored.
func (c *Console) Toggle(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if f, ok := c.fieldLocked(name); ok {
		form.Toggle(c.state, name, f.Schema)
	}
}

// Value is what the form shows for name.
func (c *Console) Value(name string) string {
	c.mu.Lock()
	defer c.mu.Unlock()
	f, ok := c.fieldLocked(name)
	if !ok {
		return c.state[name]
	}
	return form.Display(c.state, name, f.Schema)
}

func (c *Console) State() model.FormState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.copyStateLocked()
}

func (c *Console) copyStateLocked() model.FormState {
	out := make(model.FormState, len(c.state))
	for k, v := range c.state {
		out[k] = v
	}
	return out
}

func (c *Console) Result() (model.DispatchResult, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.result == nil {
		return model.DispatchResult{}, false
	}
	return *c.result, true
}

// Loading reports whether any dispatch is still in flight.
func (c *Console) Loading() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pending > 0
}

// Request assembles the current form without sending it.
func (c *Console) Request() (model.Request, error) {
	c.mu.Lock()
	op, schema, state := c.op, c.schema, c.copyStateLocked()
	c.mu.Unlock()
	if op == nil {
		return model.Request{}, errors.New("no operation selected")
	}
	return form.Assemble(*op, schema, state)
}

// Dispatch assembles and sends the current form. applied is false when a
// later dispatch or an operation change superseded this one; its result is
// then returned but not recorded.
func (c *Console) Dispatch(ctx context.Context) (res model.DispatchResult, applied bool) {
	c.mu.Lock()
	if c.op == nil {
		c.mu.Unlock()
		return formFailure(errors.New("no operation selected")), false
	}
	c.seq++
	seq := c.seq
	c.pending++
	op, schema, state := *c.op, c.schema, c.copyStateLocked()
	c.mu.Unlock()

	req, err := form.Assemble(op, schema, state)
	if err != nil {
		res = formFailure(err)
	} else {
		res = c.dispatcher.Dispatch(ctx, req)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.pending--
	if seq != c.seq {
		log.WithFields(log.Fields{
			"operation": op.ID,
			"seq":       seq,
			"latest":    c.seq,
		}).Debug("console: dropping superseded result")
		return res, false
	}
	c.result = &res
	return res, true
}

func (c *Console) fieldLocked(name string) (form.Field, bool) {
	if c.op == nil {
		return form.Field{}, false
	}
	for _, f := range form.Fields(*c.op, c.schema) {
		if f.Name == name {
			return f, true
		}
	}
	return form.Field{}, false
}

func formFailure(err error) model.DispatchResult {
	return model.DispatchResult{
		Data: map[string]any{
			"error":   formErrorMessage,
			"details": err.Error(),
		},
		Status: http.StatusBadRequest,
		Error:  err.Error(),
	}
}
