// Package watch polls a list operation and reports when its items change.
package watch

import (
	"context"
	"errors"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"

	"xconsole/internal/model"
	"xconsole/internal/reconcile"
)

const DefaultInterval = 1500 * time.Millisecond

var ErrNotAList = errors.New("response is not a list")

type Dispatcher interface {
	Dispatch(ctx context.Context, req model.Request) model.DispatchResult
}

// Item is one element of a list response.
type Item = map[string]any

type Update struct {
	Items []Item
	Diff  reconcile.Diff[Item]
}

type Poller struct {
	dispatcher Dispatcher
	request    model.Request
	interval   time.Duration
	items      *reconcile.Reconciler[Item]
}

func New(d Dispatcher, req model.Request, interval time.Duration) *Poller {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Poller{
		dispatcher: d,
		request:    req,
		interval:   interval,
		items:      reconcile.New(ItemKey, TrackedFields),
	}
}

// Run fetches immediately and then on every tick until ctx is done, calling
// fn whenever the list changed. A failing first fetch is returned; later
// failures are logged and the previous items kept.
func (p *Poller) Run(ctx context.Context, fn func(Update)) error {
	if err := p.poll(ctx, fn); err != nil {
		return err
	}

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := p.poll(ctx, fn); err != nil {
				if ctx.Err() != nil {
					return nil
				}
				log.WithError(err).WithField("operation", p.request.OperationID).Warn("watch: poll failed")
			}
		}
	}
}

func (p *Poller) poll(ctx context.Context, fn func(Update)) error {
	res := p.dispatcher.Dispatch(ctx, p.request)
	if res.Error != "" {
		return errors.New(res.Error)
	}
	items, err := Items(res.Data)
	if err != nil {
		return err
	}
	diff, changed := p.items.Apply(items)
	if changed {
		fn(Update{Items: p.items.Items(), Diff: diff})
	}
	return nil
}

// Items pulls the list out of a response: a bare array, or the only array
// inside an object wrapper.
func Items(data any) ([]Item, error) {
	var list []any
	switch v := data.(type) {
	case []any:
		list = v
	case map[string]any:
		for _, field := range v {
			if l, ok := field.([]any); ok {
				if list != nil {
					return nil, ErrNotAList
				}
				list = l
			}
		}
		if list == nil {
			return nil, ErrNotAList
		}
	default:
		return nil, ErrNotAList
	}

	out := make([]Item, 0, len(list))
	for i, e := range list {
		switch item := e.(type) {
		case map[string]any:
			out = append(out, item)
		default:
			out = append(out, Item{"id": fmt.Sprint(item), "index": i})
		}
	}
	return out, nil
}

var (
	keyFields     = []string{"id", "Id", "ID", "name", "Name"}
	trackedFields = []string{"status", "Status", "state", "State"}
)

// ItemKey identifies an item by its id, falling back to its name.
func ItemKey(item Item) string {
	for _, k := range keyFields {
		if v, ok := item[k]; ok && v != nil {
			return fmt.Sprint(v)
		}
	}
	return fmt.Sprint(item)
}

func TrackedFields(item Item) []string {
	out := make([]string, len(trackedFields))
	for i, k := range trackedFields {
		if v, ok := item[k]; ok && v != nil {
			out[i] = fmt.Sprint(v)
		}
	}
	return out
}
