// Package httpclient executes assembled requests and folds every outcome,
// including transport failures, into a model.DispatchResult.
package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"gopkg.in/resty.v1"

	"xconsole/internal/model"
)

const (
	DefaultTimeout = 20 * time.Second

	noContentMessage = "Request successful with no content."
)

type Dispatcher struct {
	baseURL string
	client  *resty.Client
}

func New(baseURL string, timeout time.Duration) *Dispatcher {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	cl := http.Client{Timeout: timeout}
	return &Dispatcher{
		baseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		client:  resty.NewWithClient(&cl),
	}
}

func (d *Dispatcher) BaseURL() string {
	return d.baseURL
}

// URL is the full address req is sent to.
func (d *Dispatcher) URL(req model.Request) string {
	u := d.baseURL + req.Path
	if len(req.Query) > 0 {
		u += "?" + req.Query.Encode()
	}
	return u
}

// Dispatch sends req and never fails: remote errors come back with their
// status, transport errors with status 0.
func (d *Dispatcher) Dispatch(ctx context.Context, req model.Request) model.DispatchResult {
	target := d.URL(req)
	entry := log.WithFields(log.Fields{
		"dispatch":  uuid.NewString(),
		"operation": req.OperationID,
		"method":    req.Method,
		"url":       target,
	})

	r := d.client.R().SetContext(ctx)
	r.SetHeader("Accept", "application/json")
	for k, vs := range req.Header {
		for _, v := range vs {
			r.Header.Add(k, v)
		}
	}
	if req.HasBody {
		body := req.Body
		if body == nil {
			body = map[string]any{}
		}
		b, err := json.Marshal(body)
		if err != nil {
			entry.WithError(err).Error("dispatch: encode body")
			return failure(err)
		}
		r.SetHeader("Content-Type", "application/json")
		r.SetBody(b)
	}

	start := time.Now()
	resp, err := r.Execute(req.Method, target)
	elapsed := time.Since(start)
	if err != nil {
		entry.WithError(err).WithField("elapsed", elapsed).Warn("dispatch: transport failure")
		return failure(err)
	}

	res := normalize(resp.StatusCode(), resp.Body())
	entry.WithFields(log.Fields{
		"status":  res.Status,
		"elapsed": elapsed,
	}).Debug("dispatch: done")
	return res
}

func normalize(status int, body []byte) model.DispatchResult {
	res := model.DispatchResult{Status: status}

	if status == http.StatusNoContent || len(body) == 0 {
		res.Data = map[string]any{"message": noContentMessage}
	} else if v, ok := decode(body); ok {
		res.Data = v
	} else {
		res.Data = string(body)
	}

	if !res.OK() {
		res.Error = fmt.Sprintf("HTTP error! status: %d, message: %s", status, errorText(body))
	}
	return res
}

func failure(err error) model.DispatchResult {
	msg := err.Error()
	return model.DispatchResult{
		Data:   map[string]any{"error": msg},
		Status: 0,
		Error:  msg,
	}
}

func decode(body []byte) (any, bool) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, false
	}
	// Anything after the value, even a stray closing bracket, makes the
	// body text.
	if _, err := dec.Token(); err != io.EOF {
		return nil, false
	}
	return v, true
}

// errorText is the body as sent for text, compacted for JSON.
func errorText(body []byte) string {
	var buf bytes.Buffer
	if err := json.Compact(&buf, body); err == nil {
		return buf.String()
	}
	return string(body)
}
