package form

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"xconsole/internal/model"
)

var (
	ErrInvalidJSON    = errors.New("invalid JSON")
	ErrInvalidInteger = errors.New("invalid integer")
	ErrMissingPath    = errors.New("missing required path parameter")
)

// FieldError reports the form field that stopped assembly. Kind is one of the
// Err* sentinels; Err carries the underlying parse error, if any.
type FieldError struct {
	Field string
	Kind  error
	Err   error
}

func (e *FieldError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%v '%s'", e.Kind, e.Field)
	}
	return fmt.Sprintf("%v in field '%s': %v", e.Kind, e.Field, e.Err)
}

func (e *FieldError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// Assemble builds the request for op from raw form state. schema is the
// resolved body schema, nil when the operation takes no body. Only declared
// fields with a non-empty value are emitted.
func Assemble(op model.Operation, schema *model.Schema, state model.FormState) (model.Request, error) {
	req := model.Request{
		OperationID: op.ID,
		Method:      strings.ToUpper(op.Method),
		Path:        op.Path,
		Query:       url.Values{},
		Header:      http.Header{},
	}

	if schema != nil {
		body := map[string]any{}
		for _, prop := range schema.Properties {
			raw, ok := state[prop.Name]
			if !ok || raw == "" {
				continue
			}
			v, err := bodyValue(prop.Name, prop.Schema, raw)
			if err != nil {
				return model.Request{}, err
			}
			if v != nil {
				body[prop.Name] = v
			}
		}
		req.Body = body
		req.HasBody = true
	}

	for _, p := range op.Parameters {
		raw := state[p.Name]
		if raw == "" {
			if p.In == model.ParamInPath && p.Required {
				return model.Request{}, &FieldError{Field: p.Name, Kind: ErrMissingPath}
			}
			continue
		}
		values, err := paramValues(p, raw)
		if err != nil {
			return model.Request{}, err
		}
		if len(values) == 0 {
			continue
		}
		switch p.In {
		case model.ParamInPath:
			req.Path = strings.ReplaceAll(req.Path, "{"+p.Name+"}", url.PathEscape(values[0]))
		case model.ParamInQuery:
			for _, v := range values {
				req.Query.Add(p.Name, v)
			}
		case model.ParamInHeader:
			for _, v := range values {
				req.Header.Add(p.Name, v)
			}
		}
	}

	return req, nil
}

func bodyValue(name string, f model.Fragment, raw string) (any, error) {
	switch Classify(f) {
	case model.KindJSONBlob:
		if strings.TrimSpace(raw) == "" {
			return nil, nil
		}
		v, err := ParseJSON(raw)
		if err != nil {
			return nil, &FieldError{Field: name, Kind: ErrInvalidJSON, Err: err}
		}
		return v, nil
	case model.KindBoolean:
		if b, err := strconv.ParseBool(raw); err == nil {
			return b, nil
		}
	case model.KindInteger:
		if n, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64); err == nil {
			return n, nil
		}
	}
	// Unconvertible scalars go out as typed so the remote reports them.
	return raw, nil
}

// paramValues renders one parameter into its string form. Arrays yield one
// value per element.
func paramValues(p model.Parameter, raw string) ([]string, error) {
	switch Classify(p.Schema) {
	case model.KindInteger:
		n, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
		if err != nil {
			var numErr *strconv.NumError
			if errors.As(err, &numErr) {
				err = numErr.Err
			}
			return nil, &FieldError{Field: p.Name, Kind: ErrInvalidInteger, Err: fmt.Errorf("%q: %w", raw, err)}
		}
		return []string{strconv.FormatInt(n, 10)}, nil
	case model.KindJSONBlob:
		if strings.TrimSpace(raw) == "" {
			return nil, nil
		}
		v, err := ParseJSON(raw)
		if err != nil {
			return nil, &FieldError{Field: p.Name, Kind: ErrInvalidJSON, Err: err}
		}
		if items, ok := v.([]any); ok {
			out := make([]string, 0, len(items))
			for _, item := range items {
				s, err := scalarText(item)
				if err != nil {
					return nil, &FieldError{Field: p.Name, Kind: ErrInvalidJSON, Err: err}
				}
				out = append(out, s)
			}
			return out, nil
		}
		s, err := compact(v)
		if err != nil {
			return nil, &FieldError{Field: p.Name, Kind: ErrInvalidJSON, Err: err}
		}
		return []string{s}, nil
	default:
		return []string{raw}, nil
	}
}

// ParseJSON decodes exactly one JSON value, keeping number literals intact.
func ParseJSON(text string) (any, error) {
	dec := json.NewDecoder(strings.NewReader(text))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, errors.New("unexpected data after top-level value")
	}
	return v, nil
}

func scalarText(v any) (string, error) {
	if s, ok := v.(string); ok {
		return s, nil
	}
	return compact(v)
}

func compact(v any) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return "", err
	}
	return strings.TrimRight(buf.String(), "\n"), nil
}
