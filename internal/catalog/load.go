package catalog

import (
	"context"
	_ "embed"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/getkin/kin-openapi/openapi3"
	log "github.com/sirupsen/logrus"
	"gopkg.in/resty.v1"
)

//go:embed docker.json
var dockerCatalog []byte

const fetchTimeout = 10 * time.Second

// Open builds a catalog from spec. An empty spec selects the embedded
// container-management catalog, "@path" a local file, anything else a URL.
func Open(ctx context.Context, spec string) (*Catalog, error) {
	spec = strings.TrimSpace(spec)
	switch {
	case spec == "":
		return Parse(ctx, dockerCatalog, nil)
	case strings.HasPrefix(spec, "@"):
		path := strings.TrimPrefix(spec, "@")
		if abs, err := filepath.Abs(path); err == nil {
			path = abs
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read catalog: %w", err)
		}
		return Parse(ctx, data, &url.URL{Path: path})
	default:
		data, err := fetch(ctx, spec)
		if err != nil {
			return nil, err
		}
		loc, err := url.Parse(spec)
		if err != nil {
			return nil, err
		}
		return Parse(ctx, data, loc)
	}
}

// Default returns the embedded catalog.
func Default() (*Catalog, error) {
	return Parse(context.Background(), dockerCatalog, nil)
}

// Parse loads an OpenAPI document (JSON or YAML) and builds the catalog from it.
func Parse(ctx context.Context, data []byte, location *url.URL) (*Catalog, error) {
	loader := &openapi3.Loader{Context: ctx}
	loader.IsExternalRefsAllowed = location != nil

	var (
		doc *openapi3.T
		err error
	)
	if location != nil {
		doc, err = loader.LoadFromDataWithPath(data, location)
	} else {
		doc, err = loader.LoadFromData(data)
	}
	if err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}

	// FastAPI emits 3.1 constructs (type "null" branches, no responses on
	// hand-trimmed documents) that the 3.0 validator rejects; reference
	// integrity is checked by build instead.
	if err := doc.Validate(ctx); err != nil {
		log.WithError(err).Debug("catalog: openapi validation reported problems")
	}

	return build(doc, readOrder(data))
}

func fetch(ctx context.Context, specURL string) ([]byte, error) {
	client := resty.New().SetTimeout(fetchTimeout)
	resp, err := client.R().
		SetContext(ctx).
		SetHeader("Accept", "application/json, application/yaml").
		Get(specURL)
	if err != nil {
		return nil, fmt.Errorf("GET %s: %w", specURL, err)
	}
	if resp.StatusCode() < http.StatusOK || resp.StatusCode() >= http.StatusMultipleChoices {
		return nil, fmt.Errorf("GET %s: %s", specURL, resp.Status())
	}
	return resp.Body(), nil
}
