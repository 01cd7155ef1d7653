package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-resty/resty/v2"

	"github.com/avelin/dagflow/internal/expr"
	"github.com/avelin/dagflow/pkg/api"
)

// TypeExternalAPI is the task type served by NewExternalAPI.
const TypeExternalAPI = "external_api"

// APICaller performs an HTTP request on behalf of an external_api task.
type APICaller interface {
	Call(ctx context.Context, endpoint, method string, headers map[string]string, body any) (any, error)
}

// RestyCaller implements APICaller on a resty client.
type RestyCaller struct {
	client *resty.Client
}

// NewRestyCaller wraps the given client; nil means a default client.
func NewRestyCaller(client *resty.Client) *RestyCaller {
	if client == nil {
		client = resty.New()
	}
	return &RestyCaller{client: client}
}

func (c *RestyCaller) Call(ctx context.Context, endpoint, method string, headers map[string]string, body any) (any, error) {
	req := c.client.R().SetContext(ctx).SetHeaders(headers)
	if body != nil {
		req.SetBody(body)
	}

	resp, err := req.Execute(method, endpoint)
	if err != nil {
		return nil, err
	}
	if resp.IsError() {
		return nil, fmt.Errorf("external API returned %s", resp.Status())
	}

	var parsed any
	if len(resp.Body()) > 0 {
		if err := json.Unmarshal(resp.Body(), &parsed); err != nil {
			// Non-JSON payloads pass through as text.
			parsed = string(resp.Body())
		}
	}
	return map[string]any{
		"status": float64(resp.StatusCode()),
		"body":   parsed,
	}, nil
}

type externalAPIConfig struct {
	Endpoint string            `mapstructure:"endpoint"`
	Method   string            `mapstructure:"method"`
	Headers  map[string]string `mapstructure:"headers"`
	Body     map[string]any    `mapstructure:"body"`
}

// NewExternalAPI returns the handler for external_api tasks. Config
// shape:
//
//	endpoint: "https://api.example.com/orders/${order.id}"
//	method: POST
//	headers: {Authorization: "Bearer ..."}
//	body: {total: "$.order.total"}
//
// Endpoint and body values are resolved against the task's data
// snapshot before the call.
func NewExternalAPI(caller APICaller) api.Handler {
	if caller == nil {
		caller = NewRestyCaller(nil)
	}
	return func(ctx context.Context, in api.TaskInput) (any, error) {
		var cfg externalAPIConfig
		if err := decodeConfig(in.Config, &cfg); err != nil {
			return nil, err
		}
		if cfg.Endpoint == "" {
			return nil, fmt.Errorf("external_api: endpoint is required")
		}
		if cfg.Method == "" {
			cfg.Method = http.MethodGet
		}

		endpoint := expr.Interpolate(cfg.Endpoint, in.Data)

		var body any
		if cfg.Body != nil {
			resolved := make(map[string]any, len(cfg.Body))
			for k, v := range cfg.Body {
				rv := expr.Resolve(v, in.Data)
				if expr.IsUndefined(rv) {
					continue
				}
				resolved[k] = rv
			}
			body = resolved
		}

		return caller.Call(ctx, endpoint, cfg.Method, cfg.Headers, body)
	}
}
