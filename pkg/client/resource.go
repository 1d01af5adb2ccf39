package client

import (
	"context"
	"net/url"
	"time"

	"motorhub/pkg/logger"
)

// REST resources exposed by the backend under /api.
const (
	ResourceTechnicians    = "technicians"
	ResourceJobs           = "jobs"
	ResourceServiceCenters = "service-centers"
)

const IdempotencyKeyHeader = "Idempotency-Key"

func ResourcePath(resource, id string, sub ...string) string {
	path := "/api/" + resource
	if id != "" {
		path += "/" + url.PathEscape(id)
	}
	for _, s := range sub {
		path += "/" + s
	}
	return path
}

type ResourceClient struct {
	httpClient *HttpClient
	resource   string
}

func (c *ResourceClient) Name() string {
	return c.resource
}

func (c *ResourceClient) List(ctx context.Context) (*Response, error) {
	return c.httpClient.GET(ctx, ResourcePath(c.resource, ""))
}

func (c *ResourceClient) GetByID(ctx context.Context, id string) (*Response, error) {
	return c.httpClient.GET(ctx, ResourcePath(c.resource, id))
}

func (c *ResourceClient) GetByUser(ctx context.Context, userID string) (*Response, error) {
	return c.httpClient.GET(ctx, ResourcePath(c.resource, "user", url.PathEscape(userID)))
}

// Create posts a new record. A non-empty idempotencyKey lets the backend
// collapse retries of the same logical record.
func (c *ResourceClient) Create(ctx context.Context, body any, idempotencyKey string) (*Response, error) {
	var headers map[string]string
	if idempotencyKey != "" {
		headers = map[string]string{IdempotencyKeyHeader: idempotencyKey}
	}
	return c.httpClient.POST(ctx, ResourcePath(c.resource, ""), body, headers)
}

func (c *ResourceClient) Update(ctx context.Context, id string, body any) (*Response, error) {
	return c.httpClient.PUT(ctx, ResourcePath(c.resource, id), body, nil)
}

func (c *ResourceClient) UpdateStatus(ctx context.Context, id string, body any) (*Response, error) {
	return c.httpClient.PUT(ctx, ResourcePath(c.resource, id, "status"), body, nil)
}

func (c *ResourceClient) UpdateAvailability(ctx context.Context, id string, body any) (*Response, error) {
	return c.httpClient.PUT(ctx, ResourcePath(c.resource, id, "availability"), body, nil)
}

func (c *ResourceClient) Delete(ctx context.Context, id string) (*Response, error) {
	return c.httpClient.DELETE(ctx, ResourcePath(c.resource, id))
}

// Backend groups the resource clients and the reachability probe for one
// REST base URL.
type Backend struct {
	Technicians    *ResourceClient
	Jobs           *ResourceClient
	ServiceCenters *ResourceClient
	Probe          *Prober

	httpClient *HttpClient
}

type BackendConfig struct {
	BaseURL        string
	RequestTimeout time.Duration
	ProbeTimeout   time.Duration
}

func NewBackend(cfg BackendConfig, log *logger.Logger) *Backend {
	httpClient := NewHttpClient(cfg.BaseURL, cfg.RequestTimeout)
	return &Backend{
		Technicians:    &ResourceClient{httpClient: httpClient, resource: ResourceTechnicians},
		Jobs:           &ResourceClient{httpClient: httpClient, resource: ResourceJobs},
		ServiceCenters: &ResourceClient{httpClient: httpClient, resource: ResourceServiceCenters},
		Probe:          NewProber(cfg.BaseURL, cfg.ProbeTimeout, log),
		httpClient:     httpClient,
	}
}

// Resource returns the client for an arbitrary resource name.
func (b *Backend) Resource(name string) *ResourceClient {
	switch name {
	case ResourceTechnicians:
		return b.Technicians
	case ResourceJobs:
		return b.Jobs
	case ResourceServiceCenters:
		return b.ServiceCenters
	default:
		return &ResourceClient{httpClient: b.httpClient, resource: name}
	}
}
