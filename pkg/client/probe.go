package client

import (
	"context"
	"net/http"
	"time"

	"motorhub/pkg/logger"
)

const (
	HealthCheckPath     = "/api/health-check"
	DefaultProbeTimeout = 1500 * time.Millisecond
)

// Prober answers "is the backend reachable right now" with a short deadline.
type Prober struct {
	http    *HttpClient
	timeout time.Duration
	log     *logger.Logger
}

func NewProber(baseURL string, timeout time.Duration, log *logger.Logger) *Prober {
	if timeout <= 0 {
		timeout = DefaultProbeTimeout
	}
	return &Prober{
		http:    NewHttpClient(baseURL, timeout),
		timeout: timeout,
		log:     log,
	}
}

// Reachable probes the health-check endpoint. Backends without one (404 or
// 405) are probed on the resource collection instead.
func (p *Prober) Reachable(ctx context.Context, resource string) bool {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	resp, err := p.http.GET(ctx, HealthCheckPath)
	if err != nil {
		p.log.Warn("Backend probe failed", "path", HealthCheckPath, "error", err)
		return false
	}

	switch resp.StatusCode {
	case http.StatusNotFound, http.StatusMethodNotAllowed:
		path := ResourcePath(resource, "")
		resp, err = p.http.GET(ctx, path)
		if err != nil {
			p.log.Warn("Backend probe failed", "path", path, "error", err)
			return false
		}
	}

	if resp.StatusCode >= http.StatusInternalServerError {
		p.log.Warn("Backend probe unhealthy", "status", resp.StatusCode)
		return false
	}
	return true
}
