package domain

// ============================================================
// Health & Metrics API Responses
// ============================================================

// HealthStatus is returned by GET /healthz.
type HealthStatus struct {
	Status   string          `json:"status"` // healthy, degraded, unhealthy
	Services []ServiceHealth `json:"services"`
}

// ServiceHealth represents the health of an individual dependency.
type ServiceHealth struct {
	Name        string `json:"name"`
	Status      string `json:"status"`
	LatencyMs   int64  `json:"latencyMs"`
	LastChecked string `json:"lastChecked"`
}

// GatewayMetrics is returned by GET /v1/metrics/gateway.
type GatewayMetrics struct {
	GatewayRequests   int64   `json:"gatewayRequests"`
	GatewayErrors     int64   `json:"gatewayErrors"`
	ErrorRate         float64 `json:"errorRate"`
	CacheHits         int64   `json:"cacheHits"`
	CacheMisses       int64   `json:"cacheMisses"`
	CacheHitRate      float64 `json:"cacheHitRate"`
	RecordsComputed   int64   `json:"recordsComputed"`
	DegradedReports   int64   `json:"degradedReports"`
	EventsPublished   int64   `json:"eventsPublished"`
	EventPublishFails int64   `json:"eventPublishFailures"`
}

// SuccessResponse wraps a successful single-entity response.
type SuccessResponse struct {
	Message string `json:"message"`
	ID      string `json:"id,omitempty"`
}
