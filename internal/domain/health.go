package domain

// ============================================================
// Health & metrics API responses
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

// CollectorMetrics is returned by GET /v1/metrics/collector.
type CollectorMetrics struct {
	TotalDecisions int64   `json:"totalDecisions"`
	EscalationRate float64 `json:"escalationRate"`
	TriggeredCalls int64   `json:"triggeredCalls"`
	LinksSent      int64   `json:"linksSent"`
	ErrorRate      float64 `json:"errorRate"`
	CacheHitRate   float64 `json:"cacheHitRate"`
	Period         string  `json:"period"`
}
