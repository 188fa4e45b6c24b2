package httpclient

import (
	"time"

	circuit "github.com/rubyist/circuitbreaker"

	"reconciliation-service/config"
)

// InitCircuitBreaker builds the breaker guarding all outbound collaborator
// calls. Every call is a single attempt; retries belong to the caller via the
// idempotency guard, never to the transport.
func InitCircuitBreaker(cfg *config.HttpClientConfig, breakerType string) *circuit.Breaker {
	switch breakerType {
	case "rate":
		return circuit.NewRateBreaker(cfg.ErrorRate, cfg.MinSamples)
	case "threshold":
		return circuit.NewThresholdBreaker(cfg.ConsecutiveFailures)
	default:
		return circuit.NewConsecutiveBreaker(cfg.ConsecutiveFailures)
	}
}

func InitHttpClient(cfg *config.HttpClientConfig, cb *circuit.Breaker) *circuit.HTTPClient {
	timeout := time.Duration(cfg.Timeout) * time.Second
	client := circuit.NewHTTPClient(timeout, cfg.ConsecutiveFailures, nil)
	client.BreakerLookup = func(c *circuit.HTTPClient, val interface{}) *circuit.Breaker {
		return cb
	}
	return client
}
