package metadata

import (
	"errors"
	"strings"
	"sync"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

// maxTrackedHosts bounds the breaker set; closed breakers are dropped first
const maxTrackedHosts = 1024

// hostBreakers keeps one circuit breaker per upstream host so a failing site
// only blocks fetches to itself.
type hostBreakers struct {
	mu       sync.Mutex
	config   BreakerConfig
	logger   *zap.Logger
	breakers map[string]*gobreaker.CircuitBreaker
}

func newHostBreakers(cfg BreakerConfig, logger *zap.Logger) *hostBreakers {
	return &hostBreakers{
		config:   cfg,
		logger:   logger,
		breakers: make(map[string]*gobreaker.CircuitBreaker),
	}
}

// forHost returns the breaker for host (host[:port]), creating it on first use
func (h *hostBreakers) forHost(host string) *gobreaker.CircuitBreaker {
	host = strings.ToLower(host)

	h.mu.Lock()
	defer h.mu.Unlock()

	if cb, ok := h.breakers[host]; ok {
		return cb
	}
	if len(h.breakers) >= maxTrackedHosts {
		h.evict()
	}

	cb := gobreaker.NewCircuitBreaker(h.settings("metadata-fetch:" + host))
	h.breakers[host] = cb
	return cb
}

// evict drops closed breakers, or everything when every tracked host is failing
func (h *hostBreakers) evict() {
	for host, cb := range h.breakers {
		if cb.State() == gobreaker.StateClosed {
			delete(h.breakers, host)
		}
	}
	if len(h.breakers) >= maxTrackedHosts {
		h.breakers = make(map[string]*gobreaker.CircuitBreaker)
	}
}

func (h *hostBreakers) settings(name string) gobreaker.Settings {
	cfg := h.config
	return gobreaker.Settings{
		Name:        name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < cfg.MinRequests {
				return false
			}
			ratio := float64(counts.TotalFailures) / float64(counts.Requests)
			return ratio >= cfg.FailureThreshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			h.logger.Warn("Circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
		// a page answering 404 says nothing about our network path, and a
		// refused address never left the process
		IsSuccessful: func(err error) bool {
			if errors.Is(err, ErrNonPublicAddress) {
				return true
			}
			var statusErr *statusError
			if errors.As(err, &statusErr) {
				return statusErr.code < 500
			}
			return err == nil
		},
	}
}
