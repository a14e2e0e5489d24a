package telegram

import (
	"testing"

	"github.com/stretchr/testify/assert"

	coreconfig "github.com/m3rciful/viewsbot/core/config"
)

func chainNames(chain []Middleware) []string {
	names := make([]string, 0, len(chain))
	for _, mw := range chain {
		names = append(names, mw.Name)
	}
	return names
}

func TestDefaultMiddlewaresOrder(t *testing.T) {
	assert.Equal(t, []string{"recover", "logger", "metrics"}, chainNames(DefaultMiddlewares(nil, nil)))

	cfg := &coreconfig.Config{}
	cfg.RateLimit.IntervalMS = 500
	cfg.RateLimit.ExcludeUpdates = []string{" Callback "}
	assert.Equal(t, []string{"recover", "rate_limit", "logger", "metrics"}, chainNames(DefaultMiddlewares(cfg, nil)))
}
