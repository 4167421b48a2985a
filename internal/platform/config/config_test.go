package config

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestViper(overrides map[string]any) *viper.Viper {
	v := viper.New()
	setDefaults(v)
	for k, val := range overrides {
		v.Set(k, val)
	}
	return v
}

func TestFromViper_Defaults(t *testing.T) {
	cfg, err := fromViper(newTestViper(nil))
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, 30*time.Second, cfg.RequestTimeout)
	assert.Equal(t, time.Hour, cfg.SchedulerInterval)
	assert.Equal(t, "100-M", cfg.RateLimit)
	assert.True(t, cfg.APMatchTolerancePercent.Equal(decimal.NewFromInt(5)))
	assert.Equal(t, []string{"http://localhost:3000"}, cfg.CORSAllowedOrigins)
	assert.Empty(t, cfg.KafkaBrokers)
}

func TestFromViper_ListsAreTrimmed(t *testing.T) {
	cfg, err := fromViper(newTestViper(map[string]any{
		"KAFKA_BROKERS": "kafka-1:9092, kafka-2:9092 ,",
	}))
	require.NoError(t, err)
	assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, cfg.KafkaBrokers)
}

func TestFromViper_InvalidValues(t *testing.T) {
	cases := map[string]map[string]any{
		"bad timeout":         {"REQUEST_TIMEOUT": "soon"},
		"zero interval":       {"SCHEDULER_INTERVAL": "0s"},
		"bad tolerance":       {"AP_MATCH_TOLERANCE_PERCENT": "five"},
		"negative tolerance":  {"AP_MATCH_TOLERANCE_PERCENT": "-1"},
		"default secret prod": {"IS_PRODUCTION": true},
	}
	for name, overrides := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := fromViper(newTestViper(overrides))
			assert.Error(t, err)
		})
	}
}
