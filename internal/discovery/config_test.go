package discovery

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"
	"gopkg.in/yaml.v3"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, 1993, cfg.Port)
	assert.Equal(t, 10*time.Second, cfg.Advertise)
	assert.Equal(t, 60*time.Second, cfg.Purge)
	assert.True(t, cfg.Loopback)
	assert.Empty(t, cfg.Scope)
	assert.Empty(t, cfg.Services)
	assert.NoError(t, cfg.Validate())
}

func TestParseConfigEmptyUsesDefaults(t *testing.T) {
	cfg, err := ParseConfig(nil)
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig().Port, cfg.Port)
	assert.Equal(t, DefaultConfig().Advertise, cfg.Advertise)
}

func TestParseConfigUnknownKeys(t *testing.T) {
	_, err := ParseConfig(map[string]any{
		"zeta":     1,
		OptionPort: "not checked",
		"alpha":    2,
	})
	require.Error(t, err)

	errs := multierr.Errors(err)
	require.Len(t, errs, 2, "value errors are not reported alongside unknown keys")
	assert.Contains(t, errs[0].Error(), `"alpha"`)
	assert.Contains(t, errs[1].Error(), `"zeta"`)
	for _, e := range errs {
		assert.True(t, IsUnknownOptionError(e))
	}
}

func TestParseConfigValues(t *testing.T) {
	onErr := func(error) {}
	onChange := func([]Service) {}

	cfg, err := ParseConfig(map[string]any{
		OptionPort:      int64(2000),
		OptionAdvertise: "15s",
		OptionPurge:     float64(90),
		OptionScope:     "lab",
		OptionLoopback:  false,
		OptionService: []any{
			map[string]any{"name": "alpha", "port": 80, "secure": true, "path": "/api/"},
			ServiceDescriptor{Name: "beta", Port: 81},
		},
		OptionError:  onErr,
		OptionChange: onChange,
	})
	require.NoError(t, err)

	assert.Equal(t, 2000, cfg.Port)
	assert.Equal(t, 15*time.Second, cfg.Advertise)
	assert.Equal(t, 90*time.Second, cfg.Purge)
	assert.Equal(t, "lab", cfg.Scope)
	assert.False(t, cfg.Loopback)
	assert.Equal(t, []ServiceDescriptor{
		{Name: "alpha", Port: 80, Secure: true, Path: "/api/"},
		{Name: "beta", Port: 81},
	}, cfg.Services)
	assert.NotNil(t, cfg.OnError)
	assert.NotNil(t, cfg.OnChange)
}

func TestParseConfigFromYAML(t *testing.T) {
	doc := `
port: 1994
advertise: 20
purge: 2m
scope: warehouse
service:
  - name: WarehouseCatalog
    port: 8080
    path: /api/whc/V01/
`
	var raw map[string]any
	require.NoError(t, yaml.Unmarshal([]byte(doc), &raw))

	cfg, err := ParseConfig(raw)
	require.NoError(t, err)
	assert.Equal(t, 1994, cfg.Port)
	assert.Equal(t, 20*time.Second, cfg.Advertise)
	assert.Equal(t, 2*time.Minute, cfg.Purge)
	assert.Equal(t, []ServiceDescriptor{{Name: "WarehouseCatalog", Port: 8080, Path: "/api/whc/V01/"}}, cfg.Services)
}

func TestParseConfigInvalidValues(t *testing.T) {
	tests := []struct {
		name string
		raw  map[string]any
	}{
		{"port type", map[string]any{OptionPort: true}},
		{"port fraction", map[string]any{OptionPort: 19.5}},
		{"port range", map[string]any{OptionPort: 70000}},
		{"negative port", map[string]any{OptionPort: -1}},
		{"advertise text", map[string]any{OptionAdvertise: "often"}},
		{"scope type", map[string]any{OptionScope: 7}},
		{"loopback type", map[string]any{OptionLoopback: "yes"}},
		{"service type", map[string]any{OptionService: "alpha"}},
		{"service field", map[string]any{OptionService: []any{map[string]any{"name": "a", "colour": "red"}}}},
		{"service name", map[string]any{OptionService: []any{map[string]any{"port": 80}}}},
		{"service port", map[string]any{OptionService: []ServiceDescriptor{{Name: "a", Port: 65536}}}},
		{"error callback", map[string]any{OptionError: "log"}},
		{"change callback", map[string]any{OptionChange: func() {}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseConfig(tt.raw)
			require.Error(t, err)
			assert.True(t, IsInvalidOptionError(err), "got %v", err)
		})
	}
}

func TestAdvertiseInterval(t *testing.T) {
	tests := []struct {
		advertise time.Duration
		want      time.Duration
	}{
		{0, MinAdvertise},
		{-time.Second, MinAdvertise},
		{time.Second, MinAdvertise},
		{4900 * time.Millisecond, MinAdvertise},
		{5 * time.Second, 5 * time.Second},
		{10*time.Second + 999*time.Millisecond, 10 * time.Second},
		{time.Hour, time.Hour},
	}

	for _, tt := range tests {
		cfg := Config{Advertise: tt.advertise}
		assert.Equal(t, tt.want, cfg.AdvertiseInterval(), "advertise %v", tt.advertise)
	}
}

func TestPurgeWindow(t *testing.T) {
	assert.Equal(t, time.Duration(0), (&Config{Purge: 0}).PurgeWindow())
	assert.Equal(t, time.Duration(0), (&Config{Purge: -time.Minute}).PurgeWindow())
	assert.Equal(t, time.Duration(0), (&Config{Purge: 500 * time.Millisecond}).PurgeWindow())
	assert.Equal(t, 61*time.Second, (&Config{Purge: 61500 * time.Millisecond}).PurgeWindow())
}
