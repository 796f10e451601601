package domain_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/doeshing/unigraph/internal/domain"
)

// TestConfig_EffectiveLimit tests limit defaulting and capping
func TestConfig_EffectiveLimit(t *testing.T) {
	tests := []struct {
		name      string
		config    domain.Config
		requested int
		want      int
	}{
		{
			name:      "uses requested limit",
			config:    domain.Config{Query: domain.QuerySettings{DefaultLimit: 100, MaxResults: 1000}},
			requested: 25,
			want:      25,
		},
		{
			name:      "falls back to configured default",
			config:    domain.Config{Query: domain.QuerySettings{DefaultLimit: 40}},
			requested: 0,
			want:      40,
		},
		{
			name:      "falls back to built-in default",
			config:    domain.Config{},
			requested: -3,
			want:      domain.DefaultQueryLimit,
		},
		{
			name:      "caps at max results",
			config:    domain.Config{Query: domain.QuerySettings{DefaultLimit: 100, MaxResults: 500}},
			requested: 5000,
			want:      500,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.config.EffectiveLimit(tt.requested))
		})
	}
}

// TestConfig_Namespaces tests adding and removing prefix bindings
func TestConfig_Namespaces(t *testing.T) {
	cfg := domain.Config{}

	require.NoError(t, cfg.SetNamespace("univ", domain.UniversityNamespace))
	require.NoError(t, cfg.SetNamespace("ex", "http://example.org/"))
	assert.Equal(t, []string{"ex", "univ"}, cfg.NamespaceNames())

	assert.Error(t, cfg.SetNamespace("1bad", "http://example.org/"))
	assert.Error(t, cfg.SetNamespace("ok", ""))

	require.NoError(t, cfg.RemoveNamespace("ex"))
	assert.Equal(t, []string{"univ"}, cfg.NamespaceNames())
	assert.Error(t, cfg.RemoveNamespace("ex"))
}
