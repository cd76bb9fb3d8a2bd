package db

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kube-rca/rca-rag/internal/config"
)

func TestBuildPostgresURL(t *testing.T) {
	tests := []struct {
		name string
		cfg  config.PostgresConfig
		want string
	}{
		{
			name: "database url wins",
			cfg:  config.PostgresConfig{DatabaseURL: "postgres://a@db/x", User: "ignored", Database: "ignored"},
			want: "postgres://a@db/x",
		},
		{
			name: "defaults",
			cfg:  config.PostgresConfig{User: "rca", Database: "rag"},
			want: "postgres://rca@localhost:5432/rag?sslmode=disable",
		},
		{
			name: "password escaped",
			cfg: config.PostgresConfig{
				Host: "pg", Port: "6432", User: "rca", Password: "p@ss", Database: "rag", SSLMode: "require",
			},
			want: "postgres://rca:p%40ss@pg:6432/rag?sslmode=require",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := buildPostgresURL(tt.cfg)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestBuildPostgresURLMissingFields(t *testing.T) {
	_, err := buildPostgresURL(config.PostgresConfig{Host: "pg"})
	assert.Error(t, err)
}
