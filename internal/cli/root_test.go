package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kube-rca/rca-rag/internal/model"
	"github.com/kube-rca/rca-rag/internal/service"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func setLocalEnv(t *testing.T) {
	t.Helper()
	t.Setenv("VECTOR_BACKEND", "sqlite")
	t.Setenv("SQLITE_PATH", filepath.Join(t.TempDir(), "rca.db"))
	t.Setenv("EMBEDDING_PROVIDER", "hash")
	t.Setenv("EMBEDDING_DIM", "128")
	t.Setenv("LLM_PROVIDER", "ollama")
	t.Setenv("LOG_LEVEL", "error")
	t.Setenv("SLACK_BOT_TOKEN", "")
	t.Setenv("API_JWT_SECRET", "")
}

func TestTokenCommand(t *testing.T) {
	t.Setenv("API_JWT_SECRET", "cli-secret")

	out, err := run(t, "token", "--subject", "ci-bot", "--ttl", "1h")
	require.NoError(t, err)

	var got struct {
		AccessToken string `json:"access_token"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &got))

	auth, err := service.NewAuthService("cli-secret")
	require.NoError(t, err)
	p, err := auth.ParseAccessToken(got.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "ci-bot", p.Subject)
}

func TestTokenCommandWithoutSecret(t *testing.T) {
	t.Setenv("API_JWT_SECRET", "")
	_, err := run(t, "token", "--subject", "ci-bot")
	assert.ErrorIs(t, err, service.ErrMisconfigured)
}

func TestIngestAndStatsCommands(t *testing.T) {
	setLocalEnv(t)
	file := filepath.Join(t.TempDir(), "events.json")
	require.NoError(t, os.WriteFile(file, []byte(`[{"msg":"deploy started"},{"msg":"deploy finished"}]`), 0o644))

	out, err := run(t, "ingest", "--type", "events", file)
	require.NoError(t, err)
	var bulk model.BulkUploadResponse
	require.NoError(t, json.Unmarshal([]byte(out), &bulk))
	assert.Equal(t, 2, bulk.TotalProcessed)

	out, err = run(t, "stats")
	require.NoError(t, err)
	var stats model.StatsResponse
	require.NoError(t, json.Unmarshal([]byte(out), &stats))
	assert.Equal(t, 2, stats.Collections["observability_events"].DocumentCount)
	assert.Equal(t, 0, stats.Collections[model.CollectionLogs].DocumentCount)
}

func TestIngestRejectsInvalidType(t *testing.T) {
	setLocalEnv(t)
	_, err := run(t, "ingest", "--type", "Bad-Type", "whatever.json")
	assert.ErrorIs(t, err, service.ErrValidation)
}

func TestNewAppRejectsUnknownProviders(t *testing.T) {
	setLocalEnv(t)
	t.Setenv("VECTOR_BACKEND", "mongodb")
	_, err := run(t, "stats")
	assert.ErrorContains(t, err, "VECTOR_BACKEND")

	t.Setenv("VECTOR_BACKEND", "sqlite")
	t.Setenv("EMBEDDING_PROVIDER", "word2vec")
	_, err = run(t, "stats")
	assert.ErrorContains(t, err, "EMBEDDING_PROVIDER")
}
