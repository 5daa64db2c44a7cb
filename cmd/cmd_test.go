package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/JakeFAU/lead-enricher/internal/app"
	"github.com/JakeFAU/lead-enricher/internal/config"
	"github.com/JakeFAU/lead-enricher/internal/enrich"
)

type siteFetcher map[string]string

func (s siteFetcher) Fetch(_ context.Context, rawURL string) enrich.FetchOutcome {
	body, ok := s[rawURL]
	if !ok {
		return enrich.Absent
	}
	return enrich.FetchOutcome{Found: true, Content: body, SourceURL: rawURL, FinalURL: rawURL, StatusCode: http.StatusOK}
}

func withFakeApp(t *testing.T, fetcher enrich.Fetcher) {
	t.Helper()
	orig := newApp
	t.Cleanup(func() { newApp = orig })
	newApp = func(ctx context.Context, cfg config.Config, logger *zap.Logger) (*app.App, error) {
		cfg.Search.Enabled = false
		cfg.DB.DSN = ""
		cfg.PubSub = config.PubSubConfig{}
		return app.New(ctx, cfg, logger, app.Options{Fetcher: fetcher})
	}
}

func runRoot(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cfgFile = ""
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&bytes.Buffer{})
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestEnrichCommand_PrintsResult(t *testing.T) {
	withFakeApp(t, siteFetcher{
		"https://acme.example": `<html><body>Call +1 (415) 555-0100 or email hello@acme.example</body></html>`,
	})

	out, err := runRoot(t, "enrich", "--domain", "acme.example")
	require.NoError(t, err)

	var res enrich.Result
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Equal(t, "acme.example", res.Domain)
	assert.Equal(t, []string{"hello@acme.example"}, res.Emails)
	assert.Equal(t, []string{"https://acme.example"}, res.Sources)
	assert.Equal(t, enrich.StageDirect, res.ResolvedBy)
}

func TestEnrichCommand_MissingInput(t *testing.T) {
	withFakeApp(t, siteFetcher{})

	_, err := runRoot(t, "enrich")
	require.Error(t, err)
	assert.ErrorIs(t, err, enrich.ErrMissingInput)
}

func TestRootCommand_BadConfigPath(t *testing.T) {
	withFakeApp(t, siteFetcher{})

	_, err := runRoot(t, "enrich", "--domain", "acme.example", "--config", "/does/not/exist.yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "load config")
}

func TestListenPort(t *testing.T) {
	t.Setenv("PORT", "")
	assert.Equal(t, "8080", listenPort(8080))

	t.Setenv("PORT", "9191")
	assert.Equal(t, "9191", listenPort(8080))

	t.Setenv("PORT", "not-a-port")
	assert.Equal(t, "8080", listenPort(8080))
}
