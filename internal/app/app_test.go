package app_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/JakeFAU/lead-enricher/internal/app"
	"github.com/JakeFAU/lead-enricher/internal/config"
	"github.com/JakeFAU/lead-enricher/internal/enrich"
	memorypublisher "github.com/JakeFAU/lead-enricher/internal/publisher/memory"
	memorystore "github.com/JakeFAU/lead-enricher/internal/storage/memory"
)

type siteFetcher map[string]string

func (s siteFetcher) Fetch(_ context.Context, rawURL string) enrich.FetchOutcome {
	body, ok := s[rawURL]
	if !ok {
		return enrich.Absent
	}
	return enrich.FetchOutcome{Found: true, Content: body, SourceURL: rawURL, FinalURL: rawURL, StatusCode: http.StatusOK}
}

func testConfig(t *testing.T) config.Config {
	t.Helper()
	cfg, err := config.Load("")
	require.NoError(t, err)
	cfg.Search.Enabled = false
	cfg.DB.DSN = ""
	cfg.PubSub = config.PubSubConfig{}
	return cfg
}

func TestNew_InMemoryDefaults(t *testing.T) {
	fetcher := siteFetcher{
		"https://acme.example": `<html><body><p>Write to sales@acme.example</p></body></html>`,
	}
	a, err := app.New(context.Background(), testConfig(t), zap.NewNop(), app.Options{Fetcher: fetcher})
	require.NoError(t, err)
	t.Cleanup(func() { assert.NoError(t, a.Close()) })

	assert.IsType(t, &memorystore.ResultStore{}, a.Results)
	assert.IsType(t, &memorypublisher.Publisher{}, a.Publisher)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/enrich", bytes.NewBufferString(`{"domain":"acme.example"}`))
	a.Server.Handler().ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var body struct {
		OK   bool `json:"ok"`
		Data struct {
			Emails []string `json:"emails"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.True(t, body.OK)
	assert.Equal(t, []string{"sales@acme.example"}, body.Data.Emails)

	pub, ok := a.Publisher.(*memorypublisher.Publisher)
	require.True(t, ok)
	assert.Len(t, pub.Messages(), 1)
}

func TestNew_EnricherStandalone(t *testing.T) {
	a, err := app.New(context.Background(), testConfig(t), nil, app.Options{Fetcher: siteFetcher{}})
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })

	res, err := a.Enricher.Enrich(context.Background(), enrich.Request{Domain: "nothing-here.test"})
	require.NoError(t, err)
	assert.Empty(t, res.Sources)
	assert.Equal(t, "nothing-here.test", res.Domain)
}

func TestNew_InvalidDSN(t *testing.T) {
	cfg := testConfig(t)
	cfg.DB.DSN = "postgres://user@localhost:99999/enricher"

	_, err := app.New(context.Background(), cfg, zap.NewNop(), app.Options{Fetcher: siteFetcher{}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "postgres")
}
