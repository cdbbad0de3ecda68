package api

import (
	"context"
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/greencanopy/allometree/internal/allometry"
	"github.com/greencanopy/allometree/internal/logger"
	"github.com/greencanopy/allometree/internal/observability/metrics"
	"github.com/greencanopy/allometree/internal/species"
)

// memorySource is a reloadable record source
type memorySource struct {
	mu      sync.Mutex
	records []allometry.EquationRecord
}

func (s *memorySource) LoadRecords(context.Context) ([]allometry.EquationRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.records, nil
}

func (s *memorySource) Name() string { return "memory" }

func (s *memorySource) set(records []allometry.EquationRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = records
}

func testRecords() []allometry.EquationRecord {
	return []allometry.EquationRecord{
		{Species: "Quercus robur", Region: "temperate", Component: "AGB", EquationType: "LOG_LINEAR_DBH", FormulaText: "ln(AGB) = -2.5 + 2.3*ln(DBH)", WoodDensity: "0.65"},
		{Species: "Picea abies", Region: "boreal", Component: "AGB", EquationType: "LOG_LINEAR_DBH", FormulaText: "-2.2 2.2"},
		{Species: "Ceiba pentandra", Region: "tropical", Component: "BGB", EquationType: "LOG_LINEAR_DBH", FormulaText: "-1 2"},
	}
}

func testCatalog() *species.Catalog {
	return species.NewCatalog([][2]string{
		{"Temperate", "Quercus robur"},
		{"temperate", "Fagus sylvatica"},
		{"boreal", "Picea abies"},
	})
}

func quietLogger() logger.Logger {
	return logger.NewSlogLogger(nil, logger.LogLevelError, nil)
}

type testEnv struct {
	echo       *echo.Echo
	controller *Controller
	source     *memorySource
	registry   *prometheus.Registry
}

func setupTestEnvironment(t *testing.T) *testEnv {
	t.Helper()

	src := &memorySource{records: testRecords()}
	engine, err := allometry.NewEngine(context.Background(), src, allometry.WithLogger(quietLogger()))
	require.NoError(t, err)

	registry := prometheus.NewRegistry()
	httpMetrics, err := metrics.NewHTTPMetrics(registry)
	require.NoError(t, err)

	e := echo.New()
	c := New(e, engine,
		WithCatalog(testCatalog()),
		WithHTTPMetrics(httpMetrics),
		WithLogger(quietLogger()),
	)
	return &testEnv{echo: e, controller: c, source: src, registry: registry}
}

func (env *testEnv) do(t *testing.T, method, target string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, http.NoBody)
	rec := httptest.NewRecorder()
	env.echo.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func estimateURL(speciesName, region, dbh string) string {
	q := url.Values{}
	q.Set("species", speciesName)
	q.Set("region", region)
	if dbh != "" {
		q.Set("dbh", dbh)
	}
	return APIPrefix + "/estimate?" + q.Encode()
}

func TestGetEstimateFound(t *testing.T) {
	t.Parallel()
	t.Attr("component", "api")

	env := setupTestEnvironment(t)
	rec := env.do(t, http.MethodGet, estimateURL("Quercus robur", "temperate", "30"))
	require.Equal(t, http.StatusOK, rec.Code)

	resp := decode[EstimateResponse](t, rec)
	assert.True(t, resp.Found)
	assert.InDelta(t, 204.9475, resp.AGBKg, 1e-3)
	assert.InDelta(t, 30.0, resp.DBHCM, 0)
	require.NotNil(t, resp.Coefficients)
	assert.InDelta(t, -2.5, resp.Coefficients.Intercept, 1e-12)
	assert.InDelta(t, 0.65, resp.Coefficients.WoodDensity, 1e-12)
	assert.Equal(t, "LOG_LINEAR_DBH", resp.Coefficients.Family)
}

func TestGetEstimateDefaultsDBH(t *testing.T) {
	t.Parallel()

	env := setupTestEnvironment(t)
	rec := env.do(t, http.MethodGet, estimateURL("Quercus robur", "temperate", ""))
	require.Equal(t, http.StatusOK, rec.Code)

	resp := decode[EstimateResponse](t, rec)
	assert.InDelta(t, DefaultDBH, resp.DBHCM, 0)
	assert.InDelta(t, 204.9475, resp.AGBKg, 1e-3)
}

func TestGetEstimateMissingModel(t *testing.T) {
	t.Parallel()

	env := setupTestEnvironment(t)
	for _, target := range []string{
		estimateURL("Quercus robur", "tropical", "30"),
		estimateURL("quercus robur", "temperate", "30"),
		estimateURL("Ceiba pentandra", "tropical", "30"),
	} {
		rec := env.do(t, http.MethodGet, target)
		require.Equal(t, http.StatusOK, rec.Code, target)

		body := decode[map[string]any](t, rec)
		assert.Equal(t, false, body["found"], target)
		assert.InDelta(t, 0.0, body["agb_kg"], 0, target)
		assert.NotContains(t, body, "coefficients", target)
	}
}

func TestGetEstimateValidation(t *testing.T) {
	t.Parallel()

	env := setupTestEnvironment(t)
	tests := []struct {
		name   string
		target string
	}{
		{"missing species", APIPrefix + "/estimate?region=temperate"},
		{"missing region", APIPrefix + "/estimate?species=Quercus+robur"},
		{"non numeric dbh", estimateURL("Quercus robur", "temperate", "wide")},
		{"nan dbh", estimateURL("Quercus robur", "temperate", "NaN")},
		{"infinite dbh", estimateURL("Quercus robur", "temperate", "+Inf")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.do(t, http.MethodGet, tt.target)
			require.Equal(t, http.StatusBadRequest, rec.Code)

			resp := decode[ErrorResponse](t, rec)
			assert.Equal(t, http.StatusBadRequest, resp.Code)
			assert.Len(t, resp.CorrelationID, 8)
			assert.NotEmpty(t, resp.Message)
		})
	}
}

func TestGetEstimateClampsTinyDiameters(t *testing.T) {
	t.Parallel()

	env := setupTestEnvironment(t)
	zero := decode[EstimateResponse](t, env.do(t, http.MethodGet, estimateURL("Quercus robur", "temperate", "0")))
	floor := decode[EstimateResponse](t, env.do(t, http.MethodGet, estimateURL("Quercus robur", "temperate", "0.01")))

	assert.True(t, zero.Found)
	assert.Positive(t, zero.AGBKg)
	assert.InDelta(t, floor.AGBKg, zero.AGBKg, 1e-12)
}

func TestGetSpecies(t *testing.T) {
	t.Parallel()

	env := setupTestEnvironment(t)

	rec := env.do(t, http.MethodGet, APIPrefix+"/species?ecoregion=TEMPERATE")
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decode[SpeciesListResponse](t, rec)
	assert.Equal(t, "temperate", resp.Ecoregion)
	assert.Equal(t, []string{"Quercus robur", "Fagus sylvatica"}, resp.Species)

	rec = env.do(t, http.MethodGet, APIPrefix+"/species?ecoregion=temperate")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, resp, decode[SpeciesListResponse](t, rec))

	expected := `
# HELP http_cache_lookups_total Response cache lookups by cache name and result
# TYPE http_cache_lookups_total counter
http_cache_lookups_total{cache="species",result="hit"} 1
http_cache_lookups_total{cache="species",result="miss"} 1
`
	assert.NoError(t, testutil.GatherAndCompare(env.registry, strings.NewReader(expected), "http_cache_lookups_total"))
}

func TestGetSpeciesDefaultsToTemperate(t *testing.T) {
	t.Parallel()

	env := setupTestEnvironment(t)
	rec := env.do(t, http.MethodGet, APIPrefix+"/species")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, species.DefaultEcoregion, decode[SpeciesListResponse](t, rec).Ecoregion)
}

func TestGetSpeciesUnknownEcoregion(t *testing.T) {
	t.Parallel()

	env := setupTestEnvironment(t)
	rec := env.do(t, http.MethodGet, APIPrefix+"/species?ecoregion=tropical")
	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "no native species found for this ecoregion", decode[ErrorResponse](t, rec).Message)
}

func TestGetEcoregions(t *testing.T) {
	t.Parallel()

	env := setupTestEnvironment(t)
	rec := env.do(t, http.MethodGet, APIPrefix+"/ecoregions")
	require.Equal(t, http.StatusOK, rec.Code)

	body := decode[struct {
		Ecoregions []EcoregionInfo `json:"ecoregions"`
	}](t, rec)
	assert.Equal(t, []EcoregionInfo{
		{Name: "temperate", Title: "Temperate", SpeciesCount: 2},
		{Name: "boreal", Title: "Boreal", SpeciesCount: 1},
	}, body.Ecoregions)
}

func TestSpeciesRoutesWithoutCatalog(t *testing.T) {
	t.Parallel()

	engine := allometry.NewEngineFromIndex(allometry.Build(testRecords()), allometry.WithLogger(quietLogger()))
	e := echo.New()
	New(e, engine, WithLogger(quietLogger()))

	for _, path := range []string{"/ecoregions", "/species?ecoregion=temperate"} {
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, APIPrefix+path, http.NoBody))
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code, path)
	}
}

func TestGetEquations(t *testing.T) {
	t.Parallel()

	env := setupTestEnvironment(t)
	rec := env.do(t, http.MethodGet, APIPrefix+"/equations")
	require.Equal(t, http.StatusOK, rec.Code)

	resp := decode[EquationsResponse](t, rec)
	assert.Equal(t, "memory", resp.Source)
	assert.Equal(t, 2, resp.Count)
	require.Len(t, resp.Equations, 2)
	assert.Equal(t, "Picea abies", resp.Equations[0].Species)
	assert.Equal(t, 3, resp.Stats.Seen)
	assert.Equal(t, 1, resp.Stats.Skipped[string(allometry.SkipUnsupportedComponent)])

	rec = env.do(t, http.MethodGet, APIPrefix+"/equations?region=temperate")
	resp = decode[EquationsResponse](t, rec)
	require.Len(t, resp.Equations, 1)
	assert.Equal(t, "Quercus robur", resp.Equations[0].Species)
	assert.InDelta(t, 2.3, resp.Equations[0].Slope, 1e-12)
}

func TestReloadEquations(t *testing.T) {
	t.Parallel()

	env := setupTestEnvironment(t)

	updated := testRecords()
	updated[0].FormulaText = "-1 2"
	env.source.set(updated[:1])

	rec := env.do(t, http.MethodPost, APIPrefix+"/equations/reload")
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode[map[string]any](t, rec)
	assert.InDelta(t, 1, body["count"], 0)

	resp := decode[EstimateResponse](t, env.do(t, http.MethodGet, estimateURL("Quercus robur", "temperate", "10")))
	assert.InDelta(t, math.Exp(-1+2*math.Log(10)), resp.AGBKg, 1e-9)
}

func TestReloadWithoutSource(t *testing.T) {
	t.Parallel()

	engine := allometry.NewEngineFromIndex(allometry.Build(testRecords()), allometry.WithLogger(quietLogger()))
	e := echo.New()
	New(e, engine, WithLogger(quietLogger()))

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, APIPrefix+"/equations/reload", http.NoBody))
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestHealthCheck(t *testing.T) {
	t.Parallel()

	env := setupTestEnvironment(t)
	rec := env.do(t, http.MethodGet, APIPrefix+"/health")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get(echo.HeaderContentType), echo.MIMEApplicationJSON)

	body := decode[map[string]any](t, rec)
	assert.Equal(t, "healthy", body["status"])
	assert.InDelta(t, 2, body["equations"], 0)
}
