package server

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carbonshift/simulator/internal/insights"
	"github.com/carbonshift/simulator/internal/pricing"
	"github.com/carbonshift/simulator/internal/recommend"
	"github.com/carbonshift/simulator/internal/refdata"
	"github.com/carbonshift/simulator/internal/simulation"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	store, err := refdata.Load()
	require.NoError(t, err)

	logger := zerolog.Nop()
	sim := simulation.NewEngine(store, pricing.NewStaticResolver(logger), logger)
	rec, err := recommend.NewEngine(store, logger)
	require.NoError(t, err)

	return New(store, sim, rec, insights.TemplateGenerator{}, logger)
}

func doJSON(t *testing.T, s *Server, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	rr := httptest.NewRecorder()
	s.Router().ServeHTTP(rr, req)
	return rr
}

func TestHandleSimulate(t *testing.T) {
	s := newTestServer(t)

	rr := doJSON(t, s, http.MethodPost, "/api/v1/simulate", map[string]any{
		"instance_type":   "t3.micro",
		"current_region":  "eu-central-1",
		"cpu_utilization": 50,
		"hours_per_month": 730,
		"user_location":   "Germany",
	})

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))
	assert.NotEmpty(t, rr.Header().Get("X-Request-Id"))

	var resp simulateResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))

	assert.True(t, resp.Success)
	assert.Equal(t, "eu-central-1", resp.CurrentRegion.RegionCode)
	assert.True(t, resp.CurrentRegion.IsCurrentRegion)
	assert.Len(t, resp.ComparisonRegions, 17)
	assert.Equal(t, "ca-central-1", resp.BestCarbonRegion.RegionCode)
	require.NotNil(t, resp.RecommendedRegion)
	assert.NotEmpty(t, resp.RecommendedRegion.RegionCode)
	assert.Equal(t, insights.ProviderTemplate, resp.InsightsProvider)
	assert.Contains(t, resp.Insights, "Sustainability Analysis")
	assert.Contains(t, resp.Equivalencies, "yearly_savings_kg")
}

func TestHandleSimulate_Defaults(t *testing.T) {
	s := newTestServer(t)

	// Only the required fields: count, utilization, and hours take the
	// documented defaults.
	rr := doJSON(t, s, http.MethodPost, "/api/v1/simulate", map[string]any{
		"instance_type":  "t3.micro",
		"current_region": "us-east-1",
	})

	require.Equal(t, http.StatusOK, rr.Code)

	var resp simulateResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))

	assert.Equal(t, "aws", resp.Request.CloudProvider)
	assert.Equal(t, 1, resp.Request.InstanceCount)
	assert.Equal(t, 50.0, resp.Request.CPUUtilization)
	assert.Equal(t, 730.0, resp.Request.HoursPerMonth)
}

func TestHandleSimulate_UnknownInstanceType(t *testing.T) {
	s := newTestServer(t)

	rr := doJSON(t, s, http.MethodPost, "/api/v1/simulate", map[string]any{
		"instance_type":  "z99.mega",
		"current_region": "us-east-1",
	})

	require.Equal(t, http.StatusBadRequest, rr.Code)

	var resp errorResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Contains(t, resp.Error, "z99.mega")
}

func TestHandleSimulate_UnknownRegion(t *testing.T) {
	s := newTestServer(t)

	rr := doJSON(t, s, http.MethodPost, "/api/v1/simulate", map[string]any{
		"instance_type":  "t3.micro",
		"current_region": "mars-north-1",
	})

	require.Equal(t, http.StatusBadRequest, rr.Code)

	var resp errorResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Contains(t, resp.Error, "mars-north-1")
}

func TestHandleSimulate_ValidationError(t *testing.T) {
	s := newTestServer(t)

	rr := doJSON(t, s, http.MethodPost, "/api/v1/simulate", map[string]any{
		"instance_type":   "t3.micro",
		"current_region":  "us-east-1",
		"cpu_utilization": 150,
	})

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestHandleSimulate_MalformedBody(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/simulate", bytes.NewBufferString("{not json"))
	rr := httptest.NewRecorder()
	s.Router().ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestHandleSimulate_PriorityOverrides(t *testing.T) {
	s := newTestServer(t)

	rr := doJSON(t, s, http.MethodPost, "/api/v1/simulate", map[string]any{
		"instance_type":  "t3.micro",
		"current_region": "eu-central-1",
		"priorities":     map[string]any{"carbon": 1.0, "price": 0, "latency": 0, "compliance": 0},
	})

	require.Equal(t, http.StatusOK, rr.Code)

	var resp simulateResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))

	// Carbon-only weighting recommends the lowest-carbon region.
	require.NotNil(t, resp.RecommendedRegion)
	assert.Equal(t, "ca-central-1", resp.RecommendedRegion.RegionCode)
}

func TestHandleMetadata(t *testing.T) {
	s := newTestServer(t)

	rr := doJSON(t, s, http.MethodGet, "/api/v1/metadata", nil)
	require.Equal(t, http.StatusOK, rr.Code)

	var resp metadataResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))

	assert.Len(t, resp.Instances, 15)
	assert.Len(t, resp.Regions, 18)
	assert.Equal(t, []string{"aws"}, resp.CloudProviders)

	// Regions come back sorted by display name.
	for i := 1; i < len(resp.Regions); i++ {
		assert.LessOrEqual(t, resp.Regions[i-1].RegionName, resp.Regions[i].RegionName)
	}
}

func TestHandleHealth(t *testing.T) {
	s := newTestServer(t)

	rr := doJSON(t, s, http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, rr.Code)

	var resp map[string]string
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, "healthy", resp["status"])
	assert.Equal(t, "carbonshift-api", resp["service"])
}

func TestRouter_MethodNotAllowed(t *testing.T) {
	s := newTestServer(t)

	rr := doJSON(t, s, http.MethodGet, "/api/v1/simulate", nil)
	assert.NotEqual(t, http.StatusOK, rr.Code)
}

func TestRequestLogging_PropagatesIncomingRequestID(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("X-Request-Id", "trace-123")
	rr := httptest.NewRecorder()
	s.Router().ServeHTTP(rr, req)

	assert.Equal(t, "trace-123", rr.Header().Get("X-Request-Id"))
}
