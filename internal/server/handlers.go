package server

import (
	"errors"
	"net/http"
	"sort"

	"github.com/goccy/go-json"

	"github.com/carbonshift/simulator/internal/simulation"
)

// Request defaults matching the public API contract.
const (
	defaultProvider       = "aws"
	defaultInstanceCount  = 1
	defaultCPUUtilization = 50.0
	defaultHoursPerMonth  = 730.0
)

type simulateRequest struct {
	CloudProvider  string                        `json:"cloud_provider"`
	InstanceType   string                        `json:"instance_type"`
	InstanceCount  *int                          `json:"instance_count"`
	CPUUtilization *float64                      `json:"cpu_utilization"`
	HoursPerMonth  *float64                      `json:"hours_per_month"`
	CurrentRegion  string                        `json:"current_region"`
	UserLocation   string                        `json:"user_location"`
	Priorities     *simulation.PriorityOverrides `json:"priorities"`
}

// toWorkload applies defaults for omitted fields.
func (r simulateRequest) toWorkload() simulation.WorkloadRequest {
	req := simulation.WorkloadRequest{
		CloudProvider:  r.CloudProvider,
		InstanceType:   r.InstanceType,
		InstanceCount:  defaultInstanceCount,
		CPUUtilization: defaultCPUUtilization,
		HoursPerMonth:  defaultHoursPerMonth,
		CurrentRegion:  r.CurrentRegion,
		UserLocation:   r.UserLocation,
		Priorities:     r.Priorities,
	}
	if req.CloudProvider == "" {
		req.CloudProvider = defaultProvider
	}
	if r.InstanceCount != nil {
		req.InstanceCount = *r.InstanceCount
	}
	if r.CPUUtilization != nil {
		req.CPUUtilization = *r.CPUUtilization
	}
	if r.HoursPerMonth != nil {
		req.HoursPerMonth = *r.HoursPerMonth
	}
	return req
}

type simulateResponse struct {
	Success           bool                       `json:"success"`
	Request           simulation.WorkloadRequest `json:"request"`
	CurrentRegion     simulation.RegionResult    `json:"current_region_result"`
	ComparisonRegions []simulation.RegionResult  `json:"comparison_regions"`
	BestCarbonRegion  simulation.RegionResult    `json:"best_carbon_region"`
	BestCostRegion    simulation.RegionResult    `json:"best_cost_region"`
	RecommendedRegion *simulation.RegionResult   `json:"recommended_region,omitempty"`
	Insights          string                     `json:"insights,omitempty"`
	InsightsProvider  string                     `json:"insights_provider,omitempty"`
	Equivalencies     map[string]float64         `json:"equivalencies"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleSimulate(w http.ResponseWriter, r *http.Request) {
	var body simulateRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	req := body.toWorkload()
	if err := req.Validate(); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	result, err := s.simulator.Simulate(r.Context(), req)
	if err != nil {
		var unknownInstance *simulation.UnknownInstanceTypeError
		var unknownRegion *simulation.UnknownRegionError
		if errors.As(err, &unknownInstance) || errors.As(err, &unknownRegion) {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
			return
		}
		s.logger.Error().Err(err).Msg("simulation failed")
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "simulation failed"})
		return
	}

	resp := simulateResponse{
		Success:           true,
		Request:           req,
		CurrentRegion:     result.CurrentRegion,
		ComparisonRegions: result.ComparisonRegions,
		BestCarbonRegion:  result.BestCarbonRegion,
		BestCostRegion:    result.BestCostRegion,
		Equivalencies:     result.Equivalencies,
	}

	if code := s.recommend.Recommend(result, req.UserLocation, req.Priorities); code != "" {
		for _, region := range result.AllRegions() {
			if region.RegionCode == code {
				recommended := region
				resp.RecommendedRegion = &recommended
				break
			}
		}
	}

	resp.Insights, resp.InsightsProvider = s.insights.Generate(r.Context(), result)

	writeJSON(w, http.StatusOK, resp)
}

type instanceInfo struct {
	InstanceType string  `json:"instance_type"`
	VCPUs        int     `json:"vcpus"`
	MemoryGB     float64 `json:"memory_gb"`
	IdleWatts    float64 `json:"idle_watts"`
	MaxWatts     float64 `json:"max_watts"`
}

type regionInfo struct {
	RegionCode             string  `json:"region_code"`
	RegionName             string  `json:"region_name"`
	Country                string  `json:"country"`
	CarbonIntensityGCO2KWh float64 `json:"carbon_intensity_gco2_kwh"`
}

type metadataResponse struct {
	Instances      []instanceInfo `json:"instances"`
	Regions        []regionInfo   `json:"regions"`
	CloudProviders []string       `json:"cloud_providers"`
}

func (s *Server) handleMetadata(w http.ResponseWriter, _ *http.Request) {
	instances := make([]instanceInfo, 0, len(s.store.Instances()))
	for _, p := range s.store.Instances() {
		instances = append(instances, instanceInfo{
			InstanceType: p.InstanceType,
			VCPUs:        p.VCPUs,
			MemoryGB:     p.MemoryGB,
			IdleWatts:    p.IdleWatts,
			MaxWatts:     p.MaxWatts,
		})
	}

	regions := make([]regionInfo, 0, len(s.store.Regions()))
	for _, r := range s.store.Regions() {
		regions = append(regions, regionInfo{
			RegionCode:             r.RegionCode,
			RegionName:             r.RegionName,
			Country:                r.Country,
			CarbonIntensityGCO2KWh: r.CarbonIntensityGCO2KWh,
		})
	}
	// Display order only; the store's enumeration order is untouched.
	sort.Slice(regions, func(a, b int) bool {
		return regions[a].RegionName < regions[b].RegionName
	})

	writeJSON(w, http.StatusOK, metadataResponse{
		Instances:      instances,
		Regions:        regions,
		CloudProviders: []string{defaultProvider},
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"service": "carbonshift-api",
	})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
