// Package refdata holds the static reference tables the simulator reads:
// per-region grid carbon intensity and per-instance-type power profiles.
// Both datasets are embedded at build time and immutable after Load.
package refdata

import (
	_ "embed"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// CSV column indices for data/instances.csv.
const (
	colInstanceType = 0
	colVCPUs        = 1
	colMemoryGB     = 2
	colIdleWatts    = 3
	colMaxWatts     = 4
)

// CSV column indices for data/regions.csv.
const (
	colRegionCode      = 0
	colRegionName      = 1
	colCountry         = 2
	colCarbonIntensity = 3
	colRenewablePct    = 4
)

//go:embed data/instances.csv
var instancesCSV string

//go:embed data/regions.csv
var regionsCSV string

// InstancePowerProfile contains power consumption characteristics for an
// EC2 instance type. Watt values are whole-instance, not per-vCPU.
type InstancePowerProfile struct {
	InstanceType string
	VCPUs        int
	MemoryGB     float64
	IdleWatts    float64
	MaxWatts     float64
}

// RegionCarbonProfile contains grid carbon intensity data for an AWS region.
// Intensity values are annual averages in grams CO2 per kWh.
type RegionCarbonProfile struct {
	RegionCode             string
	RegionName             string
	Country                string
	CarbonIntensityGCO2KWh float64
	RenewablePercent       float64
}

// Store is the read-only reference data set. The region slice preserves the
// CSV row order; that order is the canonical enumeration order used for
// tie-breaking, so Regions must never be re-sorted by callers.
type Store struct {
	regions       []RegionCarbonProfile
	regionIndex   map[string]int
	instances     []InstancePowerProfile
	instanceIndex map[string]int
}

// Load parses the embedded datasets and returns an immutable Store.
// It fails on structurally invalid rows rather than skipping them: the data
// ships with the binary, so a bad row is a build defect, not runtime noise.
func Load() (*Store, error) {
	s := &Store{
		regionIndex:   make(map[string]int),
		instanceIndex: make(map[string]int),
	}
	if err := s.loadRegions(); err != nil {
		return nil, fmt.Errorf("refdata: regions: %w", err)
	}
	if err := s.loadInstances(); err != nil {
		return nil, fmt.Errorf("refdata: instances: %w", err)
	}
	return s, nil
}

func (s *Store) loadRegions() error {
	reader := csv.NewReader(strings.NewReader(regionsCSV))

	// Skip header row
	if _, err := reader.Read(); err != nil {
		return err
	}

	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return err
		}
		if len(record) <= colRenewablePct {
			return fmt.Errorf("short row %q", record)
		}

		intensity, err := strconv.ParseFloat(strings.TrimSpace(record[colCarbonIntensity]), 64)
		if err != nil {
			return fmt.Errorf("carbon intensity for %s: %w", record[colRegionCode], err)
		}
		renewable, err := strconv.ParseFloat(strings.TrimSpace(record[colRenewablePct]), 64)
		if err != nil {
			return fmt.Errorf("renewable percent for %s: %w", record[colRegionCode], err)
		}

		code := strings.TrimSpace(record[colRegionCode])
		if code == "" || intensity < 0 {
			return fmt.Errorf("invalid region row %q", record)
		}

		s.regionIndex[code] = len(s.regions)
		s.regions = append(s.regions, RegionCarbonProfile{
			RegionCode:             code,
			RegionName:             strings.TrimSpace(record[colRegionName]),
			Country:                strings.TrimSpace(record[colCountry]),
			CarbonIntensityGCO2KWh: intensity,
			RenewablePercent:       renewable,
		})
	}
	return nil
}

func (s *Store) loadInstances() error {
	reader := csv.NewReader(strings.NewReader(instancesCSV))

	// Skip header row
	if _, err := reader.Read(); err != nil {
		return err
	}

	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return err
		}
		if len(record) <= colMaxWatts {
			return fmt.Errorf("short row %q", record)
		}

		instanceType := strings.TrimSpace(record[colInstanceType])
		vcpus, err := strconv.Atoi(strings.TrimSpace(record[colVCPUs]))
		if err != nil || vcpus < 1 {
			return fmt.Errorf("vcpus for %s: %v", instanceType, err)
		}
		memory, err := strconv.ParseFloat(strings.TrimSpace(record[colMemoryGB]), 64)
		if err != nil {
			return fmt.Errorf("memory for %s: %w", instanceType, err)
		}
		idleWatts, err := strconv.ParseFloat(strings.TrimSpace(record[colIdleWatts]), 64)
		if err != nil {
			return fmt.Errorf("idle watts for %s: %w", instanceType, err)
		}
		maxWatts, err := strconv.ParseFloat(strings.TrimSpace(record[colMaxWatts]), 64)
		if err != nil {
			return fmt.Errorf("max watts for %s: %w", instanceType, err)
		}

		// Invariant: max >= idle >= 0.
		if instanceType == "" || idleWatts < 0 || maxWatts < idleWatts {
			return fmt.Errorf("invalid power profile row %q", record)
		}

		s.instanceIndex[instanceType] = len(s.instances)
		s.instances = append(s.instances, InstancePowerProfile{
			InstanceType: instanceType,
			VCPUs:        vcpus,
			MemoryGB:     memory,
			IdleWatts:    idleWatts,
			MaxWatts:     maxWatts,
		})
	}
	return nil
}

// InstanceProfile returns the power profile for an instance type.
// Returns (zero, false) if the instance type is unknown.
func (s *Store) InstanceProfile(instanceType string) (InstancePowerProfile, bool) {
	idx, ok := s.instanceIndex[instanceType]
	if !ok {
		return InstancePowerProfile{}, false
	}
	return s.instances[idx], true
}

// RegionCarbon returns the carbon profile for a region code.
// Returns (zero, false) if the region is unknown.
func (s *Store) RegionCarbon(regionCode string) (RegionCarbonProfile, bool) {
	idx, ok := s.regionIndex[regionCode]
	if !ok {
		return RegionCarbonProfile{}, false
	}
	return s.regions[idx], true
}

// Regions returns all regions in canonical enumeration order.
// Callers must not mutate or re-order the returned slice.
func (s *Store) Regions() []RegionCarbonProfile {
	return s.regions
}

// Instances returns all instance power profiles in dataset order.
func (s *Store) Instances() []InstancePowerProfile {
	return s.instances
}
