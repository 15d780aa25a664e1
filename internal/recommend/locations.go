package recommend

import (
	_ "embed"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/carbonshift/simulator/internal/refdata"
)

//go:embed locations.yaml
var locationRulesYAML []byte

// locationRule maps a normalized location fragment to the region codes
// considered geographically nearby.
type locationRule struct {
	Match   string   `yaml:"match"`
	Regions []string `yaml:"regions"`
}

// parseLocationRules decodes the embedded rule table. YAML sequence order is
// preserved; the slice order is the rule precedence.
func parseLocationRules() ([]locationRule, error) {
	var rules []locationRule
	if err := yaml.Unmarshal(locationRulesYAML, &rules); err != nil {
		return nil, fmt.Errorf("recommend: location rules: %w", err)
	}
	for i, r := range rules {
		if r.Match == "" || len(r.Regions) == 0 {
			return nil, fmt.Errorf("recommend: location rule %d is incomplete", i)
		}
	}
	return rules, nil
}

// euCountries are location fragments recognized as EU member states for the
// compliance axis.
var euCountries = []string{
	"austria", "belgium", "bulgaria", "croatia", "cyprus", "czech",
	"denmark", "estonia", "finland", "france", "germany", "greece",
	"hungary", "ireland", "italy", "latvia", "lithuania", "luxembourg",
	"malta", "netherlands", "poland", "portugal", "romania", "slovakia",
	"slovenia", "spain", "sweden",
}

// euRegionCodes are the catalogue regions treated as keeping data in Europe.
var euRegionCodes = []string{
	"eu-north-1", "eu-west-1", "eu-west-2", "eu-west-3",
	"eu-central-1", "eu-central-2", "eu-south-1",
}

// isEULocation reports whether the normalized location names an EU country.
func isEULocation(normalizedLocation string) bool {
	for _, country := range euCountries {
		if strings.Contains(normalizedLocation, country) {
			return true
		}
	}
	return false
}

// isEURegion reports whether a region code keeps data in Europe.
func isEURegion(regionCode string) bool {
	for _, code := range euRegionCodes {
		if code == regionCode {
			return true
		}
	}
	return false
}

// nearbyRegions resolves a normalized location to candidate region codes.
// Precedence: first matching curated rule wins; if no rule matches, fall
// back to substring matching against the catalogue's own country and
// display-name fields. An empty location yields an empty set.
func nearbyRegions(normalizedLocation string, regions []refdata.RegionCarbonProfile, rules []locationRule) map[string]struct{} {
	nearby := make(map[string]struct{})
	if normalizedLocation == "" {
		return nearby
	}

	for _, rule := range rules {
		if strings.Contains(normalizedLocation, rule.Match) || strings.Contains(rule.Match, normalizedLocation) {
			for _, code := range rule.Regions {
				nearby[code] = struct{}{}
			}
			return nearby
		}
	}

	for _, region := range regions {
		if strings.Contains(strings.ToLower(region.Country), normalizedLocation) ||
			strings.Contains(strings.ToLower(region.RegionName), normalizedLocation) {
			nearby[region.RegionCode] = struct{}{}
		}
	}
	return nearby
}
