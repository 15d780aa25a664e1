package pricing

// baseHourlyPricing is On-Demand Linux pricing in USD per hour, us-east-1
// reference prices. Regional prices are derived via regionMultipliers.
var baseHourlyPricing = map[string]float64{
	"t3.micro":   0.0104,
	"t3.small":   0.0208,
	"t3.medium":  0.0416,
	"t3.large":   0.0832,
	"t3.xlarge":  0.1664,
	"m5.large":   0.096,
	"m5.xlarge":  0.192,
	"m5.2xlarge": 0.384,
	"m5.4xlarge": 0.768,
	"c5.large":   0.085,
	"c5.xlarge":  0.170,
	"c5.2xlarge": 0.340,
	"r5.large":   0.126,
	"r5.xlarge":  0.252,
	"r5.2xlarge": 0.504,
}

// regionMultipliers scales base prices relative to us-east-1.
var regionMultipliers = map[string]float64{
	"us-east-1":    1.00,
	"us-east-2":    1.00,
	"us-west-1":    1.10,
	"us-west-2":    1.00,
	"ca-central-1": 1.05,

	"eu-west-1":    1.08,
	"eu-west-2":    1.10,
	"eu-west-3":    1.12,
	"eu-central-1": 1.10,
	"eu-central-2": 1.18,
	"eu-north-1":   1.05,
	"eu-south-1":   1.12,

	"ap-northeast-1": 1.20,
	"ap-northeast-2": 1.18,
	"ap-southeast-1": 1.12,
	"ap-southeast-2": 1.15,
	"ap-south-1":     1.05,

	"sa-east-1": 1.45,
}

// DefaultRegionMultiplier applies to regions without an explicit multiplier.
const DefaultRegionMultiplier = 1.10

// regionLocationNames maps region codes to the location names the AWS Price
// List API filters on.
var regionLocationNames = map[string]string{
	"us-east-1":      "US East (N. Virginia)",
	"us-east-2":      "US East (Ohio)",
	"us-west-1":      "US West (N. California)",
	"us-west-2":      "US West (Oregon)",
	"ca-central-1":   "Canada (Central)",
	"eu-west-1":      "EU (Ireland)",
	"eu-west-2":      "EU (London)",
	"eu-west-3":      "EU (Paris)",
	"eu-central-1":   "EU (Frankfurt)",
	"eu-central-2":   "EU (Zurich)",
	"eu-north-1":     "EU (Stockholm)",
	"eu-south-1":     "EU (Milan)",
	"ap-northeast-1": "Asia Pacific (Tokyo)",
	"ap-northeast-2": "Asia Pacific (Seoul)",
	"ap-southeast-1": "Asia Pacific (Singapore)",
	"ap-southeast-2": "Asia Pacific (Sydney)",
	"ap-south-1":     "Asia Pacific (Mumbai)",
	"sa-east-1":      "South America (Sao Paulo)",
}

// locationName returns the Price List API location for a region code,
// falling back to the code itself for unmapped regions.
func locationName(regionCode string) string {
	if name, ok := regionLocationNames[regionCode]; ok {
		return name
	}
	return regionCode
}
