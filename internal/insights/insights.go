// Package insights turns a simulation result into a human-readable
// sustainability report. The simulation and recommendation engines have no
// dependency on this package; it is a presentation capability bolted on at
// the transport layer.
package insights

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/carbonshift/simulator/internal/simulation"
)

// Provider labels reported alongside generated text.
const (
	ProviderTemplate = "template"
	ProviderBedrock  = "bedrock"
)

// Recommendation tier thresholds on carbon improvement percentage.
const (
	strongRecommendThreshold   = 50
	considerRecommendThreshold = 20
)

// Generator produces insight text for a simulation result. Implementations
// must not fail: degraded output beats no output, so Generate returns text
// unconditionally along with the provider that produced it.
type Generator interface {
	Generate(ctx context.Context, result *simulation.Result) (text, provider string)
}

// TemplateGenerator renders a static markdown report.
type TemplateGenerator struct{}

// Generate renders the templated sustainability report.
func (TemplateGenerator) Generate(_ context.Context, result *simulation.Result) (string, string) {
	req := result.Request
	current := result.CurrentRegion
	bestCarbon := result.BestCarbonRegion
	bestCost := result.BestCostRegion
	equiv := result.Equivalencies

	sameRegion := bestCarbon.RegionCode == current.RegionCode
	carbonImprovement := bestCarbon.CarbonSavingsPercent

	var b strings.Builder

	if sameRegion {
		fmt.Fprintf(&b, "## 🌱 Sustainability Analysis\n\n"+
			"Great news! Your current deployment in **%s** (%s) is already one of the most carbon-efficient options available.\n\n"+
			"Your **%dx %s** instances emit approximately **%g kg CO2 per month**, which is excellent compared to other regions.",
			current.RegionName, current.Country,
			req.InstanceCount, req.InstanceType, current.CarbonEmissionsKg)
	} else {
		fmt.Fprintf(&b, "## 🌱 Sustainability Analysis\n\n"+
			"Your current deployment of **%dx %s** instances in **%s** (%s) produces approximately **%g kg CO2 per month**.\n\n"+
			"By migrating to **%s** (%s), you could reduce emissions to just **%g kg CO2 per month** — a **%g%% reduction**!",
			req.InstanceCount, req.InstanceType, current.RegionName, current.Country, current.CarbonEmissionsKg,
			bestCarbon.RegionName, bestCarbon.Country, bestCarbon.CarbonEmissionsKg, carbonImprovement)
	}

	if equiv["yearly_savings_kg"] > 0 {
		fmt.Fprintf(&b, "\n### 🚗 Environmental Impact\n\n"+
			"Over a year, this migration would save approximately **%g kg of CO2**. To put that in perspective:\n"+
			"- 🚙 Equivalent to avoiding **%s km** of car travel\n"+
			"- 🌳 Equal to **%s tree-months** of CO2 absorption\n"+
			"- 📱 Same as **%s** smartphone charges",
			equiv["yearly_savings_kg"],
			groupThousands(equiv["car_km_saved"]),
			groupThousands(equiv["tree_months"]),
			groupThousands(equiv["smartphone_charges"]))
	} else {
		b.WriteString("\n### 🌿 Environmental Impact\n\n" +
			"Your current region is already optimized for low carbon emissions. Keep up the great work!")
	}

	if bestCost.CostSavingsUSD > 0 {
		fmt.Fprintf(&b, "\n### 💰 Cost Optimization\n\n"+
			"The most cost-effective region is **%s** (%s) at **$%g/month**, saving you **$%g/month** ($%g/year).",
			bestCost.RegionName, bestCost.Country, bestCost.MonthlyCostUSD,
			bestCost.CostSavingsUSD, round2(bestCost.CostSavingsUSD*12))
	} else {
		fmt.Fprintf(&b, "\n### 💰 Cost Analysis\n\n"+
			"Your current region offers competitive pricing at **$%g/month**.",
			current.MonthlyCostUSD)
	}

	switch {
	case sameRegion:
		b.WriteString("\n### ✅ Recommendation\n\n" +
			"**Stay in your current region!** You've already optimized for carbon efficiency. " +
			"Consider monitoring your CPU utilization to ensure you're right-sizing your instances.")
	case carbonImprovement > strongRecommendThreshold:
		fmt.Fprintf(&b, "\n### 🎯 Recommendation\n\n"+
			"**Strongly recommended:** Migrate to **%s** for significant environmental benefits. "+
			"The %g%% carbon reduction makes this a high-impact sustainability win.",
			bestCarbon.RegionName, carbonImprovement)
	case carbonImprovement > considerRecommendThreshold:
		fmt.Fprintf(&b, "\n### 🎯 Recommendation\n\n"+
			"**Consider migrating** to **%s** for meaningful carbon savings. "+
			"A %g%% reduction contributes positively to your sustainability goals.",
			bestCarbon.RegionName, carbonImprovement)
	default:
		fmt.Fprintf(&b, "\n### 🎯 Recommendation\n\n"+
			"Your current region is reasonably efficient. If you prioritize sustainability, **%s** offers modest improvements. "+
			"Consider other factors like latency and compliance when making your decision.",
			bestCarbon.RegionName)
	}

	return b.String(), ProviderTemplate
}

// groupThousands formats a non-negative whole-valued float with comma
// thousand separators, e.g. 1234567 → "1,234,567".
func groupThousands(v float64) string {
	s := fmt.Sprintf("%.0f", v)
	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}
	for i := len(s) - 3; i > 0; i -= 3 {
		s = s[:i] + "," + s[i:]
	}
	if neg {
		s = "-" + s
	}
	return s
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
