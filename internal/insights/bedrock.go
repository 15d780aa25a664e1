package insights

import (
	"context"
	"fmt"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/carbonshift/simulator/internal/simulation"
)

// DefaultBedrockModelID is the model invoked when none is configured.
const DefaultBedrockModelID = "anthropic.claude-3-haiku-20240307-v1:0"

const (
	anthropicVersion = "bedrock-2023-05-31"
	maxOutputTokens  = 1024

	// One bounded retry, then unconditional fallback to the template.
	invokeAttempts   = 2
	invokeRetryDelay = 500 * time.Millisecond
)

// BedrockClient is the subset of the Bedrock Runtime client the generator
// uses.
type BedrockClient interface {
	InvokeModel(ctx context.Context, params *bedrockruntime.InvokeModelInput, optFns ...func(*bedrockruntime.Options)) (*bedrockruntime.InvokeModelOutput, error)
}

// BedrockGenerator produces insight text via the Bedrock Runtime API.
// Any failure degrades to the template generator; Generate never fails.
type BedrockGenerator struct {
	client   BedrockClient
	fallback TemplateGenerator
	modelID  string
	logger   zerolog.Logger
}

// NewBedrockGenerator returns a Bedrock-backed generator. An empty modelID
// uses DefaultBedrockModelID.
func NewBedrockGenerator(client BedrockClient, modelID string, logger zerolog.Logger) *BedrockGenerator {
	if modelID == "" {
		modelID = DefaultBedrockModelID
	}
	return &BedrockGenerator{
		client:  client,
		modelID: modelID,
		logger:  logger,
	}
}

type anthropicMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type anthropicRequest struct {
	AnthropicVersion string             `json:"anthropic_version"`
	MaxTokens        int                `json:"max_tokens"`
	Messages         []anthropicMessage `json:"messages"`
}

type anthropicResponse struct {
	Content []struct {
		Text string `json:"text"`
	} `json:"content"`
}

// Generate invokes the model with one bounded retry, falling back to the
// template report on any failure.
func (g *BedrockGenerator) Generate(ctx context.Context, result *simulation.Result) (string, string) {
	body, err := json.Marshal(anthropicRequest{
		AnthropicVersion: anthropicVersion,
		MaxTokens:        maxOutputTokens,
		Messages: []anthropicMessage{
			{Role: "user", Content: buildPrompt(result)},
		},
	})
	if err != nil {
		g.logger.Warn().Err(err).Msg("bedrock request marshal failed, using template insights")
		return g.fallback.Generate(ctx, result)
	}

	out, err := retry.DoWithData(
		func() (*bedrockruntime.InvokeModelOutput, error) {
			return g.client.InvokeModel(ctx, &bedrockruntime.InvokeModelInput{
				ModelId:     aws.String(g.modelID),
				ContentType: aws.String("application/json"),
				Body:        body,
			})
		},
		retry.Context(ctx),
		retry.Attempts(invokeAttempts),
		retry.Delay(invokeRetryDelay),
	)
	if err != nil {
		g.logger.Warn().Err(err).Str("model_id", g.modelID).
			Msg("bedrock invocation failed, using template insights")
		return g.fallback.Generate(ctx, result)
	}

	var parsed anthropicResponse
	if err := json.Unmarshal(out.Body, &parsed); err != nil || len(parsed.Content) == 0 || parsed.Content[0].Text == "" {
		g.logger.Warn().Err(err).Msg("bedrock response unusable, using template insights")
		return g.fallback.Generate(ctx, result)
	}

	return parsed.Content[0].Text, ProviderBedrock
}

// buildPrompt assembles the sustainability-consultant prompt from the
// simulation figures.
func buildPrompt(result *simulation.Result) string {
	req := result.Request
	current := result.CurrentRegion
	bestCarbon := result.BestCarbonRegion
	bestCost := result.BestCostRegion
	equiv := result.Equivalencies

	return fmt.Sprintf(`You are a sustainability consultant analyzing cloud infrastructure carbon emissions.

Generate a brief, engaging sustainability report (3-4 paragraphs) based on this data:

**Current Setup:**
- %dx %s instances in %s (%s)
- %g%% average CPU utilization
- %g hours/month runtime
- Current emissions: %g kg CO2/month
- Current cost: $%g/month

**Best Low-Carbon Alternative:**
- Region: %s (%s)
- Emissions: %g kg CO2/month
- Monthly savings: %g kg CO2 (%g%%)
- Yearly savings: %g kg CO2

**Best Low-Cost Alternative:**
- Region: %s (%s)
- Cost: $%g/month
- Monthly savings: $%g

**Equivalencies for yearly carbon savings:**
- Equivalent to %g km of car driving avoided
- Equal to %g tree-months of CO2 absorption

Write in a professional but accessible tone. Include specific numbers and make the environmental impact tangible and relatable. End with a clear recommendation.`,
		req.InstanceCount, req.InstanceType, current.RegionName, current.Country,
		req.CPUUtilization, req.HoursPerMonth,
		current.CarbonEmissionsKg, current.MonthlyCostUSD,
		bestCarbon.RegionName, bestCarbon.Country, bestCarbon.CarbonEmissionsKg,
		bestCarbon.CarbonSavingsKg, bestCarbon.CarbonSavingsPercent,
		equiv["yearly_savings_kg"],
		bestCost.RegionName, bestCost.Country, bestCost.MonthlyCostUSD, bestCost.CostSavingsUSD,
		equiv["car_km_saved"], equiv["tree_months"])
}
