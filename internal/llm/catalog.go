package llm

import "github.com/seazone-ai/sia/internal/model"

// Defaults for new sessions.
const (
	DefaultModel       = "gpt-4.1"
	DefaultTemperature = 0.4
)

// ModelInfo describes one selectable model.
type ModelInfo struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Provider string `json:"provider"`
}

// AvailableModels is the static model catalog.
var AvailableModels = []ModelInfo{
	{ID: "gpt-4.1", Name: "GPT-4.1", Provider: "OpenAI"},
	{ID: "gpt-5.2", Name: "GPT-5.2", Provider: "OpenAI"},
	{ID: "gemini-3-flash-preview", Name: "Gemini 3 Flash", Provider: "Google"},
}

// Pricing is USD per 1 million tokens. Cached is nil when the provider
// publishes no cached-input rate.
type Pricing struct {
	Input  float64  `json:"input"`
	Cached *float64 `json:"cached"`
	Output float64  `json:"output"`
}

func ptr(f float64) *float64 { return &f }

var modelPricing = map[string]Pricing{
	"gpt-4.1":                {Input: 2.00, Cached: ptr(0.50), Output: 8.00},
	"gpt-5.2":                {Input: 1.75, Cached: ptr(0.175), Output: 14.00},
	"gemini-3-flash-preview": {Input: 0.50, Cached: nil, Output: 3.00},
}

// PricingFor returns the pricing table entry for a model id.
func PricingFor(modelID string) (Pricing, bool) {
	p, ok := modelPricing[modelID]
	return p, ok
}

// CostEstimate is the dollar cost derived from accumulated usage.
type CostEstimate struct {
	InputCost  float64 `json:"input_cost"`
	OutputCost float64 `json:"output_cost"`
	TotalCost  float64 `json:"total_cost"`
}

// EstimateCost derives the cost of the accumulated usage under the given
// model's pricing. Unknown models or zero usage estimate to zero.
func EstimateCost(usage model.TokenUsage, modelID string) CostEstimate {
	pricing, ok := modelPricing[modelID]
	if !ok || usage.Total == 0 {
		return CostEstimate{}
	}
	in := float64(usage.Prompt) / 1_000_000 * pricing.Input
	out := float64(usage.Completion) / 1_000_000 * pricing.Output
	return CostEstimate{
		InputCost:  in,
		OutputCost: out,
		TotalCost:  in + out,
	}
}
