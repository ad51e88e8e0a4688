package session

import (
	"encoding/json"

	"github.com/seazone-ai/sia/internal/llm"
	"github.com/seazone-ai/sia/internal/model"
	"github.com/seazone-ai/sia/internal/tool"
)

// Aggregates is the state derived from a history: cumulative usage and
// cost, plus the latest guardrail tool outcomes. It is always recomputed
// from scratch, never patched incrementally, so edits and deletions can
// never leave it stale.
type Aggregates struct {
	Usage model.TokenUsage `json:"usage"`
	Cost  llm.CostEstimate `json:"cost"`

	// LocationValidation is the raw output of the most recent completed
	// validateLocation call, if any.
	LocationValidation json.RawMessage `json:"location_validation,omitempty"`

	// Qualification is the record from the most recent completed
	// submitQualification call, if any.
	Qualification *model.QualificationRecord `json:"qualification,omitempty"`
}

// Reduce derives aggregates from a full history. Usage sums every
// assistant message's recorded usage; tool outcomes take the newest
// completed invocation, scanning backwards so later turns win.
func Reduce(messages []*model.Message, modelID string) Aggregates {
	var agg Aggregates

	for _, m := range messages {
		if m.Usage != nil {
			agg.Usage.Add(*m.Usage)
		}
	}
	agg.Cost = llm.EstimateCost(agg.Usage, modelID)

	for i := len(messages) - 1; i >= 0; i-- {
		m := messages[i]
		if m.Role != model.RoleAssistant {
			continue
		}
		for j := len(m.Parts) - 1; j >= 0; j-- {
			p := m.Parts[j]
			if p.Type != model.PartToolInvocation || p.State != model.InvocationDone {
				continue
			}
			switch p.ToolName {
			case tool.NameValidateLocation:
				if agg.LocationValidation == nil {
					agg.LocationValidation = p.Output
				}
			case tool.NameSubmitQualification:
				if agg.Qualification == nil {
					var rec model.QualificationRecord
					if err := json.Unmarshal(p.Output, &rec); err == nil {
						agg.Qualification = &rec
					}
				}
			}
		}
		if agg.LocationValidation != nil && agg.Qualification != nil {
			break
		}
	}

	return agg
}
