package tool

import (
	"context"
	"encoding/json"

	"github.com/seazone-ai/sia/internal/model"
	"github.com/seazone-ai/sia/internal/region"
)

// SubmitQualification defines the terminal tool. It is a pure
// transformation: the input is echoed into the record shape and the
// neighborhood focus is attached by exact (non-fuzzy) lookup. The protocol
// prompt owns completeness; only schema validation gates the call.
func SubmitQualification(catalog *region.Catalog) Definition {
	return Definition{
		Name:        NameSubmitQualification,
		Description: "Gera a saída estruturada da qualificação. Chame apenas quando TODOS os 5 dados estiverem coletados.",
		InputSchema: Schema{
			Type: "object",
			Properties: map[string]Property{
				"lead_qualified": {Type: "boolean", Description: "Se o lead está qualificado"},
				"owner_type":     {Type: "string", Description: "Quem oferece o terreno", Enum: []string{string(model.OwnerBroker), string(model.OwnerDirect)}},
				"bairro":         {Type: "string", Description: "Bairro validado do terreno"},
				"cidade":         {Type: "string", Description: "Cidade do terreno"},
				"land_size_m2":   {Type: "number", Description: "Tamanho do terreno em m²"},
				"asking_price":   {Type: "number", Description: "Valor pedido em R$"},
				"legal_status":   {Type: "string", Description: "Situação jurídica (ex: Escritura pública)"},
				"has_sea_view":   {Type: "boolean", Description: "Se o terreno tem vista para o mar"},
				"is_beachfront":  {Type: "boolean", Description: "Se o terreno é frente mar"},
				"next_step": {Type: "string", Description: "Próximo passo da qualificação", Enum: []string{
					string(model.NextStepScheduleMeeting),
					string(model.NextStepSendStudy),
					string(model.NextStepDisqualified),
				}},
			},
			Required: []string{
				"lead_qualified", "owner_type", "bairro", "cidade",
				"land_size_m2", "asking_price", "legal_status",
				"has_sea_view", "is_beachfront", "next_step",
			},
		},
		Execute: func(ctx context.Context, input json.RawMessage) (any, error) {
			var in model.QualificationInput
			if err := json.Unmarshal(input, &in); err != nil {
				return nil, err
			}

			record := model.QualificationRecord{
				LeadQualified: in.LeadQualified,
				OwnerType:     in.OwnerType,
				Location:      model.Location{Bairro: in.Bairro, Cidade: in.Cidade},
				LandSizeM2:    in.LandSizeM2,
				AskingPrice:   in.AskingPrice,
				LegalStatus:   in.LegalStatus,
				HasSeaView:    in.HasSeaView,
				IsBeachfront:  in.IsBeachfront,
				NextStep:      in.NextStep,
			}
			if r, ok := catalog.Lookup(in.Bairro); ok {
				record.NeighborhoodFocus = r.Focus
			}
			return record, nil
		},
	}
}
