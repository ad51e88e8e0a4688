package tool

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/seazone-ai/sia/internal/region"
)

// Tool names.
const (
	NameRequestLocation     = "requestLocation"
	NameValidateLocation    = "validateLocation"
	NameSubmitQualification = "submitQualification"
)

// LocationRequest is the output of requestLocation. It carries no real
// computation; it signals that the assisted address picker should be shown.
type LocationRequest struct {
	Type    string `json:"type"`
	Status  string `json:"status"`
	Message string `json:"message"`
}

// AllowedNeighborhood is one entry of the allow-list echoed on rejections.
type AllowedNeighborhood struct {
	Bairro string `json:"bairro"`
	Foco   string `json:"foco"`
}

// ValidationResult is the output of validateLocation, the sole authority
// for geographic eligibility.
type ValidationResult struct {
	Allowed              bool                  `json:"allowed"`
	Bairro               string                `json:"bairro"`
	BairroOriginal       string                `json:"bairro_original,omitempty"`
	Cidade               string                `json:"cidade"`
	Focus                string                `json:"focus,omitempty"`
	Description          string                `json:"description,omitempty"`
	Reason               string                `json:"reason,omitempty"`
	AllowedNeighborhoods []AllowedNeighborhood `json:"allowed_neighborhoods,omitempty"`
	FallbackLink         string                `json:"fallback_link,omitempty"`
	Message              string                `json:"message"`
}

const rejectionGuidance = "Decline educadamente e informe as regiões onde a Seazone atua. Forneça o link de fallback. NÃO continue a qualificação."

// RequestLocation defines the UI-trigger tool that asks the user to pick
// an address through the assisted search.
func RequestLocation() Definition {
	return Definition{
		Name:        NameRequestLocation,
		Description: "Exibe o buscador de endereço integrado na conversa para o usuário pesquisar e selecionar a localização exata do terreno.",
		InputSchema: Schema{
			Type: "object",
			Properties: map[string]Property{
				"message": {Type: "string", Description: "Instrução curta exibida junto ao buscador de endereço"},
			},
			Required: []string{"message"},
		},
		Execute: func(ctx context.Context, input json.RawMessage) (any, error) {
			var in struct {
				Message string `json:"message"`
			}
			if err := json.Unmarshal(input, &in); err != nil {
				return nil, err
			}
			return LocationRequest{
				Type:    "location_request",
				Status:  "awaiting_selection",
				Message: in.Message,
			}, nil
		},
	}
}

// ValidateLocation defines the guardrail tool: the city gate runs first,
// then the neighborhood matcher. The model must never decide eligibility
// itself.
func ValidateLocation(catalog *region.Catalog) Definition {
	return Definition{
		Name:        NameValidateLocation,
		Description: "Valida se o bairro e a cidade informados estão dentro das áreas de interesse da Seazone. OBRIGATÓRIO antes de prosseguir com a qualificação.",
		InputSchema: Schema{
			Type: "object",
			Properties: map[string]Property{
				"bairro": {Type: "string", Description: "Bairro do terreno"},
				"cidade": {Type: "string", Description: "Cidade do terreno"},
			},
			Required: []string{"bairro", "cidade"},
		},
		Execute: func(ctx context.Context, input json.RawMessage) (any, error) {
			var in struct {
				Bairro string `json:"bairro"`
				Cidade string `json:"cidade"`
			}
			if err := json.Unmarshal(input, &in); err != nil {
				return nil, err
			}

			if !catalog.RecognizedCity(in.Cidade) {
				out := rejection(catalog, in.Bairro, in.Cidade)
				out.Reason = fmt.Sprintf("A Seazone atua apenas em Florianópolis no momento. %q está fora da área de atuação.", in.Cidade)
				return out, nil
			}

			record, ok := catalog.Match(in.Bairro)
			if !ok {
				out := rejection(catalog, in.Bairro, in.Cidade)
				out.Reason = fmt.Sprintf("O bairro %q não está na lista de áreas de interesse da Seazone em Florianópolis.", in.Bairro)
				return out, nil
			}

			return ValidationResult{
				Allowed:        true,
				Bairro:         record.Key,
				BairroOriginal: in.Bairro,
				Cidade:         in.Cidade,
				Focus:          record.Focus,
				Description:    record.Description,
				Message:        fmt.Sprintf("Bairro %q aprovado! Foco: %s. Continue a qualificação.", record.Key, record.Focus),
			}, nil
		},
	}
}

func rejection(catalog *region.Catalog, bairro, cidade string) ValidationResult {
	records := catalog.Records()
	allowed := make([]AllowedNeighborhood, 0, len(records))
	for _, r := range records {
		allowed = append(allowed, AllowedNeighborhood{Bairro: r.Key, Foco: r.Focus})
	}
	return ValidationResult{
		Allowed:              false,
		Bairro:               bairro,
		Cidade:               cidade,
		AllowedNeighborhoods: allowed,
		FallbackLink:         catalog.FallbackLink(),
		Message:              rejectionGuidance,
	}
}
