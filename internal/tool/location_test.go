package tool

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seazone-ai/sia/internal/region"
)

func execute(t *testing.T, def Definition, input string) json.RawMessage {
	t.Helper()
	require.NoError(t, def.InputSchema.Validate(def.Name, json.RawMessage(input)))
	out, err := def.Execute(context.Background(), json.RawMessage(input))
	require.NoError(t, err)
	data, err := json.Marshal(out)
	require.NoError(t, err)
	return data
}

func TestRequestLocation(t *testing.T) {
	def := RequestLocation()

	data := execute(t, def, `{"message":"Pesquise o endereço do terreno"}`)

	var out LocationRequest
	require.NoError(t, json.Unmarshal(data, &out))
	assert.Equal(t, "location_request", out.Type)
	assert.Equal(t, "awaiting_selection", out.Status)
	assert.Equal(t, "Pesquise o endereço do terreno", out.Message)
}

func TestValidateLocationApproved(t *testing.T) {
	def := ValidateLocation(region.DefaultCatalog())

	data := execute(t, def, `{"bairro":"jurere internacional","cidade":"Florianópolis"}`)

	var out ValidationResult
	require.NoError(t, json.Unmarshal(data, &out))
	assert.True(t, out.Allowed)
	assert.Equal(t, "jurerê internacional", out.Bairro)
	assert.Equal(t, "jurere internacional", out.BairroOriginal)
	assert.Equal(t, "Luxo e alto padrão", out.Focus)
	assert.Contains(t, out.Message, "aprovado")
	assert.Empty(t, out.FallbackLink)
}

func TestValidateLocationWrongCity(t *testing.T) {
	def := ValidateLocation(region.DefaultCatalog())

	// an allowed neighborhood name in a non-covered city must still fail
	data := execute(t, def, `{"bairro":"Centro","cidade":"São Paulo"}`)

	var out ValidationResult
	require.NoError(t, json.Unmarshal(data, &out))
	assert.False(t, out.Allowed)
	assert.Contains(t, out.Reason, "São Paulo")
	assert.Equal(t, "http://google.com/maps/place/florianopolis", out.FallbackLink)
	assert.Len(t, out.AllowedNeighborhoods, 4)
	assert.Contains(t, out.Message, "NÃO continue")
}

func TestValidateLocationUnknownNeighborhood(t *testing.T) {
	def := ValidateLocation(region.DefaultCatalog())

	data := execute(t, def, `{"bairro":"Rio Tavares","cidade":"Florianópolis"}`)

	var out ValidationResult
	require.NoError(t, json.Unmarshal(data, &out))
	assert.False(t, out.Allowed)
	assert.Contains(t, out.Reason, "Rio Tavares")
	assert.Equal(t, "http://google.com/maps/place/florianopolis", out.FallbackLink)
}

func TestValidateLocationFuzzyInput(t *testing.T) {
	def := ValidateLocation(region.DefaultCatalog())

	data := execute(t, def, `{"bairro":"Praia do Campeche","cidade":"Floripa"}`)

	var out ValidationResult
	require.NoError(t, json.Unmarshal(data, &out))
	assert.True(t, out.Allowed)
	assert.Equal(t, "campeche", out.Bairro)
	assert.Equal(t, "Rentabilidade de curto prazo / Airbnb", out.Focus)
}
