package region

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Jurerê Internacional", "jurere internacional"},
		{"  Itacorubí  ", "itacorubi"},
		{"CAMPECHE", "campeche"},
		{"São Paulo", "sao paulo"},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Normalize(tt.in), "input %q", tt.in)
	}
}

func TestMatchExactCanonical(t *testing.T) {
	c := DefaultCatalog()

	r, ok := c.Match("centro")
	require.True(t, ok)
	assert.Equal(t, "centro", r.Key)

	r, ok = c.Match("Jurerê Internacional")
	require.True(t, ok)
	assert.Equal(t, "jurerê internacional", r.Key)
}

func TestMatchAlias(t *testing.T) {
	c := DefaultCatalog()

	// "jurere" alone resolves through the alias list, not a substring scan
	r, ok := c.Match("Jurere")
	require.True(t, ok)
	assert.Equal(t, "jurerê internacional", r.Key)

	r, ok = c.Match("Praia do Campeche")
	require.True(t, ok)
	assert.Equal(t, "campeche", r.Key)
}

func TestMatchSubstring(t *testing.T) {
	c := DefaultCatalog()

	// embellished input contains a canonical key
	r, ok := c.Match("bairro Itacorubi, perto da UDESC")
	require.True(t, ok)
	assert.Equal(t, "itacorubi", r.Key)

	// truncated input contained by a canonical key
	r, ok = c.Match("internacional")
	require.True(t, ok)
	assert.Equal(t, "jurerê internacional", r.Key)
}

func TestMatchMiss(t *testing.T) {
	c := DefaultCatalog()

	for _, input := range []string{"Rio Tavares", "Lagoa da Conceição", "Trindade", ""} {
		_, ok := c.Match(input)
		assert.False(t, ok, "input %q should not match", input)
	}
}

func TestRecognizedCity(t *testing.T) {
	c := DefaultCatalog()

	for _, city := range []string{"Florianópolis", "florianopolis", "Floripa", "Florianópolis - SC", "Florianópolis/SC"} {
		assert.True(t, c.RecognizedCity(city), "city %q", city)
	}
	for _, city := range []string{"São Paulo", "Palhoça", "São José", ""} {
		assert.False(t, c.RecognizedCity(city), "city %q", city)
	}
}

func TestLookupExactOnly(t *testing.T) {
	c := DefaultCatalog()

	r, ok := c.Lookup("campeche")
	require.True(t, ok)
	assert.Equal(t, "Rentabilidade de curto prazo / Airbnb", r.Focus)

	// Lookup does not fall back to substring matching
	_, ok = c.Lookup("praia campeche área nobre")
	assert.False(t, ok)
}

func TestCatalogContents(t *testing.T) {
	c := DefaultCatalog()

	records := c.Records()
	require.Len(t, records, 4)

	focus := make(map[string]string, len(records))
	for _, r := range records {
		focus[r.Key] = r.Focus
	}
	assert.Equal(t, "Studios e Comercial", focus["centro"])
	assert.Equal(t, "Público universitário e tech", focus["itacorubi"])
	assert.Equal(t, "Rentabilidade de curto prazo / Airbnb", focus["campeche"])
	assert.Equal(t, "Luxo e alto padrão", focus["jurerê internacional"])

	assert.Equal(t, "http://google.com/maps/place/florianopolis", c.FallbackLink())
}
