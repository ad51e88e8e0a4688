package places

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seazone-ai/sia/pkg/logger"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c, err := NewClient("test-key", logger.NewNop())
	require.NoError(t, err)
	c.baseURL = srv.URL
	return c
}

func TestNewClientRequiresKey(t *testing.T) {
	_, err := NewClient("", logger.NewNop())
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestSuggest(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/autocomplete/json", r.URL.Path)
		q := r.URL.Query()
		assert.Equal(t, "campeche", q.Get("input"))
		assert.Equal(t, "pt-BR", q.Get("language"))
		assert.Equal(t, "country:br", q.Get("components"))

		w.Write([]byte(`{
			"status": "OK",
			"predictions": [
				{
					"place_id": "ChIJ123",
					"description": "Campeche, Florianópolis - SC, Brasil",
					"structured_formatting": {
						"main_text": "Campeche",
						"secondary_text": "Florianópolis - SC, Brasil"
					}
				}
			]
		}`))
	})

	got := c.Suggest(context.Background(), "campeche")
	require.Len(t, got, 1)
	assert.Equal(t, "ChIJ123", got[0].PlaceID)
	assert.Equal(t, "Campeche", got[0].MainText)
	assert.Equal(t, "Florianópolis - SC, Brasil", got[0].SecondaryText)
	assert.Equal(t, "Campeche, Florianópolis - SC, Brasil", got[0].FullText)
}

func TestSuggestShortQuery(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("short queries must not reach the provider")
	})

	assert.Empty(t, c.Suggest(context.Background(), "c"))
	assert.Empty(t, c.Suggest(context.Background(), ""))
}

func TestSuggestProviderErrorYieldsEmpty(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	assert.Empty(t, c.Suggest(context.Background(), "campeche"))

	c = newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":"REQUEST_DENIED","error_message":"key invalid"}`))
	})
	assert.Empty(t, c.Suggest(context.Background(), "campeche"))
}

func TestSuggestZeroResults(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":"ZERO_RESULTS","predictions":[]}`))
	})
	assert.Empty(t, c.Suggest(context.Background(), "xyzw"))
}

func TestDetails(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/details/json", r.URL.Path)
		assert.Equal(t, "ChIJ123", r.URL.Query().Get("place_id"))

		w.Write([]byte(`{
			"status": "OK",
			"result": {
				"name": "Avenida Pequeno Príncipe",
				"formatted_address": "Av. Pequeno Príncipe - Campeche, Florianópolis - SC, Brasil",
				"address_components": [
					{"long_name": "Campeche", "short_name": "Campeche", "types": ["sublocality_level_1", "sublocality"]},
					{"long_name": "Florianópolis", "short_name": "Florianópolis", "types": ["administrative_area_level_2"]},
					{"long_name": "Santa Catarina", "short_name": "SC", "types": ["administrative_area_level_1"]}
				],
				"geometry": {"location": {"lat": -27.6786, "lng": -48.4816}}
			}
		}`))
	})

	d, err := c.Details(context.Background(), "ChIJ123")
	require.NoError(t, err)
	assert.Equal(t, "Avenida Pequeno Príncipe", d.DisplayName)
	assert.Equal(t, "Campeche", d.Neighborhood)
	assert.Equal(t, "Florianópolis", d.City)
	assert.Equal(t, "SC", d.State)
	require.NotNil(t, d.Location)
	assert.InDelta(t, -27.6786, d.Location.Lat, 1e-9)
}

func TestDetailsError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":"NOT_FOUND","error_message":"no such place"}`))
	})

	_, err := c.Details(context.Background(), "ChIJmissing")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "NOT_FOUND")
}
