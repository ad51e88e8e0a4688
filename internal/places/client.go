// Package places proxies the Google Places API so the browser never sees
// the key, and turns picked addresses into the chat selection message.
package places

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"

	"github.com/seazone-ai/sia/pkg/logger"
)

// ErrNotConfigured is returned at construction when no API key is set.
var ErrNotConfigured = errors.New("places: GOOGLE_PLACES_API_KEY not configured")

const defaultBaseURL = "https://maps.googleapis.com/maps/api/place"

// Florianópolis bias applied to every autocomplete request.
const (
	biasLocation = "-27.5954,-48.548"
	biasRadius   = "50000"
)

// Suggestion is one autocomplete candidate.
type Suggestion struct {
	PlaceID       string `json:"place_id"`
	MainText      string `json:"main_text"`
	SecondaryText string `json:"secondary_text"`
	FullText      string `json:"full_text"`
}

// LatLng is a geographic coordinate.
type LatLng struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Details is the structured address extracted from place details.
type Details struct {
	DisplayName      string  `json:"display_name"`
	FormattedAddress string  `json:"formatted_address"`
	Neighborhood     string  `json:"neighborhood"`
	City             string  `json:"city"`
	State            string  `json:"state"`
	Location         *LatLng `json:"location,omitempty"`
}

// Client calls the legacy Places endpoints with pt-BR language and a
// country:br restriction, matching how the product searches addresses.
type Client struct {
	apiKey  string
	baseURL string
	http    *http.Client
	logger  *logger.Logger
}

// NewClient builds a places client. Fails fast when the key is missing
// so a misconfigured deployment is caught at startup, not on first use.
func NewClient(apiKey string, log *logger.Logger) (*Client, error) {
	if apiKey == "" {
		return nil, ErrNotConfigured
	}
	return &Client{
		apiKey:  apiKey,
		baseURL: defaultBaseURL,
		http:    &http.Client{Timeout: 10 * time.Second},
		logger:  log,
	}, nil
}

// Suggest returns autocomplete candidates for a partial address. Short
// queries and provider failures both yield an empty list; autocomplete
// is assistive, so the caller never sees an error from it.
func (c *Client) Suggest(ctx context.Context, query string) []Suggestion {
	if len([]rune(query)) < 2 {
		return []Suggestion{}
	}

	params := url.Values{
		"input":      {query},
		"key":        {c.apiKey},
		"language":   {"pt-BR"},
		"components": {"country:br"},
		"types":      {"geocode"},
		"location":   {biasLocation},
		"radius":     {biasRadius},
	}

	var payload struct {
		Status       string `json:"status"`
		ErrorMessage string `json:"error_message"`
		Predictions  []struct {
			PlaceID              string `json:"place_id"`
			Description          string `json:"description"`
			StructuredFormatting struct {
				MainText      string `json:"main_text"`
				SecondaryText string `json:"secondary_text"`
			} `json:"structured_formatting"`
		} `json:"predictions"`
	}
	if err := c.get(ctx, "/autocomplete/json", params, &payload); err != nil {
		c.logger.Warn("places autocomplete failed", zap.Error(err))
		return []Suggestion{}
	}
	if payload.Status != "OK" && payload.Status != "ZERO_RESULTS" {
		c.logger.Warn("places autocomplete rejected",
			zap.String("status", payload.Status),
			zap.String("error_message", payload.ErrorMessage),
		)
		return []Suggestion{}
	}

	out := make([]Suggestion, 0, len(payload.Predictions))
	for _, p := range payload.Predictions {
		main := p.StructuredFormatting.MainText
		if main == "" {
			main = p.Description
		}
		out = append(out, Suggestion{
			PlaceID:       p.PlaceID,
			MainText:      main,
			SecondaryText: p.StructuredFormatting.SecondaryText,
			FullText:      p.Description,
		})
	}
	return out
}

// Details fetches a place and extracts bairro, cidade and estado from
// its address components. Sublocality beats the generic neighborhood
// type only by ordering; the last matching component wins, as the
// original extraction did.
func (c *Client) Details(ctx context.Context, placeID string) (*Details, error) {
	params := url.Values{
		"place_id": {placeID},
		"key":      {c.apiKey},
		"language": {"pt-BR"},
		"fields":   {"name,formatted_address,address_components,geometry"},
	}

	var payload struct {
		Status       string `json:"status"`
		ErrorMessage string `json:"error_message"`
		Result       struct {
			Name              string `json:"name"`
			FormattedAddress  string `json:"formatted_address"`
			AddressComponents []struct {
				LongName  string   `json:"long_name"`
				ShortName string   `json:"short_name"`
				Types     []string `json:"types"`
			} `json:"address_components"`
			Geometry struct {
				Location *LatLng `json:"location"`
			} `json:"geometry"`
		} `json:"result"`
	}
	if err := c.get(ctx, "/details/json", params, &payload); err != nil {
		return nil, fmt.Errorf("place details: %w", err)
	}
	if payload.Status != "OK" {
		return nil, fmt.Errorf("place details: status %s: %s", payload.Status, payload.ErrorMessage)
	}

	d := &Details{
		DisplayName:      payload.Result.Name,
		FormattedAddress: payload.Result.FormattedAddress,
		Location:         payload.Result.Geometry.Location,
	}
	for _, comp := range payload.Result.AddressComponents {
		name := comp.LongName
		if name == "" {
			name = comp.ShortName
		}
		for _, t := range comp.Types {
			switch t {
			case "sublocality_level_1", "sublocality", "neighborhood":
				d.Neighborhood = name
			case "administrative_area_level_2", "locality":
				d.City = name
			case "administrative_area_level_1":
				d.State = comp.ShortName
			}
		}
	}
	return d, nil
}

func (c *Client) get(ctx context.Context, path string, params url.Values, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+params.Encode(), nil)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
