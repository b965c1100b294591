package places

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"whatevereat/internal/geo"
)

const (
	defaultGoogleBaseURL = "https://places.googleapis.com"
	searchNearbyPath     = "/v1/places:searchNearby"

	// Only the fields the venue model needs; the Places API bills and
	// filters by field mask.
	searchFieldMask = "places.id,places.displayName,places.formattedAddress,places.location," +
		"places.rating,places.priceLevel,places.types,places.googleMapsUri,places.regularOpeningHours"
)

// GoogleResolver queries the Google Places API (New) searchNearby endpoint
// for restaurants around a coordinate.
type GoogleResolver struct {
	apiKey   string
	language string
	baseURL  string
	client   *http.Client
}

func NewGoogleResolver(apiKey, language string) *GoogleResolver {
	if strings.TrimSpace(language) == "" {
		language = "zh-TW"
	}
	return &GoogleResolver{
		apiKey:   strings.TrimSpace(apiKey),
		language: language,
		baseURL:  defaultGoogleBaseURL,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// SetBaseURL points the resolver at a different endpoint. Tests use this
// with httptest servers.
func (r *GoogleResolver) SetBaseURL(url string) {
	r.baseURL = strings.TrimRight(url, "/")
}

type searchNearbyRequest struct {
	IncludedTypes       []string            `json:"includedTypes"`
	MaxResultCount      int                 `json:"maxResultCount"`
	LanguageCode        string              `json:"languageCode"`
	LocationRestriction locationRestriction `json:"locationRestriction"`
}

type locationRestriction struct {
	Circle circle `json:"circle"`
}

type circle struct {
	Center latLng  `json:"center"`
	Radius float64 `json:"radius"`
}

type latLng struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

type searchNearbyResponse struct {
	Places []googlePlace `json:"places"`
}

type googlePlace struct {
	ID               string        `json:"id"`
	DisplayName      localizedText `json:"displayName"`
	FormattedAddress string        `json:"formattedAddress"`
	Rating           float64       `json:"rating"`
	PriceLevel       string        `json:"priceLevel"`
	Types            []string      `json:"types"`
	GoogleMapsURI    string        `json:"googleMapsUri"`
	RegularHours     *openingHours `json:"regularOpeningHours"`
}

type localizedText struct {
	Text string `json:"text"`
}

type openingHours struct {
	OpenNow             *bool    `json:"openNow"`
	WeekdayDescriptions []string `json:"weekdayDescriptions"`
}

func (r *GoogleResolver) Nearby(ctx context.Context, coord geo.Coordinate, radiusMeters int) ([]Venue, error) {
	if radiusMeters <= 0 {
		radiusMeters = 500
	}
	payload, err := json.Marshal(searchNearbyRequest{
		IncludedTypes:  []string{"restaurant"},
		MaxResultCount: 20,
		LanguageCode:   r.language,
		LocationRestriction: locationRestriction{
			Circle: circle{
				Center: latLng{Latitude: coord.Latitude, Longitude: coord.Longitude},
				Radius: float64(radiusMeters),
			},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, r.baseURL+searchNearbyPath, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("X-Goog-Api-Key", r.apiKey)
	httpReq.Header.Set("X-Goog-FieldMask", searchFieldMask)

	res, err := r.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(res.Body, 4<<10))
		return nil, fmt.Errorf("places http status %d: %s", res.StatusCode, string(body))
	}

	var parsed searchNearbyResponse
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	venues := make([]Venue, 0, len(parsed.Places))
	for _, p := range parsed.Places {
		if p.ID == "" {
			continue
		}
		venues = append(venues, toVenue(p))
	}
	return venues, nil
}

func toVenue(p googlePlace) Venue {
	v := Venue{
		ID:         p.ID,
		Name:       p.DisplayName.Text,
		Rating:     p.Rating,
		Address:    p.FormattedAddress,
		PriceTier:  priceTier(p.PriceLevel),
		Categories: p.Types,
		MapsURL:    p.GoogleMapsURI,
		Open:       OpenStateUnknown,
	}
	if p.RegularHours != nil {
		v.Hours = p.RegularHours.WeekdayDescriptions
		if p.RegularHours.OpenNow != nil {
			if *p.RegularHours.OpenNow {
				v.Open = OpenStateOpen
			} else {
				v.Open = OpenStateClosed
			}
		}
	}
	return v
}

func priceTier(level string) int {
	switch level {
	case "PRICE_LEVEL_FREE":
		return 0
	case "PRICE_LEVEL_INEXPENSIVE":
		return 1
	case "PRICE_LEVEL_MODERATE":
		return 2
	case "PRICE_LEVEL_EXPENSIVE":
		return 3
	case "PRICE_LEVEL_VERY_EXPENSIVE":
		return 4
	default:
		return PriceTierUnknown
	}
}
