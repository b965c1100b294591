package places

import (
	"context"

	"whatevereat/internal/geo"
)

// MockResolver serves a fixed venue list for local development and tests,
// so the bot can run end to end without a Places API key.
type MockResolver struct {
	venues []Venue
}

func NewMockResolver() *MockResolver {
	return &MockResolver{venues: fixtureVenues()}
}

// NewMockResolverWithVenues serves the given venues instead of the fixture.
func NewMockResolverWithVenues(venues []Venue) *MockResolver {
	return &MockResolver{venues: venues}
}

func (r *MockResolver) Nearby(ctx context.Context, _ geo.Coordinate, _ int) ([]Venue, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}
	out := make([]Venue, len(r.venues))
	copy(out, r.venues)
	return out, nil
}

func fixtureVenues() []Venue {
	return []Venue{
		{ID: "mock-1", Name: "阿姨牛肉麵", Rating: 4.5, Address: "信義路五段12號", PriceTier: 1, Categories: []string{"restaurant", "noodle_shop"}, Open: OpenStateOpen},
		{ID: "mock-2", Name: "小林鐵板燒", Rating: 4.2, Address: "松仁路28號", PriceTier: 2, Categories: []string{"restaurant", "teppanyaki"}, Open: OpenStateOpen},
		{ID: "mock-3", Name: "泰味廚房", Rating: 4.0, Address: "市府路45號", PriceTier: 2, Categories: []string{"restaurant", "thai_restaurant"}, Open: OpenStateClosed},
		{ID: "mock-4", Name: "山本壽司", Rating: 4.7, Address: "松壽路3號", PriceTier: 3, Categories: []string{"restaurant", "sushi_restaurant"}, Open: OpenStateOpen},
		{ID: "mock-5", Name: "老王滷肉飯", Rating: 4.1, Address: "吳興街152號", PriceTier: 0, Categories: []string{"restaurant"}, Open: OpenStateUnknown},
		{ID: "mock-6", Name: "綠洲蔬食", Rating: 4.3, Address: "基隆路二段89號", PriceTier: 2, Categories: []string{"restaurant", "vegetarian_restaurant"}, Open: OpenStateOpen},
		{ID: "mock-7", Name: "海港海鮮粥", Rating: 3.9, Address: "莊敬路391號", PriceTier: 1, Categories: []string{"restaurant", "seafood_restaurant"}, Open: OpenStateClosed},
		{ID: "mock-8", Name: "花園咖哩", Rating: 4.4, Address: "虎林街120巷2號", PriceTier: 1, Categories: []string{"restaurant", "indian_restaurant"}, Open: OpenStateOpen},
	}
}
