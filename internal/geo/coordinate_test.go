package geo

import "testing"

func TestCoordinateValid(t *testing.T) {
	cases := []struct {
		name  string
		coord Coordinate
		want  bool
	}{
		{"taipei", Coordinate{Latitude: 25.0330, Longitude: 121.5654}, true},
		{"south pole", Coordinate{Latitude: -90, Longitude: 10}, true},
		{"lat too high", Coordinate{Latitude: 90.0001, Longitude: 0}, false},
		{"lng too low", Coordinate{Latitude: 10, Longitude: -180.5}, false},
		{"null island", Coordinate{}, false},
	}
	for _, tc := range cases {
		if got := tc.coord.Valid(); got != tc.want {
			t.Fatalf("%s: Valid() = %v, want %v", tc.name, got, tc.want)
		}
	}
}
