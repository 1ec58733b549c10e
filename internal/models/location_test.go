package models

import "testing"

func TestCoordinate_Valid(t *testing.T) {
	tests := []struct {
		name     string
		c        Coordinate
		expected bool
	}{
		{"sao paulo", Coordinate{Lat: -23.55, Lng: -46.63}, true},
		{"origin", Coordinate{}, true},
		{"poles and antimeridian", Coordinate{Lat: 90, Lng: -180}, true},
		{"latitude too high", Coordinate{Lat: 91, Lng: 0}, false},
		{"longitude too low", Coordinate{Lat: 0, Lng: -180.5}, false},
		{"swapped pair", Coordinate{Lat: -146.6, Lng: -23.5}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.c.Valid(); got != tt.expected {
				t.Errorf("%+v.Valid() = %v, want %v", tt.c, got, tt.expected)
			}
		})
	}
}

func TestServiceEnums(t *testing.T) {
	if !IsValidServiceType(ServicePickup) || IsValidServiceType("teleport") {
		t.Error("IsValidServiceType accepted or rejected the wrong value")
	}
	if !IsValidOrderStatus(OrderCompleted) || IsValidOrderStatus("lost") {
		t.Error("IsValidOrderStatus accepted or rejected the wrong value")
	}
}
