package models

import (
	"testing"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestWasBroadcastedTo(t *testing.T) {
	courierA := primitive.NewObjectID()
	courierB := primitive.NewObjectID()

	assignment := DeliveryAssignment{
		BroadcastedTo: []primitive.ObjectID{courierA},
		Status:        AssignmentBroadcasted,
	}

	if !assignment.WasBroadcastedTo(courierA) {
		t.Fatal("expected courier A to be eligible")
	}
	if assignment.WasBroadcastedTo(courierB) {
		t.Fatal("expected courier B to be ineligible")
	}
}

func TestGeoPointRoundTrip(t *testing.T) {
	p := NewGeoPoint(28.6139, 77.2090)
	if p.Type != "Point" {
		t.Fatalf("expected GeoJSON Point type, got %q", p.Type)
	}
	if p.Latitude() != 28.6139 || p.Longitude() != 77.2090 {
		t.Fatalf("coordinate order mixed up: lat=%v lon=%v", p.Latitude(), p.Longitude())
	}
	if !p.IsSet() {
		t.Fatal("expected point to report set")
	}

	var empty GeoPoint
	if empty.IsSet() || empty.Latitude() != 0 || empty.Longitude() != 0 {
		t.Fatal("expected zero values for unset point")
	}
}
