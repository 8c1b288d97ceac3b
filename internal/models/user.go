package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	RoleCustomer = "customer"
	RoleOwner    = "owner"
	RoleCourier  = "courier"
)

// GeoPoint is a GeoJSON point. Coordinates are [longitude, latitude], the
// order Mongo's 2dsphere index expects.
type GeoPoint struct {
	Type        string    `bson:"type" json:"type"`
	Coordinates []float64 `bson:"coordinates" json:"coordinates"`
}

// NewGeoPoint builds a GeoJSON point from latitude/longitude.
func NewGeoPoint(lat, lon float64) GeoPoint {
	return GeoPoint{Type: "Point", Coordinates: []float64{lon, lat}}
}

// Latitude returns the point latitude, 0 for an unset point.
func (p GeoPoint) Latitude() float64 {
	if len(p.Coordinates) < 2 {
		return 0
	}
	return p.Coordinates[1]
}

// Longitude returns the point longitude, 0 for an unset point.
func (p GeoPoint) Longitude() float64 {
	if len(p.Coordinates) < 2 {
		return 0
	}
	return p.Coordinates[0]
}

// IsSet reports whether the point carries real coordinates.
func (p GeoPoint) IsSet() bool {
	return len(p.Coordinates) == 2
}

// User is the single account document for all three roles. Role is fixed at
// registration; location and isOnline only matter for couriers.
type User struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	FullName      string             `bson:"fullName" json:"fullName"`
	Email         string             `bson:"email" json:"email"`
	PasswordHash  string             `bson:"passwordHash" json:"-"`
	Mobile        string             `bson:"mobile" json:"mobile"`
	Role          string             `bson:"role" json:"role"`
	Location      GeoPoint           `bson:"location,omitempty" json:"location"`
	IsOnline      bool               `bson:"isOnline" json:"isOnline"`
	SocketID      string             `bson:"socketId,omitempty" json:"-"`
	ResetOtpHash  string             `bson:"resetOtpHash,omitempty" json:"-"`
	OtpExpires    *time.Time         `bson:"otpExpires,omitempty" json:"-"`
	IsOtpVerified bool               `bson:"isOtpVerified" json:"-"`
	CreatedAt     time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt     time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// ValidRole reports whether role is one of the closed role set.
func ValidRole(role string) bool {
	switch role {
	case RoleCustomer, RoleOwner, RoleCourier:
		return true
	}
	return false
}
