package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	RoleBuyer  = "buyer"
	RoleSeller = "seller"
	RoleDriver = "driver"
	RoleAdmin  = "admin"
)

// Address represents a saved address entry for a user.
type Address struct {
	ID        string   `bson:"id" json:"id"`
	Title     string   `bson:"title" json:"title"`
	Detail    string   `bson:"detail" json:"detail"`
	Note      string   `bson:"note,omitempty" json:"note,omitempty"`
	Lat       *float64 `bson:"lat,omitempty" json:"lat,omitempty"`
	Lng       *float64 `bson:"lng,omitempty" json:"lng,omitempty"`
	IsDefault bool     `bson:"isDefault" json:"isDefault"`
}

// User represents an application account. Role is one of buyer, seller,
// driver or admin and drives route-level authorization.
type User struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Email        string             `bson:"email" json:"email"`
	PasswordHash string             `bson:"passwordHash" json:"-"`
	Name         string             `bson:"name" json:"name"`
	Phone        string             `bson:"phone,omitempty" json:"phone,omitempty"`
	Role         string             `bson:"role" json:"role"`
	IsActive     bool               `bson:"isActive" json:"isActive"`
	Addresses    []Address          `bson:"addresses" json:"addresses"`
	CreatedAt    time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt    time.Time          `bson:"updatedAt" json:"updatedAt"`
}
