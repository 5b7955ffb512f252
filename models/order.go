package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// OrderStatus is the payment lifecycle of an order. Once an order leaves
// StatusPending it is terminal for payment purposes; admin accept/reject
// and shipping flags are an independent set.
type OrderStatus string

const (
	StatusPending   OrderStatus = "pending"
	StatusConfirmed OrderStatus = "confirmed"
	StatusCancelled OrderStatus = "cancelled"
	StatusFailed    OrderStatus = "failed"
)

// Terminal reports whether the payment lifecycle is finished.
func (s OrderStatus) Terminal() bool {
	return s == StatusConfirmed || s == StatusCancelled || s == StatusFailed
}

type PaymentStatus string

const (
	PaymentPending        PaymentStatus = "pending"
	PaymentCompleted      PaymentStatus = "completed"
	PaymentFailed         PaymentStatus = "failed"
	PaymentRefundRequired PaymentStatus = "refund_required"
)

type OrderItem struct {
	Product  primitive.ObjectID   `bson:"product" json:"product"`
	Name     string               `bson:"name" json:"name"`
	Quantity int                  `bson:"quantity" json:"quantity"`
	Price    float64              `bson:"price" json:"price"`
	Image    []primitive.ObjectID `bson:"image,omitempty" json:"image,omitempty"`
}

type GeoLocation struct {
	Lat             float64 `bson:"lat,omitempty" json:"lat,omitempty"`
	Lng             float64 `bson:"lng,omitempty" json:"lng,omitempty"`
	Address         string  `bson:"address,omitempty" json:"address,omitempty"`
	Name            string  `bson:"name,omitempty" json:"name,omitempty"`
	Vicinity        string  `bson:"vicinity,omitempty" json:"vicinity,omitempty"`
	GoogleAddressID string  `bson:"googleAddressId,omitempty" json:"googleAddressId,omitempty"`
}

type ShippingAddress struct {
	FullName   string       `bson:"fullName" json:"fullName"`
	Address    string       `bson:"address" json:"address"`
	City       string       `bson:"city" json:"city"`
	PostalCode string       `bson:"postalCode" json:"postalCode"`
	Country    string       `bson:"country" json:"country"`
	Location   *GeoLocation `bson:"location,omitempty" json:"location,omitempty"`
}

type ContactDetails struct {
	Email       string `bson:"email" json:"email"`
	PhoneNumber string `bson:"phoneNumber" json:"phoneNumber"`
	Address     string `bson:"address" json:"address"`
	PostalCode  string `bson:"postalCode" json:"postalCode"`
	Country     string `bson:"country" json:"country"`
	City        string `bson:"city" json:"city"`
	Age         string `bson:"age,omitempty" json:"age,omitempty"`
}

// PaymentResult mirrors what the gateway reports back for an order.
type PaymentResult struct {
	ID           string     `bson:"id,omitempty" json:"id,omitempty"`
	Status       string     `bson:"status,omitempty" json:"status,omitempty"`
	UpdateTime   *time.Time `bson:"update_time,omitempty" json:"update_time,omitempty"`
	EmailAddress string     `bson:"email_address,omitempty" json:"email_address,omitempty"`
}

type Order struct {
	ID              primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	OrderItems      []OrderItem         `bson:"orderItems" json:"orderItems"`
	ShippingAddress ShippingAddress     `bson:"shippingAddress" json:"shippingAddress"`
	ContactDetails  ContactDetails      `bson:"contactDetails" json:"contactDetails"`
	PaymentMethod   string              `bson:"paymentMethod,omitempty" json:"paymentMethod,omitempty"`
	PaymentResult   PaymentResult       `bson:"paymentResult,omitempty" json:"paymentResult,omitempty"`
	ItemsPrice      float64             `bson:"itemsPrice" json:"itemsPrice"`
	ShippingPrice   float64             `bson:"shippingPrice" json:"shippingPrice"`
	TotalPrice      float64             `bson:"totalPrice" json:"totalPrice"`
	User            *primitive.ObjectID `bson:"user,omitempty" json:"user,omitempty"`

	Status        OrderStatus   `bson:"status" json:"status"`
	PaymentStatus PaymentStatus `bson:"paymentStatus" json:"paymentStatus"`

	IsPaid           bool `bson:"isPaid" json:"isPaid"`
	IsRead           bool `bson:"isRead" json:"isRead"`
	IsCancelled      bool `bson:"isCancelled" json:"isCancelled"`
	IsOrderAccepted  bool `bson:"isOrderAccepted" json:"isOrderAccepted"`
	IsOrderRejected  bool `bson:"isOrderRejected" json:"isOrderRejected"`
	IsDispatched     bool `bson:"isDispatched" json:"isDispatched"`
	IsOutForDelivery bool `bson:"isOutForDelivery" json:"isOutForDelivery"`
	IsDelivered      bool `bson:"isDelivered" json:"isDelivered"`

	PaidAt      *time.Time `bson:"paidAt,omitempty" json:"paidAt,omitempty"`
	DeliveredAt *time.Time `bson:"deliveredAt,omitempty" json:"deliveredAt,omitempty"`
	CreatedAt   time.Time  `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time  `bson:"updatedAt" json:"updatedAt"`
}
