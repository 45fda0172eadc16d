package entities

import (
	"errors"
	"time"
)

type ShipmentStatus string

const (
	ShipmentPending   ShipmentStatus = "pending"
	ShipmentPreparing ShipmentStatus = "preparing"
	ShipmentShipped   ShipmentStatus = "shipped"
	ShipmentDelivered ShipmentStatus = "delivered"
	ShipmentReturned  ShipmentStatus = "returned"
)

func (s ShipmentStatus) Valid() bool {
	switch s {
	case ShipmentPending, ShipmentPreparing, ShipmentShipped, ShipmentDelivered, ShipmentReturned:
		return true
	}
	return false
}

// Fulfillment moves forward through preparing/shipped/delivered;
// returned branches off shipped or delivered.
var shipmentTransitions = map[ShipmentStatus]map[ShipmentStatus]bool{
	ShipmentPending:   {ShipmentPreparing: true},
	ShipmentPreparing: {ShipmentShipped: true},
	ShipmentShipped:   {ShipmentDelivered: true, ShipmentReturned: true},
	ShipmentDelivered: {ShipmentReturned: true},
	ShipmentReturned:  {},
}

func CanTransitionShipment(from, to ShipmentStatus) bool {
	return shipmentTransitions[from][to]
}

// Shipment is the 1:1 fulfillment record of an order, independent of the
// order's payment status. ShippedAt/DeliveredAt are stamped once, on
// entering the matching status.
type Shipment struct {
	ID              int64
	OrderID         int64
	RecipientName   string
	RecipientPhone  string
	Address         string
	AddressDetail   string
	PostalCode      string
	Status          ShipmentStatus
	TrackingNumber  string
	ShippingCompany string
	ShippedAt       time.Time
	DeliveredAt     time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

var (
	ErrShipmentNotFound          = errors.New("shipment not found")
	ErrIncompleteShipment        = errors.New("recipient name, phone, address and postal code are required")
	ErrInvalidShipmentTransition = errors.New("invalid shipment status transition")
)
