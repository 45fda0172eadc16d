package entities

import (
	"errors"
	"math"
	"time"
)

type DropStatus string

const (
	DropUpcoming DropStatus = "upcoming"
	DropActive   DropStatus = "active"
	DropEnded    DropStatus = "ended"
)

func (s DropStatus) Valid() bool {
	switch s {
	case DropUpcoming, DropActive, DropEnded:
		return true
	}
	return false
}

// Drop is a time-boxed sales event. Status only ever moves forward
// (upcoming -> active -> ended); the scheduler advances it, an admin
// update may override it.
type Drop struct {
	ID          int64
	Name        string
	Description string
	StartDate   time.Time
	EndDate     time.Time
	Status      DropStatus
	BannerURL   string
	IsPinned    bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// NextStatus reports the single forward transition due at now, if any.
// An upcoming drop whose whole window already elapsed never activates;
// it stays upcoming until an admin touches it.
func (d Drop) NextStatus(now time.Time) (DropStatus, bool) {
	switch d.Status {
	case DropUpcoming:
		if !d.StartDate.After(now) && d.EndDate.After(now) {
			return DropActive, true
		}
	case DropActive:
		if !d.EndDate.After(now) {
			return DropEnded, true
		}
	}
	return d.Status, false
}

// DropPatch is a partial drop update; nil fields are left untouched.
// Date ordering is deliberately not re-validated across a partial patch.
type DropPatch struct {
	Name        *string
	Description *string
	StartDate   *time.Time
	EndDate     *time.Time
	Status      *DropStatus
	BannerURL   *string
	IsPinned    *bool
}

// DropProduct caps how many units of a product may sell within one drop.
// Invariant: 0 <= SoldQuantity <= LimitedQuantity.
type DropProduct struct {
	DropID          int64
	ProductID       int64
	LimitedQuantity int
	SoldQuantity    int
	CreatedAt       time.Time
}

// Remaining is always derived, never persisted.
func (a DropProduct) Remaining() int {
	return a.LimitedQuantity - a.SoldQuantity
}

// DropProductView is the composed allocation+product shape returned by
// drop product listings.
type DropProductView struct {
	Product    Product
	Allocation DropProduct
}

// Countdown is the remaining-time breakdown for the current drop.
// IsEnded, not Status, is ground truth for display: the window between
// expiry and the next scheduler tick reports ended here while the row
// still says active.
type Countdown struct {
	DropID      int64
	DropName    string
	EndTime     time.Time
	RemainingMS int64
	Days        int
	Hours       int
	Minutes     int
	Seconds     int
	IsEnded     bool
}

func NewCountdown(d Drop, now time.Time) Countdown {
	c := Countdown{
		DropID:   d.ID,
		DropName: d.Name,
		EndTime:  d.EndDate,
	}

	remaining := d.EndDate.Sub(now)
	if remaining <= 0 {
		c.IsEnded = true
		return c
	}

	c.RemainingMS = remaining.Milliseconds()
	c.Days = int(remaining / (24 * time.Hour))
	c.Hours = int(remaining % (24 * time.Hour) / time.Hour)
	c.Minutes = int(remaining % time.Hour / time.Minute)
	c.Seconds = int(remaining % time.Minute / time.Second)
	return c
}

type ProductSales struct {
	ProductID         int64
	ProductName       string
	LimitedQuantity   int
	SoldQuantity      int
	RemainingQuantity int
	SoldPercentage    float64
}

type DropStats struct {
	DropID         int64
	DropName       string
	TotalProducts  int
	Products       []ProductSales
	TotalSold      int
	TotalLimited   int
	SoldPercentage float64
}

// SoldPercentage rounds to two decimals; zero limit yields zero.
func SoldPercentage(sold, limited int) float64 {
	if limited == 0 {
		return 0
	}
	return math.Round(float64(sold)/float64(limited)*100*100) / 100
}

var (
	ErrDropNotFound      = errors.New("drop not found")
	ErrEmptyDropName     = errors.New("drop name is required")
	ErrNoCurrentDrop     = errors.New("no current drop")
	ErrDropActive        = errors.New("cannot delete an active drop")
	ErrInvalidDropWindow = errors.New("start date must be before end date")

	ErrAllocationNotFound = errors.New("product not found in drop")
	ErrInvalidQuantity    = errors.New("limited quantity must be positive")
	ErrAlreadyAllocated   = errors.New("product already added to drop")
	ErrQuantityBelowSold  = errors.New("limited quantity cannot be below sold quantity")
	ErrAllocationSoldOut  = errors.New("drop allocation sold out")
)
