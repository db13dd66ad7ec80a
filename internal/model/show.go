package model

import "time"

// Show is a theater production listed by a producer.  Only approved shows
// are visible on the public browse routes.
type Show struct {
	ID         string     `json:"id"`
	ProducerID string     `json:"producer_id"`
	Title      string     `json:"title"`
	Venue      string     `json:"venue,omitempty"`
	Date       *time.Time `json:"date,omitempty"`
	PriceCents uint32     `json:"price_cents"`
	Status     string     `json:"-"`
	CreatedAt  time.Time  `json:"-"`
	UpdatedAt  time.Time  `json:"-"`
}
