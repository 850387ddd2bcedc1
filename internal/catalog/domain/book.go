package domain

import "time"

// Book is a catalog record. Prices are VND, no subunit.
type Book struct {
	ID          int64
	Title       string
	Author      string
	Genre       string
	Description string
	Price       int64
	ImageURL    string
	RatingAvg   float64
	ReviewCount int
	FlashSale   bool
	CreatedAt   time.Time
}
