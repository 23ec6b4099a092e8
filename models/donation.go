package models

import "time"

// Donation is a registered donated item.
// CreatedAt is assigned by the store on insert.
type Donation struct {
	ID        int64     `db:"id" json:"id"`
	DonorName string    `db:"donor_name" json:"donor_name"`
	Item      string    `db:"item" json:"item"`
	Quantity  int64     `db:"quantity" json:"quantity"`
	Location  string    `db:"location" json:"location"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// DonationStats aggregates the donation table for the dashboard.
type DonationStats struct {
	Count      int64      `json:"count"`
	TotalItems int64      `json:"total_items"`
	Recent     []Donation `json:"recent"`
}
