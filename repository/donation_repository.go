package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"donationRegistry/models"
)

// RecentLimit is the number of donations reported by Stats.
const RecentLimit = 5

const donationColumns = `id, donor_name, item, quantity, location, created_at`

// DonationRepository stores donation records.
// Listing order is always created_at desc, then id desc so rows inserted in
// the same second keep insertion order.
type DonationRepository struct {
	db *sql.DB
}

// NewDonationRepository creates a new DonationRepository.
func NewDonationRepository(db *sql.DB) *DonationRepository {
	return &DonationRepository{db: db}
}

// Create inserts a donation and reads it back to capture created_at.
func (r *DonationRepository) Create(ctx context.Context, donorName, item string, quantity int64, location string) (*models.Donation, error) {
	if quantity <= 0 {
		return nil, ErrInvalidQuantity
	}
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	res, err := r.db.ExecContext(ctx, `INSERT INTO donations (donor_name, item, quantity, location) VALUES (?, ?, ?, ?)`,
		donorName, item, quantity, location)
	if err != nil {
		if isCheckViolation(err) {
			return nil, ErrInvalidQuantity
		}
		return nil, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	d, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if d == nil {
		return nil, fmt.Errorf("created donation not found: id=%d", id)
	}
	return d, nil
}

// GetByID fetches a donation by its ID. It returns (nil, nil) when absent.
func (r *DonationRepository) GetByID(ctx context.Context, id int64) (*models.Donation, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	var d models.Donation
	err := r.db.QueryRowContext(ctx, `SELECT `+donationColumns+` FROM donations WHERE id = ?`, id).
		Scan(&d.ID, &d.DonorName, &d.Item, &d.Quantity, &d.Location, &d.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &d, nil
}

// List returns every donation, most recent first.
func (r *DonationRepository) List(ctx context.Context) ([]models.Donation, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	rows, err := r.db.QueryContext(ctx, `SELECT `+donationColumns+` FROM donations ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanDonationRows(rows)
}

// Stats returns the donation count, the sum of quantities (0 when empty)
// and the RecentLimit most recent donations in List order.
func (r *DonationRepository) Stats(ctx context.Context) (*models.DonationStats, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var s models.DonationStats
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*), COALESCE(SUM(quantity), 0) FROM donations`).Scan(&s.Count, &s.TotalItems); err != nil {
		return nil, err
	}
	rows, err := r.db.QueryContext(ctx, `SELECT `+donationColumns+` FROM donations ORDER BY created_at DESC, id DESC LIMIT ?`, RecentLimit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	s.Recent, err = scanDonationRows(rows)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// scanDonationRows scans rows into Donation values. The result is never nil.
func scanDonationRows(rows *sql.Rows) ([]models.Donation, error) {
	out := []models.Donation{}
	for rows.Next() {
		var d models.Donation
		if err := rows.Scan(&d.ID, &d.DonorName, &d.Item, &d.Quantity, &d.Location, &d.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
