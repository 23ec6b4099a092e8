package repository

import (
	"context"

	"donationRegistry/models"
)

// UserRepositoryI defines operations on User entities.
type UserRepositoryI interface {
	Create(ctx context.Context, name, username, password string, role models.Role) (*models.User, error)
	FindByCredentials(ctx context.Context, username, password string) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	GetByID(ctx context.Context, id int64) (*models.User, error)
	EnsureDefaultAdmin(ctx context.Context) error
}

// DonationRepositoryI defines operations on Donation entities.
type DonationRepositoryI interface {
	Create(ctx context.Context, donorName, item string, quantity int64, location string) (*models.Donation, error)
	GetByID(ctx context.Context, id int64) (*models.Donation, error)
	List(ctx context.Context) ([]models.Donation, error)
	Stats(ctx context.Context) (*models.DonationStats, error)
}

var (
	_ UserRepositoryI     = (*UserRepository)(nil)
	_ DonationRepositoryI = (*DonationRepository)(nil)
)
