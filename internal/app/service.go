// Package app holds the application routines behind the web surface:
// registration, donation creation, listing and the dashboard.
package app

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"

	"donationRegistry/internal/auth"
	"donationRegistry/models"
)

// Users is the persistence contract the routines need for accounts.
type Users interface {
	Create(ctx context.Context, name, username, password string, role models.Role) (*models.User, error)
}

// Donations is the persistence contract the routines need for donations.
type Donations interface {
	Create(ctx context.Context, donorName, item string, quantity int64, location string) (*models.Donation, error)
	List(ctx context.Context) ([]models.Donation, error)
	Stats(ctx context.Context) (*models.DonationStats, error)
}

// Recorder receives outcome counts. *metrics.Metrics satisfies it.
type Recorder interface {
	RecordRegistration(result string)
	RecordDonation()
}

type nopRecorder struct{}

func (nopRecorder) RecordRegistration(string) {}
func (nopRecorder) RecordDonation()           {}

// Service wires the routines to their stores.
type Service struct {
	users     Users
	donations Donations
	log       logrus.FieldLogger
	rec       Recorder
}

// NewService returns a Service. rec may be nil.
func NewService(users Users, donations Donations, log logrus.FieldLogger, rec Recorder) *Service {
	if rec == nil {
		rec = nopRecorder{}
	}
	return &Service{users: users, donations: donations, log: log, rec: rec}
}

// RegisterInput is the registration form.
// Email and CPF are required but not stored: the users table has no column
// for them yet.
type RegisterInput struct {
	Name            string
	Username        string
	Email           string
	CPF             string
	Password        string
	ConfirmPassword string
}

// Register creates an operator account.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	name := strings.TrimSpace(in.Name)
	username := auth.NormalizeUsername(in.Username)
	// Passwords are taken verbatim; only the empty string is missing.
	if anyEmpty(name, username, in.Email, in.CPF) || in.Password == "" || in.ConfirmPassword == "" {
		s.rec.RecordRegistration("missing_fields")
		return nil, ErrMissingFields
	}
	if in.Password != in.ConfirmPassword {
		s.rec.RecordRegistration("password_mismatch")
		return nil, ErrPasswordMismatch
	}
	u, err := s.users.Create(ctx, name, username, in.Password, models.RoleOperator)
	if err != nil {
		if errors.Is(err, ErrDuplicateUsername) {
			s.rec.RecordRegistration("duplicate")
			return nil, ErrDuplicateUsername
		}
		s.rec.RecordRegistration("error")
		s.log.WithError(err).WithField("username", username).Error("register user")
		return nil, fmt.Errorf("%w: %v", ErrRegistrationFailed, err)
	}
	s.rec.RecordRegistration("success")
	s.log.WithFields(logrus.Fields{"user_id": u.ID, "username": u.Username}).
		Debug("user registered; email and cpf accepted but not persisted")
	return u, nil
}

// DonationInput is the donation form. Quantity is the raw submitted text.
type DonationInput struct {
	DonorName string
	Item      string
	Quantity  string
	Location  string
}

// CreateDonation validates and stores a donation for an authenticated caller.
func (s *Service) CreateDonation(ctx context.Context, sess *auth.Session, in DonationInput) (int64, error) {
	if err := auth.RequireSession(sess); err != nil {
		return 0, err
	}
	donor := strings.TrimSpace(in.DonorName)
	item := strings.TrimSpace(in.Item)
	rawQty := strings.TrimSpace(in.Quantity)
	location := strings.TrimSpace(in.Location)
	if anyEmpty(donor, item, rawQty, location) {
		return 0, ErrMissingFields
	}
	qty, err := ParseQuantity(rawQty)
	if err != nil {
		return 0, err
	}
	d, err := s.donations.Create(ctx, donor, item, qty, location)
	if err != nil {
		return 0, fmt.Errorf("create donation: %w", err)
	}
	s.rec.RecordDonation()
	s.log.WithFields(logrus.Fields{"donation_id": d.ID, "username": sess.Username}).Info("donation created")
	return d.ID, nil
}

// ListDonations returns every donation, most recent first.
func (s *Service) ListDonations(ctx context.Context, sess *auth.Session) ([]models.Donation, error) {
	if err := auth.RequireSession(sess); err != nil {
		return nil, err
	}
	return s.donations.List(ctx)
}

// Dashboard returns the donation aggregates.
func (s *Service) Dashboard(ctx context.Context, sess *auth.Session) (*models.DonationStats, error) {
	if err := auth.RequireSession(sess); err != nil {
		return nil, err
	}
	return s.donations.Stats(ctx)
}

// ParseQuantity accepts base-10 positive integers only.
func ParseQuantity(raw string) (int64, error) {
	q, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || q <= 0 {
		return 0, ErrInvalidQuantity
	}
	return q, nil
}

func anyEmpty(vals ...string) bool {
	for _, v := range vals {
		if strings.TrimSpace(v) == "" {
			return true
		}
	}
	return false
}
