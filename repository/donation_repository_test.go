package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"donationRegistry/internal/testutil"
)

func TestDonationRepository_CreateAndGet(t *testing.T) {
	d := testutil.OpenInMemoryDB(t, "donationcreate")
	repo := NewDonationRepository(d)
	ctx := context.Background()

	don, err := repo.Create(ctx, "Ana", "Rice", 10, "WarehouseA")
	require.NoError(t, err)
	assert.NotZero(t, don.ID)
	assert.Equal(t, int64(10), don.Quantity)
	assert.False(t, don.CreatedAt.IsZero(), "created_at should be set by the store")
	assert.WithinDuration(t, time.Now().UTC(), don.CreatedAt, time.Minute)

	got, err := repo.GetByID(ctx, don.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "WarehouseA", got.Location)

	none, err := repo.GetByID(ctx, don.ID+100)
	require.NoError(t, err)
	assert.Nil(t, none)
}

func TestDonationRepository_RejectsNonPositiveQuantity(t *testing.T) {
	d := testutil.OpenInMemoryDB(t, "donationqty")
	repo := NewDonationRepository(d)
	ctx := context.Background()

	for _, q := range []int64{0, -5} {
		_, err := repo.Create(ctx, "Ana", "Rice", q, "WarehouseA")
		require.ErrorIs(t, err, ErrInvalidQuantity)
	}
	list, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestDonationRepository_ListAndStats(t *testing.T) {
	d := testutil.OpenInMemoryDB(t, "donationlist")
	repo := NewDonationRepository(d)
	ctx := context.Background()

	empty, err := repo.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), empty.Count)
	assert.Equal(t, int64(0), empty.TotalItems)
	require.NotNil(t, empty.Recent)
	assert.Len(t, empty.Recent, 0)

	ana, err := repo.Create(ctx, "Ana", "Rice", 10, "WarehouseA")
	require.NoError(t, err)
	bea, err := repo.Create(ctx, "Bea", "Beans", 5, "WarehouseB")
	require.NoError(t, err)

	list, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, bea.ID, list[0].ID)
	assert.Equal(t, ana.ID, list[1].ID)

	stats, err := repo.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), stats.Count)
	assert.Equal(t, int64(15), stats.TotalItems)
	require.Len(t, stats.Recent, 2)
	assert.Equal(t, "Bea", stats.Recent[0].DonorName)
}

func TestDonationRepository_StatsRecentIsCapped(t *testing.T) {
	d := testutil.OpenInMemoryDB(t, "donationrecent")
	repo := NewDonationRepository(d)
	ctx := context.Background()

	var lastID int64
	for i := 1; i <= RecentLimit+3; i++ {
		don, err := repo.Create(ctx, "Donor", "Item", int64(i), "Loc")
		require.NoError(t, err)
		lastID = don.ID
	}
	stats, err := repo.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(RecentLimit+3), stats.Count)
	assert.Equal(t, int64(36), stats.TotalItems)
	require.Len(t, stats.Recent, RecentLimit)
	assert.Equal(t, lastID, stats.Recent[0].ID)

	list, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, list[:RecentLimit], stats.Recent)
}

func TestDonationRepository_ListOrdersByCreatedAt(t *testing.T) {
	d, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer d.Close()

	newer := time.Date(2024, 5, 2, 10, 0, 0, 0, time.UTC)
	older := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{"id", "donor_name", "item", "quantity", "location", "created_at"}).
		AddRow(1, "Ana", "Rice", 10, "A", newer).
		AddRow(2, "Bea", "Beans", 5, "B", older)
	mock.ExpectQuery(`ORDER BY created_at DESC, id DESC`).WillReturnRows(rows)

	list, err := NewDonationRepository(d).List(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, newer, list[0].CreatedAt)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDonationRepository_StatsStoreFailure(t *testing.T) {
	d, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer d.Close()

	boom := errors.New("database is locked")
	mock.ExpectQuery(`SELECT COUNT`).WillReturnError(boom)

	_, err = NewDonationRepository(d).Stats(context.Background())
	require.ErrorIs(t, err, boom)
	require.NoError(t, mock.ExpectationsWereMet())
}
