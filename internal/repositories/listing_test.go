package repositories

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"alfredoptarigan/hirematch/internal/models"
)

func TestListing_ExpireJobs(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewListingRepository(db)
	now := time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC)

	mock.ExpectExec(`UPDATE "job_postings" SET "status"=\$1,"updated_at"=\$2 WHERE status = \$3 AND expires_at < \$4`).
		WithArgs(models.ListingExpired, now, models.ListingActive, now).
		WillReturnResult(sqlmock.NewResult(0, 3))

	n, err := repo.ExpireJobs(context.Background(), now)

	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListing_FindExpiringSoon(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewListingRepository(db)
	now := time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC)
	jobID := uuid.New()
	profileID := uuid.New()

	mock.ExpectQuery(`SELECT job_postings.id, job_postings.title, users.email AS owner_email, job_postings.expires_at FROM "job_postings" JOIN users`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "title", "owner_email", "expires_at"}).
			AddRow(jobID.String(), "Go Engineer", "hr@acme.io", now.Add(24*time.Hour)))
	mock.ExpectQuery(`FROM "seeker_profiles" JOIN users`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "title", "owner_email", "expires_at"}).
			AddRow(profileID.String(), "Backend dev", "me@mail.com", now.Add(48*time.Hour)))

	listings, err := repo.FindExpiringSoon(context.Background(), now, 72*time.Hour)

	require.NoError(t, err)
	require.Len(t, listings, 2)
	assert.Equal(t, models.KindJob, listings[0].Kind)
	assert.Equal(t, jobID, listings[0].ID)
	assert.Equal(t, "hr@acme.io", listings[0].OwnerEmail)
	assert.Equal(t, models.KindProfile, listings[1].Kind)
	assert.Equal(t, "Backend dev", listings[1].Title)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListing_MarkWarningSent_UnknownKind(t *testing.T) {
	db, _ := newMockDB(t)
	repo := NewListingRepository(db)

	err := repo.MarkWarningSent(context.Background(), "banner", uuid.New(), time.Now())
	assert.Error(t, err)
}

func TestApplication_FlagStale(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewApplicationRepository(db)
	now := time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC)
	cutoff := now.Add(-14 * 24 * time.Hour)

	mock.ExpectExec(`UPDATE "applications" SET "stale"=\$1,"updated_at"=\$2 WHERE status = \$3 AND stale = \$4 AND created_at < \$5`).
		WithArgs(true, now, models.ApplicationSubmitted, false, cutoff).
		WillReturnResult(sqlmock.NewResult(0, 2))

	n, err := repo.FlagStale(context.Background(), cutoff, now)

	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}
