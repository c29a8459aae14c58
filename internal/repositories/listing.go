package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"alfredoptarigan/hirematch/internal/models"
)

type ListingRepository interface {
	ExpireJobs(ctx context.Context, now time.Time) (int64, error)
	ExpireProfiles(ctx context.Context, now time.Time) (int64, error)
	FindExpiringSoon(ctx context.Context, now time.Time, window time.Duration) ([]models.ExpiringListing, error)
	MarkWarningSent(ctx context.Context, kind models.ListingKind, id uuid.UUID, at time.Time) error
	ListActiveJobs(ctx context.Context, limit, offset int) ([]models.JobPosting, error)
	ListActiveProfiles(ctx context.Context, limit, offset int) ([]models.SeekerProfile, error)
}

type listingRepository struct {
	db *gorm.DB
}

func NewListingRepository(db *gorm.DB) ListingRepository {
	return &listingRepository{db: db}
}

type expiringRow struct {
	ID         uuid.UUID
	Title      string
	OwnerEmail string
	ExpiresAt  time.Time
}

// ExpireJobs implements ListingRepository.
func (r *listingRepository) ExpireJobs(ctx context.Context, now time.Time) (int64, error) {
	return r.expire(ctx, &models.JobPosting{}, now)
}

// ExpireProfiles implements ListingRepository.
func (r *listingRepository) ExpireProfiles(ctx context.Context, now time.Time) (int64, error) {
	return r.expire(ctx, &models.SeekerProfile{}, now)
}

func (r *listingRepository) expire(ctx context.Context, model interface{}, now time.Time) (int64, error) {
	result := r.db.WithContext(ctx).Model(model).
		Where("status = ? AND expires_at < ?", models.ListingActive, now).
		Updates(map[string]interface{}{
			"status":     models.ListingExpired,
			"updated_at": now,
		})
	if result.Error != nil {
		return 0, fmt.Errorf("failed to expire listings: %w", result.Error)
	}
	return result.RowsAffected, nil
}

// FindExpiringSoon implements ListingRepository.
func (r *listingRepository) FindExpiringSoon(ctx context.Context, now time.Time, window time.Duration) ([]models.ExpiringListing, error) {
	until := now.Add(window)

	var jobs []expiringRow
	err := r.db.WithContext(ctx).
		Table("job_postings").
		Select("job_postings.id, job_postings.title, users.email AS owner_email, job_postings.expires_at").
		Joins("JOIN users ON users.id = job_postings.employer_id").
		Where("job_postings.status = ? AND job_postings.warning_sent_at IS NULL", models.ListingActive).
		Where("job_postings.expires_at >= ? AND job_postings.expires_at < ?", now, until).
		Scan(&jobs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to find expiring jobs: %w", err)
	}

	var profiles []expiringRow
	err = r.db.WithContext(ctx).
		Table("seeker_profiles").
		Select("seeker_profiles.id, seeker_profiles.headline AS title, users.email AS owner_email, seeker_profiles.expires_at").
		Joins("JOIN users ON users.id = seeker_profiles.user_id").
		Where("seeker_profiles.status = ? AND seeker_profiles.warning_sent_at IS NULL", models.ListingActive).
		Where("seeker_profiles.expires_at >= ? AND seeker_profiles.expires_at < ?", now, until).
		Scan(&profiles).Error
	if err != nil {
		return nil, fmt.Errorf("failed to find expiring profiles: %w", err)
	}

	out := make([]models.ExpiringListing, 0, len(jobs)+len(profiles))
	for _, row := range jobs {
		out = append(out, row.toListing(models.KindJob))
	}
	for _, row := range profiles {
		out = append(out, row.toListing(models.KindProfile))
	}
	return out, nil
}

func (row expiringRow) toListing(kind models.ListingKind) models.ExpiringListing {
	return models.ExpiringListing{
		Kind:       kind,
		ID:         row.ID,
		Title:      row.Title,
		OwnerEmail: row.OwnerEmail,
		ExpiresAt:  row.ExpiresAt,
	}
}

// MarkWarningSent implements ListingRepository.
func (r *listingRepository) MarkWarningSent(ctx context.Context, kind models.ListingKind, id uuid.UUID, at time.Time) error {
	var model interface{}
	switch kind {
	case models.KindJob:
		model = &models.JobPosting{}
	case models.KindProfile:
		model = &models.SeekerProfile{}
	default:
		return fmt.Errorf("unknown listing kind %q", kind)
	}

	result := r.db.WithContext(ctx).Model(model).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"warning_sent_at": at,
			"updated_at":      at,
		})
	if result.Error != nil {
		return fmt.Errorf("failed to mark warning sent: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("%s %s not found", kind, id)
	}
	return nil
}

// ListActiveJobs implements ListingRepository.
func (r *listingRepository) ListActiveJobs(ctx context.Context, limit, offset int) ([]models.JobPosting, error) {
	var jobs []models.JobPosting
	err := r.db.WithContext(ctx).
		Where("status = ?", models.ListingActive).
		Order("created_at ASC").
		Limit(limit).
		Offset(offset).
		Find(&jobs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list active jobs: %w", err)
	}
	return jobs, nil
}

// ListActiveProfiles implements ListingRepository.
func (r *listingRepository) ListActiveProfiles(ctx context.Context, limit, offset int) ([]models.SeekerProfile, error) {
	var profiles []models.SeekerProfile
	err := r.db.WithContext(ctx).
		Where("status = ?", models.ListingActive).
		Order("created_at ASC").
		Limit(limit).
		Offset(offset).
		Find(&profiles).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list active profiles: %w", err)
	}
	return profiles, nil
}
