package store

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/compactd/compactd/internal/coordinator"
	"github.com/compactd/compactd/internal/store/model"
)

type Archive interface {
	Record(ctx context.Context, record model.JobRecord) (*model.JobRecord, error)
	Get(ctx context.Context, jobID string) (*model.JobRecord, error)
	List(ctx context.Context, filter *ArchiveQueryFilter, opts *ArchiveQueryOptions) ([]model.JobRecord, error)
	Stats(ctx context.Context) (model.ArchiveStats, error)
	ArchiveJob(ctx context.Context, job coordinator.Job) error
	InitialMigration() error
}

type ArchiveStore struct {
	db *gorm.DB
}

var _ coordinator.Archiver = (*ArchiveStore)(nil)

func NewArchive(db *gorm.DB) Archive {
	return &ArchiveStore{db: db}
}

func (a *ArchiveStore) InitialMigration() error {
	return a.db.AutoMigrate(&model.JobRecord{})
}

// Record inserts one finished job.
func (a *ArchiveStore) Record(ctx context.Context, record model.JobRecord) (*model.JobRecord, error) {
	if err := a.db.WithContext(ctx).Create(&record).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrDuplicateKey
		}
		return nil, err
	}
	return &record, nil
}

// Get returns the record for a coordinator job id.
func (a *ArchiveStore) Get(ctx context.Context, jobID string) (*model.JobRecord, error) {
	record := model.JobRecord{}
	if err := a.db.WithContext(ctx).Where("job_id = ?", jobID).First(&record).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRecordNotFound
		}
		return nil, err
	}
	return &record, nil
}

// List returns archived jobs newest first.
func (a *ArchiveStore) List(ctx context.Context, filter *ArchiveQueryFilter, opts *ArchiveQueryOptions) ([]model.JobRecord, error) {
	var records []model.JobRecord
	tx := a.db.WithContext(ctx)

	if filter != nil {
		for _, fn := range filter.QueryFn {
			tx = fn(tx)
		}
	}

	if opts != nil {
		for _, fn := range opts.QueryFn {
			tx = fn(tx)
		}
	}

	if err := tx.Order("finished_at DESC").Find(&records).Error; err != nil {
		return nil, err
	}

	return records, nil
}

// Stats aggregates the archive by job status.
func (a *ArchiveStore) Stats(ctx context.Context) (model.ArchiveStats, error) {
	var rows []struct {
		Status string
		Count  int64
	}
	err := a.db.WithContext(ctx).
		Model(&model.JobRecord{}).
		Select("status, count(*) as count").
		Group("status").
		Find(&rows).Error
	if err != nil {
		return model.ArchiveStats{}, err
	}

	stats := model.NewArchiveStats()
	for _, row := range rows {
		stats.ByStatus[row.Status] = row.Count
		stats.Total += row.Count
	}
	return stats, nil
}

// ArchiveJob persists a demoted coordinator job. It is the coordinator's
// archiver hook.
func (a *ArchiveStore) ArchiveJob(ctx context.Context, job coordinator.Job) error {
	record := model.JobRecord{
		JobID:      job.ID.String(),
		Kind:       string(job.Kind),
		Path:       job.Path,
		Name:       job.Name,
		Algorithm:  string(job.Algorithm),
		Status:     string(job.Status),
		Error:      job.Error,
		StartedAt:  job.StartedAt,
		FinishedAt: job.FinishedAt,
	}
	if job.Progress != nil {
		record.Percent = job.Progress.Percent
	}

	_, err := a.Record(ctx, record)
	return err
}
