package store

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/fmuoria/interview-review-agent/internal/models"
)

// JobInput is the writable part of a Job
type JobInput struct {
	Name           string   `json:"name"`
	ExternalTaskID string   `json:"externalTaskId"`
	Mentions       []string `json:"mentions"`
	Prompt         string   `json:"prompt"`
}

// Validate requires a name and an external task id
func (in JobInput) Validate() error {
	if strings.TrimSpace(in.Name) == "" || strings.TrimSpace(in.ExternalTaskID) == "" {
		return models.Validationf("name and externalTaskId are required")
	}
	return nil
}

// Jobs stores hiring requisitions
type Jobs struct {
	db *gorm.DB
}

// List returns every job, newest first
func (s *Jobs) List(ctx context.Context) ([]models.Job, error) {
	var rows []jobRow
	if err := s.db.WithContext(ctx).Order("created_at desc").Find(&rows).Error; err != nil {
		return nil, models.WrapOp("list jobs", "", translate(err))
	}
	jobs := make([]models.Job, 0, len(rows))
	for _, row := range rows {
		jobs = append(jobs, row.toModel())
	}
	return jobs, nil
}

// Create inserts a job; duplicate names or task ids yield models.ErrConflict
func (s *Jobs) Create(ctx context.Context, in JobInput) (models.Job, error) {
	if err := in.Validate(); err != nil {
		return models.Job{}, err
	}
	row := jobRow{
		ID:             uuid.NewString(),
		Name:           strings.TrimSpace(in.Name),
		ExternalTaskID: strings.TrimSpace(in.ExternalTaskID),
		Mentions:       in.Mentions,
		Prompt:         in.Prompt,
	}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return models.Job{}, models.WrapOp("create job", row.Name, translate(err))
	}
	return row.toModel(), nil
}

// Update replaces the writable fields of job id
func (s *Jobs) Update(ctx context.Context, id string, in JobInput) (models.Job, error) {
	if err := in.Validate(); err != nil {
		return models.Job{}, err
	}

	var row jobRow
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ?", id).First(&row).Error; err != nil {
			return err
		}
		row.Name = strings.TrimSpace(in.Name)
		row.ExternalTaskID = strings.TrimSpace(in.ExternalTaskID)
		row.Mentions = in.Mentions
		row.Prompt = in.Prompt
		return tx.Save(&row).Error
	})
	if err != nil {
		return models.Job{}, models.WrapOp("update job", id, translate(err))
	}
	return row.toModel(), nil
}

// Delete removes job id
func (s *Jobs) Delete(ctx context.Context, id string) error {
	res := s.db.WithContext(ctx).Where("id = ?", id).Delete(&jobRow{})
	if res.Error != nil {
		return models.WrapOp("delete job", id, translate(res.Error))
	}
	if res.RowsAffected == 0 {
		return models.WrapOp("delete job", id, models.ErrNotFound)
	}
	return nil
}

// FindByName looks a job up by exact name equality
func (s *Jobs) FindByName(ctx context.Context, name string) (models.Job, error) {
	var row jobRow
	if err := s.db.WithContext(ctx).Where("name = ?", name).First(&row).Error; err != nil {
		return models.Job{}, models.WrapOp("find job by name", name, translate(err))
	}
	return row.toModel(), nil
}
