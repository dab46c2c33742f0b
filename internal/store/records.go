package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/fmuoria/interview-review-agent/internal/models"
)

// DefaultRecordTTL is how long a candidate record lives after creation
const DefaultRecordTTL = 90 * 24 * time.Hour

// Records stores CandidateRecords keyed by Drive file id. Rows past their
// expire_at are invisible to reads and removed by the Purger.
type Records struct {
	db  *gorm.DB
	ttl time.Duration
	now func() time.Time
}

func (s *Records) clock() time.Time {
	if s.now != nil {
		return s.now()
	}
	return time.Now().UTC()
}

func (s *Records) lifetime() time.Duration {
	if s.ttl <= 0 {
		return DefaultRecordTTL
	}
	return s.ttl
}

// Find returns the live record for fileID, or models.ErrNotFound
func (s *Records) Find(ctx context.Context, fileID string) (models.CandidateRecord, error) {
	var row candidateRow
	err := s.db.WithContext(ctx).
		Where("file_id = ? AND expire_at > ?", fileID, s.clock()).
		First(&row).Error
	if err != nil {
		return models.CandidateRecord{}, models.WrapOp("find candidate record", fileID, translate(err))
	}
	rec, err := row.toModel()
	if err != nil {
		return models.CandidateRecord{}, models.WrapOp("decode candidate record", fileID, err)
	}
	return rec, nil
}

// Upsert creates the record if needed and writes the non-nil members of u.
// An expired row is replaced by a fresh one.
func (s *Records) Upsert(ctx context.Context, fileID string, u models.RecordUpdate) (models.CandidateRecord, error) {
	var saved candidateRow
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		now := s.clock()

		var row candidateRow
		exists := true
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("file_id = ?", fileID).
			First(&row).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			exists = false
			row = candidateRow{FileID: fileID, CreatedAt: now, ExpireAt: now.Add(s.lifetime())}
		case err != nil:
			return err
		case !row.ExpireAt.After(now):
			row = candidateRow{FileID: fileID, CreatedAt: now, ExpireAt: now.Add(s.lifetime())}
		}

		if u.ManagerComment != nil {
			row.ManagerComment = *u.ManagerComment
		}
		if u.WebhookResponse != nil {
			data, err := json.Marshal(u.WebhookResponse)
			if err != nil {
				return fmt.Errorf("failed to encode webhook response: %w", err)
			}
			row.WebhookResponse = datatypes.JSON(data)
		}
		if u.JobID != nil {
			row.JobID = *u.JobID
		}

		write := tx.Save
		if !exists {
			write = tx.Create
		}
		if err := write(&row).Error; err != nil {
			return err
		}
		saved = row
		return nil
	})
	if err != nil {
		return models.CandidateRecord{}, models.WrapOp("upsert candidate record", fileID, translate(err))
	}
	return saved.toModel()
}

// Reset clears the manager comment and evaluation of a live record, keeping
// the record itself. It returns models.ErrNotFound when there is none.
func (s *Records) Reset(ctx context.Context, fileID string) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var row candidateRow
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("file_id = ? AND expire_at > ?", fileID, s.clock()).
			First(&row).Error
		if err != nil {
			return err
		}
		return tx.Model(&candidateRow{}).
			Where("file_id = ?", fileID).
			Updates(map[string]interface{}{
				"manager_comment":  "",
				"webhook_response": gorm.Expr("NULL"),
			}).Error
	})
	if err != nil {
		return models.WrapOp("reset candidate record", fileID, translate(err))
	}
	return nil
}

// PurgeExpired deletes every record whose expire_at has passed
func (s *Records) PurgeExpired(ctx context.Context) (int64, error) {
	res := s.db.WithContext(ctx).
		Where("expire_at <= ?", s.clock()).
		Delete(&candidateRow{})
	if res.Error != nil {
		return 0, fmt.Errorf("failed to purge expired candidate records: %w", translate(res.Error))
	}
	return res.RowsAffected, nil
}

// translate maps gorm errors onto the service error sentinels
func translate(err error) error {
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return models.ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return fmt.Errorf("%w: %v", models.ErrConflict, err)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return err
	default:
		return fmt.Errorf("%w: %w", models.ErrUpstreamUnavailable, err)
	}
}
