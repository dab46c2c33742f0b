package store

import (
	"time"

	"gorm.io/datatypes"

	"github.com/fmuoria/interview-review-agent/internal/models"
)

// candidateRow is the persisted reviewer side-state of one Drive file
type candidateRow struct {
	FileID          string         `gorm:"primaryKey;size:128"`
	ManagerComment  string         `gorm:"type:text"`
	WebhookResponse datatypes.JSON `gorm:"type:json"`
	JobID           string         `gorm:"size:36;index"`
	ExpireAt        time.Time      `gorm:"index"`
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

func (candidateRow) TableName() string {
	return "candidate_records"
}

func (r candidateRow) toModel() (models.CandidateRecord, error) {
	rec := models.CandidateRecord{
		FileID:         r.FileID,
		ManagerComment: r.ManagerComment,
		JobID:          r.JobID,
		ExpireAt:       r.ExpireAt,
		CreatedAt:      r.CreatedAt,
		UpdatedAt:      r.UpdatedAt,
	}
	v, err := models.ParseValue(r.WebhookResponse)
	if err != nil {
		return models.CandidateRecord{}, err
	}
	rec.WebhookResponse = v
	return rec, nil
}

type jobRow struct {
	ID             string   `gorm:"primaryKey;size:36"`
	Name           string   `gorm:"size:255;uniqueIndex;not null"`
	ExternalTaskID string   `gorm:"size:255;uniqueIndex;not null"`
	Mentions       []string `gorm:"serializer:json;type:json"`
	Prompt         string   `gorm:"type:text"`
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

func (jobRow) TableName() string {
	return "jobs"
}

func (r jobRow) toModel() models.Job {
	mentions := r.Mentions
	if mentions == nil {
		mentions = []string{}
	}
	return models.Job{
		ID:             r.ID,
		Name:           r.Name,
		ExternalTaskID: r.ExternalTaskID,
		Mentions:       mentions,
		Prompt:         r.Prompt,
		CreatedAt:      r.CreatedAt,
		UpdatedAt:      r.UpdatedAt,
	}
}

type userRow struct {
	Email              string `gorm:"primaryKey;size:255"`
	SlackAccessToken   string `gorm:"size:512"`
	SlackUserID        string `gorm:"size:64"`
	SlackTeamID        string `gorm:"size:64"`
	SlackChannel       string `gorm:"size:128"`
	ClickUpAccessToken string `gorm:"column:clickup_access_token;size:512"`
	ManatalAccessToken string `gorm:"size:512"`
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

func (userRow) TableName() string {
	return "users"
}

func (r userRow) toModel() models.User {
	return models.User{
		Email:              r.Email,
		SlackAccessToken:   r.SlackAccessToken,
		SlackUserID:        r.SlackUserID,
		SlackTeamID:        r.SlackTeamID,
		SlackChannel:       r.SlackChannel,
		ClickUpAccessToken: r.ClickUpAccessToken,
		ManatalAccessToken: r.ManatalAccessToken,
		UpdatedAt:          r.UpdatedAt,
	}
}
