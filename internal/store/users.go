package store

import (
	"context"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/fmuoria/interview-review-agent/internal/models"
)

// SlackAuth is what the Slack OAuth exchange yields for a reviewer
type SlackAuth struct {
	AccessToken string
	UserID      string
	TeamID      string
}

// Users stores reviewer integration settings keyed by Google e-mail
type Users struct {
	db *gorm.DB
}

// Get returns the settings of email, or models.ErrNotFound
func (s *Users) Get(ctx context.Context, email string) (models.User, error) {
	var row userRow
	if err := s.db.WithContext(ctx).Where("email = ?", email).First(&row).Error; err != nil {
		return models.User{}, models.WrapOp("get user", email, translate(err))
	}
	return row.toModel(), nil
}

// SaveSlackAuth stores the reviewer's Slack token and identity
func (s *Users) SaveSlackAuth(ctx context.Context, email string, auth SlackAuth) (models.User, error) {
	return s.upsert(ctx, email, "save slack auth", userRow{
		SlackAccessToken: auth.AccessToken,
		SlackUserID:      auth.UserID,
		SlackTeamID:      auth.TeamID,
	}, "slack_access_token", "slack_user_id", "slack_team_id")
}

// SetClickUpToken stores the reviewer's ClickUp token
func (s *Users) SetClickUpToken(ctx context.Context, email, token string) (models.User, error) {
	if strings.TrimSpace(token) == "" {
		return models.User{}, models.Validationf("ClickUp access token is required")
	}
	return s.upsert(ctx, email, "set clickup token", userRow{ClickUpAccessToken: token}, "clickup_access_token")
}

// SetManatalToken stores the reviewer's Manatal token
func (s *Users) SetManatalToken(ctx context.Context, email, token string) (models.User, error) {
	if strings.TrimSpace(token) == "" {
		return models.User{}, models.Validationf("Manatal access token is required")
	}
	return s.upsert(ctx, email, "set manatal token", userRow{ManatalAccessToken: token}, "manatal_access_token")
}

// SetSlackChannel stores the channel evaluations are posted to
func (s *Users) SetSlackChannel(ctx context.Context, email, channel string) (models.User, error) {
	if strings.TrimSpace(channel) == "" {
		return models.User{}, models.Validationf("Slack channel is required")
	}
	return s.upsert(ctx, email, "set slack channel", userRow{SlackChannel: channel}, "slack_channel")
}

// upsert inserts a user row or updates only columns on an existing one
func (s *Users) upsert(ctx context.Context, email, op string, row userRow, columns ...string) (models.User, error) {
	if email == "" {
		return models.User{}, models.WrapOp(op, "", models.ErrUnauthorized)
	}
	row.Email = email

	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "email"}},
		DoUpdates: clause.AssignmentColumns(append(columns, "updated_at")),
	}).Create(&row).Error
	if err != nil {
		return models.User{}, models.WrapOp(op, email, translate(err))
	}
	return s.Get(ctx, email)
}
