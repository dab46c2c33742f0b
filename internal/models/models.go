package models

import (
	"encoding/json"
	"time"
)

// Sentinels returned in place of values that could not be extracted
const (
	Unknown           = "Unknown"
	NotFound          = "Not found"
	NoSummaryFound    = "No summary found."
	NoDetailsFound    = "No details found."
	NoNextStepsFound  = "No next steps found."
	NoTranscriptFound = "No transcript found."
	NoContentFound    = "No content found."
)

// Status is the review state stored in an artifact's app properties
type Status string

const (
	StatusPending Status = "pending"
	StatusPass    Status = "pass"
	StatusFail    Status = "fail"
)

// StatusProperty and EmailProperty are the app property keys written by the service
const (
	StatusProperty = "status"
	EmailProperty  = "email"
)

// Valid reports whether s is one of the three known states
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusPass, StatusFail:
		return true
	}
	return false
}

// Artifact is an interview-note file stored in Google Drive
type Artifact struct {
	ID            string            `json:"id"`
	Name          string            `json:"name"`
	MimeType      string            `json:"mimeType"`
	CreatedTime   string            `json:"createdTime"`
	AppProperties map[string]string `json:"appProperties,omitempty"`
	Parents       []string          `json:"-"`
	Trashed       bool              `json:"-"`
}

// ParentFolder returns the first parent folder, or "" when the file has none
func (a Artifact) ParentFolder() string {
	if len(a.Parents) == 0 {
		return ""
	}
	return a.Parents[0]
}

// Status returns the status app property, defaulting to pending
func (a Artifact) Status() Status {
	if s := Status(a.AppProperties[StatusProperty]); s != "" {
		return s
	}
	return StatusPending
}

// DateParts holds the date components found in a file name
type DateParts struct {
	Year  string
	Month string
	Day   string
	Found bool
}

// TimeParts holds the time components found in a file name. Zone is empty
// when the name carries no timezone token.
type TimeParts struct {
	Hour   string
	Minute string
	Zone   string
	Found  bool
}

// FilenameTokens are the pieces derived from an artifact display name
type FilenameTokens struct {
	PersonName   string
	Company      string
	Date         DateParts
	Time         TimeParts
	PositionHint string
}

// ParsedFields is recomputed from the file name and body on every read
type ParsedFields struct {
	CandidateName string `json:"candidateName"`
	Company       string `json:"company"`
	PositionMatch string `json:"positionMatch"`
	Email         string `json:"email"`
	InterviewDate string `json:"interviewDate"`
	InterviewTime string `json:"interviewTime"`
	Summary       string `json:"summary"`
	Details       string `json:"details"`
	NextSteps     string `json:"nextSteps"`
	Transcript    string `json:"transcript"`
	Content       string `json:"content"`
}

// SiblingRecording is the meeting recording stored next to an artifact
type SiblingRecording struct {
	ID   string
	Link string
}

// CandidateRecord is the persisted reviewer side-state for one artifact
type CandidateRecord struct {
	FileID          string    `json:"fileId"`
	ManagerComment  string    `json:"managerComment"`
	WebhookResponse *Value    `json:"webhookResponse"`
	JobID           string    `json:"jobId,omitempty"`
	ExpireAt        time.Time `json:"expireAt"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

// Job is a hiring requisition
type Job struct {
	ID             string    `json:"_id"`
	Name           string    `json:"name"`
	ExternalTaskID string    `json:"externalTaskId"`
	Mentions       []string  `json:"mentions"`
	Prompt         string    `json:"prompt"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

// CandidateView is the merged entity returned by the candidate endpoint
type CandidateView struct {
	ID            string            `json:"id"`
	Name          string            `json:"name"`
	CreatedTime   string            `json:"createdTime"`
	MimeType      string            `json:"mimeType"`
	AppProperties map[string]string `json:"appProperties,omitempty"`
	ParsedFields
	Status          Status  `json:"status"`
	ManagerComment  string  `json:"managerComment"`
	WebhookResponse *Value  `json:"webhookResponse"`
	JobID           string  `json:"jobId,omitempty"`
	RecordingID     *string `json:"recordingId"`
	RecordingLink   *string `json:"recordingLink"`
}

// CandidatePatch is a partial update; nil members are left untouched
type CandidatePatch struct {
	WebhookResponse *Value  `json:"webhookResponse,omitempty"`
	ManagerComment  *string `json:"managerComment,omitempty"`
	Email           *string `json:"email,omitempty"`
}

// Empty reports whether the patch carries no field at all
func (p CandidatePatch) Empty() bool {
	return p.WebhookResponse == nil && p.ManagerComment == nil && p.Email == nil
}

// PatchResult is the record-derived subset returned after a patch
type PatchResult struct {
	ID              string `json:"id"`
	ManagerComment  string `json:"managerComment"`
	WebhookResponse *Value `json:"webhookResponse"`
	JobID           string `json:"jobId,omitempty"`
	Email           string `json:"email,omitempty"`
}

// SubmitStatusRequest triggers an evaluation and moves the artifact to pass or fail
type SubmitStatusRequest struct {
	FileID         string                     `json:"id"`
	Status         Status                     `json:"status"`
	ManagerComment string                     `json:"managerComment"`
	Job            *Job                       `json:"job,omitempty"`
	Candidate      map[string]json.RawMessage `json:"-"`
}

// SubmitStatusResult is returned by a successful status submission
type SubmitStatusResult struct {
	Success     bool   `json:"success"`
	Status      Status `json:"status"`
	WebhookData *Value `json:"webhookData"`
}

// CandidateSummary is one row of the candidate listing
type CandidateSummary struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	CreatedTime string `json:"createdTime"`
	MimeType    string `json:"mimeType"`
	Status      Status `json:"status"`
}

// ChildQuery selects files inside a folder
type ChildQuery struct {
	ParentID       string
	NameContains   []string
	ExcludeTrashed bool
}

// User holds a reviewer's chat and tracker integration settings
type User struct {
	Email              string    `json:"email"`
	SlackAccessToken   string    `json:"-"`
	SlackUserID        string    `json:"slackUserId,omitempty"`
	SlackTeamID        string    `json:"slackTeamId,omitempty"`
	SlackChannel       string    `json:"slackChannel,omitempty"`
	ClickUpAccessToken string    `json:"-"`
	ManatalAccessToken string    `json:"-"`
	UpdatedAt          time.Time `json:"updatedAt"`
}

// UserStatus reports which integrations a reviewer has connected
type UserStatus struct {
	Email            string `json:"email"`
	SlackConnected   bool   `json:"slackConnected"`
	SlackChannel     string `json:"slackChannel,omitempty"`
	ClickUpConnected bool   `json:"clickUpConnected"`
	ManatalConnected bool   `json:"manatalConnected"`
}

// Status reports the integrations u has connected without exposing tokens
func (u User) Status() UserStatus {
	return UserStatus{
		Email:            u.Email,
		SlackConnected:   u.SlackAccessToken != "",
		SlackChannel:     u.SlackChannel,
		ClickUpConnected: u.ClickUpAccessToken != "",
		ManatalConnected: u.ManatalAccessToken != "",
	}
}

// RecordUpdate lists the CandidateRecord columns an upsert writes; nil members are kept
type RecordUpdate struct {
	ManagerComment  *string
	WebhookResponse *Value
	JobID           *string
}

// EvaluationRequest is the payload handed to the evaluation workflow
type EvaluationRequest struct {
	FileID         string
	Status         Status
	ManagerComment string
	Job            *Job
	Candidate      map[string]json.RawMessage
}
