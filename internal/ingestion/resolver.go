package ingestion

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/fmuoria/interview-review-agent/internal/models"
)

// RecordingMarker is the literal a recording's name must contain
const RecordingMarker = "Recording"

var geminiSuffixPattern = regexp.MustCompile(`(?i)\s*-\s*Notes by Gemini\s*$`)

// ChildLister lists files inside a folder
type ChildLister interface {
	ListChildren(ctx context.Context, q models.ChildQuery) ([]models.Artifact, error)
}

// Resolver correlates interview notes with the meeting recording stored beside them
type Resolver struct {
	lister ChildLister
}

// NewResolver creates a resolver searching through lister
func NewResolver(lister ChildLister) *Resolver {
	return &Resolver{lister: lister}
}

// BaseName strips the "- Notes by Gemini" suffix from a notes file name
func BaseName(displayName string) string {
	return strings.TrimSpace(geminiSuffixPattern.ReplaceAllString(displayName, ""))
}

// RecordingLink returns the Drive viewer link of a file
func RecordingLink(id string) string {
	return fmt.Sprintf("https://drive.google.com/file/d/%s/view", id)
}

// FindSiblingRecording returns the recording sharing the artifact's folder and
// base name, or nil when there is none. Listing order is newest first, so the
// most recent recording wins when several match.
func (r *Resolver) FindSiblingRecording(ctx context.Context, artifact models.Artifact) (*models.SiblingRecording, error) {
	parent := artifact.ParentFolder()
	if parent == "" {
		return nil, nil
	}

	baseName := BaseName(artifact.Name)
	nameContains := []string{RecordingMarker}
	if baseName != "" {
		nameContains = append([]string{baseName}, nameContains...)
	}

	children, err := r.lister.ListChildren(ctx, models.ChildQuery{
		ParentID:       parent,
		NameContains:   nameContains,
		ExcludeTrashed: true,
	})
	if err != nil {
		return nil, models.WrapOp("find sibling recording", artifact.ID,
			fmt.Errorf("%w: %w", models.ErrUpstreamUnavailable, err))
	}

	// Drive matches name tokens case-insensitively; keep only exact substring matches
	for _, child := range children {
		if child.ID == artifact.ID || child.Trashed {
			continue
		}
		if strings.Contains(child.Name, baseName) && strings.Contains(child.Name, RecordingMarker) {
			return &models.SiblingRecording{ID: child.ID, Link: RecordingLink(child.ID)}, nil
		}
	}

	return nil, nil
}
