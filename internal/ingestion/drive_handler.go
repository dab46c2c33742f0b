package ingestion

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"golang.org/x/oauth2"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"github.com/fmuoria/interview-review-agent/internal/models"
)

// MaxDownloadBytes caps how much of a file body is read into memory
const MaxDownloadBytes = 25 << 20

const (
	artifactFields = "id,name,mimeType,createdTime,appProperties,parents,trashed"
	defaultPage    = 100
)

// interviewListQuery selects interview notes and transcripts in readable formats
var interviewListQuery = "(name contains 'Interview' or name contains 'Transcript') and (" +
	"mimeType = '" + MimePlainText + "' or " +
	"mimeType = '" + MimeDocx + "' or " +
	"mimeType = '" + MimePDF + "' or " +
	"mimeType = '" + MimeGoogleDoc + "') and trashed = false"

// DriveHandler manages Google Drive operations on behalf of one reviewer
type DriveHandler struct {
	service  *drive.Service
	pageSize int64
	maxBytes int64
}

// NewDriveHandler creates a Drive handler authorised by ts. Extra client
// options are applied last.
func NewDriveHandler(ctx context.Context, ts oauth2.TokenSource, pageSize int, opts ...option.ClientOption) (*DriveHandler, error) {
	client := oauth2.NewClient(ctx, ts)
	srv, err := drive.NewService(ctx, append([]option.ClientOption{option.WithHTTPClient(client)}, opts...)...)
	if err != nil {
		return nil, fmt.Errorf("unable to create Drive client: %w", err)
	}

	if pageSize <= 0 {
		pageSize = defaultPage
	}

	return &DriveHandler{
		service:  srv,
		pageSize: int64(pageSize),
		maxBytes: MaxDownloadBytes,
	}, nil
}

// GetArtifact fetches file metadata and app properties
func (dh *DriveHandler) GetArtifact(ctx context.Context, id string) (models.Artifact, error) {
	f, err := dh.service.Files.Get(id).
		Fields(googleapi.Field(artifactFields)).
		SupportsAllDrives(true).
		Context(ctx).
		Do()
	if err != nil {
		return models.Artifact{}, models.WrapOp("get file metadata", id, classifyDriveError(err))
	}
	return toArtifact(f), nil
}

// DownloadContent returns the file body and the media type it is encoded in.
// Native Google Docs are exported as DOCX.
func (dh *DriveHandler) DownloadContent(ctx context.Context, id, mimeType string) ([]byte, string, error) {
	var (
		resp *http.Response
		err  error
	)
	effectiveType := mimeType
	if mimeType == MimeGoogleDoc {
		effectiveType = MimeDocx
		resp, err = dh.service.Files.Export(id, MimeDocx).Context(ctx).Download()
	} else {
		resp, err = dh.service.Files.Get(id).SupportsAllDrives(true).Context(ctx).Download()
	}
	if err != nil {
		return nil, "", models.WrapOp("download file content", id, classifyDriveError(err))
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, dh.maxBytes+1))
	if err != nil {
		return nil, "", models.WrapOp("read file content", id, fmt.Errorf("%w: %w", models.ErrUpstreamUnavailable, err))
	}
	if int64(len(data)) > dh.maxBytes {
		return nil, "", models.WrapOp("read file content", id, fmt.Errorf("%w: body exceeds %d bytes", models.ErrContentDecode, dh.maxBytes))
	}
	return data, effectiveType, nil
}

// ListChildren lists the files of a folder whose names contain every q.NameContains entry
func (dh *DriveHandler) ListChildren(ctx context.Context, q models.ChildQuery) ([]models.Artifact, error) {
	clauses := []string{fmt.Sprintf("'%s' in parents", escapeQuery(q.ParentID))}
	for _, part := range q.NameContains {
		clauses = append(clauses, fmt.Sprintf("name contains '%s'", escapeQuery(part)))
	}
	if q.ExcludeTrashed {
		clauses = append(clauses, "trashed = false")
	}

	files, err := dh.list(ctx, strings.Join(clauses, " and "), false)
	if err != nil {
		return nil, models.WrapOp("list folder", q.ParentID, err)
	}
	return files, nil
}

// ListInterviewArtifacts lists every interview note visible to the reviewer, newest first
func (dh *DriveHandler) ListInterviewArtifacts(ctx context.Context) ([]models.Artifact, error) {
	files, err := dh.list(ctx, interviewListQuery, true)
	if err != nil {
		return nil, models.WrapOp("list interview files", "", err)
	}
	return files, nil
}

// UpdateProperties merges props into the file's app properties
func (dh *DriveHandler) UpdateProperties(ctx context.Context, id string, props map[string]string) error {
	_, err := dh.service.Files.Update(id, &drive.File{AppProperties: props}).
		Fields("id").
		SupportsAllDrives(true).
		Context(ctx).
		Do()
	if err != nil {
		return models.WrapOp("update app properties", id, classifyDriveError(err))
	}
	return nil
}

func (dh *DriveHandler) list(ctx context.Context, query string, allPages bool) ([]models.Artifact, error) {
	call := dh.service.Files.List().
		Q(query).
		OrderBy("createdTime desc").
		PageSize(dh.pageSize).
		Fields(googleapi.Field("nextPageToken,files(" + artifactFields + ")")).
		SupportsAllDrives(true).
		IncludeItemsFromAllDrives(true)

	var files []models.Artifact
	collect := func(page *drive.FileList) error {
		for _, f := range page.Files {
			files = append(files, toArtifact(f))
		}
		return nil
	}

	if !allPages {
		page, err := call.Context(ctx).Do()
		if err != nil {
			return nil, classifyDriveError(err)
		}
		_ = collect(page)
		return files, nil
	}

	if err := call.Pages(ctx, collect); err != nil {
		return nil, classifyDriveError(err)
	}
	return files, nil
}

func toArtifact(f *drive.File) models.Artifact {
	return models.Artifact{
		ID:            f.Id,
		Name:          f.Name,
		MimeType:      f.MimeType,
		CreatedTime:   f.CreatedTime,
		AppProperties: f.AppProperties,
		Parents:       f.Parents,
		Trashed:       f.Trashed,
	}
}

// escapeQuery quotes a value for use inside a Drive query string literal
func escapeQuery(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	return strings.ReplaceAll(s, `'`, `\'`)
}

// classifyDriveError maps Drive API failures onto the service error sentinels
func classifyDriveError(err error) error {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		switch apiErr.Code {
		case http.StatusUnauthorized, http.StatusForbidden:
			return fmt.Errorf("%w: %s", models.ErrUnauthorized, apiErr.Message)
		case http.StatusNotFound:
			return fmt.Errorf("%w: %s", models.ErrNotFound, apiErr.Message)
		}
	}
	return fmt.Errorf("%w: %w", models.ErrUpstreamUnavailable, err)
}
