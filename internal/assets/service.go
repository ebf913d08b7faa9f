package assets

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"bizkit/internal/apperr"
)

const DefaultMaxUpload = 10 << 20

type NoteInput struct {
	Title    string `json:"title"`
	Content  string `json:"content"`
	Category string `json:"category"`
}

type Service struct {
	repo      *Repository
	blobs     BlobStore
	maxUpload int64
	logger    *zap.Logger
	now       func() time.Time
}

func NewService(repo *Repository, blobs BlobStore, maxUpload int64, logger *zap.Logger) *Service {
	if maxUpload <= 0 {
		maxUpload = DefaultMaxUpload
	}
	return &Service{repo: repo, blobs: blobs, maxUpload: maxUpload, logger: logger, now: time.Now}
}

// storeErr maps a repository failure to a classified error.
func storeErr(what string, err error) error {
	if errors.Is(err, ErrNotFound) {
		return apperr.New(apperr.KindNotFound, what+" not found")
	}
	return apperr.Wrap(apperr.KindServiceUnavailable, "scratch store unavailable", err)
}

// ---- notes ----

func (s *Service) CreateNote(ctx context.Context, ownerID int, in NoteInput) (*Note, error) {
	title, content := strings.TrimSpace(in.Title), strings.TrimSpace(in.Content)
	if title == "" || content == "" {
		return nil, apperr.Validation("Title and content are required")
	}
	category := strings.TrimSpace(in.Category)
	if category == "" {
		category = DefaultNoteCategory
	}
	now := s.now()
	n := Note{
		ID:        uuid.NewString(),
		OwnerID:   ownerID,
		Title:     title,
		Content:   content,
		Category:  category,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.Notes.Save(ctx, n); err != nil {
		return nil, storeErr("note", err)
	}
	return &n, nil
}

// UpdateNote replaces the non-empty fields of in.
func (s *Service) UpdateNote(ctx context.Context, ownerID int, id string, in NoteInput) (*Note, error) {
	n, err := s.repo.Notes.Get(ctx, ownerID, id)
	if err != nil {
		return nil, storeErr("note", err)
	}
	if v := strings.TrimSpace(in.Title); v != "" {
		n.Title = v
	}
	if v := strings.TrimSpace(in.Content); v != "" {
		n.Content = v
	}
	if v := strings.TrimSpace(in.Category); v != "" {
		n.Category = v
	}
	n.UpdatedAt = s.now()
	if err := s.repo.Notes.Save(ctx, n); err != nil {
		return nil, storeErr("note", err)
	}
	return &n, nil
}

func (s *Service) DeleteNote(ctx context.Context, ownerID int, id string) error {
	if err := s.repo.Notes.Delete(ctx, ownerID, id); err != nil {
		return storeErr("note", err)
	}
	return nil
}

func (s *Service) ListNotes(ctx context.Context, ownerID int) ([]Note, error) {
	notes, err := s.repo.Notes.List(ctx, ownerID)
	if err != nil {
		return nil, storeErr("note", err)
	}
	return notes, nil
}

// ---- tables ----

// CreateTable starts a table with the given headers (DefaultHeaders when
// empty) and one blank row.
func (s *Service) CreateTable(ctx context.Context, ownerID int, name string, headers []string) (*Table, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperr.Validation("Table name is required")
	}
	if len(headers) == 0 {
		headers = DefaultHeaders
	}
	now := s.now()
	t := Table{
		ID:        uuid.NewString(),
		OwnerID:   ownerID,
		Name:      name,
		Headers:   append([]string(nil), headers...),
		Rows:      [][]string{make([]string, len(headers))},
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.Tables.Save(ctx, t); err != nil {
		return nil, storeErr("table", err)
	}
	return &t, nil
}

// AddRow appends a row padded or truncated to the header width.
func (s *Service) AddRow(ctx context.Context, ownerID int, id string, cells []string) (*Table, error) {
	t, err := s.repo.Tables.Get(ctx, ownerID, id)
	if err != nil {
		return nil, storeErr("table", err)
	}
	row := make([]string, len(t.Headers))
	copy(row, cells)
	t.Rows = append(t.Rows, row)
	t.UpdatedAt = s.now()
	if err := s.repo.Tables.Save(ctx, t); err != nil {
		return nil, storeErr("table", err)
	}
	return &t, nil
}

func (s *Service) UpdateCell(ctx context.Context, ownerID int, id string, row, col int, value string) (*Table, error) {
	t, err := s.repo.Tables.Get(ctx, ownerID, id)
	if err != nil {
		return nil, storeErr("table", err)
	}
	if row < 0 || row >= len(t.Rows) || col < 0 || col >= len(t.Headers) {
		return nil, apperr.Validation(fmt.Sprintf("cell (%d,%d) is out of range", row, col))
	}
	// rows written by older clients may be short
	for len(t.Rows[row]) < len(t.Headers) {
		t.Rows[row] = append(t.Rows[row], "")
	}
	t.Rows[row][col] = value
	t.UpdatedAt = s.now()
	if err := s.repo.Tables.Save(ctx, t); err != nil {
		return nil, storeErr("table", err)
	}
	return &t, nil
}

func (s *Service) DeleteTable(ctx context.Context, ownerID int, id string) error {
	if err := s.repo.Tables.Delete(ctx, ownerID, id); err != nil {
		return storeErr("table", err)
	}
	return nil
}

func (s *Service) ListTables(ctx context.Context, ownerID int) ([]Table, error) {
	tables, err := s.repo.Tables.List(ctx, ownerID)
	if err != nil {
		return nil, storeErr("table", err)
	}
	return tables, nil
}

// ---- assets ----

func CategoryFor(contentType string) Category {
	if strings.HasPrefix(strings.ToLower(contentType), "image/") {
		return CategoryImage
	}
	return CategoryDocument
}

func (s *Service) Upload(ctx context.Context, ownerID int, name, contentType string, data []byte) (*Asset, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperr.Validation("File name is required")
	}
	if int64(len(data)) > s.maxUpload {
		return nil, apperr.Validation(fmt.Sprintf("File exceeds the %s upload limit", FormatFileSize(s.maxUpload)))
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	key := NewBlobKey(ownerID)
	if err := s.blobs.Put(ctx, key, contentType, data); err != nil {
		return nil, apperr.Wrap(apperr.KindServiceUnavailable, "blob store unavailable", err)
	}
	a := Asset{
		ID:          uuid.NewString(),
		OwnerID:     ownerID,
		Name:        name,
		ContentType: contentType,
		Size:        int64(len(data)),
		SizeLabel:   FormatFileSize(int64(len(data))),
		Category:    CategoryFor(contentType),
		BlobKey:     key,
		UploadedAt:  s.now(),
	}
	if err := s.repo.Assets.Save(ctx, a); err != nil {
		if delErr := s.blobs.Delete(ctx, key); delErr != nil {
			s.logger.Warn("Failed to remove orphaned blob", zap.String("key", key), zap.Error(delErr))
		}
		return nil, storeErr("asset", err)
	}
	return &a, nil
}

func (s *Service) Download(ctx context.Context, ownerID int, id string) (*Asset, []byte, error) {
	a, err := s.repo.Assets.Get(ctx, ownerID, id)
	if err != nil {
		return nil, nil, storeErr("asset", err)
	}
	data, err := s.blobs.Get(ctx, a.BlobKey)
	if errors.Is(err, ErrBlobNotFound) {
		return nil, nil, apperr.New(apperr.KindNotFound, "asset content not found")
	}
	if err != nil {
		return nil, nil, apperr.Wrap(apperr.KindServiceUnavailable, "blob store unavailable", err)
	}
	return &a, data, nil
}

func (s *Service) DeleteAsset(ctx context.Context, ownerID int, id string) error {
	a, err := s.repo.Assets.Get(ctx, ownerID, id)
	if err != nil {
		return storeErr("asset", err)
	}
	if err := s.repo.Assets.Delete(ctx, ownerID, id); err != nil {
		return storeErr("asset", err)
	}
	if err := s.blobs.Delete(ctx, a.BlobKey); err != nil {
		s.logger.Warn("Failed to delete blob", zap.String("key", a.BlobKey), zap.Error(err))
	}
	return nil
}

func (s *Service) ListAssets(ctx context.Context, ownerID int) ([]Asset, error) {
	list, err := s.repo.Assets.List(ctx, ownerID)
	if err != nil {
		return nil, storeErr("asset", err)
	}
	return list, nil
}
