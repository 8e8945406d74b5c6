package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/emodiary/apiserver/internal/storage"
	"github.com/emodiary/apiserver/types"
	"github.com/google/uuid"
)

const defaultExportURLTTL = 15 * time.Minute

// ErrExportsDisabled is returned when no object storage is configured.
var ErrExportsDisabled = errors.New("exports are not enabled")

// Export describes a diary export written to object storage.
type Export struct {
	Key       string    `json:"key"`
	URL       string    `json:"url"`
	Entries   int       `json:"entries"`
	ExpiresAt time.Time `json:"expires_at"`
}

type exportDocument struct {
	UserID     int                `json:"user_id"`
	Email      string             `json:"email"`
	ExportedAt time.Time          `json:"exported_at"`
	Start      *types.Date        `json:"start_date"`
	End        *types.Date        `json:"end_date"`
	Entries    []types.DiaryEntry `json:"entries"`
}

// ExportService writes a user's diary to object storage and hands back a signed link.
type ExportService struct {
	entries EntryRepository
	store   storage.ObjectStorage
	urlTTL  time.Duration
	now     func() time.Time
}

func NewExportService(entries EntryRepository, store storage.ObjectStorage) *ExportService {
	return &ExportService{entries: entries, store: store, urlTTL: defaultExportURLTTL, now: time.Now}
}

// Enabled reports whether an object store is attached.
func (s *ExportService) Enabled() bool {
	return s != nil && s.store != nil
}

// Export uploads the user's entries in r, oldest first, as JSON under exports/<user id>/.
func (s *ExportService) Export(ctx context.Context, user types.User, r DateRange) (Export, error) {
	if !s.Enabled() {
		return Export{}, ErrExportsDisabled
	}
	if err := validateRange(r.Start, r.End); err != nil {
		return Export{}, err
	}

	entries, _, err := s.entries.List(ctx, user.ID, types.EntryFilter{Start: r.Start, End: r.End, Ascending: true})
	if err != nil {
		return Export{}, fmt.Errorf("list entries: %w", err)
	}

	now := s.now().UTC()
	data, err := json.MarshalIndent(exportDocument{
		UserID:     user.ID,
		Email:      user.Email,
		ExportedAt: now,
		Start:      r.Start,
		End:        r.End,
		Entries:    entries,
	}, "", "  ")
	if err != nil {
		return Export{}, err
	}

	key := fmt.Sprintf("exports/%d/%s.json", user.ID, uuid.NewString())
	err = s.store.Put(ctx, storage.Object{
		Key:          key,
		Body:         bytes.NewReader(data),
		Size:         int64(len(data)),
		ContentType:  "application/json",
		DownloadName: fmt.Sprintf("diary-%s.json", now.Format("20060102-150405")),
	})
	if err != nil {
		return Export{}, fmt.Errorf("upload export: %w", err)
	}
	url, err := s.store.SignedURL(ctx, key, s.urlTTL)
	if err != nil {
		// An export nobody can download is removed.
		_ = s.store.Delete(ctx, key)
		return Export{}, fmt.Errorf("sign export url: %w", err)
	}
	return Export{Key: key, URL: url, Entries: len(entries), ExpiresAt: now.Add(s.urlTTL)}, nil
}
