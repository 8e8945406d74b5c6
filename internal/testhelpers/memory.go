// Package testhelpers provides in-memory repositories and container-backed infrastructure for
// tests.
package testhelpers

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/emodiary/apiserver/internal/mail"
	"github.com/emodiary/apiserver/internal/storage"
	"github.com/emodiary/apiserver/internal/store"
	"github.com/emodiary/apiserver/types"
)

type reminderKey struct {
	userID int
	day    string
}

type linkKey struct {
	therapistID int
	patientID   int
}

// MemoryDB is a map-backed stand-in for the Postgres repositories. It enforces the same
// uniqueness and ownership rules so services can be tested without a database.
type MemoryDB struct {
	mu sync.Mutex

	// Clock stamps created_at columns. Defaults to time.Now.
	Clock func() time.Time

	nextID            int
	users             map[int]types.User
	patientProfiles   map[int]types.PatientProfile
	therapistProfiles map[int]types.TherapistProfile
	entries           map[int]types.DiaryEntry
	links             map[linkKey]time.Time
	notifications     map[int]types.Notification
	reminderDays      map[reminderKey]bool
	settings          map[int]types.NotificationSetting
}

func NewMemoryDB() *MemoryDB {
	return &MemoryDB{
		Clock:             time.Now,
		users:             make(map[int]types.User),
		patientProfiles:   make(map[int]types.PatientProfile),
		therapistProfiles: make(map[int]types.TherapistProfile),
		entries:           make(map[int]types.DiaryEntry),
		links:             make(map[linkKey]time.Time),
		notifications:     make(map[int]types.Notification),
		reminderDays:      make(map[reminderKey]bool),
		settings:          make(map[int]types.NotificationSetting),
	}
}

func (db *MemoryDB) id() int {
	db.nextID++
	return db.nextID
}

func (db *MemoryDB) Users() *MemoryUsers                 { return &MemoryUsers{db: db} }
func (db *MemoryDB) Entries() *MemoryEntries             { return &MemoryEntries{db: db} }
func (db *MemoryDB) Relationships() *MemoryRelationships { return &MemoryRelationships{db: db} }
func (db *MemoryDB) Notifications() *MemoryNotifications { return &MemoryNotifications{db: db} }

// AllNotifications returns every stored notification ordered by id.
func (db *MemoryDB) AllNotifications() []types.Notification {
	db.mu.Lock()
	defer db.mu.Unlock()
	out := make([]types.Notification, 0, len(db.notifications))
	for _, n := range db.notifications {
		out = append(out, n)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// MemoryUsers implements the user repository.
type MemoryUsers struct{ db *MemoryDB }

func (r *MemoryUsers) GetByID(_ context.Context, id int) (types.User, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	user, ok := r.db.users[id]
	if !ok {
		return types.User{}, store.ErrNotFound
	}
	return user, nil
}

func (r *MemoryUsers) GetByEmail(_ context.Context, email string) (types.User, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for _, user := range r.db.users {
		if user.Email == email {
			return user, nil
		}
	}
	return types.User{}, store.ErrNotFound
}

func (r *MemoryUsers) Create(_ context.Context, user types.User) (types.User, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for _, existing := range r.db.users {
		if existing.Email == user.Email {
			return types.User{}, store.ErrEmailTaken
		}
	}
	user.ID = r.db.id()
	user.CreatedAt = r.db.Clock().UTC()
	r.db.users[user.ID] = user
	switch user.Role {
	case types.RolePatient:
		r.db.patientProfiles[user.ID] = types.PatientProfile{UserID: user.ID}
	case types.RoleTherapist:
		r.db.therapistProfiles[user.ID] = types.TherapistProfile{UserID: user.ID}
	default:
		delete(r.db.users, user.ID)
		return types.User{}, fmt.Errorf("unknown role %q", user.Role)
	}
	return user, nil
}

func (r *MemoryUsers) GetPatientProfile(_ context.Context, userID int) (types.PatientProfile, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	profile, ok := r.db.patientProfiles[userID]
	if !ok {
		return types.PatientProfile{}, store.ErrNotFound
	}
	return profile, nil
}

func (r *MemoryUsers) UpdatePatientProfile(_ context.Context, profile types.PatientProfile) (types.PatientProfile, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if _, ok := r.db.patientProfiles[profile.UserID]; !ok {
		return types.PatientProfile{}, store.ErrNotFound
	}
	r.db.patientProfiles[profile.UserID] = profile
	return profile, nil
}

func (r *MemoryUsers) GetTherapistProfile(_ context.Context, userID int) (types.TherapistProfile, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	profile, ok := r.db.therapistProfiles[userID]
	if !ok {
		return types.TherapistProfile{}, store.ErrNotFound
	}
	return profile, nil
}

func (r *MemoryUsers) UpdateTherapistProfile(_ context.Context, profile types.TherapistProfile) (types.TherapistProfile, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if _, ok := r.db.therapistProfiles[profile.UserID]; !ok {
		return types.TherapistProfile{}, store.ErrNotFound
	}
	r.db.therapistProfiles[profile.UserID] = profile
	return profile, nil
}

// MemoryEntries implements the diary entry repository.
type MemoryEntries struct{ db *MemoryDB }

func (r *MemoryEntries) dateTakenLocked(userID int, date types.Date, exceptID int) bool {
	for _, entry := range r.db.entries {
		if entry.UserID == userID && entry.ID != exceptID && entry.Date.Equal(date) {
			return true
		}
	}
	return false
}

func (r *MemoryEntries) Create(_ context.Context, entry types.DiaryEntry) (types.DiaryEntry, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if r.dateTakenLocked(entry.UserID, entry.Date, 0) {
		return types.DiaryEntry{}, store.ErrDuplicateDate
	}
	now := r.db.Clock().UTC()
	entry.ID = r.db.id()
	entry.CreatedAt = now
	entry.UpdatedAt = now
	r.db.entries[entry.ID] = entry
	return entry, nil
}

func (r *MemoryEntries) Get(_ context.Context, userID, id int) (types.DiaryEntry, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	entry, ok := r.db.entries[id]
	if !ok || entry.UserID != userID {
		return types.DiaryEntry{}, store.ErrNotFound
	}
	return entry, nil
}

func (r *MemoryEntries) Update(_ context.Context, entry types.DiaryEntry) (types.DiaryEntry, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	existing, ok := r.db.entries[entry.ID]
	if !ok || existing.UserID != entry.UserID {
		return types.DiaryEntry{}, store.ErrNotFound
	}
	if r.dateTakenLocked(entry.UserID, entry.Date, entry.ID) {
		return types.DiaryEntry{}, store.ErrDuplicateDate
	}
	entry.CreatedAt = existing.CreatedAt
	entry.UpdatedAt = r.db.Clock().UTC()
	r.db.entries[entry.ID] = entry
	return entry, nil
}

func (r *MemoryEntries) Delete(_ context.Context, userID, id int) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	entry, ok := r.db.entries[id]
	if !ok || entry.UserID != userID {
		return store.ErrNotFound
	}
	delete(r.db.entries, id)
	return nil
}

func (r *MemoryEntries) List(_ context.Context, userID int, filter types.EntryFilter) ([]types.DiaryEntry, int, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	matched := make([]types.DiaryEntry, 0)
	for _, entry := range r.db.entries {
		if entry.UserID != userID {
			continue
		}
		if filter.Start != nil && entry.Date.Before(filter.Start.Time) {
			continue
		}
		if filter.End != nil && entry.Date.After(filter.End.Time) {
			continue
		}
		matched = append(matched, entry)
	}
	sort.Slice(matched, func(i, j int) bool {
		if filter.Ascending {
			return matched[i].Date.Before(matched[j].Date.Time)
		}
		return matched[i].Date.After(matched[j].Date.Time)
	})
	total := len(matched)
	if filter.Offset > 0 {
		if filter.Offset >= len(matched) {
			matched = matched[:0]
		} else {
			matched = matched[filter.Offset:]
		}
	}
	if filter.Limit > 0 && len(matched) > filter.Limit {
		matched = matched[:filter.Limit]
	}
	return matched, total, nil
}

func (r *MemoryEntries) HasEntryOn(_ context.Context, userID int, date types.Date) (bool, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	return r.dateTakenLocked(userID, date, 0), nil
}

func (r *MemoryEntries) LastEntryDate(_ context.Context, userID int) (*types.Date, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var last *types.Date
	for _, entry := range r.db.entries {
		if entry.UserID != userID {
			continue
		}
		if last == nil || entry.Date.After(last.Time) {
			d := entry.Date
			last = &d
		}
	}
	return last, nil
}

// MemoryRelationships implements the relationship repository.
type MemoryRelationships struct{ db *MemoryDB }

func (r *MemoryRelationships) Link(_ context.Context, therapistID, patientID int) (types.TherapistPatientLink, bool, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	key := linkKey{therapistID: therapistID, patientID: patientID}
	if createdAt, ok := r.db.links[key]; ok {
		return types.TherapistPatientLink{TherapistID: therapistID, PatientID: patientID, CreatedAt: createdAt}, false, nil
	}
	createdAt := r.db.Clock().UTC()
	r.db.links[key] = createdAt
	return types.TherapistPatientLink{TherapistID: therapistID, PatientID: patientID, CreatedAt: createdAt}, true, nil
}

func (r *MemoryRelationships) Unlink(_ context.Context, therapistID, patientID int) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	key := linkKey{therapistID: therapistID, patientID: patientID}
	if _, ok := r.db.links[key]; !ok {
		return store.ErrNotFound
	}
	delete(r.db.links, key)
	return nil
}

func (r *MemoryRelationships) IsLinked(_ context.Context, therapistID, patientID int) (bool, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	_, ok := r.db.links[linkKey{therapistID: therapistID, patientID: patientID}]
	return ok, nil
}

func (r *MemoryRelationships) PatientsOf(_ context.Context, therapistID int) ([]types.User, error) {
	return r.collect(func(k linkKey) (int, bool) { return k.patientID, k.therapistID == therapistID }), nil
}

func (r *MemoryRelationships) TherapistsOf(_ context.Context, patientID int) ([]types.User, error) {
	return r.collect(func(k linkKey) (int, bool) { return k.therapistID, k.patientID == patientID }), nil
}

func (r *MemoryRelationships) collect(match func(linkKey) (int, bool)) []types.User {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	users := make([]types.User, 0)
	for key := range r.db.links {
		if id, ok := match(key); ok {
			if user, exists := r.db.users[id]; exists {
				users = append(users, user)
			}
		}
	}
	sort.Slice(users, func(i, j int) bool { return users[i].ID < users[j].ID })
	return users
}

// MemoryNotifications implements the notification repository.
type MemoryNotifications struct{ db *MemoryDB }

func (r *MemoryNotifications) Create(_ context.Context, n types.Notification) (types.Notification, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	n.ID = r.db.id()
	n.IsRead = false
	n.CreatedAt = r.db.Clock().UTC()
	r.db.notifications[n.ID] = n
	return n, nil
}

func (r *MemoryNotifications) Unread(_ context.Context, userID int) ([]types.Notification, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	out := make([]types.Notification, 0)
	for _, n := range r.db.notifications {
		if n.UserID == userID && !n.IsRead {
			out = append(out, n)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (r *MemoryNotifications) MarkRead(_ context.Context, userID, id int) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	n, ok := r.db.notifications[id]
	if !ok || n.UserID != userID {
		return store.ErrNotFound
	}
	n.IsRead = true
	r.db.notifications[id] = n
	return nil
}

func (r *MemoryNotifications) CreateReminder(_ context.Context, n types.Notification, day types.Date) (types.Notification, bool, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	key := reminderKey{userID: n.UserID, day: day.String()}
	if r.db.reminderDays[key] {
		return types.Notification{}, false, nil
	}
	r.db.reminderDays[key] = true
	n.ID = r.db.id()
	n.Type = types.NotificationReminder
	n.IsRead = false
	n.CreatedAt = r.db.Clock().UTC()
	r.db.notifications[n.ID] = n
	return n, true, nil
}

func (r *MemoryNotifications) GetSettings(_ context.Context, userID int) (types.NotificationSetting, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	s, ok := r.db.settings[userID]
	if !ok {
		return types.NotificationSetting{}, store.ErrNotFound
	}
	return s, nil
}

func (r *MemoryNotifications) UpsertSettings(_ context.Context, s types.NotificationSetting) (types.NotificationSetting, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	s.UpdatedAt = r.db.Clock().UTC()
	r.db.settings[s.UserID] = s
	return s, nil
}

func (r *MemoryNotifications) SettingsDueAt(_ context.Context, minute string) ([]types.NotificationSetting, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	out := make([]types.NotificationSetting, 0)
	for _, s := range r.db.settings {
		if s.ReminderTime == minute {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UserID < out[j].UserID })
	return out, nil
}

// MailRecorder captures enqueued mail. Set Err to make Enqueue fail.
type MailRecorder struct {
	mu   sync.Mutex
	sent []mail.Message
	Err  error
}

func (m *MailRecorder) Enqueue(_ context.Context, msg mail.Message) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return "", m.Err
	}
	msg.ID = fmt.Sprintf("mail-%d", len(m.sent)+1)
	m.sent = append(m.sent, msg)
	return msg.ID, nil
}

func (m *MailRecorder) Messages() []mail.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]mail.Message(nil), m.sent...)
}

// MemoryObjectStorage keeps objects in a map.
type MemoryObjectStorage struct {
	// SignErr, when set, is returned by SignedURL.
	SignErr error

	mu           sync.Mutex
	objects      map[string][]byte
	types        map[string]string
	dispositions map[string]string
}

func NewMemoryObjectStorage() *MemoryObjectStorage {
	return &MemoryObjectStorage{
		objects:      make(map[string][]byte),
		types:        make(map[string]string),
		dispositions: make(map[string]string),
	}
}

func (s *MemoryObjectStorage) EnsureBucket(context.Context) error { return nil }

func (s *MemoryObjectStorage) Put(_ context.Context, obj storage.Object) error {
	data, err := io.ReadAll(obj.Body)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[obj.Key] = data
	s.types[obj.Key] = obj.ContentType
	s.dispositions[obj.Key] = obj.ContentDisposition()
	return nil
}

// Object returns the stored bytes of key.
func (s *MemoryObjectStorage) Object(key string) ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.objects[key]
	return append([]byte(nil), data...), ok
}

func (s *MemoryObjectStorage) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.objects, key)
	delete(s.types, key)
	delete(s.dispositions, key)
	return nil
}

func (s *MemoryObjectStorage) SignedURL(_ context.Context, key string, expiry time.Duration) (string, error) {
	if s.SignErr != nil {
		return "", s.SignErr
	}
	return fmt.Sprintf("memory://test-bucket/%s?expires=%d", strings.TrimPrefix(key, "/"), int(expiry.Seconds())), nil
}

func (s *MemoryObjectStorage) Bucket() string { return "test-bucket" }

func (s *MemoryObjectStorage) Close() error { return nil }

// ContentType returns the content type an object was stored with.
func (s *MemoryObjectStorage) ContentType(key string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.types[key]
}

// ContentDisposition returns the disposition header an object was stored with.
func (s *MemoryObjectStorage) ContentDisposition(key string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dispositions[key]
}

// Len returns the number of stored objects.
func (s *MemoryObjectStorage) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.objects)
}
