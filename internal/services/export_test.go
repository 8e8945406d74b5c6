package services_test

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/emodiary/apiserver/internal/services"
	"github.com/emodiary/apiserver/internal/testhelpers"
	"github.com/emodiary/apiserver/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExportWritesEntriesToStorage(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user := f.register(t, "p@example.com", types.RolePatient)
	f.writeEntry(t, user, day(2), services.EntryInput{Notes: "second"})
	f.writeEntry(t, user, day(1), services.EntryInput{Notes: "first"})

	objects := testhelpers.NewMemoryObjectStorage()
	exports := services.NewExportService(f.db.Entries(), objects)
	require.True(t, exports.Enabled())

	export, err := exports.Export(ctx, user, services.DateRange{})
	require.NoError(t, err)
	assert.Equal(t, 2, export.Entries)
	assert.True(t, strings.HasPrefix(export.Key, "exports/"))
	assert.Contains(t, export.URL, export.Key)
	assert.Equal(t, "application/json", objects.ContentType(export.Key))
	assert.True(t, strings.HasPrefix(objects.ContentDisposition(export.Key), "attachment; filename=diary-"))

	data, ok := objects.Object(export.Key)
	require.True(t, ok)

	var doc struct {
		UserID  int                `json:"user_id"`
		Entries []types.DiaryEntry `json:"entries"`
	}
	require.NoError(t, json.Unmarshal(data, &doc))
	assert.Equal(t, user.ID, doc.UserID)
	require.Len(t, doc.Entries, 2)
	assert.Equal(t, "first", doc.Entries[0].Notes)
}

func TestExportDisabledWithoutStorage(t *testing.T) {
	f := newFixture(t)
	user := f.register(t, "p@example.com", types.RolePatient)

	exports := services.NewExportService(f.db.Entries(), nil)
	assert.False(t, exports.Enabled())
	_, err := exports.Export(context.Background(), user, services.DateRange{})
	assert.ErrorIs(t, err, services.ErrExportsDisabled)
}

func TestExportRemovesObjectWhenSigningFails(t *testing.T) {
	f := newFixture(t)
	user := f.register(t, "p@example.com", types.RolePatient)
	f.writeEntry(t, user, day(1), services.EntryInput{Notes: "only"})

	objects := testhelpers.NewMemoryObjectStorage()
	objects.SignErr = errors.New("no signing key")
	exports := services.NewExportService(f.db.Entries(), objects)

	_, err := exports.Export(context.Background(), user, services.DateRange{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sign export url")
	assert.Equal(t, 0, objects.Len())
}
