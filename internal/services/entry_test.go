package services_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/emodiary/apiserver/internal/services"
	"github.com/emodiary/apiserver/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateEntryRejectsDuplicateDate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user := f.register(t, "p@example.com", types.RolePatient)

	in := services.EntryInput{Date: day(1), Emotions: map[string]int{"joy": 7}}
	entry, err := f.entries.Create(ctx, user, in)
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"joy": 7}, entry.Emotions)

	_, err = f.entries.Create(ctx, user, in)
	assert.ErrorIs(t, err, services.ErrDuplicateDate)

	other := f.register(t, "q@example.com", types.RolePatient)
	_, err = f.entries.Create(ctx, other, in)
	assert.NoError(t, err)
}

func TestConcurrentCreatesYieldOneEntry(t *testing.T) {
	f := newFixture(t)
	user := f.register(t, "p@example.com", types.RolePatient)

	const writers = 8
	var (
		wg         sync.WaitGroup
		mu         sync.Mutex
		ok, dupes  int
		unexpected []error
	)
	for range writers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.entries.Create(context.Background(), user, services.EntryInput{Date: day(2)})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				ok++
			case errors.Is(err, services.ErrDuplicateDate):
				dupes++
			default:
				unexpected = append(unexpected, err)
			}
		}()
	}
	wg.Wait()

	assert.Empty(t, unexpected)
	assert.Equal(t, 1, ok)
	assert.Equal(t, writers-1, dupes)
}

func TestEntryOwnership(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.register(t, "owner@example.com", types.RolePatient)
	intruder := f.register(t, "intruder@example.com", types.RolePatient)
	entry := f.writeEntry(t, owner, day(3), services.EntryInput{Notes: "private"})

	_, err := f.entries.Get(ctx, intruder, entry.ID)
	assert.ErrorIs(t, err, services.ErrNotFound)
	_, err = f.entries.Update(ctx, intruder, entry.ID, services.EntryInput{Date: day(3)})
	assert.ErrorIs(t, err, services.ErrNotFound)
	assert.ErrorIs(t, f.entries.Delete(ctx, intruder, entry.ID), services.ErrNotFound)

	got, err := f.entries.Get(ctx, owner, entry.ID)
	require.NoError(t, err)
	assert.Equal(t, "private", got.Notes)
}

func TestUpdateEntry(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user := f.register(t, "p@example.com", types.RolePatient)
	first := f.writeEntry(t, user, day(1), services.EntryInput{})
	f.writeEntry(t, user, day(2), services.EntryInput{})

	updated, err := f.entries.Update(ctx, user, first.ID, services.EntryInput{Date: day(5), SelfHarm: true, Notes: " note "})
	require.NoError(t, err)
	assert.True(t, updated.SelfHarm)
	assert.Equal(t, "note", updated.Notes)
	assert.Equal(t, "2024-01-05", updated.Date.String())

	_, err = f.entries.Update(ctx, user, first.ID, services.EntryInput{Date: day(2)})
	assert.ErrorIs(t, err, services.ErrDuplicateDate)

	require.NoError(t, f.entries.Delete(ctx, user, first.ID))
	_, err = f.entries.Get(ctx, user, first.ID)
	assert.ErrorIs(t, err, services.ErrNotFound)
}

func TestEntryValidation(t *testing.T) {
	f := newFixture(t)
	user := f.register(t, "p@example.com", types.RolePatient)

	tests := []struct {
		name string
		in   services.EntryInput
	}{
		{name: "missing date", in: services.EntryInput{}},
		{name: "blank emotion", in: services.EntryInput{Date: day(1), Emotions: map[string]int{" ": 3}}},
		{name: "intensity too high", in: services.EntryInput{Date: day(1), Emotions: map[string]int{"joy": 11}}},
		{name: "negative intensity", in: services.EntryInput{Date: day(1), Emotions: map[string]int{"joy": -1}}},
		{name: "names collide after trimming", in: services.EntryInput{Date: day(1), Emotions: map[string]int{"joy": 3, " joy": 9}}},
		{name: "emotion name too long", in: services.EntryInput{Date: day(1), Emotions: map[string]int{strings.Repeat("x", 51): 3}}},
		{name: "notes too long", in: services.EntryInput{Date: day(1), Notes: strings.Repeat("n", 5001)}},
		{name: "medication notes too long", in: services.EntryInput{Date: day(1), MedicationsNotes: strings.Repeat("m", 1001)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.entries.Create(context.Background(), user, tt.in)
			var verr *services.ValidationError
			assert.ErrorAs(t, err, &verr)
		})
	}
}

func TestEntryLimitsCountCharacters(t *testing.T) {
	f := newFixture(t)
	user := f.register(t, "p@example.com", types.RolePatient)

	name := strings.Repeat("ש", 50)
	entry, err := f.entries.Create(context.Background(), user, services.EntryInput{
		Date:     day(1),
		Emotions: map[string]int{" " + name + " ": 4},
		Notes:    strings.Repeat("ה", 5000),
	})
	require.NoError(t, err)
	assert.Equal(t, map[string]int{name: 4}, entry.Emotions)
}

func TestListEntries(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user := f.register(t, "p@example.com", types.RolePatient)
	for _, d := range []int{3, 1, 4, 2} {
		f.writeEntry(t, user, day(d), services.EntryInput{})
	}

	all, total, err := f.entries.List(ctx, user, types.EntryFilter{})
	require.NoError(t, err)
	assert.Equal(t, 4, total)
	assert.Equal(t, []string{"2024-01-04", "2024-01-03", "2024-01-02", "2024-01-01"}, entryDates(all))

	start, end := day(2), day(3)
	ranged, total, err := f.entries.List(ctx, user, types.EntryFilter{Start: &start, End: &end})
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	assert.Equal(t, []string{"2024-01-03", "2024-01-02"}, entryDates(ranged))

	page, total, err := f.entries.List(ctx, user, types.EntryFilter{Offset: 1, Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, 4, total)
	assert.Equal(t, []string{"2024-01-03", "2024-01-02"}, entryDates(page))

	_, _, err = f.entries.List(ctx, user, types.EntryFilter{Start: &end, End: &start})
	var verr *services.ValidationError
	assert.ErrorAs(t, err, &verr)
}

func entryDates(entries []types.DiaryEntry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.Date.String()
	}
	return out
}
