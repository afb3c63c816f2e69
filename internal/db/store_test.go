package db

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	store.now = func() time.Time { return time.Unix(1624406400, 0) }
	return store
}

func TestSettingsDefaultsWhenEmpty(t *testing.T) {
	store := openTestStore(t)

	st, err := store.Settings(context.Background())
	require.NoError(t, err)
	assert.Equal(t, DefaultSettings(), st)
}

func TestSaveSettingsRoundTrip(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	saved, err := store.SaveSettings(ctx, Settings{
		TimerLength:         30 * time.Second,
		RingColor:           "red",
		RingCardColor:       "purple",
		TranscriptCardColor: "teal",
	})
	require.NoError(t, err)
	assert.Equal(t, time.Unix(1624406400, 0), saved.UpdatedAt)

	got, err := store.Settings(ctx)
	require.NoError(t, err)
	assert.Equal(t, 30*time.Second, got.TimerLength)
	assert.Equal(t, "red", got.RingColor)
	assert.Equal(t, "purple", got.RingCardColor)
	assert.Equal(t, "teal", got.TranscriptCardColor)
	assert.Equal(t, int64(1624406400), got.UpdatedAt.Unix())
}

func TestSaveSettingsOverwrites(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	st := DefaultSettings()
	st.TimerLength = 10 * time.Second
	_, err := store.SaveSettings(ctx, st)
	require.NoError(t, err)

	st.TimerLength = 45 * time.Second
	_, err = store.SaveSettings(ctx, st)
	require.NoError(t, err)

	got, err := store.Settings(ctx)
	require.NoError(t, err)
	assert.Equal(t, 45*time.Second, got.TimerLength)
}

func TestSaveSettingsRoundsToWholeSeconds(t *testing.T) {
	store := openTestStore(t)
	st := DefaultSettings()
	st.TimerLength = 12400 * time.Millisecond

	saved, err := store.SaveSettings(context.Background(), st)
	require.NoError(t, err)
	assert.Equal(t, 12*time.Second, saved.TimerLength)
}

func TestSaveSettingsRejectsOutOfRange(t *testing.T) {
	store := openTestStore(t)
	for _, d := range []time.Duration{0, 61 * time.Second, -time.Second} {
		st := DefaultSettings()
		st.TimerLength = d
		_, err := store.SaveSettings(context.Background(), st)
		assert.Error(t, err, "timer length %s", d)
	}
}

func TestResetSettings(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	st := DefaultSettings()
	st.RingColor = "orange"
	_, err := store.SaveSettings(ctx, st)
	require.NoError(t, err)

	reset, err := store.ResetSettings(ctx)
	require.NoError(t, err)
	assert.Equal(t, DefaultSettings(), reset)

	got, err := store.Settings(ctx)
	require.NoError(t, err)
	assert.Equal(t, "blue", got.RingColor)
}

func TestOpenFileDatabaseAndReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "wpm.db")
	store, err := Open(path)
	require.NoError(t, err)

	st := DefaultSettings()
	st.TimerLength = 5 * time.Second
	_, err = store.SaveSettings(context.Background(), st)
	require.NoError(t, err)
	require.NoError(t, store.Close())

	store, err = Open(path)
	require.NoError(t, err)
	defer store.Close()

	got, err := store.Settings(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 5*time.Second, got.TimerLength)
}

func TestMigrateIsIdempotent(t *testing.T) {
	store := openTestStore(t)
	assert.NoError(t, Migrate(store.db))
	assert.NoError(t, Migrate(store.db))
}
