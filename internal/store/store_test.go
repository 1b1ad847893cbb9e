package store

import (
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestRecordsRoundTrip(t *testing.T) {
	s := newTestStore(t)

	count, err := s.RecordCount()
	require.NoError(t, err)
	assert.Zero(t, count)

	records := []json.RawMessage{
		json.RawMessage(`{"id":2}`),
		json.RawMessage(`{"id":1}`),
		json.RawMessage(`{"id":3}`),
	}
	require.NoError(t, s.ReplaceRecords(records))

	got, err := s.ListRecords()
	require.NoError(t, err)
	require.Len(t, got, 3)
	// Insertion order is preserved.
	assert.JSONEq(t, `{"id":2}`, string(got[0]))
	assert.JSONEq(t, `{"id":1}`, string(got[1]))
	assert.JSONEq(t, `{"id":3}`, string(got[2]))

	// Replacing drops the old bank.
	require.NoError(t, s.ReplaceRecords(records[:1]))
	count, err = s.RecordCount()
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestBankInfo(t *testing.T) {
	s := newTestStore(t)

	info, err := s.GetBankInfo()
	require.NoError(t, err)
	assert.Equal(t, BankInfo{}, info)

	packed := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, s.SetBankInfo(BankInfo{
		Source:     "bank.json",
		SourcePath: "/banks/bank.json",
		SourceHash: "abc123",
		Questions:  12,
		PackedAt:   packed,
	}))

	info, err = s.GetBankInfo()
	require.NoError(t, err)
	assert.Equal(t, "bank.json", info.Source)
	assert.Equal(t, "/banks/bank.json", info.SourcePath)
	assert.Equal(t, "abc123", info.SourceHash)
	assert.Equal(t, 12, info.Questions)
	assert.True(t, packed.Equal(info.PackedAt))
}

func TestReopenFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bank.db")
	s, err := New(path)
	require.NoError(t, err)
	require.NoError(t, s.ReplaceRecords([]json.RawMessage{json.RawMessage(`{"id":1}`)}))
	require.NoError(t, s.Close())

	s, err = New(path)
	require.NoError(t, err)
	defer s.Close()
	got, err := s.ListRecords()
	require.NoError(t, err)
	assert.Len(t, got, 1)
}
