package table

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPitRecords(t *testing.T) {
	fa := testFace(t, 1, "n", "a")
	fb := testFace(t, 2, "n", "b")

	pit := NewPit()
	entry, isNew := pit.FindOrInsert("/p/1", nil)
	require.True(t, isNew)

	_, again := pit.FindOrInsert("/p/1", nil)
	assert.False(t, again)
	assert.Equal(t, 1, pit.Len())

	now := time.Unix(0, 0)
	existed := entry.InsertInRecord(fa, 7, now.Add(4*time.Second))
	assert.False(t, existed)
	existed = entry.InsertInRecord(fa, 8, now.Add(4*time.Second))
	assert.True(t, existed)
	assert.Len(t, entry.InRecords(), 1)

	entry.InsertOutRecord(fb, 8, now)
	assert.Len(t, entry.OutRecords(), 1)

	assert.True(t, entry.HasNonce(8))
	assert.False(t, entry.HasNonce(9))

	entry.RemoveOutRecord(fb.ID())
	assert.Empty(t, entry.OutRecords())

	pit.Remove(entry)
	assert.Nil(t, pit.Find("/p/1"))
	assert.Equal(t, 0, pit.Len())
}

func TestPitRemoveCancelsExpiry(t *testing.T) {
	pit := NewPit()
	entry, _ := pit.FindOrInsert("/p/1", nil)

	canceled := false
	entry.SetExpiryCancel(func() error {
		canceled = true
		return nil
	})
	pit.Remove(entry)
	assert.True(t, canceled)
}
