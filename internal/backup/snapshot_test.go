package backup

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecode(t *testing.T) {
	snap := Snapshot{
		Version:   snapshotVersion,
		TenantID:  "tenant-a",
		CreatedAt: time.Date(2026, 5, 1, 2, 0, 0, 0, time.UTC),
		Tables: map[string]json.RawMessage{
			"projects": json.RawMessage(`[{"id":"p1","tenant_id":"tenant-a"}]`),
		},
	}

	data, sum, err := Encode(snap)
	require.NoError(t, err)
	assert.Len(t, sum, 64)
	assert.Equal(t, sum, Checksum(data))

	got, err := Decode(data)
	require.NoError(t, err)
	assert.Equal(t, "tenant-a", got.TenantID)
	assert.JSONEq(t, `[{"id":"p1","tenant_id":"tenant-a"}]`, string(got.Tables["projects"]))
}

func TestDecode_RejectsGarbage(t *testing.T) {
	_, err := Decode([]byte("not gzip"))
	assert.Error(t, err)
}

func TestDecode_RejectsUnknownVersion(t *testing.T) {
	data, _, err := Encode(Snapshot{Version: 99, TenantID: "tenant-a"})
	require.NoError(t, err)
	_, err = Decode(data)
	assert.ErrorContains(t, err, "unsupported snapshot version")
}
