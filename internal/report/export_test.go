package report

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleReport() *Report {
	r := New()
	prod := r.Account("Prod")
	prod.Valid = []string{"snap-a", "snap-b"}
	prod.NonExistent = []string{"snap-gone"}
	prod.Deleted = []string{"snap-a"}
	prod.Failed = []Failure{{Resource: "snap-b", Reason: "disk in use"}}
	r.Account("Unknown").Malformed = []Failure{{Resource: "not-a-valid-id", Reason: "Invalid snapshot ID format"}}
	r.Elapsed = 3270 * time.Millisecond
	return r
}

func TestWriteSummaryLog(t *testing.T) {
	dir := t.TempDir()

	path, err := WriteSummaryLog(dir, sampleReport(), time.Date(2026, 8, 24, 10, 30, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, dir, filepath.Dir(path))
	assert.Contains(t, filepath.Base(path), "snapshot_deletion_log_")
	assert.Contains(t, filepath.Base(path), "20260824-103000")

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	text := string(content)

	assert.Contains(t, text, "Snapshot Deletion Log")
	assert.Contains(t, text, "Subscription: Prod")
	assert.Contains(t, text, "Valid Snapshots: 2")
	assert.Contains(t, text, "Non-existent Snapshots: 1")
	assert.Contains(t, text, "Deleted Snapshots: 1")
	assert.Contains(t, text, "Failed Deletions: 1")
	assert.Contains(t, text, "Total Runtime: 3.27 seconds")
}

func TestWriteCSVEnumeratesEveryOutcome(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.csv")

	require.NoError(t, WriteCSV(path, sampleReport()))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)

	assert.Equal(t, []string{"Subscription", "Status", "Snapshot", "Error"}, rows[0])

	// header + 2 valid + 1 non-existent + 1 deleted + 1 failed + 1 invalid
	assert.Len(t, rows, 7)

	statuses := map[string]int{}
	for _, row := range rows[1:] {
		statuses[row[1]]++
	}
	assert.Equal(t, map[string]int{"valid": 2, "non-existent": 1, "deleted": 1, "failed": 1, "invalid": 1}, statuses)

	var failedRow []string
	for _, row := range rows[1:] {
		if row[1] == "failed" {
			failedRow = row
		}
	}
	require.NotNil(t, failedRow)
	assert.Equal(t, "snap-b", failedRow[2])
	assert.Equal(t, "disk in use", failedRow[3])
}

func TestWriteSummaryLogCreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "logs")

	path, err := WriteSummaryLog(dir, New(), time.Now())
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(path, dir))
}
