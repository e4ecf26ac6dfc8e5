package probe

import (
	"testing"

	"github.com/itchio/crowbar/archive"
	"github.com/itchio/crowbar/mansion"
	"github.com/stretchr/testify/assert"
)

func TestSummaryRow(t *testing.T) {
	packed := uint64(2048)
	unpacked := uint64(3 * 1024 * 1024)

	row := summaryRow(&mansion.ProbeResult{
		Path:                 "game.zip",
		Format:               "ZIP",
		Entries:              3,
		CompressedBytes:      &packed,
		UncompressedEstimate: &unpacked,
	})
	assert.Equal(t, []string{"game.zip", "ZIP", "3", "2.0 KiB", "3.0 MiB", "no"}, row)

	row = summaryRow(&mansion.ProbeResult{
		Path:      "secret.7z",
		Format:    "7Z",
		Encrypted: true,
	})
	assert.Equal(t, []string{"secret.7z", "7Z", "0", "?", "?", "yes"}, row)
}

func TestEntryRows(t *testing.T) {
	packed := uint64(10)
	rows := entryRows([]*archive.Entry{
		{Path: "test.txt", UncompressedSize: 13, CompressedSize: &packed},
		{Path: "subdir/", IsDir: true},
		{Path: "notes.txt", UncompressedSize: 2048},
	})

	assert.Equal(t, [][]string{
		{"test.txt", "13 B", "10 B"},
		{"subdir/", "-", "-"},
		{"notes.txt", "2.0 KiB", "?"},
	}, rows)
}
