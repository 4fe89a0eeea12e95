package export

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vadiminshakov/paydash/internal/domain"
)

func TestRow(t *testing.T) {
	tx := domain.Transaction{
		ID:        "T1",
		Sender:    "0xA",
		Recipient: "0xB",
		Amount:    decimal.NewFromFloat(10.5),
		Fee:       decimal.NewFromFloat(0.25),
		Status:    domain.StatusSuccess,
		Timestamp: "2024-01-01 10:00",
	}

	assert.Equal(t, `"T1","0xA","0xB",10.50,0.25,10.75,"SUCCESS","2024-01-01 10:00"`, Row(tx))
}

func TestRow_EscapesQuotes(t *testing.T) {
	tx := domain.Transaction{ID: `a"b`, Status: domain.StatusPending}
	assert.Equal(t, `"a""b","","",0.00,0.00,0.00,"PENDING",""`, Row(tx))
}

func TestWriteCSV(t *testing.T) {
	txs := []domain.Transaction{
		{ID: "T1", Sender: "A", Recipient: "B", Amount: decimal.NewFromInt(100), Fee: decimal.NewFromInt(1), Status: domain.StatusSuccess, Timestamp: "t1"},
		{ID: "T2", Sender: "B", Recipient: "A", Amount: decimal.NewFromInt(5), Fee: decimal.Zero, Status: domain.StatusFailed, Timestamp: "t2"},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, txs))

	expected := Header + "\n" +
		`"T1","A","B",100.00,1.00,101.00,"SUCCESS","t1"` + "\n" +
		`"T2","B","A",5.00,0.00,5.00,"FAILED","t2"` + "\n"
	assert.Equal(t, expected, buf.String())
}

func TestWriteCSV_Empty(t *testing.T) {
	var buf bytes.Buffer
	assert.ErrorIs(t, WriteCSV(&buf, nil), ErrNothingToExport)
	assert.Zero(t, buf.Len())
}

func TestFileName(t *testing.T) {
	now := time.Date(2024, 3, 9, 23, 30, 0, 0, time.FixedZone("X", -2*3600))
	assert.Equal(t, "blockchain_transactions_2024-03-10.csv", FileName(now))
}

func TestToFile(t *testing.T) {
	dir := t.TempDir()
	now := time.Date(2024, 1, 2, 12, 0, 0, 0, time.UTC)

	t.Run("writes file", func(t *testing.T) {
		txs := []domain.Transaction{{ID: "T1", Amount: decimal.NewFromInt(1), Status: domain.StatusSuccess}}
		path, err := ToFile(dir, txs, now)
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(dir, "blockchain_transactions_2024-01-02.csv"), path)

		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Contains(t, string(data), Header)
	})

	t.Run("empty creates nothing", func(t *testing.T) {
		empty := filepath.Join(dir, "empty")
		_, err := ToFile(empty, nil, now)
		assert.ErrorIs(t, err, ErrNothingToExport)
		_, statErr := os.Stat(empty)
		assert.True(t, os.IsNotExist(statErr))
	})
}
