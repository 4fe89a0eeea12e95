// Package export writes the transaction list as a CSV document.
package export

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/vadiminshakov/paydash/internal/domain"
)

// Header is the first line of every export.
const Header = "Transaction ID,Sender,Recipient,Amount (USDT),Fee (USDT),Total,Status,Timestamp"

// ErrNothingToExport is returned for an empty transaction list.
var ErrNothingToExport = errors.New("no transactions to export")

// FileName returns the export file name for the given day (UTC).
func FileName(now time.Time) string {
	return fmt.Sprintf("blockchain_transactions_%s.csv", now.UTC().Format("2006-01-02"))
}

// WriteCSV writes the header and one row per transaction. Text columns are quoted,
// money columns are written unquoted with two decimals.
func WriteCSV(w io.Writer, txs []domain.Transaction) error {
	if len(txs) == 0 {
		return ErrNothingToExport
	}

	bw := bufio.NewWriter(w)
	if _, err := bw.WriteString(Header + "\n"); err != nil {
		return errors.Wrap(err, "failed to write csv header")
	}

	for _, tx := range txs {
		if _, err := bw.WriteString(Row(tx) + "\n"); err != nil {
			return errors.Wrapf(err, "failed to write csv row for %s", tx.ID)
		}
	}

	return errors.Wrap(bw.Flush(), "failed to flush csv")
}

// Row formats a single transaction as a CSV line without the trailing newline.
func Row(tx domain.Transaction) string {
	return strings.Join([]string{
		quote(tx.ID),
		quote(tx.Sender),
		quote(tx.Recipient),
		tx.Amount.StringFixed(2),
		tx.Fee.StringFixed(2),
		tx.Total().StringFixed(2),
		quote(tx.Status.String()),
		quote(tx.Timestamp),
	}, ",")
}

// ToFile writes the export into dir and returns the file path.
func ToFile(dir string, txs []domain.Transaction, now time.Time) (string, error) {
	if len(txs) == 0 {
		return "", ErrNothingToExport
	}

	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", errors.Wrapf(err, "failed to create export dir %s", dir)
	}

	path := filepath.Join(dir, FileName(now))
	f, err := os.Create(path)
	if err != nil {
		return "", errors.Wrapf(err, "failed to create %s", path)
	}
	defer f.Close()

	if err := WriteCSV(f, txs); err != nil {
		return "", err
	}

	return path, nil
}

func quote(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}
