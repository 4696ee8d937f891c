package report

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/congo-pay/txengine/internal/ledger"
)

// Header is the first line of every CSV report.
const Header = "client, available, held, total, locked"

// CSVSink renders accounts as `client, available, held, total, locked` lines.
type CSVSink struct {
	w io.Writer
}

// NewCSVSink writes reports to w.
func NewCSVSink(w io.Writer) *CSVSink {
	return &CSVSink{w: w}
}

func (s *CSVSink) Write(_ context.Context, _ string, accounts []ledger.Account) error {
	return WriteCSV(s.w, accounts)
}

// WriteCSV renders accounts to w.
func WriteCSV(w io.Writer, accounts []ledger.Account) error {
	bw := bufio.NewWriter(w)
	if _, err := fmt.Fprintln(bw, Header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, a := range accounts {
		_, err := fmt.Fprintf(bw, "%d, %s, %s, %s, %s\n",
			a.Client, a.Available, a.Held, a.Total(), strconv.FormatBool(a.Locked))
		if err != nil {
			return fmt.Errorf("write client %d: %w", a.Client, err)
		}
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("flush report: %w", err)
	}
	return nil
}
