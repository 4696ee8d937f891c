package source

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/congo-pay/txengine/internal/ledger"
)

var (
	// ErrMissingColumn indicates a required header or field is absent.
	ErrMissingColumn = errors.New("missing column")

	// ErrInvalidClient indicates the client field is not a valid client id.
	ErrInvalidClient = errors.New("invalid client id")

	// ErrInvalidTx indicates the tx field is not a valid transaction id.
	ErrInvalidTx = errors.New("invalid tx id")
)

// SourceError describes a malformed row or a read failure.
type SourceError struct {
	Line int
	Err  error
}

func (e *SourceError) Error() string {
	return fmt.Sprintf("line %d: %v", e.Line, e.Err)
}

func (e *SourceError) Unwrap() error { return e.Err }

const (
	colType   = "type"
	colClient = "client"
	colTx     = "tx"
	colAmount = "amount"
)

// CSVReader streams records from CSV text with a `type, client, tx, amount`
// header. Header names are case-insensitive and may appear in any order.
type CSVReader struct {
	r    *csv.Reader
	cols map[string]int
	line int
}

// NewCSVReader consumes the header row from r.
func NewCSVReader(r io.Reader) (*CSVReader, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	cr.ReuseRecord = true

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, &SourceError{Line: 1, Err: fmt.Errorf("%w: empty input", ErrMissingColumn)}
		}
		return nil, &SourceError{Line: 1, Err: err}
	}

	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[strings.ToLower(strings.TrimSpace(name))] = i
	}
	for _, required := range []string{colType, colClient, colTx} {
		if _, ok := cols[required]; !ok {
			return nil, &SourceError{Line: 1, Err: fmt.Errorf("%w: %s", ErrMissingColumn, required)}
		}
	}

	return &CSVReader{r: cr, cols: cols, line: 1}, nil
}

// Open opens the CSV file at path. The caller must close the returned file.
func Open(path string) (*CSVReader, io.Closer, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("open %s: %w", path, err)
	}
	r, err := NewCSVReader(f)
	if err != nil {
		f.Close()
		return nil, nil, err
	}
	return r, f, nil
}

// Line reports the line number of the most recently read row.
func (c *CSVReader) Line() int { return c.line }

// Next returns the next record, or io.EOF once the input is exhausted.
func (c *CSVReader) Next() (ledger.Record, error) {
	for {
		row, err := c.r.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return ledger.Record{}, io.EOF
			}
			var perr *csv.ParseError
			if errors.As(err, &perr) {
				c.line = perr.Line
			} else {
				c.line++
			}
			return ledger.Record{}, &SourceError{Line: c.line, Err: err}
		}
		c.line, _ = c.r.FieldPos(0)

		if blank(row) {
			continue
		}

		rec, err := c.decode(row)
		if err != nil {
			return ledger.Record{}, &SourceError{Line: c.line, Err: err}
		}
		return rec, nil
	}
}

func (c *CSVReader) decode(row []string) (ledger.Record, error) {
	kindText, ok := c.field(row, colType)
	if !ok {
		return ledger.Record{}, fmt.Errorf("%w: %s", ErrMissingColumn, colType)
	}
	kind, err := ledger.ParseKind(kindText)
	if err != nil {
		return ledger.Record{}, err
	}

	clientText, ok := c.field(row, colClient)
	if !ok {
		return ledger.Record{}, fmt.Errorf("%w: %s", ErrMissingColumn, colClient)
	}
	client, err := strconv.ParseUint(clientText, 10, 16)
	if err != nil {
		return ledger.Record{}, fmt.Errorf("%w: %q", ErrInvalidClient, clientText)
	}

	txText, ok := c.field(row, colTx)
	if !ok {
		return ledger.Record{}, fmt.Errorf("%w: %s", ErrMissingColumn, colTx)
	}
	tx, err := strconv.ParseUint(txText, 10, 32)
	if err != nil {
		return ledger.Record{}, fmt.Errorf("%w: %q", ErrInvalidTx, txText)
	}

	rec := ledger.Record{Kind: kind, Client: ledger.ClientID(client), Tx: ledger.TxID(tx)}
	if amt, ok := c.field(row, colAmount); ok && amt != "" {
		rec = rec.WithAmount(amt)
	}
	return rec, nil
}

func (c *CSVReader) field(row []string, name string) (string, bool) {
	i, ok := c.cols[name]
	if !ok || i >= len(row) {
		return "", false
	}
	return strings.TrimSpace(row[i]), true
}

func blank(row []string) bool {
	for _, f := range row {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}
