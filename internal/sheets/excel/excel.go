// Package excel is the workbook-backed ledger store. It owns the backing
// xlsx file: loads the whole ledger into memory, assigns sequential ids and
// rewrites the full file on every append.
package excel

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/xuri/excelize/v2"

	"lancamentos/internal/core"
	applog "lancamentos/internal/log"
	"lancamentos/internal/sheets"
)

type Store struct {
	path  string
	sheet string
	log   *applog.Logger

	// Serializes the read-modify-write cycle within this process. Concurrent
	// writers in other processes can still lose updates; that limitation is
	// accepted, not worked around here.
	mu sync.Mutex
}

func New(path, sheet string, logger *applog.Logger) *Store {
	if sheet == "" {
		sheet = "Sheet1"
	}
	if logger == nil {
		logger = applog.New(applog.Config{Component: applog.ComponentLedger})
	}
	return &Store{
		path:  path,
		sheet: sheet,
		log:   logger.WithComponent(applog.ComponentLedger),
	}
}

// Init creates the header-only workbook when the backing file is absent.
func (s *Store) Init() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := os.Stat(s.path); err == nil {
		return nil
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("stat %s: %w", s.path, err)
	}
	if err := s.save(core.Ledger{}); err != nil {
		return err
	}
	s.log.Info("Created header-only ledger file",
		applog.FieldFile, s.path, applog.FieldSheet, s.sheet)
	return nil
}

// Load reads the whole workbook into typed records. A missing file yields an
// empty ledger with no error. Column names are resolved fuzzily, so renamed
// or reordered headers are tolerated; a header without a recognizable date or
// amount column fails with UnresolvedSchemaError and the caller must refuse
// the dataset.
func (s *Store) Load(ctx context.Context) (core.Ledger, error) {
	if err := ctx.Err(); err != nil {
		return core.Ledger{}, err
	}
	if _, err := os.Stat(s.path); os.IsNotExist(err) {
		return core.Ledger{}, nil
	}

	f, err := excelize.OpenFile(s.path)
	if err != nil {
		return core.Ledger{}, fmt.Errorf("open workbook %s: %w", s.path, err)
	}
	defer f.Close()

	sheet := s.sheet
	rows, err := f.GetRows(sheet)
	if err != nil {
		// Fall back to the first sheet: files written by other tools often
		// use a different sheet name.
		list := f.GetSheetList()
		if len(list) == 0 {
			return core.Ledger{}, fmt.Errorf("read workbook %s: %w", s.path, err)
		}
		sheet = list[0]
		rows, err = f.GetRows(sheet)
		if err != nil {
			return core.Ledger{}, fmt.Errorf("read sheet %s: %w", sheet, err)
		}
	}
	if len(rows) == 0 {
		return core.Ledger{}, nil
	}

	header := rows[0]
	mapping, err := sheets.Resolve(header)
	if err != nil {
		s.log.Warn("Ledger schema unresolved",
			applog.FieldFile, s.path, applog.FieldColumns, header)
		return core.Ledger{}, err
	}
	idIdx := sheets.IndexOf(header, core.ColID)
	descIdx := sheets.IndexOf(header, core.ColDescription)
	acctIdx := sheets.IndexOf(header, core.ColAccount)

	var ledger core.Ledger
	for _, row := range rows[1:] {
		if emptyRow(row) {
			continue
		}
		ledger.Records = append(ledger.Records, core.Record{
			ID:          parseID(cell(row, idIdx)),
			IssueDate:   core.LenientDate(cell(row, mapping.DateIdx)),
			Amount:      core.LenientAmount(cell(row, mapping.AmountIdx)),
			Supplier:    strings.TrimSpace(cell(row, mapping.SupplierIdx)),
			Description: strings.TrimSpace(cell(row, descIdx)),
			Account:     strings.TrimSpace(cell(row, acctIdx)),
		})
	}
	return ledger, nil
}

// Append runs one full read-modify-write cycle: load, assign the next id,
// append and rewrite the whole workbook.
func (s *Store) Append(ctx context.Context, c core.Candidate) (int64, error) {
	if err := c.Validate(); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	ledger, err := s.Load(ctx)
	if err != nil {
		return 0, err
	}
	id := ledger.NextID()
	rec := core.NewRecord(id, c)
	ledger.Records = append(ledger.Records, rec)

	if err := s.save(ledger); err != nil {
		return 0, err
	}
	s.log.InfoContext(ctx, "Record appended",
		applog.FieldRecordID, id,
		applog.FieldIssueDate, rec.IssueDate.String(),
		applog.FieldSupplier, rec.Supplier,
		applog.FieldAmount, rec.Amount.String(),
		applog.FieldRecords, len(ledger.Records))
	return id, nil
}

// save rewrites the complete workbook. Date and amount cells carry the
// stored text unchanged, so a load-save cycle with no modification
// reproduces the file's records exactly.
func (s *Store) save(ledger core.Ledger) error {
	if dir := filepath.Dir(s.path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create ledger directory: %w", err)
		}
	}

	f := excelize.NewFile()
	defer f.Close()
	if s.sheet != "Sheet1" {
		if err := f.SetSheetName("Sheet1", s.sheet); err != nil {
			return fmt.Errorf("name sheet %s: %w", s.sheet, err)
		}
	}

	header := make([]interface{}, 0, 6)
	for _, h := range core.Header() {
		header = append(header, h)
	}
	if err := f.SetSheetRow(s.sheet, "A1", &header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for i, r := range ledger.Records {
		cellRef, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return fmt.Errorf("cell name for row %d: %w", i+2, err)
		}
		row := []interface{}{r.ID, r.IssueDate.Raw, r.Amount.Raw, r.Supplier, r.Description, r.Account}
		if err := f.SetSheetRow(s.sheet, cellRef, &row); err != nil {
			return fmt.Errorf("write row %d: %w", i+2, err)
		}
	}

	if err := f.SaveAs(s.path); err != nil {
		return fmt.Errorf("save workbook %s: %w", s.path, err)
	}
	return nil
}

func cell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return row[idx]
}

func emptyRow(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

// parseID tolerates ids rendered as floats by other spreadsheet tools.
func parseID(s string) int64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	if id, err := strconv.ParseInt(s, 10, 64); err == nil {
		return id
	}
	if v, err := strconv.ParseFloat(s, 64); err == nil && v > 0 {
		return int64(v)
	}
	return 0
}
