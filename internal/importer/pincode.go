// Package importer loads the delivery tier table from a spreadsheet.
package importer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/fjod/go_grocery/internal/domain"
	"github.com/fjod/go_grocery/pkg/logger"
	"github.com/xuri/excelize/v2"
)

const (
	colPinCode    = "Pin Code"
	colPostOffice = "Post Office"
	colDistance   = "Approximate Distance (in km)"

	distanceNotFound = "Not Found"
)

var ErrMissingColumns = errors.New("spreadsheet is missing required columns")

type TierInserter interface {
	InsertTier(ctx context.Context, tier domain.DeliveryTier) error
}

type Result struct {
	Imported int `json:"imported"`
	Skipped  int `json:"skipped"`
}

type PincodeImporter struct {
	store TierInserter
	log   *slog.Logger
}

func NewPincodeImporter(store TierInserter) *PincodeImporter {
	return &PincodeImporter{store: store, log: logger.New("pincode-import")}
}

// Import reads the first sheet of an xlsx workbook. Rows with missing data,
// a "Not Found" distance or a failed insert are counted as skipped.
func (p *PincodeImporter) Import(ctx context.Context, r io.Reader) (Result, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return Result{}, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return Result{}, errors.New("workbook has no sheets")
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return Result{}, fmt.Errorf("read sheet %s: %w", sheets[0], err)
	}
	if len(rows) == 0 {
		return Result{}, ErrMissingColumns
	}

	cols, err := columnIndexes(rows[0])
	if err != nil {
		return Result{}, err
	}
	p.log.InfoContext(ctx, "importing pincodes", "rows", len(rows)-1, "sheet", sheets[0])

	var res Result
	for i, row := range rows[1:] {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		tier, ok := parseRow(row, cols)
		if !ok {
			p.log.DebugContext(ctx, "skipping row due to missing data or 'Not Found' distance", "row", i+2)
			res.Skipped++
			continue
		}
		if err := p.store.InsertTier(ctx, tier); err != nil {
			p.log.WarnContext(ctx, "skipping row due to import error", "row", i+2, "pincode", tier.PostalCode, "error", err)
			res.Skipped++
			continue
		}
		res.Imported++
	}

	p.log.InfoContext(ctx, "import completed", "imported", res.Imported, "skipped", res.Skipped)
	return res, nil
}

type columns struct {
	pin, office, distance int
}

func columnIndexes(header []string) (columns, error) {
	c := columns{pin: -1, office: -1, distance: -1}
	for i, h := range header {
		switch strings.TrimSpace(h) {
		case colPinCode:
			c.pin = i
		case colPostOffice:
			c.office = i
		case colDistance:
			c.distance = i
		}
	}
	if c.pin < 0 || c.office < 0 || c.distance < 0 {
		return c, ErrMissingColumns
	}
	return c, nil
}

func parseRow(row []string, c columns) (domain.DeliveryTier, bool) {
	cell := func(i int) string {
		if i < len(row) {
			return strings.TrimSpace(row[i])
		}
		return ""
	}
	pin, office, dist := cell(c.pin), cell(c.office), cell(c.distance)
	if pin == "" || office == "" || dist == "" || dist == distanceNotFound {
		return domain.DeliveryTier{}, false
	}

	code, err := strconv.Atoi(pin)
	if err != nil || code <= 0 {
		return domain.DeliveryTier{}, false
	}
	// a zero distance marks an unsurveyed office in the source sheets
	km, err := strconv.ParseFloat(dist, 64)
	if err != nil || km <= 0 {
		return domain.DeliveryTier{}, false
	}
	return domain.DeliveryTier{PostalCode: code, DistanceKm: km, OriginLabel: office}, true
}
