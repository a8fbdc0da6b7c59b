package extract

import (
	"bufio"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"

	"github.com/gyeh/mrfscan/internal/model"
)

// maxCodePairs bounds the code|N / code|N|type column pairs scanned in
// tall-format files; published files use at most four.
const maxCodePairs = 8

var modifierSeparators = regexp.MustCompile(`[,|]`)

// payerIDPattern matches "Payer Name [payer-id]" payer cells.
var payerIDPattern = regexp.MustCompile(`(.*)\[(.*?)\]\s*$`)

// CSVExtractor streams a tall-format CSV MRF: two metadata rows, one
// header row, then one data row per code/payer combination. Rows are
// processed one at a time; memory does not grow with file size.
type CSVExtractor struct {
	reader *csv.Reader
	meta   Metadata
	colIdx map[string]int
}

// NewCSVExtractor prepares a streaming reader over r, tolerating a
// UTF-8 BOM and ragged rows.
func NewCSVExtractor(r io.Reader) *CSVExtractor {
	br := bufio.NewReaderSize(r, 256*1024)
	if bom, err := br.Peek(3); err == nil && len(bom) >= 3 && bom[0] == 0xEF && bom[1] == 0xBB && bom[2] == 0xBF {
		br.Discard(3)
	}
	cr := csv.NewReader(br)
	cr.LazyQuotes = true
	cr.FieldsPerRecord = -1
	return &CSVExtractor{reader: cr}
}

// Metadata returns the header fields captured from the two metadata
// rows. Populated once Run has started streaming data rows.
func (x *CSVExtractor) Metadata() Metadata {
	return x.meta
}

// Run streams the file once, emitting RawLineItems in row order. A
// header without code columns yields zero items and a shape mismatch;
// an unreadable file returns a *ParseError.
func (x *CSVExtractor) Run(ctx context.Context, report *model.ExtractReport, emit EmitFunc) error {
	if err := x.readHeader(); err != nil {
		return err
	}

	if !x.hasCodeColumns() {
		report.ShapeMismatch = true
		return nil
	}

	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		row, err := x.reader.Read()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return &ParseError{Err: fmt.Errorf("read data row: %w", err)}
		}
		if err := x.emitRow(ctx, row, report, emit); err != nil {
			return err
		}
	}
}

// readHeader consumes the two metadata rows and the column header row.
func (x *CSVExtractor) readHeader() error {
	nameRow, err := x.reader.Read()
	if err != nil {
		return &ParseError{Err: fmt.Errorf("read metadata names: %w", err)}
	}
	valueRow, err := x.reader.Read()
	if err != nil {
		return &ParseError{Err: fmt.Errorf("read metadata values: %w", err)}
	}
	meta := make(map[string]string, len(nameRow))
	for i, name := range nameRow {
		if i < len(valueRow) {
			meta[strings.TrimSpace(name)] = strings.TrimSpace(valueRow[i])
		}
	}
	x.meta = Metadata{
		HospitalName:     meta["hospital_name"],
		Version:          meta["version"],
		LastUpdatedOn:    meta["last_updated_on"],
		HospitalLocation: meta["hospital_location"],
		HospitalAddress:  meta["hospital_address"],
		LicenseNumber:    meta["license_number"],
	}

	headers, err := x.reader.Read()
	if err != nil {
		return &ParseError{Err: fmt.Errorf("read column headers: %w", err)}
	}
	x.colIdx = make(map[string]int, len(headers))
	for i, h := range headers {
		x.colIdx[strings.TrimSpace(h)] = i
	}
	return nil
}

func (x *CSVExtractor) hasCodeColumns() bool {
	for i := 1; i <= maxCodePairs; i++ {
		if _, ok := x.colIdx["code|"+strconv.Itoa(i)]; ok {
			return true
		}
	}
	return false
}

func (x *CSVExtractor) cell(row []string, col string) string {
	i, ok := x.colIdx[col]
	if !ok || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

// emitRow expands one data row into an item per populated code pair.
func (x *CSVExtractor) emitRow(ctx context.Context, row []string, report *model.ExtractReport, emit EmitFunc) error {
	payerName, payerID := splitPayerCell(x.cell(row, "payer_name"))

	var mods []string
	if raw := x.cell(row, "modifiers"); raw != "" {
		for _, m := range modifierSeparators.Split(raw, -1) {
			if m = strings.TrimSpace(m); m != "" {
				mods = append(mods, m)
			}
		}
	}

	base := model.RawLineItem{
		Description:          strings.ToValidUTF8(x.cell(row, "description"), "�"),
		Setting:              x.cell(row, "setting"),
		BillingClass:         x.cell(row, "billing_class"),
		Modifiers:            mods,
		GrossCharge:          parseMoney(x.cell(row, "standard_charge|gross")),
		DiscountedCash:       parseMoney(x.cell(row, "standard_charge|discounted_cash")),
		MinCharge:            parseMoney(x.cell(row, "standard_charge|min")),
		MaxCharge:            parseMoney(x.cell(row, "standard_charge|max")),
		NegotiatedDollar:     parseMoney(x.cell(row, "standard_charge|negotiated_dollar")),
		NegotiatedPercentage: parseMoney(x.cell(row, "standard_charge|negotiated_percentage")),
		NegotiatedAlgorithm:  optCell(x.cell(row, "standard_charge|negotiated_algorithm")),
		Methodology:          optCell(x.cell(row, "standard_charge|methodology")),
		EstimatedAmount:      parseMoney(x.cell(row, "estimated_amount")),
		DrugUnit:             parseMoney(x.cell(row, "drug_unit_of_measurement")),
		DrugUnitType:         optCell(x.cell(row, "drug_type_of_measurement")),
		AdditionalNotes:      optCell(x.cell(row, "additional_generic_notes")),
		PayerName:            optCell(payerName),
		PayerID:              optCell(payerID),
		PlanName:             optCell(x.cell(row, "plan_name")),
	}

	for i := 1; i <= maxCodePairs; i++ {
		code := x.cell(row, "code|"+strconv.Itoa(i))
		rawType := x.cell(row, "code|"+strconv.Itoa(i)+"|type")
		if code == "" || rawType == "" {
			continue
		}
		item := base
		item.Code = code
		item.CodeType = strings.ToUpper(rawType)
		report.ItemsRead++
		if err := emit(ctx, item); err != nil {
			return err
		}
	}
	return nil
}

// splitPayerCell separates "Aetna [60054]" into name and identifier.
func splitPayerCell(cell string) (name, id string) {
	if m := payerIDPattern.FindStringSubmatch(cell); m != nil {
		return strings.TrimSpace(m[1]), strings.TrimSpace(m[2])
	}
	return cell, ""
}

func parseMoney(cell string) *float64 {
	cell = strings.TrimSpace(strings.TrimPrefix(cell, "$"))
	cell = strings.ReplaceAll(cell, ",", "")
	if cell == "" {
		return nil
	}
	v, err := strconv.ParseFloat(cell, 64)
	if err != nil {
		return nil
	}
	return &v
}

func optCell(cell string) *string {
	if cell == "" {
		return nil
	}
	return &cell
}
