package extract

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/transform"

	"github.com/zaikolab/zaiko-report/internal/domain"
)

// Options configures how extracts are parsed.
type Options struct {
	// Encoding applies to delimited files only: utf-8, shift-jis or euc-jp.
	// XLSX content is always UTF-8.
	Encoding string
	// DateLayout is the Go layout of the date token embedded in filenames.
	DateLayout string
}

// Loader parses movement-log extracts into canonical records.
type Loader struct {
	opts Options
}

func NewLoader(opts Options) *Loader {
	if opts.DateLayout == "" {
		opts.DateLayout = "20060102"
	}
	return &Loader{opts: opts}
}

// Required canonical columns. An extract missing one of these still loads
// (values coerce to zero/empty), but if a column is absent from every
// extract the whole call fails with a SchemaError.
const (
	colProductCode = "product_code"
	colQuantity    = "quantity_delta"
)

// LoadFiles parses the given extracts in order and concatenates their rows.
// Concatenation preserves input file order and per-file row order; it does
// not re-sort.
func (l *Loader) LoadFiles(paths []string) ([]domain.MovementRecord, error) {
	if len(paths) == 0 {
		return nil, nil
	}

	var all []domain.MovementRecord
	missingEverywhere := map[string]int{colProductCode: 0, colQuantity: 0}

	for _, path := range paths {
		records, missing, err := l.loadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to load extract %s: %w", path, err)
		}
		for _, col := range missing {
			missingEverywhere[col]++
		}
		all = append(all, records...)
	}

	var fatal []string
	for _, col := range []string{colProductCode, colQuantity} {
		if missingEverywhere[col] == len(paths) {
			fatal = append(fatal, col)
		}
	}
	if len(fatal) > 0 {
		return nil, &domain.SchemaError{MissingColumns: fatal}
	}

	return all, nil
}

func (l *Loader) loadFile(path string) ([]domain.MovementRecord, []string, error) {
	period, periodOK := l.parsePeriod(path)
	if !periodOK {
		log.Warn().Str("file", filepath.Base(path)).
			Msg("no date token in extract filename, rows excluded from windowed filtering")
	}

	var (
		rows [][]string
		err  error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm":
		rows, err = readXLSX(path)
	default:
		rows, err = l.readCSV(path)
	}
	if err != nil {
		return nil, nil, err
	}
	if len(rows) == 0 {
		return nil, []string{colProductCode, colQuantity}, nil
	}

	header := rows[0]
	idx := newColumnIndex(header)

	var missing []string
	if idx.product < 0 {
		missing = append(missing, colProductCode)
	}
	if idx.quantity < 0 {
		missing = append(missing, colQuantity)
	}
	reasonTracked := idx.reason >= 0

	records := make([]domain.MovementRecord, 0, len(rows)-1)
	for _, row := range rows[1:] {
		get := func(i int) string {
			if i < 0 || i >= len(row) {
				return ""
			}
			return strings.TrimSpace(row[i])
		}

		records = append(records, domain.MovementRecord{
			ProductCode:   get(idx.product),
			BaseCode:      get(idx.base),
			ProductName:   get(idx.name),
			Attribute1:    get(idx.attr1),
			Attribute2:    get(idx.attr2),
			QuantityDelta: coerceInt(get(idx.quantity)),
			StockAfter:    coerceInt(get(idx.stock)),
			UpdateReason:  get(idx.reason),
			SourcePeriod:  period,
			ReasonTracked: reasonTracked,
		})
	}

	return records, missing, nil
}

// parsePeriod scans the filename for a digit run that parses with the
// configured layout, e.g. "在庫変動データ20240501.xlsm" -> 2024-05-01.
func (l *Loader) parsePeriod(path string) (time.Time, bool) {
	base := filepath.Base(path)
	base = strings.TrimSuffix(base, filepath.Ext(base))

	n := len(l.opts.DateLayout)
	runes := []rune(base)
	for i := 0; i+n <= len(runes); i++ {
		candidate := string(runes[i : i+n])
		if len(candidate) != n {
			continue
		}
		if t, err := time.Parse(l.opts.DateLayout, candidate); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func (l *Loader) readCSV(path string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	decoded, err := decodingReader(f, l.opts.Encoding)
	if err != nil {
		return nil, err
	}

	reader := csv.NewReader(decoded)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	var rows [][]string
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		rows = append(rows, record)
	}
	return rows, nil
}

// readXLSX reads the first sheet of an XLSX/XLSM workbook. Sheet names vary
// between extracts (the source embeds dates in them), so position wins.
func readXLSX(path string) ([][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("workbook %s has no sheets", filepath.Base(path))
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %s: %w", sheets[0], err)
	}
	return rows, nil
}

func decodingReader(r io.Reader, name string) (io.Reader, error) {
	var enc encoding.Encoding
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "utf-8", "utf8":
		return r, nil
	case "shift-jis", "shift_jis", "sjis", "cp932":
		enc = japanese.ShiftJIS
	case "euc-jp", "eucjp":
		enc = japanese.EUCJP
	default:
		return nil, fmt.Errorf("unsupported extract encoding %q", name)
	}
	return transform.NewReader(r, enc.NewDecoder()), nil
}

// coerceInt turns a textual cell into an integer. Non-numeric values become
// zero, never an error.
func coerceInt(v string) int {
	v = strings.ReplaceAll(strings.TrimSpace(v), ",", "")
	if v == "" {
		return 0
	}
	if n, err := strconv.Atoi(v); err == nil {
		return n
	}
	if f, err := strconv.ParseFloat(v, 64); err == nil {
		return int(f)
	}
	return 0
}

// columnIndex resolves canonical fields to header positions. Extracts come
// from several system revisions, so each field has both Japanese and
// romanized aliases.
type columnIndex struct {
	product  int
	base     int
	name     int
	attr1    int
	attr2    int
	quantity int
	stock    int
	reason   int
}

func newColumnIndex(header []string) columnIndex {
	find := func(names ...string) int {
		targets := make(map[string]struct{}, len(names))
		for _, name := range names {
			targets[normalizeColumnName(name)] = struct{}{}
		}
		for i, h := range header {
			if _, ok := targets[normalizeColumnName(h)]; ok {
				return i
			}
		}
		return -1
	}

	return columnIndex{
		product:  find("商品番号", "product_code", "product code"),
		base:     find("sku", "商品番号.1", "base_code", "base product code"),
		name:     find("商品名", "product_name", "product name"),
		attr1:    find("属性1名", "attribute1", "attribute 1"),
		attr2:    find("属性2名", "attribute2", "attribute 2"),
		quantity: find("売上個数", "変動数", "数量", "quantity_delta", "quantity"),
		stock:    find("現在庫", "在庫数", "stock_after", "stock"),
		reason:   find("更新理由", "update_reason", "reason"),
	}
}

var columnNameSanitizer = strings.NewReplacer(" ", "", "_", "", ".", "", "-", "", "/", "")

func normalizeColumnName(name string) string {
	name = strings.TrimSpace(strings.ToLower(name))
	return columnNameSanitizer.Replace(name)
}
