package loader

import (
	"archive/zip"
	"encoding/csv"
	"encoding/xml"
	"fmt"
	"io"
	"strconv"
	"strings"
)

func extractCSV(path string) (string, error) {
	src, err := readTextFile(path)
	if err != nil {
		return "", err
	}

	r := csv.NewReader(strings.NewReader(src))
	r.FieldsPerRecord = -1
	rows, err := r.ReadAll()
	if err != nil {
		return "", fmt.Errorf("parse CSV: %w", err)
	}

	return renderTable(rows), nil
}

// renderTable summarizes tabular data as delimited text: a header line
// with row/column counts followed by a legible tab-joined rendering.
func renderTable(rows [][]string) string {
	if len(rows) == 0 {
		return "Table contains 0 records"
	}

	header := rows[0]
	var buf strings.Builder
	fmt.Fprintf(&buf, "Table contains %d records with columns: [%s]\n",
		len(rows)-1, strings.Join(header, ", "))
	for _, row := range rows {
		buf.WriteString(strings.Join(row, "\t"))
		buf.WriteString("\n")
	}
	return buf.String()
}

// xlsx parsing via archive/zip and encoding/xml; cells either reference
// the shared-string table (t="s") or carry inline values.

type xlsxSST struct {
	Items []xlsxSI `xml:"si"`
}

type xlsxSI struct {
	T    string       `xml:"t"`
	Runs []xlsxSIText `xml:"r"`
}

type xlsxSIText struct {
	T string `xml:"t"`
}

func (si xlsxSI) text() string {
	if len(si.Runs) == 0 {
		return si.T
	}
	var buf strings.Builder
	for _, r := range si.Runs {
		buf.WriteString(r.T)
	}
	return buf.String()
}

type xlsxSheet struct {
	Rows []xlsxRow `xml:"sheetData>row"`
}

type xlsxRow struct {
	Cells []xlsxCell `xml:"c"`
}

type xlsxCell struct {
	Type   string `xml:"t,attr"`
	Value  string `xml:"v"`
	Inline string `xml:"is>t"`
}

func extractXLSX(path string) (string, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return "", fmt.Errorf("open spreadsheet: %w", err)
	}
	defer zr.Close()

	shared, err := readSharedStrings(&zr.Reader)
	if err != nil {
		return "", err
	}

	var rows [][]string
	for _, f := range zr.File {
		if !strings.HasPrefix(f.Name, "xl/worksheets/sheet") {
			continue
		}
		sheetRows, err := readSheet(f, shared)
		if err != nil {
			return "", err
		}
		rows = append(rows, sheetRows...)
	}

	return renderTable(rows), nil
}

func readSharedStrings(zr *zip.Reader) ([]string, error) {
	for _, f := range zr.File {
		if f.Name != "xl/sharedStrings.xml" {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("open sharedStrings.xml: %w", err)
		}
		defer rc.Close()

		data, err := io.ReadAll(rc)
		if err != nil {
			return nil, fmt.Errorf("read sharedStrings.xml: %w", err)
		}

		var sst xlsxSST
		if err := xml.Unmarshal(data, &sst); err != nil {
			return nil, fmt.Errorf("parse sharedStrings.xml: %w", err)
		}

		strs := make([]string, len(sst.Items))
		for i, si := range sst.Items {
			strs[i] = si.text()
		}
		return strs, nil
	}
	return nil, nil
}

func readSheet(f *zip.File, shared []string) ([][]string, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", f.Name, err)
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", f.Name, err)
	}

	var sheet xlsxSheet
	if err := xml.Unmarshal(data, &sheet); err != nil {
		return nil, fmt.Errorf("parse %s: %w", f.Name, err)
	}

	rows := make([][]string, 0, len(sheet.Rows))
	for _, row := range sheet.Rows {
		cells := make([]string, 0, len(row.Cells))
		for _, c := range row.Cells {
			cells = append(cells, cellValue(c, shared))
		}
		rows = append(rows, cells)
	}
	return rows, nil
}

func cellValue(c xlsxCell, shared []string) string {
	switch c.Type {
	case "s":
		idx, err := strconv.Atoi(c.Value)
		if err != nil || idx < 0 || idx >= len(shared) {
			return c.Value
		}
		return shared[idx]
	case "inlineStr":
		return c.Inline
	default:
		return c.Value
	}
}
