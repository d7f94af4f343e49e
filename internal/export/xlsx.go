package export

import (
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/xuri/excelize/v2"

	"github.com/rshade/sagequery/internal/engine/batch"
	"github.com/rshade/sagequery/internal/rdf"
)

// SheetName is the worksheet results are written to.
const SheetName = "Results"

// Numeric XSD datatypes written as spreadsheet numbers.
var numericTypes = map[string]bool{
	"http://www.w3.org/2001/XMLSchema#integer": true,
	"http://www.w3.org/2001/XMLSchema#int":     true,
	"http://www.w3.org/2001/XMLSchema#long":    true,
	"http://www.w3.org/2001/XMLSchema#decimal": true,
	"http://www.w3.org/2001/XMLSchema#double":  true,
	"http://www.w3.org/2001/XMLSchema#float":   true,
}

func buildWorkbook(doc Document) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := writeSheet(f, doc); err != nil {
		_ = f.Close()
		return nil, err
	}
	return f, nil
}

// writeSheet streams the header and rows into SheetName, one chunk at a time.
func writeSheet(f *excelize.File, doc Document) error {
	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return fmt.Errorf("naming sheet: %w", err)
	}
	sw, err := f.NewStreamWriter(SheetName)
	if err != nil {
		return fmt.Errorf("opening stream writer: %w", err)
	}

	if len(doc.Columns) > 0 {
		if err := sw.SetPanes(&excelize.Panes{
			Freeze:      true,
			YSplit:      1,
			TopLeftCell: "A2",
			ActivePane:  "bottomLeft",
		}); err != nil {
			return err
		}
		header := make([]any, len(doc.Columns))
		for i, c := range doc.Columns {
			header[i] = c
		}
		if err := sw.SetRow("A1", header); err != nil {
			return err
		}
	}

	err = batch.NewDefaultProcessor[rdf.Binding]().Process(context.Background(), doc.Rows,
		func(_ context.Context, chunk []rdf.Binding, offset int) error {
			for i, row := range chunk {
				cell, _ := excelize.CoordinatesToCellName(1, offset+i+2)
				if err := sw.SetRow(cell, rowValues(row, doc.Columns)); err != nil {
					return err
				}
			}
			return nil
		})
	if err != nil {
		return fmt.Errorf("writing rows: %w", err)
	}
	return sw.Flush()
}

func rowValues(row rdf.Binding, columns []string) []any {
	terms := row.Row(columns)
	values := make([]any, len(terms))
	for i, term := range terms {
		if !term.IsZero() {
			values[i] = cellValue(term)
		}
	}
	return values
}

func cellValue(t rdf.Term) any {
	if t.IsLiteral() && numericTypes[t.Datatype()] {
		if v, err := strconv.ParseFloat(t.Value(), 64); err == nil {
			return v
		}
	}
	return t.Display()
}

// RenderXLSX writes a workbook to w.
func RenderXLSX(w io.Writer, doc Document) error {
	f, err := buildWorkbook(doc)
	if err != nil {
		return fmt.Errorf("building workbook: %w", err)
	}
	defer f.Close()
	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("writing workbook: %w", err)
	}
	return nil
}

// WriteXLSX saves a workbook at path.
func WriteXLSX(path string, doc Document) error {
	f, err := buildWorkbook(doc)
	if err != nil {
		return fmt.Errorf("building workbook: %w", err)
	}
	defer f.Close()
	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("saving %s: %w", path, err)
	}
	return nil
}
