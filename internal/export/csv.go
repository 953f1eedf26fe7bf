package export

import (
	"encoding/csv"
	"io"
)

// CSVRenderer writes the sectioned Table as comma-separated values.
type CSVRenderer struct{}

func (CSVRenderer) Format() string      { return "csv" }
func (CSVRenderer) Extension() string   { return "csv" }
func (CSVRenderer) ContentType() string { return "text/csv; charset=utf-8" }

func (CSVRenderer) Render(w io.Writer, doc Document) error {
	cw := csv.NewWriter(w)
	if err := cw.WriteAll(Table(doc)); err != nil {
		return err
	}
	return cw.Error()
}
