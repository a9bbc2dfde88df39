// Package export renders stored report summaries to spreadsheet files for
// credit analysts.
package export

import (
	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/greenloan/validator-cli/internal/store"
)

var xlsxHeader = []string{
	"Doc ID", "File", "Pages", "Traffic Light",
	"Evidence Coverage", "Consistency", "Feasibility",
	"Red Flags", "Created At",
}

// WriteXLSX writes report summaries to an XLSX workbook at the given path.
func WriteXLSX(summaries []store.ReportSummary, path string) error {
	f := xlsx.NewFile()
	sheet, err := f.AddSheet("Reports")
	if err != nil {
		return eris.Wrap(err, "export: add sheet")
	}

	header := sheet.AddRow()
	for _, h := range xlsxHeader {
		header.AddCell().Value = h
	}

	for _, s := range summaries {
		row := sheet.AddRow()
		row.AddCell().Value = s.DocID
		row.AddCell().Value = s.FileName
		row.AddCell().SetInt(s.Pages)
		row.AddCell().Value = string(s.TrafficLight)
		row.AddCell().SetInt(s.Evidence)
		row.AddCell().SetInt(s.Consistency)
		row.AddCell().SetInt(s.Feasibility)
		row.AddCell().SetInt(s.RedFlags)
		row.AddCell().Value = s.CreatedAt.UTC().Format("2006-01-02 15:04:05")
	}

	if err := f.Save(path); err != nil {
		return eris.Wrapf(err, "export: save %s", path)
	}
	return nil
}
