package export

import (
	"io"

	"github.com/xuri/excelize/v2"

	"duoadmin/domain/entity"
	"duoadmin/domain/listing"
)

const sheetName = "Sheet1"

// XLSX writes one worksheet with a bold header row.
type XLSX struct{}

func (XLSX) Format() string { return "xlsx" }

func (XLSX) ContentType() string {
	return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
}

func (XLSX) Write(w io.Writer, e entity.Entity, items []listing.Item) error {
	f := excelize.NewFile()
	defer f.Close()

	d := entity.Describe(e)
	header, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#E5E7EB"}},
	})
	if err != nil {
		return err
	}

	for c, col := range d.Columns {
		ref, err := excelize.CoordinatesToCellName(c+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheetName, ref, col.Title); err != nil {
			return err
		}
	}
	if len(d.Columns) > 0 {
		last, _ := excelize.CoordinatesToCellName(len(d.Columns), 1)
		if err := f.SetCellStyle(sheetName, "A1", last, header); err != nil {
			return err
		}
	}

	for r, it := range items {
		for c, col := range d.Columns {
			ref, err := excelize.CoordinatesToCellName(c+1, r+2)
			if err != nil {
				return err
			}
			v := render(d, it, col)
			var value any = v.text
			if v.numeric {
				value = v.number
			}
			if err := f.SetCellValue(sheetName, ref, value); err != nil {
				return err
			}
		}
	}
	return f.Write(w)
}
