package export

import (
	"fmt"
	"io"
	"strings"
	"time"
	"unicode"

	"github.com/phpdave11/gofpdf"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"duoadmin/domain/entity"
	"duoadmin/domain/listing"
)

const (
	pageWidth  = 277.0 // A4 landscape minus margins, mm
	rowHeight  = 7.0
	maxCellLen = 48
)

// PDF writes a landscape A4 table. The core fonts have no Vietnamese glyphs,
// so text is folded to plain Latin letters.
type PDF struct {
	Now func() time.Time
}

func (PDF) Format() string { return "pdf" }

func (PDF) ContentType() string { return "application/pdf" }

func (p PDF) Write(w io.Writer, e entity.Entity, items []listing.Item) error {
	now := time.Now
	if p.Now != nil {
		now = p.Now
	}
	d := entity.Describe(e)

	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.SetTitle(fold(title(e)), false)
	pdf.SetAutoPageBreak(true, 12)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 16)
	pdf.Cell(0, 10, fold(title(e)))
	pdf.Ln(10)
	pdf.SetFont("Helvetica", "", 9)
	pdf.Cell(0, 6, fmt.Sprintf("Xuat luc %s - %d dong", now().Format(dateLayout), len(items)))
	pdf.Ln(8)

	width := pageWidth
	if n := len(d.Columns); n > 0 {
		width = pageWidth / float64(n)
	}

	drawHeader := func() {
		pdf.SetFont("Helvetica", "B", 9)
		pdf.SetFillColor(229, 231, 235)
		for _, col := range d.Columns {
			pdf.CellFormat(width, rowHeight, fold(col.Title), "1", 0, "L", true, 0, "")
		}
		pdf.Ln(-1)
		pdf.SetFont("Helvetica", "", 9)
	}
	drawHeader()

	_, pageHeight := pdf.GetPageSize()
	_, _, _, bottom := pdf.GetMargins()
	for _, it := range items {
		if pdf.GetY()+rowHeight > pageHeight-bottom-12 {
			pdf.AddPage()
			drawHeader()
		}
		for _, col := range d.Columns {
			v := render(d, it, col)
			align := "L"
			if v.numeric {
				align = "R"
			}
			pdf.CellFormat(width, rowHeight, truncate(fold(v.text)), "1", 0, align, false, 0, "")
		}
		pdf.Ln(-1)
	}

	if err := pdf.Error(); err != nil {
		return err
	}
	return pdf.Output(w)
}

var letters = strings.NewReplacer("Đ", "D", "đ", "d", "₫", "VND")

// fold strips diacritics: "Đã xử lý" becomes "Da xu ly".
func fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, letters.Replace(s))
	if err != nil {
		return s
	}
	return out
}

func truncate(s string) string {
	r := []rune(s)
	if len(r) <= maxCellLen {
		return s
	}
	return string(r[:maxCellLen-3]) + "..."
}
