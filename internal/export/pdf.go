package export

import (
	"bytes"
	_ "embed"

	"github.com/go-pdf/fpdf"
)

// Store and employee names are not limited to Latin-1, so the document uses
// an embedded UTF-8 font instead of the core Helvetica.
const pdfFont = "DejaVu"

var (
	//go:embed fonts/DejaVuSansCondensed.ttf
	dejaVuRegular []byte
	//go:embed fonts/DejaVuSansCondensed-Bold.ttf
	dejaVuBold []byte
)

func renderPDF(table Table, compress bool) ([]byte, error) {
	pdf := fpdf.New("L", "mm", "A4", "")
	pdf.SetCompression(compress)
	pdf.AddUTF8FontFromBytes(pdfFont, "", dejaVuRegular)
	pdf.AddUTF8FontFromBytes(pdfFont, "B", dejaVuBold)
	pdf.SetTitle(table.Title, true)
	pdf.AddPage()

	pdf.SetFont(pdfFont, "B", 16)
	pdf.CellFormat(0, 12, table.Title, "", 1, "C", false, 0, "")
	pdf.Ln(4)

	pageW, _ := pdf.GetPageSize()
	left, _, right, _ := pdf.GetMargins()
	colW := (pageW - left - right) / float64(len(table.Columns))

	pdf.SetFont(pdfFont, "B", 11)
	pdf.SetFillColor(242, 242, 242)
	pdf.SetDrawColor(221, 221, 221)
	for _, c := range table.Columns {
		pdf.CellFormat(colW, 8, c, "1", 0, "L", true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont(pdfFont, "", 10)
	for _, rec := range table.Records {
		for _, c := range table.Columns {
			pdf.CellFormat(colW, 7, rec[c], "1", 0, "L", false, 0, "")
		}
		pdf.Ln(-1)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
