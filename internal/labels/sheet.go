package labels

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"time"

	"github.com/kinderbasar/backend/internal/bazaar"
	"github.com/kinderbasar/backend/internal/models"
)

//go:embed templates/sheet.html
var templateFS embed.FS

var sheetTemplate = template.Must(template.New("sheet.html").ParseFS(templateFS, "templates/sheet.html"))

// Label is one printable article label.
type Label struct {
	SellerNumber int
	LabelNumber  int
	Name         string
	Size         string
	Price        string
	QR           template.URL
}

// Sheet is the printable label page of one seller.
type Sheet struct {
	EventName    string
	EventDate    string
	SellerNumber int
	SellerName   string
	Labels       []Label
}

// NewSheet builds the label sheet of a seller. Sold articles are skipped.
func NewSheet(ev *models.Event, seller *models.Seller, articles []models.Article, loc *time.Location) (*Sheet, error) {
	if loc == nil {
		loc = time.UTC
	}
	sheet := &Sheet{
		EventName:    ev.Name,
		EventDate:    ev.StartsAt.In(loc).Format("02.01.2006"),
		SellerNumber: seller.SellerNumber,
		SellerName:   seller.Name,
		Labels:       make([]Label, 0, len(articles)),
	}
	for _, a := range articles {
		if a.Status == bazaar.ArticleSold {
			continue
		}
		qr, err := QRCode(seller.SellerNumber, a.LabelNumber)
		if err != nil {
			return nil, err
		}
		sheet.Labels = append(sheet.Labels, Label{
			SellerNumber: seller.SellerNumber,
			LabelNumber:  a.LabelNumber,
			Name:         a.Name,
			Size:         a.Size,
			Price:        bazaar.FormatEuro(a.PriceCents),
			QR:           qr,
		})
	}
	return sheet, nil
}

// Render writes the sheet as a standalone HTML page.
func (s *Sheet) Render() ([]byte, error) {
	var buf bytes.Buffer
	if err := sheetTemplate.Execute(&buf, s); err != nil {
		return nil, fmt.Errorf("render label sheet: %w", err)
	}
	return buf.Bytes(), nil
}
