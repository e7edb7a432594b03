// Package receipt renders an order as a printable PDF with a QR code
// carrying the order reference.
package receipt

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"agromart/globals"
	"agromart/models"
	"agromart/utils"

	"github.com/phpdave11/gofpdf"
	"github.com/shopspring/decimal"
	"github.com/skip2/go-qrcode"
)

// QRPayload is the text encoded in the receipt's QR code.
func QRPayload(o models.Order) string {
	return fmt.Sprintf("agromart|order|%s|%s|%s", o.ID, o.TotalAmount.StringFixed(2), o.Status)
}

// money formats amounts for the PDF core fonts, which lack the rupee sign.
func money(d decimal.Decimal) string {
	return strings.Replace(utils.FormatCurrency(d), "₹", "Rs. ", 1)
}

// Write renders o as an A4 PDF to w.
func Write(w io.Writer, o models.Order, merchant string) error {
	if merchant == "" {
		merchant = globals.MerchantName
	}
	qrPNG, err := qrcode.Encode(QRPayload(o), qrcode.Medium, 256)
	if err != nil {
		return fmt.Errorf("generate QR code: %w", err)
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetTitle("Order "+o.ID, true)
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 16)
	pdf.Cell(0, 10, tr(merchant))
	pdf.Ln(8)
	pdf.SetFont("Arial", "", 11)
	pdf.Cell(0, 10, "Order receipt")
	pdf.Ln(12)

	pdf.SetFont("Arial", "", 11)
	for _, line := range []string{
		"Order ID: " + o.ID,
		"Date: " + utils.FormatDate(o.CreatedAt.Time),
		"Status: " + strings.ToUpper(o.Status.String()),
		"Payment: " + strings.ToUpper(string(o.PaymentMethod)),
		"Buyer: " + o.BuyerName,
		"Farmer: " + o.FarmerName,
		"Deliver to: " + o.DeliveryAddress,
	} {
		pdf.Cell(0, 7, tr(line))
		pdf.Ln(7)
	}

	// QR top right
	imageOpts := gofpdf.ImageOptions{
		ImageType: "PNG",
	}
	pdf.RegisterImageOptionsReader("qr", imageOpts, bytes.NewReader(qrPNG))
	pdf.ImageOptions("qr", 150, 20, 40, 40, false, imageOpts, 0, "")

	pdf.Ln(6)
	pdf.SetFont("Arial", "B", 11)
	widths := []float64{80, 30, 35, 35}
	for i, h := range []string{"Product", "Quantity", "Price", "Total"} {
		pdf.CellFormat(widths[i], 8, h, "1", 0, "L", false, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Arial", "", 11)
	for _, it := range o.Items {
		pdf.CellFormat(widths[0], 8, tr(utils.Truncate(it.ProductName, 40)), "1", 0, "L", false, 0, "")
		pdf.CellFormat(widths[1], 8, it.Quantity.String()+" "+it.Unit, "1", 0, "L", false, 0, "")
		pdf.CellFormat(widths[2], 8, money(it.Price), "1", 0, "R", false, 0, "")
		pdf.CellFormat(widths[3], 8, money(it.Total), "1", 0, "R", false, 0, "")
		pdf.Ln(-1)
	}

	pdf.SetFont("Arial", "B", 12)
	pdf.CellFormat(widths[0]+widths[1]+widths[2], 9, "Order total", "1", 0, "R", false, 0, "")
	pdf.CellFormat(widths[3], 9, money(o.TotalAmount), "1", 0, "R", false, 0, "")
	pdf.Ln(-1)

	return pdf.Output(w)
}
