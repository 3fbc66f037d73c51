// internal/pkg/pdf/service.go
package pdf

import (
	"bytes"
	"fmt"
	"html/template"
	"time"

	"github.com/SebastiaanKlippert/go-wkhtmltopdf"
	"github.com/farumdev/bookstore-backend/internal/config"
	"github.com/farumdev/bookstore-backend/internal/domain/order"
)

// Service handles PDF generation
type Service struct {
	config *config.Config
	now    func() time.Time
}

// NewService creates a new PDF service
func NewService(cfg *config.Config) *Service {
	return &Service{
		config: cfg,
		now:    time.Now,
	}
}

// InvoiceData represents the data passed to the invoice template
type InvoiceData struct {
	InvoiceNumber   string              `json:"invoice_number"`
	InvoiceDate     string              `json:"invoice_date"`
	OrderID         uint                `json:"order_id"`
	OrderDate       string              `json:"order_date"`
	OrderStatus     order.OrderStatus   `json:"order_status"`
	PaymentStatus   order.PaymentStatus `json:"payment_status"`
	TransactionID   string              `json:"transaction_id,omitempty"`
	CustomerName    string              `json:"customer_name"`
	CustomerEmail   string              `json:"customer_email"`
	ShippingAddress []string            `json:"shipping_address,omitempty"`
	Items           []InvoiceLine       `json:"items"`
	Subtotal        string              `json:"subtotal"`
	Discount        string              `json:"discount,omitempty"`
	CouponCode      string              `json:"coupon_code,omitempty"`
	Total           string              `json:"total"`
	Company         CompanyInfo         `json:"company"`
}

// InvoiceLine is one printed order line, amounts already formatted
type InvoiceLine struct {
	ProductName string `json:"product_name"`
	Author      string `json:"author"`
	Quantity    int    `json:"quantity"`
	UnitPrice   string `json:"unit_price"`
	Total       string `json:"total"`
}

// CompanyInfo represents company information
type CompanyInfo struct {
	Name    string `json:"name"`
	Address string `json:"address"`
	Email   string `json:"email"`
	Website string `json:"website"`
}

// BuildInvoice prepares the printable invoice for an order
func (s *Service) BuildInvoice(invoice *order.Invoice) *InvoiceData {
	o := invoice.Order
	data := &InvoiceData{
		InvoiceNumber: fmt.Sprintf("INV-%06d", o.ID),
		InvoiceDate:   s.now().Format("January 2, 2006"),
		OrderID:       o.ID,
		OrderDate:     o.OrderDate.Format("January 2, 2006 15:04 MST"),
		OrderStatus:   o.Status,
		PaymentStatus: o.PaymentStatus,
		CustomerName:  invoice.CustomerName,
		CustomerEmail: invoice.CustomerEmail,
		Subtotal:      o.SubtotalPrice.StringFixed(2),
		Total:         o.TotalPrice.StringFixed(2),
		Items:         make([]InvoiceLine, len(o.Items)),
		Company: CompanyInfo{
			Name:    s.config.App.CompanyName,
			Address: s.config.App.CompanyAddress,
			Email:   s.config.App.CompanyEmail,
			Website: s.config.App.CompanyWebsite,
		},
	}
	if o.TransactionID != nil {
		data.TransactionID = *o.TransactionID
	}
	if o.DiscountAmount.IsPositive() {
		data.Discount = o.DiscountAmount.StringFixed(2)
	}
	if o.CouponCode != nil {
		data.CouponCode = *o.CouponCode
	}
	if invoice.ShippingAddress != nil {
		data.ShippingAddress = invoice.ShippingAddress.Lines()
	}
	for i, item := range o.Items {
		data.Items[i] = InvoiceLine{
			ProductName: item.ProductName,
			Author:      item.Author,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice.StringFixed(2),
			Total:       item.TotalPrice.StringFixed(2),
		}
	}
	return data
}

// GenerateInvoice renders the invoice as a PDF document
func (s *Service) GenerateInvoice(data *InvoiceData) (*bytes.Buffer, error) {
	htmlContent, err := s.GenerateHTML(data)
	if err != nil {
		return nil, fmt.Errorf("failed to generate HTML: %w", err)
	}

	pdfg, err := wkhtmltopdf.NewPDFGenerator()
	if err != nil {
		return nil, fmt.Errorf("failed to create PDF generator: %w", err)
	}

	pdfg.Dpi.Set(300)
	pdfg.Orientation.Set(wkhtmltopdf.OrientationPortrait)
	pdfg.Grayscale.Set(false)
	pdfg.Title.Set("Invoice " + data.InvoiceNumber)

	page := wkhtmltopdf.NewPageReader(bytes.NewReader([]byte(htmlContent)))
	page.FooterRight.Set("[page]")
	page.FooterFontSize.Set(9)
	page.Zoom.Set(0.95)

	pdfg.AddPage(page)

	if err := pdfg.Create(); err != nil {
		return nil, fmt.Errorf("failed to create PDF: %w", err)
	}

	return bytes.NewBuffer(pdfg.Bytes()), nil
}

// GenerateHTML renders the invoice template
func (s *Service) GenerateHTML(data *InvoiceData) (string, error) {
	var buf bytes.Buffer
	if err := invoiceTemplate.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to execute template: %w", err)
	}
	return buf.String(), nil
}

var invoiceTemplate = template.Must(template.New("invoice").Parse(`
<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <title>Invoice {{.InvoiceNumber}}</title>
    <style>
        body { font-family: Georgia, serif; margin: 0; padding: 20px; color: #333; }
        .header { display: flex; justify-content: space-between; margin-bottom: 30px; border-bottom: 2px solid #eee; padding-bottom: 20px; }
        .invoice-info { text-align: right; }
        .invoice-title { font-size: 28px; font-weight: bold; color: #7c2d12; margin-bottom: 10px; }
        .section-title { font-size: 16px; font-weight: bold; margin-bottom: 10px; color: #374151; }
        .items-table { width: 100%; border-collapse: collapse; margin: 30px 0; }
        .items-table th, .items-table td { border: 1px solid #ddd; padding: 10px 8px; text-align: left; }
        .items-table th { background-color: #f8f9fa; }
        .num { text-align: right; width: 90px; }
        .totals { float: right; width: 300px; }
        .totals table { width: 100%; border-collapse: collapse; }
        .totals td { padding: 8px; border-bottom: 1px solid #eee; text-align: right; }
        .total-row td { font-size: 18px; font-weight: bold; border-top: 2px solid #333; }
        .status-badge { display: inline-block; padding: 4px 8px; border-radius: 4px; font-size: 12px; font-weight: bold; text-transform: uppercase; }
        .status-paid { background-color: #dcfce7; color: #166534; }
        .status-pending { background-color: #fef3c7; color: #92400e; }
        .footer { margin-top: 50px; padding-top: 20px; border-top: 1px solid #eee; text-align: center; color: #666; font-size: 12px; }
    </style>
</head>
<body>
    <div class="header">
        <div class="company-info">
            <h1>{{.Company.Name}}</h1>
            <p>{{.Company.Address}}</p>
            <p>Email: {{.Company.Email}}</p>
            <p>{{.Company.Website}}</p>
        </div>
        <div class="invoice-info">
            <div class="invoice-title">INVOICE</div>
            <p><strong>Invoice #:</strong> {{.InvoiceNumber}}</p>
            <p><strong>Invoice Date:</strong> {{.InvoiceDate}}</p>
            <p><strong>Order #:</strong> {{.OrderID}}</p>
            <p><strong>Order Date:</strong> {{.OrderDate}}</p>
            <p><strong>Order Status:</strong> {{.OrderStatus}}</p>
            <p>
                <span class="status-badge {{if eq (print .PaymentStatus) "Completed"}}status-paid{{else}}status-pending{{end}}">{{.PaymentStatus}}</span>
            </p>
            {{if .TransactionID}}<p><strong>Transaction:</strong> {{.TransactionID}}</p>{{end}}
        </div>
    </div>

    <div class="section-title">Bill To:</div>
    <p><strong>{{.CustomerName}}</strong></p>
    {{if .CustomerEmail}}<p>{{.CustomerEmail}}</p>{{end}}
    {{if .ShippingAddress}}
    <div class="section-title">Ship To:</div>
    {{range .ShippingAddress}}<p>{{.}}</p>{{end}}
    {{end}}

    <table class="items-table">
        <thead>
            <tr>
                <th>Title</th>
                <th>Author</th>
                <th class="num">Qty</th>
                <th class="num">Price</th>
                <th class="num">Total</th>
            </tr>
        </thead>
        <tbody>
            {{range .Items}}
            <tr>
                <td><strong>{{.ProductName}}</strong></td>
                <td>{{.Author}}</td>
                <td class="num">{{.Quantity}}</td>
                <td class="num">${{.UnitPrice}}</td>
                <td class="num">${{.Total}}</td>
            </tr>
            {{end}}
        </tbody>
    </table>

    <div class="totals">
        <table>
            <tr><td>Subtotal:</td><td>${{.Subtotal}}</td></tr>
            {{if .Discount}}<tr><td>Discount{{if .CouponCode}} ({{.CouponCode}}){{end}}:</td><td>-${{.Discount}}</td></tr>{{end}}
            <tr class="total-row"><td>Total:</td><td>${{.Total}}</td></tr>
        </table>
    </div>

    <div style="clear: both;"></div>

    <div class="footer">
        <p>Thank you for shopping with {{.Company.Name}}!</p>
        <p>If you have any questions about this invoice, please contact us at {{.Company.Email}}</p>
    </div>
</body>
</html>
`))
