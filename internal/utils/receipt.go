package utils

import (
	"context"
	"encoding/base64"
	"fmt"
	"html"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"github.com/skip2/go-qrcode"

	"astromania_back_end/internal/models"
)

// GenerateStatusQR encode en QR le lien de suivi de la commande, prêt à
// insérer dans un <img src="...">
func GenerateStatusQR(statusURL string) (string, error) {
	png, err := qrcode.Encode(statusURL, qrcode.Medium, 256)
	if err != nil {
		return "", err
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(png), nil
}

// GenerateReceiptHTML construit le reçu HTML d'une commande approuvée
func GenerateReceiptHTML(intent models.OrderIntent, qrBase64 string) string {
	itemsHTML := ""
	for _, item := range intent.Items {
		itemsHTML += fmt.Sprintf(`
			<tr>
				<td>%s</td>
				<td>%d</td>
				<td>%.0f %s</td>
				<td>%.0f %s</td>
			</tr>`,
			html.EscapeString(item.Title), item.Quantity,
			item.UnitPrice, intent.Currency,
			item.UnitPrice*float64(item.Quantity), intent.Currency)
	}

	qrHTML := ""
	if qrBase64 != "" {
		qrHTML = fmt.Sprintf(`<p style="text-align:center;"><img src="%s" alt="QR seguimiento" width="160"></p>`, qrBase64)
	}

	return fmt.Sprintf(`
<!DOCTYPE html>
<html lang="es">
<head>
	<meta charset="UTF-8">
	<title>Comprobante de compra</title>
</head>
<body style="font-family: Arial, sans-serif; background-color: #f9f9f9; padding: 20px;">
	<div style="max-width: 600px; margin: auto; background-color: white; padding: 20px; border-radius: 10px;">
		<h2 style="color: #333;">¡Gracias por tu compra!</h2>
		<p>Tu pago fue aprobado. Referencia: <strong>%s</strong></p>

		<table style="width: 100%%; border-collapse: collapse; margin: 20px 0;">
			<thead>
				<tr style="background-color: #f0f0f0;">
					<th style="padding: 10px; text-align: left; border: 1px solid #ddd;">Artículo</th>
					<th style="padding: 10px; text-align: left; border: 1px solid #ddd;">Cantidad</th>
					<th style="padding: 10px; text-align: left; border: 1px solid #ddd;">Precio unitario</th>
					<th style="padding: 10px; text-align: left; border: 1px solid #ddd;">Total</th>
				</tr>
			</thead>
			<tbody>
				%s
			</tbody>
			<tfoot>
				<tr>
					<td colspan="3" style="padding: 10px; text-align: right; font-weight: bold;">Total:</td>
					<td style="padding: 10px; font-weight: bold;">%.0f %s</td>
				</tr>
			</tfoot>
		</table>
		%s
		<p style="margin-top: 30px; color: #555;">
			Saludos,<br>
			<strong>El equipo de Astromanía</strong>
		</p>
	</div>
</body>
</html>`, html.EscapeString(intent.ExternalReference), itemsHTML, intent.Total(), intent.Currency, qrHTML)
}

// RenderReceiptPDF imprime le reçu HTML en PDF via Chrome headless
func RenderReceiptPDF(htmlBody string) ([]byte, error) {
	ctx, cancel := chromedp.NewContext(context.Background())
	defer cancel()

	// timeout pour éviter de bloquer
	ctx, cancel = context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	dataURL := "data:text/html;base64," + base64.StdEncoding.EncodeToString([]byte(htmlBody))

	var pdfBuf []byte
	err := chromedp.Run(ctx,
		chromedp.Navigate(dataURL),
		chromedp.WaitVisible("body", chromedp.ByQuery),
		chromedp.ActionFunc(func(ctx context.Context) error {
			buf, _, err := page.PrintToPDF().WithPrintBackground(true).Do(ctx)
			if err != nil {
				return err
			}
			pdfBuf = buf
			return nil
		}),
	)
	if err != nil {
		return nil, err
	}
	return pdfBuf, nil
}
