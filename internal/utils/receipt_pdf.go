package utils

import (
	"context"
	"encoding/base64"
	"fmt"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"github.com/skip2/go-qrcode"

	"foodcourt_back_end/internal/models"
)

// GeneratePickupQR encode la référence de commande en QR base64 prêt à
// mettre dans <img src="...">, scanné au comptoir de retrait
func GeneratePickupQR(reference string) (string, error) {
	png, err := qrcode.Encode(reference, qrcode.Medium, 256)
	if err != nil {
		return "", err
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(png), nil
}

// GenerateReceiptHTML génère le reçu HTML d'une commande
func GenerateReceiptHTML(order *models.Order, qrBase64 string) string {
	itemsHTML := ""
	for _, item := range order.Items {
		itemsHTML += fmt.Sprintf(`
			<tr>
				<td>%s</td>
				<td style="text-align:center">%d</td>
				<td style="text-align:right">%.2f€</td>
				<td style="text-align:right">%.2f€</td>
			</tr>`, item.Name, item.Quantity, item.Price, item.Price*float64(item.Quantity))
	}

	return fmt.Sprintf(`
<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif; max-width: 600px; margin: auto;">
	<h1>FoodCourt — Reçu</h1>
	<p>Commande <strong>%s</strong><br>
	Passée le %s<br>
	Livraison : %s</p>
	<table width="100%%" cellpadding="6">
		<tr style="border-bottom: 1px solid #000">
			<th align="left">Plat</th><th>Qté</th><th align="right">Prix</th><th align="right">Sous-total</th>
		</tr>
		%s
	</table>
	<h3 style="text-align:right">Total : %.2f€</h3>
	<p style="text-align:center"><img src="%s" alt="QR de retrait"><br>
	Présentez ce code au retrait</p>
</body>
</html>`, order.Reference, order.CreatedAt.Format("02/01/2006 15:04"),
		order.Address, itemsHTML, order.Total, qrBase64)
}

// RenderReceiptPDF imprime le reçu HTML en PDF via un Chrome headless
func RenderReceiptPDF(html string) ([]byte, error) {
	ctx, cancel := chromedp.NewContext(context.Background())
	defer cancel()

	// timeout pour éviter de bloquer
	ctx, cancel = context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	var pdfBuf []byte
	err := chromedp.Run(ctx,
		chromedp.Navigate("about:blank"),
		chromedp.ActionFunc(func(ctx context.Context) error {
			frameTree, err := page.GetFrameTree().Do(ctx)
			if err != nil {
				return err
			}
			return page.SetDocumentContent(frameTree.Frame.ID, html).Do(ctx)
		}),
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
