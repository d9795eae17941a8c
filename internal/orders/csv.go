package orders

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
)

var csvHeader = []string{
	"Order ID", "Customer", "Email", "Phone", "Total", "Status",
	"Order Date", "Delivery Date", "Payment Method", "Items",
}

const csvDateLayout = "2006-01-02"

// ShortID is the last eight characters of the id, upper-cased, as printed on
// order slips.
func ShortID(o OrderDTO) string {
	id := o.ID.String()
	return strings.ToUpper(id[len(id)-8:])
}

// WriteCSV renders the admin export.
func WriteCSV(w io.Writer, orders []OrderDTO, currencySymbol string) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	for _, o := range orders {
		delivery := "Not specified"
		if o.DeliveryDate != nil {
			delivery = o.DeliveryDate.Format(csvDateLayout)
		}
		items := make([]string, 0, len(o.Items))
		for _, it := range o.Items {
			items = append(items, fmt.Sprintf("%s (%d)", it.Name, it.Quantity))
		}
		record := []string{
			ShortID(o),
			o.CustomerInfo.Name,
			o.CustomerInfo.Email,
			o.CustomerInfo.Phone,
			currencySymbol + o.TotalAmount.StringFixed(2),
			string(o.Status),
			o.OrderDate.Format(csvDateLayout),
			delivery,
			string(o.PaymentMethod),
			strings.Join(items, "; "),
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
