package enquiries

import (
	"encoding/csv"
	"io"
)

var csvHeader = []string{"Name", "Email", "Phone", "Event Date", "Cake", "Size", "Status", "Date", "Message"}

const csvDateLayout = "2006-01-02"

// WriteCSV renders the admin export. encoding/csv quotes commas and newlines
// in messages.
func WriteCSV(w io.Writer, rows []EnquiryDTO) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	for _, e := range rows {
		event := "Not specified"
		if e.EventDate != nil {
			event = e.EventDate.Format(csvDateLayout)
		}
		cake := "General enquiry"
		if e.ProductName != nil && *e.ProductName != "" {
			cake = *e.ProductName
		}
		size := e.Size
		if size == "" {
			size = "Not specified"
		}
		record := []string{
			e.Name, e.Email, e.Phone, event, cake, size,
			string(e.Status), e.CreatedAt.Format(csvDateLayout), e.Message,
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
