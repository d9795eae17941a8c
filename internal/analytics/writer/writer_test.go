package writer

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"
	"time"

	"google.golang.org/api/googleapi"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/sweetdelights/bakery-backend/internal/analytics/types"
	"github.com/sweetdelights/bakery-backend/pkg/bigquery"
)

func TestNewWriterValidation(t *testing.T) {
	if _, err := New(nil, Config{}); err == nil {
		t.Fatal("expected error when client missing")
	}
	if _, err := New(&fakeInserter{}, Config{SalesTable: " ", EnquiryTable: "enquiries"}); err == nil {
		t.Fatal("expected error when sales table missing")
	}
	if _, err := New(&fakeInserter{}, Config{SalesTable: "order_sales", EnquiryTable: " "}); err == nil {
		t.Fatal("expected error when enquiry table missing")
	}
}

func TestEncodeJSON(t *testing.T) {
	nj, err := EncodeJSON(map[string]any{"foo": "bar"})
	if err != nil {
		t.Fatalf("unexpected error encoding json: %v", err)
	}
	if !nj.Valid {
		t.Fatal("expected json to be marked valid")
	}

	nj, err = EncodeJSON(nil)
	if err != nil {
		t.Fatalf("unexpected error for nil json: %v", err)
	}
	if nj.Valid {
		t.Fatal("expected nil json to be invalid")
	}

	rawMessage := json.RawMessage(`{"foo":"baz"}`)
	nj, err = EncodeJSON(rawMessage)
	if err != nil {
		t.Fatalf("unexpected error encoding raw json: %v", err)
	}
	if nj.JSONVal != string(rawMessage) {
		t.Fatalf("expected raw json passed through, got %s", nj.JSONVal)
	}
}

func TestWriterRetriesOnTransientError(t *testing.T) {
	writer, fake := newWriterWithFakeInserter(t)
	fake.responses = []error{
		&googleapi.Error{Code: http.StatusServiceUnavailable},
		nil,
	}

	if err := writer.InsertSale(context.Background(), types.SalesRow{EventID: "1"}); err != nil {
		t.Fatalf("unexpected error writing row: %v", err)
	}
	if len(fake.calls) != 2 {
		t.Fatalf("expected two insert attempts, got %d", len(fake.calls))
	}
	if fake.calls[1].table != "order_sales" {
		t.Fatalf("expected sales table on retry, got %s", fake.calls[1].table)
	}
	if len(writer.salesBuffer) != 0 {
		t.Fatal("expected buffer to be empty after success")
	}
}

func TestWriterStopsOnPermanentError(t *testing.T) {
	writer, fake := newWriterWithFakeInserter(t)
	fake.responses = []error{&googleapi.Error{Code: http.StatusBadRequest}}

	err := writer.InsertEnquiry(context.Background(), types.EnquiryRow{EventID: "1"})
	if err == nil {
		t.Fatal("expected error for 400")
	}
	if len(fake.calls) != 1 {
		t.Fatalf("expected a single attempt, got %d", len(fake.calls))
	}
	if fake.calls[0].table != "enquiries" {
		t.Fatalf("unexpected table %s", fake.calls[0].table)
	}
	if len(writer.enquiryBuffer) != 0 {
		t.Fatal("failed batch should be dropped")
	}
}

func TestWriterGivesUpAfterMaxAttempts(t *testing.T) {
	writer, fake := newWriterWithFakeInserter(t)
	unavailable := status.Error(codes.Unavailable, "try later")
	fake.responses = []error{unavailable, unavailable, unavailable, unavailable}

	err := writer.InsertSale(context.Background(), types.SalesRow{EventID: "1"})
	if !errors.Is(err, unavailable) {
		t.Fatalf("expected wrapped unavailable error, got %v", err)
	}
	if len(fake.calls) != defaultMaxAttempts {
		t.Fatalf("expected %d attempts, got %d", defaultMaxAttempts, len(fake.calls))
	}
}

func TestWriterBatchingAndFlush(t *testing.T) {
	writer, fake := newWriterWithFakeInserter(t)
	writer.batchSize = 2
	ctx := context.Background()

	if err := writer.InsertSale(ctx, types.SalesRow{EventID: "1"}); err != nil {
		t.Fatalf("unexpected error on first insert: %v", err)
	}
	if len(fake.calls) != 0 {
		t.Fatalf("expected no insert before batch full, got %d", len(fake.calls))
	}
	if err := writer.InsertSale(ctx, types.SalesRow{EventID: "2"}); err != nil {
		t.Fatalf("unexpected error on second insert: %v", err)
	}
	if len(fake.calls) != 1 || fake.calls[0].rowCount != 2 {
		t.Fatalf("expected one insert of two rows, got %+v", fake.calls)
	}

	if err := writer.InsertEnquiry(ctx, types.EnquiryRow{EventID: "3"}); err != nil {
		t.Fatalf("unexpected enquiry insert error: %v", err)
	}
	if err := writer.Flush(ctx); err != nil {
		t.Fatalf("unexpected flush error: %v", err)
	}
	if len(fake.calls) != 2 || fake.calls[1].table != "enquiries" {
		t.Fatalf("expected flush to write enquiries, got %+v", fake.calls)
	}
}

func TestIsRetryableBigQueryError(t *testing.T) {
	cases := map[string]struct {
		err  error
		want bool
	}{
		"nil":           {nil, false},
		"429":           {&googleapi.Error{Code: http.StatusTooManyRequests}, true},
		"403":           {&googleapi.Error{Code: http.StatusForbidden}, false},
		"grpc internal": {status.Error(codes.Internal, "x"), true},
		"grpc invalid":  {status.Error(codes.InvalidArgument, "x"), false},
		"plain":         {errors.New("boom"), false},
		"partial rows":  {&bigquery.RowInsertError{Table: "order_sales", Failed: 1, First: status.Error(codes.Internal, "x")}, false},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			if got := isRetryableBigQueryError(tc.err); got != tc.want {
				t.Fatalf("isRetryableBigQueryError(%v) = %v, want %v", tc.err, got, tc.want)
			}
		})
	}
}

type insertCall struct {
	table    string
	rowCount int
}

type fakeInserter struct {
	responses []error
	calls     []insertCall
	index     int
}

func (f *fakeInserter) InsertRows(_ context.Context, table string, rows []any) error {
	f.calls = append(f.calls, insertCall{table: table, rowCount: len(rows)})
	var err error
	if f.index < len(f.responses) {
		err = f.responses[f.index]
	}
	f.index++
	return err
}

func newWriterWithFakeInserter(t *testing.T) (*BigQueryWriter, *fakeInserter) {
	t.Helper()
	fake := &fakeInserter{}
	writer, err := New(fake, Config{
		SalesTable:   "order_sales",
		EnquiryTable: "enquiries",
	})
	if err != nil {
		t.Fatalf("construct writer: %v", err)
	}
	writer.sleep = func(context.Context, time.Duration) error { return nil }
	return writer, fake
}
