package writer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	cbigquery "cloud.google.com/go/bigquery"
	"google.golang.org/api/googleapi"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/sweetdelights/bakery-backend/internal/analytics/types"
	"github.com/sweetdelights/bakery-backend/pkg/bigquery"
)

const (
	defaultBatchSize      = 1
	defaultMaxAttempts    = 3
	defaultInitialBackoff = 250 * time.Millisecond
	defaultMaximumBackoff = 2 * time.Second
)

// Config controls the analytics writer behavior.
type Config struct {
	SalesTable   string
	EnquiryTable string
	BatchSize    int
	RetryPolicy  RetryPolicy
}

// RetryPolicy controls how many times BigQuery inserts are retried.
type RetryPolicy struct {
	MaxAttempts    int
	InitialBackoff time.Duration
	MaximumBackoff time.Duration
}

type tableInserter interface {
	InsertRows(ctx context.Context, table string, rows []any) error
}

// BigQueryWriter inserts analytics rows into BigQuery with retries and optional batching.
type BigQueryWriter struct {
	client       tableInserter
	salesTable   string
	enquiryTable string
	batchSize    int
	retry        RetryPolicy
	sleep        func(ctx context.Context, d time.Duration) error

	mu            sync.Mutex
	salesBuffer   []types.SalesRow
	enquiryBuffer []types.EnquiryRow
}

// New creates a BigQueryWriter on top of anything that can insert rows;
// *pkg/bigquery.Client in production.
func New(client tableInserter, cfg Config) (*BigQueryWriter, error) {
	if client == nil {
		return nil, errors.New("bigquery client required")
	}
	sales := strings.TrimSpace(cfg.SalesTable)
	if sales == "" {
		return nil, errors.New("sales table is required")
	}
	enquiries := strings.TrimSpace(cfg.EnquiryTable)
	if enquiries == "" {
		return nil, errors.New("enquiry table is required")
	}

	batchSize := cfg.BatchSize
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}

	retry := cfg.RetryPolicy
	if retry.MaxAttempts <= 0 {
		retry.MaxAttempts = defaultMaxAttempts
	}
	if retry.InitialBackoff <= 0 {
		retry.InitialBackoff = defaultInitialBackoff
	}
	if retry.MaximumBackoff <= 0 {
		retry.MaximumBackoff = defaultMaximumBackoff
	}
	if retry.MaximumBackoff < retry.InitialBackoff {
		retry.MaximumBackoff = retry.InitialBackoff
	}

	return &BigQueryWriter{
		client:       client,
		salesTable:   sales,
		enquiryTable: enquiries,
		batchSize:    batchSize,
		retry:        retry,
		sleep:        sleepCtx,
	}, nil
}

// InsertSale buffers one order_sales row and flushes once the batch is full.
func (w *BigQueryWriter) InsertSale(ctx context.Context, row types.SalesRow) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.salesBuffer = append(w.salesBuffer, row)
	if len(w.salesBuffer) >= w.batchSize {
		return w.flushSales(ctx)
	}
	return nil
}

// InsertEnquiry buffers one enquiries row and flushes once the batch is full.
func (w *BigQueryWriter) InsertEnquiry(ctx context.Context, row types.EnquiryRow) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.enquiryBuffer = append(w.enquiryBuffer, row)
	if len(w.enquiryBuffer) >= w.batchSize {
		return w.flushEnquiries(ctx)
	}
	return nil
}

// Flush writes any buffered rows immediately.
func (w *BigQueryWriter) Flush(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.flushSales(ctx); err != nil {
		return err
	}
	return w.flushEnquiries(ctx)
}

// A failed batch is dropped; the consumer nacks and redelivery re-buffers it.
func (w *BigQueryWriter) flushSales(ctx context.Context) error {
	if len(w.salesBuffer) == 0 {
		return nil
	}
	rows := make([]any, len(w.salesBuffer))
	for i := range w.salesBuffer {
		rows[i] = &w.salesBuffer[i]
	}
	if err := w.insertWithRetry(ctx, w.salesTable, rows); err != nil {
		w.salesBuffer = w.salesBuffer[:0]
		return err
	}
	w.salesBuffer = w.salesBuffer[:0]
	return nil
}

func (w *BigQueryWriter) flushEnquiries(ctx context.Context) error {
	if len(w.enquiryBuffer) == 0 {
		return nil
	}
	rows := make([]any, len(w.enquiryBuffer))
	for i := range w.enquiryBuffer {
		rows[i] = &w.enquiryBuffer[i]
	}
	if err := w.insertWithRetry(ctx, w.enquiryTable, rows); err != nil {
		w.enquiryBuffer = w.enquiryBuffer[:0]
		return err
	}
	w.enquiryBuffer = w.enquiryBuffer[:0]
	return nil
}

func (w *BigQueryWriter) insertWithRetry(ctx context.Context, table string, rows []any) error {
	if len(rows) == 0 {
		return nil
	}

	attempts := 0
	backoff := w.retry.InitialBackoff

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		err := w.client.InsertRows(ctx, table, rows)
		if err == nil {
			return nil
		}

		attempts++
		if attempts >= w.retry.MaxAttempts || !isRetryableBigQueryError(err) {
			return fmt.Errorf("insert %s rows: %w", table, err)
		}

		if err := w.sleep(ctx, backoff); err != nil {
			return err
		}
		backoff = minDuration(backoff*2, w.retry.MaximumBackoff)
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func minDuration(a, b time.Duration) time.Duration {
	if a < b {
		return a
	}
	return b
}

func isRetryableBigQueryError(err error) bool {
	if err == nil {
		return false
	}

	// Part of the batch already landed.
	var partial *bigquery.RowInsertError
	if errors.As(err, &partial) {
		return false
	}

	var multi *cbigquery.MultiError
	if errors.As(err, &multi) {
		if multi == nil || len(*multi) == 0 {
			return false
		}
		for _, inner := range *multi {
			if !isRetryableBigQueryError(inner) {
				return false
			}
		}
		return true
	}

	var pme *cbigquery.PutMultiError
	if errors.As(err, &pme) {
		if pme == nil || len(*pme) == 0 {
			return false
		}
		for _, rowErr := range *pme {
			if !isRetryableBigQueryError(rowErr.Errors) {
				return false
			}
		}
		return true
	}

	var rowErr *cbigquery.RowInsertionError
	if errors.As(err, &rowErr) {
		if rowErr == nil || len(rowErr.Errors) == 0 {
			return false
		}
		for _, inner := range rowErr.Errors {
			if !isRetryableBigQueryError(inner) {
				return false
			}
		}
		return true
	}

	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		return isRetryableHTTPCode(apiErr.Code)
	}

	var statusErr interface{ GRPCStatus() *status.Status }
	if errors.As(err, &statusErr) {
		if st := statusErr.GRPCStatus(); st != nil {
			return isRetryableGRPCCode(st.Code())
		}
	}

	return false
}

func isRetryableHTTPCode(code int) bool {
	switch code {
	case http.StatusTooManyRequests,
		http.StatusRequestTimeout,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	default:
		return false
	}
}

func isRetryableGRPCCode(code codes.Code) bool {
	switch code {
	case codes.Aborted,
		codes.DeadlineExceeded,
		codes.Internal,
		codes.ResourceExhausted,
		codes.Unavailable:
		return true
	default:
		return false
	}
}

// EncodeJSON serializes the provided payload so it can be stored in BigQuery JSON columns.
func EncodeJSON(payload any) (cbigquery.NullJSON, error) {
	switch value := payload.(type) {
	case nil:
		return cbigquery.NullJSON{}, nil
	case cbigquery.NullJSON:
		return value, nil
	case json.RawMessage:
		if len(value) == 0 {
			return cbigquery.NullJSON{}, nil
		}
		return cbigquery.NullJSON{Valid: true, JSONVal: string(value)}, nil
	case []byte:
		if len(value) == 0 {
			return cbigquery.NullJSON{}, nil
		}
		return cbigquery.NullJSON{Valid: true, JSONVal: string(value)}, nil
	}

	marshaled, err := json.Marshal(payload)
	if err != nil {
		return cbigquery.NullJSON{}, fmt.Errorf("marshal json: %w", err)
	}
	if len(marshaled) == 0 {
		return cbigquery.NullJSON{}, nil
	}
	return cbigquery.NullJSON{Valid: true, JSONVal: string(marshaled)}, nil
}
