package enquiries

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/sweetdelights/bakery-backend/pkg/db"
	"github.com/sweetdelights/bakery-backend/pkg/db/models"
	"github.com/sweetdelights/bakery-backend/pkg/enums"
	pkgerrors "github.com/sweetdelights/bakery-backend/pkg/errors"
	"github.com/sweetdelights/bakery-backend/pkg/logger"
	"github.com/sweetdelights/bakery-backend/pkg/outbox"
	"github.com/sweetdelights/bakery-backend/pkg/outbox/payloads"
	"github.com/sweetdelights/bakery-backend/pkg/pagination"
)

const (
	defaultWindow = 10 * time.Minute
	defaultLimit  = 5
	maxMessageLen = 2000
)

var validate = validator.New()

// Service handles storefront enquiries and the admin enquiry desk.
type Service interface {
	Submit(ctx context.Context, input SubmitInput) (*EnquiryDTO, error)
	List(ctx context.Context, filters ListFilters, params pagination.Params) (*EnquiryList, error)
	Get(ctx context.Context, id uuid.UUID) (*EnquiryDTO, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status enums.EnquiryStatus) (*EnquiryDTO, error)
	Delete(ctx context.Context, id uuid.UUID) error
	Export(ctx context.Context, filters ListFilters) ([]EnquiryDTO, error)
}

// SubmitInput is the enquiry form. ClientKey identifies the sender for rate
// limiting, normally the client IP.
type SubmitInput struct {
	ProductID *uuid.UUID
	Name      string
	Email     string
	Phone     string
	EventDate *time.Time
	Size      string
	Message   string
	ClientKey string
	Actor     *outbox.ActorRef
}

type RateLimit struct {
	Limit  int
	Window time.Duration
}

type ServiceParams struct {
	Repo      Repository
	Products  ProductReader
	Limiter   RateLimiter
	RateLimit RateLimit
	Tx        db.TxRunner
	Outbox    outbox.Emitter
	Logger    *logger.Logger
	Clock     func() time.Time
}

type service struct {
	repo     Repository
	products ProductReader
	limiter  RateLimiter
	limit    RateLimit
	tx       db.TxRunner
	outbox   outbox.Emitter
	logg     *logger.Logger
	clock    func() time.Time
}

func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("enquiry repository required")
	}
	if params.Tx == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	if params.Outbox == nil {
		return nil, fmt.Errorf("outbox emitter required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	limit := params.RateLimit
	if limit.Limit <= 0 {
		limit.Limit = defaultLimit
	}
	if limit.Window <= 0 {
		limit.Window = defaultWindow
	}
	clock := params.Clock
	if clock == nil {
		clock = time.Now
	}
	return &service{
		repo:     params.Repo,
		products: params.Products,
		limiter:  params.Limiter,
		limit:    limit,
		tx:       params.Tx,
		outbox:   params.Outbox,
		logg:     params.Logger,
		clock:    clock,
	}, nil
}

// Submit stores the enquiry and queues enquiry_submitted in one transaction.
// The rate limiter fails open when redis is unreachable.
func (s *service) Submit(ctx context.Context, input SubmitInput) (*EnquiryDTO, error) {
	now := s.clock().UTC()
	e, err := s.buildEnquiry(ctx, input, now)
	if err != nil {
		return nil, err
	}
	if err := s.checkRate(ctx, input.ClientKey); err != nil {
		return nil, err
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.repo.WithTx(tx).Create(ctx, e); err != nil {
			return err
		}
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventEnquirySubmitted,
			AggregateType: enums.AggregateEnquiry,
			AggregateID:   e.ID,
			Actor:         input.Actor,
			OccurredAt:    now,
			Data: payloads.EnquirySubmittedEvent{
				EnquiryID:   e.ID,
				Name:        e.Name,
				Email:       e.Email,
				Phone:       e.Phone,
				ProductName: e.ProductName,
				EventDate:   e.EventDate,
				SubmittedAt: now,
			},
		})
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "could not send enquiry, please try again")
	}

	s.logg.Info(s.logg.WithField(ctx, "enquiry_id", e.ID.String()), "enquiry submitted")
	dto := FromModel(*e)
	return &dto, nil
}

func (s *service) buildEnquiry(ctx context.Context, input SubmitInput, now time.Time) (*models.Enquiry, error) {
	e := &models.Enquiry{
		ProductID: input.ProductID,
		Name:      strings.TrimSpace(input.Name),
		Email:     strings.TrimSpace(input.Email),
		Phone:     strings.TrimSpace(input.Phone),
		EventDate: input.EventDate,
		Size:      strings.TrimSpace(input.Size),
		Message:   strings.TrimSpace(input.Message),
		Status:    enums.EnquiryStatusNew,
		CreatedAt: now,
	}

	var missing []string
	for _, f := range []struct{ name, value string }{
		{"name", e.Name}, {"email", e.Email}, {"phone", e.Phone}, {"message", e.Message},
	} {
		if f.value == "" {
			missing = append(missing, f.name)
		}
	}
	if len(missing) > 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "required fields are missing").
			WithDetails(map[string]any{"missing": missing})
	}
	if err := validate.Var(e.Email, "email"); err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "email is invalid")
	}
	if len(e.Message) > maxMessageLen {
		return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "message must be at most %d characters", maxMessageLen)
	}
	if e.EventDate != nil {
		y, m, d := now.Date()
		if e.EventDate.Before(time.Date(y, m, d, 0, 0, 0, 0, time.UTC)) {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "event date is in the past")
		}
	}

	if e.ProductID != nil && s.products != nil {
		product, err := s.products.FindByID(ctx, *e.ProductID)
		if err != nil {
			if pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
				return nil, pkgerrors.New(pkgerrors.CodeValidation, "product does not exist")
			}
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
		}
		name := product.Name
		e.ProductName = &name
	}
	return e, nil
}

func (s *service) checkRate(ctx context.Context, clientKey string) error {
	clientKey = strings.TrimSpace(clientKey)
	if s.limiter == nil || clientKey == "" {
		return nil
	}
	ok, count, err := s.limiter.FixedWindowAllow(ctx, "enquiry:"+clientKey, int64(s.limit.Limit), s.limit.Window)
	if err != nil {
		s.logg.WarnErr(ctx, "enquiry rate limiter unavailable", err)
		return nil
	}
	if !ok {
		return pkgerrors.New(pkgerrors.CodeRateLimit, "too many enquiries, please try again later").
			WithDetails(map[string]any{"count": count, "retryAfterSeconds": int(s.limit.Window.Seconds())})
	}
	return nil
}

func (s *service) List(ctx context.Context, filters ListFilters, params pagination.Params) (*EnquiryList, error) {
	rows, next, err := s.repo.List(ctx, filters, params)
	if err != nil {
		return nil, err
	}
	list := &EnquiryList{Enquiries: make([]EnquiryDTO, 0, len(rows)), NextCursor: next}
	for _, e := range rows {
		list.Enquiries = append(list.Enquiries, FromModel(e))
	}
	return list, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*EnquiryDTO, error) {
	e, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	dto := FromModel(*e)
	return &dto, nil
}

func (s *service) UpdateStatus(ctx context.Context, id uuid.UUID, status enums.EnquiryStatus) (*EnquiryDTO, error) {
	if !status.IsValid() {
		return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "invalid enquiry status %q", status)
	}
	if err := s.repo.UpdateStatus(ctx, id, status); err != nil {
		return nil, err
	}
	return s.Get(ctx, id)
}

func (s *service) Delete(ctx context.Context, id uuid.UUID) error {
	return s.repo.Delete(ctx, id)
}

func (s *service) Export(ctx context.Context, filters ListFilters) ([]EnquiryDTO, error) {
	rows, err := s.repo.ListAll(ctx, filters)
	if err != nil {
		return nil, err
	}
	out := make([]EnquiryDTO, 0, len(rows))
	for _, e := range rows {
		out = append(out, FromModel(e))
	}
	return out, nil
}
