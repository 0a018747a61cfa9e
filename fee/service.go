package fee

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/zllovesuki/rmc-fees/proration"
	resp "github.com/zllovesuki/rmc-fees/response"

	"github.com/go-chi/chi"
	"go.uber.org/zap"
)

// ServiceOptions contains the configuration for Service router
type ServiceOptions struct {
	Creator *Creator
	Logger  *zap.Logger
}

// Service is the fee API router
type Service struct {
	ServiceOptions
}

// NewService will create an instance of the fee API router
func NewService(option ServiceOptions) (*Service, error) {
	if option.Creator == nil {
		return nil, fmt.Errorf("nil Creator is invalid")
	}
	if option.Logger == nil {
		return nil, fmt.Errorf("nil Logger is invalid")
	}
	return &Service{
		ServiceOptions: option,
	}, nil
}

func (s *Service) createSubscriptionFee(w http.ResponseWriter, r *http.Request) {
	invoiceID := chi.URLParam(r, "id")

	logger := s.Logger.With(zap.String("InvoiceID", invoiceID))

	result, err := s.Creator.CreateSubscriptionFee(r.Context(), invoiceID)
	if err != nil {
		s.writeError(w, r, logger, err)
		return
	}

	if !result.Success() {
		resp.WriteError(w, r, resp.ErrUnprocessable().WithResult(result.Failure))
		return
	}

	resp.WriteResponse(w, r, result)
}

func (s *Service) previewSubscriptionFee(w http.ResponseWriter, r *http.Request) {
	invoiceID := chi.URLParam(r, "id")

	logger := s.Logger.With(zap.String("InvoiceID", invoiceID))

	detail, err := s.Creator.Preview(r.Context(), invoiceID)
	if err != nil {
		s.writeError(w, r, logger, err)
		return
	}

	resp.WriteResponse(w, r, detail)
}

func (s *Service) writeError(w http.ResponseWriter, r *http.Request, logger *zap.Logger, err error) {
	switch {
	case errors.Is(err, ErrInvoiceNotFound), errors.Is(err, ErrSubscriptionNotFound):
		resp.WriteError(w, r, resp.ErrNotFound().AddMessages(err.Error()))
	case errors.Is(err, proration.ErrUnsupportedInterval):
		resp.WriteError(w, r, resp.ErrConflict().AddMessages(err.Error()))
	default:
		logger.Error("Unable to process subscription fee",
			zap.Error(err),
		)
		resp.WriteError(w, r, resp.ErrUnexpected().AddMessages("Cannot process subscription fee"))
	}
}

// Router will return the routes under fee API. It is mounted below a route
// carrying the invoice as the {id} URL parameter.
func (s *Service) Router() http.Handler {
	r := chi.NewRouter()

	r.Post("/", s.createSubscriptionFee)
	r.Get("/preview", s.previewSubscriptionFee)

	return r
}
