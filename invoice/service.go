package invoice

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	resp "github.com/zllovesuki/rmc-fees/response"
	"github.com/zllovesuki/rmc-fees/spec/broker"

	"github.com/go-chi/chi"
	"go.uber.org/zap"
)

// ServiceOptions contains the configuration for Service router
type ServiceOptions struct {
	Manager  *Manager
	Producer broker.Producer // Optional, InvoiceReady is published for new invoices when set
	Logger   *zap.Logger
}

// Service is the invoice API router
type Service struct {
	ServiceOptions
}

func NewService(option ServiceOptions) (*Service, error) {
	if option.Manager == nil {
		return nil, fmt.Errorf("nil Manager is invalid")
	}
	if option.Logger == nil {
		return nil, fmt.Errorf("nil Logger is invalid")
	}
	return &Service{
		ServiceOptions: option,
	}, nil
}

type InvoiceRequest struct {
	ID             string    `json:"id"`
	SubscriptionID string    `json:"subscriptionId"`
	FromDate       time.Time `json:"fromDate"`
	ToDate         time.Time `json:"toDate"`
}

func (s *Service) createInvoice(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req InvoiceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		resp.WriteError(w, r, resp.ErrInvalidJson())
		return
	}

	logger := s.Logger.With(
		zap.String("InvoiceID", req.ID),
		zap.String("SubscriptionID", req.SubscriptionID),
	)

	inv := &Invoice{
		ID:             req.ID,
		SubscriptionID: req.SubscriptionID,
		FromDate:       req.FromDate,
		ToDate:         req.ToDate,
	}
	if err := s.Manager.Create(ctx, inv); err != nil {
		logger.Error("Unable to create invoice",
			zap.Error(err),
		)
		resp.WriteError(w, r, resp.ErrBadRequest().AddMessages("Unable to create invoice"))
		return
	}

	if s.Producer != nil {
		if err := s.Producer.PublishInvoiceReady(&broker.InvoiceReady{
			InvoiceID: inv.ID,
		}); err != nil {
			// fees can still be created through the fee router
			logger.Error("Unable to publish invoice ready event",
				zap.Error(err),
			)
		}
	}

	resp.WriteResponse(w, r, inv)
}

func (s *Service) getInvoice(w http.ResponseWriter, r *http.Request) {
	inv, err := s.Manager.GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		resp.WriteError(w, r, resp.ErrUnexpected().AddMessages("Unable to get invoice"))
		return
	}
	if inv == nil {
		resp.WriteError(w, r, resp.ErrNotFound())
		return
	}
	resp.WriteResponse(w, r, inv)
}

// Router will return the routes under invoice API
func (s *Service) Router() http.Handler {
	r := chi.NewRouter()

	r.Post("/", s.createInvoice)
	r.Get("/{id}", s.getInvoice)

	return r
}
