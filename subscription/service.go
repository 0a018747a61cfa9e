package subscription

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	resp "github.com/zllovesuki/rmc-fees/response"

	"github.com/go-chi/chi"
	"go.uber.org/zap"
)

type ServiceOptions struct {
	Manager *Manager
	Logger  *zap.Logger
}

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

func (s *Service) listPlans(w http.ResponseWriter, r *http.Request) {
	resp.WriteResponse(w, r, s.Manager.ListDefinedPlans())
}

type SubscriptionSetupRequest struct {
	ID         string    `json:"id"`
	CustomerID string    `json:"customerId"`
	PlanID     string    `json:"planId"`
	StartedAt  time.Time `json:"startedAt"`
}

func (s *Service) setupSubscription(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req SubscriptionSetupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		resp.WriteError(w, r, resp.ErrInvalidJson())
		return
	}

	logger := s.Logger.With(
		zap.String("CustomerID", req.CustomerID),
		zap.String("PlanID", req.PlanID),
	)

	plan, ok := s.Manager.GetDefinedPlanByID(req.PlanID)
	if !ok {
		resp.WriteError(w, r, resp.ErrBadRequest().AddMessages("Plan is not defined"))
		return
	}

	sub := &Subscription{
		ID:         req.ID,
		CustomerID: req.CustomerID,
		PlanID:     plan.ID,
		State:      StateActive,
		StartedAt:  req.StartedAt,
	}
	if err := s.Manager.Create(ctx, sub); err != nil {
		logger.Error("Unable to setup subscription",
			zap.Error(err),
		)
		resp.WriteError(w, r, resp.ErrBadRequest().AddMessages("Unable to setup subscription"))
		return
	}
	sub.Plan = plan

	resp.WriteResponse(w, r, sub)
}

func (s *Service) getSubscription(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	subscriptionID := chi.URLParam(r, "id")

	sub, err := s.Manager.Get(ctx, subscriptionID)
	if err != nil {
		resp.WriteError(w, r, resp.ErrUnexpected().AddMessages("Unable to get subscription"))
		return
	}
	if sub == nil {
		resp.WriteError(w, r, resp.ErrNotFound())
		return
	}

	resp.WriteResponse(w, r, sub)
}

func (s *Service) Router() http.Handler {
	r := chi.NewRouter()

	r.Get("/plans", s.listPlans)
	r.Post("/", s.setupSubscription)
	r.Get("/{id}", s.getSubscription)

	return r
}
