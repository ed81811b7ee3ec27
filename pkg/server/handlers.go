package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	apperrors "github.com/yieldrail/bridge-orchestrator/pkg/app/errors"
	apphttp "github.com/yieldrail/bridge-orchestrator/pkg/app/http"
	"github.com/yieldrail/bridge-orchestrator/pkg/bridge"
	"github.com/yieldrail/bridge-orchestrator/pkg/chains"
	"github.com/yieldrail/bridge-orchestrator/pkg/consensus"
	"github.com/yieldrail/bridge-orchestrator/pkg/db"
	"github.com/yieldrail/bridge-orchestrator/pkg/liquidity"
	"github.com/yieldrail/bridge-orchestrator/pkg/monitor"
	"github.com/yieldrail/bridge-orchestrator/pkg/subscriptions"
)

// BridgeService is the state-machine surface the HTTP layer calls
type BridgeService interface {
	InitiateBridge(ctx context.Context, req *bridge.InitiateRequest) (*db.Transaction, error)
	GetBridgeTransaction(ctx context.Context, id string) (*db.Transaction, error)
	GetBridgeStatus(ctx context.Context, id string, history bridge.HistoryProvider) (*bridge.StatusView, error)
	CancelBridgeTransaction(ctx context.Context, id string) (bool, error)
	RetryBridgeTransaction(ctx context.Context, id string) (bool, error)
	BridgeEstimate(sourceChain, destChain string, amount decimal.Decimal) (*bridge.Estimate, error)
	GetBridgeAnalytics(ctx context.Context, timeRange string) (*bridge.Analytics, error)
	ListBySender(ctx context.Context, sender string, limit int) ([]*db.Transaction, error)
}

// LiquidityProvider serves pool views and availability checks
type LiquidityProvider interface {
	Pools() []liquidity.Pool
	CheckAvailability(sourceChain, destChain string, amount decimal.Decimal, token string) *liquidity.Availability
}

// ConsensusProvider serves the validator roster and persisted round results
type ConsensusProvider interface {
	ActiveValidators() []consensus.Validator
	ValidationResult(ctx context.Context, transactionID string) (*consensus.Result, error)
}

// SubscriptionTracker serves subscriber registration and stats
type SubscriptionTracker interface {
	Subscribe(transactionID, subscriberID string)
	Unsubscribe(transactionID, subscriberID string)
	History(transactionID string) *subscriptions.History
	Stats() subscriptions.Stats
}

// MonitorService is the admin monitoring surface
type MonitorService interface {
	Metrics() monitor.Metrics
	Start()
	Stop()
	Running() bool
}

// ReadinessChecker reports whether a backing dependency is reachable
type ReadinessChecker interface {
	Ping(ctx context.Context) error
}

// Handler serves the bridge orchestrator REST API
type Handler struct {
	bridge    BridgeService
	registry  *chains.Registry
	liquidity LiquidityProvider
	consensus ConsensusProvider
	tracker   SubscriptionTracker
	monitor   MonitorService
	readiness []ReadinessChecker
	validate  *validator.Validate
	logger    *zap.Logger
}

// NewHandler wires the REST handlers to their services
func NewHandler(
	bridgeSvc BridgeService,
	registry *chains.Registry,
	liquiditySvc LiquidityProvider,
	consensusSvc ConsensusProvider,
	tracker SubscriptionTracker,
	monitorSvc MonitorService,
	readiness []ReadinessChecker,
	logger *zap.Logger,
) *Handler {
	return &Handler{
		bridge:    bridgeSvc,
		registry:  registry,
		liquidity: liquiditySvc,
		consensus: consensusSvc,
		tracker:   tracker,
		monitor:   monitorSvc,
		readiness: readiness,
		validate:  validator.New(),
		logger:    logger,
	}
}

type initiateBridgeRequest struct {
	SourceChain      string          `json:"sourceChain" validate:"required"`
	DestinationChain string          `json:"destinationChain" validate:"required"`
	Amount           decimal.Decimal `json:"amount" validate:"required"`
	Token            string          `json:"token" validate:"required"`
	SenderAddress    string          `json:"senderAddress" validate:"required"`
	RecipientAddress string          `json:"recipientAddress" validate:"required"`
	PaymentID        *string         `json:"paymentId,omitempty"`
}

type liquidityCheckRequest struct {
	SourceChain      string          `json:"sourceChain" validate:"required"`
	DestinationChain string          `json:"destinationChain" validate:"required"`
	Amount           decimal.Decimal `json:"amount" validate:"required"`
	Token            string          `json:"token" validate:"required"`
}

type subscribeRequest struct {
	SubscriberID string `json:"subscriberId" validate:"required"`
}

func (h *Handler) decode(r *http.Request, v interface{}) error {
	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		return apperrors.ValidationError(err, "failed to read request body")
	}
	if err := json.Unmarshal(body, v); err != nil {
		return apperrors.ValidationError(err, "invalid JSON payload")
	}
	if err := h.validate.Struct(v); err != nil {
		return apperrors.ValidationError(err, err.Error())
	}
	return nil
}

func (h *Handler) initiateBridge(w http.ResponseWriter, r *http.Request) error {
	var req initiateBridgeRequest
	if err := h.decode(r, &req); err != nil {
		return err
	}

	tx, err := h.bridge.InitiateBridge(r.Context(), &bridge.InitiateRequest{
		SourceChain:      req.SourceChain,
		DestinationChain: req.DestinationChain,
		Amount:           req.Amount,
		Token:            req.Token,
		SenderAddress:    req.SenderAddress,
		RecipientAddress: req.RecipientAddress,
		PaymentID:        req.PaymentID,
	})
	if err != nil {
		return err
	}

	return apphttp.WriteJSON(w, http.StatusCreated, tx)
}

func (h *Handler) getTransaction(w http.ResponseWriter, r *http.Request) error {
	id := chi.URLParam(r, "id")

	tx, err := h.bridge.GetBridgeTransaction(r.Context(), id)
	if err != nil {
		return err
	}
	if tx == nil {
		return apperrors.NotFoundError(nil, "Transaction not found")
	}

	return apphttp.WriteJSON(w, http.StatusOK, tx)
}

func (h *Handler) getStatus(w http.ResponseWriter, r *http.Request) error {
	id := chi.URLParam(r, "id")

	view, err := h.bridge.GetBridgeStatus(r.Context(), id, h.tracker)
	if err != nil {
		return err
	}
	if view == nil {
		return apperrors.NotFoundError(nil, "Transaction not found")
	}

	return apphttp.WriteJSON(w, http.StatusOK, view)
}

func (h *Handler) cancelTransaction(w http.ResponseWriter, r *http.Request) error {
	id := chi.URLParam(r, "id")

	canceled, err := h.bridge.CancelBridgeTransaction(r.Context(), id)
	if err != nil {
		return err
	}

	return apphttp.WriteJSON(w, http.StatusOK, map[string]bool{"canceled": canceled})
}

func (h *Handler) retryTransaction(w http.ResponseWriter, r *http.Request) error {
	id := chi.URLParam(r, "id")

	retried, err := h.bridge.RetryBridgeTransaction(r.Context(), id)
	if err != nil {
		return err
	}

	return apphttp.WriteJSON(w, http.StatusOK, map[string]bool{"retried": retried})
}

func (h *Handler) getEstimate(w http.ResponseWriter, r *http.Request) error {
	q := r.URL.Query()
	amount, err := decimal.NewFromString(q.Get("amount"))
	if err != nil {
		return apperrors.ValidationError(err, "invalid amount")
	}

	estimate, err := h.bridge.BridgeEstimate(q.Get("sourceChain"), q.Get("destinationChain"), amount)
	if err != nil {
		return err
	}

	return apphttp.WriteJSON(w, http.StatusOK, estimate)
}

func (h *Handler) getAnalytics(w http.ResponseWriter, r *http.Request) error {
	timeRange := r.URL.Query().Get("range")
	if timeRange == "" {
		timeRange = "day"
	}

	analytics, err := h.bridge.GetBridgeAnalytics(r.Context(), timeRange)
	if err != nil {
		return err
	}

	return apphttp.WriteJSON(w, http.StatusOK, analytics)
}

func (h *Handler) listBySender(w http.ResponseWriter, r *http.Request) error {
	sender := chi.URLParam(r, "address")

	txs, err := h.bridge.ListBySender(r.Context(), sender, 100)
	if err != nil {
		return err
	}
	if txs == nil {
		txs = []*db.Transaction{}
	}

	return apphttp.WriteJSON(w, http.StatusOK, txs)
}

func (h *Handler) getChains(w http.ResponseWriter, _ *http.Request) error {
	return apphttp.WriteJSON(w, http.StatusOK, h.registry.Supported())
}

func (h *Handler) getPools(w http.ResponseWriter, _ *http.Request) error {
	return apphttp.WriteJSON(w, http.StatusOK, h.liquidity.Pools())
}

func (h *Handler) checkLiquidity(w http.ResponseWriter, r *http.Request) error {
	var req liquidityCheckRequest
	if err := h.decode(r, &req); err != nil {
		return err
	}

	availability := h.liquidity.CheckAvailability(req.SourceChain, req.DestinationChain, req.Amount, req.Token)
	return apphttp.WriteJSON(w, http.StatusOK, availability)
}

func (h *Handler) getValidators(w http.ResponseWriter, _ *http.Request) error {
	return apphttp.WriteJSON(w, http.StatusOK, h.consensus.ActiveValidators())
}

func (h *Handler) getValidation(w http.ResponseWriter, r *http.Request) error {
	id := chi.URLParam(r, "id")

	result, err := h.consensus.ValidationResult(r.Context(), id)
	if err != nil {
		return err
	}
	if result == nil {
		return apperrors.NotFoundError(nil, "no validation result for transaction")
	}

	return apphttp.WriteJSON(w, http.StatusOK, result)
}

func (h *Handler) subscribe(w http.ResponseWriter, r *http.Request) error {
	id := chi.URLParam(r, "id")

	var req subscribeRequest
	if err := h.decode(r, &req); err != nil {
		return err
	}

	h.tracker.Subscribe(id, req.SubscriberID)
	return apphttp.WriteJSON(w, http.StatusOK, map[string]bool{"subscribed": true})
}

func (h *Handler) unsubscribe(w http.ResponseWriter, r *http.Request) error {
	id := chi.URLParam(r, "id")

	var req subscribeRequest
	if err := h.decode(r, &req); err != nil {
		return err
	}

	h.tracker.Unsubscribe(id, req.SubscriberID)
	return apphttp.WriteJSON(w, http.StatusOK, map[string]bool{"unsubscribed": true})
}

func (h *Handler) getHistory(w http.ResponseWriter, r *http.Request) error {
	id := chi.URLParam(r, "id")

	history := h.tracker.History(id)
	if history == nil {
		return apperrors.NotFoundError(nil, "no update history for transaction")
	}

	return apphttp.WriteJSON(w, http.StatusOK, history)
}

func (h *Handler) getSubscriptionStats(w http.ResponseWriter, _ *http.Request) error {
	return apphttp.WriteJSON(w, http.StatusOK, h.tracker.Stats())
}

func (h *Handler) getMonitoring(w http.ResponseWriter, _ *http.Request) error {
	return apphttp.WriteJSON(w, http.StatusOK, h.monitor.Metrics())
}

func (h *Handler) startMonitoring(w http.ResponseWriter, _ *http.Request) error {
	h.monitor.Start()
	return apphttp.WriteJSON(w, http.StatusOK, map[string]bool{"running": h.monitor.Running()})
}

func (h *Handler) stopMonitoring(w http.ResponseWriter, _ *http.Request) error {
	h.monitor.Stop()
	return apphttp.WriteJSON(w, http.StatusOK, map[string]bool{"running": h.monitor.Running()})
}

func (h *Handler) health(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// ready reports 503 until every backing dependency answers a ping
func (h *Handler) ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	for _, checker := range h.readiness {
		if err := checker.Ping(ctx); err != nil {
			h.logger.Warn("Readiness check failed", zap.Error(err))
			_ = apphttp.WriteJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
	}
	_ = apphttp.WriteJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}
