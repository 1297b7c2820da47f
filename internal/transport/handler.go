// Package transport exposes the engine operations over HTTP.
package transport

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/goodnatureofminers/donation-ledger-backend/internal/ledger/model"
	"github.com/goodnatureofminers/donation-ledger-backend/internal/ledger/service/orchestrator"
	"github.com/goodnatureofminers/donation-ledger-backend/internal/ledger/service/txrecord"
	"github.com/gorilla/mux"
	"github.com/rs/cors"
	"go.uber.org/zap"
)

const (
	defaultPendingLimit = 100
	maxPendingLimit     = 1000
	maxBodyBytes        = 1 << 20
)

// Response is the envelope of every reply.
type Response struct {
	Success          bool                      `json:"success"`
	TransactionID    string                    `json:"transactionId,omitempty"`
	Applied          *bool                     `json:"applied,omitempty"`
	Record           *model.TransactionRecord  `json:"record,omitempty"`
	Records          []model.TransactionRecord `json:"records,omitempty"`
	Escrow           *model.EscrowAccount      `json:"escrow,omitempty"`
	Milestone        *model.Milestone          `json:"milestone,omitempty"`
	Donation         *model.Donation           `json:"donation,omitempty"`
	PropagationError string                    `json:"propagationError,omitempty"`
	Error            string                    `json:"error,omitempty"`
}

// Handler serves the HTTP API.
type Handler struct {
	records      Records
	orchestrator Orchestrator
	logger       *zap.Logger
}

// NewHandler returns a Handler. orch may be nil when escrow and donation flows are disabled.
func NewHandler(records Records, orch Orchestrator, logger *zap.Logger) *Handler {
	return &Handler{records: records, orchestrator: orch, logger: logger.Named("http")}
}

// Routes returns the router wrapped with CORS and request logging.
func (h *Handler) Routes() http.Handler {
	r := mux.NewRouter()
	r.HandleFunc("/healthz", h.health).Methods(http.MethodGet)

	v1 := r.PathPrefix("/v1").Subrouter()
	v1.HandleFunc("/transactions", h.createTransaction).Methods(http.MethodPost)
	v1.HandleFunc("/transactions/pending", h.pendingTransactions).Methods(http.MethodGet)
	v1.HandleFunc("/transactions/{hash}/status", h.updateStatus).Methods(http.MethodPut)
	v1.HandleFunc("/transactions/{hash}/check", h.checkStatus).Methods(http.MethodPost)
	if h.orchestrator != nil {
		v1.HandleFunc("/escrows", h.createEscrow).Methods(http.MethodPost)
		v1.HandleFunc("/escrows/{campaignID}/milestones/{milestoneID}/release", h.releaseMilestone).Methods(http.MethodPost)
		v1.HandleFunc("/donations", h.donate).Methods(http.MethodPost)
	}
	r.Use(h.logRequests)

	return cors.Default().Handler(r)
}

func (h *Handler) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		started := time.Now()
		next.ServeHTTP(w, r)
		h.logger.Debug("request served",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Duration("took", time.Since(started)))
	})
}

type createTransactionRequest struct {
	Hash       string           `json:"hash"`
	Type       model.TxType     `json:"type"`
	SourceID   string           `json:"sourceId"`
	SourceType model.SourceType `json:"sourceType"`
	Amount     string           `json:"amount"`
	Asset      model.Asset      `json:"asset"`
	Memo       string           `json:"memo"`
}

func (h *Handler) createTransaction(w http.ResponseWriter, r *http.Request) {
	var req createTransactionRequest
	if err := decode(w, r, &req); err != nil {
		h.fail(w, err)
		return
	}
	res := h.records.CreateTransaction(r.Context(), model.TransactionRecord{
		Hash:       req.Hash,
		Type:       req.Type,
		SourceID:   req.SourceID,
		SourceType: req.SourceType,
		Amount:     req.Amount,
		Asset:      req.Asset,
		Memo:       req.Memo,
	})
	if !res.Success {
		h.fail(w, res.Err)
		return
	}
	h.reply(w, http.StatusCreated, Response{Success: true, TransactionID: res.TransactionID, Record: &res.Record})
}

type updateStatusRequest struct {
	Status        model.TxStatus       `json:"status"`
	Details       string               `json:"details"`
	Force         bool                 `json:"force"`
	LedgerDetails *model.LedgerDetails `json:"ledgerDetails"`
}

func (h *Handler) updateStatus(w http.ResponseWriter, r *http.Request) {
	var req updateStatusRequest
	if err := decode(w, r, &req); err != nil {
		h.fail(w, err)
		return
	}
	res := h.records.UpdateTransactionStatus(r.Context(), mux.Vars(r)["hash"], req.Status, req.Details,
		txrecord.UpdateExtra{Force: req.Force, LedgerDetails: req.LedgerDetails})
	if !res.Success {
		h.fail(w, res.Err)
		return
	}
	out := Response{Success: true, TransactionID: res.Record.ID, Applied: &res.Applied, Record: &res.Record}
	if res.PropagationErr != nil {
		out.PropagationError = res.PropagationErr.Error()
	}
	h.reply(w, http.StatusOK, out)
}

func (h *Handler) checkStatus(w http.ResponseWriter, r *http.Request) {
	res := h.records.CheckTransactionStatus(r.Context(), mux.Vars(r)["hash"])
	if !res.Success {
		h.fail(w, res.Err)
		return
	}
	h.reply(w, http.StatusOK, Response{Success: true, TransactionID: res.Record.ID, Record: &res.Record})
}

func (h *Handler) pendingTransactions(w http.ResponseWriter, r *http.Request) {
	var (
		maxAge time.Duration
		limit  = defaultPendingLimit
		err    error
	)
	q := r.URL.Query()
	if v := q.Get("maxAge"); v != "" {
		if maxAge, err = time.ParseDuration(v); err != nil || maxAge < 0 {
			h.fail(w, fmt.Errorf("%w: maxAge %q is not a duration", model.ErrValidation, v))
			return
		}
	}
	if v := q.Get("limit"); v != "" {
		if limit, err = strconv.Atoi(v); err != nil || limit <= 0 || limit > maxPendingLimit {
			h.fail(w, fmt.Errorf("%w: limit must be within 1..%d", model.ErrValidation, maxPendingLimit))
			return
		}
	}

	recs, err := h.records.GetPendingTransactions(r.Context(), maxAge, limit)
	if err != nil {
		h.fail(w, err)
		return
	}
	if recs == nil {
		recs = []model.TransactionRecord{}
	}
	h.reply(w, http.StatusOK, Response{Success: true, Records: recs})
}

type milestoneRequest struct {
	Title             string    `json:"title"`
	Amount            string    `json:"amount"`
	ReleaseDate       time.Time `json:"releaseDate"`
	ReleaseInDays     int       `json:"releaseInDays"`
	ReleaseConditions string    `json:"releaseConditions"`
}

type escrowRequest struct {
	CampaignID     string             `json:"campaignId"`
	CampaignWallet string             `json:"campaignWallet"`
	InitialFunding string             `json:"initialFunding"`
	Milestones     []milestoneRequest `json:"milestones"`
}

func (h *Handler) createEscrow(w http.ResponseWriter, r *http.Request) {
	var req escrowRequest
	if err := decode(w, r, &req); err != nil {
		h.fail(w, err)
		return
	}
	in := orchestrator.EscrowRequest{
		CampaignID:     req.CampaignID,
		CampaignWallet: req.CampaignWallet,
		InitialFunding: req.InitialFunding,
		Milestones:     make([]orchestrator.MilestoneInput, 0, len(req.Milestones)),
	}
	for _, m := range req.Milestones {
		in.Milestones = append(in.Milestones, orchestrator.MilestoneInput(m))
	}

	res := h.orchestrator.CreateEscrow(r.Context(), in)
	if !res.Success {
		h.fail(w, res.Err)
		return
	}
	h.reply(w, http.StatusCreated, Response{Success: true, TransactionID: res.Record.ID, Record: &res.Record, Escrow: &res.Escrow})
}

type releaseRequest struct {
	AuthorizedBy string `json:"authorizedBy"`
}

func (h *Handler) releaseMilestone(w http.ResponseWriter, r *http.Request) {
	var req releaseRequest
	if err := decode(w, r, &req); err != nil {
		h.fail(w, err)
		return
	}
	vars := mux.Vars(r)
	res := h.orchestrator.ReleaseMilestone(r.Context(), orchestrator.ReleaseRequest{
		CampaignID:   vars["campaignID"],
		MilestoneID:  vars["milestoneID"],
		AuthorizedBy: req.AuthorizedBy,
	})
	if !res.Success {
		h.fail(w, res.Err)
		return
	}
	h.reply(w, http.StatusOK, Response{Success: true, TransactionID: res.Record.ID, Record: &res.Record, Milestone: &res.Milestone})
}

type donationRequest struct {
	CampaignID     string           `json:"campaignId"`
	CampaignWallet string           `json:"campaignWallet"`
	DonorWalletID  string           `json:"donorWalletId"`
	Amount         string           `json:"amount"`
	Asset          string           `json:"asset"`
	Memo           string           `json:"memo"`
	Recurring      *model.Frequency `json:"recurring"`
}

func (h *Handler) donate(w http.ResponseWriter, r *http.Request) {
	var req donationRequest
	if err := decode(w, r, &req); err != nil {
		h.fail(w, err)
		return
	}
	res := h.orchestrator.Donate(r.Context(), orchestrator.DonationRequest(req))
	if !res.Success {
		h.fail(w, res.Err)
		return
	}
	h.reply(w, http.StatusCreated, Response{Success: true, TransactionID: res.Record.ID, Record: &res.Record, Donation: &res.Donation})
}

type healthResponse struct {
	Status  string `json:"status"`
	Pending int64  `json:"pending"`
	Error   string `json:"error,omitempty"`
}

func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	pending, err := h.records.CountByStatus(r.Context(), model.StatusPending)
	if err != nil {
		h.logger.Warn("health check failed", zap.Error(err))
		writeJSON(w, http.StatusServiceUnavailable, healthResponse{Status: "unavailable", Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, healthResponse{Status: "ok", Pending: pending})
}

func decode(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: malformed request body: %v", model.ErrValidation, err)
	}
	return nil
}

func (h *Handler) reply(w http.ResponseWriter, status int, res Response) {
	writeJSON(w, status, res)
}

func (h *Handler) fail(w http.ResponseWriter, err error) {
	if err == nil {
		err = errors.New("operation failed")
	}
	status := statusOf(err)
	if status >= http.StatusInternalServerError {
		h.logger.Error("request failed", zap.Error(err))
	}
	writeJSON(w, status, Response{Error: err.Error()})
}

// statusOf maps the error taxonomy onto HTTP status codes.
func statusOf(err error) int {
	switch {
	case errors.Is(err, model.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, model.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, model.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, model.ErrDuplicate), errors.Is(err, model.ErrInvalidTransition):
		return http.StatusConflict
	case errors.Is(err, model.ErrTerminalLedger):
		return http.StatusUnprocessableEntity
	case errors.Is(err, model.ErrRecoverableLedger), errors.Is(err, model.ErrIntegration),
		errors.Is(err, txrecord.ErrNoChecker):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
