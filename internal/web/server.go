package web

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/vadiminshakov/paydash/internal/charts"
	"github.com/vadiminshakov/paydash/internal/clients"
	"github.com/vadiminshakov/paydash/internal/dashboard"
	"github.com/vadiminshakov/paydash/internal/domain"
	"github.com/vadiminshakov/paydash/internal/services/export"
	"github.com/vadiminshakov/paydash/internal/view"
)

const heartbeatInterval = 30 * time.Second

type dashboardService interface {
	Snapshot() dashboard.State
	Subscribe() (<-chan struct{}, func())
	Notifications(buffer int) (<-chan domain.Notification, func())
	CurrentNotification() (domain.Notification, bool)

	ApplyFilter(c domain.FilterCriteria) (view.TransactionsView, error)
	ClearFilters() view.TransactionsView
	Refresh(ctx context.Context) error

	SubmitTransfer(ctx context.Context, form domain.TransferForm) error
	SubmitRegistration(ctx context.Context, form domain.RegistrationForm) (view.RegistrationView, error)
	SubmitVault(ctx context.Context, form domain.VaultForm) error
	RequestWithdrawal(ctx context.Context, form domain.WithdrawalForm) error
	DecideWithdrawal(ctx context.Context, decision domain.WithdrawalDecision) error
	FormFocused()
	FormChanged()

	Plans(ctx context.Context, address string) ([]domain.SavingsPlan, error)
	Convert(ctx context.Context, form domain.ConversionForm) (view.ConversionView, error)
	ReceiptURL(id string) string
	ExportTo(w io.Writer) (string, error)
	ExportFile() (string, error)
	ToggleTheme() (bool, error)
}

// Server exposes the dashboard over HTTP: an HTML page, JSON view models, actions
// and an SSE stream of state changes and notifications.
type Server struct {
	Addr      string
	Dashboard dashboardService
	logger    *zap.Logger
}

// NewServer creates a new web server instance.
func NewServer(addr string, d dashboardService, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{Addr: addr, Dashboard: d, logger: logger}
}

// Handler returns the router serving every endpoint.
func (s *Server) Handler() http.Handler {
	r := mux.NewRouter()
	r.HandleFunc("/", s.handleIndex).Methods(http.MethodGet)
	r.HandleFunc("/events", s.handleEvents).Methods(http.MethodGet)

	r.HandleFunc("/api/state", s.handleState).Methods(http.MethodGet)
	r.HandleFunc("/api/users", s.handleUsers).Methods(http.MethodGet)
	r.HandleFunc("/api/transactions", s.handleTransactions).Methods(http.MethodGet)
	r.HandleFunc("/api/rates", s.handleRates).Methods(http.MethodGet)
	r.HandleFunc("/api/vaults", s.handleVaults).Methods(http.MethodGet)
	r.HandleFunc("/api/plans", s.handlePlans).Methods(http.MethodGet)
	r.HandleFunc("/api/convert", s.handleConvert).Methods(http.MethodGet)

	r.HandleFunc("/api/filter", s.handleFilter).Methods(http.MethodPost)
	r.HandleFunc("/api/filter/clear", s.handleClearFilters).Methods(http.MethodPost)
	r.HandleFunc("/api/refresh", s.handleRefresh).Methods(http.MethodPost)
	r.HandleFunc("/api/forms/focus", s.handleFormEvent).Methods(http.MethodPost)
	r.HandleFunc("/api/theme/toggle", s.handleToggleTheme).Methods(http.MethodPost)
	r.HandleFunc("/api/export", s.handleExportFile).Methods(http.MethodPost)

	r.HandleFunc("/api/send", s.handleSend).Methods(http.MethodPost)
	r.HandleFunc("/api/register", s.handleRegister).Methods(http.MethodPost)
	r.HandleFunc("/api/vaults", s.handleCreateVault).Methods(http.MethodPost)
	r.HandleFunc("/api/vaults/{id}/withdrawals", s.handleWithdrawal).Methods(http.MethodPost)
	r.HandleFunc("/api/vaults/{id}/approvals", s.handleApproval).Methods(http.MethodPost)

	r.HandleFunc("/receipt/{id}", s.handleReceipt).Methods(http.MethodGet)
	r.HandleFunc("/export.csv", s.handleExportCSV).Methods(http.MethodGet)
	r.HandleFunc("/charts/{name}.png", s.handleChart).Methods(http.MethodGet)

	return r
}

// Start runs the HTTP server (blocking) and shuts it down when ctx is cancelled.
func (s *Server) Start(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	server := &http.Server{
		Addr:              s.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	s.logger.Info("web dashboard listening", zap.String("addr", s.Addr))
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprint(w, indexHTML)
}

// handleEvents streams "state" events after every change and "notification" events
// for every show and dismiss.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	changes, unsubscribe := s.Dashboard.Subscribe()
	defer unsubscribe()
	notes, unsubscribeNotes := s.Dashboard.Notifications(8)
	defer unsubscribeNotes()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	// send a comment heartbeat every 30s so proxies keep connection
	heartbeat := time.NewTicker(heartbeatInterval)
	defer heartbeat.Stop()

	if err := writeEvent(w, flusher, "state", s.Dashboard.Snapshot()); err != nil {
		s.logger.Warn("event stream initial state", zap.Error(err))
		return
	}
	if note, ok := s.Dashboard.CurrentNotification(); ok {
		_ = writeEvent(w, flusher, "notification", note)
	}

	for {
		select {
		case <-r.Context().Done():
			return
		case <-heartbeat.C:
			fmt.Fprintf(w, ": ping\n\n")
			flusher.Flush()
		case _, ok := <-changes:
			if !ok {
				return
			}
			if err := writeEvent(w, flusher, "state", s.Dashboard.Snapshot()); err != nil {
				s.logger.Debug("event stream closed", zap.Error(err))
				return
			}
		case note, ok := <-notes:
			if !ok {
				return
			}
			if err := writeEvent(w, flusher, "notification", note); err != nil {
				s.logger.Debug("event stream closed", zap.Error(err))
				return
			}
		}
	}
}

func writeEvent(w io.Writer, flusher http.Flusher, event string, v any) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return errors.Wrapf(err, "marshal %s event", event)
	}
	if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, payload); err != nil {
		return err
	}
	flusher.Flush()
	return nil
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.Dashboard.Snapshot())
}

func (s *Server) handleUsers(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.Dashboard.Snapshot().Users)
}

func (s *Server) handleTransactions(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.Dashboard.Snapshot().Transactions)
}

func (s *Server) handleRates(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.Dashboard.Snapshot().Rates)
}

func (s *Server) handleVaults(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.Dashboard.Snapshot().Vaults)
}

func (s *Server) handlePlans(w http.ResponseWriter, r *http.Request) {
	plans, err := s.Dashboard.Plans(r.Context(), r.URL.Query().Get("address"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"plans": plans})
}

func (s *Server) handleConvert(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	v, err := s.Dashboard.Convert(r.Context(), domain.ConversionForm{Amount: q.Get("amount"), Currency: q.Get("currency")})
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, v)
}

func (s *Server) handleFilter(w http.ResponseWriter, r *http.Request) {
	var c domain.FilterCriteria
	if !s.decode(w, r, &c) {
		return
	}
	v, err := s.Dashboard.ApplyFilter(c)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, v)
}

func (s *Server) handleClearFilters(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.Dashboard.ClearFilters())
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	if err := s.Dashboard.Refresh(r.Context()); err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, s.Dashboard.Snapshot())
}

type formEvent struct {
	Event string `json:"event"`
}

func (s *Server) handleFormEvent(w http.ResponseWriter, r *http.Request) {
	var ev formEvent
	if !s.decode(w, r, &ev) {
		return
	}
	switch ev.Event {
	case "focus":
		s.Dashboard.FormFocused()
	case "change":
		s.Dashboard.FormChanged()
	default:
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "event must be focus or change"})
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleToggleTheme(w http.ResponseWriter, r *http.Request) {
	dark, err := s.Dashboard.ToggleTheme()
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]bool{"dark_mode": dark})
}

func (s *Server) handleSend(w http.ResponseWriter, r *http.Request) {
	var form domain.TransferForm
	if !s.decode(w, r, &form) {
		return
	}
	if err := s.Dashboard.SubmitTransfer(r.Context(), form); err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, successResponse{Success: true})
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var form domain.RegistrationForm
	if !s.decode(w, r, &form) {
		return
	}
	v, err := s.Dashboard.SubmitRegistration(r.Context(), form)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, v)
}

func (s *Server) handleCreateVault(w http.ResponseWriter, r *http.Request) {
	var form domain.VaultForm
	if !s.decode(w, r, &form) {
		return
	}
	if err := s.Dashboard.SubmitVault(r.Context(), form); err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, successResponse{Success: true})
}

func (s *Server) handleWithdrawal(w http.ResponseWriter, r *http.Request) {
	var form domain.WithdrawalForm
	if !s.decode(w, r, &form) {
		return
	}
	form.VaultID = mux.Vars(r)["id"]
	if err := s.Dashboard.RequestWithdrawal(r.Context(), form); err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, successResponse{Success: true})
}

func (s *Server) handleApproval(w http.ResponseWriter, r *http.Request) {
	var decision domain.WithdrawalDecision
	if !s.decode(w, r, &decision) {
		return
	}
	decision.VaultID = mux.Vars(r)["id"]
	if err := s.Dashboard.DecideWithdrawal(r.Context(), decision); err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, successResponse{Success: true})
}

func (s *Server) handleReceipt(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, s.Dashboard.ReceiptURL(mux.Vars(r)["id"]), http.StatusFound)
}

func (s *Server) handleExportCSV(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	name, err := s.Dashboard.ExportTo(&buf)
	if err != nil {
		s.writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	_, _ = buf.WriteTo(w)
}

func (s *Server) handleExportFile(w http.ResponseWriter, r *http.Request) {
	path, err := s.Dashboard.ExportFile()
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"path": path})
}

func (s *Server) handleChart(w http.ResponseWriter, r *http.Request) {
	name, err := charts.ParseName(mux.Vars(r)["name"])
	if err != nil {
		s.writeError(w, err)
		return
	}

	st := s.Dashboard.Snapshot()
	var buf bytes.Buffer
	if err := charts.Render(&buf, name, st.Aggregates, st.DarkMode); err != nil {
		s.writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-cache")
	_, _ = buf.WriteTo(w)
}

type errorResponse struct {
	Error string `json:"error"`
}

type successResponse struct {
	Success bool `json:"success"`
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, out any) bool {
	if err := json.NewDecoder(r.Body).Decode(out); err != nil {
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return false
	}
	return true
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.logger.Warn("request failed", zap.Int("status", status), zap.Error(err))
	}
	s.writeJSON(w, status, errorResponse{Error: messageFor(err)})
}

func statusFor(err error) int {
	var be *clients.BackendError
	switch {
	case domain.IsValidationError(err):
		return http.StatusBadRequest
	case errors.Is(err, dashboard.ErrBusy):
		return http.StatusConflict
	case errors.Is(err, export.ErrNothingToExport), errors.Is(err, charts.ErrNoData):
		return http.StatusNotFound
	case errors.Is(err, charts.ErrUnknownChart):
		return http.StatusNotFound
	case errors.As(err, &be):
		return http.StatusBadGateway
	case errors.Is(err, clients.ErrTransport):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func messageFor(err error) string {
	var be *clients.BackendError
	if errors.As(err, &be) && be.Message != "" {
		return be.Message
	}
	var ve *domain.ValidationError
	if errors.As(err, &ve) {
		return ve.Message
	}
	return err.Error()
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Debug("failed to write response", zap.Error(err))
	}
}
