package clients

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/vadiminshakov/paydash/internal/domain"
	"go.uber.org/zap"
)

const (
	DefaultBaseURL = "http://localhost:8000/api"

	requestIDHeader = "X-Request-ID"
	maxErrorBody    = 512
)

// ErrTransport matches every failure to reach the backend or read its answer.
var ErrTransport = errors.New("backend transport failure")

// TransportError is a network level failure talking to the backend.
type TransportError struct {
	Endpoint string
	Err      error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: %v", e.Endpoint, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// Is lets errors.Is(err, ErrTransport) match any TransportError.
func (e *TransportError) Is(target error) bool {
	return target == ErrTransport
}

// BackendError is a failure reported by the backend itself: a non-2xx status
// or a mutation answered with success=false.
type BackendError struct {
	Endpoint   string
	StatusCode int
	Message    string
}

func (e *BackendError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s returned status %d: %s", e.Endpoint, e.StatusCode, e.Message)
	}
	return e.Message
}

// Backend is the remote data fetcher used by the dashboard.
type Backend interface {
	ListUsers(ctx context.Context) ([]domain.User, error)
	ListTransactions(ctx context.Context) ([]domain.Transaction, error)
	ListRates(ctx context.Context) (domain.Rates, error)
	ListVaults(ctx context.Context, user string) ([]domain.Vault, error)
	ListPlans(ctx context.Context, address string) ([]domain.SavingsPlan, error)
	Convert(ctx context.Context, amount decimal.Decimal, currency string) (domain.Conversion, error)
	SendTransfer(ctx context.Context, transfer domain.Transfer) (string, error)
	RegisterUser(ctx context.Context, registration domain.Registration) (domain.RegistrationResult, error)
	CreateVault(ctx context.Context, vault domain.VaultCreation) (string, error)
	RequestWithdrawal(ctx context.Context, request domain.WithdrawalRequest) (string, error)
	DecideWithdrawal(ctx context.Context, decision domain.WithdrawalDecision) (string, error)
	ReceiptURL(id string) string
}

// BackendClient talks to the payments backend over HTTP. Every call fetches a full
// snapshot of its resource; there is no paging, no delta fetching and no retry.
type BackendClient struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewBackendClient creates a client for the backend at baseURL. A zero timeout means none.
func NewBackendClient(baseURL string, timeout time.Duration, logger *zap.Logger) *BackendClient {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &BackendClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

type usersResponse struct {
	Users []domain.User `json:"users"`
}

type transactionsResponse struct {
	Transactions []domain.Transaction `json:"transactions"`
}

type ratesResponse struct {
	Rates      domain.Rates `json:"rates"`
	LastUpdate string       `json:"lastUpdate,omitempty"`
}

type vaultsResponse struct {
	Vaults []domain.Vault `json:"vaults"`
}

type plansResponse struct {
	Plans []domain.SavingsPlan `json:"plans"`
}

// mutationResponse is the common answer shape of every POST endpoint.
type mutationResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Name    string `json:"name,omitempty"`
	Address string `json:"address,omitempty"`
}

// ListUsers fetches all registered wallets.
func (c *BackendClient) ListUsers(ctx context.Context) ([]domain.User, error) {
	var resp usersResponse
	if err := c.get(ctx, "/users", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Users, nil
}

// ListTransactions fetches the whole transaction history in backend order.
func (c *BackendClient) ListTransactions(ctx context.Context) ([]domain.Transaction, error) {
	var resp transactionsResponse
	if err := c.get(ctx, "/transactions", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Transactions, nil
}

// ListRates fetches current exchange rates.
func (c *BackendClient) ListRates(ctx context.Context) (domain.Rates, error) {
	var resp ratesResponse
	if err := c.get(ctx, "/rates", nil, &resp); err != nil {
		return nil, err
	}
	if resp.Rates == nil {
		resp.Rates = domain.Rates{}
	}
	return resp.Rates, nil
}

// ListVaults fetches vaults, optionally only those the given wallet takes part in.
func (c *BackendClient) ListVaults(ctx context.Context, user string) ([]domain.Vault, error) {
	var query url.Values
	if user != "" {
		query = url.Values{"user": {user}}
	}
	var resp vaultsResponse
	if err := c.get(ctx, "/vaults", query, &resp); err != nil {
		return nil, err
	}
	return resp.Vaults, nil
}

// ListPlans fetches the savings plans available to a wallet, or the default plans.
func (c *BackendClient) ListPlans(ctx context.Context, address string) ([]domain.SavingsPlan, error) {
	var query url.Values
	if address != "" {
		query = url.Values{"address": {address}}
	}
	var resp plansResponse
	if err := c.get(ctx, "/plans", query, &resp); err != nil {
		return nil, err
	}
	return resp.Plans, nil
}

// Convert asks the backend to convert a USDT amount into currency.
func (c *BackendClient) Convert(ctx context.Context, amount decimal.Decimal, currency string) (domain.Conversion, error) {
	query := url.Values{
		"amount":   {amount.String()},
		"currency": {currency},
	}
	var resp domain.Conversion
	if err := c.get(ctx, "/convert", query, &resp); err != nil {
		return domain.Conversion{}, err
	}
	return resp, nil
}

// ReceiptURL returns the address of the printable receipt for a transaction.
func (c *BackendClient) ReceiptURL(id string) string {
	return c.baseURL + "/receipt?" + url.Values{"id": {id}}.Encode()
}

// SendTransfer submits a transfer and returns the backend's confirmation message.
func (c *BackendClient) SendTransfer(ctx context.Context, transfer domain.Transfer) (string, error) {
	resp, err := c.mutate(ctx, "/send", transfer)
	if err != nil {
		return "", err
	}
	return resp.Message, nil
}

// RegisterUser creates a wallet. The backend assigns the address.
func (c *BackendClient) RegisterUser(ctx context.Context, registration domain.Registration) (domain.RegistrationResult, error) {
	resp, err := c.mutate(ctx, "/register", registration)
	if err != nil {
		return domain.RegistrationResult{}, err
	}

	name := resp.Name
	if name == "" {
		name = registration.Name
	}
	return domain.RegistrationResult{Name: name, Address: resp.Address, Message: resp.Message}, nil
}

// CreateVault submits a new vault with its guardians in input order.
func (c *BackendClient) CreateVault(ctx context.Context, vault domain.VaultCreation) (string, error) {
	resp, err := c.mutate(ctx, "/vault/create", vault)
	if err != nil {
		return "", err
	}
	return resp.Message, nil
}

// RequestWithdrawal opens a withdrawal request that the vault guardians must approve.
func (c *BackendClient) RequestWithdrawal(ctx context.Context, request domain.WithdrawalRequest) (string, error) {
	resp, err := c.mutate(ctx, "/vault/request", request)
	if err != nil {
		return "", err
	}
	return resp.Message, nil
}

// DecideWithdrawal records a guardian's approval or rejection.
func (c *BackendClient) DecideWithdrawal(ctx context.Context, decision domain.WithdrawalDecision) (string, error) {
	resp, err := c.mutate(ctx, "/vault/approve", decision)
	if err != nil {
		return "", err
	}
	return resp.Message, nil
}

func (c *BackendClient) mutate(ctx context.Context, endpoint string, payload any) (mutationResponse, error) {
	var resp mutationResponse
	if err := c.post(ctx, endpoint, payload, &resp); err != nil {
		return mutationResponse{}, err
	}
	if !resp.Success {
		msg := resp.Message
		if msg == "" {
			msg = "request rejected by backend"
		}
		return mutationResponse{}, &BackendError{Endpoint: endpoint, Message: msg}
	}
	return resp, nil
}

func (c *BackendClient) get(ctx context.Context, endpoint string, query url.Values, out any) error {
	target := c.baseURL + endpoint
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return errors.Wrapf(err, "build request for %s", endpoint)
	}

	return c.do(req, endpoint, out)
}

func (c *BackendClient) post(ctx context.Context, endpoint string, payload, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return errors.Wrapf(err, "marshal %s payload", endpoint)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+endpoint, bytes.NewReader(body))
	if err != nil {
		return errors.Wrapf(err, "build request for %s", endpoint)
	}
	req.Header.Set("Content-Type", "application/json")

	return c.do(req, endpoint, out)
}

func (c *BackendClient) do(req *http.Request, endpoint string, out any) error {
	requestID := uuid.NewString()
	req.Header.Set(requestIDHeader, requestID)
	req.Header.Set("Accept", "application/json")

	started := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn("backend request failed",
			zap.String("endpoint", endpoint), zap.String("request_id", requestID), zap.Error(err))
		return &TransportError{Endpoint: endpoint, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return &TransportError{Endpoint: endpoint, Err: errors.Wrap(err, "read response body")}
	}

	c.logger.Debug("backend request done",
		zap.String("method", req.Method),
		zap.String("endpoint", endpoint),
		zap.String("request_id", requestID),
		zap.Int("status", resp.StatusCode),
		zap.Duration("took", time.Since(started)))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &BackendError{Endpoint: endpoint, StatusCode: resp.StatusCode, Message: errorMessage(body)}
	}

	if err := json.Unmarshal(body, out); err != nil {
		return &TransportError{Endpoint: endpoint, Err: errors.Wrap(err, "decode response")}
	}

	return nil
}

// errorMessage prefers the message field of a JSON error body over the raw body.
func errorMessage(body []byte) string {
	var payload struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err == nil {
		if payload.Message != "" {
			return payload.Message
		}
		if payload.Error != "" {
			return payload.Error
		}
	}
	return truncate(string(body), maxErrorBody)
}

func truncate(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
