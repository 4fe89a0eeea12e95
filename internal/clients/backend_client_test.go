package clients

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vadiminshakov/paydash/internal/domain"
	"go.uber.org/zap"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *BackendClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewBackendClient(srv.URL+"/api", 0, zap.NewNop())
}

func TestBackendClient_ListTransactions(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/transactions", r.URL.Path)
		assert.NotEmpty(t, r.Header.Get(requestIDHeader))
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"transactions":[
			{"id":"TX1","amount":30.00,"fee":0.30,"status":"SUCCESS","timestamp":"2024-01-01 10:00","sender":"Ahmed","recipient":"Fatima"},
			{"id":"TX2","amount":70.50,"fee":0.71,"status":"PENDING","timestamp":"2024-01-01 11:00","sender":"Fatima","recipient":"Ahmed"}
		]}`)
	})

	txs, err := client.ListTransactions(context.Background())
	require.NoError(t, err)
	require.Len(t, txs, 2)
	assert.Equal(t, "TX1", txs[0].ID)
	assert.Equal(t, domain.StatusPending, txs[1].Status)
	assert.True(t, txs[1].Amount.Equal(decimal.RequireFromString("70.5")))
	assert.True(t, txs[0].Fee.Equal(decimal.RequireFromString("0.3")))
}

func TestBackendClient_ListRatesAndVaults(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/rates":
			io.WriteString(w, `{"rates":{"AED":{"rate":3.6725,"recommendation":"GOOD","savings":-1.25}},"lastUpdate":"10:00"}`)
		case "/api/vaults":
			assert.Equal(t, "0xabc", r.URL.Query().Get("user"))
			io.WriteString(w, `{"vaults":[{"id":"V1","name":"School","purpose":"fees","total":1000,"remaining":600,"progress":40.0,"guardians":2,"pending":1,"status":"ACTIVE","created":"2024-01-01"}]}`)
		default:
			http.NotFound(w, r)
		}
	})

	rates, err := client.ListRates(context.Background())
	require.NoError(t, err)
	require.Contains(t, rates, "AED")
	assert.Equal(t, "GOOD", rates["AED"].Recommendation)
	assert.True(t, rates["AED"].Savings.IsNegative())

	vaults, err := client.ListVaults(context.Background(), "0xabc")
	require.NoError(t, err)
	require.Len(t, vaults, 1)
	assert.Equal(t, 2, vaults[0].Guardians)
	assert.True(t, vaults[0].Progress.Equal(decimal.NewFromInt(40)))
}

func TestBackendClient_SendTransfer(t *testing.T) {
	var got map[string]any
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		io.WriteString(w, `{"success":true,"message":"Transaction successful!"}`)
	})

	msg, err := client.SendTransfer(context.Background(), domain.Transfer{
		Sender:    "0xa",
		Recipient: "0xb",
		Amount:    decimal.RequireFromString("12.5"),
	})
	require.NoError(t, err)
	assert.Equal(t, "Transaction successful!", msg)
	assert.Equal(t, "0xa", got["sender"])
	assert.Equal(t, "0xb", got["recipient"])
	assert.Equal(t, "12.5", got["amount"])
}

func TestBackendClient_BusinessFailure(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"success":false,"message":"Insufficient balance"}`)
	})

	_, err := client.SendTransfer(context.Background(), domain.Transfer{Sender: "a", Recipient: "b", Amount: decimal.NewFromInt(1)})
	require.Error(t, err)

	var backendErr *BackendError
	require.True(t, errors.As(err, &backendErr))
	assert.Equal(t, "Insufficient balance", backendErr.Message)
	assert.False(t, errors.Is(err, ErrTransport))
}

func TestBackendClient_HTTPStatusFailure(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	})

	_, err := client.ListUsers(context.Background())
	require.Error(t, err)

	var backendErr *BackendError
	require.True(t, errors.As(err, &backendErr))
	assert.Equal(t, http.StatusInternalServerError, backendErr.StatusCode)
	assert.Contains(t, err.Error(), "boom")
}

func TestBackendClient_JSONErrorBody(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"success":false,"message":"Invalid amount"}`))
	})

	_, err := client.SendTransfer(context.Background(), domain.Transfer{Sender: "a", Recipient: "b"})
	require.Error(t, err)

	var backendErr *BackendError
	require.True(t, errors.As(err, &backendErr))
	assert.Equal(t, http.StatusBadRequest, backendErr.StatusCode)
	assert.Equal(t, "Invalid amount", backendErr.Message)
}

func TestBackendClient_TransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	base := srv.URL
	srv.Close()

	client := NewBackendClient(base, 0, zap.NewNop())
	_, err := client.ListUsers(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrTransport))
}

func TestBackendClient_RegisterUser(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/register", r.URL.Path)
		io.WriteString(w, `{"success":true,"message":"User registered successfully!","address":"0xdeadbeef"}`)
	})

	res, err := client.RegisterUser(context.Background(), domain.Registration{Name: "Omar", Type: "Basic"})
	require.NoError(t, err)
	assert.Equal(t, "Omar", res.Name, "falls back to submitted name")
	assert.Equal(t, "0xdeadbeef", res.Address)
}

func TestBackendClient_ConvertAndReceipt(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "100", r.URL.Query().Get("amount"))
		assert.Equal(t, "EUR", r.URL.Query().Get("currency"))
		io.WriteString(w, `{"amount":100.00,"currency":"EUR","converted":92.10,"rate":0.9210}`)
	})

	conv, err := client.Convert(context.Background(), decimal.NewFromInt(100), "EUR")
	require.NoError(t, err)
	assert.True(t, conv.Converted.Equal(decimal.RequireFromString("92.1")))

	assert.Contains(t, client.ReceiptURL("TX 1"), "/api/receipt?id=TX+1")
}
