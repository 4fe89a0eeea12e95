package domain

import "github.com/shopspring/decimal"

// MinGuardians is the minimum number of guardians a vault can be created with.
const MinGuardians = 2

// Vault is a shared savings construct. Progress is computed by the backend and trusted as given.
type Vault struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Purpose   string          `json:"purpose"`
	Total     decimal.Decimal `json:"total"`
	Released  decimal.Decimal `json:"released"`
	Remaining decimal.Decimal `json:"remaining"`
	Progress  decimal.Decimal `json:"progress"`
	Guardians int             `json:"guardians"`
	Pending   int             `json:"pending"`
	Created   string          `json:"created"`
	Status    string          `json:"status"`
}

// Guardian holds approval authority over a vault's withdrawals.
type Guardian struct {
	Name    string `json:"name"`
	Address string `json:"address"`
	Role    string `json:"role"`
}

// Complete reports whether every guardian field is filled in.
func (g Guardian) Complete() bool {
	return g.Name != "" && g.Address != "" && g.Role != ""
}

// VaultCreation is a validated vault creation payload.
type VaultCreation struct {
	Name      string          `json:"name"`
	Purpose   string          `json:"purpose"`
	Amount    decimal.Decimal `json:"amount"`
	Creator   string          `json:"creator"`
	Guardians []Guardian      `json:"guardians"`
}

// WithdrawalRequest asks the guardians of a vault to release funds.
type WithdrawalRequest struct {
	VaultID   string          `json:"vaultId"`
	Requester string          `json:"requester"`
	Amount    decimal.Decimal `json:"amount"`
	Purpose   string          `json:"purpose"`
	Proof     string          `json:"proof"`
}

// WithdrawalDecision is a guardian's vote on a pending withdrawal request.
type WithdrawalDecision struct {
	VaultID   string `json:"vaultId"`
	RequestID string `json:"requestId"`
	Guardian  string `json:"guardian"`
	Approve   bool   `json:"approve"`
}

// SavingsPlan offered by the backend for a wallet.
type SavingsPlan struct {
	Name          string          `json:"name"`
	Description   string          `json:"description"`
	InterestRate  decimal.Decimal `json:"interestRate"`
	MinimumAmount decimal.Decimal `json:"minimumAmount"`
	LockingPeriod string          `json:"lockingPeriod"`
}
