package domain

import (
	"strings"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

// ValidationError is a local input problem detected before any network call.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// IsValidationError reports whether err is, or wraps, a ValidationError.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

func invalid(msg string) error {
	return &ValidationError{Message: msg}
}

// TransferForm is the raw input of the send-money form.
type TransferForm struct {
	Sender    string `json:"sender"`
	Recipient string `json:"recipient"`
	Amount    string `json:"amount"`
}

// Validate checks the form and returns the payload to submit.
func (f TransferForm) Validate() (Transfer, error) {
	amountStr := strings.TrimSpace(f.Amount)
	if f.Sender == "" || f.Recipient == "" || amountStr == "" {
		return Transfer{}, invalid("Please fill all fields")
	}
	if f.Sender == f.Recipient {
		return Transfer{}, invalid("Cannot send to yourself!")
	}
	amount, err := decimal.NewFromString(amountStr)
	if err != nil || !amount.IsPositive() {
		return Transfer{}, invalid("Amount must be greater than 0")
	}

	return Transfer{Sender: f.Sender, Recipient: f.Recipient, Amount: amount}, nil
}

// RegistrationForm is the raw input of the registration form.
type RegistrationForm struct {
	Name    string `json:"name"`
	Type    string `json:"type"`
	Balance string `json:"balance"`
}

// Validate checks the form. An empty balance registers the wallet with zero funds.
func (f RegistrationForm) Validate() (Registration, error) {
	name := strings.TrimSpace(f.Name)
	if name == "" {
		return Registration{}, invalid("Please enter a name")
	}

	balance := decimal.Zero
	if s := strings.TrimSpace(f.Balance); s != "" {
		var err error
		balance, err = decimal.NewFromString(s)
		if err != nil {
			return Registration{}, invalid("Balance must be a number")
		}
	}
	if balance.IsNegative() {
		return Registration{}, invalid("Balance cannot be negative")
	}

	return Registration{Name: name, Type: f.Type, Balance: balance}, nil
}

// VaultForm is the raw input of the vault creation form, guardian rows included.
type VaultForm struct {
	Name      string     `json:"name"`
	Purpose   string     `json:"purpose"`
	Amount    string     `json:"amount"`
	Creator   string     `json:"creator"`
	Guardians []Guardian `json:"guardians"`
}

// Validate keeps only complete guardian rows, in input order, and requires at least MinGuardians.
func (f VaultForm) Validate() (VaultCreation, error) {
	if f.Creator == "" {
		return VaultCreation{}, invalid("Please select creator wallet")
	}

	guardians := make([]Guardian, 0, len(f.Guardians))
	for _, g := range f.Guardians {
		g.Name = strings.TrimSpace(g.Name)
		g.Role = strings.TrimSpace(g.Role)
		if g.Complete() {
			guardians = append(guardians, g)
		}
	}
	if len(guardians) < MinGuardians {
		return VaultCreation{}, invalid("Add at least 2 guardians")
	}

	amount := decimal.Zero
	if s := strings.TrimSpace(f.Amount); s != "" {
		var err error
		amount, err = decimal.NewFromString(s)
		if err != nil || amount.IsNegative() {
			return VaultCreation{}, invalid("Vault amount must be a non-negative number")
		}
	}

	return VaultCreation{
		Name:      f.Name,
		Purpose:   f.Purpose,
		Amount:    amount,
		Creator:   f.Creator,
		Guardians: guardians,
	}, nil
}

// WithdrawalForm is the raw input of a withdrawal request.
type WithdrawalForm struct {
	VaultID   string `json:"vaultId"`
	Requester string `json:"requester"`
	Amount    string `json:"amount"`
	Purpose   string `json:"purpose"`
	Proof     string `json:"proof"`
}

// Validate checks the form and returns the payload to submit.
func (f WithdrawalForm) Validate() (WithdrawalRequest, error) {
	if f.VaultID == "" || f.Requester == "" {
		return WithdrawalRequest{}, invalid("Please select a vault and requester")
	}
	amount, err := decimal.NewFromString(strings.TrimSpace(f.Amount))
	if err != nil || !amount.IsPositive() {
		return WithdrawalRequest{}, invalid("Amount must be greater than 0")
	}

	return WithdrawalRequest{
		VaultID:   f.VaultID,
		Requester: f.Requester,
		Amount:    amount,
		Purpose:   strings.TrimSpace(f.Purpose),
		Proof:     strings.TrimSpace(f.Proof),
	}, nil
}

// Validate checks that the decision names a request and the voting guardian.
func (d WithdrawalDecision) Validate() error {
	if d.VaultID == "" || d.RequestID == "" || d.Guardian == "" {
		return invalid("Please select a vault, request and guardian")
	}
	return nil
}

// ConversionForm is the raw input of the currency converter.
type ConversionForm struct {
	Amount   string `json:"amount"`
	Currency string `json:"currency"`
}

// Validate returns the amount to convert.
func (f ConversionForm) Validate() (decimal.Decimal, error) {
	amount, err := decimal.NewFromString(strings.TrimSpace(f.Amount))
	if err != nil || !amount.IsPositive() || f.Currency == "" {
		return decimal.Zero, invalid("Enter a valid amount")
	}
	return amount, nil
}
