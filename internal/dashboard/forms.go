package dashboard

import (
	"context"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/vadiminshakov/paydash/internal/clients"
	"github.com/vadiminshakov/paydash/internal/domain"
	"github.com/vadiminshakov/paydash/internal/view"
)

// Form identifies a submit control.
type Form string

const (
	FormTransfer     Form = "transfer"
	FormRegistration Form = "registration"
	FormVault        Form = "vault"
	FormWithdrawal   Form = "withdrawal"
	FormApproval     Form = "approval"
	FormRefresh      Form = "refresh"
)

// ErrBusy is returned when a form is submitted again while its request is in flight.
var ErrBusy = errors.New("submission already in progress")

type labels struct {
	idle string
	busy string
}

var formLabels = map[Form]labels{
	FormTransfer:     {idle: "Send Money", busy: "⏳ Processing..."},
	FormRegistration: {idle: "Create Wallet", busy: "⏳ Creating User..."},
	FormVault:        {idle: "Create Vault", busy: "⏳ Creating Vault..."},
	FormWithdrawal:   {idle: "Request Withdrawal", busy: "⏳ Requesting..."},
	FormApproval:     {idle: "Submit Vote", busy: "⏳ Submitting..."},
	FormRefresh:      {idle: "Refresh", busy: "⏳ Refreshing..."},
}

func defaultControls() map[Form]domain.ControlState {
	controls := make(map[Form]domain.ControlState, len(formLabels))
	for f, l := range formLabels {
		controls[f] = domain.ControlState{Label: l.idle, Enabled: true}
	}
	return controls
}

// acquire disables the control of f. The returned release restores its label and enabled flag.
func (d *Dashboard) acquire(f Form) (func(), error) {
	d.mu.Lock()
	prev := d.controls[f]
	if !prev.Enabled {
		d.mu.Unlock()
		d.logger.Debug("submission rejected, form busy", zap.String("form", string(f)))
		return nil, ErrBusy
	}
	d.controls[f] = domain.ControlState{Label: formLabels[f].busy, Enabled: false}
	d.mu.Unlock()
	d.changed()

	return func() {
		d.mu.Lock()
		d.controls[f] = prev
		d.mu.Unlock()
		d.changed()
	}, nil
}

// Control returns the state of a form's submit control.
func (d *Dashboard) Control(f Form) domain.ControlState {
	d.mu.RLock()
	defer d.mu.RUnlock()

	return d.controls[f]
}

// SubmitTransfer validates and sends a transfer, then reloads users, transactions and rates
// and resumes auto-refresh.
func (d *Dashboard) SubmitTransfer(ctx context.Context, form domain.TransferForm) error {
	transfer, err := form.Validate()
	if err != nil {
		d.notifier.Error("❌ " + err.Error())
		return err
	}

	release, err := d.acquire(FormTransfer)
	if err != nil {
		return err
	}
	defer release()

	if _, err := d.backend.SendTransfer(ctx, transfer); err != nil {
		d.logger.Error("transfer failed",
			zap.String("sender", transfer.Sender),
			zap.String("recipient", transfer.Recipient),
			zap.String("amount", transfer.Amount.String()),
			zap.Error(err))
		d.reportFailure(err, "Network error")
		return err
	}

	d.notifier.Success("✅ Transaction successful!")
	d.afterSubmission(ctx, d.reload)

	return nil
}

// SubmitRegistration validates and registers a wallet, then reloads users.
func (d *Dashboard) SubmitRegistration(ctx context.Context, form domain.RegistrationForm) (view.RegistrationView, error) {
	registration, err := form.Validate()
	if err != nil {
		d.notifier.Error("❌ " + err.Error())
		return view.RegistrationView{}, err
	}

	release, err := d.acquire(FormRegistration)
	if err != nil {
		return view.RegistrationView{}, err
	}
	defer release()

	res, err := d.backend.RegisterUser(ctx, registration)
	if err != nil {
		d.logger.Error("registration failed", zap.String("name", registration.Name), zap.Error(err))
		d.reportFailure(err, "Failed to register user")
		return view.RegistrationView{}, err
	}

	v := view.Registration(res, registration)
	d.mu.Lock()
	d.registration = &v
	d.mu.Unlock()

	d.notifier.Success("✅ User registered successfully!")
	d.afterSubmission(ctx, d.loadUsers)

	return v, nil
}

// SubmitVault validates and creates a vault, then reloads vaults and users.
func (d *Dashboard) SubmitVault(ctx context.Context, form domain.VaultForm) error {
	vault, err := form.Validate()
	if err != nil {
		d.notifier.Error("❌ " + err.Error())
		return err
	}

	release, err := d.acquire(FormVault)
	if err != nil {
		return err
	}
	defer release()

	if _, err := d.backend.CreateVault(ctx, vault); err != nil {
		d.logger.Error("vault creation failed", zap.String("name", vault.Name), zap.Error(err))
		d.reportFailure(err, "Failed to create vault")
		return err
	}

	d.notifier.Success("✅ Vault created successfully!")
	d.afterSubmission(ctx, func(ctx context.Context) error {
		if err := d.loadVaults(ctx); err != nil {
			return err
		}
		return d.loadUsers(ctx)
	})

	return nil
}

// RequestWithdrawal asks a vault's guardians to release funds, then reloads vaults.
func (d *Dashboard) RequestWithdrawal(ctx context.Context, form domain.WithdrawalForm) error {
	request, err := form.Validate()
	if err != nil {
		d.notifier.Error("❌ " + err.Error())
		return err
	}

	release, err := d.acquire(FormWithdrawal)
	if err != nil {
		return err
	}
	defer release()

	if _, err := d.backend.RequestWithdrawal(ctx, request); err != nil {
		d.logger.Error("withdrawal request failed", zap.String("vault", request.VaultID), zap.Error(err))
		d.reportFailure(err, "Failed to request withdrawal")
		return err
	}

	d.notifier.Success("✅ Withdrawal request submitted")
	d.afterSubmission(ctx, d.loadVaults)

	return nil
}

// DecideWithdrawal records a guardian's vote on a pending request, then reloads vaults.
func (d *Dashboard) DecideWithdrawal(ctx context.Context, decision domain.WithdrawalDecision) error {
	if err := decision.Validate(); err != nil {
		d.notifier.Error("❌ " + err.Error())
		return err
	}

	release, err := d.acquire(FormApproval)
	if err != nil {
		return err
	}
	defer release()

	if _, err := d.backend.DecideWithdrawal(ctx, decision); err != nil {
		d.logger.Error("withdrawal decision failed",
			zap.String("vault", decision.VaultID),
			zap.String("request", decision.RequestID),
			zap.Error(err))
		d.reportFailure(err, "Failed to submit decision")
		return err
	}

	if decision.Approve {
		d.notifier.Success("✅ Withdrawal approved")
	} else {
		d.notifier.Success("✅ Withdrawal rejected")
	}
	d.afterSubmission(ctx, d.loadVaults)

	return nil
}

// afterSubmission reloads the views a mutation changed and resumes auto-refresh.
// A reload failure keeps the previous view; the submission itself already succeeded.
func (d *Dashboard) afterSubmission(ctx context.Context, reload func(context.Context) error) {
	if err := reload(ctx); err != nil {
		d.logger.Warn("reload after submission failed", zap.Error(err))
	}
	d.scheduler.SubmissionSucceeded()
	d.changed()
}

// reportFailure shows the backend message when there is one, otherwise fallback.
func (d *Dashboard) reportFailure(err error, fallback string) {
	var be *clients.BackendError
	if errors.As(err, &be) && be.Message != "" {
		d.notifier.Error("❌ " + be.Message)
		return
	}
	d.notifier.Error("❌ " + fallback)
}
