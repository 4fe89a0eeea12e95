// Package setup holds the interactive terminal flows: the configuration wizard and
// the send, register and create-vault forms.
package setup

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/vadiminshakov/paydash/config"
	"github.com/vadiminshakov/paydash/internal/domain"
	"github.com/vadiminshakov/paydash/internal/view"
)

var (
	subtle    = lipgloss.AdaptiveColor{Light: "#D9DCCF", Dark: "#383838"}
	highlight = lipgloss.AdaptiveColor{Light: "#874BFD", Dark: "#7D56F4"}
	special   = lipgloss.AdaptiveColor{Light: "#43BF6D", Dark: "#73F59F"}
	failure   = lipgloss.AdaptiveColor{Light: "#DC3545", Dark: "#FF6B6B"}

	headerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")).
			Background(highlight).
			Padding(1, 2).
			Bold(true).
			MarginBottom(1)

	stepStyle = lipgloss.NewStyle().
			Foreground(special).
			Bold(true).
			MarginTop(1).
			MarginBottom(0)
)

// Dashboard is what the terminal forms need from the application state.
type Dashboard interface {
	Users() []domain.User
	FormFocused()
	FormChanged()
	SubmitTransfer(ctx context.Context, form domain.TransferForm) error
	SubmitRegistration(ctx context.Context, form domain.RegistrationForm) (view.RegistrationView, error)
	SubmitVault(ctx context.Context, form domain.VaultForm) error
	CurrentNotification() (domain.Notification, bool)
}

func clearScreen(title string) {
	fmt.Print("\033[H\033[2J")
	fmt.Println(headerStyle.Render(title))
}

// RunConfigWizard asks for the dashboard settings and writes them to path.
func RunConfigWizard(path string) error {
	var (
		apiBase    = config.DefaultAPIBase
		listenAddr = config.DefaultListenAddr
		refreshStr = config.DefaultRefreshInterval.String()
		ttlStr     = config.DefaultNotificationTTL.String()
		timeoutStr = "0s"
		exportDir  = config.DefaultExportDir
	)
	var confirm bool

	clearScreen("PAYDASH CONFIG WIZARD")
	fmt.Println(lipgloss.NewStyle().Foreground(subtle).Render("Point the dashboard at your payments backend.\n"))

	fmt.Println(stepStyle.Render("STEP 1: BACKEND"))
	err := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Backend API base URL").
				Description("e.g. http://localhost:8000/api").
				Value(&apiBase).
				Validate(func(s string) error {
					cfg := config.Default()
					cfg.APIBase = s
					return cfg.Validate()
				}),
			huh.NewInput().
				Title("Request timeout").
				Description("Duration string, 0s disables it").
				Value(&timeoutStr).
				Validate(validateDuration(true)),
		),
	).Run()
	if err != nil {
		return err
	}

	clearScreen("PAYDASH CONFIG WIZARD")
	fmt.Println(stepStyle.Render("STEP 2: DASHBOARD"))
	err = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Web dashboard listen address").
				Value(&listenAddr),
			huh.NewInput().
				Title("Auto-refresh interval").
				Description("Duration string (e.g. 5s)").
				Value(&refreshStr).
				Validate(validateDuration(false)),
			huh.NewInput().
				Title("Notification lifetime").
				Value(&ttlStr).
				Validate(validateDuration(false)),
			huh.NewInput().
				Title("CSV export directory").
				Value(&exportDir),
		),
	).Run()
	if err != nil {
		return err
	}

	clearScreen("PAYDASH CONFIG WIZARD")
	fmt.Println(stepStyle.Render("FINAL CONFIRMATION"))
	summary := fmt.Sprintf("Backend: %s\nListen: %s\nRefresh: %s\nExports: %s\n", apiBase, listenAddr, refreshStr, exportDir)
	fmt.Println(lipgloss.NewStyle().Border(lipgloss.NormalBorder()).Padding(1).Render(summary))

	err = huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title("Save Configuration?").
				Affirmative("Yes, save").
				Negative("No, exit").
				Value(&confirm),
		),
	).Run()
	if err != nil {
		return err
	}
	if !confirm {
		return fmt.Errorf("setup cancelled by user")
	}

	cfg := config.Default()
	cfg.APIBase = apiBase
	cfg.ListenAddr = listenAddr
	cfg.RefreshInterval, _ = time.ParseDuration(refreshStr)
	cfg.NotificationTTL, _ = time.ParseDuration(ttlStr)
	cfg.HTTPTimeout, _ = time.ParseDuration(timeoutStr)
	cfg.ExportDir = exportDir

	if err := WriteConfig(path, cfg); err != nil {
		return err
	}

	fmt.Println(lipgloss.NewStyle().Foreground(special).Render(fmt.Sprintf("\n✓ Configuration saved to %s", path)))
	return nil
}

// WriteConfig stores cfg as yaml.
func WriteConfig(path string, cfg config.Config) error {
	data, err := yaml.Marshal(cfg.Tmp())
	if err != nil {
		return fmt.Errorf("failed to generate yaml: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to save config file: %w", err)
	}
	return nil
}

// RunTransfer shows the send-money form. Auto-refresh stays paused from the moment
// the form opens until a transfer succeeds.
func RunTransfer(ctx context.Context, d Dashboard) error {
	users := d.Users()
	if len(users) < 2 {
		return fmt.Errorf("at least two wallets are needed to send money")
	}
	d.FormFocused()

	usersView := view.Users(users)
	var form domain.TransferForm

	clearScreen("SEND MONEY")
	err := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Sender").
				Options(huhOptions(usersView.SenderOptions)...).
				Value(&form.Sender),
			huh.NewSelect[string]().
				Title("Recipient").
				Options(huhOptions(usersView.RecipientOptions)...).
				Value(&form.Recipient),
			huh.NewInput().
				Title("Amount (USDT)").
				Value(&form.Amount).
				Validate(validatePositive),
		),
	).Run()
	if err != nil {
		return err
	}
	d.FormChanged()

	err = d.SubmitTransfer(ctx, form)
	printOutcome(d)
	return err
}

// RunRegistration shows the wallet registration form.
func RunRegistration(ctx context.Context, d Dashboard) error {
	form := domain.RegistrationForm{Type: "Regular", Balance: "0"}
	d.FormFocused()

	clearScreen("REGISTER WALLET")
	err := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Name").
				Value(&form.Name),
			huh.NewSelect[string]().
				Title("User type").
				Options(
					huh.NewOption("Regular", "Regular"),
					huh.NewOption("Premium", "Premium"),
					huh.NewOption("Business", "Business"),
				).
				Value(&form.Type),
			huh.NewInput().
				Title("Initial balance (USDT)").
				Value(&form.Balance),
		),
	).Run()
	if err != nil {
		return err
	}

	res, err := d.SubmitRegistration(ctx, form)
	printOutcome(d)
	if err != nil {
		return err
	}

	details := fmt.Sprintf("Name: %s\nType: %s\nWallet Address: %s\nInitial Balance: %s",
		res.Name, res.Type, res.Address, res.InitialBalance)
	fmt.Println(lipgloss.NewStyle().Border(lipgloss.NormalBorder()).Padding(1).Render(details))
	return nil
}

// RunVault shows the vault creation form and collects guardians until the user stops adding them.
func RunVault(ctx context.Context, d Dashboard) error {
	users := d.Users()
	if len(users) == 0 {
		return fmt.Errorf("no wallets available")
	}
	d.FormFocused()

	wallets := huhOptions(view.WalletOptions(users))
	var form domain.VaultForm

	clearScreen("CREATE FAMILY VAULT")
	fmt.Println(stepStyle.Render("STEP 1: VAULT"))
	err := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("Vault name").Value(&form.Name),
			huh.NewInput().Title("Purpose").Value(&form.Purpose),
			huh.NewInput().Title("Target amount (USDT)").Value(&form.Amount),
			huh.NewSelect[string]().Title("Creator wallet").Options(wallets...).Value(&form.Creator),
		),
	).Run()
	if err != nil {
		return err
	}

	for i := 1; ; i++ {
		var (
			g    domain.Guardian
			more bool
		)

		clearScreen("CREATE FAMILY VAULT")
		fmt.Println(stepStyle.Render(fmt.Sprintf("GUARDIAN %d", i)))
		err := huh.NewForm(
			huh.NewGroup(
				huh.NewInput().Title("Guardian name").Value(&g.Name),
				huh.NewSelect[string]().Title("Guardian wallet").Options(wallets...).Value(&g.Address),
				huh.NewInput().Title("Role").Description("e.g. Father, Elder").Value(&g.Role),
				huh.NewConfirm().Title("Add another guardian?").Value(&more),
			),
		).Run()
		if err != nil {
			return err
		}
		d.FormChanged()

		form.Guardians = append(form.Guardians, g)
		if !more {
			break
		}
	}

	err = d.SubmitVault(ctx, form)
	printOutcome(d)
	return err
}

func huhOptions(opts []view.Option) []huh.Option[string] {
	out := make([]huh.Option[string], 0, len(opts))
	for _, o := range opts {
		out = append(out, huh.NewOption(o.Label, o.Value))
	}
	return out
}

func printOutcome(d Dashboard) {
	note, ok := d.CurrentNotification()
	if !ok {
		return
	}
	color := special
	if note.Kind == domain.NotificationError {
		color = failure
	}
	fmt.Println(lipgloss.NewStyle().Foreground(color).Bold(true).Render(note.Message))
}

func validatePositive(s string) error {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return fmt.Errorf("must be a valid number")
	}
	if !d.IsPositive() {
		return fmt.Errorf("must be greater than 0")
	}
	return nil
}

func validateDuration(allowZero bool) func(string) error {
	return func(s string) error {
		d, err := time.ParseDuration(s)
		if err != nil {
			return fmt.Errorf("must be a duration like 5s")
		}
		if d < 0 || (d == 0 && !allowZero) {
			return fmt.Errorf("must be positive")
		}
		return nil
	}
}
