// Package dashboard owns the application state of the payments dashboard and wires
// the fetcher, the transaction store, the filter engine, the scheduler and the notifier.
package dashboard

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/vadiminshakov/paydash/internal/clients"
	"github.com/vadiminshakov/paydash/internal/domain"
	"github.com/vadiminshakov/paydash/internal/services/export"
	"github.com/vadiminshakov/paydash/internal/services/filter"
	"github.com/vadiminshakov/paydash/internal/services/notifier"
	"github.com/vadiminshakov/paydash/internal/services/scheduler"
	"github.com/vadiminshakov/paydash/internal/storage/txstore"
	"github.com/vadiminshakov/paydash/internal/view"
)

// PreferenceStore persists the theme flag.
type PreferenceStore interface {
	DarkMode() (bool, error)
	SetDarkMode(enabled bool) error
}

// Options tune a Dashboard. Zero values fall back to defaults.
type Options struct {
	RefreshInterval time.Duration
	NotificationTTL time.Duration
	ExportDir       string
	Preferences     PreferenceStore
	Now             func() time.Time
}

// State is a read-only copy of everything the surfaces render.
type State struct {
	Users        view.UsersView               `json:"users"`
	Transactions view.TransactionsView        `json:"transactions"`
	Rates        []view.RateCard              `json:"rates"`
	Vaults       view.VaultsView              `json:"vaults"`
	Aggregates   filter.Aggregates            `json:"aggregates"`
	Controls     map[Form]domain.ControlState `json:"controls"`
	DarkMode     bool                         `json:"dark_mode"`
	AutoRefresh  string                       `json:"auto_refresh"`
	FormActive   bool                         `json:"form_active"`
	Registration *view.RegistrationView       `json:"registration,omitempty"`
	Conversion   *view.ConversionView         `json:"conversion,omitempty"`
}

// Dashboard is safe for concurrent use. Fetch results are applied only on success,
// so a failed fetch leaves the previous state untouched.
type Dashboard struct {
	backend   clients.Backend
	store     *txstore.Store
	notifier  *notifier.Notifier
	scheduler *scheduler.Scheduler
	prefs     PreferenceStore
	logger    *zap.Logger
	exportDir string
	now       func() time.Time

	mu           sync.RWMutex
	users        []domain.User
	rates        domain.Rates
	vaults       []domain.Vault
	criteria     domain.FilterCriteria
	current      filter.View
	controls     map[Form]domain.ControlState
	dark         bool
	registration *view.RegistrationView
	conversion   *view.ConversionView

	subsMu  sync.Mutex
	subs    map[int]chan struct{}
	nextSub int
}

// New creates a dashboard. Nothing is fetched until Load or Start is called.
func New(backend clients.Backend, logger *zap.Logger, opts Options) *Dashboard {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.NotificationTTL <= 0 {
		opts.NotificationTTL = notifier.DefaultTTL
	}

	store := txstore.New()
	d := &Dashboard{
		backend:   backend,
		store:     store,
		notifier:  notifier.New(opts.NotificationTTL, logger),
		prefs:     opts.Preferences,
		logger:    logger,
		exportDir: opts.ExportDir,
		now:       opts.Now,
		rates:     domain.Rates{},
		criteria:  domain.DefaultCriteria(),
		current:   filter.Build(store.Snapshot(), domain.DefaultCriteria()),
		controls:  defaultControls(),
		subs:      make(map[int]chan struct{}),
	}
	d.scheduler = scheduler.New(opts.RefreshInterval, d.autoRefresh, logger)

	if d.prefs != nil {
		dark, err := d.prefs.DarkMode()
		if err != nil {
			logger.Warn("failed to read theme preference", zap.Error(err))
		}
		d.dark = dark
	}

	return d
}

// Start performs the initial load and arms auto-refresh. Load failures are reported and
// the dashboard keeps running with whatever was fetched.
func (d *Dashboard) Start(ctx context.Context) {
	if err := d.Load(ctx); err != nil {
		d.logger.Warn("initial load incomplete", zap.Error(err))
		d.notifier.Error("❌ Failed to load data")
	}
	d.scheduler.Start(ctx)
}

// Stop disarms auto-refresh.
func (d *Dashboard) Stop() {
	d.scheduler.Stop()
}

// Load fetches users, transactions, rates and vaults in parallel.
func (d *Dashboard) Load(ctx context.Context) error {
	g := new(errgroup.Group)
	g.Go(func() error { return d.loadUsers(ctx) })
	g.Go(func() error { return d.loadTransactions(ctx) })
	g.Go(func() error { return d.loadRates(ctx) })
	g.Go(func() error { return d.loadVaults(ctx) })

	return g.Wait()
}

// Refresh reloads users, transactions and rates and reports the outcome.
func (d *Dashboard) Refresh(ctx context.Context) error {
	release, err := d.acquire(FormRefresh)
	if err != nil {
		return err
	}
	defer release()

	if err := d.reload(ctx); err != nil {
		d.notifier.Error("❌ Failed to refresh data")
		return err
	}

	d.notifier.Success("✅ Data refreshed successfully!")
	return nil
}

// autoRefresh is the scheduler's refresh. Only failures are reported.
func (d *Dashboard) autoRefresh(ctx context.Context) error {
	if err := d.reload(ctx); err != nil {
		d.notifier.Error("❌ Failed to refresh data")
		return err
	}
	return nil
}

// reload fetches the auto-refreshed resources. Every fetch runs to completion;
// the first error is returned.
func (d *Dashboard) reload(ctx context.Context) error {
	g := new(errgroup.Group)
	g.Go(func() error { return d.loadUsers(ctx) })
	g.Go(func() error { return d.loadTransactions(ctx) })
	g.Go(func() error { return d.loadRates(ctx) })

	return g.Wait()
}

func (d *Dashboard) loadUsers(ctx context.Context) error {
	users, err := d.backend.ListUsers(ctx)
	if err != nil {
		d.logger.Error("failed to load users", zap.Error(err))
		return errors.Wrap(err, "load users")
	}

	d.mu.Lock()
	d.users = users
	d.mu.Unlock()
	d.changed()

	return nil
}

func (d *Dashboard) loadTransactions(ctx context.Context) error {
	txs, err := d.backend.ListTransactions(ctx)
	if err != nil {
		d.logger.Error("failed to load transactions", zap.Error(err))
		return errors.Wrap(err, "load transactions")
	}

	snap := d.store.Replace(txs, d.now())
	d.logger.Debug("loaded transactions", zap.Int("count", snap.Len()), zap.Uint64("seq", snap.Seq))

	d.mu.Lock()
	// a slower overlapping fetch must not overwrite a newer view
	if snap.Seq > d.current.SnapshotSeq {
		d.current = filter.Build(d.store.Snapshot(), d.criteria)
	}
	d.mu.Unlock()
	d.changed()

	return nil
}

func (d *Dashboard) loadRates(ctx context.Context) error {
	rates, err := d.backend.ListRates(ctx)
	if err != nil {
		d.logger.Error("failed to load rates", zap.Error(err))
		return errors.Wrap(err, "load rates")
	}

	d.mu.Lock()
	d.rates = rates
	d.mu.Unlock()
	d.changed()

	return nil
}

func (d *Dashboard) loadVaults(ctx context.Context) error {
	vaults, err := d.backend.ListVaults(ctx, "")
	if err != nil {
		d.logger.Error("failed to load vaults", zap.Error(err))
		return errors.Wrap(err, "load vaults")
	}

	d.mu.Lock()
	d.vaults = vaults
	d.mu.Unlock()
	d.changed()

	return nil
}

// ApplyFilter recomputes the displayed list from the current snapshot.
func (d *Dashboard) ApplyFilter(c domain.FilterCriteria) (view.TransactionsView, error) {
	c = c.Normalize()
	if err := c.Validate(); err != nil {
		d.notifier.Error("❌ " + err.Error())
		return view.TransactionsView{}, err
	}

	d.mu.Lock()
	d.criteria = c
	d.current = filter.Build(d.store.Snapshot(), c)
	v := view.Transactions(d.current, d.backend.ReceiptURL)
	d.mu.Unlock()
	d.changed()

	return v, nil
}

// ClearFilters resets every criterion and shows the whole snapshot.
func (d *Dashboard) ClearFilters() view.TransactionsView {
	d.mu.Lock()
	d.criteria = domain.DefaultCriteria()
	d.current = filter.Build(d.store.Snapshot(), d.criteria)
	v := view.Transactions(d.current, d.backend.ReceiptURL)
	d.mu.Unlock()
	d.changed()

	d.notifier.Success("✅ Filters cleared")
	return v
}

// Criteria returns the active filter criteria.
func (d *Dashboard) Criteria() domain.FilterCriteria {
	d.mu.RLock()
	defer d.mu.RUnlock()

	return d.criteria
}

// ExportFile writes every stored transaction to a CSV file in the export directory.
// The filter is ignored.
func (d *Dashboard) ExportFile() (string, error) {
	snap := d.store.Snapshot()

	path, err := export.ToFile(d.exportDir, snap.Transactions, d.now())
	if err != nil {
		d.reportExportError(err)
		return "", err
	}

	d.notifier.Success(fmt.Sprintf("✅ Exported %d transactions", snap.Len()))
	d.logger.Info("exported transactions", zap.String("path", path), zap.Int("count", snap.Len()))
	return path, nil
}

// ExportTo writes every stored transaction as CSV into w and returns the suggested file name.
func (d *Dashboard) ExportTo(w io.Writer) (string, error) {
	snap := d.store.Snapshot()

	if err := export.WriteCSV(w, snap.Transactions); err != nil {
		d.reportExportError(err)
		return "", err
	}

	d.notifier.Success(fmt.Sprintf("✅ Exported %d transactions", snap.Len()))
	return export.FileName(d.now()), nil
}

func (d *Dashboard) reportExportError(err error) {
	if errors.Is(err, export.ErrNothingToExport) {
		d.notifier.Error("❌ No transactions to export")
		return
	}
	d.logger.Error("failed to export transactions", zap.Error(err))
	d.notifier.Error("❌ Failed to export transactions")
}

// ReceiptURL returns the printable receipt address of a transaction.
func (d *Dashboard) ReceiptURL(id string) string {
	return d.backend.ReceiptURL(id)
}

// Convert converts an amount of USDT into currency at the current backend rate.
func (d *Dashboard) Convert(ctx context.Context, form domain.ConversionForm) (view.ConversionView, error) {
	amount, err := form.Validate()
	if err != nil {
		d.notifier.Error(err.Error())
		return view.ConversionView{}, err
	}

	conv, err := d.backend.Convert(ctx, amount, form.Currency)
	if err != nil {
		d.logger.Error("failed to convert", zap.String("currency", form.Currency), zap.Error(err))
		d.reportFailure(err, "Failed to convert")
		return view.ConversionView{}, err
	}

	v := view.Conversion(conv)
	d.mu.Lock()
	d.conversion = &v
	d.mu.Unlock()
	d.changed()

	return v, nil
}

// Plans lists savings plans for a wallet.
func (d *Dashboard) Plans(ctx context.Context, address string) ([]domain.SavingsPlan, error) {
	plans, err := d.backend.ListPlans(ctx, address)
	if err != nil {
		d.logger.Error("failed to load plans", zap.String("address", address), zap.Error(err))
		d.reportFailure(err, "Failed to load plans")
		return nil, err
	}
	return plans, nil
}

// ToggleTheme flips dark mode and persists the new value.
func (d *Dashboard) ToggleTheme() (bool, error) {
	d.mu.Lock()
	d.dark = !d.dark
	dark := d.dark
	d.mu.Unlock()
	d.changed()

	if dark {
		d.notifier.Success("🌙 Dark Mode Activated")
	} else {
		d.notifier.Success("☀️ Light Mode Activated")
	}

	if d.prefs != nil {
		if err := d.prefs.SetDarkMode(dark); err != nil {
			d.logger.Error("failed to persist theme preference", zap.Error(err))
			return dark, errors.Wrap(err, "persist theme")
		}
	}

	return dark, nil
}

// DarkMode reports the current theme.
func (d *Dashboard) DarkMode() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()

	return d.dark
}

// FormFocused pauses auto-refresh while a form is edited.
func (d *Dashboard) FormFocused() {
	d.scheduler.FormFocused()
	d.changed()
}

// FormChanged marks a form as edited.
func (d *Dashboard) FormChanged() {
	d.scheduler.FormChanged()
	d.changed()
}

// Snapshot returns a copy of the current state.
func (d *Dashboard) Snapshot() State {
	d.mu.RLock()
	defer d.mu.RUnlock()

	controls := make(map[Form]domain.ControlState, len(d.controls))
	for f, c := range d.controls {
		controls[f] = c
	}

	return State{
		Users:        view.Users(d.users),
		Transactions: view.Transactions(d.current, d.backend.ReceiptURL),
		Rates:        view.Rates(d.rates),
		Vaults:       view.Vaults(d.vaults),
		Aggregates:   d.current.Aggregates,
		Controls:     controls,
		DarkMode:     d.dark,
		AutoRefresh:  d.scheduler.State().String(),
		FormActive:   d.scheduler.FormActive(),
		Registration: d.registration,
		Conversion:   d.conversion,
	}
}

// Users returns the last fetched users.
func (d *Dashboard) Users() []domain.User {
	d.mu.RLock()
	defer d.mu.RUnlock()

	out := make([]domain.User, len(d.users))
	copy(out, d.users)
	return out
}

// Vaults returns the last fetched vaults.
func (d *Dashboard) Vaults() []domain.Vault {
	d.mu.RLock()
	defer d.mu.RUnlock()

	out := make([]domain.Vault, len(d.vaults))
	copy(out, d.vaults)
	return out
}

// Notifications subscribes to notification show and dismiss events.
func (d *Dashboard) Notifications(buffer int) (<-chan domain.Notification, func()) {
	return d.notifier.Subscribe(buffer)
}

// CurrentNotification returns the visible notification, if any.
func (d *Dashboard) CurrentNotification() (domain.Notification, bool) {
	return d.notifier.Current()
}

// Subscribe returns a channel signalled after every state change. Signals coalesce:
// a slow reader sees one pending signal and should call Snapshot.
func (d *Dashboard) Subscribe() (<-chan struct{}, func()) {
	ch := make(chan struct{}, 1)

	d.subsMu.Lock()
	id := d.nextSub
	d.nextSub++
	d.subs[id] = ch
	d.subsMu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			d.subsMu.Lock()
			delete(d.subs, id)
			d.subsMu.Unlock()
			close(ch)
		})
	}
}

func (d *Dashboard) changed() {
	d.subsMu.Lock()
	defer d.subsMu.Unlock()

	for _, ch := range d.subs {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}
