package account

import (
	"context"
	"strings"
	"sync"
	"time"

	"kimp-trend-bot/internal/upbit"

	"go.uber.org/zap"
)

type Client interface {
	Accounts(ctx context.Context) ([]upbit.Account, error)
}

type Balance struct {
	Free   float64
	Locked float64
}

func (b Balance) Total() float64 {
	return b.Free + b.Locked
}

// State is a balance snapshot keyed by upper-case currency code.
type State struct {
	Balances  map[string]Balance
	UpdatedAt time.Time
}

func (s State) Free(currency string) float64 {
	return s.Balances[strings.ToUpper(currency)].Free
}

func (s State) Total(currency string) float64 {
	return s.Balances[strings.ToUpper(currency)].Total()
}

type Account struct {
	client Client
	log    *zap.Logger
	now    func() time.Time

	mu    sync.RWMutex
	state State
}

func New(client Client, log *zap.Logger) *Account {
	if log == nil {
		log = zap.NewNop()
	}
	return &Account{client: client, log: log, now: time.Now}
}

// Reconcile replaces the cached balances with the exchange's current view.
func (a *Account) Reconcile(ctx context.Context) (State, error) {
	accounts, err := a.client.Accounts(ctx)
	if err != nil {
		return State{}, err
	}
	state := State{Balances: make(map[string]Balance, len(accounts)), UpdatedAt: a.now().UTC()}
	for _, acc := range accounts {
		currency := strings.ToUpper(strings.TrimSpace(acc.Currency))
		if currency == "" {
			continue
		}
		state.Balances[currency] = Balance{
			Free:   acc.Balance.InexactFloat64(),
			Locked: acc.Locked.InexactFloat64(),
		}
	}
	a.mu.Lock()
	a.state = state
	a.mu.Unlock()
	a.log.Debug("balances reconciled", zap.Int("currencies", len(state.Balances)))
	return state, nil
}

func (a *Account) Snapshot() State {
	a.mu.RLock()
	defer a.mu.RUnlock()
	out := State{Balances: make(map[string]Balance, len(a.state.Balances)), UpdatedAt: a.state.UpdatedAt}
	for k, v := range a.state.Balances {
		out.Balances[k] = v
	}
	return out
}
