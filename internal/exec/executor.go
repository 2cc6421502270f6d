package exec

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"kimp-trend-bot/internal/state"
	"kimp-trend-bot/internal/upbit"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

var ErrInvalidOrder = errors.New("invalid order")

type Side string

const (
	SideBuy  Side = "BUY"
	SideSell Side = "SELL"
)

// Order is a market order. Buys are sized by KRW Notional, sells by asset Volume.
type Order struct {
	Strategy   string
	Market     string
	Side       Side
	Notional   float64
	Volume     float64
	Identifier string
}

// Ack reports an accepted order. Amount is what was submitted after exchange rounding:
// KRW for buys, asset volume for sells. It is zero for duplicates.
type Ack struct {
	OrderID   string
	State     string
	Amount    float64
	Simulated bool
	Duplicate bool
}

type Exchange interface {
	PlaceOrder(ctx context.Context, req upbit.OrderRequest) (upbit.Order, error)
	OrderByIdentifier(ctx context.Context, identifier string) (upbit.Order, error)
}

type Options struct {
	Simulation     bool
	MaxAttempts    int
	InitialBackoff time.Duration
}

type Executor struct {
	exchange Exchange
	store    state.Store
	log      *zap.Logger
	opts     Options

	mu    sync.Mutex
	cache map[string]string
}

func New(exchange Exchange, store state.Store, log *zap.Logger, opts Options) *Executor {
	if log == nil {
		log = zap.NewNop()
	}
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = 1
	}
	if opts.InitialBackoff <= 0 {
		opts.InitialBackoff = 200 * time.Millisecond
	}
	return &Executor{
		exchange: exchange,
		store:    store,
		log:      log,
		opts:     opts,
		cache:    make(map[string]string),
	}
}

func (e *Executor) Simulation() bool { return e.opts.Simulation }

// Place submits a market order. In simulation mode nothing is sent and a synthetic ack is returned.
// An identifier that was already accepted returns the earlier order id without resubmitting.
func (e *Executor) Place(ctx context.Context, order Order) (Ack, error) {
	req, err := toRequest(order)
	if err != nil {
		return Ack{}, err
	}
	if e.opts.Simulation {
		ack := Ack{OrderID: "sim-" + uuid.NewString(), State: "simulated", Amount: submitted(req), Simulated: true}
		e.log.Info("simulated order",
			zap.String("strategy", order.Strategy),
			zap.String("market", order.Market),
			zap.String("side", string(order.Side)),
			zap.String("price", req.Price.String()),
			zap.String("volume", req.Volume.String()),
			zap.String("order_id", ack.OrderID),
		)
		return ack, nil
	}
	if order.Identifier == "" {
		ack, err := e.placeWithRetry(ctx, req)
		if err != nil {
			return Ack{}, err
		}
		ack.Amount = submitted(req)
		return ack, nil
	}
	cacheKey := "order:" + order.Identifier
	e.mu.Lock()
	if oid, ok := e.cache[cacheKey]; ok {
		e.mu.Unlock()
		return Ack{OrderID: oid, Duplicate: true}, nil
	}
	e.mu.Unlock()
	if e.store != nil {
		if raw, ok, err := e.store.Get(ctx, cacheKey); err != nil {
			return Ack{}, err
		} else if ok {
			e.remember(cacheKey, string(raw))
			return Ack{OrderID: string(raw), Duplicate: true}, nil
		}
	}
	ack, err := e.placeWithRetry(ctx, req)
	if err != nil {
		return Ack{}, err
	}
	ack.Amount = submitted(req)
	if e.store != nil {
		if err := e.store.Set(ctx, cacheKey, []byte(ack.OrderID)); err != nil {
			e.log.Warn("failed to persist order id", zap.String("identifier", order.Identifier), zap.Error(err))
		}
	}
	e.remember(cacheKey, ack.OrderID)
	return ack, nil
}

func (e *Executor) remember(key, orderID string) {
	e.mu.Lock()
	e.cache[key] = orderID
	e.mu.Unlock()
}

func (e *Executor) placeWithRetry(ctx context.Context, req upbit.OrderRequest) (Ack, error) {
	var placed upbit.Order
	attempt := 0
	err := e.retry(ctx, func() error {
		attempt++
		if attempt > 1 && req.Identifier != "" {
			// the previous attempt may have reached the exchange
			if existing, err := e.exchange.OrderByIdentifier(ctx, req.Identifier); err == nil && existing.UUID != "" {
				placed = existing
				return nil
			}
		}
		var err error
		placed, err = e.exchange.PlaceOrder(ctx, req)
		return err
	})
	if err != nil {
		return Ack{}, err
	}
	if placed.UUID == "" {
		return Ack{}, errors.New("empty order id")
	}
	return Ack{OrderID: placed.UUID, State: placed.State}, nil
}

func (e *Executor) retry(ctx context.Context, fn func() error) error {
	backoff := e.opts.InitialBackoff
	for attempt := 1; ; attempt++ {
		err := fn()
		if err == nil {
			return nil
		}
		if attempt >= e.opts.MaxAttempts || !retryable(err) {
			if attempt > 1 {
				return fmt.Errorf("retry failed after %d attempts: %w", attempt, err)
			}
			return err
		}
		e.log.Warn("order attempt failed, retrying", zap.Int("attempt", attempt), zap.Duration("backoff", backoff), zap.Error(err))
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
			backoff *= 2
		}
	}
}

func retryable(err error) bool {
	var apiErr *upbit.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Retryable()
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}

func submitted(req upbit.OrderRequest) float64 {
	if req.Side == upbit.SideBid {
		return req.Price.InexactFloat64()
	}
	return req.Volume.InexactFloat64()
}

func toRequest(order Order) (upbit.OrderRequest, error) {
	req := upbit.OrderRequest{Market: order.Market, Identifier: order.Identifier}
	if order.Market == "" {
		return req, fmt.Errorf("%w: market is required", ErrInvalidOrder)
	}
	switch order.Side {
	case SideBuy:
		req.Side, req.OrdType = upbit.SideBid, upbit.OrdTypePrice
		req.Price = decimal.NewFromFloat(order.Notional).Truncate(0)
		if !req.Price.IsPositive() {
			return req, fmt.Errorf("%w: buy notional %.4f rounds to zero", ErrInvalidOrder, order.Notional)
		}
	case SideSell:
		req.Side, req.OrdType = upbit.SideAsk, upbit.OrdTypeMarket
		req.Volume = decimal.NewFromFloat(order.Volume).Truncate(8)
		if !req.Volume.IsPositive() {
			return req, fmt.Errorf("%w: sell volume %.10f rounds to zero", ErrInvalidOrder, order.Volume)
		}
	default:
		return req, fmt.Errorf("%w: unknown side %q", ErrInvalidOrder, order.Side)
	}
	return req, nil
}
