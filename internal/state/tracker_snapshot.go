package state

import (
	"context"
	"fmt"
	"time"

	"kimp-trend-bot/internal/strategy"

	"github.com/vmihailenco/msgpack/v5"
)

const (
	trackerKeyPrefix       = "tracker:"
	trackerSnapshotVersion = 1
)

type TrackerSnapshot struct {
	Version               int     `msgpack:"v"`
	CumulativeEntrySpend  float64 `msgpack:"entry_spend"`
	CumulativeExitAmount  float64 `msgpack:"exit_amount"`
	ExitBaseQuantity      float64 `msgpack:"exit_base"`
	ExitBaseEstablished   bool    `msgpack:"exit_base_set"`
	HighWaterHoldings     float64 `msgpack:"high_water"`
	LastExitStepIndex     int     `msgpack:"last_exit_idx"`
	WeightedAvgEntryPrice float64 `msgpack:"avg_entry"`
	Holdings              float64 `msgpack:"holdings"`
	EntriesDisabled       bool    `msgpack:"entries_disabled"`
	UpdatedAtMS           int64   `msgpack:"updated_at_ms"`
}

func TrackerKey(name string) string {
	return trackerKeyPrefix + name
}

func LoadTracker(ctx context.Context, store Store, name string) (strategy.Tracker, bool, error) {
	if store == nil {
		return strategy.Tracker{}, false, nil
	}
	raw, ok, err := store.Get(ctx, TrackerKey(name))
	if err != nil {
		return strategy.Tracker{}, false, err
	}
	if !ok || len(raw) == 0 {
		return strategy.Tracker{}, false, nil
	}
	var snap TrackerSnapshot
	if err := msgpack.Unmarshal(raw, &snap); err != nil {
		return strategy.Tracker{}, false, fmt.Errorf("decode tracker %s: %w", name, err)
	}
	if snap.Version != trackerSnapshotVersion {
		return strategy.Tracker{}, false, fmt.Errorf("tracker %s: unsupported snapshot version %d", name, snap.Version)
	}
	return strategy.Tracker{
		CumulativeEntrySpend:  snap.CumulativeEntrySpend,
		CumulativeExitAmount:  snap.CumulativeExitAmount,
		ExitBaseQuantity:      snap.ExitBaseQuantity,
		ExitBaseEstablished:   snap.ExitBaseEstablished,
		HighWaterHoldings:     snap.HighWaterHoldings,
		LastExitStepIndex:     snap.LastExitStepIndex,
		WeightedAvgEntryPrice: snap.WeightedAvgEntryPrice,
		Holdings:              snap.Holdings,
		EntriesDisabled:       snap.EntriesDisabled,
	}, true, nil
}

func SaveTracker(ctx context.Context, store Store, name string, t strategy.Tracker, now time.Time) error {
	if store == nil {
		return nil
	}
	payload, err := msgpack.Marshal(TrackerSnapshot{
		Version:               trackerSnapshotVersion,
		CumulativeEntrySpend:  t.CumulativeEntrySpend,
		CumulativeExitAmount:  t.CumulativeExitAmount,
		ExitBaseQuantity:      t.ExitBaseQuantity,
		ExitBaseEstablished:   t.ExitBaseEstablished,
		HighWaterHoldings:     t.HighWaterHoldings,
		LastExitStepIndex:     t.LastExitStepIndex,
		WeightedAvgEntryPrice: t.WeightedAvgEntryPrice,
		Holdings:              t.Holdings,
		EntriesDisabled:       t.EntriesDisabled,
		UpdatedAtMS:           now.UTC().UnixMilli(),
	})
	if err != nil {
		return err
	}
	return store.Set(ctx, TrackerKey(name), payload)
}
