package core

import (
	"context"
	"strings"
	"sync"
	"time"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/olyamironova/depthbook/internal/domain"
	"github.com/olyamironova/depthbook/internal/metrics"
	"github.com/olyamironova/depthbook/internal/port"
	"github.com/rs/zerolog"
)

// QuoteSuffix is the quote asset every served symbol is denominated in.
const QuoteSuffix = "USDT"

// DefaultRefreshInterval is how often the registry is refreshed when no
// interval is configured.
const DefaultRefreshInterval = 300 * time.Second

// unsupportedDepth lists symbols whose books need different depth semantics
// than this engine provides.
var unsupportedDepth = mapset.NewSet("BTCUSDT", "ETHUSDT", "WBTCUSDT", "WETHUSDT")

// SymbolRegistry is the set of symbols currently accepted by the service.
// The set only grows: a symbol that stops trading stays valid until restart.
// Writes go through RegistryRefresher.
type SymbolRegistry struct {
	mu      sync.RWMutex
	symbols mapset.Set[string]
}

func NewSymbolRegistry() *SymbolRegistry {
	return &SymbolRegistry{symbols: mapset.NewThreadUnsafeSet[string]()}
}

// NormalizeSymbol uppercases raw and appends QuoteSuffix when missing.
func NormalizeSymbol(raw string) string {
	symbol := strings.ToUpper(strings.TrimSpace(raw))
	if !strings.HasSuffix(symbol, QuoteSuffix) {
		symbol += QuoteSuffix
	}
	return symbol
}

// Validate normalizes raw and checks it against the denylist and then the
// registry. The denylist wins regardless of registry membership.
func (r *SymbolRegistry) Validate(raw string) (string, error) {
	symbol := NormalizeSymbol(raw)
	if unsupportedDepth.Contains(symbol) {
		return "", &domain.SymbolError{Symbol: symbol, Err: domain.ErrUnsupportedSymbol}
	}
	if !r.Contains(symbol) {
		return "", &domain.SymbolError{Symbol: symbol, Err: domain.ErrSymbolNotFound}
	}
	return symbol, nil
}

func (r *SymbolRegistry) Contains(symbol string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.symbols.Contains(symbol)
}

func (r *SymbolRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.symbols.Cardinality()
}

// union adds symbols in one exclusive step and returns how many were new.
func (r *SymbolRegistry) union(symbols []string) (added, total int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	added = r.symbols.Append(symbols...)
	return added, r.symbols.Cardinality()
}

// RegistryRefresher is the only writer of a SymbolRegistry. It pulls the
// exchange symbol list and merges the tradable quote pairs.
type RegistryRefresher struct {
	registry *SymbolRegistry
	exchange port.Exchange
	interval time.Duration
	log      zerolog.Logger
}

func NewRegistryRefresher(registry *SymbolRegistry, exchange port.Exchange, interval time.Duration, log zerolog.Logger) *RegistryRefresher {
	if interval <= 0 {
		interval = DefaultRefreshInterval
	}
	return &RegistryRefresher{
		registry: registry,
		exchange: exchange,
		interval: interval,
		log:      log.With().Str("component", "symbol_registry").Logger(),
	}
}

// Refresh runs a single refresh cycle. On error the registry is untouched.
func (r *RegistryRefresher) Refresh(ctx context.Context) (int, error) {
	info, err := r.exchange.ExchangeInfo(ctx)
	if err != nil {
		metrics.RegistryRefreshes.WithLabelValues(metrics.ResultError).Inc()
		return 0, domain.Internal("exchange info", err)
	}
	symbols := make([]string, 0, len(info))
	for _, s := range info {
		if s.Status == domain.StatusTrading && strings.HasSuffix(s.Symbol, QuoteSuffix) {
			symbols = append(symbols, s.Symbol)
		}
	}
	added, total := r.registry.union(symbols)

	metrics.RegistryRefreshes.WithLabelValues(metrics.ResultOK).Inc()
	metrics.RegistrySymbols.Set(float64(total))
	r.log.Debug().Int("added", added).Int("total", total).Msg("symbol registry refreshed")
	return added, nil
}

// Run refreshes immediately and then on every interval tick until ctx is
// done. Failed cycles are logged and skipped.
func (r *RegistryRefresher) Run(ctx context.Context) {
	r.log.Info().Dur("interval", r.interval).Msg("starting symbol registry refresh")
	r.refreshAndLog(ctx)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.refreshAndLog(ctx)
		}
	}
}

func (r *RegistryRefresher) refreshAndLog(ctx context.Context) {
	if _, err := r.Refresh(ctx); err != nil {
		if ctx.Err() != nil {
			return
		}
		r.log.Error().Err(err).Int("symbols", r.registry.Len()).Msg("symbol registry refresh failed, keeping last state")
	}
}
