// Package persistence implements the supplemental audit mirror: an
// additive, write-only Postgres/Redis shadow of engine mutations. It is
// never read back into pkg/engine.Engine — domain.EngineState loaded
// from pkg/state.Persistor remains the single source of truth; this
// mirror only serves external inspection and a /state read-through
// cache.
//
// Follows the internal/persistence/engine.Service pattern (sqlx.SqlConn
// + raw SQL, gocache-style read-through caching); degrades to a no-op
// the same way an unconfigured persistence service does.
package persistence

import (
	"context"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // register pgx driver
	"github.com/vmihailenco/msgpack/v5"
	"github.com/zeromicro/go-zero/core/logx"
	"github.com/zeromicro/go-zero/core/stores/redis"
	"github.com/zeromicro/go-zero/core/stores/sqlx"

	"tradesmart-api/internal/cache"
	"tradesmart-api/internal/config"
	"tradesmart-api/internal/model"
	"tradesmart-api/pkg/domain"
)

// Mirror is the hook set the service emits as engine state changes.
// Every method is best-effort: a mirror failure never blocks or fails
// the paper-trading operation that triggered it.
type Mirror interface {
	OnPositionOpened(ctx context.Context, pos domain.Position)
	OnPositionClosed(ctx context.Context, pos domain.Position, wallet domain.Wallet)
	OnWalletSnapshot(ctx context.Context, wallet domain.Wallet)

	// CacheState and CachedState implement the /state read-through
	// cache: CachedState is consulted (best-effort) by the /state logic
	// first; on a miss it reads the live engine and calls CacheState with
	// the result. Engine mutations do not call CacheState.
	CacheState(ctx context.Context, state domain.EngineState)
	CachedState(ctx context.Context) (domain.EngineState, bool)

	Close()
}

type noopMirror struct{}

func (noopMirror) OnPositionOpened(ctx context.Context, pos domain.Position)                  {}
func (noopMirror) OnPositionClosed(ctx context.Context, pos domain.Position, w domain.Wallet) {}
func (noopMirror) OnWalletSnapshot(ctx context.Context, wallet domain.Wallet)                 {}
func (noopMirror) CacheState(ctx context.Context, state domain.EngineState)                   {}
func (noopMirror) Close()                                                                      {}

func (noopMirror) CachedState(ctx context.Context) (domain.EngineState, bool) {
	return domain.EngineState{}, false
}

// NewMirror builds the Mirror described by c. Postgres mirroring and
// the Redis state cache are independently optional: either, both, or
// neither may be configured, and the mirror degrades gracefully.
func NewMirror(c config.Config) Mirror {
	var (
		sqlConn     sqlx.SqlConn
		positions   *model.PositionAuditModel
		wallets     *model.WalletSnapshotModel
		redisClient *redis.Redis
		ttl         = cache.NewTTLSet(c.TTL)
	)

	if c.Postgres.DSN != "" {
		sqlConn = sqlx.NewSqlConn("pgx", c.Postgres.DSN)
		positions = model.NewPositionAuditModel(sqlConn)
		wallets = model.NewWalletSnapshotModel(sqlConn)
	}
	if c.Redis.Host != "" {
		redisClient = redis.MustNewRedis(c.Redis)
	}

	if sqlConn == nil && redisClient == nil {
		return noopMirror{}
	}

	return &service{
		positions: positions,
		wallets:   wallets,
		redis:     redisClient,
		ttl:       ttl,
	}
}

type service struct {
	positions *model.PositionAuditModel
	wallets   *model.WalletSnapshotModel
	redis     *redis.Redis
	ttl       cache.TTLSet
}

func (s *service) OnPositionOpened(ctx context.Context, pos domain.Position) {
	if s.positions == nil {
		return
	}
	row := model.PositionAudit{
		PositionID: pos.PositionID,
		Symbol:     pos.Symbol,
		Direction:  string(pos.Direction),
		EntryPrice: float64Value(pos.EntryPrice),
		SizeUSD:    float64Value(pos.PositionSizeUSD),
		Leverage:   pos.Leverage,
		StopLoss:   float64Value(pos.StopLoss),
		TakeProfit: float64Value(pos.TakeProfit),
		Confidence: pos.Confidence,
		OpenedAt:   pos.OpenedAt,
	}
	if err := s.positions.InsertOpen(ctx, row); err != nil {
		logPersistenceError(err, "mirror position open", pos.PositionID)
	}
}

func (s *service) OnPositionClosed(ctx context.Context, pos domain.Position, wallet domain.Wallet) {
	if s.positions != nil {
		err := s.positions.MarkClosed(ctx, pos.PositionID,
			float64Value(pos.ExitPrice), float64Value(pos.RealizedPnl), string(pos.CloseReason), pos.ClosedAt)
		if err != nil {
			logPersistenceError(err, "mirror position close", pos.PositionID)
		}
	}
	s.OnWalletSnapshot(ctx, wallet)
}

func (s *service) OnWalletSnapshot(ctx context.Context, wallet domain.Wallet) {
	if s.wallets == nil {
		return
	}
	snap := model.WalletSnapshot{
		AvailableBalance: float64Value(wallet.AvailableBalance),
		TotalRealizedPnl: float64Value(wallet.TotalRealizedPnl),
		TotalTrades:      wallet.TotalTrades,
		WinningTrades:    wallet.WinningTrades,
		LosingTrades:     wallet.LosingTrades,
		RecordedAt:       time.Now().UTC(),
	}
	if err := s.wallets.Upsert(ctx, snap); err != nil {
		logPersistenceError(err, "mirror wallet snapshot", "")
	}
}

func (s *service) CacheState(ctx context.Context, state domain.EngineState) {
	if s.redis == nil {
		return
	}
	payload, err := msgpack.Marshal(state)
	if err != nil {
		logPersistenceError(err, "encode state cache payload", "")
		return
	}
	ttl := cache.StateTTL(s.ttl)
	if err := s.redis.SetexCtx(ctx, cache.StateKey(), string(payload), int(ttl.Seconds())); err != nil {
		logPersistenceError(err, "set state cache", "")
	}
}

func (s *service) CachedState(ctx context.Context) (domain.EngineState, bool) {
	if s.redis == nil {
		return domain.EngineState{}, false
	}
	raw, err := s.redis.GetCtx(ctx, cache.StateKey())
	if err != nil || raw == "" {
		return domain.EngineState{}, false
	}
	var state domain.EngineState
	if err := msgpack.Unmarshal([]byte(raw), &state); err != nil {
		logPersistenceError(err, "decode state cache payload", "")
		return domain.EngineState{}, false
	}
	return state, true
}

func (s *service) Close() {}

func float64Value(d interface{ Float64() (float64, bool) }) float64 {
	f, _ := d.Float64()
	return f
}

func logPersistenceError(err error, msg string, positionID string) {
	if err == nil {
		return
	}
	logx.Errorf("audit: %s position=%s: %v", msg, positionID, err)
}
