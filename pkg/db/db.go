// Package db 提供 GORM 初始化、连接池配置、事务助手与事务在 context 中的传递
package db

import (
	"context"
	"fmt"
	"sync"
	"time"

	pkglogger "github.com/wyfcoding/pointofsale/pkg/logger"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Config 数据库配置
type Config struct {
	Driver             string
	DSN                string
	MaxOpenConns       int
	MaxIdleConns       int
	ConnMaxLifetime    int
	LogEnabled         bool
	SlowQueryThreshold int
}

// DB 数据库实例包装
type DB struct {
	*gorm.DB
	config Config
}

// TxManager 事务边界抽象，应用服务依赖该接口而非具体连接
type TxManager interface {
	// WithTx 在单个事务中执行 fn，fn 内通过 context 取得事务连接；
	// fn 返回错误时整体回滚
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// Init 初始化数据库连接
func Init(cfg Config) (*DB, error) {
	var dialector gorm.Dialector

	switch cfg.Driver {
	case "mysql":
		dialector = mysql.Open(cfg.DSN)
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", cfg.Driver)
	}

	gormLogger := NewGormLogger(cfg.LogEnabled, time.Duration(cfg.SlowQueryThreshold)*time.Millisecond)

	gdb, err := gorm.Open(dialector, &gorm.Config{
		Logger: gormLogger,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := gdb.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database instance: %w", err)
	}

	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(time.Duration(cfg.ConnMaxLifetime) * time.Second)

	if err := sqlDB.PingContext(context.Background()); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	pkglogger.Info(context.Background(), "Database connected successfully", "driver", cfg.Driver)

	return &DB{
		DB:     gdb,
		config: cfg,
	}, nil
}

// Close 关闭数据库连接
func (d *DB) Close() error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

type txCtxKey struct{}

type txHooksKey struct{}

type txHooks struct {
	mu          sync.Mutex
	afterCommit []func(ctx context.Context)
}

func (h *txHooks) add(fn func(ctx context.Context)) {
	h.mu.Lock()
	h.afterCommit = append(h.afterCommit, fn)
	h.mu.Unlock()
}

func (h *txHooks) run(ctx context.Context) {
	h.mu.Lock()
	hooks := h.afterCommit
	h.afterCommit = nil
	h.mu.Unlock()
	for _, fn := range hooks {
		fn(ctx)
	}
}

// WithTxContext 把事务连接写入 context，使仓储在事务内操作同一连接
func WithTxContext(ctx context.Context, tx *gorm.DB) context.Context {
	return context.WithValue(ctx, txCtxKey{}, tx)
}

// FromContext 取出 context 中的事务连接；没有事务时回退到 fallback
func FromContext(ctx context.Context, fallback *gorm.DB) *gorm.DB {
	if tx, ok := ctx.Value(txCtxKey{}).(*gorm.DB); ok && tx != nil {
		return tx
	}
	return fallback
}

// InTx 判断 context 中是否携带事务连接
func InTx(ctx context.Context) bool {
	tx, ok := ctx.Value(txCtxKey{}).(*gorm.DB)
	return ok && tx != nil
}

// AfterCommit 注册事务提交后执行的回调；context 中没有事务时立即执行。
// 回滚的事务不执行任何已注册的回调
func AfterCommit(ctx context.Context, fn func(ctx context.Context)) {
	if hooks, ok := ctx.Value(txHooksKey{}).(*txHooks); ok && hooks != nil {
		hooks.add(fn)
		return
	}
	fn(ctx)
}

// WithTx 实现 TxManager，在一个事务中执行 fn
func (d *DB) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	hooks := &txHooks{}
	err := d.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		txCtx := context.WithValue(WithTxContext(ctx, tx), txHooksKey{}, hooks)
		return fn(txCtx)
	})
	if err != nil {
		return err
	}
	hooks.run(ctx)
	return nil
}

// GormLogger GORM 日志记录器实现
type GormLogger struct {
	enabled            bool
	slowQueryThreshold time.Duration
}

// NewGormLogger 创建 GORM 日志记录器
func NewGormLogger(enabled bool, slowQueryThreshold time.Duration) *GormLogger {
	return &GormLogger{
		enabled:            enabled,
		slowQueryThreshold: slowQueryThreshold,
	}
}

// LogMode 设置日志模式
func (l *GormLogger) LogMode(level logger.LogLevel) logger.Interface {
	return l
}

// Info 记录信息日志
func (l *GormLogger) Info(ctx context.Context, msg string, data ...interface{}) {
	if l.enabled {
		pkglogger.Info(ctx, msg, "data", data)
	}
}

// Warn 记录警告日志
func (l *GormLogger) Warn(ctx context.Context, msg string, data ...interface{}) {
	pkglogger.Warn(ctx, msg, "data", data)
}

// Error 记录错误日志
func (l *GormLogger) Error(ctx context.Context, msg string, data ...interface{}) {
	pkglogger.Error(ctx, msg, "data", data)
}

// Trace 记录 SQL 执行日志
func (l *GormLogger) Trace(ctx context.Context, begin time.Time, fc func() (string, int64), err error) {
	if !l.enabled {
		return
	}

	elapsed := time.Since(begin)
	sqlStr, rows := fc()

	args := []interface{}{
		"duration", elapsed,
		"rows", rows,
		"sql", sqlStr,
	}

	if err != nil {
		args = append(args, "error", err)
		pkglogger.Error(ctx, "SQL execution failed", args...)
	} else if elapsed > l.slowQueryThreshold {
		pkglogger.Warn(ctx, "Slow query detected", args...)
	} else {
		pkglogger.Debug(ctx, "SQL executed", args...)
	}
}
