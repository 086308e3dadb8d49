package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"

	"github.com/Hmmmm3247/ContractGuard/config"
)

// Medium is a durable key-value store holding one serialized blob per key.
// Put replaces the whole value; readers never observe a partial write.
type Medium interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Put(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}

// NewMedium builds the medium selected by cfg.Store.Driver.
func NewMedium(ctx context.Context, cfg *config.Config) (Medium, error) {
	switch cfg.Store.Driver {
	case "memory":
		return NewMemoryMedium(), nil
	case "sqlite":
		return NewSQLiteMedium(cfg.Store.SQLitePath)
	case "redis":
		return NewRedisMedium(ctx, &cfg.Redis)
	case "minio":
		m, err := NewMinioMedium(&cfg.Minio)
		if err != nil {
			return nil, err
		}
		if err := m.EnsureBucket(ctx); err != nil {
			return nil, err
		}
		return m, nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
	}
}

// MemoryMedium keeps blobs in process memory. Used for tests and the
// "memory" driver.
type MemoryMedium struct {
	mu   sync.RWMutex
	data map[string][]byte
}

func NewMemoryMedium() *MemoryMedium {
	return &MemoryMedium{data: make(map[string][]byte)}
}

func (m *MemoryMedium) Get(_ context.Context, key string) ([]byte, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.data[key]
	if !ok {
		return nil, false, nil
	}
	out := make([]byte, len(v))
	copy(out, v)
	return out, true, nil
}

func (m *MemoryMedium) Put(_ context.Context, key string, value []byte) error {
	buf := make([]byte, len(value))
	copy(buf, value)
	m.mu.Lock()
	m.data[key] = buf
	m.mu.Unlock()
	return nil
}

func (m *MemoryMedium) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	delete(m.data, key)
	m.mu.Unlock()
	return nil
}

// kvEntry is one row of the kv_entries table.
type kvEntry struct {
	Key       string `gorm:"primaryKey;size:255"`
	Value     []byte
	UpdatedAt time.Time
}

func (kvEntry) TableName() string { return "kv_entries" }

// keyIs matches a row by key with the column name quoted.
func keyIs(key string) clause.Eq {
	return clause.Eq{Column: clause.Column{Name: "key"}, Value: key}
}

// SQLiteMedium stores blobs in a single sqlite table through gorm.
type SQLiteMedium struct {
	db *gorm.DB
}

func NewSQLiteMedium(path string) (*SQLiteMedium, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite: %w", err)
	}
	return NewSQLiteMediumFromDB(db)
}

// NewSQLiteMediumFromDB migrates kv_entries on an existing connection.
func NewSQLiteMediumFromDB(db *gorm.DB) (*SQLiteMedium, error) {
	if err := db.AutoMigrate(&kvEntry{}); err != nil {
		return nil, fmt.Errorf("failed to migrate kv_entries: %w", err)
	}
	slog.Info("sqlite medium initialized")
	return &SQLiteMedium{db: db}, nil
}

func (m *SQLiteMedium) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var row kvEntry
	err := m.db.WithContext(ctx).Where(keyIs(key)).Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read %s: %w", key, err)
	}
	return row.Value, true, nil
}

func (m *SQLiteMedium) Put(ctx context.Context, key string, value []byte) error {
	row := kvEntry{Key: key, Value: value, UpdatedAt: time.Now()}
	err := m.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&row).Error
	if err != nil {
		return fmt.Errorf("failed to write %s: %w", key, err)
	}
	return nil
}

func (m *SQLiteMedium) Delete(ctx context.Context, key string) error {
	if err := m.db.WithContext(ctx).Where(keyIs(key)).Delete(&kvEntry{}).Error; err != nil {
		return fmt.Errorf("failed to delete %s: %w", key, err)
	}
	return nil
}

// RedisMedium stores each blob under prefix+key as a plain string value.
type RedisMedium struct {
	rdb    *goredis.Client
	prefix string
}

func NewRedisMedium(ctx context.Context, cfg *config.RedisConfig) (*RedisMedium, error) {
	rdb := goredis.NewClient(&goredis.Options{
		Addr:        cfg.Addr,
		Password:    cfg.Password,
		DB:          cfg.DB,
		DialTimeout: 5 * time.Second,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return NewRedisMediumFromClient(rdb, cfg.KeyPrefix), nil
}

func NewRedisMediumFromClient(rdb *goredis.Client, prefix string) *RedisMedium {
	return &RedisMedium{rdb: rdb, prefix: prefix}
}

func (m *RedisMedium) Get(ctx context.Context, key string) ([]byte, bool, error) {
	v, err := m.rdb.Get(ctx, m.prefix+key).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read %s: %w", key, err)
	}
	return v, true, nil
}

func (m *RedisMedium) Put(ctx context.Context, key string, value []byte) error {
	if err := m.rdb.Set(ctx, m.prefix+key, value, 0).Err(); err != nil {
		return fmt.Errorf("failed to write %s: %w", key, err)
	}
	return nil
}

func (m *RedisMedium) Delete(ctx context.Context, key string) error {
	if err := m.rdb.Del(ctx, m.prefix+key).Err(); err != nil {
		return fmt.Errorf("failed to delete %s: %w", key, err)
	}
	return nil
}

func (m *RedisMedium) Close() error { return m.rdb.Close() }
