package ingestion

import (
	"context"
	"database/sql"
	"fmt"
	"net"
	"net/url"
	"strconv"

	_ "github.com/duckdb/duckdb-go/v2"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/rs/zerolog"

	"github.com/rushteam/youchoose/core"
	"github.com/rushteam/youchoose/pkg/conv"
)

// 支持的数据库类型
const (
	DBTypePostgres = "psql"
	DBTypeDuckDB   = "duckdb"
)

// DBConfig 是数据库连接参数。所有参数显式传入，不读取进程环境变量。
//   - psql：Host / Port / User / Password / Name / SSLMode
//   - duckdb：Path（为空时使用内存库）
type DBConfig struct {
	Type     string `koanf:"type" yaml:"type"`
	Host     string `koanf:"host" yaml:"host"`
	Port     int    `koanf:"port" yaml:"port"`
	User     string `koanf:"user" yaml:"user"`
	Password string `koanf:"password" yaml:"password"`
	Name     string `koanf:"name" yaml:"name"`
	Path     string `koanf:"path" yaml:"path"`
	SSLMode  string `koanf:"sslmode" yaml:"sslmode"`
}

// DriverDSN 返回 database/sql 驱动名和连接串；不支持的类型返回 INVALID_CONFIG。
func (c DBConfig) DriverDSN() (driver, dsn string, err error) {
	switch c.Type {
	case DBTypePostgres:
		host := c.Host
		if host == "" {
			host = "localhost"
		}
		port := c.Port
		if port == 0 {
			port = 5432
		}
		u := url.URL{
			Scheme: "postgres",
			Host:   net.JoinHostPort(host, strconv.Itoa(port)),
			Path:   "/" + c.Name,
		}
		if c.User != "" {
			u.User = url.UserPassword(c.User, c.Password)
		}
		if c.SSLMode != "" {
			u.RawQuery = url.Values{"sslmode": {c.SSLMode}}.Encode()
		}
		return "pgx", u.String(), nil
	case DBTypeDuckDB:
		return "duckdb", c.Path, nil
	default:
		return "", "", core.InvalidConfig(core.ModuleIngestion,
			"ingestion: database type must be %s or %s, got %q", DBTypePostgres, DBTypeDuckDB, c.Type)
	}
}

// SQLDatabase 是一个 SQL 数据库连接池。
type SQLDatabase struct {
	db  *sql.DB
	typ string
	log zerolog.Logger
}

// Option 是 SQLDatabase 的可选配置。
type Option func(*SQLDatabase)

// WithLogger 设置日志。
func WithLogger(l zerolog.Logger) Option {
	return func(d *SQLDatabase) { d.log = l }
}

// Open 校验配置并连接数据库；类型不支持时在连接前返回 INVALID_CONFIG，
// 连接失败返回 UNAVAILABLE。
func Open(ctx context.Context, cfg DBConfig, opts ...Option) (*SQLDatabase, error) {
	driver, dsn, err := cfg.DriverDSN()
	if err != nil {
		return nil, err
	}
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, core.Errorf(core.ModuleIngestion, core.ErrorCodeUnavailable, "ingestion: open %s: %w", cfg.Type, err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, core.Errorf(core.ModuleIngestion, core.ErrorCodeUnavailable, "ingestion: connect %s: %w", cfg.Type, err)
	}
	d := NewSQLDatabase(db, cfg.Type, opts...)
	d.log.Debug().Str("type", cfg.Type).Str("host", cfg.Host).Str("name", cfg.Name).Msg("database connected")
	return d, nil
}

// NewSQLDatabase 包装一个已打开的 *sql.DB。
func NewSQLDatabase(db *sql.DB, typ string, opts ...Option) *SQLDatabase {
	d := &SQLDatabase{db: db, typ: typ, log: zerolog.Nop()}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Type 返回数据库类型。
func (d *SQLDatabase) Type() string { return d.typ }

// DB 返回底层连接池。
func (d *SQLDatabase) DB() *sql.DB { return d.db }

// Query 执行查询并把全部结果读入 Frame。
func (d *SQLDatabase) Query(ctx context.Context, query string, args ...any) (*Frame, error) {
	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("ingestion: query: %w", err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("ingestion: columns: %w", err)
	}
	f := &Frame{Columns: cols}
	for rows.Next() {
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("ingestion: scan: %w", err)
		}
		f.Rows = append(f.Rows, values)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ingestion: rows: %w", err)
	}
	d.log.Debug().Int("rows", f.Len()).Strs("columns", cols).Msg("query finished")
	return f, nil
}

// Interactions 执行查询并按 cols 转换为交互表。
func (d *SQLDatabase) Interactions(ctx context.Context, query string, cols Columns, args ...any) (*core.Table, error) {
	f, err := d.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return f.Interactions(cols)
}

// TableNames 返回当前 schema 下的表名（排序）。
func (d *SQLDatabase) TableNames(ctx context.Context) ([]string, error) {
	f, err := d.Query(ctx, `
		SELECT table_name
		FROM information_schema.tables
		WHERE table_schema = current_schema()
		ORDER BY table_name`)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, f.Len())
	for _, row := range f.Rows {
		if s, ok := conv.ToString(row[0]); ok {
			names = append(names, s)
		}
	}
	return names, nil
}

// Close 关闭连接池。
func (d *SQLDatabase) Close() error {
	if err := d.db.Close(); err != nil {
		return fmt.Errorf("ingestion: close %s: %w", d.typ, err)
	}
	return nil
}
