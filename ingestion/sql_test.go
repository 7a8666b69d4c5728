package ingestion

import (
	"context"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/rushteam/youchoose/core"
)

func TestDBConfig_DriverDSN(t *testing.T) {
	tests := []struct {
		name       string
		cfg        DBConfig
		wantDriver string
		wantDSN    string
		wantErr    bool
	}{
		{
			name:       "postgres",
			cfg:        DBConfig{Type: DBTypePostgres, Host: "db", Port: 5433, User: "rec", Password: "p@ss", Name: "instacart", SSLMode: "disable"},
			wantDriver: "pgx",
			wantDSN:    "postgres://rec:p%40ss@db:5433/instacart?sslmode=disable",
		},
		{
			name:       "postgres defaults",
			cfg:        DBConfig{Type: DBTypePostgres, Name: "instacart"},
			wantDriver: "pgx",
			wantDSN:    "postgres://localhost:5432/instacart",
		},
		{
			name:       "duckdb file",
			cfg:        DBConfig{Type: DBTypeDuckDB, Path: "/data/orders.duckdb"},
			wantDriver: "duckdb",
			wantDSN:    "/data/orders.duckdb",
		},
		{name: "sqlite", cfg: DBConfig{Type: "sqlite"}, wantErr: true},
		{name: "empty", cfg: DBConfig{}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			driver, dsn, err := tt.cfg.DriverDSN()
			if tt.wantErr {
				if !core.IsInvalidConfig(err) {
					t.Errorf("DriverDSN() error = %v, want INVALID_CONFIG", err)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if driver != tt.wantDriver || dsn != tt.wantDSN {
				t.Errorf("DriverDSN() = %q, %q; want %q, %q", driver, dsn, tt.wantDriver, tt.wantDSN)
			}
		})
	}
}

func TestOpen_UnsupportedType(t *testing.T) {
	if _, err := Open(context.Background(), DBConfig{Type: "mysql"}); !core.IsInvalidConfig(err) {
		t.Errorf("Open(mysql) error = %v, want INVALID_CONFIG", err)
	}
}

// openInstacart 创建一个内存 DuckDB，写入最小的 instacart 表结构。
func openInstacart(t *testing.T) *SQLDatabase {
	t.Helper()
	ctx := context.Background()
	db, err := Open(ctx, DBConfig{Type: DBTypeDuckDB})
	if err != nil {
		t.Fatalf("Open(duckdb) error = %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	stmts := []string{
		`CREATE TABLE orders (order_id INTEGER, user_id BIGINT, eval_set VARCHAR, order_number INTEGER,
			order_dow INTEGER, order_hour_of_day INTEGER, days_since_prior DOUBLE)`,
		`CREATE TABLE order_products__prior (order_id INTEGER, product_id INTEGER, add_to_cart_order INTEGER, reordered INTEGER)`,
		`CREATE TABLE products (product_id INTEGER, product_name VARCHAR, aisle_id INTEGER, department_id INTEGER)`,
		`INSERT INTO orders VALUES
			(1, 10, 'prior', 1, 2, 8, NULL),
			(2, 10, 'prior', 2, 3, 7, 15.0),
			(3, 20, 'prior', 1, 4, 12, NULL),
			(4, 20, 'train', 2, 5, 9, 30.0)`,
		`INSERT INTO order_products__prior VALUES
			(1, 100, 1, 0), (1, 200, 2, 0),
			(2, 100, 1, 1),
			(3, 300, 1, 0)`,
		`INSERT INTO products VALUES (100, 'banana', 24, 4), (200, 'milk', 84, 16), (300, 'bread', 112, 3)`,
	}
	for _, s := range stmts {
		if _, err := db.DB().ExecContext(ctx, s); err != nil {
			t.Fatalf("exec %q: %v", s, err)
		}
	}
	return db
}

func TestSQLDatabase_Query(t *testing.T) {
	db := openInstacart(t)
	ctx := context.Background()

	names, err := db.TableNames(ctx)
	if err != nil {
		t.Fatalf("TableNames() error = %v", err)
	}
	if want := []string{"order_products__prior", "orders", "products"}; !slices.Equal(names, want) {
		t.Errorf("TableNames() = %v, want %v", names, want)
	}

	tbl, err := db.Interactions(ctx,
		`SELECT user_id, product_id AS item_id, reordered + 1 AS interaction
		 FROM order_products__prior JOIN orders USING (order_id)
		 ORDER BY order_id, product_id`, Columns{})
	if err != nil {
		t.Fatalf("Interactions() error = %v", err)
	}
	want := []core.Interaction{
		{UserID: "10", ItemID: "100", Weight: 1},
		{UserID: "10", ItemID: "200", Weight: 1},
		{UserID: "10", ItemID: "100", Weight: 2},
		{UserID: "20", ItemID: "300", Weight: 1},
	}
	if tbl.Len() != len(want) {
		t.Fatalf("rows = %d, want %d", tbl.Len(), len(want))
	}
	for i := range want {
		if tbl.Rows[i] != want[i] {
			t.Errorf("row %d = %+v, want %+v", i, tbl.Rows[i], want[i])
		}
	}

	if _, err := db.Query(ctx, "SELECT * FROM missing_table"); err == nil {
		t.Error("Query(missing table) returned nil error")
	}
}

func TestExportAdjacency(t *testing.T) {
	db := openInstacart(t)
	dir := t.TempDir()

	out, err := ExportAdjacency(context.Background(), db, dir, 10)
	if err != nil {
		t.Fatalf("ExportAdjacency() error = %v", err)
	}
	if filepath.Base(out.AdjacencyPath) != "weighted_adjacency_matrix_10_orders.csv" ||
		filepath.Base(out.PriorOrdersPath) != "full_info_10_prior_orders.csv" {
		t.Errorf("unexpected file names %+v", out)
	}

	tbl, err := ReadCSVFile(out.AdjacencyPath, AdjacencyColumns())
	if err != nil {
		t.Fatalf("ReadCSVFile() error = %v", err)
	}
	want := []core.Interaction{
		{UserID: "10", ItemID: "100", Weight: 2},
		{UserID: "10", ItemID: "200", Weight: 1},
		{UserID: "20", ItemID: "300", Weight: 1},
	}
	if tbl.Len() != len(want) || out.AdjacencyRows != len(want) {
		t.Fatalf("adjacency rows = %d (reported %d), want %d", tbl.Len(), out.AdjacencyRows, len(want))
	}
	for i := range want {
		if tbl.Rows[i] != want[i] {
			t.Errorf("adjacency row %d = %+v, want %+v", i, tbl.Rows[i], want[i])
		}
	}

	data, err := os.ReadFile(out.PriorOrdersPath)
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 1+4 || out.PriorOrdersRows != 4 {
		t.Errorf("prior orders file has %d lines (reported %d rows), want header + 4", len(lines), out.PriorOrdersRows)
	}
	if !strings.HasPrefix(lines[0], "user_id,product_id,department_id,aisle_id,order_id") {
		t.Errorf("prior orders header = %q", lines[0])
	}
}

func TestExportAdjacency_InvalidOrders(t *testing.T) {
	if _, err := ExportAdjacency(context.Background(), nil, t.TempDir(), 0); !core.IsInvalidConfig(err) {
		t.Errorf("ExportAdjacency(0) error = %v, want INVALID_CONFIG", err)
	}
}
