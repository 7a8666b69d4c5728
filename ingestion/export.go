package ingestion

import (
	"context"
	"fmt"
	"path/filepath"

	"golang.org/x/sync/errgroup"

	"github.com/rushteam/youchoose/core"
)

// Querier 是能执行查询并返回 Frame 的数据源。
type Querier interface {
	Query(ctx context.Context, query string, args ...any) (*Frame, error)
}

// adjacencyQuery 统计前 $1 个 prior 订单中每个 (用户, 商品) 的购买次数。
const adjacencyQuery = `
SELECT
	CAST(o.user_id AS INTEGER) AS user_id,
	p.product_id AS product_id,
	COUNT(p.product_id) AS weight
FROM order_products__prior AS p
INNER JOIN (
	SELECT order_id, user_id
	FROM orders
	WHERE eval_set = 'prior'
	LIMIT $1
) AS o ON o.order_id = p.order_id
GROUP BY o.user_id, p.product_id
ORDER BY user_id, product_id`

// priorOrdersQuery 导出前 $1 个 prior 订单的完整明细（含商品所属部门与货架）。
const priorOrdersQuery = `
SELECT
	o.user_id, p.product_id,
	products.department_id, products.aisle_id,
	p.order_id, p.add_to_cart_order,
	p.reordered, o.order_number,
	o.order_dow, o.order_hour_of_day,
	CAST(o.days_since_prior AS INTEGER) AS days_since_prior
FROM order_products__prior AS p
INNER JOIN (
	SELECT user_id, order_id, order_number, order_dow, order_hour_of_day, days_since_prior
	FROM orders
	WHERE order_id IN (
		SELECT DISTINCT order_id
		FROM orders
		WHERE eval_set = 'prior'
		LIMIT $1
	)
) AS o ON o.order_id = p.order_id
INNER JOIN products ON products.product_id = p.product_id
ORDER BY p.order_id, p.add_to_cart_order`

// AdjacencyExport 是 ExportAdjacency 写出的文件。
type AdjacencyExport struct {
	AdjacencyPath   string
	AdjacencyRows   int
	PriorOrdersPath string
	PriorOrdersRows int
}

// AdjacencyColumns 是邻接矩阵文件的列名，可直接用于 ReadCSV。
func AdjacencyColumns() Columns {
	return Columns{User: "user_id", Item: "product_id", Weight: "weight"}
}

// ExportAdjacency 从 instacart 订单库导出两个 CSV 到 dir：
//   - weighted_adjacency_matrix_{n}_orders.csv：(user_id, product_id, weight)
//   - full_info_{n}_prior_orders.csv：订单明细
//
// 两个查询并发执行；numOrders < 1 返回 INVALID_CONFIG。
func ExportAdjacency(ctx context.Context, db Querier, dir string, numOrders int) (*AdjacencyExport, error) {
	if numOrders < 1 {
		return nil, core.InvalidConfig(core.ModuleIngestion, "ingestion: number of orders must be >= 1, got %d", numOrders)
	}
	out := &AdjacencyExport{
		AdjacencyPath:   filepath.Join(dir, fmt.Sprintf("weighted_adjacency_matrix_%d_orders.csv", numOrders)),
		PriorOrdersPath: filepath.Join(dir, fmt.Sprintf("full_info_%d_prior_orders.csv", numOrders)),
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		f, err := db.Query(gctx, adjacencyQuery, numOrders)
		if err != nil {
			return fmt.Errorf("ingestion: adjacency: %w", err)
		}
		out.AdjacencyRows = f.Len()
		return writeFrameFile(out.AdjacencyPath, f)
	})
	g.Go(func() error {
		f, err := db.Query(gctx, priorOrdersQuery, numOrders)
		if err != nil {
			return fmt.Errorf("ingestion: prior orders: %w", err)
		}
		out.PriorOrdersRows = f.Len()
		return writeFrameFile(out.PriorOrdersPath, f)
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
