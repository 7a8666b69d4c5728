// Package ingestion 把 CSV 文件或 SQL 查询结果读成 core.Table，
// 并提供从 instacart 订单库导出交互数据的工具。
package ingestion

// 默认列名
const (
	DefaultUserColumn   = "user_id"
	DefaultItemColumn   = "item_id"
	DefaultWeightColumn = "interaction"
)

// Columns 指定用户、物品、权重三列的列名。
type Columns struct {
	User   string `koanf:"user" yaml:"user"`
	Item   string `koanf:"item" yaml:"item"`
	Weight string `koanf:"weight" yaml:"weight"`
}

// DefaultColumns 返回 user_id / item_id / interaction。
func DefaultColumns() Columns {
	return Columns{User: DefaultUserColumn, Item: DefaultItemColumn, Weight: DefaultWeightColumn}
}

// WithDefaults 把空列名替换为默认值。
func (c Columns) WithDefaults() Columns {
	d := DefaultColumns()
	if c.User == "" {
		c.User = d.User
	}
	if c.Item == "" {
		c.Item = d.Item
	}
	if c.Weight == "" {
		c.Weight = d.Weight
	}
	return c
}

func (c Columns) names() []string { return []string{c.User, c.Item, c.Weight} }
