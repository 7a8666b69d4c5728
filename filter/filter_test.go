package filter

import (
	"context"
	"errors"
	"slices"
	"testing"

	"github.com/rushteam/youchoose/core"
)

type mapSeenStore struct {
	seen  map[string][]string
	calls int
	err   error
}

func (s *mapSeenStore) GetSeenItems(_ context.Context, userID string) ([]string, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.seen[userID], nil
}

func newItems(ids ...string) []*core.Item {
	out := make([]*core.Item, len(ids))
	for i, id := range ids {
		out[i] = core.NewItem(id)
		out[i].Score = float64(len(ids) - i)
	}
	return out
}

func ids(items []*core.Item) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.ID
	}
	return out
}

func TestSeenFilter(t *testing.T) {
	store := &mapSeenStore{seen: map[string][]string{"u1": {"a", "c"}}}

	tests := []struct {
		name   string
		user   string
		static []string
		want   []string
	}{
		{name: "seen removed", user: "u1", want: []string{"b", "d"}},
		{name: "static ids", user: "u1", static: []string{"d"}, want: []string{"b"}},
		{name: "unknown user", user: "u2", want: []string{"a", "b", "c", "d"}},
		{name: "anonymous", user: "", static: []string{"a"}, want: []string{"b", "c", "d"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := &FilterNode{Filters: []Filter{&SeenFilter{Store: store, ItemIDs: tt.static}}}
			items := newItems("a", "b", "c", "d")
			out, err := n.Process(context.Background(), &core.RecommendContext{UserID: tt.user}, items)
			if err != nil {
				t.Fatal(err)
			}
			if got := ids(out); !slices.Equal(got, tt.want) {
				t.Errorf("Process() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestFilterNode_PreparesOncePerRequest(t *testing.T) {
	store := &mapSeenStore{seen: map[string][]string{"u1": {"a"}}}
	n := &FilterNode{Filters: []Filter{&SeenFilter{Store: store}}}

	items := newItems("a", "b", "c")
	if _, err := n.Process(context.Background(), &core.RecommendContext{UserID: "u1"}, items); err != nil {
		t.Fatal(err)
	}
	if store.calls != 1 {
		t.Errorf("store calls = %d, want 1", store.calls)
	}
	if lbl := items[0].Labels["filtered"]; lbl.Source != "filter.seen" {
		t.Errorf("filtered label = %+v", lbl)
	}
}

func TestFilterNode_PrepareError(t *testing.T) {
	store := &mapSeenStore{err: errors.New("store down")}
	n := &FilterNode{Filters: []Filter{&SeenFilter{Store: store}}}
	if _, err := n.Process(context.Background(), &core.RecommendContext{UserID: "u1"}, newItems("a")); err == nil {
		t.Error("Process() error = nil, want store error")
	}
}

func TestExprFilter(t *testing.T) {
	tests := []struct {
		name string
		expr string
		want []string
	}{
		{name: "score threshold", expr: "item.score >= 2.0", want: []string{"a", "b"}},
		{name: "label", expr: `label.recall_source == "mf"`, want: []string{"a", "c"}},
		{name: "context", expr: "item.id != rctx.params.pinned", want: []string{"a", "b"}},
		{name: "empty keeps all", expr: "", want: []string{"a", "b", "c"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := NewExprFilter(tt.expr)
			if err != nil {
				t.Fatalf("NewExprFilter() error = %v", err)
			}
			items := newItems("a", "b", "c")
			items[0].PutLabel("recall_source", core.Label{Value: "mf", Source: "recall"})
			items[1].PutLabel("recall_source", core.Label{Value: "precomputed", Source: "recall"})
			items[2].PutLabel("recall_source", core.Label{Value: "mf", Source: "recall"})

			rctx := &core.RecommendContext{UserID: "u1", Params: map[string]any{"pinned": "c"}}
			out, err := (&FilterNode{Filters: []Filter{f}}).Process(context.Background(), rctx, items)
			if err != nil {
				t.Fatal(err)
			}
			if got := ids(out); !slices.Equal(got, tt.want) {
				t.Errorf("Process() = %v, want %v", got, tt.want)
			}
		})
	}

	if _, err := NewExprFilter("item.score >"); !core.IsInvalidInput(err) {
		t.Errorf("NewExprFilter(bad) error = %v, want INVALID_INPUT", err)
	}
}

func TestExprFilter_ErrorKeepsItem(t *testing.T) {
	// label.category 不存在，求值出错时保留物品
	f := &ExprFilter{Expr: "label.category == 'A'"}
	out, err := (&FilterNode{Filters: []Filter{f}}).Process(context.Background(), nil, newItems("a"))
	if err != nil || len(out) != 1 {
		t.Errorf("Process() = %v, %v, want item kept", ids(out), err)
	}
}
