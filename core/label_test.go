package core

import "testing"

func TestMergeLabel(t *testing.T) {
	tests := []struct {
		name     string
		existing Label
		incoming Label
		want     Label
	}{
		{name: "empty existing", incoming: Label{Value: "mf", Source: "recall"}, want: Label{Value: "mf", Source: "recall"}},
		{name: "empty incoming", existing: Label{Value: "mf", Source: "recall"}, want: Label{Value: "mf", Source: "recall"}},
		{
			name:     "second source",
			existing: Label{Value: "mf", Source: "recall"},
			incoming: Label{Value: "precomputed", Source: "recall"},
			want:     Label{Value: "mf|precomputed", Source: "recall"},
		},
		{
			name:     "repeated value",
			existing: Label{Value: "mf|precomputed", Source: "recall"},
			incoming: Label{Value: "mf", Source: "recall"},
			want:     Label{Value: "mf|precomputed", Source: "recall"},
		},
		{
			name:     "value is not a prefix match",
			existing: Label{Value: "mf2"},
			incoming: Label{Value: "mf", Source: "rule"},
			want:     Label{Value: "mf2|mf", Source: "rule"},
		},
		{
			name:     "different stage",
			existing: Label{Value: "true", Source: "filter.seen"},
			incoming: Label{Value: "true", Source: "filter.expr"},
			want:     Label{Value: "true", Source: "filter.seen,filter.expr"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := MergeLabel(tt.existing, tt.incoming); got != tt.want {
				t.Errorf("MergeLabel() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestItem_PutLabel(t *testing.T) {
	it := NewItem("1")
	it.PutLabel("recall_source", Label{Value: "mf", Source: "recall"})
	it.PutLabel("recall_source", Label{Value: "mf", Source: "recall"})
	it.PutLabel("recall_source", Label{Value: "precomputed", Source: "recall"})
	if got := it.Labels["recall_source"].Value; got != "mf|precomputed" {
		t.Errorf("recall_source = %q, want mf|precomputed", got)
	}
}
