package conv

import (
	"math/big"
	"testing"
)

func TestToFloat64(t *testing.T) {
	tests := []struct {
		in     any
		want   float64
		wantOK bool
	}{
		{int64(3), 3, true},
		{int32(-2), -2, true},
		{uint8(7), 7, true},
		{float32(0.5), 0.5, true},
		{true, 1, true},
		{"2.25", 2.25, true},
		{[]byte("4"), 4, true},
		{"abc", 0, false},
		{nil, 0, false},
		{struct{}{}, 0, false},
	}
	for _, tt := range tests {
		got, ok := ToFloat64(tt.in)
		if ok != tt.wantOK || (ok && got != tt.want) {
			t.Errorf("ToFloat64(%#v) = %v, %v; want %v, %v", tt.in, got, ok, tt.want, tt.wantOK)
		}
	}
}

func TestToString(t *testing.T) {
	tests := []struct {
		in     any
		want   string
		wantOK bool
	}{
		{"u1", "u1", true},
		{int64(42), "42", true},
		{int32(7), "7", true},
		{float64(1.5), "1.5", true},
		{float64(3), "3", true},
		{[]byte("x"), "x", true},
		{big.NewInt(12345678901), "12345678901", true},
		{nil, "", false},
		{[]int{1}, "", false},
	}
	for _, tt := range tests {
		got, ok := ToString(tt.in)
		if ok != tt.wantOK || got != tt.want {
			t.Errorf("ToString(%#v) = %q, %v; want %q, %v", tt.in, got, ok, tt.want, tt.wantOK)
		}
	}
}

func TestConvertSlice(t *testing.T) {
	got := ConvertSlice([]any{"a", 1, "b"}, func(v any) (string, bool) {
		s, ok := v.(string)
		return s, ok
	})
	if len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Errorf("ConvertSlice() = %v", got)
	}
	if ConvertSlice[any, string](nil, nil) != nil {
		t.Error("ConvertSlice(nil) should be nil")
	}
}
