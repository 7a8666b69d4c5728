package model

import (
	"slices"
	"testing"

	"github.com/rushteam/youchoose/core"
)

func TestNew(t *testing.T) {
	tests := []struct {
		method   string
		wantName string
		wantErr  bool
	}{
		{MethodNN, MethodNN, false},
		{MethodALS, MethodALS, false},
		{"bpr", "", true},
		{"", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.method, func(t *testing.T) {
			rec, err := New(tt.method, Options{NumUsers: 2, NumItems: 3})
			if tt.wantErr {
				if !core.IsInvalidConfig(err) {
					t.Errorf("New(%q) error = %v, want INVALID_CONFIG", tt.method, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("New(%q) error = %v", tt.method, err)
			}
			if rec.Name() != tt.wantName {
				t.Errorf("Name() = %q, want %q", rec.Name(), tt.wantName)
			}
		})
	}
}

func TestRegister(t *testing.T) {
	Register("nn-adam", func(o Options) (Recommender, error) {
		o.Optimizer = OptimizerAdam
		return NewMatrixFactorization(o)
	})
	Register("", nil)

	methods := SupportedMethods()
	for _, m := range []string{MethodALS, MethodNN, "nn-adam"} {
		if !slices.Contains(methods, m) {
			t.Errorf("SupportedMethods() = %v, missing %q", methods, m)
		}
	}
	if !slices.IsSorted(methods) {
		t.Errorf("SupportedMethods() = %v, want sorted", methods)
	}
	rec, err := New("nn-adam", Options{NumUsers: 1, NumItems: 1})
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := rec.(*MatrixFactorization); !ok {
		t.Errorf("New(nn-adam) = %T", rec)
	}
}
