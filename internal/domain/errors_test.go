package domain

import (
	"errors"
	"fmt"
	"testing"
)

func TestIsRemoteUnavailable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{
			name: "remote unavailable",
			err:  ErrRemoteUnavailable,
			want: true,
		},
		{
			name: "wrapped remote unavailable",
			err:  fmt.Errorf("get stock 1: %w", ErrRemoteUnavailable),
			want: true,
		},
		{
			name: "joined remote unavailable",
			err:  errors.Join(ErrRemoteUnavailable, errors.New("status 503")),
			want: true,
		},
		{
			name: "other error",
			err:  ErrProductNotFound,
			want: false,
		},
		{
			name: "nil error",
			err:  nil,
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsRemoteUnavailable(tt.err); got != tt.want {
				t.Errorf("IsRemoteUnavailable() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestIsInsufficientStock(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "insufficient stock", err: ErrInsufficientStock, want: true},
		{name: "wrapped", err: fmt.Errorf("add product 3: %w", ErrInsufficientStock), want: true},
		{name: "remote", err: ErrRemoteUnavailable, want: false},
		{name: "nil", err: nil, want: false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := IsInsufficientStock(tc.err); got != tc.want {
				t.Fatalf("IsInsufficientStock(%v)=%v, want %v", tc.err, got, tc.want)
			}
		})
	}
}
