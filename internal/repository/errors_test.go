package repository

import (
	"database/sql"
	"errors"
	"fmt"
	"testing"

	"github.com/go-sql-driver/mysql"

	"github.com/iliyamo/neustalgic-grooves/internal/store"
)

func TestTranslate(t *testing.T) {
	other := errors.New("connection refused")
	tests := []struct {
		name string
		in   error
		want error
	}{
		{"nil", nil, nil},
		{"no rows", sql.ErrNoRows, store.ErrNotFound},
		{"wrapped no rows", fmt.Errorf("scan: %w", sql.ErrNoRows), store.ErrNotFound},
		{"duplicate entry", &mysql.MySQLError{Number: 1062, Message: "Duplicate entry"}, store.ErrDuplicate},
		{"other mysql error", &mysql.MySQLError{Number: 1213, Message: "Deadlock"}, nil},
		{"passthrough", other, other},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := translate(tt.in)
			if tt.want == nil {
				if tt.in == nil && got != nil {
					t.Fatalf("expected nil, got %v", got)
				}
				if tt.in != nil && got != tt.in {
					t.Fatalf("expected passthrough, got %v", got)
				}
				return
			}
			if !errors.Is(got, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestLikePatternEscapesWildcards(t *testing.T) {
	tests := map[string]string{
		"Sofia":    "%sofia%",
		"50%":      `%50\%%`,
		"a_b":      `%a\_b%`,
		`back\sl`:  `%back\\sl%`,
	}
	for in, want := range tests {
		if got := likePattern(in); got != want {
			t.Fatalf("likePattern(%q) = %q, want %q", in, got, want)
		}
	}
}
