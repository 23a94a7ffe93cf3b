package store

import "testing"

func TestPaginationNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   Pagination
		want Pagination
	}{
		{"defaults", Pagination{}, Pagination{Page: 1, Limit: 10}},
		{"negative page", Pagination{Page: -3, Limit: 5}, Pagination{Page: 1, Limit: 5}},
		{"clamped limit", Pagination{Page: 2, Limit: 1000}, Pagination{Page: 2, Limit: MaxLimit}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.in.Normalize(10); got != tt.want {
				t.Fatalf("expected %+v, got %+v", tt.want, got)
			}
		})
	}
}

func TestPaginationOffsetAndTotalPages(t *testing.T) {
	p := Pagination{Page: 3, Limit: 12}
	if p.Offset() != 24 {
		t.Fatalf("expected offset 24, got %d", p.Offset())
	}
	if got := p.TotalPages(25); got != 3 {
		t.Fatalf("expected 3 pages, got %d", got)
	}
	if got := p.TotalPages(0); got != 0 {
		t.Fatalf("expected 0 pages, got %d", got)
	}
}
