package handlers

import "testing"

func TestParsePaginationParamsDefaults(t *testing.T) {
	page, limit, err := parsePaginationParams("", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if page != 1 || limit != defaultPageLimit {
		t.Fatalf("expected defaults 1/%d, got %d/%d", defaultPageLimit, page, limit)
	}
}

func TestParsePaginationParamsCapsLimit(t *testing.T) {
	_, limit, err := parsePaginationParams("2", "500")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if limit != maxPageLimit {
		t.Fatalf("expected limit capped at %d, got %d", maxPageLimit, limit)
	}
}

func TestParsePaginationParamsRejectsBadValues(t *testing.T) {
	for _, tt := range []struct{ page, limit string }{
		{"0", "10"},
		{"-1", "10"},
		{"abc", "10"},
		{"1", "0"},
		{"1", "x"},
	} {
		if _, _, err := parsePaginationParams(tt.page, tt.limit); err == nil {
			t.Fatalf("expected error for page=%q limit=%q", tt.page, tt.limit)
		}
	}
}
