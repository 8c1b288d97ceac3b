package handlers

import "testing"

func TestParsePaginationParamsDefaults(t *testing.T) {
	page, limit, err := parsePaginationParams("", "")
	if err != nil {
		t.Fatalf("empty params should use defaults, got %v", err)
	}
	if page != 1 || limit != 20 {
		t.Fatalf("got page=%d limit=%d, want 1 and 20", page, limit)
	}
}

func TestParsePaginationParamsParsesValues(t *testing.T) {
	page, limit, err := parsePaginationParams("3", "50")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if page != 3 || limit != 50 {
		t.Fatalf("got page=%d limit=%d", page, limit)
	}
}

func TestParsePaginationParamsRejectsBadInput(t *testing.T) {
	cases := [][2]string{
		{"0", "10"},
		{"-1", "10"},
		{"abc", "10"},
		{"1", "0"},
		{"1", "x"},
	}
	for _, tc := range cases {
		_, _, err := parsePaginationParams(tc[0], tc[1])
		if err == nil {
			t.Fatalf("page=%q limit=%q should be rejected", tc[0], tc[1])
		}
		if err.Error() == "" {
			t.Fatalf("error for page=%q limit=%q has no message", tc[0], tc[1])
		}
	}
}
