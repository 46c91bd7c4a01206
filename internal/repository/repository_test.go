package repository

import "testing"

func TestEscapeLike(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want string
	}{
		{"contract", "contract"},
		{"100%", `100\%`},
		{"ipc_302", `ipc\_302`},
		{`path\name`, `path\\name`},
	}
	for _, tt := range tests {
		if got := escapeLike(tt.in); got != tt.want {
			t.Errorf("escapeLike(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestCursorRoundTrip(t *testing.T) {
	t.Parallel()

	if _, err := decodeCursor("not-base64!"); err == nil {
		t.Error("decodeCursor accepted malformed input")
	}
}
