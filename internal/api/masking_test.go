package api

import "testing"

func TestMaskCardNumber(t *testing.T) {
	cases := []struct {
		name  string
		input string
		want  string
	}{
		{"spaced number", "1234 5678 9012 3456", "**** **** **** 3456"},
		{"dashed number", "1234-5678-9012-3456", "**** **** **** 3456"},
		{"plain number", "1234567890123456", "**** **** **** 3456"},
		{"fewer than four digits", "12", "****"},
		{"no digits", "abcd", "****"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			in := tc.input
			got := MaskCardNumber(&in)
			if got == nil || *got != tc.want {
				t.Errorf("expected %q, got %v", tc.want, got)
			}
		})
	}
}

func TestMaskCardNumber_Nil(t *testing.T) {
	if got := MaskCardNumber(nil); got != nil {
		t.Errorf("expected nil for nil input, got %q", *got)
	}
	empty := ""
	if got := MaskCardNumber(&empty); got != nil {
		t.Errorf("expected nil for empty input, got %q", *got)
	}
}
