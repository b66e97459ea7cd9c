package rooms

import "testing"

func TestGenerateCode_Format(t *testing.T) {
	for i := 0; i < 100; i++ {
		code, err := GenerateCode()
		if err != nil {
			t.Fatalf("GenerateCode() error: %v", err)
		}
		if !ValidCode(code) {
			t.Errorf("GenerateCode() = %q, doesn't match expected pattern", code)
		}
	}
}

func TestGenerateCode_Spread(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 200; i++ {
		code, err := GenerateCode()
		if err != nil {
			t.Fatal(err)
		}
		seen[code] = true
	}
	// 10^4 combinations; 200 draws should land on well over 150 distinct codes
	if len(seen) < 150 {
		t.Errorf("only %d distinct codes out of 200", len(seen))
	}
}

func TestValidCode(t *testing.T) {
	tests := []struct {
		code string
		want bool
	}{
		{"1234", true},
		{"0007", true},
		{"123", false},
		{"12345", false},
		{"12a4", false},
		{"", false},
		{" 123", false},
		{"١٢٣٤", false}, // non-ASCII digits
	}
	for _, tt := range tests {
		if got := ValidCode(tt.code); got != tt.want {
			t.Errorf("ValidCode(%q) = %v, want %v", tt.code, got, tt.want)
		}
	}
}
