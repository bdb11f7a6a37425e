package phone

import "testing"

func TestNormalize(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"8 900 123 45 67", "+79001234567"},
		{"+7 (900) 123-45-67", "+79001234567"},
		{"9001234567", "+79001234567"},
		{"79001234567", "+79001234567"},
		{"+79001234567", "+79001234567"},
		{"8 (4832) 377-888", "+74832377888"},
	}
	for _, c := range cases {
		if got := Normalize(c.in); got != c.want {
			t.Errorf("Normalize(%q) = %q, want %q", c.in, got, c.want)
		}
	}

	// The two formats from the booking API and Telegram must collapse to one key.
	if Normalize("8 900 123 45 67") != Normalize("+7 (900) 123-45-67") {
		t.Error("trunk-prefixed and international forms should normalize identically")
	}
}

func TestSuffixKey(t *testing.T) {
	a := SuffixKey("+7 (900) 123-45-67")
	b := SuffixKey("89001234567")
	if a != b {
		t.Errorf("suffix keys differ: %q vs %q", a, b)
	}
	if a != "9001234567" {
		t.Errorf("SuffixKey = %q, want 9001234567", a)
	}
	if SuffixKey("12345") != "12345" {
		t.Error("short numbers should pass through")
	}
}

func TestMask(t *testing.T) {
	if got := Mask("+79001234567"); got != "+790 *** ** 67" {
		t.Errorf("Mask = %q", got)
	}
	if got := Mask("123"); got != "123" {
		t.Errorf("short input should be returned unchanged, got %q", got)
	}
}
