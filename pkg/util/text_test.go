package util

import "testing"

func TestFirstCurrencyAmount(t *testing.T) {
	cases := []struct {
		text string
		want int
		none bool
	}{
		{text: "850 ₪", want: 850},
		{text: "מחיר: 1,200 ₪ לשעה", want: 1200},
		{text: "starting at 400NIS per visit", want: 400},
		{text: "500 שח בלבד", want: 500},
		{text: "call me for prices", none: true},
		{text: "", none: true},
	}
	for _, tc := range cases {
		got := FirstCurrencyAmount(tc.text)
		if tc.none {
			if got != nil {
				t.Errorf("FirstCurrencyAmount(%q) = %d, want nil", tc.text, *got)
			}
			continue
		}
		if got == nil || *got != tc.want {
			t.Errorf("FirstCurrencyAmount(%q) = %v, want %d", tc.text, got, tc.want)
		}
	}
}

func TestDigitsOnly(t *testing.T) {
	if got := DigitsOnly("+972 (50) 123-4567"); got != "972501234567" {
		t.Errorf("DigitsOnly = %q", got)
	}
	if got := DigitsOnly("05*-***-****"); got != "05" {
		t.Errorf("DigitsOnly masked = %q", got)
	}
	if got := DigitsOnly(""); got != "" {
		t.Errorf("DigitsOnly empty = %q", got)
	}
}

func TestLeadingInt(t *testing.T) {
	if got := LeadingInt(" 24 "); got == nil || *got != 24 {
		t.Errorf("LeadingInt(\" 24 \") = %v", got)
	}
	if got := LeadingInt("24yo"); got == nil || *got != 24 {
		t.Errorf("LeadingInt(\"24yo\") = %v", got)
	}
	if got := LeadingInt("none"); got != nil {
		t.Errorf("LeadingInt(\"none\") = %v, want nil", got)
	}
}
