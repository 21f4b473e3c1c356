package slug

import "testing"

func TestMake(t *testing.T) {
	tests := []struct {
		name       string
		title      string
		externalID string
		want       string
	}{
		{"diacritics stripped", "Byt v Přerově", "123", "byt-v-prerove-123"},
		{"spaces and punctuation", "Prodej bytu 2+kk, Brno!", "456", "prodej-bytu-2-kk-brno-456"},
		{"source prefix stripped", "Dům se zahradou", "bazos-789", "dum-se-zahradou-789"},
		{"inzerat prefix stripped", "Pozemek", "inzerat-42", "pozemek-42"},
		{"empty title falls back to bare id", "", "321", "321"},
		{"punctuation-only title falls back to bare id", "***", "321", "321"},
		{"empty id keeps base", "Byt 3+1 Ostrava", "", "byt-3-1-ostrava"},
		{"upper-case id lowered", "Chata", "AD-99X", "chata-99x"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Make(tt.title, tt.externalID); got != tt.want {
				t.Errorf("Make(%q, %q) = %q, want %q", tt.title, tt.externalID, got, tt.want)
			}
		})
	}
}

func TestMakeDeterministic(t *testing.T) {
	first := Make("Byt 2+kk, 55 m², Brno", "bazos-100200")
	for i := 0; i < 10; i++ {
		if got := Make("Byt 2+kk, 55 m², Brno", "bazos-100200"); got != first {
			t.Fatalf("Make not deterministic: got %q, want %q", got, first)
		}
	}
}

func TestMakeNoLeadingOrTrailingHyphen(t *testing.T) {
	inputs := [][2]string{
		{"---Byt---", "-1-"},
		{"", "??7??"},
		{"  Řadovka  ", "bazos-"},
	}
	for _, in := range inputs {
		got := Make(in[0], in[1])
		if len(got) == 0 {
			continue
		}
		if got[0] == '-' || got[len(got)-1] == '-' {
			t.Errorf("Make(%q, %q) = %q, has leading or trailing hyphen", in[0], in[1], got)
		}
	}
}
