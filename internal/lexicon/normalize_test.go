package lexicon

import (
	"reflect"
	"testing"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"Bench-Press  2.0", "bench press 2 0"},
		{"  Incline DB Press!  ", "incline db press"},
		{"T-Bar\tRow\n(Wide)", "t bar row wide"},
		{"Ñandu Squat", "andu squat"},
		{"---", ""},
		{"", ""},
	}
	for _, tt := range tests {
		if got := Normalize(tt.input); got != tt.want {
			t.Errorf("Normalize(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestNormalizeIsIdempotent(t *testing.T) {
	for _, input := range []string{"Bench-Press  2.0", "Single-Arm  Cable   Fly", "", "!!", "Zottman Curl (EZ)"} {
		once := Normalize(input)
		if twice := Normalize(once); twice != once {
			t.Errorf("Normalize not idempotent for %q: %q then %q", input, once, twice)
		}
	}
}

func TestTokenize(t *testing.T) {
	tests := []struct {
		input string
		want  []string
	}{
		{"Bench-Press  2.0", []string{"bench", "press", "2", "0"}},
		{"Lat Pulldown", []string{"lat", "pulldown"}},
		{"", nil},
		{"  ...  ", nil},
	}
	for _, tt := range tests {
		got := Tokenize(tt.input)
		if !reflect.DeepEqual(got, tt.want) {
			t.Errorf("Tokenize(%q) = %#v, want %#v", tt.input, got, tt.want)
		}
	}
}

func TestBigrams(t *testing.T) {
	if got := Bigrams([]string{"seated"}); len(got) != 0 {
		t.Fatalf("single token must yield no bigrams, got %v", got)
	}
	got := Bigrams([]string{"seated", "cable", "row"})
	want := []string{"seated cable", "cable row"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Bigrams = %v, want %v", got, want)
	}
}
