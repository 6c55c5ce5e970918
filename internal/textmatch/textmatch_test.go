package textmatch

import (
	"math"
	"testing"
)

func TestNormalize(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"   ", ""},
		{"hello", "hello"},
		{"  hello   world  ", "hello world"},
		{"a\tb\n c", "a b c"},
	}
	for _, c := range cases {
		if got := Normalize(c.in); got != c.want {
			t.Fatalf("Normalize(%q): got %q, want %q", c.in, got, c.want)
		}
	}
}

func TestTokenize(t *testing.T) {
	t.Parallel()

	got := Tokenize("Hello, World! It's 42.")
	for _, want := range []string{"hello", "world", "it's", "42"} {
		if _, ok := got[want]; !ok {
			t.Fatalf("Tokenize: missing %q in %v", want, got)
		}
	}
	if _, ok := got[""]; ok {
		t.Fatalf("Tokenize: empty token present")
	}

	if len(Tokenize("?! ... --")) != 0 {
		t.Fatalf("Tokenize: punctuation-only input should yield no tokens")
	}
}

func TestJaccard(t *testing.T) {
	t.Parallel()

	{
		if got := Jaccard("the quick brown fox", "the quick brown fox"); got != 1.0 {
			t.Fatalf("identical: got %v", got)
		}
	}
	{
		if got := Jaccard("apples", "oranges"); got != 0.0 {
			t.Fatalf("disjoint: got %v", got)
		}
	}
	{
		// {a,b,c} vs {b,c,d}: 2 shared, 4 total.
		got := Jaccard("a b c", "b c d")
		if math.Abs(got-0.5) > 1e-9 {
			t.Fatalf("partial: got %v, want 0.5", got)
		}
	}
	{
		if got := Jaccard("", ""); got != 1.0 {
			t.Fatalf("both empty: got %v", got)
		}
		if got := Jaccard("words here", ""); got != 0.0 {
			t.Fatalf("one empty: got %v", got)
		}
	}
	{
		// Case and punctuation are ignored.
		if got := Jaccard("Hello, World!", "hello world"); got != 1.0 {
			t.Fatalf("case/punct: got %v", got)
		}
	}
}
