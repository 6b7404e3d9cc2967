package labels

import "testing"

func TestAt_FirstAndLast61AreAlphabet(t *testing.T) {
	if At(0) != "1" {
		t.Fatalf("At(0) = %q", At(0))
	}
	if At(60) != "Z" {
		t.Fatalf("At(60) = %q", At(60))
	}
	if At(61) != "" {
		t.Fatalf("At(61) should be empty, got %q", At(61))
	}
	if At(100) != "" {
		t.Fatalf("At(100) should be empty, got %q", At(100))
	}
}

func TestSummarize_KnownValues(t *testing.T) {
	cases := []struct {
		n    int
		want string
	}{
		{0, ""},
		{1, "1"},
		{2, "1-2"},
		{8, "1-8"},
		{9, "1-9"},
		{10, "1-9/a"},
		{11, "1-9/a-b"},
		{12, "1-9/a-c"},
		{34, "1-9/a-y"},
		{35, "1-9/a-z"},
		{36, "1-9/a-z/A"},
		{37, "1-9/a-z/A-B"},
		{38, "1-9/a-z/A-C"},
		{60, "1-9/a-z/A-Y"},
		{61, "1-9/a-z/A-Z"},
		{62, "1-9/a-z/A-Z"},
	}
	for _, c := range cases {
		if got := Summarize(c.n); got != c.want {
			t.Errorf("Summarize(%d) = %q, want %q", c.n, got, c.want)
		}
	}
}
