package sanitize

import "testing"

func TestQuery(t *testing.T) {
	tests := []struct{ in, want string }{
		{in: "Rynek Wrocław", want: "Rynek Wrocław"},
		{in: "  Plac \t Grunwaldzki\n ", want: "Plac Grunwaldzki"},
		{in: "<b>Świdnicka</b> 1", want: "Świdnicka 1"},
		{in: "Kościuszki &amp; Piłsudskiego", want: "Kościuszki & Piłsudskiego"},
		{in: "<script>alert(1)</script>Dworzec", want: "alert(1)Dworzec"},
		{in: "", want: ""},
	}
	for _, tc := range tests {
		if got := Query(tc.in); got != tc.want {
			t.Fatalf("Query(%q): expected %q, got %q", tc.in, tc.want, got)
		}
	}
}

func TestStripHTML_EntityOrder(t *testing.T) {
	if got := StripHTML("&amp;lt;"); got != "&lt;" {
		t.Fatalf("expected &lt;, got %q", got)
	}
}
