package collectors

import "testing"

func TestNormalizeTitle(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"Will X win the election", "Will X win the election."},
		{"Will X win the election?", "Will X win the election?"},
		{"Fed cuts rates!", "Fed cuts rates!"},
		{"Done.", "Done."},
		{"", ""},
		{"Ends with space ", "Ends with space ."},
	}
	for _, tt := range tests {
		if got := NormalizeTitle(tt.in); got != tt.want {
			t.Errorf("NormalizeTitle(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestBuildDescriptor(t *testing.T) {
	got := BuildDescriptor("Will X win", "If X wins, resolves Yes.", "Source: AP.")
	want := "Will X win. If X wins, resolves Yes. Source: AP."
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
	got = BuildDescriptor("Will X win?", "", "")
	if got != "Will X win?  " {
		t.Fatalf("empty rule parts should keep separators, got %q", got)
	}
}

func TestVenueOpposite(t *testing.T) {
	if v, _ := VenueKalshi.Opposite(); v != VenuePolymarket {
		t.Fatalf("expected polymarket, got %s", v)
	}
	if v, _ := VenuePolymarket.Opposite(); v != VenueKalshi {
		t.Fatalf("expected kalshi, got %s", v)
	}
	if _, err := Venue("manifold").Opposite(); err == nil {
		t.Fatal("expected error for unknown venue")
	}
}
