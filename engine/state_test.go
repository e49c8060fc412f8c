package engine

import "testing"

func TestDerive(t *testing.T) {
	cases := []struct {
		trusted  bool
		resolved int
		want     State
	}{
		{false, 0, PermissionsRequired},
		{false, 1, PermissionsRequired},
		{false, 2, PermissionsRequired},
		{true, 0, Configuring},
		{true, 1, Configuring},
		{true, 2, Active},
	}
	for _, c := range cases {
		if got := Derive(c.trusted, c.resolved); got != c.want {
			t.Errorf("Derive(%v, %d) = %v, want %v", c.trusted, c.resolved, got, c.want)
		}
	}
}

func TestDeriveIsDeterministic(t *testing.T) {
	for i := 0; i < 50; i++ {
		if Derive(true, 2) != Active {
			t.Fatal("identical inputs produced a different state")
		}
		if Derive(false, 2) != PermissionsRequired {
			t.Fatal("identical inputs produced a different state")
		}
	}
}

func TestStateString(t *testing.T) {
	if PermissionsRequired.String() != "permissions-required" ||
		Configuring.String() != "configuring" ||
		Active.String() != "active" {
		t.Error("state names changed; log readers depend on them")
	}
	if State(42).String() != "invalid" {
		t.Error("out-of-range state must render as invalid")
	}
}
