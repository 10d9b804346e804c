package notify

import "testing"

type sent struct {
	title, message string
}

func recording(enabled bool) (*Notifier, *[]sent) {
	var out []sent
	n := New(enabled)
	n.send = func(title, message string) error {
		out = append(out, sent{title, message})
		return nil
	}
	return n, &out
}

func TestDisabledNotifierSendsNothing(t *testing.T) {
	n, out := recording(false)
	if err := n.RegistrationFailed([]string{"Alt+Super+Left"}); err != nil {
		t.Fatalf("RegistrationFailed() error: %v", err)
	}
	if len(*out) != 0 {
		t.Fatalf("expected no notifications, got %v", *out)
	}
}

func TestRegistrationFailed(t *testing.T) {
	n, out := recording(true)

	if err := n.RegistrationFailed(nil); err != nil {
		t.Fatalf("RegistrationFailed(nil) error: %v", err)
	}
	if len(*out) != 0 {
		t.Fatalf("expected nothing for an empty list, got %v", *out)
	}

	_ = n.RegistrationFailed([]string{"Alt+Super+Left"})
	_ = n.RegistrationFailed([]string{"A", "B", "C", "D", "E", "F", "G"})

	want := []sent{
		{"whimsy: hotkey unavailable", "Alt+Super+Left"},
		{"whimsy: 7 hotkeys unavailable", "A, B, C, D, E and 2 more"},
	}
	if len(*out) != len(want) {
		t.Fatalf("expected %d notifications, got %v", len(want), *out)
	}
	for i := range want {
		if (*out)[i] != want[i] {
			t.Fatalf("notification %d = %+v, want %+v", i, (*out)[i], want[i])
		}
	}
}

func TestSetEnabled(t *testing.T) {
	n, out := recording(false)
	n.SetEnabled(true)
	_ = n.Error("hotkey host failed")
	if len(*out) != 1 || (*out)[0].title != "whimsy: error" {
		t.Fatalf("unexpected notifications %v", *out)
	}
}
