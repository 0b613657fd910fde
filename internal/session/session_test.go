package session

import "testing"

func TestAppendCreatesSessionOnce(t *testing.T) {
	store := NewStore()

	store.Append(42, RoleUser, "hi")
	store.Append(42, RoleUser, "again")
	if store.Len() != 1 {
		t.Fatalf("expected one session, got %d", store.Len())
	}
}

func TestAppendAndHistory(t *testing.T) {
	store := NewStore()
	store.Append(1, RoleUser, "hi")
	store.Append(1, RoleAssistant, "hello")

	history := store.History(1)
	if len(history) != 2 {
		t.Fatalf("expected two turns, got %d", len(history))
	}
	if history[0].Role != RoleUser || history[1].Text != "hello" {
		t.Fatalf("unexpected history %+v", history)
	}

	history[0].Text = "mutated"
	if store.History(1)[0].Text != "hi" {
		t.Fatal("History must return a copy")
	}

	if store.History(2) != nil {
		t.Fatal("unknown user must have no history")
	}

	store.Reset(1)
	if len(store.History(1)) != 0 {
		t.Fatal("expected empty history after reset")
	}
}
