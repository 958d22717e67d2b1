package memory

import (
	"testing"

	"livequiz-service/internal/app"
	"livequiz-service/internal/domain"
)

func TestSessionStoreIndexesBothCodes(t *testing.T) {
	store := NewSessionStore()
	session := app.NewSession("code-1", "0042", "Pub Quiz", domain.Settings{})

	store.Put(session)

	if got, ok := store.GetByCode("code-1"); !ok || got != session {
		t.Fatalf("expected lookup by session code")
	}
	if got, ok := store.GetByJoinCode("0042"); !ok || got != session {
		t.Fatalf("expected lookup by join code")
	}
	if !store.JoinCodeTaken("0042") {
		t.Fatalf("expected join code to be taken")
	}
	if store.JoinCodeTaken("0043") {
		t.Fatalf("expected other join codes to be free")
	}
}

func TestSessionStoreDeleteReleasesJoinCode(t *testing.T) {
	store := NewSessionStore()
	session := app.NewSession("code-1", "0042", "Pub Quiz", domain.Settings{})
	store.Put(session)

	store.Delete("code-1")

	if _, ok := store.GetByCode("code-1"); ok {
		t.Fatalf("expected session removed")
	}
	if store.JoinCodeTaken("0042") {
		t.Fatalf("expected join code released")
	}
}
