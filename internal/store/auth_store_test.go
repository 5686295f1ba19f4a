package store_test

import (
	"context"
	"testing"

	"github.com/mkrupp/nextshop/internal/domain"
	"github.com/mkrupp/nextshop/internal/repo/snapshot"

	. "github.com/mkrupp/nextshop/internal/store"
)

func testUser() domain.User {
	return domain.User{
		ID:    1,
		Email: "jane@example.com",
		Name:  "Jane Doe",
	}
}

func TestAuthStore_LoginLogout(t *testing.T) {
	t.Parallel()

	auth := NewAuthStore("s", snapshot.NewMemorySnapshotRepository())

	if auth.IsAuthenticated() {
		t.Fatal("new store is authenticated")
	}

	auth.SetLoading(true)
	auth.Login(context.TODO(), testUser(), "tok")

	if !auth.IsAuthenticated() {
		t.Error("IsAuthenticated() = false after login")
	}
	if auth.IsLoading() {
		t.Error("login did not clear loading flag")
	}
	if auth.Token() != "tok" {
		t.Errorf("Token() = %q, want %q", auth.Token(), "tok")
	}
	if user := auth.User(); user == nil || user.Email != "jane@example.com" {
		t.Errorf("User() = %+v", user)
	}

	auth.Logout(context.TODO())

	if auth.IsAuthenticated() {
		t.Error("IsAuthenticated() = true after logout")
	}
	if auth.User() != nil || auth.Token() != "" {
		t.Error("logout did not clear user and token")
	}
}

func TestAuthStore_LoginOverwritesPriorSession(t *testing.T) {
	t.Parallel()

	auth := NewAuthStore("s", snapshot.NewMemorySnapshotRepository())

	auth.Login(context.TODO(), testUser(), "tok-1")
	auth.Login(context.TODO(), domain.User{ID: 2, Email: "john@example.com", Name: "John"}, "tok-2")

	if auth.Token() != "tok-2" {
		t.Errorf("Token() = %q, want %q", auth.Token(), "tok-2")
	}
	if user := auth.User(); user == nil || user.ID != 2 {
		t.Errorf("User() = %+v, want ID 2", user)
	}
}

func TestAuthStore_UpdateUser(t *testing.T) {
	t.Parallel()

	auth := NewAuthStore("s", snapshot.NewMemorySnapshotRepository())

	// Updating while anonymous is a no-op
	auth.UpdateUser(context.TODO(), testUser())
	if auth.User() != nil {
		t.Error("UpdateUser() created a user while anonymous")
	}

	auth.Login(context.TODO(), testUser(), "tok")

	updated := testUser()
	updated.Name = "Jane Q. Doe"
	auth.UpdateUser(context.TODO(), updated)

	if user := auth.User(); user == nil || user.Name != "Jane Q. Doe" {
		t.Errorf("User() = %+v, want updated name", user)
	}
	if auth.Token() != "tok" {
		t.Error("UpdateUser() touched the token")
	}
	if !auth.IsAuthenticated() {
		t.Error("UpdateUser() dropped authentication")
	}
}

func TestAuthStore_SnapshotDerivesFlag(t *testing.T) {
	t.Parallel()

	auth := NewAuthStore("s", snapshot.NewMemorySnapshotRepository())

	if snap := auth.Snapshot(); snap.IsAuthenticated {
		t.Error("anonymous snapshot claims authenticated")
	}

	auth.Login(context.TODO(), testUser(), "tok")

	if snap := auth.Snapshot(); !snap.IsAuthenticated {
		t.Error("authenticated snapshot claims anonymous")
	}
}

func TestAuthStore_RoundTrip(t *testing.T) {
	t.Parallel()

	repo := snapshot.NewMemorySnapshotRepository()

	auth := NewAuthStore("s", repo)
	auth.Login(context.TODO(), testUser(), "tok")
	auth.SetLoading(true) // not part of the snapshot

	restored := NewAuthStore("s", repo)
	if err := restored.Restore(context.TODO()); err != nil {
		t.Fatalf("Restore() error = %v", err)
	}

	if !restored.IsAuthenticated() {
		t.Error("restored store not authenticated")
	}
	if restored.Token() != "tok" {
		t.Errorf("restored token = %q, want %q", restored.Token(), "tok")
	}
	if user := restored.User(); user == nil || user.Email != "jane@example.com" {
		t.Errorf("restored user = %+v", user)
	}
	if restored.IsLoading() {
		t.Error("loading flag leaked into the snapshot")
	}
}
