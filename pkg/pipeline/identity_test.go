package pipeline

import (
	"context"
	"testing"

	"github.com/tinyland-inc/obridge/pkg/platform"
)

func TestIdentityCache_NumericPassthrough(t *testing.T) {
	users := &fakeUsers{users: make(map[string]*platform.UserInfo)}
	cache := NewIdentityCache(users)

	uin, err := cache.Resolve(context.Background(), "123456")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if uin != 123456 {
		t.Errorf("expected 123456, got %d", uin)
	}
	if calls, _ := users.calls(); calls != 0 {
		t.Errorf("passthrough should not hit the core, got %d lookups", calls)
	}
}

func TestIdentityCache_MalformedNonOpaque(t *testing.T) {
	cache := NewIdentityCache(&fakeUsers{})
	if _, err := cache.Resolve(context.Background(), "not-a-number"); err == nil {
		t.Error("expected parse error for a malformed non-opaque id")
	}
}

func TestIdentityCache_SuccessCached(t *testing.T) {
	users := &fakeUsers{users: map[string]*platform.UserInfo{
		"u_abc": {UID: "u_abc", Uin: 99},
	}}
	cache := NewIdentityCache(users)

	for i := 0; i < 3; i++ {
		uin, err := cache.Resolve(context.Background(), "u_abc")
		if err != nil {
			t.Fatalf("resolve %d: %v", i, err)
		}
		if uin != 99 {
			t.Errorf("resolve %d: expected 99, got %d", i, uin)
		}
	}
	if calls, _ := users.calls(); calls != 1 {
		t.Errorf("expected a single core lookup, got %d", calls)
	}
	if !cache.Cached("u_abc") {
		t.Error("u_abc should be cached after a successful resolve")
	}
}

func TestIdentityCache_FailureNotCached(t *testing.T) {
	users := &fakeUsers{users: make(map[string]*platform.UserInfo)}
	cache := NewIdentityCache(users)

	if _, err := cache.Resolve(context.Background(), "u_gone"); err == nil {
		t.Fatal("expected lookup failure")
	}
	if cache.Cached("u_gone") {
		t.Error("failed lookup must not be cached")
	}

	// The identity appears later; the next resolve retries the core.
	users.mu.Lock()
	users.users["u_gone"] = &platform.UserInfo{UID: "u_gone", Uin: 7}
	users.mu.Unlock()

	uin, err := cache.Resolve(context.Background(), "u_gone")
	if err != nil {
		t.Fatalf("resolve after recovery: %v", err)
	}
	if uin != 7 {
		t.Errorf("expected 7, got %d", uin)
	}
	if calls, _ := users.calls(); calls != 2 {
		t.Errorf("expected 2 core lookups, got %d", calls)
	}
}
