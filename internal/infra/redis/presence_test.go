package redis

import (
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
)

func TestPresenceSetsAndClearsKeys(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	presence := NewPresence(newClient(mr), time.Minute)

	presence.MarkOnline("u1")
	if !mr.Exists("feed:online:u1") {
		t.Fatalf("expected presence key set")
	}

	presence.MarkOffline("u1")
	if mr.Exists("feed:online:u1") {
		t.Fatalf("expected presence key removed")
	}
}
