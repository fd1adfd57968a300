package app_test

import (
	"testing"

	"quiz-progression-service/internal/app"
	"quiz-progression-service/internal/domain"
)

func TestProgressHubDeliversPerUser(t *testing.T) {
	hub := app.NewProgressHub()

	aliceCh, cancelAlice := hub.Subscribe("alice")
	defer cancelAlice()
	bobCh, cancelBob := hub.Subscribe("bob")
	defer cancelBob()

	hub.Broadcast(domain.ProgressUpdate{UserID: "alice", Event: "module.completed", TotalPoints: 50})

	update := <-aliceCh
	if update.TotalPoints != 50 || update.Event != "module.completed" {
		t.Fatalf("unexpected update %+v", update)
	}
	select {
	case got := <-bobCh:
		t.Fatalf("bob must not receive alice's update, got %+v", got)
	default:
	}
}

func TestProgressHubDropsStaleUpdatesForSlowSubscribers(t *testing.T) {
	hub := app.NewProgressHub()
	ch, cancel := hub.Subscribe("alice")
	defer cancel()

	// More updates than the channel buffers; Broadcast must not block.
	for i := 0; i < 50; i++ {
		hub.Broadcast(domain.ProgressUpdate{UserID: "alice", TotalPoints: i})
	}

	var last domain.ProgressUpdate
	for {
		select {
		case update := <-ch:
			last = update
			continue
		default:
		}
		break
	}
	if last.TotalPoints != 49 {
		t.Fatalf("expected the newest update retained, got %+v", last)
	}
}

func TestProgressHubCancelIsIdempotent(t *testing.T) {
	hub := app.NewProgressHub()
	_, cancel := hub.Subscribe("alice")
	cancel()
	cancel() // double cancel must not panic

	// Broadcasting after cancel is a no-op.
	hub.Broadcast(domain.ProgressUpdate{UserID: "alice"})
}
