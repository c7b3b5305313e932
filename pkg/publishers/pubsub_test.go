package publishers

import (
	"context"
	"testing"

	"cloud.google.com/go/pubsub"
	"cloud.google.com/go/pubsub/pstest"
)

func TestPubSubPublisherPublishes(t *testing.T) {
	// In-memory Pub/Sub emulator.
	server := pstest.NewServer()
	defer server.Close()
	t.Setenv("PUBSUB_EMULATOR_HOST", server.Addr)

	ctx := context.Background()
	client, err := pubsub.NewClient(ctx, "test-project")
	if err != nil {
		t.Fatalf("create client: %v", err)
	}
	defer client.Close()
	if _, err := client.CreateTopic(ctx, "content-events"); err != nil {
		t.Fatalf("create topic: %v", err)
	}

	fanout, err := Open(ctx, []SinkConfig{{
		ID:     "events",
		Type:   TypePubSub,
		PubSub: &PubSubConfig{ProjectID: "test-project", Topic: "content-events"},
	}}, nil)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer fanout.Close()

	if _, err := fanout.Publish(ctx, sampleEvent()); err != nil {
		t.Fatalf("Publish: %v", err)
	}

	msgs := server.Messages()
	if len(msgs) != 1 {
		t.Fatalf("expected 1 message on emulator, got %d", len(msgs))
	}
	if msgs[0].Attributes["event_type"] != EventContentUpserted {
		t.Fatalf("unexpected attributes %#v", msgs[0].Attributes)
	}
}
