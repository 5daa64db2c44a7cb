package pubsub

import (
	"context"
	"encoding/json"
	"testing"

	"cloud.google.com/go/pubsub"
	"cloud.google.com/go/pubsub/pstest"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/JakeFAU/lead-enricher/internal/store"
)

func newFakeServer(t *testing.T) option.ClientOption {
	t.Helper()
	srv := pstest.NewServer()
	t.Cleanup(func() { _ = srv.Close() })

	conn, err := grpc.Dial(srv.Addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return option.WithGRPCConn(conn)
}

func TestPublisherPublishesEvent(t *testing.T) {
	ctx := context.Background()
	srv := pstest.NewServer()
	defer srv.Close()

	conn, err := grpc.Dial(srv.Addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	require.NoError(t, err)
	defer conn.Close()

	admin, err := pubsub.NewClient(ctx, "project-id", option.WithGRPCConn(conn))
	require.NoError(t, err)
	defer admin.Close()
	_, err = admin.CreateTopic(ctx, "enrichments")
	require.NoError(t, err)

	pub, err := New(ctx, "project-id", "enrichments", option.WithGRPCConn(conn))
	require.NoError(t, err)

	event := store.CompletedEvent{Domain: "acme.example", Emails: 1, ResolvedBy: "direct"}
	id, err := pub.Publish(ctx, store.TopicEnrichmentCompleted, event)
	require.NoError(t, err)
	require.NotEmpty(t, id)
	require.NoError(t, pub.Close())

	msgs := srv.Messages()
	require.Len(t, msgs, 1)
	require.Equal(t, store.TopicEnrichmentCompleted, msgs[0].Attributes[EventTypeAttribute])

	var got store.CompletedEvent
	require.NoError(t, json.Unmarshal(msgs[0].Data, &got))
	require.Equal(t, event, got)
}

func TestNewMissingTopic(t *testing.T) {
	opt := newFakeServer(t)

	_, err := New(context.Background(), "project-id", "missing", opt)
	require.ErrorContains(t, err, "does not exist")
}

func TestPublishUnconfigured(t *testing.T) {
	t.Parallel()

	var pub *Publisher
	_, err := pub.Publish(context.Background(), "t", nil)
	require.Error(t, err)
	require.NoError(t, pub.Close())
}
