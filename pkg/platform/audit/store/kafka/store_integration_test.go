//go:build integration

package kafka

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twmb/franz-go/pkg/kgo"

	id "certgen/pkg/domain"
	audit "certgen/pkg/platform/audit"
	"certgen/pkg/testutil/containers"
)

func TestStoreProducesEvents(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	broker := containers.GetManager().GetRedpanda(t)
	topic := "certgen-audit-" + uuid.NewString()
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	s, err := New([]string{broker.Brokers}, topic)
	require.NoError(t, err)
	defer s.Close()
	require.NoError(t, s.EnsureTopic(ctx, 1, 1))
	require.NoError(t, s.EnsureTopic(ctx, 1, 1), "existing topic is not an error")
	require.NoError(t, s.Ping(ctx))

	owner := id.OwnerID(uuid.New())
	event := audit.Event{
		Timestamp:    time.Date(2024, 3, 16, 10, 0, 0, 0, time.UTC),
		OwnerID:      owner,
		Action:       string(audit.EventCertificateIssued),
		Organization: "DLithe",
		Subject:      "DLWD1RV20CS001MAR24",
	}
	require.NoError(t, s.Append(ctx, event))

	consumer, err := kgo.NewClient(
		kgo.SeedBrokers(broker.Brokers),
		kgo.ConsumeTopics(topic),
		kgo.ConsumeResetOffset(kgo.NewOffset().AtStart()),
	)
	require.NoError(t, err)
	defer consumer.Close()

	var got []*kgo.Record
	for len(got) == 0 && ctx.Err() == nil {
		fetches := consumer.PollFetches(ctx)
		require.Empty(t, fetches.Errors())
		fetches.EachRecord(func(r *kgo.Record) { got = append(got, r) })
	}
	require.Len(t, got, 1)

	assert.Equal(t, owner.String(), string(got[0].Key))
	require.Len(t, got[0].Headers, 1)
	assert.Equal(t, "certificate_issued", string(got[0].Headers[0].Value))

	var decoded audit.Event
	require.NoError(t, json.Unmarshal(got[0].Value, &decoded))
	assert.Equal(t, event.Subject, decoded.Subject)
	assert.Equal(t, owner, decoded.OwnerID)
}
