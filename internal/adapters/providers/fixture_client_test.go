package providers

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stoik/mailshield/internal/domain"
	"github.com/stoik/mailshield/internal/ports"
)

func TestFixtureClient_PerSubjectIDs(t *testing.T) {
	client := NewFixtureClient()
	ctx := context.Background()

	alice := &domain.Subject{ID: uuid.New()}
	bob := &domain.Subject{ID: uuid.New()}

	aliceRefs, err := client.ListMessages(ctx, alice)
	require.NoError(t, err)
	bobRefs, err := client.ListMessages(ctx, bob)
	require.NoError(t, err)

	require.Len(t, aliceRefs, 4)
	require.Len(t, bobRefs, 4)
	assert.NotEqual(t, aliceRefs[0].ID, bobRefs[0].ID, "Message ids must not collide across subjects")

	signal, err := client.FetchSignal(ctx, alice, aliceRefs[0])
	require.NoError(t, err)
	assert.Equal(t, "paypa1-security.com", signal.SenderDomain)
}

func TestFixtureClient_UnknownRef(t *testing.T) {
	client := NewFixtureClientWith(domain.Signal{Subject: "only"})

	_, err := client.FetchSignal(context.Background(), &domain.Subject{}, ports.MessageRef{UID: 2})
	assert.Error(t, err)
}
