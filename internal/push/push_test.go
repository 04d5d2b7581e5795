package push

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDisabledNotifier(t *testing.T) {
	n, err := New(context.Background(), "")
	require.NoError(t, err)

	assert.False(t, n.Enabled())
	assert.ErrorIs(t, n.Subscribe(context.Background(), "device", TopicAll), ErrDisabled)

	_, err = n.SendToTopic(context.Background(), TopicAll, Message{Title: "t", Body: "b"})
	assert.ErrorIs(t, err, ErrDisabled)
}

func TestNilNotifierIsDisabled(t *testing.T) {
	var n *Notifier

	assert.False(t, n.Enabled())
	assert.ErrorIs(t, n.Subscribe(context.Background(), "device", TopicAll), ErrDisabled)
}
