package notifier

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vadiminshakov/paydash/internal/domain"
	"go.uber.org/zap"
)

func TestNotifier_ShowAndAutoDismiss(t *testing.T) {
	n := New(20*time.Millisecond, zap.NewNop())

	note := n.Error("Network error")
	assert.Equal(t, domain.NotificationError, note.Kind)
	assert.NotEmpty(t, note.ID)

	current, ok := n.Current()
	require.True(t, ok)
	assert.Equal(t, "Network error", current.Message)

	assert.Eventually(t, func() bool {
		_, ok := n.Current()
		return !ok
	}, time.Second, 5*time.Millisecond)
}

func TestNotifier_NewMessageReplacesOld(t *testing.T) {
	n := New(50*time.Millisecond, zap.NewNop())

	n.Success("first")
	time.Sleep(30 * time.Millisecond)
	second := n.Success("second")

	// the first timer would have fired by now; the second message must survive it
	time.Sleep(30 * time.Millisecond)
	current, ok := n.Current()
	require.True(t, ok)
	assert.Equal(t, second.ID, current.ID)
}

func TestNotifier_Subscribe(t *testing.T) {
	n := New(10*time.Millisecond, zap.NewNop())
	ch, unsubscribe := n.Subscribe(4)
	defer unsubscribe()

	shown := n.Success("Filters cleared")

	select {
	case got := <-ch:
		assert.Equal(t, shown.ID, got.ID)
		assert.False(t, got.Dismissed)
	case <-time.After(time.Second):
		t.Fatal("notification not delivered")
	}

	select {
	case got := <-ch:
		assert.Equal(t, shown.ID, got.ID)
		assert.True(t, got.Dismissed)
	case <-time.After(time.Second):
		t.Fatal("dismissal not delivered")
	}
}

func TestNotifier_UnsubscribeTwice(t *testing.T) {
	n := New(0, nil)
	_, unsubscribe := n.Subscribe(1)
	unsubscribe()
	unsubscribe()
	n.Success("no subscribers left")
}
