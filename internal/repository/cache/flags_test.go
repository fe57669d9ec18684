package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"inhouse-lobby-bot/internal/testutil"
)

func TestFlagStore_CachesValues(t *testing.T) {
	inner := new(testutil.MockFlagRepository)
	inner.On("GetFlag", mock.Anything, "bot_dispatch_paused", "false").Return("true", nil).Once()

	store := NewFlagStore(inner, time.Minute)

	for i := 0; i < 3; i++ {
		value, err := store.GetFlag(context.Background(), "bot_dispatch_paused", "false")
		require.NoError(t, err)
		assert.Equal(t, "true", value)
	}
	inner.AssertNumberOfCalls(t, "GetFlag", 1)
}

func TestFlagStore_Expires(t *testing.T) {
	inner := new(testutil.MockFlagRepository)
	inner.On("GetFlag", mock.Anything, "bot_dispatch_paused", "false").Return("false", nil).Once()
	inner.On("GetFlag", mock.Anything, "bot_dispatch_paused", "false").Return("true", nil).Once()

	store := NewFlagStore(inner, 20*time.Millisecond)

	value, err := store.GetFlag(context.Background(), "bot_dispatch_paused", "false")
	require.NoError(t, err)
	assert.Equal(t, "false", value)

	time.Sleep(40 * time.Millisecond)

	value, err = store.GetFlag(context.Background(), "bot_dispatch_paused", "false")
	require.NoError(t, err)
	assert.Equal(t, "true", value)
}

func TestFlagStore_DoesNotCacheErrors(t *testing.T) {
	inner := new(testutil.MockFlagRepository)
	inner.On("GetFlag", mock.Anything, "bot_dispatch_paused", "false").Return("", errors.New("db down")).Once()
	inner.On("GetFlag", mock.Anything, "bot_dispatch_paused", "false").Return("false", nil).Once()

	store := NewFlagStore(inner, time.Minute)

	_, err := store.GetFlag(context.Background(), "bot_dispatch_paused", "false")
	assert.Error(t, err)

	value, err := store.GetFlag(context.Background(), "bot_dispatch_paused", "false")
	require.NoError(t, err)
	assert.Equal(t, "false", value)
}
