package task

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusStore_CreateAndGet(t *testing.T) {
	store := NewStatusStore()
	id := uuid.New()

	require.NoError(t, store.Create(id, TaskTypePostCreation))

	rec, ok := store.Get(id)
	require.True(t, ok)
	assert.Equal(t, id, rec.TaskID)
	assert.Equal(t, TaskTypePostCreation, rec.TaskType)
	assert.Equal(t, TaskStatusPending, rec.Status)
	assert.Nil(t, rec.CompletedAt)
	assert.Empty(t, rec.Error)
	assert.WithinDuration(t, time.Now().UTC(), rec.CreatedAt, time.Second)

	// Registering the same id twice fails
	assert.Error(t, store.Create(id, TaskTypePostCreation))
}

func TestStatusStore_GetUnknown(t *testing.T) {
	store := NewStatusStore()

	_, ok := store.Get(uuid.New())
	assert.False(t, ok)
}

func TestStatusStore_Lifecycle(t *testing.T) {
	store := NewStatusStore()
	id := uuid.New()
	require.NoError(t, store.Create(id, TaskTypePostCreation))

	require.NoError(t, store.MarkProcessing(id))
	rec, _ := store.Get(id)
	assert.Equal(t, TaskStatusProcessing, rec.Status)
	assert.Nil(t, rec.CompletedAt)

	result := json.RawMessage(`{"success":true}`)
	require.NoError(t, store.Complete(id, result))

	rec, _ = store.Get(id)
	assert.Equal(t, TaskStatusCompleted, rec.Status)
	assert.Equal(t, result, rec.Result)
	require.NotNil(t, rec.CompletedAt)
}

func TestStatusStore_FailRecordsReason(t *testing.T) {
	store := NewStatusStore()
	id := uuid.New()
	require.NoError(t, store.Create(id, TaskTypeCommentCreation))
	require.NoError(t, store.MarkProcessing(id))

	require.NoError(t, store.Fail(id, "the transaction hash has been used"))

	rec, _ := store.Get(id)
	assert.Equal(t, TaskStatusFailed, rec.Status)
	assert.Contains(t, rec.Error, "used")
	assert.NotNil(t, rec.CompletedAt)
}

func TestStatusStore_ForwardOnlyTransitions(t *testing.T) {
	store := NewStatusStore()
	id := uuid.New()
	require.NoError(t, store.Create(id, TaskTypePostCreation))
	require.NoError(t, store.MarkProcessing(id))
	require.NoError(t, store.Complete(id, nil))

	rec, _ := store.Get(id)
	firstCompletion := rec.CompletedAt

	// Terminal states accept no further updates
	assert.ErrorIs(t, store.MarkProcessing(id), ErrIllegalTransition)
	assert.ErrorIs(t, store.Fail(id, "late failure"), ErrIllegalTransition)
	assert.ErrorIs(t, store.Complete(id, nil), ErrIllegalTransition)

	rec, _ = store.Get(id)
	assert.Equal(t, TaskStatusCompleted, rec.Status)
	assert.Empty(t, rec.Error)
	assert.Equal(t, firstCompletion, rec.CompletedAt, "completion time is set exactly once")
}

func TestStatusStore_UpdateUnknownTask(t *testing.T) {
	store := NewStatusStore()

	assert.ErrorIs(t, store.MarkProcessing(uuid.New()), ErrUnknownTask)
	assert.ErrorIs(t, store.Complete(uuid.New(), nil), ErrUnknownTask)
	assert.ErrorIs(t, store.Fail(uuid.New(), "boom"), ErrUnknownTask)
}
