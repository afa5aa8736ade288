package repository

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/nimasrn/time-capsule/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChildRepository_CRUD(t *testing.T) {
	db := setupTestDB(t).DB
	repo := NewChildRepository(db)
	ctx := context.Background()

	userID := uuid.New()
	birth := time.Date(2015, 6, 1, 0, 0, 0, 0, time.UTC)
	gender := "female"

	created, err := repo.Create(ctx, &model.Child{UserID: userID, Name: "Ava", BirthDate: birth, Gender: &gender})
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, created.ID)

	t.Run("get by id", func(t *testing.T) {
		got, err := repo.GetByID(ctx, created.ID, userID)
		require.NoError(t, err)
		assert.Equal(t, "Ava", got.Name)
		require.NotNil(t, got.Gender)
		assert.Equal(t, "female", *got.Gender)
	})

	t.Run("get by other user", func(t *testing.T) {
		_, err := repo.GetByID(ctx, created.ID, uuid.New())
		assert.ErrorIs(t, err, ErrChildNotFound)
	})

	t.Run("list newest first", func(t *testing.T) {
		time.Sleep(5 * time.Millisecond)
		_, err := repo.Create(ctx, &model.Child{UserID: userID, Name: "Ben", BirthDate: birth})
		require.NoError(t, err)

		children, err := repo.ListByUser(ctx, userID)
		require.NoError(t, err)
		require.Len(t, children, 2)
		assert.Equal(t, "Ben", children[0].Name)
	})

	t.Run("update name", func(t *testing.T) {
		name := "  Ava Rose "
		updated, err := repo.Update(ctx, created.ID, userID, model.ChildUpdateRequest{Name: &name})
		require.NoError(t, err)
		assert.Equal(t, "Ava Rose", updated.Name)
	})

	t.Run("update unknown", func(t *testing.T) {
		name := "Nobody"
		_, err := repo.Update(ctx, uuid.New(), userID, model.ChildUpdateRequest{Name: &name})
		assert.ErrorIs(t, err, ErrChildNotFound)
	})
}

func TestChildRepository_DeleteCascadesMessages(t *testing.T) {
	db := setupTestDB(t).DB
	children := NewChildRepository(db)
	messages := NewMessageRepository(db)
	ctx := context.Background()

	userID := uuid.New()
	child, err := children.Create(ctx, &model.Child{UserID: userID, Name: "Cleo", BirthDate: time.Date(2018, 1, 1, 0, 0, 0, 0, time.UTC)})
	require.NoError(t, err)

	msg, err := messages.Create(ctx, newTestMessage(userID, child.ID, time.Now().Add(time.Hour)))
	require.NoError(t, err)

	assert.ErrorIs(t, children.Delete(ctx, child.ID, uuid.New()), ErrChildNotFound)
	require.NoError(t, children.Delete(ctx, child.ID, userID))

	_, err = messages.GetByID(ctx, msg.ID, userID)
	assert.ErrorIs(t, err, ErrNotFound)
}
