package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"expensetracker/internal/cache"
	apperrors "expensetracker/internal/errors"
	"expensetracker/internal/model"
	"expensetracker/internal/repository"
)

func newRedis(t *testing.T) (*cache.Client, *miniredis.Miniredis) {
	t.Helper()
	srv := miniredis.RunT(t)
	client, err := cache.New("redis://"+srv.Addr(), nil)
	require.NoError(t, err)
	require.NoError(t, client.Connect(context.Background()))
	t.Cleanup(func() { _ = client.Close() })
	return client, srv
}

func march(day int) model.Date {
	return model.NewDate(2024, time.March, day)
}

func input(amount string, category model.Category, desc string, date model.Date) model.ExpenseInput {
	return model.ExpenseInput{Amount: model.MustAmount(amount), Category: category, Description: desc, Date: date}
}

func TestStorage_GetUser_ReadThrough(t *testing.T) {
	ctx := context.Background()
	client, srv := newRedis(t)

	users := new(MockUserRepository)
	alice := &model.User{ID: 1, Username: "alice", Password: "hash", Role: model.RoleUser}
	users.On("FindByID", mock.Anything, uint(1)).Return(alice, nil).Once()

	storage := NewStorage(repository.Set{Users: users, Expenses: new(MockExpenseRepository)}, client, nil)

	got, err := storage.GetUser(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, alice, got)
	assert.True(t, srv.Exists("user:1"))
	assert.Equal(t, time.Hour, srv.TTL("user:1"))

	// served from cache: the mock allows exactly one store read
	got, err = storage.GetUser(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, *alice, *got)
	users.AssertExpectations(t)
}

func TestStorage_GetUser_RefetchesAfterTTL(t *testing.T) {
	ctx := context.Background()
	client, srv := newRedis(t)

	users := new(MockUserRepository)
	users.On("FindByID", mock.Anything, uint(1)).Return(&model.User{ID: 1, Username: "alice"}, nil).Twice()
	storage := NewStorage(repository.Set{Users: users}, client, nil)

	_, err := storage.GetUser(ctx, 1)
	require.NoError(t, err)

	srv.FastForward(UserCacheTTL - time.Second)
	_, err = storage.GetUser(ctx, 1)
	require.NoError(t, err)
	users.AssertNumberOfCalls(t, "FindByID", 1)

	srv.FastForward(2 * time.Second)
	_, err = storage.GetUser(ctx, 1)
	require.NoError(t, err)
	users.AssertNumberOfCalls(t, "FindByID", 2)
}

func TestStorage_GetUser_AbsenceIsNotCached(t *testing.T) {
	ctx := context.Background()
	client, srv := newRedis(t)

	users := new(MockUserRepository)
	users.On("FindByID", mock.Anything, uint(9)).Return(nil, apperrors.ErrUserNotFound).Twice()
	storage := NewStorage(repository.Set{Users: users}, client, nil)

	for i := 0; i < 2; i++ {
		_, err := storage.GetUser(ctx, 9)
		assert.ErrorIs(t, err, apperrors.ErrUserNotFound)
	}
	assert.False(t, srv.Exists("user:9"))
	users.AssertExpectations(t)
}

func TestStorage_ExpenseListIsCachedWithShortTTL(t *testing.T) {
	ctx := context.Background()
	client, srv := newRedis(t)

	expenses := new(MockExpenseRepository)
	list := []model.Expense{{ID: 1, UserID: 4, Amount: model.MustAmount("12.5"), Category: model.CategoryFood, Description: "lunch", Date: march(1)}}
	expenses.On("ListByOwner", mock.Anything, uint(4)).Return(list, nil).Once()
	storage := NewStorage(repository.Set{Expenses: expenses}, client, nil)

	first, err := storage.GetExpensesByOwner(ctx, 4)
	require.NoError(t, err)
	second, err := storage.GetExpensesByOwner(ctx, 4)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 5*time.Minute, srv.TTL("expenses:4"))
	expenses.AssertExpectations(t)
}

func TestStorage_WritesInvalidateOwnerList(t *testing.T) {
	ctx := context.Background()
	client, srv := newRedis(t)
	storage := NewStorage(repository.NewMemorySet(), client, nil)

	list, err := storage.GetExpensesByOwner(ctx, 1)
	require.NoError(t, err)
	assert.Empty(t, list)
	require.True(t, srv.Exists("expenses:1"), "empty lists are cached too")

	created, err := storage.CreateExpense(ctx, 1, input("12.5", model.CategoryFood, "lunch", march(1)))
	require.NoError(t, err)
	assert.False(t, srv.Exists("expenses:1"))

	list, err = storage.GetExpensesByOwner(ctx, 1)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, created.ID, list[0].ID)

	amount := model.MustAmount("15")
	_, err = storage.UpdateExpense(ctx, created.ID, model.ExpensePatch{Amount: &amount})
	require.NoError(t, err)
	assert.False(t, srv.Exists("expenses:1"))

	list, err = storage.GetExpensesByOwner(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "15.00", list[0].Amount.String())

	require.NoError(t, storage.DeleteExpense(ctx, 1, created.ID))
	assert.False(t, srv.Exists("expenses:1"))

	list, err = storage.GetExpensesByOwner(ctx, 1)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestStorage_WriteLeavesOtherOwnersCached(t *testing.T) {
	ctx := context.Background()
	client, srv := newRedis(t)
	storage := NewStorage(repository.NewMemorySet(), client, nil)

	_, err := storage.GetExpensesByOwner(ctx, 2)
	require.NoError(t, err)
	_, err = storage.CreateExpense(ctx, 1, input("3", model.CategoryOther, "gum", march(2)))
	require.NoError(t, err)

	assert.True(t, srv.Exists("expenses:2"))
}

func TestStorage_FailedWriteKeepsCache(t *testing.T) {
	ctx := context.Background()
	client, srv := newRedis(t)

	expenses := new(MockExpenseRepository)
	expenses.On("ListByOwner", mock.Anything, uint(1)).Return([]model.Expense{}, nil).Once()
	expenses.On("Update", mock.Anything, uint(5), mock.Anything).Return(nil, apperrors.ErrExpenseNotFound)
	storage := NewStorage(repository.Set{Expenses: expenses}, client, nil)

	_, err := storage.GetExpensesByOwner(ctx, 1)
	require.NoError(t, err)

	_, err = storage.UpdateExpense(ctx, 5, model.ExpensePatch{})
	assert.ErrorIs(t, err, apperrors.ErrExpenseNotFound)
	assert.True(t, srv.Exists("expenses:1"))
}

func TestStorage_CacheOutageFallsBackToStore(t *testing.T) {
	ctx := context.Background()
	client, srv := newRedis(t)
	storage := NewStorage(repository.NewMemorySet(), client, nil)

	created, err := storage.CreateExpense(ctx, 1, input("12.5", model.CategoryFood, "lunch", march(1)))
	require.NoError(t, err)

	srv.Close()

	list, err := storage.GetExpensesByOwner(ctx, 1)
	require.NoError(t, err, "cache errors never reach the caller")
	require.Len(t, list, 1)

	require.NoError(t, storage.DeleteExpense(ctx, 1, created.ID))
	list, err = storage.GetExpensesByOwner(ctx, 1)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestStorage_CorruptEntryIsDropped(t *testing.T) {
	ctx := context.Background()
	client, srv := newRedis(t)
	storage := NewStorage(repository.NewMemorySet(), client, nil)

	require.NoError(t, srv.Set("expenses:1", "{garbage"))

	list, err := storage.GetExpensesByOwner(ctx, 1)
	require.NoError(t, err)
	assert.Empty(t, list)

	raw, err := srv.Get("expenses:1")
	require.NoError(t, err)
	assert.Equal(t, "[]", raw, "repopulated from the store")
}

func TestStorage_StoreErrorsPropagate(t *testing.T) {
	ctx := context.Background()
	boom := errors.New("db down")

	expenses := new(MockExpenseRepository)
	expenses.On("ListByOwner", mock.Anything, uint(1)).Return(nil, boom)
	storage := NewStorage(repository.Set{Expenses: expenses}, nil, nil)

	_, err := storage.GetExpensesByOwner(ctx, 1)
	assert.ErrorIs(t, err, boom)
}

func TestStorage_NoCacheConfiguration(t *testing.T) {
	ctx := context.Background()
	storage := NewStorage(repository.NewMemorySet(), cache.Nop{}, nil)

	user := &model.User{Username: "alice", Password: "hash"}
	require.NoError(t, storage.CreateUser(ctx, user))

	got, err := storage.GetUser(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice", got.Username)

	_, err = storage.CreateExpense(ctx, user.ID, input("1", model.CategoryOther, "x", march(1)))
	require.NoError(t, err)
	list, err := storage.GetExpensesByOwner(ctx, user.ID)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestStorage_LocalCache(t *testing.T) {
	ctx := context.Background()
	local, err := cache.NewLocal(100)
	require.NoError(t, err)
	t.Cleanup(func() { _ = local.Close() })
	storage := NewStorage(repository.NewMemorySet(), local, nil)

	_, err = storage.GetExpensesByOwner(ctx, 1)
	require.NoError(t, err)
	_, err = storage.CreateExpense(ctx, 1, input("2", model.CategoryTravel, "bus", march(3)))
	require.NoError(t, err)

	list, err := storage.GetExpensesByOwner(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, list, 1, "no stale read right after a write")
}
