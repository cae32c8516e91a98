package services

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"budgetmanager/internal/core"
	"budgetmanager/internal/storage"
)

func TestLockAndUnlockMessages(t *testing.T) {
	e := newEnv(t)
	march := core.YearMonth{Year: 2024, Month: 3}

	res, err := e.svc.Locking.Lock(e.ctx, march, testActor)
	require.NoError(t, err)
	assert.Equal(t, Result{Success: true, Message: "March 2024 has been locked."}, res)

	res, err = e.svc.Locking.Lock(e.ctx, march, testActor)
	require.NoError(t, err)
	assert.Equal(t, Result{Success: false, Message: "March 2024 is already locked."}, res)

	lm, err := e.svc.Locking.Get(e.ctx, march)
	require.NoError(t, err)
	assert.Equal(t, testActor, lm.LockedBy)

	res, err = e.svc.Locking.Unlock(e.ctx, march, testActor)
	require.NoError(t, err)
	assert.Equal(t, Result{Success: true, Message: "March 2024 has been unlocked."}, res)

	res, err = e.svc.Locking.Unlock(e.ctx, march, testActor)
	require.NoError(t, err)
	assert.Equal(t, Result{Success: false, Message: "March 2024 is not locked."}, res)

	entries, err := e.svc.Activity.List(e.ctx, 1, 2)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, ActionUnlock, entries[0].Action)
	assert.Equal(t, ActionLock, entries[1].Action)
	assert.JSONEq(t, `{"year":2024,"month":3}`, entries[1].NewValues)
}

func TestCreateTransactionRespectsLock(t *testing.T) {
	e := newEnv(t)
	e.lock(t, 2024, 3)

	tx := core.Transaction{
		Date:        core.NewDate(2024, 3, 10),
		Description: "Groceries run",
		Amount:      decimal.RequireFromString("-80.25"),
		CategoryID:  e.groceries.ID,
		AccountID:   e.account.ID,
	}

	res, err := e.svc.Transactions.Create(e.ctx, tx, testActor)
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Equal(t, "Cannot create transaction in a locked month. Mark as adjustment if needed.", res.Message)
	assert.Nil(t, res.Transaction)

	tx.IsAdjustment = true
	res, err = e.svc.Transactions.Create(e.ctx, tx, testActor)
	require.NoError(t, err)
	require.True(t, res.Success)
	assert.Equal(t, "Transaction created successfully.", res.Message)
	require.NotNil(t, res.Transaction)
	assert.Equal(t, testActor, res.Transaction.UserID)

	n, err := e.svc.Transactions.Count(e.ctx, storage.TransactionFilter{})
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestCreateTransactionValidation(t *testing.T) {
	e := newEnv(t)

	_, err := e.svc.Transactions.Create(e.ctx, core.Transaction{
		Date:       core.NewDate(2024, 3, 10),
		Amount:     decimal.NewFromInt(-1),
		CategoryID: e.groceries.ID,
		AccountID:  e.account.ID,
	}, testActor)
	assert.ErrorIs(t, err, ErrInvalid)
	assert.ErrorIs(t, err, core.ErrEmptyDescription)

	_, err = e.svc.Transactions.Create(e.ctx, core.Transaction{
		Date:        core.NewDate(2024, 3, 10),
		Description: "Unknown category",
		Amount:      decimal.NewFromInt(-1),
		CategoryID:  999,
		AccountID:   e.account.ID,
	}, testActor)
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestUpdateTransactionGatesBothMonths(t *testing.T) {
	e := newEnv(t)
	feb := e.addTx(t, core.NewDate(2024, 2, 20), "Dinner", "-42.00", e.dining.ID)
	e.lock(t, 2024, 3)

	moved := feb
	moved.Date = core.NewDate(2024, 3, 2)
	res, err := e.svc.Transactions.Update(e.ctx, moved, testActor)
	require.NoError(t, err)
	assert.Equal(t, Result{Success: false, Message: "Cannot edit transaction in a locked month."}, res.Result)

	edited := feb
	edited.Description = "Dinner with friends"
	edited.Amount = decimal.RequireFromString("-55.10")
	res, err = e.svc.Transactions.Update(e.ctx, edited, "bob")
	require.NoError(t, err)
	require.True(t, res.Success, res.Message)
	assert.Equal(t, "Dinner with friends", res.Transaction.Description)
	assertDecimal(t, "-55.10", res.Transaction.Amount)

	e.lock(t, 2024, 2)
	res, err = e.svc.Transactions.Update(e.ctx, edited, testActor)
	require.NoError(t, err)
	assert.Equal(t, "Cannot edit transaction in a locked month.", res.Message)

	res, err = e.svc.Transactions.Update(e.ctx, core.Transaction{
		ID:          999,
		Date:        core.NewDate(2024, 4, 1),
		Description: "Missing",
		Amount:      decimal.NewFromInt(-1),
		CategoryID:  e.dining.ID,
		AccountID:   e.account.ID,
	}, testActor)
	require.NoError(t, err)
	assert.Equal(t, "Transaction not found.", res.Message)
}

func TestDeleteTransaction(t *testing.T) {
	e := newEnv(t)
	locked := e.addTx(t, core.NewDate(2024, 1, 5), "Rent", "-1200", e.groceries.ID)
	open := e.addTx(t, core.NewDate(2024, 2, 5), "Snacks", "-3.20", e.groceries.ID)
	e.lock(t, 2024, 1)

	res, err := e.svc.Transactions.Delete(e.ctx, locked.ID, testActor)
	require.NoError(t, err)
	assert.Equal(t, Result{Success: false, Message: "Cannot delete transaction in a locked month."}, res)

	res, err = e.svc.Transactions.Delete(e.ctx, open.ID, testActor)
	require.NoError(t, err)
	assert.Equal(t, Result{Success: true, Message: "Transaction deleted successfully."}, res)

	res, err = e.svc.Transactions.Delete(e.ctx, open.ID, testActor)
	require.NoError(t, err)
	assert.Equal(t, "Transaction not found.", res.Message)

	entries, err := e.svc.Activity.ForEntity(e.ctx, EntityTransaction, open.ID)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "Deleted transaction: Snacks (-$3.20)", entries[0].Description)
}

func TestAdjustmentBypassesLockForEditAndDelete(t *testing.T) {
	e := newEnv(t)
	adj, err := e.store.InsertTransaction(e.ctx, core.Transaction{
		Date:         core.NewDate(2024, 1, 31),
		Description:  "Bank correction",
		Amount:       decimal.RequireFromString("12.00"),
		IsAdjustment: true,
		CategoryID:   e.uncategorized.ID,
		AccountID:    e.account.ID,
	})
	require.NoError(t, err)
	e.lock(t, 2024, 1)

	adj.Notes = "reconciled"
	res, err := e.svc.Transactions.Update(e.ctx, adj, testActor)
	require.NoError(t, err)
	assert.True(t, res.Success, res.Message)

	del, err := e.svc.Transactions.Delete(e.ctx, adj.ID, testActor)
	require.NoError(t, err)
	assert.True(t, del.Success, del.Message)
}

func TestTransactionQueries(t *testing.T) {
	e := newEnv(t)
	march := core.YearMonth{Year: 2024, Month: 3}
	e.addTx(t, core.NewDate(2024, 3, 1), "Salary", "3000", e.uncategorized.ID)
	e.addTx(t, core.NewDate(2024, 3, 2), "Market", "-60.00", e.groceries.ID)
	e.addTx(t, core.NewDate(2024, 3, 3), "Pizza", "-25.50", e.dining.ID)
	e.addTx(t, core.NewDate(2024, 4, 1), "Next month", "-10", e.dining.ID)

	total, err := e.svc.Transactions.TotalSpent(e.ctx, march, nil, nil)
	require.NoError(t, err)
	assertDecimal(t, "85.50", total)

	dining := e.dining.ID
	total, err = e.svc.Transactions.TotalSpent(e.ctx, march, &dining, nil)
	require.NoError(t, err)
	assertDecimal(t, "25.50", total)

	inMonth, err := e.svc.Transactions.ForMonth(e.ctx, march)
	require.NoError(t, err)
	assert.Len(t, inMonth, 3)

	top, err := e.svc.Transactions.TopExpenses(e.ctx, march, 1)
	require.NoError(t, err)
	require.Len(t, top, 1)
	assert.Equal(t, "Market", top[0].Description)

	page, err := e.svc.Transactions.List(e.ctx, storage.TransactionFilter{PageSize: 2})
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, "Next month", page[0].Description, "newest first")
}
