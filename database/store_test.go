package database

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"

	"crediario/config"
	"crediario/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := &config.Config{}
	cfg.DB.Driver = config.DriverSQLite
	cfg.DB.Path = filepath.Join(t.TempDir(), "test.db")
	cfg.DB.LogLevel = "silent"
	return cfg
}

func openTestDB(t *testing.T) *Database {
	t.Helper()
	db := NewDatabase(testConfig(t))
	require.NoError(t, db.Open(context.Background()))
	t.Cleanup(func() { db.Close() })
	return db
}

func newCustomer(name, cpf string) *models.Customer {
	return &models.Customer{
		Name:         name,
		NationalID:   cpf,
		Income:       decimal.NewFromInt(3000),
		RegisteredAt: "2024-01-10",
		Status:       models.CustomerStatusActive,
	}
}

func TestOperationsBeforeOpenFail(t *testing.T) {
	db := NewDatabase(testConfig(t))
	ctx := context.Background()

	_, err := Insert(ctx, db, newCustomer("Ana", "111"))
	assert.ErrorIs(t, err, ErrNotInitialized)

	_, err = GetAll[models.Customer](ctx, db)
	assert.ErrorIs(t, err, ErrNotInitialized)

	err = db.Transaction(ctx, func(tx *Tx) error { return nil })
	assert.ErrorIs(t, err, ErrNotInitialized)

	_, err = db.SchemaVersion()
	assert.ErrorIs(t, err, ErrNotInitialized)
}

func TestOpenIsIdempotent(t *testing.T) {
	db := NewDatabase(testConfig(t))
	t.Cleanup(func() { db.Close() })
	ctx := context.Background()

	var wg sync.WaitGroup
	errs := make([]error, 5)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = db.Open(ctx)
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		require.NoError(t, err)
	}
	version, err := db.SchemaVersion()
	require.NoError(t, err)
	assert.Equal(t, CurrentSchemaVersion, version)
}

func TestReopenKeepsData(t *testing.T) {
	cfg := testConfig(t)
	ctx := context.Background()

	first := NewDatabase(cfg)
	require.NoError(t, first.Open(ctx))
	_, err := Insert(ctx, first, newCustomer("Ana", "111"))
	require.NoError(t, err)
	require.NoError(t, first.Close())

	second := NewDatabase(cfg)
	require.NoError(t, second.Open(ctx))
	t.Cleanup(func() { second.Close() })

	all, err := GetAll[models.Customer](ctx, second)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "Ana", all[0].Name)
}

func TestFailedOpenIsTerminal(t *testing.T) {
	cfg := testConfig(t)
	cfg.DB.Path = filepath.Join(t.TempDir(), "missing", "dir", "test.db")
	db := NewDatabase(cfg)
	ctx := context.Background()

	err := db.Open(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrStorageFailure)

	assert.Equal(t, err, db.Open(ctx))

	_, err = GetAll[models.Customer](ctx, db)
	assert.ErrorIs(t, err, ErrNotInitialized)
}

func TestInsertAssignsIncreasingKeys(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	id1, err := Insert(ctx, db, newCustomer("Ana", "111"))
	require.NoError(t, err)
	id2, err := Insert(ctx, db, newCustomer("Bruno", "222"))
	require.NoError(t, err)

	assert.Greater(t, id2, id1)
}

func TestDuplicateCPFIsRejected(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	_, err := Insert(ctx, db, newCustomer("Ana", "111"))
	require.NoError(t, err)

	_, err = Insert(ctx, db, newCustomer("Outra Ana", "111"))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrConstraintViolation)

	var constraintErr *ConstraintError
	require.True(t, errors.As(err, &constraintErr))
	assert.Equal(t, "clientes", constraintErr.Collection)
	assert.Equal(t, "cpf", constraintErr.Index)

	matches, err := GetByIndex[models.Customer](ctx, db, "cpf", "111")
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, "Ana", matches[0].Name)
}

func TestDuplicateCardNumberIsRejected(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	customerID, err := Insert(ctx, db, newCustomer("Ana", "111"))
	require.NoError(t, err)

	card := func() *models.Card {
		return &models.Card{
			CustomerID: customerID,
			Number:     "C1",
			Limit:      decimal.NewFromInt(5000),
			IssueDate:  "2024-01-01",
			ExpiryDate: "2025-01-01",
			Status:     models.CardStatusActive,
		}
	}
	_, err = Insert(ctx, db, card())
	require.NoError(t, err)

	_, err = Insert(ctx, db, card())
	var constraintErr *ConstraintError
	require.True(t, errors.As(err, &constraintErr))
	assert.Equal(t, "numero_cartao", constraintErr.Index)
}

func TestGetByIDNotFound(t *testing.T) {
	db := openTestDB(t)

	_, err := GetByID[models.Customer](context.Background(), db, 42)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGetByIndex(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	_, err := Insert(ctx, db, newCustomer("Ana", "111"))
	require.NoError(t, err)
	_, err = Insert(ctx, db, newCustomer("Ana", "222"))
	require.NoError(t, err)
	_, err = Insert(ctx, db, newCustomer("Bruno", "333"))
	require.NoError(t, err)

	byName, err := GetByIndex[models.Customer](ctx, db, "nome", "Ana")
	require.NoError(t, err)
	require.Len(t, byName, 2)
	assert.Equal(t, "111", byName[0].NationalID)
	assert.Equal(t, "222", byName[1].NationalID)

	none, err := GetByIndex[models.Customer](ctx, db, "cpf", "999")
	require.NoError(t, err)
	assert.Empty(t, none)

	_, err = GetByIndex[models.Customer](ctx, db, "email", "ana@example.com")
	assert.ErrorIs(t, err, ErrUnknownIndex)
}

func TestUpdateMergesFields(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	c := newCustomer("Ana", "111")
	c.Phone = "1111-1111"
	id, err := Insert(ctx, db, c)
	require.NoError(t, err)

	updated, err := Update[models.Customer](ctx, db, id, map[string]interface{}{"telefone": "2222-2222"})
	require.NoError(t, err)
	assert.Equal(t, "2222-2222", updated.Phone)
	assert.Equal(t, "Ana", updated.Name)
	assert.Equal(t, "111", updated.NationalID)

	stored, err := GetByID[models.Customer](ctx, db, id)
	require.NoError(t, err)
	assert.Equal(t, "2222-2222", stored.Phone)
	assert.True(t, decimal.NewFromInt(3000).Equal(stored.Income))
}

func TestUpdateMissingRecord(t *testing.T) {
	db := openTestDB(t)

	_, err := Update[models.Customer](context.Background(), db, 7, map[string]interface{}{"nome": "X"})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUpdateToDuplicateCPF(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	_, err := Insert(ctx, db, newCustomer("Ana", "111"))
	require.NoError(t, err)
	id, err := Insert(ctx, db, newCustomer("Bruno", "222"))
	require.NoError(t, err)

	_, err = Update[models.Customer](ctx, db, id, map[string]interface{}{"cpf": "111"})
	assert.ErrorIs(t, err, ErrConstraintViolation)
}

func TestTransactionRollsBackEveryWrite(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	boom := errors.New("boom")

	err := db.Transaction(ctx, func(tx *Tx) error {
		if _, err := Insert(ctx, tx, newCustomer("Ana", "111")); err != nil {
			return err
		}
		if _, err := Insert(ctx, tx, newCustomer("Bruno", "222")); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	all, err := GetAll[models.Customer](ctx, db)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestInsertBatchWritesKeysBack(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	customers := []models.Customer{*newCustomer("Ana", "111"), *newCustomer("Bruno", "222")}
	require.NoError(t, InsertBatch(ctx, db, customers))

	assert.NotZero(t, customers[0].ID)
	assert.NotZero(t, customers[1].ID)
	assert.NotEqual(t, customers[0].ID, customers[1].ID)

	all, err := GetAll[models.Customer](ctx, db)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestSQLiteIndexParsing(t *testing.T) {
	assert.Equal(t, "cpf", sqliteIndex("UNIQUE constraint failed: clientes.cpf"))
	assert.Equal(t, "a", sqliteIndex("UNIQUE constraint failed: t.a, t.b"))
	assert.Equal(t, "numero_cartao", postgresIndex("cartoes", "idx_cartoes_numero_cartao"))
}
