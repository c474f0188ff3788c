package firestore

import (
	"context"
	"errors"
	"os"
	"testing"

	"cloud.google.com/go/firestore"
	"github.com/erp/smarterp/internal/domain/catalog"
	"github.com/erp/smarterp/internal/domain/shared"
	"github.com/erp/smarterp/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToUpdates(t *testing.T) {
	updates := toUpdates(shared.Fields{
		"stock":       4,
		"id":          "ignored",
		"roles.admin": true,
	})

	require.Len(t, updates, 2)
	assert.Equal(t, firestore.Update{Path: "roles.admin", Value: true}, updates[0])
	assert.Equal(t, firestore.Update{Path: "stock", Value: 4}, updates[1])
}

func TestDirection(t *testing.T) {
	assert.Equal(t, firestore.Desc, direction(shared.Desc))
	assert.Equal(t, firestore.Asc, direction(shared.Asc))
}

func TestBuildQuery_RejectsInvalidQuery(t *testing.T) {
	_, err := buildQuery(firestore.Query{}, shared.NewQuery().Where("", shared.OpEqual, 1))
	var ve *shared.ValidationError
	assert.ErrorAs(t, err, &ve)

	_, err = buildQuery(firestore.Query{}, shared.NewQuery().Limit(-1))
	assert.ErrorAs(t, err, &ve)
}

// newEmulatorClient connects to the Firestore emulator named by
// FIRESTORE_EMULATOR_HOST and skips the test when it is not set.
func newEmulatorClient(t *testing.T) *firestore.Client {
	t.Helper()
	if os.Getenv("FIRESTORE_EMULATOR_HOST") == "" {
		t.Skip("FIRESTORE_EMULATOR_HOST not set")
	}
	ctx := context.Background()
	app, err := NewApp(ctx, config.FirebaseConfig{ProjectID: "demo-smarterp"})
	require.NoError(t, err)
	client, err := NewClient(ctx, app)
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })
	return client
}

func TestRepository_Emulator(t *testing.T) {
	client := newEmulatorClient(t)
	ctx := context.Background()
	repo := NewRepository[catalog.Product](client, "products_"+t.Name())

	threshold := 5
	id, err := repo.Create(ctx, &catalog.Product{SKU: "LAP-01", Name: "Laptop", Price: 25000, Stock: 3, MinStockLevel: &threshold})
	require.NoError(t, err)
	_, err = repo.Create(ctx, &catalog.Product{SKU: "MOU-01", Name: "Mouse", Price: 350, Stock: 120})
	require.NoError(t, err)

	got, err := repo.GetByID(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, id, got.ID)

	low, err := repo.GetAll(ctx, shared.NewQuery().Where("stock", shared.OpLess, 10).OrderBy("stock", shared.Asc))
	require.NoError(t, err)
	require.Len(t, low, 1)
	assert.Equal(t, "Laptop", low[0].Name)

	fields := shared.Fields{"stock": 9}
	require.NoError(t, repo.Update(ctx, id, fields))
	require.NoError(t, repo.Update(ctx, id, fields))
	got, err = repo.GetByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 9, got.Stock)
	assert.Equal(t, "Laptop", got.Name)

	err = repo.Update(ctx, "ghost", fields)
	assert.True(t, errors.Is(err, shared.ErrNotFound))

	require.NoError(t, repo.Delete(ctx, id))
	got, err = repo.GetByID(ctx, id)
	require.NoError(t, err)
	assert.Nil(t, got)
	assert.NoError(t, repo.Delete(ctx, id))
}
