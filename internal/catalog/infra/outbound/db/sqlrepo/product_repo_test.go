package sqlrepo

import (
	"context"
	"database/sql"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	catalogDomain "github.com/davicafu/hexashop/internal/catalog/domain"
	sharedDomain "github.com/davicafu/hexashop/internal/shared/domain"
	"github.com/davicafu/hexashop/internal/shared/infra/platform/db/sqlstore"
	"github.com/davicafu/hexashop/internal/shared/persistence"
)

func setup(t *testing.T) (*ProductRepo, *persistence.Factory) {
	t.Helper()
	ctx := context.Background()

	db, err := sql.Open(sqlstore.SQLite.DriverName(), ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	require.NoError(t, InitSchema(ctx, db, sqlstore.SQLite))
	require.NoError(t, sqlstore.InitOutbox(ctx, db, sqlstore.SQLite))

	repo := NewProductRepo(db, sqlstore.SQLite)
	store := sqlstore.New(db, sqlstore.SQLite, zap.NewNop())
	store.Register(catalogDomain.ProductEntityName, repo)

	return repo, persistence.NewFactory(store, zap.NewNop(), persistence.NewAuditInterceptor(nil, nil))
}

func create(t *testing.T, uows *persistence.Factory, name, price string, category ...string) *catalogDomain.Product {
	t.Helper()
	p, err := catalogDomain.NewProduct(uuid.New(), name, "desc", "img.png", decimal.RequireFromString(price), category)
	require.NoError(t, err)

	uow := uows.New()
	uow.Add(p)
	_, err = uow.Commit(context.Background())
	require.NoError(t, err)
	return p
}

func TestProductRepo_RoundTrip(t *testing.T) {
	repo, uows := setup(t)
	p := create(t, uows, "Bolso", "10.50", "Moda", "Accesorios")

	got, found, err := repo.Get(context.Background(), p.ID)
	require.NoError(t, err)
	require.True(t, found)

	assert.Equal(t, "Bolso", got.Name)
	assert.True(t, decimal.RequireFromString("10.5").Equal(got.Price))
	assert.Equal(t, []string{"Moda", "Accesorios"}, got.Category)
	require.NotNil(t, got.CreatedBy)
	assert.Equal(t, sharedDomain.SystemActor, *got.CreatedBy)
	assert.NotNil(t, got.CreatedAt)

	_, found, err = repo.Get(context.Background(), uuid.New())
	require.NoError(t, err)
	assert.False(t, found)
}

func TestProductRepo_ListByCategoryAndPrice(t *testing.T) {
	repo, uows := setup(t)
	create(t, uows, "Zapatilla", "40", "Deporte", "moda")
	create(t, uows, "Camiseta", "5", "Moda")
	create(t, uows, "Balón", "20", "Deporte")
	ctx := context.Background()

	items, total, err := repo.List(ctx, sharedDomain.Where("category", sharedDomain.OpILike, "%OD%"),
		sharedDomain.PageRequest{PageSize: 10, Sort: sharedDomain.Sort{Field: "name"}})
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	require.Len(t, items, 2)
	assert.Equal(t, "Camiseta", items[0].Name)
	assert.Equal(t, "Zapatilla", items[1].Name)

	items, total, err = repo.List(ctx, sharedDomain.Where("price", sharedDomain.OpGte, decimal.NewFromInt(20)),
		sharedDomain.PageRequest{PageSize: 1, Sort: sharedDomain.Sort{Field: "price", Desc: true}})
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	require.Len(t, items, 1)
	assert.Equal(t, "Zapatilla", items[0].Name)
}

func TestProductRepo_UpdateAndDeleteThroughUnitOfWork(t *testing.T) {
	repo, uows := setup(t)
	p := create(t, uows, "Bolso", "10", "Moda")
	ctx := context.Background()

	uow := uows.New()
	loaded, err := persistence.FindByKey[*catalogDomain.Product](ctx, uow, repo, p.ID)
	require.NoError(t, err)
	require.NoError(t, loaded.Update("Bolso XL", "desc", "img.png", decimal.NewFromInt(15), []string{"Lujo"}))
	n, err := uow.Commit(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	got, _, err := repo.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "Bolso XL", got.Name)
	assert.Equal(t, []string{"Lujo"}, got.Category)
	assert.NotNil(t, got.UpdatedAt)

	uow = uows.New()
	loaded, err = persistence.FindByKey[*catalogDomain.Product](ctx, uow, repo, p.ID)
	require.NoError(t, err)
	uow.Remove(loaded)
	_, err = uow.Commit(ctx)
	require.NoError(t, err)

	_, found, err := repo.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestProductRepo_RejectsUnknownFilter(t *testing.T) {
	repo, _ := setup(t)

	_, _, err := repo.List(context.Background(), sharedDomain.Where("secret", sharedDomain.OpEq, 1), sharedDomain.PageRequest{PageSize: 10})
	assert.Error(t, err)
}
