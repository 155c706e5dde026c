// Package mongorepo guarda un documento por carrito, con sus líneas embebidas.
package mongorepo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	basketDomain "github.com/davicafu/hexashop/internal/basket/domain"
	sharedDomain "github.com/davicafu/hexashop/internal/shared/domain"
	"github.com/davicafu/hexashop/internal/shared/infra/platform/db/mongostore"
)

const CartsCollection = "shopping_carts"

var cartFields = mongostore.Fields{
	"id":               "_id",
	"user_name":        "userName",
	"items.product_id": "items.productId",
	"created_at":       "createdAt",
	"updated_at":       "updatedAt",
}

type CartRepo struct {
	coll *mongo.Collection
}

var (
	_ basketDomain.ShoppingCartReader = (*CartRepo)(nil)
	_ mongostore.Writer               = (*CartRepo)(nil)
)

func NewCartRepo(db *mongo.Database) *CartRepo {
	return &CartRepo{coll: db.Collection(CartsCollection)}
}

func (r *CartRepo) Name() string { return basketDomain.ShoppingCartEntityName }

// --- Structs de BSON para el mapeo ---

type mongoCartItem struct {
	ID          string               `bson:"id"`
	ProductID   string               `bson:"productId"`
	Quantity    int                  `bson:"quantity"`
	Color       string               `bson:"color"`
	Price       primitive.Decimal128 `bson:"price"`
	ProductName string               `bson:"productName"`
}

type mongoCart struct {
	ID        string          `bson:"_id"`
	UserName  string          `bson:"userName"`
	Items     []mongoCartItem `bson:"items"`
	CreatedAt *time.Time      `bson:"createdAt,omitempty"`
	CreatedBy *string         `bson:"createdBy,omitempty"`
	UpdatedAt *time.Time      `bson:"updatedAt,omitempty"`
	UpdatedBy *string         `bson:"updatedBy,omitempty"`
}

func toMongoCart(c *basketDomain.ShoppingCart) (mongoCart, error) {
	items := c.Items()
	doc := mongoCart{
		ID:        c.ID.String(),
		UserName:  c.UserName,
		Items:     make([]mongoCartItem, 0, len(items)),
		CreatedAt: c.CreatedAt,
		CreatedBy: c.CreatedBy,
		UpdatedAt: c.UpdatedAt,
		UpdatedBy: c.UpdatedBy,
	}
	for _, it := range items {
		price, err := primitive.ParseDecimal128(it.Price.String())
		if err != nil {
			return mongoCart{}, fmt.Errorf("price %s: %w", it.Price, err)
		}
		doc.Items = append(doc.Items, mongoCartItem{
			ID:          it.ID.String(),
			ProductID:   it.ProductID.String(),
			Quantity:    it.Quantity,
			Color:       it.Color,
			Price:       price,
			ProductName: it.ProductName,
		})
	}
	return doc, nil
}

func fromMongoCart(doc mongoCart) (*basketDomain.ShoppingCart, error) {
	id, err := uuid.Parse(doc.ID)
	if err != nil {
		return nil, fmt.Errorf("cart id %q: %w", doc.ID, err)
	}

	items := make([]basketDomain.ShoppingCartItem, 0, len(doc.Items))
	for _, mi := range doc.Items {
		itemID, err := uuid.Parse(mi.ID)
		if err != nil {
			return nil, fmt.Errorf("cart item id %q: %w", mi.ID, err)
		}
		productID, err := uuid.Parse(mi.ProductID)
		if err != nil {
			return nil, fmt.Errorf("product id %q: %w", mi.ProductID, err)
		}
		price, err := decimal.NewFromString(mi.Price.String())
		if err != nil {
			return nil, fmt.Errorf("price %q: %w", mi.Price.String(), err)
		}
		items = append(items, basketDomain.ShoppingCartItem{
			ID:             itemID,
			ShoppingCartID: id,
			ProductID:      productID,
			Quantity:       mi.Quantity,
			Color:          mi.Color,
			Price:          price,
			ProductName:    mi.ProductName,
		})
	}

	entity := sharedDomain.Entity{
		ID: id,
		Audit: sharedDomain.Audit{
			CreatedAt: doc.CreatedAt,
			CreatedBy: doc.CreatedBy,
			UpdatedAt: doc.UpdatedAt,
			UpdatedBy: doc.UpdatedBy,
		},
	}
	return basketDomain.RestoreShoppingCart(entity, doc.UserName, items), nil
}

// ------------------ Lectura ------------------

func (r *CartRepo) Get(ctx context.Context, id uuid.UUID) (*basketDomain.ShoppingCart, bool, error) {
	return r.FindOne(ctx, sharedDomain.Where("id", sharedDomain.OpEq, id))
}

func (r *CartRepo) FindOne(ctx context.Context, criteria sharedDomain.Criteria) (*basketDomain.ShoppingCart, bool, error) {
	filter, err := mongostore.BuildFilter(criteria, cartFields)
	if err != nil {
		return nil, false, err
	}

	var doc mongoCart
	if err := r.coll.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, false, nil
		}
		return nil, false, err
	}
	cart, err := fromMongoCart(doc)
	if err != nil {
		return nil, false, err
	}
	return cart, true, nil
}

func (r *CartRepo) List(ctx context.Context, criteria sharedDomain.Criteria, page sharedDomain.PageRequest) ([]*basketDomain.ShoppingCart, int64, error) {
	filter, err := mongostore.BuildFilter(criteria, cartFields)
	if err != nil {
		return nil, 0, err
	}
	sort, err := mongostore.BuildSort(page.Sort, cartFields, "user_name")
	if err != nil {
		return nil, 0, err
	}

	total, err := r.coll.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("count shopping carts: %w", err)
	}

	opts := options.Find().SetSort(sort)
	if page.PageSize > 0 {
		opts.SetSkip(int64(page.Offset())).SetLimit(int64(page.PageSize))
	}
	cursor, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, err
	}
	defer cursor.Close(ctx)

	var carts []*basketDomain.ShoppingCart
	for cursor.Next(ctx) {
		var doc mongoCart
		if err := cursor.Decode(&doc); err != nil {
			return nil, 0, err
		}
		cart, err := fromMongoCart(doc)
		if err != nil {
			return nil, 0, err
		}
		carts = append(carts, cart)
	}
	return carts, total, cursor.Err()
}

// ------------------ Escritura (ctx es el contexto de sesión) ------------------

func (r *CartRepo) Insert(ctx context.Context, db *mongo.Database, entity sharedDomain.Auditable) error {
	doc, err := r.document(entity)
	if err != nil {
		return err
	}
	_, err = db.Collection(CartsCollection).InsertOne(ctx, doc)
	return err
}

func (r *CartRepo) Update(ctx context.Context, db *mongo.Database, entity sharedDomain.Auditable) error {
	doc, err := r.document(entity)
	if err != nil {
		return err
	}
	res, err := db.Collection(CartsCollection).ReplaceOne(ctx, bson.M{"_id": doc.ID}, doc)
	if err != nil {
		return err
	}
	return mongostore.MatchedOrNotFound(res.MatchedCount, entity)
}

func (r *CartRepo) Delete(ctx context.Context, db *mongo.Database, entity sharedDomain.Auditable) error {
	res, err := db.Collection(CartsCollection).DeleteOne(ctx, bson.M{"_id": entity.GetID().String()})
	if err != nil {
		return err
	}
	return mongostore.MatchedOrNotFound(res.DeletedCount, entity)
}

func (r *CartRepo) document(entity sharedDomain.Auditable) (mongoCart, error) {
	c, ok := entity.(*basketDomain.ShoppingCart)
	if !ok {
		return mongoCart{}, fmt.Errorf("shopping cart writer received %T", entity)
	}
	return toMongoCart(c)
}

// EnsureIndexes crea el índice único por usuario y el de búsqueda por producto.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	_, err := db.Collection(CartsCollection).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "userName", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "items.productId", Value: 1}}},
	})
	return err
}
