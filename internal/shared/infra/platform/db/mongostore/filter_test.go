package mongostore

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/davicafu/hexashop/internal/shared/domain"
)

var cartFields = Fields{"user_name": "userName", "items.product_id": "items.productId", "created_at": "createdAt"}

func TestBuildFilter(t *testing.T) {
	productID := uuid.New()

	filter, err := BuildFilter(domain.And(
		domain.Where("user_name", domain.OpILike, "jo%"),
		domain.Where("items.product_id", domain.OpEq, productID),
		domain.Where("created_at", domain.OpGte, "2024-01-01"),
	), cartFields)

	require.NoError(t, err)
	assert.Equal(t, bson.D{
		{Key: "userName", Value: primitive.Regex{Pattern: "^jo.*$", Options: "i"}},
		{Key: "items.productId", Value: productID.String()},
		{Key: "createdAt", Value: bson.M{"$gte": "2024-01-01"}},
	}, filter)
}

func TestBuildFilter_UnknownField(t *testing.T) {
	_, err := BuildFilter(domain.Where("password", domain.OpEq, "x"), cartFields)
	assert.ErrorContains(t, err, "password")
}

func TestBuildFilter_NilCriteriaMatchesAll(t *testing.T) {
	filter, err := BuildFilter(nil, cartFields)
	require.NoError(t, err)
	assert.Empty(t, filter)
}

func TestBuildSort(t *testing.T) {
	s, err := BuildSort(domain.Sort{Field: "user_name", Desc: true}, cartFields, "created_at")
	require.NoError(t, err)
	assert.Equal(t, bson.D{{Key: "userName", Value: -1}, {Key: "_id", Value: -1}}, s)

	_, err = BuildSort(domain.Sort{Field: "nope"}, cartFields, "created_at")
	assert.Error(t, err)
}

func TestLikeToRegex_EscapesMeta(t *testing.T) {
	assert.Equal(t, `^a\.b.c.*$`, likeToRegex("a.b_c%"))
}
