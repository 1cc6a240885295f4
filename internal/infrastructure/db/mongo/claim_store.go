package mongo

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/asc-solution/accounts/internal/core/domain"
)

// ClaimStore implements ports.ClaimStore on the claims array of the account
// document.
type ClaimStore struct {
	col *mongo.Collection
}

func NewClaimStore(db *mongo.Database) *ClaimStore {
	return &ClaimStore{col: db.Collection(collectionAccounts)}
}

func (s *ClaimStore) GetClaims(ctx context.Context, account *domain.Account) ([]domain.Claim, error) {
	oid, err := objectID(account.ID)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	doc, err := findAccount(ctx, s.col, bson.M{"_id": oid}, options.FindOne().SetProjection(bson.M{"claims": 1}))
	if err != nil {
		return nil, err
	}
	return doc.Claims, nil
}

// SetClaim rewrites the claims array in one pipeline update: every claim of
// claimType is filtered out and a single replacement appended. Readers see
// either the old array or the new one.
func (s *ClaimStore) SetClaim(ctx context.Context, account *domain.Account, claimType, value string) error {
	oid, err := objectID(account.ID)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := s.col.UpdateOne(ctx, bson.M{"_id": oid}, replaceClaimPipeline(claimType, value))
	if err != nil {
		return storeErr("set claim", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrAccountNotFound
	}
	return nil
}

// replaceClaimPipeline builds the aggregation update used by SetClaim. Values
// go through $literal so a leading "$" is never read as a field path.
func replaceClaimPipeline(claimType, value string) mongo.Pipeline {
	kept := bson.D{{Key: "$filter", Value: bson.D{
		{Key: "input", Value: bson.D{{Key: "$ifNull", Value: bson.A{"$claims", bson.A{}}}}},
		{Key: "as", Value: "c"},
		{Key: "cond", Value: bson.D{{Key: "$ne", Value: bson.A{"$$c.type", bson.D{{Key: "$literal", Value: claimType}}}}}},
	}}}
	replacement := bson.A{bson.D{
		{Key: "type", Value: bson.D{{Key: "$literal", Value: claimType}}},
		{Key: "value", Value: bson.D{{Key: "$literal", Value: value}}},
	}}

	return mongo.Pipeline{
		{{Key: "$set", Value: bson.D{
			{Key: "claims", Value: bson.D{{Key: "$concatArrays", Value: bson.A{kept, replacement}}}},
		}}},
	}
}
