package mongo

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/asc-solution/accounts/internal/core/domain"
)

const (
	collectionAccounts = "accounts"

	indexEmail    = "uniq_normalized_email"
	indexUsername = "uniq_normalized_username"
)

// accountDoc is the single document that carries the account record, its
// roles and its claims. Keeping them together lets claim and role writes be
// single-document atomic updates.
type accountDoc struct {
	ID                 primitive.ObjectID `bson:"_id,omitempty"`
	Username           string             `bson:"username"`
	NormalizedUsername string             `bson:"normalized_username"`
	Email              string             `bson:"email"`
	NormalizedEmail    string             `bson:"normalized_email"`
	EmailConfirmed     bool               `bson:"email_confirmed"`
	PasswordHash       string             `bson:"password_hash"`
	SecurityStamp      string             `bson:"security_stamp"`
	Roles              []string           `bson:"roles"`
	Claims             []domain.Claim     `bson:"claims"`
	CreatedAt          int64              `bson:"created_at"`
	UpdatedAt          int64              `bson:"updated_at"`
}

func (d *accountDoc) toDomain() *domain.Account {
	return &domain.Account{
		ID:             d.ID.Hex(),
		Username:       d.Username,
		Email:          d.Email,
		EmailConfirmed: d.EmailConfirmed,
		PasswordHash:   d.PasswordHash,
		SecurityStamp:  d.SecurityStamp,
		CreatedAt:      unixToTime(d.CreatedAt),
		UpdatedAt:      unixToTime(d.UpdatedAt),
	}
}

// EnsureAccountIndexes creates the unique indexes the registry relies on.
func EnsureAccountIndexes(ctx context.Context, db *mongo.Database) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "normalized_email", Value: 1}}, Options: options.Index().SetName(indexEmail).SetUnique(true)},
		{Keys: bson.D{{Key: "normalized_username", Value: 1}}, Options: options.Index().SetName(indexUsername).SetUnique(true)},
		{Keys: bson.D{{Key: "roles", Value: 1}}},
	}

	_, err := db.Collection(collectionAccounts).Indexes().CreateMany(ctx, indexes)
	return err
}

// objectID converts an account ID; malformed IDs cannot exist in the store.
func objectID(id string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, domain.ErrAccountNotFound
	}
	return oid, nil
}

func findAccount(ctx context.Context, col *mongo.Collection, filter bson.M, opts ...*options.FindOneOptions) (*accountDoc, error) {
	var doc accountDoc
	if err := col.FindOne(ctx, filter, opts...).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrAccountNotFound
		}
		return nil, storeErr("find account", err)
	}
	return &doc, nil
}

// duplicateErr maps a unique-index violation onto the matching conflict.
func duplicateErr(err error, username, email string) error {
	if !mongo.IsDuplicateKeyError(err) {
		return nil
	}
	if strings.Contains(err.Error(), indexUsername) {
		return domain.NewValidationError(domain.ErrUsernameTaken, domain.FieldError{
			Field: "username", Message: fmt.Sprintf("username '%s' is already taken", username),
		})
	}
	return domain.NewValidationError(domain.ErrEmailTaken, domain.FieldError{
		Field: "email", Message: fmt.Sprintf("email '%s' is already taken", email),
	})
}

func storeErr(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, domain.ErrStore, err)
}

func unixToTime(ts int64) time.Time {
	if ts == 0 {
		return time.Time{}
	}
	return time.Unix(ts, 0).UTC()
}
