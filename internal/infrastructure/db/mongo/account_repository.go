package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/asc-solution/accounts/internal/core/domain"
	"github.com/asc-solution/accounts/internal/infrastructure/identity"
)

// AccountRepository implements ports.AccountRegistry using MongoDB.
type AccountRepository struct {
	col    *mongo.Collection
	tokens *identity.ResetTokens
}

func NewAccountRepository(db *mongo.Database, tokens *identity.ResetTokens) *AccountRepository {
	return &AccountRepository{col: db.Collection(collectionAccounts), tokens: tokens}
}

func (r *AccountRepository) FindByEmail(ctx context.Context, email string) (*domain.Account, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	doc, err := findAccount(ctx, r.col, bson.M{"normalized_email": domain.NormalizeEmail(email)},
		options.FindOne().SetProjection(bson.M{"claims": 0, "roles": 0}))
	if err != nil {
		return nil, err
	}
	return doc.toDomain(), nil
}

func (r *AccountRepository) Create(ctx context.Context, profile domain.AccountProfile, password string) (*domain.Account, error) {
	ve := identity.ValidateProfile(profile.Username, profile.Email)
	hash, err := identity.HashPassword(password)
	if err != nil {
		fields := domain.FieldErrors(err)
		if fields == nil {
			return nil, fmt.Errorf("hash password: %w", err)
		}
		ve.Fields = append(ve.Fields, fields...)
	}
	if ve.HasErrors() {
		return nil, ve
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	now := time.Now().UTC().Unix()
	doc := accountDoc{
		Username:           profile.Username,
		NormalizedUsername: domain.NormalizeUsername(profile.Username),
		Email:              profile.Email,
		NormalizedEmail:    domain.NormalizeEmail(profile.Email),
		EmailConfirmed:     profile.EmailConfirmed,
		PasswordHash:       hash,
		SecurityStamp:      identity.NewSecurityStamp(),
		Roles:              []string{},
		Claims:             []domain.Claim{},
		CreatedAt:          now,
		UpdatedAt:          now,
	}

	res, err := r.col.InsertOne(ctx, doc)
	if err != nil {
		if dup := duplicateErr(err, profile.Username, profile.Email); dup != nil {
			return nil, dup
		}
		return nil, storeErr("insert account", err)
	}
	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		doc.ID = oid
	}
	return doc.toDomain(), nil
}

func (r *AccountRepository) Update(ctx context.Context, account *domain.Account) (*domain.Account, error) {
	if ve := identity.ValidateProfile(account.Username, account.Email); ve.HasErrors() {
		return nil, ve
	}
	oid, err := objectID(account.ID)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	update := bson.M{"$set": bson.M{
		"username":            account.Username,
		"normalized_username": domain.NormalizeUsername(account.Username),
		"email":               account.Email,
		"normalized_email":    domain.NormalizeEmail(account.Email),
		"email_confirmed":     account.EmailConfirmed,
		"updated_at":          time.Now().UTC().Unix(),
	}}

	res, err := r.col.UpdateOne(ctx, bson.M{"_id": oid}, update)
	if err != nil {
		if dup := duplicateErr(err, account.Username, account.Email); dup != nil {
			return nil, dup
		}
		return nil, storeErr("update account", err)
	}
	if res.MatchedCount == 0 {
		return nil, domain.ErrAccountNotFound
	}

	doc, err := findAccount(ctx, r.col, bson.M{"_id": oid})
	if err != nil {
		return nil, err
	}
	return doc.toDomain(), nil
}

func (r *AccountRepository) Delete(ctx context.Context, account *domain.Account) error {
	oid, err := objectID(account.ID)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return storeErr("delete account", err)
	}
	if res.DeletedCount == 0 {
		return domain.ErrAccountNotFound
	}
	return nil
}

func (r *AccountRepository) GeneratePasswordResetToken(ctx context.Context, account *domain.Account) (string, error) {
	current, err := r.current(ctx, account)
	if err != nil {
		return "", err
	}
	return r.tokens.Generate(current)
}

// ResetPassword swaps the hash only if the security stamp is still the one
// the token was minted for, so two concurrent resets cannot both succeed.
func (r *AccountRepository) ResetPassword(ctx context.Context, account *domain.Account, token, newPassword string) error {
	current, err := r.current(ctx, account)
	if err != nil {
		return err
	}
	if err := r.tokens.Verify(current, token); err != nil {
		return domain.NewValidationError(err, domain.FieldError{Message: "invalid token"})
	}
	hash, err := identity.HashPassword(newPassword)
	if err != nil {
		return err
	}

	oid, err := objectID(current.ID)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.UpdateOne(ctx,
		bson.M{"_id": oid, "security_stamp": current.SecurityStamp},
		bson.M{"$set": bson.M{
			"password_hash":  hash,
			"security_stamp": identity.NewSecurityStamp(),
			"updated_at":     time.Now().UTC().Unix(),
		}},
	)
	if err != nil {
		return storeErr("reset password", err)
	}
	if res.MatchedCount == 0 {
		return domain.NewValidationError(domain.ErrInvalidResetToken, domain.FieldError{Message: "invalid token"})
	}
	return nil
}

func (r *AccountRepository) CheckPassword(ctx context.Context, account *domain.Account, password string) (bool, error) {
	current, err := r.current(ctx, account)
	if err != nil {
		return false, err
	}
	return identity.ComparePassword(current.PasswordHash, password), nil
}

// current reloads the credential fields of account from the store.
func (r *AccountRepository) current(ctx context.Context, account *domain.Account) (*domain.Account, error) {
	oid, err := objectID(account.ID)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	doc, err := findAccount(ctx, r.col, bson.M{"_id": oid},
		options.FindOne().SetProjection(bson.M{"claims": 0, "roles": 0}))
	if err != nil {
		return nil, err
	}
	return doc.toDomain(), nil
}
