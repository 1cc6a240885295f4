package mongo

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/asc-solution/accounts/internal/core/domain"
)

// RoleRepository implements ports.RoleAssigner on the roles array of the
// account document.
type RoleRepository struct {
	col *mongo.Collection
}

func NewRoleRepository(db *mongo.Database) *RoleRepository {
	return &RoleRepository{col: db.Collection(collectionAccounts)}
}

// Assign adds role only when the document holds none of the roles exclusive
// with it. The exclusivity check and the write are one atomic update.
func (r *RoleRepository) Assign(ctx context.Context, account *domain.Account, role domain.Role) error {
	if !role.Valid() {
		return domain.ErrInvalidRole
	}
	oid, err := objectID(account.ID)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	filter := bson.M{"_id": oid}
	if excl := role.ExclusiveWith(); len(excl) > 0 {
		filter["roles"] = bson.M{"$nin": roleStrings(excl)}
	}

	res, err := r.col.UpdateOne(ctx, filter, bson.M{"$addToSet": bson.M{"roles": string(role)}})
	if err != nil {
		return storeErr("assign role", err)
	}
	if res.MatchedCount > 0 {
		return nil
	}

	held, err := r.RolesOf(ctx, account)
	if err != nil {
		return err
	}
	for _, h := range held {
		if h.ConflictsWith(role) {
			return domain.NewValidationError(domain.ErrRoleConflict, domain.FieldError{
				Message: "account already belongs to role " + string(h),
			})
		}
	}
	return domain.NewValidationError(domain.ErrRoleConflict)
}

func (r *RoleRepository) Remove(ctx context.Context, account *domain.Account, role domain.Role) error {
	oid, err := objectID(account.ID)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.UpdateOne(ctx, bson.M{"_id": oid}, bson.M{"$pull": bson.M{"roles": string(role)}})
	if err != nil {
		return storeErr("remove role", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrAccountNotFound
	}
	return nil
}

// ListMembers returns accounts holding role in natural collection order.
func (r *RoleRepository) ListMembers(ctx context.Context, role domain.Role) ([]*domain.Account, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	cur, err := r.col.Find(ctx, bson.M{"roles": string(role)}, options.Find().SetProjection(bson.M{"claims": 0}))
	if err != nil {
		return nil, storeErr("list role members", err)
	}
	defer cur.Close(ctx)

	var out []*domain.Account
	for cur.Next(ctx) {
		var doc accountDoc
		if err := cur.Decode(&doc); err != nil {
			return nil, storeErr("decode role member", err)
		}
		out = append(out, doc.toDomain())
	}
	if err := cur.Err(); err != nil {
		return nil, storeErr("list role members", err)
	}
	return out, nil
}

func (r *RoleRepository) RolesOf(ctx context.Context, account *domain.Account) ([]domain.Role, error) {
	oid, err := objectID(account.ID)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	doc, err := findAccount(ctx, r.col, bson.M{"_id": oid}, options.FindOne().SetProjection(bson.M{"roles": 1}))
	if err != nil {
		return nil, err
	}

	roles := make([]domain.Role, 0, len(doc.Roles))
	for _, s := range doc.Roles {
		roles = append(roles, domain.Role(s))
	}
	return roles, nil
}

func roleStrings(roles []domain.Role) []string {
	out := make([]string, 0, len(roles))
	for _, r := range roles {
		out = append(out, string(r))
	}
	return out
}
