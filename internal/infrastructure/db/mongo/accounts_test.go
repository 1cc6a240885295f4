package mongo

import (
	"errors"
	"testing"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/asc-solution/accounts/internal/core/domain"
)

func dupKeyException(index string) error {
	return mongo.WriteException{WriteErrors: []mongo.WriteError{{
		Code:    11000,
		Message: "E11000 duplicate key error collection: asc_accounts.accounts index: " + index + " dup key",
	}}}
}

func TestDuplicateErr(t *testing.T) {
	if err := duplicateErr(errors.New("network"), "eng1", "eng1@x.com"); err != nil {
		t.Fatalf("non-duplicate errors must map to nil, got %v", err)
	}

	err := duplicateErr(dupKeyException(indexUsername), "eng1", "eng1@x.com")
	if !errors.Is(err, domain.ErrUsernameTaken) {
		t.Fatalf("expected ErrUsernameTaken, got %v", err)
	}
	if f := domain.FieldErrors(err); len(f) != 1 || f[0].Field != "username" {
		t.Fatalf("expected username field error, got %v", f)
	}

	err = duplicateErr(dupKeyException(indexEmail), "eng1", "eng1@x.com")
	if !errors.Is(err, domain.ErrEmailTaken) {
		t.Fatalf("expected ErrEmailTaken, got %v", err)
	}
}

func TestObjectID(t *testing.T) {
	oid := primitive.NewObjectID()
	got, err := objectID(oid.Hex())
	if err != nil || got != oid {
		t.Fatalf("round trip failed: %v, %v", got, err)
	}
	if _, err := objectID("not-an-id"); !errors.Is(err, domain.ErrAccountNotFound) {
		t.Fatalf("malformed ids must read as not found, got %v", err)
	}
}

func TestStoreErr(t *testing.T) {
	cause := errors.New("connection reset")
	err := storeErr("find account", cause)
	if !errors.Is(err, domain.ErrStore) || !errors.Is(err, cause) {
		t.Fatalf("expected both ErrStore and the cause in the chain: %v", err)
	}
}

func TestAccountDoc_ToDomain(t *testing.T) {
	oid := primitive.NewObjectID()
	doc := accountDoc{
		ID:             oid,
		Username:       "Eng1",
		Email:          "Eng1@x.com",
		EmailConfirmed: true,
		PasswordHash:   "hash",
		SecurityStamp:  "stamp",
		CreatedAt:      1700000000,
	}
	acct := doc.toDomain()
	if acct.ID != oid.Hex() || acct.Email != "Eng1@x.com" || !acct.EmailConfirmed {
		t.Fatalf("unexpected account: %+v", acct)
	}
	if acct.CreatedAt.Unix() != 1700000000 || !acct.UpdatedAt.IsZero() {
		t.Fatalf("unexpected timestamps: %v / %v", acct.CreatedAt, acct.UpdatedAt)
	}
}

// field returns the value stored under key in d.
func field(t *testing.T, d any, key string) any {
	t.Helper()
	doc, ok := d.(bson.D)
	if !ok {
		t.Fatalf("expected bson.D holding %q, got %T", key, d)
	}
	for _, e := range doc {
		if e.Key == key {
			return e.Value
		}
	}
	t.Fatalf("key %q not found in %v", key, doc)
	return nil
}

func TestReplaceClaimPipeline(t *testing.T) {
	pipe := replaceClaimPipeline(domain.ClaimIsActive, "$False")
	if len(pipe) != 1 {
		t.Fatalf("expected a single stage, got %d", len(pipe))
	}

	set := field(t, pipe[0], "$set")
	concat, ok := field(t, field(t, set, "claims"), "$concatArrays").(bson.A)
	if !ok || len(concat) != 2 {
		t.Fatalf("expected $concatArrays of kept and replacement claims")
	}

	kept := field(t, concat[0], "$filter")
	cond := field(t, field(t, kept, "cond"), "$ne").(bson.A)
	if cond[0] != "$$c.type" || field(t, cond[1], "$literal") != domain.ClaimIsActive {
		t.Fatalf("filter must drop every claim of the replaced type, got %v", cond)
	}

	claim := concat[1].(bson.A)[0]
	if v := field(t, field(t, claim, "value"), "$literal"); v != "$False" {
		t.Fatalf("value must be passed as a literal, got %v", v)
	}
	if v := field(t, field(t, claim, "type"), "$literal"); v != domain.ClaimIsActive {
		t.Fatalf("type must be passed as a literal, got %v", v)
	}
}
