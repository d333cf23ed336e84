package mongodb

import (
	"context"
	"strings"
	"time"

	"storefront/internal/domain/entity"
	domainerrors "storefront/internal/domain/errors"
	"storefront/internal/domain/repository"
	"storefront/internal/errors"
	"storefront/internal/infra/persistence/model"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

type accountRepository struct {
	collection *mongo.Collection
	now        func() time.Time
}

// NewAccountRepository returns an account store backed by the accounts collection of db.
func NewAccountRepository(db *mongo.Database) repository.AccountRepository {
	return &accountRepository{
		collection: db.Collection(model.AccountsCollection),
		now:        time.Now,
	}
}

func (repo *accountRepository) Create(ctx context.Context, account *entity.Account) error {
	if err := account.Validate(); err != nil {
		return domainerrors.ErrValidationFailed.WithDetails(err.Error())
	}

	now := repo.now().UTC().Truncate(time.Millisecond)
	doc := fromAccountDomain(account)
	doc.CreatedAt = now
	doc.UpdatedAt = now

	if _, err := repo.collection.InsertOne(ctx, doc); err != nil {
		return translateWriteError(err, "failed to create account")
	}

	account.CreatedAt = now
	account.UpdatedAt = now

	return nil
}

func (repo *accountRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Account, error) {
	return repo.findOne(ctx, bson.M{"_id": id.String()})
}

func (repo *accountRepository) FindByEmail(ctx context.Context, email string) (*entity.Account, error) {
	return repo.findOne(ctx, bson.M{"email": entity.NormalizeEmail(email)})
}

func (repo *accountRepository) FindByVerificationToken(ctx context.Context, token string) (*entity.Account, error) {
	if token == "" {
		return nil, repository.ErrAccountNotFound
	}

	return repo.findOne(ctx, bson.M{"email_verification_token": token})
}

func (repo *accountRepository) FindByResetToken(ctx context.Context, token string) (*entity.Account, error) {
	if token == "" {
		return nil, repository.ErrAccountNotFound
	}

	return repo.findOne(ctx, bson.M{
		"password_reset_token":   token,
		"password_reset_expires": bson.M{"$gt": repo.now().UTC()},
	})
}

func (repo *accountRepository) List(ctx context.Context) ([]*entity.Account, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}})

	cursor, err := repo.collection.Find(ctx, bson.D{}, opts)
	if err != nil {
		return nil, domainerrors.NewDatabaseExecuteError(err, "failed to list accounts")
	}

	var docs []*model.AccountDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, domainerrors.NewDatabaseExecuteError(err, "failed to decode accounts")
	}

	accounts := make([]*entity.Account, 0, len(docs))
	for _, doc := range docs {
		account, err := toAccountDomain(doc)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, account)
	}

	return accounts, nil
}

// Update loads the account, applies and validates the update, then writes the
// touched fields with $set and $unset.
func (repo *accountRepository) Update(ctx context.Context, id uuid.UUID, update repository.AccountUpdate) (*entity.Account, error) {
	account, err := repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	update.Apply(account)
	if err := account.Validate(); err != nil {
		return nil, domainerrors.ErrValidationFailed.WithDetails(err.Error())
	}
	account.UpdatedAt = repo.now().UTC().Truncate(time.Millisecond)

	result, err := repo.collection.UpdateOne(ctx, bson.M{"_id": id.String()}, updateDocument(update, account))
	if err != nil {
		return nil, translateWriteError(err, "failed to update account")
	}
	if result.MatchedCount == 0 {
		return nil, repository.ErrAccountNotFound
	}

	return account, nil
}

func (repo *accountRepository) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	result, err := repo.collection.DeleteOne(ctx, bson.M{"_id": id.String()})
	if err != nil {
		return false, domainerrors.NewDatabaseExecuteError(err, "failed to delete account")
	}

	return result.DeletedCount > 0, nil
}

func (repo *accountRepository) PurgeExpiredResetTokens(ctx context.Context, now time.Time) (int64, error) {
	result, err := repo.collection.UpdateMany(ctx,
		bson.M{"password_reset_expires": bson.M{"$lte": now.UTC()}},
		bson.M{
			"$unset": bson.M{"password_reset_token": "", "password_reset_expires": ""},
			"$set":   bson.M{"updated_at": repo.now().UTC()},
		},
	)
	if err != nil {
		return 0, domainerrors.NewDatabaseExecuteError(err, "failed to purge expired reset tokens")
	}

	return result.ModifiedCount, nil
}

func (repo *accountRepository) findOne(ctx context.Context, filter bson.M) (*entity.Account, error) {
	var doc model.AccountDocument
	if err := repo.collection.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrAccountNotFound
		}

		return nil, domainerrors.NewDatabaseExecuteError(err, "failed to find account")
	}

	return toAccountDomain(&doc)
}

func translateWriteError(err error, details string) error {
	if mongo.IsDuplicateKeyError(err) {
		if strings.Contains(err.Error(), verificationTokenIndexName) ||
			strings.Contains(err.Error(), resetTokenIndexName) {
			return domainerrors.ErrTokenGenerationFailed.WrapMessage("token collision")
		}

		return repository.ErrDuplicateEmail
	}

	return domainerrors.NewDatabaseExecuteError(err, details)
}

// updateDocument builds the update operators for the touched fields of an
// update. Cleared optional fields are removed from the document.
func updateDocument(update repository.AccountUpdate, account *entity.Account) bson.M {
	set := bson.M{"updated_at": account.UpdatedAt}
	unset := bson.M{}

	if update.Email.IsSet() {
		set["email"] = account.Email
	}
	if update.Name.IsSet() {
		set["name"] = account.Name
	}
	if update.Role.IsSet() {
		set["role"] = string(account.Role)
	}
	if update.CredentialHash.IsSet() {
		set["credential_hash"] = account.CredentialHash
	}
	if update.EmailVerified.IsSet() {
		set["email_verified"] = account.EmailVerified
	}
	setOrUnset(update.EmailVerificationToken.IsSet(), "email_verification_token", account.EmailVerificationToken, set, unset)
	setOrUnset(update.PasswordResetToken.IsSet(), "password_reset_token", account.PasswordResetToken, set, unset)
	setOrUnset(update.PasswordResetExpires.IsSet(), "password_reset_expires", utcPtr(account.PasswordResetExpires), set, unset)

	doc := bson.M{"$set": set}
	if len(unset) > 0 {
		doc["$unset"] = unset
	}

	return doc
}

func setOrUnset[T any](touched bool, field string, value *T, set, unset bson.M) {
	if !touched {
		return
	}

	if value == nil {
		unset[field] = ""

		return
	}

	set[field] = *value
}

func toAccountDomain(doc *model.AccountDocument) (*entity.Account, error) {
	id, err := uuid.Parse(doc.ID)
	if err != nil {
		return nil, domainerrors.NewDatabaseExecuteError(err, "stored account id is not a uuid")
	}

	return &entity.Account{
		ID:                     id,
		Email:                  doc.Email,
		Name:                   doc.Name,
		Role:                   entity.Role(doc.Role),
		CredentialHash:         doc.CredentialHash,
		EmailVerified:          doc.EmailVerified,
		EmailVerificationToken: doc.EmailVerificationToken,
		PasswordResetToken:     doc.PasswordResetToken,
		PasswordResetExpires:   utcPtr(doc.PasswordResetExpires),
		CreatedAt:              doc.CreatedAt.UTC(),
		UpdatedAt:              doc.UpdatedAt.UTC(),
	}, nil
}

func fromAccountDomain(account *entity.Account) *model.AccountDocument {
	return &model.AccountDocument{
		ID:                     account.ID.String(),
		Email:                  account.Email,
		Name:                   account.Name,
		Role:                   string(account.Role),
		CredentialHash:         account.CredentialHash,
		EmailVerified:          account.EmailVerified,
		EmailVerificationToken: account.EmailVerificationToken,
		PasswordResetToken:     account.PasswordResetToken,
		PasswordResetExpires:   utcPtr(account.PasswordResetExpires),
		CreatedAt:              account.CreatedAt,
		UpdatedAt:              account.UpdatedAt,
	}
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}

	utc := t.UTC()

	return &utc
}
