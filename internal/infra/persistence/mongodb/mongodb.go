// Package mongodb stores accounts in MongoDB.
package mongodb

import (
	"context"
	"log/slog"

	"storefront/config"
	"storefront/internal/domain/lifecycle"
	"storefront/internal/errors"
	"storefront/internal/infra/persistence/model"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"
	"go.uber.org/fx"
)

const (
	emailIndexName             = "accounts_email_key"
	verificationTokenIndexName = "accounts_email_verification_token_key"
	resetTokenIndexName        = "accounts_password_reset_token_key"
	resetExpiresIndexName      = "accounts_password_reset_expires_idx"
)

// Params defines the required parameters
type Params struct {
	fx.In
	fx.Lifecycle

	Config *config.Config
	Logger *slog.Logger
}

// New connects to MongoDB and returns the configured database. The connection
// is checked and the account indexes are ensured on start.
func New(params Params) (*mongo.Database, error) {
	mongoCfg := params.Config.Mongo
	if mongoCfg == nil || mongoCfg.URI == "" {
		return nil, errors.New("mongo.uri is required for the mongo storage driver")
	}

	clientOpts := options.Client().ApplyURI(mongoCfg.URI)
	if mongoCfg.Timeout > 0 {
		clientOpts.SetTimeout(mongoCfg.Timeout)
	}

	client, err := mongo.Connect(clientOpts)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create MongoDB client")
	}

	db := client.Database(mongoCfg.Database)

	params.Append(fx.Hook{
		OnStart: func(startCtx context.Context) error {
			ctx, cancel := context.WithTimeout(startCtx, lifecycle.DefaultTimeout)
			defer cancel()

			if err := client.Ping(ctx, readpref.Primary()); err != nil {
				return errors.Wrap(err, "failed to ping MongoDB")
			}

			params.Logger.Info("Ensuring MongoDB indexes", slog.String("database", mongoCfg.Database))

			return EnsureIndexes(ctx, db)
		},
		OnStop: func(ctx context.Context) error {
			return client.Disconnect(ctx)
		},
	})

	return db, nil
}

// EnsureIndexes creates the unique and lookup indexes of the accounts collection.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	present := bson.M{"$exists": true}

	_, err := db.Collection(model.AccountsCollection).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetName(emailIndexName).SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "email_verification_token", Value: 1}},
			Options: options.Index().
				SetName(verificationTokenIndexName).
				SetUnique(true).
				SetPartialFilterExpression(bson.M{"email_verification_token": present}),
		},
		{
			Keys: bson.D{{Key: "password_reset_token", Value: 1}},
			Options: options.Index().
				SetName(resetTokenIndexName).
				SetUnique(true).
				SetPartialFilterExpression(bson.M{"password_reset_token": present}),
		},
		{
			Keys:    bson.D{{Key: "password_reset_expires", Value: 1}},
			Options: options.Index().SetName(resetExpiresIndexName).SetSparse(true),
		},
	})
	if err != nil {
		return errors.Wrap(err, "failed to create account indexes")
	}

	return nil
}
