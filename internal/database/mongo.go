package database

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.mongodb.org/mongo-driver/x/mongo/driver/connstring"

	"github.com/akave-ai/userapi/internal/repository"
)

// DefaultMongoDatabase is used when the connection string names no database.
const DefaultMongoDatabase = "userapi"

type mongoDriver struct{}

func (*mongoDriver) Name() string      { return "mongodb" }
func (*mongoDriver) Schemes() []string { return []string{"mongodb", "mongodb+srv"} }

func (*mongoDriver) Open(ctx context.Context, rawURL string, _ Options) (Database, error) {
	cs, err := connstring.ParseAndValidate(rawURL)
	if err != nil {
		// The parse error quotes the connection string, credentials included.
		return nil, errors.New("invalid mongodb connection string")
	}
	name := cs.Database
	if name == "" {
		name = DefaultMongoDatabase
	}

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(rawURL).SetAppName("userapi"))
	if err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}

	db := &mongoDatabase{
		client: client,
		users:  repository.NewMongoUserRepository(client.Database(name)),
	}

	if err := db.Ping(ctx); err != nil {
		_ = client.Disconnect(context.WithoutCancel(ctx))
		return nil, fmt.Errorf("ping: %w", err)
	}
	if err := db.users.EnsureIndexes(ctx); err != nil {
		_ = client.Disconnect(context.WithoutCancel(ctx))
		return nil, err
	}

	return db, nil
}

type mongoDatabase struct {
	client *mongo.Client
	users  *repository.MongoUserRepository
}

func (*mongoDatabase) Driver() string                     { return "mongodb" }
func (db *mongoDatabase) Users() repository.UserRepository { return db.users }

func (db *mongoDatabase) Ping(ctx context.Context) error {
	return db.client.Ping(ctx, readpref.Primary())
}

func (db *mongoDatabase) Close(ctx context.Context) error {
	return db.client.Disconnect(ctx)
}
