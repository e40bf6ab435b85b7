package repository

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// MongoOptions tunes the client pool. Zero fields take the defaults below.
type MongoOptions struct {
	AppName        string
	ConnectTimeout time.Duration
	MaxPoolSize    uint64
}

const (
	defaultConnectTimeout = 10 * time.Second
	defaultMaxPoolSize    = 100
)

// ConnectMongoDB connects and pings the primary; orders are written there, so
// a secondary-only cluster is not usable. The client is disconnected again if
// the ping fails.
func ConnectMongoDB(ctx context.Context, uri, database string, o MongoOptions) (*mongo.Database, error) {
	if o.ConnectTimeout <= 0 {
		o.ConnectTimeout = defaultConnectTimeout
	}
	if o.MaxPoolSize == 0 {
		o.MaxPoolSize = defaultMaxPoolSize
	}

	clientOpts := options.Client().
		ApplyURI(uri).
		SetAppName(o.AppName).
		SetConnectTimeout(o.ConnectTimeout).
		SetServerSelectionTimeout(o.ConnectTimeout).
		SetMaxPoolSize(o.MaxPoolSize).
		SetMinPoolSize(o.MaxPoolSize / 10)

	client, err := mongo.Connect(ctx, clientOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, o.ConnectTimeout)
	defer cancel()
	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping MongoDB primary: %w", err)
	}

	return client.Database(database), nil
}
