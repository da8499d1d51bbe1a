package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"golang.org/x/sync/errgroup"
)

// Default connection timeout
const defaultTimeout = 10 * time.Second

// ConnectDB establishes a connection to MongoDB using the provided URI.
// Activation runs in a multi-document transaction, so the deployment must be
// a replica set (a single-node set is enough for development).
func ConnectDB(uri string) (*mongo.Client, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	clientOptions := options.Client().ApplyURI(uri)

	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, err
	}

	// Ping the primary separately; Connect succeeds even when the server is unreachable.
	pingCtx, pingCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer pingCancel()

	err = client.Ping(pingCtx, readpref.Primary())
	if err != nil {
		disconnectCtx, disconnectCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer disconnectCancel()
		_ = client.Disconnect(disconnectCtx)
		return nil, err
	}

	return client, nil
}

// DisconnectDB gracefully disconnects the MongoDB client.
func DisconnectDB(client *mongo.Client) error {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()
	return client.Disconnect(ctx)
}

// EnsureIndexes creates the indexes of every collection concurrently.
// The unique partial index on active routines is what holds the
// one-active-routine-per-member rule even against writers outside this service.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	steps := map[string]func(context.Context, *mongo.Collection) error{
		muscleGroupCollectionName: EnsureMuscleGroupIndexes,
		exerciseCollectionName:    EnsureExerciseIndexes,
		routineCollectionName:     EnsureRoutineIndexes,
		sessionCollectionName:     EnsureSessionIndexes,
	}

	g, gctx := errgroup.WithContext(ctx)
	for name, ensure := range steps {
		name, ensure := name, ensure
		g.Go(func() error {
			if err := ensure(gctx, db.Collection(name)); err != nil {
				return fmt.Errorf("ensure indexes on %s: %w", name, err)
			}
			return nil
		})
	}
	return g.Wait()
}
