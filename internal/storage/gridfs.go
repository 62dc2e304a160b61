package storage

import (
	"context"
	"errors"
	"io"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/gridfs"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// GridFSStore keeps each logical bucket as a GridFS bucket of the same name.
// Keys are stored as GridFS filenames.
type GridFSStore struct {
	client  *mongo.Client
	db      *mongo.Database
	baseURL string
}

func NewGridFSStore(ctx context.Context, uri, dbName, baseURL string) (*GridFSStore, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, err
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}
	return &GridFSStore{client: client, db: client.Database(dbName), baseURL: baseURL}, nil
}

func (g *GridFSStore) bucket(name string) (*gridfs.Bucket, error) {
	b, err := CleanKey(name)
	if err != nil {
		return nil, err
	}
	return gridfs.NewBucket(g.db, options.GridFSBucket().SetName(b))
}

func (g *GridFSStore) Upload(ctx context.Context, bucket, key string, r io.Reader) (string, error) {
	k, err := CleanKey(key)
	if err != nil {
		return "", err
	}
	b, err := g.bucket(bucket)
	if err != nil {
		return "", err
	}
	if dl, ok := ctx.Deadline(); ok {
		if err := b.SetWriteDeadline(dl); err != nil {
			return "", err
		}
	}
	if _, err := b.UploadFromStream(k, r); err != nil {
		return "", err
	}
	return publicURL(g.baseURL, bucket, k), nil
}

// Remove deletes every revision stored under key.
func (g *GridFSStore) Remove(ctx context.Context, bucket, key string) error {
	k, err := CleanKey(key)
	if err != nil {
		return err
	}
	b, err := g.bucket(bucket)
	if err != nil {
		return err
	}
	cur, err := b.Find(bson.M{"filename": k})
	if err != nil {
		return err
	}
	defer cur.Close(ctx)

	found := false
	for cur.Next(ctx) {
		var f struct {
			ID primitive.ObjectID `bson:"_id"`
		}
		if err := cur.Decode(&f); err != nil {
			return err
		}
		if err := b.Delete(f.ID); err != nil && !errors.Is(err, gridfs.ErrFileNotFound) {
			return err
		}
		found = true
	}
	if err := cur.Err(); err != nil {
		return err
	}
	if !found {
		return ErrObjectNotFound
	}
	return nil
}

func (g *GridFSStore) Open(ctx context.Context, bucket, key string) (io.ReadCloser, error) {
	k, err := CleanKey(key)
	if err != nil {
		return nil, err
	}
	b, err := g.bucket(bucket)
	if err != nil {
		return nil, err
	}
	if dl, ok := ctx.Deadline(); ok {
		if err := b.SetReadDeadline(dl); err != nil {
			return nil, err
		}
	}
	stream, err := b.OpenDownloadStreamByName(k)
	if errors.Is(err, gridfs.ErrFileNotFound) {
		return nil, ErrObjectNotFound
	}
	if err != nil {
		return nil, err
	}
	return stream, nil
}

func (g *GridFSStore) Close(ctx context.Context) error { return g.client.Disconnect(ctx) }
