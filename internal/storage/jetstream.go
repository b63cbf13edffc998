package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
)

// JetStreamStore implements ObjectStore using a NATS JetStream object store bucket.
type JetStreamStore struct {
	conn    *nats.Conn
	js      jetstream.JetStream
	store   jetstream.ObjectStore
	bucket  string
	baseURL string
}

// NewJetStreamStore connects to NATS and opens (or creates) the bucket.
func NewJetStreamStore(ctx context.Context, natsURL, bucket, baseURL string) (*JetStreamStore, error) {
	conn, err := nats.Connect(natsURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	js, err := jetstream.New(conn)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to create JetStream context: %w", err)
	}

	store, err := js.ObjectStore(ctx, bucket)
	if err != nil {
		store, err = js.CreateObjectStore(ctx, jetstream.ObjectStoreConfig{
			Bucket:      bucket,
			Description: "Product image storage",
		})
		if err != nil {
			conn.Close()
			return nil, fmt.Errorf("failed to create object store bucket: %w", err)
		}
	}

	return &JetStreamStore{
		conn:    conn,
		js:      js,
		store:   store,
		bucket:  bucket,
		baseURL: baseURL,
	}, nil
}

func contentTypeOf(headers nats.Header) string {
	if headers != nil {
		if ct := headers.Get("Content-Type"); ct != "" {
			return ct
		}
	}
	return "application/octet-stream"
}

func (s *JetStreamStore) Put(ctx context.Context, key string, data []byte, contentType string) (*ObjectInfo, error) {
	cleaned, err := cleanKey(key)
	if err != nil {
		return nil, err
	}
	meta := jetstream.ObjectMeta{
		Name: cleaned,
		Headers: nats.Header{
			"Content-Type": []string{contentType},
		},
	}

	info, err := s.store.Put(ctx, meta, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to store object: %w", err)
	}

	return &ObjectInfo{
		Key:         info.Name,
		Size:        info.Size,
		ContentType: contentType,
		ModTime:     info.ModTime,
	}, nil
}

func (s *JetStreamStore) Get(ctx context.Context, key string) ([]byte, *ObjectInfo, error) {
	info, err := s.store.GetInfo(ctx, key)
	if err != nil {
		if errors.Is(err, jetstream.ErrObjectNotFound) {
			return nil, nil, ErrObjectNotFound
		}
		return nil, nil, fmt.Errorf("failed to stat object: %w", err)
	}
	data, err := s.store.GetBytes(ctx, key)
	if err != nil {
		if errors.Is(err, jetstream.ErrObjectNotFound) {
			return nil, nil, ErrObjectNotFound
		}
		return nil, nil, fmt.Errorf("failed to read object: %w", err)
	}
	return data, &ObjectInfo{
		Key:         info.Name,
		Size:        info.Size,
		ContentType: contentTypeOf(info.Headers),
		ModTime:     info.ModTime,
	}, nil
}

// Delete removes the object. A missing object is not an error.
func (s *JetStreamStore) Delete(ctx context.Context, key string) error {
	if err := s.store.Delete(ctx, key); err != nil && !errors.Is(err, jetstream.ErrObjectNotFound) {
		return fmt.Errorf("failed to delete object: %w", err)
	}
	return nil
}

func (s *JetStreamStore) List(ctx context.Context, prefix string) ([]*ObjectInfo, error) {
	infos, err := s.store.List(ctx)
	if err != nil {
		if errors.Is(err, jetstream.ErrNoObjectsFound) {
			return []*ObjectInfo{}, nil
		}
		return nil, fmt.Errorf("failed to list objects: %w", err)
	}

	objects := make([]*ObjectInfo, 0, len(infos))
	for _, info := range infos {
		if info.Deleted || !strings.HasPrefix(info.Name, prefix) {
			continue
		}
		objects = append(objects, &ObjectInfo{
			Key:         info.Name,
			Size:        info.Size,
			ContentType: contentTypeOf(info.Headers),
			ModTime:     info.ModTime,
		})
	}
	return objects, nil
}

func (s *JetStreamStore) URL(key string) string {
	return publicURL(s.baseURL, key)
}

// Close closes the NATS connection.
func (s *JetStreamStore) Close() error {
	if s.conn != nil {
		s.conn.Close()
	}
	return nil
}
