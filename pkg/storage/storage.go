// Package storage archives rendered artifacts in Azure Blob Storage.
package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"strings"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/blob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/bloberror"

	"github.com/JaimeStill/noteforge/pkg/lifecycle"
)

// Info describes an archived object without its content.
type Info struct {
	Key          string
	ContentType  string
	Filename     string
	Size         int64
	LastModified time.Time
}

// Object is an archived artifact held fully in memory.
type Object struct {
	Info
	Data []byte
}

// System stores and retrieves archived artifacts by key.
type System interface {
	// Start registers a startup hook that ensures the container exists.
	Start(lc *lifecycle.Coordinator) error
	// Put writes obj.Data at key. Filename, when set, is recorded as the
	// attachment name served on download.
	Put(ctx context.Context, key string, obj *Object) error
	// Get returns the object at key or ErrNotFound.
	Get(ctx context.Context, key string) (*Object, error)
	// Stat returns the object's metadata or ErrNotFound.
	Stat(ctx context.Context, key string) (*Info, error)
	// Delete removes the object at key or returns ErrNotFound.
	Delete(ctx context.Context, key string) error
}

type azure struct {
	client    *azblob.Client
	container string
	logger    *slog.Logger
}

// New creates a storage system from cfg. It returns ErrDisabled when no
// connection string is configured. No request is made until Start.
func New(cfg *Config, logger *slog.Logger) (System, error) {
	if !cfg.Enabled() {
		return nil, ErrDisabled
	}

	client, err := azblob.NewClientFromConnectionString(cfg.ConnectionString, nil)
	if err != nil {
		return nil, fmt.Errorf("create storage client: %w", err)
	}

	return &azure{
		client:    client,
		container: cfg.ContainerName,
		logger:    logger.With("system", "storage", "container", cfg.ContainerName),
	}, nil
}

func (a *azure) Start(lc *lifecycle.Coordinator) error {
	a.logger.Info("starting storage system")

	lc.OnStartup(func(ctx context.Context) error {
		_, err := a.client.CreateContainer(ctx, a.container, nil)
		if err != nil && !bloberror.HasCode(err, bloberror.ContainerAlreadyExists) {
			a.logger.Error("storage container initialization failed", "error", err)
			return fmt.Errorf("create container %s: %w", a.container, err)
		}
		a.logger.Info("storage container ready")
		return nil
	})

	return nil
}

func (a *azure) Put(ctx context.Context, key string, obj *Object) error {
	if err := validateKey(key); err != nil {
		return err
	}

	headers := &blob.HTTPHeaders{BlobContentType: &obj.ContentType}
	if obj.Filename != "" {
		disposition := mime.FormatMediaType("attachment", map[string]string{"filename": obj.Filename})
		headers.BlobContentDisposition = &disposition
	}

	_, err := a.client.UploadBuffer(ctx, a.container, key, obj.Data, &azblob.UploadBufferOptions{
		HTTPHeaders: headers,
	})
	if err != nil {
		return fmt.Errorf("put %s: %w", key, err)
	}

	a.logger.Info("object stored", "key", key, "size", len(obj.Data))
	return nil
}

func (a *azure) Get(ctx context.Context, key string) (*Object, error) {
	if err := validateKey(key); err != nil {
		return nil, err
	}

	resp, err := a.client.DownloadStream(ctx, a.container, key, nil)
	if err != nil {
		return nil, mapError("get", key, err)
	}
	defer resp.Body.Close()

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, resp.Body); err != nil {
		return nil, fmt.Errorf("read %s: %w", key, err)
	}

	return &Object{
		Info: newInfo(key, resp.ContentType, resp.ContentDisposition, resp.ContentLength, resp.LastModified),
		Data: buf.Bytes(),
	}, nil
}

func (a *azure) Stat(ctx context.Context, key string) (*Info, error) {
	if err := validateKey(key); err != nil {
		return nil, err
	}

	props, err := a.client.
		ServiceClient().
		NewContainerClient(a.container).
		NewBlobClient(key).
		GetProperties(ctx, nil)
	if err != nil {
		return nil, mapError("stat", key, err)
	}

	info := newInfo(key, props.ContentType, props.ContentDisposition, props.ContentLength, props.LastModified)
	return &info, nil
}

func (a *azure) Delete(ctx context.Context, key string) error {
	if err := validateKey(key); err != nil {
		return err
	}

	if _, err := a.client.DeleteBlob(ctx, a.container, key, nil); err != nil {
		return mapError("delete", key, err)
	}

	a.logger.Info("object deleted", "key", key)
	return nil
}

func newInfo(key string, contentType, disposition *string, size *int64, modified *time.Time) Info {
	info := Info{Key: key}
	if contentType != nil {
		info.ContentType = *contentType
	}
	if disposition != nil {
		if _, params, err := mime.ParseMediaType(*disposition); err == nil {
			info.Filename = params["filename"]
		}
	}
	if size != nil {
		info.Size = *size
	}
	if modified != nil {
		info.LastModified = *modified
	}
	return info
}

func mapError(op, key string, err error) error {
	if bloberror.HasCode(err, bloberror.BlobNotFound, bloberror.ContainerNotFound) {
		return fmt.Errorf("%s %s: %w", op, key, ErrNotFound)
	}
	return fmt.Errorf("%s %s: %w", op, key, err)
}

func validateKey(key string) error {
	if key == "" {
		return ErrEmptyKey
	}
	for segment := range strings.SplitSeq(key, "/") {
		if segment == ".." || segment == "." {
			return ErrInvalidKey
		}
	}
	if strings.HasPrefix(key, "/") {
		return ErrInvalidKey
	}
	return nil
}
