package cache

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/bloberror"
)

type BlobCache struct {
	containerClient *azblob.Client
	container       string
}

var _ Cache = (*BlobCache)(nil)

// NewBlobCache uses the shared account key when one is given and the default
// Azure credential chain (managed identity, CLI login, ...) otherwise.
func NewBlobCache(accountName, accountKey, container string) (*BlobCache, error) {
	if accountName == "" {
		return nil, errors.New("azure storage account name is required")
	}
	// The service URL for blob endpoints is usually in the form: http(s)://<account>.blob.core.windows.net/
	serviceURL := fmt.Sprintf("https://%s.blob.core.windows.net/", accountName)

	var client *azblob.Client
	if accountKey != "" {
		cred, err := azblob.NewSharedKeyCredential(accountName, accountKey)
		if err != nil {
			return nil, fmt.Errorf("failed to create shared key credential: %w", err)
		}
		client, err = azblob.NewClientWithSharedKeyCredential(serviceURL, cred, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create blob client: %w", err)
		}
	} else {
		cred, err := defaultCredential()
		if err != nil {
			return nil, err
		}
		client, err = azblob.NewClient(serviceURL, cred, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create blob client: %w", err)
		}
	}

	return &BlobCache{
		containerClient: client,
		container:       container,
	}, nil
}

func defaultCredential() (azcore.TokenCredential, error) {
	cred, err := azidentity.NewDefaultAzureCredential(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create default azure credential: %w", err)
	}
	return cred, nil
}

func (bc *BlobCache) Get(ctx context.Context, key string) (string, error) {
	stream, err := bc.containerClient.DownloadStream(ctx, bc.container, key, nil)
	if err != nil {
		if bloberror.HasCode(err, bloberror.BlobNotFound, bloberror.ContainerNotFound) {
			return "", ErrNotFound
		}
		slog.ErrorContext(ctx, "failed to download blob", "key", key, "error", err)
		return "", err
	}
	defer func() {
		if err := stream.Body.Close(); err != nil {
			slog.ErrorContext(ctx, "failed to close blob stream", "key", key, "error", err)
		}
	}()

	data, err := io.ReadAll(stream.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read blob %s: %w", key, err)
	}
	return string(data), nil
}

func (bc *BlobCache) Set(ctx context.Context, key, value string) error {
	_, err := bc.containerClient.UploadBuffer(ctx, bc.container, key, []byte(value), nil)
	return err
}

// Ready creates the container on first use.
func (bc *BlobCache) Ready(ctx context.Context) error {
	_, err := bc.containerClient.CreateContainer(ctx, bc.container, nil)
	if err != nil && !bloberror.HasCode(err, bloberror.ContainerAlreadyExists) {
		return fmt.Errorf("failed to ensure container %s: %w", bc.container, err)
	}
	return nil
}
