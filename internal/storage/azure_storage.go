package storage

import (
	"context"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"sort"

	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
)

// azureFrameStore reads recorded frames from a blob container
type azureFrameStore struct {
	client    *azblob.Client
	container string
	prefix    string
}

// NewAzureFrameStore creates a store over the blobs of container whose
// names start with prefix.
func NewAzureFrameStore(accountName, accountKey, container, prefix string) (FrameStore, error) {
	credential, err := azblob.NewSharedKeyCredential(accountName, accountKey)
	if err != nil {
		return nil, err
	}

	client, err := azblob.NewClientWithSharedKeyCredential(
		fmt.Sprintf("https://%s.blob.core.windows.net", accountName),
		credential,
		nil,
	)
	if err != nil {
		return nil, fmt.Errorf("create blob client: %w", err)
	}

	return &azureFrameStore{client: client, container: container, prefix: prefix}, nil
}

func (s *azureFrameStore) List(ctx context.Context) ([]string, error) {
	var opts *azblob.ListBlobsFlatOptions
	if s.prefix != "" {
		prefix := s.prefix
		opts = &azblob.ListBlobsFlatOptions{Prefix: &prefix}
	}

	var names []string
	pager := s.client.NewListBlobsFlatPager(s.container, opts)
	for pager.More() {
		page, err := pager.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("list blobs: %w", err)
		}
		if page.Segment == nil {
			continue
		}
		for _, item := range page.Segment.BlobItems {
			if item.Name != nil && isFrameFile(*item.Name) {
				names = append(names, *item.Name)
			}
		}
	}
	sort.Strings(names)
	return names, nil
}

func (s *azureFrameStore) Fetch(ctx context.Context, blobName string) (image.Image, error) {
	downloadResponse, err := s.client.DownloadStream(ctx, s.container, blobName, nil)
	if err != nil {
		return nil, fmt.Errorf("download failed: %w", err)
	}

	retryReader := downloadResponse.Body
	defer retryReader.Close()

	img, _, err := image.Decode(retryReader)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", blobName, err)
	}
	return img, nil
}
