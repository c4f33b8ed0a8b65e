package storage

import (
	"context"
	"fmt"
	"image"
	"net/url"
	"strings"

	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/blob"

	apperrors "github.com/anime-shed/image-compare-go/internal/errors"
)

// AzureStorage fetches images from Azure Blob Storage and uploads batch
// reports into a dedicated container.
type AzureStorage struct {
	client          *azblob.Client
	reportContainer string
}

// NewAzureStorage creates a shared-key authenticated blob client
func NewAzureStorage(accountName, accountKey, reportContainer string) (*AzureStorage, error) {
	credential, err := azblob.NewSharedKeyCredential(accountName, accountKey)
	if err != nil {
		return nil, apperrors.NewValidationError("invalid Azure credentials", err)
	}

	client, err := azblob.NewClientWithSharedKeyCredential(
		fmt.Sprintf("https://%s.blob.core.windows.net", accountName),
		credential,
		nil,
	)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to create Azure blob client", err)
	}

	return &AzureStorage{client: client, reportContainer: reportContainer}, nil
}

// ParseBlobLocation splits a location into container and blob name. It
// accepts "container/path/to/blob" and full blob URLs.
func ParseBlobLocation(location string) (container, blobName string, err error) {
	path := location
	if strings.Contains(location, "://") {
		u, perr := url.Parse(location)
		if perr != nil {
			return "", "", apperrors.NewValidationError("invalid blob URL", perr)
		}
		path = u.Path
	}
	path = strings.TrimPrefix(path, "/")
	container, blobName, ok := strings.Cut(path, "/")
	if !ok || container == "" || blobName == "" {
		return "", "", apperrors.NewValidationError("blob location must be container/blob", nil).WithDetails(location)
	}
	return container, blobName, nil
}

func (s *AzureStorage) FetchImage(ctx context.Context, location string) (image.Image, error) {
	container, blobName, err := ParseBlobLocation(location)
	if err != nil {
		return nil, err
	}

	resp, err := s.client.DownloadStream(ctx, container, blobName, nil)
	if err != nil {
		return nil, apperrors.NewNetworkError("blob download failed", err).WithDetails(location)
	}
	defer resp.Body.Close()

	img, _, err := image.Decode(resp.Body)
	if err != nil {
		return nil, apperrors.NewValidationError("failed to decode image", err).WithDetails(location)
	}
	return img, nil
}

// Upload stores data as name inside the report container.
func (s *AzureStorage) Upload(ctx context.Context, name string, data []byte, contentType string) error {
	_, err := s.client.UploadBuffer(ctx, s.reportContainer, name, data, &azblob.UploadBufferOptions{
		HTTPHeaders: &blob.HTTPHeaders{BlobContentType: &contentType},
	})
	if err != nil {
		return apperrors.NewNetworkError("blob upload failed", err).WithDetails(s.reportContainer + "/" + name)
	}
	return nil
}

// ReportContainer returns the container reports are uploaded to.
func (s *AzureStorage) ReportContainer() string { return s.reportContainer }
