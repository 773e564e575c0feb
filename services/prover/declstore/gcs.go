// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package declstore

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"
)

// GCSClient fetches and publishes snapshot files in a bucket.
type GCSClient struct {
	storageClient *storage.Client
	BucketName    string
}

// NewGCSClient builds a client for the given bucket. With a non-empty
// saKeyPath the service-account key file is used; otherwise ambient
// credentials apply.
func NewGCSClient(ctx context.Context, bucketName, saKeyPath string) (*GCSClient, error) {
	var opts []option.ClientOption
	if saKeyPath != "" {
		if _, err := os.Stat(saKeyPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("service account key not found at path: %s. Please ensure you have the correct key and it is accessible", saKeyPath)
		}
		opts = append(opts, option.WithCredentialsFile(saKeyPath))
	}

	storageClient, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCS storage client: %w", err)
	}

	return &GCSClient{
		storageClient: storageClient,
		BucketName:    bucketName,
	}, nil
}

// Close releases the underlying client.
func (c *GCSClient) Close() error {
	return c.storageClient.Close()
}

// FetchSnapshot downloads one snapshot object into destDir and
// returns the local path.
func (c *GCSClient) FetchSnapshot(ctx context.Context, object, destDir string) (string, error) {
	reader, err := c.storageClient.Bucket(c.BucketName).Object(object).NewReader(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to open GCS object %s: %w", object, err)
	}
	defer reader.Close()

	if err := os.MkdirAll(destDir, 0750); err != nil {
		return "", fmt.Errorf("create snapshot directory %s: %w", destDir, err)
	}

	localPath := filepath.Join(destDir, filepath.Base(object))
	localFile, err := os.Create(localPath)
	if err != nil {
		return "", fmt.Errorf("failed to create local file %s: %w", localPath, err)
	}
	defer localFile.Close()

	if _, err := io.Copy(localFile, reader); err != nil {
		return "", fmt.Errorf("failed to copy GCS object %s to %s: %w", object, localPath, err)
	}

	slog.Info("Fetched snapshot from GCS",
		"bucket", c.BucketName,
		"object", object,
		"path", localPath)
	return localPath, nil
}

// UploadSnapshot publishes one local snapshot file under the given
// object name.
func (c *GCSClient) UploadSnapshot(ctx context.Context, localPath, object string) error {
	localFile, err := os.Open(localPath)
	if err != nil {
		return fmt.Errorf("failed to open the local file: %s: %w", localPath, err)
	}
	defer localFile.Close()

	obj := c.storageClient.Bucket(c.BucketName).Object(object)
	writer := obj.NewWriter(ctx)
	writer.ContentType = "application/json"
	writer.CacheControl = "no-cache, no-store, must-revalidate"

	if _, err := io.Copy(writer, localFile); err != nil {
		return fmt.Errorf("failed to copy local file %s to GCS object %s: %w", localPath, object, err)
	}

	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to close GCS writer for %s: %w", object, err)
	}

	slog.Info("Uploaded snapshot to GCS",
		"bucket", c.BucketName,
		"object", object)
	return nil
}
