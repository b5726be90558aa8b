// Package storage stores uploaded files (business logos) on local disk or in
// an S3-compatible bucket.
package storage

import (
	"context"
	"errors"
	"io"
	"path"
	"strings"
)

var ErrInvalidKey = errors.New("storage key is required")

// Storage puts and deletes objects addressed by a slash-separated key.
type Storage interface {
	Put(ctx context.Context, key, contentType string, body io.Reader, size int64) error
	Delete(ctx context.Context, key string) error
	URL(key string) string
}

// KeyFromURL recovers the key of an object previously returned by URL, or ""
// if the URL was not produced under baseURL.
func KeyFromURL(baseURL, url string) string {
	base := strings.TrimRight(baseURL, "/") + "/"
	if url == "" || !strings.HasPrefix(url, base) {
		return ""
	}
	return strings.TrimPrefix(url, base)
}

func cleanKey(key string) (string, error) {
	key = strings.TrimLeft(path.Clean("/"+key), "/")
	if key == "" || key == "." {
		return "", ErrInvalidKey
	}
	return key, nil
}

func joinURL(base, key string) string {
	return strings.TrimRight(base, "/") + "/" + key
}
