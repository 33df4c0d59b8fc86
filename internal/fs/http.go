// © 2023 Microglot LLC
//
// SPDX-License-Identifier: Apache-2.0

package fs

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"

	"gopkg.microglot.org/avdl.go/internal/exc"
	"gopkg.microglot.org/avdl.go/internal/idl"
)

type fileSystemHTTP struct {
	base   *url.URL
	client *http.Client
}

// NewFileSystemHTTP returns a read-only FileSystem that fetches files with GET
// requests. Absolute http and https URIs are fetched as-is. Rooted paths are
// resolved against baseURL, which may be empty to only accept absolute URIs.
// A nil client selects http.DefaultClient.
func NewFileSystemHTTP(baseURL string, client *http.Client) (idl.FileSystem, error) {
	var base *url.URL
	if baseURL != "" {
		u, err := url.Parse(baseURL)
		if err != nil {
			return nil, exc.WrapUnknown(exc.Location{URI: baseURL}, err)
		}
		if u.Scheme != "http" && u.Scheme != "https" {
			return nil, exc.New(exc.Location{URI: baseURL}, exc.CodeUnsuportedFileSystemOperation, fmt.Sprintf("unsupported scheme %q", u.Scheme))
		}
		base = u
	}
	if client == nil {
		client = http.DefaultClient
	}
	return &fileSystemHTTP{base: base, client: client}, nil
}

func (h *fileSystemHTTP) resolve(uri string) (string, error) {
	u, err := url.Parse(uri)
	if err != nil {
		return "", exc.Wrap(exc.Location{URI: uri}, exc.CodeFileNotFound, err)
	}
	if u.Scheme == "http" || u.Scheme == "https" {
		return u.String(), nil
	}
	if u.Scheme != "" || h.base == nil {
		return "", exc.New(exc.Location{URI: uri}, exc.CodeFileNotFound, fmt.Sprintf("%s is not an http resource", uri))
	}
	resolved := *h.base
	resolved.Path = path.Join("/", h.base.Path, u.Path)
	resolved.RawPath = ""
	return resolved.String(), nil
}

// Open fetches the resource immediately so that transport failures are
// reported by Open rather than by a later read.
func (h *fileSystemHTTP) Open(ctx context.Context, uri string) ([]idl.File, error) {
	resolved, err := h.resolve(uri)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, resolved, nil)
	if err != nil {
		return nil, exc.WrapUnknown(exc.Location{URI: resolved}, err)
	}
	resp, err := h.client.Do(req)
	if err != nil {
		return nil, exc.Wrap(exc.Location{URI: resolved}, exc.CodeImportFailed, err)
	}
	defer resp.Body.Close()
	switch {
	case resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusGone:
		return nil, exc.New(exc.Location{URI: resolved}, exc.CodeFileNotFound, resp.Status)
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, exc.New(exc.Location{URI: resolved}, exc.CodePermissionDenied, resp.Status)
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return nil, exc.New(exc.Location{URI: resolved}, exc.CodeImportFailed, resp.Status)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, exc.Wrap(exc.Location{URI: resolved}, exc.CodeImportFailed, err)
	}
	return []idl.File{NewFileString(uri, string(body), KindOf(resolved))}, nil
}

func (h *fileSystemHTTP) Write(ctx context.Context, uri string, content string) error {
	return exc.New(exc.Location{URI: uri}, exc.CodeUnsuportedFileSystemOperation, "cannot write to an http file system")
}
