package ingest

import (
	"bytes"
	"context"
	"fmt"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/wxoracle/wxoracle/internal/apierr"
)

// Uploader POSTs a staged snapshot file to the oracle's Upload
// Endpoint (spec.md §4.G) as multipart/form-data, honoring the 30s
// outbound timeout from §5.
type Uploader struct {
	BaseURL string
	Client  *http.Client
}

// NewUploader constructs an Uploader targeting baseURL (the oracle's
// address, e.g. "https://oracle.example.com").
func NewUploader(baseURL string) *Uploader {
	return &Uploader{BaseURL: baseURL, Client: &http.Client{Timeout: 30 * time.Second}}
}

// Upload POSTs the given bytes as the named snapshot file. A 409
// response (duplicate name) is treated as success: restart-safe file
// naming means the daemon may re-attempt an upload that already landed.
func (u *Uploader) Upload(ctx context.Context, name string, data []byte) error {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", name)
	if err != nil {
		return apierr.Wrap(apierr.Fatal, "build upload multipart body", err)
	}
	if _, err := part.Write(data); err != nil {
		return apierr.Wrap(apierr.Fatal, "write upload multipart body", err)
	}
	if err := mw.Close(); err != nil {
		return apierr.Wrap(apierr.Fatal, "close upload multipart body", err)
	}

	url := fmt.Sprintf("%s/file/%s", u.BaseURL, name)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, &buf)
	if err != nil {
		return apierr.Wrap(apierr.Fatal, "build upload request", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := u.Client.Do(req)
	if err != nil {
		return apierr.Wrap(apierr.Transient, "upload snapshot", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK, resp.StatusCode == http.StatusConflict:
		return nil
	case resp.StatusCode >= 500:
		return apierr.New(apierr.Transient, "oracle returned "+resp.Status)
	default:
		return apierr.New(apierr.InvalidInput, "oracle rejected upload: "+resp.Status)
	}
}
