// Package netx uploads payloads to presigned object-storage URLs.
package netx

import (
	"context"
	"fmt"
	"io"
	"net/http"
)

// PutPresigned streams body to a presigned PUT URL. Any 2xx status is success.
// A nil client means http.DefaultClient.
func PutPresigned(ctx context.Context, client *http.Client, url string, body io.Reader, size int64, contentType string) error {
	if client == nil {
		client = http.DefaultClient
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, url, body)
	if err != nil {
		return err
	}
	if size >= 0 {
		req.ContentLength = size
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		return fmt.Errorf("upload failed: %s; body: %s", resp.Status, string(b))
	}
	return nil
}
