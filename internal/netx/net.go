package netx

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
)

// Put uploads body to url, typically a presigned object URL. Any status other
// than 200, 201 or 204 is an error carrying the response body.
func Put(ctx context.Context, client *http.Client, url, contentType string, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", contentType)

	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK, http.StatusCreated, http.StatusNoContent:
		return nil
	}
	b, _ := io.ReadAll(resp.Body)
	return fmt.Errorf("upload failed: %s; body: %s", resp.Status, string(b))
}
