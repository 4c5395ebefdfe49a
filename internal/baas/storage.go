package baas

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
)

// Upload stores data as an object at bucket/path, replacing any existing
// object. Used for meal photos and exported reports.
func (c *Client) Upload(ctx context.Context, accessToken, bucket, path string, data []byte, contentType string) error {
	url := fmt.Sprintf("%s/storage/v1/object/%s/%s", c.baseURL, bucket, path)
	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewReader(data))
	if err != nil {
		return &Error{Kind: KindValidation, Message: "build upload request", Err: err}
	}
	req.Header.Set("apikey", c.anonKey)
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("x-upsert", "true")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &Error{Kind: KindNetwork, Message: "upload failed", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(resp.Body)
		return &Error{Kind: classify(resp.StatusCode), Status: resp.StatusCode, Message: errorMessage(body)}
	}
	return nil
}

// Download fetches the object at bucket/path.
func (c *Client) Download(ctx context.Context, accessToken, bucket, path string) ([]byte, error) {
	url := fmt.Sprintf("%s/storage/v1/object/%s/%s", c.baseURL, bucket, path)
	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return nil, &Error{Kind: KindValidation, Message: "build download request", Err: err}
	}
	req.Header.Set("apikey", c.anonKey)
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &Error{Kind: KindNetwork, Message: "download failed", Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &Error{Kind: KindNetwork, Message: "read object", Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &Error{Kind: classify(resp.StatusCode), Status: resp.StatusCode, Message: errorMessage(data)}
	}
	return data, nil
}

// RemoveObject deletes the object at bucket/path.
func (c *Client) RemoveObject(ctx context.Context, accessToken, bucket, path string) error {
	url := fmt.Sprintf("/storage/v1/object/%s/%s", bucket, path)
	return c.do(ctx, "DELETE", url, accessToken, nil, nil)
}
