package kurir

import "context"

// UploadFile streams the file at path as the request body, through the same
// interceptor chain and retry policy as Do.
func (c *Client) UploadFile(ctx context.Context, req *Request, path string) (*Response, error) {
	return c.run(ctx, req, func(ctx context.Context, r *Request) (*RawResponse, error) {
		return c.transport.Upload(ctx, r, path)
	})
}

// DownloadFile streams the response body to a temporary file and returns its
// path, through the same interceptor chain and retry policy as Do. The caller
// owns the returned file.
func (c *Client) DownloadFile(ctx context.Context, req *Request) (string, error) {
	var localPath string
	_, err := c.run(ctx, req, func(ctx context.Context, r *Request) (*RawResponse, error) {
		path, raw, err := c.transport.Download(ctx, r)
		if err != nil {
			return nil, err
		}
		localPath = path
		return raw, nil
	})
	if err != nil {
		return "", err
	}
	return localPath, nil
}
