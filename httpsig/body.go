package httpsig

import (
	"bytes"
	"io"
	"net/http"
)

// readAndRestoreBody reads the entire request body and replaces it with a
// new reader so the body can be consumed again downstream.
func readAndRestoreBody(r *http.Request) ([]byte, error) {
	if r.Body == nil || r.Body == http.NoBody {
		return nil, nil
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		return nil, err
	}

	r.Body.Close()
	r.Body = io.NopCloser(bytes.NewReader(body))

	return body, nil
}

// readAndRestoreResponseBody is readAndRestoreBody for responses.
func readAndRestoreResponseBody(resp *http.Response) ([]byte, error) {
	if resp.Body == nil || resp.Body == http.NoBody {
		return []byte{}, nil
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	resp.Body.Close()
	resp.Body = io.NopCloser(bytes.NewReader(body))

	return body, nil
}
