package s3store

import (
	"bufio"
	"bytes"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync"
)

// mockRoundTripper is a tiny fake S3 covering GetObject and PutObject with
// path-style addressing.
type mockRoundTripper struct {
	mu      sync.Mutex
	objects map[string]mockObject
	fail    bool
}

type mockObject struct {
	body        []byte
	contentType string
}

func newMockRoundTripper() *mockRoundTripper {
	return &mockRoundTripper{objects: map[string]mockObject{}}
}

func (m *mockRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.fail {
		return respond(http.StatusForbidden, "<Error><Code>AccessDenied</Code><Message>denied</Message></Error>", nil), nil
	}

	parts := strings.SplitN(strings.TrimPrefix(req.URL.Path, "/"), "/", 2)
	key := ""
	if len(parts) == 2 {
		key = parts[1]
	}

	switch req.Method {
	case http.MethodPut:
		body, _ := io.ReadAll(req.Body)
		if decoded, ok := decodeChunked(body); ok {
			body = decoded
		}
		m.objects[key] = mockObject{body: body, contentType: req.Header.Get("Content-Type")}
		return respond(http.StatusOK, "", http.Header{"ETag": {`"etag"`}}), nil
	case http.MethodGet:
		obj, ok := m.objects[key]
		if !ok {
			return respond(http.StatusNotFound, "<Error><Code>NoSuchKey</Code><Message>missing</Message></Error>", nil), nil
		}
		return respond(http.StatusOK, string(obj.body), http.Header{
			"Content-Length": {strconv.Itoa(len(obj.body))},
			"Content-Type":   {obj.contentType},
		}), nil
	}
	return respond(http.StatusNotImplemented, "", nil), nil
}

func (m *mockRoundTripper) object(key string) (mockObject, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	obj, ok := m.objects[key]
	return obj, ok
}

func respond(status int, body string, header http.Header) *http.Response {
	if header == nil {
		header = http.Header{}
	}
	if body != "" && header.Get("Content-Type") == "" {
		header.Set("Content-Type", "application/xml")
	}
	return &http.Response{
		StatusCode: status,
		Header:     header,
		Body:       io.NopCloser(strings.NewReader(body)),
	}
}

// decodeChunked strips aws-chunked framing: <hex>[;ext]\r\n<data>\r\n ... 0\r\n<trailers>.
func decodeChunked(raw []byte) ([]byte, bool) {
	reader := bufio.NewReader(bytes.NewReader(raw))
	var out bytes.Buffer
	for {
		line, err := reader.ReadString('\n')
		if err != nil {
			return nil, false
		}
		header := strings.TrimSpace(line)
		if idx := strings.IndexByte(header, ';'); idx >= 0 {
			header = header[:idx]
		}
		size, err := strconv.ParseInt(header, 16, 64)
		if err != nil {
			return nil, false
		}
		if size == 0 {
			return out.Bytes(), true
		}
		if _, err := io.CopyN(&out, reader, size); err != nil {
			return nil, false
		}
		if _, err := reader.Discard(2); err != nil {
			return nil, false
		}
	}
}

