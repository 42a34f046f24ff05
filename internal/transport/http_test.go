package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rpggio/haulboard/internal/codec"
	"github.com/rpggio/haulboard/internal/domain/tracker"
	"github.com/rpggio/haulboard/internal/mcp"
	"github.com/stretchr/testify/require"
)

type testHandler struct {
	method string
	err    error
}

func (h *testHandler) Handle(_ context.Context, tenantID, sessionID, method string, params json.RawMessage) (any, error) {
	h.method = method
	if h.err != nil {
		return nil, h.err
	}
	return map[string]string{"tenant": tenantID, "session": sessionID}, nil
}

type staticResolver struct {
	tenant string
}

func (r *staticResolver) ResolveTenant(_ context.Context, token string) (string, error) {
	if token == "" {
		return "", ErrUnauthorized
	}
	return r.tenant, nil
}

type trackerStub struct {
	tenant   string
	imported string
}

func (s *trackerStub) Export(_ context.Context, tenantID string) (tracker.Export, error) {
	s.tenant = tenantID
	return tracker.Export{
		FileName:    "wind-turbine-tracking-2024-03-05.csv",
		ContentType: "text/csv",
		Content:     "\"Vessel\"\n\"MV Ocean\"",
		Rows:        1,
	}, nil
}

func (s *trackerStub) Import(_ context.Context, tenantID string, r io.Reader) (int, error) {
	s.tenant = tenantID
	data, err := io.ReadAll(r)
	if err != nil {
		return 0, err
	}
	s.imported = string(data)
	if bytes.Contains(data, []byte(`"broken`)) {
		return 0, fmt.Errorf("importing tracker rows: %w", codec.ErrMalformedInput)
	}
	return 2, nil
}

func postRPC(t *testing.T, url, body string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(http.MethodPost, url+"/rpc", bytes.NewBufferString(body))
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer token")
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Mcp-Session-Id", "sess1")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func decodeResponse(t *testing.T, resp *http.Response) Response {
	t.Helper()
	var out Response
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func TestHTTPServer_RPC(t *testing.T) {
	handler := &testHandler{}
	resolver := &staticResolver{tenant: "tenant1"}
	server := httptest.NewServer(NewServer(handler, &trackerStub{}, AuthMiddleware(resolver), nil))
	t.Cleanup(server.Close)

	resp := postRPC(t, server.URL, `{"jsonrpc":"2.0","method":"list_projects","id":1}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "list_projects", handler.method)

	out := decodeResponse(t, resp)
	require.Nil(t, out.Error)
	require.Equal(t, map[string]any{"tenant": "tenant1", "session": "sess1"}, out.Result)
}

func TestHTTPServer_RPCErrors(t *testing.T) {
	cases := []struct {
		name string
		err  error
		body string
		code int
	}{
		{name: "parse", body: `{"jsonrpc":`, code: ErrParseCode},
		{name: "invalid", body: `{"jsonrpc":"1.0","method":"x","id":1}`, code: ErrInvalidReq},
		{name: "unknown method", err: fmt.Errorf("%w: nope", mcp.ErrUnknownMethod), code: ErrMethodNotFound},
		{name: "domain", err: &mcp.APIError{Code: "ROW_NOT_FOUND", Message: "tracking row not found"}, code: ErrApplication},
		{name: "internal", err: fmt.Errorf("disk on fire"), code: ErrInternal},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			server := httptest.NewServer(NewServer(&testHandler{err: tc.err}, &trackerStub{}, TenantMiddleware("default"), nil))
			t.Cleanup(server.Close)

			body := tc.body
			if body == "" {
				body = `{"jsonrpc":"2.0","method":"tracker_delete_row","id":1}`
			}
			out := decodeResponse(t, postRPC(t, server.URL, body))
			require.NotNil(t, out.Error)
			require.Equal(t, tc.code, out.Error.Code)
		})
	}
}

func TestHTTPServer_Unauthorized(t *testing.T) {
	resolver := &staticResolver{tenant: "tenant1"}
	server := httptest.NewServer(NewServer(&testHandler{}, &trackerStub{}, AuthMiddleware(resolver), nil))
	t.Cleanup(server.Close)

	resp, err := http.Post(server.URL+"/rpc", "application/json", bytes.NewBufferString(`{"jsonrpc":"2.0","method":"list_projects","id":1}`))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestHTTPServer_Health(t *testing.T) {
	resolver := &staticResolver{tenant: "tenant1"}
	server := httptest.NewServer(NewServer(&testHandler{}, &trackerStub{}, AuthMiddleware(resolver), nil))
	t.Cleanup(server.Close)

	resp, err := http.Get(server.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestHTTPServer_TrackerExport(t *testing.T) {
	stub := &trackerStub{}
	server := httptest.NewServer(NewServer(&testHandler{}, stub, TenantMiddleware("default"), nil))
	t.Cleanup(server.Close)

	resp, err := http.Get(server.URL + "/tracker/export")
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "text/csv; charset=utf-8", resp.Header.Get("Content-Type"))
	require.Equal(t, "attachment; filename=wind-turbine-tracking-2024-03-05.csv", resp.Header.Get("Content-Disposition"))
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.Equal(t, "\"Vessel\"\n\"MV Ocean\"", string(body))
	require.Equal(t, "default", stub.tenant)
}

func TestHTTPServer_TrackerImportRawBody(t *testing.T) {
	stub := &trackerStub{}
	server := httptest.NewServer(NewServer(&testHandler{}, stub, TenantMiddleware("default"), nil))
	t.Cleanup(server.Close)

	resp, err := http.Post(server.URL+"/tracker/import", "text/csv", bytes.NewBufferString("\"h\"\n\"a\"\n\"b\""))
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	var out map[string]int
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	require.Equal(t, 2, out["imported"])
	require.Equal(t, "\"h\"\n\"a\"\n\"b\"", stub.imported)
}

func TestHTTPServer_TrackerImportMultipart(t *testing.T) {
	stub := &trackerStub{}
	server := httptest.NewServer(NewServer(&testHandler{}, stub, TenantMiddleware("default"), nil))
	t.Cleanup(server.Close)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", "board.csv")
	require.NoError(t, err)
	_, err = part.Write([]byte("\"h\"\n\"a\""))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	resp, err := http.Post(server.URL+"/tracker/import", mw.FormDataContentType(), &buf)
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "\"h\"\n\"a\"", stub.imported)
}

func TestHTTPServer_TrackerImportMalformed(t *testing.T) {
	server := httptest.NewServer(NewServer(&testHandler{}, &trackerStub{}, TenantMiddleware("default"), nil))
	t.Cleanup(server.Close)

	resp, err := http.Post(server.URL+"/tracker/import", "text/csv", bytes.NewBufferString("\"h\"\n\"broken"))
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	var out struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	require.Equal(t, "MALFORMED_INPUT", out.Error.Code)
}

func TestHTTPServer_TrackerImportMissingField(t *testing.T) {
	server := httptest.NewServer(NewServer(&testHandler{}, &trackerStub{}, TenantMiddleware("default"), nil))
	t.Cleanup(server.Close)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("other", "x"))
	require.NoError(t, mw.Close())

	resp, err := http.Post(server.URL+"/tracker/import", mw.FormDataContentType(), &buf)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestHTTPServer_TrackerImportTooLarge(t *testing.T) {
	old := maxImportBytes
	maxImportBytes = 1 << 10
	t.Cleanup(func() { maxImportBytes = old })

	server := httptest.NewServer(NewServer(&testHandler{}, &trackerStub{}, TenantMiddleware("default"), nil))
	t.Cleanup(server.Close)

	big := bytes.Repeat([]byte("\"row\"\n"), 1<<10)

	t.Run("multipart", func(t *testing.T) {
		var buf bytes.Buffer
		mw := multipart.NewWriter(&buf)
		part, err := mw.CreateFormFile("file", "board.csv")
		require.NoError(t, err)
		_, err = part.Write(big)
		require.NoError(t, err)
		require.NoError(t, mw.Close())

		resp, err := http.Post(server.URL+"/tracker/import", mw.FormDataContentType(), &buf)
		require.NoError(t, err)
		defer resp.Body.Close()
		require.Equal(t, http.StatusRequestEntityTooLarge, resp.StatusCode)
	})

	t.Run("raw body", func(t *testing.T) {
		resp, err := http.Post(server.URL+"/tracker/import", "text/csv", bytes.NewReader(big))
		require.NoError(t, err)
		defer resp.Body.Close()
		require.Equal(t, http.StatusRequestEntityTooLarge, resp.StatusCode)
	})
}
