package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc, token string) *HTTPClient {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	client, err := NewHTTPClient(HTTPConfig{BaseURL: server.URL + "/", Tokens: StaticToken(token)})
	require.NoError(t, err)
	return client
}

func writeJSON(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_, _ = io.WriteString(w, body)
}

func TestHTTPClientSendsBearerAndJSON(t *testing.T) {
	var (
		auth   string
		ctype  string
		method string
		body   map[string]any
	)
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		ctype = r.Header.Get("Content-Type")
		method = r.Method
		_ = json.NewDecoder(r.Body).Decode(&body)
		writeJSON(w, http.StatusOK, `{"ok": true}`)
	}, "abc")

	var out map[string]any
	require.NoError(t, client.Post(context.Background(), "auth/login/", map[string]string{"email": "a@b.c"}, &out))
	assert.Equal(t, "Bearer abc", auth)
	assert.Equal(t, "application/json", ctype)
	assert.Equal(t, http.MethodPost, method)
	assert.Equal(t, "a@b.c", body["email"])
	assert.Equal(t, true, out["ok"])
}

func TestHTTPClientOmitsAuthorizationWithoutToken(t *testing.T) {
	var auth []string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Values("Authorization")
		w.WriteHeader(http.StatusNoContent)
	}, "")
	require.NoError(t, client.Delete(context.Background(), "/api/carrito/1/", nil))
	assert.Empty(t, auth)
}

func TestHTTPClientTokenIsReadPerRequest(t *testing.T) {
	token := "first"
	var seen []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = append(seen, r.Header.Get("Authorization"))
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()
	client, err := NewHTTPClient(HTTPConfig{BaseURL: server.URL, Tokens: TokenFunc(func() string { return token })})
	require.NoError(t, err)

	require.NoError(t, client.Get(context.Background(), "/auth/me/", nil, nil))
	token = "second"
	require.NoError(t, client.Get(context.Background(), "/auth/me/", nil, nil))
	assert.Equal(t, []string{"Bearer first", "Bearer second"}, seen)
}

func TestHTTPClientSendsMultipartForms(t *testing.T) {
	var (
		message  string
		fileName string
		content  string
	)
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		message = r.FormValue("mensaje")
		file, header, err := r.FormFile("imagen")
		if err != nil {
			writeJSON(w, http.StatusBadRequest, `{"imagen": ["missing"]}`)
			return
		}
		defer file.Close()
		data, _ := io.ReadAll(file)
		fileName = header.Filename
		content = string(data)
		writeJSON(w, http.StatusCreated, `{"id": 1}`)
	}, "tok")

	form := NewForm().Set("mensaje", "sigue roto").AddFile("imagen", "foto.png", strings.NewReader("PNG"))
	require.NoError(t, client.Post(context.Background(), "/api/reportes-fallas/1/followups/", form, nil))
	assert.Equal(t, "sigue roto", message)
	assert.Equal(t, "foto.png", fileName)
	assert.Equal(t, "PNG", content)
}

func TestHTTPClientErrorMessages(t *testing.T) {
	cases := []struct {
		name    string
		ctype   string
		status  int
		body    string
		message string
		field   string
	}{
		{name: "error key", ctype: "application/json", status: 400, body: `{"error": "Stock insuficiente"}`, message: "Stock insuficiente"},
		{name: "detail key", ctype: "application/json", status: 403, body: `{"detail": "No autorizado"}`, message: "No autorizado"},
		{name: "drf fields", ctype: "application/json", status: 400, body: `{"nombre": ["Este campo es requerido."]}`, message: "nombre: Este campo es requerido.", field: "nombre"},
		{name: "non field", ctype: "application/json", status: 400, body: `{"non_field_errors": ["Credenciales inválidas"]}`, message: "Credenciales inválidas"},
		{name: "plain text", ctype: "text/plain", status: 502, body: "Bad Gateway", message: "Bad Gateway"},
		{name: "empty", ctype: "text/html", status: 500, body: "", message: GenericMessage},
		{name: "broken json", ctype: "application/json", status: 500, body: "{", message: GenericMessage},
		{name: "no message", ctype: "application/json", status: 500, body: `{"code": 7}`, message: GenericMessage},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
				w.Header().Set("Content-Type", tc.ctype)
				w.WriteHeader(tc.status)
				_, _ = io.WriteString(w, tc.body)
			}, "")
			err := client.Get(context.Background(), "/api/productos/", nil, nil)
			var apiErr *Error
			require.True(t, errors.As(err, &apiErr))
			assert.Equal(t, tc.status, apiErr.Status)
			assert.Equal(t, tc.message, apiErr.UserMessage())
			assert.True(t, IsStatus(err, tc.status))
			if tc.field != "" {
				assert.NotEmpty(t, apiErr.FieldMessage(tc.field))
			}
		})
	}
}

func TestHTTPClientTransportError(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	client, err := NewHTTPClient(HTTPConfig{BaseURL: url})
	require.NoError(t, err)
	err = client.Get(context.Background(), "/api/productos/", nil, nil)
	var transport *TransportError
	assert.True(t, errors.As(err, &transport))
}

func TestHTTPClientRawTargets(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		_, _ = io.WriteString(w, "PK\x03\x04")
	}, "")

	var raw []byte
	require.NoError(t, client.Get(context.Background(), "/admin/productos/export/", nil, &raw))
	assert.Equal(t, []byte("PK\x03\x04"), raw)

	var decoded map[string]any
	assert.Error(t, client.Get(context.Background(), "/admin/productos/export/", nil, &decoded))
}

func TestNewHTTPClientRequiresBaseURL(t *testing.T) {
	_, err := NewHTTPClient(HTTPConfig{BaseURL: "  "})
	assert.Error(t, err)
}
