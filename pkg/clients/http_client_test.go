package clients

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gomock "go.uber.org/mock/gomock"
)

func TestHTTPClient_Post(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		body, _ := io.ReadAll(r.Body)
		assert.JSONEq(t, `{"type":"payout.completed"}`, string(body))
		w.WriteHeader(http.StatusAccepted)
		_, _ = w.Write([]byte("ok"))
	}))
	defer server.Close()

	client := NewHTTPClient()
	status, body, err := client.Post(server.URL, http.Header{"Content-Type": []string{"application/json"}}, []byte(`{"type":"payout.completed"}`))
	require.NoError(t, err)
	assert.Equal(t, http.StatusAccepted, status)
	assert.Equal(t, "ok", string(body))
}

func TestHTTPClient_PostUnreachable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := server.URL
	server.Close()

	client := NewHTTPClient()
	status, body, err := client.Post(url, nil, []byte("{}"))
	require.Error(t, err)
	assert.Zero(t, status)
	assert.Nil(t, body)
}

func TestHTTPClient_SetClient(t *testing.T) {
	ctrl := gomock.NewController(t)
	mock := NewMockHTTPClientI(ctrl)
	mock.EXPECT().Post("http://notify", gomock.Any(), []byte("{}")).Return(http.StatusBadGateway, nil, nil)

	client := NewHTTPClient()
	client.SetClient(mock)
	status, _, err := client.Post("http://notify", nil, []byte("{}"))
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadGateway, status)
}
