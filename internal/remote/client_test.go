package remote

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"wandergram/internal/common"
	"wandergram/internal/config"
)

func testClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(config.RemoteConfig{
		BaseURL:        srv.URL,
		AuthToken:      "token-123",
		RequestsPerSec: 100,
		TimeoutSeconds: 5,
	})
}

func TestFetchUser(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/users/42", r.URL.Path)
		require.Equal(t, "Bearer token-123", r.Header.Get("Authorization"))
		_ = json.NewEncoder(w).Encode(common.RemoteUser{ID: 42, Username: "ada"})
	})

	u, err := c.FetchUser(context.Background(), 42)
	require.NoError(t, err)
	require.EqualValues(t, 42, u.ID)
	require.True(t, u.FullProfile)
}

func TestFetchFeedPage_Pagination(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "2", r.URL.Query().Get("page"))
		require.Equal(t, "20", r.URL.Query().Get("size"))
		_ = json.NewEncoder(w).Encode([]common.RemotePost{{ID: 1}})
	})

	posts, err := c.FetchFeedPage(context.Background(), 2, 20)
	require.NoError(t, err)
	require.Len(t, posts, 1)
}

func TestNotFoundMapsToErrNotFound(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})

	_, err := c.FetchPost(context.Background(), 99)
	require.ErrorIs(t, err, common.ErrNotFound)
}

func TestServerErrorMapsToErrRemoteUnavailable(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	_, err := c.FetchFeedPage(context.Background(), 0, 20)
	require.ErrorIs(t, err, common.ErrRemoteUnavailable)
}

func TestTransportErrorMapsToErrRemoteUnavailable(t *testing.T) {
	c := NewClient(config.RemoteConfig{
		BaseURL:        "http://127.0.0.1:1",
		RequestsPerSec: 100,
		TimeoutSeconds: 1,
	})

	_, err := c.FetchCountries(context.Background())
	require.ErrorIs(t, err, common.ErrRemoteUnavailable)
}

func TestMalformedBodyMapsToErrRemoteUnavailable(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("not json"))
	})

	_, err := c.FetchCountries(context.Background())
	require.ErrorIs(t, err, common.ErrRemoteUnavailable)
}

func TestToggleLike_Body(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPut, r.Method)
		require.Equal(t, "/posts/7/like", r.URL.Path)
		var body map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Equal(t, true, body["liked"])
		w.WriteHeader(http.StatusNoContent)
	})

	require.NoError(t, c.ToggleLike(context.Background(), 1, 7, true))
}

func TestCreatePost_RoundTrip(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "application/json", r.Header.Get("Content-Type"))
		var in common.RemoteNewPost
		require.NoError(t, json.NewDecoder(r.Body).Decode(&in))
		_ = json.NewEncoder(w).Encode(common.RemotePost{ID: 5, AuthorID: in.AuthorID, Caption: in.Caption})
	})

	created, err := c.CreatePost(context.Background(), common.RemoteNewPost{AuthorID: 1, Caption: "hi"})
	require.NoError(t, err)
	require.EqualValues(t, 5, created.ID)
}

func TestProbe(t *testing.T) {
	p := NewProbe()
	require.True(t, p.IsOnline())
	p.SetOnline(false)
	require.False(t, p.IsOnline())
}

func TestSession(t *testing.T) {
	s := NewSession()
	_, ok := s.CurrentUserID()
	require.False(t, ok)

	s.SignIn(7)
	id, ok := s.CurrentUserID()
	require.True(t, ok)
	require.EqualValues(t, 7, id)

	s.SignOut()
	_, ok = s.CurrentUserID()
	require.False(t, ok)
}
