package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/time/rate"

	"wandergram/internal/common"
	"wandergram/internal/config"
)

// Client is the HTTP implementation of the backend surface. Every failure,
// transport or non-2xx alike, comes back wrapping ErrRemoteUnavailable so
// the sync layer can treat the backend as a single availability domain.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
	limiter *rate.Limiter
}

var _ common.RemoteAPI = (*Client)(nil)

func NewClient(cfg config.RemoteConfig) *Client {
	rps := cfg.RequestsPerSec
	if rps <= 0 {
		rps = 5
	}
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		baseURL: cfg.BaseURL,
		token:   cfg.AuthToken,
		http:    &http.Client{Timeout: timeout},
		limiter: rate.NewLimiter(rate.Limit(rps), int(rps)+1),
	}
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out interface{}) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("%w: %v", common.ErrRemoteUnavailable, err)
	}

	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
		reader = bytes.NewReader(buf)
	}
	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", common.ErrRemoteUnavailable, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("%w: %s %s", common.ErrNotFound, method, path)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("%w: %s %s returned %d", common.ErrRemoteUnavailable, method, path, resp.StatusCode)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: malformed response from %s: %v", common.ErrRemoteUnavailable, path, err)
	}
	return nil
}

func pageQuery(page, size int) url.Values {
	q := url.Values{}
	q.Set("page", strconv.Itoa(page))
	q.Set("size", strconv.Itoa(size))
	return q
}

func (c *Client) FetchUser(ctx context.Context, id int64) (*common.RemoteUser, error) {
	var out common.RemoteUser
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/users/%d", id), nil, nil, &out); err != nil {
		return nil, err
	}
	out.FullProfile = true
	return &out, nil
}

func (c *Client) SearchUsers(ctx context.Context, query string, page, size int) ([]common.RemoteUser, error) {
	q := pageQuery(page, size)
	q.Set("q", query)
	var out []common.RemoteUser
	if err := c.do(ctx, http.MethodGet, "/users/search", q, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) DeleteUser(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("/users/%d", id), nil, nil, nil)
}

func (c *Client) FetchPost(ctx context.Context, id int64) (*common.RemotePost, error) {
	var out common.RemotePost
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/posts/%d", id), nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) FetchFeedPage(ctx context.Context, page, size int) ([]common.RemotePost, error) {
	var out []common.RemotePost
	if err := c.do(ctx, http.MethodGet, "/feed", pageQuery(page, size), nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) FetchCountryPosts(ctx context.Context, userID int64, countryCode string, page, size int) ([]common.RemotePost, error) {
	q := pageQuery(page, size)
	q.Set("country", countryCode)
	var out []common.RemotePost
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/users/%d/posts", userID), q, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) CreatePost(ctx context.Context, post common.RemoteNewPost) (*common.RemotePost, error) {
	var out common.RemotePost
	if err := c.do(ctx, http.MethodPost, "/posts", nil, post, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) DeletePost(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("/posts/%d", id), nil, nil, nil)
}

func (c *Client) FetchComments(ctx context.Context, postID int64, page, size int) ([]common.RemoteComment, error) {
	var out []common.RemoteComment
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/posts/%d/comments", postID), pageQuery(page, size), nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) FetchReplies(ctx context.Context, parentCommentID int64, page, size int) ([]common.RemoteComment, error) {
	var out []common.RemoteComment
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/comments/%d/replies", parentCommentID), pageQuery(page, size), nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) CreateComment(ctx context.Context, comment common.RemoteNewComment) (*common.RemoteComment, error) {
	var out common.RemoteComment
	if err := c.do(ctx, http.MethodPost, "/comments", nil, comment, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) DeleteComment(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("/comments/%d", id), nil, nil, nil)
}

func (c *Client) ToggleLike(ctx context.Context, userID, postID int64, liked bool) error {
	body := map[string]interface{}{"user_id": userID, "liked": liked}
	return c.do(ctx, http.MethodPut, fmt.Sprintf("/posts/%d/like", postID), nil, body, nil)
}

func (c *Client) FetchLikers(ctx context.Context, postID int64, page, size int) ([]common.RemoteUser, error) {
	var out []common.RemoteUser
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/posts/%d/likers", postID), pageQuery(page, size), nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) ToggleFollow(ctx context.Context, followerID, followingID int64, following bool) error {
	body := map[string]interface{}{"follower_id": followerID, "following": following}
	return c.do(ctx, http.MethodPut, fmt.Sprintf("/users/%d/follow", followingID), nil, body, nil)
}

func (c *Client) FetchFollowers(ctx context.Context, userID int64, page, size int) ([]common.RemoteUser, error) {
	var out []common.RemoteUser
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/users/%d/followers", userID), pageQuery(page, size), nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) FetchFollowing(ctx context.Context, userID int64, page, size int) ([]common.RemoteUser, error) {
	var out []common.RemoteUser
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/users/%d/following", userID), pageQuery(page, size), nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) FetchNotifications(ctx context.Context, recipientID int64, page, size int) ([]common.RemoteNotification, error) {
	var out []common.RemoteNotification
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/users/%d/notifications", recipientID), pageQuery(page, size), nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) MarkNotificationRead(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodPut, fmt.Sprintf("/notifications/%d/read", id), nil, nil, nil)
}

func (c *Client) FetchPermissions(ctx context.Context, userID int64) ([]common.RemoteTravelPermission, error) {
	var out []common.RemoteTravelPermission
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/users/%d/permissions", userID), nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) RequestPermission(ctx context.Context, grantorID, granteeID int64, countryCode string) (*common.RemoteTravelPermission, error) {
	body := map[string]interface{}{
		"grantor_id":   grantorID,
		"grantee_id":   granteeID,
		"country_code": countryCode,
	}
	var out common.RemoteTravelPermission
	if err := c.do(ctx, http.MethodPost, "/permissions", nil, body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) UpdatePermissionStatus(ctx context.Context, id int64, status common.PermissionStatus) error {
	body := map[string]interface{}{"status": status}
	return c.do(ctx, http.MethodPut, fmt.Sprintf("/permissions/%d", id), nil, body, nil)
}

func (c *Client) FetchCountries(ctx context.Context) ([]common.RemoteCountry, error) {
	var out []common.RemoteCountry
	if err := c.do(ctx, http.MethodGet, "/countries", nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) FetchCities(ctx context.Context, countryCode string) ([]common.RemoteCity, error) {
	var out []common.RemoteCity
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/countries/%s/cities", countryCode), nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) FetchCollections(ctx context.Context, userID int64) ([]common.RemoteCollection, error) {
	var out []common.RemoteCollection
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/users/%d/collections", userID), nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) FetchUserStats(ctx context.Context, userID int64) (*common.RemoteUserStats, error) {
	var out common.RemoteUserStats
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/users/%d/stats", userID), nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
