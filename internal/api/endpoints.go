package api

import (
	"context"
	"errors"
	"net/http"
	"net/url"

	requestdomain "xriepv1/client/internal/request/domain"
	userdomain "xriepv1/client/internal/user/domain"
)

// Backend paths.
const (
	PathLogin             = "/api/auth/login"
	PathLogout            = "/api/auth/logout"
	PathMe                = "/api/auth/me"
	PathAdminUsers        = "/api/admin/users"
	PathAdminRequests     = "/api/admin/requests"
	PathUserRequests      = "/api/user/requests"
	PathDownloadTikTok    = "/api/user/download/tiktok"
	PathDownloadInstagram = "/api/user/download/instagram"
)

// LoginRequest is the body of POST /api/auth/login.
type LoginRequest struct {
	Username   string `json:"username"`
	Password   string `json:"password"`
	DeviceID   string `json:"device_id"`
	DeviceName string `json:"device_name"`
}

// LoginResponse is the body returned by a successful login.
type LoginResponse struct {
	AccessToken string          `json:"access_token"`
	TokenType   string          `json:"token_type"`
	User        userdomain.User `json:"user"`
}

// MessageResponse is the generic {"message": ...} acknowledgement.
type MessageResponse struct {
	Message string `json:"message"`
}

// CreateUserResponse is returned by POST /api/admin/users.
type CreateUserResponse struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Message  string `json:"message"`
}

// CreateRequestResponse is returned by POST /api/user/requests.
type CreateRequestResponse struct {
	ID      string `json:"id"`
	Message string `json:"message"`
}

// MediaResult is returned by the downloader endpoints. VideoURL is set for TikTok, MediaURL for Instagram.
type MediaResult struct {
	Success  bool   `json:"success"`
	Message  string `json:"message"`
	VideoURL string `json:"video_url,omitempty"`
	MediaURL string `json:"media_url,omitempty"`
}

type statusUpdate struct {
	Status requestdomain.Status `json:"status"`
}

type nomorBody struct {
	NomorWhatsapp string `json:"nomor_whatsapp"`
}

type urlBody struct {
	URL string `json:"url"`
}

// Login exchanges credentials for an access token. No Authorization header is sent.
func (c *Client) Login(ctx context.Context, req LoginRequest) (*LoginResponse, error) {
	var out LoginResponse
	if err := c.Do(ctx, http.MethodPost, PathLogin, req, &out, WithBearer("")); err != nil {
		return nil, err
	}
	return &out, nil
}

// Logout tells the backend that token is going away.
func (c *Client) Logout(ctx context.Context, token string) error {
	return c.Do(ctx, http.MethodPost, PathLogout, struct{}{}, nil, WithBearer(token))
}

// Me fetches the user that owns token.
func (c *Client) Me(ctx context.Context, token string) (*userdomain.User, error) {
	var out userdomain.User
	if err := c.Do(ctx, http.MethodGet, PathMe, nil, &out, WithBearer(token)); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListUsers returns every role=user account. Missing roles are filled in as "user".
func (c *Client) ListUsers(ctx context.Context) ([]userdomain.User, error) {
	var out []userdomain.User
	if err := c.Do(ctx, http.MethodGet, PathAdminUsers, nil, &out); err != nil {
		return nil, err
	}
	for i := range out {
		out[i].Normalize()
	}
	return out, nil
}

// CreateUser creates a role=user account.
func (c *Client) CreateUser(ctx context.Context, nu userdomain.NewUser) (*CreateUserResponse, error) {
	var out CreateUserResponse
	if err := c.Do(ctx, http.MethodPost, PathAdminUsers, nu, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteUser removes the account and its devices.
func (c *Client) DeleteUser(ctx context.Context, id string) error {
	return c.Do(ctx, http.MethodDelete, PathAdminUsers+"/"+url.PathEscape(id), nil, nil)
}

// ListAllRequests returns every request, newest first.
func (c *Client) ListAllRequests(ctx context.Context) ([]requestdomain.Request, error) {
	var out []requestdomain.Request
	if err := c.Do(ctx, http.MethodGet, PathAdminRequests, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// UpdateRequestStatus sets the status of request id.
func (c *Client) UpdateRequestStatus(ctx context.Context, id string, status requestdomain.Status) (*MessageResponse, error) {
	var out MessageResponse
	path := PathAdminRequests + "/" + url.PathEscape(id) + "/status"
	if err := c.Do(ctx, http.MethodPut, path, statusUpdate{Status: status}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListMyRequests returns the caller's requests, newest first.
func (c *Client) ListMyRequests(ctx context.Context) ([]requestdomain.Request, error) {
	var out []requestdomain.Request
	if err := c.Do(ctx, http.MethodGet, PathUserRequests, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// CreateRequest files a PENDING request for nomor.
func (c *Client) CreateRequest(ctx context.Context, nomor string) (*CreateRequestResponse, error) {
	var out CreateRequestResponse
	if err := c.Do(ctx, http.MethodPost, PathUserRequests, nomorBody{NomorWhatsapp: nomor}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DownloadTikTok asks the backend to resolve a TikTok video URL.
func (c *Client) DownloadTikTok(ctx context.Context, videoURL string) (*MediaResult, error) {
	return c.download(ctx, PathDownloadTikTok, videoURL)
}

// DownloadInstagram asks the backend to resolve an Instagram media URL.
func (c *Client) DownloadInstagram(ctx context.Context, mediaURL string) (*MediaResult, error) {
	return c.download(ctx, PathDownloadInstagram, mediaURL)
}

func (c *Client) download(ctx context.Context, path, u string) (*MediaResult, error) {
	var out MediaResult
	if err := c.Do(ctx, http.MethodPost, path, urlBody{URL: u}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// PingContext reports whether the backend answers at all. Any HTTP response counts, including the 401
// an anonymous GET /api/auth/me gets; only a missing response is an error.
func (c *Client) PingContext(ctx context.Context) error {
	err := c.Do(ctx, http.MethodGet, PathMe, nil, nil, WithBearer(""))
	var apiErr *APIError
	if err == nil || errors.As(err, &apiErr) {
		return nil
	}
	return err
}
