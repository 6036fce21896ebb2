package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	requestdomain "xriepv1/client/internal/request/domain"
	userdomain "xriepv1/client/internal/user/domain"
)

type captured struct {
	method string
	path   string
	auth   string
	body   map[string]any
}

func newCaptureServer(t *testing.T, response string) (*httptest.Server, *captured) {
	t.Helper()
	c := &captured{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c.method = r.Method
		c.path = r.URL.EscapedPath()
		c.auth = r.Header.Get("Authorization")
		raw, _ := io.ReadAll(r.Body)
		if len(raw) > 0 {
			_ = json.Unmarshal(raw, &c.body)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(response))
	}))
	t.Cleanup(server.Close)
	return server, c
}

func TestEndpoints_Routes(t *testing.T) {
	testCases := []struct {
		name       string
		response   string
		call       func(c *Client) error
		wantMethod string
		wantPath   string
		wantBody   map[string]any
	}{
		{
			name:       "logout",
			response:   `{"message":"Logged out successfully"}`,
			call:       func(c *Client) error { return c.Logout(context.Background(), "tok") },
			wantMethod: http.MethodPost, wantPath: PathLogout, wantBody: map[string]any{},
		},
		{
			name:       "delete user",
			response:   `{"message":"User deleted successfully"}`,
			call:       func(c *Client) error { return c.DeleteUser(context.Background(), "u 1") },
			wantMethod: http.MethodDelete, wantPath: "/api/admin/users/u%201",
		},
		{
			name:     "update status",
			response: `{"message":"Status updated successfully"}`,
			call: func(c *Client) error {
				_, err := c.UpdateRequestStatus(context.Background(), "r1", requestdomain.StatusSelesai)
				return err
			},
			wantMethod: http.MethodPut, wantPath: "/api/admin/requests/r1/status",
			wantBody: map[string]any{"status": "SELESAI"},
		},
		{
			name:     "create request",
			response: `{"id":"r2","message":"Request created successfully"}`,
			call: func(c *Client) error {
				_, err := c.CreateRequest(context.Background(), "08123")
				return err
			},
			wantMethod: http.MethodPost, wantPath: PathUserRequests,
			wantBody: map[string]any{"nomor_whatsapp": "08123"},
		},
		{
			name:     "create user",
			response: `{"id":"u2","username":"budi","message":"User created successfully"}`,
			call: func(c *Client) error {
				_, err := c.CreateUser(context.Background(), userdomain.NewUser{Username: "budi", Password: "pw", MasaAktifHari: 30, MaxDevices: 3})
				return err
			},
			wantMethod: http.MethodPost, wantPath: PathAdminUsers,
			wantBody: map[string]any{"username": "budi", "password": "pw", "masa_aktif_hari": float64(30), "max_devices": float64(3)},
		},
		{
			name:     "tiktok",
			response: `{"success":true,"message":"mock","video_url":"https://example.com/v.mp4"}`,
			call: func(c *Client) error {
				_, err := c.DownloadTikTok(context.Background(), "https://www.tiktok.com/@a/video/1")
				return err
			},
			wantMethod: http.MethodPost, wantPath: PathDownloadTikTok,
			wantBody: map[string]any{"url": "https://www.tiktok.com/@a/video/1"},
		},
		{
			name:     "instagram",
			response: `{"success":true,"message":"mock","media_url":"https://example.com/i.jpg"}`,
			call: func(c *Client) error {
				_, err := c.DownloadInstagram(context.Background(), "https://www.instagram.com/p/x")
				return err
			},
			wantMethod: http.MethodPost, wantPath: PathDownloadInstagram,
			wantBody: map[string]any{"url": "https://www.instagram.com/p/x"},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			server, got := newCaptureServer(t, tc.response)
			c := NewClient(server.URL, time.Second)
			if err := tc.call(c); err != nil {
				t.Fatalf("call: %v", err)
			}
			if got.method != tc.wantMethod || got.path != tc.wantPath {
				t.Errorf("route = %s %s, want %s %s", got.method, got.path, tc.wantMethod, tc.wantPath)
			}
			for k, v := range tc.wantBody {
				if got.body[k] != v {
					t.Errorf("body[%s] = %v, want %v", k, got.body[k], v)
				}
			}
		})
	}
}

func TestLogin_SendsNoAuthAndDecodes(t *testing.T) {
	server, got := newCaptureServer(t, `{"access_token":"jwt","token_type":"bearer",
		"user":{"id":"1","username":"admin","role":"admin","is_active":true,"masa_aktif_hingga":null,"max_devices":999,"current_devices":1,"is_online":true}}`)
	c := NewClient(server.URL, time.Second)
	c.SetAuthToken("stale")

	resp, err := c.Login(context.Background(), LoginRequest{Username: "admin", Password: "admin123", DeviceID: "d1", DeviceName: "Pixel"})
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if got.auth != "" {
		t.Errorf("Authorization = %q, want none on login", got.auth)
	}
	if got.body["device_id"] != "d1" || got.body["device_name"] != "Pixel" {
		t.Errorf("body = %v", got.body)
	}
	if resp.AccessToken != "jwt" || !resp.User.IsAdmin() || resp.User.MaxDevices != 999 {
		t.Errorf("resp = %+v", resp)
	}
}

func TestMe_UsesGivenToken(t *testing.T) {
	server, got := newCaptureServer(t, `{"id":"1","username":"budi","role":"user"}`)
	c := NewClient(server.URL, time.Second)

	u, err := c.Me(context.Background(), "tok-me")
	if err != nil {
		t.Fatalf("Me: %v", err)
	}
	if got.auth != "Bearer tok-me" || got.method != http.MethodGet || got.path != PathMe {
		t.Errorf("request = %s %s auth=%q", got.method, got.path, got.auth)
	}
	if u.Username != "budi" {
		t.Errorf("Username = %q", u.Username)
	}
}

func TestListUsers_NormalizesRole(t *testing.T) {
	server, _ := newCaptureServer(t, `[{"id":"1","username":"a","is_active":true},{"id":"2","username":"b","is_active":false}]`)
	users, err := NewClient(server.URL, time.Second).ListUsers(context.Background())
	if err != nil {
		t.Fatalf("ListUsers: %v", err)
	}
	if len(users) != 2 {
		t.Fatalf("len = %d, want 2", len(users))
	}
	for _, u := range users {
		if u.Role != userdomain.RoleUser {
			t.Errorf("user %s role = %q, want user", u.ID, u.Role)
		}
	}
}

func TestListRequests_Decodes(t *testing.T) {
	server, got := newCaptureServer(t, `[{"id":"r1","nomor_whatsapp":"0812","status":"PENDING","created_at":"2026-01-02T03:04:05"}]`)
	c := NewClient(server.URL, time.Second)

	mine, err := c.ListMyRequests(context.Background())
	if err != nil {
		t.Fatalf("ListMyRequests: %v", err)
	}
	if got.path != PathUserRequests {
		t.Errorf("path = %q", got.path)
	}
	if len(mine) != 1 || mine[0].Status != requestdomain.StatusPending || mine[0].CreatedAt.IsZero() {
		t.Errorf("requests = %+v", mine)
	}

	all, err := c.ListAllRequests(context.Background())
	if err != nil {
		t.Fatalf("ListAllRequests: %v", err)
	}
	if got.path != PathAdminRequests || len(all) != 1 {
		t.Errorf("path = %q len = %d", got.path, len(all))
	}
}
