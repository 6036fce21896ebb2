package main

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"xriepv1/client/internal/apitest"
	userdomain "xriepv1/client/internal/user/domain"
)

type result struct {
	code   int
	out    string
	errOut string
}

// setup points the client at a fresh fake backend with file storage under a temp dir.
func setup(t *testing.T) *apitest.Backend {
	t.Helper()
	b, srv := apitest.NewServer(t)
	t.Setenv("API_BASE_URL", srv.URL)
	t.Setenv("STORAGE_DRIVER", "file")
	t.Setenv("STORAGE_PATH", t.TempDir())
	t.Setenv("DEVICE_ID", "dev-cli")
	t.Setenv("DEVICE_NAME", "test")
	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "")
	t.Setenv("LOKI_URL", "")
	t.Setenv("LOG_LEVEL", "error")
	return b
}

func xriepIn(t *testing.T, stdin string, args ...string) result {
	t.Helper()
	var out, errOut bytes.Buffer
	code := run(context.Background(), args, strings.NewReader(stdin), &out, &errOut)
	return result{code: code, out: out.String(), errOut: errOut.String()}
}

func xriep(t *testing.T, args ...string) result {
	t.Helper()
	return xriepIn(t, "", args...)
}

func mustRun(t *testing.T, args ...string) string {
	t.Helper()
	r := xriep(t, args...)
	if r.code != 0 {
		t.Fatalf("xriep %v: code %d\nout: %s\nerr: %s", args, r.code, r.out, r.errOut)
	}
	return r.out
}

func TestLoginStatusLogout(t *testing.T) {
	setup(t)

	out := mustRun(t, "login", "-u", apitest.AdminUsername, "-p", apitest.AdminPassword)
	if !strings.Contains(out, "Login sebagai admin (admin) -> /admin-dashboard") {
		t.Errorf("login output = %q", out)
	}

	// The session survives into the next invocation.
	out = mustRun(t, "status")
	if !strings.Contains(out, "admin") || !strings.Contains(out, "/admin-dashboard") {
		t.Errorf("status output = %q", out)
	}
	out = mustRun(t, "login", "-u", apitest.AdminUsername, "-p", apitest.AdminPassword)
	if !strings.Contains(out, "Sudah login sebagai admin") {
		t.Errorf("second login output = %q", out)
	}

	if out := mustRun(t, "logout"); !strings.Contains(out, "Logout berhasil") {
		t.Errorf("logout output = %q", out)
	}
	if out := mustRun(t, "status"); !strings.Contains(out, "Belum login (/login)") {
		t.Errorf("status after logout = %q", out)
	}
	if out := mustRun(t, "logout"); !strings.Contains(out, "Belum login") {
		t.Errorf("second logout = %q", out)
	}
}

func TestLogin_Failures(t *testing.T) {
	testCases := []struct {
		name  string
		stdin string
		args  []string
		alert string
	}{
		{"wrong password", "", []string{"login", "-u", "admin", "-p", "salah"}, "Login Gagal: Invalid credentials"},
		{"empty form", "\n\n", []string{"login"}, "Error: Username dan password harus diisi"},
		{"empty password", "\n", []string{"login", "-u", "admin"}, "Error: Username dan password harus diisi"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			setup(t)
			r := xriepIn(t, tc.stdin, tc.args...)
			if r.code != 1 {
				t.Fatalf("code = %d, want 1", r.code)
			}
			if !strings.Contains(r.out, tc.alert) {
				t.Errorf("out = %q, want %q", r.out, tc.alert)
			}
			if strings.Contains(r.errOut, "error:") {
				t.Errorf("alerted failure printed again: %q", r.errOut)
			}
		})
	}
}

func TestLogin_PasswordFromStdin(t *testing.T) {
	setup(t)
	r := xriepIn(t, "admin\nadmin123\n", "login")
	if r.code != 0 {
		t.Fatalf("code = %d\nout: %s\nerr: %s", r.code, r.out, r.errOut)
	}
	if !strings.Contains(r.out, "Login sebagai admin") {
		t.Errorf("out = %q", r.out)
	}
}

func TestAdminAndUserFlow(t *testing.T) {
	b := setup(t)
	mustRun(t, "login", "-u", "admin", "-p", "admin123")

	out := mustRun(t, "users", "create", "-u", "budi", "-p", "rahasia", "--max-devices", "2")
	if !strings.Contains(out, "Sukses: User berhasil dibuat") || !strings.Contains(out, "budi") {
		t.Errorf("create output = %q", out)
	}
	r := xriep(t, "users", "create", "-u", "budi", "-p", "lagi")
	if r.code != 1 || !strings.Contains(r.out, "Error: Username already exists") {
		t.Errorf("duplicate create = %+v", r)
	}
	r = xriep(t, "users", "create", "-u", "eko", "-p", "pw", "--masa-aktif", "3x")
	if r.code != 1 || !strings.Contains(r.out, "Error: Masa aktif harus berupa angka") {
		t.Errorf("invalid create = %+v", r)
	}
	if out := mustRun(t, "users", "list"); !strings.Contains(out, "budi") || !strings.Contains(out, "0/2") {
		t.Errorf("users list = %q", out)
	}

	mustRun(t, "logout")
	if out := mustRun(t, "login", "-u", "budi", "-p", "rahasia"); !strings.Contains(out, "-> /user-home") {
		t.Errorf("user login = %q", out)
	}
	if out := mustRun(t, "home"); !strings.Contains(out, "Halo, budi") || !strings.Contains(out, "Daftar Request") {
		t.Errorf("home = %q", out)
	}
	if out := mustRun(t, "request", "list"); !strings.Contains(out, "Belum ada request") {
		t.Errorf("empty request list = %q", out)
	}
	if out := mustRun(t, "request", "create", "08123456789"); !strings.Contains(out, "Sukses: Request berhasil dikirim") {
		t.Errorf("request create = %q", out)
	}
	r = xriep(t, "request", "create", "0812-abc")
	if r.code != 1 || !strings.Contains(r.out, "Error: Nomor hanya boleh berisi angka") {
		t.Errorf("invalid nomor = %+v", r)
	}
	if out := mustRun(t, "request", "list"); !strings.Contains(out, "08123456789") || !strings.Contains(out, "PENDING") {
		t.Errorf("request list = %q", out)
	}

	r = xriep(t, "users", "list")
	if r.code != 1 || !strings.Contains(r.errOut, "not available to this account") {
		t.Errorf("user opening dashboard = %+v", r)
	}

	mustRun(t, "logout")
	mustRun(t, "login", "-u", "admin", "-p", "admin123")
	out = mustRun(t, "requests", "list")
	if !strings.Contains(out, "budi") || !strings.Contains(out, "08123456789") {
		t.Fatalf("requests list = %q", out)
	}
	reqs := b.Requests()
	if len(reqs) != 1 {
		t.Fatalf("backend requests = %d, want 1", len(reqs))
	}
	if out := mustRun(t, "requests", "status", reqs[0], "selesai"); !strings.Contains(out, "SELESAI") {
		t.Errorf("status update = %q", out)
	}
	r = xriep(t, "requests", "status", reqs[0], "DONE")
	if r.code != 1 || !strings.Contains(r.out, "Status harus PENDING, PROSES, SELESAI atau GAGAL") {
		t.Errorf("invalid status = %+v", r)
	}

	id := userID(t, b, "budi")
	if out := mustRun(t, "users", "delete", id); !strings.Contains(out, "Sukses: User berhasil dihapus") {
		t.Errorf("delete = %q", out)
	}
}

func userID(t *testing.T, b *apitest.Backend, username string) string {
	t.Helper()
	id, ok := b.UserID(username)
	if !ok {
		t.Fatalf("no user %q", username)
	}
	return id
}

func TestDownloads(t *testing.T) {
	b := setup(t)
	if _, err := b.AddUser("budi", "rahasia", userdomain.RoleUser, nil, 3); err != nil {
		t.Fatal(err)
	}
	mustRun(t, "login", "-u", "budi", "-p", "rahasia")

	testCases := []struct {
		name string
		args []string
		code int
		want string
	}{
		{"tiktok", []string{"download", "tiktok", "https://www.tiktok.com/@a/video/1"}, 0, "mock-video.mp4"},
		{"instagram", []string{"download", "instagram", "https://www.instagram.com/p/abc"}, 0, "mock-image.jpg"},
		{"tiktok wrong host", []string{"download", "tiktok", "https://youtube.com/x"}, 1, "Error: URL tidak valid. Masukkan URL TikTok yang benar"},
		{"instagram wrong host", []string{"download", "instagram", "https://tiktok.com/x"}, 1, "Error: URL tidak valid. Masukkan URL Instagram yang benar"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			r := xriep(t, tc.args...)
			if r.code != tc.code {
				t.Fatalf("code = %d, want %d\nout: %s\nerr: %s", r.code, tc.code, r.out, r.errOut)
			}
			if !strings.Contains(r.out, tc.want) {
				t.Errorf("out = %q, want %q", r.out, tc.want)
			}
		})
	}
}

func TestGuardedCommandsNeedLogin(t *testing.T) {
	setup(t)
	for _, args := range [][]string{
		{"home"},
		{"users", "list"},
		{"requests", "list"},
		{"request", "list"},
		{"download", "tiktok", "https://tiktok.com/x"},
	} {
		r := xriep(t, args...)
		if r.code != 1 || !strings.Contains(r.errOut, "needs a login") {
			t.Errorf("xriep %v = %+v", args, r)
		}
	}
}

func TestRevokedSessionIsDroppedOnStart(t *testing.T) {
	b := setup(t)
	id, err := b.AddUser("budi", "rahasia", userdomain.RoleUser, nil, 3)
	if err != nil {
		t.Fatal(err)
	}
	mustRun(t, "login", "-u", "budi", "-p", "rahasia")

	b.RemoveUser(id)
	if out := mustRun(t, "status"); !strings.Contains(out, "Belum login (/login)") {
		t.Errorf("status with revoked account = %q", out)
	}
}

func TestDoctor(t *testing.T) {
	setup(t)
	out := mustRun(t, "doctor")
	for _, want := range []string{"storage  skipped", "policy   ok", "backend  ok"} {
		if !strings.Contains(out, want) {
			t.Errorf("doctor output missing %q:\n%s", want, out)
		}
	}

	t.Setenv("STORAGE_DRIVER", "sqlite")
	if out := mustRun(t, "doctor"); !strings.Contains(out, "storage  ok") {
		t.Errorf("doctor with sqlite:\n%s", out)
	}

	t.Setenv("API_BASE_URL", "http://127.0.0.1:1")
	t.Setenv("API_TIMEOUT", "1s")
	r := xriep(t, "doctor")
	if r.code != 1 || !strings.Contains(r.out, "backend  FAIL") || !strings.Contains(r.errOut, "NOT_SERVING") {
		t.Errorf("doctor with backend down = %+v", r)
	}
}
