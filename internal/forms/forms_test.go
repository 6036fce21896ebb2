package forms

import (
	"errors"
	"testing"
)

func messageOf(t *testing.T, err error) string {
	t.Helper()
	if err == nil {
		return ""
	}
	var ferr *Error
	if !errors.As(err, &ferr) {
		t.Fatalf("error %v is not *Error", err)
	}
	return ferr.Message
}

func TestValidate(t *testing.T) {
	testCases := []struct {
		name string
		form form
		want string
	}{
		{"login ok", Login{Username: "admin", Password: "admin123"}, ""},
		{"login no username", Login{Password: "x"}, "Username dan password harus diisi"},
		{"login no password", Login{Username: "admin"}, "Username dan password harus diisi"},
		{"nomor ok", RequestNomor{NomorWhatsapp: "081234567890"}, ""},
		{"nomor empty", RequestNomor{}, "Nomor WhatsApp harus diisi"},
		{"nomor letters", RequestNomor{NomorWhatsapp: "08abc"}, "Nomor hanya boleh berisi angka"},
		{"nomor plus sign", RequestNomor{NomorWhatsapp: "+62812"}, "Nomor hanya boleh berisi angka"},
		{"nomor spaces", RequestNomor{NomorWhatsapp: "0812 345"}, "Nomor hanya boleh berisi angka"},
		{"tiktok ok", TikTok{URL: "https://www.tiktok.com/@a/video/1"}, ""},
		{"tiktok empty", TikTok{}, "URL TikTok harus diisi"},
		{"tiktok wrong host", TikTok{URL: "https://youtube.com/watch"}, "URL tidak valid. Masukkan URL TikTok yang benar"},
		{"instagram ok", Instagram{URL: "https://instagram.com/p/abc"}, ""},
		{"instagram empty", Instagram{}, "URL Instagram harus diisi"},
		{"instagram wrong host", Instagram{URL: "https://tiktok.com/x"}, "URL tidak valid. Masukkan URL Instagram yang benar"},
		{"status ok", StatusUpdate{RequestID: "r1", Status: "SELESAI"}, ""},
		{"status lowercase", StatusUpdate{RequestID: "r1", Status: "selesai"}, "Status harus PENDING, PROSES, SELESAI atau GAGAL"},
		{"status missing id", StatusUpdate{Status: "GAGAL"}, "ID request harus diisi"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := messageOf(t, Validate(tc.form)); got != tc.want {
				t.Errorf("message = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestNewUser_Build(t *testing.T) {
	testCases := []struct {
		name        string
		form        NewUser
		wantMsg     string
		wantDays    int
		wantDevices int
	}{
		{"defaults", NewUser{Username: "budi", Password: "pw"}, "", 30, 3},
		{"explicit", NewUser{Username: "budi", Password: "pw", MasaAktif: "7", MaxDevices: "1"}, "", 7, 1},
		{"trimmed", NewUser{Username: " budi ", Password: "pw", MasaAktif: " 10 "}, "", 10, 3},
		{"missing password", NewUser{Username: "budi"}, "Username dan password harus diisi", 0, 0},
		{"blank username", NewUser{Username: "  ", Password: "pw"}, "Username dan password harus diisi", 0, 0},
		{"days not a number", NewUser{Username: "budi", Password: "pw", MasaAktif: "tiga"}, "Masa aktif harus berupa angka", 0, 0},
		{"negative devices", NewUser{Username: "budi", Password: "pw", MaxDevices: "-1"}, "Max devices harus berupa angka", 0, 0},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			nu, err := tc.form.Build()
			if got := messageOf(t, err); got != tc.wantMsg {
				t.Fatalf("message = %q, want %q", got, tc.wantMsg)
			}
			if tc.wantMsg != "" {
				return
			}
			if nu.MasaAktifHari != tc.wantDays || nu.MaxDevices != tc.wantDevices {
				t.Errorf("got %d days / %d devices, want %d / %d", nu.MasaAktifHari, nu.MaxDevices, tc.wantDays, tc.wantDevices)
			}
			if nu.Username != "budi" {
				t.Errorf("Username = %q", nu.Username)
			}
		})
	}
}
