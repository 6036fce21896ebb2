package repository

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"xriepv1/client/internal/jsontime"
	"xriepv1/client/internal/session/domain"
	"xriepv1/client/internal/storage"
	userdomain "xriepv1/client/internal/user/domain"
)

func TestKVRepository_LoadMissing(t *testing.T) {
	repo := NewKVRepository(storage.NewMemoryStorage())
	p, err := repo.Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if p != nil {
		t.Errorf("Load = %+v, want nil", p)
	}
}

func TestKVRepository_SaveLoadRoundTrip(t *testing.T) {
	ctx := context.Background()
	repo := NewKVRepository(storage.NewMemoryStorage())
	exp := jsontime.New(time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC))
	token := "jwt-token"
	in := domain.Persisted{
		User: &userdomain.User{
			ID: "u1", Username: "budi", Role: userdomain.RoleUser, IsActive: true,
			MasaAktifHingga: &exp, MaxDevices: 3, CurrentDevices: 1, IsOnline: true,
		},
		Token: &token,
	}
	if err := repo.Save(ctx, in); err != nil {
		t.Fatalf("Save: %v", err)
	}
	out, err := repo.Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if out == nil || out.Token == nil || *out.Token != token {
		t.Fatalf("Load token = %+v", out)
	}
	if !out.User.MasaAktifHingga.Equal(in.User.MasaAktifHingga.Time) {
		t.Errorf("expiry = %v, want %v", out.User.MasaAktifHingga, in.User.MasaAktifHingga)
	}
	u := *out.User
	u.MasaAktifHingga = nil
	want := *in.User
	want.MasaAktifHingga = nil
	if u != want {
		t.Errorf("user = %+v, want %+v", u, want)
	}
}

func TestKVRepository_EnvelopeLayout(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStorage()
	repo := NewKVRepository(store)
	if err := repo.Save(ctx, domain.Persisted{}); err != nil {
		t.Fatalf("Save: %v", err)
	}
	raw, err := store.Get(ctx, StorageKey)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	var generic map[string]any
	if err := json.Unmarshal(raw, &generic); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	state, ok := generic["state"].(map[string]any)
	if !ok {
		t.Fatalf("state missing: %s", raw)
	}
	if v, ok := state["user"]; !ok || v != nil {
		t.Errorf("state.user = %v, want null", v)
	}
	if v, ok := state["token"]; !ok || v != nil {
		t.Errorf("state.token = %v, want null", v)
	}
	if len(state) != 2 {
		t.Errorf("state has extra keys: %v", state)
	}
	if generic["version"] != float64(0) {
		t.Errorf("version = %v, want 0", generic["version"])
	}
}

func TestKVRepository_LoadsRecordWrittenByMobileClient(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStorage()
	raw := `{"state":{"user":{"id":"1","username":"admin","role":"admin","is_active":true,"masa_aktif_hingga":null,"max_devices":999,"current_devices":1,"is_online":true},"token":"abc"},"version":0}`
	_ = store.Set(ctx, StorageKey, []byte(raw))

	p, err := NewKVRepository(store).Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !p.User.IsAdmin() || *p.Token != "abc" {
		t.Errorf("Load = %+v", p)
	}
}

func TestKVRepository_LoadCorrupt(t *testing.T) {
	testCases := []struct {
		name string
		raw  string
	}{
		{"not json", "{{{"},
		{"wrong version", `{"state":{"user":null,"token":null},"version":7}`},
		{"wrong shape", `{"state":"oops","version":0}`},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			store := storage.NewMemoryStorage()
			_ = store.Set(context.Background(), StorageKey, []byte(tc.raw))
			if _, err := NewKVRepository(store).Load(context.Background()); err == nil {
				t.Error("Load should fail on a corrupt record")
			}
		})
	}
}
