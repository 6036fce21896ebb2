// devserver runs the in-memory xriepv1 backend on a local port so the client can be tried without the
// real service. With -seed it also creates sample accounts and requests.
package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"xriepv1/client/internal/apitest"
	userdomain "xriepv1/client/internal/user/domain"
)

const (
	demoPassword = "rahasia"
	demoUser     = "budi"
	expiredUser  = "sari"
	singleUser   = "eko"
)

func main() {
	addr := flag.String("addr", ":8001", "Listen address")
	seed := flag.Bool("seed", true, "Create sample users and requests")
	flag.Parse()

	backend := apitest.New()
	if *seed {
		if err := seedBackend(backend); err != nil {
			log.Fatalf("seed: %v", err)
		}
		log.Printf("seeded %s/%s, %s/%s (expired) and %s/%s (one device)",
			demoUser, demoPassword, expiredUser, demoPassword, singleUser, demoPassword)
	}

	srv := &http.Server{Addr: *addr, Handler: backend, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		log.Printf("devserver listening on %s (admin: %s/%s)", *addr, apitest.AdminUsername, apitest.AdminPassword)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("serve: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Println("shutting down devserver...")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("shutdown: %v", err)
	}
	log.Println("devserver stopped")
}

// seedBackend adds a regular user with two requests, an expired user and a single-device user.
func seedBackend(b *apitest.Backend) error {
	now := time.Now().UTC()
	activeUntil := now.AddDate(0, 0, userdomain.DefaultMasaAktifHari)
	expired := now.AddDate(0, 0, -1)

	id, err := b.AddUser(demoUser, demoPassword, userdomain.RoleUser, &activeUntil, userdomain.DefaultMaxDevices)
	if err != nil {
		return err
	}
	if _, err := b.AddUser(expiredUser, demoPassword, userdomain.RoleUser, &expired, userdomain.DefaultMaxDevices); err != nil {
		return err
	}
	if _, err := b.AddUser(singleUser, demoPassword, userdomain.RoleUser, &activeUntil, 1); err != nil {
		return err
	}
	for _, nomor := range []string{"081234567890", "085711223344"} {
		if _, err := b.AddRequest(id, nomor); err != nil {
			return err
		}
	}
	return nil
}
