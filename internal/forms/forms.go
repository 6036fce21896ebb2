// Package forms validates what the user typed into a screen before anything is sent to the backend.
// Messages are the ones shown to the user.
package forms

import (
	"errors"
	"regexp"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	requestdomain "xriepv1/client/internal/request/domain"
	userdomain "xriepv1/client/internal/user/domain"
)

var digitsRE = regexp.MustCompile(`^[0-9]+$`)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// validator's "numeric" accepts signs and decimals; phone numbers and day counts may not.
	_ = v.RegisterValidation("digits", func(fl validator.FieldLevel) bool {
		return digitsRE.MatchString(fl.Field().String())
	})
	_ = v.RegisterValidation("status", func(fl validator.FieldLevel) bool {
		return requestdomain.Status(fl.Field().String()).Valid()
	})
	return v
}

// Error is a validation failure with the message to show.
type Error struct {
	Field   string
	Message string
}

func (e *Error) Error() string { return e.Message }

type form interface {
	messages() map[string]string
}

// Validate checks f and returns the first failure as *Error.
func Validate(f form) error {
	err := validate.Struct(f)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return err
	}
	fe := verrs[0]
	msg, ok := f.messages()[fe.StructField()+"."+fe.Tag()]
	if !ok {
		msg = fe.Error()
	}
	return &Error{Field: fe.StructField(), Message: msg}
}

const credentialsRequired = "Username dan password harus diisi"

// Login is the login screen.
type Login struct {
	Username string `validate:"required"`
	Password string `validate:"required"`
}

func (Login) messages() map[string]string {
	return map[string]string{
		"Username.required": credentialsRequired,
		"Password.required": credentialsRequired,
	}
}

// NewUser is the admin's create-user form. MasaAktif and MaxDevices are typed text; empty means default.
type NewUser struct {
	Username   string `validate:"required"`
	Password   string `validate:"required"`
	MasaAktif  string `validate:"omitempty,digits"`
	MaxDevices string `validate:"omitempty,digits"`
}

func (NewUser) messages() map[string]string {
	return map[string]string{
		"Username.required": credentialsRequired,
		"Password.required": credentialsRequired,
		"MasaAktif.digits":  "Masa aktif harus berupa angka",
		"MaxDevices.digits": "Max devices harus berupa angka",
	}
}

// Build validates f and returns the request body, filling in 30 days and 3 devices when left empty.
func (f NewUser) Build() (userdomain.NewUser, error) {
	f.Username = strings.TrimSpace(f.Username)
	f.MasaAktif = strings.TrimSpace(f.MasaAktif)
	f.MaxDevices = strings.TrimSpace(f.MaxDevices)
	if err := Validate(f); err != nil {
		return userdomain.NewUser{}, err
	}
	nu := userdomain.NewUser{
		Username:      f.Username,
		Password:      f.Password,
		MasaAktifHari: userdomain.DefaultMasaAktifHari,
		MaxDevices:    userdomain.DefaultMaxDevices,
	}
	if f.MasaAktif != "" {
		n, err := strconv.Atoi(f.MasaAktif)
		if err != nil {
			return userdomain.NewUser{}, &Error{Field: "MasaAktif", Message: "Masa aktif harus berupa angka"}
		}
		nu.MasaAktifHari = n
	}
	if f.MaxDevices != "" {
		n, err := strconv.Atoi(f.MaxDevices)
		if err != nil {
			return userdomain.NewUser{}, &Error{Field: "MaxDevices", Message: "Max devices harus berupa angka"}
		}
		nu.MaxDevices = n
	}
	return nu, nil
}

// RequestNomor is the number-repair request form.
type RequestNomor struct {
	NomorWhatsapp string `validate:"required,digits"`
}

func (RequestNomor) messages() map[string]string {
	return map[string]string{
		"NomorWhatsapp.required": "Nomor WhatsApp harus diisi",
		"NomorWhatsapp.digits":   "Nomor hanya boleh berisi angka",
	}
}

// TikTok is the TikTok downloader form.
type TikTok struct {
	URL string `validate:"required,contains=tiktok.com"`
}

func (TikTok) messages() map[string]string {
	return map[string]string{
		"URL.required": "URL TikTok harus diisi",
		"URL.contains": "URL tidak valid. Masukkan URL TikTok yang benar",
	}
}

// Instagram is the Instagram downloader form.
type Instagram struct {
	URL string `validate:"required,contains=instagram.com"`
}

func (Instagram) messages() map[string]string {
	return map[string]string{
		"URL.required": "URL Instagram harus diisi",
		"URL.contains": "URL tidak valid. Masukkan URL Instagram yang benar",
	}
}

// StatusUpdate is the admin's request status picker.
type StatusUpdate struct {
	RequestID string `validate:"required"`
	Status    string `validate:"required,status"`
}

func (StatusUpdate) messages() map[string]string {
	return map[string]string{
		"RequestID.required": "ID request harus diisi",
		"Status.required":    "Status harus diisi",
		"Status.status":      "Status harus PENDING, PROSES, SELESAI atau GAGAL",
	}
}
