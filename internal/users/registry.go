// Package users keeps the owner registry in users.json.
package users

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/Rhymond/go-money"
	"golang.org/x/crypto/pbkdf2"

	"ledgerkeep/internal/core"
	"ledgerkeep/internal/fsutil"
)

const (
	AlgoPBKDF2SHA256  = "pbkdf2_sha256"
	DefaultIterations = 120_000
	saltBytes         = 16
	keyBytes          = 32
)

// ErrInvalidCredentials covers both an unknown name and a wrong PIN.
var ErrInvalidCredentials = errors.New("invalid name or PIN")

type Auth struct {
	Algo       string `json:"algo"`
	Iterations int    `json:"iterations"`
	SaltB64    string `json:"salt_b64"`
	HashB64    string `json:"hash_b64"`
}

type User struct {
	UserID   string `json:"user_id"`
	Name     string `json:"name"`
	Currency string `json:"currency"`
	Auth     Auth   `json:"auth"`
}

type Registry struct {
	path string
	// Iterations applies to newly hashed PINs.
	Iterations int
}

func NewRegistry(path string) *Registry {
	return &Registry{path: path, Iterations: DefaultIterations}
}

func (r *Registry) Path() string { return r.path }

func (r *Registry) load() ([]User, error) {
	raw, err := os.ReadFile(r.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, core.WrapIO("read users", r.path, err)
	}
	if len(strings.TrimSpace(string(raw))) == 0 {
		return nil, nil
	}
	var users []User
	if err := json.Unmarshal(raw, &users); err != nil {
		return nil, fmt.Errorf("decode %s: %w", r.path, err)
	}
	return users, nil
}

func (r *Registry) save(users []User) error {
	raw, err := json.MarshalIndent(users, "", "  ")
	if err != nil {
		return fmt.Errorf("encode users: %w", err)
	}
	return core.WrapIO("write users", r.path, fsutil.WriteBytesAtomic(r.path, append(raw, '\n'), 0o600))
}

// Register adds an owner and returns the stored record.
func (r *Registry) Register(name, currency, pin string) (User, error) {
	name, err := ValidateName(name)
	if err != nil {
		return User{}, err
	}
	currency, err = ValidateCurrency(currency)
	if err != nil {
		return User{}, err
	}
	pin, err = ValidatePIN(pin)
	if err != nil {
		return User{}, err
	}

	users, err := r.load()
	if err != nil {
		return User{}, err
	}
	highest := 0
	for _, u := range users {
		if u.Name == name {
			return User{}, core.Conflict("user %q already exists", name)
		}
		var n int
		if _, err := fmt.Sscanf(u.UserID, "U%d", &n); err == nil && n > highest {
			highest = n
		}
	}

	auth, err := hashPIN(pin, r.Iterations)
	if err != nil {
		return User{}, err
	}
	u := User{
		UserID:   fmt.Sprintf("U%03d", highest+1),
		Name:     name,
		Currency: currency,
		Auth:     auth,
	}
	if err := r.save(append(users, u)); err != nil {
		return User{}, err
	}
	return u, nil
}

// Authenticate returns the owner when name and PIN match.
func (r *Registry) Authenticate(name, pin string) (User, error) {
	users, err := r.load()
	if err != nil {
		return User{}, err
	}
	name = strings.TrimSpace(name)
	for _, u := range users {
		if u.Name == name {
			if verifyPIN(strings.TrimSpace(pin), u.Auth) {
				return u, nil
			}
			break
		}
	}
	return User{}, ErrInvalidCredentials
}

// Get looks an owner up by id.
func (r *Registry) Get(id string) (User, error) {
	users, err := r.load()
	if err != nil {
		return User{}, err
	}
	for _, u := range users {
		if u.UserID == id {
			return u, nil
		}
	}
	return User{}, core.NotFound("user %s", id)
}

// List returns every owner in registration order.
func (r *Registry) List() ([]User, error) {
	return r.load()
}

func ValidateName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if len(name) < 2 || len(name) > 40 {
		return "", core.Invalid("name", nil, "name length must be 2..40 characters")
	}
	for _, c := range name {
		ok := c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9' || c == '_' || c == '-'
		if !ok {
			return "", core.Invalid("name", nil, "name may contain letters, digits, _ and - only")
		}
	}
	return name, nil
}

// ValidateCurrency accepts ISO-4217 codes known to go-money.
func ValidateCurrency(code string) (string, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if len(code) != 3 || money.GetCurrency(code) == nil {
		return "", core.Invalid("currency", nil, "currency must be an ISO-4217 code such as USD or EUR")
	}
	return code, nil
}

func ValidatePIN(pin string) (string, error) {
	pin = strings.TrimSpace(pin)
	if len(pin) < 4 || len(pin) > 12 {
		return "", core.Invalid("pin", nil, "PIN length must be 4..12 digits")
	}
	for _, c := range pin {
		if c < '0' || c > '9' {
			return "", core.Invalid("pin", nil, "PIN must be numeric")
		}
	}
	return pin, nil
}

func hashPIN(pin string, iterations int) (Auth, error) {
	if iterations <= 0 {
		iterations = DefaultIterations
	}
	salt := make([]byte, saltBytes)
	if _, err := rand.Read(salt); err != nil {
		return Auth{}, fmt.Errorf("generate salt: %w", err)
	}
	key := pbkdf2.Key([]byte(pin), salt, iterations, keyBytes, sha256.New)
	return Auth{
		Algo:       AlgoPBKDF2SHA256,
		Iterations: iterations,
		SaltB64:    base64.StdEncoding.EncodeToString(salt),
		HashB64:    base64.StdEncoding.EncodeToString(key),
	}, nil
}

func verifyPIN(pin string, a Auth) bool {
	if a.Algo != AlgoPBKDF2SHA256 || a.Iterations <= 0 {
		return false
	}
	salt, err := base64.StdEncoding.DecodeString(a.SaltB64)
	if err != nil {
		return false
	}
	want, err := base64.StdEncoding.DecodeString(a.HashB64)
	if err != nil || len(want) == 0 {
		return false
	}
	got := pbkdf2.Key([]byte(pin), salt, a.Iterations, len(want), sha256.New)
	return subtle.ConstantTimeCompare(got, want) == 1
}
