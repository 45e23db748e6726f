// internal/auth/auth.go
//
// User accounts and tokens for the bowling server.
// Responsibilities:
//   - Username/password validation and bcrypt hashing.
//   - User persistence in the shared SQLite database (users table).
//   - HS256 JWT signing and verification.
//   - Profile updates (display name, photo URL) and account deletion.
//
// The user ID is the opaque identity attached to games; nothing in the
// scoring core interprets it.

package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrUsernameTaken      = errors.New("username taken")
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidToken       = errors.New("invalid token")
)

// User is an account row.
type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
	DisplayName  string    `json:"displayName,omitempty"`
	PhotoURL     string    `json:"photoUrl,omitempty"`
}

// Profile is a partial update of a user's editable fields. Nil fields are
// left unchanged; an empty PhotoURL clears it.
type Profile struct {
	DisplayName *string `json:"displayName"`
	PhotoURL    *string `json:"photoUrl"`
}

// Directory stores users in SQL and issues tokens for them.
type Directory struct {
	db     *sql.DB
	secret []byte
	ttl    time.Duration
}

// NewDirectory builds a Directory over db. Tokens are signed with secret and
// expire after ttl.
func NewDirectory(db *sql.DB, secret string, ttl time.Duration) *Directory {
	return &Directory{db: db, secret: []byte(secret), ttl: ttl}
}

func normalizeUsername(u string) string {
	return strings.TrimSpace(u)
}

// ValidateSignup enforces basic username/password rules.
func ValidateSignup(u, p string) error {
	if len(u) < 3 || len(u) > 24 {
		return errors.New("username must be 3-24 chars")
	}
	for _, r := range u {
		if !(r == '_' || r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9') {
			return errors.New("username: letters, numbers, underscore only")
		}
	}
	if len(p) < 8 || len(p) > 72 {
		return errors.New("password must be 8-72 chars")
	}
	return nil
}

func hashPassword(pw string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(pw), bcrypt.DefaultCost)
	return string(b), err
}

func checkPassword(hash, pw string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(pw)) == nil
}

// Create validates input, checks uniqueness, hashes the password and inserts
// a new user.
func (d *Directory) Create(ctx context.Context, username, pw string) (*User, error) {
	username = normalizeUsername(username)
	if err := ValidateSignup(username, pw); err != nil {
		return nil, err
	}
	var exists int
	err := d.db.QueryRowContext(ctx, `SELECT 1 FROM users WHERE lower(username)=lower(?)`, username).Scan(&exists)
	if err == nil {
		return nil, ErrUsernameTaken
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("check username: %w", err)
	}

	h, err := hashPassword(pw)
	if err != nil {
		return nil, err
	}
	u := &User{
		ID:           uuid.NewString(),
		Username:     username,
		PasswordHash: h,
		CreatedAt:    time.Now().UTC().Truncate(time.Second),
	}
	_, err = d.db.ExecContext(ctx, `INSERT INTO users (id, username, password_hash, created_at) VALUES (?,?,?,?)`,
		u.ID, u.Username, u.PasswordHash, u.CreatedAt.Format(time.RFC3339))
	if err != nil {
		return nil, fmt.Errorf("insert user: %w", err)
	}
	return u, nil
}

// Authenticate returns the user when username and password match.
func (d *Directory) Authenticate(ctx context.Context, username, pw string) (*User, error) {
	u, err := d.FindByUsername(ctx, normalizeUsername(username))
	if err != nil || !checkPassword(u.PasswordHash, pw) {
		return nil, ErrInvalidCredentials
	}
	return u, nil
}

const userColumns = `id, username, password_hash, created_at,
                     COALESCE(display_name, ''), COALESCE(photo_url, '')`

// FindByUsername loads a user case-insensitively.
func (d *Directory) FindByUsername(ctx context.Context, username string) (*User, error) {
	row := d.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE lower(username)=lower(?)`, username)
	return scanUser(row)
}

// FindByID loads a user by ID.
func (d *Directory) FindByID(ctx context.Context, id string) (*User, error) {
	row := d.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id=?`, id)
	return scanUser(row)
}

// ValidateProfile checks a display name of 1-50 characters after trimming
// and a photo URL that is empty or an absolute http(s) URL.
func ValidateProfile(p Profile) error {
	if p.DisplayName != nil {
		if n := utf8.RuneCountInString(strings.TrimSpace(*p.DisplayName)); n < 1 || n > 50 {
			return errors.New("display name must be 1-50 chars")
		}
	}
	if p.PhotoURL != nil && *p.PhotoURL != "" {
		u, err := url.ParseRequestURI(*p.PhotoURL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return errors.New("photo URL must be an http or https URL")
		}
	}
	return nil
}

// UpdateProfile applies p to the user and returns the updated row.
func (d *Directory) UpdateProfile(ctx context.Context, id string, p Profile) (*User, error) {
	if err := ValidateProfile(p); err != nil {
		return nil, err
	}
	var set []string
	var args []any
	if p.DisplayName != nil {
		set = append(set, "display_name=?")
		args = append(args, strings.TrimSpace(*p.DisplayName))
	}
	if p.PhotoURL != nil {
		set = append(set, "photo_url=NULLIF(?, '')")
		args = append(args, *p.PhotoURL)
	}
	if len(set) > 0 {
		res, err := d.db.ExecContext(ctx, `UPDATE users SET `+strings.Join(set, ", ")+` WHERE id=?`, append(args, id)...)
		if err != nil {
			return nil, fmt.Errorf("update profile: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return nil, ErrUserNotFound
		}
	}
	return d.FindByID(ctx, id)
}

// Delete removes the user. Tokens issued to it stop verifying.
func (d *Directory) Delete(ctx context.Context, id string) error {
	res, err := d.db.ExecContext(ctx, `DELETE FROM users WHERE id=?`, id)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrUserNotFound
	}
	return nil
}

func scanUser(row *sql.Row) (*User, error) {
	var u User
	var created string
	if err := row.Scan(&u.ID, &u.Username, &u.PasswordHash, &created, &u.DisplayName, &u.PhotoURL); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	u.CreatedAt, _ = time.Parse(time.RFC3339, created)
	return &u, nil
}

// Sign creates an HS256 JWT carrying the user's id and username.
func (d *Directory) Sign(u *User) (string, time.Time, error) {
	now := time.Now()
	exp := now.Add(d.ttl)
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"id":       u.ID,
		"username": u.Username,
		"exp":      exp.Unix(),
		"iat":      now.Unix(),
	})
	ss, err := t.SignedString(d.secret)
	return ss, exp, err
}

// Verify parses a token and returns the user it names. The user must still
// exist.
func (d *Directory) Verify(ctx context.Context, token string) (*User, error) {
	claims := jwt.MapClaims{}
	t, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		return d.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !t.Valid {
		return nil, ErrInvalidToken
	}
	id, _ := claims["id"].(string)
	if id == "" {
		return nil, ErrInvalidToken
	}
	u, err := d.FindByID(ctx, id)
	if err != nil {
		return nil, ErrInvalidToken
	}
	return u, nil
}

// BearerOrCookie extracts a bearer token from the Authorization header or
// the named cookie.
func BearerOrCookie(r *http.Request, cookieName string) string {
	if a := r.Header.Get("Authorization"); strings.HasPrefix(strings.ToLower(a), "bearer ") {
		return strings.TrimSpace(a[7:])
	}
	if c, err := r.Cookie(cookieName); err == nil {
		return c.Value
	}
	return ""
}
