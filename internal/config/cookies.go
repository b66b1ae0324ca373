package config

import (
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	authCookie = "auth"
	signCookie = "sign"
)

// Cookies carries a player's JWT split in two: header and payload in a
// script-readable "auth" cookie, the signature in an HttpOnly "sign" cookie.
type Cookies struct {
	Domain   string
	Secure   bool
	SameSite http.SameSite
	jwt      *JWT
}

type PlayerClaims struct {
	PlayerID int64  `json:"player_id"`
	Username string `json:"username"`
	jwt.RegisteredClaims
}

func NewPlayerClaims(playerID int64, username string) *PlayerClaims {
	return &PlayerClaims{
		PlayerID: playerID,
		Username: username,
	}
}

func parseSameSite(s string) http.SameSite {
	switch strings.ToUpper(s) {
	case "DEFAULT":
		return http.SameSiteDefaultMode
	case "LAX":
		return http.SameSiteLaxMode
	case "NONE":
		return http.SameSiteNoneMode
	default:
		return http.SameSiteStrictMode
	}
}

func NewCookies(j *JWT) (*Cookies, error) {
	domain, ok := os.LookupEnv("COOKIES_DOMAIN")
	if !ok {
		return nil, fmt.Errorf("COOKIES_DOMAIN env variable is not set")
	}

	secureStr, ok := os.LookupEnv("COOKIES_SECURE")
	if !ok {
		return nil, fmt.Errorf("COOKIES_SECURE env variable is not set")
	}

	sameSiteStr, ok := os.LookupEnv("COOKIES_SAMESITE")
	if !ok {
		return nil, fmt.Errorf("COOKIES_SAMESITE env variable is not set")
	}

	cookies := &Cookies{
		Domain:   domain,
		Secure:   secureStr != "0",
		SameSite: parseSameSite(sameSiteStr),
		jwt:      j,
	}

	return cookies, nil
}

// NewCookiesWith builds cookies without reading the environment.
func NewCookiesWith(j *JWT, domain string, secure bool, sameSite http.SameSite) *Cookies {
	return &Cookies{Domain: domain, Secure: secure, SameSite: sameSite, jwt: j}
}

func (c *Cookies) JWT() *JWT {
	return c.jwt
}

func (c *Cookies) set(w http.ResponseWriter, name, value string, httpOnly bool, expires time.Time, maxAge int) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Path:     "/",
		Value:    value,
		Expires:  expires,
		MaxAge:   maxAge,
		HttpOnly: httpOnly,
		Domain:   c.Domain,
		Secure:   c.Secure,
		SameSite: c.SameSite,
	})
}

func (c *Cookies) Clear(w http.ResponseWriter) {
	c.set(w, authCookie, "delete", false, time.Time{}, -1)
	c.set(w, signCookie, "delete", true, time.Time{}, -1)
}

// Refresh signs claims and stores the token in the response cookies.
func (c *Cookies) Refresh(w http.ResponseWriter, claims *PlayerClaims) error {
	claims.ExpiresAt = jwt.NewNumericDate(time.Now().Add(c.jwt.tokenLifetime))
	token, err := c.jwt.Sign(claims)
	if err != nil {
		return err
	}
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		return fmt.Errorf("malformed JWT token generated")
	}
	header, payload, signature := parts[0], parts[1], parts[2]
	expires := time.Now().Add(c.jwt.tokenLifetime)
	c.set(w, authCookie, header+"."+payload, false, expires, 0)
	c.set(w, signCookie, signature, true, expires, 0)
	return nil
}

func (c *Cookies) ParsePlayerClaims(r *http.Request) (*PlayerClaims, error) {
	auth, err := r.Cookie(authCookie)
	if err != nil {
		return nil, err
	}
	sign, err := r.Cookie(signCookie)
	if err != nil {
		return nil, err
	}
	token, err := c.jwt.ParseWithClaims(auth.Value+"."+sign.Value, &PlayerClaims{})
	if err != nil {
		return nil, err
	}
	claims, ok := token.Claims.(*PlayerClaims)
	if !ok {
		return nil, fmt.Errorf("malformed claims")
	}
	return claims, nil
}
