package utils

import (
    "errors"
    "strings"
    "testing"
    "time"

    "github.com/golang-jwt/jwt/v5"
    "golang.org/x/crypto/bcrypt"
)

func TestAccessTokenRoundTrip(t *testing.T) {
    tok, err := NewAccessToken("s3cret", "user-1", 15)
    if err != nil {
        t.Fatalf("NewAccessToken: %v", err)
    }
    if until := time.Until(tok.Exp); until <= 14*time.Minute || until > 15*time.Minute {
        t.Fatalf("expiry in %v, want about 15m", until)
    }
    sub, err := ParseAccessToken("s3cret", tok.Token)
    if err != nil {
        t.Fatalf("ParseAccessToken: %v", err)
    }
    if sub != "user-1" {
        t.Fatalf("subject = %q", sub)
    }
}

func TestParseAccessTokenRejects(t *testing.T) {
    good, err := NewAccessToken("s3cret", "user-1", 15)
    if err != nil {
        t.Fatal(err)
    }
    expired, err := NewAccessToken("s3cret", "user-1", -1)
    if err != nil {
        t.Fatal(err)
    }
    noSubject, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
        ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
    }).SignedString([]byte("s3cret"))
    if err != nil {
        t.Fatal(err)
    }
    noExpiry, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
        Subject: "user-1",
    }).SignedString([]byte("s3cret"))
    if err != nil {
        t.Fatal(err)
    }
    hs512, err := jwt.NewWithClaims(jwt.SigningMethodHS512, jwt.RegisteredClaims{
        Subject:   "user-1",
        ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
    }).SignedString([]byte("s3cret"))
    if err != nil {
        t.Fatal(err)
    }

    cases := map[string]struct{ secret, raw string }{
        "wrong secret":    {"other", good.Token},
        "expired":         {"s3cret", expired.Token},
        "no subject":      {"s3cret", noSubject},
        "no expiry":       {"s3cret", noExpiry},
        "other algorithm": {"s3cret", hs512},
        "garbage":         {"s3cret", "not.a.jwt"},
    }
    for name, tc := range cases {
        if _, err := ParseAccessToken(tc.secret, tc.raw); !errors.Is(err, ErrInvalidToken) {
            t.Errorf("%s: err = %v, want ErrInvalidToken", name, err)
        }
    }
}

func TestRefreshToken(t *testing.T) {
    a, err := NewRefreshToken(30)
    if err != nil {
        t.Fatalf("NewRefreshToken: %v", err)
    }
    b, err := NewRefreshToken(30)
    if err != nil {
        t.Fatalf("NewRefreshToken: %v", err)
    }
    if len(a.Raw) != 96 || a.Raw == b.Raw {
        t.Fatalf("raw tokens %q / %q", a.Raw, b.Raw)
    }
    if d := time.Until(a.Exp); d < 29*24*time.Hour {
        t.Fatalf("expiry in %v", d)
    }
    if h := HashRefreshRaw(a.Raw); len(h) != 64 || h != HashRefreshRaw(a.Raw) || h == HashRefreshRaw(b.Raw) {
        t.Fatalf("hash %q not stable or not distinct", h)
    }
}

func TestPassword(t *testing.T) {
    hash, err := HashPassword("correct horse", bcrypt.MinCost)
    if err != nil {
        t.Fatalf("HashPassword: %v", err)
    }
    if !VerifyPassword(hash, "correct horse") {
        t.Fatal("correct password rejected")
    }
    if VerifyPassword(hash, "battery staple") {
        t.Fatal("wrong password accepted")
    }
    if VerifyPassword("not-a-hash", "correct horse") {
        t.Fatal("malformed hash accepted")
    }
    if VerifyPassword("", "correct horse") {
        t.Fatal("empty hash accepted")
    }
}

func TestPasswordRules(t *testing.T) {
    long := strings.Repeat("a", 73)
    cases := []struct {
        plain string
        want  error
    }{
        {"short", ErrPasswordTooShort},
        {"", ErrPasswordTooShort},
        {"eight ch", nil},
        {"çàéèüößñ", nil},
        {strings.Repeat("a", 72), nil},
        {long, ErrPasswordTooLong},
    }
    for _, tc := range cases {
        if err := ValidatePassword(tc.plain); !errors.Is(err, tc.want) {
            t.Errorf("ValidatePassword(%q) = %v, want %v", tc.plain, err, tc.want)
        }
    }
    if _, err := HashPassword("short", bcrypt.MinCost); !errors.Is(err, ErrPasswordTooShort) {
        t.Fatalf("HashPassword(short) err = %v", err)
    }
    if _, err := HashPassword(long, bcrypt.MinCost); !errors.Is(err, ErrPasswordTooLong) {
        t.Fatalf("HashPassword(long) err = %v", err)
    }
    if VerifyPassword("$2a$04$irrelevant", long) {
        t.Fatal("over-long password verified")
    }
}
