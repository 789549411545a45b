package testutil

import (
	"context"
	"database/sql"
	"strconv"
	"strings"
	"testing"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
	"google.golang.org/grpc/metadata"
	"gorm.io/gorm"

	"clientDirectory/internal/db"
)

// OpenInMemoryDB opens an in-memory SQLite database and applies migrations.
// The DB is closed through t.Cleanup.
func OpenInMemoryDB(t *testing.T, name string) *sql.DB {
	t.Helper()
	// Shared cache so every pooled connection sees the same database.
	d, err := db.Open("file:" + sanitize(name) + "?mode=memory&cache=shared")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { _ = d.Close() })
	return d
}

// OpenGorm opens a migrated in-memory database and returns a gorm session over it.
func OpenGorm(t *testing.T, name string) (*gorm.DB, *sql.DB) {
	t.Helper()
	d := OpenInMemoryDB(t, name)
	g, err := db.Gorm(d, db.DriverSQLite)
	if err != nil {
		t.Fatalf("gorm: %v", err)
	}
	return g, d
}

// GenerateJWTHS256 returns a signed token carrying the claims the app issues.
func GenerateJWTHS256(t *testing.T, secret string, uid int64, username, role string) string {
	t.Helper()
	now := time.Now()
	claims := jwt.MapClaims{
		"uid":      uid,
		"username": username,
		"role":     role,
		"sub":      strconv.FormatInt(uid, 10),
		"iat":      now.Unix(),
		"exp":      now.Add(time.Hour).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	s, err := token.SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return s
}

// CtxWithBearer returns a context containing gRPC metadata Authorization header with the given token.
func CtxWithBearer(ctx context.Context, token string) context.Context {
	md := metadata.Pairs("authorization", "Bearer "+token)
	return metadata.NewIncomingContext(ctx, md)
}

func sanitize(name string) string {
	return strings.NewReplacer("/", "_", " ", "_", "?", "_", "&", "_").Replace(name)
}
