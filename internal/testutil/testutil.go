package testutil

import (
	"context"
	"database/sql"
	"testing"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"google.golang.org/grpc/metadata"

	"donationRegistry/internal/db"
	"donationRegistry/models"
)

// OpenInMemoryDB opens a named shared-cache in-memory SQLite database with
// migrations applied and closes it when the test ends.
func OpenInMemoryDB(t *testing.T, name string) *sql.DB {
	t.Helper()
	d, err := db.Open("file:" + name + "?mode=memory&cache=shared")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { _ = d.Close() })
	return d
}

// NewLogger returns a silent logger whose entries can be inspected through the hook.
func NewLogger() (*logrus.Logger, *test.Hook) {
	return test.NewNullLogger()
}

// SignSessionToken returns an HS256 session token with the claims used by
// the session manager. An empty sid yields a token that no store accepts.
func SignSessionToken(t *testing.T, secret, sid, username, role string, ttl time.Duration) string {
	t.Helper()
	claims := jwt.MapClaims{
		"sid":  sid,
		"name": username,
		"role": role,
		"exp":  time.Now().Add(ttl).Unix(),
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

// Operator returns an unsaved operator user for session tests.
func Operator(username string) *models.User {
	return &models.User{Name: username, Username: username, Role: models.RoleOperator}
}
