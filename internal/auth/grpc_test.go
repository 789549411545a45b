package auth

import (
	"context"
	"testing"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"clientDirectory/internal/testutil"
	"clientDirectory/models"
	"clientDirectory/repository"
)

func TestRequireRole(t *testing.T) {
	ctx := WithPrincipal(context.Background(), &Principal{UserID: 1, Username: "u", Role: models.RoleUser})
	if _, err := RequireRole(ctx, models.RoleUser); err != nil {
		t.Fatalf("RequireRole user: %v", err)
	}
	_, err := RequireRole(ctx, models.RoleAdmin)
	if status.Code(err) != codes.PermissionDenied {
		t.Fatalf("expected PermissionDenied, got %v", err)
	}
	if _, err := RequirePrincipal(context.Background()); status.Code(err) != codes.Unauthenticated {
		t.Fatalf("expected Unauthenticated, got %v", err)
	}
}

func TestRequireAdmin_WithDBRoleCheck(t *testing.T) {
	g, _ := testutil.OpenGorm(t, "authadmin")
	users := repository.NewUserRepository(g)
	ctx := context.Background()

	alice, err := users.Create(ctx, &models.User{Username: "alice", Email: "alice@example.com"})
	if err != nil {
		t.Fatalf("create alice: %v", err)
	}
	// Spoofed principal role=admin but DB role is ROLE_USER
	pctx := WithPrincipal(ctx, &Principal{UserID: alice.ID, Username: "alice", Role: models.RoleAdmin})
	if _, err := RequireAdmin(pctx, users); status.Code(err) != codes.PermissionDenied {
		t.Fatalf("expected PermissionDenied for non-admin role, got %v", err)
	}

	if err := users.UpdateRoleByUsername(ctx, "alice", models.RoleAdmin); err != nil {
		t.Fatalf("update role: %v", err)
	}
	if _, err := RequireAdmin(pctx, users); err != nil {
		t.Fatalf("RequireAdmin real admin: %v", err)
	}

	// Renaming the account keeps the token usable.
	alice.Username = "alice2"
	if err := users.Update(ctx, alice); err != nil {
		t.Fatalf("rename: %v", err)
	}
	if _, err := RequireAdmin(pctx, users); err != nil {
		t.Fatalf("RequireAdmin after rename: %v", err)
	}

	// A token for a deleted account no longer grants anything.
	if err := users.Delete(ctx, alice.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := RequireAdmin(pctx, users); status.Code(err) != codes.PermissionDenied {
		t.Fatalf("expected PermissionDenied for deleted account, got %v", err)
	}
}

func TestUnaryAuthInterceptor(t *testing.T) {
	secret := "s3cr3t"
	interceptor := NewUnaryAuthInterceptor(secret, "/grpc.health.v1.Health/Check")

	// Allowlisted method: no header, handler runs without a principal.
	called := false
	_, err := interceptor(context.Background(), nil, &grpc.UnaryServerInfo{FullMethod: "/grpc.health.v1.Health/Check"}, func(ctx context.Context, req any) (any, error) {
		called = true
		if _, ok := FromContext(ctx); ok {
			t.Fatalf("expected no principal on allowlisted path")
		}
		return nil, nil
	})
	if err != nil || !called {
		t.Fatalf("allowlisted call: called=%v err=%v", called, err)
	}

	// Protected method without token.
	_, err = interceptor(context.Background(), nil, &grpc.UnaryServerInfo{FullMethod: "/crm.v1.Directory/Stats"}, func(ctx context.Context, req any) (any, error) {
		t.Fatalf("handler must not run")
		return nil, nil
	})
	if status.Code(err) != codes.Unauthenticated {
		t.Fatalf("expected Unauthenticated, got %v", err)
	}

	// Protected method with a valid token.
	tok := testutil.GenerateJWTHS256(t, secret, 9, "root", models.RoleAdmin)
	ctx := testutil.CtxWithBearer(context.Background(), tok)
	_, err = interceptor(ctx, nil, &grpc.UnaryServerInfo{FullMethod: "/crm.v1.Directory/Stats"}, func(ctx context.Context, req any) (any, error) {
		p, ok := FromContext(ctx)
		if !ok || p.Username != "root" || p.UserID != 9 {
			t.Fatalf("principal not injected: %+v", p)
		}
		return nil, nil
	})
	if err != nil {
		t.Fatalf("authorized call: %v", err)
	}
}
