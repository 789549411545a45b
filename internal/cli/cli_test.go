package cli

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"clientDirectory/internal/app"
	"clientDirectory/internal/auth"
	"clientDirectory/internal/config"
	"clientDirectory/models"
)

const cliSecret = "cli-secret"

// newEnv keeps one store open so the shared in-memory database outlives each command.
func newEnv(t *testing.T, name string) (Env, *app.Store) {
	t.Helper()
	cfg := &config.Config{
		Database: config.DatabaseConfig{Driver: "sqlite3", Path: "file:" + name + "?mode=memory&cache=shared"},
		Auth:     config.AuthConfig{JWTSecret: cliSecret, TokenTTL: time.Hour},
	}
	s, err := app.OpenStore(cfg.Database)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return Env{LoadConfig: func() (*config.Config, error) { return cfg, nil }}, s
}

func execute(t *testing.T, env Env, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	root := NewRootCmd(env, "test")
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestMigrateStatusAndDown(t *testing.T) {
	env, _ := newEnv(t, "climigrate")

	out, err := execute(t, env, "--json", "migrate", "status")
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	var got struct{ Applied []int }
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("decode %q: %v", out, err)
	}
	if len(got.Applied) != 2 {
		t.Fatalf("applied = %v", got.Applied)
	}

	out, err = execute(t, env, "migrate", "down")
	if err != nil {
		t.Fatalf("down: %v", err)
	}
	if strings.Contains(out, "2\n") {
		t.Fatalf("version 2 still listed after rollback:\n%s", out)
	}

	out, err = execute(t, env, "migrate", "up")
	if err != nil {
		t.Fatalf("up: %v", err)
	}
	if !strings.Contains(out, "VERSION") || !strings.Contains(out, "2") {
		t.Fatalf("unexpected up output:\n%s", out)
	}
}

func TestAdminCreateTokenAndStats(t *testing.T) {
	env, _ := newEnv(t, "cliadmin")

	out, err := execute(t, env, "admin", "create", "--username", "root", "--email", "root@example.com", "--password", "long-enough")
	if err != nil {
		t.Fatalf("admin create: %v", err)
	}
	if !strings.Contains(out, "ROLE_ADMIN") {
		t.Fatalf("admin not listed:\n%s", out)
	}

	out, err = execute(t, env, "--json", "token", "issue", "--username", "root")
	if err != nil {
		t.Fatalf("token: %v", err)
	}
	var tok struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal([]byte(out), &tok); err != nil {
		t.Fatalf("decode token: %v", err)
	}
	p, err := auth.ParseToken(tok.Token, cliSecret)
	if err != nil {
		t.Fatalf("parse issued token: %v", err)
	}
	if p.Username != "root" || p.Role != models.RoleAdmin {
		t.Fatalf("unexpected principal: %+v", p)
	}

	if _, err := execute(t, env, "token", "issue", "--username", "ghost"); err == nil {
		t.Fatalf("expected error for unknown user")
	}

	out, err = execute(t, env, "--json", "stats")
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	var stats map[string]int64
	if err := json.Unmarshal([]byte(out), &stats); err != nil {
		t.Fatalf("decode stats: %v", err)
	}
	if stats["users"] != 1 || stats["clients"] != 0 {
		t.Fatalf("stats = %v", stats)
	}
}

func TestAdminPromote(t *testing.T) {
	env, s := newEnv(t, "clipromote")
	if _, err := s.Users.Create(t.Context(), &models.User{Username: "bob", Email: "bob@example.com"}); err != nil {
		t.Fatalf("create user: %v", err)
	}
	if _, err := execute(t, env, "admin", "promote", "bob"); err != nil {
		t.Fatalf("promote: %v", err)
	}
	u, _ := s.Users.GetByUsername(t.Context(), "bob")
	if u == nil || u.Role != models.RoleAdmin {
		t.Fatalf("bob not promoted: %+v", u)
	}
	if _, err := execute(t, env, "admin", "promote", "nobody"); err == nil {
		t.Fatalf("expected error for unknown user")
	}
}
