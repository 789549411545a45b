package repository

import (
	"context"
	"errors"
	"testing"

	"clientDirectory/internal/testutil"
	"clientDirectory/models"
)

func TestUserRepository_CRUDAndQueries(t *testing.T) {
	g, _ := testutil.OpenGorm(t, "userrepo")
	repo := NewUserRepository(g)
	ctx := context.Background()

	// Create
	u, err := repo.Create(ctx, &models.User{Username: "alice", Email: "alice@example.com", PasswordHash: "x"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if u.ID == 0 || u.Username != "alice" || u.Role != models.RoleUser {
		t.Fatalf("unexpected created user: %+v", u)
	}

	// GetByID
	got, err := repo.GetByID(ctx, u.ID)
	if err != nil || got == nil || got.Username != "alice" {
		t.Fatalf("get by id: %v %+v", err, got)
	}

	// GetByUsername / GetByEmail
	got, err = repo.GetByUsername(ctx, "alice")
	if err != nil || got == nil || got.ID != u.ID {
		t.Fatalf("get by username: %v %+v", err, got)
	}
	got, err = repo.GetByEmail(ctx, "ALICE@example.com")
	if err != nil || got == nil || got.ID != u.ID {
		t.Fatalf("get by email: %v %+v", err, got)
	}
	missing, err := repo.GetByUsername(ctx, "nobody")
	if err != nil || missing != nil {
		t.Fatalf("missing user should be nil,nil: %+v %v", missing, err)
	}

	// List with username filter
	if _, err := repo.Create(ctx, &models.User{Username: "bob", Email: "bob@example.com"}); err != nil {
		t.Fatalf("create bob: %v", err)
	}
	list, err := repo.List(ctx, UserFilter{Username: "bob"})
	if err != nil || len(list) != 1 || list[0].Username != "bob" {
		t.Fatalf("list filtered: %v %+v", err, list)
	}
	n, err := repo.Count(ctx)
	if err != nil || n != 2 {
		t.Fatalf("count = %d, %v", n, err)
	}

	// Update
	u.Email = "alice@corp.example"
	if err := repo.Update(ctx, u); err != nil {
		t.Fatalf("update: %v", err)
	}
	got, _ = repo.GetByID(ctx, u.ID)
	if got.Email != "alice@corp.example" {
		t.Fatalf("email not updated: %+v", got)
	}
	if err := repo.Update(ctx, &models.User{ID: 9999, Username: "ghost", Email: "g@x.io", Role: models.RoleUser}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("update missing: want ErrNotFound, got %v", err)
	}

	// UpdateRoleByUsername
	if err := repo.UpdateRoleByUsername(ctx, "alice", models.RoleAdmin); err != nil {
		t.Fatalf("update role: %v", err)
	}
	got, _ = repo.GetByUsername(ctx, "alice")
	if !got.IsAdmin() {
		t.Fatalf("role not updated: %+v", got)
	}
	if err := repo.UpdateRoleByUsername(ctx, "nobody", models.RoleAdmin); !errors.Is(err, ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}

	// Delete
	if err := repo.Delete(ctx, u.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	gone, err := repo.GetByID(ctx, u.ID)
	if err != nil || gone != nil {
		t.Fatalf("expected user deleted, got: %+v err=%v", gone, err)
	}
	if err := repo.Delete(ctx, u.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("second delete: want ErrNotFound, got %v", err)
	}
}

func TestUserRepository_UniqueConstraints(t *testing.T) {
	g, _ := testutil.OpenGorm(t, "useruniq")
	repo := NewUserRepository(g)
	ctx := context.Background()

	if _, err := repo.Create(ctx, &models.User{Username: "carol", Email: "carol@example.com"}); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := repo.Create(ctx, &models.User{Username: "carol", Email: "other@example.com"}); !errors.Is(err, ErrAlreadyExists) {
		t.Fatalf("duplicate username: want ErrAlreadyExists, got %v", err)
	}
	if _, err := repo.Create(ctx, &models.User{Username: "carol2", Email: "carol@example.com"}); !errors.Is(err, ErrAlreadyExists) {
		t.Fatalf("duplicate email: want ErrAlreadyExists, got %v", err)
	}
	bad := int64(4242)
	if _, err := repo.Create(ctx, &models.User{Username: "dave", Email: "dave@example.com", CompanyID: &bad}); !errors.Is(err, ErrInvalidReference) {
		t.Fatalf("unknown company: want ErrInvalidReference, got %v", err)
	}
}

func TestUserRepository_ListByCompany(t *testing.T) {
	g, _ := testutil.OpenGorm(t, "userbycompany")
	users := NewUserRepository(g)
	companies := NewCompanyRepository(g)
	ctx := context.Background()

	acme, err := companies.Create(ctx, &models.Company{Name: "Acme", Employees: 2})
	if err != nil {
		t.Fatalf("create company: %v", err)
	}
	for _, name := range []string{"erin", "frank"} {
		if _, err := users.Create(ctx, &models.User{Username: name, Email: name + "@acme.io", CompanyID: &acme.ID}); err != nil {
			t.Fatalf("create %s: %v", name, err)
		}
	}
	if _, err := users.Create(ctx, &models.User{Username: "grace", Email: "grace@else.io"}); err != nil {
		t.Fatalf("create grace: %v", err)
	}
	staff, err := users.ListByCompany(ctx, acme.ID, Page{})
	if err != nil {
		t.Fatalf("list by company: %v", err)
	}
	if len(staff) != 2 || staff[0].Username != "erin" || staff[1].Username != "frank" {
		t.Fatalf("unexpected staff: %+v", staff)
	}
	page, _ := users.List(ctx, UserFilter{Page: Page{Limit: 1, Offset: 1}})
	if len(page) != 1 || page[0].Username != "frank" {
		t.Fatalf("paging: %+v", page)
	}
}

func TestUserRepository_EnsureAdmin(t *testing.T) {
	g, _ := testutil.OpenGorm(t, "userensureadmin")
	repo := NewUserRepository(g)
	ctx := context.Background()

	admin, created, err := repo.EnsureAdmin(ctx, "root", "Root@Example.com", "hash")
	if err != nil || !created || !admin.IsAdmin() || admin.Email != "root@example.com" {
		t.Fatalf("first ensure: created=%v admin=%+v err=%v", created, admin, err)
	}
	again, created, err := repo.EnsureAdmin(ctx, "root", "root@example.com", "hash")
	if err != nil || created || again.ID != admin.ID {
		t.Fatalf("second ensure: created=%v admin=%+v err=%v", created, again, err)
	}

	if _, err := repo.Create(ctx, &models.User{Username: "ops", Email: "ops@example.com"}); err != nil {
		t.Fatalf("create ops: %v", err)
	}
	promoted, created, err := repo.EnsureAdmin(ctx, "ops", "ops@example.com", "hash")
	if err != nil || created || !promoted.IsAdmin() {
		t.Fatalf("promote: created=%v user=%+v err=%v", created, promoted, err)
	}
}

func TestPage_Normalize(t *testing.T) {
	p := Page{Limit: 0, Offset: -3}.Normalize()
	if p.Limit != defaultPageSize || p.Offset != 0 {
		t.Fatalf("normalize zero: %+v", p)
	}
	if p := (Page{Limit: 1000}).Normalize(); p.Limit != maxPageSize {
		t.Fatalf("normalize cap: %+v", p)
	}
}

func TestPaginate(t *testing.T) {
	items := []int{1, 2, 3, 4, 5}
	if got := Paginate(items, Page{Limit: 2, Offset: 1}); len(got) != 2 || got[0] != 2 || got[1] != 3 {
		t.Fatalf("window: %v", got)
	}
	if got := Paginate(items, Page{Limit: 10, Offset: 4}); len(got) != 1 || got[0] != 5 {
		t.Fatalf("tail: %v", got)
	}
	if got := Paginate(items, Page{Offset: 9}); got == nil || len(got) != 0 {
		t.Fatalf("past end: %v", got)
	}
}

func TestEscapeLike(t *testing.T) {
	if got := escapeLike(`50%_a\b`); got != `50\%\_a\\b` {
		t.Fatalf("escapeLike = %q", got)
	}
}
