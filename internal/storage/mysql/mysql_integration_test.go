//go:build integration || !unit

package mysql_test

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"sort"
	"testing"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/google/uuid"
	"github.com/ory/dockertest/v3"
	"github.com/ory/dockertest/v3/docker"

	"hotelier/internal/domain"
	mysqlrepo "hotelier/internal/storage/mysql"
)

// ---------- small helpers ----------

func mustEnv(t *testing.T, k string) string {
	t.Helper()
	v := os.Getenv(k)
	if v == "" {
		t.Fatalf("%s not set; export it (e.g. MIGRATIONS_DIR=/path/to/migrations)", k)
	}
	return v
}

func applyMigrations(t *testing.T, db *sql.DB) {
	t.Helper()
	dir := mustEnv(t, "MIGRATIONS_DIR")

	st, err := os.Stat(dir)
	if err != nil || !st.IsDir() {
		t.Fatalf("MIGRATIONS_DIR=%s is not a directory or missing", dir)
	}

	ents, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read migrations dir: %v", err)
	}
	var files []string
	for _, e := range ents {
		if !e.IsDir() && filepath.Ext(e.Name()) == ".sql" {
			files = append(files, filepath.Join(dir, e.Name()))
		}
	}
	if len(files) == 0 {
		t.Fatalf("no .sql files in %s", dir)
	}
	sort.Strings(files)

	for _, f := range files {
		sqlBytes, err := os.ReadFile(f)
		if err != nil {
			t.Fatalf("read %s: %v", f, err)
		}
		if _, err := db.Exec(string(sqlBytes)); err != nil {
			t.Fatalf("exec %s: %v", f, err)
		}
	}
}

func startMySQL(t *testing.T) *sql.DB {
	t.Helper()
	pool, err := dockertest.NewPool("")
	if err != nil {
		t.Fatalf("dockertest: %v", err)
	}

	runOpts := &dockertest.RunOptions{
		Repository: "mysql",
		Tag:        "8.0.36",
		Env: []string{
			"MYSQL_ROOT_PASSWORD=root",
			"MYSQL_DATABASE=hotelier",
		},
	}
	resource, err := pool.RunWithOptions(runOpts, func(hc *docker.HostConfig) {
		hc.AutoRemove = true
		hc.RestartPolicy = docker.RestartPolicy{Name: "no"}
	})
	if err != nil {
		t.Fatalf("run mysql: %v", err)
	}
	t.Cleanup(func() { _ = pool.Purge(resource) })

	hostPort := resource.GetPort("3306/tcp")
	dsn := fmt.Sprintf("root:%s@tcp(127.0.0.1:%s)/%s?parseTime=true&multiStatements=true&charset=utf8mb4,utf8&loc=UTC",
		"root", hostPort, "hotelier")

	var db *sql.DB
	if err := pool.Retry(func() error {
		var e error
		db, e = sql.Open("mysql", dsn)
		if e != nil {
			return e
		}
		return db.Ping()
	}); err != nil {
		t.Fatalf("connect mysql: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	applyMigrations(t, db)
	return db
}

func seedHotel(owner, hotelID string) domain.Hotel {
	now := time.Now().UTC().Truncate(time.Second)
	return domain.Hotel{
		ID:            uuid.NewString(),
		HotelID:       hotelID,
		OwnerID:       owner,
		Name:          "Harbour View",
		City:          "Lisbon",
		Country:       "PT",
		Description:   "quiet rooms near the water",
		Type:          "boutique",
		PricePerNight: 100,
		Facilities:    []string{"wifi", "pool"},
		Images:        []string{"https://cdn.example/1.jpg"},
		Version:       1,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

// ---------- the test ----------

func TestRepo_MySQL_InsertFindReplace(t *testing.T) {
	db := startMySQL(t)
	repo := mysqlrepo.New(db)
	ctx := context.Background()

	h := seedHotel("u1", "h1")
	if err := repo.Insert(ctx, h); err != nil {
		t.Fatalf("Insert: %v", err)
	}

	// resolvable through both key spaces
	byPrimary, err := repo.FindByKey(ctx, domain.KeyPrimary, h.ID, "u1")
	if err != nil {
		t.Fatalf("FindByKey primary: %v", err)
	}
	byBusiness, err := repo.FindByKey(ctx, domain.KeyBusiness, "h1", "u1")
	if err != nil {
		t.Fatalf("FindByKey business: %v", err)
	}
	if byPrimary.ID != h.ID || byBusiness.ID != h.ID {
		t.Fatalf("lookups disagree: %s %s", byPrimary.ID, byBusiness.ID)
	}
	if !reflect.DeepEqual(byPrimary.Facilities, h.Facilities) || !reflect.DeepEqual(byPrimary.Images, h.Images) {
		t.Fatalf("JSON columns did not round-trip: %+v", byPrimary)
	}

	// owner scope filters
	if _, err := repo.FindByKey(ctx, domain.KeyBusiness, "h1", "intruder"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for foreign owner, got %v", err)
	}

	// conditional replace succeeds at the current version
	upd := byBusiness
	upd.PricePerNight = 120
	upd.Images = append(upd.Images, "https://cdn.example/2.jpg")
	upd.UpdatedAt = time.Now().UTC().Truncate(time.Second)
	if err := repo.Replace(ctx, domain.KeyBusiness, "h1", "u1", upd); err != nil {
		t.Fatalf("Replace: %v", err)
	}

	got, err := repo.FindByKey(ctx, domain.KeyPrimary, h.ID, "")
	if err != nil {
		t.Fatalf("FindByKey after replace: %v", err)
	}
	if got.PricePerNight != 120 || got.Version != 2 || len(got.Images) != 2 {
		t.Fatalf("replace not applied: %+v", got)
	}

	// stale version loses
	stale := upd // still carries Version 1
	stale.PricePerNight = 999
	if err := repo.Replace(ctx, domain.KeyPrimary, h.ID, "u1", stale); !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("expected ErrConflict for stale version, got %v", err)
	}

	// missing row is NotFound, not Conflict
	gone := got
	if err := repo.Replace(ctx, domain.KeyPrimary, uuid.NewString(), "u1", gone); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for missing row, got %v", err)
	}
}

func TestRepo_MySQL_DuplicateBusinessKey(t *testing.T) {
	db := startMySQL(t)
	repo := mysqlrepo.New(db)
	ctx := context.Background()

	// two rows share the business key; the older one wins resolution
	older := seedHotel("u1", "dup")
	newer := seedHotel("u1", "dup")
	newer.Name = "Second Harbour View"
	newer.CreatedAt = older.CreatedAt.Add(time.Second)
	newer.UpdatedAt = newer.CreatedAt
	if err := repo.Insert(ctx, older); err != nil {
		t.Fatalf("Insert older: %v", err)
	}
	if err := repo.Insert(ctx, newer); err != nil {
		t.Fatalf("Insert newer: %v", err)
	}

	resolved, err := repo.FindByKey(ctx, domain.KeyBusiness, "dup", "u1")
	if err != nil {
		t.Fatalf("FindByKey: %v", err)
	}
	if resolved.ID != older.ID {
		t.Fatalf("resolution not deterministic: got %s, want %s", resolved.ID, older.ID)
	}

	// a business-keyed replace touches only the resolved row
	upd := resolved
	upd.PricePerNight = 150
	upd.UpdatedAt = time.Now().UTC().Truncate(time.Second)
	if err := repo.Replace(ctx, domain.KeyBusiness, "dup", "u1", upd); err != nil {
		t.Fatalf("Replace: %v", err)
	}

	got, err := repo.FindByKey(ctx, domain.KeyPrimary, older.ID, "u1")
	if err != nil {
		t.Fatalf("FindByKey resolved row: %v", err)
	}
	if got.PricePerNight != 150 || got.Version != 2 {
		t.Fatalf("replace not applied to resolved row: %+v", got)
	}

	other, err := repo.FindByKey(ctx, domain.KeyPrimary, newer.ID, "u1")
	if err != nil {
		t.Fatalf("FindByKey sibling row: %v", err)
	}
	if other.PricePerNight != 100 || other.Version != 1 || other.Name != "Second Harbour View" {
		t.Fatalf("sibling row clobbered by business-keyed replace: %+v", other)
	}

	// stale-version disambiguation also stays pinned: the sibling still
	// carrying version 1 must not turn this into a false success
	stale := resolved // Version 1, the resolved row is at 2 now
	stale.PricePerNight = 999
	if err := repo.Replace(ctx, domain.KeyBusiness, "dup", "u1", stale); !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("expected ErrConflict for stale version, got %v", err)
	}
	if other2, _ := repo.FindByKey(ctx, domain.KeyPrimary, newer.ID, "u1"); other2.Version != 1 {
		t.Fatalf("sibling row mutated by stale replace: %+v", other2)
	}
}

func TestRepo_MySQL_List(t *testing.T) {
	db := startMySQL(t)
	repo := mysqlrepo.New(db)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		h := seedHotel("u1", fmt.Sprintf("h%d", i))
		if err := repo.Insert(ctx, h); err != nil {
			t.Fatalf("Insert: %v", err)
		}
	}
	if err := repo.Insert(ctx, seedHotel("u2", "other")); err != nil {
		t.Fatalf("Insert: %v", err)
	}

	got, err := repo.List(ctx, "u1", 50)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 listings for u1, got %d", len(got))
	}
	for _, h := range got {
		if h.OwnerID != "u1" {
			t.Fatalf("foreign listing leaked: %+v", h)
		}
	}
}
