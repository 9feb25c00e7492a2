package store

import (
	"context"
	"testing"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(":memory:")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	if err := db.Migrate(context.Background()); err != nil {
		t.Fatalf("Migrate: %v", err)
	}
	return db
}

func TestMigrateIsIdempotent(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	if err := db.Migrate(ctx); err != nil {
		t.Fatalf("second Migrate: %v", err)
	}
	version, err := db.SchemaVersion(ctx)
	if err != nil {
		t.Fatalf("SchemaVersion: %v", err)
	}
	if version != currentSchemaVersion {
		t.Errorf("version = %d, want %d", version, currentSchemaVersion)
	}
}

func TestSessionLifecycle(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	sessions := db.Sessions()

	if err := sessions.Open(ctx, "sess1", "server", "10.0.0.5:4104"); err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := sessions.RecordAccepted(ctx, "sess1"); err != nil {
		t.Fatalf("RecordAccepted: %v", err)
	}
	if err := sessions.RecordAccepted(ctx, "sess1"); err != nil {
		t.Fatalf("RecordAccepted: %v", err)
	}
	if err := sessions.RecordRejected(ctx, "sess1", "invalid record order"); err != nil {
		t.Fatalf("RecordRejected: %v", err)
	}
	if err := sessions.Close(ctx, "sess1", OutcomeCompleted, ""); err != nil {
		t.Fatalf("Close: %v", err)
	}

	got, err := sessions.Get(ctx, "sess1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.RecordCount != 2 {
		t.Errorf("RecordCount = %d, want 2", got.RecordCount)
	}
	if got.RejectCount != 1 {
		t.Errorf("RejectCount = %d, want 1", got.RejectCount)
	}
	if got.Outcome != OutcomeCompleted {
		t.Errorf("Outcome = %q, want %q", got.Outcome, OutcomeCompleted)
	}
	if got.ClosedAt == nil {
		t.Error("ClosedAt should be set after Close")
	}
}

func TestSessionGetMissingReturnsNotFound(t *testing.T) {
	db := openTestDB(t)
	if _, err := db.Sessions().Get(context.Background(), "nope"); err != ErrSessionNotFound {
		t.Errorf("Get missing session: err = %v, want ErrSessionNotFound", err)
	}
}

func TestSessionListReturnsAllOpenedSessions(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	sessions := db.Sessions()

	for _, id := range []string{"a", "b", "c"} {
		if err := sessions.Open(ctx, id, "server", ""); err != nil {
			t.Fatalf("Open(%s): %v", id, err)
		}
	}

	list, err := sessions.List(ctx, 0)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(list) != 3 {
		t.Fatalf("List returned %d rows, want 3", len(list))
	}
}

func TestConnectionProfileCRUD(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	profiles := db.ConnectionProfiles()

	p := &ConnectionProfile{
		Name:          "analyzer-1",
		Host:          "192.168.1.50",
		Port:          4104,
		Encoding:      "latin1",
		TimeoutMS:     20000,
		RetryAttempts: 3,
	}
	if err := profiles.Create(ctx, p); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if p.ID == "" {
		t.Fatal("Create should assign an ID")
	}

	got, err := profiles.GetByName(ctx, "analyzer-1")
	if err != nil {
		t.Fatalf("GetByName: %v", err)
	}
	if got.Host != "192.168.1.50" || got.Port != 4104 {
		t.Errorf("got %+v", got)
	}

	if err := profiles.SetDefault(ctx, p.ID); err != nil {
		t.Fatalf("SetDefault: %v", err)
	}
	def, err := profiles.GetDefault(ctx)
	if err != nil {
		t.Fatalf("GetDefault: %v", err)
	}
	if def.ID != p.ID {
		t.Errorf("GetDefault returned %s, want %s", def.ID, p.ID)
	}

	p.Port = 4105
	if err := profiles.Update(ctx, p); err != nil {
		t.Fatalf("Update: %v", err)
	}
	got, err = profiles.Get(ctx, p.ID)
	if err != nil {
		t.Fatalf("Get after update: %v", err)
	}
	if got.Port != 4105 {
		t.Errorf("Port after update = %d, want 4105", got.Port)
	}

	if err := profiles.Delete(ctx, p.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := profiles.Get(ctx, p.ID); err != ErrConnectionProfileNotFound {
		t.Errorf("Get after delete: err = %v, want ErrConnectionProfileNotFound", err)
	}
}

func TestConnectionProfileDuplicateNameRejected(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	profiles := db.ConnectionProfiles()

	p := &ConnectionProfile{Name: "dup", Host: "h", Port: 1}
	if err := profiles.Create(ctx, p); err != nil {
		t.Fatalf("first Create: %v", err)
	}
	p2 := &ConnectionProfile{Name: "dup", Host: "h2", Port: 2}
	if err := profiles.Create(ctx, p2); err == nil {
		t.Error("expected UNIQUE constraint violation on duplicate name")
	}
}
