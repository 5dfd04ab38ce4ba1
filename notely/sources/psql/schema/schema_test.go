package schema_test

import (
	"context"
	"errors"
	"testing"

	"notely/notely/sources/psql/dao"
	"notely/notely/sources/psql/models"
	"notely/notely/sources/psql/psqltest"
	"notely/notely/sources/psql/schema"

	"gorm.io/gorm"
)

func countLedger(t *testing.T, db *gorm.DB) int64 {
	t.Helper()
	var n int64
	if err := db.Model(&models.SchemaMigration{}).Count(&n).Error; err != nil {
		t.Fatalf("count ledger: %v", err)
	}
	return n
}

func TestEnsureCreatesTables(t *testing.T) {
	db := psqltest.OpenRaw(t)

	if err := schema.Ensure(context.Background(), db); err != nil {
		t.Fatalf("ensure: %v", err)
	}

	for _, model := range []any{&models.User{}, &models.Note{}, &models.NoteImage{}, &models.SchemaMigration{}} {
		if !db.Migrator().HasTable(model) {
			t.Errorf("expected table for %T", model)
		}
	}
	if !db.Migrator().HasColumn(&models.Note{}, "IsFavorite") {
		t.Error("expected notes.is_favorite")
	}
	if got, want := countLedger(t, db), int64(len(schema.Migrations())); got != want {
		t.Errorf("expected %d ledger rows, got %d", want, got)
	}
}

func TestEnsureTwiceIsNoop(t *testing.T) {
	db := psqltest.OpenRaw(t)
	ctx := context.Background()

	if err := schema.Ensure(ctx, db); err != nil {
		t.Fatalf("first ensure: %v", err)
	}
	if err := schema.Ensure(ctx, db); err != nil {
		t.Fatalf("second ensure should be idempotent: %v", err)
	}

	if got, want := countLedger(t, db), int64(len(schema.Migrations())); got != want {
		t.Errorf("expected %d ledger rows after replay, got %d", want, got)
	}
	columns, err := db.Migrator().ColumnTypes(&models.Note{})
	if err != nil {
		t.Fatalf("column types: %v", err)
	}
	seen := map[string]int{}
	for _, c := range columns {
		seen[c.Name()]++
	}
	for name, n := range seen {
		if n != 1 {
			t.Errorf("column %s appears %d times", name, n)
		}
	}
}

func TestEnsureUpgradesLegacyNotesTable(t *testing.T) {
	db := psqltest.OpenRaw(t)
	ctx := context.Background()

	// The pre-sign-in notes table: no owner, no favorites.
	legacy := []string{
		`CREATE TABLE notes (
			id integer PRIMARY KEY AUTOINCREMENT,
			title varchar(255) NOT NULL,
			content text NOT NULL,
			created_at datetime DEFAULT CURRENT_TIMESTAMP,
			updated_at datetime DEFAULT CURRENT_TIMESTAMP
		)`,
		`INSERT INTO notes (title, content) VALUES ('old', 'written before sign-in')`,
	}
	for _, stmt := range legacy {
		if err := db.Exec(stmt).Error; err != nil {
			t.Fatalf("legacy schema: %v", err)
		}
	}

	if err := schema.Ensure(ctx, db); err != nil {
		t.Fatalf("ensure over legacy schema: %v", err)
	}
	for _, field := range []string{"UserID", "IsFavorite", "UpdatedAt"} {
		if !db.Migrator().HasColumn(&models.Note{}, field) {
			t.Errorf("expected notes column for %s", field)
		}
	}
	if !db.Migrator().HasIndex(&models.Note{}, "idx_notes_user_id") {
		t.Error("expected index on notes.user_id")
	}
	if !db.Migrator().HasTable(&models.NoteImage{}) {
		t.Error("expected note_images to be created")
	}

	user := psqltest.CreateUser(t, db, "upgraded@example.com")
	noteDAO := dao.NewNoteDAO(db)
	note := &models.Note{Title: "new", Content: "after upgrade", UserID: user.ID}
	if err := noteDAO.CreateNote(ctx, note); err != nil {
		t.Fatalf("create after upgrade: %v", err)
	}
	list, err := noteDAO.GetAllNotesByUser(ctx, user.ID)
	if err != nil {
		t.Fatalf("list after upgrade: %v", err)
	}
	if len(list) != 1 || list[0].ID != note.ID {
		t.Errorf("expected only the owned note, got %+v", list)
	}

	var ownerless int64
	db.Model(&models.Note{}).Where("user_id IS NULL").Count(&ownerless)
	if ownerless != 1 {
		t.Errorf("expected the legacy row to be kept without owner, got %d", ownerless)
	}

	if err := schema.Ensure(ctx, db); err != nil {
		t.Fatalf("second ensure over upgraded schema: %v", err)
	}
}

func TestApplyRollsBackFailedMigration(t *testing.T) {
	db := psqltest.OpenRaw(t)
	boom := errors.New("boom")

	err := schema.Apply(context.Background(), db, []schema.Migration{
		{Version: 1, Name: "create_users", Up: func(tx *gorm.DB) error { return tx.Migrator().CreateTable(&models.User{}) }},
		{Version: 2, Name: "explode", Up: func(*gorm.DB) error { return boom }},
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	if db.Migrator().HasTable(&models.SchemaMigration{}) && countLedger(t, db) != 0 {
		t.Error("expected no ledger rows after rollback")
	}
}

func TestCascadeDeletesImages(t *testing.T) {
	db := psqltest.Open(t)
	user := psqltest.CreateUser(t, db, "cascade@example.com")

	note := models.Note{Title: "t", Content: "c", UserID: user.ID}
	if err := db.Create(&note).Error; err != nil {
		t.Fatalf("create note: %v", err)
	}
	img := models.NoteImage{NoteID: note.ID, ImageURL: "/images/notes/a.jpg", Filename: "a.jpg"}
	if err := db.Create(&img).Error; err != nil {
		t.Fatalf("create image: %v", err)
	}

	if err := db.Delete(&models.Note{}, note.ID).Error; err != nil {
		t.Fatalf("delete note: %v", err)
	}
	var n int64
	db.Model(&models.NoteImage{}).Where("note_id = ?", note.ID).Count(&n)
	if n != 0 {
		t.Errorf("expected cascade to remove images, %d left", n)
	}
}
