// Package schema ensures the notely tables exist. Migrations are versioned,
// recorded in schema_migrations, and each one is guarded by existence checks
// so that legacy or partially migrated databases converge instead of failing.
package schema

import (
	"context"
	"fmt"
	"time"

	"notely/notely/sources/psql/models"
	"notely/notely/utils/logging"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// advisoryLockKey serializes concurrent Ensure calls on PostgreSQL.
const advisoryLockKey int64 = 0x6e6f74656c79 // "notely"

// Migration is one additive schema step.
type Migration struct {
	Version int
	Name    string
	Up      func(tx *gorm.DB) error
}

// Migrations returns the ordered migration list.
func Migrations() []Migration {
	return []Migration{
		{Version: 1, Name: "create_users", Up: createTable(&models.User{})},
		{Version: 2, Name: "create_notes", Up: createTable(&models.Note{})},
		{Version: 3, Name: "add_notes_is_favorite", Up: addColumn(&models.Note{}, "IsFavorite")},
		{Version: 4, Name: "add_notes_updated_at", Up: addColumn(&models.Note{}, "UpdatedAt")},
		{Version: 5, Name: "create_note_images", Up: createNoteImages},
		{Version: 6, Name: "add_notes_user_id", Up: addNotesUserID},
		{Version: 7, Name: "index_users_lower_email", Up: indexLowerEmail},
	}
}

// Ensure applies every pending migration inside a single transaction.
// Running it again is a no-op.
func Ensure(ctx context.Context, db *gorm.DB) error {
	return Apply(ctx, db, Migrations())
}

// Apply runs the given migrations at most once each.
func Apply(ctx context.Context, db *gorm.DB, migrations []Migration) error {
	defer logging.LogDuration(ctx, "schema.Ensure")()

	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if tx.Dialector.Name() == "postgres" {
			if err := tx.Exec("SELECT pg_advisory_xact_lock(?)", advisoryLockKey).Error; err != nil {
				return fmt.Errorf("acquire migration lock: %w", err)
			}
		}

		if !tx.Migrator().HasTable(&models.SchemaMigration{}) {
			if err := tx.Migrator().CreateTable(&models.SchemaMigration{}); err != nil {
				return fmt.Errorf("create migration ledger: %w", err)
			}
		}

		var applied []int
		if err := tx.Model(&models.SchemaMigration{}).Pluck("version", &applied).Error; err != nil {
			return fmt.Errorf("read migration ledger: %w", err)
		}
		done := make(map[int]bool, len(applied))
		for _, v := range applied {
			done[v] = true
		}

		for _, m := range migrations {
			if done[m.Version] {
				continue
			}
			if err := m.Up(tx); err != nil {
				return fmt.Errorf("migration %03d_%s: %w", m.Version, m.Name, err)
			}
			record := models.SchemaMigration{Version: m.Version, Name: m.Name, AppliedAt: time.Now().UTC()}
			if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&record).Error; err != nil {
				return fmt.Errorf("record migration %03d_%s: %w", m.Version, m.Name, err)
			}
			logging.AppLogger.Info("applied migration", zap.Int("version", m.Version), zap.String("name", m.Name))
		}
		return nil
	})
}

func createTable(model any) func(tx *gorm.DB) error {
	return func(tx *gorm.DB) error {
		if tx.Migrator().HasTable(model) {
			return nil
		}
		return tx.Migrator().CreateTable(model)
	}
}

// createNoteImages needs the notes schema parsed first: the cascading foreign
// key is declared on Note.Images.
func createNoteImages(tx *gorm.DB) error {
	if !tx.Migrator().HasTable(&models.Note{}) {
		return fmt.Errorf("notes table is missing")
	}
	return createTable(&models.NoteImage{})(tx)
}

func addColumn(model any, field string) func(tx *gorm.DB) error {
	return func(tx *gorm.DB) error {
		if tx.Migrator().HasColumn(model, field) {
			return nil
		}
		return tx.Migrator().AddColumn(model, field)
	}
}

// addNotesUserID gives a pre-ownership notes table its owner column. The
// column stays nullable: rows written before sign-in existed have no owner and
// are kept, but no owner-scoped query can ever return them.
func addNotesUserID(tx *gorm.DB) error {
	if tx.Migrator().HasColumn(&models.Note{}, "UserID") {
		return nil
	}
	if err := tx.Exec("ALTER TABLE notes ADD COLUMN user_id INTEGER REFERENCES users(id)").Error; err != nil {
		return err
	}
	return tx.Exec("CREATE INDEX IF NOT EXISTS idx_notes_user_id ON notes (user_id)").Error
}

// indexLowerEmail backs the case-insensitive email lookup.
func indexLowerEmail(tx *gorm.DB) error {
	return tx.Exec("CREATE INDEX IF NOT EXISTS idx_users_lower_email ON users (lower(email))").Error
}
