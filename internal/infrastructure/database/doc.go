// Package database provides the SQLite store behind saved scenes and schedules.
//
// Open configures WAL mode and a busy timeout through the DSN and caps the
// pool at a single connection. Migrate applies versioned .up.sql files from
// any fs.FS; the production set is embedded by the migrations package.
//
// Migrations are additive: new columns are nullable or defaulted and every
// .up.sql ships with a .down.sql.
//
// Usage:
//
//	db, err := database.Open(cfg.Database)
//	if err != nil {
//	    return err
//	}
//	defer db.Close()
//
//	if err := db.Migrate(ctx, migrations.FS); err != nil {
//	    return err
//	}
package database
