package database

// migrations is an ordered list of SQL migration groups. Each entry is a slice
// of SQL statements that are executed together in a single transaction. The
// version number is the 1-based index into this slice.
var migrations = [][]string{
	// Migration 1: designated objects and CSV imports
	{
		`CREATE TABLE rds_objects (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			object_id INTEGER NOT NULL DEFAULT 0,
			code TEXT NOT NULL,
			parent_code TEXT,
			name TEXT NOT NULL DEFAULT '',
			object_type TEXT NOT NULL DEFAULT '',
			attributes TEXT NOT NULL DEFAULT '{}',
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL
		)`,
		`CREATE INDEX idx_rds_objects_code ON rds_objects(code)`,
		`CREATE INDEX idx_rds_objects_parent ON rds_objects(parent_code)`,
		`CREATE INDEX idx_rds_objects_object ON rds_objects(object_id)`,

		`CREATE TABLE imports (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT,
			format TEXT,
			state TEXT NOT NULL DEFAULT 'STARTED',
			rows_total INTEGER NOT NULL DEFAULT 0,
			rows_created INTEGER NOT NULL DEFAULT 0,
			rows_failed INTEGER NOT NULL DEFAULT 0,
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL
		)`,

		`CREATE TABLE import_errors (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			import_id INTEGER NOT NULL,
			error_type TEXT NOT NULL,
			error_message TEXT NOT NULL,
			invalid_value TEXT,
			line_number INTEGER,
			created_at TEXT NOT NULL,
			FOREIGN KEY (import_id) REFERENCES imports(id)
		)`,
		`CREATE INDEX idx_import_errors_import ON import_errors(import_id)`,
	},

	// Migration 2: history of forest builds
	{
		`CREATE TABLE tree_builds (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			objects INTEGER NOT NULL,
			nodes INTEGER NOT NULL,
			roots INTEGER NOT NULL,
			duplicate_groups INTEGER NOT NULL,
			orphans INTEGER NOT NULL,
			duration_ms INTEGER NOT NULL,
			built_at TEXT NOT NULL
		)`,
		`CREATE INDEX idx_tree_builds_time ON tree_builds(built_at)`,
	},
	// Migration 3: objects, imports and builds belong to a facility
	{
		`ALTER TABLE rds_objects ADD COLUMN facility TEXT NOT NULL DEFAULT 'default'`,
		`CREATE INDEX idx_rds_objects_facility ON rds_objects(facility, id)`,
		`ALTER TABLE imports ADD COLUMN facility TEXT NOT NULL DEFAULT 'default'`,
		`ALTER TABLE tree_builds ADD COLUMN facility TEXT NOT NULL DEFAULT 'default'`,
	},
}
