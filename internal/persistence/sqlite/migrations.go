package sqlite

type migration struct {
	version int
	sql     string
}

var migrations = []migration{
	{
		version: 1,
		sql: `
			CREATE TABLE IF NOT EXISTS schema_version (
				version INTEGER PRIMARY KEY
			);

			CREATE TABLE users (
				id TEXT PRIMARY KEY,
				username TEXT NOT NULL UNIQUE,
				email TEXT NOT NULL UNIQUE,
				full_name TEXT NOT NULL,
				hashed_password TEXT NOT NULL,
				role TEXT NOT NULL DEFAULT 'technician',
				points INTEGER NOT NULL DEFAULT 0,
				is_active INTEGER NOT NULL DEFAULT 1,
				created_at TIMESTAMP NOT NULL,
				updated_at TIMESTAMP NOT NULL
			);

			CREATE TABLE cases (
				id TEXT PRIMARY KEY,
				case_number TEXT NOT NULL UNIQUE,
				device_model TEXT NOT NULL,
				serial_number TEXT NOT NULL DEFAULT '',
				client_name TEXT NOT NULL,
				client_phone TEXT NOT NULL DEFAULT '',
				issue_description TEXT NOT NULL,
				diagnosis TEXT NOT NULL DEFAULT '',
				solution TEXT NOT NULL DEFAULT '',
				status TEXT NOT NULL DEFAULT 'in_progress',
				technician_id TEXT REFERENCES users(id),
				created_at TIMESTAMP NOT NULL,
				updated_at TIMESTAMP NOT NULL
			);
			CREATE INDEX idx_cases_status ON cases(status);
			CREATE INDEX idx_cases_technician ON cases(technician_id);

			CREATE TABLE notifications (
				id TEXT PRIMARY KEY,
				recipient_id TEXT NOT NULL REFERENCES users(id),
				message TEXT NOT NULL,
				severity TEXT NOT NULL DEFAULT 'info',
				is_read INTEGER NOT NULL DEFAULT 0,
				related_case_id TEXT REFERENCES cases(id),
				created_at TIMESTAMP NOT NULL
			);
			CREATE INDEX idx_notifications_recipient ON notifications(recipient_id, is_read);

			CREATE TABLE notes (
				id TEXT PRIMARY KEY,
				case_id TEXT NOT NULL REFERENCES cases(id) ON DELETE CASCADE,
				author_id TEXT NOT NULL REFERENCES users(id),
				content TEXT NOT NULL,
				created_at TIMESTAMP NOT NULL
			);
			CREATE INDEX idx_notes_case ON notes(case_id);

			CREATE TABLE activities (
				id TEXT PRIMARY KEY,
				case_id TEXT REFERENCES cases(id) ON DELETE SET NULL,
				action TEXT NOT NULL,
				performed_by TEXT NOT NULL REFERENCES users(id),
				created_at TIMESTAMP NOT NULL
			);
			CREATE INDEX idx_activities_case ON activities(case_id);

			CREATE TABLE work_logs (
				id TEXT PRIMARY KEY,
				case_id TEXT NOT NULL REFERENCES cases(id) ON DELETE CASCADE,
				technician_id TEXT NOT NULL REFERENCES users(id),
				started_at TIMESTAMP NOT NULL,
				ended_at TIMESTAMP,
				description TEXT NOT NULL DEFAULT '',
				created_at TIMESTAMP NOT NULL
			);
			CREATE INDEX idx_work_logs_case ON work_logs(case_id);
		`,
	},
}
