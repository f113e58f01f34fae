package sqlite

import "database/sql"

// schema contains the SQL statements to set up the database. Runs on startup
// so tables always exist.
//
// ledger_members and bill_item_participants are junction tables; their
// composite primary keys enforce set semantics (no duplicate membership rows).
// Bill items cascade from their ledger, participant rows cascade from their
// bill item.
const schema = `
CREATE TABLE IF NOT EXISTS users (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    username TEXT NOT NULL UNIQUE,
    email TEXT NOT NULL UNIQUE,
    password_hash TEXT NOT NULL,
    created_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS ledgers (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    title TEXT NOT NULL,
    creator_id INTEGER NOT NULL,
    travel_plan_id INTEGER,
    created_at INTEGER NOT NULL,
    updated_at INTEGER NOT NULL,
    FOREIGN KEY (creator_id) REFERENCES users(id)
);

CREATE TABLE IF NOT EXISTS ledger_members (
    ledger_id INTEGER NOT NULL,
    user_id INTEGER NOT NULL,
    joined_at INTEGER NOT NULL,
    PRIMARY KEY (ledger_id, user_id),
    FOREIGN KEY (ledger_id) REFERENCES ledgers(id) ON DELETE CASCADE,
    FOREIGN KEY (user_id) REFERENCES users(id)
);

CREATE TABLE IF NOT EXISTS bill_items (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    ledger_id INTEGER NOT NULL,
    type TEXT NOT NULL,
    amount INTEGER NOT NULL,
    currency TEXT NOT NULL DEFAULT 'CNY',
    payment_account TEXT NOT NULL DEFAULT 'cash',
    payer_id INTEGER NOT NULL,
    description TEXT NOT NULL DEFAULT '',
    occurred_at INTEGER NOT NULL,
    FOREIGN KEY (ledger_id) REFERENCES ledgers(id) ON DELETE CASCADE,
    FOREIGN KEY (payer_id) REFERENCES users(id)
);

CREATE TABLE IF NOT EXISTS bill_item_participants (
    bill_item_id INTEGER NOT NULL,
    user_id INTEGER NOT NULL,
    PRIMARY KEY (bill_item_id, user_id),
    FOREIGN KEY (bill_item_id) REFERENCES bill_items(id) ON DELETE CASCADE,
    FOREIGN KEY (user_id) REFERENCES users(id)
);

CREATE INDEX IF NOT EXISTS idx_ledger_members_user_id ON ledger_members(user_id);
CREATE INDEX IF NOT EXISTS idx_bill_items_ledger_id ON bill_items(ledger_id);
CREATE INDEX IF NOT EXISTS idx_bill_item_participants_item_id ON bill_item_participants(bill_item_id);
`

// runMigrations executes the schema setup.
func runMigrations(db *sql.DB) error {
	_, err := db.Exec(schema)
	return err
}
