package repositories

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s_%d?mode=memory&cache=shared", t.Name(), time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err, "open sqlite")
	return db
}

func mustExec(t *testing.T, db *gorm.DB, q string, args ...interface{}) {
	t.Helper()
	require.NoError(t, db.Exec(q, args...).Error, "exec failed: query=%s", q)
}

func createMerchantTable(t *testing.T, db *gorm.DB) {
	mustExec(t, db, `CREATE TABLE merchants (
		id TEXT PRIMARY KEY,
		address TEXT NOT NULL UNIQUE,
		name TEXT,
		default_currency TEXT NOT NULL,
		supported_chains TEXT,
		status TEXT NOT NULL,
		verified_at DATETIME,
		created_at DATETIME,
		updated_at DATETIME,
		deleted_at DATETIME
	);`)
}

func createPaymentTables(t *testing.T, db *gorm.DB) {
	mustExec(t, db, `CREATE TABLE payments (
		id TEXT PRIMARY KEY,
		payer_address TEXT NOT NULL,
		merchant_id TEXT NOT NULL,
		amount TEXT NOT NULL,
		currency TEXT NOT NULL,
		source_chain TEXT NOT NULL,
		dest_chain TEXT NOT NULL,
		status TEXT NOT NULL,
		escrow_address TEXT,
		source_tx_hash TEXT,
		dest_tx_hash TEXT,
		yield_enabled BOOLEAN NOT NULL DEFAULT 0,
		strategy_id TEXT,
		estimated_yield TEXT,
		actual_yield TEXT,
		user_yield TEXT,
		merchant_yield TEXT,
		protocol_yield TEXT,
		metadata TEXT,
		expires_at DATETIME,
		confirmed_at DATETIME,
		released_at DATETIME,
		created_at DATETIME,
		updated_at DATETIME,
		deleted_at DATETIME
	);`)
	mustExec(t, db, `CREATE TABLE payment_events (
		id TEXT PRIMARY KEY,
		payment_id TEXT NOT NULL,
		event_type TEXT NOT NULL,
		tx_hash TEXT,
		metadata TEXT,
		created_at DATETIME
	);`)
}

func createYieldTables(t *testing.T, db *gorm.DB) {
	mustExec(t, db, `CREATE TABLE yield_strategies (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		chain TEXT NOT NULL,
		expected_apy TEXT NOT NULL,
		risk_tier TEXT NOT NULL,
		is_active BOOLEAN NOT NULL DEFAULT 1,
		created_at DATETIME,
		updated_at DATETIME
	);`)
	mustExec(t, db, `CREATE TABLE yield_earnings (
		id TEXT PRIMARY KEY,
		payment_id TEXT NOT NULL,
		strategy_id TEXT NOT NULL,
		principal TEXT NOT NULL,
		gross_yield TEXT,
		net_yield TEXT,
		split_user TEXT NOT NULL,
		split_merchant TEXT NOT NULL,
		split_protocol TEXT NOT NULL,
		status TEXT NOT NULL,
		start_time DATETIME,
		end_time DATETIME,
		created_at DATETIME,
		updated_at DATETIME
	);`)
}

func createBridgeTable(t *testing.T, db *gorm.DB) {
	mustExec(t, db, `CREATE TABLE cross_chain_transactions (
		id TEXT PRIMARY KEY,
		payment_id TEXT,
		source_chain TEXT NOT NULL,
		dest_chain TEXT NOT NULL,
		token TEXT NOT NULL,
		amount TEXT NOT NULL,
		fee TEXT NOT NULL DEFAULT '0',
		recipient TEXT NOT NULL,
		status TEXT NOT NULL,
		source_tx_hash TEXT,
		dest_tx_hash TEXT,
		refund_tx_hash TEXT,
		escrow_address TEXT,
		transit_yield TEXT,
		failure_reason TEXT,
		initiated_at DATETIME,
		completed_at DATETIME,
		updated_at DATETIME
	);`)
}
