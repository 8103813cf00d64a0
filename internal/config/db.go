package config

import (
	"context"
	"fmt"
	"time"

	"attendance_tracker/internal/logger"

	"github.com/jackc/pgx/v5/pgxpool"
)

// ConnectDB establishes a connection pool to PostgreSQL, retrying while the
// database comes up.
func ConnectDB(ctx context.Context, cfg DBConfig, log *logger.Logger) (*pgxpool.Pool, error) {
	var pool *pgxpool.Pool
	var err error

	attempts := cfg.MaxRetries
	if attempts < 1 {
		attempts = 1
	}
	for i := 0; i < attempts; i++ {
		pool, err = pgxpool.New(ctx, cfg.DSN)
		if err == nil {
			err = pool.Ping(ctx)
			if err == nil {
				log.Info(ctx, "connected to PostgreSQL")
				return pool, nil
			}
			pool.Close()
		}
		log.Warn(ctx, fmt.Sprintf("database connection attempt %d/%d failed, retrying in %v", i+1, attempts, cfg.RetryInterval), err)
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(cfg.RetryInterval):
		}
	}
	return nil, fmt.Errorf("unable to connect to database after %d attempts: %w", attempts, err)
}

// LiveChannel is the NOTIFY channel carrying change topics.
const LiveChannel = "attendance_live"

// AutoMigrate creates tables, constraints and change-notification triggers if
// they don't exist.
func AutoMigrate(ctx context.Context, db *pgxpool.Pool) error {
	sql := `
	CREATE TABLE IF NOT EXISTS users (
		id TEXT PRIMARY KEY,
		full_name TEXT NOT NULL,
		email TEXT UNIQUE NOT NULL,
		password_hash TEXT NOT NULL,
		role TEXT NOT NULL CHECK (role IN ('admin', 'employee')),
		store_id TEXT,
		store_creation_credits INT CHECK (store_creation_credits >= 0),
		created_at TIMESTAMP WITH TIME ZONE DEFAULT CURRENT_TIMESTAMP,
		CHECK ((role = 'employee' AND store_id IS NOT NULL) OR (role = 'admin' AND store_id IS NULL))
	);

	CREATE TABLE IF NOT EXISTS stores (
		id TEXT PRIMARY KEY,
		owner_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		name TEXT NOT NULL,
		latitude DOUBLE PRECISION NOT NULL CHECK (latitude BETWEEN -90 AND 90),
		longitude DOUBLE PRECISION NOT NULL CHECK (longitude BETWEEN -180 AND 180),
		qr_payload TEXT NOT NULL UNIQUE,
		reference_code CHAR(6) NOT NULL UNIQUE,
		created_at TIMESTAMP WITH TIME ZONE DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP WITH TIME ZONE DEFAULT CURRENT_TIMESTAMP
	);

	-- check-ins keep the store id as a plain reference so history survives store deletion
	CREATE TABLE IF NOT EXISTS check_ins (
		id TEXT PRIMARY KEY,
		seq BIGSERIAL,
		user_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		store_id TEXT NOT NULL,
		type TEXT NOT NULL CHECK (type IN ('in', 'out')),
		timestamp TIMESTAMP WITH TIME ZONE
	);

	CREATE INDEX IF NOT EXISTS idx_users_store_role ON users(store_id, role);
	CREATE INDEX IF NOT EXISTS idx_stores_owner_id ON stores(owner_id);
	CREATE INDEX IF NOT EXISTS idx_check_ins_user_ts ON check_ins(user_id, timestamp DESC, seq DESC);
	CREATE INDEX IF NOT EXISTS idx_check_ins_ts ON check_ins(timestamp);

	DO $$
	BEGIN
		IF NOT EXISTS (SELECT 1 FROM pg_constraint WHERE conname = 'users_store_id_fkey') THEN
			ALTER TABLE users ADD CONSTRAINT users_store_id_fkey
				FOREIGN KEY (store_id) REFERENCES stores(id) ON DELETE RESTRICT;
		END IF;
	END
	$$;

	-- role and reference code never change after creation
	CREATE OR REPLACE FUNCTION guard_immutable_columns()
	RETURNS TRIGGER AS $$
	BEGIN
		IF TG_TABLE_NAME = 'users' AND NEW.role IS DISTINCT FROM OLD.role THEN
			RAISE EXCEPTION 'role is immutable' USING ERRCODE = 'check_violation';
		END IF;
		IF TG_TABLE_NAME = 'stores' THEN
			IF NEW.reference_code IS DISTINCT FROM OLD.reference_code THEN
				RAISE EXCEPTION 'reference code is immutable' USING ERRCODE = 'check_violation';
			END IF;
			NEW.updated_at = NOW();
		END IF;
		RETURN NEW;
	END;
	$$ language 'plpgsql';

	CREATE OR REPLACE FUNCTION notify_live_change()
	RETURNS TRIGGER AS $$
	BEGIN
		IF TG_TABLE_NAME = 'users' THEN
			IF TG_OP <> 'INSERT' AND OLD.store_id IS NOT NULL THEN
				PERFORM pg_notify('` + LiveChannel + `', 'store-employees:' || OLD.store_id);
			END IF;
			IF TG_OP <> 'DELETE' AND NEW.store_id IS NOT NULL THEN
				PERFORM pg_notify('` + LiveChannel + `', 'store-employees:' || NEW.store_id);
			END IF;
		ELSIF TG_TABLE_NAME = 'stores' THEN
			IF TG_OP <> 'INSERT' THEN
				PERFORM pg_notify('` + LiveChannel + `', 'owner-stores:' || OLD.owner_id);
			END IF;
			IF TG_OP <> 'DELETE' THEN
				PERFORM pg_notify('` + LiveChannel + `', 'owner-stores:' || NEW.owner_id);
			END IF;
		ELSIF TG_TABLE_NAME = 'check_ins' THEN
			PERFORM pg_notify('` + LiveChannel + `', 'user-checkins:' || NEW.user_id);
			PERFORM pg_notify('` + LiveChannel + `', 'store-employees:' || u.store_id)
				FROM users u WHERE u.id = NEW.user_id AND u.store_id IS NOT NULL;
		END IF;
		RETURN NULL;
	END;
	$$ language 'plpgsql';

	DO $$
	BEGIN
		IF NOT EXISTS (SELECT 1 FROM pg_trigger WHERE tgname = 'guard_users_immutable' AND tgrelid = 'users'::regclass) THEN
			CREATE TRIGGER guard_users_immutable BEFORE UPDATE ON users
			FOR EACH ROW EXECUTE FUNCTION guard_immutable_columns();
		END IF;
		IF NOT EXISTS (SELECT 1 FROM pg_trigger WHERE tgname = 'guard_stores_immutable' AND tgrelid = 'stores'::regclass) THEN
			CREATE TRIGGER guard_stores_immutable BEFORE UPDATE ON stores
			FOR EACH ROW EXECUTE FUNCTION guard_immutable_columns();
		END IF;
		IF NOT EXISTS (SELECT 1 FROM pg_trigger WHERE tgname = 'live_users' AND tgrelid = 'users'::regclass) THEN
			CREATE TRIGGER live_users AFTER INSERT OR UPDATE OR DELETE ON users
			FOR EACH ROW EXECUTE FUNCTION notify_live_change();
		END IF;
		IF NOT EXISTS (SELECT 1 FROM pg_trigger WHERE tgname = 'live_stores' AND tgrelid = 'stores'::regclass) THEN
			CREATE TRIGGER live_stores AFTER INSERT OR UPDATE OR DELETE ON stores
			FOR EACH ROW EXECUTE FUNCTION notify_live_change();
		END IF;
		IF NOT EXISTS (SELECT 1 FROM pg_trigger WHERE tgname = 'live_check_ins' AND tgrelid = 'check_ins'::regclass) THEN
			CREATE TRIGGER live_check_ins AFTER INSERT ON check_ins
			FOR EACH ROW EXECUTE FUNCTION notify_live_change();
		END IF;
	END
	$$;
	`
	if _, err := db.Exec(ctx, sql); err != nil {
		return fmt.Errorf("unable to apply migrations: %w", err)
	}
	return nil
}
