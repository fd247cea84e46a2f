package core_test

import (
	"context"
	"os"
	"testing"

	"taller/migrations"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func setupTestDB(t *testing.T) *pgxpool.Pool {
	t.Helper()
	_ = godotenv.Load("../../.env")

	// Use a dedicated TEST database to avoid wiping the live app database.
	dbURL := os.Getenv("TEST_DATABASE_URL")
	if dbURL == "" {
		t.Skip("TEST_DATABASE_URL not set, skipping integration test")
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		t.Fatalf("Failed to connect to test database: %v", err)
	}
	t.Cleanup(pool.Close)

	if _, err := migrations.Apply(ctx, pool, zap.NewNop()); err != nil {
		t.Fatalf("Failed to migrate test database: %v", err)
	}

	_, err = pool.Exec(ctx, `
		TRUNCATE TABLE facturas, factura_secuencias, pagos, ventas, novedades, reparaciones,
		               clientes, whatsapp_plantillas, usuarios
		RESTART IDENTITY CASCADE;

		INSERT INTO clientes (id, nombre, apellido, telefono, email) VALUES
		(1, 'Ana',   'Pérez', '1123456789', 'ana@example.com'),
		(2, 'Bruno', 'Díaz',  '',           '');
		SELECT setval('clientes_id_seq', 2);
	`)
	if err != nil {
		t.Fatalf("Failed to seed test database: %v", err)
	}

	return pool
}
