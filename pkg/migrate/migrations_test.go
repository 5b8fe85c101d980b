package migrate_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/angelmondragon/marketloft-backend/pkg/migrate"
)

func TestValidateMigrationsDir(t *testing.T) {
	if err := migrate.ValidateDir("migrations"); err != nil {
		t.Fatalf("migrations dir failed validation: %v", err)
	}
}

func TestCartMigrationContainsConstraints(t *testing.T) {
	content := readMigration(t, "*_create_carts.sql")

	checks := []string{
		"CREATE TABLE IF NOT EXISTS carts",
		"CREATE TABLE IF NOT EXISTS cart_items",
		"CHECK (quantity >= 1)",
		"ux_carts_owner_active",
		"ON carts (owner_id) WHERE status = 'active'",
		"ux_cart_items_cart_product",
		"FOREIGN KEY (product_id) REFERENCES products(id) ON DELETE CASCADE",
		"DROP TABLE IF EXISTS cart_items",
	}

	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}

func TestSubscriptionMigrationContainsConstraints(t *testing.T) {
	content := readMigration(t, "*_create_subscriptions.sql")

	checks := []string{
		"CREATE TABLE IF NOT EXISTS subscriptions",
		"cancel_at_period_end BOOLEAN NOT NULL DEFAULT FALSE",
		"FOREIGN KEY (plan_id) REFERENCES billing_plans(id)",
		"ix_subscriptions_user_id",
	}

	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}

func readMigration(t *testing.T, pattern string) string {
	t.Helper()
	matches, err := filepath.Glob(filepath.Join("migrations", pattern))
	if err != nil {
		t.Fatalf("glob migrations: %v", err)
	}
	if len(matches) == 0 {
		t.Fatalf("no migration matching %q found", pattern)
	}
	data, err := os.ReadFile(matches[0])
	if err != nil {
		t.Fatalf("read migration file: %v", err)
	}
	return string(data)
}
