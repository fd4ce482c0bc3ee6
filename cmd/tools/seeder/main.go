package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/lib/pq"

	"github.com/toybox-bd/storefront-api/internal/auth"
	"github.com/toybox-bd/storefront-api/internal/db"
)

type seedPromo struct {
	Code         string
	Type         string
	Value        string
	MaxDiscount  *string
	OneTimeUse   bool
	UsageLimit   *int
	StoreWide    bool
	Products     []int64
	ExpiresAfter time.Duration
}

func strPtr(v string) *string { return &v }
func intPtr(v int) *int       { return &v }

var promos = []seedPromo{
	{Code: "WELCOME10", Type: "percentage", Value: "10", MaxDiscount: strPtr("200"), StoreWide: true},
	{Code: "EID500", Type: "fixed", Value: "500", UsageLimit: intPtr(100), StoreWide: true, ExpiresAfter: 30 * 24 * time.Hour},
	{Code: "LEGO25", Type: "percentage", Value: "25", MaxDiscount: strPtr("750"), Products: []int64{101, 102, 103}},
	{Code: "FIRSTTOY", Type: "fixed", Value: "150", OneTimeUse: true, StoreWide: true},
	{Code: "DOLLS15", Type: "percentage", Value: "15", Products: []int64{210, 211}, UsageLimit: intPtr(50)},
}

func main() {
	migrateFirst := flag.Bool("migrate", true, "apply migrations before seeding")
	tokenFor := flag.String("admin-token", "", "print an admin bearer token for the given subject and exit")
	tokenTTL := flag.Duration("token-ttl", 12*time.Hour, "lifetime of the printed admin token")
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on environment variables")
	}

	if *tokenFor != "" {
		guard, err := auth.NewGuard(os.Getenv("JWT_SECRET"), os.Getenv("JWT_ISSUER"))
		if err != nil {
			log.Fatalf("Failed to build token guard: %v", err)
		}
		token, err := guard.Issue(*tokenFor, auth.RoleAdmin, *tokenTTL)
		if err != nil {
			log.Fatalf("Failed to issue token: %v", err)
		}
		fmt.Println(token)
		return
	}

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Fatal("DATABASE_URL is not set")
	}
	if *migrateFirst {
		if err := db.Up(dbURL); err != nil {
			log.Fatalf("Failed to migrate: %v", err)
		}
	}

	conn, err := sql.Open("postgres", dbURL)
	if err != nil {
		log.Fatalf("Failed to open DB: %v", err)
	}
	defer conn.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := conn.PingContext(ctx); err != nil {
		log.Fatalf("Failed to ping DB: %v", err)
	}

	n, err := seedPromoCodes(ctx, conn, promos, time.Now())
	if err != nil {
		log.Fatalf("Failed to seed promo codes: %v", err)
	}
	log.Printf("Seeded %d promo codes", n)
}

// seedPromoCodes upserts every promo in one transaction and returns the number written.
// Existing codes keep their used_count.
func seedPromoCodes(ctx context.Context, conn *sql.DB, items []seedPromo, now time.Time) (int, error) {
	tx, err := conn.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO promo_codes (code, discount_type, discount_value, max_discount_amount, is_one_time_use,
			usage_limit, is_store_wide, applicable_products, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (code) DO UPDATE SET
			discount_type = EXCLUDED.discount_type,
			discount_value = EXCLUDED.discount_value,
			max_discount_amount = EXCLUDED.max_discount_amount,
			is_one_time_use = EXCLUDED.is_one_time_use,
			usage_limit = EXCLUDED.usage_limit,
			is_store_wide = EXCLUDED.is_store_wide,
			applicable_products = EXCLUDED.applicable_products,
			expires_at = EXCLUDED.expires_at,
			updated_at = now()`)
	if err != nil {
		return 0, err
	}
	defer stmt.Close()

	for _, p := range items {
		var expires sql.NullTime
		if p.ExpiresAfter > 0 {
			expires = sql.NullTime{Time: now.Add(p.ExpiresAfter), Valid: true}
		}
		var limit sql.NullInt64
		if p.UsageLimit != nil {
			limit = sql.NullInt64{Int64: int64(*p.UsageLimit), Valid: true}
		}
		var maxDiscount sql.NullString
		if p.MaxDiscount != nil {
			maxDiscount = sql.NullString{String: *p.MaxDiscount, Valid: true}
		}
		products := p.Products
		if products == nil {
			products = []int64{}
		}
		if _, err := stmt.ExecContext(ctx, p.Code, p.Type, p.Value, maxDiscount, p.OneTimeUse,
			limit, p.StoreWide, pq.Array(products), expires); err != nil {
			return 0, fmt.Errorf("seed %s: %w", p.Code, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return len(items), nil
}
