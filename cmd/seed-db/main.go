// Command seed-db loads demo users, addresses, and products into the
// database so the API can be exercised locally.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"log/slog"
	"os"
	"os/signal"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/xenking/marketplace-api/internal/domain/user"
	"github.com/xenking/marketplace-api/internal/storage/postgres"
)

type catalogJSON struct {
	Users     []userJSON    `json:"users"`
	Addresses []addressJSON `json:"addresses"`
	Products  []productJSON `json:"products"`
}

type userJSON struct {
	Email       string `json:"email"`
	FirstName   string `json:"firstName"`
	LastName    string `json:"lastName"`
	PhoneNumber string `json:"phoneNumber"`
	Role        string `json:"role"`
}

type addressJSON struct {
	UserEmail   string `json:"userEmail"`
	Line1       string `json:"line1"`
	Line2       string `json:"line2"`
	City        string `json:"city"`
	Region      string `json:"region"`
	PostalCode  string `json:"postalCode"`
	Country     string `json:"country"`
	PhoneNumber string `json:"phoneNumber"`
}

type productJSON struct {
	Name          string          `json:"name"`
	Description   string          `json:"description"`
	Price         decimal.Decimal `json:"price"`
	StockQuantity int             `json:"stockQuantity"`
	SellerEmail   string          `json:"sellerEmail"`
}

func main() {
	var (
		databaseURL string
		catalogFile string
	)

	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.StringVar(&catalogFile, "catalog-file", "db/seed/catalog.json", "path to catalog JSON file")
	flag.Parse()

	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		slog.Error("database URL is required: set --database-url or DATABASE_URL")
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, databaseURL, catalogFile); err != nil {
		slog.Error("seed failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("seed completed successfully")
}

func run(ctx context.Context, databaseURL, catalogFile string) error {
	slog.Info("reading catalog file", slog.String("path", catalogFile))

	data, err := os.ReadFile(catalogFile)
	if err != nil {
		return errors.Wrap(err, "read catalog file")
	}

	var catalog catalogJSON
	if err := json.Unmarshal(data, &catalog); err != nil {
		return errors.Wrap(err, "parse catalog JSON")
	}

	slog.Info("connecting to database")

	pool, err := postgres.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	slog.Info("running migrations")

	if err := postgres.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	userIDs, err := seedUsers(ctx, pool, catalog.Users)
	if err != nil {
		return errors.Wrap(err, "seed users")
	}
	if err := seedAddresses(ctx, pool, catalog.Addresses, userIDs); err != nil {
		return errors.Wrap(err, "seed addresses")
	}
	if err := seedProducts(ctx, pool, catalog.Products, userIDs, catalog.Users); err != nil {
		return errors.Wrap(err, "seed products")
	}

	return nil
}

const upsertUserSQL = `INSERT INTO app_users (email, first_name, last_name, phone_number, role)
	VALUES ($1, $2, $3, $4, $5)
	ON CONFLICT (email) DO UPDATE SET
		first_name = EXCLUDED.first_name,
		last_name = EXCLUDED.last_name,
		phone_number = EXCLUDED.phone_number,
		role = EXCLUDED.role
	RETURNING id`

func seedUsers(ctx context.Context, pool *pgxpool.Pool, users []userJSON) (map[string]int64, error) {
	slog.Info("upserting users", slog.Int("count", len(users)))

	ids := make(map[string]int64, len(users))
	for _, u := range users {
		var id int64
		err := pool.QueryRow(ctx, upsertUserSQL,
			u.Email, u.FirstName, u.LastName, u.PhoneNumber, u.Role,
		).Scan(&id)
		if err != nil {
			return nil, errors.Wrapf(err, "upsert user %s", u.Email)
		}
		ids[u.Email] = id

		slog.Info("upserted user", slog.String("email", u.Email), slog.Int64("id", id))
	}
	return ids, nil
}

func seedAddresses(ctx context.Context, pool *pgxpool.Pool, addresses []addressJSON, userIDs map[string]int64) error {
	slog.Info("seeding addresses", slog.Int("count", len(addresses)))

	for _, a := range addresses {
		userID, ok := userIDs[a.UserEmail]
		if !ok {
			return errors.Errorf("address references unknown user %s", a.UserEmail)
		}

		var existing int64
		err := pool.QueryRow(ctx,
			`SELECT id FROM addresses WHERE user_id = $1 AND line1 = $2`, userID, a.Line1,
		).Scan(&existing)
		if err == nil {
			continue
		}
		if !errors.Is(err, pgx.ErrNoRows) {
			return errors.Wrap(err, "check existing address")
		}

		_, err = pool.Exec(ctx,
			`INSERT INTO addresses (user_id, line1, line2, city, region, postal_code, country, phone_number)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			userID, a.Line1, a.Line2, a.City, a.Region, a.PostalCode, a.Country, a.PhoneNumber,
		)
		if err != nil {
			return errors.Wrapf(err, "insert address for %s", a.UserEmail)
		}

		slog.Info("inserted address", slog.String("user", a.UserEmail), slog.String("city", a.City))
	}
	return nil
}

func seedProducts(ctx context.Context, pool *pgxpool.Pool, products []productJSON, userIDs map[string]int64, users []userJSON) error {
	slog.Info("seeding products", slog.Int("count", len(products)))

	roles := make(map[string]user.Role, len(users))
	for _, u := range users {
		roles[u.Email] = user.Role(u.Role)
	}

	for _, p := range products {
		sellerID, ok := userIDs[p.SellerEmail]
		if !ok {
			return errors.Errorf("product %q references unknown seller %s", p.Name, p.SellerEmail)
		}
		if !roles[p.SellerEmail].CanListProducts() {
			return errors.Errorf("user %s is not allowed to list products", p.SellerEmail)
		}

		var existing int64
		err := pool.QueryRow(ctx,
			`SELECT id FROM products WHERE name = $1 AND seller_id = $2`, p.Name, sellerID,
		).Scan(&existing)
		if err == nil {
			continue
		}
		if !errors.Is(err, pgx.ErrNoRows) {
			return errors.Wrap(err, "check existing product")
		}

		_, err = pool.Exec(ctx,
			`INSERT INTO products (name, description, price, stock_quantity, seller_id)
			VALUES ($1, $2, $3, $4, $5)`,
			p.Name, p.Description, p.Price, p.StockQuantity, sellerID,
		)
		if err != nil {
			return errors.Wrapf(err, "insert product %q", p.Name)
		}

		slog.Info("inserted product", slog.String("name", p.Name), slog.String("seller", p.SellerEmail))
	}
	return nil
}
