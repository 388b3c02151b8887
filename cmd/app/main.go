package main

import (
	"database/sql"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	jwtware "github.com/gofiber/jwt/v2"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/Arafat-alim/shoporbit-backend/internal/address"
	"github.com/Arafat-alim/shoporbit-backend/internal/banner"
	"github.com/Arafat-alim/shoporbit-backend/internal/cart"
	"github.com/Arafat-alim/shoporbit-backend/internal/category"
	"github.com/Arafat-alim/shoporbit-backend/internal/config"
	"github.com/Arafat-alim/shoporbit-backend/internal/logging"
	"github.com/Arafat-alim/shoporbit-backend/internal/mail"
	"github.com/Arafat-alim/shoporbit-backend/internal/order"
	"github.com/Arafat-alim/shoporbit-backend/internal/payment"
	"github.com/Arafat-alim/shoporbit-backend/internal/product"
	"github.com/Arafat-alim/shoporbit-backend/internal/user"
	"github.com/Arafat-alim/shoporbit-backend/internal/wishlist"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	logger := logging.Must("shoporbit", cfg.Env)
	defer logger.Sync()

	if cfg.JWTSecret == "" {
		logger.Fatal("JWT_SECRET is not set")
	}

	db := mustOpenDB(cfg.DatabaseURL, logger)
	defer db.Close()

	if err := bootstrapSchema(db); err != nil {
		logger.Fatal("schema bootstrap failed", zap.Error(err))
	}

	app := fiber.New()
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,HEAD,PUT,DELETE,PATCH",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
	}))
	app.Use(logging.RequestLogger(logger))

	// users and auth
	userRepo := user.NewPostgresRepository(db)
	userService := user.NewService(userRepo, cfg.JWTSecret, cfg.AccessTokenTTL, cfg.RefreshTokenTTL)
	googleOAuth := user.NewGoogleOAuth(cfg.GoogleClientID, cfg.GoogleClientSecret, cfg.GoogleRedirectURL)
	userHandler := user.NewHandler(userService, googleOAuth)

	// catalog
	productRepo := product.NewPostgresRepository(db)
	productService := product.NewService(productRepo)
	productHandler := product.NewHandler(productService)

	// mail; falls back to log-only when SMTP is not configured
	var sender mail.Sender
	if cfg.SMTPHost != "" {
		sender = mail.NewSMTPSender(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPass, cfg.SMTPFrom)
	} else {
		sender = mail.NewNopSender(logger)
	}
	notifier := mail.NewOrderNotifier(sender, userRepo, logger)

	// orders
	orderRepo := order.NewPostgresRepository(db)
	orderService := order.NewService(orderRepo, productService, notifier, logger)
	orderHandler := order.NewHandler(orderService)

	// payments
	gateway := payment.NewRazorpayGateway(cfg.RazorpayKeyID, cfg.RazorpayKeySecret)
	paymentService := payment.NewService(orderRepo, gateway, cfg.RazorpayKeySecret, cfg.RazorpayWebhookSecret, notifier, logger)
	paymentHandler := payment.NewHandler(paymentService)

	// cart, wishlist, addresses
	cartHandler := cart.NewHandler(cart.NewService(cart.NewPostgresRepository(db), productService))
	wishlistHandler := wishlist.NewHandler(wishlist.NewService(wishlist.NewPostgresRepository(db), productService))
	addressHandler := address.NewHandler(address.NewService(address.NewPostgresRepository(db)))

	// storefront content
	bannerHandler := banner.NewHandler(banner.NewService(banner.NewPostgresRepository(db)))
	categoryHandler := category.NewHandler(category.NewPostgresRepository(db))

	// public routes go before the JWT middleware; the webhook authenticates
	// with its body signature instead of a token
	userHandler.RegisterPublicRoutes(app)
	productHandler.RegisterPublicRoutes(app)
	paymentHandler.RegisterPublicRoutes(app)
	bannerHandler.RegisterPublicRoutes(app)
	categoryHandler.RegisterPublicRoutes(app)

	app.Use(jwtware.New(jwtware.Config{
		SigningKey: []byte(cfg.JWTSecret),
	}))

	userHandler.RegisterProtectedRoutes(app)
	productHandler.RegisterProtectedRoutes(app)
	orderHandler.RegisterProtectedRoutes(app)
	paymentHandler.RegisterProtectedRoutes(app)
	cartHandler.RegisterProtectedRoutes(app)
	wishlistHandler.RegisterProtectedRoutes(app)
	addressHandler.RegisterProtectedRoutes(app)
	bannerHandler.RegisterProtectedRoutes(app)

	logger.Info("listening", zap.String("addr", cfg.Addr))
	if err := app.Listen(cfg.Addr); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
}

func mustOpenDB(dbURL string, logger *zap.Logger) *sql.DB {
	if dbURL == "" {
		logger.Fatal("DATABASE_URL is not set")
	}

	db, err := sql.Open("pgx", dbURL)
	if err != nil {
		logger.Fatal("open database", zap.Error(err))
	}
	if err := db.Ping(); err != nil {
		logger.Fatal("ping database", zap.Error(err))
	}
	return db
}

// bootstrapSchema creates the tables on first run. Document-shaped fields
// live in jsonb columns; everything queried or joined on stays relational.
func bootstrapSchema(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS users (
			user_id SERIAL PRIMARY KEY,
			email TEXT NOT NULL UNIQUE,
			password TEXT NOT NULL,
			name TEXT NOT NULL DEFAULT '',
			phone TEXT NOT NULL DEFAULT '',
			role TEXT NOT NULL DEFAULT 'customer',
			refresh_tokens jsonb NOT NULL DEFAULT '[]',
			totp_secret TEXT NOT NULL DEFAULT '',
			totp_enabled BOOLEAN NOT NULL DEFAULT FALSE,
			backup_codes jsonb NOT NULL DEFAULT '[]',
			failed_logins INT NOT NULL DEFAULT 0,
			locked_until TIMESTAMPTZ,
			cart jsonb NOT NULL DEFAULT '{}',
			wishlist integer[] NOT NULL DEFAULT '{}',
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS product (
			product_id SERIAL PRIMARY KEY,
			name TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			price NUMERIC NOT NULL DEFAULT 0,
			stock INT NOT NULL DEFAULT 0,
			category TEXT NOT NULL DEFAULT '',
			images jsonb NOT NULL DEFAULT '[]',
			rating_average NUMERIC NOT NULL DEFAULT 0,
			rating_count INT NOT NULL DEFAULT 0,
			reviews jsonb NOT NULL DEFAULT '{}',
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS orders (
			order_id SERIAL PRIMARY KEY,
			user_id INT NOT NULL REFERENCES users(user_id),
			items jsonb NOT NULL DEFAULT '[]',
			shipping_address jsonb NOT NULL DEFAULT '{}',
			payment_method TEXT NOT NULL DEFAULT '',
			notes TEXT NOT NULL DEFAULT '',
			items_price NUMERIC NOT NULL DEFAULT 0,
			shipping_price NUMERIC NOT NULL DEFAULT 0,
			tax_price NUMERIC NOT NULL DEFAULT 0,
			total_price NUMERIC NOT NULL DEFAULT 0,
			status TEXT NOT NULL DEFAULT 'pending',
			status_history jsonb NOT NULL DEFAULT '[]',
			tracking_number TEXT NOT NULL DEFAULT '',
			payment jsonb NOT NULL DEFAULT '{}',
			is_paid BOOLEAN NOT NULL DEFAULT FALSE,
			paid_at TIMESTAMPTZ,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE INDEX IF NOT EXISTS orders_gateway_order_idx ON orders ((payment->>'gatewayOrderId'))`,
		`CREATE TABLE IF NOT EXISTS banners (
			banner_id SERIAL PRIMARY KEY,
			image TEXT NOT NULL,
			link TEXT NOT NULL DEFAULT '',
			alt TEXT NOT NULL DEFAULT '',
			position INT NOT NULL DEFAULT 0,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS addresses (
			address_id SERIAL PRIMARY KEY,
			user_id INT NOT NULL REFERENCES users(user_id),
			label TEXT NOT NULL DEFAULT '',
			full_name TEXT NOT NULL DEFAULT '',
			line1 TEXT NOT NULL DEFAULT '',
			line2 TEXT NOT NULL DEFAULT '',
			city TEXT NOT NULL DEFAULT '',
			state TEXT NOT NULL DEFAULT '',
			postal_code TEXT NOT NULL DEFAULT '',
			country TEXT NOT NULL DEFAULT '',
			phone TEXT NOT NULL DEFAULT '',
			is_default BOOLEAN NOT NULL DEFAULT FALSE,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
	}

	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}
