// 填充示例账号、商品与会员数据，便于本地联调
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/uuid"
	catalogdomain "github.com/wyfcoding/pointofsale/internal/catalog/domain"
	catalogmysql "github.com/wyfcoding/pointofsale/internal/catalog/infrastructure/persistence/mysql"
	customerdomain "github.com/wyfcoding/pointofsale/internal/customer/domain"
	customermysql "github.com/wyfcoding/pointofsale/internal/customer/infrastructure/persistence/mysql"
	identitydomain "github.com/wyfcoding/pointofsale/internal/identity/domain"
	identitymysql "github.com/wyfcoding/pointofsale/internal/identity/infrastructure/persistence/mysql"
	"github.com/wyfcoding/pointofsale/pkg/config"
	"github.com/wyfcoding/pointofsale/pkg/db"
	"github.com/wyfcoding/pointofsale/pkg/logger"
)

func main() {
	configPath := flag.String("config", "configs/posd/config.toml", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Init(logger.Config{Level: "info", Format: "text", Output: "stdout"}); err != nil {
		fmt.Fprintf(os.Stderr, "failed to init logger: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()

	database, err := db.Init(db.Config{
		Driver:       cfg.Database.Driver,
		DSN:          cfg.Database.DSN,
		MaxOpenConns: cfg.Database.MaxOpenConns,
		MaxIdleConns: cfg.Database.MaxIdleConns,
	})
	if err != nil {
		logger.Fatal(ctx, "Failed to init database", "error", err)
	}
	defer database.Close()

	if err := database.AutoMigrate(
		&identitymysql.UserModel{},
		&catalogmysql.ProductModel{},
		&customermysql.CustomerModel{},
	); err != nil {
		logger.Fatal(ctx, "Failed to migrate schema", "error", err)
	}

	if err := seedUsers(ctx, database); err != nil {
		logger.Fatal(ctx, "Failed to seed users", "error", err)
	}
	if err := seedProducts(ctx, database); err != nil {
		logger.Fatal(ctx, "Failed to seed products", "error", err)
	}
	if err := seedCustomers(ctx, database); err != nil {
		logger.Fatal(ctx, "Failed to seed customers", "error", err)
	}

	logger.Info(ctx, "Seed data ready", "admin", "admin/1234", "cashier", "cashier1/5678")
}

func seedUsers(ctx context.Context, database *db.DB) error {
	repo := identitymysql.NewUserRepository(database.DB)

	users := []*identitydomain.User{
		{
			UserID:     uuid.New().String(),
			Username:   "admin",
			PINHash:    identitydomain.HashPIN("1234"),
			Role:       identitydomain.RoleAdmin,
			FullName:   "System Administrator",
			Email:      "admin@posystem.com",
			Phone:      "+1-555-0001",
			IsApproved: true,
		},
		{
			UserID:     uuid.New().String(),
			Username:   "cashier1",
			PINHash:    identitydomain.HashPIN("5678"),
			Role:       identitydomain.RoleEmployee,
			FullName:   "John Cashier",
			Email:      "john@posystem.com",
			Phone:      "+1-555-0002",
			IsApproved: true,
		},
	}

	for _, user := range users {
		existing, err := repo.GetByUsername(ctx, user.Username)
		if err != nil {
			return err
		}
		if existing != nil {
			continue
		}
		if err := repo.Save(ctx, user); err != nil {
			return err
		}
		logger.Info(ctx, "User created", "username", user.Username, "role", user.Role)
	}
	return nil
}

func seedProducts(ctx context.Context, database *db.DB) error {
	repo := catalogmysql.NewProductRepository(database.DB)

	products := []*catalogdomain.Product{
		{Name: "Coffee - Medium", Description: "Premium medium roast coffee", Price: 350, Category: "Beverages", SKU: "COFFEE-MED-001", Barcode: "123456789012", StockQuantity: 100, MinStockLevel: 10, CostPrice: 200},
		{Name: "Croissant", Description: "Fresh butter croissant", Price: 450, Category: "Bakery", SKU: "CROIS-001", Barcode: "123456789013", StockQuantity: 50, MinStockLevel: 5, CostPrice: 250},
		{Name: "Orange Juice", Description: "Fresh squeezed orange juice", Price: 400, Category: "Beverages", SKU: "OJ-FRESH-001", Barcode: "123456789014", StockQuantity: 30, MinStockLevel: 5, CostPrice: 200},
		{Name: "Sandwich - Turkey", Description: "Turkey and cheese sandwich", Price: 850, Category: "Food", SKU: "SAND-TURK-001", Barcode: "123456789015", StockQuantity: 25, MinStockLevel: 3, CostPrice: 500},
		{Name: "Muffin - Blueberry", Description: "Fresh blueberry muffin", Price: 320, Category: "Bakery", SKU: "MUFF-BLUE-001", Barcode: "123456789016", StockQuantity: 40, MinStockLevel: 8, CostPrice: 180},
		{Name: "Water Bottle", Description: "500ml purified water", Price: 150, Category: "Beverages", SKU: "WATER-500-001", Barcode: "123456789017", StockQuantity: 200, MinStockLevel: 20, CostPrice: 75},
	}

	for _, product := range products {
		existing, err := repo.GetBySKU(ctx, product.SKU)
		if err != nil {
			return err
		}
		if existing != nil {
			continue
		}
		product.ProductID = uuid.New().String()
		product.IsActive = true
		if err := repo.Save(ctx, product); err != nil {
			return err
		}
		logger.Info(ctx, "Product created", "sku", product.SKU, "name", product.Name)
	}
	return nil
}

func seedCustomers(ctx context.Context, database *db.DB) error {
	repo := customermysql.NewCustomerRepository(database.DB)

	customers := []*customerdomain.Customer{
		{Name: "Alice Johnson", Email: "alice@example.com", Phone: "+1-555-0101", Address: "123 Main St, Anytown, ST 12345", LoyaltyPoints: 150, TotalSpent: 5000},
		{Name: "Bob Smith", Email: "bob@example.com", Phone: "+1-555-0102", Address: "456 Oak Ave, Somewhere, ST 12346", LoyaltyPoints: 200, TotalSpent: 7500},
		{Name: "Carol Wilson", Email: "carol@example.com", Phone: "+1-555-0103", Address: "789 Pine St, Elsewhere, ST 12347", LoyaltyPoints: 75, TotalSpent: 2500},
	}

	for _, customer := range customers {
		existing, err := repo.GetByPhone(ctx, customer.Phone)
		if err != nil {
			return err
		}
		if existing != nil {
			continue
		}
		customer.CustomerID = uuid.New().String()
		if err := repo.Save(ctx, customer); err != nil {
			return err
		}
		logger.Info(ctx, "Customer created", "name", customer.Name)
	}
	return nil
}
