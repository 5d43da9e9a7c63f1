package service

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/voyage-finance/voyage-recovery/contracts/handlers"
	"github.com/voyage-finance/voyage-recovery/models"
	"github.com/voyage-finance/voyage-recovery/recovery"
	common2 "github.com/voyage-finance/voyage-recovery/transaction/common"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

const (
	DefaultCGWURL  = "https://safe-client.safe.global"
	chainCacheSize = 64
)

type Service struct {
	DB        *gorm.DB
	Client    *resty.Client
	EthClient recovery.Provider
	CGWURL    string
	Handlers  *handlers.ContractHandlers
	// CallTimeout bounds single provider calls; recovery.DefaultCallTimeout when zero.
	CallTimeout time.Duration

	chains *lru.Cache[int64, common2.ChainInfo]
}

func NewService(db *gorm.DB, client *resty.Client, ethClient recovery.Provider, cgwURL string) *Service {
	if cgwURL == "" {
		cgwURL = DefaultCGWURL
	}
	chains, err := lru.New[int64, common2.ChainInfo](chainCacheSize)
	if err != nil {
		panic(err)
	}
	return &Service{
		DB:        db,
		Client:    client,
		EthClient: ethClient,
		CGWURL:    strings.TrimRight(cgwURL, "/"),
		Handlers:  handlers.NewContractHandlers(),
		chains:    chains,
	}
}

// OpenDB opens the store for driver ("sqlite" or "postgres") and migrates the schema.
func OpenDB(driver string, dsn string) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch driver {
	case "", "sqlite":
		if dsn == "" {
			dsn = "recovery.db"
		}
		dialector = sqlite.Open(dsn)
	case "postgres":
		dialector = postgres.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported db driver %q", driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to connect database: %w", err)
	}
	// Migrate the schema
	if err := db.AutoMigrate(&models.Chat{}, &models.RecoveryAlert{}); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return db, nil
}
