package config

import (
	"flag"
	"os"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/M0R1S0N/steampay/internal/steampay"
	"github.com/M0R1S0N/steampay/internal/steampay/autotopup"
	"github.com/M0R1S0N/steampay/internal/steampay/data/database"
	"github.com/M0R1S0N/steampay/internal/steampay/notify"
	"github.com/M0R1S0N/steampay/internal/steampay/providers/exchange"
	"github.com/M0R1S0N/steampay/internal/steampay/providers/marketplace"
	"github.com/M0R1S0N/steampay/internal/steampay/providers/rates"
	"github.com/M0R1S0N/steampay/internal/steampay/providers/wallet"
	"github.com/M0R1S0N/steampay/internal/steampay/service"
)

const (
	serverAddressFlag          = "a"
	serverAddressEnv           = "RUN_ADDRESS"
	serverAddressDefault       = "localhost:8080"
	dbConnectionStringFlag     = "d"
	dbConnectionStringEnv      = "DATABASE_URI"
	dbConnectionStringDefault  = ""
	exchangeBaseURLDefault     = "https://api.bybit.com"
	marketplaceBaseURLDefault  = "https://api.digiseller.com"
	ratesBaseURLDefault        = "https://api.frankfurter.app"
	commissionRateDefault      = "0.06"
	minSendDefault             = "0.25"
	minWalletBalanceDefault    = "60"
	topupAmountDefault         = "120"
	topupCheckIntervalDefault  = 600
	shutdownTimeout            = time.Second * 5
)

type Config struct {
	Server      steampay.Config
	DB          database.Config
	Wallet      wallet.Config
	Exchange    exchange.Config
	Marketplace marketplace.Config
	Rates       rates.Config
	Telegram    notify.Config
	Settlement  service.Config
	Topup       autotopup.Config

	ShutdownTimeout time.Duration
}

func Load() (*Config, error) {
	serverAddress := flag.String(
		serverAddressFlag,
		serverAddressDefault,
		"Server address host:port",
	)

	dbConnectionString := flag.String(
		dbConnectionStringFlag,
		dbConnectionStringDefault,
		"PostgreSQL connection string",
	)

	flag.Parse()

	if valStr, ok := os.LookupEnv(serverAddressEnv); ok {
		*serverAddress = valStr
	}

	if valStr, ok := os.LookupEnv(dbConnectionStringEnv); ok {
		*dbConnectionString = valStr
	}

	walletURL, walletToken := walletCredentials()

	return &Config{
		Server: steampay.Config{
			ServerAddress:   *serverAddress,
			AdminSecret:     os.Getenv("ADMIN_SECRET"),
			ShutdownTimeout: shutdownTimeout,
		},
		DB: database.Config{
			ConnectionString:   *dbConnectionString,
			RetryAttemptDelays: []time.Duration{time.Second, 2 * time.Second, 5 * time.Second},
		},
		Wallet: wallet.Config{
			BaseURL: walletURL,
			APIKey:  walletToken,
		},
		Exchange: exchange.Config{
			BaseURL:   envString("BYBIT_BASE_URL", exchangeBaseURLDefault),
			APIKey:    os.Getenv("BYBIT_API_KEY"),
			APISecret: os.Getenv("BYBIT_API_SECRET"),
			UID:       os.Getenv("BYBIT_UID"),
		},
		Marketplace: marketplace.Config{
			BaseURL:  envString("DIGISELLER_BASE_URL", marketplaceBaseURLDefault),
			SellerID: envInt64("DIGISELLER_SELLER_ID", 0),
			APIKey:   os.Getenv("DIGISELLER_API_KEY"),
		},
		Rates: rates.Config{
			BaseURL: envString("RATES_BASE_URL", ratesBaseURLDefault),
		},
		Telegram: notify.Config{
			BotToken: os.Getenv("TG_BOT_TOKEN"),
			ChatID:   os.Getenv("TG_CHAT_ID"),
		},
		Settlement: service.Config{
			DefaultServiceID: os.Getenv("DEFAULT_SERVICE_ID"),
			CommissionRate:   envDecimal("COMMISSION_RATE", commissionRateDefault),
			MinSend:          envDecimal("MIN_SEND_USD", minSendDefault),
		},
		Topup: autotopup.Config{
			TickPeriod:       time.Duration(envInt64("TOPUP_CHECK_INTERVAL", topupCheckIntervalDefault)) * time.Second,
			MinWalletBalance: envDecimal("MIN_PW_BALANCE", minWalletBalanceDefault),
			TopupAmount:      envDecimal("TOPUP_AMOUNT", topupAmountDefault),
			DryRun:           envBool("TOPUP_DRY_RUN", false),
		},
		ShutdownTimeout: shutdownTimeout,
	}, nil
}

// The wallet provider runs a dev and a prod environment with separate
// credentials; PW_USE_PROD picks the pair.
func walletCredentials() (url, token string) {
	if envBool("PW_USE_PROD", true) {
		return os.Getenv("PW_PROD_URL"), os.Getenv("PW_PROD_TOKEN")
	}
	return os.Getenv("PW_DEV_URL"), os.Getenv("PW_DEV_TOKEN")
}

func envString(name, defaultValue string) string {
	if valStr, ok := os.LookupEnv(name); ok {
		return valStr
	}
	return defaultValue
}

func envBool(name string, defaultValue bool) bool {
	valStr, ok := os.LookupEnv(name)
	if !ok {
		return defaultValue
	}
	val, err := strconv.ParseBool(valStr)
	if err != nil {
		return defaultValue
	}
	return val
}

func envInt64(name string, defaultValue int64) int64 {
	valStr, ok := os.LookupEnv(name)
	if !ok {
		return defaultValue
	}
	val, err := strconv.ParseInt(valStr, 10, 64)
	if err != nil {
		return defaultValue
	}
	return val
}

func envDecimal(name, defaultValue string) decimal.Decimal {
	if valStr, ok := os.LookupEnv(name); ok {
		if val, err := decimal.NewFromString(valStr); err == nil {
			return val
		}
	}
	return decimal.RequireFromString(defaultValue)
}
