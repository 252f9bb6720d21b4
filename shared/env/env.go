package env

import (
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

var (
	Port string

	TelegramBotToken string
	TelegramChatID   int64

	HeliusRPCURL   string
	EthereumRPCURL string

	DexScreenerAPIURL string
	RugCheckAPIURL    string
	FakeVolumeAPIURL  string
	JupiterAPIURL     string
	ZeroExAPIURL      string
	ZeroExAPIKey      string

	WalletServiceURL   string
	WalletServiceToken string
	CredentialCheckURL string

	DatabaseURL string

	PGHOST     string
	PGPORT     string
	PGUSER     string
	PGPASSWORD string
	PGDATABASE string
)

func loadEnvVariable(key string, isRequired bool) string {
	value := os.Getenv(key)
	if isRequired && value == "" {
		log.Fatalf("FATAL: Environment variable %s is required but not set.", key)
	}
	isHidden := key == "TELEGRAM_BOT_TOKEN" || key == "DATABASE_URL" || key == "PGPASSWORD" ||
		key == "WALLET_SERVICE_TOKEN" || key == "ZEROEX_API_KEY"
	if value == "" {
		if !isRequired {
			log.Printf("INFO: Environment variable %s is not set.", key)
		}
	} else if isHidden {
		log.Printf("INFO: Loaded %s (value hidden)", key)
	} else {
		log.Printf("INFO: Loaded %s = %s", key, value)
	}
	return value
}

func loadInt64Env(key string, required bool) int64 {
	strValue := loadEnvVariable(key, required)
	if strValue == "" {
		return 0
	}
	id, err := strconv.ParseInt(strValue, 10, 64)
	if err != nil {
		log.Fatalf("FATAL: Failed to parse int64 environment variable %s='%s': %v", key, strValue, err)
	}
	return id
}

func LoadEnv() error {
	if err := godotenv.Load(); err != nil {
		log.Println("INFO: .env file not found or error loading, relying on system environment variables.")
	} else {
		log.Println("INFO: .env file loaded successfully.")
	}

	Port = loadEnvVariable("PORT", false)
	if Port == "" {
		Port = "8080"
		log.Printf("INFO: PORT not set, defaulting to %s", Port)
	}

	TelegramBotToken = loadEnvVariable("TELEGRAM_BOT_TOKEN", false)
	TelegramChatID = loadInt64Env("TELEGRAM_CHAT_ID", false)

	HeliusRPCURL = loadEnvVariable("HELIUS_RPC_URL", true)
	EthereumRPCURL = loadEnvVariable("ETHEREUM_RPC_URL", false)

	DexScreenerAPIURL = loadEnvVariable("DEXSCREENER_API_URL", false)
	RugCheckAPIURL = loadEnvVariable("RUGCHECK_API_URL", false)
	FakeVolumeAPIURL = loadEnvVariable("FAKEVOLUME_API_URL", false)
	JupiterAPIURL = loadEnvVariable("JUPITER_API_URL", false)
	ZeroExAPIURL = loadEnvVariable("ZEROEX_API_URL", false)
	ZeroExAPIKey = loadEnvVariable("ZEROEX_API_KEY", false)

	WalletServiceURL = loadEnvVariable("WALLET_SERVICE_URL", true)
	WalletServiceToken = loadEnvVariable("WALLET_SERVICE_TOKEN", false)
	CredentialCheckURL = loadEnvVariable("CREDENTIAL_CHECK_URL", true)

	DatabaseURL = loadEnvVariable("DATABASE_URL", false)
	PGHOST = loadEnvVariable("PGHOST", false)
	PGPORT = loadEnvVariable("PGPORT", false)
	PGUSER = loadEnvVariable("PGUSER", false)
	PGPASSWORD = loadEnvVariable("PGPASSWORD", false)
	PGDATABASE = loadEnvVariable("PGDATABASE", false)

	return nil
}

// DatabaseDSN returns DATABASE_URL when set, otherwise a DSN assembled from
// the individual PG* variables.
func DatabaseDSN() (string, error) {
	if DatabaseURL != "" {
		return DatabaseURL, nil
	}
	if PGHOST == "" || PGPORT == "" || PGUSER == "" || PGDATABASE == "" {
		return "", fmt.Errorf("database connection variables missing (set DATABASE_URL or PG*)")
	}
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=disable TimeZone=UTC",
		PGHOST, PGUSER, PGPASSWORD, PGDATABASE, PGPORT), nil
}
