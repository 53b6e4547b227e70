package main

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"gorm.io/gorm"

	"greetcard/internal/auth"
	"greetcard/internal/config"
	"greetcard/internal/database"
)

// admin 用于运维找回：为卡片重新签发编辑令牌，必要时重置查看口令。
func main() {
	var (
		cardID        = flag.Uint("card-id", 0, "卡片 ID（必填）")
		resetPasscode = flag.Bool("reset-passcode", false, "生成新的随机查看口令")
		clearPasscode = flag.Bool("clear-passcode", false, "移除查看口令")
		dbHost        = flag.String("db-host", "", "数据库 Host（可选，默认读 DATABASE_HOST）")
		dbPort        = flag.Int("db-port", 0, "数据库 Port（可选，默认读 DATABASE_PORT）")
		sslMode       = flag.String("db-sslmode", "", "数据库 SSLMODE（可选，默认读 DATABASE_SSLMODE）")
	)
	flag.Parse()

	if *cardID == 0 {
		log.Fatal("missing required flag: --card-id")
	}
	if *resetPasscode && *clearPasscode {
		log.Fatal("--reset-passcode and --clear-passcode are mutually exclusive")
	}

	dbCfg, err := loadDatabaseConfig(*dbHost, *dbPort, *sslMode)
	if err != nil {
		log.Fatalf("load database config: %v", err)
	}
	tokens, err := loadTokenService()
	if err != nil {
		log.Fatalf("load token config: %v", err)
	}

	db, err := database.InitDatabase(dbCfg, nil)
	if err != nil {
		log.Fatalf("init database: %v", err)
	}

	var card database.Card
	switch err := db.First(&card, *cardID).Error; {
	case err == nil:
	case errors.Is(err, gorm.ErrRecordNotFound):
		log.Fatalf("card %d not found", *cardID)
	default:
		log.Fatalf("query card: %v", err)
	}

	var passcode string
	switch {
	case *resetPasscode:
		if passcode, err = generateRandomPasscode(9); err != nil {
			log.Fatalf("generate passcode: %v", err)
		}
		hashed, err := auth.HashPasscode(passcode)
		if err != nil {
			log.Fatalf("hash passcode: %v", err)
		}
		if err := db.Model(&card).Update("passcode_hash", hashed).Error; err != nil {
			log.Fatalf("update passcode: %v", err)
		}
	case *clearPasscode:
		if err := db.Model(&card).Update("passcode_hash", "").Error; err != nil {
			log.Fatalf("clear passcode: %v", err)
		}
	}

	token, err := tokens.IssueEditToken(card.ID)
	if err != nil {
		log.Fatalf("issue edit token: %v", err)
	}

	fmt.Printf("卡片 %d（%s）的新编辑令牌，有效期 %s：\n", card.ID, card.Title, tokens.TTL())
	fmt.Printf("%s\n", token)
	if passcode != "" {
		fmt.Printf("新的查看口令: %s\n", passcode)
		fmt.Printf("提示：口令仅显示一次。\n")
	}
	if *clearPasscode {
		fmt.Printf("查看口令已移除。\n")
	}
}

func loadTokenService() (*auth.TokenService, error) {
	ttl := 30 * 24 * time.Hour
	if env := strings.TrimSpace(os.Getenv("EDIT_TOKEN_TTL")); env != "" {
		parsed, err := time.ParseDuration(env)
		if err != nil {
			return nil, fmt.Errorf("parse EDIT_TOKEN_TTL: %w", err)
		}
		ttl = parsed
	}
	return auth.NewTokenService(os.Getenv("EDIT_TOKEN_SECRET"), ttl)
}

func loadDatabaseConfig(host string, port int, sslmode string) (config.DatabaseConfig, error) {
	if strings.TrimSpace(host) == "" {
		host = os.Getenv("DATABASE_HOST")
	}
	if port <= 0 {
		if env := strings.TrimSpace(os.Getenv("DATABASE_PORT")); env != "" {
			p, err := strconv.Atoi(env)
			if err != nil {
				return config.DatabaseConfig{}, fmt.Errorf("parse DATABASE_PORT: %w", err)
			}
			port = p
		}
	}
	if strings.TrimSpace(sslmode) == "" {
		sslmode = os.Getenv("DATABASE_SSLMODE")
	}

	cfg := config.DatabaseConfig{
		Host:     host,
		Port:     port,
		Name:     os.Getenv("POSTGRES_DB"),
		User:     os.Getenv("POSTGRES_USER"),
		Password: os.Getenv("POSTGRES_PASSWORD"),
		SSLMode:  sslmode,
	}
	if strings.TrimSpace(cfg.Host) == "" {
		cfg.Host = "localhost"
	}
	if cfg.Port <= 0 {
		cfg.Port = 5432
	}
	if strings.TrimSpace(cfg.SSLMode) == "" {
		cfg.SSLMode = "disable"
	}
	switch {
	case strings.TrimSpace(cfg.Name) == "":
		return config.DatabaseConfig{}, errors.New("database name is required (POSTGRES_DB)")
	case strings.TrimSpace(cfg.User) == "":
		return config.DatabaseConfig{}, errors.New("database user is required (POSTGRES_USER)")
	case strings.TrimSpace(cfg.Password) == "":
		return config.DatabaseConfig{}, errors.New("database password is required (POSTGRES_PASSWORD)")
	}
	return cfg, nil
}

func generateRandomPasscode(bytesLen int) (string, error) {
	buf := make([]byte, bytesLen)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("read random bytes: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
