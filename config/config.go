package config

import (
	"errors"
	"flag"
	"net"
	"os"
	"regexp"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Addr        string
	DBUrl       string
	ImagesDir   string
	TokenSecret string
	TokenTTL    time.Duration
	PageSize    int
	Debug       bool
}

func ParseFlags() (cfg Config, err error) {
	// a .env file may provide defaults; flags always win
	godotenv.Load()

	var host string
	flag.StringVar(&host, "host", envOr("HOST", "0.0.0.0"), "listen host name (default 0.0.0.0)")
	var port uint
	flag.UintVar(&port, "port", envUintOr("PORT", 80), "listen port number (default 80)")
	flag.StringVar(&cfg.DBUrl, "db-url", envOr("DB_URL", "surveyard.sqlite"), "path to SQLite3 DB file (default surveyard.sqlite)")
	flag.StringVar(&cfg.ImagesDir, "images-dir", envOr("IMAGES_DIR", "images"), "directory for uploaded survey images (default images)")
	flag.StringVar(&cfg.TokenSecret, "token-secret", os.Getenv("TOKEN_SECRET"), "secret key for token encryption and decryption")
	var ttl uint
	flag.UintVar(&ttl, "token-ttl", envUintOr("TOKEN_TTL", 3600), "token TTL in seconds (default 3600)")
	var pageSize uint
	flag.UintVar(&pageSize, "page-size", envUintOr("PAGE_SIZE", 2), "survey listing page size (default 2)")
	flag.BoolVar(&cfg.Debug, "debug", false, "log at DEBUG level")
	flag.Parse()

	cfg.Addr = net.JoinHostPort(host, strconv.Itoa(int(port)))
	cfg.TokenTTL = time.Duration(ttl) * time.Second
	if pageSize < 1 {
		pageSize = 1
	}
	cfg.PageSize = int(pageSize)

	if cfg.TokenSecret == "" {
		err = errors.New("missing parameter -token-secret")
	}

	return
}

func (cfg Config) Url() (url string) {
	url = cfg.Addr
	url = regexp.MustCompile(`^0.0.0.0`).ReplaceAllString(url, "localhost")
	url = "http://" + url
	return
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envUintOr(key string, fallback uint) uint {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseUint(v, 10, 32); err == nil {
			return uint(n)
		}
	}
	return fallback
}
