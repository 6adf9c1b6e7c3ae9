package main

import (
	"log"
	"log/slog"
	"net/http"
	"os"

	"github.com/caarlos0/env/v11"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	ma "github.com/gump416/project-runningmate"
	"github.com/gump416/project-runningmate/oauth2"
	"github.com/gump416/project-runningmate/stores"
	gormstore "github.com/gump416/project-runningmate/stores/gorm"
)

type Config struct {
	Addr        string `env:"RUNNINGMATE_ADDR" envDefault:":8080"`
	StorageDir  string `env:"RUNNINGMATE_STORAGE_DIR" envDefault:"./data"`
	PostgresDSN string `env:"RUNNINGMATE_POSTGRES_DSN"`

	JWTSecretKey          string `env:"RUNNINGMATE_JWT_SECRET_KEY"`
	SessionTimeoutSeconds int    `env:"RUNNINGMATE_SESSION_TIMEOUT" envDefault:"86400"`

	// HashPasswords switches the password policy to bcrypt. The legacy
	// find-password flow answers not-found under it.
	HashPasswords bool `env:"RUNNINGMATE_HASH_PASSWORDS"`

	KakaoClientID     string `env:"OAUTH2_KAKAO_CLIENT_ID"`
	KakaoClientSecret string `env:"OAUTH2_KAKAO_CLIENT_SECRET"`
	KakaoCallbackURL  string `env:"OAUTH2_KAKAO_CALLBACK_URL"`
}

type mateStore interface {
	ma.MateStore
	ma.RecoveryStore
}

func openStore(cfg Config) (mateStore, error) {
	if cfg.PostgresDSN != "" {
		db, err := gorm.Open(postgres.Open(cfg.PostgresDSN), &gorm.Config{TranslateError: true})
		if err != nil {
			return nil, err
		}
		if err := gormstore.AutoMigrate(db); err != nil {
			return nil, err
		}
		slog.Info("using postgres mate store")
		return gormstore.NewMateStore(db), nil
	}
	slog.Info("using filesystem mate store", "dir", cfg.StorageDir)
	return stores.NewFSMateStore(cfg.StorageDir), nil
}

func main() {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		log.Fatalf("failed to parse config: %v", err)
	}

	store, err := openStore(cfg)
	if err != nil {
		log.Fatalf("failed to open store: %v", err)
	}

	var policy ma.PasswordPolicy = ma.PlainPolicy{}
	if cfg.HashPasswords {
		policy = ma.BcryptPolicy{}
	}

	auth := &ma.Auth{Store: store, Policy: policy}
	recovery := &ma.Recovery{Store: store, Policy: policy}

	handlers := &ma.Handlers{
		Auth:                    auth,
		Recovery:                recovery,
		Signer:                  (&ma.TokenSigner{SecretKey: cfg.JWTSecretKey}).EnsureDefaults(),
		SessionTimeoutInSeconds: cfg.SessionTimeoutSeconds,
	}

	kakao := oauth2.NewKakaoOAuth2(cfg.KakaoClientID, cfg.KakaoClientSecret, cfg.KakaoCallbackURL, handlers.HandleFederatedUser)
	handlers.AddAuth("/auth/kakao", kakao)

	slog.Info("runningmate listening", "addr", cfg.Addr)
	if err := http.ListenAndServe(cfg.Addr, handlers.Handler()); err != nil {
		slog.Error("server exited", "error", err)
		os.Exit(1)
	}
}
