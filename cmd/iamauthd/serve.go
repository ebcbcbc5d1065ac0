package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	iamauth "github.com/andyvr/iamauth"
	"github.com/andyvr/iamauth/httpapi"
	"github.com/andyvr/iamauth/password"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			v, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			return serve(cmd.Context(), v)
		},
	}
}

func serve(ctx context.Context, v *viper.Viper) error {
	log, err := newLogger(v)
	if err != nil {
		return err
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     v.GetString("redis.addr"),
		Password: v.GetString("redis.password"),
		DB:       v.GetInt("redis.db"),
	})
	defer rdb.Close()

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		return fmt.Errorf("redis unreachable at %s: %w", v.GetString("redis.addr"), err)
	}

	identities, err := identitiesFromConfig(v)
	if err != nil {
		return err
	}

	cfg := engineConfig(v)
	engine, err := iamauth.New().
		WithConfig(cfg).
		WithRedis(rdb).
		WithIdentityProvider(identities).
		WithPasswordVerifier(password.NewVerifier()).
		WithAuditSink(iamauth.NewLoggerSink(log.With().Str("component", "audit").Logger())).
		WithLogger(log).
		Build()
	if err != nil {
		return fmt.Errorf("build engine: %w", err)
	}
	defer engine.Close()

	api := httpapi.NewServer(engine, log.With().Str("component", "http").Logger())

	srv := &http.Server{
		Addr:         v.GetString("http.addr"),
		Handler:      api.Handler(),
		ReadTimeout:  v.GetDuration("http.read_timeout"),
		WriteTimeout: v.GetDuration("http.write_timeout"),
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", srv.Addr).Msg("http server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	stop, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case <-stop.Done():
	}

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), v.GetDuration("http.shutdown_timeout"))
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

func engineConfig(v *viper.Viper) iamauth.Config {
	cfg := iamauth.DefaultConfig()
	cfg.JWT.Secret = []byte(v.GetString("jwt.secret"))
	cfg.JWT.AccessTTL = v.GetDuration("jwt.access_ttl")
	cfg.JWT.RefreshTTL = v.GetDuration("jwt.refresh_ttl")
	cfg.JWT.Issuer = v.GetString("jwt.issuer")
	cfg.Revocation.FailClosed = v.GetBool("revocation.fail_closed")
	cfg.Audit.Enabled = v.GetBool("audit.enabled")
	cfg.Metrics.Enabled = v.GetBool("metrics.enabled")
	return cfg
}

func newLogger(v *viper.Viper) (zerolog.Logger, error) {
	level, err := zerolog.ParseLevel(v.GetString("log.level"))
	if err != nil {
		return zerolog.Logger{}, fmt.Errorf("log level: %w", err)
	}

	var log zerolog.Logger
	if v.GetBool("log.pretty") {
		log = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr})
	} else {
		log = zerolog.New(os.Stderr)
	}
	return log.Level(level).With().Timestamp().Logger(), nil
}
