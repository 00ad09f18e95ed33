package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"
	"time"

	"github.com/common-nighthawk/go-figure"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/hubcentral/go-session-hub/hub"
	"github.com/hubcentral/go-session-hub/internal/config"
	"github.com/hubcentral/go-session-hub/token"
	"github.com/hubcentral/go-session-hub/users"
)

func main() {
	_ = godotenv.Load()
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	for {
		if err := run(); err != nil {
			log.Fatal().Err(err).Msg("error running server")
			time.Sleep(1 * time.Second)
		} else {
			break
		}
	}
	log.Info().Msg("server stopped")
}

func run() (returnError error) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Msg("recovered from panic")
			debug.PrintStack()
			returnError = errors.New("panic recovered")
		}
	}()

	c := config.New()
	displayAppname(c.GetAppName())

	userRepo, err := users.NewFileUserRepo(c.GetDataFolder())
	if err != nil {
		return fmt.Errorf("users.NewFileUserRepo: %w", err)
	}

	tokenOptions := []token.ManagerOption{
		token.WithIssuer(c.GetBaseURL()),
		token.WithTokenExpiry(c.GetAccessTokenExpiry(), c.GetRefreshTokenExpiry()),
		token.WithResetTokenExpiry(c.GetResetTokenExpiry()),
	}
	if addr := c.GetRedisAddr(); addr != "" {
		client := redis.NewClient(&redis.Options{Addr: addr})
		cache := token.NewRedisRevokedTokenCache(client, token.WithRevokedCacheLogger(log.Logger))
		tokenOptions = append(tokenOptions, token.WithRevokedTokenCache(cache))
		log.Info().Str("addr", addr).Msg("using redis revocation cache")
	}

	tokens := token.New(
		token.NewInMemoryRefreshTokenRepo(),
		userRepo,
		token.NewHMACSigner(c.GetTokenSecret()),
		tokenOptions...,
	)

	handler, err := hub.New(c, userRepo, tokens, log.Logger)
	if err != nil {
		return fmt.Errorf("hub.New: %w", err)
	}

	server := &http.Server{Addr: c.GetPort(), Handler: handler}
	go listenAndServe(server)
	waitForStopSignal()
	returnError = shutdown(server)
	return returnError
}

func listenAndServe(server *http.Server) {
	log.Info().Str("addr", server.Addr).Msg("server listening")
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error().Err(err).Msg("server.ListenAndServe")
	}
}

func waitForStopSignal() {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
}

func shutdown(server *http.Server) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server.Shutdown: %w", err)
	}
	return nil
}

func displayAppname(appname string) {
	myFigure := figure.NewFigure(appname, "cybermedium", true)
	myFigure.Print()
	fmt.Println()
}
