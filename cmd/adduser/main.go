// Command adduser creates an account from the terminal. The password is read
// from stdin so it never lands in shell history.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"

	"ledger/internal/config"
	"ledger/internal/core"
	applog "ledger/internal/log"
	"ledger/internal/services"
	"ledger/internal/storage"
)

func main() {
	_ = godotenv.Load()

	logger := applog.New(applog.DefaultConfig())
	applog.SetDefault(logger)

	username := flag.String("username", "", "account name (required)")
	admin := flag.Bool("admin", false, "grant the admin role")
	flag.Parse()

	if *username == "" {
		fmt.Fprintln(os.Stderr, "usage: adduser -username NAME [-admin]")
		os.Exit(2)
	}

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("configuration validation failed", applog.FieldError, err)
		os.Exit(1)
	}

	db, err := storage.Open(cfg.DBPath)
	if err != nil {
		logger.Error("failed to open database", applog.FieldError, err, "path", cfg.DBPath)
		os.Exit(1)
	}
	defer db.Close()

	fmt.Fprint(os.Stderr, "password: ")
	password, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil {
		logger.Error("failed to read password", applog.FieldError, err)
		os.Exit(1)
	}
	password = strings.TrimRight(password, "\r\n")

	role := core.RoleStaff
	if *admin {
		role = core.RoleAdmin
	}

	users := services.NewUserService(storage.NewUserStore(db))
	user, err := users.Register(context.Background(), *username, password, role)
	if err != nil {
		logger.Error("failed to create user", applog.FieldError, err, applog.FieldUser, *username)
		os.Exit(1)
	}

	logger.Info("user created", applog.FieldUser, user.Username, "role", string(user.Role), "id", user.ID)
}
