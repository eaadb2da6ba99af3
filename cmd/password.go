package cmd

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/talentum-plus/talentum/internal/auth"
	"github.com/talentum-plus/talentum/internal/logger"
	"github.com/talentum-plus/talentum/internal/store"
	"github.com/talentum-plus/talentum/internal/store/relational"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

const minPasswordLength = 6

var errPasswordMismatch = errors.New("passwords do not match")

var passwordCmd = &cobra.Command{
	Use:   "set-password",
	Short: "Set the password of an existing account",
	Run: func(cmd *cobra.Command, _ []string) {
		setPasswordCommand(cmd)
	},
}

func init() {
	rootCmd.AddCommand(passwordCmd)

	passwordCmd.Flags().StringP("email", "e", "", "email of the account")
	passwordCmd.MarkFlagRequired("email")
}

func setPasswordCommand(cmd *cobra.Command) {
	ctx := context.Background()

	logger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"), "set-password")
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	email, _ := cmd.Flags().GetString("email")
	email = strings.TrimSpace(email)

	password, err := passwordPrompt("New password").Run()
	if err != nil {
		logger.Fatal("exiting", zap.Error(err))
	}
	confirm, err := passwordPrompt("Repeat password").Run()
	if err != nil {
		logger.Fatal("exiting", zap.Error(err))
	}

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}
	if config.Postgres == nil {
		logger.Fatal("postgres section is required")
	}

	rel, err := relational.Connect(ctx, config.Postgres.DSN, logger)
	if err != nil {
		logger.Fatal("connecting to postgres", zap.Error(err))
	}
	defer rel.Close(ctx)

	if err := setPassword(ctx, rel, email, password, confirm); err != nil {
		logger.Fatal("setting password", zap.String("email", email), zap.Error(err))
	}
	logger.Info("password updated", zap.String("email", email))
}

func passwordPrompt(label string) *promptui.Prompt {
	return &promptui.Prompt{
		Label:    label,
		Mask:     '*',
		Validate: validatePassword,
	}
}

func validatePassword(s string) error {
	if len(s) < minPasswordLength {
		return fmt.Errorf("password must have at least %d characters", minPasswordLength)
	}
	return nil
}

func setPassword(ctx context.Context, rel store.Relational, email, password, confirm string) error {
	if email == "" {
		return errors.New("email is required")
	}
	if password != confirm {
		return errPasswordMismatch
	}
	if err := validatePassword(password); err != nil {
		return err
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return err
	}
	return rel.SetPassword(ctx, email, hash)
}
