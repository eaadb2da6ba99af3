package cmd

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/talentum-plus/talentum/internal/fanout"
	"github.com/talentum-plus/talentum/internal/logger"
	"github.com/talentum-plus/talentum/internal/models"
	"github.com/talentum-plus/talentum/internal/store"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

var syncCmd = &cobra.Command{
	Use:   "sync-profile",
	Short: "Re-run the candidate synchronization for one profile",
	Run: func(cmd *cobra.Command, _ []string) {
		syncProfileCommand(cmd)
	},
}

func init() {
	rootCmd.AddCommand(syncCmd)

	syncCmd.Flags().StringP("email", "e", "", "email of the candidate profile")
	syncCmd.Flags().StringP("nombre", "n", "", "name used when the profile has to be created")
	syncCmd.Flags().BoolP("yes", "y", false, "do not ask for confirmation")
	syncCmd.MarkFlagRequired("email")
}

func syncProfileCommand(cmd *cobra.Command) {
	ctx := context.Background()

	logger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"), "sync-profile")
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	email, _ := cmd.Flags().GetString("email")
	name, _ := cmd.Flags().GetString("nombre")
	yes, _ := cmd.Flags().GetBool("yes")

	email = strings.TrimSpace(email)
	if email == "" {
		logger.Fatal("email is required")
	}

	if !yes {
		prompt := promptui.Prompt{
			Label:     fmt.Sprintf("Synchronize profile %s across all stores", email),
			IsConfirm: true,
		}
		if _, err := prompt.Run(); err != nil {
			logger.Info("exiting", zap.String("reason", "got no from prompt"))
			return
		}
	}

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	backends, err := connectStores(ctx, config, logger)
	if err != nil {
		logger.Fatal("connecting stores", zap.Error(err))
	}
	defer backends.close(ctx, logger)

	syncer := fanout.New(backends.docs, backends.rel, backends.graph, backends.cache, nil, logger)

	report, err := syncProfile(ctx, backends.docs, backends.rel, syncer, email, name)
	if err != nil {
		logger.Fatal("synchronizing profile", zap.String("email", email), zap.Error(err))
	}

	for _, s := range report.Steps {
		status := "ok"
		if s.Err != nil {
			status = s.Err.Error()
		}
		logger.Info("sync step", zap.String("step", s.Name), zap.String("store", s.Store), zap.String("result", status))
	}
	logger.Info("profile synchronized", zap.String("email", email), zap.Bool("sincronizado", report.OK()))
}

// syncProfile replays the candidate creation event for email. A bare profile
// is inserted first when the document store has none. The relational row is
// checked afterwards because it is what interviews and evaluations join on.
func syncProfile(ctx context.Context, docs store.Documents, rel store.Relational, syncer *fanout.Syncer, email, name string) (*fanout.Report, error) {
	profile, err := docs.GetProfile(ctx, email)
	switch {
	case errors.Is(err, store.ErrNotFound):
		if name == "" {
			name = strings.Split(email, "@")[0]
		}
		profile = &models.Profile{Email: email, Name: name, Skills: models.SkillList{}}
		if _, err := docs.InsertProfile(ctx, profile); err != nil {
			return nil, fmt.Errorf("creating profile: %w", err)
		}
	case err != nil:
		return nil, fmt.Errorf("reading profile: %w", err)
	}

	report := syncer.CandidateCreated(ctx, profile)

	if _, err := rel.GetCandidate(ctx, email); err != nil {
		return report, fmt.Errorf("candidate row missing after sync: %w", errors.Join(err, report.Err()))
	}
	return report, nil
}
