package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/truemediaorg/cobaltbot/config"
	"github.com/truemediaorg/cobaltbot/database"
	"github.com/truemediaorg/cobaltbot/metrics"
	"github.com/truemediaorg/cobaltbot/responder"
	"github.com/truemediaorg/cobaltbot/service"
	"github.com/truemediaorg/cobaltbot/watcher"
	"golang.org/x/sync/errgroup"
)

func init() {
	rootCmd.AddCommand(serverCmd)
}

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Runs the Telegram bot",
	Long:  `Runs the Telegram bot, plus a healthcheck and metrics endpoint`,
	Run: func(cmd *cobra.Command, args []string) {

		cfg := config.FromEnvfile()
		cfg.ConfigureLogging()

		if cfg.TestModeEnabled {
			log.Info("TEST MODE ENABLED")
		}

		botToken, err := resolveBotToken(context.Background(), cfg.Telegram)
		if err != nil {
			log.Fatal(err.Error())
		}

		metrics.MustRegister()

		/*
			Graceful shutdown is possible with errgroup + signal.NotifyContext
			NotifyContext returns a context that will close on OS signals to terminate the process
			errgroup uses that context, and also closes it in case a goroutine errors out
		*/
		ctx, done := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer done()
		g, gCtx := errgroup.WithContext(ctx)

		// One pooled client for every resolution and size probe, closed on the way out
		httpClient := service.NewHTTPClient(cfg.Cobalt)
		defer httpClient.CloseIdleConnections()

		telegramService, err := service.NewTelegramService(botToken)
		if err != nil {
			log.Fatalf("error connecting to Telegram: %v", err)
		}
		cobaltService := service.NewCobaltService(cfg, httpClient)

		var recorder watcher.RelayRecorder = database.NoopDatabase{}
		if cfg.PostgresURL != "" {
			database := database.NewDatabase(cfg.PostgresURL)
			if err = database.Connect(gCtx); err != nil {
				log.Fatalf("error connecting to database: %v", err)
			}
			defer database.Disconnect()
			recorder = database
		} else {
			log.Info("POSTGRES_URL not set, relay log disabled")
		}

		responder := responder.NewResponder(telegramService, cobaltService, cfg.MaxFileBytes, cfg.TestModeEnabled)

		watcher := watcher.NewWatcher(telegramService, telegramService, cobaltService, responder, recorder)

		healthchecker := service.NewHealthchecker(cfg.HealthcheckPort)

		g.Go(func() error {
			defer log.Info("exiting watcher")
			return watcher.Watch(gCtx)
		})

		// For deployed instances, provide a basic healthcheck endpoint to show it's online
		g.Go(func() error {
			if err := healthchecker.Server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				return err
			}
			return nil
		})
		// ...and shut down the server if the bot needs to terminate
		g.Go(func() error {
			<-gCtx.Done()
			defer log.Info("exiting healthchecker")
			return healthchecker.Server.Shutdown(context.Background())
		})

		err = g.Wait()
		if err != nil {
			log.Errorf("caught error: %v", err)
		}
	},
}

// The token comes from BOT_TOKEN, or from AWS Secrets Manager when only
// BOT_SECRETS_PATH is set. Having neither is fatal.
func resolveBotToken(ctx context.Context, cfg config.TelegramConfig) (string, error) {
	if cfg.Token != "" {
		return cfg.Token, nil
	}
	if cfg.SecretPath == "" {
		return "", errors.New("bot token not configured: set " + config.EnvfileKeyBotToken + " or " + config.EnvfileKeyBotSecretsPath)
	}

	awsConfig, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return "", err
	}
	secretsManagerClient := secretsmanager.NewFromConfig(awsConfig)

	// Get the Telegram secrets from AWS Secrets Manager
	result, err := secretsManagerClient.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{SecretId: aws.String(cfg.SecretPath)})
	if err != nil {
		return "", err
	}
	var telegramSecrets config.TelegramSecretData
	if err = json.Unmarshal([]byte(aws.ToString(result.SecretString)), &telegramSecrets); err != nil {
		return "", errors.New("telegram secrets read error: " + err.Error())
	}
	if telegramSecrets.BotToken == "" {
		return "", errors.New("telegram secret has no botToken")
	}
	return telegramSecrets.BotToken, nil
}
