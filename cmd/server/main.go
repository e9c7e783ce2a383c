package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/keerthik-19/summer-camp-registration/internal/config"
	"github.com/keerthik-19/summer-camp-registration/internal/db"
	"github.com/keerthik-19/summer-camp-registration/internal/handlers"
	"github.com/keerthik-19/summer-camp-registration/internal/notify"
	"github.com/keerthik-19/summer-camp-registration/internal/services"
	"github.com/keerthik-19/summer-camp-registration/internal/session"
	"github.com/keerthik-19/summer-camp-registration/internal/store"
	"github.com/keerthik-19/summer-camp-registration/internal/web"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "camp",
	Short: "Summer camp registration service",
	RunE:  runServe,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE:  runServe,
}

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Deliver queued notification emails",
	RunE:  runWorker,
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database schema and exit",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(cfgFile)
		if err != nil {
			return err
		}
		conn, err := db.Open(cfg.DB)
		if err != nil {
			return err
		}
		closeDB(conn)
		return nil
	},
}

var hashPasswordCmd = &cobra.Command{
	Use:   "hash-password <password>",
	Short: "Print a bcrypt hash for ADMIN_PASSWORD_HASH",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		hash, err := session.HashPassword(args[0])
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), hash)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (yaml, json or toml)")
	serveCmd.Flags().Bool("no-worker", false, "in queue mode, do not consume notifications in this process")
	rootCmd.Flags().AddFlagSet(serveCmd.Flags())
	rootCmd.AddCommand(serveCmd, workerCmd, migrateCmd, hashPasswordCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runServe(cmd *cobra.Command, _ []string) error {
	noWorker, _ := cmd.Flags().GetBool("no-worker")

	cfg, err := config.Load(cfgFile)
	if err != nil {
		return err
	}
	conn, err := db.Open(cfg.DB)
	if err != nil {
		return fmt.Errorf("db init: %w", err)
	}
	defer closeDB(conn)
	regStore := store.New(conn)

	rdb := connectRedis(cmd.Context(), cfg.Redis)
	if rdb != nil {
		defer rdb.Close()
	}

	var sessStore session.Store = session.NewMemoryStore()
	if rdb != nil {
		sessStore = session.NewRedisStore(rdb)
	}
	if cfg.IsProd() && cfg.Admin.PasswordHash == "" && cfg.Admin.Password == "admin123" {
		log.Printf("WARNING: default admin password in production; set ADMIN_PASSWORD_HASH")
	}
	sessions, err := session.NewManager(cfg.Admin, cfg.Session, sessStore)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	mailer := notify.NewMailer(cfg.Notify.SendGridAPIKey, cfg.Notify.MailFrom)
	if mailer.DemoMode() {
		log.Printf("SENDGRID_API_KEY not set; emails will only be logged")
	}
	var notifier services.Notifier = mailer
	if cfg.Notify.Mode == config.NotifyQueue {
		q := notify.NewQueueNotifier(cfg.Notify.RabbitMQURL, cfg.Notify.Queue)
		defer q.Close()
		notifier = q
		if !noWorker {
			go runConsumer(ctx, cfg.Notify, regStore, mailer)
		}
	}

	api := &handlers.API{
		Regs:     services.New(regStore, notifier),
		Sessions: sessions,
		Cookie:   handlers.CookieConfig{Name: cfg.Session.CookieName, Secure: cfg.Session.CookieSecure || cfg.IsProd()},
	}
	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           web.Router(web.Deps{API: api, Redis: rdb, RateLimit: cfg.RateLimit}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("summer camp registration listening on %s (db=%s notify=%s)", cfg.Addr, cfg.DB.Driver, cfg.Notify.Mode)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	log.Printf("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func runWorker(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return err
	}
	conn, err := db.Open(cfg.DB)
	if err != nil {
		return fmt.Errorf("db init: %w", err)
	}
	defer closeDB(conn)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	mailer := notify.NewMailer(cfg.Notify.SendGridAPIKey, cfg.Notify.MailFrom)
	runConsumer(ctx, cfg.Notify, store.New(conn), mailer)
	return nil
}

func runConsumer(ctx context.Context, cfg config.NotifyConfig, loader notify.Loader, mailer *notify.Mailer) {
	c := &notify.Consumer{URL: cfg.RabbitMQURL, Queue: cfg.Queue, Loader: loader, Sender: mailer}
	if err := c.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Printf("notification consumer stopped: %v", err)
	}
}

// connectRedis returns nil when redis is not configured or unreachable; the
// service then falls back to in-memory sessions and no rate limiting.
func connectRedis(ctx context.Context, cfg config.RedisConfig) *redis.Client {
	if cfg.Addr == "" {
		return nil
	}
	rdb := redis.NewClient(&redis.Options{Addr: cfg.Addr, Password: cfg.Password, DB: cfg.DB})
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		log.Printf("redis %s unavailable, continuing without it: %v", cfg.Addr, err)
		_ = rdb.Close()
		return nil
	}
	return rdb
}

func closeDB(conn *gorm.DB) {
	if sqlDB, err := conn.DB(); err == nil {
		_ = sqlDB.Close()
	}
}
