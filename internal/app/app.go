package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"newsy/internal/config"
	"newsy/internal/content"
	"newsy/internal/db"
	"newsy/internal/fetch"
	"newsy/internal/models"
	"newsy/internal/news"
	"newsy/internal/secondary"
)

// ArticleExtractor resolves the full text of an article URL.
type ArticleExtractor interface {
	ExtractArticleContent(ctx context.Context, articleURL string) models.ExtractionResult
}

type NewsProvider interface {
	Category(ctx context.Context, category string, page, pageSize int) (*news.Listing, error)
	Headlines(ctx context.Context, page, pageSize int) (*news.Listing, error)
	Trending(ctx context.Context, page, pageSize int) (*news.Listing, error)
	Personalized(ctx context.Context, topics []string, page, pageSize int) (*news.Listing, error)
}

// Store persists saved articles and topic preferences.
type Store interface {
	SaveArticle(ctx context.Context, article *models.SavedArticle) error
	SavedArticles(ctx context.Context, user string) ([]models.SavedArticle, error)
	DeleteSavedArticle(ctx context.Context, user, id string) error
	Preferences(ctx context.Context, user string) (*models.Preferences, error)
	SavePreferences(ctx context.Context, user string, topics []string) (*models.Preferences, error)
	Ping(ctx context.Context) error
	Close() error
}

type NewsApp struct {
	config    *config.Config
	store     Store
	news      NewsProvider
	extractor ArticleExtractor
	server    *http.Server
}

func NewNewsApp(cfg *config.Config) (*NewsApp, error) {
	mongoDB, err := db.NewMongoDB(cfg.DB)
	if err != nil {
		return nil, err
	}

	sec, err := newSecondary(cfg)
	if err != nil {
		mongoDB.Close()
		return nil, err
	}

	extractor := content.NewExtractor(fetch.NewClient(cfg.Fetch), sec, cfg.Secondary.Timeout())
	newsService := news.NewService(
		news.NewClient(cfg.News.BaseURL, cfg.News.APIKey, cfg.News.Timeout()),
		cfg.News.Language,
		cfg.News.TrendingDays,
	)

	return newApp(cfg, mongoDB, newsService, extractor), nil
}

func newApp(cfg *config.Config, store Store, provider NewsProvider, extractor ArticleExtractor) *NewsApp {
	a := &NewsApp{
		config:    cfg,
		store:     store,
		news:      provider,
		extractor: extractor,
	}
	a.server = &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      a.Handler(),
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeoutSec) * time.Second,
	}
	return a
}

// newSecondary picks the extractor used when scraping comes up short. The
// readability provider gets its own fetcher bounded by the secondary timeout.
func newSecondary(cfg *config.Config) (secondary.Extractor, error) {
	switch cfg.Secondary.Provider {
	case config.ProviderRemote:
		return secondary.NewService(cfg.Secondary.URL, cfg.Secondary.APIKey, cfg.Secondary.Timeout()), nil
	case config.ProviderReadability:
		fetchCfg := cfg.Fetch
		fetchCfg.TimeoutSec = cfg.Secondary.TimeoutSec
		return secondary.NewReadability(fetch.NewClient(fetchCfg)), nil
	case config.ProviderNone:
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown secondary provider %q", cfg.Secondary.Provider)
	}
}

// Run serves the API until SIGINT or SIGTERM, then drains in-flight requests
// and closes the store.
func (a *NewsApp) Run() error {
	log.Info().
		Str("addr", a.config.Server.Addr).
		Str("database", a.config.DB.Database).
		Str("secondary", a.config.Secondary.Provider).
		Msg("starting news API")

	errCh := make(chan error, 1)
	go func() {
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	select {
	case sig := <-sigChan:
		log.Warn().Str("signal", sig.String()).Msg("shutting down")
	case err, ok := <-errCh:
		if ok {
			a.store.Close()
			return fmt.Errorf("http server: %w", err)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(a.config.Server.WriteTimeoutSec)*time.Second)
	defer cancel()
	if err := a.server.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}

	return a.store.Close()
}
