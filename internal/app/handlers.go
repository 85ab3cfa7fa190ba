package app

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"newsy/internal/db"
	"newsy/internal/models"
	"newsy/internal/news"
	"newsy/internal/urlutil"
)

// UserHeader carries the authenticated user id set by the auth proxy.
const UserHeader = "X-User-ID"

const maxRequestBody = 1 << 20

func (a *NewsApp) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/news", a.getNews)
	mux.HandleFunc("GET /api/news/headlines", a.getHeadlines)
	mux.HandleFunc("GET /api/news/trending", a.getTrending)
	mux.HandleFunc("POST /api/news/article-content", a.getArticleContent)

	mux.HandleFunc("GET /api/my-news", a.requireUser(a.getMyNews))
	mux.HandleFunc("GET /api/my-news/preferences", a.requireUser(a.getPreferences))
	mux.HandleFunc("PUT /api/my-news/preferences", a.requireUser(a.updatePreferences))

	mux.HandleFunc("POST /api/saved", a.requireUser(a.saveArticle))
	mux.HandleFunc("GET /api/saved", a.requireUser(a.getSavedArticles))
	mux.HandleFunc("DELETE /api/saved/{id}", a.requireUser(a.deleteSavedArticle))

	mux.HandleFunc("GET /healthz", a.healthz)

	var handler http.Handler = mux
	handler = corsMiddleware(handler)
	handler = requestLoggerMiddleware(handler)
	handler = recoveryMiddleware(handler)
	return handler
}

type listingResponse struct {
	Success bool `json:"success"`
	*news.Listing
}

func (a *NewsApp) getNews(w http.ResponseWriter, r *http.Request) {
	page, pageSize := pageParams(r)
	category := r.URL.Query().Get("category")
	if category == "" {
		category = news.TopicAll
	}

	l, err := a.news.Category(r.Context(), category, page, pageSize)
	if err != nil {
		newsError(w, r, err, "Failed to fetch news")
		return
	}
	writeJSON(w, r, http.StatusOK, listingResponse{Success: true, Listing: l})
}

func (a *NewsApp) getHeadlines(w http.ResponseWriter, r *http.Request) {
	page, pageSize := pageParams(r)
	l, err := a.news.Headlines(r.Context(), page, pageSize)
	if err != nil {
		newsError(w, r, err, "Failed to fetch headlines")
		return
	}
	writeJSON(w, r, http.StatusOK, listingResponse{Success: true, Listing: l})
}

func (a *NewsApp) getTrending(w http.ResponseWriter, r *http.Request) {
	page, pageSize := pageParams(r)
	l, err := a.news.Trending(r.Context(), page, pageSize)
	if err != nil {
		newsError(w, r, err, "Failed to fetch trending news")
		return
	}
	writeJSON(w, r, http.StatusOK, listingResponse{Success: true, Listing: l})
}

type articleContentRequest struct {
	URL string `json:"url"`
}

// getArticleContent answers 200 even when extraction failed: the result
// itself carries success=false and a user-facing message.
func (a *NewsApp) getArticleContent(w http.ResponseWriter, r *http.Request) {
	var req articleContentRequest
	if !decodeBody(w, r, &req) {
		return
	}
	req.URL = strings.TrimSpace(req.URL)
	if req.URL == "" {
		writeError(w, r, http.StatusBadRequest, "URL is required")
		return
	}
	if _, err := urlutil.ParseHTTPURL(req.URL); err != nil {
		writeError(w, r, http.StatusBadRequest, "Invalid URL")
		return
	}

	writeJSON(w, r, http.StatusOK, a.extractor.ExtractArticleContent(r.Context(), req.URL))
}

func (a *NewsApp) getMyNews(w http.ResponseWriter, r *http.Request, user string) {
	prefs, err := a.store.Preferences(r.Context(), user)
	if err != nil {
		storeError(w, r, err, "Error fetching preferences")
		return
	}

	page, pageSize := pageParams(r)
	l, err := a.news.Personalized(r.Context(), prefs.Topics, page, pageSize)
	if err != nil {
		newsError(w, r, err, "Error fetching personalized news")
		return
	}
	writeJSON(w, r, http.StatusOK, listingResponse{Success: true, Listing: l})
}

func (a *NewsApp) getPreferences(w http.ResponseWriter, r *http.Request, user string) {
	prefs, err := a.store.Preferences(r.Context(), user)
	if err != nil {
		storeError(w, r, err, "Error fetching preferences")
		return
	}
	writeJSON(w, r, http.StatusOK, map[string]any{
		"success":     true,
		"preferences": prefs,
	})
}

type preferencesRequest struct {
	Topics []string `json:"topics"`
}

func (a *NewsApp) updatePreferences(w http.ResponseWriter, r *http.Request, user string) {
	var req preferencesRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if len(req.Topics) == 0 {
		writeError(w, r, http.StatusBadRequest, "Topics must be a non-empty array")
		return
	}
	if invalid := news.InvalidTopics(req.Topics); len(invalid) > 0 {
		writeError(w, r, http.StatusBadRequest, "Invalid topics: "+strings.Join(invalid, ", "))
		return
	}

	prefs, err := a.store.SavePreferences(r.Context(), user, req.Topics)
	if err != nil {
		storeError(w, r, err, "Error updating preferences")
		return
	}
	writeJSON(w, r, http.StatusOK, map[string]any{
		"success":     true,
		"message":     "Preferences updated successfully",
		"preferences": prefs,
	})
}

type saveArticleRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	URL         string `json:"url"`
	URLToImage  string `json:"urlToImage"`
	PublishedAt string `json:"publishedAt"`
	Source      string `json:"source"`
	Category    string `json:"category"`
}

func (a *NewsApp) saveArticle(w http.ResponseWriter, r *http.Request, user string) {
	var req saveArticleRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Title) == "" || strings.TrimSpace(req.URL) == "" {
		writeError(w, r, http.StatusBadRequest, "Title and URL are required")
		return
	}
	if _, err := urlutil.ParseHTTPURL(req.URL); err != nil {
		writeError(w, r, http.StatusBadRequest, "Invalid URL")
		return
	}

	article := &models.SavedArticle{
		User:        user,
		Title:       strings.TrimSpace(req.Title),
		Description: req.Description,
		URL:         strings.TrimSpace(req.URL),
		URLToImage:  req.URLToImage,
		Source:      req.Source,
		Category:    req.Category,
	}
	if req.PublishedAt != "" {
		t, err := time.Parse(time.RFC3339, req.PublishedAt)
		if err != nil {
			writeError(w, r, http.StatusBadRequest, "publishedAt must be an RFC 3339 timestamp")
			return
		}
		article.PublishedAt = &t
	}

	if err := a.store.SaveArticle(r.Context(), article); err != nil {
		storeError(w, r, err, "Error saving article")
		return
	}
	writeJSON(w, r, http.StatusCreated, map[string]any{
		"success": true,
		"article": article,
	})
}

func (a *NewsApp) getSavedArticles(w http.ResponseWriter, r *http.Request, user string) {
	articles, err := a.store.SavedArticles(r.Context(), user)
	if err != nil {
		storeError(w, r, err, "Error fetching saved articles")
		return
	}
	writeJSON(w, r, http.StatusOK, map[string]any{
		"success":  true,
		"count":    len(articles),
		"articles": articles,
	})
}

func (a *NewsApp) deleteSavedArticle(w http.ResponseWriter, r *http.Request, user string) {
	if err := a.store.DeleteSavedArticle(r.Context(), user, r.PathValue("id")); err != nil {
		storeError(w, r, err, "Error removing saved article")
		return
	}
	writeJSON(w, r, http.StatusOK, map[string]any{
		"success": true,
		"message": "Article removed",
	})
}

func (a *NewsApp) healthz(w http.ResponseWriter, r *http.Request) {
	if err := a.store.Ping(r.Context()); err != nil {
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("store ping failed")
		writeJSON(w, r, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	writeJSON(w, r, http.StatusOK, map[string]string{"status": "ok"})
}

type userHandler func(w http.ResponseWriter, r *http.Request, user string)

func (a *NewsApp) requireUser(next userHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := strings.TrimSpace(r.Header.Get(UserHeader))
		if user == "" {
			writeError(w, r, http.StatusUnauthorized, "Not authorized")
			return
		}
		next(w, r, user)
	}
}

func pageParams(r *http.Request) (int, int) {
	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	pageSize, _ := strconv.Atoi(q.Get("pageSize"))
	return page, pageSize
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	defer r.Body.Close()
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBody)).Decode(v); err != nil {
		writeError(w, r, http.StatusBadRequest, "Invalid JSON format: "+err.Error())
		return false
	}
	return true
}

func newsError(w http.ResponseWriter, r *http.Request, err error, message string) {
	zerolog.Ctx(r.Context()).Error().Err(err).Msg("news API request failed")
	writeError(w, r, http.StatusBadGateway, message)
}

func storeError(w http.ResponseWriter, r *http.Request, err error, message string) {
	switch {
	case errors.Is(err, db.ErrAlreadySaved):
		writeError(w, r, http.StatusBadRequest, "Article already saved")
	case errors.Is(err, db.ErrNotFound):
		writeError(w, r, http.StatusNotFound, "Article not found")
	case errors.Is(err, db.ErrForbidden):
		writeError(w, r, http.StatusForbidden, "Not authorized")
	default:
		zerolog.Ctx(r.Context()).Error().Err(err).Msg(message)
		writeError(w, r, http.StatusInternalServerError, message)
	}
}

type errorResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

func writeError(w http.ResponseWriter, r *http.Request, statusCode int, message string) {
	writeJSON(w, r, statusCode, errorResponse{Success: false, Message: message})
}

func writeJSON(w http.ResponseWriter, r *http.Request, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("encode response failed")
	}
}

// statusRecorder captures status and bytes written.
type statusRecorder struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (rw *statusRecorder) WriteHeader(code int) {
	rw.status = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *statusRecorder) Write(b []byte) (int, error) {
	if rw.status == 0 {
		rw.status = http.StatusOK
	}
	n, err := rw.ResponseWriter.Write(b)
	rw.bytes += n
	return n, err
}

func requestLoggerMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		reqID := r.Header.Get("X-Request-ID")
		if reqID == "" {
			reqID = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", reqID)

		logger := log.With().
			Str("request_id", reqID).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Logger()
		r = r.WithContext(logger.WithContext(r.Context()))

		rec := &statusRecorder{ResponseWriter: w}
		next.ServeHTTP(rec, r)

		event := logger.Info()
		if rec.status >= 500 {
			event = logger.Error()
		} else if rec.status >= 400 {
			event = logger.Warn()
		}
		event.Int("status", rec.status).
			Dur("took", time.Since(start)).
			Int("bytes", rec.bytes).
			Msg("request")
	})
}

func recoveryMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if v := recover(); v != nil {
				log.Error().Interface("panic", v).Str("path", r.URL.Path).Msg("panic recovered")
				http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			}
		}()
		next.ServeHTTP(w, r)
	})
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		if r.Method == http.MethodOptions {
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, "+UserHeader)
			w.Header().Set("Access-Control-Max-Age", "3600")
			w.WriteHeader(http.StatusNoContent)
			return
		}
		w.Header().Add("Vary", "Origin")
		next.ServeHTTP(w, r)
	})
}
