package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/alexedwards/scs/v2"
	"github.com/joho/godotenv"

	"github.com/mcalder/venturelens/internal/comments"
	"github.com/mcalder/venturelens/internal/docstore"
	"github.com/mcalder/venturelens/internal/finalreport"
	"github.com/mcalder/venturelens/internal/httpapi"
	"github.com/mcalder/venturelens/internal/ideascout"
	"github.com/mcalder/venturelens/internal/llm"
	"github.com/mcalder/venturelens/internal/tracing"
	"github.com/mcalder/venturelens/internal/validation"
	"github.com/mcalder/venturelens/internal/websearch"
	"github.com/mcalder/venturelens/internal/webscrape"
)

func main() {
	addr := flag.String("addr", ":5000", "HTTP listen address")
	dbPath := flag.String("db", "venturelens.db", "SQLite database path")
	flag.Parse()

	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("web dotenv_skipped err=%q", err.Error())
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	shutdownTracing, err := tracing.Setup(ctx, "venturelens-web")
	if err != nil {
		log.Fatal(err)
	}

	store, err := docstore.NewSQLiteStore(*dbPath)
	if err != nil {
		log.Fatal(err)
	}
	defer store.Close()

	generator, err := llm.NewFromEnv(ctx)
	if err != nil {
		log.Fatal(err)
	}
	exec := llm.NewExecutor(generator)

	searcher, err := websearch.NewClient(websearch.Config{APIKey: requiredEnv("SERPER_API_KEY")})
	if err != nil {
		log.Fatal(err)
	}

	verifier, err := httpapi.NewGoogleVerifier(requiredEnv("GOOGLE_CLIENT_ID"), "", nil)
	if err != nil {
		log.Fatal(err)
	}

	sessions := scs.New()
	sessions.Lifetime = 24 * time.Hour
	sessions.Cookie.HttpOnly = true
	sessions.Cookie.SameSite = http.SameSiteLaxMode

	handler := httpapi.NewServer(httpapi.Config{
		Sessions:  sessions,
		Verifier:  verifier,
		Store:     store,
		Validator: validation.NewPipeline(exec, searcher, newScraper()),
		Fetcher:   newCommentClient(),
		Analyzer:  comments.NewAnalyzer(exec),
		Finals:    finalreport.NewGenerator(exec, store),
		Scout:     ideascout.NewScout(exec, ideascout.NewRedditDirectory("", nil)),
	})

	server := &http.Server{
		Addr:              *addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Printf("web shutdown_failed err=%q", err.Error())
		}
		if err := shutdownTracing(shutdownCtx); err != nil {
			log.Printf("web tracing_shutdown_failed err=%q", err.Error())
		}
	}()

	log.Printf("web listening addr=%q model=%q db=%q", *addr, generator.ModelName(), *dbPath)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal(err)
	}
}

// newScraper prefers the hosted Firecrawl API and falls back to a local
// headless Chromium when no API key is configured.
func newScraper() webscrape.Scraper {
	if key := strings.TrimSpace(os.Getenv("FIRECRAWL_API_KEY")); key != "" {
		scraper, err := webscrape.NewFirecrawlScraper(webscrape.FirecrawlConfig{APIKey: key})
		if err == nil {
			return scraper
		}
		log.Printf("web firecrawl_unavailable err=%q", err.Error())
	}
	log.Printf("web scraper_fallback using=%q", "chromium")
	return webscrape.NewChromiumScraper()
}

// newCommentClient wires whichever platform fetchers have credentials.
// Reddit needs none; X analysis is disabled without a bearer token.
func newCommentClient() *comments.Client {
	reddit := comments.NewRedditFetcher(nil)
	var twitter comments.Fetcher
	if token := strings.TrimSpace(os.Getenv("TWITTER_BEARER_TOKEN")); token != "" {
		tf, err := comments.NewTwitterFetcher(comments.TwitterConfig{BearerToken: token})
		if err == nil {
			twitter = tf
		} else {
			log.Printf("web twitter_unavailable err=%q", err.Error())
		}
	}
	return comments.NewClient(reddit, twitter)
}

func requiredEnv(key string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		log.Fatalf("missing required env var %s", key)
	}
	return v
}
