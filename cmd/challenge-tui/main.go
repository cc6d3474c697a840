package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/noah-isme/gema-daily-challenge/internal/challenge"
	"github.com/noah-isme/gema-daily-challenge/internal/middleware"
	"github.com/noah-isme/gema-daily-challenge/internal/tui"
	"github.com/noah-isme/gema-daily-challenge/internal/upstream"
)

func main() {
	_ = godotenv.Load()

	baseURLFlag := flag.String("backend", os.Getenv("GEMA_UPSTREAM_BASE_URL"), "Daily challenge backend base URL")
	tokenFlag := flag.String("token", os.Getenv("GEMA_TOKEN"), "Bearer token of the student")
	classFlag := flag.Int64("class", 0, "Class id to browse")
	pageSizeFlag := flag.Int("page-size", challenge.DefaultPageSize, "Rows per page")
	timeoutFlag := flag.Duration("timeout", 10*time.Second, "Backend request timeout")
	logFlag := flag.String("log", "", "Write debug logs to this file")
	flag.Parse()

	if *baseURLFlag == "" {
		log.Fatal("backend url is required (--backend or GEMA_UPSTREAM_BASE_URL)")
	}
	if *classFlag <= 0 {
		log.Fatal("--class must be a positive class id")
	}

	// The terminal belongs to the UI, so logs only go to an explicit file.
	logger := zerolog.Nop()
	if *logFlag != "" {
		file, err := os.OpenFile(*logFlag, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			log.Fatalf("open log file: %v", err)
		}
		defer file.Close()
		logger = zerolog.New(file).With().Timestamp().Logger()
	}

	client := upstream.New(upstream.Config{BaseURL: *baseURLFlag, Timeout: *timeoutFlag}, logger)
	classID, token := *classFlag, *tokenFlag

	model := tui.NewModel(tui.ModelConfig{
		Title:    fmt.Sprintf("Daily challenges · class %d", classID),
		PageSize: *pageSizeFlag,
		Timeout:  *timeoutFlag,
		Load: func(ctx context.Context) ([]challenge.Lesson, error) {
			return client.ListClassChallenges(middleware.ContextWithBearerToken(ctx, token), classID, upstream.ListQuery{})
		},
	})

	if _, err := tea.NewProgram(model, tea.WithAltScreen()).Run(); err != nil {
		log.Fatal(err)
	}
}
