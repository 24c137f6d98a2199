package scraper

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/maltedev/cardmarket-repricer/internal/browser"
	"github.com/maltedev/cardmarket-repricer/internal/config"
)

// Session logs the shared browser context in. Every page opened afterwards
// reuses its cookies.
type Session struct {
	page     browser.Page
	loginURL string
	account  config.AccountConfig
	logger   *slog.Logger
}

func NewSession(page browser.Page, loginURL string, account config.AccountConfig, logger *slog.Logger) *Session {
	return &Session{
		page:     page,
		loginURL: loginURL,
		account:  account,
		logger:   logger.With("component", "session"),
	}
}

// Login is not retried; a failure here means the run cannot continue.
func (s *Session) Login(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.logger.Info("opening login page", "url", s.loginURL)
	if err := s.page.Goto(s.loginURL); err != nil {
		return fmt.Errorf("failed to navigate to login page: %w", err)
	}

	if err := s.page.Fill(usernameSelector, s.account.Email); err != nil {
		return fmt.Errorf("failed to fill username: %w", err)
	}
	if err := s.page.Fill(passwordSelector, s.account.Password); err != nil {
		return fmt.Errorf("failed to fill password: %w", err)
	}

	if err := s.page.ClickAndWaitForNavigation(loginSubmit); err != nil {
		return fmt.Errorf("failed to submit login form: %w", err)
	}

	s.logger.Info("logged in", "url", s.page.URL())
	return nil
}
