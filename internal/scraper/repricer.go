package scraper

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/maltedev/cardmarket-repricer/internal/browser"
	"github.com/maltedev/cardmarket-repricer/internal/config"
	"github.com/maltedev/cardmarket-repricer/internal/models"
	"github.com/maltedev/cardmarket-repricer/internal/parser"
	"github.com/maltedev/cardmarket-repricer/internal/pricing"
	"github.com/maltedev/cardmarket-repricer/internal/ratelimit"
)

type Summary struct {
	Pages   int
	Updated int
	Skipped int
}

// Repricer runs the whole job on one listing page, opening a separate tab per
// article for its detail page. Articles are handled one at a time in listing
// order.
type Repricer struct {
	session   *Session
	paginator *Paginator
	fetcher   *DetailFetcher
	adjuster  *pricing.Adjuster
	committer *Committer
	pacer     ratelimit.RateLimiter
	logger    *slog.Logger
}

// New wires the pipeline. page is the tab used for login, the listing and the
// edit forms; opener supplies the per-article detail tabs.
func New(page browser.Page, opener browser.Opener, cfg *config.Config, logger *slog.Logger) *Repricer {
	challenge := NewChallengeHandler(cfg.Scraper.ChallengeProbe, cfg.Scraper.ChallengeTimeout, logger)

	return &Repricer{
		session:   NewSession(page, cfg.Market.LoginURL, cfg.Account, logger),
		paginator: NewPaginator(page, cfg.Market.ListingURL, cfg.Market.BaseURL, logger),
		fetcher: NewDetailFetcher(
			opener,
			challenge,
			parser.NewCardmarketParser(),
			cfg.Scraper.MaxAttempts,
			cfg.Scraper.RetryDelay,
			logger,
		),
		adjuster:  pricing.NewAdjuster(cfg.Pricing.MarkupPercent),
		committer: NewCommitter(page, cfg.Scraper.DryRun, logger),
		pacer:     ratelimit.NewIntervalLimiter(cfg.Scraper.ItemDelay),
		logger:    logger.With("component", "repricer"),
	}
}

// Run logs in and reprices every article until the listing is exhausted.
// Login and listing failures end the run; per-article failures are logged
// and skipped.
func (r *Repricer) Run(ctx context.Context) (Summary, error) {
	var summary Summary

	if err := r.session.Login(ctx); err != nil {
		return summary, fmt.Errorf("failed to log in: %w", err)
	}

	r.logger.Info("starting repricing",
		"markup_percent", r.adjuster.Percent().String(), "item_delay", r.pacer.Delay())

	for {
		inv, err := r.paginator.Next(ctx)
		if errors.Is(err, ErrEndOfListing) {
			break
		}
		if err != nil {
			return summary, err
		}
		summary.Pages++

		for _, row := range inv.Rows {
			if err := r.pacer.Wait(ctx); err != nil {
				return summary, err
			}

			// A commit that returned nil was submitted even if ctx ended meanwhile.
			err := r.processRow(ctx, row)
			if err == nil {
				summary.Updated++
			}
			if ctxErr := ctx.Err(); ctxErr != nil {
				return summary, ctxErr
			}
			if err != nil {
				summary.Skipped++
				r.logger.Warn("skipping article",
					"page", inv.Index, "position", row.Position, "row", row.ID, "reason", err)
			}
		}
	}

	r.logger.Info("ended updating cards",
		"updated", summary.Updated, "skipped", summary.Skipped, "pages", summary.Pages)

	return summary, nil
}

func (r *Repricer) processRow(ctx context.Context, row *models.ItemRow) error {
	if row.DetailURL == "" {
		return ErrMissingDetailLink
	}

	trend, err := r.fetcher.Fetch(ctx, row)
	if err != nil {
		return err
	}

	price, err := r.adjuster.Quote(trend)
	if err != nil {
		return err
	}

	r.logger.Info("computed price",
		"row", row.ID, "foil", row.Foil, "trend", trend, "price", price.Display())

	return r.committer.Commit(ctx, row, price)
}
