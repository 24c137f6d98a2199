package scraper

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/maltedev/cardmarket-repricer/internal/browser"
	"github.com/maltedev/cardmarket-repricer/internal/models"
	"github.com/maltedev/cardmarket-repricer/internal/pricing"
)

// Committer writes a price through the article row's inline edit form on the
// listing page. Whether the marketplace accepted the value is not checked.
type Committer struct {
	page   browser.Page
	dryRun bool
	logger *slog.Logger
}

func NewCommitter(page browser.Page, dryRun bool, logger *slog.Logger) *Committer {
	return &Committer{
		page:   page,
		dryRun: dryRun,
		logger: logger.With("component", "committer"),
	}
}

func (c *Committer) Commit(ctx context.Context, row *models.ItemRow, price pricing.Price) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if row.Handle == nil {
		return ErrEditControlNotFound
	}

	edit, err := row.Handle.Query(editButtonSelector)
	if err != nil {
		return fmt.Errorf("failed to look up edit control: %w", err)
	}
	if edit == nil {
		return ErrEditControlNotFound
	}

	if c.dryRun {
		c.logger.Info("dry run, not submitting price", "row", row.ID, "price", price.FormValue())
		return nil
	}

	if err := edit.Click(); err != nil {
		return fmt.Errorf("failed to open edit form: %w", err)
	}

	if err := c.page.WaitForSelector(priceInputSelector, browser.WaitOptions{State: browser.StateVisible}); err != nil {
		return fmt.Errorf("price input did not appear: %w", err)
	}

	if err := c.page.Fill(priceInputSelector, price.FormValue()); err != nil {
		return fmt.Errorf("failed to fill price: %w", err)
	}

	if err := c.page.Click(editSubmitSelector); err != nil {
		return fmt.Errorf("failed to submit edit form: %w", err)
	}

	c.logger.Debug("price submitted", "row", row.ID, "price", price.FormValue())
	return nil
}
