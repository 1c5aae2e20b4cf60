// Package sync implements the catalog reconciliation pipeline: staged
// import rows are resolved to canonical brands, priced through the
// wholesale engine, upserted into the live catalog and removed from
// staging, with per-record retries and brand rollup statistics at the
// end of each run.
package sync

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync/atomic"
	"time"

	"catalog-service/internal/catalog"
	"catalog-service/internal/model"
	"catalog-service/internal/pricing"
	"catalog-service/internal/store"
	"catalog-service/internal/webhook"
	"catalog-service/pkg/config"
	"catalog-service/prometheus"

	"go.uber.org/zap"
)

// ErrRunInProgress is returned when a run is triggered while another one
// is still active. The trigger is a no-op, not queued.
var ErrRunInProgress = errors.New("sync: a reconciliation run is already in progress")

// Notifier delivers the final run status to an external system.
type Notifier interface {
	Notify(ctx context.Context, status webhook.Status) error
}

// fallbackMOQ is stored on newly created rows when the engine cannot
// derive a minimum order quantity.
const fallbackMOQ = 100

// runStats accumulates counters over one reconciliation run.
type runStats struct {
	processed int
	created   int
	updated   int
	deleted   int
	errors    int
	startTime time.Time
}

// Processor runs the reconciliation pipeline. A single Processor is
// shared between the scheduler and the manual admin trigger; the
// running flag keeps runs mutually exclusive.
type Processor struct {
	store    store.Store
	cfg      config.SyncConfig
	opts     pricing.Options
	notifier Notifier
	log      *zap.Logger

	running atomic.Bool
	stats   runStats
}

// NewProcessor creates a reconciliation processor
func NewProcessor(st store.Store, cfg config.SyncConfig, opts pricing.Options, notifier Notifier, log *zap.Logger) *Processor {
	return &Processor{
		store:    st,
		cfg:      cfg,
		opts:     opts,
		notifier: notifier,
		log:      log,
	}
}

// Run executes one full reconciliation pass. Returns ErrRunInProgress
// when another run holds the guard.
func (p *Processor) Run(ctx context.Context) error {
	if !p.running.CompareAndSwap(false, true) {
		p.log.Info("Previous import run is still active, skipping trigger")
		return ErrRunInProgress
	}
	defer p.running.Store(false)

	p.stats = runStats{startTime: time.Now()}
	status := webhook.StatusComplete

	p.log.Info("Starting catalog import run")

	runErr := p.processAll(ctx)
	if runErr != nil {
		status = webhook.StatusError
		p.stats.errors++
		p.log.Error("Catalog import run failed", zap.Error(runErr))
	} else {
		// Rollups run only after a pass over every batch.
		p.updateBrandStatistics()
	}

	duration := time.Since(p.stats.startTime)
	p.logStats(duration)
	prometheus.RecordSyncRun(string(status), duration)

	// Completion notification is fire-and-forget; a dead endpoint must
	// never fail the run.
	if err := p.notifier.Notify(ctx, status); err != nil {
		prometheus.RecordWebhookError()
		p.log.Warn("Failed to send status webhook", zap.Error(err))
	}

	return runErr
}

// Running reports whether a run currently holds the guard.
func (p *Processor) Running() bool {
	return p.running.Load()
}

// processAll walks the staging table in ascending id order. Rows that
// fail stay in place and the cursor moves past them, so one bad record
// never stalls or aborts the run.
func (p *Processor) processAll(ctx context.Context) error {
	total, err := p.store.CountImports()
	if err != nil {
		return fmt.Errorf("count staging rows: %w", err)
	}
	p.log.Info("Staging rows to process", zap.Int64("total", total))
	if total == 0 {
		return nil
	}

	var afterID uint
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		batch, err := p.store.ListImportBatch(afterID, p.cfg.BatchSize)
		if err != nil {
			return fmt.Errorf("fetch staging batch after id %d: %w", afterID, err)
		}
		if len(batch) == 0 {
			return nil
		}

		for _, record := range batch {
			if err := ctx.Err(); err != nil {
				return err
			}
			p.processRecord(ctx, record)
		}
		afterID = batch[len(batch)-1].ID
	}
}

// processRecord applies one staging row with bounded retries and a
// fixed delay between attempts. Validation failures skip immediately:
// retrying cannot fix a malformed record.
func (p *Processor) processRecord(ctx context.Context, record model.CatalogImport) {
	if err := validateRecord(record); err != nil {
		p.stats.errors++
		prometheus.RecordSyncRecord("invalid")
		p.log.Warn("Skipping malformed staging row",
			zap.Uint("import_id", record.ID),
			zap.Error(err))
		return
	}

	for attempt := 1; attempt <= p.cfg.MaxRetries; attempt++ {
		err := p.applyRecord(record)
		if err == nil {
			p.stats.processed++
			return
		}

		p.log.Error("Error processing staging row",
			zap.Uint("import_id", record.ID),
			zap.String("asin", record.ASIN),
			zap.Int("attempt", attempt),
			zap.Error(err))

		if attempt < p.cfg.MaxRetries {
			prometheus.RecordSyncRetry()
			if sleepErr := sleepCtx(ctx, p.cfg.RetryDelay); sleepErr != nil {
				break
			}
		}
	}

	// Retries exhausted: the staging row stays for the next run.
	p.stats.errors++
	prometheus.RecordSyncRecord("failed")
}

func validateRecord(record model.CatalogImport) error {
	if record.ASIN == "" {
		return errors.New("missing asin")
	}
	if _, err := strconv.ParseFloat(record.BuyingPrice, 64); err != nil {
		return fmt.Errorf("invalid buying price %q", record.BuyingPrice)
	}
	if _, err := strconv.ParseFloat(record.BuyboxPrice, 64); err != nil {
		return fmt.Errorf("invalid buybox price %q", record.BuyboxPrice)
	}
	if _, err := strconv.ParseFloat(record.AmazonFee, 64); err != nil {
		return fmt.Errorf("invalid amazon fee %q", record.AmazonFee)
	}
	return nil
}

// applyRecord performs one upsert-and-consume attempt. The upsert is
// idempotent by asin, so a crash between upsert and staging delete only
// causes a harmless re-update on the next run.
func (p *Processor) applyRecord(record model.CatalogImport) error {
	existing, err := p.store.FindCatalogByASIN(record.ASIN)
	if err != nil {
		return fmt.Errorf("lookup catalog by asin %s: %w", record.ASIN, err)
	}

	if existing != nil {
		if err := p.updateExisting(existing, record); err != nil {
			return err
		}
		p.stats.updated++
		prometheus.RecordSyncRecord("updated")
	} else {
		if err := p.createNew(record); err != nil {
			return err
		}
		p.stats.created++
		prometheus.RecordSyncRecord("created")
	}

	if err := p.store.DeleteImport(record.ID); err != nil {
		return fmt.Errorf("delete staging row %d: %w", record.ID, err)
	}
	p.stats.deleted++
	return nil
}

// updateExisting refreshes a live catalog row from a staging row. Brand
// and brand_id are fixed at creation and never changed here. When the
// row carries a forced selling price, the price is left untouched and
// only profit/margin/roi are recomputed around it; moq and profitable
// deliberately carry over unchanged.
func (p *Processor) updateExisting(existing *model.Catalog, record model.CatalogImport) error {
	buyboxPrice, _ := strconv.ParseFloat(record.BuyboxPrice, 64)
	amazonFee, _ := strconv.ParseFloat(record.AmazonFee, 64)

	var (
		sellingPrice string
		moq          int
		profitable   bool
		profit       string
		margin       string
		roi          *float64
	)

	if existing.ForcedSellingPrice && existing.SellingPrice != "" {
		pinned, err := strconv.ParseFloat(existing.SellingPrice, 64)
		if err != nil {
			return fmt.Errorf("forced selling price %q on asin %s is not numeric", existing.SellingPrice, existing.ASIN)
		}
		result := pricing.CalcSellingPrice(pinned, buyboxPrice, amazonFee)

		sellingPrice = existing.SellingPrice
		moq = existing.MOQ
		profitable = existing.Profitable
		profit = result.Profit
		margin = result.Margin
		roi = catalog.ParseROI(result.ROI)
	} else {
		buyingPrice, _ := strconv.ParseFloat(record.BuyingPrice, 64)
		result := pricing.CalcWholesalePrice(buyingPrice, buyboxPrice, amazonFee, p.opts)

		sellingPrice = catalog.FormatPrice(result.SellingPrice)
		moq = record.MOQ
		if result.MOQ != nil {
			moq = *result.MOQ
		}
		profitable = result.Profitable
		profit = result.Profit
		margin = result.Margin
		roi = catalog.ParseROI(result.ROI)
	}

	fields := map[string]interface{}{
		"name":           record.Name,
		"buying_price":   record.BuyingPrice,
		"selling_price":  sellingPrice,
		"sku":            record.SKU,
		"upc":            record.UPC,
		"moq":            moq,
		"buybox_price":   catalog.FormatPrice(buyboxPrice),
		"amazon_fee":     record.AmazonFee,
		"profit":         profit,
		"margin":         margin,
		"roi":            roi,
		"selling_status": record.SellingStatus,
		"supplier":       record.Supplier,
		"image_url":      record.ImageURL,
		"wfs_id":         record.WFSID,
		"walmart_buybox": record.WalmartBuybox,
		"walmart_fees":   record.WalmartFees,
		"walmart_profit": record.WalmartProfit,
		"walmart_margin": record.WalmartMargin,
		"walmart_roi":    record.WalmartROI,
		"profitable":     profitable,
	}

	if _, err := p.store.UpdateCatalogByASIN(existing.ASIN, fields); err != nil {
		return fmt.Errorf("update catalog asin %s: %w", existing.ASIN, err)
	}
	return nil
}

// createNew resolves the brand and creates a live catalog row from a
// staging row.
func (p *Processor) createNew(record model.CatalogImport) error {
	resolution, err := p.resolveBrand(record.Brand)
	if err != nil {
		return fmt.Errorf("resolve brand %q: %w", record.Brand, err)
	}

	buyingPrice, _ := strconv.ParseFloat(record.BuyingPrice, 64)
	buyboxPrice, _ := strconv.ParseFloat(record.BuyboxPrice, 64)
	amazonFee, _ := strconv.ParseFloat(record.AmazonFee, 64)
	result := pricing.CalcWholesalePrice(buyingPrice, buyboxPrice, amazonFee, p.opts)

	brandName := resolution.name
	if brandName == "" {
		brandName = record.Brand
	}

	moq := fallbackMOQ
	if result.MOQ != nil {
		moq = *result.MOQ
	}

	row := &model.Catalog{
		ASIN:          record.ASIN,
		Name:          record.Name,
		Brand:         brandName,
		BrandID:       resolution.effectiveID(),
		BuyingPrice:   record.BuyingPrice,
		SellingPrice:  catalog.FormatPrice(result.SellingPrice),
		SKU:           record.SKU,
		UPC:           record.UPC,
		MOQ:           moq,
		BuyboxPrice:   catalog.FormatPrice(result.BuyboxPrice),
		AmazonFee:     record.AmazonFee,
		Profit:        result.Profit,
		Margin:        result.Margin,
		ROI:           catalog.ParseROI(result.ROI),
		SellingStatus: record.SellingStatus,
		Supplier:      record.Supplier,
		ImageURL:      record.ImageURL,
		WFSID:         record.WFSID,
		WalmartBuybox: record.WalmartBuybox,
		WalmartFees:   record.WalmartFees,
		WalmartProfit: record.WalmartProfit,
		WalmartMargin: record.WalmartMargin,
		WalmartROI:    record.WalmartROI,
		Profitable:    result.Profitable,
	}

	if err := p.store.CreateCatalog(row); err != nil {
		return fmt.Errorf("create catalog asin %s: %w", record.ASIN, err)
	}
	return nil
}

// updateBrandStatistics recomputes the per-brand rollup counters from
// the live catalog via grouped aggregation. Failures are logged only;
// stale counters are corrected by the next run.
func (p *Processor) updateBrandStatistics() {
	p.log.Info("Updating brand statistics")

	counts, err := p.store.BrandCatalogCounts(false)
	if err != nil {
		p.log.Error("Failed to aggregate catalog counts per brand", zap.Error(err))
		return
	}
	for _, stat := range counts {
		if err := p.store.UpdateBrand(stat.BrandID, map[string]interface{}{
			"all_catalog_count": stat.Count,
		}); err != nil {
			p.log.Error("Failed to update brand catalog count",
				zap.Uint("brand_id", stat.BrandID),
				zap.Error(err))
		}
	}

	profitableCounts, err := p.store.BrandCatalogCounts(true)
	if err != nil {
		p.log.Error("Failed to aggregate profitable counts per brand", zap.Error(err))
		return
	}
	for _, stat := range profitableCounts {
		if err := p.store.UpdateBrand(stat.BrandID, map[string]interface{}{
			"profitable_and_selling": stat.Count,
		}); err != nil {
			p.log.Error("Failed to update brand profitable count",
				zap.Uint("brand_id", stat.BrandID),
				zap.Error(err))
		}
	}

	p.log.Info("Brand statistics updated", zap.Int("brands", len(counts)))
}

func (p *Processor) logStats(duration time.Duration) {
	p.log.Info("Import run statistics",
		zap.Int("processed", p.stats.processed),
		zap.Int("created", p.stats.created),
		zap.Int("updated", p.stats.updated),
		zap.Int("deleted_from_staging", p.stats.deleted),
		zap.Int("errors", p.stats.errors),
		zap.Duration("duration", duration))
}

// sleepCtx waits for d or until the context is cancelled.
func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
