package sync

import (
	"context"
	"errors"
	"fmt"
	"sort"
	stdsync "sync"
	"testing"
	"time"

	"catalog-service/internal/model"
	"catalog-service/internal/pricing"
	"catalog-service/internal/store"
	"catalog-service/internal/webhook"
	"catalog-service/pkg/config"

	"go.uber.org/zap"
)

// memStore is an in-memory implementation of the storage port with
// failure injection for retry and race tests.
type memStore struct {
	mu stdsync.Mutex

	catalogs    map[string]*model.Catalog
	brands      map[string]*model.Brand
	imports     map[uint]model.CatalogImport
	nextCatalog uint
	nextBrand   uint

	// failure injection
	updateErrFor   map[string]error // by asin, applied on every attempt
	brandRaceOnce  bool             // first CreateBrand reports a duplicate
	catalogUpdates int
	catalogCreates int
}

func newMemStore() *memStore {
	return &memStore{
		catalogs:     make(map[string]*model.Catalog),
		brands:       make(map[string]*model.Brand),
		imports:      make(map[uint]model.CatalogImport),
		updateErrFor: make(map[string]error),
	}
}

func (m *memStore) addImport(rec model.CatalogImport) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.imports[rec.ID] = rec
}

func (m *memStore) FindCatalogByASIN(asin string) (*model.Catalog, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if c, ok := m.catalogs[asin]; ok {
		cp := *c
		return &cp, nil
	}
	return nil, nil
}

func (m *memStore) CreateCatalog(c *model.Catalog) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.catalogs[c.ASIN]; ok {
		return store.ErrDuplicate
	}
	m.nextCatalog++
	c.ID = m.nextCatalog
	cp := *c
	m.catalogs[c.ASIN] = &cp
	m.catalogCreates++
	return nil
}

func (m *memStore) UpdateCatalogByASIN(asin string, fields map[string]interface{}) (*model.Catalog, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err, ok := m.updateErrFor[asin]; ok {
		return nil, err
	}
	c, ok := m.catalogs[asin]
	if !ok {
		return nil, store.ErrNotFound
	}
	applyCatalogFields(c, fields)
	m.catalogUpdates++
	cp := *c
	return &cp, nil
}

func (m *memStore) UpdateCatalogsByBrand(brand string, fields map[string]interface{}) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, c := range m.catalogs {
		if c.Brand == brand {
			applyCatalogFields(c, fields)
			n++
		}
	}
	return n, nil
}

func (m *memStore) FindBrandByName(name string) (*model.Brand, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if b, ok := m.brands[name]; ok {
		bp := *b
		return &bp, nil
	}
	return nil, nil
}

func (m *memStore) CreateBrand(b *model.Brand) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.brandRaceOnce {
		// Simulate losing the unique-name race: another writer created
		// the brand between lookup and create.
		m.brandRaceOnce = false
		m.nextBrand++
		m.brands[b.Name] = &model.Brand{ID: m.nextBrand, Name: b.Name}
		return store.ErrDuplicate
	}
	if _, ok := m.brands[b.Name]; ok {
		return store.ErrDuplicate
	}
	m.nextBrand++
	b.ID = m.nextBrand
	bp := *b
	m.brands[b.Name] = &bp
	return nil
}

func (m *memStore) UpdateBrand(id uint, fields map[string]interface{}) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, b := range m.brands {
		if b.ID == id {
			if v, ok := fields["all_catalog_count"]; ok {
				b.AllCatalogCount = int(v.(int64))
			}
			if v, ok := fields["profitable_and_selling"]; ok {
				b.ProfitableAndSelling = int(v.(int64))
			}
			if v, ok := fields["merged_to"]; ok {
				b.MergedTo = v.(*uint)
			}
			return nil
		}
	}
	return store.ErrNotFound
}

func (m *memStore) ListImportBatch(afterID uint, limit int) ([]model.CatalogImport, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var ids []uint
	for id := range m.imports {
		if id > afterID {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	if len(ids) > limit {
		ids = ids[:limit]
	}
	batch := make([]model.CatalogImport, 0, len(ids))
	for _, id := range ids {
		batch = append(batch, m.imports[id])
	}
	return batch, nil
}

func (m *memStore) CountImports() (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return int64(len(m.imports)), nil
}

func (m *memStore) DeleteImport(id uint) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.imports, id)
	return nil
}

func (m *memStore) BrandCatalogCounts(profitableAndSelling bool) ([]store.BrandCount, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	byBrand := make(map[uint]int64)
	for _, c := range m.catalogs {
		if c.BrandID == nil {
			continue
		}
		if profitableAndSelling && !(c.Profitable && c.SellingStatus) {
			continue
		}
		byBrand[*c.BrandID]++
	}
	counts := make([]store.BrandCount, 0, len(byBrand))
	for id, n := range byBrand {
		counts = append(counts, store.BrandCount{BrandID: id, Count: n})
	}
	return counts, nil
}

func applyCatalogFields(c *model.Catalog, fields map[string]interface{}) {
	if v, ok := fields["name"]; ok {
		c.Name = v.(string)
	}
	if v, ok := fields["buying_price"]; ok {
		c.BuyingPrice = v.(string)
	}
	if v, ok := fields["selling_price"]; ok {
		c.SellingPrice = v.(string)
	}
	if v, ok := fields["moq"]; ok {
		c.MOQ = v.(int)
	}
	if v, ok := fields["buybox_price"]; ok {
		c.BuyboxPrice = v.(string)
	}
	if v, ok := fields["amazon_fee"]; ok {
		c.AmazonFee = v.(string)
	}
	if v, ok := fields["profit"]; ok {
		c.Profit = v.(string)
	}
	if v, ok := fields["margin"]; ok {
		c.Margin = v.(string)
	}
	if v, ok := fields["roi"]; ok {
		c.ROI = v.(*float64)
	}
	if v, ok := fields["selling_status"]; ok {
		c.SellingStatus = v.(bool)
	}
	if v, ok := fields["profitable"]; ok {
		c.Profitable = v.(bool)
	}
}

// recordingNotifier captures webhook statuses delivered per run.
type recordingNotifier struct {
	mu       stdsync.Mutex
	statuses []webhook.Status
	err      error
}

func (n *recordingNotifier) Notify(_ context.Context, status webhook.Status) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.statuses = append(n.statuses, status)
	return n.err
}

func testConfig() config.SyncConfig {
	return config.SyncConfig{
		BatchSize:  2,
		MaxRetries: 3,
		RetryDelay: time.Millisecond,
	}
}

func newTestProcessor(st store.Store, notifier Notifier) *Processor {
	return NewProcessor(st, testConfig(), pricing.DefaultOptions(), notifier, zap.NewNop())
}

func stagingRow(id uint, asin, brand string) model.CatalogImport {
	return model.CatalogImport{
		ID:            id,
		ASIN:          asin,
		Name:          "Widget " + asin,
		Brand:         brand,
		BuyingPrice:   "10",
		BuyboxPrice:   "30",
		AmazonFee:     "5",
		SellingStatus: true,
	}
}

func TestRunCreatesCatalogRowAndConsumesStaging(t *testing.T) {
	st := newMemStore()
	st.addImport(stagingRow(1, "B000TEST01", "Acme"))
	notifier := &recordingNotifier{}
	p := newTestProcessor(st, notifier)

	if err := p.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	row, _ := st.FindCatalogByASIN("B000TEST01")
	if row == nil {
		t.Fatalf("catalog row not created")
	}
	if row.SellingPrice != "14.20" {
		t.Fatalf("selling price: expected 14.20, got %s", row.SellingPrice)
	}
	if !row.Profitable {
		t.Fatalf("expected profitable row")
	}
	if row.MOQ != 60 {
		t.Fatalf("moq: expected 60, got %d", row.MOQ)
	}
	if row.Brand != "Acme" || row.BrandID == nil {
		t.Fatalf("brand not resolved: %+v", row)
	}
	if n, _ := st.CountImports(); n != 0 {
		t.Fatalf("staging row not consumed, %d left", n)
	}
	if len(notifier.statuses) != 1 || notifier.statuses[0] != webhook.StatusComplete {
		t.Fatalf("expected one complete notification, got %v", notifier.statuses)
	}
}

func TestRunUpdatesExistingWithoutTouchingBrand(t *testing.T) {
	st := newMemStore()
	brandID := uint(42)
	st.catalogs["B000TEST02"] = &model.Catalog{
		ID:      1,
		ASIN:    "B000TEST02",
		Brand:   "Original Brand",
		BrandID: &brandID,
	}
	rec := stagingRow(1, "B000TEST02", "Feed Brand")
	st.addImport(rec)
	p := newTestProcessor(st, &recordingNotifier{})

	if err := p.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	row, _ := st.FindCatalogByASIN("B000TEST02")
	if row.Brand != "Original Brand" || row.BrandID == nil || *row.BrandID != 42 {
		t.Fatalf("brand must be immutable on update, got %+v", row)
	}
	if row.SellingPrice != "14.20" {
		t.Fatalf("selling price not recomputed: %s", row.SellingPrice)
	}
	if row.Name != "Widget B000TEST02" {
		t.Fatalf("metadata not refreshed: %s", row.Name)
	}
	// The feed brand must not create a brand row either.
	if b, _ := st.FindBrandByName("Feed Brand"); b != nil {
		t.Fatalf("update path must not resolve brands")
	}
}

func TestRunForcedSellingPricePinsPrice(t *testing.T) {
	st := newMemStore()
	st.catalogs["B000TEST03"] = &model.Catalog{
		ID:                 1,
		ASIN:               "B000TEST03",
		SellingPrice:       "19.99",
		ForcedSellingPrice: true,
		MOQ:                7,
		Profitable:         true,
	}
	st.addImport(stagingRow(1, "B000TEST03", "Acme"))
	p := newTestProcessor(st, &recordingNotifier{})

	if err := p.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	row, _ := st.FindCatalogByASIN("B000TEST03")
	if row.SellingPrice != "19.99" {
		t.Fatalf("forced selling price was overwritten: %s", row.SellingPrice)
	}
	// moq and profitable carry over unchanged in forced mode.
	if row.MOQ != 7 || !row.Profitable {
		t.Fatalf("forced mode must carry moq/profitable: %+v", row)
	}
	// profit = 30 - 5 - 19.99 around the pinned price.
	if row.Profit != "5.01" {
		t.Fatalf("profit: expected 5.01, got %s", row.Profit)
	}
}

func TestRunResolvesMergedBrandAlias(t *testing.T) {
	st := newMemStore()
	target := &model.Brand{ID: 1, Name: "Target Brand"}
	st.brands[target.Name] = target
	st.nextBrand = 2
	alias := &model.Brand{ID: 2, Name: "Alias Brand", MergedTo: &target.ID}
	st.brands[alias.Name] = alias
	st.addImport(stagingRow(1, "B000TEST04", "Alias Brand"))
	p := newTestProcessor(st, &recordingNotifier{})

	if err := p.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	row, _ := st.FindCatalogByASIN("B000TEST04")
	if row.BrandID == nil || *row.BrandID != 1 {
		t.Fatalf("expected merge target id 1, got %v", row.BrandID)
	}
	// Display name stays the looked-up brand's own name.
	if row.Brand != "Alias Brand" {
		t.Fatalf("expected alias display name, got %s", row.Brand)
	}
}

func TestRunSurvivesBrandCreationRace(t *testing.T) {
	st := newMemStore()
	st.brandRaceOnce = true
	st.addImport(stagingRow(1, "B000TEST05", "Fresh Brand"))
	p := newTestProcessor(st, &recordingNotifier{})

	if err := p.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	row, _ := st.FindCatalogByASIN("B000TEST05")
	if row == nil || row.BrandID == nil {
		t.Fatalf("record not applied after brand race: %+v", row)
	}
	brand, _ := st.FindBrandByName("Fresh Brand")
	if brand == nil || *row.BrandID != brand.ID {
		t.Fatalf("catalog row not linked to the surviving brand")
	}
}

func TestRunSkipsMalformedRecordWithoutRetry(t *testing.T) {
	st := newMemStore()
	bad := stagingRow(1, "", "Acme") // missing asin
	st.addImport(bad)
	st.addImport(stagingRow(2, "B000TEST06", "Acme"))
	p := newTestProcessor(st, &recordingNotifier{})

	start := time.Now()
	if err := p.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Fatalf("malformed record must not retry with delay, took %v", elapsed)
	}

	// The malformed row stays in staging, the good one is applied.
	if _, ok := st.imports[1]; !ok {
		t.Fatalf("malformed staging row must be left in place")
	}
	if row, _ := st.FindCatalogByASIN("B000TEST06"); row == nil {
		t.Fatalf("valid record after the malformed one was not processed")
	}
	if p.stats.errors != 1 || p.stats.processed != 1 {
		t.Fatalf("stats: %+v", p.stats)
	}
}

func TestRetryExhaustionLeavesStagingIntact(t *testing.T) {
	st := newMemStore()
	st.catalogs["B000TEST07"] = &model.Catalog{ID: 1, ASIN: "B000TEST07", Name: "Before"}
	st.updateErrFor["B000TEST07"] = errors.New("storage timeout")
	st.addImport(stagingRow(3, "B000TEST07", "Acme"))
	notifier := &recordingNotifier{}
	p := newTestProcessor(st, notifier)

	if err := p.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	if _, ok := st.imports[3]; !ok {
		t.Fatalf("staging row must survive retry exhaustion")
	}
	row, _ := st.FindCatalogByASIN("B000TEST07")
	if row.Name != "Before" {
		t.Fatalf("catalog row must be unmodified, got %+v", row)
	}
	if p.stats.errors != 1 {
		t.Fatalf("expected one error, stats %+v", p.stats)
	}
	// One bad record never fails the whole run.
	if len(notifier.statuses) != 1 || notifier.statuses[0] != webhook.StatusComplete {
		t.Fatalf("expected complete notification, got %v", notifier.statuses)
	}
}

func TestSecondRunIsIdempotent(t *testing.T) {
	st := newMemStore()
	for i := uint(1); i <= 5; i++ {
		st.addImport(stagingRow(i, fmt.Sprintf("B000IDEM%02d", i), "Acme"))
	}
	p := newTestProcessor(st, &recordingNotifier{})

	if err := p.Run(context.Background()); err != nil {
		t.Fatalf("first run: %v", err)
	}

	updatesBefore := st.catalogUpdates
	createsBefore := st.catalogCreates

	if err := p.Run(context.Background()); err != nil {
		t.Fatalf("second run: %v", err)
	}

	if st.catalogUpdates != updatesBefore || st.catalogCreates != createsBefore {
		t.Fatalf("second run with empty staging must not touch the catalog")
	}
}

func TestConcurrentRunIsNoOp(t *testing.T) {
	st := newMemStore()
	// Enough rows that the first run is still going when the second
	// trigger lands.
	st.catalogs["B000SLOW01"] = &model.Catalog{ID: 1, ASIN: "B000SLOW01"}
	st.updateErrFor["B000SLOW01"] = errors.New("keep retrying")
	st.addImport(stagingRow(1, "B000SLOW01", "Acme"))
	p := NewProcessor(st, config.SyncConfig{BatchSize: 100, MaxRetries: 3, RetryDelay: 50 * time.Millisecond},
		pricing.DefaultOptions(), &recordingNotifier{}, zap.NewNop())

	done := make(chan error, 1)
	go func() { done <- p.Run(context.Background()) }()

	// Wait for the first run to take the guard.
	deadline := time.Now().Add(time.Second)
	for !p.Running() {
		if time.Now().After(deadline) {
			t.Fatalf("first run never started")
		}
		time.Sleep(time.Millisecond)
	}

	if err := p.Run(context.Background()); !errors.Is(err, ErrRunInProgress) {
		t.Fatalf("expected ErrRunInProgress, got %v", err)
	}

	if err := <-done; err != nil {
		t.Fatalf("first run: %v", err)
	}
}

func TestBrandStatisticsRollup(t *testing.T) {
	st := newMemStore()
	brand := &model.Brand{ID: 9, Name: "Rollup Brand"}
	st.brands[brand.Name] = brand
	st.nextBrand = 9
	id := brand.ID
	st.catalogs["A1"] = &model.Catalog{ID: 1, ASIN: "A1", BrandID: &id, Profitable: true, SellingStatus: true}
	st.catalogs["A2"] = &model.Catalog{ID: 2, ASIN: "A2", BrandID: &id, Profitable: true, SellingStatus: false}
	st.catalogs["A3"] = &model.Catalog{ID: 3, ASIN: "A3", BrandID: &id, Profitable: false, SellingStatus: true}
	p := newTestProcessor(st, &recordingNotifier{})

	if err := p.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	b, _ := st.FindBrandByName("Rollup Brand")
	if b.AllCatalogCount != 3 {
		t.Fatalf("all_catalog_count: expected 3, got %d", b.AllCatalogCount)
	}
	if b.ProfitableAndSelling != 1 {
		t.Fatalf("profitable_and_selling: expected 1, got %d", b.ProfitableAndSelling)
	}
}

func TestNotifierFailureDoesNotFailRun(t *testing.T) {
	st := newMemStore()
	st.addImport(stagingRow(1, "B000TEST08", "Acme"))
	notifier := &recordingNotifier{err: errors.New("endpoint down")}
	p := newTestProcessor(st, notifier)

	if err := p.Run(context.Background()); err != nil {
		t.Fatalf("Run must swallow notifier errors, got %v", err)
	}
	if n, _ := st.CountImports(); n != 0 {
		t.Fatalf("records must still be applied")
	}
}
