package services

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"civicwatch/extract"
	"civicwatch/fetch"
	"civicwatch/models"
	"civicwatch/normalize"
	"civicwatch/providers"
	"civicwatch/sources"
	"civicwatch/storage"
)

const membersPage = `<html><body>
	<div class="member"><span class="name">Hon. Ann Lee</span><span class="party">New Democratic Party</span><span class="position">Councillor</span><a href="mailto:ann.lee@example.ca">Email</a></div>
	<div class="member"><span class="name">Bo Chen</span><span class="party">Independent</span><span class="position">Councillor</span></div>
</body></html>`

const billsPage = `<ul>
	<li class="bill"><span class="bill-number">C-12</span><span class="title">An Act respecting hospital funding</span><span class="status">Second Reading</span></li>
	<li class="bill"><span class="title">Untitled motion without a number</span></li>
</ul>`

const statementsPage = `
	<div class="statement"><span class="speaker">Ann Lee</span><p class="content">We will fund the hospital.</p></div>
	<div class="statement"><span class="speaker">Nobody Known</span><p class="content">I was never elected.</p></div>`

func testSources() []sources.Source {
	return []sources.Source{
		{
			Name: "Alpha Council", BaseURL: "https://alpha.example.ca", Level: models.LevelMunicipal, Jurisdiction: "Alpha",
			Endpoints:           map[sources.EntityType]string{sources.EntityOfficials: "/members"},
			CrawlFrequencyHours: 24, RateLimitPerMinute: 30,
		},
		{
			Name: "Broken Legislature", BaseURL: "https://broken.example.ca", Level: models.LevelProvincial, Jurisdiction: "Broken",
			Endpoints:           map[sources.EntityType]string{sources.EntityOfficials: "/members", sources.EntityBills: "/bills"},
			CrawlFrequencyHours: 24, RateLimitPerMinute: 30,
		},
		{
			Name: "Gamma Parliament", BaseURL: "https://gamma.example.ca", Level: models.LevelFederal, Jurisdiction: "Gamma",
			Endpoints: map[sources.EntityType]string{
				sources.EntityStatements: "/hansard",
				sources.EntityBills:      "/bills",
				sources.EntityOfficials:  "/members",
			},
			CrawlFrequencyHours: 4, RateLimitPerMinute: 60,
		},
	}
}

func testPages() map[string]string {
	return map[string]string{
		"https://alpha.example.ca/members": membersPage,
		"https://gamma.example.ca/members": membersPage,
		"https://gamma.example.ca/bills":   billsPage,
		"https://gamma.example.ca/hansard": statementsPage,
	}
}

func newTestOrchestrator(t *testing.T, reg *sources.Registry, p providers.Provider, w *storage.Writer) (*Orchestrator, *[]time.Duration) {
	o := NewOrchestrator(reg, p, testPolicy(), w, nil, newTestMetrics(), zap.NewNop())
	var pauses []time.Duration
	o.sleep = func(_ context.Context, d time.Duration) error {
		pauses = append(pauses, d)
		return nil
	}
	return o, &pauses
}

func TestRunOnceIsolatesFailingSource(t *testing.T) {
	ctx := context.Background()
	w := newTestWriter(t)
	p := newFakeProvider(testPages())
	p.down["broken.example.ca"] = true

	o, pauses := newTestOrchestrator(t, mustRegistry(t, testSources()...), p, w)
	rep, err := o.RunOnce(ctx)
	require.NoError(t, err)

	require.Equal(t, RunPartiallyFailed, rep.State)
	require.Equal(t, []string{"Broken Legislature"}, rep.FailedSources)
	require.Len(t, rep.Sources, 3)
	require.ElementsMatch(t, []sources.EntityType{sources.EntityOfficials, sources.EntityBills}, rep.Sources[1].Failed)

	// every endpoint of the broken source got all attempts
	require.Equal(t, 2, p.callsTo("https://broken.example.ca/members"))
	require.Equal(t, 2, p.callsTo("https://broken.example.ca/bills"))

	// the sources after the failure were still processed
	require.Equal(t, int64(4), countRows(t, w, &models.Official{}))
	require.Equal(t, int64(1), countRows(t, w, &models.Bill{}))
	require.Equal(t, int64(1), countRows(t, w, &models.Statement{}))

	require.Equal(t, []time.Duration{2 * time.Second, 2 * time.Second}, *pauses)

	state, _ := o.State()
	require.Equal(t, RunPartiallyFailed, state)
	last, ok := o.LastReport()
	require.True(t, ok)
	require.Equal(t, rep.Totals, last.Totals)
}

func TestRunOnceStoresNormalizedRecords(t *testing.T) {
	ctx := context.Background()
	w := newTestWriter(t)
	o, _ := newTestOrchestrator(t, mustRegistry(t, testSources()[2]), newFakeProvider(testPages()), w)

	rep, err := o.RunOnce(ctx)
	require.NoError(t, err)
	require.Equal(t, RunCompleted, rep.State)

	var ann models.Official
	require.NoError(t, w.DB().Where("name = ?", "Ann Lee").First(&ann).Error)
	require.Equal(t, "Gamma", ann.Jurisdiction)
	require.Equal(t, models.LevelMunicipal, ann.Level)
	require.Equal(t, "ann.lee@example.ca", ann.Email)
	require.Equal(t, models.DefaultTrustScore, ann.TrustScore)

	var bill models.Bill
	require.NoError(t, w.DB().Where("bill_number = ?", "C-12").First(&bill).Error)
	require.Equal(t, "Health", bill.Category)

	var st models.Statement
	require.NoError(t, w.DB().First(&st).Error)
	require.Equal(t, ann.ID, st.OfficialID)
	require.Equal(t, normalize.ContentHash("We will fund the hospital."), st.ContentHash)

	billsRes := rep.Sources[0].Entities[sources.EntityBills]
	require.Equal(t, 1, billsRes.Written)
	require.Equal(t, 1, billsRes.Skipped)
	stmtRes := rep.Sources[0].Entities[sources.EntityStatements]
	require.Equal(t, 1, stmtRes.Written)
	require.Equal(t, 1, stmtRes.Skipped)
}

func TestRunOnceIsIdempotent(t *testing.T) {
	ctx := context.Background()
	w := newTestWriter(t)
	o, _ := newTestOrchestrator(t, mustRegistry(t, testSources()...), newFakeProvider(testPages()), w)

	_, err := o.RunOnce(ctx)
	require.NoError(t, err)
	counts := func() [3]int64 {
		return [3]int64{countRows(t, w, &models.Official{}), countRows(t, w, &models.Bill{}), countRows(t, w, &models.Statement{})}
	}
	first := counts()

	rep, err := o.RunOnce(ctx)
	require.NoError(t, err)
	require.Equal(t, first, counts())
	// the statement already exists, so the second pass skips it
	require.Equal(t, 0, rep.Sources[2].Entities[sources.EntityStatements].Written)
}

func TestRunRejectsOverlap(t *testing.T) {
	reg := mustRegistry(t, testSources()...)
	o, _ := newTestOrchestrator(t, reg, newFakeProvider(testPages()), newTestWriter(t))
	claimed, _ := o.claim(reg.Government())
	require.Len(t, claimed, 3)
	require.True(t, o.Running())

	_, err := o.RunOnce(context.Background())
	require.ErrorIs(t, err, ErrRunInProgress)

	o.release(claimed)
	require.False(t, o.Running())
}

// gateProvider blocks fetches to one host until the gate opens.
type gateProvider struct {
	*fakeProvider
	host    string
	entered chan struct{}
	gate    chan struct{}
	once    sync.Once
}

func (g *gateProvider) Fetch(ctx context.Context, url string, h map[string]string) ([]byte, error) {
	if strings.Contains(url, "://"+g.host+"/") {
		g.once.Do(func() { close(g.entered) })
		select {
		case <-g.gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return g.fakeProvider.Fetch(ctx, url, h)
}

func TestDailyTierRunsWhileFrequentTierInFlight(t *testing.T) {
	ctx := context.Background()
	w := newTestWriter(t)
	p := &gateProvider{fakeProvider: newFakeProvider(testPages()), host: "gamma.example.ca",
		entered: make(chan struct{}), gate: make(chan struct{})}
	o, _ := newTestOrchestrator(t, mustRegistry(t, testSources()...), p, w)
	o.sleep = func(context.Context, time.Duration) error { return nil }

	frequent := make(chan RunReport, 1)
	go func() {
		rep, _ := o.RunTier(ctx, sources.TierFrequent)
		frequent <- rep
	}()
	<-p.entered

	daily, err := o.RunTier(ctx, sources.TierDaily)
	require.NoError(t, err)
	require.Len(t, daily.Sources, 2)
	require.Equal(t, "Alpha Council", daily.Sources[0].Source)
	require.Empty(t, daily.Busy)
	require.Equal(t, 1, p.callsTo("https://alpha.example.ca/members"))

	// a full run leaves the busy source to the run that holds it
	full, err := o.RunOnce(ctx)
	require.NoError(t, err)
	require.Len(t, full.Sources, 2)
	require.Equal(t, []string{"Gamma Parliament"}, full.Busy)

	_, err = o.RunTier(ctx, sources.TierFrequent)
	require.ErrorIs(t, err, ErrRunInProgress)

	close(p.gate)
	rep := <-frequent
	require.Len(t, rep.Sources, 1)
	require.Equal(t, RunCompleted, rep.State)
	require.False(t, o.Running())
	require.Equal(t, int64(1), countRows(t, w, &models.Bill{}))
}

// panicProvider panics on every fetch to one host.
type panicProvider struct {
	*fakeProvider
	host string
}

func (p *panicProvider) Fetch(ctx context.Context, url string, h map[string]string) ([]byte, error) {
	if strings.Contains(url, "://"+p.host+"/") {
		panic("runtime error: slice bounds out of range")
	}
	return p.fakeProvider.Fetch(ctx, url, h)
}

func TestRunRecoversPanickingSource(t *testing.T) {
	w := newTestWriter(t)
	p := &panicProvider{fakeProvider: newFakeProvider(testPages()), host: "alpha.example.ca"}
	o, _ := newTestOrchestrator(t, mustRegistry(t, testSources()...), p, w)

	rep, err := o.RunOnce(context.Background())
	require.NoError(t, err)
	require.Equal(t, RunPartiallyFailed, rep.State)
	require.Contains(t, rep.FailedSources, "Alpha Council")
	require.Equal(t, []sources.EntityType{sources.EntityOfficials}, rep.Sources[0].Failed)
	// Gamma still ran after the panic
	require.Equal(t, int64(1), countRows(t, w, &models.Bill{}))
	require.False(t, o.Running())
}

func TestRunTierSelectsSources(t *testing.T) {
	w := newTestWriter(t)
	p := newFakeProvider(testPages())
	o, _ := newTestOrchestrator(t, mustRegistry(t, testSources()...), p, w)

	rep, err := o.RunTier(context.Background(), sources.TierFrequent)
	require.NoError(t, err)
	require.Len(t, rep.Sources, 1)
	require.Equal(t, "Gamma Parliament", rep.Sources[0].Source)
	require.Zero(t, p.callsTo("https://alpha.example.ca/members"))
}

func TestRunHandsRateLimitsToProvider(t *testing.T) {
	p := newFakeProvider(nil)
	newTestOrchestrator(t, mustRegistry(t, testSources()...), p, newTestWriter(t))
	require.Equal(t, map[string]int{"alpha.example.ca": 30, "broken.example.ca": 30, "gamma.example.ca": 60}, p.limits)
}

func TestRunArchivesFetchedPages(t *testing.T) {
	w := newTestWriter(t)
	arch := &fakeArchiver{}
	o := NewOrchestrator(mustRegistry(t, testSources()[0]), newFakeProvider(testPages()), testPolicy(), w, arch, newTestMetrics(), zap.NewNop())

	_, err := o.RunOnce(context.Background())
	require.NoError(t, err)
	require.Equal(t, []archived{{source: "Alpha Council", entity: "officials", size: len(membersPage)}}, arch.pages)
}

func TestRunStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	o, _ := newTestOrchestrator(t, mustRegistry(t, testSources()...), newFakeProvider(testPages()), newTestWriter(t))
	o.sleep = func(context.Context, time.Duration) error {
		cancel()
		return context.Canceled
	}

	rep, err := o.RunOnce(ctx)
	require.ErrorIs(t, err, context.Canceled)
	require.Len(t, rep.Sources, 1)
}

// A single table cell with a known party between name and riding becomes a complete
// official, fetched over real HTTP.
func TestEndToEndSingleCellOfficial(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/members" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte(`<html><body><table><tr><td>Jane Doe Liberal Test Riding</td></tr></table></body></html>`))
	}))
	defer srv.Close()

	reg := mustRegistry(t, sources.Source{
		Name:      "Fixture Legislature",
		BaseURL:   srv.URL,
		Endpoints: map[sources.EntityType]string{sources.EntityOfficials: "/members"},
	})
	w := newTestWriter(t)
	o, _ := newTestOrchestrator(t, reg, fetch.New("civicwatch-test", 5*time.Second), w)

	rep, err := o.RunOnce(context.Background())
	require.NoError(t, err)
	require.Equal(t, RunCompleted, rep.State)
	require.Equal(t, 1, rep.Totals.Written)

	var got models.Official
	require.NoError(t, w.DB().First(&got).Error)
	require.Equal(t, "Jane Doe", got.Name)
	require.Equal(t, "Liberal", got.Party)
	require.Equal(t, "Test Riding", got.Constituency)
	require.Equal(t, models.LevelFederal, got.Level)
	require.Equal(t, normalize.UnknownJurisdiction, got.Jurisdiction)
}

func TestUseCandidatesOverridesDefaults(t *testing.T) {
	w := newTestWriter(t)
	p := newFakeProvider(map[string]string{
		"https://alpha.example.ca/members": `<section class="roster"><b class="who">Dana Park</b><i class="caucus">Green</i></section>`,
	})
	o, _ := newTestOrchestrator(t, mustRegistry(t, testSources()[0]), p, w)
	o.UseCandidates("Alpha Council", sources.EntityOfficials, extract.Candidates{
		Containers: []string{"section.roster"},
		Fields: []extract.Field{
			{Name: "name", Selectors: []extract.Selector{{Query: ".who"}}},
			{Name: "party", Selectors: []extract.Selector{{Query: ".caucus"}}},
		},
	})

	_, err := o.RunOnce(context.Background())
	require.NoError(t, err)

	var got models.Official
	require.NoError(t, w.DB().First(&got).Error)
	require.Equal(t, "Dana Park", got.Name)
	require.Equal(t, "Green", got.Party)
	require.Equal(t, models.LevelMunicipal, got.Level)
}
