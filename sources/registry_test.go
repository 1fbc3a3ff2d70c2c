package sources

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDefaultCatalog(t *testing.T) {
	r := Default()

	gov := r.Government()
	require.GreaterOrEqual(t, len(gov), 30)
	require.NotEmpty(t, r.News())

	jurisdictions := map[string]bool{}
	for _, s := range gov {
		require.NotEmpty(t, s.Entities(), s.Name)
		jurisdictions[s.Jurisdiction] = true
	}
	for _, want := range []string{"Canada", "Ontario", "Quebec", "Nunavut", "Toronto"} {
		require.True(t, jurisdictions[want], want)
	}

	for _, s := range r.News() {
		require.Equal(t, []EntityType{EntityNews}, s.Entities())
	}
}

func TestEntityURL(t *testing.T) {
	s, ok := Default().Lookup("LEGISinfo")
	require.True(t, ok)

	u, err := s.EntityURL(EntityBills)
	require.NoError(t, err)
	require.Equal(t, "https://www.parl.ca/legisinfo/en/bills", u)

	_, err = s.EntityURL(EntityOfficials)
	require.Error(t, err)
}

func TestLookupReturnsCopy(t *testing.T) {
	r := Default()
	s, _ := r.Lookup("City of Toronto")
	s.Endpoints[EntityBills] = "/mutated"

	again, _ := r.Lookup("City of Toronto")
	require.False(t, again.Provides(EntityBills))
}

func TestTiers(t *testing.T) {
	require.Equal(t, TierFrequent, Source{CrawlFrequencyHours: 6}.Tier())
	require.Equal(t, TierDaily, Source{CrawlFrequencyHours: 7}.Tier())
	require.Equal(t, TierDaily, Source{CrawlFrequencyHours: 24}.Tier())
	require.Equal(t, TierWeekly, Source{CrawlFrequencyHours: 168}.Tier())

	r := Default()
	total := 0
	for _, tier := range []Tier{TierFrequent, TierDaily, TierWeekly} {
		total += len(r.GovernmentTier(tier))
	}
	require.Equal(t, len(r.Government()), total)
}

func TestNewRegistryRejectsInvalid(t *testing.T) {
	_, err := NewRegistry(Source{Name: "x", BaseURL: "not a url", Endpoints: map[EntityType]string{EntityBills: "/"}})
	require.Error(t, err)

	ok := Source{Name: "x", BaseURL: "https://x.example", Endpoints: map[EntityType]string{EntityBills: "/"}}
	_, err = NewRegistry(ok, ok)
	require.ErrorContains(t, err, "duplicate")
}

func TestApplyOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sources.yaml")
	doc := `
disable:
  - City of Brampton
add:
  - name: Test Legislature
    base_url: https://legislature.example.ca
    level: provincial
    jurisdiction: Ontario
    crawl_frequency_hours: 12
    rate_limit_per_minute: 6
    endpoints:
      officials: /members
      bills: /bills
`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o600))

	o, err := LoadOverrides(path)
	require.NoError(t, err)

	base := Default()
	r, err := base.Apply(o)
	require.NoError(t, err)

	_, found := r.Lookup("City of Brampton")
	require.False(t, found)

	added, found := r.Lookup("Test Legislature")
	require.True(t, found)
	require.Equal(t, KindGovernment, added.Kind)
	require.Equal(t, TierDaily, added.Tier())
	require.Equal(t, []EntityType{EntityOfficials, EntityBills}, added.Entities())
	require.Equal(t, base.Len(), r.Len())
}

func TestApplyUnknownDisable(t *testing.T) {
	_, err := Default().Apply(Overrides{Disable: []string{"Nowhere"}})
	require.Error(t, err)
}
