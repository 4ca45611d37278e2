package aggregate

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sichef/sichef/internal/model"
)

// memRepo is an in-memory Repository.
type memRepo struct {
	mu      sync.Mutex
	records []model.ScrapedData
	saves   int
	loadErr error
	saveErr error
}

func (m *memRepo) Load(context.Context) ([]model.ScrapedData, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.loadErr != nil {
		return nil, m.loadErr
	}
	return append([]model.ScrapedData{}, m.records...), nil
}

func (m *memRepo) Save(_ context.Context, records []model.ScrapedData) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return m.saveErr
	}
	m.records = records
	m.saves++
	return nil
}

type geoFunc func(name, location string) model.GeocodeResult

func (f geoFunc) Lookup(_ context.Context, name, location string) model.GeocodeResult {
	return f(name, location)
}

func ptr[T any](v T) *T { return &v }

func rec(id, name, location string) model.ScrapedData {
	return model.ScrapedData{
		ID:       id,
		VideoURL: "https://www.tiktok.com/@a/video/" + id,
		Analysis: &model.RestaurantAnalysis{RestaurantName: name, RestaurantLocation: location},
	}
}

func ids(records []model.ScrapedData) []string {
	out := make([]string, len(records))
	for i, r := range records {
		out[i] = r.ID
	}
	return out
}

func TestMerge_NewBatchWinsOnCollision(t *testing.T) {
	old := []model.ScrapedData{rec("1", "Da Enzo", "Roma"), rec("2", "Roscioli", "Roma")}
	old[0].IsNew = true
	batch := []model.ScrapedData{rec("3", "DA ENZO", "roma")}
	batch[0].CreatorName = "secondo"

	merged := Merge(old, batch)

	require.Len(t, merged, 2)
	assert.Equal(t, []string{"3", "2"}, ids(merged))
	assert.True(t, merged[0].IsNew)
	assert.Equal(t, "secondo", merged[0].CreatorName)
	assert.False(t, merged[1].IsNew, "stored records lose the new tag")
	assert.True(t, old[0].IsNew, "inputs are not mutated")
}

func TestMerge_NewFirstStableOrder(t *testing.T) {
	old := []model.ScrapedData{rec("1", "A", "x"), rec("2", "B", "x"), rec("3", "C", "x")}
	batch := []model.ScrapedData{rec("4", "D", "x"), rec("5", "E", "x")}

	merged := Merge(old, batch)

	assert.Equal(t, []string{"4", "5", "1", "2", "3"}, ids(merged))
}

func TestMerge_DuplicatesWithinBatchKeepLast(t *testing.T) {
	batch := []model.ScrapedData{rec("1", "Bonci", "Roma"), rec("2", "Bonci", "Roma")}

	merged := Merge(nil, batch)

	assert.Equal(t, []string{"2"}, ids(merged))
}

func TestMerge_RecordsWithoutAnalysisKeyedByID(t *testing.T) {
	old := []model.ScrapedData{{ID: "a", VideoURL: "u1"}, {ID: "b", VideoURL: "u2"}}
	batch := []model.ScrapedData{{ID: "a", VideoURL: "u1-new"}}

	merged := Merge(old, batch)

	assert.Equal(t, []string{"a", "b"}, ids(merged))
	assert.Equal(t, "u1-new", merged[0].VideoURL)
}

func TestMerge_ClassifiesUnclassifiedRecords(t *testing.T) {
	stored := rec("1", "Da Enzo", "Roma")
	stored.Analysis.CreatorOpinion = "good"
	incoming := rec("2", "Norcineria", "Norcia")
	incoming.Analysis.CreatorOpinion = "stupendo, good"
	incoming.Analysis.DishDescription = "porchetta e guanciale"
	kept := rec("3", "Bonci", "Roma")
	kept.Analysis.CreatorOpinion = "meh"
	kept.Analysis.Priority = model.PriorityMustVisit

	merged := Merge([]model.ScrapedData{stored}, []model.ScrapedData{incoming, kept})

	require.Equal(t, []string{"2", "3", "1"}, ids(merged))
	assert.Equal(t, model.PriorityMustVisit, merged[0].Analysis.Priority)
	require.NotNil(t, merged[0].Analysis.IsPorkSpecialist)
	assert.True(t, *merged[0].Analysis.IsPorkSpecialist)
	assert.Equal(t, model.PriorityMustVisit, merged[1].Analysis.Priority, "existing priority is kept")
	assert.Equal(t, model.PriorityRecommended, merged[2].Analysis.Priority)

	assert.Empty(t, incoming.Analysis.Priority, "inputs are not mutated")
	assert.Nil(t, stored.Analysis.IsPorkSpecialist)
}

func TestMergeBatch_Persists(t *testing.T) {
	repo := &memRepo{records: []model.ScrapedData{rec("1", "Da Enzo", "Roma")}}
	agg := New(repo, nil)

	merged, err := agg.MergeBatch(context.Background(), []model.ScrapedData{rec("2", "Bonci", "Roma")})

	require.NoError(t, err)
	assert.Equal(t, []string{"2", "1"}, ids(merged))
	assert.Equal(t, merged, repo.records)
	assert.Equal(t, 1, repo.saves)
}

func TestMergeBatch_LoadError(t *testing.T) {
	repo := &memRepo{loadErr: errors.New("disk gone")}

	_, err := New(repo, nil).MergeBatch(context.Background(), nil)

	require.Error(t, err)
	assert.Zero(t, repo.saves)
}

func TestSearch(t *testing.T) {
	records := []model.ScrapedData{
		rec("1", "Da Enzo", "Trastevere, Roma"),
		rec("2", "Pizzeria Gino", "Napoli"),
		{ID: "3", Caption: "pizza ovunque"},
	}
	records[1].Caption = "La vera PIZZA napoletana"

	assert.Equal(t, []string{"1", "2"}, ids(Search(records, "")))
	assert.Equal(t, []string{"2"}, ids(Search(records, "pizza")))
	assert.Equal(t, []string{"1"}, ids(Search(records, "TRASTEVERE")))
	assert.Empty(t, Search(records, "sushi"))
}

func TestSort(t *testing.T) {
	a := rec("a", "A", "x")
	a.Likes = ptr(int64(100))
	b := rec("b", "B", "x")
	b.Saves = ptr(int64(30)) // 150
	c := rec("c", "C", "x")
	c.Shares = ptr(int64(10)) // 40
	c.Likes = ptr(int64(100)) // 140
	records := []model.ScrapedData{a, b, c}

	assert.Equal(t, []string{"b", "c", "a"}, ids(Sort(records, SortEngagement)))
	assert.Equal(t, []string{"a", "c", "b"}, ids(Sort(records, SortLikes)))
	assert.Equal(t, []string{"b", "a", "c"}, ids(Sort(records, SortSaves)))
	assert.Equal(t, []string{"c", "a", "b"}, ids(Sort(records, SortShares)))
	assert.Equal(t, []string{"a", "b", "c"}, ids(records), "input order is untouched")
}

func TestSort_Priority(t *testing.T) {
	a := rec("a", "A", "x")
	a.Analysis.Priority = model.PriorityIfInArea
	b := rec("b", "B", "x")
	b.Analysis.Priority = model.PriorityMustVisit
	c := rec("c", "C", "x")
	c.Analysis.Priority = model.PriorityMustVisit
	c.Analysis.IsPorkSpecialist = ptr(true)
	d := model.ScrapedData{ID: "d"}

	assert.Equal(t, []string{"c", "b", "a", "d"}, ids(Sort([]model.ScrapedData{d, a, b, c}, SortPriority)))
}

func TestParseSortOrder(t *testing.T) {
	o, err := ParseSortOrder("")
	require.NoError(t, err)
	assert.Equal(t, SortEngagement, o)

	o, err = ParseSortOrder(" Priority ")
	require.NoError(t, err)
	assert.Equal(t, SortPriority, o)

	_, err = ParseSortOrder("rating")
	require.Error(t, err)
}

func TestSummarize(t *testing.T) {
	a := rec("a", "A", "x")
	a.Analysis.Priority = model.PriorityMustVisit
	a.Analysis.IsPorkSpecialist = ptr(true)
	a.Analysis.Latitude, a.Analysis.Longitude = ptr(41.9), ptr(12.5)
	b := rec("b", "B", "x")
	b.Analysis.Priority = model.PriorityRecommended
	c := rec("c", "C", "x")
	c.Analysis.Priority = model.PriorityIfInArea
	d := rec("d", "D", "x")

	s := Summarize([]model.ScrapedData{a, b, c, d, {ID: "e"}})

	assert.Equal(t, Stats{Total: 4, MustVisit: 1, Recommended: 1, IfInArea: 1, Unclassified: 1, PorkSpecialists: 1, Geocoded: 1}, s)
}

func TestBackfill(t *testing.T) {
	done := rec("a", "Da Enzo", "Roma")
	done.Analysis.Latitude, done.Analysis.Longitude = ptr(41.0), ptr(12.0)
	repo := &memRepo{records: []model.ScrapedData{
		done,
		rec("b", "Bonci", "Roma"),
		rec("c", "Nowhere", "Atlantis"),
		{ID: "d"},
	}}
	geo := geoFunc(func(name, _ string) model.GeocodeResult {
		if name == "Bonci" {
			return model.GeocodeResult{Latitude: ptr(41.9), Longitude: ptr(12.4), FormattedAddress: "Via Trionfale, Roma"}
		}
		return model.GeocodeResult{Error: "No results found"}
	})

	res, err := New(repo, geo).Backfill(context.Background())

	require.NoError(t, err)
	assert.Equal(t, BackfillResult{Attempted: 2, Updated: 1}, res)
	require.Equal(t, 1, repo.saves)
	bonci := repo.records[1].Analysis
	require.True(t, bonci.HasCoordinates())
	assert.Equal(t, "Via Trionfale, Roma", bonci.FormattedAddress)
	assert.False(t, repo.records[2].Analysis.HasCoordinates())
	assert.InDelta(t, 41.0, *repo.records[0].Analysis.Latitude, 1e-9)
}

func TestBackfill_NothingPending(t *testing.T) {
	repo := &memRepo{}
	res, err := New(repo, geoFunc(func(string, string) model.GeocodeResult {
		t.Fatal("no lookup expected")
		return model.GeocodeResult{}
	})).Backfill(context.Background())

	require.NoError(t, err)
	assert.Equal(t, BackfillResult{}, res)
}

func TestBackfill_NoGeocoder(t *testing.T) {
	_, err := New(&memRepo{}, nil).Backfill(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, model.ErrNotConfigured))
}

func TestDecodeImport(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantLen int
		wantErr bool
	}{
		{"valid", `[{"id":"1","videoUrl":"u","analysis":{"restaurantName":"A","dishDescription":"","creatorOpinion":"","restaurantLocation":""}}]`, 1, false},
		{"empty array", `[]`, 0, false},
		{"missing videoUrl", `[{"id":"1","videoUrl":"u"},{"id":"2"}]`, 0, true},
		{"not an array", `{"id":"1","videoUrl":"u"}`, 0, true},
		{"null", `null`, 0, true},
		{"garbage", `not json`, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			records, err := DecodeImport(strings.NewReader(tt.input))
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, ErrInvalidImport))
				return
			}
			require.NoError(t, err)
			assert.Len(t, records, tt.wantLen)
		})
	}
}

func TestDecodeImport_ClassifiesRecords(t *testing.T) {
	input := `[
		{"id":"1","videoUrl":"u1","analysis":{"restaurantName":"Norcineria","dishDescription":"porchetta e guanciale","creatorOpinion":"stupendo, good","restaurantLocation":"Norcia"}},
		{"id":"2","videoUrl":"u2","analysis":{"restaurantName":"Bonci","dishDescription":"pizza","creatorOpinion":"meh","restaurantLocation":"Roma","priority":"must-visit"}},
		{"id":"3","videoUrl":"u3"}
	]`

	records, err := DecodeImport(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, records, 3)

	assert.Equal(t, model.PriorityMustVisit, records[0].Analysis.Priority)
	require.NotNil(t, records[0].Analysis.IsPorkSpecialist)
	assert.True(t, *records[0].Analysis.IsPorkSpecialist)
	assert.Equal(t, model.PriorityMustVisit, records[1].Analysis.Priority)
	assert.Nil(t, records[2].Analysis)

	assert.Equal(t, Stats{Total: 2, MustVisit: 2, PorkSpecialists: 1}, Summarize(records))
}

func TestImportExport_RoundTrip(t *testing.T) {
	src := &memRepo{records: []model.ScrapedData{rec("1", "Da Enzo", "Roma"), rec("2", "Bonci", "Roma")}}
	var buf bytes.Buffer

	n, err := New(src, nil).Export(context.Background(), &buf)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Contains(t, buf.String(), "\n  {", "export is indented")

	dst := &memRepo{records: []model.ScrapedData{rec("9", "Old", "x")}}
	n, err = New(dst, nil).Import(context.Background(), &buf)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, []string{"1", "2"}, ids(dst.records), "import replaces the dataset")
}

func TestImport_RejectedFileLeavesDataset(t *testing.T) {
	dst := &memRepo{records: []model.ScrapedData{rec("9", "Old", "x")}}

	_, err := New(dst, nil).Import(context.Background(), strings.NewReader(`[{"id":"1"}]`))

	require.Error(t, err)
	assert.Zero(t, dst.saves)
	assert.Equal(t, []string{"9"}, ids(dst.records))
}
