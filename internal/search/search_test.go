package search

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/cuongbtq/company-intel/internal/analysis"
	"github.com/cuongbtq/company-intel/internal/domain"
	"github.com/cuongbtq/company-intel/internal/storage"
	"github.com/cuongbtq/company-intel/internal/storage/memory"
)

type mockGenerator struct {
	mock.Mock
}

func (m *mockGenerator) Generate(ctx context.Context, companyName string) (*analysis.Analysis, error) {
	args := m.Called(ctx, companyName)
	if a, ok := args.Get(0).(*analysis.Analysis); ok {
		return a, args.Error(1)
	}
	return nil, args.Error(1)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func strPtr(s string) *string { return &s }

func seed(t *testing.T, store *memory.Store, name string, canonical *string) *domain.CompanyRecord {
	t.Helper()
	rec, err := store.Companies().CreateCompany(context.Background(), &domain.NewCompanyRecord{
		CompanyName:    domain.SanitizeCompanyName(name),
		CanonicalName:  canonical,
		SearchQuery:    name,
		AnalysisResult: json.RawMessage(`{"company_basic_info":{}}`),
		Status:         domain.RecordStatusSuccess,
	})
	require.NoError(t, err)
	return rec
}

func TestResolve_EmptyStore(t *testing.T) {
	resolver := NewResolver(memory.NewStore().Companies(), discardLogger())

	for _, name := range []string{"acme", "Globex Corp", "  x  "} {
		match, err := resolver.Resolve(context.Background(), name)
		require.NoError(t, err)
		assert.False(t, match.Found)
		assert.Equal(t, domain.MatchNone, match.MatchType)
		assert.Nil(t, match.Record)
	}
}

func TestResolve_EmptyName(t *testing.T) {
	resolver := NewResolver(memory.NewStore().Companies(), discardLogger())

	_, err := resolver.Resolve(context.Background(), "   ")
	assert.ErrorIs(t, err, domain.ErrEmptyCompanyName)
}

func TestResolve_ExactIgnoresCaseAndWhitespace(t *testing.T) {
	store := memory.NewStore()
	rec := seed(t, store, "acme corp", nil)
	resolver := NewResolver(store.Companies(), discardLogger())

	match, err := resolver.Resolve(context.Background(), "  Acme Corp ")
	require.NoError(t, err)
	assert.True(t, match.Found)
	assert.Equal(t, domain.MatchExact, match.MatchType)
	assert.Equal(t, rec.ID, match.Record.ID)
}

func TestResolve_FuzzySingle(t *testing.T) {
	store := memory.NewStore()
	rec := seed(t, store, "initech software", nil)
	seed(t, store, "globex", nil)
	resolver := NewResolver(store.Companies(), discardLogger())

	match, err := resolver.Resolve(context.Background(), "Initech")
	require.NoError(t, err)
	assert.Equal(t, domain.MatchFuzzySingle, match.MatchType)
	assert.Equal(t, rec.ID, match.Record.ID)
	assert.Empty(t, match.Alternatives)
}

func TestResolve_FuzzyBestPrefersShorterNames(t *testing.T) {
	store := memory.NewStore()
	seed(t, store, "Acme Corporation", nil)
	short := seed(t, store, "Acme Corp", nil)
	resolver := NewResolver(store.Companies(), discardLogger())

	match, err := resolver.Resolve(context.Background(), "acme")
	require.NoError(t, err)
	assert.True(t, match.Found)
	assert.Equal(t, domain.MatchFuzzyBest, match.MatchType)
	assert.Equal(t, short.ID, match.Record.ID)
	assert.Equal(t, []string{"acme corp", "acme corporation"}, match.Alternatives)
}

func TestResolve_FuzzyBestUsesCanonicalNamesAndCaps(t *testing.T) {
	store := memory.NewStore()
	for _, name := range []string{"acme a", "acme bb", "acme ccc", "acme dddd", "acme eeeee", "acme ffffff"} {
		seed(t, store, name, strPtr("Canonical "+name))
	}
	resolver := NewResolver(store.Companies(), discardLogger())

	match, err := resolver.Resolve(context.Background(), "acme")
	require.NoError(t, err)
	assert.Equal(t, domain.MatchFuzzyBest, match.MatchType)
	require.Len(t, match.Alternatives, domain.MaxAlternatives)
	assert.Equal(t, "Canonical acme a", match.Alternatives[0])
}

func TestResolve_CanonicalEqualityBeatsNameContains(t *testing.T) {
	store := memory.NewStore()
	seed(t, store, "ibm", nil)
	canonical := seed(t, store, "big blue", strPtr("IBM Research"))
	seed(t, store, "ibm research labs", nil)
	resolver := NewResolver(store.Companies(), discardLogger())

	match, err := resolver.Resolve(context.Background(), "ibm research")
	require.NoError(t, err)
	assert.Equal(t, domain.MatchFuzzyBest, match.MatchType)
	assert.Equal(t, canonical.ID, match.Record.ID)
}

func TestResolve_Idempotent(t *testing.T) {
	store := memory.NewStore()
	seed(t, store, "Acme Corp", nil)
	seed(t, store, "Acme Corporation", nil)
	resolver := NewResolver(store.Companies(), discardLogger())

	first, err := resolver.Resolve(context.Background(), "acme")
	require.NoError(t, err)
	second, err := resolver.Resolve(context.Background(), "acme")
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestSearch_GeneratesThenReusesRecord(t *testing.T) {
	store := memory.NewStore()
	gen := new(mockGenerator)
	gen.On("Generate", mock.Anything, "Acme").Return(&analysis.Analysis{
		Document:      json.RawMessage(`{"company_basic_info":{"company_legal_name":"Acme Inc."}}`),
		CanonicalName: strPtr("Acme Inc."),
	}, nil).Once()

	svc := NewService(store.Companies(), gen, discardLogger())

	var progress []string
	first, err := svc.Search(context.Background(), "  Acme ", func(msg string) { progress = append(progress, msg) })
	require.NoError(t, err)
	assert.True(t, first.Generated)
	assert.NotZero(t, first.Record.ID)
	assert.Equal(t, "acme", first.Record.CompanyName)
	assert.Equal(t, "Acme", first.Record.SearchQuery)
	assert.Equal(t, domain.RecordStatusSuccess, first.Record.Status)
	require.NotNil(t, first.Record.CanonicalName)
	assert.Equal(t, "Acme Inc.", *first.Record.CanonicalName)
	assert.Equal(t, []string{domain.ProgressChecking, domain.ProgressGenerating, domain.ProgressSaving}, progress)

	second, err := svc.Search(context.Background(), "Acme", nil)
	require.NoError(t, err)
	assert.False(t, second.Generated)
	assert.Equal(t, domain.MatchExact, second.Match.MatchType)
	assert.Equal(t, first.Record.ID, second.Record.ID)

	gen.AssertNumberOfCalls(t, "Generate", 1)
}

func TestSearch_EmptyName(t *testing.T) {
	gen := new(mockGenerator)
	svc := NewService(memory.NewStore().Companies(), gen, discardLogger())

	_, err := svc.Search(context.Background(), " \t ", nil)
	assert.ErrorIs(t, err, domain.ErrEmptyCompanyName)
	gen.AssertNotCalled(t, "Generate", mock.Anything, mock.Anything)
}

func TestSearch_GenerationFailureStoresNothing(t *testing.T) {
	store := memory.NewStore()
	gen := new(mockGenerator)
	genErr := &domain.GenerationError{CompanyName: "Nope", Attempts: 3, Err: errors.New("quota")}
	gen.On("Generate", mock.Anything, "Nope").Return(nil, genErr)

	svc := NewService(store.Companies(), gen, discardLogger())

	_, err := svc.Search(context.Background(), "Nope", nil)
	assert.True(t, domain.IsGenerationError(err))

	count, err := store.Companies().CountCompanies(context.Background(), "")
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestList_CursorPagination(t *testing.T) {
	store := memory.NewStore()
	for _, name := range []string{"a1", "b2", "c3", "d4", "e5"} {
		seed(t, store, name, nil)
	}
	svc := NewService(store.Companies(), new(mockGenerator), discardLogger())
	ctx := context.Background()

	all, err := svc.List(ctx, ListParams{Limit: 100})
	require.NoError(t, err)
	require.Len(t, all.Companies, 5)
	assert.False(t, all.HasMore)
	assert.Nil(t, all.NextCursor)

	var seen []int64
	params := ListParams{Limit: 2}
	pages := 0
	for {
		page, err := svc.List(ctx, params)
		require.NoError(t, err)
		pages++

		if pages == 1 {
			require.NotNil(t, page.Total)
			assert.Equal(t, 5, *page.Total)
			assert.Len(t, page.Companies, 2)
			assert.True(t, page.HasMore)
		} else {
			assert.Nil(t, page.Total)
		}

		for _, rec := range page.Companies {
			seen = append(seen, rec.ID)
		}
		if !page.HasMore {
			break
		}
		params.Cursor = page.NextCursor
	}

	assert.Equal(t, 3, pages)
	var want []int64
	for _, rec := range all.Companies {
		want = append(want, rec.ID)
	}
	assert.Equal(t, want, seen)
}

func TestList_OffsetAndDefaults(t *testing.T) {
	store := memory.NewStore()
	for _, name := range []string{"a1", "b2", "c3"} {
		seed(t, store, name, nil)
	}
	svc := NewService(store.Companies(), new(mockGenerator), discardLogger())

	page, err := svc.List(context.Background(), ListParams{Limit: 1, Offset: 1})
	require.NoError(t, err)
	require.Len(t, page.Companies, 1)
	assert.Equal(t, int64(2), page.Companies[0].ID)
	assert.True(t, page.HasMore)
	assert.Nil(t, page.Total)

	page, err = svc.List(context.Background(), ListParams{Offset: 1, Cursor: &storage.CompanyCursor{ID: 3}})
	require.NoError(t, err)
	assert.Len(t, page.Companies, 2)
	assert.Nil(t, page.Total)
}

func TestStats(t *testing.T) {
	store := memory.NewStore()
	seed(t, store, "acme", nil)
	svc := NewService(store.Companies(), new(mockGenerator), discardLogger())

	stats, err := svc.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, stats.TotalCompanies)
	assert.Equal(t, 1, stats.RecentAnalyses)
}
