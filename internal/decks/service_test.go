package decks

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/somacore/roledeck/internal/resume"
	"github.com/somacore/roledeck/internal/shared/storage/object/local"
)

type fakeStructurer struct {
	mu    sync.Mutex
	calls int
	out   resume.StructuredResume
	err   error
}

func (f *fakeStructurer) Structure(ctx context.Context, rawText string) (resume.StructuredResume, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return f.out, f.err
}

func newTestService(t *testing.T, structurer resume.Structurer) (*Service, *MemoryRepo) {
	t.Helper()
	repo := NewMemoryRepo()
	clock := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	svc := &Service{
		Repo:       repo,
		Store:      local.New(t.TempDir(), "http://localhost:8080", []byte("secret")),
		Structurer: structurer,
		Now: func() time.Time {
			clock = clock.Add(time.Second)
			return clock
		},
	}
	return svc, repo
}

func TestSubmitStructuresUploadedResume(t *testing.T) {
	structurer := &fakeStructurer{out: resume.StructuredResume{
		FullName: "Ada Lovelace",
		Skills:   []string{"Go"},
	}}
	svc, _ := newTestService(t, structurer)
	ctx := context.Background()

	deck, err := svc.Submit(ctx, "u1", SubmitInput{
		Company:       "Acme Corp",
		Slug:          "platform-engineer",
		CoverLetter:   "Hello Acme",
		TrackingEmail: "ada@example.com",
		FileName:      "resume.txt",
		File:          strings.NewReader("Ada Lovelace, engineer with analytical engines experience"),
	})
	require.NoError(t, err)
	require.Equal(t, 1, structurer.calls)
	require.NotEmpty(t, deck.ResumeURL)
	require.Equal(t, "Hello Acme", deck.IntroText())

	stored, err := svc.Get(ctx, "u1", deck.ID)
	require.NoError(t, err)
	rec := stored.Record()
	require.NotNil(t, rec.FormattedResume)
	require.Equal(t, "Ada Lovelace", rec.FormattedResume.FullName)
	require.Equal(t, resume.BodyRawText, rec.Body.Kind())
}

func TestSubmitLeavesFormattedEmptyWhenStructuringFails(t *testing.T) {
	svc, _ := newTestService(t, &fakeStructurer{err: errors.New("model unavailable")})

	deck, err := svc.Submit(context.Background(), "u1", SubmitInput{
		Company:  "Acme",
		Slug:     "role",
		FileName: "resume.txt",
		File:     strings.NewReader("plenty of resume text to structure later"),
	})
	require.NoError(t, err)
	require.Empty(t, deck.FormattedResume)
	require.Equal(t, "plenty of resume text to structure later", resume.ParseBody(deck.ResumeBody).Text())
}

func TestSubmitWithoutFile(t *testing.T) {
	structurer := &fakeStructurer{}
	svc, _ := newTestService(t, structurer)

	deck, err := svc.Submit(context.Background(), "u1", SubmitInput{Company: "Acme", Slug: "role"})
	require.NoError(t, err)
	require.Zero(t, structurer.calls)
	require.Empty(t, deck.ResumeURL)
	require.Empty(t, deck.ResumeBody)
}

func TestSubmitRejectsMissingSlug(t *testing.T) {
	svc, _ := newTestService(t, nil)
	_, err := svc.Submit(context.Background(), "u1", SubmitInput{Company: "Acme", Slug: "  "})
	require.ErrorIs(t, err, ErrInvalidInput)
}

func TestSubmitPublicKeepsSinglePrimary(t *testing.T) {
	svc, _ := newTestService(t, nil)
	ctx := context.Background()

	first, err := svc.Submit(ctx, "u1", SubmitInput{Slug: "main", IsPublic: true})
	require.NoError(t, err)
	second, err := svc.Submit(ctx, "u1", SubmitInput{Slug: "main-v2", IsPublic: true})
	require.NoError(t, err)

	items, err := svc.List(ctx, "u1")
	require.NoError(t, err)
	primaries := 0
	for _, d := range items {
		if d.IsPublic {
			primaries++
			require.Equal(t, second.ID, d.ID)
		}
	}
	require.Equal(t, 1, primaries)

	_, err = svc.SetPrimary(ctx, "u1", first.ID)
	require.NoError(t, err)
	primary, err := svc.Repo.FindPrimary(ctx, "u1")
	require.NoError(t, err)
	require.Equal(t, first.ID, primary.ID)
}

func TestSetPrimaryRejectsOtherTenantsDeck(t *testing.T) {
	svc, _ := newTestService(t, nil)
	ctx := context.Background()
	deck, err := svc.Submit(ctx, "u1", SubmitInput{Slug: "main"})
	require.NoError(t, err)

	_, err = svc.SetPrimary(ctx, "u2", deck.ID)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestDuplicateDefaults(t *testing.T) {
	svc, _ := newTestService(t, &fakeStructurer{out: resume.StructuredResume{FullName: "Ada"}})
	ctx := context.Background()
	src, err := svc.Submit(ctx, "u1", SubmitInput{
		Company:     "Acme",
		Slug:        "engineer",
		CoverLetter: "intro",
		IsPublic:    true,
		FileName:    "resume.txt",
		File:        strings.NewReader("Ada Lovelace resume text body"),
	})
	require.NoError(t, err)

	dup, err := svc.Duplicate(ctx, "u1", src.ID, DuplicateInput{})
	require.NoError(t, err)
	require.NotEqual(t, src.ID, dup.ID)
	require.Equal(t, "Acme (Copy)", dup.Company)
	require.Equal(t, "engineer-copy", dup.Slug)
	require.False(t, dup.IsPublic)
	require.Equal(t, src.ResumeURL, dup.ResumeURL)
	require.JSONEq(t, string(src.FormattedResume), string(dup.FormattedResume))
	require.Equal(t, "intro", dup.IntroText())
}

func TestDuplicateOverrides(t *testing.T) {
	svc, _ := newTestService(t, nil)
	ctx := context.Background()
	src, err := svc.Submit(ctx, "u1", SubmitInput{Company: "Acme", Slug: "engineer", CoverLetter: "old"})
	require.NoError(t, err)

	company, slug, letter := "Globex", "staff-engineer", "new intro"
	dup, err := svc.Duplicate(ctx, "u1", src.ID, DuplicateInput{Company: &company, Slug: &slug, CoverLetter: &letter})
	require.NoError(t, err)
	require.Equal(t, "Globex", dup.Company)
	require.Equal(t, "staff-engineer", dup.Slug)
	require.Equal(t, "new intro", dup.IntroText())
}

func TestArchiveHidesDeck(t *testing.T) {
	svc, _ := newTestService(t, nil)
	ctx := context.Background()
	deck, err := svc.Submit(ctx, "u1", SubmitInput{Company: "Acme", Slug: "engineer", IsPublic: true})
	require.NoError(t, err)

	require.NoError(t, svc.Archive(ctx, "u1", deck.ID))
	require.ErrorIs(t, svc.Archive(ctx, "u1", deck.ID), ErrNotFound)

	_, err = svc.Get(ctx, "u1", deck.ID)
	require.ErrorIs(t, err, ErrNotFound)
	_, err = svc.Repo.FindPrimary(ctx, "u1")
	require.ErrorIs(t, err, ErrNotFound)
	_, err = svc.Repo.FindTailored(ctx, "u1", "Acme", "engineer")
	require.ErrorIs(t, err, ErrNotFound)

	items, err := svc.List(ctx, "u1")
	require.NoError(t, err)
	require.Empty(t, items)
}

type failingCreateRepo struct {
	*MemoryRepo
}

func (failingCreateRepo) Create(ctx context.Context, deck Deck) error {
	return errors.New("insert failed")
}

func TestSubmitPublicFailureLeavesPrimaryUntouched(t *testing.T) {
	svc, repo := newTestService(t, nil)
	ctx := context.Background()
	current, err := svc.Submit(ctx, "u1", SubmitInput{Slug: "main", IsPublic: true})
	require.NoError(t, err)

	svc.Repo = failingCreateRepo{MemoryRepo: repo}
	_, err = svc.Submit(ctx, "u1", SubmitInput{Slug: "main-v2", IsPublic: true})
	require.Error(t, err)

	items, err := repo.ListActive(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, items, 1)
	primary, err := repo.FindPrimary(ctx, "u1")
	require.NoError(t, err)
	require.Equal(t, current.ID, primary.ID)
}

func TestFindTailoredMatchesHyphensAndCase(t *testing.T) {
	svc, _ := newTestService(t, nil)
	ctx := context.Background()
	deck, err := svc.Submit(ctx, "u1", SubmitInput{Company: "Acme Corp", Slug: "Senior Engineer"})
	require.NoError(t, err)

	got, err := svc.Repo.FindTailored(ctx, "u1", "acme-corp", "senior-engineer")
	require.NoError(t, err)
	require.Equal(t, deck.ID, got.ID)

	_, err = svc.Repo.FindTailored(ctx, "u2", "acme-corp", "senior-engineer")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestMemorySaveFormattedResumeIsConditional(t *testing.T) {
	repo := NewMemoryRepo()
	ctx := context.Background()
	require.NoError(t, repo.Create(ctx, Deck{ID: "d1", UserID: "u1", Slug: "s"}))

	require.NoError(t, repo.SaveFormattedResume(ctx, "d1", nil, resume.StructuredResume{FullName: "First"}))
	require.NoError(t, repo.SaveFormattedResume(ctx, "d1", nil, resume.StructuredResume{FullName: "Second"}))

	deck, err := repo.GetForOwner(ctx, "u1", "d1")
	require.NoError(t, err)
	require.Equal(t, "First", deck.Record().FormattedResume.FullName)
}

func TestHealReplacesPartialFormattedResumeOnce(t *testing.T) {
	repo := NewMemoryRepo()
	ctx := context.Background()
	require.NoError(t, repo.Create(ctx, Deck{
		ID:              "d1",
		UserID:          "u1",
		Slug:            "s",
		ResumeBody:      resume.RawText("Jane DoeMarketingManager at AcmeCorp 2020-2023").JSON(),
		FormattedResume: json.RawMessage(`{"full_name":"Jane"}`),
	}))

	structurer := &fakeStructurer{out: resume.StructuredResume{FullName: "Jane Doe", Skills: []string{"Marketing"}}}
	n := &resume.Normalizer{Structurer: structurer, Store: repo}
	for i := 0; i < 3; i++ {
		deck, err := repo.GetForOwner(ctx, "u1", "d1")
		require.NoError(t, err)
		got := n.Normalize(ctx, deck.Record())
		require.NotNil(t, got)
		require.Equal(t, "Jane Doe", got.FullName)
	}
	require.Equal(t, 1, structurer.calls)

	deck, err := repo.GetForOwner(ctx, "u1", "d1")
	require.NoError(t, err)
	require.JSONEq(t, `{"full_name":"Jane Doe","skills":["Marketing"],"experience":[]}`, string(deck.FormattedResume))
}

func TestIntroText(t *testing.T) {
	cases := []struct {
		name string
		raw  string
		want string
	}{
		{name: "object", raw: `{"content":"Hi there"}`, want: "Hi there"},
		{name: "bare string", raw: `"Hello"`, want: "Hello"},
		{name: "empty", raw: ``, want: ""},
		{name: "other shape", raw: `[1,2]`, want: ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			deck := Deck{CoverLetter: []byte(tc.raw)}
			require.Equal(t, tc.want, deck.IntroText())
		})
	}
}
