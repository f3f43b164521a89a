package resume

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/somacore/roledeck/internal/llm"
)

type fakeStructurer struct {
	mu     sync.Mutex
	calls  []string
	result StructuredResume
	err    error
}

func (f *fakeStructurer) Structure(ctx context.Context, rawText string) (StructuredResume, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, rawText)
	return f.result, f.err
}

func (f *fakeStructurer) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

// memoryDecks mimics the conditional write of the deck repository.
type memoryDecks struct {
	mu        sync.Mutex
	formatted map[string]json.RawMessage
	bodies    map[string]json.RawMessage
	writes    int
	err       error
}

func newMemoryDecks() *memoryDecks {
	return &memoryDecks{formatted: map[string]json.RawMessage{}, bodies: map[string]json.RawMessage{}}
}

func (m *memoryDecks) SaveFormattedResume(ctx context.Context, deckID string, previous json.RawMessage, value StructuredResume) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	if string(m.formatted[deckID]) != string(previous) {
		return nil
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.formatted[deckID] = raw
	m.writes++
	return nil
}

func (m *memoryDecks) record(deckID string) Record {
	m.mu.Lock()
	defer m.mu.Unlock()
	return Record{
		DeckID:          deckID,
		FormattedResume: ParseFormatted(m.formatted[deckID]),
		StoredFormatted: m.formatted[deckID],
		Body:            ParseBody(m.bodies[deckID]),
	}
}

const glued = "Jane DoeMarketingManager at AcmeCorp 2020-2023"

func healedResume() StructuredResume {
	return StructuredResume{
		FullName: "Jane Doe",
		Skills:   []string{"Marketing"},
		Experience: []Experience{
			{Company: "Acme Corp", Role: "Marketing Manager", Dates: "2020-2023", Bullets: []string{}},
		},
	}
}

func TestNormalizeReturnsFormattedWithoutCalls(t *testing.T) {
	structurer := &fakeStructurer{}
	store := newMemoryDecks()
	n := &Normalizer{Structurer: structurer, Store: store}

	formatted := &StructuredResume{FullName: "A", Skills: []string{}, Experience: []Experience{}}
	got := n.Normalize(context.Background(), Record{
		DeckID:          "d1",
		FormattedResume: formatted,
		Body:            RawText(glued),
	})
	require.Same(t, formatted, got)
	require.Zero(t, structurer.count())
	require.Zero(t, store.writes)
}

func TestNormalizeHealsRawTextOnceAndPersists(t *testing.T) {
	structurer := &fakeStructurer{result: healedResume()}
	store := newMemoryDecks()
	store.bodies["d1"] = RawText(glued).JSON()
	n := &Normalizer{Structurer: structurer, Store: store}

	first := n.Normalize(context.Background(), store.record("d1"))
	require.NotNil(t, first)
	require.Equal(t, "Marketing Manager", first.Experience[0].Role)
	require.Equal(t, 1, structurer.count())
	require.Equal(t, []string{glued}, structurer.calls)
	require.Equal(t, 1, store.writes)

	second := n.Normalize(context.Background(), store.record("d1"))
	require.Equal(t, first, second)
	require.Equal(t, 1, structurer.count())
}

func TestNormalizeReplacesUnusableFormattedResume(t *testing.T) {
	for name, stored := range map[string]string{
		"partial object": `{"full_name":"Jane"}`,
		"json null":      `null`,
		"array":          `["Jane"]`,
	} {
		t.Run(name, func(t *testing.T) {
			structurer := &fakeStructurer{result: healedResume()}
			store := newMemoryDecks()
			store.formatted["d1"] = json.RawMessage(stored)
			store.bodies["d1"] = RawText(glued).JSON()
			n := &Normalizer{Structurer: structurer, Store: store}

			for i := 0; i < 3; i++ {
				got := n.Normalize(context.Background(), store.record("d1"))
				require.NotNil(t, got)
				require.Equal(t, "Jane Doe", got.FullName)
			}
			require.Equal(t, 1, structurer.count())
			require.Equal(t, 1, store.writes)
		})
	}
}

func TestNormalizeSkipsShortRawText(t *testing.T) {
	for _, text := range []string{"", "short", "0123456789", "ñññññññññö"} {
		structurer := &fakeStructurer{result: healedResume()}
		n := &Normalizer{Structurer: structurer, Store: newMemoryDecks()}
		require.Nil(t, n.Normalize(context.Background(), Record{DeckID: "d", Body: RawText(text)}), text)
		require.Zero(t, structurer.count())
	}

	structurer := &fakeStructurer{result: healedResume()}
	n := &Normalizer{Structurer: structurer, Store: newMemoryDecks()}
	require.NotNil(t, n.Normalize(context.Background(), Record{DeckID: "d", Body: RawText("01234567890")}))
	require.Equal(t, 1, structurer.count())
}

func TestNormalizeFailureLeavesStoreUntouched(t *testing.T) {
	cases := map[string]Structurer{
		"capability error": &fakeStructurer{err: errors.New("quota exceeded")},
		"prose answer":     LLMStructurer{Completer: completerFunc(func(string) (string, error) { return "Sure! Here it is.", nil })},
		"wrong shape":      LLMStructurer{Completer: completerFunc(func(string) (string, error) { return `{"name":"Jane"}`, nil })},
		"not configured":   LLMStructurer{Completer: llm.PlaceholderClient{}},
	}
	for name, structurer := range cases {
		t.Run(name, func(t *testing.T) {
			store := newMemoryDecks()
			store.bodies["d1"] = RawText(glued).JSON()
			n := &Normalizer{Structurer: structurer, Store: store}

			require.Nil(t, n.Normalize(context.Background(), store.record("d1")))
			require.Zero(t, store.writes)
			require.Nil(t, store.record("d1").FormattedResume)
		})
	}
}

func TestNormalizePersistFailureStillReturnsHealed(t *testing.T) {
	structurer := &fakeStructurer{result: healedResume()}
	store := newMemoryDecks()
	store.err = errors.New("db down")
	n := &Normalizer{Structurer: structurer, Store: store}

	got := n.Normalize(context.Background(), Record{DeckID: "d1", Body: RawText(glued)})
	require.NotNil(t, got)
	require.Equal(t, "Jane Doe", got.FullName)
}

func TestNormalizeLegacyObjectIsNotPersisted(t *testing.T) {
	structurer := &fakeStructurer{}
	store := newMemoryDecks()
	n := &Normalizer{Structurer: structurer, Store: store}

	got := n.Normalize(context.Background(), Record{
		DeckID: "d1",
		Body:   LegacyObject(json.RawMessage(`{"full_name":"Old","skills":["Go"]}`)),
	})
	require.NotNil(t, got)
	require.Equal(t, "Old", got.FullName)
	require.Zero(t, structurer.count())
	require.Zero(t, store.writes)
}

func TestNormalizeStoredStructuredBody(t *testing.T) {
	structurer := &fakeStructurer{}
	store := newMemoryDecks()
	store.bodies["d1"] = json.RawMessage(`{"full_name":"Jane","skills":["Go"],"experience":[{"company":"Acme","role":"PM","bullets":["Shipped"]}]}`)
	n := &Normalizer{Structurer: structurer, Store: store}

	rec := store.record("d1")
	require.Equal(t, BodyStructured, rec.Body.Kind())
	got := n.Normalize(context.Background(), rec)
	require.NotNil(t, got)
	require.Equal(t, "PM", got.Experience[0].Role)
	require.Zero(t, structurer.count())
	require.Zero(t, store.writes)
}

func TestNormalizeEmptyBody(t *testing.T) {
	structurer := &fakeStructurer{}
	n := &Normalizer{Structurer: structurer, Store: newMemoryDecks()}
	require.Nil(t, n.Normalize(context.Background(), Record{DeckID: "d1", Body: EmptyBody()}))
	require.Zero(t, structurer.count())
}

func TestNormalizeConcurrentColdReadsWriteOnce(t *testing.T) {
	structurer := &fakeStructurer{result: healedResume()}
	store := newMemoryDecks()
	n := &Normalizer{Structurer: structurer, Store: store}
	rec := Record{DeckID: "d1", Body: RawText(glued)}

	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NotNil(t, n.Normalize(context.Background(), rec))
		}()
	}
	wg.Wait()

	require.Equal(t, 2, structurer.count())
	require.Equal(t, 1, store.writes)
}

type completerFunc func(prompt string) (string, error)

func (f completerFunc) Complete(ctx context.Context, prompt string) (string, error) {
	return f(prompt)
}

func TestLLMStructurerBuildsPromptAndParses(t *testing.T) {
	var seen string
	s := LLMStructurer{Completer: completerFunc(func(prompt string) (string, error) {
		seen = prompt
		return `{"full_name":"Jane Doe","skills":["Go"],"experience":[{"company":"Acme","role":"PM","dates":"2020","bullets":["Shipped"]}]}`, nil
	})}

	got, err := s.Structure(context.Background(), glued)
	require.NoError(t, err)
	require.Equal(t, "Jane Doe", got.FullName)
	require.True(t, strings.HasSuffix(seen, glued))
	require.Contains(t, seen, "MarketingManager")
	require.Contains(t, seen, `"full_name"`)
}
