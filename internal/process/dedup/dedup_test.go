package dedup

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"newsgate/internal/core/domain"
	"newsgate/internal/process/normalize"
)

const (
	testThreshold = 0.8
	testWindow    = 7 * 24 * time.Hour
)

func normalizedArticle(t *testing.T, url, title, body string) domain.NormalizedContent {
	t.Helper()

	nc, err := normalize.Normalize(domain.Article{URL: url, Title: title, RawBody: body})
	if err != nil {
		t.Fatalf("Normalize() error = %v", err)
	}

	return nc
}

func TestCheckAndRegister_ExactDuplicate(t *testing.T) {
	ix := NewIndex(testThreshold, testWindow, nil)
	now := time.Now()

	body := "The transport ministry confirmed the new rail link will open in the spring, two years behind the original schedule."
	nc := normalizedArticle(t, "https://a.example/1", "Rail link opening", body)

	if res := ix.CheckAndRegister(nc, "https://a.example/1", now); res.IsDuplicate {
		t.Fatal("first submission reported as duplicate")
	}

	res := ix.CheckAndRegister(nc, "https://b.example/copy", now.Add(time.Minute))
	if !res.IsDuplicate {
		t.Fatal("second submission not reported as duplicate")
	}

	if res.MatchedURL != "https://a.example/1" {
		t.Errorf("MatchedURL = %q, want original url", res.MatchedURL)
	}
}

func TestCheckAndRegister_MatchWithinWindow(t *testing.T) {
	ix := NewIndex(testThreshold, testWindow, nil)
	now := time.Now()

	body := "Regulators approved the merger on condition that the combined group divests its regional retail arm within eighteen months."
	nc := normalizedArticle(t, "https://a.example/2", "Merger approved", body)

	ix.CheckAndRegister(nc, "https://a.example/2", now.Add(-2*24*time.Hour))

	res := ix.CheckAndRegister(nc, "https://b.example/2", now)
	if !res.IsDuplicate {
		t.Fatal("article identical to one seen 2 days ago not detected")
	}

	if res.MatchedURL != "https://a.example/2" {
		t.Errorf("MatchedURL = %q, want earlier article url", res.MatchedURL)
	}
}

func TestCheckAndRegister_NearDuplicate(t *testing.T) {
	ix := NewIndex(testThreshold, testWindow, nil)
	now := time.Now()

	base := "The finance ministry confirmed on monday that the new tax framework will take effect from january with transitional provisions for small businesses and exporters across all provinces of the country. " +
		"Under the revised schedule, companies below the registration threshold keep simplified quarterly reporting, while exporters gain an extended credit window intended to smooth the transition. " +
		"Industry groups broadly welcomed the changes, though several warned that the compliance tooling promised by the revenue service has yet to be delivered and tested at scale."
	ncA := normalizedArticle(t, "https://a.example/3", "Tax framework takes effect", base)
	ncB := normalizedArticle(t, "https://b.example/3", "New tax framework takes effect", base)

	if ncA.Fingerprint == ncB.Fingerprint {
		t.Fatal("test setup: variants should not share a fingerprint")
	}

	ix.CheckAndRegister(ncA, "https://a.example/3", now)

	res := ix.CheckAndRegister(ncB, "https://b.example/3", now.Add(time.Hour))
	if !res.IsDuplicate {
		t.Fatal("near-duplicate not detected")
	}

	if res.MatchedURL != "https://a.example/3" {
		t.Errorf("MatchedURL = %q, want https://a.example/3", res.MatchedURL)
	}
}

func TestCheckAndRegister_WindowEviction(t *testing.T) {
	ix := NewIndex(testThreshold, testWindow, nil)

	insertedAt := time.Now()
	body := "City officials unveiled the redesigned waterfront plan featuring expanded parkland and a dedicated cycle corridor."
	nc := normalizedArticle(t, "https://a.example/4", "Waterfront plan", body)

	ix.CheckAndRegister(nc, "https://a.example/4", insertedAt)

	// Just past the window: the old entry must not match.
	later := insertedAt.Add(testWindow + time.Second)

	res := ix.CheckAndRegister(nc, "https://b.example/4", later)
	if res.IsDuplicate {
		t.Error("entry outside lookback window still matched")
	}

	if ix.Size() != 1 {
		t.Errorf("Size() = %d after eviction and re-register, want 1", ix.Size())
	}
}

func TestCheckAndRegister_DistinctArticles(t *testing.T) {
	ix := NewIndex(testThreshold, testWindow, nil)
	now := time.Now()

	ncA := normalizedArticle(t, "https://a.example/5", "Harvest outlook",
		"Grain harvest projections were revised upward after favourable rainfall across the eastern growing regions this season.")
	ncB := normalizedArticle(t, "https://b.example/5", "Port expansion",
		"The port authority approved a major container terminal expansion expected to double annual throughput by the end of the decade.")

	if res := ix.CheckAndRegister(ncA, "https://a.example/5", now); res.IsDuplicate {
		t.Error("first article reported duplicate")
	}

	if res := ix.CheckAndRegister(ncB, "https://b.example/5", now); res.IsDuplicate {
		t.Error("distinct article reported duplicate")
	}

	if ix.Size() != 2 {
		t.Errorf("Size() = %d, want 2", ix.Size())
	}
}

func TestCheckAndRegister_ConcurrentSameArticle(t *testing.T) {
	ix := NewIndex(testThreshold, testWindow, nil)
	now := time.Now()

	body := "Negotiators reached a provisional agreement on the fishing quota dispute after three days of talks in the capital."
	nc := normalizedArticle(t, "https://a.example/6", "Quota agreement", body)

	const workers = 32

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		originals int
	)

	for i := 0; i < workers; i++ {
		wg.Add(1)

		go func(i int) {
			defer wg.Done()

			url := fmt.Sprintf("https://mirror%d.example/6", i)

			if res := ix.CheckAndRegister(nc, url, now); !res.IsDuplicate {
				mu.Lock()
				originals++
				mu.Unlock()
			}
		}(i)
	}

	wg.Wait()

	if originals != 1 {
		t.Errorf("concurrent submissions registered %d originals, want exactly 1", originals)
	}
}

func TestCheckAndRegister_DuplicateNotRegistered(t *testing.T) {
	ix := NewIndex(testThreshold, testWindow, nil)
	now := time.Now()

	body := "The observatory reported the brightest aurora display in a decade, visible far further south than usual overnight."
	nc := normalizedArticle(t, "https://a.example/7", "Aurora display", body)

	ix.CheckAndRegister(nc, "https://a.example/7", now)
	ix.CheckAndRegister(nc, "https://b.example/7", now)
	ix.CheckAndRegister(nc, "https://c.example/7", now)

	if ix.Size() != 1 {
		t.Errorf("Size() = %d, want 1 (duplicates must not re-register)", ix.Size())
	}
}
