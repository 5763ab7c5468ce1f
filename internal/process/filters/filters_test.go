package filters

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"newsgate/internal/core/domain"
	cerrors "newsgate/internal/core/errors"
	"newsgate/internal/process/normalize"
)

const testErrReason = "Evaluate() reason = %v, want %v"

func normalized(t *testing.T, article domain.Article) domain.NormalizedContent {
	t.Helper()

	nc, err := normalize.Normalize(article)
	if err != nil {
		t.Fatalf("Normalize() error = %v", err)
	}

	return nc
}

func longBody(prefix string) string {
	return prefix + " The committee met for several hours to discuss the proposed changes to regional transport funding, hearing testimony from operators, local councils, and independent auditors before voting on the amended schedule."
}

func TestEvaluate_TooShort(t *testing.T) {
	f := New(DefaultRules())

	article := domain.Article{
		URL:     "https://example.com/short",
		Title:   "Short",
		RawBody: strings.Repeat("a", 40),
	}

	verdict := f.Evaluate(article, normalized(t, article))

	if verdict.Accepted {
		t.Fatal("Evaluate() accepted, want rejected")
	}

	if verdict.Reason != domain.ReasonTooShort {
		t.Errorf(testErrReason, verdict.Reason, domain.ReasonTooShort)
	}
}

func TestEvaluate_WireServiceBody(t *testing.T) {
	f := New(DefaultRules())

	article := domain.Article{
		URL:     "https://example.com/wire",
		Title:   "Markets rise",
		RawBody: longBody("(Reuters) - Stocks advanced on Tuesday as investors weighed fresh inflation data."),
	}

	verdict := f.Evaluate(article, normalized(t, article))

	if verdict.Reason != domain.ReasonWireService {
		t.Errorf(testErrReason, verdict.Reason, domain.ReasonWireService)
	}
}

func TestEvaluate_WirePublisher(t *testing.T) {
	f := New(DefaultRules())

	article := domain.Article{
		URL:       "https://example.com/agency",
		Title:     "Election results announced",
		Publisher: "Reuters",
		RawBody:   longBody("Officials confirmed the final tally late on Sunday after a recount in two districts."),
	}

	verdict := f.Evaluate(article, normalized(t, article))

	if verdict.Reason != domain.ReasonWireService {
		t.Errorf(testErrReason, verdict.Reason, domain.ReasonWireService)
	}
}

func TestEvaluate_PRContent(t *testing.T) {
	f := New(DefaultRules())

	article := domain.Article{
		URL:     "https://example.com/launch",
		Title:   "Acme launches product",
		RawBody: longBody("FOR IMMEDIATE RELEASE: Acme Corp today announced the launch of its new platform."),
	}

	verdict := f.Evaluate(article, normalized(t, article))

	if verdict.Reason != domain.ReasonPRContent {
		t.Errorf(testErrReason, verdict.Reason, domain.ReasonPRContent)
	}
}

func TestEvaluate_PRByURL(t *testing.T) {
	f := New(DefaultRules())

	article := domain.Article{
		URL:     "https://example.com/press-release/acme-q3",
		Title:   "Acme quarterly update",
		RawBody: longBody("The company reported steady growth across all segments in the third quarter."),
	}

	verdict := f.Evaluate(article, normalized(t, article))

	if verdict.Reason != domain.ReasonPRContent {
		t.Errorf(testErrReason, verdict.Reason, domain.ReasonPRContent)
	}
}

func TestEvaluate_Placeholder(t *testing.T) {
	f := New(DefaultRules())

	article := domain.Article{
		URL:     "https://example.com/breaking",
		Title:   "Explosion reported downtown",
		RawBody: longBody("Emergency services are responding to the scene. More details to follow as the situation develops."),
	}

	verdict := f.Evaluate(article, normalized(t, article))

	if verdict.Reason != domain.ReasonPlaceholder {
		t.Errorf(testErrReason, verdict.Reason, domain.ReasonPlaceholder)
	}
}

func TestEvaluate_RepetitiveBody(t *testing.T) {
	f := New(DefaultRules())

	article := domain.Article{
		URL:     "https://example.com/padded",
		Title:   "Update",
		RawBody: strings.TrimSpace(strings.Repeat("update pending soon ", 60)),
	}

	verdict := f.Evaluate(article, normalized(t, article))

	if verdict.Reason != domain.ReasonPlaceholder {
		t.Errorf(testErrReason, verdict.Reason, domain.ReasonPlaceholder)
	}
}

func TestEvaluate_Accepted(t *testing.T) {
	f := New(DefaultRules())

	article := domain.Article{
		URL:       "https://example.com/feature",
		Title:     "Inside the region's push for battery manufacturing",
		Publisher: "Example Tribune",
		RawBody:   longBody("A decade after the first plant opened, the corridor now employs twelve thousand workers."),
	}

	verdict := f.Evaluate(article, normalized(t, article))

	if !verdict.Accepted {
		t.Fatalf("Evaluate() rejected with %v, want accepted", verdict.Reason)
	}

	if verdict.Reason != domain.ReasonOK {
		t.Errorf(testErrReason, verdict.Reason, domain.ReasonOK)
	}
}

func TestEvaluate_PrecedenceTooShortFirst(t *testing.T) {
	f := New(DefaultRules())

	// Matches the wire pattern but is below min length; TOO_SHORT wins.
	article := domain.Article{
		URL:     "https://example.com/stub",
		Title:   "Stub",
		RawBody: "(Reuters) - Brief.",
	}

	verdict := f.Evaluate(article, normalized(t, article))

	if verdict.Reason != domain.ReasonTooShort {
		t.Errorf(testErrReason, verdict.Reason, domain.ReasonTooShort)
	}
}

func TestEvaluate_Deterministic(t *testing.T) {
	f := New(DefaultRules())

	article := domain.Article{
		URL:     "https://example.com/det",
		Title:   "Council approves budget",
		RawBody: longBody("The city council approved next year's budget with a narrow majority on Wednesday evening."),
	}

	nc := normalized(t, article)

	first := f.Evaluate(article, nc)
	for i := 0; i < 10; i++ {
		if got := f.Evaluate(article, nc); got != first {
			t.Fatalf("Evaluate() not deterministic: %v vs %v", got, first)
		}
	}
}

func TestLoadRules(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "rules.yaml")

	content := `
min_length: 99
wire_signatures:
  - '\(TestWire\)'
placeholder_patterns:
  - 'stay tuned'
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write rules: %v", err)
	}

	rules, err := LoadRules(path)
	if err != nil {
		t.Fatalf("LoadRules() error = %v", err)
	}

	if rules.MinLength != 99 {
		t.Errorf("MinLength = %d, want 99", rules.MinLength)
	}

	if len(rules.WireSignatures) != 1 {
		t.Errorf("WireSignatures count = %d, want 1", len(rules.WireSignatures))
	}

	// Unset keys fall back to defaults.
	if len(rules.PRSignatures) == 0 {
		t.Error("PRSignatures should fall back to defaults")
	}

	if !rules.WireSignatures[0].MatchString("(testwire)") {
		t.Error("patterns should compile case-insensitively")
	}
}

func TestLoadRules_MissingFile(t *testing.T) {
	_, err := LoadRules("/nonexistent/rules.yaml")
	if !cerrors.Is(err, cerrors.ErrInvalidConfig) {
		t.Errorf("LoadRules() error = %v, want ErrInvalidConfig", err)
	}
}

func TestLoadRules_BadPattern(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "rules.yaml")

	if err := os.WriteFile(path, []byte("pr_signatures:\n  - '['\n"), 0o600); err != nil {
		t.Fatalf("write rules: %v", err)
	}

	_, err := LoadRules(path)
	if !cerrors.Is(err, cerrors.ErrInvalidConfig) {
		t.Errorf("LoadRules() error = %v, want ErrInvalidConfig", err)
	}
}
