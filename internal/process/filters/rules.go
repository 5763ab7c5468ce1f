package filters

import (
	"fmt"
	"os"
	"regexp"

	"gopkg.in/yaml.v3"

	cerrors "newsgate/internal/core/errors"
)

const defaultMinLength = 150

// ruleFile is the on-disk shape of a filter rules document. Every pattern is a
// regular expression compiled case-insensitively.
type ruleFile struct {
	MinLength           int      `yaml:"min_length"`
	WireSignatures      []string `yaml:"wire_signatures"`
	WirePublishers      []string `yaml:"wire_publishers"`
	PRSignatures        []string `yaml:"pr_signatures"`
	PlaceholderPatterns []string `yaml:"placeholder_patterns"`
	URLPatterns         []string `yaml:"url_patterns"`
}

// Rules holds the compiled pattern sets the quality filter evaluates.
// The rule set is data: it carries no evaluation order of its own, the
// Filterer applies the documented precedence.
type Rules struct {
	MinLength           int
	WireSignatures      []*regexp.Regexp
	WirePublishers      []*regexp.Regexp
	PRSignatures        []*regexp.Regexp
	PlaceholderPatterns []*regexp.Regexp
	URLPatterns         []*regexp.Regexp
}

// DefaultRules returns the built-in pattern sets covering major wire services,
// PR distributors, and breaking-news stub phrasing.
func DefaultRules() Rules {
	rules, err := compileRules(ruleFile{
		MinLength: defaultMinLength,
		WireSignatures: []string{
			`\(Reuters\)`,
			`\(AP\)`,
			`\(AFP\)`,
			`\(Bloomberg\)`,
			`\(PTI\)`,
			`\(IANS\)`,
			`Press Trust of India`,
			`PTI\s*-`,
			`ANI\s*-`,
			`IANS\s*-`,
			`UNI\s*-`,
			`News agencies`,
			`Wire services`,
			`Courtesy:.*Reuters`,
			`Source:.*AP\s`,
		},
		WirePublishers: []string{
			`^reuters$`,
			`^associated press$`,
			`^agence france.presse$`,
			`^afp$`,
			`^bloomberg$`,
			`^press trust of india$`,
		},
		PRSignatures: []string{
			`press release`,
			`FOR IMMEDIATE RELEASE`,
			`Business Wire`,
			`PR Newswire`,
			`PRWeb`,
			`Media Contact:`,
			`Contact:.*@.*\.`,
			`For more information.*visit`,
			`This is a sponsored`,
			`Paid advertisement`,
			`Disclaimer:.*investment`,
		},
		PlaceholderPatterns: []string{
			`^Live updates:`,
			`More details to follow`,
			`This is a developing story`,
			`Story will be updated`,
			`No additional details`,
			`Developing\.\.\.`,
		},
		URLPatterns: []string{
			`/press-release/`,
			`/pr/`,
			`/advertisement/`,
			`/sponsored/`,
			`/jobs/`,
			`/careers/`,
			`/obituary/`,
		},
	})
	if err != nil {
		// built-in patterns are tested; a compile failure here is a programming error
		panic(err)
	}

	return rules
}

// LoadRules reads a YAML rules file and compiles its pattern sets. Keys left
// out of the file fall back to the defaults. Compile failures are fatal
// configuration errors.
func LoadRules(path string) (Rules, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Rules{}, fmt.Errorf("read rules file %q: %w", path, cerrors.ErrInvalidConfig)
	}

	var rf ruleFile
	if err := yaml.Unmarshal(data, &rf); err != nil {
		return Rules{}, fmt.Errorf("parse rules file %q: %v: %w", path, err, cerrors.ErrInvalidConfig)
	}

	defaults := DefaultRules()

	if rf.MinLength <= 0 {
		rf.MinLength = defaults.MinLength
	}

	rules, err := compileRules(rf)
	if err != nil {
		return Rules{}, err
	}

	if len(rf.WireSignatures) == 0 {
		rules.WireSignatures = defaults.WireSignatures
	}

	if len(rf.WirePublishers) == 0 {
		rules.WirePublishers = defaults.WirePublishers
	}

	if len(rf.PRSignatures) == 0 {
		rules.PRSignatures = defaults.PRSignatures
	}

	if len(rf.PlaceholderPatterns) == 0 {
		rules.PlaceholderPatterns = defaults.PlaceholderPatterns
	}

	if len(rf.URLPatterns) == 0 {
		rules.URLPatterns = defaults.URLPatterns
	}

	return rules, nil
}

func compileRules(rf ruleFile) (Rules, error) {
	rules := Rules{MinLength: rf.MinLength}

	sets := []struct {
		name     string
		patterns []string
		dst      *[]*regexp.Regexp
	}{
		{"wire_signatures", rf.WireSignatures, &rules.WireSignatures},
		{"wire_publishers", rf.WirePublishers, &rules.WirePublishers},
		{"pr_signatures", rf.PRSignatures, &rules.PRSignatures},
		{"placeholder_patterns", rf.PlaceholderPatterns, &rules.PlaceholderPatterns},
		{"url_patterns", rf.URLPatterns, &rules.URLPatterns},
	}

	for _, set := range sets {
		compiled, err := compileSet(set.name, set.patterns)
		if err != nil {
			return Rules{}, err
		}

		*set.dst = compiled
	}

	return rules, nil
}

func compileSet(name string, patterns []string) ([]*regexp.Regexp, error) {
	compiled := make([]*regexp.Regexp, 0, len(patterns))

	for _, p := range patterns {
		re, err := regexp.Compile(`(?i)` + p)
		if err != nil {
			return nil, fmt.Errorf("%s pattern %q: %v: %w", name, p, err, cerrors.ErrInvalidConfig)
		}

		compiled = append(compiled, re)
	}

	return compiled, nil
}
