// Package catalog holds the static question bank used when no backend can
// produce questions.
package catalog

import (
	_ "embed"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/spigell/interview-rehearsal/internal/interview"
)

// BehavioralTag names the topic that is appended to every selection.
const BehavioralTag = "behavioral"

//go:embed catalog.yaml
var defaultDocument []byte

type document struct {
	Version int     `yaml:"version"`
	Topics  []topic `yaml:"topics"`
}

type topic struct {
	Tag string `yaml:"tag"`
	// Except lists longer words containing Tag that must not count as a
	// match, such as javascript for java.
	Except    []string                 `yaml:"except"`
	Questions []interview.QuestionItem `yaml:"questions"`
}

// matches reports whether the tag occurs in the lower-cased resume once every
// excepted word has been blanked out.
func (t topic) matches(resume string) bool {
	for _, word := range t.Except {
		resume = strings.ReplaceAll(resume, word, " ")
	}
	return strings.Contains(resume, t.Tag)
}

// Catalog is read-only after Load and safe for concurrent use.
type Catalog struct {
	version    int
	topics     []topic
	behavioral []interview.QuestionItem
}

// Default parses the embedded question bank.
func Default() (*Catalog, error) {
	return Load(defaultDocument)
}

// Load parses and validates a YAML catalog document. Topic order in the
// document is the selection order.
func Load(data []byte) (*Catalog, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}

	c := &Catalog{version: doc.Version}
	seenTags := make(map[string]struct{}, len(doc.Topics))

	for _, t := range doc.Topics {
		t.Tag = strings.ToLower(strings.TrimSpace(t.Tag))
		if t.Tag == "" {
			return nil, fmt.Errorf("catalog topic without tag")
		}
		if _, ok := seenTags[t.Tag]; ok {
			return nil, fmt.Errorf("catalog topic %q defined twice", t.Tag)
		}
		seenTags[t.Tag] = struct{}{}

		for i, word := range t.Except {
			word = strings.ToLower(strings.TrimSpace(word))
			if !strings.Contains(word, t.Tag) || word == t.Tag {
				return nil, fmt.Errorf("catalog topic %q: exception %q must be a longer word containing the tag", t.Tag, t.Except[i])
			}
			t.Except[i] = word
		}

		if err := validateTopic(t); err != nil {
			return nil, err
		}

		if t.Tag == BehavioralTag {
			c.behavioral = t.Questions
			continue
		}
		c.topics = append(c.topics, t)
	}

	if len(c.behavioral) == 0 {
		return nil, fmt.Errorf("catalog has no %q questions", BehavioralTag)
	}

	return c, nil
}

func validateTopic(t topic) error {
	ids := make(map[int]struct{}, len(t.Questions))
	for _, q := range t.Questions {
		if _, ok := ids[q.ID]; ok {
			return fmt.Errorf("catalog topic %q: duplicate id %d", t.Tag, q.ID)
		}
		ids[q.ID] = struct{}{}

		if strings.TrimSpace(q.Text) == "" {
			return fmt.Errorf("catalog topic %q: question %d has no text", t.Tag, q.ID)
		}

		switch q.Kind {
		case interview.KindTechnical, interview.KindBehavioral, interview.KindCoding:
		default:
			return fmt.Errorf("catalog topic %q: question %d has unknown type %q", t.Tag, q.ID, q.Kind)
		}

		switch q.Difficulty {
		case interview.DifficultyEasy, interview.DifficultyMedium, interview.DifficultyHard:
		default:
			return fmt.Errorf("catalog topic %q: question %d has unknown difficulty %q", t.Tag, q.ID, q.Difficulty)
		}

		if q.InitialCode != "" && q.Kind != interview.KindCoding {
			return fmt.Errorf("catalog topic %q: question %d has initial code but is not a coding question", t.Tag, q.ID)
		}
	}
	return nil
}

func (c *Catalog) Version() int { return c.version }

// Tags lists the topic tags in selection order, behavioral last.
func (c *Catalog) Tags() []string {
	tags := make([]string, 0, len(c.topics)+1)
	for _, t := range c.topics {
		tags = append(tags, t.Tag)
	}
	return append(tags, BehavioralTag)
}

// Select picks questions whose topic tag appears in the resume text, followed
// by the behavioral questions, deduplicated by id and cut to count.
// It never returns an empty result.
func (c *Catalog) Select(resumeText string, count interview.Count) interview.Questions {
	resume := strings.ToLower(resumeText)

	var selected interview.Questions
	for _, t := range c.topics {
		if t.matches(resume) {
			selected = append(selected, t.Questions...)
		}
	}
	selected = append(selected, c.behavioral...)

	unique := make(interview.Questions, 0, len(selected))
	seen := make(map[int]struct{}, len(selected))
	for _, q := range selected {
		if _, ok := seen[q.ID]; ok {
			continue
		}
		seen[q.ID] = struct{}{}
		unique = append(unique, q)
	}

	if len(unique) == 0 {
		unique = append(interview.Questions(nil), c.behavioral...)
	}

	if limit := count.Limit(); limit > 0 && len(unique) > limit {
		unique = unique[:limit]
	}

	return unique
}
