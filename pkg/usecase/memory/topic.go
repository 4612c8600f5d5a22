package memory

import (
	"os"
	"regexp"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"gopkg.in/yaml.v3"
)

// TopicClassifier maps a question to a coarse topic label for memory grouping
type TopicClassifier interface {
	Classify(question string) string
}

// DefaultTopic labels questions that match no vocabulary entry
const DefaultTopic = "general"

var defaultVocabulary = []string{
	"database",
	"api",
	"system design",
	"algorithm",
	"testing",
	"security",
	"react",
	"node",
	"python",
	"java",
}

// KeywordClassifier assigns the vocabulary topic that appears earliest in the
// question text. Matches are case-insensitive and respect word boundaries, so
// "java" does not match "javascript".
type KeywordClassifier struct {
	topics   []string
	patterns []*regexp.Regexp
}

// NewKeywordClassifier builds a classifier over the given vocabulary. An empty
// vocabulary falls back to the built-in one.
func NewKeywordClassifier(vocabulary []string) *KeywordClassifier {
	if len(vocabulary) == 0 {
		vocabulary = defaultVocabulary
	}

	c := &KeywordClassifier{}
	for _, topic := range vocabulary {
		topic = strings.ToLower(strings.TrimSpace(topic))
		if topic == "" {
			continue
		}
		c.topics = append(c.topics, topic)
		c.patterns = append(c.patterns, regexp.MustCompile(`\b`+regexp.QuoteMeta(topic)+`\b`))
	}
	return c
}

func (c *KeywordClassifier) Classify(question string) string {
	question = strings.ToLower(question)

	best := -1
	topic := DefaultTopic
	for i, p := range c.patterns {
		loc := p.FindStringIndex(question)
		if loc == nil {
			continue
		}
		if best < 0 || loc[0] < best {
			best = loc[0]
			topic = c.topics[i]
		}
	}
	return topic
}

type vocabularyFile struct {
	Topics []string `yaml:"topics"`
}

// LoadVocabulary reads a topic vocabulary from a YAML file with a top-level
// "topics" list
func LoadVocabulary(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read vocabulary file", goerr.Value("path", path))
	}

	var file vocabularyFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, goerr.Wrap(err, "failed to parse vocabulary file", goerr.Value("path", path))
	}
	if len(file.Topics) == 0 {
		return nil, goerr.New("vocabulary file has no topics", goerr.Value("path", path))
	}
	return file.Topics, nil
}
