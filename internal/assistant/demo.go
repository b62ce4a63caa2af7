package assistant

import (
	"context"
	"fmt"
	"math/rand/v2"
	"os"
	"strings"
	"sync"

	"github.com/ashureev/wildscan/internal/domain"
	"gopkg.in/yaml.v3"
)

// DemoAnimals are the identifications the demo classifier picks from.
var DemoAnimals = []Identification{
	{AnimalID: "jaguar-001", Status: domain.StatusNearThreatened},
	{AnimalID: "capybara-001", Status: domain.StatusLeastConcern},
	{AnimalID: "poison-dart-frog-001", Status: domain.StatusVulnerable},
	{AnimalID: "giant-river-otter-001", Status: domain.StatusEndangered},
}

// Rule maps any of its keywords to a canned reply.
type Rule struct {
	Keywords []string `yaml:"keywords"`
	Reply    string   `yaml:"reply"`
}

// Rules is the full reply table of a KeywordResponder.
type Rules struct {
	Rules      []Rule `yaml:"rules"`
	ImageReply string `yaml:"image_reply"`
	Fallback   string `yaml:"fallback"`
}

// DefaultRules returns the built-in reply table.
func DefaultRules() Rules {
	return Rules{
		Rules: []Rule{
			{
				Keywords: []string{"jaguar"},
				Reply: "Jaguars are fascinating big cats! They're the largest cats in the Americas and have the strongest bite force of any big cat. " +
					"Unlike other big cats, jaguars are excellent swimmers and often hunt in water. " +
					"They're found primarily in the Amazon rainforest and are considered near threatened due to habitat loss.",
			},
			{
				Keywords: []string{"frog", "amphibian"},
				Reply: "Frogs are incredible amphibians! There are over 7,000 species worldwide. " +
					"They play crucial roles in ecosystems as both predators and prey. " +
					"Many frogs are indicators of environmental health - their permeable skin makes them sensitive to pollution and climate changes.",
			},
			{
				Keywords: []string{"bird"},
				Reply: "Birds are amazing creatures with over 10,000 species worldwide! They've adapted to virtually every habitat on Earth. " +
					"From tiny hummingbirds that can hover in place to massive eagles that soar for hours, " +
					"birds showcase incredible diversity in size, behavior, and ecological roles.",
			},
		},
		ImageReply: "I can see you've uploaded an image! In the full version of WildScan AI, I would analyze this image " +
			"and provide detailed information about the animal species. For now, this is a demo showing the chat interface. " +
			"Try asking me questions about animals!",
		Fallback: "That's a great question about wildlife! I'd love to help you learn more about animals. " +
			"In the full version of WildScan AI, I can provide detailed information about thousands of species, " +
			"their habitats, behaviors, and conservation status. What specific animal would you like to know about?",
	}
}

// LoadRules reads a reply table from a YAML file. Empty fields fall back to
// the defaults.
func LoadRules(path string) (Rules, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Rules{}, fmt.Errorf("read rules file: %w", err)
	}
	var r Rules
	if err := yaml.Unmarshal(data, &r); err != nil {
		return Rules{}, fmt.Errorf("parse rules file: %w", err)
	}

	def := DefaultRules()
	if len(r.Rules) == 0 {
		r.Rules = def.Rules
	}
	if r.ImageReply == "" {
		r.ImageReply = def.ImageReply
	}
	if r.Fallback == "" {
		r.Fallback = def.Fallback
	}
	for i, rule := range r.Rules {
		if len(rule.Keywords) == 0 || rule.Reply == "" {
			return Rules{}, fmt.Errorf("rule %d: keywords and reply are required", i)
		}
	}
	return r, nil
}

// Demo is an offline Assistant: classification picks a random demo animal and
// replies are matched on keywords.
type Demo struct {
	rules Rules

	mu  sync.Mutex
	rng *rand.Rand
}

// NewDemo creates a demo assistant. A nil rng uses a randomly seeded source.
func NewDemo(rules Rules, rng *rand.Rand) *Demo {
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return &Demo{rules: rules, rng: rng}
}

// Classify ignores the photo and returns one of DemoAnimals.
func (d *Demo) Classify(ctx context.Context, _ []byte) (Identification, error) {
	if err := ctx.Err(); err != nil {
		return Identification{}, err
	}
	d.mu.Lock()
	i := d.rng.IntN(len(DemoAnimals))
	d.mu.Unlock()
	return DemoAnimals[i], nil
}

// Respond returns the first rule whose keyword appears in text. An attached
// image always gets the image reply.
func (d *Demo) Respond(ctx context.Context, text string, hasImage bool) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if hasImage {
		return d.rules.ImageReply, nil
	}
	lower := strings.ToLower(text)
	for _, rule := range d.rules.Rules {
		for _, kw := range rule.Keywords {
			if strings.Contains(lower, strings.ToLower(kw)) {
				return rule.Reply, nil
			}
		}
	}
	return d.rules.Fallback, nil
}

// Close is a no-op.
func (d *Demo) Close() {}
