package classifier

import (
	"sort"
	"strings"

	"github.com/Luismorlan/dailydrop/model"
)

// keywordRule maps a substring to a fixed heuristic confidence. The fallback
// classifier scans title+description+categories for these, case insensitive.
type keywordRule struct {
	keyword    string
	confidence float64
}

// topicKeywordRules is keyed by topic catalogue names. Confidences are fixed
// heuristics in [0.5, 0.9], distinct from the cosine scores of the embedding
// path which are bounded below by the classifier threshold.
var topicKeywordRules = map[string][]keywordRule{
	"AI/ML": {
		{"machine learning", 0.9},
		{"artificial intelligence", 0.9},
		{"llm", 0.85},
		{"neural network", 0.85},
		{"openai", 0.8},
		{"deep learning", 0.85},
		{"chatgpt", 0.8},
		{"data science", 0.7},
	},
	"DevOps": {
		{"kubernetes", 0.9},
		{"docker", 0.85},
		{"terraform", 0.85},
		{"ci/cd", 0.8},
		{"aws", 0.7},
		{"sre", 0.7},
		{"observability", 0.7},
	},
	"Security": {
		{"vulnerability", 0.85},
		{"cve-", 0.9},
		{"ransomware", 0.85},
		{"zero-day", 0.85},
		{"encryption", 0.7},
		{"phishing", 0.75},
	},
	"Web Development": {
		{"javascript", 0.8},
		{"typescript", 0.8},
		{"react", 0.75},
		{"css", 0.7},
		{"browser", 0.6},
		{"frontend", 0.7},
	},
	"Mobile": {
		{"android", 0.8},
		{"ios ", 0.8},
		{"swift", 0.7},
		{"kotlin", 0.75},
		{"app store", 0.7},
	},
	"Design": {
		{"figma", 0.9},
		{"user experience", 0.8},
		{"ux ", 0.7},
		{"design system", 0.8},
		{"typography", 0.7},
	},
	"Product": {
		{"product manager", 0.85},
		{"roadmap", 0.7},
		{"user research", 0.75},
		{"a/b test", 0.75},
	},
	"Startups": {
		{"startup", 0.8},
		{"fundraising", 0.8},
		{"venture capital", 0.85},
		{"seed round", 0.85},
		{"y combinator", 0.8},
	},
	"Data": {
		{"postgres", 0.8},
		{"database", 0.75},
		{"sql", 0.7},
		{"data pipeline", 0.8},
		{"analytics", 0.6},
	},
	"Open Source": {
		{"open source", 0.85},
		{"github", 0.6},
		{"license", 0.55},
		{"maintainer", 0.7},
	},
	"Career": {
		{"hiring", 0.7},
		{"interview", 0.65},
		{"promotion", 0.6},
		{"engineering manager", 0.8},
	},
	"Engineering": {
		{"programming", 0.6},
		{"software", 0.5},
		{"golang", 0.7},
		{"rust", 0.65},
		{"compiler", 0.7},
	},
}

// genericFallbackConfidence is assigned when no keyword matches at all.
const genericFallbackConfidence = 0.5

// RuleMatch is one fallback classification by topic name. The caller resolves
// names to topic ids against the seeded catalogue.
type RuleMatch struct {
	TopicName  string
	Confidence float64
}

// MatchKeywords runs the keyword table over the text and returns matches
// sorted by confidence descending, capped at maxLabels. If nothing matches,
// the generic topic is returned so every article keeps at least one topic
// association for downstream ranking.
func MatchKeywords(text string, maxLabels int) []RuleMatch {
	lowered := strings.ToLower(text)

	matches := []RuleMatch{}
	for topicName, rules := range topicKeywordRules {
		best := 0.0
		for _, rule := range rules {
			if strings.Contains(lowered, rule.keyword) && rule.confidence > best {
				best = rule.confidence
			}
		}
		if best > 0 {
			matches = append(matches, RuleMatch{TopicName: topicName, Confidence: best})
		}
	}

	if len(matches) == 0 {
		return []RuleMatch{{TopicName: model.GenericTopicName, Confidence: genericFallbackConfidence}}
	}

	sort.Slice(matches, func(i, j int) bool {
		if matches[i].Confidence != matches[j].Confidence {
			return matches[i].Confidence > matches[j].Confidence
		}
		// stable order for equal confidence, keeps tests deterministic
		return matches[i].TopicName < matches[j].TopicName
	})
	if len(matches) > maxLabels {
		matches = matches[:maxLabels]
	}
	return matches
}
