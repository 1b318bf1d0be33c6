package main

import (
	"strings"

	"ftaggregate/internal/collaborators"
	"ftaggregate/internal/extregistry"
	"ftaggregate/internal/pipeline"
)

// newExtensionRegistry builds the demo process's extregistry.Registry,
// registering a reference scorer and expander so `ftaggregate run` exercises
// the registry's ExpandTree/Scorer plumbing instead of leaving it wired but
// empty.
func newExtensionRegistry() *extregistry.Registry {
	reg := extregistry.New()
	_ = reg.RegisterScorer(pipeline.DefaultScorerName, termFrequencyScorer)
	_ = reg.RegisterExpander("stem", pluralExpander)
	return reg
}

// termFrequencyScorer is a reference Scorer: it counts how many times any
// whitespace-separated query token occurs across all of a document's field
// values. It is not a real TF-IDF implementation (there is no corpus-wide
// document frequency available here) — it exists to exercise the Scorer
// processor end to end against a real extregistry.Scorer function.
func termFrequencyScorer(doc collaborators.Document, query string) (float64, error) {
	terms := strings.Fields(strings.ToLower(query))
	if len(terms) == 0 {
		return 0, nil
	}
	var score float64
	for _, v := range doc.Fields {
		lower := strings.ToLower(v)
		for _, t := range terms {
			score += float64(strings.Count(lower, t))
		}
	}
	return score, nil
}

// pluralExpander is a reference Expander demonstrating the union-wrap path
// of the expansion protocol: a bare singular token also matches its plural
// form.
func pluralExpander(ctx *extregistry.ExpansionContext, token string) error {
	if !strings.HasSuffix(token, "s") {
		ctx.ExpandToken(token + "s")
	}
	return nil
}
