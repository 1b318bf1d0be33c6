package pipeline

import (
	"strings"

	"ftaggregate/internal/aggerr"
	"ftaggregate/internal/aggregate"
	"ftaggregate/internal/collaborators"
	"ftaggregate/internal/extregistry"
)

// supportedLanguages is the stemmer-language set ApplyContext validates
// LANGUAGE against, grounded on original_source's RS_LANG_* table (trimmed
// to the languages this port's DocStore/QueryParser collaborators actually
// need to agree on a tag for).
var supportedLanguages = map[string]bool{
	"english": true, "german": true, "spanish": true, "french": true,
	"italian": true, "portuguese": true, "russian": true, "chinese": true,
}

// ApplyContext is the compiled request's second lifecycle stage (§3: New ->
// Compile -> ApplyContext -> BuildPipeline -> Execute -> Free), grounded on
// original_source/aggregate_request.c's AREQ::ApplyContext: it validates
// the options that need the runtime context to check (language, scorer
// name), parses the query string into an AST via parser, expands that AST
// through the named expander, and binds the index scan Builder.Build's
// RootProcessor will read from.
func ApplyContext(req *aggregate.Request, parser collaborators.QueryParser, registry *extregistry.Registry, reader collaborators.IndexReader) error {
	if req.Search.Language != "" && !supportedLanguages[strings.ToLower(req.Search.Language)] {
		return aggerr.New(aggerr.KindNoLanguage, "no such language %q", req.Search.Language).WithKeyword("LANGUAGE")
	}

	if req.Search.Scorer != "" {
		if registry == nil {
			return aggerr.New(aggerr.KindNoScorer, "SCORER %q given but no extension registry is configured", req.Search.Scorer).WithKeyword("SCORER")
		}
		if _, err := registry.Scorer(req.Search.Scorer); err != nil {
			return err
		}
	}

	ast, err := parser.Parse(req.Query)
	if err != nil {
		return aggerr.New(aggerr.KindParseArgs, "query parse: %v", err).WithKeyword(req.Query)
	}

	if req.Search.Expander != "" {
		if registry == nil {
			return aggerr.New(aggerr.KindInvalidArgument, "EXPANDER %q given but no extension registry is configured", req.Search.Expander).WithKeyword("EXPANDER")
		}
		ast, err = registry.ExpandTree(req.Search.Expander, ast)
		if err != nil {
			return err
		}
	}

	req.AST = ast
	req.Iterator = reader
	return nil
}
