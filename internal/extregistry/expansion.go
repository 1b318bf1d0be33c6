package extregistry

import "ftaggregate/internal/collaborators"

// ExpansionContext is handed to an Expander for one query token; it
// accumulates the token's synonym/phrase expansions and an optional
// payload, then is folded into a union (or left untouched) by finalize.
// This mirrors original_source/extension.c's RSQueryExpanderCtx, whose
// ExpandToken/ExpandTokenWithPhrase/SetPayload calls mutate the query node
// in place; here they accumulate into a new tree instead, since Go values
// are not mutated through pointers shared with the caller's AST by default.
type ExpansionContext struct {
	node     *collaborators.QueryNode
	expanded []*collaborators.QueryNode
	payload  []byte
	replaced *collaborators.QueryNode
}

// ExpandToken adds token as an additional alternative alongside the
// original token (e.g. a stemmed form or synonym).
func (c *ExpansionContext) ExpandToken(token string) {
	c.expanded = append(c.expanded, &collaborators.QueryNode{Kind: collaborators.NodeToken, Token: token})
}

// ExpandTokenWithPhrase adds an ordered sequence of tokens as an
// alternative to the original token (e.g. expanding an abbreviation into
// its full multi-word form). exact is carried for callers that care
// whether the phrase must match contiguously; both forms are modeled the
// same way here since the pipeline only consumes the resulting tree shape.
// If replace is set, the phrase node takes the original token's place
// outright instead of being unioned alongside it, matching
// original_source/extension.c's ExpandTokenWithPhrase: "if we're replacing
// - just set the expanded phrase instead of the token".
func (c *ExpansionContext) ExpandTokenWithPhrase(tokens []string, exact, replace bool) {
	children := make([]*collaborators.QueryNode, len(tokens))
	for i, t := range tokens {
		children[i] = &collaborators.QueryNode{Kind: collaborators.NodeToken, Token: t}
	}
	_ = exact
	phrase := &collaborators.QueryNode{Kind: collaborators.NodePhrase, Children: children}
	if replace {
		c.replaced = phrase
		return
	}
	c.expanded = append(c.expanded, phrase)
}

// SetPayload attaches an opaque payload to the expansion, carried through
// to the finalized union node.
func (c *ExpansionContext) SetPayload(payload []byte) {
	c.payload = payload
}

// finalize folds the original token and its expansions into a union node.
// If no expansions were added, the original token node is returned
// unchanged. A replace call (see ExpandTokenWithPhrase) wins outright: the
// phrase node takes the original token's place and any union expansions
// accumulated alongside it are discarded, matching the C original's
// "replacing" branch, which deletes the original node rather than
// wrapping it.
func (c *ExpansionContext) finalize() *collaborators.QueryNode {
	if c.replaced != nil {
		c.replaced.Payload = c.payload
		return c.replaced
	}
	if len(c.expanded) == 0 {
		return c.node
	}
	children := make([]*collaborators.QueryNode, 0, len(c.expanded)+1)
	children = append(children, c.node)
	children = append(children, c.expanded...)
	return &collaborators.QueryNode{Kind: collaborators.NodeUnion, Children: children, Payload: c.payload}
}
