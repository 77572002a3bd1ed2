package extractor

import "context"

const errDirectNoRecipe = "Could not extract recipe from URL - no schema.org/Recipe found"

func (p *Pipeline) directFlow() flow {
	return flow{
		name:      "direct",
		steps:     []step{{"schema_page", p.tryDirectPage}},
		exhausted: directExhausted,
	}
}

func directExhausted(st *flowState) *Result {
	res := failed(PlatformDirectURL, errDirectNoRecipe)
	res.RecipePageURL = st.req.URL
	return res
}

func (p *Pipeline) tryDirectPage(ctx context.Context, st *flowState) stepOutcome {
	parsed, ok := p.fetchSchema(ctx, st.req.URL)
	if !ok {
		return noSignal()
	}
	res := succeeded(MethodSchemaOrg, PlatformDirectURL, parsed, confidenceDirect)
	res.RecipePageURL = st.req.URL
	res.RecipeSiteName = parsed.SiteName
	res.AuthorName = parsed.Author
	return accept(res)
}
