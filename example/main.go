// Minimal example for tirta: a page listing two artworks with a navigation
// link, rendered server-side with its GraphQL data prefetched and the cache
// snapshot embedded for browser hydration. A tiny in-process GraphQL
// endpoint stands in for a real API so the example is self-contained.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"html/template"
	"log"
	"net/http"

	"github.com/ambiyansyah-risyal/tirta"
)

var artworksOp = tirta.Operation{
	OperationName: "Artworks",
	Query:         `query Artworks { artworks { id title } }`,
}

type artwork struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

type artworksQuery struct {
	Artworks []artwork `json:"artworks"`
}

// artworksPage lists two artworks and links to the about page. It is
// stateless: the prefetch pass warms the client's cache, and rendering
// re-reads the data from there.
type artworksPage struct{}

func (artworksPage) Load(ctx context.Context, client tirta.Client) error {
	q, ok := client.(tirta.Querier)
	if !ok {
		return fmt.Errorf("client %T cannot execute queries", client)
	}
	return q.Query(ctx, artworksOp, nil)
}

func (artworksPage) Render(ctx context.Context, scope *tirta.RenderScope) ([]tirta.Component, error) {
	scope.Head.SetTitle("Artworks")
	return nil, nil
}

var pageTemplate = template.Must(template.New("page").Parse(`<!doctype html>
<html>
<head><title>{{.Title}}</title></head>
<body>
<ul>
{{range .Artworks}}  <li>{{.Title}}</li>
{{end}}</ul>
<a href="/about">About</a>
<script>window.__APOLLO_STATE__ = {{.State}};</script>
</body>
</html>
`))

func main() {
	mux := http.NewServeMux()

	// Stand-in GraphQL API.
	mux.HandleFunc("/graphql", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"data":{"artworks":[{"id":"1","title":"Mona Lisa"},{"id":"2","title":"The Starry Night"}]}}`)
	})

	wrapped := tirta.Wrap(artworksPage{},
		tirta.GraphQLConstructor("http://localhost:8080/graphql"),
		tirta.WithSSR(true),
		tirta.WithSimpleLogger(),
		tirta.WithMetrics(),
	)
	if !wrapped.IsValid() {
		log.Fatalf("invalid wrapper config: %v", wrapped.ValidationError())
	}

	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		rc := tirta.NewRequestContext(w, r)
		props, err := wrapped.InitialProps(r.Context(), rc)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		for _, ferr := range props.Report.Errors {
			log.Printf("prefetch: %v", ferr)
		}

		scope := wrapped.Scope(props)
		if _, err := wrapped.Render(r.Context(), scope); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}

		// Prefetch warmed the cache; this query is answered from it.
		var data artworksQuery
		if q, ok := scope.Client.(tirta.Querier); ok {
			if err := q.Query(r.Context(), artworksOp, &data); err != nil {
				log.Printf("query failed: %v", err)
			}
		}

		state, err := json.Marshal(props.State)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		rc.Response.Header().Set("Content-Type", "text/html; charset=utf-8")
		err = pageTemplate.Execute(rc.Response, map[string]any{
			"Title":    "Artworks",
			"Artworks": data.Artworks,
			"State":    template.JS(state),
		})
		if err != nil {
			log.Printf("render failed: %v", err)
		}
	})

	mux.HandleFunc("/about", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintln(w, "tirta example –", tirta.GetVersion())
	})

	log.Println("listening on :8080")
	log.Fatal(http.ListenAndServe(":8080", mux))
}
