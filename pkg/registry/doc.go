// Package registry is a Go client for the federal proposal knowledge registry.
//
// The client runs queries in-process against either a Postgres catalog or a
// catalog YAML file loaded into memory:
//
//	client, _ := registry.New(ctx, registry.WithPostgres("postgres://reg@localhost/registry"))
//	defer client.Close()
//
//	res, _ := client.Query(ctx, registry.Query{
//	    Text:      "CMMC level 2 assessment",
//	    Dimension: "current",
//	    Limit:     5,
//	})
//	for _, s := range res.Sources {
//	    fmt.Println(s.AuthorityScore, s.Name, s.URL)
//	}
//
// Use errors.Is with ErrInvalidFilter, ErrInvalidQuery, ErrNotFound and
// ErrUnavailable to classify failures.
package registry
