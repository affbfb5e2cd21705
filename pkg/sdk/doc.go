// Package aegis is a Go client for the AEGIS Sonar query gateway.
//
//	client, _ := aegis.New("http://localhost:8080")
//	resp, err := client.Query(ctx, aegis.QueryRequest{
//	    Query: "heatwave mortality trends in South Asia",
//	    Mode:  aegis.ModeDeepResearch,
//	    Context: &aegis.QueryContext{Sectors: []string{"health", "climate"}},
//	})
//	if errors.Is(err, aegis.ErrRateLimited) {
//	    // back off
//	}
//
// Identical questions within the cache TTL are answered from the gateway
// cache; QueryResponse.Cached reports it.
package aegis
