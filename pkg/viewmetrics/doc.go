// Package viewmetrics reads content views from a Posit Connect server.
//
// Connect records two kinds of activity: visits (single page views of any
// content) and usage (sessions of interactive applications). This package
// queries both instrumentation endpoints and returns them as one ViewEvent
// type, visits first, then usage.
//
// Quick start:
//
//	c, err := viewmetrics.New("https://connect.example.com", os.Getenv("CONNECT_API_KEY"))
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	views, err := c.Find(ctx, viewmetrics.Filter{ContentGUID: guid})
//	for _, v := range views {
//	    fmt.Println(v.Source, v.UserGUID, v.Started)
//	}
//
// A Client is safe for concurrent use.
package viewmetrics
