// Package tracker provides an embeddable CI status tracker: it collects test
// results from Travis CI builds and serves them as a ranked status matrix.
//
// # Basic Usage
//
// Create a tracker programmatically:
//
//	cfg := &tracker.Config{
//		Server: tracker.ServerConfig{Port: 8080},
//		Matrix: tracker.MatrixConfig{Encoding: "v2", Window: 10},
//		Provider: tracker.ProviderConfig{
//			Kind: "travis",
//			Options: map[string]interface{}{
//				"repo":  "ray-project/ray",
//				"token": os.Getenv("GH_TOKEN"),
//			},
//		},
//		Collector: tracker.CollectorConfig{Interval: 15 * time.Minute, OnStart: true},
//	}
//
//	t, err := tracker.New(cfg)
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer t.Close()
//
//	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
//	defer cancel()
//
//	if err := t.Start(ctx); err != nil {
//		log.Fatal(err)
//	}
//
// # Remote Mode
//
// A tracker in remote mode collects nothing and renders the payload of
// another tracker:
//
//	cfg := &tracker.Config{
//		Source: tracker.SourceConfig{Mode: "remote", UpstreamURL: "http://tracker.internal:8080"},
//	}
//
// # Using with Existing HTTP Server
//
//	http.Handle("/status/", http.StripPrefix("/status", t.Handler()))
//
// # Direct Service Access
//
//	table, err := t.Service().Table(ctx)
//	if err != nil {
//		log.Fatal(err)
//	}
//	for _, row := range table.Rows {
//		fmt.Println(row.DisplayName, row.FailedCount)
//	}
package tracker
