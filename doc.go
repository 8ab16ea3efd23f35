// Package glossa is the composition root for the glossa glossary highlighter.
//
// It wires the domain (package core) to a store adapter and runs the three
// cooperating components over an in-process message bus:
//
//   - **Dictionary Store**: an opaque key-value store holding the dictionary
//     under one key, with a change feed (memory, files with optional git
//     versioning, or SQLite).
//   - **Sync Relay**: holds the authoritative snapshot, answers point queries
//     and pushes every change to the scanners of open tabs.
//   - **Page Scanner**: tags term occurrences inside an HTML document with
//     tooltip markup, keeps them live as the page changes, and searches the
//     visible text.
//
// The settings surface (package settings) is the only writer: it validates
// input and persists through core.Service.
//
// Usage:
//
//	rt, err := glossa.New("./glossary",
//		glossa.WithAutoInit(true),
//		glossa.WithLogger(logger),
//	)
//	if err != nil {
//		return err
//	}
//	defer rt.Close()
//	if err := rt.Start(ctx); err != nil {
//		return err
//	}
//
//	tab, _ := rt.Open(ctx, "https://example.com", page)
//	rt.Settings.AddTerm(ctx, "cache", "stored data for reuse")
package glossa
