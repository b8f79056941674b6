// Package app wires configuration, logging, the webhook client, the session
// store, the coordinators, and the UI into one running patio session.
//
// # Startup
//
//	Run()
//	 ├─> config.LoadDotEnv() / config.Load()   file, then PATIO_* environment
//	 ├─> prefs.Load()                          theme, sort, delete confirmation
//	 ├─> logging.New()                         JSON lines to the log file
//	 ├─> webhook.NewClient()                   remote vehicle service
//	 ├─> state.Store{}                         one store per session
//	 ├─> mutation / deletion coordinators
//	 ├─> initialLoad()                         ReplaceAll with the server list
//	 ├─> StartPoller()                         background SmartMerge
//	 └─> ui.Run()                              blocks until exit
//
// # Polling Behavior
//
// The poller merges the server's list with state.Store.SmartMerge so
// vehicles with an edit in flight keep their optimistic version. A failed
// poll keeps the current collection, records the error on the store (the UI
// shows it as offline after two misses), and doubles the wait up to
// maxBackoff. An explicit reload from the UI uses ReplaceAll instead.
//
// # Error Handling
//
// Configuration, preference path, log file, and client setup errors are
// returned from Run. Fetch failures are logged and never stop the session.
package app
