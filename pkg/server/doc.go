// Package server is the storefront's HTTP front end.
//
// It renders the page with its queued flash messages, accepts the contact
// and newsletter forms, serves invoice downloads and hands /live to the
// live session manager. Form handlers answer JSON to scripted requests and
// flash-then-redirect otherwise; scripted submissions are also echoed as a
// toast on every open tab of the submitting browser.
//
// Basic usage:
//
//	srv := server.New(server.DefaultConfig(),
//	    server.WithSubscribers(subs),
//	    server.WithLogger(logger),
//	)
//	if err := srv.Run(ctx); err != nil {
//	    log.Fatal(err)
//	}
package server
