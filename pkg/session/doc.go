// Package session provides the per-browser session store for the storefront.
//
// Each browser is identified by a random ID held in a cookie. Messages for
// that browser's next page load (the pending flash messages) are queued in
// a Store and taken all at once when the page renders:
//
//	store := session.NewMemoryStore()
//	defer store.Close()
//
//	id := session.NewID()
//	store.Append(ctx, id, entry, time.Now().Add(30*time.Minute))
//	entries, err := store.Take(ctx, id)
//
// Cookie helpers read the ID from a request or issue a new one.
package session
