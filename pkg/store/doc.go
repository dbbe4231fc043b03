// Package store persists what the storefront's forms collect: newsletter
// subscribers in SQLite and contact submissions in an archive (S3 in
// production, memory in development and tests).
package store
