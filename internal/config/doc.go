// Package config loads the storefront's runtime configuration.
//
// Values come from, in increasing priority: built-in defaults, a
// storefront.yaml (or .json/.toml) file in the working directory or the
// file given with --config, and STOREFRONT_* environment variables, where
// dots in a key become underscores:
//
//	STOREFRONT_SERVER_ADDRESS=:9090
//	STOREFRONT_TOAST_POLICY=legacy
//	STOREFRONT_STORE_S3_BUCKET=medihome-contact
//
// # Configuration File Structure
//
//	server:
//	  address: ":8080"
//	  shutdown_timeout: 15s
//	toast:
//	  duration: 3s
//	  policy: replace
//	flash:
//	  stagger: 150ms
//	  visible: 2s
//	  fade: 500ms
//	store:
//	  sqlite_path: data/storefront.db
//	  archive: s3
//	  s3:
//	    bucket: medihome-contact
//	    region: ap-south-1
//
// Invalid values are reported as coded errors from internal/errors.
package config
