// Package timezone holds the application timezone, configured with APP_TIMEZONE using IANA names
// such as "UTC" or "Asia/Jakarta". Log timestamps are produced by Now.
package timezone
