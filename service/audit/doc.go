// Package audit keeps the append-only, capped record of governance
// decisions. Entries are hash chained with BLAKE2b so that in-place edits
// are detected by Verify; overflow trims the oldest entries.
package audit
