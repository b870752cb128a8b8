// Package repository keeps source checkouts of Mythic and its plugins in place.
//
// A Manager decides what to do with a checkout and delegates the source
// control work to a Backend:
//
//   - no checkout at the path: a full checkout is made (Cloned)
//   - a checkout of the expected origin without local edits: it is fetched
//     and fast-forwarded (Updated or Unchanged)
//   - a checkout of another origin, with modified tracked files or with
//     diverged history: nothing is touched and a LocalModified advisory is
//     returned
//
// Untracked files never count as local modifications; the installation
// directory always holds files the upstream repository does not track
// (.env, plugin checkouts, mythic-ctl state).
//
// When a remote cannot be reached but a checkout exists, the checkout is
// used as it is and a warning is logged. Remote operations are retried with
// exponential backoff before giving up.
package repository
