// Package git checks whether a tome store file is exposed through a git
// work tree.
//
// A store inside a repository is fine as long as it is ignored; a store
// that is tracked ends up in history where its master password can be
// brute-forced offline.
package git
