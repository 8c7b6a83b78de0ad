package qrfs

import "errors"

// Package-specific error variables that can be used with errors.Is() for error handling.
var (
	// ErrNoEnt is returned when an inode or a name inside a directory cannot be found.
	ErrNoEnt = errors.New("no such entry")

	// ErrNotDir is returned when a directory-only operation targets a regular file.
	ErrNotDir = errors.New("not a directory")

	// ErrIsDir is returned when a regular-file-only operation targets a directory.
	ErrIsDir = errors.New("is a directory")

	// ErrNotEmpty is returned by rmdir when the target directory still has children.
	ErrNotEmpty = errors.New("directory not empty")

	// ErrNameClash is returned by insert/rename when the destination name is already taken.
	ErrNameClash = errors.New("name already exists")

	// ErrNoSpace is returned when the block bitmap has no free block left to allocate.
	ErrNoSpace = errors.New("no space left on device")

	// ErrDenied is returned when a requested access mask is not satisfied by the entry's permission bits.
	ErrDenied = errors.New("permission denied")

	// ErrInvalidName is returned for names containing '/', equal to "." or "..", or longer than 25 bytes.
	ErrInvalidName = errors.New("invalid name")

	// ErrIO is returned when a read or write against the backing file fails.
	ErrIO = errors.New("backing file io error")

	// ErrWrongPassphrase is returned when an archive's passphrase sentinel does not match the expected passphrase.
	ErrWrongPassphrase = errors.New("wrong passphrase")

	// ErrCorruptMetadata is returned when the archive's metadata prefix fails to parse.
	ErrCorruptMetadata = errors.New("corrupt archive metadata")

	// ErrCorruptArchive is returned when the passphrase sentinel is not found within the image budget, or a data block reference is dangling.
	ErrCorruptArchive = errors.New("corrupt archive")
)
