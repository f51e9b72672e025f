package domain

import "errors"

var (
	ErrWorkspaceExists   = errors.New("workspace already exists")
	ErrWorkspaceNotFound = errors.New("workspace not found")
	ErrUnknownBase       = errors.New("base branch does not exist")
	ErrOnBaseBranch      = errors.New("already on the base branch")
	ErrMergeConflict     = errors.New("merge conflict")
	ErrPortUnavailable   = errors.New("external tool unavailable")
	ErrInvalidConfig     = errors.New("invalid configuration")
	ErrEntryExists       = errors.New("session entry already exists")
	ErrEntryNotFound     = errors.New("session entry not found")
)
