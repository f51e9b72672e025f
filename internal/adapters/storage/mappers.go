package storage

import "canopy/internal/domain"

// entryModelToDomain converts an EntryModel (GORM) to domain.SessionEntry
func entryModelToDomain(m EntryModel) domain.SessionEntry {
	return domain.SessionEntry{
		CreatedAt:     m.CreatedAt,
		PaneCount:     m.PaneCount,
		WindowIndex:   m.WindowIndex,
		WorkspaceName: m.WorkspaceName,
	}
}

// domainToEntryModel converts a domain.SessionEntry to EntryModel (GORM)
func domainToEntryModel(e domain.SessionEntry) EntryModel {
	return EntryModel{
		CreatedAt:     e.CreatedAt,
		PaneCount:     e.PaneCount,
		WindowIndex:   e.WindowIndex,
		WorkspaceName: e.WorkspaceName,
	}
}
