package models

import (
	"fmt"

	"gorm.io/gorm"
)

// Document is one committed revision of a logical document group.
//
// Versions of the same uploaded file share a GroupKey (the sanitized
// original filename) and carry strictly increasing VersionNumber values
// starting at 1. A replace resolution mutates the latest record in place;
// a new-version resolution inserts a new record with VersionNumber+1.
type Document struct {
	gorm.Model

	// OriginalName is the sanitized, human-facing filename. It is
	// identical across every version of a group.
	OriginalName string `gorm:"size:120;not null"`

	// FileExtension is one of "pdf", "docx", "xlsx", "csv".
	FileExtension string `gorm:"size:20;not null"`

	// ExtractedText is the normalized textual representation of the
	// file contents. May be empty.
	ExtractedText string `gorm:"type:longtext"`

	// Category is the label assigned by the classifier, recomputed on
	// every write.
	Category string `gorm:"size:50;not null"`

	// UploadDate is the ISO date the version was committed.
	UploadDate string `gorm:"size:20;not null"`

	// VersionNumber is a positive integer, strictly increasing within a
	// group, never reused even after deletion.
	VersionNumber int `gorm:"not null;default:1"`

	// GroupKey is the logical identity shared by all versions of the
	// same document.
	GroupKey string `gorm:"size:120;not null;index"`

	// ContentHash is the hex SHA-256 digest of the stored content, used
	// for exact-duplicate detection. Unique among a group's live versions.
	ContentHash string `gorm:"size:64;index"`

	// OwnerID references the uploading principal. The archive records it
	// but never interprets it.
	OwnerID uint `gorm:"index"`

	// StoragePath is the blob object key, relative to the archive root:
	// <group>/v<version>/<original_name>.
	StoragePath string `gorm:"size:400;not null"`
}

func (Document) TableName() string {
	return "documents"
}

func (d *Document) String() string {
	return fmt.Sprintf("<Document %s v%d (%s)>", d.OriginalName, d.VersionNumber, d.Category)
}
