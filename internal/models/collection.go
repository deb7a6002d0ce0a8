package models

import "fmt"

// Record is anything stored in a collection, identified by a unique id
type Record interface {
	RecordID() string
}

// CollectionName identifies one of the three managed collections
type CollectionName string

const (
	CollectionMembers CollectionName = "members"
	CollectionNews    CollectionName = "news"
	CollectionEvents  CollectionName = "events"
)

// Collections lists the managed collections in publish order
var Collections = []CollectionName{CollectionMembers, CollectionNews, CollectionEvents}

// ParseCollectionName validates a collection name coming from a URL or flag
func ParseCollectionName(value string) (CollectionName, error) {
	for _, name := range Collections {
		if string(name) == value {
			return name, nil
		}
	}
	return "", fmt.Errorf("unknown collection %q", value)
}

// FileName returns the published file name, e.g. "members.json"
func (c CollectionName) FileName() string {
	return string(c) + ".json"
}

// StoreKey returns the local store key holding the collection
func (c CollectionName) StoreKey() string {
	return StoreKeyPrefix + string(c)
}

// Action is a mutation applied to a collection. The set of actions is closed:
// only Upsert and Delete implement the unexported apply method.
type Action[T Record] interface {
	apply(items []T) []T
}

// Upsert inserts Record when its id is absent, or replaces the record holding that id
type Upsert[T Record] struct {
	Record T
}

func (a Upsert[T]) apply(items []T) []T {
	return UpsertRecord(items, a.Record)
}

// Delete removes the record with ID if present
type Delete[T Record] struct {
	ID string
}

func (a Delete[T]) apply(items []T) []T {
	return DeleteRecord(items, a.ID)
}

// Apply runs action against items and returns the resulting collection.
// The input slice is never modified.
func Apply[T Record](items []T, action Action[T]) []T {
	return action.apply(items)
}

// UpsertRecord replaces the record sharing rec's id in place, or prepends rec
func UpsertRecord[T Record](items []T, rec T) []T {
	for i := range items {
		if items[i].RecordID() == rec.RecordID() {
			updated := Clone(items)
			updated[i] = rec
			return updated
		}
	}
	updated := make([]T, 0, len(items)+1)
	updated = append(updated, rec)
	return append(updated, items...)
}

// DeleteRecord returns items without any record holding id
func DeleteRecord[T Record](items []T, id string) []T {
	kept := make([]T, 0, len(items))
	for _, item := range items {
		if item.RecordID() != id {
			kept = append(kept, item)
		}
	}
	return kept
}

// FindRecord returns the record with id, if any
func FindRecord[T Record](items []T, id string) (T, bool) {
	for _, item := range items {
		if item.RecordID() == id {
			return item, true
		}
	}
	var zero T
	return zero, false
}

// Clone returns a shallow copy of items that is never nil
func Clone[T any](items []T) []T {
	cloned := make([]T, len(items))
	copy(cloned, items)
	return cloned
}

// Dataset is a snapshot of the three collections, in the shape of the publish request
type Dataset struct {
	Members []Member        `json:"members"`
	News    []NewsItem      `json:"news"`
	Events  []CalendarEvent `json:"events"`
}

// TreeEntry places a blob at a path inside a repository tree
type TreeEntry struct {
	Path    string
	BlobSHA string
}
