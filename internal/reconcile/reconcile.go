// Package reconcile partitions freshly fetched items against the stored
// snapshot into updates and creates.
package reconcile

import (
	"fmt"

	"content_harvester/internal/domain"
	"content_harvester/internal/storage/tables"
)

// Result is the write set for one table.
type Result struct {
	Updates []tables.Record
	Creates []tables.Record
}

// KeyFunc returns the dedup key of a stored record. ok is false for rows
// that cannot be keyed; those rows never match.
type KeyFunc func(tables.Record) (key string, ok bool)

// Reconcile routes every fresh item to Updates when a stored record shares
// its key, carrying over the first such record's id, and to Creates
// otherwise. It does not mutate its inputs.
func Reconcile[T any](
	fresh []T,
	existing []tables.Record,
	freshKey func(T) string,
	storedKey KeyFunc,
	toRecord func(T) (map[string]any, error),
) (Result, error) {
	ids := make(map[string]string, len(existing))
	for _, rec := range existing {
		key, ok := storedKey(rec)
		if !ok {
			continue
		}
		if _, seen := ids[key]; !seen {
			ids[key] = rec.RecordID
		}
	}

	var res Result
	for _, item := range fresh {
		fields, err := toRecord(item)
		if err != nil {
			return Result{}, err
		}
		if id, ok := ids[freshKey(item)]; ok {
			res.Updates = append(res.Updates, tables.Record{RecordID: id, Fields: fields})
			continue
		}
		res.Creates = append(res.Creates, tables.Record{Fields: fields})
	}
	return res, nil
}

func postKey(name, platform string) string {
	return name + "|" + platform
}

// Posts keys posts by (name, platform) and stamps platform on each record.
func Posts(posts []domain.Post, existing []tables.Record, platform string) (Result, error) {
	res, err := Reconcile(posts, existing,
		func(p domain.Post) string { return postKey(p.Name, platform) },
		func(r tables.Record) (string, bool) {
			f, err := tables.DecodePostFields(r.Fields)
			if err != nil {
				return "", false
			}
			return postKey(f.Name, f.Platform), true
		},
		func(p domain.Post) (map[string]any, error) {
			return tables.NewPostFields(p, platform).Map()
		},
	)
	if err != nil {
		return Result{}, fmt.Errorf("reconcile posts: %w", err)
	}
	return res, nil
}

// Comments keys comments by their raw content. The owning post's title is
// resolved through posts; unresolved titles are left out of the record.
func Comments(comments []domain.RankedComment, posts []domain.Post, existing []tables.Record, platform string) (Result, error) {
	titles := make(map[string]string, len(posts))
	for _, p := range posts {
		if _, ok := titles[p.PostID]; !ok {
			titles[p.PostID] = p.Name
		}
	}

	res, err := Reconcile(comments, existing,
		func(c domain.RankedComment) string { return c.Content },
		func(r tables.Record) (string, bool) {
			f, err := tables.DecodeCommentFields(r.Fields)
			if err != nil {
				return "", false
			}
			return f.Text, true
		},
		func(c domain.RankedComment) (map[string]any, error) {
			return tables.NewCommentFields(c, platform, titles[c.PostID]).Map()
		},
	)
	if err != nil {
		return Result{}, fmt.Errorf("reconcile comments: %w", err)
	}
	return res, nil
}
