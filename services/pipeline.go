package services

import (
	"context"
	"errors"

	"civicwatch/extract"
	"civicwatch/normalize"
	"civicwatch/sources"
	"civicwatch/storage"
)

// normalizeAndWrite normalizes every record and writes the ones that carry a natural key.
// Records without one count as skipped.
func normalizeAndWrite[T any](
	ctx context.Context,
	w *storage.Writer,
	recs []extract.RawRecord,
	src sources.Source,
	norm func(extract.RawRecord, sources.Source) (T, error),
	write func(context.Context, *T) error,
) storage.BatchResult {
	var res storage.BatchResult
	items := make([]*T, 0, len(recs))
	for _, rec := range recs {
		item, err := norm(rec, src)
		if err != nil {
			if !errors.Is(err, normalize.ErrMissingKey) {
				res.Failed++
				continue
			}
			res.Skipped++
			continue
		}
		items = append(items, &item)
	}
	res.Add(storage.WriteBatch(ctx, w, items, write))
	return res
}

// storeRecords routes extracted records of one entity type to the matching normalizer
// and writer.
func storeRecords(ctx context.Context, w *storage.Writer, entity sources.EntityType, recs []extract.RawRecord, src sources.Source) storage.BatchResult {
	switch entity {
	case sources.EntityOfficials:
		return normalizeAndWrite(ctx, w, recs, src, normalize.Official, w.UpsertOfficial)
	case sources.EntityBills:
		return normalizeAndWrite(ctx, w, recs, src, normalize.Bill, w.UpsertBill)
	case sources.EntityVotes:
		return normalizeAndWrite(ctx, w, recs, src, normalize.Vote, w.InsertVoteIfAbsent)
	case sources.EntityStatements:
		return normalizeAndWrite(ctx, w, recs, src, normalize.Statement, func(ctx context.Context, d *normalize.StatementDraft) error {
			return w.InsertStatementIfSpeakerKnown(ctx, d.Speaker, d.Jurisdiction, &d.Statement)
		})
	case sources.EntityCommittees:
		return normalizeAndWrite(ctx, w, recs, src, normalize.Committee, w.UpsertCommittee)
	case sources.EntityElections:
		return normalizeAndWrite(ctx, w, recs, src, normalize.Election, w.UpsertElection)
	}
	return storage.BatchResult{}
}
