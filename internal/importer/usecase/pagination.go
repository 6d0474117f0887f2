package usecase

// maxEmptyPages is how many consecutive empty pages the loop tolerates
// before treating the feed as exhausted. Sparse id regions return empty
// pages without meaning the end of the data set.
const maxEmptyPages = 3

// resolveNextCursor picks the next pagination watermark: the largest of
// the server's lastId hint, the highest external id on the page, and the
// cursor plus one full batch. The batch floor guarantees forward
// progress even when the feed sends duplicated or out-of-range ids, so
// the loop can never spin on the same cursor.
func resolveNextCursor(current, pageHint, maxRecordID int64, batchSize int) int64 {
	next := current + int64(batchSize)
	if pageHint > next {
		next = pageHint
	}
	if maxRecordID > next {
		next = maxRecordID
	}
	return next
}

// exhausted decides whether the pagination loop is done. The server's
// masRegistros flag is authoritative when present; without it, an
// undersized non-empty page means the server sent its tail, and empty
// pages only end the run after maxEmptyPages in a row. The empty-page
// budget also bounds a server that claims more data but sends none.
func exhausted(recordCount, batchSize, consecutiveEmpty int, hasMore *bool) bool {
	if recordCount == 0 && consecutiveEmpty >= maxEmptyPages {
		return true
	}
	if hasMore != nil {
		return !*hasMore
	}
	if recordCount == 0 {
		return false
	}
	return recordCount < batchSize
}
