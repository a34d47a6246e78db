package proxy

// Page represents one window of a full inventory listing, together with the
// window parameters and the total listing size
type Page[T any] struct {
	Offset     uint64 `json:"offset"`
	Limit      uint64 `json:"limit"`
	TotalCount uint64 `json:"total_count"`
	Data       []T    `json:"data"`
}

// NewPage cuts the requested window out of the given full listing
func NewPage[T any](objs []T, offset, limit uint64) *Page[T] {
	data := []T{}
	if offset < uint64(len(objs)) {
		end := offset + limit
		if end > uint64(len(objs)) {
			end = uint64(len(objs))
		}
		data = objs[offset:end]
	}
	return &Page[T]{
		Offset:     offset,
		Limit:      limit,
		TotalCount: uint64(len(objs)),
		Data:       data,
	}
}
