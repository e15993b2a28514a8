package table

import "io"

// Compact merges one or more previously-written Table Files into a
// single fresh one, dropping superseded entries: if the same id
// appears in more than one source, the payload from the
// latest-positioned source in srcs wins. It rewrites the dataset from
// scratch rather than mutating in place, the same way the original
// index garbage collector produced a compacted replacement file instead
// of patching the live one.
func Compact[T Key](dst io.Writer, tmpDir string, srcs ...io.ReaderAt) error {
	merged := make(map[T][]byte)
	order := make([]T, 0)

	for _, src := range srcs {
		db, err := Open[T](src)
		if err != nil {
			return err
		}
		entries, err := db.All()
		if err != nil {
			return err
		}
		for _, e := range entries {
			if _, seen := merged[e.ID]; !seen {
				order = append(order, e.ID)
			}
			merged[e.ID] = e.Payload
		}
	}

	b, err := NewBuilder[T](tmpDir)
	if err != nil {
		return err
	}
	for _, id := range order {
		if err := b.Put(id, merged[id]); err != nil {
			return err
		}
	}
	return b.Close(dst)
}
