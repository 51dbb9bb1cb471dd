package covers

// Join copies books and sets each copy's cover from results, keeping the
// original order. Books without a key or without a found cover get a nil URL.
func Join[T any](books []T, results BatchResult, query func(T) BookQuery, setCover func(*T, *string)) []T {
	joined := make([]T, len(books))
	copy(joined, books)

	for i := range joined {
		var cover *string
		if url, ok := results.Lookup(query(joined[i]).Key()); ok {
			cover = &url
		}
		setCover(&joined[i], cover)
	}
	return joined
}
