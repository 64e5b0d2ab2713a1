package models

var genres = map[int]string{
	28:    "Action",
	12:    "Adventure",
	16:    "Animation",
	35:    "Comedy",
	80:    "Crime",
	99:    "Documentary",
	18:    "Drama",
	10751: "Family",
	14:    "Fantasy",
	36:    "History",
	27:    "Horror",
	10402: "Music",
	9648:  "Mystery",
	10749: "Romance",
	878:   "Science Fiction",
	10770: "TV Movie",
	53:    "Thriller",
	10752: "War",
	37:    "Western",
}

// GenreLabel returns display name for a catalog genre id.
// Unknown ids have no label.
func GenreLabel(id int) (string, bool) {
	l, ok := genres[id]
	return l, ok
}

// GenreLabels maps ids to labels keeping order and skipping unknown ids.
func GenreLabels(ids []int) []string {
	var res []string
	for _, id := range ids {
		if l, ok := GenreLabel(id); ok {
			res = append(res, l)
		}
	}
	return res
}
