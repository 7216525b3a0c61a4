package model

// Film is a movie that can be screened.  Its identifier is chosen by the
// administrator (e.g. "Film1").  Trailer and Poster hold base64 media and are
// stored as given.
var Film = Schema{
	Collection: "Film",
	IDField:    "FilmID",
	IDPolicy:   CallerSupplied,
	Fields: []Field{
		{Name: "Name", Kind: KindString, Required: true},
		{Name: "Category", Kind: KindString, Required: true},
		{Name: "Genre", Kind: KindString, Required: true},
		{Name: "Duration", Kind: KindNumber, Required: true, Rules: "gt=0"},
		{Name: "Trailer", Kind: KindString},
		{Name: "Poster", Kind: KindString},
	},
}
