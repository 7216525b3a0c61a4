package model

// Screening is a showing of a Film in a Theatre.  Identifiers are always
// minted from the "Screening" counter.
//
// Date is YYYY-MM-DD and StartTime is 24h HH:MM.
var Screening = Schema{
	Collection: "Screening",
	IDField:    "ScreeningID",
	IDPolicy:   Generated,
	Fields: []Field{
		{Name: "FilmID", Kind: KindString, Required: true, Ref: "Film"},
		{Name: "TheatreID", Kind: KindString, Required: true, Ref: "Theatre"},
		{Name: "Date", Kind: KindString, Required: true, Rules: "datetime=2006-01-02"},
		{Name: "StartTime", Kind: KindString, Required: true, Rules: "datetime=15:04"},
		{Name: "SeatsRemaining", Kind: KindInteger, Required: true, Rules: "gte=0"},
	},
}
