package model

// Theatre is an auditorium.  Rows and Columns describe the seat grid when
// known; Capacity is the total number of seats.
var Theatre = Schema{
	Collection: "Theatre",
	IDField:    "TheatreID",
	IDPolicy:   OptionalGenerated,
	Fields: []Field{
		{Name: "Capacity", Kind: KindInteger, Required: true, Rules: "gte=0"},
		{Name: "Rows", Kind: KindInteger, Rules: "gte=1"},
		{Name: "Columns", Kind: KindInteger, Rules: "gte=1"},
	},
}
