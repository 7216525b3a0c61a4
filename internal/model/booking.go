package model

var Booking = Schema{
	Collection: "Booking",
	IDField:    "BookingID",
	IDPolicy:   OptionalGenerated,
	Fields: []Field{
		{Name: "ScreeningID", Kind: KindString, Required: true, Ref: "Screening"},
		{Name: "NoOfSeats", Kind: KindInteger, Required: true, Rules: "gte=0"},
		{Name: "Cost", Kind: KindNumber, Required: true, Rules: "gte=0"},
		{Name: "EmailAddress", Kind: KindString, Required: true, Rules: "email"},
	},
}
