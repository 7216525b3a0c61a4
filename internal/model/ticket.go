package model

// Ticket is a single seat issued against a Booking.
var Ticket = Schema{
	Collection: "Ticket",
	IDField:    "TicketID",
	IDPolicy:   OptionalGenerated,
	Fields: []Field{
		{Name: "BookingID", Kind: KindString, Required: true, Ref: "Booking"},
		{Name: "ScreeningID", Kind: KindString, Required: true, Ref: "Screening"},
		{Name: "TicketType", Kind: KindString, Required: true, Ref: "TicketType"},
		{Name: "SeatRow", Kind: KindInteger, Rules: "gte=1"},
		{Name: "SeatColumn", Kind: KindInteger, Rules: "gte=1"},
	},
}

// TicketType is a price band such as "adult" or "child".
var TicketType = Schema{
	Collection: "TicketType",
	IDField:    "TicketTypeID",
	IDPolicy:   CallerSupplied,
	Fields: []Field{
		{Name: "Cost", Kind: KindNumber, Required: true, Rules: "gte=0"},
	},
}
