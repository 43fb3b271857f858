package feed

// ApiResponse models the top-level structure of the booking API's response.
type ApiResponse struct {
	Code int     `json:"code"`
	Data ApiPage `json:"data"`
}

// ApiPage is one page of a booking search.
type ApiPage struct {
	Page     int          `json:"page"`
	PageSize int          `json:"pageSize"`
	Total    int          `json:"total"`
	Items    []ApiBooking `json:"items"`
}

// ApiBooking is a single booking record as reported upstream.
type ApiBooking struct {
	ID            string   `json:"id"`
	Date          string   `json:"date"`
	StartTime     string   `json:"startTime"`
	DurationHours *float64 `json:"durationHours"`
	Status        string   `json:"status"`
	Seats         int      `json:"seats"`
	Vehicles      int      `json:"vehicles"`
	TourName      string   `json:"tourName"`
}
