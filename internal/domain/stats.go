package domain

// Counts is the aggregate snapshot served by the stats endpoints.
type Counts struct {
	Users         int64 `json:"users"`
	Rentals       int64 `json:"rentals"`
	ActiveRentals int64 `json:"active_rentals"`
	Messages      int64 `json:"messages"`
}

// StatsRepository defines aggregate queries across tables
type StatsRepository interface {
	Counts() (*Counts, error)
}
