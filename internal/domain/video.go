package domain

// VideoSummary is one entry of an upstream video listing.
type VideoSummary struct {
	ID           string
	Title        string
	Thumbnail    string
	ChannelTitle string
}
