package model

import "time"

// SearchQuote is one instrument matched by a symbol search.
type SearchQuote struct {
	Symbol    string `json:"symbol"`
	ShortName string `json:"shortname"`
	LongName  string `json:"longname,omitempty"`
	Exchange  string `json:"exchange"`
	QuoteType string `json:"quoteType"`
}

// NewsItem is a headline attached to a search.
type NewsItem struct {
	UUID           string    `json:"uuid"`
	Title          string    `json:"title"`
	Publisher      string    `json:"publisher"`
	Link           string    `json:"link"`
	PublishedAt    time.Time `json:"providerPublishTime"`
	RelatedTickers []string  `json:"relatedTickers,omitempty"`
}

// SearchResults holds the instrument matches and headlines for one query.
type SearchResults struct {
	Quotes []SearchQuote `json:"quotes"`
	News   []NewsItem    `json:"news"`
}
