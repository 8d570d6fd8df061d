package vc

import "content_harvester/internal/source/rest"

type timelineResponse struct {
	Result struct {
		Items []struct {
			Data struct {
				ID rest.ID `json:"id"`
			} `json:"data"`
		} `json:"items"`
	} `json:"result"`
}

// ContentResponse is the subset of the content detail payload that is mapped.
type ContentResponse struct {
	Message string `json:"message"`
	Result  struct {
		ID        rest.ID   `json:"id"`
		SubsiteID int64     `json:"subsiteId"`
		Title     string    `json:"title"`
		Counters  Counters  `json:"counters"`
		Reactions Reactions `json:"reactions"`
	} `json:"result"`
}

type Counters struct {
	Comments  int `json:"comments"`
	Favorites int `json:"favorites"`
	Reposts   int `json:"reposts"`
	Views     int `json:"views"`
	Hits      int `json:"hits"`
}

type Reactions struct {
	Counters []ReactionCounter `json:"counters"`
}

type ReactionCounter struct {
	ID    int `json:"id"`
	Count int `json:"count"`
}
