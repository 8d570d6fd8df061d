package habr

import "content_harvester/internal/source/rest"

type listingResponse struct {
	PublicationIDs []rest.ID `json:"publicationIds"`
}

// ArticleResponse is the subset of the article detail payload that is mapped.
type ArticleResponse struct {
	ID         rest.ID    `json:"id"`
	TitleHTML  string     `json:"titleHtml"`
	Statistics Statistics `json:"statistics"`
	Tags       []Tag      `json:"tags"`
}

type Statistics struct {
	CommentsCount   int `json:"commentsCount"`
	FavoritesCount  int `json:"favoritesCount"`
	ReadingCount    int `json:"readingCount"`
	Score           int `json:"score"`
	VotesCount      int `json:"votesCount"`
	VotesCountPlus  int `json:"votesCountPlus"`
	VotesCountMinus int `json:"votesCountMinus"`
	Reach           int `json:"reach"`
	Readers         int `json:"readers"`
}

type Tag struct {
	TitleHTML string `json:"titleHtml"`
}

type CommentsResponse struct {
	Comments map[string]CommentItem `json:"comments"`
}

type CommentItem struct {
	ID       rest.ID  `json:"id"`
	ParentID *rest.ID `json:"parentId"`
	Level    int      `json:"level"`
	Score    int      `json:"score"`
	Message  string   `json:"message"`
}
