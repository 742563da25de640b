package dto

import "time"

type CreatePostRequest struct {
	Content  string `json:"content" validate:"required,max=2000"`
	ImageURL string `json:"image_url" validate:"omitempty,url"`
}

type PostData struct {
	ID               string    `json:"id"`
	AuthorUID        string    `json:"author_uid"`
	AuthorName       string    `json:"author_name"`
	AuthorPhotoURL   string    `json:"author_photo_url,omitempty"`
	Content          string    `json:"content"`
	ImageURL         string    `json:"image_url,omitempty"`
	Likes            []string  `json:"likes"`
	CreatedAt        time.Time `json:"created_at"`
	LikedByRequester bool      `json:"liked_by_requester"`
}

type FeedResponse struct {
	Posts []PostData `json:"posts"`
}
