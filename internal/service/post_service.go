package service

import (
	"context"
	"time"

	"mediagrid-be/internal/dto"
	"mediagrid-be/internal/pkg/logger"
	"mediagrid-be/internal/platform/docstore"
	"mediagrid-be/internal/session"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

const (
	postsCollection = "posts"
	feedPageSize    = 20
)

type IPostService interface {
	Create(ctx context.Context, authorUID string, req *dto.CreatePostRequest) (*dto.PostData, error)
	Feed(ctx context.Context, uid string) (*dto.FeedResponse, error)
	Explore(ctx context.Context, uid string) (*dto.FeedResponse, error)
	Like(ctx context.Context, uid, postID string) error
	Unlike(ctx context.Context, uid, postID string) error
}

type postService struct {
	docs   docstore.Store
	logger logger.ILogger
}

func NewPostService(docs docstore.Store, log logger.ILogger) IPostService {
	return &postService{docs: docs, logger: log}
}

// Create snapshots the author's name and photo into the post document
// so feed rendering needs no per-post join.
func (s *postService) Create(ctx context.Context, authorUID string, req *dto.CreatePostRequest) (*dto.PostData, error) {
	authorDoc, err := s.docs.Get(ctx, "users", authorUID)
	if err != nil {
		return nil, err
	}
	if authorDoc == nil {
		return nil, fiber.NewError(fiber.StatusNotFound, "Author profile not found")
	}
	author := session.ProfileFromDoc(authorDoc)

	post := &dto.PostData{
		ID:             uuid.New().String(),
		AuthorUID:      authorUID,
		AuthorName:     author.DisplayName,
		AuthorPhotoURL: author.PhotoURL,
		Content:        req.Content,
		ImageURL:       req.ImageURL,
		Likes:          []string{},
		CreatedAt:      time.Now(),
	}

	if err := s.docs.Set(ctx, postsCollection, post.ID, postDocData(post), false); err != nil {
		return nil, err
	}
	return post, nil
}

// Feed returns the newest page of posts filtered to the people the
// requester follows, plus their own. The page is fetched at a fixed
// size and filtered afterwards, so a heavily filtered page may come
// back short.
func (s *postService) Feed(ctx context.Context, uid string) (*dto.FeedResponse, error) {
	profileDoc, err := s.docs.Get(ctx, "users", uid)
	if err != nil {
		return nil, err
	}
	if profileDoc == nil {
		return nil, fiber.NewError(fiber.StatusNotFound, "User not found")
	}
	profile := session.ProfileFromDoc(profileDoc)

	visible := make(map[string]bool, len(profile.Following)+1)
	visible[uid] = true
	for _, f := range profile.Following {
		visible[f] = true
	}

	docs, err := s.docs.Query(ctx, postsCollection, nil, &docstore.Order{Field: "createdAt", Desc: true}, feedPageSize)
	if err != nil {
		return nil, err
	}

	posts := make([]dto.PostData, 0, len(docs))
	for _, doc := range docs {
		post := postFromDoc(doc)
		if !visible[post.AuthorUID] {
			continue
		}
		post.LikedByRequester = containsString(post.Likes, uid)
		posts = append(posts, *post)
	}
	return &dto.FeedResponse{Posts: posts}, nil
}

// Explore returns the newest page across all authors, minus private
// accounts the requester does not follow.
func (s *postService) Explore(ctx context.Context, uid string) (*dto.FeedResponse, error) {
	docs, err := s.docs.Query(ctx, postsCollection, nil, &docstore.Order{Field: "createdAt", Desc: true}, feedPageSize)
	if err != nil {
		return nil, err
	}

	var following []string
	if profileDoc, err := s.docs.Get(ctx, "users", uid); err == nil && profileDoc != nil {
		following = session.ProfileFromDoc(profileDoc).Following
	}

	privacy := map[string]bool{}
	posts := make([]dto.PostData, 0, len(docs))
	for _, doc := range docs {
		post := postFromDoc(doc)
		if post.AuthorUID != uid && !containsString(following, post.AuthorUID) {
			private, checked := privacy[post.AuthorUID]
			if !checked {
				private = s.isPrivate(ctx, post.AuthorUID)
				privacy[post.AuthorUID] = private
			}
			if private {
				continue
			}
		}
		post.LikedByRequester = containsString(post.Likes, uid)
		posts = append(posts, *post)
	}
	return &dto.FeedResponse{Posts: posts}, nil
}

// Like is idempotent; liking an already liked post is a no-op.
func (s *postService) Like(ctx context.Context, uid, postID string) error {
	return s.setLike(ctx, uid, postID, true)
}

func (s *postService) Unlike(ctx context.Context, uid, postID string) error {
	return s.setLike(ctx, uid, postID, false)
}

func (s *postService) setLike(ctx context.Context, uid, postID string, liked bool) error {
	doc, err := s.docs.Get(ctx, postsCollection, postID)
	if err != nil {
		return err
	}
	if doc == nil {
		return fiber.NewError(fiber.StatusNotFound, "Post not found")
	}

	post := postFromDoc(doc)
	has := containsString(post.Likes, uid)
	if has == liked {
		return nil
	}

	likes := post.Likes
	if liked {
		likes = append(likes, uid)
	} else {
		likes = removeString(likes, uid)
	}

	return s.docs.Set(ctx, postsCollection, postID, docstore.Data{"likes": stringsToAny(likes)}, true)
}

func (s *postService) isPrivate(ctx context.Context, uid string) bool {
	doc, err := s.docs.Get(ctx, "users", uid)
	if err != nil || doc == nil {
		return false
	}
	return session.ProfileFromDoc(doc).IsPrivate
}

func postDocData(p *dto.PostData) docstore.Data {
	return docstore.Data{
		"id":             p.ID,
		"authorUid":      p.AuthorUID,
		"authorName":     p.AuthorName,
		"authorPhotoUrl": p.AuthorPhotoURL,
		"content":        p.Content,
		"imageUrl":       p.ImageURL,
		"likes":          stringsToAny(p.Likes),
		"createdAt":      p.CreatedAt.UTC().Format(time.RFC3339Nano),
	}
}

func postFromDoc(data docstore.Data) *dto.PostData {
	createdAt, _ := time.Parse(time.RFC3339Nano, stringField(data, "createdAt"))
	return &dto.PostData{
		ID:             stringField(data, "id"),
		AuthorUID:      stringField(data, "authorUid"),
		AuthorName:     stringField(data, "authorName"),
		AuthorPhotoURL: stringField(data, "authorPhotoUrl"),
		Content:        stringField(data, "content"),
		ImageURL:       stringField(data, "imageUrl"),
		Likes:          stringSliceField(data, "likes"),
		CreatedAt:      createdAt,
	}
}

func stringField(data docstore.Data, key string) string {
	s, _ := data[key].(string)
	return s
}

func stringSliceField(data docstore.Data, key string) []string {
	switch v := data[key].(type) {
	case []string:
		return append([]string(nil), v...)
	case []interface{}:
		out := make([]string, 0, len(v))
		for _, e := range v {
			if s, ok := e.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return []string{}
	}
}

func stringsToAny(in []string) []interface{} {
	out := make([]interface{}, 0, len(in))
	for _, s := range in {
		out = append(out, s)
	}
	return out
}

func containsString(set []string, v string) bool {
	for _, s := range set {
		if s == v {
			return true
		}
	}
	return false
}

func removeString(set []string, v string) []string {
	out := make([]string, 0, len(set))
	for _, s := range set {
		if s != v {
			out = append(out, s)
		}
	}
	return out
}
